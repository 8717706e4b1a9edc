package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/chankeys/internal/client/config"
	"github.com/dmitrijs2005/chankeys/internal/client/session"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/identity"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"github.com/spf13/cobra"
)

// App carries the state shared by all commands of one invocation.
type App struct {
	flags         *config.Flags
	askPassphrase bool

	cfg    *config.Config
	logger logging.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// NewRootCmd builds the chankeys command tree reading from in and writing
// results to out and status to errOut.
func NewRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	a := &App{in: in, out: out, errOut: errOut}

	root := &cobra.Command{
		Use:           "chankeys",
		Short:         "Manage end-to-end encrypted channel keys",
		Long:          `Generates channel keys, distributes them to members as wrapped key records and encrypts messages and files with them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	a.flags = config.BindFlags(root.PersistentFlags())
	root.PersistentFlags().BoolVarP(&a.askPassphrase, "ask-passphrase", "P", false,
		"prompt for the private key passphrase (or set "+PassphraseEnv+")")

	root.AddCommand(a.identityCmd(), a.channelCmd(), a.messageCmd(), a.fileCmd())
	return root
}

// Execute runs the root command and prints a failure line on error.
func Execute(ctx context.Context, in io.Reader, out, errOut io.Writer, args []string) int {
	root := NewRootCmd(in, out, errOut)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		printFail(errOut, "%s", describe(err))
		return 1
	}
	return 0
}

func (a *App) load() error {
	cfg, err := a.flags.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := session.NewLogger(cfg, a.errOut)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// passphrase returns the private key passphrase from the environment or a
// prompt, or nil when neither is configured.
func (a *App) passphrase(confirm bool) ([]byte, error) {
	if v := getenv(PassphraseEnv); v != "" {
		return []byte(v), nil
	}
	if !a.askPassphrase {
		return nil, nil
	}
	pw, err := promptPassphrase(a.errOut, "Passphrase: ")
	if err != nil {
		return nil, err
	}
	if confirm {
		again, err := promptPassphrase(a.errOut, "Repeat passphrase: ")
		if err != nil {
			return nil, err
		}
		defer common.Wipe(again)
		if string(again) != string(pw) {
			common.Wipe(pw)
			return nil, fmt.Errorf("passphrases do not match")
		}
	}
	return pw, nil
}

func (a *App) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.cfg.CommandTimeout > 0 {
		return context.WithTimeout(ctx, a.cfg.CommandTimeout)
	}
	return context.WithCancel(ctx)
}

func (a *App) openIdentity(confirm bool) (*identity.Local, error) {
	pw, err := a.passphrase(confirm)
	if err != nil {
		return nil, err
	}
	defer common.Wipe(pw)
	return session.OpenIdentity(a.cfg, pw)
}

// withSession opens a session for the duration of fn.
func (a *App) withSession(cmd *cobra.Command, fn func(ctx context.Context, s *session.Session) error) error {
	ctx, cancel := a.withTimeout(cmd.Context())
	defer cancel()

	pw, err := a.passphrase(false)
	if err != nil {
		return err
	}
	defer common.Wipe(pw)

	s, err := session.Open(ctx, a.cfg, pw, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			a.logger.Warn(ctx, "closing session", "error", cerr)
		}
	}()
	return fn(ctx, s)
}
