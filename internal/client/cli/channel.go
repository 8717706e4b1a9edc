package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/client/session"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/spf13/cobra"
)

func (a *App) channelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "channel",
		Short: "Create channel keys and distribute them to members",
	}
	cmd.AddCommand(
		a.channelCreateCmd(),
		a.channelHasCmd(),
		a.channelShareCmd(),
		a.channelImportCmd(),
		a.channelGrantCmd(),
		a.channelMembersCmd(),
		a.channelDMCmd(),
	)
	return cmd
}

func (a *App) channelCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <channel-id>",
		Short: "Generate the key of a new channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.Keys.GenerateChannelKey(ctx, args[0]); err != nil {
					return err
				}
				printOK(a.errOut, "channel key created for %s", highlight(args[0]))
				return nil
			})
		},
	}
}

func (a *App) channelHasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "has <channel-id>",
		Short: "Print whether the current user can resolve the channel key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				fmt.Fprintln(a.out, s.Keys.HasChannelKey(ctx, args[0]))
				return nil
			})
		},
	}
}

func (a *App) channelShareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "share <channel-id> <recipient-public-key-file|->",
		Short: "Wrap the channel key for a recipient and print the blob",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.readPublicKey(args[1])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				blob, err := s.Keys.ShareChannelKey(ctx, args[0], pub)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, blob.String())
				return nil
			})
		},
	}
}

func (a *App) channelImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <channel-id> [blob|-]",
		Short: "Store a shared channel key as your own key record",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := a.readBlob(args)
			if err != nil {
				return err
			}
			blob, err := cryptox.ParseWrappedBlob(raw)
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				if err := s.Keys.ImportSharedChannelKey(ctx, blob, args[0]); err != nil {
					return err
				}
				printOK(a.errOut, "imported key for %s", highlight(args[0]))
				return nil
			})
		},
	}
}

// readBlob takes the blob from args, stdin ("-"), or an interactive prompt.
func (a *App) readBlob(args []string) (string, error) {
	if len(args) == 2 && args[1] != "-" {
		return args[1], nil
	}
	if len(args) == 2 {
		b, err := readSource(a.in, "-")
		if err != nil {
			return "", err
		}
		return trimSpace(b), nil
	}
	return promptLine(bufio.NewReader(a.in), a.errOut, "Paste the shared key")
}

func (a *App) channelGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <channel-id> <user-id> <public-key-file|->",
		Short: "Write a key record for another user",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.readPublicKey(args[2])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				loc, err := s.Keys.GrantChannelKey(ctx, args[0], args[1], pub)
				if err != nil {
					return err
				}
				printOK(a.errOut, "granted %s access to %s (%s)", highlight(args[1]), highlight(args[0]), loc)
				return nil
			})
		},
	}
}

func (a *App) channelMembersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "members <channel-id>",
		Short: "List users holding a key record for the channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				users, err := s.Keys.Members(ctx, args[0])
				if err != nil {
					return err
				}
				for _, u := range users {
					fmt.Fprintln(a.out, u)
				}
				return nil
			})
		},
	}
}

func (a *App) channelDMCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dm <peer-user-id> <peer-public-key-file|->",
		Short: "Create or find the direct message key shared with a peer",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := a.readPublicKey(args[1])
			if err != nil {
				return err
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				id, err := s.Keys.GenerateDirectKey(ctx, args[0], pub)
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, id)
				return nil
			})
		},
	}
}
