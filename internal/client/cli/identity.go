package cli

import (
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/spf13/cobra"
)

func (a *App) identityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Create or inspect the local identity key pair",
	}
	cmd.AddCommand(a.identityInitCmd(), a.identityShowCmd())
	return cmd
}

func (a *App) identityInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the identity key pair for this device if it does not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			id, err := a.openIdentity(true)
			if err != nil {
				return err
			}
			created, err := id.Ensure(ctx)
			if err != nil {
				return err
			}
			pub, _, err := id.CurrentUserPublicKey(ctx)
			if err != nil {
				return err
			}
			fp, err := fingerprint(pub)
			if err != nil {
				return err
			}

			if created {
				a.logger.Info(ctx, "identity created", "user_id", id.CurrentUserID(), "dir", id.Dir())
				printOK(a.errOut, "identity created for %s in %s", highlight(id.CurrentUserID()), id.Dir())
			} else {
				printOK(a.errOut, "identity for %s already exists", highlight(id.CurrentUserID()))
			}
			fmt.Fprintln(a.out, fp)
			return nil
		},
	}
}

func (a *App) identityShowCmd() *cobra.Command {
	var jwkOnly bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the public key and its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.withTimeout(cmd.Context())
			defer cancel()

			id, err := a.openIdentity(false)
			if err != nil {
				return err
			}
			pub, ok, err := id.CurrentUserPublicKey(ctx)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: no identity for %s", common.ErrIdentityUnavailable, id.CurrentUserID())
			}
			if jwkOnly {
				fmt.Fprintln(a.out, string(pub))
				return nil
			}
			fp, err := fingerprint(pub)
			if err != nil {
				return err
			}
			sealed, err := id.Sealed()
			if err != nil {
				return err
			}

			fmt.Fprintf(a.out, "user:        %s\n", id.CurrentUserID())
			fmt.Fprintf(a.out, "fingerprint: %s\n", fp)
			fmt.Fprintf(a.out, "sealed:      %t\n", sealed)
			fmt.Fprintf(a.out, "public key:  %s\n", pub)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jwkOnly, "jwk", false, "print only the public JWK")
	return cmd
}

func fingerprint(p cryptox.PortableKey) (string, error) {
	pub, err := cryptox.ImportPublicKey(p)
	if err != nil {
		return "", err
	}
	return cryptox.Fingerprint(pub)
}

// readPublicKey loads a recipient's public JWK from a file or stdin.
func (a *App) readPublicKey(path string) (cryptox.PortableKey, error) {
	b, err := readSource(a.in, path)
	if err != nil {
		return "", err
	}
	p := cryptox.PortableKey(trimSpace(b))
	if _, err := cryptox.ImportPublicKey(p); err != nil {
		return "", fmt.Errorf("public key %s: %w", path, err)
	}
	return p, nil
}
