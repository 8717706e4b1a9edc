package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/dmitrijs2005/chankeys/internal/client/session"
	"github.com/dmitrijs2005/chankeys/internal/contentcipher"
	"github.com/dmitrijs2005/chankeys/internal/filex"
	"github.com/spf13/cobra"
)

const (
	outputPerm     = 0o600
	fallbackOutput = "decrypted.bin"
)

func (a *App) fileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Encrypt and decrypt files shared in a channel",
	}
	cmd.AddCommand(a.fileEncryptCmd(), a.fileDecryptCmd())
	return cmd
}

func detectMimeType(name string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return http.DetectContentType(data)
}

func (a *App) fileEncryptCmd() *cobra.Command {
	var (
		output   string
		mimeType string
	)
	cmd := &cobra.Command{
		Use:   "encrypt <channel-id> <path>",
		Short: "Encrypt a file into a JSON envelope with cleartext metadata",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readSource(a.in, args[1])
			if err != nil {
				return err
			}
			name := filepath.Base(args[1])
			if mimeType == "" {
				mimeType = detectMimeType(name, data)
			}

			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				enc, err := s.Cipher.EncryptFile(ctx, data, name, mimeType, int64(len(data)), args[0])
				if err != nil {
					return err
				}
				b, err := json.Marshal(enc)
				if err != nil {
					return err
				}
				if output == "" {
					_, err = fmt.Fprintln(a.out, string(b))
					return err
				}
				if err := filex.WriteFileAtomic(output, b, outputPerm); err != nil {
					return err
				}
				printOK(a.errOut, "encrypted %s to %s", highlight(name), output)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the envelope to this file instead of stdout")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type to record (detected when empty)")
	return cmd
}

func (a *App) fileDecryptCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "decrypt <channel-id> <envelope-file|->",
		Short: "Decrypt a file envelope",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readSource(a.in, args[1])
			if err != nil {
				return err
			}
			var enc contentcipher.EncryptedFile
			if err := json.Unmarshal(raw, &enc); err != nil {
				return fmt.Errorf("parse envelope: %w", err)
			}

			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				f, err := s.Cipher.DecryptFile(ctx, enc.Ciphertext, enc.Nonce, enc.Metadata, args[0])
				if err != nil {
					return err
				}
				dst := output
				if dst == "" {
					dst = outputName(f.Metadata.Name)
				}
				if err := filex.WriteFileAtomic(dst, f.Data, outputPerm); err != nil {
					return err
				}
				printOK(a.errOut, "wrote %s (%s, %d bytes)", highlight(dst), f.MimeType(), len(f.Data))
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (defaults to the recorded file name)")
	return cmd
}

// outputName reduces a recorded file name to a base name in the working
// directory.
func outputName(recorded string) string {
	base := filepath.Base(filepath.Clean("/" + recorded))
	if base == "/" || base == "." || base == "" {
		return fallbackOutput
	}
	return base
}
