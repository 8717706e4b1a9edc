package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/client/session"
	"github.com/dmitrijs2005/chankeys/internal/contentcipher"
	"github.com/spf13/cobra"
)

func (a *App) messageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Encrypt and decrypt channel messages",
	}
	cmd.AddCommand(a.messageEncryptCmd(), a.messageDecryptCmd())
	return cmd
}

func (a *App) messageEncryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "encrypt <channel-id> <text|->",
		Short: "Encrypt a message and print it as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := args[1]
			if text == "-" {
				b, err := readSource(a.in, "-")
				if err != nil {
					return err
				}
				text = string(bytes.TrimRight(b, "\r\n"))
			}
			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				msg, err := s.Cipher.EncryptMessage(ctx, text, args[0])
				if err != nil {
					return err
				}
				return json.NewEncoder(a.out).Encode(msg)
			})
		},
	}
}

func (a *App) messageDecryptCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decrypt <channel-id> [message-json-file|-]",
		Short: "Decrypt one message or a JSON array of messages",
		Long: `Decrypts a message produced by "message encrypt". Given a JSON array, each message
is decrypted on its own and one that fails is printed as "cannot decrypt".`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "-"
			if len(args) == 2 {
				src = args[1]
			}
			raw, err := readSource(a.in, src)
			if err != nil {
				return err
			}
			raw = bytes.TrimSpace(raw)

			return a.withSession(cmd, func(ctx context.Context, s *session.Session) error {
				if len(raw) > 0 && raw[0] == '[' {
					return a.decryptBatch(ctx, s, args[0], raw)
				}
				var msg contentcipher.EncryptedMessage
				if err := json.Unmarshal(raw, &msg); err != nil {
					return fmt.Errorf("parse message: %w", err)
				}
				text, err := s.Cipher.DecryptMessage(ctx, msg.Ciphertext, msg.Nonce, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.out, text)
				return nil
			})
		},
	}
}

func (a *App) decryptBatch(ctx context.Context, s *session.Session, channelID string, raw []byte) error {
	var msgs []contentcipher.EncryptedMessage
	if err := json.Unmarshal(raw, &msgs); err != nil {
		return fmt.Errorf("parse messages: %w", err)
	}
	for i, m := range s.Cipher.DecryptMessages(ctx, channelID, msgs) {
		if m.Err != nil {
			fmt.Fprintln(a.out, placeholder(m.Text))
			a.logger.Debug(ctx, "message not decrypted", "index", i, "error", m.Err)
			continue
		}
		fmt.Fprintln(a.out, m.Text)
	}
	return nil
}
