// Package contentcipher encrypts message text and file payloads under the
// key of the channel they belong to.
package contentcipher

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/dmitrijs2005/chankeys/internal/logging"
)

// KeyResolver returns the current identity's key for a channel.
// *channelkeys.Manager satisfies it.
type KeyResolver interface {
	GetChannelKey(ctx context.Context, channelID string) (cryptox.SymmetricKey, error)
}

// EncryptedMessage is the stored form of a message. A message without a
// nonce was never encrypted and carries its text in Ciphertext.
type EncryptedMessage struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce,omitempty"`
}

// FileMetadata travels in cleartext next to an encrypted file.
type FileMetadata struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

type EncryptedFile struct {
	Ciphertext []byte `json:"ciphertext"`
	Nonce      []byte `json:"nonce"`
	// Metadata is the JSON encoding of FileMetadata. It is not encrypted.
	Metadata json.RawMessage `json:"metadata"`
}

// File is a decrypted payload tagged with its declared metadata.
type File struct {
	Data     []byte
	Metadata FileMetadata
}

func (f *File) MimeType() string { return f.Metadata.MimeType }

// DecryptedMessage is one entry of a DecryptMessages result. Err is set
// when Text holds the placeholder.
type DecryptedMessage struct {
	Text string
	Err  error
}

type Cipher struct {
	keys   KeyResolver
	logger logging.Logger
}

func New(keys KeyResolver, logger logging.Logger) *Cipher {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Cipher{keys: keys, logger: logger.With("module", "contentcipher")}
}

func (c *Cipher) EncryptMessage(ctx context.Context, plaintext, channelID string) (*EncryptedMessage, error) {
	key, err := c.keys.GetChannelKey(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ct, nonce, err := cryptox.AEADEncrypt([]byte(plaintext), key)
	if err != nil {
		return nil, err
	}
	return &EncryptedMessage{Ciphertext: ct, Nonce: nonce}, nil
}

// DecryptMessage opens a message. An empty nonce marks legacy plaintext,
// which is returned unchanged without resolving the channel key.
func (c *Cipher) DecryptMessage(ctx context.Context, ciphertext, nonce []byte, channelID string) (string, error) {
	if len(nonce) == 0 {
		return string(ciphertext), nil
	}
	key, err := c.keys.GetChannelKey(ctx, channelID)
	if err != nil {
		return "", err
	}
	pt, err := cryptox.AEADDecrypt(ciphertext, nonce, key)
	if err != nil {
		return "", err
	}
	return string(pt), nil
}

// DecryptMessages decrypts each message independently. A message that fails
// is replaced by common.CannotDecryptPlaceholder and the rest still load.
func (c *Cipher) DecryptMessages(ctx context.Context, channelID string, msgs []EncryptedMessage) []DecryptedMessage {
	out := make([]DecryptedMessage, len(msgs))
	failed := 0
	for i, m := range msgs {
		text, err := c.DecryptMessage(ctx, m.Ciphertext, m.Nonce, channelID)
		if err != nil {
			failed++
			out[i] = DecryptedMessage{Text: common.CannotDecryptPlaceholder, Err: err}
			continue
		}
		out[i] = DecryptedMessage{Text: text}
	}
	if failed > 0 {
		c.logger.Warn(ctx, "messages could not be decrypted", "channel_id", channelID,
			"failed", failed, "total", len(msgs))
	}
	return out
}

// EncryptFile seals data. Name, MIME type and size are returned as cleartext
// metadata.
func (c *Cipher) EncryptFile(ctx context.Context, data []byte, name, mimeType string, size int64, channelID string) (*EncryptedFile, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative file size %d", common.ErrEncryptionFailed, size)
	}
	meta, err := json.Marshal(FileMetadata{Name: name, MimeType: mimeType, Size: size})
	if err != nil {
		return nil, fmt.Errorf("%w: file metadata: %w", common.ErrEncryptionFailed, err)
	}

	key, err := c.keys.GetChannelKey(ctx, channelID)
	if err != nil {
		return nil, err
	}
	ct, nonce, err := cryptox.AEADEncrypt(data, key)
	if err != nil {
		return nil, err
	}

	c.logger.Debug(ctx, "file encrypted", "channel_id", channelID, "size", size)
	return &EncryptedFile{Ciphertext: ct, Nonce: nonce, Metadata: meta}, nil
}

// DecryptFile opens a file produced by EncryptFile.
func (c *Cipher) DecryptFile(ctx context.Context, ciphertext, nonce, metadata []byte, channelID string) (*File, error) {
	var meta FileMetadata
	if err := json.Unmarshal(metadata, &meta); err != nil {
		return nil, fmt.Errorf("%w: file metadata: %w", common.ErrDecryptionFailed, err)
	}

	key, err := c.keys.GetChannelKey(ctx, channelID)
	if err != nil {
		return nil, err
	}
	data, err := cryptox.AEADDecrypt(ciphertext, nonce, key)
	if err != nil {
		return nil, err
	}
	return &File{Data: data, Metadata: meta}, nil
}
