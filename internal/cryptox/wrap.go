package cryptox

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
)

// WrappedBlob is a payload encrypted under an identity public key.
type WrappedBlob []byte

// String returns the standard base64 transport form.
func (b WrappedBlob) String() string {
	return base64.StdEncoding.EncodeToString(b)
}

// ParseWrappedBlob decodes the base64 transport form.
func ParseWrappedBlob(s string) (WrappedBlob, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: wrapped blob is not base64: %w", common.ErrDecryptionFailed, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty wrapped blob", common.ErrDecryptionFailed)
	}
	return WrappedBlob(b), nil
}

// MaxWrapPayload is the largest payload RSA-OAEP/SHA-256 accepts for pub.
func MaxWrapPayload(pub *PublicKey) int {
	if pub == nil || pub.key == nil {
		return 0
	}
	return pub.key.Size() - 2*sha256.Size - 2
}

// WrapWithPublicKey encrypts a short payload (an exported channel key) under
// pub with RSA-OAEP/SHA-256.
func WrapWithPublicKey(payload []byte, pub *PublicKey) (WrappedBlob, error) {
	if pub == nil || pub.key == nil {
		return nil, fmt.Errorf("%w: nil public key", common.ErrEncryptionFailed)
	}
	if limit := MaxWrapPayload(pub); len(payload) > limit {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds the %d-byte limit of a %d-bit key",
			common.ErrEncryptionFailed, len(payload), limit, pub.Bits())
	}

	ct, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub.key, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionFailed, err)
	}
	return WrappedBlob(ct), nil
}

// UnwrapWithPrivateKey reverses WrapWithPublicKey. A wrong key, a corrupted
// blob or tampering all surface as common.ErrDecryptionFailed.
func UnwrapWithPrivateKey(blob WrappedBlob, priv *PrivateKey) ([]byte, error) {
	if priv == nil || priv.key == nil {
		return nil, fmt.Errorf("%w: nil private key", common.ErrDecryptionFailed)
	}
	pt, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv.key, blob, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}
	return pt, nil
}
