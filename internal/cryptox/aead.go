package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
)

// AEADEncrypt seals plaintext with AES-256-GCM.
//
// A new random 12-byte nonce is generated for each call and returned next
// to the ciphertext; callers cannot supply their own, so a nonce is never
// reused under the same key.
//
// Parameters:
//   - plaintext: bytes to seal, may be empty.
//   - key: a channel key from GenerateSymmetricKey or ImportSymmetricKey.
//
// Returns:
//   - ciphertext: the sealed data including the 16-byte tag.
//   - nonce: the 12-byte nonce required by AEADDecrypt.
//   - err: common.ErrCryptoUnavailable when no entropy is available,
//     common.ErrEncryptionFailed for an unusable key.
//
// Example:
//
//	key, _ := GenerateSymmetricKey()
//	ct, nonce, err := AEADEncrypt([]byte("hello"), key)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pt, err := AEADDecrypt(ct, nonce, key)
func AEADEncrypt(plaintext []byte, key SymmetricKey) (ciphertext, nonce []byte, err error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrEncryptionFailed, err)
	}

	nonce = make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrCryptoUnavailable, err)
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// AEADDecrypt opens a ciphertext produced by AEADEncrypt. Any bit flip in
// ciphertext or nonce, or a different key, fails with
// common.ErrDecryptionFailed; corrupted plaintext is never returned.
func AEADDecrypt(ciphertext, nonce []byte, key SymmetricKey) ([]byte, error) {
	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("%w: nonce must be %d bytes, got %d", common.ErrDecryptionFailed, NonceSize, len(nonce))
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}
	return plaintext, nil
}

func newGCM(key SymmetricKey) (cipher.AEAD, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("symmetric key must be %d bytes", KeySize)
	}
	block, err := aes.NewCipher(key.b)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
