package cryptox

import "golang.org/x/crypto/argon2"

// DeriveKEK stretches a passphrase into a key-encryption key with argon2id.
// The same passphrase and salt always yield the same key.
func DeriveKEK(passphrase, salt []byte) SymmetricKey {
	return SymmetricKey{b: argon2.IDKey(passphrase, salt, 1, 64*1024, 4, KeySize)}
}
