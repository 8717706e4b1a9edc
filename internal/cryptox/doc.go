// Package cryptox is the primitive layer of the channel key subsystem.
//
// It wraps three groups of operations:
//
//   - identity keys: RSA key pairs (2048 bits or more) used only to wrap
//     small payloads, never bulk data;
//   - channel keys: 256-bit AES-GCM keys with a fresh random 96-bit nonce
//     drawn for every seal;
//   - portable export: lossless JWK representations of both, bound to an
//     intended usage on import.
//
// Every failure is reported through the sentinel errors in internal/common
// (ErrCryptoUnavailable, ErrInvalidKeyFormat, ErrEncryptionFailed,
// ErrDecryptionFailed), wrapped around the underlying cause.
package cryptox
