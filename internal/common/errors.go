// Package common defines shared constants and sentinel errors used across
// the key manager, the blob store backends and blobd. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound        = errors.New("not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Key management errors.
var (
	// ErrCryptoUnavailable means the platform could not perform a crypto
	// operation (entropy or resource exhaustion). Fatal for the session.
	ErrCryptoUnavailable = errors.New("crypto unavailable")

	// ErrInvalidKeyFormat means a portable key could not be imported, or was
	// imported for the wrong usage.
	ErrInvalidKeyFormat = errors.New("invalid key format")

	// ErrEncryptionFailed covers wrap and AEAD seal failures.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed covers unwrap failures, authentication tag
	// mismatches and corrupted key records.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrIdentityUnavailable means the current user has no resolvable
	// public or private key.
	ErrIdentityUnavailable = errors.New("identity keys unavailable")

	// ErrKeyNotFound means no key record grants the current user access to
	// the channel.
	ErrKeyNotFound = errors.New("no access to channel key")

	// ErrStoreUnavailable wraps blob store failures other than "not found".
	ErrStoreUnavailable = errors.New("store unavailable")
)
