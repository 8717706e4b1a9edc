package cryptox

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
	jose "github.com/go-jose/go-jose/v4"
)

const (
	// KeySize is the channel key length in bytes (AES-256).
	KeySize = 32
	// NonceSize is the AES-GCM nonce length in bytes.
	NonceSize = 12
	// MinRSABits is the smallest accepted identity key size.
	MinRSABits = 2048
	// DefaultRSABits is used when the caller does not pick a size.
	DefaultRSABits = 2048
)

const (
	algRSAOAEP256 = "RSA-OAEP-256"
	algA256GCM    = "A256GCM"
	useEnc        = "enc"
)

var ErrKeySizeTooSmall = errors.New("identity key size must be at least 2048 bits")

// KeyUsage is the operation set a key handle is bound to.
type KeyUsage int

const (
	UsageEncrypt KeyUsage = iota + 1
	UsageDecrypt
	UsageEncryptDecrypt
)

func (u KeyUsage) String() string {
	switch u {
	case UsageEncrypt:
		return "encrypt"
	case UsageDecrypt:
		return "decrypt"
	case UsageEncryptDecrypt:
		return "encrypt+decrypt"
	default:
		return fmt.Sprintf("usage(%d)", int(u))
	}
}

// Key is an in-memory key handle that can be exported. It is implemented by
// *PublicKey, *PrivateKey and SymmetricKey only.
type Key interface {
	Usage() KeyUsage
	jwk() (jose.JSONWebKey, bool)
}

// PublicKey is the encrypt-only half of an identity key pair.
type PublicKey struct {
	key *rsa.PublicKey
}

func (k *PublicKey) Usage() KeyUsage { return UsageEncrypt }

// Bits returns the modulus size.
func (k *PublicKey) Bits() int {
	if k == nil || k.key == nil {
		return 0
	}
	return k.key.N.BitLen()
}

func (k *PublicKey) jwk() (jose.JSONWebKey, bool) {
	if k == nil || k.key == nil {
		return jose.JSONWebKey{}, false
	}
	return jose.JSONWebKey{Key: k.key, Algorithm: algRSAOAEP256, Use: useEnc}, true
}

// PrivateKey is the decrypt-only half of an identity key pair. It never
// leaves the owning device except as a sealed export.
type PrivateKey struct {
	key *rsa.PrivateKey
}

func (k *PrivateKey) Usage() KeyUsage { return UsageDecrypt }

// Public returns the matching public key.
func (k *PrivateKey) Public() *PublicKey {
	if k == nil || k.key == nil {
		return nil
	}
	return &PublicKey{key: &k.key.PublicKey}
}

func (k *PrivateKey) jwk() (jose.JSONWebKey, bool) {
	if k == nil || k.key == nil {
		return jose.JSONWebKey{}, false
	}
	return jose.JSONWebKey{Key: k.key, Algorithm: algRSAOAEP256, Use: useEnc}, true
}

// SymmetricKey is a 256-bit channel key handle. The zero value is not a
// valid key.
type SymmetricKey struct {
	b []byte
}

// NewSymmetricKey copies raw key material into a handle.
func NewSymmetricKey(raw []byte) (SymmetricKey, error) {
	if len(raw) != KeySize {
		return SymmetricKey{}, fmt.Errorf("%w: symmetric key must be %d bytes, got %d", common.ErrInvalidKeyFormat, KeySize, len(raw))
	}
	b := make([]byte, KeySize)
	copy(b, raw)
	return SymmetricKey{b: b}, nil
}

func (k SymmetricKey) Usage() KeyUsage { return UsageEncryptDecrypt }

// IsZero reports whether k holds no key material.
func (k SymmetricKey) IsZero() bool { return len(k.b) != KeySize }

// Equal compares two keys in constant time.
func (k SymmetricKey) Equal(other SymmetricKey) bool {
	return !k.IsZero() && subtle.ConstantTimeCompare(k.b, other.b) == 1
}

// Clone returns a handle over its own copy of the key material.
func (k SymmetricKey) Clone() SymmetricKey {
	if k.b == nil {
		return SymmetricKey{}
	}
	return SymmetricKey{b: bytes.Clone(k.b)}
}

// Destroy wipes the key material. Copies of the handle share it; clones
// do not.
func (k SymmetricKey) Destroy() {
	common.Wipe(k.b)
}

func (k SymmetricKey) jwk() (jose.JSONWebKey, bool) {
	if k.IsZero() {
		return jose.JSONWebKey{}, false
	}
	return jose.JSONWebKey{Key: k.b, Algorithm: algA256GCM, Use: useEnc}, true
}

// GenerateIdentityKeypair creates an RSA key pair for key wrapping. A bits
// value of 0 selects DefaultRSABits.
func GenerateIdentityKeypair(bits int) (*PublicKey, *PrivateKey, error) {
	if bits == 0 {
		bits = DefaultRSABits
	}
	if bits < MinRSABits {
		return nil, nil, ErrKeySizeTooSmall
	}

	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: generate RSA key: %w", common.ErrCryptoUnavailable, err)
	}

	return &PublicKey{key: &priv.PublicKey}, &PrivateKey{key: priv}, nil
}

// GenerateSymmetricKey draws a fresh 256-bit channel key.
func GenerateSymmetricKey() (SymmetricKey, error) {
	b := make([]byte, KeySize)
	if _, err := rand.Read(b); err != nil {
		return SymmetricKey{}, fmt.Errorf("%w: %w", common.ErrCryptoUnavailable, err)
	}
	return SymmetricKey{b: b}, nil
}
