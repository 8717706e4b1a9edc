package cryptox

import (
	"crypto"
	"crypto/rsa"
	_ "crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/chankeys/internal/common"
	jose "github.com/go-jose/go-jose/v4"
)

// PortableKey is the JWK JSON form of a key. It is safe to store or transmit
// for public and symmetric (already wrapped) keys; private key exports must
// be sealed before they touch disk.
type PortableKey string

// ExportKey serializes a key handle into its JWK representation.
func ExportKey(k Key) (PortableKey, error) {
	if k == nil {
		return "", fmt.Errorf("%w: nil key", common.ErrInvalidKeyFormat)
	}
	j, ok := k.jwk()
	if !ok {
		return "", fmt.Errorf("%w: empty key handle", common.ErrInvalidKeyFormat)
	}
	b, err := j.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidKeyFormat, err)
	}
	return PortableKey(b), nil
}

// ImportKey parses a JWK and binds it to usage. Public RSA keys import only
// for UsageEncrypt, private RSA keys only for UsageDecrypt and symmetric keys
// only for UsageEncryptDecrypt; any other combination, an unexpected "alg" or
// "use", or malformed JSON fails with common.ErrInvalidKeyFormat.
func ImportKey(p PortableKey, usage KeyUsage) (Key, error) {
	var j jose.JSONWebKey
	if err := j.UnmarshalJSON([]byte(p)); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidKeyFormat, err)
	}
	if j.Use != "" && j.Use != useEnc {
		return nil, fmt.Errorf("%w: unexpected use %q", common.ErrInvalidKeyFormat, j.Use)
	}

	switch key := j.Key.(type) {
	case *rsa.PublicKey:
		if err := checkRSA(j.Algorithm, key, usage, UsageEncrypt); err != nil {
			return nil, err
		}
		return &PublicKey{key: key}, nil

	case *rsa.PrivateKey:
		if err := checkRSA(j.Algorithm, &key.PublicKey, usage, UsageDecrypt); err != nil {
			return nil, err
		}
		if err := key.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", common.ErrInvalidKeyFormat, err)
		}
		key.Precompute()
		return &PrivateKey{key: key}, nil

	case []byte:
		if usage != UsageEncryptDecrypt {
			return nil, usageMismatch(usage, UsageEncryptDecrypt)
		}
		if j.Algorithm != "" && j.Algorithm != algA256GCM {
			return nil, fmt.Errorf("%w: unexpected alg %q for symmetric key", common.ErrInvalidKeyFormat, j.Algorithm)
		}
		return NewSymmetricKey(key)

	default:
		return nil, fmt.Errorf("%w: unsupported key type %T", common.ErrInvalidKeyFormat, j.Key)
	}
}

func checkRSA(alg string, key *rsa.PublicKey, got, want KeyUsage) error {
	if got != want {
		return usageMismatch(got, want)
	}
	if alg != "" && alg != algRSAOAEP256 {
		return fmt.Errorf("%w: unexpected alg %q for RSA key", common.ErrInvalidKeyFormat, alg)
	}
	if key.N == nil || key.E == 0 {
		return fmt.Errorf("%w: incomplete RSA key", common.ErrInvalidKeyFormat)
	}
	if key.N.BitLen() < MinRSABits {
		return fmt.Errorf("%w: %w", common.ErrInvalidKeyFormat, ErrKeySizeTooSmall)
	}
	return nil
}

func usageMismatch(got, want KeyUsage) error {
	return fmt.Errorf("%w: key supports %s, requested %s", common.ErrInvalidKeyFormat, want, got)
}

// ImportPublicKey imports an encrypt-only identity key.
func ImportPublicKey(p PortableKey) (*PublicKey, error) {
	k, err := ImportKey(p, UsageEncrypt)
	if err != nil {
		return nil, err
	}
	return k.(*PublicKey), nil
}

// ImportPrivateKey imports a decrypt-only identity key.
func ImportPrivateKey(p PortableKey) (*PrivateKey, error) {
	k, err := ImportKey(p, UsageDecrypt)
	if err != nil {
		return nil, err
	}
	return k.(*PrivateKey), nil
}

// ImportSymmetricKey imports a channel key.
func ImportSymmetricKey(p PortableKey) (SymmetricKey, error) {
	k, err := ImportKey(p, UsageEncryptDecrypt)
	if err != nil {
		return SymmetricKey{}, err
	}
	return k.(SymmetricKey), nil
}

// Fingerprint returns the hex SHA-256 JWK thumbprint (RFC 7638) of a public
// key, for out-of-band comparison between users.
func Fingerprint(pub *PublicKey) (string, error) {
	j, ok := pub.jwk()
	if !ok {
		return "", errors.New("fingerprint: empty public key")
	}
	sum, err := j.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hex.EncodeToString(sum), nil
}
