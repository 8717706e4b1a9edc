package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/dmitrijs2005/chankeys/internal/filex"
)

const (
	PublicKeyFile        = "public.jwk"
	PrivateKeyFile       = "private.jwk"
	SealedPrivateKeyFile = "private.jwk.sealed"

	dirPerm  = 0o700
	filePerm = 0o600
	saltSize = 16

	sealVersion = 1
	sealKDF     = "argon2id"
)

var (
	ErrPassphraseRequired = errors.New("private key is sealed, passphrase required")
	ErrIncompleteIdentity = errors.New("identity directory holds only half of a key pair")
)

// sealedKey is the on-disk form of a passphrase-protected private key.
type sealedKey struct {
	Version    int    `json:"v"`
	KDF        string `json:"kdf"`
	Salt       []byte `json:"salt"`
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// Local keeps the identity key pair in <keysDir>/<userID>/.
type Local struct {
	mu         sync.Mutex
	userID     string
	dir        string
	passphrase []byte
	bits       int
}

type LocalOption func(*Local)

// WithPassphrase seals the private key file with a key derived from p.
func WithPassphrase(p []byte) LocalOption {
	return func(l *Local) {
		if len(p) > 0 {
			l.passphrase = append([]byte(nil), p...)
		}
	}
}

// WithKeyBits sets the RSA modulus size used by Ensure.
func WithKeyBits(bits int) LocalOption {
	return func(l *Local) { l.bits = bits }
}

func NewLocal(keysDir, userID string, opts ...LocalOption) (*Local, error) {
	if err := blobstore.ValidateSegment(userID); err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	if keysDir == "" {
		return nil, fmt.Errorf("keys dir is empty")
	}
	l := &Local{userID: userID, dir: filepath.Join(keysDir, userID)}
	for _, o := range opts {
		o(l)
	}
	return l, nil
}

func (l *Local) CurrentUserID() string { return l.userID }

// Dir returns the directory holding this user's key files.
func (l *Local) Dir() string { return l.dir }

// Sealed reports whether the stored private key is passphrase-protected.
func (l *Local) Sealed() (bool, error) {
	_, ok, err := filex.ReadFileIfExists(filepath.Join(l.dir, SealedPrivateKeyFile))
	return ok, err
}

// Ensure generates and stores a key pair unless one already exists. It
// returns true when a new pair was written. Existing keys are never replaced.
func (l *Local) Ensure(ctx context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	hasPub, hasPriv, err := l.present()
	if err != nil {
		return false, err
	}
	switch {
	case hasPub && hasPriv:
		return false, nil
	case hasPub || hasPriv:
		return false, fmt.Errorf("%w: %w in %s", common.ErrIdentityUnavailable, ErrIncompleteIdentity, l.dir)
	}

	pub, priv, err := cryptox.GenerateIdentityKeypair(l.bits)
	if err != nil {
		return false, err
	}
	pubExp, err := cryptox.ExportKey(pub)
	if err != nil {
		return false, err
	}
	privExp, err := cryptox.ExportKey(priv)
	if err != nil {
		return false, err
	}

	if _, err := filex.EnsureDir(l.dir, dirPerm); err != nil {
		return false, err
	}

	// a public key on disk always has its private half
	if len(l.passphrase) > 0 {
		sealed, err := seal([]byte(privExp), l.passphrase)
		if err != nil {
			return false, err
		}
		err = filex.WriteFileAtomic(filepath.Join(l.dir, SealedPrivateKeyFile), sealed, filePerm)
		if err != nil {
			return false, fmt.Errorf("write private key: %w", err)
		}
	} else {
		err = filex.WriteFileAtomic(filepath.Join(l.dir, PrivateKeyFile), []byte(privExp), filePerm)
		if err != nil {
			return false, fmt.Errorf("write private key: %w", err)
		}
	}

	if err := filex.WriteFileAtomic(filepath.Join(l.dir, PublicKeyFile), []byte(pubExp), filePerm); err != nil {
		return false, fmt.Errorf("write public key: %w", err)
	}
	return true, nil
}

func (l *Local) present() (pub, priv bool, err error) {
	for name, dst := range map[string]*bool{
		PublicKeyFile:        &pub,
		PrivateKeyFile:       &priv,
		SealedPrivateKeyFile: &priv,
	} {
		_, ok, err := filex.ReadFileIfExists(filepath.Join(l.dir, name))
		if err != nil {
			return false, false, err
		}
		*dst = *dst || ok
	}
	return pub, priv, nil
}

func (l *Local) CurrentUserPublicKey(ctx context.Context) (cryptox.PortableKey, bool, error) {
	b, ok, err := filex.ReadFileIfExists(filepath.Join(l.dir, PublicKeyFile))
	if err != nil || !ok {
		return "", false, err
	}
	return cryptox.PortableKey(b), true, nil
}

func (l *Local) LoadLocalPrivateKey(ctx context.Context) (cryptox.PortableKey, bool, error) {
	b, ok, err := filex.ReadFileIfExists(filepath.Join(l.dir, SealedPrivateKeyFile))
	if err != nil {
		return "", false, err
	}
	if ok {
		if len(l.passphrase) == 0 {
			return "", false, ErrPassphraseRequired
		}
		plain, err := unseal(b, l.passphrase)
		if err != nil {
			return "", false, err
		}
		return cryptox.PortableKey(plain), true, nil
	}

	b, ok, err = filex.ReadFileIfExists(filepath.Join(l.dir, PrivateKeyFile))
	if err != nil || !ok {
		return "", false, err
	}
	return cryptox.PortableKey(b), true, nil
}

func seal(plain, passphrase []byte) ([]byte, error) {
	salt, err := common.RandomBytes(saltSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCryptoUnavailable, err)
	}
	kek := cryptox.DeriveKEK(passphrase, salt)
	defer kek.Destroy()

	ct, nonce, err := cryptox.AEADEncrypt(plain, kek)
	if err != nil {
		return nil, err
	}
	return json.Marshal(sealedKey{
		Version:    sealVersion,
		KDF:        sealKDF,
		Salt:       salt,
		Nonce:      nonce,
		Ciphertext: ct,
	})
}

// unseal fails with common.ErrDecryptionFailed on a wrong passphrase.
func unseal(b, passphrase []byte) ([]byte, error) {
	var s sealedKey
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("%w: sealed key: %w", common.ErrDecryptionFailed, err)
	}
	if s.Version != sealVersion || s.KDF != sealKDF {
		return nil, fmt.Errorf("%w: unsupported sealed key v%d/%s", common.ErrDecryptionFailed, s.Version, s.KDF)
	}
	kek := cryptox.DeriveKEK(passphrase, s.Salt)
	defer kek.Destroy()

	return cryptox.AEADDecrypt(s.Ciphertext, s.Nonce, kek)
}
