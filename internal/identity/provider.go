// Package identity supplies the current user's id and identity key pair to
// the channel key manager.
package identity

import (
	"context"

	"github.com/dmitrijs2005/chankeys/internal/cryptox"
)

// Provider exposes the signed-in user. Absent keys are reported with
// ok == false and a nil error; err is reserved for keys that exist but
// cannot be read.
type Provider interface {
	CurrentUserID() string
	CurrentUserPublicKey(ctx context.Context) (key cryptox.PortableKey, ok bool, err error)
	LoadLocalPrivateKey(ctx context.Context) (key cryptox.PortableKey, ok bool, err error)
}

// Static is a Provider over keys already held in memory.
type Static struct {
	UserID     string
	PublicKey  cryptox.PortableKey
	PrivateKey cryptox.PortableKey
}

// NewStatic generates a fresh key pair for userID.
func NewStatic(userID string) (*Static, error) {
	pub, priv, err := cryptox.GenerateIdentityKeypair(0)
	if err != nil {
		return nil, err
	}
	pubExp, err := cryptox.ExportKey(pub)
	if err != nil {
		return nil, err
	}
	privExp, err := cryptox.ExportKey(priv)
	if err != nil {
		return nil, err
	}
	return &Static{UserID: userID, PublicKey: pubExp, PrivateKey: privExp}, nil
}

func (s *Static) CurrentUserID() string { return s.UserID }

func (s *Static) CurrentUserPublicKey(context.Context) (cryptox.PortableKey, bool, error) {
	return s.PublicKey, s.PublicKey != "", nil
}

func (s *Static) LoadLocalPrivateKey(context.Context) (cryptox.PortableKey, bool, error) {
	return s.PrivateKey, s.PrivateKey != "", nil
}
