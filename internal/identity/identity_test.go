package identity

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	s, err := NewStatic("alice")
	require.NoError(t, err)
	ctx := context.Background()

	assert.Equal(t, "alice", s.CurrentUserID())

	pub, ok, err := s.CurrentUserPublicKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = cryptox.ImportPublicKey(pub)
	require.NoError(t, err)

	priv, ok, err := s.LoadLocalPrivateKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = cryptox.ImportPrivateKey(priv)
	require.NoError(t, err)

	empty := &Static{UserID: "bob"}
	_, ok, err = empty.CurrentUserPublicKey(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = empty.LoadLocalPrivateKey(ctx)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestNewLocal_Invalid(t *testing.T) {
	_, err := NewLocal(t.TempDir(), "../alice")
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)

	_, err = NewLocal("", "alice")
	assert.Error(t, err)
}

func TestLocal_MissingKeys(t *testing.T) {
	l, err := NewLocal(t.TempDir(), "alice")
	require.NoError(t, err)
	ctx := context.Background()

	_, ok, err := l.CurrentUserPublicKey(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = l.LoadLocalPrivateKey(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLocal_EnsurePlain(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	created, err := l.Ensure(ctx)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(root, "alice"), l.Dir())

	sealed, err := l.Sealed()
	require.NoError(t, err)
	assert.False(t, sealed)

	pubExp, ok, err := l.CurrentUserPublicKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	privExp, ok, err := l.LoadLocalPrivateKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	pub, err := cryptox.ImportPublicKey(pubExp)
	require.NoError(t, err)
	priv, err := cryptox.ImportPrivateKey(privExp)
	require.NoError(t, err)

	blob, err := cryptox.WrapWithPublicKey([]byte("payload"), pub)
	require.NoError(t, err)
	out, err := cryptox.UnwrapWithPrivateKey(blob, priv)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), out)

	if runtime.GOOS != "windows" {
		fi, err := os.Stat(filepath.Join(l.Dir(), PrivateKeyFile))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())
	}

	// second call keeps the existing pair
	created, err = l.Ensure(ctx)
	require.NoError(t, err)
	assert.False(t, created)
	again, _, err := l.CurrentUserPublicKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, pubExp, again)
}

func TestLocal_EnsureSealed(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	l, err := NewLocal(root, "alice", WithPassphrase([]byte("correct horse")))
	require.NoError(t, err)
	_, err = l.Ensure(ctx)
	require.NoError(t, err)

	sealed, err := l.Sealed()
	require.NoError(t, err)
	assert.True(t, sealed)

	raw, err := os.ReadFile(filepath.Join(l.Dir(), SealedPrivateKeyFile))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), `"d"`)

	priv, ok, err := l.LoadLocalPrivateKey(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	_, err = cryptox.ImportPrivateKey(priv)
	require.NoError(t, err)

	noPass, err := NewLocal(root, "alice")
	require.NoError(t, err)
	_, _, err = noPass.LoadLocalPrivateKey(ctx)
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	wrong, err := NewLocal(root, "alice", WithPassphrase([]byte("battery staple")))
	require.NoError(t, err)
	_, _, err = wrong.LoadLocalPrivateKey(ctx)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestLocal_EnsureIncomplete(t *testing.T) {
	root := t.TempDir()
	ctx := context.Background()

	l, err := NewLocal(root, "alice")
	require.NoError(t, err)
	_, err = l.Ensure(ctx)
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(l.Dir(), PrivateKeyFile)))

	_, err = l.Ensure(ctx)
	assert.ErrorIs(t, err, ErrIncompleteIdentity)
	assert.ErrorIs(t, err, common.ErrIdentityUnavailable)
}

func TestUnseal_Corrupted(t *testing.T) {
	sealed, err := seal([]byte("secret"), []byte("pw"))
	require.NoError(t, err)

	out, err := unseal(sealed, []byte("pw"))
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), out)

	_, err = unseal([]byte("{"), []byte("pw"))
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	_, err = unseal([]byte(`{"v":2,"kdf":"argon2id"}`), []byte("pw"))
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}
