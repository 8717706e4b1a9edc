package channelkeys

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/memstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/dmitrijs2005/chankeys/internal/identity"
	"github.com/dmitrijs2005/chankeys/internal/keycache"
	"github.com/dmitrijs2005/chankeys/internal/models"
	"github.com/dmitrijs2005/chankeys/internal/repositories/keyrecords"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	usersOnce sync.Once
	users     map[string]*identity.Static
)

// user returns a cached identity; RSA generation is too slow to repeat per test.
func user(t *testing.T, id string) *identity.Static {
	t.Helper()
	usersOnce.Do(func() {
		users = make(map[string]*identity.Static)
		for _, name := range []string{"alice", "bob", "carol", "dave"} {
			s, err := identity.NewStatic(name)
			if err != nil {
				panic(err)
			}
			users[name] = s
		}
	})
	u, ok := users[id]
	require.True(t, ok, id)
	return u
}

func newMgr(t *testing.T, id string, store blobstore.Store) *Manager {
	t.Helper()
	return NewManager(user(t, id), store, keycache.New(), nil)
}

func roundTrip(t *testing.T, enc, dec cryptox.SymmetricKey) {
	t.Helper()
	ct, nonce, err := cryptox.AEADEncrypt([]byte("hello"), enc)
	require.NoError(t, err)
	pt, err := cryptox.AEADDecrypt(ct, nonce, dec)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(pt))
}

func TestManager_ShareFlow(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	bob := newMgr(t, "bob", store)

	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))
	assert.False(t, bob.HasChannelKey(ctx, "general"))

	blob, err := alice.ShareChannelKey(ctx, "general", user(t, "bob").PublicKey)
	require.NoError(t, err)
	require.NoError(t, bob.ImportSharedChannelKey(ctx, blob, "general"))

	ka, err := alice.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	kb, err := bob.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	assert.True(t, ka.Equal(kb))
	roundTrip(t, ka, kb)
	roundTrip(t, kb, ka)

	// a fresh session for bob resolves the key from his stored record
	bob2 := newMgr(t, "bob", store)
	kb2, err := bob2.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	roundTrip(t, ka, kb2)

	members, err := alice.Members(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, members)
}

func TestManager_AccessIsolation(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	carol := newMgr(t, "carol", store)

	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))

	_, err := carol.GetChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrKeyNotFound)
	assert.False(t, carol.HasChannelKey(ctx, "general"))
	assert.Equal(t, 0, carol.cache.Len())

	_, err = carol.ShareChannelKey(ctx, "general", user(t, "dave").PublicKey)
	assert.ErrorIs(t, err, common.ErrKeyNotFound)
}

func TestManager_CacheServesRepeatReads(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, newMgr(t, "alice", store).GenerateChannelKey(ctx, "general"))

	alice := newMgr(t, "alice", store)
	before := store.Reads()

	k1, err := alice.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, before+1, store.Reads())

	k2, err := alice.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	assert.Equal(t, before+1, store.Reads())
	roundTrip(t, k1, k2)
}

func TestManager_ConcurrentMissesLoadOnce(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	require.NoError(t, newMgr(t, "alice", store).GenerateChannelKey(ctx, "general"))

	alice := newMgr(t, "alice", store)
	before := store.Reads()

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := alice.GetChannelKey(ctx, "general")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, before+1, store.Reads())
}

func TestManager_GenerateTwice(t *testing.T) {
	ctx := context.Background()
	alice := newMgr(t, "alice", memstore.New())

	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))
	err := alice.GenerateChannelKey(ctx, "general")
	assert.ErrorIs(t, err, ErrChannelKeyExists)
}

func TestManager_IdentityUnavailable(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()

	nobody := NewManager(&identity.Static{UserID: "nobody"}, store, nil, nil)
	err := nobody.GenerateChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrIdentityUnavailable)

	alice := newMgr(t, "alice", store)
	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))

	// bob has a record but this device lacks his private key
	_, err = alice.GrantChannelKey(ctx, "general", "bob", user(t, "bob").PublicKey)
	require.NoError(t, err)
	bobNoPriv := NewManager(&identity.Static{UserID: "bob", PublicKey: user(t, "bob").PublicKey}, store, nil, nil)
	_, err = bobNoPriv.GetChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrIdentityUnavailable)

	broken := NewManager(&identity.Static{UserID: "bob", PublicKey: "{", PrivateKey: "{"}, store, nil, nil)
	err = broken.GenerateChannelKey(ctx, "other")
	assert.ErrorIs(t, err, common.ErrIdentityUnavailable)
	assert.ErrorIs(t, err, common.ErrInvalidKeyFormat)
}

func TestManager_StaleRecordFailsDecryption(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))

	// overwrite alice's record with one wrapped for bob
	_, err := alice.GrantChannelKey(ctx, "general", "alice", user(t, "bob").PublicKey)
	require.NoError(t, err)

	fresh := newMgr(t, "alice", store)
	_, err = fresh.GetChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
	assert.False(t, fresh.HasChannelKey(ctx, "general"))
}

type downStore struct {
	blobstore.Store
}

func (downStore) Get(context.Context, string, string) ([]byte, error) {
	return nil, errors.New("connection reset")
}

func (downStore) Put(context.Context, string, []byte, string) (blobstore.Location, error) {
	return "", errors.New("connection reset")
}

func TestManager_StoreUnavailable(t *testing.T) {
	ctx := context.Background()
	alice := newMgr(t, "alice", downStore{})

	err := alice.GenerateChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	_, err = alice.GetChannelKey(ctx, "general")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.False(t, alice.HasChannelKey(ctx, "general"))
}

func TestManager_GrantChannelKey(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))

	loc, err := alice.GrantChannelKey(ctx, "general", "dave", user(t, "dave").PublicKey)
	require.NoError(t, err)
	assert.Equal(t, blobstore.Location("memory://encryption/general/key-dave.json"), loc)

	dave := newMgr(t, "dave", store)
	kd, err := dave.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	ka, err := alice.GetChannelKey(ctx, "general")
	require.NoError(t, err)
	roundTrip(t, ka, kd)

	_, err = alice.GrantChannelKey(ctx, "general", "../x", user(t, "dave").PublicKey)
	assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
	_, err = alice.GrantChannelKey(ctx, "general", "eve", "not a key")
	assert.ErrorIs(t, err, common.ErrInvalidKeyFormat)
}

func TestManager_ImportSharedChannelKey_Garbage(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	bob := newMgr(t, "bob", store)

	err := bob.ImportSharedChannelKey(ctx, cryptox.WrappedBlob("garbage"), "general")
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)

	members, err := bob.Members(ctx, "general")
	require.NoError(t, err)
	assert.Empty(t, members)
}

func TestManager_ImportSharedStoresBlobVerbatim(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	bob := newMgr(t, "bob", store)
	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))

	blob, err := alice.ShareChannelKey(ctx, "general", user(t, "bob").PublicKey)
	require.NoError(t, err)
	require.NoError(t, bob.ImportSharedChannelKey(ctx, blob, "general"))

	rec, err := keyrecords.NewBlobRepository(store).Load(ctx, "general", "bob")
	require.NoError(t, err)
	assert.Equal(t, blob.String(), rec.EncryptedKey)
	assert.Equal(t, models.KeyTypeChannel, rec.KeyType)
}

func TestManager_GenerateDirectKey(t *testing.T) {
	ctx := context.Background()
	store := memstore.New()
	alice := newMgr(t, "alice", store)
	bob := newMgr(t, "bob", store)

	id, err := alice.GenerateDirectKey(ctx, "bob", user(t, "bob").PublicKey)
	require.NoError(t, err)
	assert.Equal(t, DirectChannelID("bob", "alice"), id)

	// bob finds the pair's key instead of creating another one
	id2, err := bob.GenerateDirectKey(ctx, "alice", user(t, "alice").PublicKey)
	require.NoError(t, err)
	assert.Equal(t, id, id2)

	ka, err := alice.GetChannelKey(ctx, id)
	require.NoError(t, err)
	kb, err := bob.GetChannelKey(ctx, id)
	require.NoError(t, err)
	roundTrip(t, ka, kb)

	repo := keyrecords.NewBlobRepository(store)
	for _, u := range []string{"alice", "bob"} {
		rec, err := repo.Load(ctx, id, u)
		require.NoError(t, err)
		assert.Equal(t, models.KeyTypeUser, rec.KeyType)
	}

	_, err = alice.GenerateDirectKey(ctx, "alice", user(t, "alice").PublicKey)
	assert.ErrorIs(t, err, ErrSelfDirect)
}

// flakyStore fails the failAt-th Put and succeeds otherwise.
type flakyStore struct {
	*memstore.Store
	mu     sync.Mutex
	puts   int
	failAt int
}

func (f *flakyStore) Put(ctx context.Context, key string, data []byte, collection string) (blobstore.Location, error) {
	f.mu.Lock()
	f.puts++
	fail := f.puts == f.failAt
	f.mu.Unlock()
	if fail {
		return "", errors.New("network down")
	}
	return f.Store.Put(ctx, key, data, collection)
}

func TestManager_GenerateDirectKey_RetryRepairsPeerRecord(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Store: memstore.New(), failAt: 2}

	alice := newMgr(t, "alice", store)
	_, err := alice.GenerateDirectKey(ctx, "bob", user(t, "bob").PublicKey)
	require.ErrorIs(t, err, common.ErrStoreUnavailable)

	id := DirectChannelID("alice", "bob")
	bob := newMgr(t, "bob", store)
	_, err = bob.GetChannelKey(ctx, id)
	require.ErrorIs(t, err, common.ErrKeyNotFound)

	// a later session of alice finds her own record and completes the pair
	alice = newMgr(t, "alice", store)
	got, err := alice.GenerateDirectKey(ctx, "bob", user(t, "bob").PublicKey)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	ka, err := alice.GetChannelKey(ctx, id)
	require.NoError(t, err)
	kb, err := bob.GetChannelKey(ctx, id)
	require.NoError(t, err)
	roundTrip(t, ka, kb)

	rec, err := keyrecords.NewBlobRepository(store).Load(ctx, id, "bob")
	require.NoError(t, err)
	assert.Equal(t, models.KeyTypeUser, rec.KeyType)
}

func TestDirectChannelID(t *testing.T) {
	a := DirectChannelID("alice", "bob")
	assert.Equal(t, a, DirectChannelID("bob", "alice"))
	assert.NotEqual(t, a, DirectChannelID("alice", "carol"))
	assert.Len(t, a, len("dm-")+32)
	require.NoError(t, blobstore.ValidateSegment(a))
}

func TestManager_InvalidChannelID(t *testing.T) {
	ctx := context.Background()
	alice := newMgr(t, "alice", memstore.New())

	for _, id := range []string{"", "..", "a/b"} {
		assert.ErrorIs(t, alice.GenerateChannelKey(ctx, id), common.ErrInvalidIdentifier, id)
		_, err := alice.GetChannelKey(ctx, id)
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier, id)
	}
}

func TestManager_Close(t *testing.T) {
	ctx := context.Background()
	alice := newMgr(t, "alice", memstore.New())
	require.NoError(t, alice.GenerateChannelKey(ctx, "general"))
	require.Equal(t, 1, alice.cache.Len())
	held, err := alice.GetChannelKey(ctx, "general")
	require.NoError(t, err)

	alice.Close()
	assert.Equal(t, 0, alice.cache.Len())
	assert.Nil(t, alice.priv)

	// handles given out earlier keep their material
	zero, err := cryptox.NewSymmetricKey(make([]byte, cryptox.KeySize))
	require.NoError(t, err)
	assert.False(t, held.Equal(zero))
	ct, nonce, err := cryptox.AEADEncrypt([]byte("still usable"), held)
	require.NoError(t, err)
	pt, err := cryptox.AEADDecrypt(ct, nonce, held)
	require.NoError(t, err)
	assert.Equal(t, "still usable", string(pt))
}
