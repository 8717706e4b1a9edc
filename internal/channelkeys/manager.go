// Package channelkeys generates channel keys, distributes them to members as
// wrapped key records and resolves them for the current identity.
//
// The plaintext channel key never reaches the blob store. It exists only in
// the session key cache, rebuilt by unwrapping the caller's own key record.
package channelkeys

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"github.com/dmitrijs2005/chankeys/internal/identity"
	"github.com/dmitrijs2005/chankeys/internal/keycache"
	"github.com/dmitrijs2005/chankeys/internal/logging"
	"github.com/dmitrijs2005/chankeys/internal/models"
	"github.com/dmitrijs2005/chankeys/internal/repositories/keyrecords"
)

const directPrefix = "dm-"

var (
	// ErrChannelKeyExists is returned by GenerateChannelKey when the caller
	// already holds a key record for the channel.
	ErrChannelKeyExists = errors.New("channel key already exists")
	ErrSelfDirect       = errors.New("direct key needs two distinct users")
)

type Manager struct {
	identity identity.Provider
	records  keyrecords.Repository
	cache    *keycache.Cache
	logger   logging.Logger
	now      func() time.Time

	privMu sync.Mutex
	priv   *cryptox.PrivateKey
}

// NewManager wires a manager for the identity's session. A nil cache or
// logger is replaced by a fresh cache or a discarding logger.
func NewManager(id identity.Provider, store blobstore.Store, cache *keycache.Cache, logger logging.Logger) *Manager {
	return newManager(id, keyrecords.NewBlobRepository(store), cache, logger)
}

func newManager(id identity.Provider, records keyrecords.Repository, cache *keycache.Cache, logger logging.Logger) *Manager {
	if cache == nil {
		cache = keycache.New()
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Manager{
		identity: id,
		records:  records,
		cache:    cache,
		logger:   logger.With("module", "channelkeys"),
		now:      time.Now,
	}
}

// UserID is the current identity's user id.
func (m *Manager) UserID() string {
	return m.identity.CurrentUserID()
}

func (m *Manager) publicKey(ctx context.Context) (*cryptox.PublicKey, error) {
	exp, ok, err := m.identity.CurrentUserPublicKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %w", common.ErrIdentityUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no public key for %s", common.ErrIdentityUnavailable, m.UserID())
	}
	pub, err := cryptox.ImportPublicKey(exp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIdentityUnavailable, err)
	}
	return pub, nil
}

// privateKey loads the local private key once per manager. Failures are
// not remembered.
func (m *Manager) privateKey(ctx context.Context) (*cryptox.PrivateKey, error) {
	m.privMu.Lock()
	defer m.privMu.Unlock()

	if m.priv != nil {
		return m.priv, nil
	}

	exp, ok, err := m.identity.LoadLocalPrivateKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: private key: %w", common.ErrIdentityUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: no private key for %s", common.ErrIdentityUnavailable, m.UserID())
	}
	priv, err := cryptox.ImportPrivateKey(exp)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrIdentityUnavailable, err)
	}
	m.priv = priv
	return priv, nil
}

func wrapKey(key cryptox.SymmetricKey, pub *cryptox.PublicKey) (cryptox.WrappedBlob, error) {
	exp, err := cryptox.ExportKey(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrEncryptionFailed, err)
	}
	raw := []byte(exp)
	defer common.Wipe(raw)

	return cryptox.WrapWithPublicKey(raw, pub)
}

func unwrapKey(blob cryptox.WrappedBlob, priv *cryptox.PrivateKey) (cryptox.SymmetricKey, error) {
	raw, err := cryptox.UnwrapWithPrivateKey(blob, priv)
	if err != nil {
		return cryptox.SymmetricKey{}, err
	}
	defer common.Wipe(raw)

	key, err := cryptox.ImportSymmetricKey(cryptox.PortableKey(raw))
	if err != nil {
		return cryptox.SymmetricKey{}, fmt.Errorf("%w: unwrapped payload: %w", common.ErrDecryptionFailed, err)
	}
	return key, nil
}

func (m *Manager) record(owner, channelID string, blob cryptox.WrappedBlob, kt models.KeyType) *models.KeyRecord {
	return models.NewKeyRecord(owner, channelID, blob.String(), kt, m.now())
}

// GenerateChannelKey creates the key for a new channel, stores the
// creator's own record and caches the key. It is called once, by the
// channel creator.
func (m *Manager) GenerateChannelKey(ctx context.Context, channelID string) error {
	if err := blobstore.ValidateSegment(channelID); err != nil {
		return fmt.Errorf("channel id: %w", err)
	}
	uid := m.UserID()

	pub, err := m.publicKey(ctx)
	if err != nil {
		return err
	}
	if _, err := m.privateKey(ctx); err != nil {
		return err
	}

	switch _, err := m.records.Load(ctx, channelID, uid); {
	case err == nil:
		return fmt.Errorf("%w: %s", ErrChannelKeyExists, channelID)
	case !errors.Is(err, common.ErrorNotFound):
		return err
	}

	key, err := cryptox.GenerateSymmetricKey()
	if err != nil {
		return err
	}
	blob, err := wrapKey(key, pub)
	if err != nil {
		return err
	}

	loc, err := m.records.Save(ctx, m.record(uid, channelID, blob, models.KeyTypeChannel))
	if err != nil {
		return err
	}
	m.cache.Put(channelID, key)

	m.logger.Info(ctx, "channel key generated", "channel_id", channelID, "user_id", uid, "location", loc)
	return nil
}

// GetChannelKey returns the channel key for the current identity, from the
// cache when possible. It fails with common.ErrKeyNotFound when no record
// grants the caller access.
//
// The returned handle is a private copy: Close does not wipe it, and the
// caller may Destroy it once done.
func (m *Manager) GetChannelKey(ctx context.Context, channelID string) (cryptox.SymmetricKey, error) {
	if err := blobstore.ValidateSegment(channelID); err != nil {
		return cryptox.SymmetricKey{}, fmt.Errorf("channel id: %w", err)
	}
	if key, ok := m.cache.Get(channelID); ok {
		m.logger.Debug(ctx, "channel key cache hit", "channel_id", channelID)
		return key.Clone(), nil
	}
	key, err := m.cache.GetOrLoad(ctx, channelID, m.load)
	if err != nil {
		return cryptox.SymmetricKey{}, err
	}
	return key.Clone(), nil
}

func (m *Manager) load(ctx context.Context, channelID string) (cryptox.SymmetricKey, error) {
	uid := m.UserID()
	m.logger.Debug(ctx, "channel key cache miss", "channel_id", channelID, "user_id", uid)

	rec, err := m.records.Load(ctx, channelID, uid)
	if errors.Is(err, common.ErrorNotFound) {
		return cryptox.SymmetricKey{}, fmt.Errorf("%w: %s has no key record for %s", common.ErrKeyNotFound, uid, channelID)
	}
	if err != nil {
		return cryptox.SymmetricKey{}, err
	}

	priv, err := m.privateKey(ctx)
	if err != nil {
		return cryptox.SymmetricKey{}, err
	}
	blob, err := cryptox.ParseWrappedBlob(rec.EncryptedKey)
	if err != nil {
		return cryptox.SymmetricKey{}, err
	}
	key, err := unwrapKey(blob, priv)
	if err != nil {
		m.logger.Warn(ctx, "channel key unwrap failed", "channel_id", channelID, "user_id", uid, "error", err)
		return cryptox.SymmetricKey{}, err
	}
	return key, nil
}

// HasChannelKey reports whether GetChannelKey would succeed. It never
// returns an error.
func (m *Manager) HasChannelKey(ctx context.Context, channelID string) bool {
	key, err := m.GetChannelKey(ctx, channelID)
	if err != nil {
		return false
	}
	key.Destroy()
	return true
}

// ShareChannelKey wraps the caller's channel key for a recipient. The blob
// is handed to the recipient out of band and consumed by
// ImportSharedChannelKey.
func (m *Manager) ShareChannelKey(ctx context.Context, channelID string, recipientPublicKey cryptox.PortableKey) (cryptox.WrappedBlob, error) {
	key, err := m.GetChannelKey(ctx, channelID)
	if err != nil {
		return nil, err
	}
	defer key.Destroy()
	pub, err := cryptox.ImportPublicKey(recipientPublicKey)
	if err != nil {
		return nil, fmt.Errorf("recipient public key: %w", err)
	}
	blob, err := wrapKey(key, pub)
	if err != nil {
		return nil, err
	}

	m.logger.Info(ctx, "channel key shared", "channel_id", channelID, "user_id", m.UserID())
	return blob, nil
}

// ImportSharedChannelKey stores a blob received from ShareChannelKey as the
// caller's own key record and caches the key.
func (m *Manager) ImportSharedChannelKey(ctx context.Context, blob cryptox.WrappedBlob, channelID string) error {
	if err := blobstore.ValidateSegment(channelID); err != nil {
		return fmt.Errorf("channel id: %w", err)
	}
	uid := m.UserID()

	priv, err := m.privateKey(ctx)
	if err != nil {
		return err
	}
	key, err := unwrapKey(blob, priv)
	if err != nil {
		return err
	}

	loc, err := m.records.Save(ctx, m.record(uid, channelID, blob, models.KeyTypeChannel))
	if err != nil {
		key.Destroy()
		return err
	}
	m.cache.Put(channelID, key)

	m.logger.Info(ctx, "shared channel key imported", "channel_id", channelID, "user_id", uid, "location", loc)
	return nil
}

// GrantChannelKey writes a key record for another user directly to the
// store, so the recipient needs no out-of-band step.
func (m *Manager) GrantChannelKey(ctx context.Context, channelID, recipientUserID string, recipientPublicKey cryptox.PortableKey) (blobstore.Location, error) {
	if err := blobstore.ValidateSegment(recipientUserID); err != nil {
		return "", fmt.Errorf("recipient id: %w", err)
	}
	blob, err := m.ShareChannelKey(ctx, channelID, recipientPublicKey)
	if err != nil {
		return "", err
	}

	loc, err := m.records.Save(ctx, m.record(recipientUserID, channelID, blob, models.KeyTypeChannel))
	if err != nil {
		return "", err
	}

	m.logger.Info(ctx, "channel key granted", "channel_id", channelID, "user_id", m.UserID(),
		"recipient_id", recipientUserID, "location", loc)
	return loc, nil
}

// DirectChannelID derives the channel id of a direct-message pair. The
// result does not depend on argument order.
func DirectChannelID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	sum := sha256.Sum256([]byte(a + "\x00" + b))
	return directPrefix + hex.EncodeToString(sum[:16])
}

// GenerateDirectKey returns the channel id shared with peerUserID, creating
// the pair's key and both records when neither party has done so yet.
func (m *Manager) GenerateDirectKey(ctx context.Context, peerUserID string, peerPublicKey cryptox.PortableKey) (string, error) {
	if err := blobstore.ValidateSegment(peerUserID); err != nil {
		return "", fmt.Errorf("peer id: %w", err)
	}
	uid := m.UserID()
	if peerUserID == uid {
		return "", ErrSelfDirect
	}
	channelID := DirectChannelID(uid, peerUserID)

	key, err := m.GetChannelKey(ctx, channelID)
	if err == nil {
		key.Destroy()
		if err := m.repairDirectPeer(ctx, channelID, peerUserID, peerPublicKey); err != nil {
			return "", err
		}
		return channelID, nil
	}
	if !errors.Is(err, common.ErrKeyNotFound) {
		return "", err
	}

	selfPub, err := m.publicKey(ctx)
	if err != nil {
		return "", err
	}
	peerPub, err := cryptox.ImportPublicKey(peerPublicKey)
	if err != nil {
		return "", fmt.Errorf("peer public key: %w", err)
	}

	key, err = cryptox.GenerateSymmetricKey()
	if err != nil {
		return "", err
	}
	selfBlob, err := wrapKey(key, selfPub)
	if err != nil {
		return "", err
	}
	peerBlob, err := wrapKey(key, peerPub)
	if err != nil {
		return "", err
	}

	_, err = m.records.SaveBatch(ctx, []*models.KeyRecord{
		m.record(uid, channelID, selfBlob, models.KeyTypeUser),
		m.record(peerUserID, channelID, peerBlob, models.KeyTypeUser),
	})
	if err != nil {
		return "", err
	}
	m.cache.Put(channelID, key)

	m.logger.Info(ctx, "direct key generated", "channel_id", channelID, "user_id", uid, "peer_id", peerUserID)
	return channelID, nil
}

// repairDirectPeer grants the peer its record when an earlier attempt
// stored only the caller's half of the pair.
func (m *Manager) repairDirectPeer(ctx context.Context, channelID, peerUserID string, peerPublicKey cryptox.PortableKey) error {
	_, err := m.records.Load(ctx, channelID, peerUserID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	m.logger.Warn(ctx, "direct key record missing for peer", "channel_id", channelID, "peer_id", peerUserID)
	blob, err := m.ShareChannelKey(ctx, channelID, peerPublicKey)
	if err != nil {
		return err
	}
	_, err = m.records.Save(ctx, m.record(peerUserID, channelID, blob, models.KeyTypeUser))
	return err
}

// Members lists the user ids holding a key record for channelID.
func (m *Manager) Members(ctx context.Context, channelID string) ([]string, error) {
	return m.records.Members(ctx, channelID)
}

// Close wipes every cached channel key and forgets the private key.
func (m *Manager) Close() {
	m.cache.Clear()
	m.privMu.Lock()
	m.priv = nil
	m.privMu.Unlock()
}
