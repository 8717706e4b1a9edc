// Package keyrecords persists wrapped channel keys through a blob store.
//
// Records for a channel live in collection "encryption/<channelId>", one blob
// per member named "key-<userId>.json".
package keyrecords

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/dmitrijs2005/chankeys/internal/models"
)

const (
	collectionPrefix = "encryption"
	keyPrefix        = "key-"
	keySuffix        = ".json"
)

// Repository is the persistence surface the key manager depends on.
type Repository interface {
	Save(ctx context.Context, rec *models.KeyRecord) (blobstore.Location, error)
	SaveBatch(ctx context.Context, recs []*models.KeyRecord) ([]blobstore.Location, error)
	Load(ctx context.Context, channelID, userID string) (*models.KeyRecord, error)
	Members(ctx context.Context, channelID string) ([]string, error)
}

// Collection returns the blob collection holding a channel's records.
func Collection(channelID string) string {
	return collectionPrefix + "/" + channelID
}

// BlobKey returns the blob key of userID's record.
func BlobKey(userID string) string {
	return keyPrefix + userID + keySuffix
}

// userFromBlobKey is the inverse of BlobKey.
func userFromBlobKey(key string) (string, bool) {
	if !strings.HasPrefix(key, keyPrefix) || !strings.HasSuffix(key, keySuffix) {
		return "", false
	}
	id := strings.TrimSuffix(strings.TrimPrefix(key, keyPrefix), keySuffix)
	return id, id != ""
}

func address(channelID, userID string) (key, collection string, err error) {
	if err := blobstore.ValidateSegment(channelID); err != nil {
		return "", "", fmt.Errorf("channel id: %w", err)
	}
	if err := blobstore.ValidateSegment(userID); err != nil {
		return "", "", fmt.Errorf("user id: %w", err)
	}
	return BlobKey(userID), Collection(channelID), nil
}

// storeError classifies a blob store failure. Not-found and invalid-address
// errors keep their identity, everything else becomes ErrStoreUnavailable.
func storeError(op string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrInvalidIdentifier) ||
		errors.Is(err, common.ErrStoreUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}

type BlobRepository struct {
	store blobstore.Store
}

func NewBlobRepository(store blobstore.Store) *BlobRepository {
	return &BlobRepository{store: store}
}

func (r *BlobRepository) encode(rec *models.KeyRecord) (blobstore.Blob, error) {
	if err := rec.Validate(); err != nil {
		return blobstore.Blob{}, fmt.Errorf("%w: %w", common.ErrEncryptionFailed, err)
	}
	key, collection, err := address(rec.AssociatedID, rec.OwnerUserID)
	if err != nil {
		return blobstore.Blob{}, err
	}
	data, err := rec.Marshal()
	if err != nil {
		return blobstore.Blob{}, fmt.Errorf("%w: encode key record: %w", common.ErrEncryptionFailed, err)
	}
	return blobstore.Blob{Key: key, Collection: collection, Data: data}, nil
}

// Save writes rec, replacing any earlier record for the same owner.
func (r *BlobRepository) Save(ctx context.Context, rec *models.KeyRecord) (blobstore.Location, error) {
	b, err := r.encode(rec)
	if err != nil {
		return "", err
	}
	loc, err := r.store.Put(ctx, b.Key, b.Data, b.Collection)
	if err != nil {
		return "", storeError("put key record", err)
	}
	return loc, nil
}

// SaveBatch writes all records in one store transaction when the store
// supports it, and one by one otherwise.
func (r *BlobRepository) SaveBatch(ctx context.Context, recs []*models.KeyRecord) ([]blobstore.Location, error) {
	blobs := make([]blobstore.Blob, 0, len(recs))
	for _, rec := range recs {
		b, err := r.encode(rec)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, b)
	}

	if bp, ok := r.store.(blobstore.BatchPutter); ok {
		locs, err := bp.PutBatch(ctx, blobs)
		if err != nil {
			return nil, storeError("put key records", err)
		}
		return locs, nil
	}

	locs := make([]blobstore.Location, 0, len(blobs))
	for _, b := range blobs {
		loc, err := r.store.Put(ctx, b.Key, b.Data, b.Collection)
		if err != nil {
			return locs, storeError("put key record", err)
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

// Load returns userID's record for channelID. A missing record is reported
// as common.ErrorNotFound.
func (r *BlobRepository) Load(ctx context.Context, channelID, userID string) (*models.KeyRecord, error) {
	key, collection, err := address(channelID, userID)
	if err != nil {
		return nil, err
	}
	data, err := r.store.Get(ctx, key, collection)
	if err != nil {
		return nil, storeError("get key record", err)
	}
	rec, err := models.UnmarshalKeyRecord(data)
	if err != nil {
		return nil, err
	}
	if rec.OwnerUserID != userID || rec.AssociatedID != channelID {
		return nil, fmt.Errorf("%w: record at %s/%s belongs to %s/%s",
			common.ErrDecryptionFailed, collection, key, rec.AssociatedID, rec.OwnerUserID)
	}
	return rec, nil
}

// Members lists the user ids that hold a record for channelID, sorted.
func (r *BlobRepository) Members(ctx context.Context, channelID string) ([]string, error) {
	if err := blobstore.ValidateSegment(channelID); err != nil {
		return nil, fmt.Errorf("channel id: %w", err)
	}
	keys, err := r.store.List(ctx, Collection(channelID))
	if err != nil {
		return nil, storeError("list key records", err)
	}
	users := make([]string, 0, len(keys))
	for _, k := range keys {
		if id, ok := userFromBlobKey(k); ok {
			users = append(users, id)
		}
	}
	sort.Strings(users)
	return users, nil
}
