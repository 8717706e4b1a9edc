// Package models defines the records chankeys persists through the blob store.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/google/uuid"
)

// KeyType tells whether a record belongs to a group channel or to a direct
// message pair.
type KeyType string

const (
	KeyTypeChannel KeyType = "channel"
	KeyTypeUser    KeyType = "user"
)

func (t KeyType) Valid() bool {
	return t == KeyTypeChannel || t == KeyTypeUser
}

// KeyRecord is the per-recipient wrapped copy of a channel key.
type KeyRecord struct {
	ID           string    `json:"id"`
	OwnerUserID  string    `json:"ownerUserId"`
	EncryptedKey string    `json:"encryptedKey"`
	KeyType      KeyType   `json:"keyType"`
	AssociatedID string    `json:"associatedId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewKeyRecord fills in a fresh id and creation time.
func NewKeyRecord(owner, channelID, encryptedKey string, keyType KeyType, now time.Time) *KeyRecord {
	return &KeyRecord{
		ID:           uuid.NewString(),
		OwnerUserID:  owner,
		EncryptedKey: encryptedKey,
		KeyType:      keyType,
		AssociatedID: channelID,
		CreatedAt:    now.UTC(),
	}
}

// Validate checks that every field a reader depends on is present.
func (r *KeyRecord) Validate() error {
	switch {
	case r.ID == "":
		return fmt.Errorf("key record: missing id")
	case r.OwnerUserID == "":
		return fmt.Errorf("key record: missing owner")
	case r.AssociatedID == "":
		return fmt.Errorf("key record: missing associated id")
	case r.EncryptedKey == "":
		return fmt.Errorf("key record: missing encrypted key")
	case !r.KeyType.Valid():
		return fmt.Errorf("key record: unknown key type %q", r.KeyType)
	}
	return nil
}

func (r *KeyRecord) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalKeyRecord decodes and validates a stored record. Anything that
// cannot be read back is reported as ErrDecryptionFailed.
func UnmarshalKeyRecord(b []byte) (*KeyRecord, error) {
	var r KeyRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("%w: decode key record: %w", common.ErrDecryptionFailed, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDecryptionFailed, err)
	}
	return &r, nil
}
