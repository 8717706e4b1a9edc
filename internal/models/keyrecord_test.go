package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewKeyRecord(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600))
	r := NewKeyRecord("alice", "general", "d3JhcHBlZA==", KeyTypeChannel, now)

	_, err := uuid.Parse(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", r.OwnerUserID)
	assert.Equal(t, "general", r.AssociatedID)
	assert.Equal(t, time.UTC, r.CreatedAt.Location())
	assert.True(t, r.CreatedAt.Equal(now))
	require.NoError(t, r.Validate())
}

func TestKeyRecord_WireFormat(t *testing.T) {
	r := &KeyRecord{
		ID:           "id-1",
		OwnerUserID:  "bob",
		EncryptedKey: "AAAA",
		KeyType:      KeyTypeUser,
		AssociatedID: "dm-1",
		CreatedAt:    time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	b, err := r.Marshal()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(b, &raw))
	assert.Equal(t, map[string]any{
		"id":           "id-1",
		"ownerUserId":  "bob",
		"encryptedKey": "AAAA",
		"keyType":      "user",
		"associatedId": "dm-1",
		"createdAt":    "2025-01-02T03:04:05Z",
	}, raw)

	back, err := UnmarshalKeyRecord(b)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestUnmarshalKeyRecord_Invalid(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"not json", "{"},
		{"missing id", `{"ownerUserId":"a","encryptedKey":"x","keyType":"channel","associatedId":"c"}`},
		{"missing owner", `{"id":"1","encryptedKey":"x","keyType":"channel","associatedId":"c"}`},
		{"missing key", `{"id":"1","ownerUserId":"a","keyType":"channel","associatedId":"c"}`},
		{"missing channel", `{"id":"1","ownerUserId":"a","encryptedKey":"x","keyType":"channel"}`},
		{"bad type", `{"id":"1","ownerUserId":"a","encryptedKey":"x","keyType":"group","associatedId":"c"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := UnmarshalKeyRecord([]byte(tt.in))
			require.ErrorIs(t, err, common.ErrDecryptionFailed)
		})
	}
}
