package memstore

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) blobstore.Store { return New() })
}

func TestStore_CopiesData(t *testing.T) {
	s := New()
	ctx := context.Background()
	data := []byte("abc")

	loc, err := s.Put(ctx, "k", data, "c")
	require.NoError(t, err)
	assert.Equal(t, blobstore.Location("memory://c/k"), loc)

	data[0] = 'z'
	got, err := s.Get(ctx, "k", "c")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, 1, s.Reads())
}
