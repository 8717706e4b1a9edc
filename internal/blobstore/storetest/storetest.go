// Package storetest holds the behavior every blobstore.Store backend must
// share. Backend tests call Run with a constructor for a fresh, empty store.
package storetest

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises the Store contract against stores returned by newStore.
func Run(t *testing.T, newStore func(t *testing.T) blobstore.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("put then get", func(t *testing.T) {
		s := newStore(t)
		loc, err := s.Put(ctx, "key-u1.json", []byte(`{"id":"1"}`), "encryption/c1")
		require.NoError(t, err)
		assert.NotEmpty(t, loc)

		got, err := s.Get(ctx, "key-u1.json", "encryption/c1")
		require.NoError(t, err)
		assert.Equal(t, `{"id":"1"}`, string(got))
	})

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "k", []byte("one"), "c")
		require.NoError(t, err)
		_, err = s.Put(ctx, "k", []byte("two"), "c")
		require.NoError(t, err)

		got, err := s.Get(ctx, "k", "c")
		require.NoError(t, err)
		assert.Equal(t, "two", string(got))
	})

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "nope", "encryption/c1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("list direct children sorted", func(t *testing.T) {
		s := newStore(t)
		for _, k := range []string{"key-b.json", "key-a.json", "key-c.json"} {
			_, err := s.Put(ctx, k, []byte("x"), "encryption/c1")
			require.NoError(t, err)
		}
		_, err := s.Put(ctx, "key-z.json", []byte("x"), "encryption/c1/nested")
		require.NoError(t, err)
		_, err = s.Put(ctx, "key-y.json", []byte("x"), "encryption/c10")
		require.NoError(t, err)

		keys, err := s.List(ctx, "encryption/c1")
		require.NoError(t, err)
		assert.Equal(t, []string{"key-a.json", "key-b.json", "key-c.json"}, keys)
	})

	t.Run("list empty collection", func(t *testing.T) {
		s := newStore(t)
		keys, err := s.List(ctx, "encryption/none")
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("delete", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "k", []byte("x"), "c")
		require.NoError(t, err)

		ok, err := s.Delete(ctx, "k", "c")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = s.Delete(ctx, "k", "c")
		require.NoError(t, err)
		assert.False(t, ok)

		_, err = s.Get(ctx, "k", "c")
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("binary data survives", func(t *testing.T) {
		s := newStore(t)
		data := []byte{0, 1, 2, 0xff, 0xfe, 0}
		_, err := s.Put(ctx, "bin", data, "c")
		require.NoError(t, err)
		got, err := s.Get(ctx, "bin", "c")
		require.NoError(t, err)
		assert.Equal(t, data, got)
	})

	t.Run("invalid identifiers", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Put(ctx, "../escape", []byte("x"), "c")
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
		_, err = s.Get(ctx, "k", "/abs")
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
		_, err = s.List(ctx, "a/../b")
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
		_, err = s.Delete(ctx, "", "c")
		assert.ErrorIs(t, err, common.ErrInvalidIdentifier)
	})
}
