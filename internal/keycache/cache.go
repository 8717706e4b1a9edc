// Package keycache holds unwrapped channel keys for the lifetime of a session.
//
// Entries live only in memory. They are never serialized and are wiped by
// Clear when the session ends.
package keycache

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/chankeys/internal/cryptox"
	"golang.org/x/sync/singleflight"
)

// LoadFunc resolves a key that is not cached yet.
type LoadFunc func(ctx context.Context, channelID string) (cryptox.SymmetricKey, error)

// Cache maps channel id to an unwrapped symmetric key. It is safe for
// concurrent use; the zero value is not, use New.
type Cache struct {
	mu    sync.RWMutex
	keys  map[string]cryptox.SymmetricKey
	group singleflight.Group
}

func New() *Cache {
	return &Cache{keys: make(map[string]cryptox.SymmetricKey)}
}

func (c *Cache) Get(channelID string) (cryptox.SymmetricKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	k, ok := c.keys[channelID]
	return k, ok
}

// Put stores key for channelID. Last writer wins.
func (c *Cache) Put(channelID string, key cryptox.SymmetricKey) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys[channelID] = key
}

// GetOrLoad returns the cached key or calls load once for all concurrent
// callers missing the same channel id. A failed load is not cached.
//
// load runs detached from the caller's cancellation: a caller whose ctx ends
// returns ctx.Err() at once while the others keep waiting for the result.
func (c *Cache) GetOrLoad(ctx context.Context, channelID string, load LoadFunc) (cryptox.SymmetricKey, error) {
	if k, ok := c.Get(channelID); ok {
		return k, nil
	}

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(channelID, func() (any, error) {
		// another flight may have finished between Get and DoChan
		if k, ok := c.Get(channelID); ok {
			return k, nil
		}
		k, err := load(loadCtx, channelID)
		if err != nil {
			return nil, err
		}
		c.Put(channelID, k)
		return k, nil
	})

	select {
	case <-ctx.Done():
		return cryptox.SymmetricKey{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return cryptox.SymmetricKey{}, res.Err
		}
		return res.Val.(cryptox.SymmetricKey), nil
	}
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.keys)
}

// Clear wipes and drops every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, k := range c.keys {
		k.Destroy()
		delete(c.keys, id)
	}
}
