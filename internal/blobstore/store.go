// Package blobstore defines the persisted-object store that carries wrapped
// key records, together with the closed set of backend configurations that
// can provide it.
//
// A blob is addressed by a collection (a "/"-separated path such as
// "encryption/<channel-id>") and a key that is a single path segment.
package blobstore

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/dmitrijs2005/chankeys/internal/common"
)

// Location identifies where a blob was written, e.g. "s3://bucket/a/b".
type Location string

// Store is implemented by every backend.
//
// Get returns common.ErrorNotFound when the blob is absent. List returns the
// sorted keys stored directly under collection. Delete reports whether a blob
// was removed.
type Store interface {
	Put(ctx context.Context, key string, data []byte, collection string) (Location, error)
	Get(ctx context.Context, key, collection string) ([]byte, error)
	List(ctx context.Context, collection string) ([]string, error)
	Delete(ctx context.Context, key, collection string) (bool, error)
	Close() error
}

// ValidateCollection checks that collection is a relative, clean path.
func ValidateCollection(collection string) error {
	if collection == "" {
		return fmt.Errorf("%w: empty collection", common.ErrInvalidIdentifier)
	}
	if strings.HasPrefix(collection, "/") || strings.Contains(collection, `\`) {
		return fmt.Errorf("%w: collection %q must be relative", common.ErrInvalidIdentifier, collection)
	}
	for _, seg := range strings.Split(collection, "/") {
		if err := validateSegment(seg); err != nil {
			return fmt.Errorf("%w: collection %q: %s", common.ErrInvalidIdentifier, collection, err)
		}
	}
	return nil
}

// ValidateKey checks that key is one path segment.
func ValidateKey(key string) error {
	if strings.ContainsAny(key, `/\`) {
		return fmt.Errorf("%w: key %q must not contain separators", common.ErrInvalidIdentifier, key)
	}
	if err := validateSegment(key); err != nil {
		return fmt.Errorf("%w: key %q: %s", common.ErrInvalidIdentifier, key, err)
	}
	return nil
}

// ValidateSegment checks a caller-supplied identifier (channel id, user id)
// before it is embedded into a collection or key.
func ValidateSegment(id string) error {
	if strings.ContainsAny(id, `/\`) {
		return fmt.Errorf("%w: %q must not contain separators", common.ErrInvalidIdentifier, id)
	}
	if err := validateSegment(id); err != nil {
		return fmt.Errorf("%w: %q: %s", common.ErrInvalidIdentifier, id, err)
	}
	return nil
}

func validateSegment(seg string) error {
	switch seg {
	case "":
		return fmt.Errorf("empty segment")
	case ".", "..":
		return fmt.Errorf("relative segment %q", seg)
	}
	for _, r := range seg {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("control character in segment")
		}
	}
	return nil
}

// Validate checks both parts of a blob address.
func Validate(key, collection string) error {
	if err := ValidateCollection(collection); err != nil {
		return err
	}
	return ValidateKey(key)
}

// ObjectName joins collection and key into the flat name used by
// object-style backends.
func ObjectName(key, collection string) string {
	return path.Join(collection, key)
}

// ChildName returns the direct child of collection that name refers to, or
// "" when name lives deeper or elsewhere.
func ChildName(name, collection string) string {
	prefix := collection + "/"
	if !strings.HasPrefix(name, prefix) {
		return ""
	}
	rest := name[len(prefix):]
	if rest == "" || strings.Contains(rest, "/") {
		return ""
	}
	return rest
}

// Blob is one entry of a batch write.
type Blob struct {
	Key        string
	Collection string
	Data       []byte
}

// BatchPutter is implemented by stores that can write several blobs
// atomically.
type BatchPutter interface {
	PutBatch(ctx context.Context, blobs []Blob) ([]Location, error)
}
