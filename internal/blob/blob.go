package blob

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("object not found")

// PutOptions carries upload metadata.
type PutOptions struct {
	// ContentType is stored alongside the object; empty means unspecified.
	ContentType string `json:"contentType,omitempty"`
	// Encrypt asks the store to hold the object encrypted at rest.
	Encrypt bool `json:"encrypted,omitempty"`
}

// Store is the object-storage behavior the service depends on: whole-object
// reads, writes and deletes addressed by bucket and key.
type Store interface {
	Get(ctx context.Context, bucket, key string) ([]byte, error)
	Put(ctx context.Context, bucket, key string, data []byte, opts PutOptions) error
	Delete(ctx context.Context, bucket, key string) error
}
