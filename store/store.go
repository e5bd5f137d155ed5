// Package store is the persisted key-value layer behind the link indexes.
// Each key holds one whole JSON document; Write replaces the document and
// Read decodes it into the caller's destination.
package store

import "context"

// Store is the durable mapping from string key to structured value. Both
// bundled backends survive process restarts; neither syncs across devices.
type Store interface {
	// Read decodes the value under key into dest. A missing key is an
	// ErrNotFound; a present-but-undecodable value is any other error.
	// Callers that must never fail (the indexes) absorb both.
	Read(ctx context.Context, key string, dest interface{}) error
	// Write replaces the entire value under key.
	Write(ctx context.Context, key string, value interface{}) error
	// Delete removes the key; deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}
