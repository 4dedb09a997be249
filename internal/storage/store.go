// Package storage persists generated design images durably so records
// never depend on provider-hosted URLs that expire.
package storage

import "context"

// ObjectStore writes a blob under a key and returns the public URL it is
// served from.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
