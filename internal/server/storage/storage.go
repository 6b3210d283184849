// Package storage provides durable byte storage addressed by
// application-chosen keys. Implementations are external collaborators;
// the pipeline does not assume a successful write survives a process crash.
package storage

import (
	"context"
	"io"
)

// Storage writes and deletes objects by key. Keys are slash-separated
// relative paths chosen by the caller, e.g. "users/2026/08/<uuid>/orig.jpg".
type Storage interface {
	// WriteObject stores r under key, creating intermediate structure as
	// needed, and returns the number of bytes written.
	WriteObject(ctx context.Context, key string, r io.Reader) (int64, error)

	// DeleteObject removes the object. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, key string) error

	// ObjectURL returns the public URL for a stored key.
	ObjectURL(key string) string
}
