package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStorageWriteAndDelete(t *testing.T) {
	ctx := context.Background()

	s, err := NewFileStorage(t.TempDir(), "http://localhost:8080/media/")
	require.NoError(t, err)

	n, err := s.WriteObject(ctx, "users/u1/orig.jpg", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	b, err := os.ReadFile(filepath.Join(s.root, "users", "u1", "orig.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(b))

	require.NoError(t, s.DeleteObject(ctx, "users/u1/orig.jpg"))
	_, err = os.Stat(filepath.Join(s.root, "users", "u1", "orig.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestFileStorageDeleteMissingIsNoop(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), "")
	require.NoError(t, err)

	assert.NoError(t, s.DeleteObject(context.Background(), "absent/key.jpg"))
}

func TestFileStorageWriteCanceledContext(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = s.WriteObject(ctx, "k", strings.NewReader("x"))
	assert.Error(t, err)
}

func TestFileStorageObjectURL(t *testing.T) {
	s, err := NewFileStorage(t.TempDir(), "http://localhost:8080/media/")
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080/media/a/b.jpg", s.ObjectURL("a/b.jpg"))
}
