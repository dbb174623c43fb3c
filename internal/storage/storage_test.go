package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileStoreSaveOpenDelete(t *testing.T) {
	store := NewMemStore()

	require.NoError(t, store.Save("body-evolution/p1/photo.jpg", strings.NewReader("image-bytes")))

	exists, err := store.Exists("body-evolution/p1/photo.jpg")
	require.NoError(t, err)
	require.True(t, exists)

	f, err := store.Open("body-evolution/p1/photo.jpg")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Equal(t, "image-bytes", string(data))

	require.NoError(t, store.Delete("body-evolution/p1/photo.jpg"))

	exists, err = store.Exists("body-evolution/p1/photo.jpg")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestFileStoreDeleteMissingKeyIsNoop(t *testing.T) {
	store := NewMemStore()
	require.NoError(t, store.Delete("never/stored.jpg"))
}

func TestFileStoreRejectsTraversalKeys(t *testing.T) {
	store := NewMemStore()
	err := store.Save("../outside.txt", strings.NewReader("x"))
	require.Error(t, err)
}
