package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveReadDelete(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	data := []byte("%PDF-1.3 certificate")
	checksum, err := store.Save("2024/rep-1.pdf", data)
	require.NoError(t, err)
	sum := sha256.Sum256(data)
	require.Equal(t, hex.EncodeToString(sum[:]), checksum)

	read, err := store.Read("2024/rep-1.pdf")
	require.NoError(t, err)
	require.Equal(t, data, read)

	require.NoError(t, store.Delete("2024/rep-1.pdf"))
	_, err = store.Read("2024/rep-1.pdf")
	require.Error(t, err)
	require.NoError(t, store.Delete("2024/rep-1.pdf"))
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.pdf", []byte("x"))
	require.ErrorIs(t, err, ErrInvalidPath)
	_, err = store.Read("/etc/passwd")
	require.ErrorIs(t, err, ErrInvalidPath)
}
