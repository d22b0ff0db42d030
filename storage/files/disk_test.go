package files

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiskStore(t *testing.T) {
	dir, err := ioutil.TempDir("", "alloy-files")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := NewDiskStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	path, size, err := store.Save(context.Background(), "Lecture 1.PDF", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, size)
	assert.Equal(t, ".pdf", filepath.Ext(path))
	assert.NotContains(t, path, "Lecture")

	rc, err := store.Open(path)
	require.NoError(t, err)
	content, err := ioutil.ReadAll(rc)
	_ = rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	require.NoError(t, store.Remove(path))
	_, err = store.Open(path)
	assert.True(t, os.IsNotExist(err))

	// removing twice is fine
	assert.NoError(t, store.Remove(path))
}

func TestDiskStore_StaysInRoot(t *testing.T) {
	dir, err := ioutil.TempDir("", "alloy-files")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	secret := filepath.Join(dir, "secret.txt")
	require.NoError(t, ioutil.WriteFile(secret, []byte("s"), 0o600))

	store, err := NewDiskStore(filepath.Join(dir, "uploads"))
	require.NoError(t, err)

	rc, err := store.Open("../secret.txt")
	if err == nil {
		_ = rc.Close()
	}
	assert.Error(t, err)
	assert.NoError(t, store.Remove("../secret.txt"))
	_, err = os.Stat(secret)
	assert.NoError(t, err, "file outside the root must survive")
}

func TestDiskStore_CanceledContext(t *testing.T) {
	dir, err := ioutil.TempDir("", "alloy-files")
	require.NoError(t, err)
	defer os.RemoveAll(dir)

	store, err := NewDiskStore(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = store.Save(ctx, "a.txt", strings.NewReader("data"))
	assert.Error(t, err)

	entries, err := ioutil.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
