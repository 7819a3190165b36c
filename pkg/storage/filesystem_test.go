package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, err := store.Save("rx-1_preview.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "rx-1_preview.pdf", name)

	file, err := store.Open("rx-1_preview.pdf")
	require.NoError(t, err)
	defer file.Close()

	info, err := file.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(8), info.Size())
}

func TestPathResolvesUnderBaseDir(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "rx-1.docx"), store.Path("rx-1.docx"))
	assert.Equal(t, dir, store.BaseDir())
}

func TestDeleteMissingFileIsNoop(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Delete("does-not-exist.pdf"))
}

func TestCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("stale.docx", []byte("old"))
	require.NoError(t, err)
	stalePath := store.Path("stale.docx")
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stalePath, old, old))

	_, err = store.Save("fresh.docx", []byte("new"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(time.Hour)
	require.NoError(t, err)

	assert.Equal(t, []string{"stale.docx"}, deleted)
	assert.NoFileExists(t, stalePath)
	assert.FileExists(t, store.Path("fresh.docx"))
}
