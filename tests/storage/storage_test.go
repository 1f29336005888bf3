package storage_test

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kspl/approval-api/internal/config"
	"github.com/kspl/approval-api/internal/domain"
	"github.com/kspl/approval-api/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	content := "attachment body"
	path, size, err := store.Upload(ctx, domain.DocTypeNFA, "report.pdf", "application/pdf",
		strings.NewReader(content))
	require.NoError(t, err)
	assert.Equal(t, int64(len(content)), size)
	assert.True(t, strings.HasPrefix(filepath.ToSlash(path), "nfa/"))
	assert.True(t, strings.HasSuffix(path, ".pdf"))

	reader, err := store.Download(ctx, path)
	require.NoError(t, err)
	defer reader.Close()
	data, err := io.ReadAll(reader)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalStorage_UniquePaths(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	first, _, err := store.Upload(ctx, domain.DocTypeNFA, "same.pdf", "application/pdf", strings.NewReader("one"))
	require.NoError(t, err)
	second, _, err := store.Upload(ctx, domain.DocTypeNFA, "same.pdf", "application/pdf", strings.NewReader("two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestLocalStorage_Delete(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	path, _, err := store.Upload(ctx, domain.DocTypeAgreement, "gone.txt", "text/plain", strings.NewReader("bye"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, path))

	_, err = store.Download(ctx, path)
	assert.Error(t, err)

	// Deleting twice is not an error
	assert.NoError(t, store.Delete(ctx, path))
}

func TestNewStorage_Modes(t *testing.T) {
	log := zap.NewNop()

	t.Run("local mode", func(t *testing.T) {
		store, err := storage.NewStorage(&config.StorageConfig{
			Mode:          "local",
			LocalBasePath: t.TempDir(),
		}, log)
		require.NoError(t, err)
		assert.NotNil(t, store)
	})

	t.Run("cloud mode requires a connection string", func(t *testing.T) {
		_, err := storage.NewStorage(&config.StorageConfig{Mode: "cloud"}, log)
		assert.Error(t, err)
	})

	t.Run("unknown mode fails", func(t *testing.T) {
		_, err := storage.NewStorage(&config.StorageConfig{Mode: "tape"}, log)
		assert.Error(t, err)
	})
}
