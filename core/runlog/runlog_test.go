package runlog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"datasync/core/storage/mocks"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestWriterAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.log")
	w := NewWriter(Config{Path: path})

	require.NoError(t, w.Append("sync run started for %s", "dbo.parcels"))
	require.NoError(t, w.Append("%6d  %-12s %s", 3, "Added", "new feature"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "sync run started for dbo.parcels")
	assert.Contains(t, lines[1], "Added")

	// Every line carries a timestamp prefix.
	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 2)
		require.Len(t, parts, 2)
		assert.Regexp(t, `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`, parts[0])
	}
}

func TestWriterRotate(t *testing.T) {
	t.Run("No Log Is A No-Op", func(t *testing.T) {
		w := NewWriter(Config{Path: filepath.Join(t.TempDir(), "run.log")})
		rotated, err := w.Rotate()
		assert.NoError(t, err)
		assert.Empty(t, rotated)
	})

	t.Run("Moves Existing Log Aside", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log")
		w := NewWriter(Config{Path: path})
		require.NoError(t, w.Append("previous run"))

		rotated, err := w.Rotate()
		require.NoError(t, err)
		assert.NotEmpty(t, rotated)
		assert.NotEqual(t, path, rotated)

		_, err = os.Stat(path)
		assert.True(t, os.IsNotExist(err))

		data, err := os.ReadFile(rotated)
		require.NoError(t, err)
		assert.Contains(t, string(data), "previous run")

		// The next append starts a fresh file.
		require.NoError(t, w.Append("new run"))
		data, err = os.ReadFile(path)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "previous run")
	})
}

func TestArchiveFile(t *testing.T) {
	cfg := Config{ArchivePrefix: "runlogs/"}

	t.Run("Empty Path Is A No-Op", func(t *testing.T) {
		client := new(mocks.Client)
		assert.NoError(t, ArchiveFile(context.Background(), client, "bucket", cfg, ""))
		client.AssertNotCalled(t, "PutObject", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Uploads Under Prefix", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.log.20250101_120000")
		require.NoError(t, os.WriteFile(path, []byte("archived content\n"), 0o644))

		client := new(mocks.Client)
		client.On("PutObject", mock.Anything, "bucket", "runlogs/run.log.20250101_120000",
			mock.Anything, int64(17), mock.MatchedBy(func(opts minio.PutObjectOptions) bool {
				return opts.ContentType == "text/plain"
			})).Return(minio.UploadInfo{}, nil)

		assert.NoError(t, ArchiveFile(context.Background(), client, "bucket", cfg, path))
		client.AssertExpectations(t)
	})

	t.Run("Missing File Fails", func(t *testing.T) {
		client := new(mocks.Client)
		err := ArchiveFile(context.Background(), client, "bucket", cfg, "/nonexistent/run.log")
		assert.Error(t, err)
	})
}
