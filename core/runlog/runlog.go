package runlog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"datasync/core/storage"

	"github.com/minio/minio-go/v7"
)

// timeLayout prefixes every line and suffixes rotated file names.
const timeLayout = "2006-01-02 15:04:05"

const rotateSuffixLayout = "20060102_150405"

// Config holds configuration for the run log artifact.
type Config struct {
	// Path is the location of the run log file.
	Path string `mapstructure:"path" default:"datasync.log"`
	// Archive enables uploading rotated logs to object storage.
	Archive bool `mapstructure:"archive" default:"false"`
	// ArchivePrefix is the object name prefix for archived logs.
	ArchivePrefix string `mapstructure:"archive_prefix" default:"runlogs/"`
}

// Writer appends timestamp-prefixed lines to the run log file.
// It is safe for concurrent use.
type Writer struct {
	mu   sync.Mutex
	path string
}

// NewWriter creates a run log writer for the configured path.
func NewWriter(cfg Config) *Writer {
	return &Writer{path: cfg.Path}
}

// Path returns the location of the current run log file.
func (w *Writer) Path() string {
	return w.path
}

// Append writes one line to the log, prefixed with the current timestamp.
func (w *Writer) Append(format string, args ...any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	line := fmt.Sprintf("%s\t%s\n", time.Now().Format(timeLayout), fmt.Sprintf(format, args...))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("failed to write run log: %w", err)
	}
	return nil
}

// Rotate renames the existing log file with a timestamp suffix so the next
// Append starts a fresh file. If no log exists yet, Rotate is a no-op and
// returns an empty path.
func (w *Writer) Rotate() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		return "", nil
	}

	rotated := fmt.Sprintf("%s.%s", w.path, time.Now().Format(rotateSuffixLayout))
	if err := os.Rename(w.path, rotated); err != nil {
		return "", fmt.Errorf("failed to rotate run log: %w", err)
	}
	return rotated, nil
}

// ArchiveFile uploads a rotated log file to object storage under the
// configured prefix. The local file is kept; pruning is left to the operator.
func ArchiveFile(ctx context.Context, client storage.Client, bucket string, cfg Config, path string) error {
	if path == "" {
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open rotated log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat rotated log: %w", err)
	}

	object := cfg.ArchivePrefix + filepath.Base(path)
	_, err = client.PutObject(ctx, bucket, object, f, info.Size(), minio.PutObjectOptions{
		ContentType: "text/plain",
	})
	if err != nil {
		return fmt.Errorf("failed to archive run log: %w", err)
	}
	return nil
}
