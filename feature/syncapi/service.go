package syncapi

import (
	"context"
	"strings"

	"datasync/core/runlog"
	"datasync/core/storage"
	"datasync/core/sync"

	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
)

// Service exposes the sync session operations to the HTTP layer.
type Service struct {
	session *sync.Session
	client  storage.Client
	bucket  string
	logCfg  runlog.Config
	logger  *zap.Logger
}

// NewService creates a new sync API service.
func NewService(session *sync.Session, client storage.Client, bucket string, logCfg runlog.Config, logger *zap.Logger) *Service {
	return &Service{
		session: session,
		client:  client,
		bucket:  bucket,
		logCfg:  logCfg,
		logger:  logger,
	}
}

// Load takes the local and remote censuses.
func (s *Service) Load(ctx context.Context) error {
	return s.session.Load(ctx)
}

// Compare runs the compare pipeline.
func (s *Service) Compare(ctx context.Context) (*sync.CompareResult, error) {
	return s.session.Compare(ctx)
}

// Run applies the pending comparison.
func (s *Service) Run(ctx context.Context, opts sync.ApplyOptions) (*sync.ApplyResult, error) {
	return s.session.Run(ctx, opts)
}

// Status reports the run state, censuses, warnings and last outcome.
func (s *Service) Status() StatusReport {
	outcome, message := s.session.LastOutcome()
	return StatusReport{
		State:    s.session.State(),
		Census:   s.session.Census(),
		Warnings: s.session.Warnings(),
		Outcome:  outcome,
		Message:  message,
		LogPath:  s.session.LogPath(),
	}
}

// Results returns the pending comparison result, or nil.
func (s *Service) Results() *sync.CompareResult {
	return s.session.Results()
}

// ListArchivedLogs lists run logs archived to object storage.
func (s *Service) ListArchivedLogs(ctx context.Context) ([]string, error) {
	var names []string
	objects := s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    s.logCfg.ArchivePrefix,
		Recursive: true,
	})
	for obj := range objects {
		if obj.Err != nil {
			return nil, obj.Err
		}
		names = append(names, strings.TrimPrefix(obj.Key, s.logCfg.ArchivePrefix))
	}
	return names, nil
}

// StatusReport is the status payload returned to UI clients polling the
// session.
type StatusReport struct {
	// State is the current run state.
	State sync.RunState `json:"state"`
	// Census holds the censuses of the last load, if any.
	Census *sync.Census `json:"census,omitempty"`
	// Warnings are the key quality warnings of the last load.
	Warnings []string `json:"warnings,omitempty"`
	// Outcome is the outcome of the last run, if any.
	Outcome sync.Outcome `json:"outcome,omitempty"`
	// Message is the outcome message of the last run.
	Message string `json:"message,omitempty"`
	// LogPath is the run log location.
	LogPath string `json:"log_path"`
}
