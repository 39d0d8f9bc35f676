package sync

import (
	"context"

	"datasync/core/gateway"
	"datasync/core/runlog"
	"datasync/core/storage"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Session is the thin user-facing surface over one sync target. It holds the
// profile, the engine and the run log, and exposes the load/compare/run
// operations the CLI and HTTP layers bind to.
type Session struct {
	cfg    Config
	engine *Engine
	log    *runlog.Writer
	logCfg runlog.Config
	store  storage.Client
	bucket string
	logger *zap.Logger
}

// NewSession wires a session for the configured target.
func NewSession(cfg Config, logCfg runlog.Config, gw gateway.Gateway, db *gorm.DB, src SnapshotSource, store storage.Client, bucket string, logger *zap.Logger, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := runlog.NewWriter(logCfg)
	return &Session{
		cfg:    cfg,
		engine: NewEngine(gw, db, src, log, logger, cfg, opts...),
		log:    log,
		logCfg: logCfg,
		store:  store,
		bucket: bucket,
		logger: logger,
	}, nil
}

// Load takes both censuses and prepares the session for a compare.
func (s *Session) Load(ctx context.Context) error {
	return s.engine.LoadTables(ctx)
}

// Compare runs the compare pipeline.
func (s *Session) Compare(ctx context.Context) (*CompareResult, error) {
	return s.engine.Compare(ctx)
}

// Run applies the pending comparison. When archiving is configured, the
// rotated log is uploaded to object storage, and on a non-success outcome
// the current run log is uploaded as well so the failure is immediately
// reviewable.
func (s *Session) Run(ctx context.Context, opts ApplyOptions) (*ApplyResult, error) {
	result, err := s.engine.Apply(ctx, opts)
	if err != nil {
		return nil, err
	}

	if s.logCfg.Archive && s.store != nil {
		if result.RotatedLog != "" {
			if aerr := runlog.ArchiveFile(ctx, s.store, s.bucket, s.logCfg, result.RotatedLog); aerr != nil {
				s.logger.Warn("Run log archive failed", zap.Error(aerr))
			}
		}
		if result.Outcome != OutcomeSuccess {
			if aerr := runlog.ArchiveFile(ctx, s.store, s.bucket, s.logCfg, result.LogPath); aerr != nil {
				s.logger.Warn("Run log archive failed", zap.Error(aerr))
			}
		}
	}

	return result, nil
}

// State returns the current run state.
func (s *Session) State() RunState {
	return s.engine.State()
}

// Census returns the censuses of the last load.
func (s *Session) Census() *Census {
	return s.engine.Census()
}

// Warnings returns the key quality warnings of the last load.
func (s *Session) Warnings() []string {
	return s.engine.Warnings()
}

// Results returns the pending comparison result, or nil.
func (s *Session) Results() *CompareResult {
	return s.engine.LastCompare()
}

// LastOutcome returns the outcome and message of the last run.
func (s *Session) LastOutcome() (Outcome, string) {
	return s.engine.LastOutcome()
}

// LogPath returns the run log location.
func (s *Session) LogPath() string {
	return s.log.Path()
}
