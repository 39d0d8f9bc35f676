package sync

import (
	"context"

	"datasync/core/gateway"

	"go.uber.org/zap"
)

// StagingManager manages the ephemeral server-side artifacts of one
// compare/apply cycle: the uploaded snapshot table and the results table.
type StagingManager struct {
	gw     gateway.Gateway
	cfg    Config
	logger *zap.Logger
}

// NewStagingManager creates a staging manager for one sync target.
func NewStagingManager(gw gateway.Gateway, cfg Config, logger *zap.Logger) *StagingManager {
	return &StagingManager{gw: gw, cfg: cfg, logger: logger}
}

// PrepareForCompare removes any results table left by a previous run
// (absence is not an error) and uploads the local snapshot into the staging
// table. A copy from an already-uploaded local table is preferred when the
// profile names one.
func (m *StagingManager) PrepareForCompare(ctx context.Context, features []Feature) error {
	if err := m.gw.DeleteTable(ctx, m.cfg.QualifiedResults()); err != nil {
		return newError(KindStaging, err, "failed to clear previous results table %s", m.cfg.QualifiedResults())
	}

	staging := m.cfg.StagingTable()
	if err := m.gw.DeleteTable(ctx, staging); err != nil {
		return newError(KindStaging, err, "failed to clear staging table %s", staging)
	}

	if m.cfg.LocalTable != "" {
		local := m.cfg.Schema + "." + m.cfg.LocalTable
		if err := m.gw.CopyTable(ctx, local, staging); err != nil {
			return newError(KindStaging, err, "upload failed: could not copy %s to %s", local, staging)
		}
		m.logger.Info("Local table copied to staging",
			zap.String("source", local), zap.String("staging", staging))
		return nil
	}

	if err := m.gw.CreateSnapshotTable(ctx, staging, m.cfg.KeyColumn, m.cfg.SpatialColumn); err != nil {
		return newError(KindStaging, err, "upload failed: could not create staging table %s", staging)
	}

	rows := make([]gateway.SnapshotRow, len(features))
	for i, f := range features {
		rows[i] = gateway.SnapshotRow{Key: f.Key, Geometry: f.Geometry, Area: f.Area}
	}
	if err := m.gw.InsertSnapshotRows(ctx, staging, m.cfg.KeyColumn, m.cfg.SpatialColumn, rows); err != nil {
		return newError(KindStaging, err, "upload failed: could not upload snapshot to %s", staging)
	}

	m.logger.Info("Snapshot uploaded to staging",
		zap.String("staging", staging), zap.Int("features", len(rows)))
	return nil
}

// EnsureRemoteTable verifies that the remote table is addressable before the
// compare procedure runs. The rest of the flow depends on it, so callers
// treat a failure as fatal.
func (m *StagingManager) EnsureRemoteTable(ctx context.Context) error {
	remote := m.cfg.QualifiedRemote()
	if !m.gw.TableExists(ctx, remote) {
		return newError(KindStaging, nil, "remote table %s is not available", remote)
	}
	return nil
}

// Cleanup invokes the remote clear-temp-tables procedure for this target.
// It is always attempted after an apply, whether the apply succeeded or not;
// a cleanup failure never changes the run outcome.
func (m *StagingManager) Cleanup(ctx context.Context) error {
	err := m.gw.Execute(ctx, m.cfg.ClearProcedure, m.cfg.Schema, m.cfg.RemoteTable)
	if err != nil {
		return newError(KindCleanup, err, "failed to clear temp tables for %s", m.cfg.QualifiedRemote())
	}
	return nil
}
