package sync

import (
	"context"
	"errors"
	"testing"

	"datasync/core/gateway"
	"datasync/core/gateway/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestPrepareForCompare(t *testing.T) {
	cfg := testConfig()
	results := cfg.QualifiedResults()
	staging := cfg.StagingTable()

	features := []Feature{
		{Key: "A", Geometry: "POINT (1 2)"},
		{Key: "B", Geometry: "POINT (3 4)"},
	}

	t.Run("Uploads Snapshot", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("DeleteTable", mock.Anything, results).Return(nil)
		gw.On("DeleteTable", mock.Anything, staging).Return(nil)
		gw.On("CreateSnapshotTable", mock.Anything, staging, cfg.KeyColumn, cfg.SpatialColumn).Return(nil)
		gw.On("InsertSnapshotRows", mock.Anything, staging, cfg.KeyColumn, cfg.SpatialColumn,
			mock.MatchedBy(func(rows []gateway.SnapshotRow) bool {
				return len(rows) == 2 && rows[0].Key == "A" && rows[1].Key == "B"
			})).Return(nil)

		m := NewStagingManager(gw, cfg, zap.NewNop())
		assert.NoError(t, m.PrepareForCompare(context.Background(), features))
		gw.AssertExpectations(t)
	})

	t.Run("Prefers Local Table Copy", func(t *testing.T) {
		cfg := testConfig()
		cfg.Schema = "dbo"
		cfg.LocalTable = "parcels_local"

		gw := new(mocks.Gateway)
		gw.On("DeleteTable", mock.Anything, cfg.QualifiedResults()).Return(nil)
		gw.On("DeleteTable", mock.Anything, cfg.StagingTable()).Return(nil)
		gw.On("CopyTable", mock.Anything, "dbo.parcels_local", cfg.StagingTable()).Return(nil)

		m := NewStagingManager(gw, cfg, zap.NewNop())
		assert.NoError(t, m.PrepareForCompare(context.Background(), nil))
		gw.AssertNotCalled(t, "CreateSnapshotTable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		gw.AssertExpectations(t)
	})

	t.Run("Results Clear Failure Aborts", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("DeleteTable", mock.Anything, results).Return(errors.New("locked"))

		m := NewStagingManager(gw, cfg, zap.NewNop())
		err := m.PrepareForCompare(context.Background(), features)
		assert.Error(t, err)
		assert.Equal(t, KindStaging, KindOf(err))
		gw.AssertNotCalled(t, "CreateSnapshotTable", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Upload Failure Is Staging Error", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("DeleteTable", mock.Anything, results).Return(nil)
		gw.On("DeleteTable", mock.Anything, staging).Return(nil)
		gw.On("CreateSnapshotTable", mock.Anything, staging, cfg.KeyColumn, cfg.SpatialColumn).Return(nil)
		gw.On("InsertSnapshotRows", mock.Anything, staging, cfg.KeyColumn, cfg.SpatialColumn, mock.Anything).
			Return(errors.New("bulk insert failed"))

		m := NewStagingManager(gw, cfg, zap.NewNop())
		err := m.PrepareForCompare(context.Background(), features)
		assert.Error(t, err)
		assert.Equal(t, KindStaging, KindOf(err))
		assert.Contains(t, err.Error(), "upload failed")
	})
}

func TestEnsureRemoteTable(t *testing.T) {
	cfg := testConfig()

	t.Run("Present", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, cfg.QualifiedRemote()).Return(true)

		m := NewStagingManager(gw, cfg, zap.NewNop())
		assert.NoError(t, m.EnsureRemoteTable(context.Background()))
	})

	t.Run("Absent Is Fatal", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, cfg.QualifiedRemote()).Return(false)

		m := NewStagingManager(gw, cfg, zap.NewNop())
		err := m.EnsureRemoteTable(context.Background())
		assert.Error(t, err)
		assert.Equal(t, KindStaging, KindOf(err))
	})
}

func TestCleanup(t *testing.T) {
	cfg := testConfig()

	t.Run("Invokes Clear Procedure", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("Execute", mock.Anything, cfg.ClearProcedure, cfg.Schema, cfg.RemoteTable).Return(nil)

		m := NewStagingManager(gw, cfg, zap.NewNop())
		assert.NoError(t, m.Cleanup(context.Background()))
		gw.AssertExpectations(t)
	})

	t.Run("Failure Is Cleanup Error", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("Execute", mock.Anything, cfg.ClearProcedure, cfg.Schema, cfg.RemoteTable).
			Return(errors.New("procedure missing"))

		m := NewStagingManager(gw, cfg, zap.NewNop())
		err := m.Cleanup(context.Background())
		assert.Error(t, err)
		assert.Equal(t, KindCleanup, KindOf(err))
	})
}
