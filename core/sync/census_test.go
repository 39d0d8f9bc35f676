package sync

import (
	"context"
	"errors"
	"testing"

	"datasync/core/gateway/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestTakeLocalCensus(t *testing.T) {
	t.Run("Empty Snapshot", func(t *testing.T) {
		census := takeLocalCensus(nil)
		assert.Equal(t, TableCensus{}, census)
		assert.False(t, census.HasWarnings())
	})

	t.Run("Clean Keys", func(t *testing.T) {
		census := takeLocalCensus([]Feature{
			{Key: "A"}, {Key: "B"}, {Key: "C"},
		})
		assert.Equal(t, int64(3), census.FeatureCount)
		assert.Equal(t, int64(0), census.BlankKeyCount)
		assert.Equal(t, int64(0), census.DuplicateKeyCount)
	})

	t.Run("Blank And Whitespace Keys", func(t *testing.T) {
		census := takeLocalCensus([]Feature{
			{Key: ""}, {Key: "   "}, {Key: "A"},
		})
		assert.Equal(t, int64(3), census.FeatureCount)
		assert.Equal(t, int64(2), census.BlankKeyCount)
		assert.True(t, census.HasWarnings())
	})

	t.Run("Duplicates Count Every Member", func(t *testing.T) {
		// Three features share "A", two share "B"; all five are duplicates.
		census := takeLocalCensus([]Feature{
			{Key: "A"}, {Key: "A"}, {Key: "A"},
			{Key: "B"}, {Key: "B"},
			{Key: "C"},
		})
		assert.Equal(t, int64(6), census.FeatureCount)
		assert.Equal(t, int64(5), census.DuplicateKeyCount)
	})
}

func TestTakeRemoteCensus(t *testing.T) {
	cfg := testConfig()
	remote := cfg.QualifiedRemote()

	t.Run("Missing Table", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, remote).Return(false)

		_, err := takeRemoteCensus(context.Background(), gw, cfg)
		assert.Error(t, err)
		assert.Equal(t, KindLoad, KindOf(err))
	})

	t.Run("Unknown Row Count", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, remote).Return(true)
		gw.On("RowCount", mock.Anything, remote).Return(int64(-1))

		_, err := takeRemoteCensus(context.Background(), gw, cfg)
		assert.Error(t, err)
		assert.Equal(t, KindLoad, KindOf(err))
	})

	t.Run("Key Census Failure", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, remote).Return(true)
		gw.On("RowCount", mock.Anything, remote).Return(int64(10))
		gw.On("KeyCensus", mock.Anything, remote, cfg.KeyColumn).
			Return(int64(0), int64(0), errors.New("census failed"))

		_, err := takeRemoteCensus(context.Background(), gw, cfg)
		assert.Error(t, err)
		assert.Equal(t, KindLoad, KindOf(err))
	})

	t.Run("Success", func(t *testing.T) {
		gw := new(mocks.Gateway)
		gw.On("TableExists", mock.Anything, remote).Return(true)
		gw.On("RowCount", mock.Anything, remote).Return(int64(42))
		gw.On("KeyCensus", mock.Anything, remote, cfg.KeyColumn).
			Return(int64(1), int64(4), nil)

		census, err := takeRemoteCensus(context.Background(), gw, cfg)
		assert.NoError(t, err)
		assert.Equal(t, TableCensus{FeatureCount: 42, BlankKeyCount: 1, DuplicateKeyCount: 4}, census)
		assert.True(t, census.HasWarnings())
	})
}

func TestCensusWarnings(t *testing.T) {
	t.Run("Clean Census", func(t *testing.T) {
		warnings := censusWarnings(&Census{
			Local:  TableCensus{FeatureCount: 5},
			Remote: TableCensus{FeatureCount: 5},
		})
		assert.Empty(t, warnings)
	})

	t.Run("All Findings", func(t *testing.T) {
		warnings := censusWarnings(&Census{
			Local:  TableCensus{FeatureCount: 5, BlankKeyCount: 2, DuplicateKeyCount: 3},
			Remote: TableCensus{FeatureCount: 5, BlankKeyCount: 1},
		})
		assert.Equal(t, []string{
			"local table has 2 features with a blank key",
			"local table has 3 features with a duplicated key",
			"remote table has 1 features with a blank key",
		}, warnings)
	})
}
