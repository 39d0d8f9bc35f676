package mocks

import (
	"context"

	"datasync/core/gateway"

	"github.com/stretchr/testify/mock"
)

// Gateway is a mock implementation of gateway.Gateway
type Gateway struct {
	mock.Mock
}

func (m *Gateway) Execute(ctx context.Context, procedure string, args ...string) error {
	callArgs := []any{ctx, procedure}
	for _, a := range args {
		callArgs = append(callArgs, a)
	}
	return m.Called(callArgs...).Error(0)
}

func (m *Gateway) TableExists(ctx context.Context, table string) bool {
	return m.Called(ctx, table).Bool(0)
}

func (m *Gateway) RowCount(ctx context.Context, table string) int64 {
	return m.Called(ctx, table).Get(0).(int64)
}

func (m *Gateway) DeleteTable(ctx context.Context, table string) error {
	return m.Called(ctx, table).Error(0)
}

func (m *Gateway) CopyTable(ctx context.Context, source, target string) error {
	return m.Called(ctx, source, target).Error(0)
}

func (m *Gateway) CreateSnapshotTable(ctx context.Context, table, keyColumn, spatialColumn string) error {
	return m.Called(ctx, table, keyColumn, spatialColumn).Error(0)
}

func (m *Gateway) InsertSnapshotRows(ctx context.Context, table, keyColumn, spatialColumn string, rows []gateway.SnapshotRow) error {
	return m.Called(ctx, table, keyColumn, spatialColumn, rows).Error(0)
}

func (m *Gateway) KeyCensus(ctx context.Context, table, keyColumn string) (int64, int64, error) {
	args := m.Called(ctx, table, keyColumn)
	return args.Get(0).(int64), args.Get(1).(int64), args.Error(2)
}

func (m *Gateway) QueryRows(ctx context.Context, table string, columns []string, orderBy []string) ([]map[string]any, error) {
	args := m.Called(ctx, table, columns, orderBy)
	if rows, ok := args.Get(0).([]map[string]any); ok {
		return rows, args.Error(1)
	}
	return nil, args.Error(1)
}
