package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// insertBatchSize bounds the number of rows per INSERT statement so the
// parameter count stays under the SQL Server 2100-parameter limit.
const insertBatchSize = 500

// gormGateway implements Gateway on top of a GORM connection.
type gormGateway struct {
	db      *gorm.DB
	logger  *zap.Logger
	timeout time.Duration
}

// New creates a gateway backed by the given connection. timeoutSeconds bounds
// every remote call; zero disables the deadline.
func New(db *gorm.DB, logger *zap.Logger, timeoutSeconds int) Gateway {
	return &gormGateway{
		db:      db,
		logger:  logger,
		timeout: time.Duration(timeoutSeconds) * time.Second,
	}
}

// withDeadline applies the per-call timeout to the context.
func (g *gormGateway) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, g.timeout)
}

// mapTimeout converts a deadline expiry into ErrTimedOut so callers can
// distinguish a slow procedure from a failing one.
func mapTimeout(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimedOut, err)
	}
	return err
}

// quoteLiteral renders a positional string parameter as a SQL literal,
// doubling embedded quotes. Procedure parameter order and quoting must match
// the server-side procedures exactly.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (g *gormGateway) Execute(ctx context.Context, procedure string, args ...string) error {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = quoteLiteral(a)
	}

	var stmt string
	switch g.db.Dialector.Name() {
	case "mysql":
		stmt = fmt.Sprintf("CALL %s(%s)", procedure, strings.Join(quoted, ", "))
	case "sqlite":
		return fmt.Errorf("stored procedures are not supported on sqlite")
	default:
		stmt = fmt.Sprintf("EXECUTE %s %s", procedure, strings.Join(quoted, ", "))
	}

	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	g.logger.Debug("Executing remote procedure", zap.String("procedure", procedure), zap.Int("args", len(args)))
	if err := g.db.WithContext(callCtx).Exec(stmt).Error; err != nil {
		return mapTimeout(fmt.Errorf("procedure %s failed: %w", procedure, err))
	}
	return nil
}

func (g *gormGateway) TableExists(ctx context.Context, table string) bool {
	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	// Migrator.HasTable swallows lookup errors into false, which matches the
	// contract: absence and "could not determine" are both reported as absent.
	exists := g.db.WithContext(callCtx).Migrator().HasTable(table)
	if !exists {
		g.logger.Debug("Table not found", zap.String("table", table))
	}
	return exists
}

func (g *gormGateway) RowCount(ctx context.Context, table string) int64 {
	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	var count int64
	if err := g.db.WithContext(callCtx).Table(table).Count(&count).Error; err != nil {
		g.logger.Warn("Row count failed", zap.String("table", table), zap.Error(err))
		return -1
	}
	return count
}

func (g *gormGateway) DeleteTable(ctx context.Context, table string) error {
	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	// Absence is not an error; dropping a staging table that was never
	// created is the normal first-run case.
	if !g.db.WithContext(callCtx).Migrator().HasTable(table) {
		return nil
	}
	if err := g.db.WithContext(callCtx).Migrator().DropTable(table); err != nil {
		return mapTimeout(fmt.Errorf("failed to drop table %s: %w", table, err))
	}
	return nil
}

func (g *gormGateway) CopyTable(ctx context.Context, source, target string) error {
	var stmt string
	switch g.db.Dialector.Name() {
	case "sqlserver":
		stmt = fmt.Sprintf("SELECT * INTO %s FROM %s", target, source)
	default:
		stmt = fmt.Sprintf("CREATE TABLE %s AS SELECT * FROM %s", target, source)
	}

	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	if err := g.db.WithContext(callCtx).Exec(stmt).Error; err != nil {
		return mapTimeout(fmt.Errorf("failed to copy %s to %s: %w", source, target, err))
	}
	return nil
}

func (g *gormGateway) CreateSnapshotTable(ctx context.Context, table, keyColumn, spatialColumn string) error {
	var stmt string
	switch g.db.Dialector.Name() {
	case "sqlserver":
		stmt = fmt.Sprintf("CREATE TABLE %s (%s NVARCHAR(255) NULL, %s NVARCHAR(MAX) NULL, area FLOAT NULL)",
			table, keyColumn, spatialColumn)
	case "mysql":
		stmt = fmt.Sprintf("CREATE TABLE %s (%s VARCHAR(255) NULL, %s LONGTEXT NULL, area DOUBLE NULL)",
			table, keyColumn, spatialColumn)
	default:
		stmt = fmt.Sprintf("CREATE TABLE %s (%s TEXT, %s TEXT, area REAL)",
			table, keyColumn, spatialColumn)
	}

	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	if err := g.db.WithContext(callCtx).Exec(stmt).Error; err != nil {
		return mapTimeout(fmt.Errorf("failed to create staging table %s: %w", table, err))
	}
	return nil
}

func (g *gormGateway) InsertSnapshotRows(ctx context.Context, table, keyColumn, spatialColumn string, rows []SnapshotRow) error {
	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	for start := 0; start < len(rows); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]

		placeholders := make([]string, 0, len(batch))
		args := make([]any, 0, len(batch)*3)
		for _, row := range batch {
			placeholders = append(placeholders, "(?, ?, ?)")
			args = append(args, row.Key, row.Geometry, row.Area)
		}

		stmt := fmt.Sprintf("INSERT INTO %s (%s, %s, area) VALUES %s",
			table, keyColumn, spatialColumn, strings.Join(placeholders, ", "))

		if err := g.db.WithContext(callCtx).Exec(stmt, args...).Error; err != nil {
			return mapTimeout(fmt.Errorf("failed to insert snapshot rows into %s: %w", table, err))
		}
	}
	return nil
}

func (g *gormGateway) KeyCensus(ctx context.Context, table, keyColumn string) (int64, int64, error) {
	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	var blank int64
	err := g.db.WithContext(callCtx).Table(table).
		Where(fmt.Sprintf("%s IS NULL OR %s = ''", keyColumn, keyColumn)).
		Count(&blank).Error
	if err != nil {
		return 0, 0, mapTimeout(fmt.Errorf("blank key census on %s failed: %w", table, err))
	}

	// Count every row that carries a duplicated key, not just the groups.
	dupQuery := fmt.Sprintf(
		"SELECT COALESCE(SUM(dup.c), 0) FROM (SELECT COUNT(*) AS c FROM %s WHERE %s IS NOT NULL AND %s <> '' GROUP BY %s HAVING COUNT(*) > 1) dup",
		table, keyColumn, keyColumn, keyColumn)

	var duplicate int64
	if err := g.db.WithContext(callCtx).Raw(dupQuery).Scan(&duplicate).Error; err != nil {
		return 0, 0, mapTimeout(fmt.Errorf("duplicate key census on %s failed: %w", table, err))
	}

	return blank, duplicate, nil
}

func (g *gormGateway) QueryRows(ctx context.Context, table string, columns []string, orderBy []string) ([]map[string]any, error) {
	stmt := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), table)
	if len(orderBy) > 0 {
		stmt += " ORDER BY " + strings.Join(orderBy, ", ")
	}

	callCtx, cancel := g.withDeadline(ctx)
	defer cancel()

	rows, err := g.db.WithContext(callCtx).Raw(stmt).Rows()
	if err != nil {
		return nil, mapTimeout(fmt.Errorf("failed to query %s: %w", table, err))
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		record := make(map[string]any, len(names))
		for i, name := range names {
			record[strings.ToLower(name)] = values[i]
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, mapTimeout(err)
	}
	return result, nil
}
