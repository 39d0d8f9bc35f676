package gateway

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMockDB creates a mock GORM DB for testing.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}

	dialector := mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}

	return gormDB, mock
}

// setupSQLiteDB creates a real in-memory DB for statement-level tests.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	return db
}

func TestExecute(t *testing.T) {
	t.Run("Renders Positional Literals", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		gw := New(db, zap.NewNop(), 0)

		sqlMock.ExpectExec(regexp.QuoteMeta("CALL usp_CompareFeatures('dbo', 'parcels_results', 'parcels', 'feature_key', 'geom')")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := gw.Execute(context.Background(), "usp_CompareFeatures",
			"dbo", "parcels_results", "parcels", "feature_key", "geom")
		assert.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Doubles Embedded Quotes", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		gw := New(db, zap.NewNop(), 0)

		sqlMock.ExpectExec(regexp.QuoteMeta("CALL usp_ClearTempTables('dbo', 'o''brien')")).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := gw.Execute(context.Background(), "usp_ClearTempTables", "dbo", "o'brien")
		assert.NoError(t, err)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("Procedure Error Is Wrapped", func(t *testing.T) {
		db, sqlMock := setupMockDB(t)
		gw := New(db, zap.NewNop(), 0)

		sqlMock.ExpectExec(".*").WillReturnError(assert.AnError)

		err := gw.Execute(context.Background(), "usp_UpdateFeatures", "dbo", "parcels")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "usp_UpdateFeatures")
	})

	t.Run("Unsupported On SQLite", func(t *testing.T) {
		gw := New(setupSQLiteDB(t), zap.NewNop(), 0)
		err := gw.Execute(context.Background(), "usp_UpdateFeatures", "dbo", "parcels")
		assert.Error(t, err)
	})
}

func TestTableLifecycle(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)
	ctx := context.Background()

	assert.False(t, gw.TableExists(ctx, "parcels_TEMP"))

	// Dropping an absent table is not an error.
	assert.NoError(t, gw.DeleteTable(ctx, "parcels_TEMP"))

	require.NoError(t, gw.CreateSnapshotTable(ctx, "parcels_TEMP", "feature_key", "geom"))
	assert.True(t, gw.TableExists(ctx, "parcels_TEMP"))
	assert.Equal(t, int64(0), gw.RowCount(ctx, "parcels_TEMP"))

	assert.NoError(t, gw.DeleteTable(ctx, "parcels_TEMP"))
	assert.False(t, gw.TableExists(ctx, "parcels_TEMP"))
}

func TestInsertSnapshotRows(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)
	ctx := context.Background()

	require.NoError(t, gw.CreateSnapshotTable(ctx, "parcels_TEMP", "feature_key", "geom"))

	area := 12.5
	rows := []SnapshotRow{
		{Key: "A", Geometry: "POINT (1 2)", Area: &area},
		{Key: "B", Geometry: "POINT (3 4)"},
		{Key: "C", Geometry: "POINT (5 6)"},
	}
	require.NoError(t, gw.InsertSnapshotRows(ctx, "parcels_TEMP", "feature_key", "geom", rows))
	assert.Equal(t, int64(3), gw.RowCount(ctx, "parcels_TEMP"))

	t.Run("Empty Input Is A No-Op", func(t *testing.T) {
		assert.NoError(t, gw.InsertSnapshotRows(ctx, "parcels_TEMP", "feature_key", "geom", nil))
		assert.Equal(t, int64(3), gw.RowCount(ctx, "parcels_TEMP"))
	})
}

func TestCopyTable(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)
	ctx := context.Background()

	require.NoError(t, db.Exec("CREATE TABLE parcels_local (feature_key TEXT, geom TEXT)").Error)
	require.NoError(t, db.Exec("INSERT INTO parcels_local VALUES ('A', 'POINT (1 2)'), ('B', 'POINT (3 4)')").Error)

	require.NoError(t, gw.CopyTable(ctx, "parcels_local", "parcels_TEMP"))
	assert.Equal(t, int64(2), gw.RowCount(ctx, "parcels_TEMP"))
}

func TestRowCount(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)

	// Unknown table: the sentinel, not zero.
	assert.Equal(t, int64(-1), gw.RowCount(context.Background(), "no_such_table"))
}

func TestKeyCensus(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)
	ctx := context.Background()

	require.NoError(t, db.Exec("CREATE TABLE parcels (feature_key TEXT, geom TEXT)").Error)
	require.NoError(t, db.Exec(`INSERT INTO parcels (feature_key) VALUES
		('A'), ('A'), ('A'),
		('B'), ('B'),
		('C'),
		(''), (NULL)`).Error)

	blank, duplicate, err := gw.KeyCensus(ctx, "parcels", "feature_key")
	require.NoError(t, err)
	assert.Equal(t, int64(2), blank)
	// Every member of a duplicated group counts, not just the groups.
	assert.Equal(t, int64(5), duplicate)

	t.Run("Clean Table", func(t *testing.T) {
		require.NoError(t, db.Exec("CREATE TABLE clean (feature_key TEXT)").Error)
		require.NoError(t, db.Exec("INSERT INTO clean VALUES ('A'), ('B')").Error)

		blank, duplicate, err := gw.KeyCensus(ctx, "clean", "feature_key")
		require.NoError(t, err)
		assert.Zero(t, blank)
		assert.Zero(t, duplicate)
	})
}

func TestQueryRows(t *testing.T) {
	db := setupSQLiteDB(t)
	gw := New(db, zap.NewNop(), 0)
	ctx := context.Background()

	require.NoError(t, db.Exec(`CREATE TABLE parcels_results (
		Result_Type TEXT, sort_order INTEGER, description TEXT, new_key TEXT)`).Error)
	require.NoError(t, db.Exec(`INSERT INTO parcels_results VALUES
		('Removed', 2, 'feature removed', NULL),
		('Added', 1, 'new feature', 'K1')`).Error)

	rows, err := gw.QueryRows(ctx, "parcels_results",
		[]string{"Result_Type", "sort_order", "description", "new_key"},
		[]string{"Result_Type", "sort_order"})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	// Keys are lowercased regardless of the declared column case, and the
	// order-by is honored.
	assert.Equal(t, "Added", rows[0]["result_type"])
	assert.Equal(t, "K1", rows[0]["new_key"])
	assert.Equal(t, "Removed", rows[1]["result_type"])
	assert.Nil(t, rows[1]["new_key"])

	t.Run("Unknown Table", func(t *testing.T) {
		_, err := gw.QueryRows(ctx, "no_such_table", []string{"a"}, nil)
		assert.Error(t, err)
	})
}
