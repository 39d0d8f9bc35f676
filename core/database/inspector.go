package database

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ColumnInfo describes one column of an inspected table.
type ColumnInfo struct {
	Field string
	Type  string
}

// GetTableColumns retrieves the column definitions for a given table.
// Column and type names are normalized to lowercase.
func GetTableColumns(db *gorm.DB, tableName string) ([]ColumnInfo, error) {
	var columns []ColumnInfo

	switch db.Dialector.Name() {
	case "sqlite":
		// SQLite uses PRAGMA table_info
		type SQLiteColumn struct {
			Cid        int
			Name       string
			Type       string
			Notnull    int
			DefaultVal *string
			Pk         int
		}
		var sqliteCols []SQLiteColumn
		if err := db.Raw(fmt.Sprintf("PRAGMA table_info('%s')", tableName)).Scan(&sqliteCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range sqliteCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Name),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil

	case "mysql":
		type mysqlColumn struct {
			Field string
			Type  string
		}
		var mysqlCols []mysqlColumn
		if err := db.Raw(fmt.Sprintf("SHOW COLUMNS FROM `%s`", tableName)).Scan(&mysqlCols).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range mysqlCols {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.Field),
				Type:  strings.ToLower(col.Type),
			})
		}
		return columns, nil

	default:
		// SQL Server: INFORMATION_SCHEMA lookup. Table names may be
		// schema-qualified ("dbo.parcels").
		schema := ""
		name := tableName
		if idx := strings.IndexByte(tableName, '.'); idx >= 0 {
			schema = tableName[:idx]
			name = tableName[idx+1:]
		}

		type sqlServerColumn struct {
			ColumnName string
			DataType   string
		}
		var rows []sqlServerColumn
		query := "SELECT COLUMN_NAME AS column_name, DATA_TYPE AS data_type FROM INFORMATION_SCHEMA.COLUMNS WHERE TABLE_NAME = ?"
		args := []any{name}
		if schema != "" {
			query += " AND TABLE_SCHEMA = ?"
			args = append(args, schema)
		}
		if err := db.Raw(query, args...).Scan(&rows).Error; err != nil {
			return nil, fmt.Errorf("failed to get columns for table %s: %w", tableName, err)
		}
		for _, col := range rows {
			columns = append(columns, ColumnInfo{
				Field: strings.ToLower(col.ColumnName),
				Type:  strings.ToLower(col.DataType),
			})
		}
		return columns, nil
	}
}

// MissingColumns returns the subset of wanted column names (case-insensitive)
// that are not present on the table. Used as a pre-flight check before any
// remote procedure touches the table.
func MissingColumns(db *gorm.DB, tableName string, wanted ...string) ([]string, error) {
	columns, err := GetTableColumns(db, tableName)
	if err != nil {
		return nil, err
	}

	present := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		present[col.Field] = struct{}{}
	}

	var missing []string
	for _, w := range wanted {
		if w == "" {
			continue
		}
		if _, ok := present[strings.ToLower(w)]; !ok {
			missing = append(missing, w)
		}
	}
	return missing, nil
}
