package dialect

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"dbmd-fetch/internal/schema"
)

//go:embed sql/mysql-dbmd.sql
var mysqlMetadataSQL string

// MysqlDialect scopes every query to the connection's current database. MySQL has no schema
// level below the database, so relation ids carry no schema.
type MysqlDialect struct{}

var mysqlKinds = map[schema.RelType][]string{
	schema.RelTypeTable: {"BASE TABLE"},
	schema.RelTypeView:  {"VIEW", "SYSTEM VIEW"},
}

func (d *MysqlDialect) Tag() string           { return "mysql" }
func (d *MysqlDialect) DefaultDriver() string { return "mysql" }

func (d *MysqlDialect) Placeholder(index int) string {
	return "?"
}

func (d *MysqlDialect) IdentifierStorage(ctx context.Context, db *sql.DB) (schema.IdentifierStorage, error) {
	var lowerCaseTableNames int
	if err := db.QueryRowContext(ctx, "SELECT @@lower_case_table_names").Scan(&lowerCaseTableNames); err != nil {
		return schema.IdentifierStorage{}, fmt.Errorf("failed to read lower_case_table_names: %w", err)
	}
	if lowerCaseTableNames != 0 {
		return staticStorage(true, false, false), nil
	}
	return staticStorage(false, false, true), nil
}

func (d *MysqlDialect) RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any) {
	q := newQuery(d.Placeholder).
		where("TABLE_SCHEMA = DATABASE()").
		where("TABLE_TYPE IN " + inList(kinds, mysqlKinds))
	if schemaName != nil {
		q.bind("TABLE_SCHEMA = %s", *schemaName)
	}
	return q.build(`SELECT NULL, TABLE_NAME, TABLE_TYPE, NULLIF(TABLE_COMMENT, '')
FROM information_schema.TABLES`, "TABLE_NAME")
}

func (d *MysqlDialect) ColumnsQuery(schemaName *string) (string, []any) {
	q := newQuery(d.Placeholder).where("TABLE_SCHEMA = DATABASE()")
	if schemaName != nil {
		q.bind("TABLE_SCHEMA = %s", *schemaName)
	}
	return q.build(`SELECT
    NULL,
    TABLE_NAME,
    COLUMN_NAME,
    DATA_TYPE,
    COALESCE(CHARACTER_MAXIMUM_LENGTH, NUMERIC_PRECISION),
    IS_NULLABLE,
    NUMERIC_SCALE,
    CASE WHEN NUMERIC_PRECISION IS NOT NULL THEN 10 END,
    NULLIF(COLUMN_COMMENT, '')
FROM information_schema.COLUMNS`, "TABLE_NAME, ORDINAL_POSITION")
}

func (d *MysqlDialect) PrimaryKeysQuery(rel schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("TABLE_SCHEMA = DATABASE()").
		where("CONSTRAINT_NAME = 'PRIMARY'").
		bind("TABLE_NAME = %s", rel.Name).
		build(`SELECT COLUMN_NAME, ORDINAL_POSITION
FROM information_schema.KEY_COLUMN_USAGE`, "ORDINAL_POSITION")
}

func (d *MysqlDialect) ImportedKeysQuery(table schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("TABLE_SCHEMA = DATABASE()").
		where("REFERENCED_TABLE_SCHEMA = TABLE_SCHEMA").
		where("REFERENCED_TABLE_NAME IS NOT NULL").
		bind("TABLE_NAME = %s", table.Name).
		build(`SELECT CONSTRAINT_NAME, ORDINAL_POSITION, COLUMN_NAME, NULL, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
FROM information_schema.KEY_COLUMN_USAGE`, "REFERENCED_TABLE_NAME, CONSTRAINT_NAME, ORDINAL_POSITION")
}

func (d *MysqlDialect) ProductQuery() string {
	return `SELECT 'MySQL', VERSION()`
}

func (d *MysqlDialect) TypeCode(nativeType string) int {
	switch baseTypeName(nativeType) {
	case "tinyint", "bool", "boolean":
		return schema.TypeTinyInt
	case "smallint":
		return schema.TypeSmallInt
	case "mediumint", "int", "integer":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "float":
		return schema.TypeReal
	case "double", "real":
		return schema.TypeDouble
	case "decimal", "numeric":
		return schema.TypeDecimal
	case "char", "enum", "set":
		return schema.TypeChar
	case "varchar":
		return schema.TypeVarchar
	case "tinytext", "text", "mediumtext", "longtext", "json":
		return schema.TypeLongVarchar
	case "date", "year":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "timestamp":
		return schema.TypeTimestamp
	case "bit":
		return schema.TypeBit
	case "binary", "geometry":
		return schema.TypeBinary
	case "varbinary":
		return schema.TypeVarBinary
	case "tinyblob", "blob", "mediumblob", "longblob":
		return schema.TypeLongVarBinary
	default:
		return schema.TypeOther
	}
}

func (d *MysqlDialect) MetadataQuery() string { return mysqlMetadataSQL }

func (d *MysqlDialect) BindPatterns(include, exclude string) []any {
	return []any{include, exclude}
}
