package dialect

import (
	"context"
	"database/sql"
	"strings"

	"dbmd-fetch/internal/schema"
)

// SqliteDialect reads sqlite_master and the pragma table functions of the main database.
// SQLite has no schemas, so relation ids carry none.
type SqliteDialect struct{}

var sqliteKinds = map[schema.RelType][]string{
	schema.RelTypeTable: {"table"},
	schema.RelTypeView:  {"view"},
}

func (d *SqliteDialect) Tag() string           { return "sqlite" }
func (d *SqliteDialect) DefaultDriver() string { return "sqlite3" }

func (d *SqliteDialect) Placeholder(index int) string {
	return "?"
}

func (d *SqliteDialect) IdentifierStorage(context.Context, *sql.DB) (schema.IdentifierStorage, error) {
	return staticStorage(false, false, true), nil
}

func (d *SqliteDialect) RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any) {
	q := newQuery(d.Placeholder).
		where("m.type IN " + inList(kinds, sqliteKinds)).
		where("m.name NOT LIKE 'sqlite\\_%' ESCAPE '\\'")
	if schemaName != nil {
		q.bind("%s = 'main'", *schemaName)
	}
	return q.build(`SELECT NULL, m.name, m.type, NULL
FROM sqlite_master m`, "m.name")
}

func (d *SqliteDialect) ColumnsQuery(schemaName *string) (string, []any) {
	q := newQuery(d.Placeholder).
		where("m.type IN ('table', 'view')").
		where("m.name NOT LIKE 'sqlite\\_%' ESCAPE '\\'")
	if schemaName != nil {
		q.bind("%s = 'main'", *schemaName)
	}
	// Sizes are not reported here; the source reads them from the declared type.
	return q.build(`SELECT
    NULL,
    m.name,
    p.name,
    p.type,
    NULL,
    CASE p."notnull" WHEN 1 THEN 'NO' ELSE 'YES' END,
    NULL,
    NULL,
    NULL
FROM sqlite_master m
JOIN pragma_table_info(m.name) p`, "m.name, p.cid")
}

func (d *SqliteDialect) PrimaryKeysQuery(rel schema.RelId) (string, []any) {
	query, _ := newQuery(d.Placeholder).
		where("p.pk > 0").
		build(`SELECT p.name, p.pk
FROM pragma_table_info(`+d.Placeholder(0)+`) p`, "p.pk")
	return query, []any{rel.Name}
}

func (d *SqliteDialect) ImportedKeysQuery(table schema.RelId) (string, []any) {
	// A reference without a column list targets the primary key of the referenced table.
	query, _ := newQuery(d.Placeholder).build(`SELECT
    NULL,
    f.seq + 1,
    f."from",
    NULL,
    f."table",
    COALESCE(f."to", (SELECT p.name FROM pragma_table_info(f."table") p WHERE p.pk = f.seq + 1))
FROM pragma_foreign_key_list(`+d.Placeholder(0)+`) f`, `f."table", f.id, f.seq`)
	return query, []any{table.Name}
}

func (d *SqliteDialect) ProductQuery() string {
	return `SELECT 'SQLite', sqlite_version()`
}

// TypeCode follows SQLite's type affinity rules, after a few exact names.
func (d *SqliteDialect) TypeCode(nativeType string) int {
	t := baseTypeName(nativeType)
	switch t {
	case "date":
		return schema.TypeDate
	case "datetime", "timestamp":
		return schema.TypeTimestamp
	case "time":
		return schema.TypeTime
	case "boolean", "bool":
		return schema.TypeBoolean
	case "char", "character", "nchar":
		return schema.TypeChar
	case "smallint":
		return schema.TypeSmallInt
	case "bigint":
		return schema.TypeBigInt
	case "decimal":
		return schema.TypeDecimal
	case "numeric":
		return schema.TypeNumeric
	case "float":
		return schema.TypeFloat
	case "double", "double precision":
		return schema.TypeDouble
	}
	switch {
	case strings.Contains(t, "int"):
		return schema.TypeInteger
	case strings.Contains(t, "char"), strings.Contains(t, "clob"), strings.Contains(t, "text"):
		return schema.TypeVarchar
	case t == "", strings.Contains(t, "blob"):
		return schema.TypeBlob
	case strings.Contains(t, "real"), strings.Contains(t, "floa"), strings.Contains(t, "doub"):
		return schema.TypeReal
	default:
		return schema.TypeNumeric
	}
}

func (d *SqliteDialect) MetadataQuery() string { return "" }

func (d *SqliteDialect) BindPatterns(string, string) []any { return nil }
