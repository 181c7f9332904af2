package dialect

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	"dbmd-fetch/internal/schema"
)

//go:embed sql/pg-dbmd.sql
var pgMetadataSQL string

type PostgresDialect struct{}

var pgKinds = map[schema.RelType][]string{
	schema.RelTypeTable: {"BASE TABLE", "FOREIGN"},
	schema.RelTypeView:  {"VIEW"},
}

const pgIgnoredSchemas = "('pg_catalog', 'information_schema')"

func (d *PostgresDialect) Tag() string           { return "pg" }
func (d *PostgresDialect) DefaultDriver() string { return "postgres" }

func (d *PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index+1)
}

func (d *PostgresDialect) IdentifierStorage(context.Context, *sql.DB) (schema.IdentifierStorage, error) {
	return staticStorage(true, false, false), nil
}

func (d *PostgresDialect) RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any) {
	q := newQuery(d.Placeholder).
		where("t.table_schema NOT IN " + pgIgnoredSchemas).
		where("t.table_type IN " + inList(kinds, pgKinds))
	if schemaName != nil {
		q.bind("t.table_schema = %s", *schemaName)
	}
	return q.build(`SELECT
    t.table_schema,
    t.table_name,
    t.table_type,
    obj_description((quote_ident(t.table_schema) || '.' || quote_ident(t.table_name))::regclass, 'pg_class')
FROM information_schema.tables t`, "t.table_schema, t.table_name")
}

func (d *PostgresDialect) ColumnsQuery(schemaName *string) (string, []any) {
	// UDT_NAME is the native name (int4, varchar, ...); DATA_TYPE is the SQL standard spelling.
	q := newQuery(d.Placeholder).where("c.table_schema NOT IN " + pgIgnoredSchemas)
	if schemaName != nil {
		q.bind("c.table_schema = %s", *schemaName)
	}
	return q.build(`SELECT
    c.table_schema,
    c.table_name,
    c.column_name,
    c.udt_name,
    COALESCE(c.character_maximum_length, c.numeric_precision),
    c.is_nullable,
    c.numeric_scale,
    c.numeric_precision_radix,
    col_description((quote_ident(c.table_schema) || '.' || quote_ident(c.table_name))::regclass, c.ordinal_position)
FROM information_schema.columns c`, "c.table_schema, c.table_name, c.ordinal_position")
}

func (d *PostgresDialect) PrimaryKeysQuery(rel schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("tc.constraint_type = 'PRIMARY KEY'").
		bind("tc.table_schema = %s", rel.SchemaName()).
		bind("tc.table_name = %s", rel.Name).
		build(`SELECT kcu.column_name, kcu.ordinal_position
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
    ON kcu.constraint_schema = tc.constraint_schema
    AND kcu.constraint_name = tc.constraint_name
    AND kcu.table_name = tc.table_name`, "kcu.ordinal_position")
}

func (d *PostgresDialect) ImportedKeysQuery(table schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		bind("kcu.table_schema = %s", table.SchemaName()).
		bind("kcu.table_name = %s", table.Name).
		build(`SELECT
    kcu.constraint_name,
    kcu.ordinal_position,
    kcu.column_name,
    ref.table_schema,
    ref.table_name,
    ref.column_name
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage kcu
    ON kcu.constraint_schema = rc.constraint_schema
    AND kcu.constraint_name = rc.constraint_name
JOIN information_schema.key_column_usage ref
    ON ref.constraint_schema = rc.unique_constraint_schema
    AND ref.constraint_name = rc.unique_constraint_name
    AND ref.ordinal_position = kcu.position_in_unique_constraint`,
			"ref.table_schema, ref.table_name, kcu.constraint_name, kcu.ordinal_position")
}

func (d *PostgresDialect) ProductQuery() string {
	return `SELECT 'PostgreSQL', current_setting('server_version')`
}

func (d *PostgresDialect) TypeCode(nativeType string) int {
	t := baseTypeName(nativeType)
	if strings.HasPrefix(t, "_") {
		return schema.TypeArray
	}
	switch t {
	case "int2", "smallserial":
		return schema.TypeSmallInt
	case "int4", "serial", "integer":
		return schema.TypeInteger
	case "int8", "bigserial", "oid":
		return schema.TypeBigInt
	case "float4":
		return schema.TypeReal
	case "float8", "money":
		return schema.TypeDouble
	case "numeric":
		return schema.TypeNumeric
	case "bpchar", "char":
		return schema.TypeChar
	case "varchar", "text", "name":
		return schema.TypeVarchar
	case "bool":
		return schema.TypeBit
	case "bytea":
		return schema.TypeBinary
	case "date":
		return schema.TypeDate
	case "time", "timetz":
		return schema.TypeTime
	case "timestamp", "timestamptz":
		return schema.TypeTimestamp
	case "xml":
		return schema.TypeSQLXML
	default:
		return schema.TypeOther
	}
}

func (d *PostgresDialect) MetadataQuery() string { return pgMetadataSQL }

func (d *PostgresDialect) BindPatterns(include, exclude string) []any {
	return []any{include, exclude}
}
