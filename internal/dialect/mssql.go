package dialect

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server Driver

	"dbmd-fetch/internal/schema"
)

type MSSQLDialect struct{}

// Helper: MSSQL Driver (go-mssqldb) prefers @p1, @p2 named parameters over ?

var mssqlKinds = map[schema.RelType][]string{
	schema.RelTypeTable: {"BASE TABLE"},
	schema.RelTypeView:  {"VIEW"},
}

func (d *MSSQLDialect) Tag() string           { return "mssql" }
func (d *MSSQLDialect) DefaultDriver() string { return "sqlserver" }

func (d *MSSQLDialect) Placeholder(index int) string {
	return fmt.Sprintf("@p%d", index+1)
}

func (d *MSSQLDialect) IdentifierStorage(context.Context, *sql.DB) (schema.IdentifierStorage, error) {
	return staticStorage(false, false, true), nil
}

func (d *MSSQLDialect) RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any) {
	q := newQuery(d.Placeholder).where("t.TABLE_TYPE IN " + inList(kinds, mssqlKinds))
	if schemaName != nil {
		q.bind("t.TABLE_SCHEMA = %s", *schemaName)
	}
	return q.build(`SELECT
    t.TABLE_SCHEMA,
    t.TABLE_NAME,
    t.TABLE_TYPE,
    CAST(ep.value AS NVARCHAR(MAX))
FROM INFORMATION_SCHEMA.TABLES t
LEFT JOIN sys.extended_properties ep
    ON ep.major_id = OBJECT_ID(QUOTENAME(t.TABLE_SCHEMA) + '.' + QUOTENAME(t.TABLE_NAME))
    AND ep.minor_id = 0
    AND ep.name = 'MS_Description'`, "t.TABLE_SCHEMA, t.TABLE_NAME")
}

func (d *MSSQLDialect) ColumnsQuery(schemaName *string) (string, []any) {
	q := newQuery(d.Placeholder)
	if schemaName != nil {
		q.bind("c.TABLE_SCHEMA = %s", *schemaName)
	}
	return q.build(`SELECT
    c.TABLE_SCHEMA,
    c.TABLE_NAME,
    c.COLUMN_NAME,
    c.DATA_TYPE,
    COALESCE(c.CHARACTER_MAXIMUM_LENGTH, c.NUMERIC_PRECISION),
    c.IS_NULLABLE,
    c.NUMERIC_SCALE,
    c.NUMERIC_PRECISION_RADIX,
    CAST(ep.value AS NVARCHAR(MAX))
FROM INFORMATION_SCHEMA.COLUMNS c
LEFT JOIN sys.extended_properties ep
    ON ep.major_id = OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME))
    AND ep.minor_id = COLUMNPROPERTY(OBJECT_ID(QUOTENAME(c.TABLE_SCHEMA) + '.' + QUOTENAME(c.TABLE_NAME)), c.COLUMN_NAME, 'ColumnId')
    AND ep.name = 'MS_Description'`, "c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION")
}

func (d *MSSQLDialect) PrimaryKeysQuery(rel schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("tc.CONSTRAINT_TYPE = 'PRIMARY KEY'").
		bind("tc.TABLE_SCHEMA = %s", rel.SchemaName()).
		bind("tc.TABLE_NAME = %s", rel.Name).
		build(`SELECT kcu.COLUMN_NAME, kcu.ORDINAL_POSITION
FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
    ON tc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
    AND tc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME`, "kcu.ORDINAL_POSITION")
}

func (d *MSSQLDialect) ImportedKeysQuery(table schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		bind("SCHEMA_NAME(pt.schema_id) = %s", table.SchemaName()).
		bind("pt.name = %s", table.Name).
		build(`SELECT
    fk.name,
    fkc.constraint_column_id,
    pc.name,
    SCHEMA_NAME(rt.schema_id),
    rt.name,
    rc.name
FROM sys.foreign_keys fk
JOIN sys.foreign_key_columns fkc ON fkc.constraint_object_id = fk.object_id
JOIN sys.tables pt ON pt.object_id = fk.parent_object_id
JOIN sys.columns pc ON pc.object_id = fkc.parent_object_id AND pc.column_id = fkc.parent_column_id
JOIN sys.tables rt ON rt.object_id = fk.referenced_object_id
JOIN sys.columns rc ON rc.object_id = fkc.referenced_object_id AND rc.column_id = fkc.referenced_column_id`,
			"SCHEMA_NAME(rt.schema_id), rt.name, fk.name, fkc.constraint_column_id")
}

func (d *MSSQLDialect) ProductQuery() string {
	return `SELECT 'Microsoft SQL Server', CAST(SERVERPROPERTY('ProductVersion') AS NVARCHAR(128))`
}

// mssql-jdbc reports datetimeoffset with its own code.
const mssqlDateTimeOffset = -155

func (d *MSSQLDialect) TypeCode(nativeType string) int {
	switch baseTypeName(nativeType) {
	case "bit":
		return schema.TypeBit
	case "tinyint":
		return schema.TypeTinyInt
	case "smallint":
		return schema.TypeSmallInt
	case "int":
		return schema.TypeInteger
	case "bigint":
		return schema.TypeBigInt
	case "real":
		return schema.TypeReal
	case "float":
		return schema.TypeDouble
	case "decimal", "money", "smallmoney":
		return schema.TypeDecimal
	case "numeric":
		return schema.TypeNumeric
	case "char", "uniqueidentifier":
		return schema.TypeChar
	case "varchar":
		return schema.TypeVarchar
	case "text":
		return schema.TypeLongVarchar
	case "nchar":
		return schema.TypeNChar
	case "nvarchar", "sysname":
		return schema.TypeNVarchar
	case "ntext", "xml":
		return schema.TypeLongNVarchar
	case "date":
		return schema.TypeDate
	case "time":
		return schema.TypeTime
	case "datetime", "datetime2", "smalldatetime":
		return schema.TypeTimestamp
	case "datetimeoffset":
		return mssqlDateTimeOffset
	case "binary", "timestamp", "rowversion":
		return schema.TypeBinary
	case "varbinary":
		return schema.TypeVarBinary
	case "image":
		return schema.TypeLongVarBinary
	default:
		return schema.TypeOther
	}
}

func (d *MSSQLDialect) MetadataQuery() string { return "" }

func (d *MSSQLDialect) BindPatterns(string, string) []any { return nil }
