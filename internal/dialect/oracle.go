package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"dbmd-fetch/internal/schema"
)

// OracleDialect reads the ALL_* dictionary views. Without a schema filter it covers the
// session's current schema only.
type OracleDialect struct{}

var oracleKinds = map[schema.RelType][]string{
	schema.RelTypeTable: {"TABLE"},
	schema.RelTypeView:  {"VIEW"},
}

const oracleCurrentSchema = "SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')"

// Vendor codes the Oracle JDBC driver reports outside java.sql.Types.
const (
	oracleTimestampTZ    = -101
	oracleTimestampLTZ   = -102
	oracleIntervalYM     = -103
	oracleIntervalDS     = -104
	oracleBinaryFloat    = 100
	oracleBinaryDouble   = 101
	oracleBFile          = -13
	oracleOwnerSeparator = "."
)

func (d *OracleDialect) Tag() string           { return "ora" }
func (d *OracleDialect) DefaultDriver() string { return "oracle" }

func (d *OracleDialect) Placeholder(index int) string {
	return fmt.Sprintf(":%d", index+1)
}

func (d *OracleDialect) IdentifierStorage(context.Context, *sql.DB) (schema.IdentifierStorage, error) {
	return staticStorage(false, true, false), nil
}

func (d *OracleDialect) ownedBy(q *queryBuilder, col string, schemaName *string) *queryBuilder {
	if schemaName == nil {
		return q.where(col + " = " + oracleCurrentSchema)
	}
	return q.bind(col+" = %s", *schemaName)
}

func (d *OracleDialect) RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any) {
	q := newQuery(d.Placeholder).
		where("o.OBJECT_TYPE IN " + inList(kinds, oracleKinds)).
		where("o.SECONDARY = 'N'").
		where("o.OBJECT_NAME NOT LIKE 'BIN$%'")
	d.ownedBy(q, "o.OWNER", schemaName)
	return q.build(`SELECT o.OWNER, o.OBJECT_NAME, o.OBJECT_TYPE, c.COMMENTS
FROM ALL_OBJECTS o
LEFT JOIN ALL_TAB_COMMENTS c ON c.OWNER = o.OWNER AND c.TABLE_NAME = o.OBJECT_NAME`, "o.OWNER, o.OBJECT_NAME")
}

func (d *OracleDialect) ColumnsQuery(schemaName *string) (string, []any) {
	// User-defined types are qualified with their owner (SYS.XMLTYPE).
	q := newQuery(d.Placeholder).where("t.TABLE_NAME NOT LIKE 'BIN$%'")
	d.ownedBy(q, "t.OWNER", schemaName)
	return q.build(`SELECT
    t.OWNER,
    t.TABLE_NAME,
    t.COLUMN_NAME,
    NVL2(t.DATA_TYPE_OWNER, t.DATA_TYPE_OWNER || '.', '') || t.DATA_TYPE,
    CASE
        WHEN t.DATA_PRECISION IS NOT NULL THEN t.DATA_PRECISION
        WHEN t.CHAR_LENGTH > 0 THEN t.CHAR_LENGTH
        ELSE t.DATA_LENGTH
    END,
    t.NULLABLE,
    t.DATA_SCALE,
    CASE WHEN t.DATA_PRECISION IS NOT NULL THEN 10 END,
    c.COMMENTS
FROM ALL_TAB_COLUMNS t
LEFT JOIN ALL_COL_COMMENTS c
    ON c.OWNER = t.OWNER AND c.TABLE_NAME = t.TABLE_NAME AND c.COLUMN_NAME = t.COLUMN_NAME`,
		"t.OWNER, t.TABLE_NAME, t.COLUMN_ID")
}

func (d *OracleDialect) PrimaryKeysQuery(rel schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("c.CONSTRAINT_TYPE = 'P'").
		bind("c.OWNER = %s", rel.SchemaName()).
		bind("c.TABLE_NAME = %s", rel.Name).
		build(`SELECT cc.COLUMN_NAME, cc.POSITION
FROM ALL_CONSTRAINTS c
JOIN ALL_CONS_COLUMNS cc ON cc.OWNER = c.OWNER AND cc.CONSTRAINT_NAME = c.CONSTRAINT_NAME`, "cc.POSITION")
}

func (d *OracleDialect) ImportedKeysQuery(table schema.RelId) (string, []any) {
	return newQuery(d.Placeholder).
		where("c.CONSTRAINT_TYPE = 'R'").
		bind("c.OWNER = %s", table.SchemaName()).
		bind("c.TABLE_NAME = %s", table.Name).
		build(`SELECT
    c.CONSTRAINT_NAME,
    cc.POSITION,
    cc.COLUMN_NAME,
    r.OWNER,
    r.TABLE_NAME,
    rcc.COLUMN_NAME
FROM ALL_CONSTRAINTS c
JOIN ALL_CONS_COLUMNS cc
    ON cc.OWNER = c.OWNER
    AND cc.CONSTRAINT_NAME = c.CONSTRAINT_NAME
JOIN ALL_CONSTRAINTS r
    ON r.OWNER = c.R_OWNER
    AND r.CONSTRAINT_NAME = c.R_CONSTRAINT_NAME
JOIN ALL_CONS_COLUMNS rcc
    ON rcc.OWNER = r.OWNER
    AND rcc.CONSTRAINT_NAME = r.CONSTRAINT_NAME
    AND rcc.POSITION = cc.POSITION`, "r.OWNER, r.TABLE_NAME, c.CONSTRAINT_NAME, cc.POSITION")
}

func (d *OracleDialect) ProductQuery() string {
	return `SELECT 'Oracle', VERSION FROM PRODUCT_COMPONENT_VERSION WHERE PRODUCT LIKE 'Oracle%' AND ROWNUM = 1`
}

func (d *OracleDialect) TypeCode(nativeType string) int {
	t := baseTypeName(nativeType)
	if i := strings.LastIndex(t, oracleOwnerSeparator); i >= 0 {
		t = t[i+1:]
	}
	switch t {
	case "number":
		return schema.TypeDecimal
	case "float":
		return schema.TypeFloat
	case "binary_float":
		return oracleBinaryFloat
	case "binary_double":
		return oracleBinaryDouble
	case "char":
		return schema.TypeChar
	case "varchar2", "varchar":
		return schema.TypeVarchar
	case "nchar":
		return schema.TypeNChar
	case "nvarchar2":
		return schema.TypeNVarchar
	case "long":
		return schema.TypeLongVarchar
	case "date", "timestamp":
		// The driver maps DATE to TIMESTAMP since DATE carries a time part.
		return schema.TypeTimestamp
	case "timestamp with time zone":
		return oracleTimestampTZ
	case "timestamp with local time zone":
		return oracleTimestampLTZ
	case "interval year to month":
		return oracleIntervalYM
	case "interval day to second":
		return oracleIntervalDS
	case "raw":
		return schema.TypeVarBinary
	case "long raw":
		return schema.TypeLongVarBinary
	case "blob":
		return schema.TypeBlob
	case "clob":
		return schema.TypeClob
	case "nclob":
		return schema.TypeNClob
	case "bfile":
		return oracleBFile
	case "rowid", "urowid":
		return schema.TypeRowId
	case "xmltype":
		return schema.TypeOracleOpaque
	default:
		return schema.TypeOther
	}
}

func (d *OracleDialect) MetadataQuery() string { return "" }

func (d *OracleDialect) BindPatterns(string, string) []any { return nil }
