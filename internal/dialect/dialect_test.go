package dialect_test

import (
	"strings"
	"testing"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(v string) *string { return &v }

func mustDialect(t *testing.T, tag string) dialect.Dialect {
	t.Helper()
	d, err := dialect.GetDialect(tag)
	require.NoError(t, err)
	return d
}

func TestGetDialect(t *testing.T) {
	for _, tag := range []string{"pg", "mysql", "mssql", "ora", "sqlite"} {
		d := mustDialect(t, tag)
		assert.Equal(t, tag, d.Tag())
		assert.NotEmpty(t, d.DefaultDriver())
	}

	d, err := dialect.GetDialect(" PG ")
	require.NoError(t, err)
	assert.Equal(t, "pg", d.Tag())

	_, err = dialect.GetDialect("db2")
	assert.ErrorIs(t, err, schema.ErrConfig)
	assert.ErrorContains(t, err, "mssql, mysql, ora, pg, sqlite")
}

func TestPlaceholders(t *testing.T) {
	tests := map[string]string{"pg": "$1, $2", "mysql": "?, ?", "mssql": "@p1, @p2", "ora": ":1, :2", "sqlite": "?, ?"}
	for tag, want := range tests {
		d := mustDialect(t, tag)
		assert.Equal(t, want, dialect.GeneratePlaceholders(2, d.Placeholder), tag)
	}
}

func TestRelationsQuery_SchemaFilterAndKinds(t *testing.T) {
	pg := mustDialect(t, "pg")

	q, args := pg.RelationsQuery(nil, []schema.RelType{schema.RelTypeTable})
	assert.Empty(t, args)
	assert.Contains(t, q, "t.table_type IN ('BASE TABLE', 'FOREIGN')")
	assert.NotContains(t, q, "'VIEW'")
	assert.NotContains(t, q, "$1")

	q, args = pg.RelationsQuery(strp("sales"), []schema.RelType{schema.RelTypeTable, schema.RelTypeView})
	assert.Equal(t, []any{"sales"}, args)
	assert.Contains(t, q, "'VIEW'")
	assert.Contains(t, q, "t.table_schema = $1")
	assert.True(t, strings.HasSuffix(q, "ORDER BY t.table_schema, t.table_name"))
}

func TestRelationsQuery_KindLists(t *testing.T) {
	both := []schema.RelType{schema.RelTypeTable, schema.RelTypeView}
	for tag, want := range map[string]string{
		"mysql":  "TABLE_TYPE IN ('BASE TABLE', 'VIEW', 'SYSTEM VIEW')",
		"mssql":  "t.TABLE_TYPE IN ('BASE TABLE', 'VIEW')",
		"ora":    "o.OBJECT_TYPE IN ('TABLE', 'VIEW')",
		"sqlite": "m.type IN ('table', 'view')",
	} {
		q, _ := mustDialect(t, tag).RelationsQuery(nil, both)
		assert.Contains(t, q, want, tag)
	}
}

func TestColumnsQuery_OrderedByRelation(t *testing.T) {
	// grouping relies on every relation's columns being contiguous
	for tag, order := range map[string]string{
		"pg":     "ORDER BY c.table_schema, c.table_name, c.ordinal_position",
		"mysql":  "ORDER BY TABLE_NAME, ORDINAL_POSITION",
		"mssql":  "ORDER BY c.TABLE_SCHEMA, c.TABLE_NAME, c.ORDINAL_POSITION",
		"ora":    "ORDER BY t.OWNER, t.TABLE_NAME, t.COLUMN_ID",
		"sqlite": "ORDER BY m.name, p.cid",
	} {
		q, _ := mustDialect(t, tag).ColumnsQuery(nil)
		assert.True(t, strings.HasSuffix(q, order), "%s: %s", tag, q)
	}
}

func TestOracle_DefaultsToCurrentSchema(t *testing.T) {
	ora := mustDialect(t, "ora")

	q, args := ora.ColumnsQuery(nil)
	assert.Empty(t, args)
	assert.Contains(t, q, "t.OWNER = SYS_CONTEXT('USERENV', 'CURRENT_SCHEMA')")

	q, args = ora.ColumnsQuery(strp("HR"))
	assert.Equal(t, []any{"HR"}, args)
	assert.Contains(t, q, "t.OWNER = :1")
}

func TestKeyQueries_BindRelationId(t *testing.T) {
	orders := schema.NewRelId("dbo", "orders")

	q, args := mustDialect(t, "mssql").PrimaryKeysQuery(orders)
	assert.Equal(t, []any{"dbo", "orders"}, args)
	assert.Contains(t, q, "tc.TABLE_SCHEMA = @p1")
	assert.Contains(t, q, "tc.TABLE_NAME = @p2")

	_, args = mustDialect(t, "mssql").ImportedKeysQuery(orders)
	assert.Equal(t, []any{"dbo", "orders"}, args)

	// schemaless dialects bind the name only
	_, args = mustDialect(t, "mysql").PrimaryKeysQuery(schema.NewRelId("", "orders"))
	assert.Equal(t, []any{"orders"}, args)
	_, args = mustDialect(t, "sqlite").ImportedKeysQuery(schema.NewRelId("", "orders"))
	assert.Equal(t, []any{"orders"}, args)
}

func TestTypeCode(t *testing.T) {
	tests := []struct {
		tag    string
		native string
		want   int
	}{
		{"pg", "int4", schema.TypeInteger},
		{"pg", "int8", schema.TypeBigInt},
		{"pg", "varchar", schema.TypeVarchar},
		{"pg", "bpchar", schema.TypeChar},
		{"pg", "numeric", schema.TypeNumeric},
		{"pg", "bool", schema.TypeBit},
		{"pg", "timestamptz", schema.TypeTimestamp},
		{"pg", "_int4", schema.TypeArray},
		{"pg", "uuid", schema.TypeOther},
		{"mysql", "int", schema.TypeInteger},
		{"mysql", "decimal", schema.TypeDecimal},
		{"mysql", "longtext", schema.TypeLongVarchar},
		{"mysql", "datetime", schema.TypeTimestamp},
		{"mssql", "nvarchar", schema.TypeNVarchar},
		{"mssql", "datetime2", schema.TypeTimestamp},
		{"mssql", "float", schema.TypeDouble},
		{"ora", "NUMBER", schema.TypeDecimal},
		{"ora", "VARCHAR2", schema.TypeVarchar},
		{"ora", "DATE", schema.TypeTimestamp},
		{"ora", "TIMESTAMP(6)", schema.TypeTimestamp},
		{"ora", "SYS.XMLTYPE", schema.TypeOracleOpaque},
		{"ora", "INTERVAL DAY(2) TO SECOND(6)", -104},
		{"sqlite", "VARCHAR(40)", schema.TypeVarchar},
		{"sqlite", "INTEGER", schema.TypeInteger},
		{"sqlite", "NUMERIC(10,2)", schema.TypeNumeric},
		{"sqlite", "DATE", schema.TypeDate},
		{"sqlite", "", schema.TypeBlob},
		{"sqlite", "DOUBLE PRECISION", schema.TypeDouble},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, mustDialect(t, tt.tag).TypeCode(tt.native), "%s %s", tt.tag, tt.native)
	}
}

func TestMetadataQuery(t *testing.T) {
	for _, tag := range []string{"pg", "mysql"} {
		d := mustDialect(t, tag)
		assert.NotEmpty(t, d.MetadataQuery(), tag)
		assert.Equal(t, []any{"order.*", ""}, d.BindPatterns("order.*", ""), tag)
	}
	for _, tag := range []string{"mssql", "ora", "sqlite"} {
		assert.Empty(t, mustDialect(t, tag).MetadataQuery(), tag)
	}

	assert.Contains(t, mustDialect(t, "pg").MetadataQuery(), "$2")
	assert.Equal(t, 2, strings.Count(mustDialect(t, "mysql").MetadataQuery(), "concat('^(?:', ?, ')$')"))
}
