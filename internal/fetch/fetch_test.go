package fetch_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/fetch"
	"dbmd-fetch/internal/schema"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgDocument = `{
  "dbmsName": "PostgreSQL",
  "dbmsVersion": "16.2",
  "majorVersion": 16,
  "minorVersion": 2,
  "caseSensitivity": "INSENSITIVE_STORED_LOWER",
  "relationMetadatas": [
    {
      "relationId": {"name": "orders", "schema": "public"},
      "relationType": "table",
      "fields": [
        {"name": "id", "databaseType": "int4", "jdbcTypeCode": 4, "nullable": false, "primaryKeyPartNumber": 1,
         "length": null, "precision": 32, "precisionRadix": 2, "fractionalDigits": 0, "comment": null}
      ],
      "comment": null
    }
  ],
  "foreignKeys": []
}`

func mustDialect(t *testing.T, tag string) dialect.Dialect {
	t.Helper()
	d, err := dialect.GetDialect(tag)
	require.NoError(t, err)
	return d
}

func TestNew_SelectsStrategy(t *testing.T) {
	pg := mustDialect(t, "pg")

	f, err := fetch.New(pg, false, fetch.Filter{}, schema.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.IsType(t, &fetch.QueryFetcher{}, f)

	f, err = fetch.New(pg, true, fetch.Filter{}, schema.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.IsType(t, &fetch.Introspector{}, f)

	// a schema filter is not something the predefined query understands
	opts := schema.DefaultOptions()
	name := "sales"
	opts.Schema = &name
	f, err = fetch.New(pg, false, fetch.Filter{}, opts, nil)
	require.NoError(t, err)
	assert.IsType(t, &fetch.Introspector{}, f)

	f, err = fetch.New(mustDialect(t, "ora"), false, fetch.Filter{}, schema.DefaultOptions(), nil)
	require.NoError(t, err)
	assert.IsType(t, &fetch.Introspector{}, f)
}

func TestNew_RejectsBadPatterns(t *testing.T) {
	for _, generic := range []bool{false, true} {
		_, err := fetch.New(mustDialect(t, "pg"), generic, fetch.Filter{Include: "orders[", Exclude: ""}, schema.DefaultOptions(), nil)
		var perr *schema.PatternError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, "include", perr.Which)
	}
}

func TestQueryFetcher_Fetch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("'caseSensitivity', 'INSENSITIVE_STORED_LOWER'")).
		WithArgs("order.*", "^$").
		WillReturnRows(sqlmock.NewRows([]string{"json"}).AddRow(pgDocument))

	f, err := fetch.NewQueryFetcher(mustDialect(t, "pg"), fetch.Filter{Include: "  order.*  "}, nil)
	require.NoError(t, err)

	md, err := f.Fetch(context.Background(), db)
	require.NoError(t, err)

	assert.Equal(t, "PostgreSQL", md.DbmsName)
	require.Len(t, md.RelationMetadatas, 1)
	assert.Equal(t, "public.orders", md.RelationMetadatas[0].RelationId.String())
	assert.Equal(t, 1, *md.RelationMetadatas[0].Fields[0].PrimaryKeyPartNumber)
	assert.NotNil(t, md.ForeignKeys)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryFetcher_BadResults(t *testing.T) {
	tests := []struct {
		name string
		rows *sqlmock.Rows
		want string
	}{
		{"two columns", sqlmock.NewRows([]string{"a", "b"}).AddRow("{}", "{}"), "exactly one column"},
		{"no rows", sqlmock.NewRows([]string{"json"}), "no rows"},
		{"null document", sqlmock.NewRows([]string{"json"}).AddRow(nil), "null document"},
		{"not json", sqlmock.NewRows([]string{"json"}).AddRow("<xml/>"), "decode metadata json"},
		{"bad case sensitivity", sqlmock.NewRows([]string{"json"}).AddRow(`{"caseSensitivity":"x"}`), "case sensitivity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()
			mock.ExpectQuery(".*").WillReturnRows(tt.rows)

			f, err := fetch.NewQueryFetcher(mustDialect(t, "mysql"), fetch.Filter{}, nil)
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), db)
			var serr *schema.SourceError
			require.ErrorAs(t, err, &serr)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestQueryFetcher_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	boom := errors.New("function regexp_like does not exist")
	mock.ExpectQuery(".*").WillReturnError(boom)

	f, err := fetch.NewQueryFetcher(mustDialect(t, "mysql"), fetch.Filter{}, nil)
	require.NoError(t, err)

	_, err = f.Fetch(context.Background(), db)
	assert.ErrorIs(t, err, boom)
}

func TestNewQueryFetcher_RequiresPredefinedQuery(t *testing.T) {
	_, err := fetch.NewQueryFetcher(mustDialect(t, "mssql"), fetch.Filter{}, nil)
	assert.ErrorIs(t, err, schema.ErrConfig)
}

func TestIntrospector_Fetch(t *testing.T) {
	db, err := sql.Open("sqlite3", "file:introspector?mode=memory&cache=shared")
	require.NoError(t, err)
	defer db.Close()
	_, err = db.Exec(`
CREATE TABLE region (code TEXT PRIMARY KEY, label TEXT);
CREATE TABLE store (id INTEGER PRIMARY KEY, region_code TEXT REFERENCES region (code));
CREATE TABLE store_archive (id INTEGER PRIMARY KEY);`)
	require.NoError(t, err)

	f, err := fetch.New(mustDialect(t, "sqlite"), false, fetch.Filter{Exclude: " .*_archive "}, schema.DefaultOptions(), nil)
	require.NoError(t, err)

	md, err := f.Fetch(context.Background(), db)
	require.NoError(t, err)

	require.Len(t, md.RelationMetadatas, 2)
	assert.Equal(t, "region", md.RelationMetadatas[0].RelationId.Name)
	assert.Equal(t, "store", md.RelationMetadatas[1].RelationId.Name)
	require.Len(t, md.ForeignKeys, 1)
	assert.Equal(t, "code", md.ForeignKeys[0].Components[0].PrimaryKeyFieldName)
}
