package dialect

import (
	"context"
	"database/sql"

	"dbmd-fetch/internal/schema"
)

// Dialect abstracts database-specific metadata queries.
type Dialect interface {
	// Tag is the database type name accepted on the command line (pg, mysql, ...).
	Tag() string
	// DefaultDriver is the database/sql driver used when the connection properties name none.
	DefaultDriver() string
	Placeholder(index int) string // Returns ?, $1, @p1, :1

	// Identifier storage may need a round trip (MySQL), so it gets the connection.
	IdentifierStorage(ctx context.Context, db *sql.DB) (schema.IdentifierStorage, error)

	// Metadata Queries (Schema Introspection)
	// Each returns the SQL text and its bind arguments.
	RelationsQuery(schemaName *string, kinds []schema.RelType) (string, []any)
	ColumnsQuery(schemaName *string) (string, []any)
	PrimaryKeysQuery(rel schema.RelId) (string, []any)
	ImportedKeysQuery(table schema.RelId) (string, []any)
	// ProductQuery yields one row: product name, version string.
	ProductQuery() string

	// TypeCode maps a native type name to the type code the vendor's JDBC driver reports.
	TypeCode(nativeType string) int

	// MetadataQuery is a predefined query producing the whole metadata document as one JSON
	// value, with include/exclude pattern placeholders bound by BindPatterns. Empty when the
	// dialect has none.
	MetadataQuery() string
	BindPatterns(include, exclude string) []any
}
