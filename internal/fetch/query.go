package fetch

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/schema"
)

// QueryFetcher runs a dialect's predefined query, which builds the whole document inside the
// database and returns it as a single JSON value.
type QueryFetcher struct {
	d      dialect.Dialect
	filter Filter
	log    *zap.Logger
}

// NewQueryFetcher checks that the filter expressions compile, so a typo fails the same way it
// would under introspection, and fills in the defaults the query expects.
func NewQueryFetcher(d dialect.Dialect, f Filter, logger *zap.Logger) (*QueryFetcher, error) {
	if d.MetadataQuery() == "" {
		return nil, fmt.Errorf("%w: database type %q has no predefined metadata query", schema.ErrConfig, d.Tag())
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f = f.trimmed()
	if _, err := schema.CompilePattern("include", f.Include); err != nil {
		return nil, err
	}
	if _, err := schema.CompilePattern("exclude", f.Exclude); err != nil {
		return nil, err
	}
	if f.Include == "" {
		f.Include = ".*"
	}
	if f.Exclude == "" {
		f.Exclude = "^$"
	}
	return &QueryFetcher{d: d, filter: f, log: logger}, nil
}

func (q *QueryFetcher) Fetch(ctx context.Context, db *sql.DB) (*schema.StoredDatabaseMetadata, error) {
	start := time.Now()
	q.log.Info("fetching metadata with predefined query",
		zap.String("dbType", q.d.Tag()),
		zap.String("include", q.filter.Include),
		zap.String("exclude", q.filter.Exclude),
	)

	doc, err := q.queryDocument(ctx, db)
	if err != nil {
		return nil, &schema.SourceError{Op: "predefined metadata query", Err: err}
	}

	md, err := schema.Decode(strings.NewReader(doc), schema.FormatJSON)
	if err != nil {
		return nil, &schema.SourceError{Op: "predefined metadata query", Err: err}
	}

	q.log.Info("metadata fetched",
		zap.Int("relations", len(md.RelationMetadatas)),
		zap.Int("foreignKeys", len(md.ForeignKeys)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return md, nil
}

func (q *QueryFetcher) queryDocument(ctx context.Context, db *sql.DB) (string, error) {
	rows, err := db.QueryContext(ctx, q.d.MetadataQuery(), q.d.BindPatterns(q.filter.Include, q.filter.Exclude)...)
	if err != nil {
		return "", fmt.Errorf("failed to run metadata query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}
	if len(cols) != 1 {
		return "", fmt.Errorf("expected exactly one column in result, got %d instead", len(cols))
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", err
		}
		return "", fmt.Errorf("metadata query returned no rows")
	}

	var doc sql.NullString
	if err := rows.Scan(&doc); err != nil {
		return "", fmt.Errorf("failed to read metadata document: %w", err)
	}
	if !doc.Valid {
		return "", fmt.Errorf("metadata query returned a null document")
	}
	if rows.Next() {
		return "", fmt.Errorf("metadata query returned more than one row")
	}
	return doc.String, rows.Err()
}
