package fetch

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/schema"
)

// Filter holds the relation include/exclude expressions as given by the user. An empty
// Include selects every relation; an empty Exclude rejects none.
type Filter struct {
	Include string
	Exclude string
}

func (f Filter) trimmed() Filter {
	return Filter{Include: strings.TrimSpace(f.Include), Exclude: strings.TrimSpace(f.Exclude)}
}

// Fetcher produces the metadata document of the database behind db.
type Fetcher interface {
	Fetch(ctx context.Context, db *sql.DB) (*schema.StoredDatabaseMetadata, error)
}

// New picks the predefined-query strategy when the dialect has one, the caller did not ask
// for generic introspection, and the options are ones the predefined query honours. Otherwise
// the generic introspector is used.
func New(d dialect.Dialect, useGeneric bool, f Filter, opts schema.Options, logger *zap.Logger) (Fetcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if !useGeneric && d.MetadataQuery() != "" {
		if predefinedQueryCovers(opts) {
			return NewQueryFetcher(d, f, logger)
		}
		logger.Info("options need generic introspection, predefined query not used",
			zap.String("dbType", d.Tag()))
	}
	return NewIntrospector(d, f, opts, logger)
}

func predefinedQueryCovers(opts schema.Options) bool {
	return opts.Schema == nil &&
		opts.IncludeViews &&
		opts.IncludeForeignKeys &&
		opts.DateMapping == schema.DatesAsDriverReported
}
