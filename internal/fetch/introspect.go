package fetch

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"dbmd-fetch/internal/dialect"
	"dbmd-fetch/internal/schema"
)

// Introspector runs the generic extraction over the dialect's catalog queries.
type Introspector struct {
	d    dialect.Dialect
	opts schema.Options
	log  *zap.Logger
}

// NewIntrospector compiles the filter into opts. Invalid expressions are reported as
// *schema.PatternError before anything touches the database.
func NewIntrospector(d dialect.Dialect, f Filter, opts schema.Options, logger *zap.Logger) (*Introspector, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	f = f.trimmed()

	var err error
	if opts.Include, err = schema.CompilePattern("include", f.Include); err != nil {
		return nil, err
	}
	if opts.Exclude, err = schema.CompilePattern("exclude", f.Exclude); err != nil {
		return nil, err
	}
	return &Introspector{d: d, opts: opts, log: logger}, nil
}

func (i *Introspector) Fetch(ctx context.Context, db *sql.DB) (*schema.StoredDatabaseMetadata, error) {
	start := time.Now()
	i.log.Info("fetching metadata by introspection", zap.String("dbType", i.d.Tag()))

	src := dialect.NewSource(db, i.d, i.log)
	md, err := schema.NewExtractor(src, i.opts, i.log).Extract(ctx)
	if err != nil {
		return nil, err
	}

	i.log.Info("metadata fetched",
		zap.Int("relations", len(md.RelationMetadatas)),
		zap.Int("foreignKeys", len(md.ForeignKeys)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return md, nil
}
