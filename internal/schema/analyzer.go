package schema

import (
	"context"
	"regexp"

	"go.uber.org/zap"
)

// Options control one extraction run.
type Options struct {
	// Schema limits extraction to one schema; it is case-normalized before use.
	Schema *string

	IncludeViews       bool
	IncludeForeignKeys bool

	Include *regexp.Regexp
	Exclude *regexp.Regexp

	DateMapping DateMapping

	// Progress, when set, is called after each table's foreign keys have been read.
	Progress func(done, total int)
}

// DefaultOptions includes views and foreign keys for all schemas.
func DefaultOptions() Options {
	return Options{IncludeViews: true, IncludeForeignKeys: true}
}

type Extractor struct {
	src  Source
	opts Options
	log  *zap.Logger
}

func NewExtractor(src Source, opts Options, logger *zap.Logger) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{src: src, opts: opts, log: logger}
}

// Extract is shorthand for NewExtractor(src, opts, nil).Extract(ctx).
func Extract(ctx context.Context, src Source, opts Options) (*StoredDatabaseMetadata, error) {
	return NewExtractor(src, opts, nil).Extract(ctx)
}

// ---------------------------------------------------------------------
// Pipeline
// ---------------------------------------------------------------------

// Extract reads the whole metadata document from the source. Any source failure aborts the
// run; no partial document is returned.
func (e *Extractor) Extract(ctx context.Context) (*StoredDatabaseMetadata, error) {
	// 1. Case sensitivity and schema filter
	storage, err := e.src.IdentifierStorage(ctx)
	if err != nil {
		return nil, sourceErr("identifier storage", err)
	}
	cs := DetectCaseSensitivity(storage)

	var schemaFilter *string
	if e.opts.Schema != nil {
		schemaFilter = ptr(NormalizeIdentifier(*e.opts.Schema, cs))
	}
	e.log.Debug("detected case sensitivity", zap.String("caseSensitivity", string(cs)))

	// 2. Authoritative relation set
	rels, err := e.relations(ctx, schemaFilter)
	if err != nil {
		return nil, err
	}
	e.log.Info("relations selected", zap.Int("count", rels.Len()))

	// 3 & 4. Columns grouped per relation, with primary keys
	relMds, err := e.relationMetadatas(ctx, schemaFilter, rels)
	if err != nil {
		return nil, err
	}

	// 5. Foreign keys
	fks := []ForeignKey{}
	if e.opts.IncludeForeignKeys {
		if fks, err = e.foreignKeys(ctx, rels); err != nil {
			return nil, err
		}
	}

	// 6. Product and assembly
	product, err := e.src.Product(ctx)
	if err != nil {
		return nil, sourceErr("product info", err)
	}

	return &StoredDatabaseMetadata{
		DbmsName:          product.Name,
		DbmsVersion:       product.Version,
		MajorVersion:      product.MajorVersion,
		MinorVersion:      product.MinorVersion,
		CaseSensitivity:   cs,
		RelationMetadatas: relMds,
		ForeignKeys:       fks,
	}, nil
}

func (e *Extractor) relations(ctx context.Context, schemaFilter *string) (*RelationSet, error) {
	kinds := []RelType{RelTypeTable}
	if e.opts.IncludeViews {
		kinds = append(kinds, RelTypeView)
	}

	cur, err := e.src.Relations(ctx, schemaFilter, kinds)
	if err != nil {
		return nil, sourceErr("relations", err)
	}
	rels, err := CollectRelations(cur, e.opts.Include, e.opts.Exclude)
	if err != nil {
		return nil, sourceErr("relations", err)
	}
	return rels, nil
}

func (e *Extractor) relationMetadatas(ctx context.Context, schemaFilter *string, rels *RelationSet) ([]RelMetadata, error) {
	pkLookup := func(rel RelId) (map[string]int, error) {
		cur, err := e.src.PrimaryKeys(ctx, rel)
		if err != nil {
			return nil, sourceErr("primary keys of "+rel.String(), err)
		}
		parts, err := IndexPrimaryKeys(cur)
		if err != nil {
			return nil, sourceErr("primary keys of "+rel.String(), err)
		}
		return parts, nil
	}

	cur, err := e.src.Columns(ctx, schemaFilter)
	if err != nil {
		return nil, sourceErr("columns", err)
	}

	grouper := NewRelationGrouper(rels, pkLookup, e.opts.DateMapping)
	if err := drain(cur, grouper.Add); err != nil {
		return nil, sourceErr("columns", err)
	}

	relMds := grouper.Finish()
	e.log.Info("relation metadata assembled", zap.Int("count", len(relMds)))
	return relMds, nil
}

func (e *Extractor) foreignKeys(ctx context.Context, rels *RelationSet) ([]ForeignKey, error) {
	tables := rels.Tables()
	asm := NewForeignKeyAssembler(rels)

	for i, table := range tables {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		cur, err := e.src.ImportedKeys(ctx, table)
		if err != nil {
			return nil, sourceErr("imported keys of "+table.String(), err)
		}

		asm.Begin(table)
		if err := drain(cur, asm.Add); err != nil {
			return nil, sourceErr("imported keys of "+table.String(), err)
		}
		asm.End()

		if e.opts.Progress != nil {
			e.opts.Progress(i+1, len(tables))
		}
	}

	for _, fk := range asm.Dropped() {
		e.log.Debug("dropped foreign key to excluded relation", zap.Stringer("foreignKey", &fk))
	}
	e.log.Info("foreign keys assembled",
		zap.Int("count", len(asm.ForeignKeys())),
		zap.Int("dropped", len(asm.Dropped())),
	)
	return asm.ForeignKeys(), nil
}
