package schema_test

import (
	"context"
	"errors"

	"dbmd-fetch/internal/schema"
)

type sliceCursor[T any] struct {
	rows   []T
	pos    int
	failAt int // index whose Next fails; -1 never
	err    error
	closed *int
}

func newCursor[T any](rows []T, closed *int) *sliceCursor[T] {
	return &sliceCursor[T]{rows: rows, pos: -1, failAt: -1, closed: closed}
}

func (c *sliceCursor[T]) Next() bool {
	c.pos++
	if c.failAt >= 0 && c.pos == c.failAt {
		c.err = errors.New("connection reset")
		return false
	}
	return c.pos < len(c.rows)
}

func (c *sliceCursor[T]) Row() T { return c.rows[c.pos] }
func (c *sliceCursor[T]) Err() error { return c.err }
func (c *sliceCursor[T]) Close() error {
	if c.closed != nil {
		*c.closed++
	}
	return nil
}

// fakeSource serves canned rows and counts how many cursors were opened and closed.
type fakeSource struct {
	storage      schema.IdentifierStorage
	relations    []schema.RelationRow
	columns      []schema.ColumnRow
	primaryKeys  map[string][]schema.PrimaryKeyRow
	importedKeys map[string][]schema.ImportedKeyRow
	product      schema.ProductInfo

	failImportedKeysOf string
	gotSchema          *string
	gotKinds           []schema.RelType
	importedKeyCalls   []string

	opened int
	closed int
}

func (s *fakeSource) IdentifierStorage(context.Context) (schema.IdentifierStorage, error) {
	return s.storage, nil
}

func (s *fakeSource) Relations(_ context.Context, schemaName *string, kinds []schema.RelType) (schema.Cursor[schema.RelationRow], error) {
	s.gotSchema = schemaName
	s.gotKinds = kinds
	var rows []schema.RelationRow
	for _, r := range s.relations {
		for _, k := range kinds {
			if r.Kind == k {
				rows = append(rows, r)
			}
		}
	}
	s.opened++
	return newCursor(rows, &s.closed), nil
}

func (s *fakeSource) Columns(context.Context, *string) (schema.Cursor[schema.ColumnRow], error) {
	s.opened++
	return newCursor(s.columns, &s.closed), nil
}

func (s *fakeSource) PrimaryKeys(_ context.Context, rel schema.RelId) (schema.Cursor[schema.PrimaryKeyRow], error) {
	s.opened++
	return newCursor(s.primaryKeys[rel.String()], &s.closed), nil
}

func (s *fakeSource) ImportedKeys(_ context.Context, table schema.RelId) (schema.Cursor[schema.ImportedKeyRow], error) {
	s.importedKeyCalls = append(s.importedKeyCalls, table.String())
	s.opened++
	c := newCursor(s.importedKeys[table.String()], &s.closed)
	if table.String() == s.failImportedKeysOf {
		c.failAt = 1
	}
	return c, nil
}

func (s *fakeSource) Product(context.Context) (schema.ProductInfo, error) {
	return s.product, nil
}

func intp(v int) *int { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool { return &v }
