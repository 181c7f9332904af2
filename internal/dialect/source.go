package dialect

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"dbmd-fetch/internal/schema"
)

// Source serves metadata cursors from a database/sql connection using a Dialect's queries.
// It borrows db; closing it is the caller's job.
type Source struct {
	db  *sql.DB
	d   Dialect
	log *zap.Logger
}

var _ schema.Source = (*Source)(nil)

func NewSource(db *sql.DB, d Dialect, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{db: db, d: d, log: logger}
}

func (s *Source) IdentifierStorage(ctx context.Context) (schema.IdentifierStorage, error) {
	return s.d.IdentifierStorage(ctx, s.db)
}

func (s *Source) Relations(ctx context.Context, schemaName *string, kinds []schema.RelType) (schema.Cursor[schema.RelationRow], error) {
	q, args := s.d.RelationsQuery(schemaName, kinds)
	return openCursor(ctx, s, q, args, scanRelation)
}

func (s *Source) Columns(ctx context.Context, schemaName *string) (schema.Cursor[schema.ColumnRow], error) {
	q, args := s.d.ColumnsQuery(schemaName)
	return openCursor(ctx, s, q, args, s.scanColumn)
}

func (s *Source) PrimaryKeys(ctx context.Context, rel schema.RelId) (schema.Cursor[schema.PrimaryKeyRow], error) {
	q, args := s.d.PrimaryKeysQuery(rel)
	return openCursor(ctx, s, q, args, scanPrimaryKey)
}

func (s *Source) ImportedKeys(ctx context.Context, table schema.RelId) (schema.Cursor[schema.ImportedKeyRow], error) {
	q, args := s.d.ImportedKeysQuery(table)
	return openCursor(ctx, s, q, args, scanImportedKey)
}

func (s *Source) Product(ctx context.Context) (schema.ProductInfo, error) {
	var info schema.ProductInfo
	if err := s.db.QueryRowContext(ctx, s.d.ProductQuery()).Scan(&info.Name, &info.Version); err != nil {
		return info, fmt.Errorf("failed to query product version: %w", err)
	}
	info.MajorVersion, info.MinorVersion = parseVersion(info.Version)
	return info, nil
}

// ---------------------------------------------------------------------
// Cursors
// ---------------------------------------------------------------------

type rowsCursor[T any] struct {
	rows *sql.Rows
	scan func(*sql.Rows) (T, error)
	row  T
	err  error
}

func openCursor[T any](ctx context.Context, s *Source, query string, args []any, scan func(*sql.Rows) (T, error)) (schema.Cursor[T], error) {
	s.log.Debug("metadata query", zap.String("sql", query), zap.Any("args", args))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query metadata: %w", err)
	}
	return &rowsCursor[T]{rows: rows, scan: scan}, nil
}

func (c *rowsCursor[T]) Next() bool {
	if c.err != nil || !c.rows.Next() {
		return false
	}
	row, err := c.scan(c.rows)
	if err != nil {
		c.err = fmt.Errorf("failed to scan metadata row: %w", err)
		return false
	}
	c.row = row
	return true
}

func (c *rowsCursor[T]) Row() T { return c.row }

func (c *rowsCursor[T]) Err() error {
	if c.err != nil {
		return c.err
	}
	return c.rows.Err()
}

func (c *rowsCursor[T]) Close() error { return c.rows.Close() }

// ---------------------------------------------------------------------
// Row scanners
// ---------------------------------------------------------------------

func scanRelation(rows *sql.Rows) (schema.RelationRow, error) {
	var (
		schemaName, comment sql.NullString
		r                   schema.RelationRow
		kind                string
	)
	if err := rows.Scan(&schemaName, &r.Name, &kind, &comment); err != nil {
		return r, err
	}
	r.Schema = schemaName.String
	r.Kind = relKind(kind)
	r.Comment = nullString(comment)
	return r, nil
}

func (s *Source) scanColumn(rows *sql.Rows) (schema.ColumnRow, error) {
	var (
		c                             schema.ColumnRow
		schemaName, nullable, comment sql.NullString
		size, digits, radix           sql.NullInt64
	)
	if err := rows.Scan(&schemaName, &c.Relation, &c.Name, &c.NativeType, &size, &nullable, &digits, &radix, &comment); err != nil {
		return c, err
	}
	c.Schema = schemaName.String
	c.TypeCode = s.d.TypeCode(c.NativeType)
	c.Size = nullInt(size)
	c.DecimalDigits = nullInt(digits)
	c.Radix = nullInt(radix)
	c.Comment = nullString(comment)
	if nullable.Valid {
		code := nullableCode(nullable.String)
		c.NullableCode = &code
	}
	if c.Size == nil {
		c.Size, c.DecimalDigits = declaredSize(c.NativeType, c.DecimalDigits)
		if c.Size != nil && c.Radix == nil && schema.IsNumericType(c.TypeCode) {
			ten := 10
			c.Radix = &ten
		}
	}
	return c, nil
}

func scanPrimaryKey(rows *sql.Rows) (schema.PrimaryKeyRow, error) {
	var (
		pk  schema.PrimaryKeyRow
		seq int64
	)
	if err := rows.Scan(&pk.Column, &seq); err != nil {
		return pk, err
	}
	pk.Sequence = int(seq)
	return pk, nil
}

func scanImportedKey(rows *sql.Rows) (schema.ImportedKeyRow, error) {
	var (
		k                  schema.ImportedKeyRow
		name, targetSchema sql.NullString
		seq                int64
	)
	if err := rows.Scan(&name, &seq, &k.Column, &targetSchema, &k.TargetName, &k.TargetColumn); err != nil {
		return k, err
	}
	k.ConstraintName = nullString(name)
	k.Sequence = int(seq)
	k.TargetSchema = targetSchema.String
	return k, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

var declaredSizePattern = regexp.MustCompile(`\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\)`)

// declaredSize reads "(size)" or "(precision, scale)" from a declared type such as VARCHAR(40).
func declaredSize(nativeType string, digits *int) (*int, *int) {
	m := declaredSizePattern.FindStringSubmatch(nativeType)
	if m == nil {
		return nil, digits
	}
	size, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, digits
	}
	if m[2] != "" && digits == nil {
		if scale, err := strconv.Atoi(m[2]); err == nil {
			digits = &scale
		}
	}
	return &size, digits
}
