package schema

import (
	"context"
	"errors"
	"fmt"
)

// Cursor is a forward-only stream of rows. Next advances and reports whether a row is
// available; Err reports the error that ended iteration early, if any.
type Cursor[T any] interface {
	Next() bool
	Row() T
	Err() error
	Close() error
}

// IdentifierStorage holds the answers to the source's questions about unquoted identifiers.
type IdentifierStorage struct {
	StoresLower bool
	StoresUpper bool
	StoresMixed bool
}

type RelationRow struct {
	Schema  string
	Name    string
	Kind    RelType
	Comment *string
}

type ColumnRow struct {
	Schema        string
	Relation      string
	Name          string
	TypeCode      int
	NativeType    string
	Size          *int
	NullableCode  *int
	DecimalDigits *int
	Radix         *int
	Comment       *string
}

// Nullability codes as reported in ColumnRow.NullableCode.
const (
	ColumnNoNulls         = 0
	ColumnNullable        = 1
	ColumnNullableUnknown = 2
)

type PrimaryKeyRow struct {
	Column   string
	Sequence int
}

type ImportedKeyRow struct {
	ConstraintName *string
	Sequence       int
	Column         string
	TargetSchema   string
	TargetName     string
	TargetColumn   string
}

type ProductInfo struct {
	Name         string
	Version      string
	MajorVersion *int
	MinorVersion *int
}

// Source is the introspection capability the extractor reads from. Implementations borrow a
// connection; they never own its lifecycle.
type Source interface {
	IdentifierStorage(ctx context.Context) (IdentifierStorage, error)
	Relations(ctx context.Context, schema *string, kinds []RelType) (Cursor[RelationRow], error)
	Columns(ctx context.Context, schema *string) (Cursor[ColumnRow], error)
	PrimaryKeys(ctx context.Context, rel RelId) (Cursor[PrimaryKeyRow], error)
	ImportedKeys(ctx context.Context, table RelId) (Cursor[ImportedKeyRow], error)
	Product(ctx context.Context) (ProductInfo, error)
}

// ErrConfig marks configuration problems detected before any extraction attempt.
var ErrConfig = errors.New("configuration error")

// ErrCursorProtocol marks a cursor that violates its ordering contract.
var ErrCursorProtocol = errors.New("cursor protocol violation")

// SourceError wraps any failure raised by the metadata source.
type SourceError struct {
	Op  string
	Err error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("metadata source: %s: %v", e.Op, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

func sourceErr(op string, err error) error {
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{Op: op, Err: err}
}

// PatternError reports a relation include/exclude expression that does not compile.
type PatternError struct {
	Which   string
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid %s pattern %q: %v", e.Which, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// drain consumes a cursor, always closing it. The close error is reported only when iteration
// itself succeeded.
func drain[T any](c Cursor[T], fn func(T) error) (err error) {
	defer func() {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	for c.Next() {
		if err := fn(c.Row()); err != nil {
			return err
		}
	}
	return c.Err()
}
