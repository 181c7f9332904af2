package schema

import (
	"fmt"
	"strings"
)

// DateMapping decides the type code of columns whose native type is a plain DATE but which the
// driver reports as a date or a timestamp.
type DateMapping int

const (
	DatesAsDriverReported DateMapping = iota
	DatesAsTimestamps
	DatesAsDates
)

func (m DateMapping) String() string {
	switch m {
	case DatesAsTimestamps:
		return "timestamps"
	case DatesAsDates:
		return "dates"
	default:
		return "driver-reported"
	}
}

// ParseDateMapping accepts the names produced by String, case-insensitively.
func ParseDateMapping(s string) (DateMapping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "driver-reported", "driver_reported":
		return DatesAsDriverReported, nil
	case "timestamps", "as_timestamp", "as-timestamp":
		return DatesAsTimestamps, nil
	case "dates", "as_date", "as-date":
		return DatesAsDates, nil
	}
	return DatesAsDriverReported, fmt.Errorf("%w: unknown date mapping %q", ErrConfig, s)
}

// ResolveTypeCode applies the date mapping and the XMLTYPE correction to a driver-reported code.
func ResolveTypeCode(code int, nativeType string, m DateMapping) int {
	if code == TypeDate || code == TypeTimestamp {
		if strings.ToUpper(nativeType) == "DATE" {
			switch m {
			case DatesAsTimestamps:
				return TypeTimestamp
			case DatesAsDates:
				return TypeDate
			}
		}
		return code
	}
	if nativeType == "XMLTYPE" || nativeType == "SYS.XMLTYPE" {
		return TypeSQLXML
	}
	return code
}

func nullability(code *int) *bool {
	if code == nil {
		return nil
	}
	switch *code {
	case ColumnNullable:
		return ptr(true)
	case ColumnNoNulls:
		return ptr(false)
	}
	return nil
}

// MakeField classifies one column row. pkParts maps primary key column names to their
// 1-based part numbers within the column's relation.
func MakeField(row ColumnRow, pkParts map[string]int, m DateMapping) Field {
	code := ResolveTypeCode(row.TypeCode, row.NativeType, m)

	f := Field{
		Name:         row.Name,
		DatabaseType: row.NativeType,
		TypeCode:     ptr(code),
		Nullable:     nullability(row.NullableCode),
		Comment:      row.Comment,
	}

	switch {
	case IsCharType(code):
		f.Length = copyInt(row.Size)
	case IsNumericType(code):
		f.Precision = copyInt(row.Size)
		f.PrecisionRadix = copyInt(row.Radix)
		f.FractionalDigits = copyInt(row.DecimalDigits)
	}

	if part, ok := pkParts[row.Name]; ok {
		f.PrimaryKeyPartNumber = ptr(part)
	}
	return f
}

func ptr[T any](v T) *T { return &v }

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
