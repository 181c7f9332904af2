package dialect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"dbmd-fetch/internal/schema"
)

// GeneratePlaceholders joins count list items rendered by item, e.g. bind placeholders or
// quoted literals, into "a, b, c".
func GeneratePlaceholders(count int, item func(int) string) string {
	items := make([]string, count)
	for i := range items {
		items[i] = item(i)
	}
	return strings.Join(items, ", ")
}

// queryBuilder appends WHERE conditions to a base query, numbering placeholders as it goes.
// Conditions use %s where the bind placeholder belongs.
type queryBuilder struct {
	ph    func(int) string
	conds []string
	args  []any
}

func newQuery(ph func(int) string) *queryBuilder {
	return &queryBuilder{ph: ph}
}

// where adds a condition with no bind argument.
func (b *queryBuilder) where(cond string) *queryBuilder {
	b.conds = append(b.conds, cond)
	return b
}

// bind adds a condition taking one bind argument.
func (b *queryBuilder) bind(cond string, arg any) *queryBuilder {
	b.conds = append(b.conds, fmt.Sprintf(cond, b.ph(len(b.args))))
	b.args = append(b.args, arg)
	return b
}

func (b *queryBuilder) build(base, orderBy string) (string, []any) {
	var sb strings.Builder
	sb.WriteString(base)
	if len(b.conds) > 0 {
		sb.WriteString("\nWHERE ")
		sb.WriteString(strings.Join(b.conds, "\n  AND "))
	}
	if orderBy != "" {
		sb.WriteString("\nORDER BY ")
		sb.WriteString(orderBy)
	}
	return sb.String(), b.args
}

// inList renders relation kinds as a quoted SQL list using the dialect's kind names.
func inList(kinds []schema.RelType, names map[schema.RelType][]string) string {
	var vals []string
	for _, k := range kinds {
		vals = append(vals, names[k]...)
	}
	return "(" + GeneratePlaceholders(len(vals), func(i int) string { return "'" + vals[i] + "'" }) + ")"
}

// relKind maps a vendor relation type label to a RelType.
func relKind(label string) schema.RelType {
	if strings.Contains(strings.ToUpper(label), "VIEW") {
		return schema.RelTypeView
	}
	return schema.RelTypeTable
}

// nullableCode maps YES/NO (or Y/N) column flags to nullability codes.
func nullableCode(flag string) int {
	switch strings.ToUpper(strings.TrimSpace(flag)) {
	case "YES", "Y", "1", "TRUE":
		return schema.ColumnNullable
	case "NO", "N", "0", "FALSE":
		return schema.ColumnNoNulls
	}
	return schema.ColumnNullableUnknown
}

// baseTypeName strips size/precision suffixes and normalizes case: "TIMESTAMP(6)" -> "timestamp".
func baseTypeName(nativeType string) string {
	t := strings.ToLower(strings.TrimSpace(nativeType))
	for {
		i := strings.IndexByte(t, '(')
		if i < 0 {
			break
		}
		rest := ""
		if j := strings.IndexByte(t[i:], ')'); j >= 0 {
			rest = t[i+j+1:]
		}
		t = t[:i] + " " + rest
	}
	return strings.Join(strings.Fields(t), " ")
}

var versionPattern = regexp.MustCompile(`(\d+)(?:\.(\d+))?`)

// parseVersion extracts major and minor numbers from a version string.
func parseVersion(version string) (major, minor *int) {
	m := versionPattern.FindStringSubmatch(version)
	if m == nil {
		return nil, nil
	}
	if v, err := strconv.Atoi(m[1]); err == nil {
		major = &v
	}
	if m[2] != "" {
		if v, err := strconv.Atoi(m[2]); err == nil {
			minor = &v
		}
	}
	return major, minor
}

// staticStorage is the identifier storage of dialects that never need to ask the server.
func staticStorage(lower, upper, mixed bool) schema.IdentifierStorage {
	return schema.IdentifierStorage{StoresLower: lower, StoresUpper: upper, StoresMixed: mixed}
}
