package dialect

import (
	"fmt"
	"sort"
	"strings"

	"dbmd-fetch/internal/schema"
)

var dialects = map[string]Dialect{
	"pg":     &PostgresDialect{},
	"mysql":  &MysqlDialect{},
	"mssql":  &MSSQLDialect{},
	"ora":    &OracleDialect{},
	"sqlite": &SqliteDialect{},
}

// GetDialect returns the Dialect for a database type tag.
func GetDialect(dbType string) (Dialect, error) {
	d, ok := dialects[strings.ToLower(strings.TrimSpace(dbType))]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported database type %q (expected one of %s)",
			schema.ErrConfig, dbType, strings.Join(Tags(), ", "))
	}
	return d, nil
}

// Tags lists the supported database type tags.
func Tags() []string {
	tags := make([]string, 0, len(dialects))
	for t := range dialects {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

// Ensure interface implementation
var _ Dialect = (*MysqlDialect)(nil)
var _ Dialect = (*PostgresDialect)(nil)
var _ Dialect = (*MSSQLDialect)(nil)
var _ Dialect = (*OracleDialect)(nil)
var _ Dialect = (*SqliteDialect)(nil)
