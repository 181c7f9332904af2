package schema

import (
	"fmt"
	"sort"
)

// CaseSensitivity describes how the database stores unquoted identifiers.
type CaseSensitivity string

const (
	InsensitiveStoredLower CaseSensitivity = "INSENSITIVE_STORED_LOWER"
	InsensitiveStoredUpper CaseSensitivity = "INSENSITIVE_STORED_UPPER"
	InsensitiveStoredMixed CaseSensitivity = "INSENSITIVE_STORED_MIXED"
	Sensitive              CaseSensitivity = "SENSITIVE"
)

func (c CaseSensitivity) Valid() bool {
	switch c {
	case InsensitiveStoredLower, InsensitiveStoredUpper, InsensitiveStoredMixed, Sensitive:
		return true
	}
	return false
}

type RelType string

const (
	RelTypeTable RelType = "table"
	RelTypeView  RelType = "view"
)

// RelId identifies a table or view. Compare with Equal; sets of relations are keyed on the
// (schema, name) pair, not on the Schema pointer.
type RelId struct {
	Name   string  `json:"name" yaml:"name"`
	Schema *string `json:"schema" yaml:"schema"`
}

// NewRelId builds a relation id; an empty schema means the schema is absent.
func NewRelId(schema, name string) RelId {
	if schema == "" {
		return RelId{Name: name}
	}
	return RelId{Name: name, Schema: &schema}
}

// relKey is the comparable identity of a RelId (pointer fields compare by address).
type relKey struct {
	schema    string
	hasSchema bool
	name      string
}

func (r RelId) key() relKey {
	if r.Schema == nil {
		return relKey{name: r.Name}
	}
	return relKey{schema: *r.Schema, hasSchema: true, name: r.Name}
}

// Equal reports whether both ids name the same relation.
func (r RelId) Equal(o RelId) bool {
	return r.key() == o.key()
}

func (r RelId) SchemaName() string {
	if r.Schema == nil {
		return ""
	}
	return *r.Schema
}

// String returns "schema.name", or just "name" when no schema is present.
func (r RelId) String() string {
	if r.Schema == nil {
		return r.Name
	}
	return *r.Schema + "." + r.Name
}

type Field struct {
	Name                 string  `json:"name" yaml:"name"`
	DatabaseType         string  `json:"databaseType" yaml:"databaseType"`
	TypeCode             *int    `json:"jdbcTypeCode" yaml:"jdbcTypeCode"`
	Nullable             *bool   `json:"nullable" yaml:"nullable"`
	PrimaryKeyPartNumber *int    `json:"primaryKeyPartNumber" yaml:"primaryKeyPartNumber"`
	Length               *int    `json:"length" yaml:"length"`
	Precision            *int    `json:"precision" yaml:"precision"`
	PrecisionRadix       *int    `json:"precisionRadix" yaml:"precisionRadix"`
	FractionalDigits     *int    `json:"fractionalDigits" yaml:"fractionalDigits"`
	Comment              *string `json:"comment" yaml:"comment"`
}

type RelMetadata struct {
	RelationId   RelId   `json:"relationId" yaml:"relationId"`
	RelationType RelType `json:"relationType" yaml:"relationType"`
	Fields       []Field `json:"fields" yaml:"fields"`
	Comment      *string `json:"comment" yaml:"comment"`
}

// PrimaryKeyFields returns the fields having a primary key part number, ordered by part number.
func (rm *RelMetadata) PrimaryKeyFields() []Field {
	var pks []Field
	for _, f := range rm.Fields {
		if f.PrimaryKeyPartNumber != nil {
			pks = append(pks, f)
		}
	}
	sort.SliceStable(pks, func(i, j int) bool {
		return *pks[i].PrimaryKeyPartNumber < *pks[j].PrimaryKeyPartNumber
	})
	return pks
}

func (rm *RelMetadata) Field(name string) (*Field, bool) {
	for i := range rm.Fields {
		if rm.Fields[i].Name == name {
			return &rm.Fields[i], true
		}
	}
	return nil, false
}

type ForeignKeyComponent struct {
	ForeignKeyFieldName string `json:"foreignKeyFieldName" yaml:"foreignKeyFieldName"`
	PrimaryKeyFieldName string `json:"primaryKeyFieldName" yaml:"primaryKeyFieldName"`
}

type ForeignKey struct {
	ConstraintName       *string               `json:"constraintName" yaml:"constraintName"`
	ForeignKeyRelationId RelId                 `json:"foreignKeyRelationId" yaml:"foreignKeyRelationId"`
	PrimaryKeyRelationId RelId                 `json:"primaryKeyRelationId" yaml:"primaryKeyRelationId"`
	Components           []ForeignKeyComponent `json:"foreignKeyComponents" yaml:"foreignKeyComponents"`
}

func (fk *ForeignKey) String() string {
	name := "<unnamed>"
	if fk.ConstraintName != nil {
		name = *fk.ConstraintName
	}
	return fmt.Sprintf("%s: %s -> %s", name, fk.ForeignKeyRelationId, fk.PrimaryKeyRelationId)
}

// StoredDatabaseMetadata is the document written at the end of a run.
type StoredDatabaseMetadata struct {
	DbmsName          string          `json:"dbmsName" yaml:"dbmsName"`
	DbmsVersion       string          `json:"dbmsVersion" yaml:"dbmsVersion"`
	MajorVersion      *int            `json:"majorVersion" yaml:"majorVersion"`
	MinorVersion      *int            `json:"minorVersion" yaml:"minorVersion"`
	CaseSensitivity   CaseSensitivity `json:"caseSensitivity" yaml:"caseSensitivity"`
	RelationMetadatas []RelMetadata   `json:"relationMetadatas" yaml:"relationMetadatas"`
	ForeignKeys       []ForeignKey    `json:"foreignKeys" yaml:"foreignKeys"`
}
