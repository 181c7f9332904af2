package schema

import (
	"fmt"
	"sort"
)

// RelationMetadata finds the metadata of one relation.
func (md *StoredDatabaseMetadata) RelationMetadata(id RelId) (*RelMetadata, bool) {
	for i := range md.RelationMetadatas {
		if md.RelationMetadatas[i].RelationId.Equal(id) {
			return &md.RelationMetadatas[i], true
		}
	}
	return nil, false
}

// PrimaryKeyFieldNames lists the primary key field names of a relation in part order,
// qualified with alias when alias is not empty.
func (md *StoredDatabaseMetadata) PrimaryKeyFieldNames(id RelId, alias string) ([]string, error) {
	rm, ok := md.RelationMetadata(id)
	if !ok {
		return nil, fmt.Errorf("relation metadata not found for relation id '%s'", id)
	}
	var names []string
	for _, f := range rm.PrimaryKeyFields() {
		if alias != "" {
			names = append(names, alias+"."+f.Name)
		} else {
			names = append(names, f.Name)
		}
	}
	return names, nil
}

// ForeignKeysFrom returns the foreign keys owned by a relation.
func (md *StoredDatabaseMetadata) ForeignKeysFrom(id RelId) []ForeignKey {
	var fks []ForeignKey
	for _, fk := range md.ForeignKeys {
		if fk.ForeignKeyRelationId.Equal(id) {
			fks = append(fks, fk)
		}
	}
	return fks
}

// ForeignKeyFromTo finds the single foreign key from one relation to another. When fieldNames
// is not nil the key's source fields must be exactly that set; names are case-normalized first.
// It returns nil when no key matches and an error when more than one does.
func (md *StoredDatabaseMetadata) ForeignKeyFromTo(from, to RelId, fieldNames []string) (*ForeignKey, error) {
	var want map[string]bool
	if fieldNames != nil {
		want = make(map[string]bool, len(fieldNames))
		for _, n := range fieldNames {
			want[NormalizeIdentifier(n, md.CaseSensitivity)] = true
		}
	}

	var found *ForeignKey
	for i := range md.ForeignKeys {
		fk := &md.ForeignKeys[i]
		if !fk.ForeignKeyRelationId.Equal(from) || !fk.PrimaryKeyRelationId.Equal(to) {
			continue
		}
		if want != nil && !sameFieldSet(fk, want) {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("multiple foreign key constraints exist from table '%s' to table '%s'%s",
				from, to, fieldsNote(fieldNames))
		}
		found = fk
	}
	return found, nil
}

func sameFieldSet(fk *ForeignKey, want map[string]bool) bool {
	have := make(map[string]bool, len(fk.Components))
	for _, c := range fk.Components {
		have[c.ForeignKeyFieldName] = true
	}
	if len(have) != len(want) {
		return false
	}
	for n := range want {
		if !have[n] {
			return false
		}
	}
	return true
}

func fieldsNote(fieldNames []string) string {
	if fieldNames == nil {
		return ""
	}
	sorted := append([]string(nil), fieldNames...)
	sort.Strings(sorted)
	return fmt.Sprintf(" with the same field set %v", sorted)
}
