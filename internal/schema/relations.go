package schema

import (
	"fmt"
	"regexp"
	"strings"
)

// RelationDescr is one entry of the authoritative relation set.
type RelationDescr struct {
	Id      RelId
	Type    RelType
	Comment *string
}

// RelationSet is the filtered, ordered set of relations that all later stages are limited to.
type RelationSet struct {
	order []RelationDescr
	byKey map[relKey]int
}

func NewRelationSet() *RelationSet {
	return &RelationSet{byKey: make(map[relKey]int)}
}

// Add appends a relation; a relation already present is ignored.
func (s *RelationSet) Add(d RelationDescr) {
	k := d.Id.key()
	if _, ok := s.byKey[k]; ok {
		return
	}
	s.byKey[k] = len(s.order)
	s.order = append(s.order, d)
}

func (s *RelationSet) Lookup(id RelId) (RelationDescr, bool) {
	i, ok := s.byKey[id.key()]
	if !ok {
		return RelationDescr{}, false
	}
	return s.order[i], true
}

func (s *RelationSet) Contains(id RelId) bool {
	_, ok := s.byKey[id.key()]
	return ok
}

func (s *RelationSet) Len() int { return len(s.order) }

func (s *RelationSet) All() []RelationDescr {
	return append([]RelationDescr(nil), s.order...)
}

// Tables returns the table ids in set order, views omitted.
func (s *RelationSet) Tables() []RelId {
	var ids []RelId
	for _, d := range s.order {
		if d.Type == RelTypeTable {
			ids = append(ids, d.Id)
		}
	}
	return ids
}

// CollectRelations reads relation descriptors and keeps those passing the include/exclude
// patterns. The cursor is always closed.
func CollectRelations(c Cursor[RelationRow], include, exclude *regexp.Regexp) (*RelationSet, error) {
	set := NewRelationSet()
	err := drain(c, func(row RelationRow) error {
		id := NewRelId(row.Schema, row.Name)
		if !Included(id, include, exclude) {
			return nil
		}
		kind := RelTypeView
		if strings.EqualFold(string(row.Kind), string(RelTypeTable)) {
			kind = RelTypeTable
		}
		set.Add(RelationDescr{Id: id, Type: kind, Comment: row.Comment})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return set, nil
}

// ---------------------------------------------------------------------
// Column grouping
// ---------------------------------------------------------------------

type relMetadataBuilder struct {
	descr   RelationDescr
	pkParts map[string]int
	fields  []Field
}

func (b *relMetadataBuilder) build() RelMetadata {
	return RelMetadata{
		RelationId:   b.descr.Id,
		RelationType: b.descr.Type,
		Fields:       b.fields,
		Comment:      b.descr.Comment,
	}
}

// PrimaryKeyLookup returns the primary key part numbers by column name for one relation.
type PrimaryKeyLookup func(rel RelId) (map[string]int, error)

// RelationGrouper folds a relation-contiguous column stream into per-relation metadata.
type RelationGrouper struct {
	rels        *RelationSet
	pkLookup    PrimaryKeyLookup
	dateMapping DateMapping

	current  *relMetadataBuilder
	finished map[relKey]bool
	out      []RelMetadata
}

func NewRelationGrouper(rels *RelationSet, pkLookup PrimaryKeyLookup, m DateMapping) *RelationGrouper {
	return &RelationGrouper{
		rels:        rels,
		pkLookup:    pkLookup,
		dateMapping: m,
		finished:    make(map[relKey]bool),
		out:         []RelMetadata{},
	}
}

// Add consumes one column row. Rows of relations outside the set are skipped.
func (g *RelationGrouper) Add(row ColumnRow) error {
	id := NewRelId(row.Schema, row.Relation)

	descr, ok := g.rels.Lookup(id)
	if !ok {
		return nil
	}

	if g.current == nil || !g.current.descr.Id.Equal(id) {
		if g.finished[id.key()] {
			return fmt.Errorf("%w: columns of %s are not contiguous", ErrCursorProtocol, id)
		}
		g.flush()

		pkParts := map[string]int{}
		if g.pkLookup != nil {
			parts, err := g.pkLookup(id)
			if err != nil {
				return err
			}
			pkParts = parts
		}
		g.current = &relMetadataBuilder{descr: descr, pkParts: pkParts}
	}

	g.current.fields = append(g.current.fields, MakeField(row, g.current.pkParts, g.dateMapping))
	return nil
}

func (g *RelationGrouper) flush() {
	if g.current == nil {
		return
	}
	g.out = append(g.out, g.current.build())
	g.finished[g.current.descr.Id.key()] = true
	g.current = nil
}

// Finish finalizes the trailing relation and returns all relation metadata in stream order.
func (g *RelationGrouper) Finish() []RelMetadata {
	g.flush()
	return g.out
}
