package schema

import "fmt"

// IndexPrimaryKeys maps primary key column names to their key sequence numbers.
func IndexPrimaryKeys(c Cursor[PrimaryKeyRow]) (map[string]int, error) {
	parts := make(map[string]int)
	err := drain(c, func(row PrimaryKeyRow) error {
		parts[row.Column] = row.Sequence
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

type fkBuilder struct {
	name  *string
	src   RelId
	tgt   RelId
	comps []ForeignKeyComponent
}

func (b *fkBuilder) build() ForeignKey {
	return ForeignKey{
		ConstraintName:       b.name,
		ForeignKeyRelationId: b.src,
		PrimaryKeyRelationId: b.tgt,
		Components:           b.comps,
	}
}

// ForeignKeyAssembler rebuilds foreign keys from imported key rows, one table at a time. A key
// starts at each row with sequence 1; later rows extend it. Keys referencing relations outside
// the relation set are dropped.
type ForeignKeyAssembler struct {
	rels *RelationSet

	table   RelId
	current *fkBuilder
	out     []ForeignKey
	dropped []ForeignKey
}

func NewForeignKeyAssembler(rels *RelationSet) *ForeignKeyAssembler {
	return &ForeignKeyAssembler{rels: rels, out: []ForeignKey{}}
}

// Begin starts the rows of a new owning table, finalizing any key still open.
func (a *ForeignKeyAssembler) Begin(table RelId) {
	a.flush()
	a.table = table
}

func (a *ForeignKeyAssembler) Add(row ImportedKeyRow) error {
	comp := ForeignKeyComponent{
		ForeignKeyFieldName: row.Column,
		PrimaryKeyFieldName: row.TargetColumn,
	}

	if row.Sequence == 1 {
		a.flush()
		a.current = &fkBuilder{
			name: row.ConstraintName,
			src:  a.table,
			tgt:  NewRelId(row.TargetSchema, row.TargetName),
		}
	} else if a.current == nil {
		return fmt.Errorf("%w: imported key of %s starts at sequence %d", ErrCursorProtocol, a.table, row.Sequence)
	}

	a.current.comps = append(a.current.comps, comp)
	return nil
}

// End finalizes the key open for the current table, if any.
func (a *ForeignKeyAssembler) End() {
	a.flush()
}

func (a *ForeignKeyAssembler) flush() {
	if a.current == nil {
		return
	}
	fk := a.current.build()
	a.current = nil
	if a.rels.Contains(fk.PrimaryKeyRelationId) {
		a.out = append(a.out, fk)
	} else {
		a.dropped = append(a.dropped, fk)
	}
}

func (a *ForeignKeyAssembler) ForeignKeys() []ForeignKey { return a.out }

// Dropped returns the keys discarded because their target is not in the relation set.
func (a *ForeignKeyAssembler) Dropped() []ForeignKey { return a.dropped }
