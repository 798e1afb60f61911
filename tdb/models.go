package tdb

import (
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
)

// Storage formats a table may carry. Only the native format versions its
// metadata through this store and therefore supports identity columns.
const (
	FormatNative  = "tidemark"
	FormatForeign = "foreign"
)

// IdentitySpec is the persisted identity configuration of a column: the
// immutable sequence definition plus the mutable high-water-mark. The next
// generated value is always HighWaterMark + Step.
type IdentitySpec struct {
	Mode          string `json:"mode"`
	Start         int64  `json:"start"`
	Step          int64  `json:"step"`
	HighWaterMark int64  `json:"high_water_mark"`
}

func (s *IdentitySpec) Copy() *IdentitySpec {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

type Column struct {
	Name     string        `json:"name"`
	Type     string        `json:"type"`
	Identity *IdentitySpec `json:"identity,omitempty"`
}

type Table struct {
	Name    string    `json:"name"`
	Format  string    `json:"format"`
	Columns []*Column `json:"columns"`
}

func (t *Table) Column(name string) *Column {
	for _, col := range t.Columns {
		if col.Name == name {
			return col
		}
	}
	return nil
}

func (t *Table) SupportsIdentityColumns() bool {
	return t.Format == FormatNative
}

func (t *Table) Copy() *Table {
	cols := make([]*Column, len(t.Columns))
	for i, col := range t.Columns {
		cols[i] = &Column{
			Name:     col.Name,
			Type:     col.Type,
			Identity: col.Identity.Copy(),
		}
	}
	return &Table{
		Name:    t.Name,
		Format:  t.Format,
		Columns: cols,
	}
}

// Row holds the materialized values of one row, keyed by column name.
// An absent key is a NULL.
type Row struct {
	ID     string           `json:"id"`
	Values map[string]int64 `json:"values"`
}

func (r *Row) Copy() *Row {
	values := make(map[string]int64, len(r.Values))
	for k, v := range r.Values {
		values[k] = v
	}
	return &Row{ID: r.ID, Values: values}
}

// Snapshot is one committed version of a table: schema, rows and version
// counter. Snapshots are immutable; a commit produces the next one.
type Snapshot struct {
	Version int64  `json:"version"`
	Table   *Table `json:"table"`
	Rows    []*Row `json:"rows"`

	// mod revision of the backing etcd key at read time, zero for mem
	readRev int64
}

func (s *Snapshot) Copy() *Snapshot {
	rows := make([]*Row, len(s.Rows))
	for i, r := range s.Rows {
		rows[i] = r.Copy()
	}
	return &Snapshot{
		Version: s.Version,
		Table:   s.Table.Copy(),
		Rows:    rows,
		readRev: s.readRev,
	}
}

// ColumnValues returns the non-null values of one column in row order.
func (s *Snapshot) ColumnValues(colName string) []int64 {
	values := make([]int64, 0, len(s.Rows))
	for _, r := range s.Rows {
		if v, ok := r.Values[colName]; ok {
			values = append(values, v)
		}
	}
	return values
}

// CommitDelta describes one all-or-nothing change on top of a base
// snapshot: rows to insert, row ids to delete, and per-column identity
// metadata replacements.
type CommitDelta struct {
	InsertRows []*Row
	DeleteRows []string
	Metadata   map[string]*IdentitySpec
}

func (d *CommitDelta) Empty() bool {
	return len(d.InsertRows) == 0 && len(d.DeleteRows) == 0 && len(d.Metadata) == 0
}

// applyDelta builds the successor snapshot. The sequence definition of an
// identity column never changes here, only its high-water-mark may.
func applyDelta(cur *Snapshot, delta *CommitDelta) (*Snapshot, error) {
	next := cur.Copy()

	for colName, spec := range delta.Metadata {
		col := next.Table.Column(colName)
		if col == nil {
			return nil, tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "relation %q has no column %q", next.Table.Name, colName)
		}
		if col.Identity == nil {
			return nil, tmerror.Newf(tmerror.TIDE_NOT_IDENTITY_COLUMN, "column %q carries no identity metadata", colName)
		}
		if col.Identity.Mode != spec.Mode || col.Identity.Start != spec.Start || col.Identity.Step != spec.Step {
			return nil, tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "identity sequence of column %q is immutable", colName)
		}
		col.Identity = spec.Copy()
	}

	if len(delta.DeleteRows) > 0 {
		drop := make(map[string]struct{}, len(delta.DeleteRows))
		for _, id := range delta.DeleteRows {
			drop[id] = struct{}{}
		}
		kept := make([]*Row, 0, len(next.Rows))
		for _, r := range next.Rows {
			if _, ok := drop[r.ID]; !ok {
				kept = append(kept, r)
			}
		}
		next.Rows = kept
	}

	for _, r := range delta.InsertRows {
		next.Rows = append(next.Rows, r.Copy())
	}

	next.Version = cur.Version + 1
	next.readRev = 0
	return next, nil
}
