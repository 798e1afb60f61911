package generator

import (
	"context"

	"github.com/tidemark-db/tidemark/tdb"
)

// ValueGenerator is the row-insert path of identity columns. Rows that
// omit a value for a BY_DEFAULT identity column (every row, for ALWAYS)
// receive the next sequence values in insert order; the advanced
// high-water-mark lands in the same commit as the rows.
type ValueGenerator interface {
	Insert(ctx context.Context, relName string, rows []*tdb.Row) (*tdb.Snapshot, error)
}
