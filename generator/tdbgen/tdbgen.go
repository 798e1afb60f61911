package tdbgen

import (
	"context"

	"github.com/google/uuid"

	"github.com/tidemark-db/tidemark/generator"
	"github.com/tidemark-db/tidemark/pkg/models/identity"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/tdb"
)

type TDBGen struct {
	db tdb.TDB
}

var _ generator.ValueGenerator = &TDBGen{}

func NewTDBGen(db tdb.TDB) generator.ValueGenerator {
	return &TDBGen{
		db: db,
	}
}

// Insert implements generator.ValueGenerator.
func (g *TDBGen) Insert(ctx context.Context, relName string, rows []*tdb.Row) (*tdb.Snapshot, error) {
	snap, err := g.db.BeginRead(ctx, relName)
	if err != nil {
		return nil, err
	}

	inserted := make([]*tdb.Row, len(rows))
	for i, r := range rows {
		cp := r.Copy()
		if cp.ID == "" {
			cp.ID = uuid.NewString()
		}
		inserted[i] = cp
	}

	metadata := map[string]*tdb.IdentitySpec{}
	for _, col := range snap.Table.Columns {
		if col.Identity == nil {
			continue
		}
		spec := identity.SpecFromDB(col.Identity)
		waterMark := col.Identity.HighWaterMark

		for _, r := range inserted {
			if _, ok := r.Values[col.Name]; ok {
				if spec.Mode == identity.GeneratedAlways {
					return nil, tmerror.Newf(tmerror.TIDE_GENERATED_ALWAYS,
						"column %q of relation %q is GENERATED ALWAYS", col.Name, relName)
				}
				continue
			}
			waterMark, err = spec.Next(waterMark)
			if err != nil {
				return nil, err
			}
			r.Values[col.Name] = waterMark
		}

		if waterMark != col.Identity.HighWaterMark {
			metadata[col.Name] = spec.ToDB(waterMark)
		}
	}

	return g.db.Commit(ctx, snap, &tdb.CommitDelta{
		InsertRows: inserted,
		Metadata:   metadata,
	})
}
