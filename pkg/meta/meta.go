package meta

import (
	"context"

	"github.com/tidemark-db/tidemark/pkg/models/identity"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/pkg/tmlog"
	"github.com/tidemark-db/tidemark/tdb"
)

// EntityMgr is the table-metadata management surface the command console
// dispatches to.
type EntityMgr interface {
	CreateTable(ctx context.Context, tbl *tdb.Table) error
	DropTable(ctx context.Context, relName string) error
	ListTables(ctx context.Context) ([]*tdb.Table, error)

	DeleteRows(ctx context.Context, relName string, rowIDs []string) error

	SyncIdentity(ctx context.Context, relName, colName string) error

	TDB() tdb.TDB
}

type Manager struct {
	db tdb.TDB
}

var _ EntityMgr = &Manager{}

func NewManager(db tdb.TDB) *Manager {
	return &Manager{db: db}
}

func (m *Manager) TDB() tdb.TDB {
	return m.db
}

func (m *Manager) CreateTable(ctx context.Context, tbl *tdb.Table) error {
	if tbl.Format == "" {
		tbl.Format = tdb.FormatNative
	}
	for _, col := range tbl.Columns {
		if col.Identity == nil {
			continue
		}
		if !tbl.SupportsIdentityColumns() {
			return tmerror.Newf(tmerror.TIDE_UNSUPPORTED_TABLE,
				"format %q of relation %q does not carry identity metadata", tbl.Format, tbl.Name)
		}
		spec := identity.SpecFromDB(col.Identity)
		if err := spec.Validate(); err != nil {
			return err
		}
		waterMark, err := spec.InitialWaterMark()
		if err != nil {
			return err
		}
		col.Identity.HighWaterMark = waterMark
	}
	return m.db.CreateTable(ctx, tbl)
}

func (m *Manager) DropTable(ctx context.Context, relName string) error {
	return m.db.DropTable(ctx, relName)
}

func (m *Manager) ListTables(ctx context.Context) ([]*tdb.Table, error) {
	return m.db.ListTables(ctx)
}

func (m *Manager) DeleteRows(ctx context.Context, relName string, rowIDs []string) error {
	snap, err := m.db.BeginRead(ctx, relName)
	if err != nil {
		return err
	}
	_, err = m.db.Commit(ctx, snap, &tdb.CommitDelta{DeleteRows: rowIDs})
	return err
}

// SyncIdentity recomputes the high-water-mark of an identity column from
// the materialized data of one snapshot and commits it as the next table
// version. The commit is optimistic: a concurrent writer surfaces as a
// conflict error and the caller retries from a fresh snapshot.
func (m *Manager) SyncIdentity(ctx context.Context, relName, colName string) error {
	snap, err := m.db.BeginRead(ctx, relName)
	if err != nil {
		return err
	}
	if !snap.Table.SupportsIdentityColumns() {
		return tmerror.Newf(tmerror.TIDE_UNSUPPORTED_TABLE,
			"format %q of relation %q does not carry identity metadata", snap.Table.Format, relName)
	}
	col := snap.Table.Column(colName)
	if col == nil {
		return tmerror.Newf(tmerror.TIDE_NOT_IDENTITY_COLUMN, "relation %q has no column %q", relName, colName)
	}
	if col.Identity == nil {
		return tmerror.Newf(tmerror.TIDE_NOT_IDENTITY_COLUMN, "column %q of relation %q carries no identity metadata", colName, relName)
	}
	spec := identity.SpecFromDB(col.Identity)
	if err := spec.Validate(); err != nil {
		return err
	}

	values := snap.ColumnValues(colName)

	var newWaterMark int64
	if len(values) == 0 {
		newWaterMark, err = spec.InitialWaterMark()
	} else {
		var target int64
		target, err = scanExtremum(ctx, values, spec.Ascending())
		if err == nil {
			newWaterMark, err = spec.ReconcileWaterMark(target)
		}
	}
	if err != nil {
		return err
	}

	if newWaterMark == col.Identity.HighWaterMark {
		tmlog.Zero.Debug().
			Str("relation", relName).
			Str("column", colName).
			Int64("high-water-mark", newWaterMark).
			Msg("sync identity: watermark unchanged, nothing to commit")
		return nil
	}

	tmlog.Zero.Info().
		Str("relation", relName).
		Str("column", colName).
		Int64("old-high-water-mark", col.Identity.HighWaterMark).
		Int64("new-high-water-mark", newWaterMark).
		Msg("sync identity: committing recomputed watermark")

	_, err = m.db.Commit(ctx, snap, &tdb.CommitDelta{
		Metadata: map[string]*tdb.IdentitySpec{
			colName: spec.ToDB(newWaterMark),
		},
	})
	return err
}
