package tdb

import (
	"context"

	"github.com/tidemark-db/tidemark/pkg/config"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
)

// TDB is the versioned table-metadata store. BeginRead and Commit form the
// transaction protocol: Commit applies a delta on top of the base snapshot
// and either produces the next version atomically or fails with a commit
// conflict when another writer got there first. No locks are held between
// the two calls.
type TDB interface {
	CreateTable(ctx context.Context, tbl *Table) error
	DropTable(ctx context.Context, relName string) error
	GetTable(ctx context.Context, relName string) (*Table, error)
	ListTables(ctx context.Context) ([]*Table, error)

	BeginRead(ctx context.Context, relName string) (*Snapshot, error)
	Commit(ctx context.Context, base *Snapshot, delta *CommitDelta) (*Snapshot, error)
}

func NewTDB(tdbType string) (TDB, error) {
	switch tdbType {
	case "etcd":
		return NewEtcdTDB(config.EngineConfig().TdbAddr)
	case "mem":
		return NewMemTDB(config.EngineConfig().BackupPath)
	default:
		return nil, tmerror.Newf(tmerror.TIDE_UNEXPECTED, "tdb implementation %s is invalid", tdbType)
	}
}
