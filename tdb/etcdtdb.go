package tdb

import (
	"context"
	"encoding/json"
	"path"

	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/clientv3util"
	"google.golang.org/grpc"

	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/pkg/tmlog"
)

type EtcdTDB struct {
	cli *clientv3.Client
}

var _ TDB = &EtcdTDB{}

func NewEtcdTDB(addr string) (*EtcdTDB, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints: []string{addr},
		DialOptions: []grpc.DialOption{ // TODO remove WithInsecure
			grpc.WithInsecure(), //nolint:all
		},
	})
	if err != nil {
		return nil, err
	}

	tmlog.Zero.Debug().
		Str("address", addr).
		Uint("client", tmlog.GetPointer(cli)).
		Msg("etcdtdb: NewEtcdTDB")

	return &EtcdTDB{
		cli: cli,
	}, nil
}

const tablesNamespace = "/tables/"

func tableNodePath(relName string) string {
	return path.Join(tablesNamespace, relName)
}

func (q *EtcdTDB) Client() *clientv3.Client {
	return q.cli
}

func (q *EtcdTDB) CreateTable(ctx context.Context, tbl *Table) error {
	tmlog.Zero.Debug().Str("relation", tbl.Name).Msg("etcdtdb: create table")

	snap := &Snapshot{
		Version: 1,
		Table:   tbl,
		Rows:    []*Row{},
	}
	rawSnap, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	key := tableNodePath(tbl.Name)
	resp, err := q.cli.Txn(ctx).
		If(clientv3util.KeyMissing(key)).
		Then(clientv3.OpPut(key, string(rawSnap))).
		Commit()
	if err != nil {
		return err
	}
	if !resp.Succeeded {
		return tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "relation %q already present in tdb", tbl.Name)
	}
	return nil
}

func (q *EtcdTDB) DropTable(ctx context.Context, relName string) error {
	tmlog.Zero.Debug().Str("relation", relName).Msg("etcdtdb: drop table")

	resp, err := q.cli.Delete(ctx, tableNodePath(relName))
	if err != nil {
		return err
	}
	if resp.Deleted == 0 {
		return tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", relName)
	}
	return nil
}

func (q *EtcdTDB) GetTable(ctx context.Context, relName string) (*Table, error) {
	snap, err := q.BeginRead(ctx, relName)
	if err != nil {
		return nil, err
	}
	return snap.Table, nil
}

func (q *EtcdTDB) ListTables(ctx context.Context) ([]*Table, error) {
	resp, err := q.cli.Get(ctx, tablesNamespace, clientv3.WithPrefix(), clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return nil, err
	}

	tables := make([]*Table, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var snap Snapshot
		if err := json.Unmarshal(kv.Value, &snap); err != nil {
			return nil, err
		}
		tables = append(tables, snap.Table)
	}
	return tables, nil
}

func (q *EtcdTDB) BeginRead(ctx context.Context, relName string) (*Snapshot, error) {
	tmlog.Zero.Debug().Str("relation", relName).Msg("etcdtdb: begin read")

	resp, err := q.cli.Get(ctx, tableNodePath(relName))
	if err != nil {
		return nil, err
	}
	if resp.Count == 0 {
		return nil, tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", relName)
	}

	var snap Snapshot
	if err := json.Unmarshal(resp.Kvs[0].Value, &snap); err != nil {
		return nil, err
	}
	snap.readRev = resp.Kvs[0].ModRevision
	return &snap, nil
}

// Commit applies delta on top of base and writes the successor version
// behind a mod-revision compare, so a concurrent writer on the same base
// makes the transaction fail rather than silently win.
func (q *EtcdTDB) Commit(ctx context.Context, base *Snapshot, delta *CommitDelta) (*Snapshot, error) {
	tmlog.Zero.Debug().
		Str("relation", base.Table.Name).
		Int64("base-version", base.Version).
		Msg("etcdtdb: commit")

	next, err := applyDelta(base, delta)
	if err != nil {
		return nil, err
	}
	rawSnap, err := json.Marshal(next)
	if err != nil {
		return nil, err
	}

	key := tableNodePath(base.Table.Name)
	resp, err := q.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", base.readRev)).
		Then(clientv3.OpPut(key, string(rawSnap))).
		Commit()
	if err != nil {
		return nil, err
	}
	if !resp.Succeeded {
		return nil, tmerror.Newf(tmerror.TIDE_COMMIT_CONFLICT,
			"relation %q moved past version %d", base.Table.Name, base.Version)
	}
	return next, nil
}
