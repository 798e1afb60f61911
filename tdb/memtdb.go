package tdb

import (
	"context"
	"encoding/json"
	"os"
	"sort"
	"sync"

	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/pkg/tmlog"
)

type MemTDB struct {
	mu sync.RWMutex

	Tables map[string]*Snapshot `json:"tables"`

	backupPath string
}

var _ TDB = &MemTDB{}

func NewMemTDB(backupPath string) (*MemTDB, error) {
	return &MemTDB{
		Tables:     map[string]*Snapshot{},
		backupPath: backupPath,
	}, nil
}

func RestoreTDB(backupPath string) (*MemTDB, error) {
	tdb, err := NewMemTDB(backupPath)
	if err != nil {
		return nil, err
	}
	if backupPath == "" {
		return tdb, nil
	}
	if _, err := os.Stat(backupPath); err != nil {
		tmlog.Zero.Info().Err(err).Msg("memtdb backup file not exists. Creating new one.")
		f, err := os.Create(backupPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return tdb, nil
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, tdb); err != nil {
		return nil, err
	}
	return tdb, nil
}

func (q *MemTDB) DumpState() error {
	if q.backupPath == "" {
		return nil
	}
	tmpPath := q.backupPath + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	state, err := json.MarshalIndent(q, "", "	")
	if err != nil {
		return err
	}

	_, err = f.Write(state)
	if err != nil {
		return err
	}
	f.Close()

	return os.Rename(tmpPath, q.backupPath)
}

func (q *MemTDB) CreateTable(ctx context.Context, tbl *Table) error {
	tmlog.Zero.Debug().Str("relation", tbl.Name).Msg("memtdb: create table")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Tables[tbl.Name]; ok {
		return tmerror.Newf(tmerror.TIDE_METADATA_ERROR, "relation %q already present in tdb", tbl.Name)
	}
	q.Tables[tbl.Name] = &Snapshot{
		Version: 1,
		Table:   tbl.Copy(),
		Rows:    []*Row{},
	}
	return q.DumpState()
}

func (q *MemTDB) DropTable(ctx context.Context, relName string) error {
	tmlog.Zero.Debug().Str("relation", relName).Msg("memtdb: drop table")
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.Tables[relName]; !ok {
		return tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", relName)
	}
	delete(q.Tables, relName)
	return q.DumpState()
}

func (q *MemTDB) GetTable(ctx context.Context, relName string) (*Table, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	snap, ok := q.Tables[relName]
	if !ok {
		return nil, tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", relName)
	}
	return snap.Table.Copy(), nil
}

func (q *MemTDB) ListTables(ctx context.Context) ([]*Table, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	tables := make([]*Table, 0, len(q.Tables))
	for _, snap := range q.Tables {
		tables = append(tables, snap.Table.Copy())
	}
	sort.Slice(tables, func(i, j int) bool {
		return tables[i].Name < tables[j].Name
	})
	return tables, nil
}

func (q *MemTDB) BeginRead(ctx context.Context, relName string) (*Snapshot, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	snap, ok := q.Tables[relName]
	if !ok {
		return nil, tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", relName)
	}
	return snap.Copy(), nil
}

func (q *MemTDB) Commit(ctx context.Context, base *Snapshot, delta *CommitDelta) (*Snapshot, error) {
	tmlog.Zero.Debug().
		Str("relation", base.Table.Name).
		Int64("base-version", base.Version).
		Msg("memtdb: commit")

	q.mu.Lock()
	defer q.mu.Unlock()

	cur, ok := q.Tables[base.Table.Name]
	if !ok {
		return nil, tmerror.Newf(tmerror.TIDE_NO_TABLE, "relation %q not found", base.Table.Name)
	}
	if cur.Version != base.Version {
		return nil, tmerror.Newf(tmerror.TIDE_COMMIT_CONFLICT,
			"relation %q moved from version %d to %d", base.Table.Name, base.Version, cur.Version)
	}

	next, err := applyDelta(cur, delta)
	if err != nil {
		return nil, err
	}
	q.Tables[base.Table.Name] = next
	if err := q.DumpState(); err != nil {
		return nil, err
	}
	return next.Copy(), nil
}
