package tdbgen_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidemark-db/tidemark/generator/tdbgen"
	"github.com/tidemark-db/tidemark/pkg/meta"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/tdb"
)

func prepare(t *testing.T, mode string, start, step int64) tdb.TDB {
	t.Helper()
	memtdb, err := tdb.NewMemTDB("")
	assert.NoError(t, err)
	mgr := meta.NewManager(memtdb)
	assert.NoError(t, mgr.CreateTable(context.TODO(), &tdb.Table{
		Name:   "events",
		Format: tdb.FormatNative,
		Columns: []*tdb.Column{
			{Name: "id", Type: "integer", Identity: &tdb.IdentitySpec{Mode: mode, Start: start, Step: step}},
			{Name: "payload", Type: "integer"},
		},
	}))
	return memtdb
}

func TestInsertGeneratesInRowOrder(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	db := prepare(t, "BY_DEFAULT", 100, 2)
	gen := tdbgen.NewTDBGen(db)

	snap, err := gen.Insert(ctx, "events", []*tdb.Row{
		{Values: map[string]int64{"payload": 1}},
		{Values: map[string]int64{"payload": 2}},
		{Values: map[string]int64{"payload": 3}},
	})
	assert.NoError(err)
	assert.Equal([]int64{100, 102, 104}, snap.ColumnValues("id"))
	// advanced watermark lands in the same commit
	assert.Equal(int64(104), snap.Table.Column("id").Identity.HighWaterMark)
	assert.Equal(int64(2), snap.Version)

	// every row got a fresh id
	seen := map[string]struct{}{}
	for _, r := range snap.Rows {
		assert.NotEmpty(r.ID)
		seen[r.ID] = struct{}{}
	}
	assert.Len(seen, 3)
}

func TestInsertExplicitValueBypassesGeneration(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	db := prepare(t, "BY_DEFAULT", 100, 2)
	gen := tdbgen.NewTDBGen(db)

	snap, err := gen.Insert(ctx, "events", []*tdb.Row{
		{Values: map[string]int64{"id": 7}},
		{Values: map[string]int64{}},
		{Values: map[string]int64{"id": 1000}},
	})
	assert.NoError(err)
	assert.Equal([]int64{7, 100, 1000}, snap.ColumnValues("id"))
	// only the generated row advanced the watermark
	assert.Equal(int64(100), snap.Table.Column("id").Identity.HighWaterMark)
}

func TestInsertGeneratedAlwaysRejectsExplicit(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	db := prepare(t, "ALWAYS", 1, 1)
	gen := tdbgen.NewTDBGen(db)

	_, err := gen.Insert(ctx, "events", []*tdb.Row{
		{Values: map[string]int64{"id": 7}},
	})
	assert.Error(err)
	assert.Equal(tmerror.TIDE_GENERATED_ALWAYS, tmerror.ErrorCode(err))

	// nothing landed
	snap, err := db.BeginRead(ctx, "events")
	assert.NoError(err)
	assert.Empty(snap.Rows)
	assert.Equal(int64(1), snap.Version)

	snap, err = gen.Insert(ctx, "events", []*tdb.Row{
		{Values: map[string]int64{"payload": 5}},
	})
	assert.NoError(err)
	assert.Equal([]int64{1}, snap.ColumnValues("id"))
}

func TestInsertAfterSyncNeverCollides(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	db := prepare(t, "BY_DEFAULT", 1, 1)
	gen := tdbgen.NewTDBGen(db)
	mgr := meta.NewManager(db)

	// manual inserts, then sync, then a burst of generated rows
	_, err := gen.Insert(ctx, "events", []*tdb.Row{
		{Values: map[string]int64{"id": 3}},
		{Values: map[string]int64{"id": 17}},
		{Values: map[string]int64{"id": 5}},
	})
	assert.NoError(err)
	assert.NoError(mgr.SyncIdentity(ctx, "events", "id"))

	rows := make([]*tdb.Row, 10)
	for i := range rows {
		rows[i] = &tdb.Row{Values: map[string]int64{}}
	}
	snap, err := gen.Insert(ctx, "events", rows)
	assert.NoError(err)

	values := snap.ColumnValues("id")
	distinct := map[int64]struct{}{}
	for _, v := range values {
		distinct[v] = struct{}{}
	}
	assert.Len(distinct, len(values))
	assert.Equal([]int64{3, 17, 5, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27}, values)
}

func TestInsertWithoutIdentityColumns(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memtdb, err := tdb.NewMemTDB("")
	assert.NoError(err)
	assert.NoError(memtdb.CreateTable(ctx, &tdb.Table{
		Name:    "plain",
		Format:  tdb.FormatNative,
		Columns: []*tdb.Column{{Name: "v", Type: "integer"}},
	}))

	gen := tdbgen.NewTDBGen(memtdb)
	snap, err := gen.Insert(ctx, "plain", []*tdb.Row{{Values: map[string]int64{"v": 9}}})
	assert.NoError(err)
	assert.Equal([]int64{9}, snap.ColumnValues("v"))
	assert.Equal(int64(2), snap.Version)
}
