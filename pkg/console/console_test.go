package console_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tidemark-db/tidemark/generator/tdbgen"
	"github.com/tidemark-db/tidemark/pkg/console"
	"github.com/tidemark-db/tidemark/pkg/meta"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/tdb"
)

func TestProc(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memtdb, err := tdb.NewMemTDB("")
	assert.NoError(err)
	mgr := meta.NewManager(memtdb)
	gen := tdbgen.NewTDBGen(memtdb)

	out, err := console.Proc(ctx, &console.CreateTable{Table: &tdb.Table{
		Name:   "events",
		Format: tdb.FormatNative,
		Columns: []*tdb.Column{
			{Name: "id", Type: "integer", Identity: &tdb.IdentitySpec{Mode: "BY_DEFAULT", Start: 100, Step: 2}},
		},
	}}, mgr, gen)
	assert.NoError(err)
	assert.Equal("CREATE TABLE events", out)

	out, err = console.Proc(ctx, &console.InsertRows{Table: "events", Rows: []*tdb.Row{
		{Values: map[string]int64{"id": 1}},
		{Values: map[string]int64{}},
	}}, mgr, gen)
	assert.NoError(err)
	assert.Equal("INSERT 2, version 2", out)

	out, err = console.Proc(ctx, &console.SyncIdentity{Table: "events", Column: "id"}, mgr, gen)
	assert.NoError(err)
	assert.Equal("SYNC IDENTITY events.id", out)

	out, err = console.Proc(ctx, &console.ShowTables{}, mgr, gen)
	assert.NoError(err)
	assert.Equal("TABLES: events", out)

	snap, err := memtdb.BeginRead(ctx, "events")
	assert.NoError(err)
	out, err = console.Proc(ctx, &console.DeleteRows{Table: "events", RowIDs: []string{snap.Rows[0].ID}}, mgr, gen)
	assert.NoError(err)
	assert.Equal("DELETE 1", out)

	out, err = console.Proc(ctx, &console.DropTable{Table: "events"}, mgr, gen)
	assert.NoError(err)
	assert.Equal("DROP TABLE events", out)
}

func TestProcErrorsPropagate(t *testing.T) {
	assert := assert.New(t)
	ctx := context.TODO()

	memtdb, err := tdb.NewMemTDB("")
	assert.NoError(err)
	mgr := meta.NewManager(memtdb)
	gen := tdbgen.NewTDBGen(memtdb)

	_, err = console.Proc(ctx, &console.SyncIdentity{Table: "nope", Column: "id"}, mgr, gen)
	assert.Equal(tmerror.TIDE_NO_TABLE, tmerror.ErrorCode(err))

	_, err = console.Proc(ctx, nil, mgr, gen)
	assert.Error(err)
}
