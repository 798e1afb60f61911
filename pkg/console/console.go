package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidemark-db/tidemark/generator"
	"github.com/tidemark-db/tidemark/pkg/meta"
	"github.com/tidemark-db/tidemark/pkg/tmlog"
	"github.com/tidemark-db/tidemark/tdb"
)

// Statement is a pre-parsed admin command. SQL text parsing happens
// outside the engine; the console only dispatches.
type Statement interface {
	iStatement()
}

type CreateTable struct {
	Table *tdb.Table
}

type DropTable struct {
	Table string
}

type InsertRows struct {
	Table string
	Rows  []*tdb.Row
}

type DeleteRows struct {
	Table  string
	RowIDs []string
}

// SyncIdentity is ALTER TABLE <table> ALTER COLUMN <column> SYNC IDENTITY.
type SyncIdentity struct {
	Table  string
	Column string
}

type ShowTables struct{}

func (*CreateTable) iStatement()  {}
func (*DropTable) iStatement()    {}
func (*InsertRows) iStatement()   {}
func (*DeleteRows) iStatement()   {}
func (*SyncIdentity) iStatement() {}
func (*ShowTables) iStatement()   {}

// Proc dispatches one statement. Errors propagate to the caller untouched:
// a failed statement leaves the table version unchanged.
func Proc(ctx context.Context, tstmt Statement, mgr meta.EntityMgr, gen generator.ValueGenerator) (string, error) {
	tmlog.Zero.Debug().Interface("tstmt", tstmt).Msg("console: processing statement")

	switch stmt := tstmt.(type) {
	case *CreateTable:
		if err := mgr.CreateTable(ctx, stmt.Table); err != nil {
			return "", err
		}
		return fmt.Sprintf("CREATE TABLE %s", stmt.Table.Name), nil
	case *DropTable:
		if err := mgr.DropTable(ctx, stmt.Table); err != nil {
			return "", err
		}
		return fmt.Sprintf("DROP TABLE %s", stmt.Table), nil
	case *InsertRows:
		snap, err := gen.Insert(ctx, stmt.Table, stmt.Rows)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("INSERT %d, version %d", len(stmt.Rows), snap.Version), nil
	case *DeleteRows:
		if err := mgr.DeleteRows(ctx, stmt.Table, stmt.RowIDs); err != nil {
			return "", err
		}
		return fmt.Sprintf("DELETE %d", len(stmt.RowIDs)), nil
	case *SyncIdentity:
		if err := mgr.SyncIdentity(ctx, stmt.Table, stmt.Column); err != nil {
			return "", err
		}
		return fmt.Sprintf("SYNC IDENTITY %s.%s", stmt.Table, stmt.Column), nil
	case *ShowTables:
		tables, err := mgr.ListTables(ctx)
		if err != nil {
			return "", err
		}
		names := make([]string, len(tables))
		for i, tbl := range tables {
			names[i] = tbl.Name
		}
		return fmt.Sprintf("TABLES: %s", strings.Join(names, ", ")), nil
	default:
		return "", fmt.Errorf("unknown console statement %T", tstmt)
	}
}
