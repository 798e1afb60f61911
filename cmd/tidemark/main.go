package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/pkg/errors"
	retry "github.com/sethvargo/go-retry"
	"github.com/spf13/cobra"

	"github.com/tidemark-db/tidemark/generator/tdbgen"
	"github.com/tidemark-db/tidemark/pkg"
	"github.com/tidemark-db/tidemark/pkg/config"
	"github.com/tidemark-db/tidemark/pkg/console"
	"github.com/tidemark-db/tidemark/pkg/meta"
	"github.com/tidemark-db/tidemark/pkg/models/tmerror"
	"github.com/tidemark-db/tidemark/pkg/tmlog"
	"github.com/tidemark-db/tidemark/tdb"
)

var (
	rcfgPath string

	relName  string
	colName  string
	dataPath string
	rowIDs   []string

	rootCmd = &cobra.Command{
		Use:   "tidemark <command> --config `path-to-config-file`",
		Short: "tidemark",
		Long:  "tidemark – versioned table metadata engine with identity columns",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		Version:       pkg.TidemarkVersionRevision,
		SilenceUsage:  false,
		SilenceErrors: false,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&rcfgPath, "config", "c", "/etc/tidemark/engine.yaml", "path to engine config file")

	syncCmd.Flags().StringVarP(&relName, "table", "t", "", "relation to sync")
	syncCmd.Flags().StringVarP(&colName, "column", "l", "", "identity column to sync")

	createTableCmd.Flags().StringVarP(&dataPath, "schema", "s", "", "path to JSON table definition")

	dropTableCmd.Flags().StringVarP(&relName, "table", "t", "", "relation to drop")

	insertCmd.Flags().StringVarP(&relName, "table", "t", "", "relation to insert into")
	insertCmd.Flags().StringVarP(&dataPath, "rows", "r", "", "path to JSON row list")

	deleteCmd.Flags().StringVarP(&relName, "table", "t", "", "relation to delete from")
	deleteCmd.Flags().StringArrayVarP(&rowIDs, "row", "r", nil, "row id to delete, repeatable")

	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(createTableCmd)
	rootCmd.AddCommand(dropTableCmd)
	rootCmd.AddCommand(insertCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(tablesCmd)
}

func setup() (*meta.Manager, error) {
	if err := config.LoadEngineCfg(rcfgPath); err != nil {
		return nil, err
	}
	ecfg := config.EngineConfig()

	tmlog.ReloadLogger(ecfg.LogFileName)
	if err := tmlog.UpdateZeroLogLevel(ecfg.LogLevel); err != nil {
		return nil, err
	}

	db, err := tdb.NewTDB(ecfg.TdbType)
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize tdb")
	}
	return meta.NewManager(db), nil
}

func report(out string) {
	tmlog.Zero.Info().Msg(out)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "recompute the high-water-mark of an identity column",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		// Commit conflicts are retryable, always from a fresh snapshot.
		b := retry.WithMaxRetries(10, retry.NewFibonacci(20*time.Millisecond))
		return retry.Do(cmd.Context(), b, func(ctx context.Context) error {
			out, err := console.Proc(ctx, &console.SyncIdentity{Table: relName, Column: colName}, mgr, nil)
			if err != nil {
				if tmerror.IsConflict(err) {
					return retry.RetryableError(err)
				}
				return err
			}
			report(out)
			return nil
		})
	},
}

var createTableCmd = &cobra.Command{
	Use:   "create-table",
	Short: "create a table from a JSON definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		var tbl tdb.Table
		if err := decodeFile(dataPath, &tbl); err != nil {
			return err
		}
		out, err := console.Proc(cmd.Context(), &console.CreateTable{Table: &tbl}, mgr, nil)
		if err != nil {
			return err
		}
		report(out)
		return nil
	},
}

var dropTableCmd = &cobra.Command{
	Use:   "drop-table",
	Short: "drop a table",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		out, err := console.Proc(cmd.Context(), &console.DropTable{Table: relName}, mgr, nil)
		if err != nil {
			return err
		}
		report(out)
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "insert rows, generating identity values for omitted columns",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		var rows []*tdb.Row
		if err := decodeFile(dataPath, &rows); err != nil {
			return err
		}
		gen := tdbgen.NewTDBGen(mgr.TDB())
		out, err := console.Proc(cmd.Context(), &console.InsertRows{Table: relName, Rows: rows}, mgr, gen)
		if err != nil {
			return err
		}
		report(out)
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "delete rows by id",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		out, err := console.Proc(cmd.Context(), &console.DeleteRows{Table: relName, RowIDs: rowIDs}, mgr, nil)
		if err != nil {
			return err
		}
		report(out)
		return nil
	},
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "list tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := setup()
		if err != nil {
			return err
		}

		out, err := console.Proc(cmd.Context(), &console.ShowTables{}, mgr, nil)
		if err != nil {
			return err
		}
		report(out)
		return nil
	},
}

func decodeFile(path string, v any) error {
	if path == "" {
		return errors.New("no input file given")
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewDecoder(f).Decode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		tmlog.Zero.Fatal().Err(err).Msg("")
	}
}
