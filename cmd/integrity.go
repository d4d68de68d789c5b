package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"performer-tag-sync/core/config"
	"performer-tag-sync/core/logger"
	"performer-tag-sync/feature/integrity/checks"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// integrityCmd represents the integrity command
var integrityCmd = &cobra.Command{
	Use:   "integrity",
	Short: "Check the stash database before syncing",
	Long: `Checks the schema version, the tables and columns used by the sync, and the
performance indexes. Run with --fix to create the missing indexes.`,
	RunE: runIntegrity,
}

func init() {
	RootCmd.AddCommand(integrityCmd)
	integrityCmd.Flags().Bool("fix", false, "Create missing indexes")
	integrityCmd.Flags().Bool("json", false, "Print the reports as JSON")
}

func runIntegrity(cmd *cobra.Command, args []string) error {
	ctx := cmdContext(cmd)
	fix, _ := cmd.Flags().GetBool("fix")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logg.Sync()

	db, err := openStash(cfg.Database, logg)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := newIntegrityService(cfg, db, logg)

	logg.Info("Checking schema version...")
	schema, err := svc.CheckSchema(ctx)
	if err != nil {
		return fmt.Errorf("schema check failed: %w", err)
	}
	if schema.Matched {
		logg.Info("Schema version is supported.", zap.Int64("version", schema.Version))
	} else {
		logg.Warn("Schema version is not in the tested versions",
			zap.Int64("version", schema.Version),
			zap.String("status", schema.Status),
			zap.Int64s("supported", schema.Supported))
	}

	logg.Info("Checking tables...")
	tables, err := svc.CheckTables()
	if err != nil {
		return fmt.Errorf("tables check failed: %w", err)
	}
	if tables.Matched {
		logg.Info("Tables are intact.")
	} else {
		for _, name := range mismatched(tables.Tables) {
			tbl := tables.Tables[name]
			logg.Warn("Missing columns", zap.String("table", name), zap.String("status", tbl.Status),
				zap.Strings("columns", tbl.MissingColumns))
		}
		for _, e := range tables.Errors {
			logg.Error("Inspection error", zap.String("error", e))
		}
	}

	logg.Info("Checking performance indexes...")
	check := svc.CheckIndexes
	if fix {
		check = svc.FixIndexes
	}
	indexes, err := check(ctx)
	if err != nil {
		return fmt.Errorf("index check failed: %w", err)
	}
	if len(indexes.Missing) == 0 {
		logg.Info("Performance indexes are present.")
	} else {
		logg.Warn("Missing indexes detected", zap.Strings("missing", indexes.Missing))
		if !fix {
			logg.Info("Run with --fix to create missing indexes.")
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{"schema": schema, "tables": tables, "indexes": indexes})
	}

	rows := make([][]string, 0, len(indexes.Indexes))
	for _, st := range indexes.Indexes {
		state := "present"
		switch {
		case st.Created:
			state = "created"
		case st.Error != "":
			state = "failed: " + st.Error
		case !st.Exists:
			state = "missing"
		}
		rows = append(rows, []string{st.Name, st.Table + "(" + st.Column + ")", state})
	}
	fmt.Println(renderTable([]string{"Index", "On", "State"}, rows, nil))

	if !tables.Matched {
		return fmt.Errorf("stash database is missing tables or columns used by the sync: %s", strings.Join(mismatched(tables.Tables), ", "))
	}
	return nil
}

// mismatched returns the sorted names of the tables that failed the check.
func mismatched(tables map[string]checks.TableReport) []string {
	var names []string
	for name, tbl := range tables {
		if tbl.Status != "ok" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
