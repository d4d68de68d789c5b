package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"performer-tag-sync/core/config"
	"performer-tag-sync/core/logger"
	"performer-tag-sync/feature/tagsync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync performer tags to images, galleries and scenes",
	Long: `Copies the tags of every performer onto the images, galleries and scenes the performer
appears in. ADD mode merges the tags into the existing ones; SET mode replaces them.
Flags override the SYNC_* settings for this run.`,
	RunE: runSync,
}

func init() {
	RootCmd.AddCommand(syncCmd)

	f := syncCmd.Flags()
	f.String("mode", "", "Tag mode: ADD (merge) or SET (replace)")
	f.Int("batch-size", 0, "Entities committed per transaction")
	f.Bool("images", true, "Sync image tags")
	f.Bool("galleries", true, "Sync gallery tags")
	f.Bool("scenes", true, "Sync scene tags")
	f.Bool("exclude-organized", false, "Skip entities flagged as organized")
	f.String("exclude-tag", "", "Skip entities carrying this tag")
	f.Bool("dry-run", false, "Compute the changes without writing them")
	f.Bool("json", false, "Print the run result as JSON instead of a table")
}

// applySyncFlags copies the flags set on the command line over the loaded settings.
func applySyncFlags(cmd *cobra.Command, cfg *tagsync.Config) {
	f := cmd.Flags()
	if f.Changed("mode") {
		cfg.TagMode, _ = f.GetString("mode")
	}
	if f.Changed("batch-size") {
		cfg.BatchSize, _ = f.GetInt("batch-size")
	}
	if f.Changed("images") {
		cfg.EnableImages, _ = f.GetBool("images")
	}
	if f.Changed("galleries") {
		cfg.EnableGalleries, _ = f.GetBool("galleries")
	}
	if f.Changed("scenes") {
		cfg.EnableScenes, _ = f.GetBool("scenes")
	}
	if f.Changed("exclude-organized") {
		cfg.ExcludeOrganized, _ = f.GetBool("exclude-organized")
	}
	if f.Changed("exclude-tag") {
		cfg.ExcludeTag, _ = f.GetString("exclude-tag")
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(".")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applySyncFlags(cmd, &cfg.Sync)
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Settings are rejected before the database is touched
	if err := cfg.Sync.Validate(); err != nil {
		return err
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

	if err := newIntegrityService(cfg, db, logg).Prepare(ctx, dryRun); err != nil {
		return err
	}

	svc, err := newSyncService(cfg, db, logg)
	if err != nil {
		return err
	}

	logg.Info("Starting tag sync",
		zap.String("mode", cfg.Sync.TagMode),
		zap.Int("batch_size", cfg.Sync.BatchSize),
		zap.Bool("dry_run", dryRun))

	result, err := svc.Run(ctx, tagsync.RunOptions{DryRun: dryRun})
	if result != nil {
		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if eerr := enc.Encode(result); eerr != nil {
				logg.Error("Failed to encode result", zap.Error(eerr))
			}
		} else {
			fmt.Println(resultHeadline(result))
			fmt.Println(renderResult(result))
		}
	}
	return err
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
