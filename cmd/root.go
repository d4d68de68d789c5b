package cmd

import (
	"fmt"
	"os"

	"performer-tag-sync/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "performer-tag-sync",
	Short: "Performer Tag Sync",
	Long: `Performer Tag Sync copies the tags of performers onto the images, galleries
and scenes they appear in, directly in the stash database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// "debug" gives ISO8601 timestamps (development config) instead of epoch
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
