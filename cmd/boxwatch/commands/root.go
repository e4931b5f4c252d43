package commands

import (
	"context"
	"fmt"
	"os"

	"boxwatch/internal/components/telemetry"

	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "boxwatch",
	Short: "boxwatch compares exchange boxing odds against boxrec ratings and flags the outliers.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output.")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "boxwatch.json5", "The config file, <name>.local.<ext> next to it overrides it.")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
