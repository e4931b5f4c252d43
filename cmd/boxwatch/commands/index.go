package commands

import (
	"log/slog"

	"boxwatch/internal/cache"
	"boxwatch/internal/components/telemetry"
	"boxwatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	indexCmd.AddCommand(indexImportCmd)
	rootCmd.AddCommand(indexCmd)
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manages the fighter index in the cache.",
}

var indexImportCmd = &cobra.Command{
	Use:   "import <dir>",
	Short: "Adds the fighters of boxrec profile pages saved as <id>.htm in a directory.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		state, err := cache.Load(cfg.Tracker.CacheDir)
		if err != nil {
			serviceutil.Fatal("failed to load cache", err)
		}

		identities, err := cache.ImportPages(args[0], telemetry.SlogAPI{})
		if err != nil {
			serviceutil.Fatal("failed to import pages", err)
		}
		added := 0
		for _, identity := range identities {
			if state.Fighters.Add(identity) {
				added++
			}
		}

		err = cache.Save(cfg.Tracker.CacheDir, state)
		if err != nil {
			serviceutil.Fatal("failed to save cache", err)
		}
		slog.Info("imported fighters", "pages", len(identities), "added", added, "total", state.Fighters.Len())
	},
}
