package commands

import (
	"sync"

	"boxwatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Tracks the feed until interrupted, rechecking on the configured delay.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setupApp(ctx)
		defer a.shutdown()
		a.login(ctx)

		var wg sync.WaitGroup
		if a.telegram != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				a.telegram.Run(ctx)
			}()
		}

		err := a.daemon.Run(ctx)
		if err != nil {
			serviceutil.Fatal("tracking stopped", err)
		}
		wg.Wait()
	},
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Runs a single tracking pass and exits.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		a := setupApp(ctx)
		defer a.shutdown()
		a.login(ctx)

		err := a.daemon.Once(ctx)
		if a.telegram != nil {
			a.telegram.Drain(ctx)
		}
		if err != nil {
			serviceutil.Fatal("tracking pass failed", err)
		}
	},
}
