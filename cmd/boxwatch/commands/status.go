package commands

import (
	"fmt"
	"io"
	"os"

	"boxwatch/internal/cache"
	"boxwatch/internal/tracker"
	"boxwatch/pkg/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}

func formatPercent(record tracker.Record, value float64) string {
	if record.Status < tracker.Scored {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", value)
}

func renderStatus(out io.Writer, state tracker.State) {
	t := newTable(out)
	t.SetTitle(fmt.Sprintf("%d matchups, %d fighters indexed", len(state.Matchups), state.Fighters.Len()))
	t.AppendHeader(table.Row{"A", "B", "Odds", "Status", "Win A", "Win B", "Notified"})

	counts := map[tracker.Status]int{}
	for _, record := range state.Matchups {
		counts[record.Status]++
		t.AppendRow(table.Row{
			record.ParticipantA,
			record.ParticipantB,
			record.Odds.String(),
			record.Status.String(),
			formatPercent(record, record.WinPercentA),
			formatPercent(record, record.WinPercentB),
			record.Notified,
		})
	}
	footer := table.Row{"", "", "", ""}
	for _, status := range tracker.Statuses {
		footer[3] = fmt.Sprintf("%s%s: %d\n", footer[3], status, counts[status])
	}
	t.AppendFooter(footer)
	t.Render()
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Shows the matchups in the cache.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}
		state, err := cache.Load(cfg.Tracker.CacheDir)
		if err != nil {
			serviceutil.Fatal("failed to load cache", err)
		}
		renderStatus(os.Stdout, state)
	},
}
