package commands

import (
	"fmt"
	"io"
	"os"

	"boxwatch/internal/odds"
	"boxwatch/pkg/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(oddsCmd)
}

func renderOdds(out io.Writer, fractions []odds.Fraction) {
	t := newTable(out)
	t.AppendHeader([]any{"Odds", "Implied", "Decimal"})
	for _, f := range fractions {
		t.AppendRow([]any{f.String(), fmt.Sprintf("%.1f%%", f.ImpliedPercent()), fmt.Sprintf("%.2f", f.DecimalPayout())})
	}
	if len(fractions) == 2 {
		pair := odds.Pair{A: fractions[0], B: fractions[1]}
		t.AppendFooter([]any{
			"Without overround",
			fmt.Sprintf("%.1f%% / %.1f%%", pair.ImpliedWinPercentA(), pair.ImpliedWinPercentB()),
			"",
		})
	}
	t.Render()
}

var oddsCmd = &cobra.Command{
	Use:   "odds <fraction> [fraction]",
	Short: "Converts fractional odds (ex. 8/15, EVS) to implied win percentage and decimal payout.",
	Args:  cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		fractions := make([]odds.Fraction, 0, len(args))
		for _, arg := range args {
			f, err := odds.ParseFraction(arg)
			if err != nil {
				serviceutil.Fatal("failed to parse odds", err)
			}
			fractions = append(fractions, f)
		}
		renderOdds(os.Stdout, fractions)
	},
}
