package boxrec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"boxwatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

// Scores are the boxrec ratings of both fighters after the bout, A being the
// fighter on the left of the bout page.
type Scores struct {
	A float64
	B float64
}

var scoreRegex = regexp.MustCompile(`\d*\.\d+|\d+`)

// ExtractScores reads the "after fight" ratings row of a bout page.
func ExtractScores(page Page) (Scores, error) {
	var rowText string
	page.Doc.Find("tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		// layout tables wrap the ratings table, only look at leaf rows
		if row.Find("tr").Length() > 0 {
			return true
		}
		text := htmlutil.SelectionText(row)
		if strings.Contains(strings.ToLower(text), "after fight") {
			rowText = text
			return false
		}
		return true
	})
	if rowText == "" {
		return Scores{}, ErrScoresNotFound
	}

	matches := scoreRegex.FindAllString(rowText, -1)
	if len(matches) != 2 {
		return Scores{}, fmt.Errorf("%w: found %d in %q", ErrScoreCountMismatch, len(matches), rowText)
	}
	a, err := strconv.ParseFloat(matches[0], 64)
	if err != nil {
		return Scores{}, fmt.Errorf("%w: %w", ErrScoreCountMismatch, err)
	}
	b, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return Scores{}, fmt.Errorf("%w: %w", ErrScoreCountMismatch, err)
	}
	return Scores{A: a, B: b}, nil
}
