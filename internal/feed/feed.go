// Package feed supplies the exchange matchups the tracker follows.
package feed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/odds"
	"boxwatch/internal/tracker"

	"gopkg.in/yaml.v3"
)

const report_file_feed_candidates = "file_feed.candidates"

// Static always returns the same candidates.
type Static []tracker.Candidate

func (s Static) Candidates(context.Context) ([]tracker.Candidate, error) {
	return append([]tracker.Candidate(nil), s...), nil
}

type fileEntry struct {
	ParticipantA string        `yaml:"participant_a"`
	ParticipantB string        `yaml:"participant_b"`
	OddsA        odds.Fraction `yaml:"odds_a"`
	OddsB        odds.Fraction `yaml:"odds_b"`
}

// FileFeed reads candidates from a yaml file that some other process keeps
// up to date, the file is read again on every call.
//
//	- participant_a: Floyd Mayweather
//	  participant_b: Conor McGregor
//	  odds_a: 8/15
//	  odds_b: 6/4
type FileFeed struct {
	path string
	tel  telemetry.API
}

func NewFileFeed(path string, tel telemetry.API) FileFeed {
	assert.NotEmptyStr(path)
	assert.NotNil(tel)
	return FileFeed{
		path: path,
		tel:  telemetry.NewScopedAPI("feed", tel),
	}
}

func (f FileFeed) Candidates(context.Context) ([]tracker.Candidate, error) {
	content, err := os.ReadFile(f.path)
	if err != nil {
		return nil, fmt.Errorf("feed: read %s: %w", f.path, err)
	}

	var entries []fileEntry
	err = yaml.Unmarshal(content, &entries)
	if err != nil {
		return nil, fmt.Errorf("feed: parse %s: %w", f.path, err)
	}

	out := make([]tracker.Candidate, 0, len(entries))
	for i, entry := range entries {
		a := strings.TrimSpace(entry.ParticipantA)
		b := strings.TrimSpace(entry.ParticipantB)
		if a == "" || b == "" || entry.OddsA == (odds.Fraction{}) || entry.OddsB == (odds.Fraction{}) {
			f.tel.ReportWarning(report_file_feed_candidates, "incomplete entry", f.path, i)
			continue
		}
		out = append(out, tracker.Candidate{
			ParticipantA: a,
			ParticipantB: b,
			Odds:         odds.Pair{A: entry.OddsA, B: entry.OddsB},
		})
	}
	return out, nil
}
