package tracker

import (
	"fmt"

	"boxwatch/internal/fighters"
	"boxwatch/internal/odds"
)

// Candidate is a matchup as the exchange feed reports it.
type Candidate struct {
	ParticipantA string    `yaml:"participant_a"`
	ParticipantB string    `yaml:"participant_b"`
	Odds         odds.Pair `yaml:"exchange_odds"`
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s v %s (%s)", c.ParticipantA, c.ParticipantB, c.Odds)
}

// Record is a tracked matchup. Participants are display names, keys into the
// fighter index.
type Record struct {
	Candidate `yaml:",inline"`
	Status    Status `yaml:"status"`

	ScoreA      float64 `yaml:"score_a,omitempty"`
	ScoreB      float64 `yaml:"score_b,omitempty"`
	WinPercentA float64 `yaml:"win_percent_a,omitempty"`
	WinPercentB float64 `yaml:"win_percent_b,omitempty"`
	// Notified is set when a notification was actually delivered, a record
	// can reach the Notified status without one.
	Notified bool `yaml:"notified,omitempty"`
}

func NewRecord(candidate Candidate) Record {
	return Record{Candidate: candidate, Status: MissingFighters}
}

// Matches reports whether the record tracks the same quote as candidate.
func (r Record) Matches(candidate Candidate) bool {
	return r.Candidate == candidate
}

// Notification is handed to a Notifier when our estimate for a fighter beats
// the exchange's by more than the notify threshold.
type Notification struct {
	WinnerToBe    fighters.Identity
	LoserToBe     fighters.Identity
	OurWinPercent float64
	// ExchangeWinPercent is the winner's implied percentage on the exchange.
	ExchangeWinPercent float64
	ExchangeOdds       odds.Pair
	// WinnerOdds is the exchange quote on the winner.
	WinnerOdds odds.Fraction
	// Warning is set when both fighters have too thin a record to trust the
	// estimate.
	Warning bool
}

// Divergence is how many percentage points our estimate beats the exchange.
func (n Notification) Divergence() float64 {
	return n.OurWinPercent - n.ExchangeWinPercent
}

func (n Notification) String() string {
	return fmt.Sprintf(
		"%s to beat %s: %.1f%% vs exchange %.1f%% at %s",
		n.WinnerToBe.DisplayName,
		n.LoserToBe.DisplayName,
		n.OurWinPercent,
		n.ExchangeWinPercent,
		n.WinnerOdds,
	)
}
