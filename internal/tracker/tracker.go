package tracker

import (
	"context"
	"errors"
	"fmt"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/fighters"
	"boxwatch/internal/odds"
	"boxwatch/internal/scrapers/boxrec"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_tracker_merge          = "tracker.merge"
	report_tracker_resolve        = "tracker.resolve"
	report_tracker_results        = "tracker.results"
	report_tracker_notify         = "tracker.notify"
	report_tracker_status_count   = "tracker.status-count"
	report_tracker_pass_completed = "tracker.pass-completed"
)

var tracer = otel.Tracer("boxwatch/internal/tracker")

// Resolver finds the boxrec identity of a fighter by display name.
type Resolver interface {
	Resolve(ctx context.Context, name string) (fighters.Identity, bool)
}

// ResultsSource fetches the page of the scheduled bout between a fighter and
// an opponent.
type ResultsSource interface {
	FetchResultsPage(ctx context.Context, fighterId, opponentName string) (boxrec.Page, error)
}

type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type Options struct {
	// NotifyThreshold is how many percentage points our estimate has to beat
	// the exchange by for a notification.
	NotifyThreshold float64
	// WarningThreshold flags notifications whose combined scores are below
	// twice this value.
	WarningThreshold float64
}

// State is everything the tracker persists between runs.
type State struct {
	Fighters *fighters.Index
	Matchups []Record
}

// Tracker drives every tracked matchup through its statuses. It is not safe
// for concurrent use.
type Tracker struct {
	index    *fighters.Index
	records  []Record
	resolver Resolver
	results  ResultsSource
	notifier Notifier
	opts     Options
	tel      telemetry.API
}

func New(
	state State,
	resolver Resolver,
	results ResultsSource,
	notifier Notifier,
	opts Options,
	tel telemetry.API,
) *Tracker {
	assert.NotNil(resolver)
	assert.NotNil(results)
	assert.NotNil(notifier)
	assert.NotNil(tel)

	index := state.Fighters
	if index == nil {
		index = fighters.NewIndex()
	}
	return &Tracker{
		index:    index,
		records:  append([]Record(nil), state.Matchups...),
		resolver: resolver,
		results:  results,
		notifier: notifier,
		opts:     opts,
		tel:      telemetry.NewScopedAPI("tracker", tel),
	}
}

// Export returns a copy of the tracker state for persisting.
func (t *Tracker) Export() State {
	return State{
		Fighters: fighters.NewIndex(t.index.All()...),
		Matchups: append([]Record(nil), t.records...),
	}
}

func (t *Tracker) Records() []Record {
	return append([]Record(nil), t.records...)
}

// Merge starts tracking every candidate not already tracked and returns how
// many were added.
func (t *Tracker) Merge(candidates []Candidate) int {
	added := 0
	for _, candidate := range candidates {
		if t.tracked(candidate) {
			continue
		}
		t.records = append(t.records, NewRecord(candidate))
		t.tel.ReportDebug("tracking matchup", candidate.String())
		added++
	}
	if added > 0 {
		t.tel.ReportDebug(report_tracker_merge, added, len(t.records))
	}
	return added
}

func (t *Tracker) tracked(candidate Candidate) bool {
	for _, record := range t.records {
		if record.Matches(candidate) {
			return true
		}
	}
	return false
}

// Pass moves every record as far as it currently can. Failures to resolve,
// fetch or extract leave a record where it stalled for the next pass, only
// context cancellation, transport errors and status overruns end the pass
// early.
func (t *Tracker) Pass(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "tracker.pass")
	defer span.End()
	span.SetAttributes(attribute.Int("records", len(t.records)))

	for i := range t.records {
		err := ctx.Err()
		if err == nil {
			err = t.step(ctx, &t.records[i])
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	summary := t.Summary()
	for _, status := range Statuses {
		t.tel.ReportCount(fmt.Sprintf("%s.%s", report_tracker_status_count, status), int64(summary[status]))
		span.SetAttributes(attribute.Int(status.String(), summary[status]))
	}
	t.tel.ReportDebug(report_tracker_pass_completed, len(t.records))
	return nil
}

// Summary counts the records in each status.
func (t *Tracker) Summary() map[Status]int {
	out := make(map[Status]int, len(Statuses))
	for _, status := range Statuses {
		out[status] = 0
	}
	for _, record := range t.records {
		out[record.Status]++
	}
	return out
}

func advance(record *Record) error {
	next, err := record.Status.Advance()
	if err != nil {
		return err
	}
	record.Status = next
	return nil
}

// step runs record through as many statuses as it can, a nil error with an
// unchanged status means it stalled.
func (t *Tracker) step(ctx context.Context, record *Record) error {
	for {
		var (
			ok  bool
			err error
		)
		switch record.Status {
		case MissingFighters:
			ok = t.resolveFighters(ctx, record)
		case MissingResultsPage:
			ok, err = t.scoreRecord(ctx, record)
		case Scored:
			t.compareAndNotify(ctx, record)
			ok = true
		case Notified:
			return nil
		default:
			return fmt.Errorf("tracker: record %s has unknown status %s", record.Candidate, record.Status)
		}
		if err != nil || !ok {
			return err
		}

		err = advance(record)
		if err != nil {
			return err
		}
	}
}

// lookup returns the indexed identity for name, resolving and indexing it
// on a miss.
func (t *Tracker) lookup(ctx context.Context, name string) (fighters.Identity, bool) {
	identity, ok := t.index.Get(name)
	if ok {
		return identity, true
	}
	identity, ok = t.resolver.Resolve(ctx, name)
	if !ok {
		return fighters.Identity{}, false
	}
	identity.DisplayName = name
	t.index.Add(identity)
	return identity, true
}

func (t *Tracker) resolveFighters(ctx context.Context, record *Record) bool {
	_, okA := t.lookup(ctx, record.ParticipantA)
	_, okB := t.lookup(ctx, record.ParticipantB)
	if !okA || !okB {
		t.tel.ReportWarning(
			report_tracker_resolve,
			"could not resolve both fighters",
			record.ParticipantA, okA,
			record.ParticipantB, okB,
		)
		return false
	}
	return true
}

func (t *Tracker) scoreRecord(ctx context.Context, record *Record) (bool, error) {
	// a cache restored without its fighters file still needs the identities
	fighterA, okA := t.lookup(ctx, record.ParticipantA)
	fighterB, okB := t.lookup(ctx, record.ParticipantB)
	if !okA || !okB {
		t.tel.ReportWarning(report_tracker_results, "fighters missing from index and unresolvable", record.Candidate.String())
		return false, nil
	}

	page, err := t.results.FetchResultsPage(ctx, fighterA.Id, fighterB.SearchName())
	if err != nil {
		var terr *boxrec.TransportError
		if errors.As(err, &terr) {
			return false, err
		}
		t.tel.ReportWarning(report_tracker_results, err, record.ParticipantA, record.ParticipantB)
		return false, nil
	}

	scores, err := boxrec.ExtractScores(page)
	if err != nil {
		t.tel.ReportWarning(report_tracker_results, err, record.ParticipantA, record.ParticipantB, page.Url.String())
		return false, nil
	}
	winA, winB, err := odds.WinPercent(scores.A, scores.B)
	if err != nil {
		t.tel.ReportWarning(report_tracker_results, err, record.ParticipantA, record.ParticipantB)
		return false, nil
	}

	record.ScoreA = scores.A
	record.ScoreB = scores.B
	record.WinPercentA = winA
	record.WinPercentB = winB
	return true, nil
}

// compareAndNotify notifies about at most one side, checking A first.
func (t *Tracker) compareAndNotify(ctx context.Context, record *Record) {
	fighterA, _ := t.index.Get(record.ParticipantA)
	fighterB, _ := t.index.Get(record.ParticipantB)

	notification := Notification{
		ExchangeOdds: record.Odds,
		Warning:      record.ScoreA+record.ScoreB < 2*t.opts.WarningThreshold,
	}
	switch {
	case record.WinPercentA-record.Odds.A.ImpliedPercent() > t.opts.NotifyThreshold:
		notification.WinnerToBe = fighterA
		notification.LoserToBe = fighterB
		notification.OurWinPercent = record.WinPercentA
		notification.ExchangeWinPercent = record.Odds.A.ImpliedPercent()
		notification.WinnerOdds = record.Odds.A
	case record.WinPercentB-record.Odds.B.ImpliedPercent() > t.opts.NotifyThreshold:
		notification.WinnerToBe = fighterB
		notification.LoserToBe = fighterA
		notification.OurWinPercent = record.WinPercentB
		notification.ExchangeWinPercent = record.Odds.B.ImpliedPercent()
		notification.WinnerOdds = record.Odds.B
	default:
		t.tel.ReportDebug(
			"no divergence",
			record.Candidate.String(),
			record.WinPercentA,
			record.WinPercentB,
		)
		return
	}

	err := t.notifier.Notify(ctx, notification)
	if err != nil {
		t.tel.ReportBroken(report_tracker_notify, err, notification.String())
		return
	}
	record.Notified = true
}
