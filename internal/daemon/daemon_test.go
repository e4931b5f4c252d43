package daemon

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"boxwatch/internal/cache"
	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/feed"
	"boxwatch/internal/fighters"
	"boxwatch/internal/notify"
	"boxwatch/internal/odds"
	"boxwatch/internal/scrapers/boxrec"
	"boxwatch/internal/tracker"

	"github.com/stretchr/testify/require"
)

type staticResolver map[string]string

func (r staticResolver) Resolve(_ context.Context, name string) (fighters.Identity, bool) {
	id, ok := r[name]
	return fighters.Identity{Id: id, DisplayName: name}, ok
}

type staticResults struct {
	body string
	err  error
}

func (r staticResults) FetchResultsPage(context.Context, string, string) (boxrec.Page, error) {
	if r.err != nil {
		return boxrec.Page{}, r.err
	}
	return boxrec.ParsePage(&url.URL{Path: "/en/event/1/2"}, 200, strings.NewReader(r.body))
}

type countingNotifier struct {
	count int
}

func (n *countingNotifier) Notify(context.Context, tracker.Notification) error {
	n.count++
	return nil
}

type failingFeed struct{}

func (failingFeed) Candidates(context.Context) ([]tracker.Candidate, error) {
	return nil, errors.New("exchange unreachable")
}

var matchup = tracker.Candidate{
	ParticipantA: "Floyd Mayweather",
	ParticipantB: "Conor McGregor",
	Odds:         odds.Pair{A: odds.MustFraction(2, 1), B: odds.MustFraction(1, 3)},
}

const ratings = `<html><body><table><tr><td>8.6</td><td>after fight</td><td>4.2</td></tr></table></body></html>`

func newTracker(state tracker.State, results staticResults, notifier tracker.Notifier, tel telemetry.API) *tracker.Tracker {
	return tracker.New(
		state,
		staticResolver{"Floyd Mayweather": "352", "Conor McGregor": "802658"},
		results,
		notifier,
		tracker.Options{NotifyThreshold: 15, WarningThreshold: 2},
		tel,
	)
}

func TestOncePersists(t *testing.T) {
	dir := t.TempDir()
	tel := telemetry.NewTestAPI()
	notifier := &countingNotifier{}
	tr := newTracker(tracker.State{}, staticResults{body: ratings}, notifier, tel)

	d := New(feed.Static{matchup}, tr, Options{CacheDir: dir, RecheckDelay: time.Hour}, chrono.NewStandardImpl(), tel)
	require.NoError(t, d.Once(context.Background()))
	require.Equal(t, 1, notifier.count)

	state, err := cache.Load(dir)
	require.NoError(t, err)
	require.Len(t, state.Matchups, 1)
	require.Equal(t, tracker.Notified, state.Matchups[0].Status)
	require.Equal(t, 2, state.Fighters.Len())

	// a restart picks up where the last run stopped
	restarted := newTracker(state, staticResults{body: ratings}, notifier, tel)
	d = New(feed.Static{matchup}, restarted, Options{CacheDir: dir, RecheckDelay: time.Hour}, chrono.NewStandardImpl(), tel)
	require.NoError(t, d.Once(context.Background()))
	require.Equal(t, 1, notifier.count)
	require.Len(t, restarted.Records(), 1)
}

func TestOnceSurvivesFeedFailure(t *testing.T) {
	tel := telemetry.NewTestAPI()
	tr := newTracker(tracker.State{}, staticResults{body: ratings}, &countingNotifier{}, tel)
	d := New(failingFeed{}, tr, Options{CacheDir: t.TempDir(), RecheckDelay: time.Hour}, chrono.NewStandardImpl(), tel)

	require.NoError(t, d.Once(context.Background()))
	require.Len(t, tel.Warnings(), 1)
}

func TestOnceSavesBeforeFatalError(t *testing.T) {
	dir := t.TempDir()
	tel := telemetry.NewTestAPI()
	results := staticResults{err: &boxrec.TransportError{Method: "GET", Url: "/en/proboxer/352", Status: 502}}
	tr := newTracker(tracker.State{}, results, &countingNotifier{}, tel)
	d := New(feed.Static{matchup}, tr, Options{CacheDir: dir, RecheckDelay: time.Hour}, chrono.NewStandardImpl(), tel)

	err := d.Once(context.Background())
	var terr *boxrec.TransportError
	require.True(t, errors.As(err, &terr))

	state, err := cache.Load(dir)
	require.NoError(t, err)
	require.Equal(t, tracker.MissingResultsPage, state.Matchups[0].Status)
}

func TestRunWaitsBetweenPasses(t *testing.T) {
	clock := chrono.NewFakeImpl(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	tel := telemetry.NewTestAPI()
	tr := newTracker(tracker.State{}, staticResults{body: ratings}, &countingNotifier{}, tel)
	d := New(feed.Static{matchup}, tr, Options{CacheDir: t.TempDir(), RecheckDelay: time.Hour}, clock, tel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	waits := 0
	clock.OnSleep(func(time.Time) {
		waits++
		if waits == 3 {
			cancel()
		}
	})

	require.NoError(t, d.Run(ctx))
	require.Equal(t, []time.Duration{time.Hour, time.Hour, time.Hour}, clock.Slept())
}

func TestRunAnswersStatusRequests(t *testing.T) {
	tel := telemetry.NewTestAPI()
	tr := newTracker(tracker.State{}, staticResults{body: ratings}, &countingNotifier{}, tel)
	requests := make(chan notify.StatusRequest)
	d := New(feed.Static{matchup}, tr, Options{
		CacheDir:       t.TempDir(),
		RecheckDelay:   time.Hour,
		StatusRequests: requests,
	}, chrono.NewStandardImpl(), tel)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- d.Run(ctx)
	}()

	reply := make(chan string, 1)
	requests <- notify.StatusRequest{Reply: reply}
	require.Equal(
		t,
		"1 matchups tracked: 0 MissingFighters, 0 MissingResultsPage, 0 Scored, 1 Notified. 1 notifications sent.",
		<-reply,
	)

	cancel()
	require.NoError(t, <-done)
}
