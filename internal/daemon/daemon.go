// Package daemon runs tracking passes on a schedule, persisting state after
// each one.
package daemon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"boxwatch/internal/cache"
	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/notify"
	"boxwatch/internal/tracker"
)

const (
	report_daemon_feed  = "daemon.feed"
	report_daemon_added = "daemon.added"
	report_daemon_save  = "daemon.save"
)

type Feed interface {
	Candidates(ctx context.Context) ([]tracker.Candidate, error)
}

type Options struct {
	CacheDir     string
	RecheckDelay time.Duration
	// StatusRequests may be nil.
	StatusRequests <-chan notify.StatusRequest
}

type Daemon struct {
	feed    Feed
	tracker *tracker.Tracker
	opts    Options
	clock   chrono.API
	tel     telemetry.API
}

func New(feed Feed, t *tracker.Tracker, opts Options, clock chrono.API, tel telemetry.API) *Daemon {
	assert.NotNil(feed)
	assert.NotNil(t)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.NotEmptyStr(opts.CacheDir)
	assert.Positive(opts.RecheckDelay)

	return &Daemon{
		feed:    feed,
		tracker: t,
		opts:    opts,
		clock:   clock,
		tel:     telemetry.NewScopedAPI("daemon", tel),
	}
}

// Once runs a single pass: fetch the feed, merge it, move every record
// along and save the result. State is saved even when the pass fails.
func (d *Daemon) Once(ctx context.Context) error {
	candidates, err := d.feed.Candidates(ctx)
	if err != nil {
		d.tel.ReportWarning(report_daemon_feed, err)
	}
	added := d.tracker.Merge(candidates)
	d.tel.ReportCount(report_daemon_added, int64(added))

	passErr := d.tracker.Pass(ctx)

	err = cache.Save(d.opts.CacheDir, d.tracker.Export())
	if err != nil {
		d.tel.ReportBroken(report_daemon_save, err, d.opts.CacheDir)
		if passErr == nil {
			return err
		}
	}
	if passErr != nil {
		return fmt.Errorf("tracking pass: %w", passErr)
	}
	return nil
}

// Run repeats Once every RecheckDelay until ctx is done or a pass fails
// fatally. Status requests are answered while waiting between passes.
func (d *Daemon) Run(ctx context.Context) error {
	for {
		err := d.Once(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return err
		}

		d.tel.ReportDebug("waiting for next pass", d.opts.RecheckDelay.String())
		if !d.wait(ctx) {
			return nil
		}
	}
}

// wait returns false if ctx ended the wait.
func (d *Daemon) wait(ctx context.Context) bool {
	next := d.clock.After(d.opts.RecheckDelay)
	for {
		select {
		case <-ctx.Done():
			return false
		case req := <-d.opts.StatusRequests:
			select {
			case req.Reply <- StatusText(d.tracker):
			default:
				d.tel.ReportWarning("daemon.status", "status reply dropped")
			}
		case <-next:
			return true
		}
	}
}

// StatusText summarizes the tracked matchups for an operator.
func StatusText(t *tracker.Tracker) string {
	summary := t.Summary()
	records := t.Records()

	sent := 0
	for _, record := range records {
		if record.Notified {
			sent++
		}
	}

	parts := make([]string, 0, len(tracker.Statuses))
	for _, status := range tracker.Statuses {
		parts = append(parts, fmt.Sprintf("%d %s", summary[status], status))
	}
	return fmt.Sprintf(
		"%d matchups tracked: %s. %d notifications sent.",
		len(records),
		strings.Join(parts, ", "),
		sent,
	)
}
