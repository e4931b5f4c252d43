package telemetry

import (
	"fmt"
	"sync"
)

// Report is a single call recorded by TestAPI.
type Report struct {
	ID     string
	Params []any
}

func (r Report) String() string {
	return fmt.Sprintf("%s %v", r.ID, r.Params)
}

// TestAPI records every report in memory so tests can assert on what was
// reported.
type TestAPI struct {
	mu       sync.Mutex
	broken   []Report
	warnings []Report
	debug    []Report
	counts   map[string]int64
}

func NewTestAPI() *TestAPI {
	return &TestAPI{counts: map[string]int64{}}
}

func (t *TestAPI) ReportBroken(id string, params ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.broken = append(t.broken, Report{ID: id, Params: params})
}

func (t *TestAPI) ReportWarning(id string, params ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.warnings = append(t.warnings, Report{ID: id, Params: params})
}

func (t *TestAPI) ReportDebug(msg string, params ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.debug = append(t.debug, Report{ID: msg, Params: params})
}

func (t *TestAPI) ReportCount(id string, count int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[id] = count
}

func (t *TestAPI) Broken() []Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Report(nil), t.broken...)
}

func (t *TestAPI) Warnings() []Report {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Report(nil), t.warnings...)
}

func (t *TestAPI) Count(id string) (int64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.counts[id]
	return n, ok
}
