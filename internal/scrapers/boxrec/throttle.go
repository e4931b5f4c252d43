package boxrec

import (
	"context"
	"net/http"
	"sync"
	"time"

	"boxwatch/internal/components/chrono"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// Gate spaces outbound requests at least delay apart. Requests are spaced
// by when they are released for sending, so the delay bounds the request
// rate rather than the gap between a response and the next request.
type Gate struct {
	// burst of 1 so no two requests are ever released within delay
	limiter *rate.Limiter
	clock   chrono.API

	mu       sync.Mutex
	lastSent time.Time
	sent     bool
}

func NewGate(delay time.Duration, clock chrono.API) *Gate {
	return &Gate{
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		clock:   clock,
	}
}

// Wait blocks until the next request may be sent and records it as sent.
func (g *Gate) Wait(ctx context.Context) error {
	now := g.clock.Now()
	reservation := g.limiter.ReserveN(now, 1)
	wait := reservation.DelayFrom(now)
	if wait > 0 {
		err := g.clock.Sleep(ctx, wait)
		if err != nil {
			reservation.CancelAt(g.clock.Now())
			return err
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	releasedAt := now.Add(wait)
	if !g.sent || releasedAt.After(g.lastSent) {
		g.lastSent = releasedAt
	}
	g.sent = true
	return nil
}

// LastSent returns the release time of the most recent request.
func (g *Gate) LastSent() (time.Time, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastSent, g.sent
}

func (g *Gate) middleware(_ *resty.Client, req *resty.Request) error {
	return g.Wait(req.Context())
}

func (g *Gate) redirectPolicy(req *http.Request, _ []*http.Request) error {
	return g.Wait(req.Context())
}
