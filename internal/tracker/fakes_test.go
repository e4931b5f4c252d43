package tracker

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"boxwatch/internal/fighters"
	"boxwatch/internal/scrapers/boxrec"
)

type fakeResolver struct {
	identities map[string]fighters.Identity
	calls      map[string]int
}

func newFakeResolver(identities ...fighters.Identity) *fakeResolver {
	r := &fakeResolver{
		identities: map[string]fighters.Identity{},
		calls:      map[string]int{},
	}
	for _, identity := range identities {
		r.identities[identity.DisplayName] = identity
	}
	return r
}

func (r *fakeResolver) Resolve(_ context.Context, name string) (fighters.Identity, bool) {
	r.calls[name]++
	identity, ok := r.identities[name]
	return identity, ok
}

type fakeResults struct {
	pages map[string]string
	errs  map[string]error
	calls int
}

func newFakeResults() *fakeResults {
	return &fakeResults{pages: map[string]string{}, errs: map[string]error{}}
}

func resultsKey(fighterId, opponent string) string {
	return fighterId + "|" + strings.ToLower(opponent)
}

func scoresHtml(a, b string) string {
	return fmt.Sprintf(
		`<html><body><table><tr><td>%s</td><td>after fight</td><td>%s</td></tr></table></body></html>`,
		a, b,
	)
}

func (r *fakeResults) FetchResultsPage(_ context.Context, fighterId, opponentName string) (boxrec.Page, error) {
	r.calls++
	key := resultsKey(fighterId, opponentName)
	if err, ok := r.errs[key]; ok {
		return boxrec.Page{}, err
	}
	body, ok := r.pages[key]
	if !ok {
		return boxrec.Page{}, boxrec.ErrNoMatchingOpponent
	}
	return boxrec.ParsePage(&url.URL{Path: "/en/event/1/2"}, 200, strings.NewReader(body))
}

type recordingNotifier struct {
	mu            sync.Mutex
	notifications []Notification
	err           error
}

func (n *recordingNotifier) Notify(_ context.Context, notification Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notifications = append(n.notifications, notification)
	return nil
}
