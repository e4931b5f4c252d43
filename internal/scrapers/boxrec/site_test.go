package boxrec

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"
)

const captchaHtml = `<html><head><title>BoxRec</title></head><body>
<form action="/en/captcha/verify"><div class="g-recaptcha" data-sitekey="x"></div></form>
</body></html>`

const loginHtml = `<html><head><title>BoxRec: Login</title></head><body>
<form method="post" action="/en/login"><input name="_username"><input name="_password"></form>
</body></html>`

// fakeSite imitates the parts of boxrec the client talks to. Every page but
// the login page needs a valid session cookie.
type fakeSite struct {
	mu       sync.Mutex
	username string
	password string
	session  int
	captcha  bool
	clock    chrono.API

	pages    map[string]string
	search   map[string]string
	requests []string
	sentAt   []time.Time
	queries  []string
	logins   int

	// lastSessions are the session cookies sent with the most recent request
	lastSessions []string
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		username: "user",
		password: "pass",
		session:  1,
		pages:    map[string]string{},
		search:   map[string]string{},
	}
}

func (s *fakeSite) sessionValue() string {
	return fmt.Sprintf("session-%d", s.session)
}

// expire drops every session handed out so far.
func (s *fakeSite) expire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session++
}

func (s *fakeSite) setCaptcha(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.captcha = active
}

func (s *fakeSite) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *fakeSite) Logins() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins
}

func (s *fakeSite) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = append(s.requests, r.Method+" "+r.URL.Path)
	s.lastSessions = nil
	for _, cookie := range r.Cookies() {
		if cookie.Name == "PHPSESSID" {
			s.lastSessions = append(s.lastSessions, cookie.Value)
		}
	}
	if s.clock != nil {
		s.sentAt = append(s.sentAt, s.clock.Now())
	}

	if s.captcha {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, captchaHtml)
		return
	}

	if r.URL.Path == loginPath {
		if r.Method != http.MethodPost {
			fmt.Fprint(w, loginHtml)
			return
		}
		s.logins++
		_ = r.ParseForm()
		if r.PostForm.Get("_username") == s.username &&
			r.PostForm.Get("_password") == s.password &&
			r.PostForm.Get("_remember_me") == "on" {
			http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: s.sessionValue(), Path: "/"})
			http.Redirect(w, r, "/en/", http.StatusFound)
			return
		}
		http.Redirect(w, r, loginPath+"?failed=1", http.StatusFound)
		return
	}

	cookie, err := r.Cookie("PHPSESSID")
	if err != nil || cookie.Value != s.sessionValue() {
		http.Redirect(w, r, loginPath, http.StatusFound)
		return
	}

	if r.URL.Path == "/en/" {
		fmt.Fprint(w, `<html><head><title>BoxRec</title></head><body>home</body></html>`)
		return
	}
	if r.URL.Path == searchPath {
		s.queries = append(s.queries, r.URL.RawQuery)
		q := r.URL.Query()
		key := strings.ToLower(q.Get("p[first_name]") + " " + q.Get("p[last_name]"))
		body, ok := s.search[key]
		if !ok {
			body = searchHtml()
		}
		fmt.Fprint(w, body)
		return
	}
	if r.URL.Path == "/en/boom" {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	body, ok := s.pages[r.URL.Path]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `<html><head><title>BoxRec: Not Found</title></head></html>`)
		return
	}
	fmt.Fprint(w, body)
}

func searchHtml(rows ...string) string {
	return `<html><head><title>BoxRec: Search</title></head><body>
<table class="dataTable"><thead><tr><th>name</th><th>division</th></tr></thead><tbody>` +
		strings.Join(rows, "\n") +
		`</tbody></table></body></html>`
}

func searchRow(id, name, details string) string {
	return fmt.Sprintf(`<tr><td><a href="/en/proboxer/%s">%s</a></td><td>%s</td></tr>`, id, name, details)
}

func profileHtml(name string, bouts ...string) string {
	table := ""
	if len(bouts) > 0 {
		table = `<table id="scheduledBouts"><thead><tr><th>date</th><th>opponent</th></tr></thead><tbody>` +
			strings.Join(bouts, "\n") +
			`</tbody></table>`
	}
	return fmt.Sprintf(`<html><head><title>BoxRec: %s</title></head><body><h1>%s</h1>%s</body></html>`, name, name, table)
}

func boutRow(date, opponentId, opponent, eventPath string) string {
	return fmt.Sprintf(
		`<tr><td>%s</td><td><a href="/en/proboxer/%s">%s</a></td><td><a href="%s">event</a></td></tr>`,
		date, opponentId, opponent, eventPath,
	)
}

func boutHtml(rows ...string) string {
	return `<html><head><title>BoxRec: Bout</title></head><body><table class="responseLessDataTable">` +
		strings.Join(rows, "\n") +
		`</table></body></html>`
}

type fakeOperator struct {
	mu        sync.Mutex
	choice    int
	chooseErr error
	chosen    [][]Candidate
	captchas  []string
	onCaptcha func()
}

func (o *fakeOperator) Choose(_ context.Context, _ string, candidates []Candidate) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.chosen = append(o.chosen, candidates)
	return o.choice, o.chooseErr
}

func (o *fakeOperator) WaitForCaptcha(_ context.Context, url string) error {
	o.mu.Lock()
	o.captchas = append(o.captchas, url)
	onCaptcha := o.onCaptcha
	o.mu.Unlock()
	if onCaptcha != nil {
		onCaptcha()
	}
	return nil
}

type testEnv struct {
	site   *fakeSite
	server *httptest.Server
	client *Client
	op     *fakeOperator
	clock  *chrono.FakeImpl
	tel    *telemetry.TestAPI
}

func newTestEnv(t *testing.T, delay time.Duration) testEnv {
	t.Helper()

	site := newFakeSite()
	clock := chrono.NewFakeImpl(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	site.clock = clock
	server := httptest.NewServer(site)
	t.Cleanup(server.Close)

	op := &fakeOperator{onCaptcha: func() { site.setCaptcha(false) }}
	tel := telemetry.NewTestAPI()
	client, err := NewClient(ClientOptions{
		BaseUrl:      server.URL,
		RequestDelay: delay,
		Credentials:  StaticCredentials{Username: "user", Password: "pass"},
		Chooser:      op,
		Captcha:      op,
		Time:         clock,
		Tel:          tel,
		Transport:    server.Client().Transport,
	})
	if err != nil {
		t.Fatal(err)
	}

	return testEnv{
		site:   site,
		server: server,
		client: client,
		op:     op,
		clock:  clock,
		tel:    tel,
	}
}
