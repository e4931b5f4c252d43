// client.go holds the session handling for boxrec: throttling, logging in,
// and recovering from a dropped session or a CAPTCHA challenge.

package boxrec

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/chrono"
	"boxwatch/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const (
	report_client_login     = "client.login"
	report_client_get       = "client.get"
	report_client_relogin   = "client.relogin"
	report_client_captcha   = "client.captcha"
	report_client_transport = "client.transport"
)

const DefaultBaseUrl = "https://boxrec.com"

type ClientOptions struct {
	// BaseUrl defaults to DefaultBaseUrl.
	BaseUrl      string
	RequestDelay time.Duration

	Credentials CredentialProvider
	Chooser     Chooser
	Captcha     CaptchaWaiter

	// Time defaults to the system clock.
	Time chrono.API
	Tel  telemetry.API

	// Transport replaces the cloudflare bypass transport, tests point it at
	// an httptest server.
	Transport http.RoundTripper
}

// Client is a logged-in session against boxrec. It is not safe to use
// from multiple goroutines at once apart from the throttle gate.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client
	Gate    *Gate

	creds   CredentialProvider
	chooser Chooser
	captcha CaptchaWaiter
	tel     telemetry.API
}

func NewClient(opts ClientOptions) (*Client, error) {
	assert.NotNil(opts.Tel)
	assert.NotNil(opts.Credentials)
	assert.NotNil(opts.Chooser)
	assert.NotNil(opts.Captcha)

	tel := telemetry.NewScopedAPI("boxrec_scraper", opts.Tel)

	baseUrl := opts.BaseUrl
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	parsedBaseUrl, err := url.Parse(baseUrl)
	if err != nil {
		return nil, err
	}
	clock := opts.Time
	if clock == nil {
		clock = chrono.NewStandardImpl()
	}

	httpClient := resty.New()
	httpClient.SetBaseURL(baseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.Transport != nil {
		httpClient.SetTransport(opts.Transport)
	} else {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetTimeout(time.Second * 30)

	// redirects are requests too, so they go through the gate as well
	gate := NewGate(opts.RequestDelay, clock)
	httpClient.OnBeforeRequest(gate.middleware)
	httpClient.SetRedirectPolicy(
		resty.FlexibleRedirectPolicy(10),
		resty.DomainCheckRedirectPolicy(parsedBaseUrl.Hostname()),
		resty.RedirectPolicyFunc(gate.redirectPolicy),
	)

	telemetry.InstrumentResty(httpClient, tel)

	return &Client{
		BaseUrl: parsedBaseUrl,
		Http:    httpClient,
		Gate:    gate,
		creds:   opts.Credentials,
		chooser: opts.Chooser,
		captcha: opts.Captcha,
		tel:     tel,
	}, nil
}

func (c *Client) toPage(method string, res *resty.Response) (Page, error) {
	final := res.Request.RawRequest.URL
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		final = res.RawResponse.Request.URL
	}
	page, err := parseBytes(final, res.StatusCode(), res.Body())
	if err != nil {
		return Page{}, &TransportError{Method: method, Url: final.String(), Err: err}
	}
	return page, nil
}

// Login posts the login form, success means the site did not bounce us back
// to the login page.
func (c *Client) Login(ctx context.Context) error {
	// start from an empty jar, a stale session cookie would otherwise be
	// sent alongside the new one and win
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}
	c.Http.SetCookieJar(jar)

	for {
		creds, err := c.creds.Credentials(ctx)
		if err != nil {
			c.tel.ReportBroken(report_client_login, fmt.Errorf("get credentials: %w", err))
			return fmt.Errorf("%w: %w", ErrLoginFailed, err)
		}

		res, err := c.Http.R().
			SetContext(ctx).
			SetFormData(map[string]string{
				"_username":    creds.Username,
				"_password":    creds.Password,
				"_remember_me": "on",
				"login[go]":    "",
			}).
			Post(loginPath)
		if err != nil {
			terr := &TransportError{Method: http.MethodPost, Url: loginPath, Err: err}
			c.tel.ReportBroken(report_client_login, terr)
			return terr
		}
		page, err := c.toPage(http.MethodPost, res)
		if err != nil {
			c.tel.ReportBroken(report_client_login, err)
			return err
		}

		if page.HasCaptcha() {
			err = c.waitForCaptcha(ctx, page)
			if err != nil {
				return err
			}
			continue
		}
		if page.LoggedOut() {
			if f, ok := c.creds.(forgetter); ok {
				f.Forget()
			}
			c.tel.ReportWarning(report_client_login, ErrLoginFailed, creds.Username)
			return ErrLoginFailed
		}
		if page.Status >= 400 {
			terr := &TransportError{Method: http.MethodPost, Url: page.Url.String(), Status: page.Status}
			c.tel.ReportBroken(report_client_login, terr)
			return terr
		}

		c.tel.ReportDebug("logged in", creds.Username)
		return nil
	}
}

func (c *Client) waitForCaptcha(ctx context.Context, page Page) error {
	c.tel.ReportWarning(report_client_captcha, page.Url.String())
	err := c.captcha.WaitForCaptcha(ctx, page.Url.String())
	if err != nil {
		return fmt.Errorf("wait for captcha: %w", err)
	}
	return nil
}

// get fetches path until it yields a normal page, logging in again when the
// session was dropped and waiting on the operator when a CAPTCHA shows up.
// Transport errors are returned as is.
func (c *Client) get(ctx context.Context, path string, query url.Values) (Page, error) {
	for {
		req := c.Http.R().SetContext(ctx)
		if query != nil {
			req.SetQueryParamsFromValues(query)
		}
		res, err := req.Get(path)
		if err != nil {
			terr := &TransportError{Method: http.MethodGet, Url: path, Err: err}
			if !errors.Is(err, context.Canceled) {
				c.tel.ReportBroken(report_client_transport, terr)
			}
			return Page{}, terr
		}
		page, err := c.toPage(http.MethodGet, res)
		if err != nil {
			c.tel.ReportBroken(report_client_get, err, path)
			return Page{}, err
		}

		switch {
		case page.HasCaptcha():
			err = c.waitForCaptcha(ctx, page)
			if err != nil {
				return Page{}, err
			}
			continue
		case page.LoggedOut():
			c.tel.ReportDebug(report_client_relogin, path)
			err = c.Login(ctx)
			if err != nil {
				return Page{}, err
			}
			continue
		case page.Status == http.StatusNotFound:
			return Page{}, fmt.Errorf("%w: %s", ErrNotFound, page.Url.String())
		case page.Status >= 400:
			terr := &TransportError{Method: http.MethodGet, Url: page.Url.String(), Status: page.Status}
			c.tel.ReportBroken(report_client_transport, terr)
			return Page{}, terr
		}
		return page, nil
	}
}
