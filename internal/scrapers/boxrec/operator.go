package boxrec

import (
	"context"
	"errors"
)

type Credentials struct {
	Username string
	Password string
}

// CredentialProvider supplies login credentials whenever the client needs
// to (re-)authenticate.
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// forgetter is implemented by providers that cache what they were given and
// should ask again after a rejected login.
type forgetter interface {
	Forget()
}

// StaticCredentials always returns the same credentials.
type StaticCredentials Credentials

func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	if s.Username == "" || s.Password == "" {
		return Credentials{}, errors.New("boxrec scraper: missing username or password")
	}
	return Credentials(s), nil
}

// Candidate is a single fighter row out of a search.
type Candidate struct {
	Id      string
	Name    string
	Details string
}

// Chooser picks one of several ambiguous search results, returning its index
// in candidates. Returning ErrNoSelection (or any error) aborts the search.
type Chooser interface {
	Choose(ctx context.Context, query string, candidates []Candidate) (int, error)
}

// CaptchaWaiter blocks until an operator has solved the CAPTCHA at url.
type CaptchaWaiter interface {
	WaitForCaptcha(ctx context.Context, url string) error
}
