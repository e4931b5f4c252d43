package boxrec

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("boxrec scraper: page not found")
	ErrNoResults          = errors.New("boxrec scraper: search returned no results")
	ErrNoSelection        = errors.New("boxrec scraper: no search result selected")
	ErrNoUpcomingBout     = errors.New("boxrec scraper: fighter has no scheduled bouts")
	ErrNoMatchingOpponent = errors.New("boxrec scraper: no scheduled bout against opponent")
	ErrLoginFailed        = errors.New("boxrec scraper: login failed")
	ErrScoresNotFound     = errors.New("boxrec scraper: no after-fight score row")
	ErrScoreCountMismatch = errors.New("boxrec scraper: after-fight row does not hold exactly two scores")
)

// TransportError is a failure to get any usable response out of the site,
// the client never retries these.
type TransportError struct {
	Method string
	Url    string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("boxrec scraper: %s %s: status %d", e.Method, e.Url, e.Status)
	}
	return fmt.Sprintf("boxrec scraper: %s %s: %v", e.Method, e.Url, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
