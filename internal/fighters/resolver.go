package fighters

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"boxwatch/internal/components/assert"
	"boxwatch/internal/components/telemetry"
	"boxwatch/internal/scrapers/boxrec"
)

const report_resolver_resolve = "resolver.resolve"

var ErrMalformedName = errors.New("fighters: name needs a forename and a surname")

// SplitName splits a display name on its first run of whitespace, everything
// after it is the surname.
func SplitName(name string) (forename, surname string, err error) {
	name = strings.TrimSpace(name)
	idx := strings.IndexAny(name, " \t\n")
	if idx < 0 {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedName, name)
	}
	forename = name[:idx]
	surname = strings.TrimSpace(name[idx:])
	if surname == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedName, name)
	}
	return forename, surname, nil
}

// Searcher is the part of the boxrec client the resolver needs.
type Searcher interface {
	Search(ctx context.Context, forename, surname string, activeOnly bool) (boxrec.Candidate, error)
}

// Resolver turns display names into identities by searching boxrec.
type Resolver struct {
	searcher   Searcher
	activeOnly bool
	tel        telemetry.API
}

func NewResolver(searcher Searcher, activeOnly bool, tel telemetry.API) Resolver {
	assert.NotNil(searcher)
	assert.NotNil(tel)
	return Resolver{
		searcher:   searcher,
		activeOnly: activeOnly,
		tel:        telemetry.NewScopedAPI("resolver", tel),
	}
}

// Resolve looks name up on boxrec. Failures are reported and come back as
// ok = false so the caller can simply try again later.
func (r Resolver) Resolve(ctx context.Context, name string) (Identity, bool) {
	forename, surname, err := SplitName(name)
	if err != nil {
		r.tel.ReportWarning(report_resolver_resolve, err, name)
		return Identity{}, false
	}

	candidate, err := r.searcher.Search(ctx, forename, surname, r.activeOnly)
	if err != nil {
		r.tel.ReportWarning(report_resolver_resolve, err, name)
		return Identity{}, false
	}

	r.tel.ReportDebug("resolved fighter", name, candidate.Id, candidate.Name)
	return Identity{
		Id:          candidate.Id,
		DisplayName: name,
		RecordName:  candidate.Name,
	}, true
}
