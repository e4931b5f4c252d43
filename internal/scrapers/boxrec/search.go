package boxrec

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"boxwatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
)

const report_client_search = "client.search"

const searchPath = "/en/search"

var proboxerIdRegex = regexp.MustCompile(`/proboxer/(\d+)`)

func searchQuery(forename, surname string, activeOnly bool) url.Values {
	status := ""
	if activeOnly {
		status = "a"
	}
	return url.Values{
		"p[first_name]": {forename},
		"p[last_name]":  {surname},
		"p[role]":       {"fighters"},
		"p[status]":     {status},
		"pf_go":         {""},
	}
}

// parseSearchResults reads the fighter rows of a search result page. Rows
// without a profile link are skipped, duplicate ids keep the first row.
func parseSearchResults(doc *goquery.Document) []Candidate {
	var out []Candidate
	seen := map[string]bool{}
	doc.Find("table.dataTable tbody tr").Each(func(_ int, row *goquery.Selection) {
		anchors := htmlutil.GetAnchors(doc.Url, row.Find("a[href*=\"/proboxer/\"]"))
		if len(anchors) == 0 {
			return
		}
		groups := proboxerIdRegex.FindStringSubmatch(anchors[0].Url.Path)
		if len(groups) < 2 || seen[groups[1]] {
			return
		}
		seen[groups[1]] = true
		out = append(out, Candidate{
			Id:      groups[1],
			Name:    anchors[0].Name,
			Details: htmlutil.SelectionText(row.Children()),
		})
	})
	return out
}

// rankCandidates sorts candidates by how closely their name resembles query.
func rankCandidates(query string, candidates []Candidate) {
	query = strings.ToLower(query)
	sort.SliceStable(candidates, func(i, j int) bool {
		return matchr.JaroWinkler(query, strings.ToLower(candidates[i].Name), false) >
			matchr.JaroWinkler(query, strings.ToLower(candidates[j].Name), false)
	})
}

// Search looks a fighter up by name and returns the id of the matching
// fighter. An exact (case-insensitive) name match wins outright, a lone
// result is accepted as is and anything else is left to the Chooser.
func (c *Client) Search(ctx context.Context, forename, surname string, activeOnly bool) (Candidate, error) {
	fullName := strings.TrimSpace(forename + " " + surname)

	page, err := c.get(ctx, searchPath, searchQuery(forename, surname, activeOnly))
	if err != nil {
		c.tel.ReportBroken(report_client_search, err, fullName)
		return Candidate{}, fmt.Errorf("search %q: %w", fullName, err)
	}

	candidates := parseSearchResults(page.Doc)
	switch len(candidates) {
	case 0:
		return Candidate{}, fmt.Errorf("%w: %s", ErrNoResults, fullName)
	case 1:
		return candidates[0], nil
	}

	for _, candidate := range candidates {
		if strings.EqualFold(candidate.Name, fullName) {
			return candidate, nil
		}
	}

	rankCandidates(fullName, candidates)
	idx, err := c.chooser.Choose(ctx, fullName, candidates)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %s: %w", ErrNoSelection, fullName, err)
	}
	if idx < 0 || idx >= len(candidates) {
		return Candidate{}, fmt.Errorf("%w: %s: index %d out of range", ErrNoSelection, fullName, idx)
	}
	return candidates[idx], nil
}
