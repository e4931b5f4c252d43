package boxrec

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"boxwatch/pkg/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_client_fetch_by_id        = "client.fetch-by-id"
	report_client_fetch_results_page = "client.fetch-results-page"
)

// FetchByID fetches the profile page of a fighter.
func (c *Client) FetchByID(ctx context.Context, id string) (Page, error) {
	page, err := c.get(ctx, "/en/proboxer/"+url.PathEscape(id), nil)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_by_id, err, id)
		return Page{}, fmt.Errorf("fetch fighter %s: %w", id, err)
	}
	return page, nil
}

// scheduledBouts returns the rows of the upcoming bouts table.
func scheduledBouts(doc *goquery.Document) *goquery.Selection {
	return doc.Find("table#scheduledBouts tbody tr, table.scheduledBouts tbody tr")
}

// findBoutLink returns the link of the first scheduled bout whose row
// mentions opponent.
func findBoutLink(doc *goquery.Document, opponent string) (*url.URL, error) {
	rows := scheduledBouts(doc)
	if rows.Length() == 0 {
		return nil, ErrNoUpcomingBout
	}

	opponent = strings.ToLower(htmlutil.NormalizeText(opponent))
	var link *url.URL
	rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
		text := strings.ToLower(htmlutil.SelectionText(row))
		if !strings.Contains(text, opponent) {
			return true
		}
		anchors := htmlutil.GetAnchors(doc.Url, row.Find("a[href*=\"/event/\"]"))
		if len(anchors) == 0 {
			return true
		}
		link = anchors[0].Url
		return false
	})
	if link == nil {
		return nil, ErrNoMatchingOpponent
	}
	return link, nil
}

// FetchResultsPage finds the scheduled bout between the given fighter and
// opponentName and fetches its bout page.
func (c *Client) FetchResultsPage(ctx context.Context, fighterId, opponentName string) (Page, error) {
	profile, err := c.FetchByID(ctx, fighterId)
	if err != nil {
		return Page{}, err
	}

	link, err := findBoutLink(profile.Doc, opponentName)
	if err != nil {
		c.tel.ReportWarning(report_client_fetch_results_page, err, fighterId, opponentName)
		return Page{}, fmt.Errorf("fighter %s vs %s: %w", fighterId, opponentName, err)
	}

	path := link.Path
	if link.RawQuery != "" {
		path += "?" + link.RawQuery
	}
	page, err := c.get(ctx, path, nil)
	if err != nil {
		c.tel.ReportBroken(report_client_fetch_results_page, err, fighterId, opponentName)
		return Page{}, fmt.Errorf("fetch bout page %s: %w", link, err)
	}
	return page, nil
}
