package boxrec

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	cases := []struct {
		name       string
		forename   string
		surname    string
		rows       []string
		choice     int
		expectId   string
		expectErr  error
		expectAsks int
	}{
		{
			name:     "exact match among many",
			forename: "Tyson",
			surname:  "Fury",
			rows: []string{
				searchRow("1", "Tyson Fury Jr", "heavyweight"),
				searchRow("2", "tyson fury", "heavyweight"),
				searchRow("3", "Tommy Fury", "cruiserweight"),
			},
			expectId: "2",
		},
		{
			name:     "single non-exact result",
			forename: "Floyd",
			surname:  "Mayweather",
			rows: []string{
				searchRow("474", "Floyd Mayweather Jr", "welterweight"),
			},
			expectId: "474",
		},
		{
			name:     "ambiguous goes to the chooser",
			forename: "Joe",
			surname:  "Smith",
			rows: []string{
				searchRow("10", "Joe Smith Jr", "light heavyweight"),
				searchRow("11", "Joey Smithers", "bantamweight"),
			},
			choice:     0,
			expectId:   "10",
			expectAsks: 1,
		},
		{
			name:      "no results",
			forename:  "Nobody",
			surname:   "Atall",
			expectErr: ErrNoResults,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			env := newTestEnv(t, 0)
			env.op.choice = test.choice
			env.site.search[strings.ToLower(test.forename+" "+test.surname)] = searchHtml(test.rows...)

			candidate, err := env.client.Search(context.Background(), test.forename, test.surname, true)
			if test.expectErr != nil {
				require.ErrorIs(t, err, test.expectErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, test.expectId, candidate.Id)
			require.Len(t, env.op.chosen, test.expectAsks)
		})
	}
}

func TestSearchRanksCandidatesForChooser(t *testing.T) {
	env := newTestEnv(t, 0)
	env.site.search["joe smith"] = searchHtml(
		searchRow("11", "Joey Smithers", "bantamweight"),
		searchRow("12", "Bob Jones", "heavyweight"),
		searchRow("10", "Joe Smith Jr", "light heavyweight"),
	)

	candidate, err := env.client.Search(context.Background(), "Joe", "Smith", false)
	require.NoError(t, err)
	require.Equal(t, "10", candidate.Id)

	require.Len(t, env.op.chosen, 1)
	names := []string{}
	for _, c := range env.op.chosen[0] {
		names = append(names, c.Name)
	}
	diff := cmp.Diff([]string{"Joe Smith Jr", "Joey Smithers", "Bob Jones"}, names)
	if diff != "" {
		t.Fatal(diff)
	}

	query, err := url.ParseQuery(env.site.queries[0])
	require.NoError(t, err)
	require.Equal(t, "", query.Get("p[status]"))
	require.Equal(t, "fighters", query.Get("p[role]"))
}

func TestSearchAborted(t *testing.T) {
	env := newTestEnv(t, 0)
	env.op.chooseErr = errors.New("operator quit")
	env.site.search["joe smith"] = searchHtml(
		searchRow("10", "Joe Smith Jr", ""),
		searchRow("11", "Joey Smithers", ""),
	)

	_, err := env.client.Search(context.Background(), "Joe", "Smith", true)
	require.ErrorIs(t, err, ErrNoSelection)

	env.op.chooseErr = nil
	env.op.choice = 5
	_, err = env.client.Search(context.Background(), "Joe", "Smith", true)
	require.ErrorIs(t, err, ErrNoSelection)
}

func TestParseSearchResultsSkipsRowsWithoutProfile(t *testing.T) {
	page, err := parseBytes(&url.URL{Scheme: "https", Host: "boxrec.com", Path: searchPath}, 200, []byte(searchHtml(
		`<tr><td>no link here</td></tr>`,
		searchRow("474", "Floyd Mayweather Jr", "welterweight USA"),
		searchRow("474", "Floyd Mayweather Jr", "duplicate"),
	)))
	require.NoError(t, err)

	diff := cmp.Diff([]Candidate{{
		Id:      "474",
		Name:    "Floyd Mayweather Jr",
		Details: "Floyd Mayweather Jr welterweight USA",
	}}, parseSearchResults(page.Doc))
	if diff != "" {
		t.Fatal(diff)
	}
}
