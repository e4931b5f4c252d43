// Package operator implements the interactive prompts the boxrec client
// falls back on: credentials, disambiguation and CAPTCHA acknowledgement.
package operator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"boxwatch/internal/scrapers/boxrec"

	"github.com/jedib0t/go-pretty/v6/table"
)

var ErrClosed = errors.New("operator: input closed")

// Terminal prompts a human on a line based terminal. It is safe for
// concurrent use, prompts are serialized.
type Terminal struct {
	in  *bufio.Reader
	out io.Writer

	mu       sync.Mutex
	username string
	password string
}

// NewTerminal creates a Terminal, username and password may be preset from
// config and are only prompted for when empty.
func NewTerminal(in io.Reader, out io.Writer, username, password string) *Terminal {
	return &Terminal{
		in:       bufio.NewReader(in),
		out:      out,
		username: username,
		password: password,
	}
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && line != "" {
			return strings.TrimSpace(line), nil
		}
		if errors.Is(err, io.EOF) {
			return "", ErrClosed
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (t *Terminal) prompt(label string) (string, error) {
	for {
		fmt.Fprintf(t.out, "%s: ", label)
		line, err := t.readLine()
		if err != nil {
			return "", err
		}
		if line != "" {
			return line, nil
		}
	}
}

func (t *Terminal) Credentials(ctx context.Context) (boxrec.Credentials, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return boxrec.Credentials{}, err
	}

	if t.username == "" {
		username, err := t.prompt("BoxRec username")
		if err != nil {
			return boxrec.Credentials{}, err
		}
		t.username = username
	}
	if t.password == "" {
		password, err := t.prompt(fmt.Sprintf("BoxRec password for %s", t.username))
		if err != nil {
			return boxrec.Credentials{}, err
		}
		t.password = password
	}
	return boxrec.Credentials{Username: t.username, Password: t.password}, nil
}

// Forget drops the remembered credentials so the next login prompts again.
func (t *Terminal) Forget() {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.out, "BoxRec rejected the login, please enter your credentials again.")
	t.username = ""
	t.password = ""
}

func (t *Terminal) renderCandidates(query string, candidates []boxrec.Candidate) {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetOutputMirror(t.out)
	tw.SetTitle(fmt.Sprintf("Search results for %s", query))
	tw.AppendHeader(table.Row{"#", "Name", "Id", "Details"})
	for i, candidate := range candidates {
		tw.AppendRow(table.Row{i + 1, candidate.Name, candidate.Id, candidate.Details})
	}
	tw.Render()
}

// Choose lists candidates numbered from 1 and returns the 0-based index of
// the one picked, an empty answer skips the fighter.
func (t *Terminal) Choose(ctx context.Context, query string, candidates []boxrec.Candidate) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	t.renderCandidates(query, candidates)
	for {
		fmt.Fprintf(t.out, "Pick the right fighter (1-%d, empty to skip): ", len(candidates))
		line, err := t.readLine()
		if err != nil {
			return 0, err
		}
		if line == "" {
			return 0, boxrec.ErrNoSelection
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(candidates) {
			fmt.Fprintf(t.out, "%q is not a number between 1 and %d.\n", line, len(candidates))
			continue
		}
		return n - 1, nil
	}
}

// WaitForCaptcha blocks until the operator types "continue".
func (t *Terminal) WaitForCaptcha(ctx context.Context, url string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	fmt.Fprintf(t.out, "BoxRec wants a CAPTCHA solved, open %s in a browser logged into the same account and solve it.\n", url)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(t.out, "Type \"continue\" once done: ")
		line, err := t.readLine()
		if err != nil {
			return err
		}
		if strings.EqualFold(line, "continue") {
			return nil
		}
	}
}
