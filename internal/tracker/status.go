package tracker

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var ErrTerminalStatus = errors.New("tracker: cannot advance past Notified")

// Status is how far a matchup has been enriched. It only ever moves forward.
type Status int

const (
	MissingFighters Status = iota
	MissingResultsPage
	Scored
	Notified
)

var statusNames = []string{
	MissingFighters:    "MissingFighters",
	MissingResultsPage: "MissingResultsPage",
	Scored:             "Scored",
	Notified:           "Notified",
}

// Statuses lists every status in order.
var Statuses = []Status{MissingFighters, MissingResultsPage, Scored, Notified}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("Status(%d)", int(s))
	}
	return statusNames[s]
}

// Advance returns the next status, or ErrTerminalStatus for Notified.
func (s Status) Advance() (Status, error) {
	if s >= Notified {
		return s, fmt.Errorf("%w: %s", ErrTerminalStatus, s)
	}
	return s + 1, nil
}

func ParseStatus(text string) (Status, error) {
	for i, name := range statusNames {
		if name == text {
			return Status(i), nil
		}
	}
	return 0, fmt.Errorf("tracker: unknown status %q", text)
}

func (s Status) MarshalYAML() (any, error) {
	if s < 0 || int(s) >= len(statusNames) {
		return nil, fmt.Errorf("tracker: unknown status %d", int(s))
	}
	return s.String(), nil
}

func (s *Status) UnmarshalYAML(node *yaml.Node) error {
	var text string
	err := node.Decode(&text)
	if err != nil {
		return err
	}
	parsed, err := ParseStatus(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
