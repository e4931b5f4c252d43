// Package notify delivers tracker notifications to operators.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"boxwatch/internal/tracker"
)

const warningLine = "[WARNING: both fighters have a boxrec score below the safe threshold]"

// Message renders a notification as plain text.
func Message(n tracker.Notification) string {
	var builder strings.Builder
	if n.Warning {
		builder.WriteString(warningLine)
		builder.WriteString("\n")
	}
	builder.WriteString("We might be onto something!\n")
	fmt.Fprintf(
		&builder,
		"BoxRec gives %s a %.1f%% chance of beating %s, yet the exchange has them at %s (%.1f%% implied, pays %.2f).",
		n.WinnerToBe.DisplayName,
		n.OurWinPercent,
		n.LoserToBe.DisplayName,
		n.WinnerOdds,
		n.ExchangeWinPercent,
		n.WinnerOdds.DecimalPayout(),
	)
	return builder.String()
}

// Subject is a one line summary for channels that need one.
func Subject(n tracker.Notification) string {
	prefix := ""
	if n.Warning {
		prefix = "[WARNING] "
	}
	return fmt.Sprintf("%s%s v %s: +%.1fpp", prefix, n.WinnerToBe.DisplayName, n.LoserToBe.DisplayName, n.Divergence())
}

// Log writes notifications to an operator terminal.
type Log struct {
	w io.Writer
}

func NewLog(w io.Writer) Log {
	return Log{w: w}
}

func (l Log) Notify(_ context.Context, n tracker.Notification) error {
	_, err := fmt.Fprintf(l.w, "---\n%s\n---\n", Message(n))
	return err
}

// Multi hands every notification to all of its notifiers, one failing does
// not stop the others.
type Multi []tracker.Notifier

func (m Multi) Notify(ctx context.Context, n tracker.Notification) error {
	var errs []error
	for _, notifier := range m {
		err := notifier.Notify(ctx, n)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
