// Package odds implements fractional exchange odds and the score-ratio win
// estimate they are compared against.
package odds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrMalformedOdds = errors.New("malformed fractional odds")
	ErrZeroScores    = errors.New("scores sum to zero")
)

// Fraction is a fractional odds quote, a win staked at Denominator returns
// Numerator in profit.
type Fraction struct {
	Numerator   uint32
	Denominator uint32
}

var Evens = Fraction{Numerator: 1, Denominator: 1}

// ParseFraction parses "n/d" or "EVS"/"evens" (case-insensitive).
func ParseFraction(text string) (Fraction, error) {
	text = strings.TrimSpace(text)
	switch strings.ToLower(text) {
	case "evs", "evens", "even":
		return Evens, nil
	}

	numText, denText, found := strings.Cut(text, "/")
	if !found {
		return Fraction{}, fmt.Errorf("%w: %q has no '/'", ErrMalformedOdds, text)
	}
	num, err := strconv.ParseUint(strings.TrimSpace(numText), 10, 32)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w: numerator of %q: %w", ErrMalformedOdds, text, err)
	}
	den, err := strconv.ParseUint(strings.TrimSpace(denText), 10, 32)
	if err != nil {
		return Fraction{}, fmt.Errorf("%w: denominator of %q: %w", ErrMalformedOdds, text, err)
	}
	return NewFraction(uint32(num), uint32(den))
}

func NewFraction(numerator, denominator uint32) (Fraction, error) {
	if denominator == 0 {
		return Fraction{}, fmt.Errorf("%w: zero denominator", ErrMalformedOdds)
	}
	if numerator == 0 {
		return Fraction{}, fmt.Errorf("%w: zero numerator", ErrMalformedOdds)
	}
	return Fraction{Numerator: numerator, Denominator: denominator}, nil
}

// MustFraction is NewFraction for constants, it panics on invalid input.
func MustFraction(numerator, denominator uint32) Fraction {
	f, err := NewFraction(numerator, denominator)
	if err != nil {
		panic(err)
	}
	return f
}

// ImpliedPercent is the win probability the quote implies for its side,
// d/(n+d) as a percentage. 8/15 implies ~65.2%, evens implies 50%.
func (f Fraction) ImpliedPercent() float64 {
	n := float64(f.Numerator)
	d := float64(f.Denominator)
	return d / (n + d) * 100
}

// DecimalPayout is the total return per unit staked, stake included.
func (f Fraction) DecimalPayout() float64 {
	return float64(f.Numerator)/float64(f.Denominator) + 1
}

func (f Fraction) String() string {
	if f == Evens {
		return "EVS"
	}
	return fmt.Sprintf("%d/%d", f.Numerator, f.Denominator)
}

// MarshalYAML writes the fraction the way it is quoted, ex. "8/15".
func (f Fraction) MarshalYAML() (any, error) {
	return f.String(), nil
}

func (f *Fraction) UnmarshalYAML(node *yaml.Node) error {
	var text string
	err := node.Decode(&text)
	if err != nil {
		return err
	}
	parsed, err := ParseFraction(text)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// Pair is the exchange quote for both sides of a matchup.
type Pair struct {
	A Fraction `yaml:"a"`
	B Fraction `yaml:"b"`
}

func ParsePair(a, b string) (Pair, error) {
	fa, err := ParseFraction(a)
	if err != nil {
		return Pair{}, fmt.Errorf("side a: %w", err)
	}
	fb, err := ParseFraction(b)
	if err != nil {
		return Pair{}, fmt.Errorf("side b: %w", err)
	}
	return Pair{A: fa, B: fb}, nil
}

// ImpliedWinPercentA is side A's implied probability with the exchange's
// overround removed, so that A and B always sum to 100.
func (p Pair) ImpliedWinPercentA() float64 {
	a := p.A.ImpliedPercent()
	b := p.B.ImpliedPercent()
	return a / (a + b) * 100
}

func (p Pair) ImpliedWinPercentB() float64 {
	return 100 - p.ImpliedWinPercentA()
}

func (p Pair) String() string {
	return fmt.Sprintf("%s v %s", p.A, p.B)
}

// WinPercent returns each side's share of the combined score as a
// percentage, the two values always sum to 100.
func WinPercent(scoreA, scoreB float64) (float64, float64, error) {
	total := scoreA + scoreB
	if total <= 0 {
		return 0, 0, fmt.Errorf("%w: %v + %v", ErrZeroScores, scoreA, scoreB)
	}
	a := scoreA / total * 100
	return a, 100 - a, nil
}
