package grading

import (
	"context"
	"errors"
	"fmt"

	"github.com/mind-engage/answerset/internal/answerset"
)

// Card kinds with a built-in strategy.
const (
	KindTypeIn  = "typein"
	KindStrict  = "strict"
	KindNumeric = "numeric"
)

// Card is the part of a flashcard needed to check a typed answer.
type Card struct {
	Kind    string
	Correct string
	Points  float64
	// Options resolved from the card's profile. Nil means defaults.
	Options *answerset.Options
}

// Result is the outcome of checking a single typed answer.
type Result struct {
	HTML        string   // annotated comparison
	Correct     bool     // no reported and no minor error
	Minor       bool     // only numeric tolerance was needed
	AutoPoints  float64  // points awarded automatically
	MaxPoints   float64  // the card's max points
	NeedsManual bool     // true if a reviewer must decide
	Feedback    []string // optional notes
}

// Strategy grades a single card kind.
type Strategy interface {
	Grade(ctx context.Context, c Card, given string) (Result, error)
}

// Grader routes by card kind to the correct Strategy.
type Grader interface {
	Grade(ctx context.Context, c Card, given string) (Result, error)
}

type defaultGrader struct {
	strategies map[string]Strategy
}

func (g *defaultGrader) Grade(ctx context.Context, c Card, given string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	kind := c.Kind
	if kind == "" {
		kind = KindTypeIn
	}
	s, ok := g.strategies[kind]
	if !ok {
		return Result{MaxPoints: c.Points, NeedsManual: true, Feedback: []string{"no strategy available"}}, nil
	}
	return s.Grade(ctx, c, given)
}

// Engine options

type Option func(*config)

type config struct {
	MinorCredit float64 // share of the points for answers within numeric tolerance
	// NumericFactor is used by the numeric kind when the card's options
	// leave numeric comparison off.
	NumericFactor float64
	// NearMiss is the largest edit distance reported as a near miss.
	NearMiss int
	Extra    map[string]Strategy
}

func WithMinorCredit(f float64) Option   { return func(c *config) { c.MinorCredit = f } }
func WithNumericFactor(f float64) Option { return func(c *config) { c.NumericFactor = f } }
func WithNearMiss(n int) Option          { return func(c *config) { c.NearMiss = n } }

// WithStrategy installs or replaces the strategy for kind.
func WithStrategy(kind string, s Strategy) Option {
	return func(c *config) {
		if c.Extra == nil {
			c.Extra = map[string]Strategy{}
		}
		c.Extra[kind] = s
	}
}

var ErrInvalidCredit = errors.New("minor credit must be within [0,1]")

// NewDefaultGrader installs built-in strategies.
func NewDefaultGrader(opts ...Option) (Grader, error) {
	cfg := &config{
		MinorCredit:   0.5,
		NumericFactor: 1,
		NearMiss:      1,
	}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.MinorCredit < 0 || cfg.MinorCredit > 1 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredit, cfg.MinorCredit)
	}
	base := typeInStrategy{minorCredit: cfg.MinorCredit, nearMiss: cfg.NearMiss}
	strict, numeric := base, base
	strict.strict = true
	numeric.numericFactor = cfg.NumericFactor
	g := &defaultGrader{
		strategies: map[string]Strategy{
			KindTypeIn:  base,
			KindStrict:  strict,
			KindNumeric: numeric,
		},
	}
	for k, s := range cfg.Extra {
		g.strategies[k] = s
	}
	return g, nil
}

// --- Strategies ---

type typeInStrategy struct {
	minorCredit   float64
	strict        bool
	numericFactor float64
	nearMiss      int
}

func (s typeInStrategy) Grade(_ context.Context, c Card, given string) (Result, error) {
	res := Result{MaxPoints: c.Points}
	o := s.options(c.Options)

	rep := answerset.Check(o, c.Correct, given)
	res.HTML = rep.HTML
	switch {
	case rep.Correct():
		res.Correct = true
		res.AutoPoints = c.Points
	case !rep.Wrong:
		res.Minor = true
		res.AutoPoints = c.Points * s.minorCredit
		res.Feedback = append(res.Feedback, "number within tolerance")
	default:
		if d := editDistance(squash(c.Correct), squash(given)); d > 0 && d <= s.nearMiss {
			res.Feedback = append(res.Feedback, fmt.Sprintf("near miss: %d edit(s)", d))
		}
	}
	return res, nil
}

func (s typeInStrategy) options(o *answerset.Options) *answerset.Options {
	if o == nil {
		o = answerset.New()
	}
	var extra []answerset.Option
	if s.strict {
		extra = append(extra, answerset.WithLenient(false), answerset.WithIgnoreCase(false))
	}
	if s.numericFactor != 0 && o.Settings().NumericFactor == 0 {
		extra = append(extra, answerset.WithNumericFactor(s.numericFactor))
	}
	if len(extra) == 0 {
		return o
	}
	return o.With(extra...)
}
