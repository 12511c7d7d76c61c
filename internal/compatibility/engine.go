package compatibility

import (
	"time"

	"github.com/sourcegraph/conc/iter"
)

// Engine scores a profile against a listing. It holds only immutable
// configuration and is safe for concurrent use.
type Engine struct {
	cfg        Config
	sets       map[Category][]Scorer
	aggregator Aggregator
	now        func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock overrides the clock used to stamp results.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithScorers replaces the scorer set registered for a category.
func WithScorers(category Category, scorers ...Scorer) Option {
	return func(e *Engine) {
		e.sets[category] = append([]Scorer(nil), scorers...)
	}
}

// NewEngine builds an Engine from cfg. Use cfg.Validate to fail fast on a
// misconfigured deployment; NewEngine itself only reports problems when a
// category is scored.
func NewEngine(cfg Config, opts ...Option) *Engine {
	cfg = cfg.withDefaults()
	e := &Engine{
		cfg:        cfg,
		sets:       defaultScorerSets(cfg),
		aggregator: NewAggregator(cfg.SuggestionThreshold, cfg.MaxSuggestions),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func defaultScorerSets(cfg Config) map[Category][]Scorer {
	skills := func(name string) Scorer {
		return skillScorer{name: name, synonyms: cfg.Synonyms, credit: cfg.SynonymCredit}
	}
	location := locationScorer{name: "Location", defaultMaxKm: cfg.DefaultMaxDistanceKm}

	return map[Category][]Scorer{
		CategoryJobs: {
			skills("Skills"),
			priceScorer{name: "Pay Rate"},
			location,
			urgencyScorer{name: "Availability"},
			reputationScorer{name: "Employer Rating"},
		},
		CategoryServices: {
			skills("Service Fit"),
			priceScorer{name: "Price"},
			location,
			windowScorer{name: "Schedule"},
			reputationScorer{name: "Provider Rating"},
		},
		CategoryRentals: {
			skills("Amenities"),
			priceScorer{name: "Rent"},
			location,
			windowScorer{name: "Availability"},
			reputationScorer{name: "Host Rating"},
		},
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Weights returns the weight table for a category.
func (e *Engine) Weights(category Category) (WeightTable, bool) {
	t, ok := e.cfg.Weights[category]
	return t, ok
}

// Compute scores listing for profile under category. Nil profile or listing
// are treated as empty records. It fails only on configuration problems and
// never returns a partial result.
func (e *Engine) Compute(category Category, profile *PreferenceProfile, listing *ListingRecord) (CompatibilityResult, error) {
	if _, err := ParseCategory(string(category)); err != nil {
		return CompatibilityResult{}, err
	}
	scorers, ok := e.sets[category]
	if !ok || len(scorers) == 0 {
		return CompatibilityResult{}, &ConfigurationError{Category: category, Reason: "no scorers registered"}
	}
	weights, ok := e.cfg.Weights[category]
	if !ok {
		return CompatibilityResult{}, &ConfigurationError{Category: category, Reason: "missing weight table"}
	}

	if profile == nil {
		profile = &PreferenceProfile{}
	}
	if listing == nil {
		listing = &ListingRecord{}
	}

	dims := e.runScorers(scorers, weights, profile, listing)
	summary := e.aggregator.Aggregate(dims)
	factors := FactorsFrom(dims)

	return CompatibilityResult{
		OverallScore:           summary.OverallScore,
		Dimensions:             dims,
		Category:               category,
		Subcategory:            listing.Subcategory,
		ListingID:              listing.ID,
		UserID:                 profile.UserID,
		Timestamp:              e.now(),
		PrimaryMatchReason:     summary.PrimaryMatchReason,
		ImprovementSuggestions: summary.ImprovementSuggestions,
		Factors:                factors,
		Badges:                 DeriveBadges(NewBadgeInput(summary.OverallScore, factors, profile, listing)),
	}, nil
}

func (e *Engine) runScorers(scorers []Scorer, weights WeightTable, p *PreferenceProfile, l *ListingRecord) []Dimension {
	score := func(s *Scorer) Dimension {
		d := (*s).Score(p, l)
		d.Score = clampScore(d.Score)
		d.Weight = clampWeight(weights[(*s).Kind()])
		if d.Name == "" {
			d.Name = (*s).Name()
		}
		if d.Kind == "" {
			d.Kind = (*s).Kind()
		}
		return d
	}

	if e.cfg.Parallel {
		return iter.Map(scorers, score)
	}
	dims := make([]Dimension, len(scorers))
	for i := range scorers {
		dims[i] = score(&scorers[i])
	}
	return dims
}
