package compatibility

import (
	"fmt"
	"math"
	"sort"
)

const (
	// NeutralScore is assigned to any dimension whose inputs are unknown.
	NeutralScore = 50.0

	DefaultSuggestionThreshold = 70.0
	DefaultMaxSuggestions      = 5
	DefaultMaxDistanceKm       = 50.0
	DefaultSynonymCredit       = 0.8
	DefaultPriceTolerance      = 0.25
)

// WeightTable maps a dimension kind to its relative weight in [0,1].
type WeightTable map[DimensionKind]float64

// Config is the static, auditable configuration of an Engine.
type Config struct {
	// Weights holds one table per category. A category without a table
	// cannot be scored.
	Weights map[Category]WeightTable

	// Synonyms maps a normalized skill to its canonical form,
	// e.g. "js" -> "javascript". Empty means exact matching only.
	Synonyms map[string]string

	// SynonymCredit is the partial credit for a synonym match; exact
	// matches always count 1.
	SynonymCredit float64

	SuggestionThreshold  float64
	MaxSuggestions       int
	DefaultMaxDistanceKm float64

	// Parallel runs the scorers of a request concurrently.
	Parallel bool
}

// DefaultWeights returns a fresh copy of the built-in weight tables.
func DefaultWeights() map[Category]WeightTable {
	return map[Category]WeightTable{
		CategoryJobs: {
			KindSkills:       0.35,
			KindPrice:        0.15,
			KindLocation:     0.15,
			KindAvailability: 0.10,
			KindQuality:      0.25,
		},
		CategoryServices: {
			KindSkills:       0.30,
			KindPrice:        0.25,
			KindLocation:     0.15,
			KindAvailability: 0.15,
			KindQuality:      0.15,
		},
		CategoryRentals: {
			KindSkills:       0.15,
			KindPrice:        0.30,
			KindLocation:     0.25,
			KindAvailability: 0.20,
			KindQuality:      0.10,
		},
	}
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Weights:              DefaultWeights(),
		Synonyms:             map[string]string{},
		SynonymCredit:        DefaultSynonymCredit,
		SuggestionThreshold:  DefaultSuggestionThreshold,
		MaxSuggestions:       DefaultMaxSuggestions,
		DefaultMaxDistanceKm: DefaultMaxDistanceKm,
	}
}

// withDefaults fills zero values so a partially populated Config behaves.
// Validate rejects the same zero values.
func (c Config) withDefaults() Config {
	if c.SynonymCredit <= 0 || c.SynonymCredit > 1 {
		c.SynonymCredit = DefaultSynonymCredit
	}
	if c.SuggestionThreshold <= 0 {
		c.SuggestionThreshold = DefaultSuggestionThreshold
	}
	if c.MaxSuggestions <= 0 {
		c.MaxSuggestions = DefaultMaxSuggestions
	}
	if c.DefaultMaxDistanceKm <= 0 {
		c.DefaultMaxDistanceKm = DefaultMaxDistanceKm
	}
	synonyms := make(map[string]string, len(c.Synonyms))
	for k, v := range c.Synonyms {
		nk, nv := normalizeTerm(k), normalizeTerm(v)
		if nk != "" && nv != "" {
			synonyms[nk] = nv
		}
	}
	c.Synonyms = synonyms
	return c
}

// Validate reports configuration that would make a category unscorable or
// silently clamp weights. The engine itself tolerates everything Validate
// rejects except a missing weight table.
func (c Config) Validate() error {
	for _, cat := range Categories() {
		table, ok := c.Weights[cat]
		if !ok {
			return &ConfigurationError{Category: cat, Reason: "missing weight table"}
		}
		for _, kind := range Kinds() {
			w, ok := table[kind]
			if !ok {
				return &ConfigurationError{Category: cat, Reason: fmt.Sprintf("missing weight for %s", kind)}
			}
			if math.IsNaN(w) || w < 0 || w > 1 {
				return &ConfigurationError{Category: cat, Reason: fmt.Sprintf("weight for %s out of range: %v", kind, w)}
			}
		}
		for kind := range table {
			if !knownKind(kind) {
				return &ConfigurationError{Category: cat, Reason: fmt.Sprintf("unknown dimension kind %q", kind)}
			}
		}
	}
	for cat := range c.Weights {
		if _, err := ParseCategory(string(cat)); err != nil {
			return &ConfigurationError{Reason: fmt.Sprintf("weights configured for unknown category %q", cat)}
		}
	}
	if c.SuggestionThreshold <= 0 || c.SuggestionThreshold > 100 {
		return &ConfigurationError{Reason: fmt.Sprintf("suggestion threshold out of range: %v", c.SuggestionThreshold)}
	}
	if c.MaxSuggestions < 1 {
		return &ConfigurationError{Reason: "max suggestions must be at least 1"}
	}
	if c.SynonymCredit < 0 || c.SynonymCredit > 1 {
		return &ConfigurationError{Reason: fmt.Sprintf("synonym credit out of range: %v", c.SynonymCredit)}
	}
	return nil
}

// SortedWeights lists a table's entries in registration order.
func (t WeightTable) SortedWeights() []KindWeight {
	out := make([]KindWeight, 0, len(t))
	for _, k := range Kinds() {
		if w, ok := t[k]; ok {
			out = append(out, KindWeight{Kind: k, Weight: w})
		}
	}
	var extra []KindWeight
	for k, w := range t {
		if !knownKind(k) {
			extra = append(extra, KindWeight{Kind: k, Weight: w})
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Kind < extra[j].Kind })
	return append(out, extra...)
}

// KindWeight is one weight table entry.
type KindWeight struct {
	Kind   DimensionKind `json:"kind"`
	Weight float64       `json:"weight"`
}

func knownKind(k DimensionKind) bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}
