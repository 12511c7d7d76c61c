package compatibility

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Summary is the aggregate view over a set of dimensions.
type Summary struct {
	OverallScore           int
	PrimaryMatchReason     string
	ImprovementSuggestions []string
}

// Aggregator combines dimensions into an overall score, a primary reason and
// ranked improvement suggestions.
type Aggregator struct {
	threshold      float64
	maxSuggestions int
}

// NewAggregator builds an Aggregator. Non-positive arguments fall back to the
// defaults.
func NewAggregator(threshold float64, maxSuggestions int) Aggregator {
	if threshold <= 0 {
		threshold = DefaultSuggestionThreshold
	}
	if maxSuggestions <= 0 {
		maxSuggestions = DefaultMaxSuggestions
	}
	return Aggregator{threshold: threshold, maxSuggestions: maxSuggestions}
}

// Aggregate summarizes dims with the default threshold and suggestion cap.
func Aggregate(dims []Dimension) Summary {
	return NewAggregator(DefaultSuggestionThreshold, DefaultMaxSuggestions).Aggregate(dims)
}

// Aggregate summarizes dims. Scores and weights are clamped first.
func (a Aggregator) Aggregate(dims []Dimension) Summary {
	if len(dims) == 0 {
		return Summary{
			OverallScore:           int(NeutralScore),
			PrimaryMatchReason:     "Not enough information to assess this match.",
			ImprovementSuggestions: []string{},
		}
	}

	clamped := make([]Dimension, len(dims))
	for i, d := range dims {
		d.Score = clampScore(d.Score)
		d.Weight = clampWeight(d.Weight)
		clamped[i] = d
	}

	return Summary{
		OverallScore:           overallScore(clamped),
		PrimaryMatchReason:     primaryReason(clamped, a.threshold),
		ImprovementSuggestions: a.suggestions(clamped),
	}
}

func overallScore(dims []Dimension) int {
	var weighted, weights, plain float64
	for _, d := range dims {
		weighted += d.Score * d.Weight
		weights += d.Weight
		plain += d.Score
	}

	var mean float64
	if weights == 0 {
		mean = plain / float64(len(dims))
	} else {
		mean = weighted / weights
	}

	score := int(math.Round(mean))
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

const limitedMatchScore = 40.0

// primaryReason names the dimension contributing the most weighted score. The
// first declared dimension wins ties. Scores below threshold read as moderate.
func primaryReason(dims []Dimension, threshold float64) string {
	best := 0
	bestValue := dims[0].Score * dims[0].Weight
	for i := 1; i < len(dims); i++ {
		if v := dims[i].Score * dims[i].Weight; v > bestValue {
			best, bestValue = i, v
		}
	}

	d := dims[best]
	lead := "Strong match on"
	switch {
	case d.Score < math.Min(limitedMatchScore, threshold):
		lead = "Limited match overall; best fit is"
	case d.Score < threshold:
		lead = "Moderate match on"
	}

	desc := strings.TrimRight(strings.TrimSpace(d.Description), ".")
	if desc == "" {
		return fmt.Sprintf("%s %s.", lead, d.Name)
	}
	return fmt.Sprintf("%s %s: %s.", lead, d.Name, desc)
}

func (a Aggregator) suggestions(dims []Dimension) []string {
	type weak struct {
		score float64
		text  string
	}

	var candidates []weak
	for _, d := range dims {
		if d.Score < a.threshold {
			candidates = append(candidates, weak{score: d.Score, text: suggestionFor(d)})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score < candidates[j].score
	})

	out := make([]string, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if len(out) >= a.maxSuggestions {
			break
		}
		if _, dup := seen[c.text]; dup {
			continue
		}
		seen[c.text] = struct{}{}
		out = append(out, c.text)
	}
	return out
}

var suggestionText = map[DimensionKind]string{
	KindSkills:       "Look for listings whose requirements overlap more with your skills, or add missing skills to your profile.",
	KindPrice:        "Consider listings closer to your target price, or widen your acceptable price range.",
	KindLocation:     "Look for listings closer to you, or increase your maximum travel distance.",
	KindAvailability: "Look for listings whose timing fits your availability, or update your available dates.",
	KindQuality:      "Consider listings from owners with stronger ratings.",
}

func suggestionFor(d Dimension) string {
	kind := d.Kind
	if kind == "" {
		kind = inferKind(d.Name)
	}
	if text, ok := suggestionText[kind]; ok {
		return text
	}
	return fmt.Sprintf("Improve your %s fit.", strings.ToLower(d.Name))
}

// inferKind guesses a kind for dimensions built without one.
func inferKind(name string) DimensionKind {
	n := strings.ToLower(name)
	switch {
	case containsAny(n, "skill", "requirement", "service", "amenit"):
		return KindSkills
	case containsAny(n, "price", "pay", "rent", "budget", "rate", "cost"):
		return KindPrice
	case containsAny(n, "location", "distance", "proximity"):
		return KindLocation
	case containsAny(n, "availab", "schedule", "timing", "date", "urgen"):
		return KindAvailability
	case containsAny(n, "rating", "quality", "reputation", "review"):
		return KindQuality
	}
	return ""
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
