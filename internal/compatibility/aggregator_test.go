package compatibility

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregate_WeightedMean(t *testing.T) {
	tests := []struct {
		name     string
		dims     []Dimension
		expected int
	}{
		{
			name:     "weighted",
			dims:     []Dimension{{Name: "A", Score: 80, Weight: 0.4}, {Name: "B", Score: 60, Weight: 0.6}},
			expected: 68,
		},
		{
			name:     "weights need not sum to one",
			dims:     []Dimension{{Name: "A", Score: 80, Weight: 0.2}, {Name: "B", Score: 60, Weight: 0.3}},
			expected: 68,
		},
		{
			name:     "all weights zero falls back to unweighted mean",
			dims:     []Dimension{{Name: "A", Score: 80}, {Name: "B", Score: 60}},
			expected: 70,
		},
		{
			name:     "half rounds up",
			dims:     []Dimension{{Name: "A", Score: 85, Weight: 1}, {Name: "B", Score: 84, Weight: 1}},
			expected: 85,
		},
		{
			name:     "out of range values are clamped",
			dims:     []Dimension{{Name: "A", Score: 150, Weight: 3}, {Name: "B", Score: -20, Weight: -1}},
			expected: 100,
		},
		{
			name:     "NaN score is neutral",
			dims:     []Dimension{{Name: "A", Score: math.NaN(), Weight: 1}},
			expected: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Aggregate(tt.dims).OverallScore)
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)
	assert.Equal(t, 50, summary.OverallScore)
	assert.NotEmpty(t, summary.PrimaryMatchReason)
	assert.Empty(t, summary.ImprovementSuggestions)
}

func TestAggregate_PrimaryReason(t *testing.T) {
	t.Run("highest weighted contribution wins", func(t *testing.T) {
		summary := Aggregate([]Dimension{
			{Name: "Skills", Score: 90, Weight: 0.2},
			{Name: "Location", Score: 80, Weight: 0.5, Description: "3.2 km away"},
		})
		assert.Equal(t, "Strong match on Location: 3.2 km away.", summary.PrimaryMatchReason)
	})

	t.Run("ties go to the first declared dimension", func(t *testing.T) {
		summary := Aggregate([]Dimension{
			{Name: "Skills", Score: 80, Weight: 0.5},
			{Name: "Price", Score: 80, Weight: 0.5},
		})
		assert.Equal(t, "Strong match on Skills.", summary.PrimaryMatchReason)
	})

	t.Run("wording follows the leading score", func(t *testing.T) {
		moderate := Aggregate([]Dimension{{Name: "Price", Score: 55, Weight: 1}})
		limited := Aggregate([]Dimension{{Name: "Price", Score: 20, Weight: 1}})
		assert.Equal(t, "Moderate match on Price.", moderate.PrimaryMatchReason)
		assert.Equal(t, "Limited match overall; best fit is Price.", limited.PrimaryMatchReason)
	})

	t.Run("wording follows the configured threshold", func(t *testing.T) {
		dims := []Dimension{{Name: "Skills", Score: 85, Weight: 1}}
		strict := NewAggregator(90, DefaultMaxSuggestions).Aggregate(dims)
		assert.Equal(t, "Moderate match on Skills.", strict.PrimaryMatchReason)
		assert.Len(t, strict.ImprovementSuggestions, 1)

		lenient := NewAggregator(30, DefaultMaxSuggestions).Aggregate([]Dimension{{Name: "Skills", Score: 35, Weight: 1}})
		assert.Equal(t, "Strong match on Skills.", lenient.PrimaryMatchReason)
		assert.Empty(t, lenient.ImprovementSuggestions)
	})

	t.Run("trailing period in description is not doubled", func(t *testing.T) {
		summary := Aggregate([]Dimension{{Name: "Skills", Score: 100, Weight: 1, Description: "All matched."}})
		assert.Equal(t, "Strong match on Skills: All matched.", summary.PrimaryMatchReason)
	})
}

func TestAggregate_Suggestions(t *testing.T) {
	t.Run("weakest first and none above threshold", func(t *testing.T) {
		summary := Aggregate([]Dimension{
			{Name: "Skills", Score: 95, Weight: 0.4},
			{Name: "Price", Score: 40, Weight: 0.3},
			{Name: "Location", Score: 65, Weight: 0.3},
		})
		require.Len(t, summary.ImprovementSuggestions, 2)
		assert.Equal(t, suggestionText[KindPrice], summary.ImprovementSuggestions[0])
		assert.Equal(t, suggestionText[KindLocation], summary.ImprovementSuggestions[1])
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		summary := Aggregate([]Dimension{{Name: "Price", Kind: KindPrice, Score: 70, Weight: 1}})
		assert.Empty(t, summary.ImprovementSuggestions)
	})

	t.Run("capped at the configured maximum", func(t *testing.T) {
		var dims []Dimension
		for _, name := range []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon", "Zeta", "Eta"} {
			dims = append(dims, Dimension{Name: name, Score: 10, Weight: 1})
		}
		assert.Len(t, Aggregate(dims).ImprovementSuggestions, DefaultMaxSuggestions)
		assert.Len(t, NewAggregator(70, 3).Aggregate(dims).ImprovementSuggestions, 3)
	})

	t.Run("duplicate kinds yield one suggestion", func(t *testing.T) {
		summary := Aggregate([]Dimension{
			{Name: "Pay", Kind: KindPrice, Score: 10, Weight: 1},
			{Name: "Fees", Kind: KindPrice, Score: 20, Weight: 1},
		})
		assert.Equal(t, []string{suggestionText[KindPrice]}, summary.ImprovementSuggestions)
	})

	t.Run("unknown kind falls back to the dimension name", func(t *testing.T) {
		summary := Aggregate([]Dimension{{Name: "Vibe", Score: 10, Weight: 1}})
		assert.Equal(t, []string{"Improve your vibe fit."}, summary.ImprovementSuggestions)
	})
}

func TestInferKind(t *testing.T) {
	assert.Equal(t, KindSkills, inferKind("Skills"))
	assert.Equal(t, KindPrice, inferKind("Pay Rate"))
	assert.Equal(t, KindPrice, inferKind("Rent"))
	assert.Equal(t, KindLocation, inferKind("Location"))
	assert.Equal(t, KindAvailability, inferKind("Schedule"))
	assert.Equal(t, KindQuality, inferKind("Host Rating"))
	assert.Equal(t, DimensionKind(""), inferKind("Vibe"))
}
