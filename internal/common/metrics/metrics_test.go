package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"marketplace-compat/internal/compatibility"
)

func TestObserveResult(t *testing.T) {
	result := compatibility.CompatibilityResult{
		Category:     compatibility.CategoryRentals,
		OverallScore: 91,
		Badges:       []compatibility.Badge{compatibility.BadgeVerified},
	}

	scored := testutil.ToFloat64(CompatibilityRequests.WithLabelValues("rentals", OutcomeScored))
	cached := testutil.ToFloat64(CompatibilityRequests.WithLabelValues("rentals", OutcomeCached))
	verified := testutil.ToFloat64(CompatibilityBadges.WithLabelValues("verified"))

	ObserveResult(result, false)
	ObserveResult(result, true)

	assert.Equal(t, scored+1, testutil.ToFloat64(CompatibilityRequests.WithLabelValues("rentals", OutcomeScored)))
	assert.Equal(t, cached+1, testutil.ToFloat64(CompatibilityRequests.WithLabelValues("rentals", OutcomeCached)))
	assert.Equal(t, verified+1, testutil.ToFloat64(CompatibilityBadges.WithLabelValues("verified")))
}

func TestObserveFailure_UnsupportedCategoryIsNotALabel(t *testing.T) {
	before := testutil.ToFloat64(CompatibilityRequests.WithLabelValues("unknown", OutcomeUnsupported))

	ObserveFailure("vehicles", &compatibility.UnsupportedCategoryError{Category: "vehicles"})

	assert.Equal(t, before+1, testutil.ToFloat64(CompatibilityRequests.WithLabelValues("unknown", OutcomeUnsupported)))
}

func TestObserveCacheLookup(t *testing.T) {
	before := testutil.ToFloat64(CompatibilityCacheLookups.WithLabelValues("result", "hit"))
	ObserveCacheLookup("result", true)
	assert.Equal(t, before+1, testutil.ToFloat64(CompatibilityCacheLookups.WithLabelValues("result", "hit")))
}
