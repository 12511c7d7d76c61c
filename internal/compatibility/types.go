package compatibility

import (
	"time"
)

// Category identifies the marketplace vertical a listing belongs to.
type Category string

const (
	CategoryJobs     Category = "jobs"
	CategoryServices Category = "services"
	CategoryRentals  Category = "rentals"
)

// Categories returns the supported categories in a stable order.
func Categories() []Category {
	return []Category{CategoryJobs, CategoryServices, CategoryRentals}
}

// ParseCategory validates a raw category string.
func ParseCategory(raw string) (Category, error) {
	c := Category(raw)
	switch c {
	case CategoryJobs, CategoryServices, CategoryRentals:
		return c, nil
	}
	return "", &UnsupportedCategoryError{Category: raw}
}

// DimensionKind groups dimensions by the axis of fit they measure.
type DimensionKind string

const (
	KindSkills       DimensionKind = "skills"
	KindPrice        DimensionKind = "price"
	KindLocation     DimensionKind = "location"
	KindAvailability DimensionKind = "availability"
	KindQuality      DimensionKind = "quality"
)

// Kinds returns every dimension kind in registration order.
func Kinds() []DimensionKind {
	return []DimensionKind{KindSkills, KindPrice, KindLocation, KindAvailability, KindQuality}
}

// Dimension is one scored axis of fit.
type Dimension struct {
	Name        string        `json:"name"`
	Kind        DimensionKind `json:"kind,omitempty"`
	Score       float64       `json:"score"`
	Weight      float64       `json:"weight"`
	Description string        `json:"description,omitempty"`
}

// GeoPoint is a latitude/longitude pair in decimal degrees.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TimeWindow is a closed time range. A nil End means open-ended.
type TimeWindow struct {
	Start time.Time  `json:"start"`
	End   *time.Time `json:"end,omitempty"`
}

// PreferenceProfile describes what a requester is looking for. Nil pointer
// fields are unknown and score neutrally.
type PreferenceProfile struct {
	UserID  string `json:"userId"`
	Version string `json:"version,omitempty"`

	Skills []string `json:"skills,omitempty"`

	TargetPrice *float64 `json:"targetPrice,omitempty"`
	MinPrice    *float64 `json:"minPrice,omitempty"`
	MaxPrice    *float64 `json:"maxPrice,omitempty"`

	Location      *GeoPoint `json:"location,omitempty"`
	MaxDistanceKm *float64  `json:"maxDistanceKm,omitempty"`
	RemoteOnly    bool      `json:"remoteOnly,omitempty"`

	AvailableImmediately *bool       `json:"availableImmediately,omitempty"`
	Availability         *TimeWindow `json:"availability,omitempty"`

	Premium bool `json:"premium,omitempty"`
}

// ListingRecord describes one candidate job, service or rental.
//
// RequiredSkills distinguishes nil (not declared) from an empty slice (declares
// no requirements). For services it holds the offered services and for rentals
// the amenities.
type ListingRecord struct {
	ID          string `json:"id"`
	OwnerID     string `json:"ownerId,omitempty"`
	Version     string `json:"version,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Title       string `json:"title,omitempty"`

	RequiredSkills []string `json:"requiredSkills"`

	Price *float64 `json:"price,omitempty"`

	Location       *GeoPoint `json:"location,omitempty"`
	RemoteEligible bool      `json:"remoteEligible,omitempty"`

	Urgency string      `json:"urgency,omitempty"`
	Window  *TimeWindow `json:"window,omitempty"`

	OwnerRating         *float64 `json:"ownerRating,omitempty"`
	ResponseTimeMinutes *float64 `json:"responseTimeMinutes,omitempty"`
	Verified            bool     `json:"verified,omitempty"`
	OwnerPremium        bool     `json:"ownerPremium,omitempty"`
}

// Urgency levels understood by the availability scorer and badge table.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
	UrgencyUrgent = "urgent"
)

// MatchFactors is a fractional [0,1] projection of a result's dimensions.
// A nil field means the result has no dimension of that kind.
type MatchFactors struct {
	SkillMatch        *float64 `json:"skillMatch,omitempty"`
	LocationProximity *float64 `json:"locationProximity,omitempty"`
	PriceMatch        *float64 `json:"priceMatch,omitempty"`
	AvailabilityMatch *float64 `json:"availabilityMatch,omitempty"`
	ReputationScore   *float64 `json:"reputationScore,omitempty"`
}

// CompatibilityResult is the outcome of scoring one profile against one
// listing. Results are values; use Clone before modifying a copy.
type CompatibilityResult struct {
	OverallScore           int          `json:"overallScore"`
	Dimensions             []Dimension  `json:"dimensions"`
	Category               Category     `json:"category"`
	Subcategory            string       `json:"subcategory,omitempty"`
	ListingID              string       `json:"listingId"`
	UserID                 string       `json:"userId"`
	Timestamp              time.Time    `json:"timestamp"`
	PrimaryMatchReason     string       `json:"primaryMatchReason"`
	ImprovementSuggestions []string     `json:"improvementSuggestions"`
	Factors                MatchFactors `json:"matchFactors"`
	Badges                 []Badge      `json:"badges"`
}

// Dimension returns the first dimension of the given kind.
func (r CompatibilityResult) Dimension(kind DimensionKind) (Dimension, bool) {
	for _, d := range r.Dimensions {
		if d.Kind == kind {
			return d, true
		}
	}
	return Dimension{}, false
}

// HasBadge reports whether the result carries the badge.
func (r CompatibilityResult) HasBadge(b Badge) bool {
	for _, have := range r.Badges {
		if have == b {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the result.
func (r CompatibilityResult) Clone() CompatibilityResult {
	out := r
	out.Dimensions = cloneSlice(r.Dimensions)
	out.ImprovementSuggestions = cloneSlice(r.ImprovementSuggestions)
	out.Badges = cloneSlice(r.Badges)
	out.Factors = MatchFactors{
		SkillMatch:        copyFloat(r.Factors.SkillMatch),
		LocationProximity: copyFloat(r.Factors.LocationProximity),
		PriceMatch:        copyFloat(r.Factors.PriceMatch),
		AvailabilityMatch: copyFloat(r.Factors.AvailabilityMatch),
		ReputationScore:   copyFloat(r.Factors.ReputationScore),
	}
	return out
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// Float returns a pointer to v. Handy for building profiles and listings.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }
