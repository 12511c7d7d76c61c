package compatibility

// Badge is a qualitative tag attached to a result.
type Badge string

const (
	BadgePerfectMatch    Badge = "perfect-match"
	BadgeSkillExpert     Badge = "skill-expert"
	BadgeLocationPerfect Badge = "location-perfect"
	BadgeTopRated        Badge = "top-rated"
	BadgeQuickResponder  Badge = "quick-responder"
	BadgeUrgentMatch     Badge = "urgent-match"
	BadgeVerified        Badge = "verified"
	BadgePremium         Badge = "premium"
	BadgeClientFavorite  Badge = "client-favorite"
)

// Badge thresholds. All are inclusive except QuickResponderMinutes.
const (
	PerfectMatchMinScore     = 95
	SkillExpertMinFactor     = 0.90
	LocationPerfectMinFactor = 0.95
	TopRatedMinFactor        = 0.90
	QuickResponderMinutes    = 15.0
	ClientFavoriteMinRating  = 4.8
)

// BadgeInput is everything the badge table looks at.
type BadgeInput struct {
	OverallScore        int
	Factors             MatchFactors
	ResponseTimeMinutes *float64
	Urgency             string
	Verified            bool
	Premium             bool
	CounterpartRating   *float64
}

type badgeRule struct {
	badge     Badge
	qualifies func(BadgeInput) bool
}

var badgeTable = []badgeRule{
	{BadgePerfectMatch, func(in BadgeInput) bool { return in.OverallScore >= PerfectMatchMinScore }},
	{BadgeSkillExpert, func(in BadgeInput) bool { return atLeast(in.Factors.SkillMatch, SkillExpertMinFactor) }},
	{BadgeLocationPerfect, func(in BadgeInput) bool { return atLeast(in.Factors.LocationProximity, LocationPerfectMinFactor) }},
	{BadgeTopRated, func(in BadgeInput) bool { return atLeast(in.Factors.ReputationScore, TopRatedMinFactor) }},
	{BadgeQuickResponder, func(in BadgeInput) bool {
		return in.ResponseTimeMinutes != nil && *in.ResponseTimeMinutes < QuickResponderMinutes
	}},
	{BadgeUrgentMatch, func(in BadgeInput) bool {
		u := normalizeTerm(in.Urgency)
		return u == UrgencyHigh || u == UrgencyUrgent
	}},
	{BadgeVerified, func(in BadgeInput) bool { return in.Verified }},
	{BadgePremium, func(in BadgeInput) bool { return in.Premium }},
	{BadgeClientFavorite, func(in BadgeInput) bool { return atLeast(in.CounterpartRating, ClientFavoriteMinRating) }},
}

// DeriveBadges returns the badges in's values qualify for, each at most once,
// in table order.
func DeriveBadges(in BadgeInput) []Badge {
	out := make([]Badge, 0, len(badgeTable))
	for _, rule := range badgeTable {
		if rule.qualifies(in) {
			out = append(out, rule.badge)
		}
	}
	return out
}

// AllBadges lists every badge in table order.
func AllBadges() []Badge {
	out := make([]Badge, len(badgeTable))
	for i, rule := range badgeTable {
		out[i] = rule.badge
	}
	return out
}

// NewBadgeInput collects badge inputs from a scored result and its sources.
func NewBadgeInput(overall int, factors MatchFactors, profile *PreferenceProfile, listing *ListingRecord) BadgeInput {
	return BadgeInput{
		OverallScore:        overall,
		Factors:             factors,
		ResponseTimeMinutes: listing.ResponseTimeMinutes,
		Urgency:             listing.Urgency,
		Verified:            listing.Verified,
		Premium:             profile.Premium || listing.OwnerPremium,
		CounterpartRating:   listing.OwnerRating,
	}
}

// FactorsFrom projects dimensions onto MatchFactors. The first dimension of
// each kind wins.
func FactorsFrom(dims []Dimension) MatchFactors {
	var f MatchFactors
	for _, d := range dims {
		v := clampScore(d.Score) / 100
		switch d.Kind {
		case KindSkills:
			if f.SkillMatch == nil {
				f.SkillMatch = &v
			}
		case KindLocation:
			if f.LocationProximity == nil {
				f.LocationProximity = &v
			}
		case KindPrice:
			if f.PriceMatch == nil {
				f.PriceMatch = &v
			}
		case KindAvailability:
			if f.AvailabilityMatch == nil {
				f.AvailabilityMatch = &v
			}
		case KindQuality:
			if f.ReputationScore == nil {
				f.ReputationScore = &v
			}
		}
	}
	return f
}

func atLeast(v *float64, min float64) bool {
	return v != nil && !invalidFloat(*v) && *v >= min
}
