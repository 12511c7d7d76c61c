package compatibility

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func hasBadge(badges []Badge, b Badge) bool {
	for _, have := range badges {
		if have == b {
			return true
		}
	}
	return false
}

func TestDeriveBadges_Boundaries(t *testing.T) {
	tests := []struct {
		name  string
		in    BadgeInput
		badge Badge
		want  bool
	}{
		{name: "perfect match at 95", in: BadgeInput{OverallScore: 95}, badge: BadgePerfectMatch, want: true},
		{name: "perfect match at 94", in: BadgeInput{OverallScore: 94}, badge: BadgePerfectMatch, want: false},
		{name: "skill expert at 0.90", in: BadgeInput{Factors: MatchFactors{SkillMatch: Float(0.90)}}, badge: BadgeSkillExpert, want: true},
		{name: "skill expert just below", in: BadgeInput{Factors: MatchFactors{SkillMatch: Float(0.899999)}}, badge: BadgeSkillExpert, want: false},
		{name: "skill expert absent factor", in: BadgeInput{}, badge: BadgeSkillExpert, want: false},
		{name: "location perfect at 0.95", in: BadgeInput{Factors: MatchFactors{LocationProximity: Float(0.95)}}, badge: BadgeLocationPerfect, want: true},
		{name: "location perfect just below", in: BadgeInput{Factors: MatchFactors{LocationProximity: Float(0.949999)}}, badge: BadgeLocationPerfect, want: false},
		{name: "top rated at 0.90", in: BadgeInput{Factors: MatchFactors{ReputationScore: Float(0.90)}}, badge: BadgeTopRated, want: true},
		{name: "top rated just below", in: BadgeInput{Factors: MatchFactors{ReputationScore: Float(0.899999)}}, badge: BadgeTopRated, want: false},
		{name: "quick responder under 15", in: BadgeInput{ResponseTimeMinutes: Float(14.9)}, badge: BadgeQuickResponder, want: true},
		{name: "quick responder at 15", in: BadgeInput{ResponseTimeMinutes: Float(15)}, badge: BadgeQuickResponder, want: false},
		{name: "quick responder unknown", in: BadgeInput{}, badge: BadgeQuickResponder, want: false},
		{name: "urgent match high", in: BadgeInput{Urgency: "high"}, badge: BadgeUrgentMatch, want: true},
		{name: "urgent match urgent", in: BadgeInput{Urgency: "URGENT"}, badge: BadgeUrgentMatch, want: true},
		{name: "urgent match medium", in: BadgeInput{Urgency: "medium"}, badge: BadgeUrgentMatch, want: false},
		{name: "verified", in: BadgeInput{Verified: true}, badge: BadgeVerified, want: true},
		{name: "not verified", in: BadgeInput{}, badge: BadgeVerified, want: false},
		{name: "premium", in: BadgeInput{Premium: true}, badge: BadgePremium, want: true},
		{name: "client favorite at 4.8", in: BadgeInput{CounterpartRating: Float(4.8)}, badge: BadgeClientFavorite, want: true},
		{name: "client favorite at 4.79", in: BadgeInput{CounterpartRating: Float(4.79)}, badge: BadgeClientFavorite, want: false},
		{name: "client favorite unrated", in: BadgeInput{}, badge: BadgeClientFavorite, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hasBadge(DeriveBadges(tt.in), tt.badge))
		})
	}
}

func TestDeriveBadges_EmptyInputQualifiesForNothing(t *testing.T) {
	assert.Empty(t, DeriveBadges(BadgeInput{}))
}

func TestDeriveBadges_TableOrderAndUniqueness(t *testing.T) {
	in := BadgeInput{
		OverallScore: 100,
		Factors: MatchFactors{
			SkillMatch:        Float(1),
			LocationProximity: Float(1),
			ReputationScore:   Float(1),
		},
		ResponseTimeMinutes: Float(1),
		Urgency:             UrgencyUrgent,
		Verified:            true,
		Premium:             true,
		CounterpartRating:   Float(5),
	}
	assert.Equal(t, AllBadges(), DeriveBadges(in))
}

func TestNewBadgeInput_PremiumFromEitherSide(t *testing.T) {
	listing := &ListingRecord{}
	assert.True(t, NewBadgeInput(0, MatchFactors{}, &PreferenceProfile{Premium: true}, listing).Premium)
	assert.True(t, NewBadgeInput(0, MatchFactors{}, &PreferenceProfile{}, &ListingRecord{OwnerPremium: true}).Premium)
	assert.False(t, NewBadgeInput(0, MatchFactors{}, &PreferenceProfile{}, listing).Premium)
}

func TestFactorsFrom(t *testing.T) {
	f := FactorsFrom([]Dimension{
		{Kind: KindSkills, Score: 90},
		{Kind: KindSkills, Score: 10},
		{Kind: KindPrice, Score: 40},
		{Kind: KindQuality, Score: 120},
	})

	assert.InDelta(t, 0.9, *f.SkillMatch, 1e-9)
	assert.InDelta(t, 0.4, *f.PriceMatch, 1e-9)
	assert.InDelta(t, 1.0, *f.ReputationScore, 1e-9)
	assert.Nil(t, f.LocationProximity)
	assert.Nil(t, f.AvailabilityMatch)
}

func TestFactorsFrom_ScoreNinetyQualifiesForSkillExpert(t *testing.T) {
	f := FactorsFrom([]Dimension{{Kind: KindSkills, Score: 90}})
	assert.True(t, hasBadge(DeriveBadges(BadgeInput{Factors: f}), BadgeSkillExpert))
}
