package compatibility

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Scorer rates one axis of fit between a profile and a listing. Scorers are
// total: unknown inputs produce NeutralScore, never an error. The engine
// assigns the weight.
type Scorer interface {
	Name() string
	Kind() DimensionKind
	Score(profile *PreferenceProfile, listing *ListingRecord) Dimension
}

const earthRadiusKm = 6371.0

func newDimension(name string, kind DimensionKind, score float64, description string) Dimension {
	return Dimension{
		Name:        name,
		Kind:        kind,
		Score:       clampScore(score),
		Description: description,
	}
}

// skillScorer computes a Jaccard index between the requester's skills and the
// listing's requirements, optionally crediting synonyms.
type skillScorer struct {
	name     string
	synonyms map[string]string
	credit   float64
}

func (s skillScorer) Name() string        { return s.name }
func (s skillScorer) Kind() DimensionKind { return KindSkills }

func (s skillScorer) Score(p *PreferenceProfile, l *ListingRecord) Dimension {
	if l.RequiredSkills == nil {
		return newDimension(s.name, KindSkills, NeutralScore, "Listing does not list its requirements")
	}
	required := normalizeSet(l.RequiredSkills)
	if len(required) == 0 {
		return newDimension(s.name, KindSkills, 100, "Listing has no specific requirements")
	}
	have := normalizeSet(p.Skills)
	if len(have) == 0 {
		return newDimension(s.name, KindSkills, NeutralScore, "Your profile does not list any skills")
	}

	haveCanon := make(map[string]struct{}, len(have))
	for term := range have {
		haveCanon[s.canonical(term)] = struct{}{}
	}

	// Required terms sharing a canonical form count once, with the best
	// credit any of them earns.
	requiredCanon := make(map[string]bool, len(required))
	for term := range required {
		c := s.canonical(term)
		_, exact := have[term]
		requiredCanon[c] = requiredCanon[c] || exact
	}

	union := len(haveCanon)
	exact, related := 0, 0
	for c, isExact := range requiredCanon {
		_, matched := haveCanon[c]
		switch {
		case isExact:
			exact++
		case matched:
			related++
		default:
			union++
		}
	}

	credit := float64(exact) + float64(related)*s.credit
	score := 100 * credit / float64(union)

	desc := fmt.Sprintf("%d of %d requirements matched", exact+related, len(requiredCanon))
	if related > 0 {
		desc += fmt.Sprintf(" (%d through related skills)", related)
	}
	return newDimension(s.name, KindSkills, score, desc)
}

func (s skillScorer) canonical(term string) string {
	if c, ok := s.synonyms[term]; ok {
		return c
	}
	return term
}

// priceScorer decays linearly from the target price to the edge of the
// acceptable range on whichever side the listing price falls.
type priceScorer struct {
	name string
}

func (s priceScorer) Name() string        { return s.name }
func (s priceScorer) Kind() DimensionKind { return KindPrice }

func (s priceScorer) Score(p *PreferenceProfile, l *ListingRecord) Dimension {
	if !validAmount(l.Price) {
		return newDimension(s.name, KindPrice, NeutralScore, "Listing price not specified")
	}
	price := *l.Price

	target, lo, hi, ok := priceBounds(p)
	if !ok {
		if bounded, inside := withinSingleBound(p, price); bounded {
			if inside {
				return newDimension(s.name, KindPrice, 100, fmt.Sprintf("Price %.2f is within your budget", price))
			}
			return newDimension(s.name, KindPrice, 0, fmt.Sprintf("Price %.2f is outside your budget", price))
		}
		return newDimension(s.name, KindPrice, NeutralScore, "No budget preference set")
	}

	if price < lo || price > hi {
		return newDimension(s.name, KindPrice, 0, fmt.Sprintf("Price %.2f is outside your %.2f-%.2f range", price, lo, hi))
	}
	if price == target {
		return newDimension(s.name, KindPrice, 100, fmt.Sprintf("Price matches your target of %.2f", target))
	}

	var score float64
	if price < target {
		score = 100 * (price - lo) / (target - lo)
	} else {
		score = 100 * (hi - price) / (hi - target)
	}
	return newDimension(s.name, KindPrice, score, fmt.Sprintf("Price %.2f is within your %.2f-%.2f range", price, lo, hi))
}

// priceBounds resolves the target and range from a profile. A missing range
// edge defaults to the target widened by DefaultPriceTolerance; a missing
// target defaults to the midpoint of the range.
func priceBounds(p *PreferenceProfile) (target, lo, hi float64, ok bool) {
	hasTarget := validAmount(p.TargetPrice)
	hasMin := validAmount(p.MinPrice)
	hasMax := validAmount(p.MaxPrice)

	switch {
	case hasTarget:
		target = *p.TargetPrice
		lo = target * (1 - DefaultPriceTolerance)
		hi = target * (1 + DefaultPriceTolerance)
		if hasMin {
			lo = *p.MinPrice
		}
		if hasMax {
			hi = *p.MaxPrice
		}
	case hasMin && hasMax:
		lo, hi = *p.MinPrice, *p.MaxPrice
		target = (lo + hi) / 2
	default:
		return 0, 0, 0, false
	}

	if lo > hi {
		lo, hi = hi, lo
	}
	target = math.Max(lo, math.Min(hi, target))
	return target, lo, hi, true
}

func withinSingleBound(p *PreferenceProfile, price float64) (bounded, inside bool) {
	if validAmount(p.MinPrice) {
		return true, price >= *p.MinPrice
	}
	if validAmount(p.MaxPrice) {
		return true, price <= *p.MaxPrice
	}
	return false, false
}

// locationScorer decays linearly with great-circle distance.
type locationScorer struct {
	name         string
	defaultMaxKm float64
}

func (s locationScorer) Name() string        { return s.name }
func (s locationScorer) Kind() DimensionKind { return KindLocation }

func (s locationScorer) Score(p *PreferenceProfile, l *ListingRecord) Dimension {
	if l.RemoteEligible {
		return newDimension(s.name, KindLocation, 100, "Remote-eligible listing")
	}
	if p.RemoteOnly {
		return newDimension(s.name, KindLocation, 0, "Listing requires on-site presence")
	}
	if !validPoint(p.Location) || !validPoint(l.Location) {
		return newDimension(s.name, KindLocation, NeutralScore, "Location not specified")
	}

	maxKm := s.defaultMaxKm
	if p.MaxDistanceKm != nil && *p.MaxDistanceKm > 0 && !invalidFloat(*p.MaxDistanceKm) {
		maxKm = *p.MaxDistanceKm
	}

	d := HaversineKm(*p.Location, *l.Location)
	desc := fmt.Sprintf("%.1f km away (limit %.0f km)", d, maxKm)
	if d >= maxKm {
		return newDimension(s.name, KindLocation, 0, desc)
	}
	return newDimension(s.name, KindLocation, 100*(1-d/maxKm), desc)
}

// validPoint rejects missing, non-finite and out-of-range coordinates.
func validPoint(g *GeoPoint) bool {
	if g == nil || invalidFloat(g.Lat) || invalidFloat(g.Lon) {
		return false
	}
	return math.Abs(g.Lat) <= 90 && math.Abs(g.Lon) <= 180
}

// HaversineKm returns the great-circle distance between two points.
func HaversineKm(a, b GeoPoint) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// urgencyScorer maps a job's urgency against whether the requester can start
// immediately.
type urgencyScorer struct {
	name string
}

func (s urgencyScorer) Name() string        { return s.name }
func (s urgencyScorer) Kind() DimensionKind { return KindAvailability }

const lateStartScore = 30.0

func (s urgencyScorer) Score(p *PreferenceProfile, l *ListingRecord) Dimension {
	if p.AvailableImmediately == nil {
		return newDimension(s.name, KindAvailability, NeutralScore, "Your availability is not specified")
	}
	switch normalizeTerm(l.Urgency) {
	case UrgencyHigh, UrgencyUrgent:
		if *p.AvailableImmediately {
			return newDimension(s.name, KindAvailability, 100, "You can start right away on an urgent listing")
		}
		return newDimension(s.name, KindAvailability, lateStartScore, "Listing needs someone who can start immediately")
	case UrgencyLow, UrgencyMedium, "flexible":
		return newDimension(s.name, KindAvailability, 100, "Listing timing is flexible")
	default:
		return newDimension(s.name, KindAvailability, NeutralScore, "Listing timing not specified")
	}
}

// windowScorer measures how much of the requester's window the listing covers.
type windowScorer struct {
	name string
}

func (s windowScorer) Name() string        { return s.name }
func (s windowScorer) Kind() DimensionKind { return KindAvailability }

func (s windowScorer) Score(p *PreferenceProfile, l *ListingRecord) Dimension {
	if p.Availability == nil || l.Window == nil {
		return newDimension(s.name, KindAvailability, NeutralScore, "Dates not specified")
	}
	fraction := overlapFraction(*p.Availability, *l.Window)
	return newDimension(s.name, KindAvailability, 100*fraction,
		fmt.Sprintf("Listing covers %.0f%% of your requested dates", 100*fraction))
}

// overlapFraction returns the share of want covered by offer. An open-ended
// or zero-length want is treated as a single instant at its start.
func overlapFraction(want, offer TimeWindow) float64 {
	if want.End == nil || !want.End.After(want.Start) {
		if covers(offer, want.Start) {
			return 1
		}
		return 0
	}

	start := want.Start
	if offer.Start.After(start) {
		start = offer.Start
	}
	end := *want.End
	if offer.End != nil && offer.End.Before(end) {
		end = *offer.End
	}
	if !end.After(start) {
		return 0
	}
	return float64(end.Sub(start)) / float64(want.End.Sub(want.Start))
}

func covers(w TimeWindow, t time.Time) bool {
	if t.Before(w.Start) {
		return false
	}
	return w.End == nil || !t.After(*w.End)
}

// reputationScorer converts a 0-5 owner rating to a 0-100 score.
type reputationScorer struct {
	name string
}

func (s reputationScorer) Name() string        { return s.name }
func (s reputationScorer) Kind() DimensionKind { return KindQuality }

func (s reputationScorer) Score(_ *PreferenceProfile, l *ListingRecord) Dimension {
	if l.OwnerRating == nil || invalidFloat(*l.OwnerRating) {
		return newDimension(s.name, KindQuality, NeutralScore, "Owner has no rating yet")
	}
	rating := math.Max(0, math.Min(5, *l.OwnerRating))
	return newDimension(s.name, KindQuality, rating/5*100, fmt.Sprintf("Owner rated %.1f/5", rating))
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func normalizeSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if n := normalizeTerm(v); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

// validAmount reports whether v is a usable, non-negative price.
func validAmount(v *float64) bool {
	return v != nil && !invalidFloat(*v) && *v >= 0
}

func invalidFloat(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

func clampScore(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return NeutralScore
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return v
}

func clampWeight(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
