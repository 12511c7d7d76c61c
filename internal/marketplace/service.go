package marketplace

import (
	"context"
	"sort"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/metrics"
	"marketplace-compat/internal/common/observability"
	"marketplace-compat/internal/compatibility"

	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"
)

const DefaultRankingMaxItems = 20

type ProfileSource interface {
	Get(ctx context.Context, userID string) (*compatibility.PreferenceProfile, error)
}

// ProfileInvalidator is implemented by profile sources that keep a cached copy.
type ProfileInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type ListingSource interface {
	Get(ctx context.Context, listingID string) (*compatibility.ListingRecord, error)
	GetMany(ctx context.Context, listingIDs []string) ([]compatibility.ListingRecord, error)
}

type CandidateSearch interface {
	Search(ctx context.Context, q SearchQuery) ([]compatibility.ListingRecord, error)
}

// ScoreRequest asks for one listing scored against one requester. Inline
// profile and listing take precedence over the ids.
type ScoreRequest struct {
	UserID    string                           `json:"userId,omitempty"`
	Profile   *compatibility.PreferenceProfile `json:"profile,omitempty"`
	ListingID string                           `json:"listingId,omitempty"`
	Listing   *compatibility.ListingRecord     `json:"listing,omitempty"`
	SkipCache bool                             `json:"skipCache,omitempty"`
}

type ScoreResponse struct {
	Result compatibility.CompatibilityResult `json:"result"`
	Cached bool                              `json:"cached"`
}

// RankRequest asks for candidate listings ordered by compatibility. The
// candidates are Listings, else ListingIDs, else a search on Query.
type RankRequest struct {
	UserID      string                           `json:"userId,omitempty"`
	Profile     *compatibility.PreferenceProfile `json:"profile,omitempty"`
	ListingIDs  []string                         `json:"listingIds,omitempty"`
	Listings    []compatibility.ListingRecord    `json:"listings,omitempty"`
	Query       string                           `json:"query,omitempty"`
	Subcategory string                           `json:"subcategory,omitempty"`
	MaxItems    int                              `json:"maxItems,omitempty"`
	MinScore    int                              `json:"minScore,omitempty"`
}

type RankedListing struct {
	Rank               int                               `json:"rank"`
	ListingID          string                            `json:"listingId"`
	Title              string                            `json:"title,omitempty"`
	OverallScore       int                               `json:"overallScore"`
	PrimaryMatchReason string                            `json:"primaryMatchReason"`
	Badges             []compatibility.Badge             `json:"badges"`
	Compatibility      compatibility.CompatibilityResult `json:"compatibility"`
}

type RankResponse struct {
	Category       compatibility.Category `json:"category"`
	UserID         string                 `json:"userId,omitempty"`
	RankedListings []RankedListing        `json:"rankedListings"`
	Candidates     int                    `json:"candidates"`
	Skipped        int                    `json:"skipped"`
}

// ServiceOptions wires a Service. Only Engine and Logger are required; a
// nil store means requests must carry that input inline.
type ServiceOptions struct {
	Engine          *compatibility.Engine
	Profiles        ProfileSource
	Listings        ListingSource
	Search          CandidateSearch
	Cache           *ResultCache
	Observability   *observability.Observability
	Logger          logger.Logger
	RankingMaxItems int
}

// Service resolves inputs, runs the engine and records the outcome. The
// HTTP API and the job workers share it.
type Service struct {
	engine   *compatibility.Engine
	profiles ProfileSource
	listings ListingSource
	search   CandidateSearch
	cache    *ResultCache
	obs      *observability.Observability
	logger   logger.Logger
	maxItems int
}

func NewService(opts ServiceOptions) *Service {
	maxItems := opts.RankingMaxItems
	if maxItems <= 0 {
		maxItems = DefaultRankingMaxItems
	}
	return &Service{
		engine:   opts.Engine,
		profiles: opts.Profiles,
		listings: opts.Listings,
		search:   opts.Search,
		cache:    opts.Cache,
		obs:      opts.Observability,
		logger:   opts.Logger,
		maxItems: maxItems,
	}
}

func (s *Service) Engine() *compatibility.Engine {
	return s.engine
}

// Score computes the compatibility of one listing for one requester.
func (s *Service) Score(ctx context.Context, rawCategory string, req ScoreRequest) (*ScoreResponse, error) {
	category, err := compatibility.ParseCategory(rawCategory)
	if err != nil {
		metrics.ObserveFailure(rawCategory, err)
		return nil, errors.FromEngineError(err)
	}

	ctx, span := s.obs.StartSpan(ctx, "compatibility.score",
		attribute.String("category", string(category)),
		attribute.String("userId", req.UserID),
		attribute.String("listingId", req.ListingID),
	)
	defer span.End()

	if req.SkipCache && req.Profile == nil && req.UserID != "" {
		if err := s.InvalidateProfile(ctx, req.UserID); err != nil {
			s.logger.Warn("profile cache refresh failed", map[string]interface{}{
				"userId": req.UserID,
				"error":  err.Error(),
			})
		}
	}

	profile, err := s.resolveProfile(ctx, req.UserID, req.Profile)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	listing, err := s.resolveListing(ctx, req.ListingID, req.Listing)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	// Only pairs loaded from the stores are cached.
	key := ""
	if s.cache != nil && req.Profile == nil && req.Listing == nil {
		key = CacheKey(category, profile.UserID, profile.Version, listing.ID, listing.Version)
	}
	if key != "" && !req.SkipCache {
		if cached, ok := s.cache.Get(ctx, key); ok {
			metrics.ObserveResult(*cached, true)
			return &ScoreResponse{Result: *cached, Cached: true}, nil
		}
	}

	result, err := s.engine.Compute(category, profile, listing)
	if err != nil {
		metrics.ObserveFailure(string(category), err)
		span.RecordError(err)
		return nil, errors.FromEngineError(err)
	}

	metrics.ObserveResult(result, false)
	s.obs.RecordScored(ctx, string(category), 1)
	if key != "" {
		s.cache.Set(ctx, key, result)
	}

	s.logger.Info("compatibility scored", map[string]interface{}{
		"category":     string(category),
		"userId":       result.UserID,
		"listingId":    result.ListingID,
		"overallScore": result.OverallScore,
		"badges":       len(result.Badges),
	})
	return &ScoreResponse{Result: result}, nil
}

type scored struct {
	listing compatibility.ListingRecord
	result  compatibility.CompatibilityResult
	err     error
}

// Rank scores every candidate listing and returns them best first. Ties keep
// listing id order so repeated calls agree.
func (s *Service) Rank(ctx context.Context, rawCategory string, req RankRequest) (*RankResponse, error) {
	category, err := compatibility.ParseCategory(rawCategory)
	if err != nil {
		metrics.ObserveFailure(rawCategory, err)
		return nil, errors.FromEngineError(err)
	}

	ctx, span := s.obs.StartSpan(ctx, "compatibility.rank",
		attribute.String("category", string(category)),
		attribute.String("userId", req.UserID),
	)
	defer span.End()

	profile, err := s.resolveProfile(ctx, req.UserID, req.Profile)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	candidates, err := s.candidates(ctx, category, req)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	skipped := 0
	eligible := candidates[:0:0]
	for _, l := range candidates {
		if l.Category != "" && l.Category != string(category) {
			skipped++
			continue
		}
		eligible = append(eligible, l)
	}

	results := iter.Map(eligible, func(l *compatibility.ListingRecord) scored {
		res, err := s.engine.Compute(category, profile, l)
		return scored{listing: *l, result: res, err: err}
	})

	ranked := make([]scored, 0, len(results))
	for _, r := range results {
		if r.err != nil {
			// Engine errors depend only on category and configuration.
			metrics.ObserveFailure(string(category), r.err)
			span.RecordError(r.err)
			return nil, errors.FromEngineError(r.err)
		}
		metrics.ObserveResult(r.result, false)
		if r.result.OverallScore < req.MinScore {
			continue
		}
		ranked = append(ranked, r)
	}
	s.obs.RecordScored(ctx, string(category), len(results))

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].result.OverallScore != ranked[j].result.OverallScore {
			return ranked[i].result.OverallScore > ranked[j].result.OverallScore
		}
		return ranked[i].listing.ID < ranked[j].listing.ID
	})

	limit := s.maxItems
	if req.MaxItems > 0 && req.MaxItems < limit {
		limit = req.MaxItems
	}
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := &RankResponse{
		Category:       category,
		UserID:         profile.UserID,
		RankedListings: make([]RankedListing, len(ranked)),
		Candidates:     len(candidates),
		Skipped:        skipped,
	}
	for i, r := range ranked {
		out.RankedListings[i] = RankedListing{
			Rank:               i + 1,
			ListingID:          r.listing.ID,
			Title:              r.listing.Title,
			OverallScore:       r.result.OverallScore,
			PrimaryMatchReason: r.result.PrimaryMatchReason,
			Badges:             r.result.Badges,
			Compatibility:      r.result,
		}
	}

	s.logger.Info("listings ranked", map[string]interface{}{
		"category":   string(category),
		"userId":     profile.UserID,
		"candidates": len(candidates),
		"returned":   len(out.RankedListings),
		"skipped":    skipped,
	})
	return out, nil
}

// InvalidateProfile drops any cached copy of userID's profile so the next
// lookup, and the result cache key built from it, sees the stored version.
func (s *Service) InvalidateProfile(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.NewInvalidScoringRequestError("userId is required")
	}
	inv, ok := s.profiles.(ProfileInvalidator)
	if !ok {
		return nil
	}
	if err := inv.Invalidate(ctx, userID); err != nil {
		return errors.NewProfileLookupFailedError(err)
	}
	s.logger.Info("profile cache invalidated", map[string]interface{}{"userId": userID})
	return nil
}

func (s *Service) resolveProfile(ctx context.Context, userID string, inline *compatibility.PreferenceProfile) (*compatibility.PreferenceProfile, error) {
	if inline != nil {
		p := *inline
		if p.UserID == "" {
			p.UserID = userID
		}
		return &p, nil
	}
	if userID == "" {
		return nil, errors.NewInvalidScoringRequestError("userId or profile is required")
	}
	if s.profiles == nil {
		return nil, errors.NewInvalidScoringRequestError("profile lookup is not configured; send the profile inline")
	}
	return s.profiles.Get(ctx, userID)
}

func (s *Service) resolveListing(ctx context.Context, listingID string, inline *compatibility.ListingRecord) (*compatibility.ListingRecord, error) {
	if inline != nil {
		l := *inline
		if l.ID == "" {
			l.ID = listingID
		}
		return &l, nil
	}
	if listingID == "" {
		return nil, errors.NewInvalidScoringRequestError("listingId or listing is required")
	}
	if s.listings == nil {
		return nil, errors.NewInvalidScoringRequestError("listing lookup is not configured; send the listing inline")
	}
	return s.listings.Get(ctx, listingID)
}

func (s *Service) candidates(ctx context.Context, category compatibility.Category, req RankRequest) ([]compatibility.ListingRecord, error) {
	switch {
	case len(req.Listings) > 0:
		return req.Listings, nil
	case len(req.ListingIDs) > 0:
		if s.listings == nil {
			return nil, errors.NewInvalidScoringRequestError("listing lookup is not configured; send the listings inline")
		}
		return s.listings.GetMany(ctx, req.ListingIDs)
	case s.search != nil:
		size := req.MaxItems
		if size <= 0 || size > s.maxItems {
			size = s.maxItems
		}
		// Fetch three candidates per returned item.
		return s.search.Search(ctx, SearchQuery{
			Category:    category,
			Subcategory: req.Subcategory,
			Text:        req.Query,
			Size:        size * 3,
		})
	default:
		return nil, errors.NewInvalidScoringRequestError("listings or listingIds is required when listing search is not configured")
	}
}
