// internal/workers/compatibility/rank-listings/models.go
package ranklistings

import "marketplace-compat/internal/marketplace"

type Input struct {
	Category string `json:"category"`
	marketplace.RankRequest
}

type Output struct {
	RankedListings []marketplace.RankedListing `json:"rankedListings"`
	TopListingID   string                      `json:"topListingId,omitempty"`
	TopScore       int                         `json:"topScore"`
	Candidates     int                         `json:"candidateCount"`
	Skipped        int                         `json:"skippedCount"`
}
