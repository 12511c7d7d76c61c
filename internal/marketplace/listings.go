package marketplace

import (
	"context"
	"database/sql"
	"encoding/json"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/compatibility"

	"github.com/lib/pq"
)

const listingColumns = `
	SELECT id, owner_id, version, category, subcategory, title, required_skills,
	       price, latitude, longitude, remote_eligible, urgency,
	       window_start, window_end, owner_rating, response_time_minutes,
	       verified, owner_premium
	FROM listings`

// ListingStore reads listing records from postgres.
type ListingStore struct {
	db     *sql.DB
	logger logger.Logger
}

func NewListingStore(db *sql.DB, log logger.Logger) *ListingStore {
	return &ListingStore{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"store": "listings"}),
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// Get returns one listing. A missing row is LISTING_NOT_FOUND.
func (s *ListingStore) Get(ctx context.Context, id string) (*compatibility.ListingRecord, error) {
	row := s.db.QueryRowContext(ctx, listingColumns+` WHERE id = $1`, id)
	listing, err := s.scan(row)
	if err != nil {
		return nil, lookupError(ctx, err, "listing", func() *errors.StandardError {
			return errors.NewListingNotFoundError(id)
		}, errors.NewListingLookupFailedError)
	}
	return listing, nil
}

// GetMany returns the listings with the given ids in request order. Unknown
// ids are skipped and duplicates collapse to their first position.
func (s *ListingStore) GetMany(ctx context.Context, ids []string) ([]compatibility.ListingRecord, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, listingColumns+` WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, lookupError(ctx, err, "listing", nil, errors.NewListingLookupFailedError)
	}
	defer rows.Close()

	byID := make(map[string]compatibility.ListingRecord, len(ids))
	for rows.Next() {
		listing, err := s.scan(rows)
		if err != nil {
			return nil, errors.NewListingLookupFailedError(err)
		}
		byID[listing.ID] = *listing
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewListingLookupFailedError(err)
	}

	out := make([]compatibility.ListingRecord, 0, len(byID))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		listing, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, listing)
	}
	if requested := countDistinct(ids); len(out) < requested {
		s.logger.Warn("some listings were not found", map[string]interface{}{
			"requested": requested,
			"found":     len(out),
		})
	}
	return out, nil
}

func countDistinct(ids []string) int {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return len(set)
}

func (s *ListingStore) scan(row rowScanner) (*compatibility.ListingRecord, error) {
	var (
		l                       compatibility.ListingRecord
		subcategory, title, urg sql.NullString
		skills                  []byte
		price, lat, lon         sql.NullFloat64
		rating, response        sql.NullFloat64
		windowStart, windowEnd  sql.NullTime
	)

	err := row.Scan(
		&l.ID, &l.OwnerID, &l.Version, &l.Category, &subcategory, &title, &skills,
		&price, &lat, &lon, &l.RemoteEligible, &urg,
		&windowStart, &windowEnd, &rating, &response,
		&l.Verified, &l.OwnerPremium,
	)
	if err != nil {
		return nil, err
	}

	l.Subcategory = subcategory.String
	l.Title = title.String
	l.Urgency = urg.String
	// NULL keeps RequiredSkills nil, which the skill scorer reads as undeclared.
	if skills != nil {
		if err := json.Unmarshal(skills, &l.RequiredSkills); err != nil {
			s.logger.Warn("listing skills unreadable", map[string]interface{}{
				"listingId": l.ID,
				"error":     err.Error(),
			})
			l.RequiredSkills = nil
		}
	}
	l.Price = nullFloat(price)
	l.Location = nullPoint(lat, lon)
	l.Window = nullWindow(windowStart, windowEnd)
	l.OwnerRating = nullFloat(rating)
	l.ResponseTimeMinutes = nullFloat(response)
	return &l, nil
}
