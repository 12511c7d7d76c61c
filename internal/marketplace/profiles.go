package marketplace

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"marketplace-compat/internal/common/database"
	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/common/metrics"
	"marketplace-compat/internal/compatibility"

	"github.com/redis/go-redis/v9"
)

const profileCachePrefix = "marketplace:profile:"

const profileQuery = `
	SELECT user_id, version, skills, target_price, min_price, max_price,
	       latitude, longitude, max_distance_km, remote_only,
	       available_immediately, available_from, available_until, premium
	FROM preference_profiles WHERE user_id = $1`

// ProfileStore loads preference profiles from postgres through a redis
// cache. A nil redis client disables caching.
type ProfileStore struct {
	db     *sql.DB
	redis  redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewProfileStore(db *sql.DB, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *ProfileStore {
	return &ProfileStore{
		db:     db,
		redis:  rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"store": "profiles"}),
	}
}

func profileCacheKey(userID string) string {
	return profileCachePrefix + userID
}

// Get returns the profile for userID. A missing row is PROFILE_NOT_FOUND.
func (s *ProfileStore) Get(ctx context.Context, userID string) (*compatibility.PreferenceProfile, error) {
	key := profileCacheKey(userID)
	if s.redis != nil {
		var cached compatibility.PreferenceProfile
		found, err := database.GetJSON(ctx, s.redis, key, &cached)
		if err != nil {
			s.logger.Warn("profile cache read failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
		metrics.ObserveCacheLookup("profile", found)
		if found {
			return &cached, nil
		}
	}

	profile, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.redis != nil {
		if err := database.SetJSON(ctx, s.redis, key, profile, s.ttl); err != nil {
			s.logger.Warn("profile cache write failed", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}
	return profile, nil
}

// Invalidate drops the cached copy of a profile.
func (s *ProfileStore) Invalidate(ctx context.Context, userID string) error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Del(ctx, profileCacheKey(userID)).Err()
}

func (s *ProfileStore) load(ctx context.Context, userID string) (*compatibility.PreferenceProfile, error) {
	var (
		p                          compatibility.PreferenceProfile
		skills                     []byte
		target, minP, maxP         sql.NullFloat64
		lat, lon, maxDistance      sql.NullFloat64
		immediately                sql.NullBool
		availableFrom, availableTo sql.NullTime
	)

	err := s.db.QueryRowContext(ctx, profileQuery, userID).Scan(
		&p.UserID, &p.Version, &skills, &target, &minP, &maxP,
		&lat, &lon, &maxDistance, &p.RemoteOnly,
		&immediately, &availableFrom, &availableTo, &p.Premium,
	)
	if err != nil {
		return nil, lookupError(ctx, err, "profile", func() *errors.StandardError {
			return errors.NewProfileNotFoundError(userID)
		}, errors.NewProfileLookupFailedError)
	}

	if len(skills) > 0 {
		if err := json.Unmarshal(skills, &p.Skills); err != nil {
			s.logger.Warn("profile skills unreadable", map[string]interface{}{
				"userId": userID,
				"error":  err.Error(),
			})
		}
	}
	p.TargetPrice = nullFloat(target)
	p.MinPrice = nullFloat(minP)
	p.MaxPrice = nullFloat(maxP)
	p.Location = nullPoint(lat, lon)
	p.MaxDistanceKm = nullFloat(maxDistance)
	if immediately.Valid {
		p.AvailableImmediately = compatibility.Bool(immediately.Bool)
	}
	p.Availability = nullWindow(availableFrom, availableTo)
	return &p, nil
}

// lookupError classifies a row lookup failure. notFound may be nil for
// multi-row queries.
func lookupError(
	ctx context.Context,
	err error,
	queryType string,
	notFound func() *errors.StandardError,
	failed func(error) *errors.StandardError,
) error {
	switch {
	case notFound != nil && stderrors.Is(err, sql.ErrNoRows):
		return notFound()
	case stderrors.Is(err, context.DeadlineExceeded), stderrors.Is(ctx.Err(), context.DeadlineExceeded):
		return errors.NewQueryTimeoutError(queryType)
	default:
		return failed(err)
	}
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return compatibility.Float(v.Float64)
}

func nullPoint(lat, lon sql.NullFloat64) *compatibility.GeoPoint {
	if !lat.Valid || !lon.Valid {
		return nil
	}
	return &compatibility.GeoPoint{Lat: lat.Float64, Lon: lon.Float64}
}

func nullWindow(start, end sql.NullTime) *compatibility.TimeWindow {
	if !start.Valid {
		return nil
	}
	w := &compatibility.TimeWindow{Start: start.Time}
	if end.Valid {
		t := end.Time
		w.End = &t
	}
	return w
}
