package marketplace

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/compatibility"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var profileColumns = []string{
	"user_id", "version", "skills", "target_price", "min_price", "max_price",
	"latitude", "longitude", "max_distance_km", "remote_only",
	"available_immediately", "available_from", "available_until", "premium",
}

const profileQueryPattern = `SELECT user_id, version, skills, .* FROM preference_profiles WHERE user_id = \$1`

func profileRow() *sqlmock.Rows {
	return profileRowAt("7")
}

func profileRowAt(version string) *sqlmock.Rows {
	return sqlmock.NewRows(profileColumns).AddRow(
		"user-1", version, []byte(`["golang","react"]`), 60.0, nil, nil,
		40.7128, -74.0060, 25.0, false,
		true, nil, nil, true,
	)
}

func expectedProfile() compatibility.PreferenceProfile {
	return compatibility.PreferenceProfile{
		UserID:               "user-1",
		Version:              "7",
		Skills:               []string{"golang", "react"},
		TargetPrice:          compatibility.Float(60),
		Location:             &compatibility.GeoPoint{Lat: 40.7128, Lon: -74.0060},
		MaxDistanceKm:        compatibility.Float(25),
		AvailableImmediately: compatibility.Bool(true),
		Premium:              true,
	}
}

func TestProfileStore_CacheAside(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRow())

	store := NewProfileStore(db, rdb, 5*time.Minute, logger.NewTestLogger(t))
	ctx := context.Background()

	profile, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, expectedProfile(), *profile)
	assert.True(t, mr.Exists("marketplace:profile:user-1"))

	// Served from redis; sqlmock would fail on an unexpected query.
	again, err := store.Get(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, profile, again)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.NoError(t, store.Invalidate(ctx, "user-1"))
	assert.False(t, mr.Exists("marketplace:profile:user-1"))
}

func TestProfileStore_WritesCacheEntry(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	cacheKey := "marketplace:profile:user-1"
	redisMock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRow())
	cachedData, _ := json.Marshal(expectedProfile())
	redisMock.ExpectSet(cacheKey, cachedData, 5*time.Minute).SetVal("OK")

	store := NewProfileStore(db, redisClient, 5*time.Minute, logger.NewTestLogger(t))
	_, err = store.Get(context.Background(), "user-1")
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestProfileStore_RedisDownFallsBackToPostgres(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()

	cacheKey := "marketplace:profile:user-1"
	redisMock.ExpectGet(cacheKey).SetErr(stderrors.New("connection refused"))
	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRow())
	cachedData, _ := json.Marshal(expectedProfile())
	redisMock.ExpectSet(cacheKey, cachedData, time.Minute).SetErr(stderrors.New("connection refused"))

	store := NewProfileStore(db, redisClient, time.Minute, logger.NewTestLogger(t))
	profile, err := store.Get(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", profile.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileStore_Errors(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		wantCode errors.ErrorCode
	}{
		{"missing row", sql.ErrNoRows, errors.ErrCodeProfileNotFound},
		{"driver failure", stderrors.New("connection reset"), errors.ErrCodeProfileLookupFailed},
		{"deadline", context.DeadlineExceeded, errors.ErrCodeQueryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(profileQueryPattern).WithArgs("ghost").WillReturnError(tt.dbErr)

			store := NewProfileStore(db, nil, time.Minute, logger.NewNoOpLogger())
			_, err = store.Get(context.Background(), "ghost")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsStandardError(err).Code)
		})
	}
}

func TestProfileStore_AvailabilityWindow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	from := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	until := from.Add(8 * time.Hour)
	rows := sqlmock.NewRows(profileColumns).AddRow(
		"user-2", "1", nil, nil, 100.0, 200.0,
		nil, nil, nil, true,
		nil, from, until, false,
	)
	mock.ExpectQuery(profileQueryPattern).WithArgs("user-2").WillReturnRows(rows)

	store := NewProfileStore(db, nil, time.Minute, logger.NewNoOpLogger())
	profile, err := store.Get(context.Background(), "user-2")
	require.NoError(t, err)

	assert.Nil(t, profile.Skills)
	assert.Nil(t, profile.Location)
	assert.Nil(t, profile.AvailableImmediately)
	assert.True(t, profile.RemoteOnly)
	require.NotNil(t, profile.Availability)
	assert.Equal(t, from, profile.Availability.Start)
	assert.Equal(t, until, *profile.Availability.End)
	assert.Equal(t, 100.0, *profile.MinPrice)
	assert.Equal(t, 200.0, *profile.MaxPrice)
}

func TestService_InvalidateProfileRefreshesResultKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRowAt("7"))
	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRowAt("8"))

	log := logger.NewTestLogger(t)
	svc := newTestService(t, ServiceOptions{
		Profiles: NewProfileStore(db, rdb, time.Hour, log),
		Listings: &fakeListings{listings: map[string]*compatibility.ListingRecord{"job-1": webDevListing("job-1", "react")}},
		Cache:    NewResultCache(rdb, time.Hour, log),
	})
	ctx := context.Background()
	req := ScoreRequest{UserID: "user-1", ListingID: "job-1"}

	first, err := svc.Score(ctx, "jobs", req)
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.True(t, mr.Exists(CacheKey(compatibility.CategoryJobs, "user-1", "7", "job-1", "1")))

	second, err := svc.Score(ctx, "jobs", req)
	require.NoError(t, err)
	assert.True(t, second.Cached)

	require.NoError(t, svc.InvalidateProfile(ctx, "user-1"))
	assert.False(t, mr.Exists("marketplace:profile:user-1"))

	third, err := svc.Score(ctx, "jobs", req)
	require.NoError(t, err)
	assert.False(t, third.Cached)
	assert.True(t, mr.Exists(CacheKey(compatibility.CategoryJobs, "user-1", "8", "job-1", "1")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestService_SkipCacheReloadsProfile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRowAt("7"))
	mock.ExpectQuery(profileQueryPattern).WithArgs("user-1").WillReturnRows(profileRowAt("8"))

	svc := newTestService(t, ServiceOptions{
		Profiles: NewProfileStore(db, rdb, time.Hour, logger.NewTestLogger(t)),
		Listings: &fakeListings{listings: map[string]*compatibility.ListingRecord{"job-1": webDevListing("job-1", "react")}},
	})
	ctx := context.Background()

	_, err = svc.Score(ctx, "jobs", ScoreRequest{UserID: "user-1", ListingID: "job-1"})
	require.NoError(t, err)

	_, err = svc.Score(ctx, "jobs", ScoreRequest{UserID: "user-1", ListingID: "job-1", SkipCache: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	var cached compatibility.PreferenceProfile
	raw, err := mr.Get("marketplace:profile:user-1")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &cached))
	assert.Equal(t, "8", cached.Version)
}
