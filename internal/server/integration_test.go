package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/compatibility"
	"marketplace-compat/internal/marketplace"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	profileColumns = []string{
		"user_id", "version", "skills", "target_price", "min_price", "max_price",
		"latitude", "longitude", "max_distance_km", "remote_only",
		"available_immediately", "available_from", "available_until", "premium",
	}
	listingColumns = []string{
		"id", "owner_id", "version", "category", "subcategory", "title", "required_skills",
		"price", "latitude", "longitude", "remote_eligible", "urgency",
		"window_start", "window_end", "owner_rating", "response_time_minutes",
		"verified", "owner_premium",
	}
)

const searchHits = `{
  "hits": {
    "total": {"value": 2},
    "hits": [
      {"_id": "svc-tiles", "_score": 2.0, "_source": {"title": "Bathroom tiling", "requiredSkills": ["tiling"], "price": 400, "location": {"lat": 52.52, "lon": 13.40}}},
      {"_id": "svc-plumb", "_score": 1.0, "_source": {"title": "Emergency plumbing", "requiredSkills": ["plumbing", "heating"], "price": 150, "location": {"lat": 52.53, "lon": 13.41}, "urgency": "urgent", "verified": true}}
    ]
  }
}`

// TestStoresThroughRouter runs score and rank requests against the real
// store implementations backed by sqlmock, miniredis and a stub search node.
func TestStoresThroughRouter(t *testing.T) {
	env := newStoreBackedRouter(t)

	db, mock := env.db, env.mock
	defer db.Close()

	mock.ExpectQuery(`FROM preference_profiles WHERE user_id = \$1`).WithArgs("user-7").
		WillReturnRows(sqlmock.NewRows(profileColumns).AddRow(
			"user-7", "2", []byte(`["plumbing","heating"]`), nil, 100.0, 200.0,
			52.52, 13.40, 10.0, false,
			true, nil, nil, false,
		))
	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`FROM listings WHERE id = \$1`).WithArgs("svc-plumb").
			WillReturnRows(sqlmock.NewRows(listingColumns).AddRow(
				"svc-plumb", "owner-1", "5", "services", "plumbing", "Emergency plumbing", []byte(`["plumbing","heating"]`),
				150.0, 52.53, 13.41, false, "urgent",
				nil, nil, 4.8, 15.0,
				true, false,
			))
	}

	body := `{"userId": "user-7", "listingId": "svc-plumb"}`

	w := do(env.router, http.MethodPost, "/api/v1/compatibility/services", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var first marketplace.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	assert.False(t, first.Cached)
	assert.Equal(t, "svc-plumb", first.Result.ListingID)
	assert.Greater(t, first.Result.OverallScore, 70)

	w = do(env.router, http.MethodPost, "/api/v1/compatibility/services", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var second marketplace.ScoreResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.True(t, second.Cached)
	assert.Equal(t, first.Result.OverallScore, second.Result.OverallScore)

	assert.True(t, env.redis.Exists("marketplace:profile:user-7"))
	assert.True(t, env.redis.Exists(marketplace.CacheKey(compatibility.CategoryServices, "user-7", "2", "svc-plumb", "5")))

	// The profile now comes from redis, the candidates from search.
	w = do(env.router, http.MethodPost, "/api/v1/compatibility/services/rank",
		`{"userId": "user-7", "query": "plumbing", "maxItems": 5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var ranked marketplace.RankResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ranked))
	require.Len(t, ranked.RankedListings, 2)
	assert.Equal(t, "svc-plumb", ranked.RankedListings[0].ListingID)
	assert.Equal(t, "svc-tiles", ranked.RankedListings[1].ListingID)
	assert.Equal(t, "services", <-env.searchCategories)

	assert.NoError(t, mock.ExpectationsWereMet())
}

type storeBackedRouter struct {
	router           http.Handler
	db               interface{ Close() error }
	mock             sqlmock.Sqlmock
	redis            *miniredis.Miniredis
	searchCategories chan string
}

func newStoreBackedRouter(t *testing.T) *storeBackedRouter {
	t.Helper()
	log := logger.NewTestLogger(t)
	out := &storeBackedRouter{searchCategories: make(chan string, 1)}

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	out.db, out.mock = db, mock

	out.redis = miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: out.redis.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Query struct {
				Bool struct {
					Filter []map[string]map[string]string `json:"filter"`
				} `json:"bool"`
			} `json:"query"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, f := range req.Query.Bool.Filter {
			if term, ok := f["term"]; ok && term["category"] != "" {
				select {
				case out.searchCategories <- term["category"]:
				default:
				}
			}
		}
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchHits))
	}))
	t.Cleanup(node.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{node.URL}})
	require.NoError(t, err)

	svc := marketplace.NewService(marketplace.ServiceOptions{
		Engine:   compatibility.NewEngine(compatibility.DefaultConfig()),
		Profiles: marketplace.NewProfileStore(db, rdb, time.Minute, log),
		Listings: marketplace.NewListingStore(db, log),
		Search:   marketplace.NewListingSearch(es, "listings", log),
		Cache:    marketplace.NewResultCache(rdb, 10*time.Minute, log),
		Logger:   log,
	})

	out.router = NewRouter(Deps{Service: svc, Logger: log, Gatherer: prometheus.NewRegistry()})
	return out
}
