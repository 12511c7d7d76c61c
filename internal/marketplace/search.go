package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/logger"
	"marketplace-compat/internal/compatibility"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	defaultSearchSize = 20
	maxSearchSize     = 100
)

// SearchQuery selects candidate listings for ranking.
type SearchQuery struct {
	Category    compatibility.Category
	Subcategory string
	Text        string
	Size        int
}

// ListingSearch finds candidate listings in the elasticsearch listings index.
type ListingSearch struct {
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewListingSearch(es *elasticsearch.Client, index string, log logger.Logger) *ListingSearch {
	return &ListingSearch{
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"index": index}),
	}
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string                      `json:"_id"`
			Score  float64                     `json:"_score"`
			Source compatibility.ListingRecord `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns listings of q.Category in relevance order.
func (s *ListingSearch) Search(ctx context.Context, q SearchQuery) ([]compatibility.ListingRecord, error) {
	size := q.Size
	if size <= 0 {
		size = defaultSearchSize
	}
	if size > maxSearchSize {
		size = maxSearchSize
	}

	body, err := json.Marshal(buildListingQuery(q))
	if err != nil {
		return nil, errors.NewListingSearchFailedError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		Size:  &size,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, s.searchError(ctx, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, errors.NewListingSearchFailedError(fmt.Errorf("search query failed: %s", res.Status()))
	}

	var decoded searchResponse
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, errors.NewListingSearchFailedError(err)
	}

	listings := make([]compatibility.ListingRecord, 0, len(decoded.Hits.Hits))
	for _, hit := range decoded.Hits.Hits {
		listing := hit.Source
		if listing.ID == "" {
			listing.ID = hit.ID
		}
		if listing.Category == "" {
			listing.Category = string(q.Category)
		}
		listings = append(listings, listing)
	}

	s.logger.Debug("listing search completed", map[string]interface{}{
		"category":  string(q.Category),
		"totalHits": decoded.Hits.Total.Value,
		"returned":  len(listings),
	})
	return listings, nil
}

func (s *ListingSearch) searchError(ctx context.Context, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewSearchTimeoutError(s.index)
	}
	return errors.NewListingSearchFailedError(err)
}

func buildListingQuery(q SearchQuery) map[string]interface{} {
	filterClauses := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{"category": string(q.Category)},
		},
	}
	if q.Subcategory != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"subcategory": q.Subcategory},
		})
	}

	mustClauses := []interface{}{}
	if q.Text != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  q.Text,
				"fields": []string{"title^3", "requiredSkills^2", "subcategory"},
				"type":   "best_fields",
			},
		})
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match_all": map[string]interface{}{},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
	}
}
