// internal/common/database/elasticsearch.go
package database

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"marketplace-compat/internal/common/config"

	"github.com/elastic/go-elasticsearch/v8"
)

// ListingsMapping is the index mapping used for listing search.
const ListingsMapping = `{
  "mappings": {
    "properties": {
      "id":                  {"type": "keyword"},
      "ownerId":             {"type": "keyword"},
      "version":             {"type": "keyword"},
      "category":            {"type": "keyword"},
      "subcategory":         {"type": "keyword"},
      "title":               {"type": "text"},
      "requiredSkills":      {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "price":               {"type": "double"},
      "location":            {"type": "object", "properties": {"lat": {"type": "double"}, "lon": {"type": "double"}}},
      "remoteEligible":      {"type": "boolean"},
      "urgency":             {"type": "keyword"},
      "ownerRating":         {"type": "double"},
      "responseTimeMinutes": {"type": "double"},
      "verified":            {"type": "boolean"},
      "ownerPremium":        {"type": "boolean"}
    }
  }
}`

type ElasticsearchClient struct {
	Client *elasticsearch.Client
}

func NewElasticsearch(cfg config.ElasticsearchConfig) (*ElasticsearchClient, error) {
	addresses := cfg.Addresses
	if len(addresses) == 0 && cfg.URL != "" {
		addresses = []string{cfg.URL}
	}

	esCfg := elasticsearch.Config{
		Addresses: addresses,
	}
	if cfg.Username != "" {
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	es, err := elasticsearch.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	return &ElasticsearchClient{Client: es}, nil
}

func (c *ElasticsearchClient) Ping(ctx context.Context) error {
	res, err := c.Client.Ping(
		c.Client.Ping.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch ping failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping error: %s", res.Status())
	}

	return nil
}

// EnsureIndex creates index with ListingsMapping unless it already exists.
func (c *ElasticsearchClient) EnsureIndex(ctx context.Context, index string) error {
	exists, err := c.Client.Indices.Exists(
		[]string{index},
		c.Client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index check failed: %w", err)
	}
	exists.Body.Close()
	if exists.StatusCode == http.StatusOK {
		return nil
	}

	res, err := c.Client.Indices.Create(
		index,
		c.Client.Indices.Create.WithContext(ctx),
		c.Client.Indices.Create.WithBody(strings.NewReader(ListingsMapping)),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index create failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index create error: %s", res.Status())
	}
	return nil
}
