// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/errors"
	"marketplace-compat/internal/common/validation"
	cc "marketplace-compat/internal/workers/compatibility/calculate-compatibility"
	rl "marketplace-compat/internal/workers/compatibility/rank-listings"

	"github.com/xeipuuv/gojsonschema"
)

const registryVersion = "1.0.0"

const scoreOutputSchema = `{
  "type": "object",
  "required": ["compatibility", "overallScore", "primaryMatchReason", "badges"],
  "properties": {
    "compatibility":          {"type": "object"},
    "overallScore":           {"type": "integer", "minimum": 0, "maximum": 100},
    "primaryMatchReason":     {"type": "string"},
    "improvementSuggestions": {"type": "array", "items": {"type": "string"}},
    "badges":                 {"type": "array", "items": {"type": "string"}},
    "matchFactors":           {"type": "object"},
    "cached":                 {"type": "boolean"}
  }
}`

const rankOutputSchema = `{
  "type": "object",
  "required": ["rankedListings", "candidateCount", "skippedCount"],
  "properties": {
    "rankedListings": {"type": "array", "items": {"type": "object"}},
    "topListingId":   {"type": "string"},
    "topScore":       {"type": "integer", "minimum": 0, "maximum": 100},
    "candidateCount": {"type": "integer", "minimum": 0},
    "skippedCount":   {"type": "integer", "minimum": 0}
  }
}`

var sharedErrorCodes = []errors.ErrorCode{
	errors.ErrCodeUnsupportedCategory,
	errors.ErrCodeScoringConfigurationInvalid,
	errors.ErrCodeInvalidScoringRequest,
	errors.ErrCodeProfileNotFound,
	errors.ErrCodeProfileLookupFailed,
	errors.ErrCodeQueryTimeout,
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON.
func (r *ActivityRegistry) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Build describes the compatibility workers as configured in cfg.
func Build(cfg *config.Config, now time.Time) (*ActivityRegistry, error) {
	scoreIn, err := decodeSchema(validation.ScoreRequestSchema)
	if err != nil {
		return nil, err
	}
	rankIn, err := decodeSchema(validation.RankRequestSchema)
	if err != nil {
		return nil, err
	}
	scoreOut, err := decodeSchema(scoreOutputSchema)
	if err != nil {
		return nil, err
	}
	rankOut, err := decodeSchema(rankOutputSchema)
	if err != nil {
		return nil, err
	}

	score := activity(cfg, cc.TaskType)
	score.DisplayName = "Calculate Compatibility"
	score.Description = "Scores one listing against one requester's preference profile."
	score.InputSchema = scoreIn
	score.OutputSchema = scoreOut
	score.ErrorCodes = codes(append(sharedErrorCodes,
		errors.ErrCodeListingNotFound,
		errors.ErrCodeListingLookupFailed,
	))
	score.Tags = []string{"compatibility", "scoring"}

	rank := activity(cfg, rl.TaskType)
	rank.DisplayName = "Rank Listings"
	rank.Description = "Scores candidate listings for one requester and orders them best first."
	rank.InputSchema = rankIn
	rank.OutputSchema = rankOut
	rank.ErrorCodes = codes(append(sharedErrorCodes,
		errors.ErrCodeListingLookupFailed,
		errors.ErrCodeListingSearchFailed,
		errors.ErrCodeSearchTimeout,
	))
	rank.Tags = []string{"compatibility", "ranking", "search"}

	return &ActivityRegistry{
		Version:     registryVersion,
		LastUpdated: now.UTC().Format(time.RFC3339),
		Activities:  []Activity{score, rank},
	}, nil
}

func activity(cfg *config.Config, taskType string) Activity {
	wcfg := config.GetWorkerConfig(cfg, taskType)
	return Activity{
		ID:            taskType,
		Category:      "compatibility",
		Version:       cfg.App.Version,
		TaskType:      taskType,
		Enabled:       wcfg.Enabled,
		Timeout:       config.GetDuration(wcfg.Timeout).String(),
		Retries:       wcfg.MaxRetries,
		MaxJobsActive: wcfg.MaxJobsActive,
	}
}

// Validate checks the registry for duplicate ids and unusable schemas.
func Validate(reg *ActivityRegistry) error {
	seen := make(map[string]bool, len(reg.Activities))
	for _, a := range reg.Activities {
		if a.ID == "" || a.TaskType == "" {
			return fmt.Errorf("activity %q: id and taskType are required", a.DisplayName)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate activity id: %s", a.ID)
		}
		seen[a.ID] = true

		for name, schema := range map[string]map[string]interface{}{"input": a.InputSchema, "output": a.OutputSchema} {
			if schema == nil {
				continue
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("activity %s: invalid %s schema: %w", a.ID, name, err)
			}
		}
	}
	return nil
}

func decodeSchema(raw string) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode schema: %w", err)
	}
	return out, nil
}

func codes(in []errors.ErrorCode) []string {
	out := make([]string, len(in))
	for i, c := range in {
		out[i] = string(c)
	}
	return out
}
