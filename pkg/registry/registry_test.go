package registry

import (
	"path/filepath"
	"testing"
	"time"

	"marketplace-compat/internal/common/config"
	"marketplace-compat/internal/common/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xeipuuv/gojsonschema"
)

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Version: "2.1.0"},
		Workers: map[string]config.WorkerConfig{
			"calculate-compatibility": {Enabled: true, MaxJobsActive: 10, Timeout: 10000, MaxRetries: 3},
			"rank-listings":           {Enabled: false, MaxJobsActive: 5, Timeout: 30000, MaxRetries: 2},
		},
	}
}

func TestBuild(t *testing.T) {
	now := time.Date(2026, 10, 1, 8, 30, 0, 0, time.UTC)
	reg, err := Build(testConfig(), now)
	require.NoError(t, err)

	assert.Equal(t, "2026-10-01T08:30:00Z", reg.LastUpdated)
	require.Len(t, reg.Activities, 2)

	score, ok := reg.Find("calculate-compatibility")
	require.True(t, ok)
	assert.True(t, score.Enabled)
	assert.Equal(t, "10s", score.Timeout)
	assert.Equal(t, 3, score.Retries)
	assert.Equal(t, "2.1.0", score.Version)
	assert.Contains(t, score.ErrorCodes, "LISTING_NOT_FOUND")
	assert.NotContains(t, score.ErrorCodes, "LISTING_SEARCH_FAILED")

	rank, ok := reg.Find("rank-listings")
	require.True(t, ok)
	assert.False(t, rank.Enabled)
	assert.Equal(t, "30s", rank.Timeout)
	assert.Contains(t, rank.ErrorCodes, "LISTING_SEARCH_FAILED")

	_, ok = reg.Find("send-email")
	assert.False(t, ok)

	assert.NoError(t, Validate(reg))
}

func TestBuild_InputSchemaMatchesValidation(t *testing.T) {
	reg, err := Build(testConfig(), time.Now())
	require.NoError(t, err)
	score, _ := reg.Find("calculate-compatibility")

	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(score.InputSchema))
	require.NoError(t, err)

	doc := `{"userId": "user-1", "listingId": "job-1"}`
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	require.NoError(t, err)
	assert.True(t, result.Valid())
	assert.True(t, validation.ValidateScoreRequest([]byte(doc)).Valid)

	result, err = schema.Validate(gojsonschema.NewStringLoader(`{"userId": "user-1"}`))
	require.NoError(t, err)
	assert.False(t, result.Valid())
}

func TestSaveAndLoad(t *testing.T) {
	reg, err := Build(testConfig(), time.Now())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "activity-registry.json")
	require.NoError(t, reg.Save(path))

	loaded, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Equal(t, reg.Version, loaded.Version)
	require.Len(t, loaded.Activities, 2)
	assert.Equal(t, reg.Activities[1].TaskType, loaded.Activities[1].TaskType)
	assert.NoError(t, Validate(loaded))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		reg     *ActivityRegistry
		wantErr string
	}{
		{
			name:    "missing task type",
			reg:     &ActivityRegistry{Activities: []Activity{{ID: "a"}}},
			wantErr: "required",
		},
		{
			name:    "duplicate id",
			reg:     &ActivityRegistry{Activities: []Activity{{ID: "a", TaskType: "a"}, {ID: "a", TaskType: "b"}}},
			wantErr: "duplicate",
		},
		{
			name: "broken schema",
			reg: &ActivityRegistry{Activities: []Activity{{
				ID: "a", TaskType: "a",
				InputSchema: map[string]interface{}{"type": 12},
			}}},
			wantErr: "invalid input schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.reg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRegistry_Missing(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
