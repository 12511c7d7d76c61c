package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateScoreRequest(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		valid bool
		field string
	}{
		{
			name:  "ids only",
			body:  `{"userId":"u1","listingId":"l1"}`,
			valid: true,
		},
		{
			name: "inline profile and listing",
			body: `{
				"profile": {"skills": ["go"], "location": {"lat": 40.7, "lon": -74.0}},
				"listing": {"id": "l1", "requiredSkills": null, "price": 50,
					"window": {"start": "2026-01-01T09:00:00Z"}}
			}`,
			valid: true,
		},
		{
			name:  "missing listing source",
			body:  `{"userId":"u1"}`,
			valid: false,
		},
		{
			name:  "listing without id",
			body:  `{"userId":"u1","listingId":"l1","listing":{"price":10}}`,
			valid: true,
		},
		{
			name:  "out of range values are left to scoring",
			body:  `{"userId":"u1","listing":{"id":"l1","price":-5,"location":{"lat":120,"lon":0}}}`,
			valid: true,
		},
		{
			name:  "latitude of the wrong type",
			body:  `{"userId":"u1","listingId":"l1","profile":{"location":{"lat":"north","lon":0}}}`,
			valid: false,
			field: "profile.location.lat",
		},
		{
			name:  "missing longitude",
			body:  `{"userId":"u1","listingId":"l1","profile":{"location":{"lat":10}}}`,
			valid: false,
			field: "profile.location.lon",
		},
		{
			name:  "bad window timestamp",
			body:  `{"userId":"u1","listing":{"id":"l1","window":{"start":"tomorrow"}}}`,
			valid: false,
			field: "listing.window.start",
		},
		{
			name:  "not json",
			body:  `{"userId":`,
			valid: false,
			field: "(root)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateScoreRequest([]byte(tt.body))
			require.NotNil(t, result)
			assert.Equal(t, tt.valid, result.Valid, result.GetErrorMessages())
			if tt.field != "" {
				assert.True(t, result.HasErrors(tt.field), result.GetErrorMessages())
			}
		})
	}
}

func TestValidateRankRequest(t *testing.T) {
	valid := ValidateRankRequest([]byte(`{"userId":"u1","listingIds":["a","b"],"maxItems":10}`))
	assert.True(t, valid.Valid, valid.GetErrorMessages())

	searchOnly := ValidateRankRequest([]byte(`{"profile":{"skills":["plumbing"]},"query":"leaky tap"}`))
	assert.True(t, searchOnly.Valid, searchOnly.GetErrorMessages())

	tooMany := ValidateRankRequest([]byte(`{"userId":"u1","maxItems":1000}`))
	assert.False(t, tooMany.Valid)
	assert.True(t, tooMany.HasErrors("maxItems"))

	unnamed := ValidateRankRequest([]byte(`{"userId":"u1","listings":[{"price":10}]}`))
	assert.False(t, unnamed.Valid)

	noRequester := ValidateRankRequest([]byte(`{"listingIds":["a"]}`))
	assert.False(t, noRequester.Valid)
	assert.NotEmpty(t, noRequester.Error())
}

func TestValidateDocument(t *testing.T) {
	doc := map[string]interface{}{"userId": "u1", "listingId": "l1", "skipCache": "yes"}
	result, err := ValidateDocument(ScoreRequestSchema, doc)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Len(t, result.GetErrorsForField("skipCache"), 1)
}
