package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const profileSchema = `{
  "type": "object",
  "properties": {
    "userId":               {"type": "string"},
    "version":              {"type": "string"},
    "skills":               {"type": ["array", "null"], "items": {"type": "string"}},
    "targetPrice":          {"type": "number"},
    "minPrice":             {"type": "number"},
    "maxPrice":             {"type": "number"},
    "location":             {"$ref": "#/definitions/geoPoint"},
    "maxDistanceKm":        {"type": "number"},
    "remoteOnly":           {"type": "boolean"},
    "availableImmediately": {"type": "boolean"},
    "availability":         {"$ref": "#/definitions/timeWindow"},
    "premium":              {"type": "boolean"}
  }
}`

const listingSchema = `{
  "type": "object",
  "properties": {
    "id":                  {"type": "string"},
    "ownerId":             {"type": "string"},
    "version":             {"type": "string"},
    "category":            {"type": "string"},
    "subcategory":         {"type": "string"},
    "title":               {"type": "string"},
    "requiredSkills":      {"type": ["array", "null"], "items": {"type": "string"}},
    "price":               {"type": "number"},
    "location":            {"$ref": "#/definitions/geoPoint"},
    "remoteEligible":      {"type": "boolean"},
    "urgency":             {"type": "string"},
    "window":              {"$ref": "#/definitions/timeWindow"},
    "ownerRating":         {"type": "number"},
    "responseTimeMinutes": {"type": "number"},
    "verified":            {"type": "boolean"},
    "ownerPremium":        {"type": "boolean"}
  }
}`

const definitions = `{
  "geoPoint": {
    "type": "object",
    "required": ["lat", "lon"],
    "properties": {
      "lat": {"type": "number"},
      "lon": {"type": "number"}
    }
  },
  "timeWindow": {
    "type": "object",
    "required": ["start"],
    "properties": {
      "start": {"type": "string", "format": "date-time"},
      "end":   {"type": "string", "format": "date-time"}
    }
  },
  "profile": ` + profileSchema + `,
  "listing": ` + listingSchema + `
}`

// ScoreRequestSchema describes a request to score one listing for one user.
// The profile and listing may be given inline or by id. Numeric attributes
// are only type checked; out-of-range values score as unspecified.
const ScoreRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": ` + definitions + `,
  "properties": {
    "category":  {"type": "string"},
    "userId":    {"type": "string", "minLength": 1},
    "profile":   {"$ref": "#/definitions/profile"},
    "listingId": {"type": "string", "minLength": 1},
    "listing":   {"$ref": "#/definitions/listing"},
    "skipCache": {"type": "boolean"}
  },
  "allOf": [
    {"anyOf": [{"required": ["userId"]}, {"required": ["profile"]}]},
    {"anyOf": [{"required": ["listingId"]}, {"required": ["listing"]}]}
  ]
}`

// RankRequestSchema describes a request to score and order many listings.
// Without listingIds or listings the candidates come from listing search.
const RankRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": ` + definitions + `,
  "properties": {
    "category":    {"type": "string"},
    "userId":      {"type": "string", "minLength": 1},
    "profile":     {"$ref": "#/definitions/profile"},
    "listingIds":  {"type": "array", "items": {"type": "string", "minLength": 1}},
    "listings":    {"type": "array", "items": {"allOf": [
      {"$ref": "#/definitions/listing"},
      {"required": ["id"], "properties": {"id": {"minLength": 1}}}
    ]}},
    "query":       {"type": "string"},
    "subcategory": {"type": "string"},
    "maxItems":    {"type": "integer", "minimum": 1, "maximum": 100},
    "minScore":    {"type": "integer", "minimum": 0, "maximum": 100}
  },
  "anyOf": [{"required": ["userId"]}, {"required": ["profile"]}]
}`

var (
	scoreRequestSchema = mustCompile(ScoreRequestSchema)
	rankRequestSchema  = mustCompile(RankRequestSchema)
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

func mustCompile(schema string) *gojsonschema.Schema {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schema))
	if err != nil {
		panic(fmt.Sprintf("invalid built-in schema: %v", err))
	}
	return compiled
}

// ValidateScoreRequest checks a raw JSON score request.
func ValidateScoreRequest(raw []byte) *ValidationResult {
	return validateBytes(scoreRequestSchema, raw)
}

// ValidateRankRequest checks a raw JSON rank request.
func ValidateRankRequest(raw []byte) *ValidationResult {
	return validateBytes(rankRequestSchema, raw)
}

// ValidateDocument validates an already decoded document against a schema string.
func ValidateDocument(schema string, document interface{}) (*ValidationResult, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(document),
	)
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}
	return fromResult(result), nil
}

func validateBytes(schema *gojsonschema.Schema, raw []byte) *ValidationResult {
	if !json.Valid(raw) {
		return &ValidationResult{
			Valid: false,
			Errors: []ValidationError{{
				Field:   "(root)",
				Message: "request body is not valid JSON",
				Code:    "invalid_json",
			}},
		}
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []ValidationError{{Field: "(root)", Message: err.Error(), Code: "invalid_document"}},
		}
	}
	return fromResult(result)
}

func fromResult(result *gojsonschema.Result) *ValidationResult {
	out := &ValidationResult{Valid: result.Valid()}
	for _, desc := range result.Errors() {
		out.Errors = append(out.Errors, ValidationError{
			Field:   fieldName(desc),
			Message: desc.Description(),
			Code:    desc.Type(),
		})
	}
	return out
}

// fieldName reports the offending property for required errors, which
// gojsonschema attributes to the parent object.
func fieldName(desc gojsonschema.ResultError) string {
	field := desc.Field()
	prop, ok := desc.Details()["property"].(string)
	if !ok || prop == "" {
		return field
	}
	if field == "(root)" {
		return prop
	}
	return field + "." + prop
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// Error joins every message, for use as an error string.
func (vr *ValidationResult) Error() string {
	return strings.Join(vr.GetErrorMessages(), "; ")
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}
