// internal/workers/compatibility/calculate-compatibility/models.go
package calculatecompatibility

import (
	"marketplace-compat/internal/compatibility"
	"marketplace-compat/internal/marketplace"
)

type Input struct {
	Category string `json:"category"`
	marketplace.ScoreRequest
}

type Output struct {
	Compatibility          compatibility.CompatibilityResult `json:"compatibility"`
	OverallScore           int                               `json:"overallScore"`
	PrimaryMatchReason     string                            `json:"primaryMatchReason"`
	ImprovementSuggestions []string                          `json:"improvementSuggestions"`
	Badges                 []compatibility.Badge             `json:"badges"`
	MatchFactors           compatibility.MatchFactors        `json:"matchFactors"`
	Cached                 bool                              `json:"cached"`
}
