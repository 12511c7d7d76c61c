package server

import (
	"net/http"

	"marketplace-compat/internal/common/errors"

	"github.com/gin-gonic/gin"
)

const (
	codeUnsupportedCategory      = "unsupported_category"
	codeInvalidRequest           = "invalid_request"
	codeCompatibilityUnavailable = "compatibility_unavailable"
	codeNotFound                 = "not_found"
	codeUpstreamUnavailable      = "upstream_unavailable"
	codeTimeout                  = "timeout"
	codeInternal                 = "internal"
)

type ErrorBody struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"requestId,omitempty"`
}

type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: RequestIDFromContext(c),
		},
	})
}

// respondServiceError maps an error from the marketplace service onto the
// API's status and error code.
func respondServiceError(c *gin.Context, err error) {
	stdErr := errors.AsStandardError(err)
	status := errors.HTTPStatus(stdErr.Code)

	code := codeInternal
	switch stdErr.Code {
	case errors.ErrCodeUnsupportedCategory:
		code = codeUnsupportedCategory
	case errors.ErrCodeInvalidScoringRequest:
		code = codeInvalidRequest
	case errors.ErrCodeScoringConfigurationInvalid:
		code = codeCompatibilityUnavailable
	case errors.ErrCodeProfileNotFound, errors.ErrCodeListingNotFound:
		code = codeNotFound
	case errors.ErrCodeQueryTimeout, errors.ErrCodeSearchTimeout:
		code = codeTimeout
	default:
		if status == http.StatusBadGateway {
			code = codeUpstreamUnavailable
		}
	}

	message := stdErr.Message
	if stdErr.Details != "" && status < http.StatusInternalServerError {
		message = stdErr.Message + ": " + stdErr.Details
	}
	respondError(c, status, code, message, nil)
}
