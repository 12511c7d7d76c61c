// Package errors provides standardized error handling for BPMN workflow integration
// and the HTTP API.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace-compat/internal/compatibility"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnsupportedCategory         ErrorCode = "UNSUPPORTED_CATEGORY"
	ErrCodeScoringConfigurationInvalid ErrorCode = "SCORING_CONFIGURATION_INVALID"
	ErrCodeInvalidScoringRequest       ErrorCode = "INVALID_SCORING_REQUEST"

	ErrCodeProfileNotFound     ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeListingNotFound     ErrorCode = "LISTING_NOT_FOUND"
	ErrCodeProfileLookupFailed ErrorCode = "PROFILE_LOOKUP_FAILED"
	ErrCodeListingLookupFailed ErrorCode = "LISTING_LOOKUP_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeListingSearchFailed ErrorCode = "LISTING_SEARCH_FAILED"
	ErrCodeSearchTimeout       ErrorCode = "SEARCH_TIMEOUT"

	ErrCodeWorkflowEngineUnavailable ErrorCode = "WORKFLOW_ENGINE_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// WithMetadata returns e with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = map[string]interface{}{}
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

// NewUnsupportedCategoryError creates a non-retryable category error.
func NewUnsupportedCategoryError(category string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnsupportedCategory,
		Message:   "Unsupported listing category",
		Details:   fmt.Sprintf("category %q has no scorer set", category),
		Retryable: false,
		Metadata:  map[string]interface{}{"category": category},
		Timestamp: time.Now().UTC(),
	}
}

// NewScoringConfigurationError creates a non-retryable configuration error.
func NewScoringConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeScoringConfigurationInvalid,
		Message:   "Compatibility scoring is unavailable",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidScoringRequestError creates a non-retryable input validation error.
func NewInvalidScoringRequestError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidScoringRequest,
		Message:   "Invalid scoring request",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileNotFoundError creates a non-retryable lookup error.
func NewProfileNotFoundError(userID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileNotFound,
		Message:   "Preference profile not found",
		Details:   fmt.Sprintf("no profile for user %s", userID),
		Retryable: false,
		Metadata:  map[string]interface{}{"userId": userID},
		Timestamp: time.Now().UTC(),
	}
}

// NewListingNotFoundError creates a non-retryable lookup error.
func NewListingNotFoundError(listingID string) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingNotFound,
		Message:   "Listing not found",
		Details:   fmt.Sprintf("no listing with id %s", listingID),
		Retryable: false,
		Metadata:  map[string]interface{}{"listingId": listingID},
		Timestamp: time.Now().UTC(),
	}
}

// NewProfileLookupFailedError creates a retryable storage error.
func NewProfileLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeProfileLookupFailed,
		Message:   "Failed to load preference profile",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingLookupFailedError creates a retryable storage error.
func NewListingLookupFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingLookupFailed,
		Message:   "Failed to load listing",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(queryType string) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryTimeout,
		Message:   "Query timed out",
		Details:   fmt.Sprintf("query type: %s", queryType),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewListingSearchFailedError creates a retryable search error.
func NewListingSearchFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeListingSearchFailed,
		Message:   "Listing search failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewSearchTimeoutError creates a retryable search timeout error.
func NewSearchTimeoutError(index string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSearchTimeout,
		Message:   "Search timed out",
		Details:   fmt.Sprintf("index: %s", index),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewWorkflowEngineError reports a failed Zeebe gateway call.
func NewWorkflowEngineError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeWorkflowEngineUnavailable,
		Message:   "Workflow engine unavailable",
		Details:   fmt.Sprintf("%s: %v", operation, err),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// FromEngineError maps scoring engine errors onto StandardErrors. Errors the
// engine does not define come back as internal errors.
func FromEngineError(err error) *StandardError {
	var unsupported *compatibility.UnsupportedCategoryError
	if stderrors.As(err, &unsupported) {
		return NewUnsupportedCategoryError(unsupported.Category)
	}
	var cfgErr *compatibility.ConfigurationError
	if stderrors.As(err, &cfgErr) {
		return NewScoringConfigurationError(cfgErr.Error())
	}
	return NewInternalError(err)
}

// AsStandardError normalizes any error into a StandardError.
func AsStandardError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return FromEngineError(err)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to BPMN error codes.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeUnsupportedCategory:         "UNSUPPORTED_CATEGORY",
	ErrCodeScoringConfigurationInvalid: "SCORING_CONFIGURATION_INVALID",
	ErrCodeInvalidScoringRequest:       "INVALID_SCORING_REQUEST",
	ErrCodeProfileNotFound:             "PROFILE_NOT_FOUND",
	ErrCodeListingNotFound:             "LISTING_NOT_FOUND",
	ErrCodeProfileLookupFailed:         "PROFILE_LOOKUP_FAILED",
	ErrCodeListingLookupFailed:         "LISTING_LOOKUP_FAILED",
	ErrCodeDatabaseConnectionFailed:    "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryTimeout:                "QUERY_TIMEOUT",
	ErrCodeListingSearchFailed:         "LISTING_SEARCH_FAILED",
	ErrCodeSearchTimeout:               "SEARCH_TIMEOUT",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeProfileLookupFailed,
		ErrCodeListingLookupFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeListingSearchFailed,
		ErrCodeWorkflowEngineUnavailable:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeSearchTimeout:
		return 2

	default:
		return 0 // Business errors: no retry
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CATEGORY") || strings.Contains(codeStr, "CONFIGURATION"):
		return "SCORING"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "PROFILE") || strings.Contains(codeStr, "LISTING"):
		return "LOOKUP"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}

// HTTPStatus maps an error code to the status the API responds with.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeUnsupportedCategory, ErrCodeInvalidScoringRequest:
		return http.StatusBadRequest
	case ErrCodeProfileNotFound, ErrCodeListingNotFound:
		return http.StatusNotFound
	case ErrCodeScoringConfigurationInvalid:
		return http.StatusServiceUnavailable
	case ErrCodeQueryTimeout, ErrCodeSearchTimeout:
		return http.StatusGatewayTimeout
	case ErrCodeProfileLookupFailed, ErrCodeListingLookupFailed,
		ErrCodeDatabaseConnectionFailed, ErrCodeListingSearchFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
