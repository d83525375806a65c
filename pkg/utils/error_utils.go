package utils

import "github.com/gin-gonic/gin"

// APIError is the error body every endpoint returns. StatusCode drives
// the HTTP response but is not serialized.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Details    string `json:"details,omitempty"`
}

// NewAPIError builds an APIError.
func NewAPIError(statusCode int, code, message, details string) *APIError {
	return &APIError{StatusCode: statusCode, Code: code, Message: message, Details: details}
}

// RespondWithError writes err as the JSON response and aborts the
// request so later middleware does not run.
func RespondWithError(c *gin.Context, err *APIError) {
	c.JSON(err.StatusCode, gin.H{"error": err})
	c.Abort()
}

// Application error codes carried in APIError.Code.
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeConflict            = "CONFLICT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrCodeValidationFailed    = "VALIDATION_FAILED"
)
