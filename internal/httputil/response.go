// Package httputil writes JSON error responses for the seed API.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/seedvault/internal/errors"
)

// requestIDHeader is set on the response by the request id middleware.
const requestIDHeader = "X-Request-ID"

// ErrorResponse is the body of every error answered by the API.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// errorMapping ties a base error from internal/errors to its HTTP answer. A mapping with
// an empty message exposes err.Error() to the client.
type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict", "A conflict occurred with existing data"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized", "Authentication is required"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden", "You don't have permission to access this resource"},
	{
		apperrors.ErrUnavailable,
		http.StatusServiceUnavailable,
		"secret_unavailable",
		"The stored secret cannot be decrypted; re-enrollment is required",
	},
	{apperrors.ErrTimeout, http.StatusGatewayTimeout, "upstream_timeout", "A backing service did not answer in time"},
}

var internalErrorMapping = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

// HandleErrorGin answers err with the status of its base error. Unknown errors become a 500
// whose body carries no detail; the full error is only logged.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}

	mapping := internalErrorMapping
	for _, candidate := range errorMappings {
		if apperrors.Is(err, candidate.target) {
			mapping = candidate
			break
		}
	}

	message := mapping.message
	if message == "" {
		message = err.Error()
	}

	if logger != nil {
		level := slog.LevelWarn
		if mapping.status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request failed",
			slog.Int("status_code", mapping.status),
			slog.String("error_code", mapping.code),
			slog.Any("error", err),
		)
	}

	writeError(c, mapping.status, mapping.code, message)
}

// HandleValidationErrorGin answers a request that failed validation with 422.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}
	writeError(c, http.StatusUnprocessableEntity, "validation_error", err.Error())
}

func writeError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: c.Writer.Header().Get(requestIDHeader),
	})
}
