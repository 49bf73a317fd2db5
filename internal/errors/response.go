package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ikkim/restaurant-pos/pkg/logger"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// RespondWithError writes an error body with an explicit status and code.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

// HTTPStatus maps a Kind onto a response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Respond translates any service error into a JSON response. Storage and
// unknown errors are logged and their details are not exposed.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !As(err, &appErr) {
		appErr = Internal("", err)
	}

	status := HTTPStatus(appErr.Kind)
	message := appErr.Message
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed", err, logger.Fields{
			"path": c.FullPath(),
			"code": appErr.Code,
			"kind": appErr.Kind.String(),
		})
		if appErr.Kind == KindStorage {
			message = "a database error occurred, please retry"
		} else {
			message = "internal server error"
		}
	}
	RespondWithError(c, status, appErr.Code, message)
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, AuthUnauthorized, message)
}

func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "access denied"
	}
	RespondWithError(c, http.StatusForbidden, AuthzForbidden, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

// ValidationError carries per-field binding failures.
type ValidationError struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func RespondWithValidationError(c *gin.Context, fields map[string]string) {
	c.JSON(http.StatusBadRequest, ValidationError{
		Error:   ValidationInvalidInput,
		Message: "invalid input",
		Fields:  fields,
	})
}
