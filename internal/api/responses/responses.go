// Package responses writes the JSON envelope shared by every endpoint.
package responses

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GenericErrorDetail replaces error details outside development.
const GenericErrorDetail = "Something went wrong"

// Envelope is the body of every API response.
type Envelope struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    any          `json:"data,omitempty"`
	Total   *int         `json:"total,omitempty"`
	Error   string       `json:"error,omitempty"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// FieldError describes one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OK writes a successful envelope with the given status.
func OK(c *gin.Context, status int, message string, data any) {
	c.JSON(status, Envelope{Success: true, Message: message, Data: data})
}

// List writes a successful envelope carrying a collection and its size.
func List(c *gin.Context, message string, data any, total int) {
	c.JSON(http.StatusOK, Envelope{Success: true, Message: message, Data: data, Total: &total})
}

// Fail aborts the request with an error envelope.
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message})
}

// FailDetail aborts with an error envelope that carries a client-safe detail.
func FailDetail(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, Envelope{Success: false, Message: message, Error: detail})
}

// Invalid aborts with 400 and the per-field errors.
func Invalid(c *gin.Context, errs []FieldError) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{
		Success: false,
		Message: "Validation error",
		Errors:  errs,
	})
}

// Internal aborts with 500. The error text is exposed only when detailed is
// true; err is always attached to the gin context for the request logger.
func Internal(c *gin.Context, message string, err error, detailed bool) {
	detail := GenericErrorDetail
	if err != nil {
		_ = c.Error(err)
		if detailed {
			detail = err.Error()
		}
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, Envelope{
		Success: false,
		Message: message,
		Error:   detail,
	})
}
