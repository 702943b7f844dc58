// internal/utils/response.go
package utils

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope every JSON endpoint answers with
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIError carries a machine-readable code. Fields maps offending query or
// body fields to what is wrong with them.
type APIError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

const codeValidation = "VALIDATION_ERROR"

// codes that differ from the upper-cased status text
var errorCodes = map[int]string{
	http.StatusRequestEntityTooLarge: "PAYLOAD_TOO_LARGE",
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	response := newResponse(c, message)
	response.Success = true
	response.Data = data
	c.JSON(statusCode, response)
}

// ErrorResponse sends an error response; err, when set, becomes the details
func ErrorResponse(c *gin.Context, statusCode int, message string, err error) {
	apiError := &APIError{Code: ErrorCode(statusCode), Message: message}
	if err != nil {
		apiError.Details = err.Error()
	}

	response := newResponse(c, message)
	response.Error = apiError
	c.JSON(statusCode, response)
}

// ValidationErrorResponse sends a 400 listing the offending query or body fields
func ValidationErrorResponse(c *gin.Context, fields map[string]string) {
	response := newResponse(c, "Validation failed")
	response.Error = &APIError{
		Code:    codeValidation,
		Message: "Request validation failed",
		Fields:  fields,
	}
	c.JSON(http.StatusBadRequest, response)
}

// ErrorCode derives the envelope code from an HTTP status, e.g. 404 becomes
// NOT_FOUND and 405 METHOD_NOT_ALLOWED
func ErrorCode(statusCode int) string {
	if code, ok := errorCodes[statusCode]; ok {
		return code
	}
	text := http.StatusText(statusCode)
	if text == "" || statusCode < http.StatusBadRequest {
		return "UNKNOWN_ERROR"
	}
	text = strings.NewReplacer("-", " ", "'", "").Replace(text)
	return strings.ToUpper(strings.Join(strings.Fields(text), "_"))
}

func newResponse(c *gin.Context, message string) APIResponse {
	return APIResponse{
		Message:   message,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
	}
}
