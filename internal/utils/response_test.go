package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusBadRequest, "BAD_REQUEST"},
		{http.StatusNotFound, "NOT_FOUND"},
		{http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE"},
		{http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
		{http.StatusOK, "UNKNOWN_ERROR"},
		{599, "UNKNOWN_ERROR"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			if got := ErrorCode(tt.status); got != tt.want {
				t.Errorf("ErrorCode(%d) = %q, want %q", tt.status, got, tt.want)
			}
		})
	}
}

func respond(fn func(c *gin.Context)) (*httptest.ResponseRecorder, APIResponse) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set("request_id", "req-1")
	fn(c)

	var resp APIResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func TestErrorResponse(t *testing.T) {
	w, resp := respond(func(c *gin.Context) {
		ErrorResponse(c, http.StatusNotFound, "Job not found", errors.New("no rows"))
	})

	if w.Code != http.StatusNotFound || resp.Success || resp.RequestID != "req-1" {
		t.Fatalf("status %d, envelope %+v", w.Code, resp)
	}
	if resp.Error == nil || resp.Error.Code != "NOT_FOUND" || resp.Error.Details != "no rows" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestValidationErrorResponse(t *testing.T) {
	w, resp := respond(func(c *gin.Context) {
		ValidationErrorResponse(c, map[string]string{"limit": "must be positive"})
	})

	if w.Code != http.StatusBadRequest || resp.Error == nil || resp.Error.Code != "VALIDATION_ERROR" {
		t.Fatalf("status %d, envelope %+v", w.Code, resp)
	}
	if resp.Error.Fields["limit"] != "must be positive" || resp.Data != nil {
		t.Errorf("error = %+v, data = %v", resp.Error, resp.Data)
	}
}

func TestSuccessResponse(t *testing.T) {
	w, resp := respond(func(c *gin.Context) {
		SuccessResponse(c, http.StatusCreated, "Job accepted", gin.H{"id": "42"})
	})

	if w.Code != http.StatusCreated || !resp.Success || resp.Error != nil || resp.Timestamp.IsZero() {
		t.Errorf("status %d, envelope %+v", w.Code, resp)
	}
}
