package middleware

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// echoLength answers with the number of body bytes read, or 413 when the
// reader was cut off by the limit
func echoLength(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.String(http.StatusRequestEntityTooLarge, "cut at %d", tooLarge.Limit)
		return
	}
	c.String(http.StatusOK, "%d", len(body))
}

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name     string
		limit    int64
		method   string
		body     string
		chunked  bool
		wantCode int
		wantBody string
	}{
		{"backflush payload under limit", 64, http.MethodPost, `{"quantity":"5"}`, false, http.StatusOK, "16"},
		{"declared length over limit", 16, http.MethodPost, strings.Repeat("1", 40), false, http.StatusRequestEntityTooLarge, "ERR_REQUEST_TOO_LARGE"},
		{"chunked body cut while reading", 16, http.MethodPost, strings.Repeat("1", 40), true, http.StatusRequestEntityTooLarge, "cut at 16"},
		{"zero disables the limit", 0, http.MethodPost, strings.Repeat("1", 500), false, http.StatusOK, "500"},
		{"bodyless GET passes", 8, http.MethodGet, "", false, http.StatusOK, "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(BodyLimit(tt.limit))
			r.Handle(tt.method, "/api/v1/production/orders", echoLength)

			req := httptest.NewRequest(tt.method, "/api/v1/production/orders", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
