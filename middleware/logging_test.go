package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func traceRouter(got *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/x", func(c *gin.Context) {
		*got = TraceIDFromGinContext(c)
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestLoggingMiddleware_TraceID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "traceparent",
			headers: map[string]string{TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"},
			want:    "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:    "x-trace-id",
			headers: map[string]string{TraceIDHeader: "abc123"},
			want:    "abc123",
		},
		{
			name: "malformed traceparent falls back",
			headers: map[string]string{
				TraceParentHeader: "garbage",
				TraceIDHeader:     "fallback",
			},
			want: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			traceRouter(&got).ServeHTTP(w, req)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.want, w.Header().Get(TraceIDHeader))
		})
	}
}

func TestLoggingMiddleware_GeneratesTraceID(t *testing.T) {
	var got string
	w := httptest.NewRecorder()
	traceRouter(&got).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Len(t, got, 32)
	assert.Equal(t, got, w.Header().Get(TraceIDHeader))
}
