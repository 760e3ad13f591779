package middleware

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"lunch-voting/internal/logger"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestAppVersion(t *testing.T) {
	h := AppVersion(1.0, logger.New(io.Discard, "test"))(ok)

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusTeapot},
		{"1.0", http.StatusTeapot},
		{"1.5", http.StatusTeapot},
		{"0.9", http.StatusUpgradeRequired},
		{"0", http.StatusUpgradeRequired},
		{"beta", http.StatusTeapot},
	}
	for _, tt := range tests {
		req := httptest.NewRequest("GET", "/api/vote", nil)
		if tt.header != "" {
			req.Header.Set(AppVersionHeader, tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, "App-Version %q", tt.header)
		if tt.want == http.StatusUpgradeRequired {
			assert.JSONEq(t, `{"error":"Unsupported app version. Please update."}`, rec.Body.String())
		}
	}
}

func TestRequestLogger(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	h := RequestLogger(logger.New(&buf, "test"))(ok)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/vote", nil))
	assert.Contains(t, buf.String(), "POST /api/vote - 418")
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://lunch.example.com"})(ok)

	req := httptest.NewRequest("OPTIONS", "/api/vote", nil)
	req.Header.Set("Origin", "https://lunch.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "https://lunch.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/api/vote", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
