package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func TestAPIKeyAuthMiddleware(t *testing.T) {
	t.Setenv("API_KEY", "s3cret")
	h := APIKeyAuthMiddleware(okHandler)

	cases := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"bearer", map[string]string{"Authorization": "Bearer s3cret"}, http.StatusNoContent},
		{"bare authorization", map[string]string{"Authorization": "s3cret"}, http.StatusNoContent},
		{"x-api-key", map[string]string{"X-API-Key": "s3cret"}, http.StatusNoContent},
		{"missing", nil, http.StatusUnauthorized},
		{"wrong", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"malformed authorization", map[string]string{"Authorization": "Basic a b"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/catalog/sources", nil)
			for k, v := range tc.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			require.Equal(t, tc.want, rec.Code)
			if tc.want != http.StatusNoContent {
				require.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestAPIKeyAuthMiddleware_Unconfigured(t *testing.T) {
	t.Setenv("API_KEY", "")
	rec := httptest.NewRecorder()
	APIKeyAuthMiddleware(okHandler)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(rate.NewLimiter(rate.Limit(0.001), 2), okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h(rec, httptest.NewRequest(http.MethodPost, "/recommendation/", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)
}

func TestRateLimitMiddleware_NilLimiter(t *testing.T) {
	rec := httptest.NewRecorder()
	RateLimitMiddleware(nil, okHandler)(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
}
