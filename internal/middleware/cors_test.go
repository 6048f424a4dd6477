package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func corsRequest(t *testing.T, allowlist []string, method, origin string) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(method, "/api/v1/chat/query", nil)
	if origin != "" {
		c.Request.Header.Set("Origin", origin)
	}
	CORS(allowlist)(c)
	return rec
}

func TestCORS_EmptyAllowlistOpensToAnyOrigin(t *testing.T) {
	rec := corsRequest(t, nil, http.MethodGet, "https://anywhere.example")
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_ListedOriginEchoedWithVary(t *testing.T) {
	rec := corsRequest(t, []string{"https://dash.example"}, http.MethodGet, "https://dash.example")
	require.Equal(t, "https://dash.example", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORS_UnlistedOriginGetsNoHeaders(t *testing.T) {
	rec := corsRequest(t, []string{"https://dash.example"}, http.MethodGet, "https://evil.example")
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	rec := corsRequest(t, nil, http.MethodOptions, "https://dash.example")
	require.Equal(t, http.StatusNoContent, rec.Code)
}
