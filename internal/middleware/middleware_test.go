package middleware

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/SscSPs/doc_signing_app/internal/core/domain"
	"github.com/SscSPs/doc_signing_app/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testJWTSecret     = "operator-secret"
	testSigningSecret = "signing-secret"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(StructuredLoggingMiddleware(slog.Default()))
	return r
}

func TestStructuredLoggingMiddleware_RequestID(t *testing.T) {
	r := newRouter()
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = GetRequestIDFromCtx(c.Request.Context())
		assert.NotNil(t, GetLoggerFromContext(c))
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "req-123")
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-123", seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestStructuredLoggingMiddleware_RejectsUnsafeRequestID(t *testing.T) {
	r := newRouter()
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	tests := []struct {
		name string
		id   string
	}{
		{name: "too long", id: strings.Repeat("a", 65)},
		{name: "newline", id: "req-1\nforged=true"},
		{name: "spaces and quotes", id: `req 1"`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ping", nil)
			req.Header.Set("X-Request-ID", tc.id)
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.NotEqual(t, tc.id, got)
			_, err := uuid.Parse(got)
			assert.NoError(t, err)
		})
	}

	assert.True(t, validRequestID(strings.Repeat("a", 64)))
	assert.True(t, validRequestID("trace.01_ab-CD"))
}

func TestAuthMiddleware(t *testing.T) {
	r := newRouter()
	r.GET("/secure", AuthMiddleware(testJWTSecret), func(c *gin.Context) {
		userID, ok := GetUserIDFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, userID)
	})

	valid, err := utils.GenerateJWT("operator-7", testJWTSecret, time.Hour, "test")
	require.NoError(t, err)
	expired, err := utils.GenerateJWT("operator-7", testJWTSecret, -time.Hour, "test")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid", header: "Bearer " + valid, status: http.StatusOK},
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "expired", header: "Bearer " + expired, status: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer not.a.jwt", status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/secure", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "operator-7", w.Body.String())
			}
		})
	}
}

func TestSignerTokenMiddleware(t *testing.T) {
	r := newRouter()
	r.GET("/sign/documents/:documentID/signatures/:signatureID", SignerTokenMiddleware(testSigningSecret), func(c *gin.Context) {
		signer, ok := GetSignerFromContext(c)
		require.True(t, ok)
		c.String(http.StatusOK, signer.DocumentID+"/"+signer.SignatureID)
	})

	token, err := utils.GenerateSigningToken(domain.SignerIdentity{DocumentID: "doc-1", SignatureID: "sig-1"}, testSigningSecret, time.Hour, "test", nil)
	require.NoError(t, err)
	operatorToken, err := utils.GenerateJWT("operator-7", testSigningSecret, time.Hour, "test")
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{name: "valid header", path: "/sign/documents/doc-1/signatures/sig-1", header: "Bearer " + token, status: http.StatusOK},
		{name: "valid query", path: "/sign/documents/doc-1/signatures/sig-1?token=" + token, status: http.StatusOK},
		{name: "other signature", path: "/sign/documents/doc-1/signatures/sig-2", header: "Bearer " + token, status: http.StatusForbidden},
		{name: "other document", path: "/sign/documents/doc-2/signatures/sig-1", header: "Bearer " + token, status: http.StatusForbidden},
		{name: "operator token", path: "/sign/documents/doc-1/signatures/sig-1", header: "Bearer " + operatorToken, status: http.StatusUnauthorized},
		{name: "no token", path: "/sign/documents/doc-1/signatures/sig-1", status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "doc-1/sig-1", w.Body.String())
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	lim, err := NewLimiter("2-M", nil)
	require.NoError(t, err)

	r := newRouter()
	r.POST("/sign/:signatureID", RateLimit(lim), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 4)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sign/sig-1", nil))
		codes = append(codes, w.Code)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/sign/sig-2", nil))
	codes = append(codes, w.Code)

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests, http.StatusOK}, codes)

	_, err = NewLimiter("lots", nil)
	assert.Error(t, err)
}

func TestMetricsMiddleware_PassesThrough(t *testing.T) {
	r := newRouter()
	r.Use(MetricsMiddleware())
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)
}
