package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "trace-me")
	w = serve(engine, req)
	assert.Equal(t, "trace-me", w.Header().Get(RequestIDHeader))
}

func TestErrorHandler_MapsDomainErrors(t *testing.T) {
	engine := gin.New()
	engine.Use(ErrorHandler(zap.NewNop()))
	engine.GET("/usage", func(c *gin.Context) {
		_ = c.Error(&domain.InvalidStrategyError{Strategy: "fastest"})
	})
	engine.GET("/fetch", func(c *gin.Context) {
		_ = c.Error(&domain.RegistryFetchError{URL: "https://example.test", Err: errors.New("timeout")})
	})
	engine.GET("/boom", func(c *gin.Context) {
		_ = c.Error(errors.New("boom"))
	})

	cases := map[string]int{
		"/usage": http.StatusBadRequest,
		"/fetch": http.StatusBadGateway,
		"/boom":  http.StatusInternalServerError,
	}
	for path, status := range cases {
		w := serve(engine, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, status, w.Code, path)
		assert.Equal(t, "application/problem+json", w.Header().Get("Content-Type"), path)

		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, float64(status), body["status"], path)
	}
}

func TestAdminAuth(t *testing.T) {
	engine := gin.New()
	engine.POST("/open", AdminAuth(nil), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	engine.POST("/locked", AdminAuth([]string{"sk-admin"}), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	assert.Equal(t, http.StatusNoContent, serve(engine, httptest.NewRequest(http.MethodPost, "/open", nil)).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(engine, httptest.NewRequest(http.MethodPost, "/locked", nil)).Code)

	req := httptest.NewRequest(http.MethodPost, "/locked", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	assert.Equal(t, http.StatusUnauthorized, serve(engine, req).Code)

	req = httptest.NewRequest(http.MethodPost, "/locked", nil)
	req.Header.Set("Authorization", "Bearer sk-admin")
	assert.Equal(t, http.StatusNoContent, serve(engine, req).Code)
}

func TestRateLimiter(t *testing.T) {
	engine := gin.New()
	engine.Use(NewRateLimiter(0.001, 2, zap.NewNop()).Middleware())
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(engine, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
