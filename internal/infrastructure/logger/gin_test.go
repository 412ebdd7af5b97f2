package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinMiddleware(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("request_id", "req-42")
		c.Next()
	})
	r.Use(GinMiddleware(l))
	r.GET("/ok", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("inside handler")
		c.Status(http.StatusOK)
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	inside := recorded.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, "req-42", inside[0].ContextMap()["request_id"])

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	requests := recorded.FilterMessage("HTTP Request").All()
	require.Len(t, requests, 2)
	assert.Equal(t, zapcore.InfoLevel, requests[0].Level)
	assert.Equal(t, zapcore.WarnLevel, requests[1].Level)
	assert.Equal(t, int64(http.StatusNotFound), requests[1].ContextMap()["status"])
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)

	r := gin.New()
	r.Use(Recovery(zap.New(core)))
	r.GET("/panic", func(c *gin.Context) {
		panic("kaboom")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_INTERNAL")
	assert.Len(t, recorded.FilterMessage("Panic recovered").All(), 1)
}
