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

func newLoggedEngine(t *testing.T) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set(RequestIDHeader, "req-42")
		c.Next()
	})
	engine.Use(Recovery(log), Middleware(log))
	return engine, logs
}

func TestMiddleware(t *testing.T) {
	engine, logs := newLoggedEngine(t)
	engine.GET("/api/v1/proposals/:id", func(c *gin.Context) {
		_, log := WithProposalID(c.Request.Context(), RequestLogger(c, nil), c.Param("id"))
		log.Info("Proposal loaded")
		c.Status(http.StatusOK)
	})
	engine.POST("/api/v1/catalog/uploads", func(c *gin.Context) {
		c.Status(http.StatusUnprocessableEntity)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/proposals/p-9", nil))
	require.Equal(t, http.StatusOK, w.Code)

	entries := logs.TakeAll()
	require.Len(t, entries, 2)
	handlerFields := entries[0].ContextMap()
	assert.Equal(t, "req-42", handlerFields["request_id"])
	assert.Equal(t, "p-9", handlerFields["proposal_id"])

	assert.Equal(t, "Request served", entries[1].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	doneFields := entries[1].ContextMap()
	assert.Equal(t, "/api/v1/proposals/:id", doneFields["route"])
	assert.Equal(t, "/api/v1/proposals/p-9", doneFields["path"])
	assert.EqualValues(t, http.StatusOK, doneFields["status"])

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/catalog/uploads", nil))
	entries = logs.TakeAll()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestRecovery(t *testing.T) {
	engine, logs := newLoggedEngine(t)
	engine.GET("/panic", func(c *gin.Context) {
		panic("reconciler exploded")
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	panics := logs.FilterMessage("Panic recovered").All()
	require.Len(t, panics, 1)
	assert.Equal(t, "reconciler exploded", panics[0].ContextMap()["panic"])
}

func TestRequestLogger_Fallback(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	assert.NotNil(t, RequestLogger(c, nil))

	core, logs := observer.New(zap.InfoLevel)
	RequestLogger(c, zap.New(core)).Info("probe")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "/health", logs.All()[0].ContextMap()["path"])
}
