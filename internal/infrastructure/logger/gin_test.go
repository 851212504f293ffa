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

// serveLogged routes a single request through GinMiddleware and returns the
// recorded "HTTP Request" entry.
func serveLogged(t *testing.T, level zapcore.Level, method, target string, handler gin.HandlerFunc, pre ...gin.HandlerFunc) (*httptest.ResponseRecorder, *observer.LoggedEntry) {
	t.Helper()

	core, recorded := observer.New(level)
	router := gin.New()
	for _, mw := range pre {
		router.Use(mw)
	}
	router.Use(GinMiddleware(zap.New(core)))
	router.Handle(method, "/"+splitPath(target), handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, target, nil)
	router.ServeHTTP(w, req)

	for _, entry := range recorded.All() {
		if entry.Message == "HTTP Request" {
			e := entry
			return w, &e
		}
	}
	return w, nil
}

func splitPath(target string) string {
	for i := 0; i < len(target); i++ {
		if target[i] == '?' {
			return target[1:i]
		}
	}
	return target[1:]
}

func okHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func TestGinMiddleware(t *testing.T) {
	w, entry := serveLogged(t, zapcore.InfoLevel, "GET", "/test", okHandler)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, entry, "request log should exist")
	assert.Equal(t, zapcore.InfoLevel, entry.Level)
}

func TestGinMiddleware_WithRequestID(t *testing.T) {
	seed := func(c *gin.Context) {
		c.Set("request_id", "test-req-123")
		c.Next()
	}
	_, entry := serveLogged(t, zapcore.InfoLevel, "GET", "/test", okHandler, seed)
	require.NotNil(t, entry)

	found := false
	for _, field := range entry.Context {
		if field.Key == "request_id" {
			found = true
			assert.Equal(t, "test-req-123", field.String)
		}
	}
	assert.True(t, found, "request_id should be in log fields")
}

func TestGinMiddleware_ClientErrorLogsWarn(t *testing.T) {
	w, entry := serveLogged(t, zapcore.WarnLevel, "GET", "/error", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, entry)
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
}

func TestGinMiddleware_ServerErrorLogsError(t *testing.T) {
	w, entry := serveLogged(t, zapcore.ErrorLevel, "GET", "/error", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotNil(t, entry)
	assert.Equal(t, zapcore.ErrorLevel, entry.Level)
}

func TestGinMiddleware_WithQuery(t *testing.T) {
	_, entry := serveLogged(t, zapcore.InfoLevel, "GET", "/search?q=test&page=1", okHandler)
	require.NotNil(t, entry)

	found := false
	for _, field := range entry.Context {
		if field.Key == "query" {
			found = true
			assert.Contains(t, field.String, "q=test")
		}
	}
	assert.True(t, found, "query should be in log fields")
}

func TestGinMiddleware_LogsCorrectFields(t *testing.T) {
	_, entry := serveLogged(t, zapcore.InfoLevel, "POST", "/api/runs", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"id": 1})
	})
	require.NotNil(t, entry)

	keys := make(map[string]struct{})
	for _, field := range entry.Context {
		keys[field.Key] = struct{}{}
	}
	for _, want := range []string{"status", "latency", "client_ip", "user_agent", "method", "path"} {
		assert.Contains(t, keys, want)
	}
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.ErrorLevel)

	router := gin.New()
	router.Use(Recovery(zap.New(core)))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)

	assert.NotPanics(t, func() {
		router.ServeHTTP(w, req)
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	logs := recorded.All()
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0].Message, "Panic recovered")
}

func TestGetGinLogger(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)

	var got *zap.Logger
	router := gin.New()
	router.Use(GinMiddleware(zap.New(core)))
	router.GET("/test", func(c *gin.Context) {
		got = GetGinLogger(c)
		okHandler(c)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.NotNil(t, got)
}

func TestGetGinLogger_NotSet(t *testing.T) {
	var got *zap.Logger
	router := gin.New()
	router.GET("/test", func(c *gin.Context) {
		got = GetGinLogger(c)
		okHandler(c)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	// No-op logger, never nil and never panicking
	assert.NotNil(t, got)
	assert.NotPanics(t, func() {
		got.Info("test")
	})
}
