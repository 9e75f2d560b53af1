package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := globalLogger
	globalLogger = zerolog.New(&buf).Level(zerolog.DebugLevel)
	t.Cleanup(func() { globalLogger = prev })
	return &buf
}

func lines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	dec := json.NewDecoder(buf)
	for dec.More() {
		var m map[string]interface{}
		require.NoError(t, dec.Decode(&m))
		out = append(out, m)
	}
	return out
}

func TestContextFields(t *testing.T) {
	buf := capture(t)

	ctx := WithLogger(context.Background(), map[string]interface{}{"dataset": "jobs"})
	ctx = WithLogger(ctx, map[string]interface{}{"batch": 2})
	InfoLog(ctx, "saved %d rows", 10)
	ErrorLog(ctx, "commit failed", errors.New("disk full"))
	DebugLog(context.Background(), "plain")

	got := lines(t, buf)
	require.Len(t, got, 3)
	assert.Equal(t, "saved 10 rows", got[0]["message"])
	assert.Equal(t, "jobs", got[0]["dataset"])
	assert.Equal(t, float64(2), got[0]["batch"])
	assert.Equal(t, "disk full", got[1]["error"])
	assert.Equal(t, "error", got[1]["level"])
	assert.NotContains(t, got[2], "dataset")
}

func TestRequestLogger(t *testing.T) {
	buf := capture(t)

	e := echo.New()
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: func() string { return "req-1" }}))
	e.Use(RequestLogger())
	e.GET("/ping", func(c echo.Context) error {
		InfoLog(c.Request().Context(), "inside")
		return c.NoContent(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	got := lines(t, buf)
	require.Len(t, got, 2)
	assert.Equal(t, "inside", got[0]["message"])
	assert.Equal(t, "req-1", got[0]["request_id"])
	assert.Equal(t, "request", got[1]["message"])
	assert.Equal(t, "/ping", got[1]["uri"])
	assert.Equal(t, float64(http.StatusNoContent), got[1]["status"])
}
