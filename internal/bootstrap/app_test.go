package bootstrap

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T, metricsBackend string) *App {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("METRICS_BACKEND", metricsBackend)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("UPLOAD_BODY_LIMIT", "1K")

	app := NewApp()
	require.NoError(t, app.Initialize(context.Background()))
	t.Cleanup(func() { app.DB.Close() })
	return app
}

func do(app *App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Echo.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, path, filename, body string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestAppRoutes(t *testing.T) {
	app := newTestApp(t, "prometheus")

	rec := do(app, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(app, upload(t, "/api/v1/upload/departments", "departments.csv", "1,Engineering\n2,Sales\n"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"message":"Departments uploaded successfully","processed_rows":2,"errors":[]}`, rec.Body.String())

	rec = do(app, httptest.NewRequest(http.MethodGet, "/api/v1/metrics/departments-above-average", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(app, httptest.NewRequest(http.MethodGet, "/api/v1/employees/search?q=john", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = do(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hiring_analytics_ingest_records_total")

	rec = do(app, httptest.NewRequest(http.MethodGet, "/docs/doc.json", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/upload/departments")
}

func TestAppBodyLimit(t *testing.T) {
	app := newTestApp(t, "none")

	rec := do(app, upload(t, "/api/v1/upload/departments", "departments.csv", string(bytes.Repeat([]byte("1,Engineering\n"), 200))))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	rec = do(app, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
