package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfigDefaults(t *testing.T) {
	require.NoError(t, LoadEnvConfig(filepath.Join(t.TempDir(), "missing.env")))

	c := DefaultEnvConfig
	assert.Equal(t, "8000", c.APP_PORT)
	assert.Equal(t, "postgres", c.DB_DRIVER)
	assert.Equal(t, 20*time.Minute, c.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, 1000, c.INGEST_BATCH_SIZE)
	assert.Equal(t, int64(12), c.DEPARTMENT_ID_MAX)
	assert.Equal(t, int64(183), c.JOB_ID_MAX)
	assert.Equal(t, 2021, c.REPORT_YEAR)
	assert.True(t, c.DB_AUTO_MIGRATE)
	assert.Empty(t, c.ELASTIC_URL)
}

func TestLoadEnvConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte(
		"APP_PORT=9000\nDB_DRIVER=sqlite\nDB_CONN_MAX_LIFETIME=30\nDB_AUTO_MIGRATE=false\nDATADOG_TAGS=env:test, team:data ,\nINGEST_BATCH_SIZE=abc\n"), 0o600))
	for _, k := range []string{"APP_PORT", "DB_DRIVER", "DB_CONN_MAX_LIFETIME", "DB_AUTO_MIGRATE", "DATADOG_TAGS", "INGEST_BATCH_SIZE"} {
		k := k
		t.Cleanup(func() { os.Unsetenv(k) })
	}
	t.Setenv("METRICS_BACKEND", "DataDog")

	require.NoError(t, LoadEnvConfig(path))

	c := DefaultEnvConfig
	assert.Equal(t, "9000", c.APP_PORT)
	assert.Equal(t, "sqlite", c.DB_DRIVER)
	assert.Equal(t, 30*time.Second, c.DB_CONN_MAX_LIFETIME)
	assert.False(t, c.DB_AUTO_MIGRATE)
	assert.Equal(t, []string{"env:test", "team:data"}, c.DATADOG_TAGS)
	assert.Equal(t, 1000, c.INGEST_BATCH_SIZE)
	assert.Equal(t, "datadog", c.METRICS_BACKEND)
}
