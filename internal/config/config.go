package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var DefaultEnvConfig *envConfig

type envConfig struct {
	APP_PORT          string
	UPLOAD_BODY_LIMIT string
	// database config
	DB_DRIVER            string
	DB_DSN               string
	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_CONN_MAX_LIFETIME time.Duration
	DB_MAX_IDLE_CONNS    int
	DB_MAX_OPEN_CONNS    int
	DB_AUTO_MIGRATE      bool
	// ingest config
	INGEST_BATCH_SIZE int
	DEPARTMENT_ID_MAX int64
	JOB_ID_MAX        int64
	REPORT_YEAR       int
	// logger config
	LOG_FILE_PATH string
	LOG_LEVEL     string
	// metrics config
	METRICS_BACKEND   string
	METRICS_NAMESPACE string
	DATADOG_ADDR      string
	DATADOG_TAGS      []string
	// integrations
	ELASTIC_URL        string
	EXPORT_LAYOUT_PATH string
}

// LoadEnvConfig reads .env (when present) into the process environment and
// populates DefaultEnvConfig. Variables already set in the environment win.
func LoadEnvConfig(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	DefaultEnvConfig = &envConfig{
		APP_PORT:             getEnvString("APP_PORT", "8000"),
		UPLOAD_BODY_LIMIT:    getEnvString("UPLOAD_BODY_LIMIT", "32M"),
		DB_DRIVER:            getEnvString("DB_DRIVER", "postgres"),
		DB_DSN:               getEnvString("DB_DSN", ""),
		DB_HOST:              getEnvString("DB_HOST", "localhost"),
		DB_PORT:              getEnvInt("DB_PORT", 5432),
		DB_USER:              getEnvString("DB_USER", "postgres"),
		DB_PASSWORD:          getEnvString("DB_PASSWORD", "postgres"),
		DB_NAME:              getEnvString("DB_NAME", "postgres"),
		DB_SSL_MODE:          getEnvString("DB_SSL_MODE", "disable"),
		DB_CONN_MAX_LIFETIME: getEnvDuration("DB_CONN_MAX_LIFETIME", 20*time.Minute),
		DB_MAX_IDLE_CONNS:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
		DB_MAX_OPEN_CONNS:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
		DB_AUTO_MIGRATE:      getEnvBool("DB_AUTO_MIGRATE", true),
		INGEST_BATCH_SIZE:    getEnvInt("INGEST_BATCH_SIZE", 1000),
		DEPARTMENT_ID_MAX:    int64(getEnvInt("DEPARTMENT_ID_MAX", 12)),
		JOB_ID_MAX:           int64(getEnvInt("JOB_ID_MAX", 183)),
		REPORT_YEAR:          getEnvInt("REPORT_YEAR", 2021),
		LOG_FILE_PATH:        getEnvString("LOG_FILE_PATH", ""),
		LOG_LEVEL:            getEnvString("LOG_LEVEL", "info"),
		METRICS_BACKEND:      strings.ToLower(getEnvString("METRICS_BACKEND", "prometheus")),
		METRICS_NAMESPACE:    getEnvString("METRICS_NAMESPACE", "hiring_analytics"),
		DATADOG_ADDR:         getEnvString("DATADOG_ADDR", "localhost:8125"),
		DATADOG_TAGS:         getEnvList("DATADOG_TAGS"),
		ELASTIC_URL:          getEnvString("ELASTIC_URL", ""),
		EXPORT_LAYOUT_PATH:   getEnvString("EXPORT_LAYOUT_PATH", ""),
	}
	return nil
}

func getEnvString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if i, err := strconv.Atoi(val); err == nil {
			return time.Duration(i) * time.Second
		}
	}
	return fallback
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
