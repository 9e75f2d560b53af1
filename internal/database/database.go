package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	_ "github.com/lib/pq"              // registers "postgres"
	_ "github.com/microsoft/go-mssqldb" // registers "sqlserver"
	_ "modernc.org/sqlite"             // registers "sqlite"

	"github.com/locvowork/hiring_analytics/internal/repository/builder"
)

// Dialect names a supported database/sql driver.
type Dialect string

const (
	Postgres  Dialect = "postgres"
	PGX       Dialect = "pgx"
	SQLite    Dialect = "sqlite"
	SQLServer Dialect = "sqlserver"
)

// ParseDialect validates a configured driver name.
func ParseDialect(s string) (Dialect, error) {
	switch d := Dialect(strings.ToLower(strings.TrimSpace(s))); d {
	case Postgres, PGX, SQLite, SQLServer:
		return d, nil
	case "postgresql":
		return Postgres, nil
	case "mssql":
		return SQLServer, nil
	}
	return "", fmt.Errorf("unsupported database driver %q", s)
}

// Placeholder returns the bind marker format used by the dialect.
func (d Dialect) Placeholder() builder.PlaceholderFormat {
	switch d {
	case SQLite:
		return builder.Question
	case SQLServer:
		return builder.AtP
	}
	return builder.Dollar
}

// Savepoint returns the statement that opens a named savepoint.
func (d Dialect) Savepoint(name string) string {
	if d == SQLServer {
		return "SAVE TRANSACTION " + name
	}
	return "SAVEPOINT " + name
}

// RollbackTo returns the statement that undoes work since the savepoint.
func (d Dialect) RollbackTo(name string) string {
	if d == SQLServer {
		return "ROLLBACK TRANSACTION " + name
	}
	return "ROLLBACK TO SAVEPOINT " + name
}

// Release returns the statement that discards a savepoint, or "" when the dialect has none.
func (d Dialect) Release(name string) string {
	if d == SQLServer {
		return ""
	}
	return "RELEASE SAVEPOINT " + name
}

// Config holds connection settings.
type Config struct {
	Driver          Dialect
	DSN             string
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DataSourceName returns DSN when set, otherwise builds one from the host fields.
func (c Config) DataSourceName() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case SQLite:
		return "file:hiring.db"
	case SQLServer:
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(c.User, c.Password),
			Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
			RawQuery: url.Values{"database": {c.DBName}}.Encode(),
		}
		return u.String()
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// Open connects to the configured database, applies pool settings and pings it.
func Open(ctx context.Context, cfg Config) (*sql.DB, error) {
	if cfg.Driver == "" {
		cfg.Driver = Postgres
	}
	dsn := cfg.DataSourceName()
	if cfg.Driver == SQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(string(cfg.Driver), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	// every connection to an in-memory database is a separate database
	if cfg.Driver == SQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
		db.SetConnMaxLifetime(0)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", cfg.Driver, err)
	}

	return db, nil
}

// sqliteDSN turns on foreign key enforcement and a busy timeout for every
// pooled connection, and makes transactions take the write lock on BEGIN so
// concurrent writers queue instead of failing on lock upgrade.
func sqliteDSN(dsn string) string {
	var params []string
	if !strings.Contains(dsn, "foreign_keys") {
		params = append(params, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		params = append(params, "_pragma=busy_timeout(5000)")
	}
	if !strings.Contains(dsn, "_txlock") {
		params = append(params, "_txlock=immediate")
	}
	if len(params) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(params, "&")
}
