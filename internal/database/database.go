// Package database opens source database connections for db2xlsx.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver, registered as "pgx"
	_ "modernc.org/sqlite"             // SQLite driver, registered as "sqlite"

	"github.com/dbsmedya/db2xlsx/internal/config"
)

// Manager opens one connection per input for the configured source.
type Manager struct {
	config *config.SourceConfig
}

// NewManager creates a new database manager from configuration.
func NewManager(cfg *config.SourceConfig) *Manager {
	return &Manager{
		config: cfg,
	}
}

// Open connects to the database identified by input: a file path for
// sqlite, a database name for the server drivers. The pool is limited to
// a single connection; all work on one input is sequential.
func (m *Manager) Open(ctx context.Context, input string) (*sql.DB, error) {
	if m.config == nil {
		return nil, fmt.Errorf("source configuration is nil")
	}

	driverName, dsn, err := m.DSN(input)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", input, err)
	}
	return db, nil
}

// DSN returns the database/sql driver name and data source name for input.
func (m *Manager) DSN(input string) (string, string, error) {
	switch m.config.Driver {
	case config.DriverSQLite, "":
		return "sqlite", SQLiteDSN(input), nil
	case config.DriverMySQL:
		return "mysql", BuildDSN(m.config, input), nil
	case config.DriverPostgres:
		return "pgx", BuildPostgresDSN(m.config, input), nil
	}
	return "", "", fmt.Errorf("unsupported driver %q", m.config.Driver)
}

// sqlitePathEscaper escapes the characters that carry meaning in a SQLite URI filename.
var sqlitePathEscaper = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

// SQLiteDSN builds a read-only URI filename for a database file.
// URI form is required for mode=ro to reach SQLite; it also stops the
// driver from creating a missing file.
func SQLiteDSN(path string) string {
	return "file:" + sqlitePathEscaper.Replace(path) + "?mode=ro"
}

// BuildDSN constructs a MySQL DSN for one database on the configured server.
func BuildDSN(cfg *config.SourceConfig, database string) string {
	// Format: user:password@tcp(host:port)/database?params
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.DefaultPort(),
		database,
	)

	params := "?parseTime=true"
	switch cfg.TLS {
	case "disable":
		params += "&tls=false"
	case "required":
		params += "&tls=true"
	case "preferred", "":
		params += "&tls=preferred"
	}

	return dsn + params
}

// BuildPostgresDSN constructs a postgres:// URL for one database on the
// configured server. The configured schema becomes the search_path so the
// unqualified table names of generated queries resolve to it.
func BuildPostgresDSN(cfg *config.SourceConfig, database string) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(cfg.User, cfg.Password),
		Host:   cfg.Host + ":" + strconv.Itoa(cfg.DefaultPort()),
		Path:   "/" + database,
	}

	q := url.Values{}
	switch cfg.TLS {
	case "disable":
		q.Set("sslmode", "disable")
	case "required":
		q.Set("sslmode", "require")
	default:
		q.Set("sslmode", "prefer")
	}
	if cfg.Schema != "" {
		q.Set("search_path", cfg.Schema)
	}
	u.RawQuery = q.Encode()

	return u.String()
}
