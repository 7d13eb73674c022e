// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/logiclens/gatepass-go/internal/infrastructure/observability/logging"
	"github.com/logiclens/gatepass-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// DB represents a wrapper around the standard SQL database connection.
type DB struct {
	*sql.DB
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string) (*DB, error) {
	db, err := sql.Open(driverName, dataSourceName)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)

	return &DB{db}, nil
}

// NewConnectionWithLogger establishes a new database connection for the specified driver with logging.
func NewConnectionWithLogger(driverName, dataSourceName string, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", driverName)

	db, err := NewConnection(driverName, dataSourceName)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", driverName)
		return nil, err
	}

	logger.Database().Info("Database connection established", "driverName", driverName, "duration", time.Since(start))
	return db, nil
}

// DataSourceName builds the DSN for the configured driver. The libsql driver
// targets a remote Turso database; sqlite3 targets a local file.
func DataSourceName() (string, string, error) {
	switch config.DBDriver {
	case "libsql":
		if config.LibSQLURL == "" {
			return "", "", fmt.Errorf("LIBSQL_URL is required for the libsql driver")
		}
		dsn := config.LibSQLURL
		if config.LibSQLAuthToken != "" {
			dsn = fmt.Sprintf("%s?authToken=%s", config.LibSQLURL, config.LibSQLAuthToken)
		}
		return "libsql", dsn, nil
	case "sqlite3":
		return "sqlite3", config.DBPath, nil
	default:
		return "", "", fmt.Errorf("unsupported DB_DRIVER %q", config.DBDriver)
	}
}
