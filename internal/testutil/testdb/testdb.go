// Package testdb provisions throwaway MySQL-compatible databases for
// integration tests.
package testdb

import (
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"

	"graphql-ddl/internal/sqlutil"
)

// TestDB is an isolated database dropped when the test finishes.
type TestDB struct {
	DB           *sql.DB
	DatabaseName string
	config       Config
}

// Config holds server connection information.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	TLSMode  string
}

// New creates a database named after the test and registers its teardown.
// The test is skipped unless DDLGEN_TEST_HOST and DDLGEN_TEST_USER are set.
func New(t *testing.T) *TestDB {
	t.Helper()

	cfg := configFromEnv(t)
	dbName := fmt.Sprintf("test_%s_%d", sanitizeName(t.Name()), time.Now().UnixMilli())
	if !isValidDatabaseName(dbName) {
		t.Fatalf("Invalid database name generated: %s", dbName)
	}

	bootstrap, err := open(cfg, "information_schema")
	if err != nil {
		t.Fatalf("Failed to connect to test server: %v", err)
	}
	if _, err := bootstrap.Exec("CREATE DATABASE IF NOT EXISTS " + sqlutil.QuoteIdentifier(dbName)); err != nil {
		_ = bootstrap.Close()
		t.Fatalf("Failed to create test database %s: %v", dbName, err)
	}
	if err := bootstrap.Close(); err != nil {
		t.Logf("Warning: failed to close bootstrap connection: %v", err)
	}

	db, err := open(cfg, dbName)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	testDB := &TestDB{DB: db, DatabaseName: dbName, config: cfg}
	t.Cleanup(func() {
		testDB.Teardown(t)
	})
	return testDB
}

// DSN returns a data source name for the test database.
func (tdb *TestDB) DSN() string {
	return buildDSN(tdb.config, tdb.DatabaseName)
}

// Teardown drops the test database and closes the connection.
func (tdb *TestDB) Teardown(t *testing.T) {
	t.Helper()
	if tdb.DB == nil {
		return
	}
	if isValidDatabaseName(tdb.DatabaseName) {
		if _, err := tdb.DB.Exec("DROP DATABASE IF EXISTS " + sqlutil.QuoteIdentifier(tdb.DatabaseName)); err != nil {
			t.Logf("Warning: failed to drop test database %s: %v", tdb.DatabaseName, err)
		}
	}
	if err := tdb.DB.Close(); err != nil {
		t.Logf("Warning: failed to close test database connection: %v", err)
	}
	tdb.DB = nil
}

// Exec runs statements in order and fails the test on the first error.
func (tdb *TestDB) Exec(t *testing.T, statements ...string) {
	t.Helper()
	for i, stmt := range statements {
		if _, err := tdb.DB.Exec(stmt); err != nil {
			t.Fatalf("Failed to execute SQL statement %d: %v\nStatement: %s", i+1, err, stmt)
		}
	}
}

func configFromEnv(t *testing.T) Config {
	t.Helper()

	host := os.Getenv("DDLGEN_TEST_HOST")
	user := os.Getenv("DDLGEN_TEST_USER")
	if host == "" || user == "" {
		t.Skip("database not configured. Set DDLGEN_TEST_HOST and DDLGEN_TEST_USER (and optionally DDLGEN_TEST_PORT, DDLGEN_TEST_PASSWORD, DDLGEN_TEST_TLS_MODE) to run integration tests")
	}

	port := 3306
	if raw := os.Getenv("DDLGEN_TEST_PORT"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			t.Fatalf("DDLGEN_TEST_PORT is invalid: %v", err)
		}
		port = parsed
	}

	return Config{
		Host:     host,
		Port:     port,
		User:     user,
		Password: os.Getenv("DDLGEN_TEST_PASSWORD"),
		TLSMode:  os.Getenv("DDLGEN_TEST_TLS_MODE"),
	}
}

func buildDSN(cfg Config, database string) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	mc.DBName = database
	mc.TLSConfig = cfg.TLSMode
	return mc.FormatDSN()
}

func open(cfg Config, database string) (*sql.DB, error) {
	db, err := sql.Open("mysql", buildDSN(cfg, database))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// sanitizeName makes a test name safe for use as a database name. Names are
// limited to 64 characters so the test part is cut to leave room for the
// timestamp.
func sanitizeName(name string) string {
	out := make([]rune, 0, len(name))
	for _, ch := range name {
		if isValidDatabaseChar(ch) {
			out = append(out, ch)
		} else {
			out = append(out, '_')
		}
	}
	if len(out) > 40 {
		out = out[:40]
	}
	return string(out)
}

func isValidDatabaseName(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for _, ch := range name {
		if !isValidDatabaseChar(ch) {
			return false
		}
	}
	return true
}

func isValidDatabaseChar(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z') ||
		(ch >= '0' && ch <= '9') ||
		ch == '_'
}
