//go:build integration

// Package test holds integration tests that run wee against real MySQL and
// PostgreSQL servers started with testcontainers.
package test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/coregx/wee"
)

// DatabaseSetup encapsulates database connection and cleanup.
type DatabaseSetup struct {
	Conn      *wee.Conn
	Container testcontainers.Container
	Dialect   string
}

// Close cleans up database resources.
func (ds *DatabaseSetup) Close() {
	if ds.Conn != nil {
		ds.Conn.Close() //nolint:errcheck
	}
	if ds.Container != nil {
		ds.Container.Terminate(context.Background()) //nolint:errcheck
	}
}

func connect(t *testing.T, driver, dsn string) *wee.Conn {
	t.Helper()
	conn, err := wee.Open(driver, dsn, wee.WithMaxOpenConns(4))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, conn.Ping(ctx))
	return conn
}

// SetupPostgreSQLTestDB creates a PostgreSQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupPostgreSQLTestDB(t *testing.T) *DatabaseSetup {
	ctx := context.Background()

	// Check for manual DSN first (allows testing without Docker)
	if dsn := os.Getenv("POSTGRES_TEST_DSN"); dsn != "" {
		return &DatabaseSetup{Conn: connect(t, "pgsql", dsn), Dialect: "postgres"}
	}

	pgContainer, err := postgres.Run(
		ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for PostgreSQL integration tests: " + err.Error())
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	return &DatabaseSetup{
		Conn:      connect(t, "pgsql", dsn),
		Container: pgContainer,
		Dialect:   "postgres",
	}
}

// SetupMySQLTestDB creates a MySQL test database.
// Uses testcontainers if available, falls back to env DSN.
func SetupMySQLTestDB(t *testing.T) *DatabaseSetup {
	ctx := context.Background()

	if dsn := os.Getenv("MYSQL_TEST_DSN"); dsn != "" {
		return &DatabaseSetup{Conn: connect(t, "mysql", dsn), Dialect: "mysql"}
	}

	mysqlContainer, err := mysql.Run(
		ctx,
		"mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("user"),
		mysql.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("port: 3306  MySQL Community Server").
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skip("Docker not available for MySQL integration tests: " + err.Error())
	}

	dsn, err := mysqlContainer.ConnectionString(ctx)
	require.NoError(t, err)

	return &DatabaseSetup{
		Conn:      connect(t, "mysql", dsn),
		Container: mysqlContainer,
		Dialect:   "mysql",
	}
}

// CreateBlogTables creates the users and posts tables used by the
// lifecycle tests.
func CreateBlogTables(t *testing.T, conn *wee.Conn, dialect string) {
	t.Helper()

	var stmts []string
	switch dialect {
	case "postgres":
		stmts = []string{
			`DROP TABLE IF EXISTS posts`,
			`DROP TABLE IF EXISTS users`,
			`CREATE TABLE users (
				id SERIAL PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(255) UNIQUE,
				created_at TIMESTAMP,
				updated_at TIMESTAMP,
				deleted_at TIMESTAMP
			)`,
			`CREATE TABLE posts (
				id SERIAL PRIMARY KEY,
				user_id INTEGER REFERENCES users(id),
				title VARCHAR(255) NOT NULL,
				created_at TIMESTAMP,
				updated_at TIMESTAMP
			)`,
		}
	case "mysql":
		stmts = []string{
			`DROP TABLE IF EXISTS posts`,
			`DROP TABLE IF EXISTS users`,
			`CREATE TABLE users (
				id INT AUTO_INCREMENT PRIMARY KEY,
				name VARCHAR(100) NOT NULL,
				email VARCHAR(255) UNIQUE,
				created_at DATETIME,
				updated_at DATETIME,
				deleted_at DATETIME
			) ENGINE=InnoDB`,
			`CREATE TABLE posts (
				id INT AUTO_INCREMENT PRIMARY KEY,
				user_id INT,
				title VARCHAR(255) NOT NULL,
				created_at DATETIME,
				updated_at DATETIME,
				FOREIGN KEY (user_id) REFERENCES users(id)
			) ENGINE=InnoDB`,
		}
	}

	for _, stmt := range stmts {
		_, err := conn.Execute(context.Background(), stmt)
		require.NoError(t, err)
	}
}
