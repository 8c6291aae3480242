// Package sqlite implements the repository interfaces on an embedded SQLite
// database (modernc.org/sqlite, pure Go, no cgo).
//
// It backs local development and the test suites: pass ":memory:" for a
// throwaway database. Production deployments point STORE_URI at MongoDB
// instead (see repository/mongo).
//
// SCHEMA:
// Tables are created by golang-migrate from the SQL files embedded under
// migrations/. Timestamps are stored as INTEGER Unix milliseconds so that
// ORDER BY created_at compares numbers, not formatted strings.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/sakif/scholar-stream/internal/repository"

	// Registers the "sqlite" driver with database/sql.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and hands out one repository per table.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and applies all migrations.
//
// dbPath examples:
//   - "data/scholar-stream.db" → file-based database
//   - ":memory:"               → in-memory database, lost on Close
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Every connection to ":memory:" is a separate database, so the pool is
	// pinned to the one connection that holds the schema.
	if dbPath == ":memory:" || strings.Contains(dbPath, "mode=memory") {
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
		conn.SetConnMaxIdleTime(0)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting busy timeout: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}
	if err := db.backfillSearchText(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// migrate applies the embedded migrations. Already-applied migrations are a
// no-op.
func (db *DB) migrate() error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("creating migration source: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db.conn, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	// m.Close is not called: it would close db.conn through the driver.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// backfillSearchText fills search_text for rows written before the column
// existed.
func (db *DB) backfillSearchText(ctx context.Context) error {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, scholarship_name, university_name, degree FROM scholarships WHERE search_text = ''`)
	if err != nil {
		return fmt.Errorf("sqlite: reading scholarships to index: %w", err)
	}
	type pending struct{ id, text string }
	var todo []pending
	for rows.Next() {
		var id, name, university, degree string
		if err := rows.Scan(&id, &name, &university, &degree); err != nil {
			rows.Close()
			return fmt.Errorf("sqlite: scanning scholarship to index: %w", err)
		}
		todo = append(todo, pending{id, searchText(name, university, degree)})
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("sqlite: iterating scholarships to index: %w", err)
	}

	for _, p := range todo {
		if _, err := db.conn.ExecContext(ctx,
			`UPDATE scholarships SET search_text = ? WHERE id = ?`, p.text, p.id); err != nil {
			return fmt.Errorf("sqlite: indexing scholarship %s: %w", p.id, err)
		}
	}
	return nil
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the connection pool.
func (db *DB) Close(_ context.Context) error {
	return db.conn.Close()
}

func (db *DB) Users() repository.UserRepository               { return &UserDB{conn: db.conn} }
func (db *DB) Scholarships() repository.ScholarshipRepository { return &ScholarshipDB{conn: db.conn} }
func (db *DB) Reviews() repository.ReviewRepository           { return &ReviewDB{conn: db.conn} }
func (db *DB) Applications() repository.ApplicationRepository { return &ApplicationDB{conn: db.conn} }

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// checkAffected turns a zero-row UPDATE/DELETE into a NotFound error.
func checkAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

// likeEscaper escapes LIKE wildcards so search text matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// searchText is the value of scholarships.search_text: the searchable
// fields lowercased with Go's Unicode case mapping, joined by a unit
// separator so a match cannot span two fields.
func searchText(name, university, degree string) string {
	return strings.ToLower(name + "\x1f" + university + "\x1f" + degree)
}

func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}
