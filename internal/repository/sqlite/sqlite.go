// Package sqlite implements the repository interfaces on top of SQLite.
//
// WHY SQLITE?
// The whole board persists to one database file: four tables, a handful of
// foreign keys, no separate server to run. ":memory:" gives every test its
// own throwaway database.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of SQLite, so the binary builds without a C
// toolchain and cross-compiles like any other Go program.
//
// LAYOUT:
// DB owns the *sql.DB pool and hands out one small store per table:
//
//	db.Users()    → *UserStore    (repository.UserRepository)
//	db.Clubs()    → *ClubStore    (repository.ClubRepository)
//	db.Events()   → *EventStore   (repository.EventRepository)
//	db.Comments() → *CommentStore (repository.CommentRepository)
//
// Every store shares the same pool, so a single Close releases everything.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/sakif/clubboard/internal/apperror"

	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// memoryPath is the SQLite name for a private in-memory database.
const memoryPath = ":memory:"

// connParams are applied by the driver to every new pool connection.
// foreign_keys is per-connection state in SQLite; setting it once with Exec
// would only cover whichever connection happened to run the statement.
const connParams = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"

// DB wraps the connection pool.
type DB struct {
	conn *sql.DB
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/clubboard.db" → file-based database
//   - ":memory:"          → in-memory database, one per DB value
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath+"?"+connParams)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Each pool connection to ":memory:" would get its own empty database.
	// Pin the pool to one connection so every query sees the same tables.
	if dbPath == memoryPath {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Users returns the user store.
func (db *DB) Users() *UserStore { return &UserStore{conn: db.conn} }

// Clubs returns the club store.
func (db *DB) Clubs() *ClubStore { return &ClubStore{conn: db.conn} }

// Events returns the event store.
func (db *DB) Events() *EventStore { return &EventStore{conn: db.conn} }

// Comments returns the comment store.
func (db *DB) Comments() *CommentStore { return &CommentStore{conn: db.conn} }

// migrate creates the schema. Every statement is idempotent, so it runs on
// each start.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            TEXT PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			name          TEXT NOT NULL,
			alias         TEXT,
			school_name   TEXT,
			club_name     TEXT,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			is_club_staff INTEGER NOT NULL DEFAULT 0,
			tags          TEXT,
			created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_users_club_name ON users(club_name);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	// role was added after tags; older files get it backfilled as member and
	// recomputed the next time a member's tags are written.
	if err := db.addColumnIfNotExists("users", "role",
		"TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('president','staff','member'))"); err != nil {
		return fmt.Errorf("adding role to users: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS clubs (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			club_name   TEXT NOT NULL UNIQUE,
			description TEXT,
			school_name TEXT NOT NULL,
			activities  TEXT,
			created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("creating clubs table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS events (
			id                TEXT PRIMARY KEY,
			club_name         TEXT REFERENCES clubs(club_name) ON DELETE SET NULL ON UPDATE CASCADE,
			category          TEXT NOT NULL CHECK (category IN ('STUDY','CTF','PROJECT')),
			field             TEXT,
			event_date        TEXT,
			recruitment_count INTEGER,
			difficulty        TEXT NOT NULL CHECK (difficulty IN ('LOW','MID','HIGH')),
			title             TEXT NOT NULL,
			description       TEXT,
			author_id         TEXT NOT NULL REFERENCES users(id),
			status            TEXT NOT NULL DEFAULT 'RECRUITING' CHECK (status IN ('RECRUITING','COMPLETED')),
			created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
		CREATE INDEX IF NOT EXISTS idx_events_club_name ON events(club_name);
	`)
	if err != nil {
		return fmt.Errorf("creating events table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS comments (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			post_id    TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			author     TEXT NOT NULL,
			content    TEXT NOT NULL,
			author_id  TEXT NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);
	`)
	if err != nil {
		return fmt.Errorf("creating comments table: %w", err)
	}

	return nil
}

// addColumnIfNotExists adds a column to a table only if it doesn't already exist.
func (db *DB) addColumnIfNotExists(table, column, definition string) error {
	var count int
	err := db.conn.QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?`,
		table, column,
	).Scan(&count)
	if err != nil {
		return fmt.Errorf("checking column %s.%s: %w", table, column, err)
	}
	if count > 0 {
		return nil
	}
	_, err = db.conn.Exec(fmt.Sprintf(
		`ALTER TABLE %s ADD COLUMN %s %s`, table, column, definition,
	))
	return err
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// isUniqueViolation reports whether err came from a UNIQUE constraint.
func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
		return true
	}
	return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqliteErr.Error(), "UNIQUE")
}

// notFoundOr maps sql.ErrNoRows to a NotFound error and wraps anything else.
func notFoundOr(err error, resource, id, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	return fmt.Errorf("sqlite: %s %s %s: %w", op, resource, id, err)
}

// requireAffected turns "no rows changed" into NotFound.
func requireAffected(result sql.Result, resource, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rows == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}

// nullString converts an optional string into a bindable value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// stringPtr converts a scanned column back into an optional string.
func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt(n *int) sql.NullInt64 {
	if n == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*n), Valid: true}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// likePattern wraps s in % wildcards, escaping LIKE metacharacters so user
// input always matches literally. Pair with ESCAPE '\'.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
