package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // The pure Go SQLite driver
)

// Service is the central struct for managing all database interactions.
// It holds the single sqlite connection pool and serializes write
// transactions through a mutex, so concurrent state transitions are decided
// by the conditional UPDATEs inside those transactions rather than by luck.
type Service struct {
	db      *sql.DB
	writeMu sync.Mutex
	echo    bool
}

// DBorTx is an interface that allows query functions to accept either a
// `*sql.DB` for single reads or a `*sql.Tx` for operations within a
// transaction. This promotes code reuse.
type DBorTx interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// NewService opens the sqlite database and prepares the service for use.
// `echo` turns on statement logging for debugging (SQL_ECHO).
func NewService(path string, echo bool) (*Service, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	// An in-memory database exists per connection; cap the pool at one so every
	// query sees the same data. This is the configuration tests run with.
	if strings.Contains(path, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	// The _pragma DSN parameters apply to every pooled connection; this read
	// just asserts referential integrity really is on before anything writes.
	var fkEnabled int
	if err := db.QueryRow(`PRAGMA foreign_keys;`).Scan(&fkEnabled); err != nil || fkEnabled != 1 {
		db.Close()
		return nil, fmt.Errorf("foreign key enforcement is not enabled (got %d, err %v)", fkEnabled, err)
	}

	return &Service{db: db, echo: echo}, nil
}

// DB provides a direct connection for read queries.
func (s *Service) DB() *sql.DB {
	return s.db
}

// Close closes the underlying connection pool.
func (s *Service) Close() error {
	return s.db.Close()
}

// WriteTx executes a write operation within a transaction, protected by a
// mutex to ensure serial access. If the function returns an error the
// transaction is rolled back and nothing becomes visible.
func (s *Service) WriteTx(writeFunc func(tx *sql.Tx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := writeFunc(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %v", err, rbErr)
		}
		return err
	}

	return tx.Commit()
}

// logQuery echoes a statement when SQL_ECHO is enabled.
func (s *Service) logQuery(query string, args ...interface{}) {
	if s.echo {
		log.Printf("SQL: %s %v", strings.Join(strings.Fields(query), " "), args)
	}
}

// InitSchema sets up the database schema if the tables don't exist.
// This is idempotent and safe to run on every application start.
func (s *Service) InitSchema() error {
	return s.WriteTx(func(tx *sql.Tx) error {
		// Users table. Email and password hash are nullable: both are cleared
		// irreversibly when the account is soft-deleted, and OAuth-only accounts
		// never have a password hash at all. The name survives deletion so that
		// old invitations and games still resolve to a display name.
		_, err := tx.Exec(`
			CREATE TABLE IF NOT EXISTS users (
				id INTEGER PRIMARY KEY,
				name TEXT UNIQUE NOT NULL,
				email TEXT UNIQUE,
				password_hash TEXT,
				deleted INTEGER NOT NULL DEFAULT 0,
				date_joined DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				wins INTEGER NOT NULL DEFAULT 0,
				draws INTEGER NOT NULL DEFAULT 0,
				losses INTEGER NOT NULL DEFAULT 0
			);`)
		if err != nil {
			return err
		}

		// Invitations table
		_, err = tx.Exec(`
			CREATE TABLE IF NOT EXISTS invitations (
				id INTEGER PRIMARY KEY,
				date_sent DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				date_answered DATETIME,
				from_id INTEGER NOT NULL,
				to_id INTEGER NOT NULL,
				game_type TEXT NOT NULL DEFAULT 'CHESS',
				status TEXT NOT NULL DEFAULT 'PENDING',
				FOREIGN KEY (from_id) REFERENCES users (id),
				FOREIGN KEY (to_id) REFERENCES users (id)
			);`)
		if err != nil {
			return err
		}

		// Games table. One game per invitation, enforced by the UNIQUE constraint.
		_, err = tx.Exec(`
			CREATE TABLE IF NOT EXISTS games (
				id INTEGER PRIMARY KEY,
				game_type TEXT NOT NULL DEFAULT 'CHESS',
				invitation_id INTEGER NOT NULL UNIQUE,
				date_started DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				date_ended DATETIME,
				player_1 INTEGER NOT NULL,
				player_2 INTEGER NOT NULL,
				whomst INTEGER NOT NULL,
				winner INTEGER,
				status TEXT NOT NULL DEFAULT 'ACTIVE',
				fen TEXT NOT NULL,
				states TEXT NOT NULL DEFAULT '{}',
				FOREIGN KEY (invitation_id) REFERENCES invitations (id),
				FOREIGN KEY (player_1) REFERENCES users (id),
				FOREIGN KEY (player_2) REFERENCES users (id),
				FOREIGN KEY (whomst) REFERENCES users (id),
				FOREIGN KEY (winner) REFERENCES users (id)
			);`)
		if err != nil {
			return err
		}

		// Moves table, append-only
		_, err = tx.Exec(`
			CREATE TABLE IF NOT EXISTS moves (
				id INTEGER PRIMARY KEY,
				user_id INTEGER NOT NULL,
				game_id INTEGER NOT NULL,
				date_played DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				movestr TEXT NOT NULL,
				fen TEXT NOT NULL,
				FOREIGN KEY (user_id) REFERENCES users (id),
				FOREIGN KEY (game_id) REFERENCES games (id)
			);`)
		return err
	})
}
