package database

import (
	"database/sql"
	"errors"
	"strings"
)

const userColumns = `id, name, email, password_hash, deleted, date_joined, wins, draws, losses`

func scanUser(row interface{ Scan(...interface{}) error }) (*User, error) {
	user := &User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Deleted,
		&user.DateJoined,
		&user.Wins,
		&user.Draws,
		&user.Losses,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

// isUniqueViolation detects the sqlite uniqueness constraint error. The
// constraint is the single source of duplicate detection for user name/email;
// nothing pre-checks, so two racing signups cannot both succeed.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new user. `passwordHash` may be empty for OAuth-only
// accounts, which are stored with a NULL password hash and can never log in
// with a password. Returns ErrDuplicate when the name or email is taken.
func (s *Service) CreateUser(db DBorTx, name, email, passwordHash string) (*User, error) {
	var hash interface{} = passwordHash
	if passwordHash == "" {
		hash = nil
	}
	query := `INSERT INTO users (name, email, password_hash) VALUES (?, ?, ?);`
	s.logQuery(query, name, email)
	res, err := db.Exec(query, name, email, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetUserByID(db, id)
}

// GetUserByID retrieves a user by ID, deleted or not.
// Returns ErrNotFound when no such user exists.
func (s *Service) GetUserByID(db DBorTx, id int64) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?;`
	s.logQuery(query, id)
	user, err := scanUser(db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// GetUserByName retrieves a user by name, deleted or not.
func (s *Service) GetUserByName(db DBorTx, name string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE name = ?;`
	s.logQuery(query, name)
	user, err := scanUser(db.QueryRow(query, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// GetUserByEmail retrieves a user by email. Soft-deleted users have a NULL
// email, so they can never match.
func (s *Service) GetUserByEmail(db DBorTx, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?;`
	s.logQuery(query, email)
	user, err := scanUser(db.QueryRow(query, email))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return user, err
}

// userOrderColumns is the set of columns `order_by` may name on user listings.
var userOrderColumns = map[string]string{
	"id":          "id",
	"name":        "name",
	"date_joined": "date_joined",
	"wins":        "wins",
	"draws":       "draws",
	"losses":      "losses",
}

// ListUsers returns users matching the filter, ordered and paginated.
// An empty result is a valid response, not an error.
func (s *Service) ListUsers(db DBorTx, f UserFilter, opts ListOptions) ([]*User, error) {
	suffix, args, err := buildListQuery(f, opts, "date_joined", "id", userOrderColumns)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + userColumns + ` FROM users` + suffix + `;`
	s.logQuery(query, args...)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// SoftDeleteUser marks a user deleted, clearing the email and password hash in
// the same atomic update so the account can never authenticate again. The
// name is retained: historical invitations and games must still resolve to it.
//
// Returns true only for the update that actually flipped the flag. The
// `deleted = 0` guard plus the affected-row count close the race between two
// concurrent delete calls: exactly one reports true, the other (and any call
// for a nonexistent user) reports false as an idempotent no-op.
func (s *Service) SoftDeleteUser(tx *sql.Tx, id int64) (bool, error) {
	query := `UPDATE users SET email = NULL, password_hash = NULL, deleted = 1
		WHERE id = ? AND deleted = 0;`
	s.logQuery(query, id)
	res, err := tx.Exec(query, id)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

// recordResult bumps the win/draw/loss counters for a finished game. Called
// inside the same transaction that ends the game.
func (s *Service) recordResult(tx *sql.Tx, winner, loser int64, draw bool) error {
	if draw {
		query := `UPDATE users SET draws = draws + 1 WHERE id IN (?, ?);`
		s.logQuery(query, winner, loser)
		_, err := tx.Exec(query, winner, loser)
		return err
	}
	query := `UPDATE users SET wins = wins + 1 WHERE id = ?;`
	s.logQuery(query, winner)
	if _, err := tx.Exec(query, winner); err != nil {
		return err
	}
	query = `UPDATE users SET losses = losses + 1 WHERE id = ?;`
	s.logQuery(query, loser)
	_, err := tx.Exec(query, loser)
	return err
}
