package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GameTypeChess is the only game type currently supported. The column exists
// so other turn-based games can be added without a schema change.
const GameTypeChess = "CHESS"

// InitialFEN is the standard chess starting position every new game begins at.
const InitialFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Invitation statuses. PENDING is the only non-terminal status; once an
// invitation reaches any of the other three, no further transition succeeds.
const (
	InvitationPending   = "PENDING"
	InvitationAccepted  = "ACCEPTED"
	InvitationDeclined  = "DECLINED"
	InvitationCancelled = "CANCELLED"
)

// Game statuses. ACTIVE is the only status in which moves are accepted.
const (
	GameActive    = "ACTIVE"
	GameDraw      = "DRAW"
	GameWhiteWins = "WHITE_WINS"
	GameBlackWins = "BLACK_WINS"
)

// Sentinel errors shared across the query files. The API layer matches on
// these to pick status codes; detail strings with entity IDs are formatted
// there, where the IDs are at hand.
var (
	// ErrNotFound is returned when the requested record does not exist.
	// It is always checked before any authorization or state error.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate surfaces the store's uniqueness constraint on user
	// name/email. Duplicate detection lives only here; it is deliberately not
	// pre-checked in application code, to avoid check-then-insert races.
	ErrDuplicate = errors.New("user with same name or email already exists")

	// ErrNotAddressee / ErrNotSender report a transition attempted by the
	// wrong actor, distinct from not-found.
	ErrNotAddressee = errors.New("invitation not addressed to user")
	ErrNotSender    = errors.New("invitation not sent by user")

	// ErrUserDeleted is returned when the counterpart of an invitation has
	// been soft-deleted since the invitation was created.
	ErrUserDeleted = errors.New("user has been deleted")

	// ErrNotPlayer / ErrNotYourTurn guard move submission.
	ErrNotPlayer   = errors.New("user not a player in game")
	ErrNotYourTurn = errors.New("not user's turn")

	// ErrBadOrderColumn reports an order_by value outside the entity's
	// allowed column set.
	ErrBadOrderColumn = errors.New("unsupported order_by column")
)

// StatusError reports a transition attempted on an entity that already left
// the required state. The current status is included so callers can tell an
// idempotent retry from a genuine conflict.
type StatusError struct {
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("already has '%s' status", e.Status)
}

// User represents a record in the 'users' table. Email and PasswordHash use
// sql.NullString because both are cleared on soft delete (and OAuth-only
// accounts never have a password hash).
type User struct {
	ID           int64
	Name         string
	Email        sql.NullString
	PasswordHash sql.NullString
	Deleted      bool
	DateJoined   time.Time
	Wins         int64
	Draws        int64
	Losses       int64
}

// Invitation represents a record in the 'invitations' table: a directed game
// proposal from one user to another.
type Invitation struct {
	ID           int64
	DateSent     time.Time
	DateAnswered sql.NullTime
	FromID       int64
	ToID         int64
	GameType     string
	Status       string
}

// Game represents a record in the 'games' table. Whomst is the player whose
// turn it currently is; it always equals Player1 or Player2 while the game is
// ACTIVE and freezes once the game ends.
type Game struct {
	ID           int64
	GameType     string
	InvitationID int64
	DateStarted  time.Time
	DateEnded    sql.NullTime
	Player1      int64
	Player2      int64
	Whomst       int64
	Winner       sql.NullInt64
	Status       string
	FEN          string
	States       string

	// Populated by a JOIN in the game queries so list responses can show
	// display names without extra lookups. Names resolve even for
	// soft-deleted players, which keep their name on record.
	Player1Name string
	Player2Name string
}

// Move represents a record in the 'moves' table: an immutable audit entry for
// one ply, ordered by date_played for replay.
type Move struct {
	ID         int64
	UserID     int64
	GameID     int64
	DatePlayed time.Time
	Movestr    string
	FEN        string
}
