package database

import (
	"database/sql"
	"errors"
)

const invitationColumns = `id, date_sent, date_answered, from_id, to_id, game_type, status`

func scanInvitation(row interface{ Scan(...interface{}) error }) (*Invitation, error) {
	inv := &Invitation{}
	err := row.Scan(
		&inv.ID,
		&inv.DateSent,
		&inv.DateAnswered,
		&inv.FromID,
		&inv.ToID,
		&inv.GameType,
		&inv.Status,
	)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// CreateInvitation inserts a new PENDING invitation. Existence of both users
// at creation time is enforced by the foreign keys; the liveness of the
// recipient is the caller's check (it must also be re-verified at transition
// time, since the store never re-checks it).
func (s *Service) CreateInvitation(tx *sql.Tx, fromID, toID int64, gameType string) (*Invitation, error) {
	query := `INSERT INTO invitations (from_id, to_id, game_type) VALUES (?, ?, ?);`
	s.logQuery(query, fromID, toID, gameType)
	res, err := tx.Exec(query, fromID, toID, gameType)
	if err != nil {
		return nil, err
	}
	id, _ := res.LastInsertId()
	return s.GetInvitationByID(tx, id)
}

// GetInvitationByID retrieves a single invitation.
func (s *Service) GetInvitationByID(db DBorTx, id int64) (*Invitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM invitations WHERE id = ?;`
	s.logQuery(query, id)
	inv, err := scanInvitation(db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

// ListInvitations returns invitations matching the filter, ordered by
// date_sent (then id) and paginated.
func (s *Service) ListInvitations(db DBorTx, f InvitationFilter, opts ListOptions) ([]*Invitation, error) {
	suffix, args, err := buildListQuery(f, opts, "date_sent", "id", map[string]string{
		"id":        "id",
		"date_sent": "date_sent",
	})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + invitationColumns + ` FROM invitations` + suffix + `;`
	s.logQuery(query, args...)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invitations []*Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		invitations = append(invitations, inv)
	}
	return invitations, rows.Err()
}

// invitationEvent describes one edge of the invitation state machine: the
// terminal status it leads to, which side of the invitation may trigger it,
// and whether the counterpart's liveness must be re-verified first.
type invitationEvent struct {
	target           string
	actorIsRecipient bool
	checkSenderAlive bool
}

var (
	eventAccept  = invitationEvent{target: InvitationAccepted, actorIsRecipient: true, checkSenderAlive: true}
	eventDecline = invitationEvent{target: InvitationDeclined, actorIsRecipient: true, checkSenderAlive: true}
	eventCancel  = invitationEvent{target: InvitationCancelled, actorIsRecipient: false}
)

// transitionInvitation applies one terminal transition of the invitation
// state machine. The legal-transition table is defined here and nowhere else;
// accept, decline and cancel all go through it.
//
// The transition itself is a conditional UPDATE gated on the status still
// being PENDING: the affected-row count, not a read-then-write, decides the
// winner when two calls race. The loser gets a StatusError naming the status
// that beat it.
func (s *Service) transitionInvitation(tx *sql.Tx, id, actorID int64, ev invitationEvent) (*Invitation, error) {
	inv, err := s.GetInvitationByID(tx, id)
	if err != nil {
		return nil, err
	}

	if ev.actorIsRecipient {
		if inv.ToID != actorID {
			return nil, ErrNotAddressee
		}
	} else if inv.FromID != actorID {
		return nil, ErrNotSender
	}

	if ev.checkSenderAlive {
		// The store only guarantees the sender existed at creation time.
		sender, err := s.GetUserByID(tx, inv.FromID)
		if err != nil {
			return nil, err
		}
		if sender.Deleted {
			return nil, ErrUserDeleted
		}
	}

	if inv.Status != InvitationPending {
		return nil, &StatusError{Status: inv.Status}
	}

	query := `UPDATE invitations SET status = ?, date_answered = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?;`
	s.logQuery(query, ev.target, id, InvitationPending)
	res, err := tx.Exec(query, ev.target, id, InvitationPending)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost a race: someone else answered between our read and the update.
		current, err := s.GetInvitationByID(tx, id)
		if err != nil {
			return nil, err
		}
		return nil, &StatusError{Status: current.Status}
	}

	return s.GetInvitationByID(tx, id)
}

// AcceptInvitation accepts a PENDING invitation and creates the game in the
// same transaction: a flipped status without a game (or the reverse) is never
// observable. The sender plays white and moves first.
func (s *Service) AcceptInvitation(tx *sql.Tx, id, actorID int64) (*Game, error) {
	inv, err := s.transitionInvitation(tx, id, actorID, eventAccept)
	if err != nil {
		return nil, err
	}

	query := `INSERT INTO games (game_type, invitation_id, player_1, player_2, whomst, fen)
		VALUES (?, ?, ?, ?, ?, ?);`
	s.logQuery(query, inv.GameType, inv.ID, inv.FromID, inv.ToID, inv.FromID)
	res, err := tx.Exec(query, inv.GameType, inv.ID, inv.FromID, inv.ToID, inv.FromID, InitialFEN)
	if err != nil {
		return nil, err
	}
	gameID, _ := res.LastInsertId()
	return s.GetGameByID(tx, gameID)
}

// DeclineInvitation declines a PENDING invitation. Recipient only.
func (s *Service) DeclineInvitation(tx *sql.Tx, id, actorID int64) (*Invitation, error) {
	return s.transitionInvitation(tx, id, actorID, eventDecline)
}

// CancelInvitation cancels a PENDING invitation. Sender only.
func (s *Service) CancelInvitation(tx *sql.Tx, id, actorID int64) (*Invitation, error) {
	return s.transitionInvitation(tx, id, actorID, eventCancel)
}
