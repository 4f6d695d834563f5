package database

import (
	"database/sql"
	"errors"
)

const gameColumns = `g.id, g.game_type, g.invitation_id, g.date_started, g.date_ended,
	g.player_1, g.player_2, g.whomst, g.winner, g.status, g.fen, g.states,
	p1.name, p2.name`

// gameFromTo joins the users table twice so every game row carries both
// display names. Soft-deleted players keep their name, so the joins always
// resolve.
const gameFromTo = ` FROM games g
	JOIN users p1 ON g.player_1 = p1.id
	JOIN users p2 ON g.player_2 = p2.id`

func scanGame(row interface{ Scan(...interface{}) error }) (*Game, error) {
	game := &Game{}
	err := row.Scan(
		&game.ID,
		&game.GameType,
		&game.InvitationID,
		&game.DateStarted,
		&game.DateEnded,
		&game.Player1,
		&game.Player2,
		&game.Whomst,
		&game.Winner,
		&game.Status,
		&game.FEN,
		&game.States,
		&game.Player1Name,
		&game.Player2Name,
	)
	if err != nil {
		return nil, err
	}
	return game, nil
}

// GetGameByID retrieves a single game with its player names resolved.
func (s *Service) GetGameByID(db DBorTx, id int64) (*Game, error) {
	query := `SELECT ` + gameColumns + gameFromTo + ` WHERE g.id = ?;`
	s.logQuery(query, id)
	game, err := scanGame(db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return game, err
}

// ListGames returns games matching the filter, ordered by date_started (then
// id) and paginated.
func (s *Service) ListGames(db DBorTx, f GameFilter, opts ListOptions) ([]*Game, error) {
	suffix, args, err := buildListQuery(f, opts, "g.date_started", "g.id", map[string]string{
		"id":           "g.id",
		"date_started": "g.date_started",
		"date_ended":   "g.date_ended",
	})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + gameColumns + gameFromTo + suffix + `;`
	s.logQuery(query, args...)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// MoveResult is what the move-validation collaborator said about an accepted
// move, reduced to what the store needs to commit: the new position, the new
// auxiliary engine state, and whether (and how) the game ended.
type MoveResult struct {
	FEN      string
	States   string
	GameOver bool
	Draw     bool // only meaningful when GameOver; false means the mover won
}

// CheckTurn verifies that the actor may move in this game right now:
// the game exists and is ACTIVE, the actor is one of its players, and it is
// the actor's turn. Used to fail fast before the collaborator is consulted;
// ApplyMove re-asserts the same conditions at commit time.
func CheckTurn(game *Game, actorID int64) error {
	if actorID != game.Player1 && actorID != game.Player2 {
		return ErrNotPlayer
	}
	if game.Status != GameActive {
		return &StatusError{Status: game.Status}
	}
	if actorID != game.Whomst {
		return ErrNotYourTurn
	}
	return nil
}

// ApplyMove commits one validated move: the game's board, auxiliary state,
// turn and (if the game ended) status/winner/date_ended are updated, and the
// move is appended to the audit log, all in one transaction.
//
// The UPDATE is conditional on the game still being ACTIVE with the mover to
// play, so a concurrent move cannot slip in between the collaborator call and
// the commit; the affected-row count gates success.
func (s *Service) ApplyMove(tx *sql.Tx, gameID, moverID int64, movestr string, result MoveResult) (*Game, error) {
	game, err := s.GetGameByID(tx, gameID)
	if err != nil {
		return nil, err
	}
	if err := CheckTurn(game, moverID); err != nil {
		return nil, err
	}

	opponent := game.Player1
	if moverID == game.Player1 {
		opponent = game.Player2
	}

	var res sql.Result
	if result.GameOver {
		status := GameDraw
		var winner interface{}
		if !result.Draw {
			if moverID == game.Player1 {
				status = GameWhiteWins
			} else {
				status = GameBlackWins
			}
			winner = moverID
		}
		query := `UPDATE games
			SET fen = ?, states = ?, status = ?, winner = ?, date_ended = CURRENT_TIMESTAMP
			WHERE id = ? AND status = ? AND whomst = ?;`
		s.logQuery(query, result.FEN, result.States, status, winner, gameID, GameActive, moverID)
		res, err = tx.Exec(query, result.FEN, result.States, status, winner, gameID, GameActive, moverID)
	} else {
		query := `UPDATE games SET fen = ?, states = ?, whomst = ?
			WHERE id = ? AND status = ? AND whomst = ?;`
		s.logQuery(query, result.FEN, result.States, opponent, gameID, GameActive, moverID)
		res, err = tx.Exec(query, result.FEN, result.States, opponent, gameID, GameActive, moverID)
	}
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Someone else moved or ended the game first; re-read to report why.
		current, err := s.GetGameByID(tx, gameID)
		if err != nil {
			return nil, err
		}
		if current.Status != GameActive {
			return nil, &StatusError{Status: current.Status}
		}
		return nil, ErrNotYourTurn
	}

	if err := s.appendMove(tx, moverID, gameID, movestr, result.FEN); err != nil {
		return nil, err
	}

	if result.GameOver {
		if err := s.recordResult(tx, moverID, opponent, result.Draw); err != nil {
			return nil, err
		}
	}

	return s.GetGameByID(tx, gameID)
}

// ForfeitGame ends an ACTIVE game with the other player as winner. Either
// player may forfeit at any time; no collaborator call is involved.
func (s *Service) ForfeitGame(tx *sql.Tx, gameID, actorID int64) (*Game, error) {
	game, err := s.GetGameByID(tx, gameID)
	if err != nil {
		return nil, err
	}
	if actorID != game.Player1 && actorID != game.Player2 {
		return nil, ErrNotPlayer
	}
	if game.Status != GameActive {
		return nil, &StatusError{Status: game.Status}
	}

	winner := game.Player1
	status := GameWhiteWins
	if actorID == game.Player1 {
		winner = game.Player2
		status = GameBlackWins
	}

	query := `UPDATE games SET status = ?, winner = ?, date_ended = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?;`
	s.logQuery(query, status, winner, gameID, GameActive)
	res, err := tx.Exec(query, status, winner, gameID, GameActive)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		current, err := s.GetGameByID(tx, gameID)
		if err != nil {
			return nil, err
		}
		return nil, &StatusError{Status: current.Status}
	}

	if err := s.recordResult(tx, winner, actorID, false); err != nil {
		return nil, err
	}

	return s.GetGameByID(tx, gameID)
}
