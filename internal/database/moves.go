package database

import "database/sql"

const moveColumns = `id, user_id, game_id, date_played, movestr, fen`

func scanMove(row interface{ Scan(...interface{}) error }) (*Move, error) {
	move := &Move{}
	err := row.Scan(
		&move.ID,
		&move.UserID,
		&move.GameID,
		&move.DatePlayed,
		&move.Movestr,
		&move.FEN,
	)
	if err != nil {
		return nil, err
	}
	return move, nil
}

// appendMove writes one audit row. Moves are append-only; nothing in the
// codebase updates or deletes them.
func (s *Service) appendMove(tx *sql.Tx, userID, gameID int64, movestr, fen string) error {
	query := `INSERT INTO moves (user_id, game_id, movestr, fen) VALUES (?, ?, ?, ?);`
	s.logQuery(query, userID, gameID, movestr, fen)
	_, err := tx.Exec(query, userID, gameID, movestr, fen)
	return err
}

// ListMoves returns moves matching the filter, ordered by date_played (then
// id, so same-second plies replay in submission order) and paginated.
func (s *Service) ListMoves(db DBorTx, f MoveFilter, opts ListOptions) ([]*Move, error) {
	suffix, args, err := buildListQuery(f, opts, "date_played", "id", map[string]string{
		"id":          "id",
		"date_played": "date_played",
	})
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + moveColumns + ` FROM moves` + suffix + `;`
	s.logQuery(query, args...)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var moves []*Move
	for rows.Next() {
		move, err := scanMove(rows)
		if err != nil {
			return nil, err
		}
		moves = append(moves, move)
	}
	return moves, rows.Err()
}
