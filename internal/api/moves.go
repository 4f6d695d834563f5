package api

import (
	"errors"
	"net/http"

	"github.com/jfenske/chessmate/internal/database"
)

// handleListMoves returns move audit entries matching the given filters,
// in play order. Moves are public, like the games they belong to.
func (s *Server) handleListMoves(w http.ResponseWriter, r *http.Request) {
	var filter database.MoveFilter
	for name, dst := range map[string]**int64{
		"move_id": &filter.ID,
		"user_id": &filter.UserID,
		"game_id": &filter.GameID,
	} {
		v, err := queryInt64(r, name)
		if err != nil {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		*dst = v
	}

	opts, err := listOptions(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	moves, err := s.db.ListMoves(s.db.DB(), filter, opts)
	if err != nil {
		if errors.Is(err, database.ErrBadOrderColumn) {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("could not list moves"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"moves": toMoveResponseList(moves)})
}
