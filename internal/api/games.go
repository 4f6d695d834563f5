package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jfenske/chessmate/internal/database"
	"github.com/jfenske/chessmate/internal/realtime"
	"github.com/jfenske/chessmate/internal/workers"
)

type movePayload struct {
	Move string `json:"move" validate:"required"`
}

// handleListGames returns games matching the given filters. Games are public:
// any authenticated user may browse them.
func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	var filter database.GameFilter
	for name, dst := range map[string]**int64{
		"game_id":       &filter.ID,
		"invitation_id": &filter.InvitationID,
		"player_1":      &filter.Player1,
		"player_2":      &filter.Player2,
		"whomst":        &filter.Whomst,
		"winner":        &filter.Winner,
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

	games, err := s.db.ListGames(s.db.DB(), filter, opts)
	if err != nil {
		if errors.Is(err, database.ErrBadOrderColumn) {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("could not list games"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"games": toGameResponseList(games)})
}

// handleGetGame returns a single game by id.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, err := gamePathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	game, err := s.db.GetGameByID(s.db.DB(), gameID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.errorJSON(w, errors.New("invalid game id"), http.StatusNotFound)
			return
		}
		s.errorJSON(w, errors.New("could not retrieve game"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"game": toGameResponse(game)})
}

func gamePathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "gameID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid game id %q", raw)
	}
	return id, nil
}

// gameActionError maps store errors from a move or forfeit to the client
// response.
func (s *Server) gameActionError(w http.ResponseWriter, err error, gameID, actorID int64) {
	var statusErr *database.StatusError
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.errorJSON(w, errors.New("invalid game id"), http.StatusNotFound)
	case errors.Is(err, database.ErrNotPlayer):
		s.errorJSON(w, fmt.Errorf("user '%d' not a player in game '%d'", actorID, gameID), http.StatusForbidden)
	case errors.Is(err, database.ErrNotYourTurn):
		s.errorJSON(w, fmt.Errorf("it is not the turn of user with id '%d'", actorID), http.StatusBadRequest)
	case errors.As(err, &statusErr):
		s.errorJSON(w, fmt.Errorf("game with ID '%d' %s", gameID, statusErr.Error()), http.StatusBadRequest)
	default:
		s.errorJSON(w, errors.New("could not update game"), http.StatusInternalServerError)
	}
}

// handleMove submits one move. The move-validation collaborator is consulted
// outside any transaction; its verdict is then committed by a conditional
// update that re-asserts it is still the mover's turn. A rejected move costs
// nothing: no state changes and the turn does not pass.
func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	gameID, err := gamePathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var payload movePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	if err := validateStruct(&payload); err != nil {
		s.errorJSON(w, err, http.StatusUnprocessableEntity)
		return
	}

	game, err := s.db.GetGameByID(s.db.DB(), gameID)
	if err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}
	// Fail fast before the collaborator round trip. ApplyMove re-checks under
	// the transaction, so this is an optimization, not the guard.
	if err := database.CheckTurn(game, claims.UserID); err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}

	verdict, err := s.workers.DoMove(r.Context(), game.FEN, payload.Move, game.States)
	if err != nil {
		var clientErr *workers.ClientError
		if errors.As(err, &clientErr) {
			s.errorJSON(w, errors.New(clientErr.Message), http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("move validation failed"), http.StatusInternalServerError)
		return
	}

	over, draw := verdict.GameOver()
	result := database.MoveResult{
		FEN:      verdict.FEN,
		States:   string(verdict.States),
		GameOver: over,
		Draw:     draw,
	}

	var updated *database.Game
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var txErr error
		updated, txErr = s.db.ApplyMove(tx, gameID, claims.UserID, payload.Move, result)
		return txErr
	})
	if err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}

	opponent := updated.Player1
	if claims.UserID == updated.Player1 {
		opponent = updated.Player2
	}
	eventType := realtime.EventGameMove
	if over {
		eventType = realtime.EventGameOver
	}
	s.broker.NotifyUser(opponent, realtime.Message{
		Type:    eventType,
		Payload: toGameResponse(updated),
	})

	s.writeJSON(w, http.StatusOK, envelope{"game": toGameResponse(updated)})
}

// handleForfeit ends an active game with the requester as the loser. Either
// player may forfeit, whoever's turn it is.
func (s *Server) handleForfeit(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	gameID, err := gamePathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var game *database.Game
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var txErr error
		game, txErr = s.db.ForfeitGame(tx, gameID, claims.UserID)
		return txErr
	})
	if err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}

	opponent := game.Player1
	if claims.UserID == game.Player1 {
		opponent = game.Player2
	}
	s.broker.NotifyUser(opponent, realtime.Message{
		Type:    realtime.EventGameOver,
		Payload: toGameResponse(game),
	})

	s.writeJSON(w, http.StatusOK, envelope{"game": toGameResponse(game)})
}

// handleSuggestMove asks the collaborator for a move suggestion in the
// requester's current position. Advisory only; nothing is committed, and only
// the player to move may ask.
func (s *Server) handleSuggestMove(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	gameID, err := gamePathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	game, err := s.db.GetGameByID(s.db.DB(), gameID)
	if err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}
	if err := database.CheckTurn(game, claims.UserID); err != nil {
		s.gameActionError(w, err, gameID, claims.UserID)
		return
	}

	move, err := s.workers.SuggestMove(r.Context(), game.FEN, game.States)
	if err != nil {
		var clientErr *workers.ClientError
		if errors.As(err, &clientErr) {
			s.errorJSON(w, errors.New(clientErr.Message), http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("move suggestion failed"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"move": move})
}
