package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/jfenske/chessmate/internal/config"
	"github.com/jfenske/chessmate/internal/database"
	"github.com/jfenske/chessmate/internal/email"
	"github.com/jfenske/chessmate/internal/realtime"
	"github.com/jfenske/chessmate/internal/workers"
)

// MoveValidator is the slice of the workers client the API needs. Taking an
// interface here lets handler tests stand in a fake collaborator.
type MoveValidator interface {
	DoMove(ctx context.Context, fen, move, states string) (*workers.MoveResponse, error)
	SuggestMove(ctx context.Context, fen, states string) (string, error)
}

// Server is the main struct for the API. It holds all dependencies required
// by the HTTP handlers; everything is injected once at startup and treated as
// read-only afterwards.
type Server struct {
	config  *config.Config
	db      *database.Service
	workers MoveValidator
	broker  *realtime.Broker
	email   *email.Service // nil when SMTP is not configured
}

// NewServer creates a new instance of the Server with its dependencies wired
// in. `mail` may be nil; challenge emails are then skipped.
func NewServer(cfg *config.Config, db *database.Service, mv MoveValidator, broker *realtime.Broker, mail *email.Service) *Server {
	return &Server{
		config:  cfg,
		db:      db,
		workers: mv,
		broker:  broker,
		email:   mail,
	}
}

// envelope is a custom map type used for creating structured JSON responses.
type envelope map[string]interface{}

// writeJSON is a helper method for sending JSON responses. It centralizes
// response logic so every endpoint answers in the same shape.
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}, headers ...http.Header) {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		// We can't trust our own JSON error format at this point.
		http.Error(w, "Internal Server Error: Failed to marshal JSON", http.StatusInternalServerError)
		return
	}

	if len(headers) > 0 {
		for key, value := range headers[0] {
			w.Header()[key] = value
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

// errorJSON sends a standardized `{"error": "..."}` response. Defaults to a
// 500 if no status is supplied.
func (s *Server) errorJSON(w http.ResponseWriter, err error, status ...int) {
	statusCode := http.StatusInternalServerError
	if len(status) > 0 {
		statusCode = status[0]
	}
	s.writeJSON(w, statusCode, envelope{"error": err.Error()})
}
