// Package workers is the HTTP client for the external chess-workers service,
// which owns move legality and outcome detection. This side never implements
// chess rules; it only forwards positions and translates the collaborator's
// client/server error split into typed errors.
package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ClientError is a 4xx from the workers service: the move itself was bad
// (illegal, leaves the mover in check, game already concluded). The message
// is user-facing and the game state is unchanged.
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

// ServerError is everything else that can go wrong talking to the workers
// service: 5xx responses, malformed response bodies, transport failures,
// timeouts. Opaque to the end user; the game state is unchanged.
type ServerError struct {
	Err error
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("workers service failure: %v", e.Err)
}

func (e *ServerError) Unwrap() error {
	return e.Err
}

// MoveResponse is the workers service's verdict on a move: the status of the
// game after it, the resulting position, and the updated auxiliary engine
// state, which we store and pass back verbatim on the next call.
type MoveResponse struct {
	Status string          `json:"status"`
	FEN    string          `json:"fen"`
	States json.RawMessage `json:"states"`
}

// Workers statuses this side understands. Anything not terminal keeps the
// game active.
const (
	StatusCheckmate = "CHECKMATE"
	StatusStalemate = "STALEMATE"
	StatusDraw      = "DRAW"
)

// GameOver reports whether the move ended the game, and if so whether it was
// drawn. The exact outcome taxonomy belongs to the workers service; this is
// the single place its statuses are interpreted.
func (r *MoveResponse) GameOver() (over, draw bool) {
	switch r.Status {
	case StatusCheckmate:
		return true, false
	case StatusStalemate, StatusDraw:
		return true, true
	default:
		return false, false
	}
}

// Client talks to one workers service instance with a bounded timeout.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a workers client. The timeout bounds every call, including a
// hung collaborator; a timeout surfaces as a ServerError.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type moveRequest struct {
	FEN    string          `json:"fen"`
	Move   string          `json:"move"`
	States json.RawMessage `json:"states"`
}

type suggestRequest struct {
	FEN    string          `json:"fen"`
	States json.RawMessage `json:"states"`
}

type suggestResponse struct {
	Move string `json:"move"`
}

type errorResponse struct {
	Message string `json:"message"`
}

// DoMove asks the workers service to validate and apply one move. The caller
// must not hold a store transaction open across this call.
func (c *Client) DoMove(ctx context.Context, fen, move, states string) (*MoveResponse, error) {
	body, err := c.post(ctx, "/move", moveRequest{FEN: fen, Move: move, States: json.RawMessage(states)})
	if err != nil {
		return nil, err
	}

	var resp MoveResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &ServerError{Err: fmt.Errorf("malformed workers response: %w", err)}
	}
	if resp.Status == "" || resp.FEN == "" {
		return nil, &ServerError{Err: fmt.Errorf("incomplete workers response: %s", body)}
	}
	return &resp, nil
}

// SuggestMove asks the workers service for an advisory move in the given
// position. Purely informational; no game state changes.
func (c *Client) SuggestMove(ctx context.Context, fen, states string) (string, error) {
	body, err := c.post(ctx, "/suggest", suggestRequest{FEN: fen, States: json.RawMessage(states)})
	if err != nil {
		return "", err
	}

	var resp suggestResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ServerError{Err: fmt.Errorf("malformed workers response: %w", err)}
	}
	if resp.Move == "" {
		return "", &ServerError{Err: fmt.Errorf("incomplete workers response: %s", body)}
	}
	return resp.Move, nil
}

// post sends one JSON request and sorts the response into success (body
// returned), ClientError (4xx with a message) or ServerError (the rest).
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, &ServerError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, &ServerError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, &ServerError{Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &ServerError{Err: err}
	}

	switch {
	case res.StatusCode == http.StatusOK:
		return body, nil
	case res.StatusCode >= 400 && res.StatusCode < 500:
		var er errorResponse
		if err := json.Unmarshal(body, &er); err != nil || er.Message == "" {
			return nil, &ServerError{Err: fmt.Errorf("workers returned %d with unreadable body", res.StatusCode)}
		}
		return nil, &ClientError{Message: er.Message}
	default:
		return nil, &ServerError{Err: fmt.Errorf("workers returned status %d", res.StatusCode)}
	}
}
