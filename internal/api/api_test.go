package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jfenske/chessmate/internal/config"
	"github.com/jfenske/chessmate/internal/database"
	"github.com/jfenske/chessmate/internal/realtime"
	"github.com/jfenske/chessmate/internal/workers"
)

const testPassword = "Passw0rd!"

// fakeValidator stands in for the workers service. Each test sets the
// behavior it needs.
type fakeValidator struct {
	doMove  func(ctx context.Context, fen, move, states string) (*workers.MoveResponse, error)
	suggest func(ctx context.Context, fen, states string) (string, error)
}

func (f *fakeValidator) DoMove(ctx context.Context, fen, move, states string) (*workers.MoveResponse, error) {
	if f.doMove == nil {
		return &workers.MoveResponse{Status: "MOVEOK", FEN: fen, States: json.RawMessage(states)}, nil
	}
	return f.doMove(ctx, fen, move, states)
}

func (f *fakeValidator) SuggestMove(ctx context.Context, fen, states string) (string, error) {
	if f.suggest == nil {
		return "e2e4", nil
	}
	return f.suggest(ctx, fen, states)
}

// newTestServer wires a full server against an in-memory database and a fake
// move validator, and returns the routed handler.
func newTestServer(t *testing.T) (http.Handler, *fakeValidator) {
	t.Helper()

	frontend := "http://localhost:3000"
	parsed, err := url.Parse(frontend)
	if err != nil {
		t.Fatalf("parse frontend url: %v", err)
	}
	cfg := &config.Config{
		AppName:           "chessmate-test",
		JwtSecret:         "test-secret",
		JwtAlgo:           "HS256",
		JwtTTL:            time.Hour,
		FrontendURL:       frontend,
		ParsedFrontendURL: parsed,
	}

	db, err := database.NewService(":memory:", false)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.InitSchema(); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	fake := &fakeValidator{}
	server := NewServer(cfg, db, fake, realtime.NewBroker(), nil)

	router := chi.NewRouter()
	server.RegisterRoutes(router)
	return router, fake
}

// doRequest performs one request against the handler and decodes the JSON
// body, if any, into a generic map.
func doRequest(t *testing.T, h http.Handler, method, path, token string, payload interface{}) (int, map[string]interface{}) {
	t.Helper()

	var body *bytes.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	} else {
		body = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, decoded
}

// signupAndLogin registers a user and returns their id and session token.
func signupAndLogin(t *testing.T, h http.Handler, name string) (int64, string) {
	t.Helper()

	status, body := doRequest(t, h, http.MethodPost, "/signup", "", map[string]string{
		"name":     name,
		"email":    name + "@example.com",
		"password": testPassword,
	})
	if status != http.StatusCreated {
		t.Fatalf("signup %s: status %d, body %v", name, status, body)
	}
	user, ok := body["user"].(map[string]interface{})
	if !ok {
		t.Fatalf("signup %s: no user in response %v", name, body)
	}
	id := int64(user["id"].(float64))

	status, body = doRequest(t, h, http.MethodPost, "/login", "", map[string]string{
		"name":     name,
		"password": testPassword,
	})
	if status != http.StatusOK {
		t.Fatalf("login %s: status %d, body %v", name, status, body)
	}
	token, ok := body["jwt"].(string)
	if !ok || token == "" {
		t.Fatalf("login %s: no jwt in response %v", name, body)
	}
	return id, token
}

func errorDetail(t *testing.T, body map[string]interface{}) string {
	t.Helper()
	detail, ok := body["error"].(string)
	if !ok {
		t.Fatalf("no error detail in response %v", body)
	}
	return detail
}
