package workers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDoMoveSuccess(t *testing.T) {
	var gotBody moveRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/move" {
			t.Errorf("path = %q, want /move", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "MOVEOK",
			"fen":    "new-fen",
			"states": map[string]string{"castling": "KQkq"},
		})
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	resp, err := client.DoMove(context.Background(), "old-fen", "e2e4", `{}`)
	if err != nil {
		t.Fatalf("do move: %v", err)
	}

	if gotBody.FEN != "old-fen" || gotBody.Move != "e2e4" {
		t.Fatalf("request body: %+v", gotBody)
	}
	if resp.Status != "MOVEOK" || resp.FEN != "new-fen" {
		t.Fatalf("response: %+v", resp)
	}
	if over, _ := resp.GameOver(); over {
		t.Fatal("MOVEOK must not end the game")
	}
}

func TestDoMoveClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid move"})
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	_, err := client.DoMove(context.Background(), "fen", "zz99", `{}`)

	var clientErr *ClientError
	if !errors.As(err, &clientErr) {
		t.Fatalf("got %v, want ClientError", err)
	}
	if clientErr.Message != "invalid move" {
		t.Fatalf("message = %q, want the service's verbatim message", clientErr.Message)
	}
}

func TestDoMoveServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	_, err := client.DoMove(context.Background(), "fen", "e2e4", `{}`)

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %v, want ServerError", err)
	}
}

func TestDoMoveMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	_, err := client.DoMove(context.Background(), "fen", "e2e4", `{}`)

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %v, want ServerError", err)
	}
}

func TestDoMoveTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := New(server.URL, 10*time.Millisecond)
	_, err := client.DoMove(context.Background(), "fen", "e2e4", `{}`)

	var serverErr *ServerError
	if !errors.As(err, &serverErr) {
		t.Fatalf("got %v, want ServerError", err)
	}
}

func TestGameOverClassification(t *testing.T) {
	tests := []struct {
		status   string
		wantOver bool
		wantDraw bool
	}{
		{StatusCheckmate, true, false},
		{StatusStalemate, true, true},
		{StatusDraw, true, true},
		{"MOVEOK", false, false},
		{"ACTIVE", false, false},
		{"CHECK", false, false},
	}
	for _, tt := range tests {
		resp := &MoveResponse{Status: tt.status}
		over, draw := resp.GameOver()
		if over != tt.wantOver || draw != tt.wantDraw {
			t.Errorf("%s: over=%v draw=%v, want over=%v draw=%v", tt.status, over, draw, tt.wantOver, tt.wantDraw)
		}
	}
}

func TestSuggestMove(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/suggest" {
			t.Errorf("path = %q, want /suggest", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"move": "e2e4"})
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	move, err := client.SuggestMove(context.Background(), "fen", `{}`)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if move != "e2e4" {
		t.Fatalf("move = %q, want e2e4", move)
	}
}
