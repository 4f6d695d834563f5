package api

import (
	"fmt"
	"net/http"
	"testing"
)

func createInvitation(t *testing.T, h http.Handler, token string, toID int64) int64 {
	t.Helper()
	status, body := doRequest(t, h, http.MethodPost, "/invitations", token, map[string]interface{}{
		"to_id": toID,
	})
	if status != http.StatusCreated {
		t.Fatalf("create invitation: status %d, body %v", status, body)
	}
	inv := body["invitation"].(map[string]interface{})
	return int64(inv["id"].(float64))
}

func TestInvitationLifecycle(t *testing.T) {
	h, _ := newTestServer(t)
	aliceID, aliceToken := signupAndLogin(t, h, "alice")
	bobID, bobToken := signupAndLogin(t, h, "bob")

	invID := createInvitation(t, h, aliceToken, bobID)

	// Bob sees it in his inbox.
	status, body := doRequest(t, h, http.MethodGet, fmt.Sprintf("/invitations?to_id=%d", bobID), bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d, body %v", status, body)
	}
	invs := body["invitations"].([]interface{})
	if len(invs) != 1 {
		t.Fatalf("expected 1 invitation, got %d", len(invs))
	}
	inv := invs[0].(map[string]interface{})
	if inv["status"] != "PENDING" || int64(inv["from_id"].(float64)) != aliceID {
		t.Fatalf("unexpected invitation: %v", inv)
	}

	// Bob accepts; a game comes back.
	status, body = doRequest(t, h, http.MethodPut, fmt.Sprintf("/invitations/%d/accept", invID), bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("accept: status %d, body %v", status, body)
	}
	gameID := int64(body["game_id"].(float64))
	if gameID == 0 {
		t.Fatal("expected a game id")
	}

	status, body = doRequest(t, h, http.MethodGet, fmt.Sprintf("/games/%d", gameID), aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("get game: status %d, body %v", status, body)
	}
	game := body["game"].(map[string]interface{})
	if int64(game["player_1"].(float64)) != aliceID || int64(game["player_2"].(float64)) != bobID {
		t.Fatalf("wrong players: %v", game)
	}
	if int64(game["whomst"].(float64)) != aliceID {
		t.Fatalf("sender should move first: %v", game["whomst"])
	}
	if game["player_1_name"] != "alice" || game["player_2_name"] != "bob" {
		t.Fatalf("names not resolved: %v", game)
	}

	// Accepting again is a status conflict, not a second game.
	status, body = doRequest(t, h, http.MethodPut, fmt.Sprintf("/invitations/%d/accept", invID), bobToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("double accept: status %d, body %v", status, body)
	}
	want := fmt.Sprintf("invitation with ID '%d' already has 'ACCEPTED' status", invID)
	if got := errorDetail(t, body); got != want {
		t.Fatalf("detail = %q, want %q", got, want)
	}
}

func TestInvitationDecline(t *testing.T) {
	h, _ := newTestServer(t)
	_, aliceToken := signupAndLogin(t, h, "alice")
	bobID, bobToken := signupAndLogin(t, h, "bob")

	invID := createInvitation(t, h, aliceToken, bobID)

	status, body := doRequest(t, h, http.MethodPut, fmt.Sprintf("/invitations/%d/decline", invID), bobToken, nil)
	if status != http.StatusOK {
		t.Fatalf("decline: status %d, body %v", status, body)
	}
	inv := body["invitation"].(map[string]interface{})
	if inv["status"] != "DECLINED" {
		t.Fatalf("status = %v, want DECLINED", inv["status"])
	}
	if inv["date_answered"] == nil {
		t.Fatal("declined invitation should carry an answer date")
	}
}

func TestInvitationSelfInvite(t *testing.T) {
	h, _ := newTestServer(t)
	aliceID, aliceToken := signupAndLogin(t, h, "alice")

	status, body := doRequest(t, h, http.MethodPost, "/invitations", aliceToken, map[string]interface{}{
		"to_id": aliceID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	if got := errorDetail(t, body); got != "cannot invite self" {
		t.Fatalf("detail = %q", got)
	}
}

func TestInvitationUnknownRecipient(t *testing.T) {
	h, _ := newTestServer(t)
	_, aliceToken := signupAndLogin(t, h, "alice")

	status, body := doRequest(t, h, http.MethodPost, "/invitations", aliceToken, map[string]interface{}{
		"to_id": 999,
	})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if got := errorDetail(t, body); got != "user with id '999' does not exist" {
		t.Fatalf("detail = %q", got)
	}
}

func TestInvitationDeletedRecipient(t *testing.T) {
	h, _ := newTestServer(t)
	aliceID, aliceToken := signupAndLogin(t, h, "alice")
	bobID, bobToken := signupAndLogin(t, h, "bob")

	status, _ := doRequest(t, h, http.MethodDelete, "/users/self", bobToken, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete bob: status = %d, want 204", status)
	}

	// A deleted recipient is reported distinctly from a missing one.
	status, body := doRequest(t, h, http.MethodPost, "/invitations", aliceToken, map[string]interface{}{
		"to_id": bobID,
	})
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
	want := fmt.Sprintf("user '%d' has been deleted", bobID)
	if got := errorDetail(t, body); got != want {
		t.Fatalf("detail = %q, want %q", got, want)
	}

	// And no invitation row was created.
	status, body = doRequest(t, h, http.MethodGet, fmt.Sprintf("/invitations?from_id=%d", aliceID), aliceToken, nil)
	if status != http.StatusOK {
		t.Fatalf("list: status %d, body %v", status, body)
	}
	if invs, _ := body["invitations"].([]interface{}); len(invs) != 0 {
		t.Fatalf("expected no invitations, got %v", invs)
	}
}

func TestInvitationListRestriction(t *testing.T) {
	h, _ := newTestServer(t)
	_, aliceToken := signupAndLogin(t, h, "alice")
	bobID, _ := signupAndLogin(t, h, "bob")

	// Alice may not browse Bob's inbox.
	status, _ := doRequest(t, h, http.MethodGet, fmt.Sprintf("/invitations?to_id=%d", bobID), aliceToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("foreign inbox: status = %d, want 400", status)
	}

	// Nor list without naming a side at all.
	status, _ = doRequest(t, h, http.MethodGet, "/invitations", aliceToken, nil)
	if status != http.StatusBadRequest {
		t.Fatalf("no filter: status = %d, want 400", status)
	}
}

func TestInvitationWrongActorResponses(t *testing.T) {
	h, _ := newTestServer(t)
	aliceID, aliceToken := signupAndLogin(t, h, "alice")
	bobID, bobToken := signupAndLogin(t, h, "bob")

	invID := createInvitation(t, h, aliceToken, bobID)

	// The sender cannot accept their own invitation.
	status, body := doRequest(t, h, http.MethodPut, fmt.Sprintf("/invitations/%d/accept", invID), aliceToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("sender accept: status %d, body %v", status, body)
	}
	want := fmt.Sprintf("invitation with ID '%d' not addressed to user with ID '%d'", invID, aliceID)
	if got := errorDetail(t, body); got != want {
		t.Fatalf("detail = %q, want %q", got, want)
	}

	// The recipient cannot cancel it.
	status, body = doRequest(t, h, http.MethodPut, fmt.Sprintf("/invitations/%d/cancel", invID), bobToken, nil)
	if status != http.StatusForbidden {
		t.Fatalf("recipient cancel: status %d, body %v", status, body)
	}
	want = fmt.Sprintf("invitation with ID '%d' not sent by user with ID '%d'", invID, bobID)
	if got := errorDetail(t, body); got != want {
		t.Fatalf("detail = %q, want %q", got, want)
	}

	// Unknown invitation.
	status, body = doRequest(t, h, http.MethodPut, "/invitations/999/accept", bobToken, nil)
	if status != http.StatusNotFound {
		t.Fatalf("unknown invitation: status %d, body %v", status, body)
	}
	if got := errorDetail(t, body); got != "invitation with ID '999' does not exist" {
		t.Fatalf("detail = %q", got)
	}
}
