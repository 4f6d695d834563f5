package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/jfenske/chessmate/internal/database"
	"github.com/jfenske/chessmate/internal/realtime"
)

type createInvitationPayload struct {
	ToID     int64  `json:"to_id" validate:"required"`
	GameType string `json:"game_type" validate:"omitempty,oneof=CHESS"`
}

// handleCreateInvitation sends a game invitation to another user. The
// recipient must exist and not be soft-deleted at send time; their liveness is
// re-checked when they answer.
func (s *Server) handleCreateInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}

	var payload createInvitationPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	if err := validateStruct(&payload); err != nil {
		s.errorJSON(w, err, http.StatusUnprocessableEntity)
		return
	}
	if payload.GameType == "" {
		payload.GameType = database.GameTypeChess
	}

	if payload.ToID == claims.UserID {
		s.errorJSON(w, errors.New("cannot invite self"), http.StatusBadRequest)
		return
	}

	recipient, err := s.db.GetUserByID(s.db.DB(), payload.ToID)
	if err != nil {
		s.errorJSON(w, fmt.Errorf("user with id '%d' does not exist", payload.ToID), http.StatusNotFound)
		return
	}
	// A soft-deleted recipient is reported distinctly from a missing one.
	if recipient.Deleted {
		s.errorJSON(w, fmt.Errorf("user '%d' has been deleted", payload.ToID), http.StatusBadRequest)
		return
	}

	var invitation *database.Invitation
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var createErr error
		invitation, createErr = s.db.CreateInvitation(tx, claims.UserID, payload.ToID, payload.GameType)
		return createErr
	})
	if err != nil {
		s.errorJSON(w, errors.New("could not create invitation"), http.StatusInternalServerError)
		return
	}

	s.broker.NotifyUser(recipient.ID, realtime.Message{
		Type:    realtime.EventInvitationReceived,
		Payload: toInvitationResponse(invitation),
	})

	if s.email != nil && recipient.Email.Valid {
		// Best-effort: the invitation is committed either way.
		go func(addr, challenger string) {
			if err := s.email.SendChallengeEmail(addr, challenger, s.config.FrontendURL); err != nil {
				log.Printf("WARN: could not send challenge email: %v", err)
			}
		}(recipient.Email.String, claims.UserName)
	}

	s.writeJSON(w, http.StatusCreated, envelope{"invitation": toInvitationResponse(invitation)})
}

// handleListInvitations returns invitations the requester sent or received.
// At least one of to_id/from_id must be supplied and must name the requester;
// users cannot browse each other's invitations.
func (s *Server) handleListInvitations(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}

	toID, err := queryInt64(r, "to_id")
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}
	fromID, err := queryInt64(r, "from_id")
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	requesterListed := (toID != nil && *toID == claims.UserID) ||
		(fromID != nil && *fromID == claims.UserID)
	if !requesterListed {
		s.errorJSON(w, errors.New("'to_id' or 'from_id' must match requester's id"), http.StatusBadRequest)
		return
	}

	opts, err := listOptions(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	invitationID, err := queryInt64(r, "invitation_id")
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	filter := database.InvitationFilter{
		ID:     invitationID,
		FromID: fromID,
		ToID:   toID,
		Status: queryString(r, "status"),
	}

	invitations, err := s.db.ListInvitations(s.db.DB(), filter, opts)
	if err != nil {
		if errors.Is(err, database.ErrBadOrderColumn) {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("could not list invitations"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"invitations": toInvitationResponseList(invitations)})
}

// invitationPathID parses the {invitationID} URL parameter.
func invitationPathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "invitationID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid invitation id %q", raw)
	}
	return id, nil
}

// invitationTransitionError maps store errors from an invitation transition to
// the response the client sees, with the entity IDs spelled out.
func (s *Server) invitationTransitionError(w http.ResponseWriter, err error, invitationID, actorID int64) {
	var statusErr *database.StatusError
	switch {
	case errors.Is(err, database.ErrNotFound):
		s.errorJSON(w, fmt.Errorf("invitation with ID '%d' does not exist", invitationID), http.StatusNotFound)
	case errors.Is(err, database.ErrNotAddressee):
		s.errorJSON(w, fmt.Errorf("invitation with ID '%d' not addressed to user with ID '%d'", invitationID, actorID), http.StatusForbidden)
	case errors.Is(err, database.ErrNotSender):
		s.errorJSON(w, fmt.Errorf("invitation with ID '%d' not sent by user with ID '%d'", invitationID, actorID), http.StatusForbidden)
	case errors.Is(err, database.ErrUserDeleted):
		s.errorJSON(w, errors.New("user has been deleted"), http.StatusNotFound)
	case errors.As(err, &statusErr):
		s.errorJSON(w, fmt.Errorf("invitation with ID '%d' %s", invitationID, statusErr.Error()), http.StatusBadRequest)
	default:
		s.errorJSON(w, errors.New("could not update invitation"), http.StatusInternalServerError)
	}
}

// handleAcceptInvitation accepts a pending invitation addressed to the
// requester and starts the game. Responds with the new game's id.
func (s *Server) handleAcceptInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	invitationID, err := invitationPathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var game *database.Game
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var txErr error
		game, txErr = s.db.AcceptInvitation(tx, invitationID, claims.UserID)
		return txErr
	})
	if err != nil {
		s.invitationTransitionError(w, err, invitationID, claims.UserID)
		return
	}

	s.broker.NotifyUser(game.Player1, realtime.Message{
		Type:    realtime.EventInvitationAnswered,
		Payload: toGameResponse(game),
	})

	s.writeJSON(w, http.StatusOK, envelope{"game_id": game.ID})
}

// handleDeclineInvitation declines a pending invitation addressed to the
// requester.
func (s *Server) handleDeclineInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	invitationID, err := invitationPathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var invitation *database.Invitation
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var txErr error
		invitation, txErr = s.db.DeclineInvitation(tx, invitationID, claims.UserID)
		return txErr
	})
	if err != nil {
		s.invitationTransitionError(w, err, invitationID, claims.UserID)
		return
	}

	s.broker.NotifyUser(invitation.FromID, realtime.Message{
		Type:    realtime.EventInvitationAnswered,
		Payload: toInvitationResponse(invitation),
	})

	s.writeJSON(w, http.StatusOK, envelope{"invitation": toInvitationResponse(invitation)})
}

// handleCancelInvitation withdraws a pending invitation the requester sent.
func (s *Server) handleCancelInvitation(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}
	invitationID, err := invitationPathID(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	var invitation *database.Invitation
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var txErr error
		invitation, txErr = s.db.CancelInvitation(tx, invitationID, claims.UserID)
		return txErr
	})
	if err != nil {
		s.invitationTransitionError(w, err, invitationID, claims.UserID)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"invitation": toInvitationResponse(invitation)})
}
