package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/jfenske/chessmate/internal/database"
)

// handleListUsers returns public user profiles. Browsable by any
// authenticated user; the filter parameters are all optional.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	userID, err := queryInt64(r, "user_id")
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusBadRequest)
		return
	}

	filter := database.UserFilter{
		ID:   userID,
		Name: queryString(r, "user_name"),
	}

	users, err := s.db.ListUsers(s.db.DB(), filter, opts)
	if err != nil {
		if errors.Is(err, database.ErrBadOrderColumn) {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("could not list users"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"users": toUserResponseList(users)})
}

// handleGetSelf returns the authenticated user's own account, email included.
func (s *Server) handleGetSelf(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}

	user, err := s.db.GetUserByID(s.db.DB(), claims.UserID)
	if err != nil {
		s.errorJSON(w, errors.New("could not retrieve user"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"user": toOwnUserResponse(user)})
}

// handleDeleteSelf soft-deletes the authenticated user's account. The row is
// kept so finished games and old invitations still resolve, but the email and
// password hash are gone for good and every outstanding token stops working.
func (s *Server) handleDeleteSelf(w http.ResponseWriter, r *http.Request) {
	claims, err := s.claimsFromContext(r)
	if err != nil {
		s.errorJSON(w, err, http.StatusInternalServerError)
		return
	}

	err = s.db.WriteTx(func(tx *sql.Tx) error {
		deleted, err := s.db.SoftDeleteUser(tx, claims.UserID)
		if err != nil {
			return err
		}
		if !deleted {
			// Already gone; middleware should have caught this.
			return database.ErrUserDeleted
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, database.ErrUserDeleted) {
			s.errorJSON(w, errors.New("user has been deleted"), http.StatusUnauthorized)
			return
		}
		s.errorJSON(w, errors.New("could not delete user"), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
