package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jfenske/chessmate/internal/auth"
	"github.com/jfenske/chessmate/internal/database"
)

// signupPayload defines the JSON body expected for account creation.
type signupPayload struct {
	Name     string `json:"name" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,password"`
}

// loginPayload defines the JSON body expected for login.
type loginPayload struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleSignup creates a new user account. Duplicate names or emails are
// detected solely by the store's uniqueness constraint, so there is no
// check-then-insert window for two concurrent signups to slip through.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}

	if err := validateStruct(&payload); err != nil {
		s.errorJSON(w, err, http.StatusUnprocessableEntity)
		return
	}

	hashedPassword, err := auth.HashPassword(payload.Password)
	if err != nil {
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	var user *database.User
	err = s.db.WriteTx(func(tx *sql.Tx) error {
		var createErr error
		user, createErr = s.db.CreateUser(tx, payload.Name, payload.Email, hashedPassword)
		return createErr
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			s.errorJSON(w, err, http.StatusBadRequest)
			return
		}
		s.errorJSON(w, errors.New("could not create user"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusCreated, envelope{"user": toOwnUserResponse(user)})
}

// handleLogin authenticates a user by name and password and returns a signed
// session token.
//
// Every failure path (unknown name, soft-deleted account, passwordless OAuth
// account, wrong password) produces the identical response, so callers learn
// nothing about which part was wrong.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.errorJSON(w, errors.New("bad request: could not decode JSON"), http.StatusBadRequest)
		return
	}
	if payload.Name == "" || payload.Password == "" {
		s.errorJSON(w, errors.New("name and password are required"), http.StatusBadRequest)
		return
	}

	invalid := errors.New("invalid credentials")

	user, err := s.db.GetUserByName(s.db.DB(), payload.Name)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			s.errorJSON(w, invalid, http.StatusUnauthorized)
			return
		}
		s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
		return
	}

	if user.Deleted || !user.PasswordHash.Valid ||
		!auth.CheckPasswordHash(payload.Password, user.PasswordHash.String) {
		s.errorJSON(w, invalid, http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(user.ID, user.Name, s.config.JwtSecret, s.config.JwtAlgo, s.config.JwtTTL)
	if err != nil {
		s.errorJSON(w, errors.New("could not generate token"), http.StatusInternalServerError)
		return
	}

	s.writeJSON(w, http.StatusOK, envelope{"jwt": token})
}
