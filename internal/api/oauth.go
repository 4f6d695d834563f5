package api

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/jfenske/chessmate/internal/auth"
	"github.com/jfenske/chessmate/internal/database"
)

// googleOAuthConfig is initialized once, on the first OAuth request.
var googleOAuthConfig *oauth2.Config

func (s *Server) initOAuthConfig() {
	googleOAuthConfig = &oauth2.Config{
		ClientID:     s.config.GoogleOauthClientID,
		ClientSecret: s.config.GoogleOauthClientSecret,
		RedirectURL:  s.config.GoogleOauthRedirectURL,
		Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
		Endpoint:     google.Endpoint,
	}
}

// generateStateOauthCookie creates a random state string and sets it as an
// HttpOnly cookie, tying the callback to the browser that started the flow.
func generateStateOauthCookie(w http.ResponseWriter) string {
	b := make([]byte, 16)
	rand.Read(b)
	state := hex.EncodeToString(b)
	cookie := &http.Cookie{
		Name:     "oauthstate",
		Value:    state,
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
	}
	http.SetCookie(w, cookie)
	return state
}

// handleGoogleLogin is the entry point for the OAuth flow. It redirects the
// user to Google's consent page.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.config.OauthConfigured() {
		s.errorJSON(w, errors.New("google sign-in is not configured"), http.StatusNotImplemented)
		return
	}
	if googleOAuthConfig == nil {
		s.initOAuthConfig()
	}
	state := generateStateOauthCookie(w)
	url := googleOAuthConfig.AuthCodeURL(state)
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// handleGoogleCallback is where Google redirects the user back after consent.
// The user is upserted by email: a first-time visitor gets an account with a
// generated name and no password hash, so password login stays closed for
// them and only OAuth works.
func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if !s.config.OauthConfigured() {
		s.errorJSON(w, errors.New("google sign-in is not configured"), http.StatusNotImplemented)
		return
	}
	if googleOAuthConfig == nil {
		s.initOAuthConfig()
	}

	oauthState, err := r.Cookie("oauthstate")
	if err != nil || r.FormValue("state") != oauthState.Value {
		s.errorJSON(w, errors.New("invalid oauth state"), http.StatusUnauthorized)
		return
	}

	code := r.FormValue("code")
	token, err := googleOAuthConfig.Exchange(r.Context(), code)
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to exchange code for token: %w", err), http.StatusInternalServerError)
		return
	}

	oauth2Service, err := googleOauth2.NewService(r.Context(),
		option.WithTokenSource(googleOAuthConfig.TokenSource(context.Background(), token)))
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to create oauth service: %w", err), http.StatusInternalServerError)
		return
	}
	userInfo, err := oauth2Service.Userinfo.Get().Do()
	if err != nil {
		s.errorJSON(w, fmt.Errorf("failed to get user info: %w", err), http.StatusInternalServerError)
		return
	}

	user, err := s.db.GetUserByEmail(s.db.DB(), userInfo.Email)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			s.errorJSON(w, errors.New("internal server error"), http.StatusInternalServerError)
			return
		}
		err = s.db.WriteTx(func(tx *sql.Tx) error {
			name, nameErr := s.availableName(tx, userInfo.Email)
			if nameErr != nil {
				return nameErr
			}
			var createErr error
			user, createErr = s.db.CreateUser(tx, name, userInfo.Email, "")
			return createErr
		})
		if err != nil {
			s.errorJSON(w, errors.New("failed to create user"), http.StatusInternalServerError)
			return
		}
	}
	if user.Deleted {
		s.errorJSON(w, errors.New("user has been deleted"), http.StatusUnauthorized)
		return
	}

	appToken, err := auth.GenerateJWT(user.ID, user.Name, s.config.JwtSecret, s.config.JwtAlgo, s.config.JwtTTL)
	if err != nil {
		s.errorJSON(w, errors.New("could not generate token"), http.StatusInternalServerError)
		return
	}

	redirectURL := fmt.Sprintf("%s/auth/callback?token=%s", s.config.FrontendURL, appToken)
	http.Redirect(w, r, redirectURL, http.StatusTemporaryRedirect)
}

// availableName derives a valid, unused display name from an email address.
// The local part is reduced to the allowed charset and length, then a numeric
// suffix is appended until the name is free.
func (s *Server) availableName(tx *sql.Tx, email string) (string, error) {
	base := email
	if at := strings.IndexByte(base, '@'); at >= 0 {
		base = base[:at]
	}

	var sb strings.Builder
	for _, c := range base {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z',
			c >= '0' && c <= '9', c == '-', c == '_':
			sb.WriteRune(c)
		}
	}
	base = sb.String()
	if len(base) < 3 {
		base = "player" + base
	}
	if len(base) > 15 {
		base = base[:15]
	}

	candidate := base
	for i := 1; i < 10000; i++ {
		_, err := s.db.GetUserByName(tx, candidate)
		if errors.Is(err, database.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		suffix := fmt.Sprintf("%d", i)
		trimmed := base
		if len(trimmed)+len(suffix) > 15 {
			trimmed = trimmed[:15-len(suffix)]
		}
		candidate = trimmed + suffix
	}
	return "", errors.New("could not generate a unique user name")
}
