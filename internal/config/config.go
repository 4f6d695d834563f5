package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the application. By centralizing these
// settings, we make the application easier to manage and deploy. The struct is
// built once at startup and passed by reference into every component
// constructor; it is never mutated afterwards.
type Config struct {
	// --- Server ---
	AppName  string
	AppHost  string
	AppPort  int
	LogLevel string

	// --- Storage ---
	SqlitePath string // path to the sqlite database file, or ":memory:"
	SQLEcho    bool   // echo every statement to the log (debugging aid)

	// --- Security ---
	JwtSecret  string
	JwtAlgo    string        // HS256, HS384 or HS512
	JwtTTLDays int           // token lifetime in days
	JwtTTL     time.Duration // derived from JwtTTLDays

	// --- Chess workers service (external move validation) ---
	WorkersURL     string
	WorkersTimeout time.Duration

	// --- Frontend ---
	FrontendURL       string
	ParsedFrontendURL *url.URL

	// --- Email (SMTP, optional) ---
	SmtpHost   string
	SmtpPort   int
	SmtpUser   string
	SmtpPass   string
	SmtpSender string

	// --- Google OAuth 2.0 (optional) ---
	GoogleOauthClientID     string
	GoogleOauthClientSecret string
	GoogleOauthRedirectURL  string
}

// New creates a new Config instance by loading values from environment variables.
// It validates that critical variables are present and will return an error if
// the configuration is invalid, preventing the server from starting.
func New() (*Config, error) {
	smtpPort, _ := strconv.Atoi(os.Getenv("SMTP_PORT"))

	cfg := &Config{
		AppName:    os.Getenv("APP_NAME"),
		AppHost:    os.Getenv("APP_HOST"),
		LogLevel:   strings.ToLower(os.Getenv("LOG_LEVEL")),
		SqlitePath: os.Getenv("SQLITE_PATH"),
		SQLEcho:    os.Getenv("SQL_ECHO") == "TRUE",

		JwtSecret: os.Getenv("JWT_SECRET"),
		JwtAlgo:   os.Getenv("JWT_ALGO"),

		WorkersURL:  os.Getenv("WORKERS_URL"),
		FrontendURL: os.Getenv("FRONTEND_URL"),

		SmtpHost:   os.Getenv("SMTP_HOST"),
		SmtpPort:   smtpPort,
		SmtpUser:   os.Getenv("SMTP_USER"),
		SmtpPass:   os.Getenv("SMTP_PASS"),
		SmtpSender: os.Getenv("SMTP_SENDER"),

		GoogleOauthClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		GoogleOauthClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		GoogleOauthRedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),
	}

	// --- Provide sensible defaults for non-critical values ---
	if cfg.AppName == "" {
		cfg.AppName = "chessmate-api-dev"
	}
	if cfg.AppHost == "" {
		cfg.AppHost = "localhost"
	}
	cfg.AppPort = 8000
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		cfg.AppPort = port
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.SqlitePath == "" {
		cfg.SqlitePath = ":memory:"
	}
	if cfg.JwtAlgo == "" {
		cfg.JwtAlgo = "HS256"
	}
	cfg.JwtTTLDays = 7
	if v := os.Getenv("JWT_TTL_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days <= 0 {
			return nil, fmt.Errorf("invalid JWT_TTL_DAYS %q", v)
		}
		cfg.JwtTTLDays = days
	}
	cfg.JwtTTL = time.Duration(cfg.JwtTTLDays) * 24 * time.Hour

	if cfg.WorkersURL == "" {
		cfg.WorkersURL = "http://localhost:8001"
	}
	cfg.WorkersTimeout = 10 * time.Second
	if v := os.Getenv("WORKERS_TIMEOUT_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs <= 0 {
			return nil, fmt.Errorf("invalid WORKERS_TIMEOUT_SECONDS %q", v)
		}
		cfg.WorkersTimeout = time.Duration(secs) * time.Second
	}
	if cfg.FrontendURL == "" {
		cfg.FrontendURL = "http://localhost:3000"
	}

	// --- Validate critical required values ---
	// The application will "fail fast" if these are not set.
	if cfg.JwtSecret == "" {
		return nil, errors.New("FATAL: JWT_SECRET environment variable is not set")
	}
	switch cfg.JwtAlgo {
	case "HS256", "HS384", "HS512":
	default:
		return nil, fmt.Errorf("unsupported JWT_ALGO %q (want HS256, HS384 or HS512)", cfg.JwtAlgo)
	}

	// --- Parse and derive necessary fields ---
	parsedURL, err := url.Parse(cfg.FrontendURL)
	if err != nil {
		return nil, errors.New("FATAL: Invalid FRONTEND_URL format")
	}
	cfg.ParsedFrontendURL = parsedURL

	return cfg, nil
}

// Addr returns the host:port pair the HTTP server should listen on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.AppHost, c.AppPort)
}

// SmtpConfigured reports whether enough SMTP settings are present to send mail.
func (c *Config) SmtpConfigured() bool {
	return c.SmtpHost != "" && c.SmtpPort != 0 && c.SmtpSender != ""
}

// OauthConfigured reports whether the Google OAuth sign-in flow is available.
func (c *Config) OauthConfigured() bool {
	return c.GoogleOauthClientID != "" && c.GoogleOauthClientSecret != "" && c.GoogleOauthRedirectURL != ""
}
