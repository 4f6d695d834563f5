package main

import (
	"log"
	"net/http"

	"github.com/jfenske/chessmate/internal/api"
	"github.com/jfenske/chessmate/internal/config"
	"github.com/jfenske/chessmate/internal/database"
	"github.com/jfenske/chessmate/internal/email"
	"github.com/jfenske/chessmate/internal/realtime"
	"github.com/jfenske/chessmate/internal/workers"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

// main is the entry point for the Chessmate API server.
func main() {
	// --- 1. Load Configuration ---
	// Secrets and settings come from the environment; a .env file is a
	// development convenience only.
	if err := godotenv.Load(); err != nil {
		log.Println("INFO: No .env file found, using environment variables from the system.")
	}

	cfg, err := config.New()
	if err != nil {
		log.Fatalf("FATAL: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Database Service ---
	// The database service manages all connections and ensures thread-safe writes.
	dbService, err := database.NewService(cfg.SqlitePath, cfg.SQLEcho)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database service: %v", err)
	}
	defer dbService.Close()

	// Creates the tables if they do not already exist. Safe to run on every
	// startup.
	if err := dbService.InitSchema(); err != nil {
		log.Fatalf("FATAL: Failed to initialize database schema: %v", err)
	}

	log.Println("INFO: Database service initialized successfully.")

	// --- 3. Initialize Collaborating Services ---
	workersClient := workers.New(cfg.WorkersURL, cfg.WorkersTimeout)
	broker := realtime.NewBroker()

	var emailService *email.Service
	if cfg.SmtpConfigured() {
		emailService = email.NewService(email.SMTPServerConfig{
			Host:     cfg.SmtpHost,
			Port:     cfg.SmtpPort,
			Username: cfg.SmtpUser,
			Password: cfg.SmtpPass,
			Sender:   cfg.SmtpSender,
		})
		log.Println("INFO: Email service initialized.")
	} else {
		log.Println("INFO: SMTP not configured, challenge emails disabled.")
	}

	// --- 4. Set Up API Server and Routes ---
	serverAPI := api.NewServer(cfg, dbService, workersClient, broker, emailService)

	router := chi.NewRouter()
	serverAPI.RegisterRoutes(router)

	log.Println("INFO: API routes registered.")

	// --- 5. Start the HTTP Server ---
	log.Printf("INFO: %s starting on %s", cfg.AppName, cfg.Addr())

	if err := http.ListenAndServe(cfg.Addr(), router); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}
