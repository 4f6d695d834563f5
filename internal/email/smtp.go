package email

import (
	"fmt"
	"net/smtp"
)

// SMTPServerConfig holds all the necessary configuration for connecting to an
// SMTP server.
type SMTPServerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Sender   string // The "From" email address
}

// Service sends notification mail. It is optional: when SMTP is not
// configured the server simply never constructs one.
type Service struct {
	config SMTPServerConfig
	auth   smtp.Auth
}

// NewService creates a new service for sending emails.
func NewService(config SMTPServerConfig) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	return &Service{
		config: config,
		auth:   auth,
	}
}

// SendChallengeEmail tells a user someone has challenged them to a game.
// Best-effort by contract: callers log a failure and move on, the invitation
// itself is already committed.
func (s *Service) SendChallengeEmail(recipientEmail, challengerName, frontendURL string) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	subject := fmt.Sprintf("%s has challenged you to a game of chess!", challengerName)

	body := fmt.Sprintf(
		"Hi there,\n\n%s wants to play chess with you.\n\nLog in to accept or decline the challenge:\n%s/invitations\n\nGood luck!\nThe Chessmate Team",
		challengerName,
		frontendURL,
	)

	message := []byte(
		"To: " + recipientEmail + "\r\n" +
			"From: " + s.config.Sender + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"\r\n" +
			body + "\r\n")

	err := smtp.SendMail(addr, s.auth, s.config.Sender, []string{recipientEmail}, message)
	if err != nil {
		return fmt.Errorf("smtp error: %w", err)
	}

	return nil
}
