// Package email sends contact-form notifications via SMTP.
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"folio/api/internal/store"
)

// Config holds SMTP configuration.
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	FromName string
	To       string
}

type Service struct {
	config Config
	server string
	auth   smtp.Auth
}

func NewService(config Config) *Service {
	auth := smtp.PlainAuth("", config.Username, config.Password, config.Host)
	return &Service{
		config: config,
		server: config.Host + ":" + config.Port,
		auth:   auth,
	}
}

// IsConfigured reports whether sending is possible.
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port != "" && s.config.From != "" && s.config.To != ""
}

// SendContactNotification emails the site owner about a new contact
// message. Callers treat failures as non-fatal: the message is already
// persisted by the time this runs.
func (s *Service) SendContactNotification(msg store.ContactMessage) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email not configured")
	}

	subject := msg.Subject
	if strings.TrimSpace(subject) == "" {
		subject = "New contact message"
	}

	from := s.config.From
	if s.config.FromName != "" {
		from = fmt.Sprintf("%s <%s>", s.config.FromName, s.config.From)
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s\n", msg.Name, msg.Email, msg.Body)

	payload := []byte(fmt.Sprintf(
		"To: %s\r\n"+
			"From: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: %s\r\n"+
			"Content-Type: text/plain; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.config.To,
		from,
		msg.Email,
		subject,
		body,
	))

	return smtp.SendMail(s.server, s.auth, s.config.From, []string{s.config.To}, payload)
}
