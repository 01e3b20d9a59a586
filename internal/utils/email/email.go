package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/Dan9191/expense-service/internal/config"
	"github.com/Dan9191/expense-service/internal/models"
	"github.com/jordan-wright/email"
	"github.com/sirupsen/logrus"
)

// Sender handles sending emails via SMTP
type Sender struct {
	cfg    *config.Config
	logger *logrus.Logger
	send   func(e *email.Email, addr string, auth smtp.Auth) error
}

// NewSender creates a new email sender
func NewSender(cfg *config.Config, logger *logrus.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		logger: logger,
		send: func(e *email.Email, addr string, auth smtp.Auth) error {
			return e.Send(addr, auth)
		},
	}
}

// SendDigest mails a user the summary of their spending for a period
func (s *Sender) SendDigest(to, username string, summary models.PeriodSummary) error {
	e := email.NewEmail()
	e.From = s.cfg.SenderEmail
	e.To = []string{to}
	e.Subject = fmt.Sprintf("Your expenses from %s to %s", summary.From, summary.To)
	e.Text = []byte(DigestBody(username, summary))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.cfg.SMTPHost, s.cfg.SMTPPort)
	var auth smtp.Auth
	if s.cfg.SMTPUsername != "" {
		auth = smtp.PlainAuth("", s.cfg.SMTPUsername, s.cfg.SMTPPassword, s.cfg.SMTPHost)
	}
	if err := s.send(e, addr, auth); err != nil {
		s.logger.Errorf("Failed to send digest to %s: %v", to, err)
		return fmt.Errorf("failed to send digest: %w", err)
	}

	s.logger.Infof("Email sent to %s: %s", to, e.Subject)
	return nil
}

// DigestBody renders the plain-text digest
func DigestBody(username string, summary models.PeriodSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", username)
	fmt.Fprintf(&b, "Here is what you spent between %s and %s.\n\n", summary.From, summary.To)
	for _, t := range summary.ByCategory {
		fmt.Fprintf(&b, "  %-15s %12s\n", t.Category, t.Total)
	}
	fmt.Fprintf(&b, "  %-15s %12s\n", "Total", summary.Total)
	b.WriteString("\nBest regards,\nExpense Tracker")
	return b.String()
}
