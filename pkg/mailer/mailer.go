package mailer

import (
	"context"
	"fmt"
	"strings"

	"github.com/cleanmatch/cleanmatch-backend/pkg/config"
	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

const (
	DriverLog  = "log"
	DriverSMTP = "smtp"
)

// Message is a single plain-text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers outbound email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New picks a driver from cfg.Driver. Unknown drivers are a configuration error.
func New(cfg config.MailConfig, logg *logger.Logger) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", DriverLog:
		return NewLogMailer(logg), nil
	case DriverSMTP:
		return NewSMTPMailer(cfg)
	default:
		return nil, fmt.Errorf("mailer: unknown driver %q", cfg.Driver)
	}
}

func (m Message) validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("mailer: recipient required")
	}
	if strings.ContainsAny(m.To, "\r\n") || strings.ContainsAny(m.Subject, "\r\n") {
		return fmt.Errorf("mailer: header values must not contain line breaks")
	}
	return nil
}
