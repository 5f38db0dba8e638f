package mailer

import (
	"context"

	"github.com/cleanmatch/cleanmatch-backend/pkg/logger"
)

// LogMailer writes messages to the structured log instead of sending them.
// Bodies are omitted so codes never reach log storage.
type LogMailer struct {
	logg *logger.Logger
}

func NewLogMailer(logg *logger.Logger) *LogMailer {
	if logg == nil {
		logg = logger.Nop()
	}
	return &LogMailer{logg: logg}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	ctx = m.logg.WithFields(ctx, map[string]any{
		"mail_to":      msg.To,
		"mail_subject": msg.Subject,
	})
	m.logg.Info(ctx, "mail.delivered_to_log")
	return nil
}
