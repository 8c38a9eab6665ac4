package mailer

import (
	"context"
	"log/slog"
)

// Mailer requests delivery of a verification email. Actual delivery is owned
// by an external system; implementations only hand the request off.
type Mailer interface {
	SendVerification(ctx context.Context, subjectID, email string) error
}

// LogMailer records the request in the process log. It stands in for a real
// delivery integration in development and tests.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendVerification(ctx context.Context, subjectID, email string) error {
	m.logger.InfoContext(ctx, "verification email requested",
		"subject_id", subjectID,
		"email", email,
	)
	return nil
}
