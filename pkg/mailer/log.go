package mailer

import (
	"context"

	"go.uber.org/zap"
)

// LogMailer records sends without delivering anything. Used in development
// and whenever no SMTP host is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLog constructs a log-only mailer.
func NewLog(logger *zap.Logger) *LogMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogMailer{logger: logger}
}

// SendBulk logs each intended delivery and reports everything as sent.
func (m *LogMailer) SendBulk(_ context.Context, addresses []string, subject, _ string) BulkResult {
	m.logger.Info("email send (log only)",
		zap.Int("recipients", len(addresses)),
		zap.String("subject", subject),
	)
	return BulkResult{Sent: len(addresses)}
}
