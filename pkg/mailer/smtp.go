package mailer

import (
	"context"

	"go.uber.org/zap"
	gomail "gopkg.in/gomail.v2"

	"github.com/gecr-dev/campus-api/pkg/config"
)

// SMTPMailer delivers messages through a plain SMTP relay.
type SMTPMailer struct {
	dialer     *gomail.Dialer
	from       string
	subjPrefix string
	logger     *zap.Logger
}

// NewSMTP constructs an SMTP-backed mailer from config.
func NewSMTP(cfg config.SMTPConfig, logger *zap.Logger) *SMTPMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := ""
	if cfg.AppName != "" {
		prefix = "[" + cfg.AppName + "] "
	}
	return &SMTPMailer{
		dialer:     gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:       cfg.From,
		subjPrefix: prefix,
		logger:     logger,
	}
}

// SendBulk sends the message to each address individually so one bad
// address cannot abort the rest of the batch.
func (m *SMTPMailer) SendBulk(ctx context.Context, addresses []string, subject, body string) BulkResult {
	var result BulkResult
	if len(addresses) == 0 {
		return result
	}

	sender, err := m.dialer.Dial()
	if err != nil {
		m.logger.Warn("smtp dial failed", zap.Error(err))
		result.Failed = len(addresses)
		return result
	}
	defer sender.Close()

	msg := gomail.NewMessage()
	for _, addr := range addresses {
		select {
		case <-ctx.Done():
			result.Failed += len(addresses) - result.Sent - result.Failed
			return result
		default:
		}

		msg.Reset()
		msg.SetHeader("From", m.from)
		msg.SetHeader("To", addr)
		msg.SetHeader("Subject", m.subjPrefix+subject)
		msg.SetBody("text/plain", body)

		if err := gomail.Send(sender, msg); err != nil {
			m.logger.Warn("email send failed", zap.String("to", addr), zap.Error(err))
			result.Failed++
			continue
		}
		result.Sent++
	}
	return result
}
