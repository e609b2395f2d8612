// Package mailer provides the outbound email capability used by the
// notification fan-out. Email is a best-effort channel: per-recipient
// failures are counted, never propagated.
package mailer

import "context"

// BulkResult reports per-recipient outcomes of one bulk send.
type BulkResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Mailer sends the same message to many recipients, one delivery at a time.
type Mailer interface {
	SendBulk(ctx context.Context, addresses []string, subject, body string) BulkResult
}
