// Package email renders and delivers transactional email.
package email

import "context"

// LeadConfirmation is the data shown in a submission receipt.
type LeadConfirmation struct {
	LeadID   string
	Title    string
	Category string
	// StatusURL is linked from the call to action; optional.
	StatusURL string
}

// Sender delivers transactional email.
type Sender interface {
	SendLeadConfirmationEmail(ctx context.Context, toEmail string, data LeadConfirmation) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender drops every message. Used when SMTP is not configured.
type NoopSender struct{}

func (NoopSender) SendLeadConfirmationEmail(context.Context, string, LeadConfirmation) error {
	return nil
}

func (NoopSender) SendCustomEmail(context.Context, string, string, string) error {
	return nil
}

var (
	_ Sender = NoopSender{}
	_ Sender = (*SMTPSender)(nil)
)
