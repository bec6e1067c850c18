// Package mail defines the outbound mail seam. Real delivery (SendGrid in
// production) lives behind Mailer; the dev implementation only logs the link.
package mail

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Mailer sends transactional mail. Implementations must not block on retries;
// delivery failures are the caller's to handle.
type Mailer interface {
	SendVerification(ctx context.Context, toEmail, token string) error
}

// LogMailer is a development Mailer that writes the verification link to the
// log instead of sending mail.
type LogMailer struct {
	BaseURL string
	Log     zerolog.Logger
}

// NewLogMailer returns a LogMailer building links against baseURL.
func NewLogMailer(baseURL string, log zerolog.Logger) *LogMailer {
	return &LogMailer{BaseURL: baseURL, Log: log}
}

// SendVerification logs the verification link for toEmail. Never fails.
func (m *LogMailer) SendVerification(ctx context.Context, toEmail, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email/%s", m.BaseURL, token)
	m.Log.Info().Str("email", toEmail).Str("link", link).Msg("verification mail (dev: not sent)")
	return nil
}
