package notify

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/adapter"
)

// Dev stand-ins. They log instead of reaching external services.

var _ adapter.Mailer = (*LogMailer)(nil)

type LogMailer struct {
	Log *zerolog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, body string) error {
	m.Log.Info().Str("to", to).Str("subject", subject).Msg("mail (dev, not sent)")
	return nil
}

var _ adapter.OpsNotifier = (*LogOpsNotifier)(nil)

type LogOpsNotifier struct {
	Log *zerolog.Logger
}

func (n *LogOpsNotifier) Alert(ctx context.Context, text string) error {
	n.Log.Warn().Str("alert", text).Msg("ops alert (dev)")
	return nil
}

var _ adapter.CertificateRenderer = (*StubCertificateRenderer)(nil)

// StubCertificateRenderer stands in for the PDF rendering service. It only
// mints a deterministic artifact reference.
type StubCertificateRenderer struct{}

func (StubCertificateRenderer) Generate(ctx context.Context, userID, courseID string) (string, error) {
	return fmt.Sprintf("cert://%s/%s", courseID, userID), nil
}
