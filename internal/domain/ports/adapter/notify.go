package adapter

import "context"

// Mailer delivers a rendered confirmation email. Templating and transport
// live behind this port; the dispatcher only decides whether to send.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// OpsNotifier pushes short operational alerts (receipt submitted, repeated
// verification failures) to the operations channel.
type OpsNotifier interface {
	Alert(ctx context.Context, text string) error
}

// CertificateRenderer is the opaque collaborator that produces the course
// certificate artifact once access is granted.
type CertificateRenderer interface {
	Generate(ctx context.Context, userID, courseID string) (artifactRef string, err error)
}
