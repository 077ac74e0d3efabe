package notify

import "context"

// Notifier is the notification surface consumed by handlers. Every call
// is fire-and-forget: the event is queued after the triggering write has
// committed and a delivery failure can never roll it back.
type Notifier interface {
	Welcome(ctx context.Context, email, username, password, firstName string)
	LoginNotice(ctx context.Context, email, username, firstName, loginTime, ipAddress, userAgent string)
	DefectAssigned(ctx context.Context, email, defectTitle, assigneeName, assignerName string)
	DefectStatusChanged(ctx context.Context, emails []string, defectTitle, changedBy, oldStatus, newStatus string)
	ProjectAssigned(ctx context.Context, email, projectName, roleName, assignedBy string)
	ReleaseCreated(ctx context.Context, emails []string, releaseName, version, projectName string)
}

// Sender is the delivery half, implemented over SMTP. Kept behind an
// interface so tests can capture messages and a chat-webhook sender can
// be added without touching the dispatcher.
type Sender interface {
	Send(ctx context.Context, to []string, subject, htmlBody string) error
}
