package notify

import (
	"context"
	"fmt"
	"sync"

	"github.com/trackforge/defecttrack/pkg/logutils"
)

const queueSize = 256

type event struct {
	to      []string
	subject string
	body    string
}

// Dispatcher queues rendered messages on a buffered channel and delivers
// them from a single worker goroutine. When the queue is full the event
// is dropped with a warning rather than blocking the request path.
type Dispatcher struct {
	sender Sender
	queue  chan event

	closeOnce sync.Once
	done      chan struct{}
}

func NewDispatcher(sender Sender) *Dispatcher {
	d := &Dispatcher{
		sender: sender,
		queue:  make(chan event, queueSize),
		done:   make(chan struct{}),
	}
	go d.worker()
	return d
}

// Close stops the worker after draining queued events.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() {
		close(d.queue)
		<-d.done
	})
}

func (d *Dispatcher) worker() {
	defer close(d.done)
	for ev := range d.queue {
		if err := d.sender.Send(context.Background(), ev.to, ev.subject, ev.body); err != nil {
			logutils.Log.WithFields(logutils.Fields{
				"subject":    ev.subject,
				"recipients": len(ev.to),
			}).Warnf("notification delivery failed: %v", err)
		}
	}
}

func (d *Dispatcher) enqueue(to []string, subject, body string) {
	if len(to) == 0 {
		return
	}
	select {
	case d.queue <- event{to: to, subject: subject, body: body}:
	default:
		logutils.Log.Warnf("notification queue full, dropping %q", subject)
	}
}

func (d *Dispatcher) Welcome(_ context.Context, email, username, password, firstName string) {
	d.enqueue([]string{email},
		"Welcome to DefectTrack",
		welcomeBody(username, password, firstName))
}

func (d *Dispatcher) LoginNotice(_ context.Context, email, username, firstName, loginTime, ipAddress, userAgent string) {
	d.enqueue([]string{email},
		"New login to your account",
		loginNoticeBody(username, firstName, loginTime, ipAddress, userAgent))
}

func (d *Dispatcher) DefectAssigned(_ context.Context, email, defectTitle, assigneeName, assignerName string) {
	d.enqueue([]string{email},
		fmt.Sprintf("Defect assigned to you: %s", defectTitle),
		defectAssignedBody(defectTitle, assigneeName, assignerName))
}

func (d *Dispatcher) DefectStatusChanged(_ context.Context, emails []string, defectTitle, changedBy, oldStatus, newStatus string) {
	d.enqueue(emails,
		fmt.Sprintf("Defect status changed: %s", defectTitle),
		defectStatusChangedBody(defectTitle, changedBy, oldStatus, newStatus))
}

func (d *Dispatcher) ProjectAssigned(_ context.Context, email, projectName, roleName, assignedBy string) {
	d.enqueue([]string{email},
		fmt.Sprintf("You were added to project %s", projectName),
		projectAssignedBody(projectName, roleName, assignedBy))
}

func (d *Dispatcher) ReleaseCreated(_ context.Context, emails []string, releaseName, version, projectName string) {
	d.enqueue(emails,
		fmt.Sprintf("New release %s %s", releaseName, version),
		releaseCreatedBody(releaseName, version, projectName))
}
