package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type captureSender struct {
	mu   sync.Mutex
	sent []capturedMessage
	err  error
}

type capturedMessage struct {
	to      []string
	subject string
	body    string
}

func (s *captureSender) Send(_ context.Context, to []string, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, capturedMessage{to: to, subject: subject, body: body})
	return s.err
}

func (s *captureSender) messages() []capturedMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]capturedMessage(nil), s.sent...)
}

func TestDispatcherDeliversQueuedEvents(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender)

	d.DefectAssigned(context.Background(), "dev@example.com", "Login broken", "Dev", "QA")
	d.Close()

	msgs := sender.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, []string{"dev@example.com"}, msgs[0].to)
	assert.Contains(t, msgs[0].subject, "Login broken")
	assert.Contains(t, msgs[0].body, "QA")
}

func TestDispatcherSendFailureDoesNotPropagate(t *testing.T) {
	sender := &captureSender{err: errors.New("smtp unreachable")}
	d := NewDispatcher(sender)

	// The publishing side never observes the delivery failure.
	d.Welcome(context.Background(), "new@example.com", "US0002", "secret", "Ada")
	d.DefectStatusChanged(context.Background(), []string{"a@example.com", "b@example.com"},
		"Crash on save", "Ada", "New", "Fixed")
	d.Close()

	assert.Len(t, sender.messages(), 2, "failed sends are logged, not retried")
}

func TestDispatcherSkipsEmptyRecipients(t *testing.T) {
	sender := &captureSender{}
	d := NewDispatcher(sender)

	d.ReleaseCreated(context.Background(), nil, "Atlas", "1.2.0", "Storefront")
	d.Close()

	assert.Empty(t, sender.messages())
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(&captureSender{})
	done := make(chan struct{})
	go func() {
		d.Close()
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked")
	}
}
