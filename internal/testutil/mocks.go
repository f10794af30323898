package testutil

import (
	"context"
	"sync"
	"time"
)

// SentMail records one call to MockMailTransport.Send
type SentMail struct {
	To       string
	Language string
	HTML     bool
	Payload  map[string]any
}

// MockMailTransport is a mock implementation of the mail transport
type MockMailTransport struct {
	mu        sync.Mutex
	Sent      []SentMail
	SendError error // Error to return from Send
	// Delay blocks each Send until it elapses or the context is done
	Delay     time.Duration
	CallCount int
}

// NewMockMailTransport creates a new mock mail transport
func NewMockMailTransport() *MockMailTransport {
	return &MockMailTransport{}
}

// Send implements the mail transport interface
func (m *MockMailTransport) Send(ctx context.Context, to, language string, html bool, payload map[string]any) error {
	m.mu.Lock()
	m.CallCount++
	delay := m.Delay
	sendErr := m.SendError
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if sendErr != nil {
		return sendErr
	}

	copied := make(map[string]any, len(payload))
	for k, v := range payload {
		copied[k] = v
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, SentMail{To: to, Language: language, HTML: html, Payload: copied})
	return nil
}

// Calls returns the number of Send invocations
func (m *MockMailTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.CallCount
}

// LastSent returns the most recent successful send
func (m *MockMailTransport) LastSent() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.Sent) == 0 {
		return SentMail{}, false
	}
	return m.Sent[len(m.Sent)-1], true
}

// SetSendError sets an error to be returned on subsequent Send calls
func (m *MockMailTransport) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SendError = err
}

// Reset clears recorded sends and counters
func (m *MockMailTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = nil
	m.SendError = nil
	m.CallCount = 0
}
