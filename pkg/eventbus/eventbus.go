// Package eventbus publishes entity change notifications so other processes can
// refresh or invalidate their copies.
package eventbus

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Entity kinds carried in Change.Kind.
const (
	KindEvent             = "event"
	KindIdea              = "idea"
	KindVote              = "vote"
	KindComment           = "comment"
	KindClub              = "club"
	KindHall              = "hall"
	KindProblem           = "problem"
	KindSuperAdminRequest = "super_admin_request"
	KindNotification      = "notification"
	KindRegistration      = "registration"
)

// Change describes one mutation.
type Change struct {
	Kind   string    `json:"kind"`
	ID     string    `json:"id"`
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Subject returns the relative subject for the change, e.g. "event.approved".
func (c Change) Subject() string {
	return c.Kind + "." + c.Action
}

// Publisher emits changes. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, change Change) error
	Close() error
}

// NewChange stamps a change with the current time.
func NewChange(kind, id, action string) Change {
	return Change{Kind: kind, ID: id, Action: action, At: time.Now().UTC()}
}

func joinSubject(prefix, subject string) string {
	prefix = strings.Trim(prefix, ".")
	if prefix == "" {
		return subject
	}
	return prefix + "." + subject
}

// Noop discards every change.
type Noop struct{}

func (Noop) Publish(context.Context, Change) error { return nil }
func (Noop) Close() error                          { return nil }

// Memory records changes in process. Tests use it to assert on published events.
type Memory struct {
	mu      sync.Mutex
	changes []Change
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Publish(_ context.Context, change Change) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, change)
	return nil
}

func (m *Memory) Close() error { return nil }

// Changes returns a copy of everything published so far.
func (m *Memory) Changes() []Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Change, len(m.changes))
	copy(out, m.changes)
	return out
}

// Subjects lists the subjects published so far, in order.
func (m *Memory) Subjects() []string {
	changes := m.Changes()
	out := make([]string, len(changes))
	for i, c := range changes {
		out[i] = c.Subject()
	}
	return out
}
