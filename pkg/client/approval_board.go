package client

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

var (
	// ErrRejectionReasonRequired is returned before any request when a reject has no reason.
	ErrRejectionReasonRequired = errors.New("rejection reason is required")
	// ErrBusy is returned when a decision is attempted while another is in flight.
	ErrBusy = errors.New("another decision is in progress")
	// ErrNotPending is returned when the id is not in the board's pending list.
	ErrNotPending = errors.New("proposal is not pending")
)

// ApprovalSource is the part of the events API the board needs.
type ApprovalSource interface {
	PendingApproval(ctx context.Context) ([]models.Event, error)
	Approved(ctx context.Context) ([]models.Event, error)
	Rejected(ctx context.Context) ([]models.Event, error)
	Approve(ctx context.Context, id string) (*models.Event, error)
	Reject(ctx context.Context, id, reason string) (*models.Event, error)
}

// ApprovalBoard holds the super admin's pending, approved and rejected proposals.
type ApprovalBoard struct {
	source ApprovalSource

	mu         sync.RWMutex
	pending    []models.Event
	approved   []models.Event
	rejected   []models.Event
	processing bool
}

func NewApprovalBoard(source ApprovalSource) *ApprovalBoard {
	return &ApprovalBoard{source: source}
}

// Load fetches the three lists concurrently. The board only changes when all three succeed.
func (b *ApprovalBoard) Load(ctx context.Context) error {
	var pending, approved, rejected []models.Event
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = b.source.PendingApproval(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		approved, err = b.source.Approved(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rejected, err = b.source.Rejected(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return err
	}

	b.mu.Lock()
	b.pending, b.approved, b.rejected = pending, approved, rejected
	b.mu.Unlock()
	return nil
}

// Pending returns a copy of the pending list.
func (b *ApprovalBoard) Pending() []models.Event { return b.snapshot(&b.pending) }

// Approved returns a copy of the approved list.
func (b *ApprovalBoard) Approved() []models.Event { return b.snapshot(&b.approved) }

// Rejected returns a copy of the rejected list.
func (b *ApprovalBoard) Rejected() []models.Event { return b.snapshot(&b.rejected) }

func (b *ApprovalBoard) snapshot(list *[]models.Event) []models.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Event(nil), (*list)...)
}

// Filter returns every loaded proposal in status.
func (b *ApprovalBoard) Filter(status models.EventStatus) []models.Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var out []models.Event
	for _, list := range [][]models.Event{b.pending, b.approved, b.rejected} {
		for _, e := range list {
			if e.Status == status {
				out = append(out, e)
			}
		}
	}
	return out
}

// Processing reports whether a decision is in flight.
func (b *ApprovalBoard) Processing() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.processing
}

// Approve approves a pending proposal and moves it to the approved list.
func (b *ApprovalBoard) Approve(ctx context.Context, id string) error {
	if err := b.begin(id); err != nil {
		return err
	}
	event, err := b.source.Approve(ctx, id)
	b.finish(id, event, err, func(e *models.Event) {
		b.approved = upsert(b.approved, *e)
	})
	return err
}

// Reject rejects a pending proposal. An empty reason fails without a request.
func (b *ApprovalBoard) Reject(ctx context.Context, id, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrRejectionReasonRequired
	}
	if err := b.begin(id); err != nil {
		return err
	}
	event, err := b.source.Reject(ctx, id, reason)
	b.finish(id, event, err, func(e *models.Event) {
		if e.RejectionReason == nil || *e.RejectionReason == "" {
			e.RejectionReason = &reason
		}
		b.rejected = upsert(b.rejected, *e)
	})
	return err
}

func (b *ApprovalBoard) begin(id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.processing {
		return ErrBusy
	}
	if indexOf(b.pending, id) < 0 {
		return ErrNotPending
	}
	b.processing = true
	return nil
}

func (b *ApprovalBoard) finish(id string, event *models.Event, err error, place func(*models.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.processing = false
	if err != nil {
		return
	}
	idx := indexOf(b.pending, id)
	if event == nil {
		if idx < 0 {
			return
		}
		moved := b.pending[idx]
		event = &moved
	}
	if idx >= 0 {
		b.pending = append(b.pending[:idx:idx], b.pending[idx+1:]...)
	}
	place(event)
}

func indexOf(events []models.Event, id string) int {
	for i, e := range events {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func upsert(events []models.Event, event models.Event) []models.Event {
	if i := indexOf(events, event.ID); i >= 0 {
		events[i] = event
		return events
	}
	return append(events, event)
}
