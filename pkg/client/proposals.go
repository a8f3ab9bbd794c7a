package client

import (
	"context"
	"time"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

const (
	// GracePeriod keeps a proposal active for a day past its idea deadline.
	GracePeriod = 24 * time.Hour
	// DefaultPollInterval is how often ProposalWatcher re-evaluates deadlines.
	DefaultPollInterval = 60 * time.Second
)

// IsActiveProposal reports whether e is still shown as active at now.
func IsActiveProposal(e models.Event, now time.Time) bool {
	if e.IdeaSubmissionDeadline == nil {
		return true
	}
	return now.Sub(*e.IdeaSubmissionDeadline) <= GracePeriod
}

// FilterActiveProposals keeps the proposals that are active at now, in order.
func FilterActiveProposals(events []models.Event, now time.Time) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if IsActiveProposal(e, now) {
			out = append(out, e)
		}
	}
	return out
}

// Ticker is the part of time.Ticker the watcher uses.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// ProposalWatcher backs the club admin proposals view. It fetches proposals,
// re-applies the deadline filter every PollInterval and re-fetches whenever the
// store reports an event change.
type ProposalWatcher struct {
	// Fetch loads the proposals to watch, e.g. a club's topics.
	Fetch func(ctx context.Context) ([]models.Event, error)
	// OnUpdate receives the active list after every evaluation.
	OnUpdate func([]models.Event)
	// OnError receives refresh failures; the previous list is kept.
	OnError func(error)
	// Store, when set, receives the active list under KindProposals/StoreKey and
	// is watched for event changes.
	Store    *Store
	StoreKey string

	PollInterval time.Duration
	Now          func() time.Time
	NewTicker    func(time.Duration) Ticker
}

// Run blocks until ctx is done. It returns the error of the first fetch, if any.
func (w *ProposalWatcher) Run(ctx context.Context) error {
	interval := w.PollInterval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	now := w.Now
	if now == nil {
		now = time.Now
	}
	newTicker := w.NewTicker
	if newTicker == nil {
		newTicker = func(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }
	}

	all, err := w.Fetch(ctx)
	if err != nil {
		return err
	}
	w.publish(FilterActiveProposals(all, now()))

	refetch := make(chan struct{}, 1)
	if w.Store != nil {
		unsubscribe := w.Store.Subscribe(KindEvent, func(Change) {
			select {
			case refetch <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	ticker := newTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			w.publish(FilterActiveProposals(all, now()))
		case <-refetch:
			fresh, err := w.Fetch(ctx)
			if err != nil {
				if w.OnError != nil {
					w.OnError(err)
				}
				continue
			}
			all = fresh
			w.publish(FilterActiveProposals(all, now()))
		}
	}
}

func (w *ProposalWatcher) publish(active []models.Event) {
	if w.Store != nil {
		key := w.StoreKey
		if key == "" {
			key = "active"
		}
		w.Store.Put(KindProposals, key, active)
	}
	if w.OnUpdate != nil {
		w.OnUpdate(active)
	}
}
