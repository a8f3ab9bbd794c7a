package client

import (
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Resource kinds cached by the Store.
const (
	KindEvent             = "event"
	KindIdea              = "idea"
	KindProblem           = "problem"
	KindVote              = "vote"
	KindComment           = "comment"
	KindClub              = "club"
	KindUser              = "user"
	KindHall              = "hall"
	KindSuperAdminRequest = "super_admin_request"
	// KindProposals holds the active proposal list published by ProposalWatcher.
	KindProposals = "proposals"
)

// ChangeOp says what happened to a cached entry.
type ChangeOp string

const (
	OpPut        ChangeOp = "put"
	OpInvalidate ChangeOp = "invalidate"
)

// Change is delivered to subscribers. An empty ID means the whole kind changed.
type Change struct {
	Kind string
	ID   string
	Op   ChangeOp
}

// Store is a client-side cache keyed by resource kind and id. Every view reads
// through it and every mutation invalidates it, so two views never disagree
// after a write.
type Store struct {
	cache *gocache.Cache

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func(Change)
}

// NewStore builds a store whose entries expire after ttl.
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = gocache.NoExpiration
	}
	return &Store{
		cache: gocache.New(ttl, 2*ttl),
		subs:  make(map[string]map[int]func(Change)),
	}
}

func storeKey(kind, id string) string { return kind + ":" + id }

// Get returns the cached value for kind/id.
func (s *Store) Get(kind, id string) (any, bool) {
	return s.cache.Get(storeKey(kind, id))
}

// Put caches value and notifies subscribers of kind.
func (s *Store) Put(kind, id string, value any) {
	s.cache.SetDefault(storeKey(kind, id), value)
	s.notify(Change{Kind: kind, ID: id, Op: OpPut})
}

// remember caches a value fetched from the API without notifying subscribers,
// so views that reload on change do not loop on their own reads.
func (s *Store) remember(kind, id string, value any) {
	if id == "" {
		return
	}
	s.cache.SetDefault(storeKey(kind, id), value)
}

// Invalidate drops kind/id.
func (s *Store) Invalidate(kind, id string) {
	s.cache.Delete(storeKey(kind, id))
	s.notify(Change{Kind: kind, ID: id, Op: OpInvalidate})
}

// InvalidateKind drops every entry of kind.
func (s *Store) InvalidateKind(kind string) {
	prefix := kind + ":"
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, prefix) {
			s.cache.Delete(key)
		}
	}
	s.notify(Change{Kind: kind, Op: OpInvalidate})
}

// Subscribe registers fn for changes to kind. Callbacks run synchronously on the
// goroutine that made the change. The returned func unsubscribes.
func (s *Store) Subscribe(kind string, fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.subs[kind] == nil {
		s.subs[kind] = make(map[int]func(Change))
	}
	s.subs[kind][id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[kind], id)
	}
}

func (s *Store) notify(change Change) {
	s.mu.RLock()
	fns := make([]func(Change), 0, len(s.subs[change.Kind]))
	for _, fn := range s.subs[change.Kind] {
		fns = append(fns, fn)
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(change)
	}
}
