package client

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// VoteAction is what a click on a vote button does.
type VoteAction string

const (
	VoteActionAdd    VoteAction = "add"
	VoteActionRemove VoteAction = "remove"
	VoteActionSwitch VoteAction = "switch"
)

// NextVote returns the vote held after clicking clicked while holding current.
// An empty VoteType means no vote.
func NextVote(current, clicked models.VoteType) (models.VoteType, VoteAction) {
	switch current {
	case "":
		return clicked, VoteActionAdd
	case clicked:
		return "", VoteActionRemove
	default:
		return clicked, VoteActionSwitch
	}
}

// SortOrder names an idea ordering.
type SortOrder string

const (
	SortPopular SortOrder = "popular"
	SortNewest  SortOrder = "newest"
	SortOldest  SortOrder = "oldest"
)

// SortIdeas returns a stably sorted copy of ideas. Popular orders by net score,
// then by total votes. Unknown orders keep the input order.
func SortIdeas(ideas []models.Idea, order SortOrder) []models.Idea {
	out := append([]models.Idea(nil), ideas...)
	var less func(a, b models.Idea) bool
	switch order {
	case SortPopular:
		less = func(a, b models.Idea) bool {
			if a.NetScore() != b.NetScore() {
				return a.NetScore() > b.NetScore()
			}
			return a.Upvotes+a.Downvotes > b.Upvotes+b.Downvotes
		}
	case SortNewest:
		less = func(a, b models.Idea) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortOldest:
		less = func(a, b models.Idea) bool { return a.CreatedAt.Before(b.CreatedAt) }
	default:
		return out
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// IdeaLister loads the ideas a browser shows.
type IdeaLister interface {
	List(ctx context.Context, q IdeaQuery) (Page[models.Idea], error)
}

// VoteClient is the part of the votes API the browser needs.
type VoteClient interface {
	Cast(ctx context.Context, ideaID string, voteType models.VoteType) (*models.VoteOutcome, error)
	Stats(ctx context.Context, ideaID string) (*models.VoteStats, error)
	UserVote(ctx context.Context, ideaID, userID string) (*models.Vote, error)
}

// IdeaBrowser backs the student idea view: it holds the fetched ideas and the
// viewer's own votes, and re-fetches counts after every vote.
type IdeaBrowser struct {
	ideas  IdeaLister
	votes  VoteClient
	userID string

	mu   sync.RWMutex
	list []models.Idea
	mine map[string]models.VoteType
}

func NewIdeaBrowser(ideas IdeaLister, votes VoteClient, userID string) *IdeaBrowser {
	return &IdeaBrowser{ideas: ideas, votes: votes, userID: userID, mine: map[string]models.VoteType{}}
}

// Load fetches ideas matching q along with the viewer's vote on each.
func (b *IdeaBrowser) Load(ctx context.Context, q IdeaQuery) error {
	page, err := b.ideas.List(ctx, q)
	if err != nil {
		return err
	}

	mine := make(map[string]models.VoteType, len(page.Items))
	if b.userID != "" {
		var mu sync.Mutex
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, idea := range page.Items {
			ideaID := idea.ID
			g.Go(func() error {
				vote, err := b.votes.UserVote(gctx, ideaID, b.userID)
				if err != nil || vote == nil {
					return err
				}
				mu.Lock()
				mine[ideaID] = vote.VoteType
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	b.mu.Lock()
	b.list, b.mine = page.Items, mine
	b.mu.Unlock()
	return nil
}

// Ideas returns the loaded ideas in server order.
func (b *IdeaBrowser) Ideas() []models.Idea {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]models.Idea(nil), b.list...)
}

// Sorted returns the loaded ideas in order.
func (b *IdeaBrowser) Sorted(order SortOrder) []models.Idea {
	return SortIdeas(b.Ideas(), order)
}

// MyVote returns the viewer's vote on ideaID, or "".
func (b *IdeaBrowser) MyVote(ideaID string) models.VoteType {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.mine[ideaID]
}

// Vote applies a click on clicked for ideaID. Once the server accepts the cast,
// the held vote and the returned action follow its result. Counts come from a
// fresh stats call, or from the cast response when that call fails; the stats
// error is still returned.
func (b *IdeaBrowser) Vote(ctx context.Context, ideaID string, clicked models.VoteType) (VoteAction, error) {
	outcome, err := b.votes.Cast(ctx, ideaID, clicked)
	if err != nil {
		return "", err
	}
	stats, statsErr := b.votes.Stats(ctx, ideaID)
	if statsErr != nil {
		stats = &outcome.Stats
	}

	held, action := clicked, VoteActionAdd
	switch outcome.Result {
	case models.VoteRemoved:
		held, action = "", VoteActionRemove
	case models.VoteChanged:
		action = VoteActionSwitch
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if held == "" {
		delete(b.mine, ideaID)
	} else {
		b.mine[ideaID] = held
	}
	if statsErr == nil || stats.IdeaID != "" {
		for i := range b.list {
			if b.list[i].ID == ideaID {
				b.list[i].Upvotes = stats.Upvotes
				b.list[i].Downvotes = stats.Downvotes
				b.list[i].VoteCount = stats.NetScore
			}
		}
	}
	return action, statsErr
}
