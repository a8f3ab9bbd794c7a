package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

func TestNextVote(t *testing.T) {
	cases := []struct {
		current, clicked models.VoteType
		held             models.VoteType
		action           VoteAction
	}{
		{"", models.VoteUp, models.VoteUp, VoteActionAdd},
		{"", models.VoteDown, models.VoteDown, VoteActionAdd},
		{models.VoteUp, models.VoteUp, "", VoteActionRemove},
		{models.VoteDown, models.VoteDown, "", VoteActionRemove},
		{models.VoteUp, models.VoteDown, models.VoteDown, VoteActionSwitch},
		{models.VoteDown, models.VoteUp, models.VoteUp, VoteActionSwitch},
	}
	for _, tc := range cases {
		held, action := NextVote(tc.current, tc.clicked)
		assert.Equal(t, tc.held, held, "%q then %q", tc.current, tc.clicked)
		assert.Equal(t, tc.action, action, "%q then %q", tc.current, tc.clicked)
	}
}

func ideaIDs(ideas []models.Idea) []string {
	out := make([]string, len(ideas))
	for i, idea := range ideas {
		out[i] = idea.ID
	}
	return out
}

func TestSortIdeas(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	ideas := []models.Idea{
		{ID: "quiet", Upvotes: 2, Downvotes: 0, CreatedAt: base.Add(3 * time.Hour)},
		{ID: "busy", Upvotes: 6, Downvotes: 4, CreatedAt: base},
		{ID: "top", Upvotes: 5, Downvotes: 0, CreatedAt: base.Add(time.Hour)},
		{ID: "twin", Upvotes: 2, Downvotes: 0, CreatedAt: base.Add(2 * time.Hour)},
	}

	assert.Equal(t, []string{"top", "busy", "quiet", "twin"}, ideaIDs(SortIdeas(ideas, SortPopular)))
	assert.Equal(t, []string{"quiet", "twin", "top", "busy"}, ideaIDs(SortIdeas(ideas, SortNewest)))
	assert.Equal(t, []string{"busy", "top", "twin", "quiet"}, ideaIDs(SortIdeas(ideas, SortOldest)))
	assert.Equal(t, []string{"quiet", "busy", "top", "twin"}, ideaIDs(SortIdeas(ideas, "random")))
	assert.Equal(t, "quiet", ideas[0].ID, "input must not be reordered")
}

type staticIdeas struct{ items []models.Idea }

func (s staticIdeas) List(context.Context, IdeaQuery) (Page[models.Idea], error) {
	return Page[models.Idea]{Items: s.items}, nil
}

// toggleVotes keeps one user's votes and applies the server's toggle rules.
type toggleVotes struct {
	mu       sync.Mutex
	votes    map[string]models.VoteType
	castErr  error
	statsErr error
}

func (v *toggleVotes) Cast(_ context.Context, ideaID string, voteType models.VoteType) (*models.VoteOutcome, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.castErr != nil {
		return nil, v.castErr
	}
	outcome := &models.VoteOutcome{}
	current, ok := v.votes[ideaID]
	switch {
	case !ok:
		v.votes[ideaID] = voteType
		outcome.Result = models.VoteAdded
	case current == voteType:
		delete(v.votes, ideaID)
		outcome.Result = models.VoteRemoved
	default:
		v.votes[ideaID] = voteType
		outcome.Result = models.VoteChanged
	}
	outcome.Stats = v.tally(ideaID)
	return outcome, nil
}

func (v *toggleVotes) Stats(_ context.Context, ideaID string) (*models.VoteStats, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.statsErr != nil {
		return nil, v.statsErr
	}
	stats := v.tally(ideaID)
	return &stats, nil
}

func (v *toggleVotes) tally(ideaID string) models.VoteStats {
	stats := models.VoteStats{IdeaID: ideaID}
	switch v.votes[ideaID] {
	case models.VoteUp:
		stats.Upvotes = 1
	case models.VoteDown:
		stats.Downvotes = 1
	}
	stats.TotalVotes = stats.Upvotes + stats.Downvotes
	stats.NetScore = stats.Upvotes - stats.Downvotes
	return stats
}

func (v *toggleVotes) UserVote(_ context.Context, ideaID, userID string) (*models.Vote, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	voteType, ok := v.votes[ideaID]
	if !ok {
		return nil, nil
	}
	return &models.Vote{IdeaID: ideaID, UserID: userID, VoteType: voteType}, nil
}

func netOf(t *testing.T, b *IdeaBrowser, id string) int {
	t.Helper()
	for _, idea := range b.Ideas() {
		if idea.ID == id {
			return idea.NetScore()
		}
	}
	t.Fatalf("idea %s not loaded", id)
	return 0
}

func TestIdeaBrowserSameVoteTwiceIsNeutral(t *testing.T) {
	votes := &toggleVotes{votes: map[string]models.VoteType{"b": models.VoteDown}}
	browser := NewIdeaBrowser(staticIdeas{items: []models.Idea{{ID: "a"}, {ID: "b", Downvotes: 1}}}, votes, "student-1")
	require.NoError(t, browser.Load(context.Background(), IdeaQuery{}))
	assert.Equal(t, models.VoteDown, browser.MyVote("b"))
	assert.Equal(t, models.VoteType(""), browser.MyVote("a"))

	action, err := browser.Vote(context.Background(), "a", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteActionAdd, action)
	assert.Equal(t, 1, netOf(t, browser, "a"))
	assert.Equal(t, models.VoteUp, browser.MyVote("a"))

	action, err = browser.Vote(context.Background(), "a", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteActionRemove, action)
	assert.Equal(t, 0, netOf(t, browser, "a"))
	assert.Equal(t, models.VoteType(""), browser.MyVote("a"))

	action, err = browser.Vote(context.Background(), "b", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteActionSwitch, action)
	assert.Equal(t, 1, netOf(t, browser, "b"))
}

func TestIdeaBrowserCastFailureKeepsState(t *testing.T) {
	votes := &toggleVotes{votes: map[string]models.VoteType{}}
	browser := NewIdeaBrowser(staticIdeas{items: []models.Idea{{ID: "a", Upvotes: 3}}}, votes, "student-1")
	require.NoError(t, browser.Load(context.Background(), IdeaQuery{}))

	votes.castErr = errors.New("offline")
	_, err := browser.Vote(context.Background(), "a", models.VoteUp)
	assert.EqualError(t, err, "offline")
	assert.Equal(t, 3, netOf(t, browser, "a"))
	assert.Equal(t, models.VoteType(""), browser.MyVote("a"))
}

func TestIdeaBrowserKeepsCastWhenStatsRefreshFails(t *testing.T) {
	votes := &toggleVotes{votes: map[string]models.VoteType{"a": models.VoteUp}}
	browser := NewIdeaBrowser(staticIdeas{items: []models.Idea{{ID: "a", Upvotes: 1}}}, votes, "student-1")
	require.NoError(t, browser.Load(context.Background(), IdeaQuery{}))
	require.Equal(t, models.VoteUp, browser.MyVote("a"))

	votes.statsErr = errors.New("stats down")
	action, err := browser.Vote(context.Background(), "a", models.VoteUp)
	assert.EqualError(t, err, "stats down")
	assert.Equal(t, VoteActionRemove, action)
	assert.Equal(t, models.VoteType(""), browser.MyVote("a"))
	assert.Equal(t, 0, netOf(t, browser, "a"))

	votes.statsErr = nil
	action, err = browser.Vote(context.Background(), "a", models.VoteUp)
	require.NoError(t, err)
	assert.Equal(t, VoteActionAdd, action)
	assert.Equal(t, models.VoteUp, browser.MyVote("a"))
	assert.Equal(t, 1, netOf(t, browser, "a"))
}
