package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

// mockVoteRepo mirrors the toggle rules of the SQL implementation in memory.
type mockVoteRepo struct {
	votes map[string]models.VoteType
	stats models.VoteStats
}

func (m *mockVoteRepo) key(ideaID, userID string) string { return ideaID + "/" + userID }

func (m *mockVoteRepo) recount(ideaID string) models.VoteStats {
	stats := models.VoteStats{IdeaID: ideaID}
	for _, v := range m.votes {
		if v == models.VoteUp {
			stats.Upvotes++
		} else {
			stats.Downvotes++
		}
	}
	stats.TotalVotes = stats.Upvotes + stats.Downvotes
	stats.NetScore = stats.Upvotes - stats.Downvotes
	m.stats = stats
	return stats
}

func (m *mockVoteRepo) Cast(ctx context.Context, ideaID, userID string, voteType models.VoteType) (*models.VoteOutcome, error) {
	k := m.key(ideaID, userID)
	out := &models.VoteOutcome{}
	switch current, ok := m.votes[k]; {
	case !ok:
		m.votes[k] = voteType
		out.Result = models.VoteAdded
	case current == voteType:
		delete(m.votes, k)
		out.Result = models.VoteRemoved
	default:
		m.votes[k] = voteType
		out.Result = models.VoteChanged
	}
	out.Stats = m.recount(ideaID)
	return out, nil
}

func (m *mockVoteRepo) Remove(ctx context.Context, ideaID, userID string) (*models.VoteStats, error) {
	k := m.key(ideaID, userID)
	if _, ok := m.votes[k]; !ok {
		return nil, sql.ErrNoRows
	}
	delete(m.votes, k)
	stats := m.recount(ideaID)
	return &stats, nil
}

func (m *mockVoteRepo) FindByUserAndIdea(ctx context.Context, ideaID, userID string) (*models.Vote, error) {
	v, ok := m.votes[m.key(ideaID, userID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.Vote{IdeaID: ideaID, UserID: userID, VoteType: v}, nil
}

func (m *mockVoteRepo) Stats(ctx context.Context, ideaID string) (*models.VoteStats, error) {
	stats := m.stats
	return &stats, nil
}

func newVoteFixture() (*VoteService, *recordingNotifier, *countingChecker, *eventbus.Memory) {
	ideas := &mockIdeaRepo{ideas: map[string]*models.Idea{
		"i1": {ID: "i1", Title: "Bike racks", StudentID: "author", IsActive: true},
	}}
	notifier := &recordingNotifier{}
	checker := &countingChecker{}
	bus := eventbus.NewMemory()
	svc := NewVoteService(&mockVoteRepo{votes: map[string]models.VoteType{}}, ideas, nil, notifier, checker, bus, nil)
	return svc, notifier, checker, bus
}

func TestVoteServiceToggleSequence(t *testing.T) {
	svc, notifier, checker, bus := newVoteFixture()
	voter := claims("voter", models.RoleStudent)
	ctx := context.Background()

	out, err := svc.Cast(ctx, voter, "i1", models.CastVoteRequest{VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Equal(t, models.VoteAdded, out.Result)
	assert.Equal(t, 1, out.Stats.NetScore)

	out, err = svc.Cast(ctx, voter, "i1", models.CastVoteRequest{VoteType: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteChanged, out.Result)
	assert.Equal(t, -1, out.Stats.NetScore)

	out, err = svc.Cast(ctx, voter, "i1", models.CastVoteRequest{VoteType: models.VoteDown})
	require.NoError(t, err)
	assert.Equal(t, models.VoteRemoved, out.Result)
	assert.Equal(t, 0, out.Stats.TotalVotes)

	assert.Equal(t, []models.NotificationType{models.NotificationIdeaVoted}, notifier.types())
	assert.Equal(t, []string{"voter", "author", "voter", "author", "voter", "author"}, checker.users)
	assert.Equal(t, []string{"vote.added", "vote.changed", "vote.removed"}, bus.Subjects())
}

func TestVoteServiceOwnVoteDoesNotNotify(t *testing.T) {
	svc, notifier, checker, _ := newVoteFixture()

	_, err := svc.Cast(context.Background(), claims("author", models.RoleStudent), "i1", models.CastVoteRequest{VoteType: models.VoteUp})
	require.NoError(t, err)
	assert.Empty(t, notifier.messages)
	assert.Equal(t, []string{"author"}, checker.users)
}

func TestVoteServiceRejectsUnknownType(t *testing.T) {
	svc, _, _, _ := newVoteFixture()
	_, err := svc.Cast(context.Background(), claims("voter", models.RoleStudent), "i1", models.CastVoteRequest{VoteType: "SIDEWAYS"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Cast(context.Background(), claims("voter", models.RoleStudent), "missing", models.CastVoteRequest{VoteType: models.VoteUp})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVoteServiceRemoveSelfOrSuperAdmin(t *testing.T) {
	svc, _, _, _ := newVoteFixture()
	ctx := context.Background()
	_, err := svc.Cast(ctx, claims("voter", models.RoleStudent), "i1", models.CastVoteRequest{VoteType: models.VoteUp})
	require.NoError(t, err)

	_, err = svc.Remove(ctx, claims("other", models.RoleStudent), "i1", "voter")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	stats, err := svc.Remove(ctx, claims("root", models.RoleSuperAdmin), "i1", "voter")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.TotalVotes)

	_, err = svc.Remove(ctx, claims("voter", models.RoleStudent), "i1", "voter")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
