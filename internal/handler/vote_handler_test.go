package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type fakeVoteService struct {
	voteService
	cast models.CastVoteRequest
}

func (f *fakeVoteService) Cast(_ context.Context, actor *models.JWTClaims, ideaID string, req models.CastVoteRequest) (*models.VoteOutcome, error) {
	f.cast = req
	return &models.VoteOutcome{Result: models.VoteAdded, Stats: models.VoteStats{IdeaID: ideaID, Upvotes: 1, TotalVotes: 1, NetScore: 1}}, nil
}

func (f *fakeVoteService) UserVote(context.Context, string, string) (*models.Vote, error) {
	return nil, appErrors.Clone(appErrors.ErrNotFound, "vote not found")
}

func (f *fakeVoteService) Remove(_ context.Context, actor *models.JWTClaims, ideaID, userID string) (*models.VoteStats, error) {
	if actor.UserID != userID {
		return nil, appErrors.ErrForbidden
	}
	return &models.VoteStats{IdeaID: ideaID}, nil
}

func TestVoteHandlerCast(t *testing.T) {
	svc := &fakeVoteService{}
	handler := NewVoteHandler(svc)

	c, rec := newTestContext(http.MethodPost, "/votes/idea/i1", map[string]string{"voteType": "UP"}, student("s1"))
	c.AddParam("ideaId", "i1")
	handler.Cast(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.VoteUp, svc.cast.VoteType)
	assert.Contains(t, rec.Body.String(), `"result":"ADDED"`)
}

func TestVoteHandlerUserVoteAndRemove(t *testing.T) {
	handler := NewVoteHandler(&fakeVoteService{})

	c, rec := newTestContext(http.MethodGet, "/votes/idea/i1/user/s1", nil, nil)
	c.AddParam("ideaId", "i1")
	c.AddParam("userId", "s1")
	handler.UserVote(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	c, rec = newTestContext(http.MethodDelete, "/votes/idea/i1/user/s2", nil, student("s1"))
	c.AddParam("ideaId", "i1")
	c.AddParam("userId", "s2")
	handler.Remove(c)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
