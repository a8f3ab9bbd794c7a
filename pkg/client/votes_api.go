package client

import (
	"context"
	"net/http"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// VotesAPI wraps /votes/idea/:ideaId.
type VotesAPI struct {
	c *Client
}

// Votes returns the votes API.
func (c *Client) Votes() *VotesAPI { return &VotesAPI{c: c} }

func votePath(ideaID string) string { return "/votes/idea/" + escape(ideaID) }

// Cast votes on an idea. Casting the type already held removes the vote on the
// server; the other type switches it.
func (a *VotesAPI) Cast(ctx context.Context, ideaID string, voteType models.VoteType) (*models.VoteOutcome, error) {
	var out models.VoteOutcome
	if err := a.c.send(ctx, http.MethodPost, votePath(ideaID), models.CastVoteRequest{VoteType: voteType}, &out); err != nil {
		return nil, err
	}
	a.changed(ideaID)
	return &out, nil
}

// Stats returns the tally for an idea.
func (a *VotesAPI) Stats(ctx context.Context, ideaID string) (*models.VoteStats, error) {
	var out models.VoteStats
	if err := a.c.get(ctx, votePath(ideaID)+"/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UserVote returns userID's vote on ideaID, or nil when there is none.
func (a *VotesAPI) UserVote(ctx context.Context, ideaID, userID string) (*models.Vote, error) {
	var out models.Vote
	if err := a.c.get(ctx, votePath(ideaID)+"/user/"+escape(userID), nil, &out); err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// Remove deletes userID's vote on ideaID.
func (a *VotesAPI) Remove(ctx context.Context, ideaID, userID string) (*models.VoteStats, error) {
	var out models.VoteStats
	if err := a.c.send(ctx, http.MethodDelete, votePath(ideaID)+"/user/"+escape(userID), nil, &out); err != nil {
		return nil, err
	}
	a.changed(ideaID)
	return &out, nil
}

func (a *VotesAPI) changed(ideaID string) {
	a.c.store.Invalidate(KindVote, ideaID)
	a.c.store.Invalidate(KindIdea, ideaID)
}
