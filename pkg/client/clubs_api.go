package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// ClubsAPI wraps /clubs and club memberships.
type ClubsAPI struct {
	c *Client
}

// Clubs returns the clubs API.
func (c *Client) Clubs() *ClubsAPI { return &ClubsAPI{c: c} }

func (a *ClubsAPI) list(ctx context.Context, path string, query url.Values) ([]models.Club, error) {
	var clubs []models.Club
	if err := a.c.get(ctx, path, query, &clubs); err != nil {
		return nil, err
	}
	for _, club := range clubs {
		a.c.store.remember(KindClub, club.ID, club)
	}
	return clubs, nil
}

// List returns approved clubs.
func (a *ClubsAPI) List(ctx context.Context) ([]models.Club, error) {
	return a.list(ctx, "/clubs", nil)
}

// Search matches clubs by name.
func (a *ClubsAPI) Search(ctx context.Context, q string) ([]models.Club, error) {
	return a.list(ctx, "/clubs/search", url.Values{"q": {q}})
}

// Mine lists clubs the caller administers.
func (a *ClubsAPI) Mine(ctx context.Context) ([]models.Club, error) {
	return a.list(ctx, "/clubs/mine", nil)
}

// Pending lists clubs awaiting approval.
func (a *ClubsAPI) Pending(ctx context.Context) ([]models.Club, error) {
	return a.list(ctx, "/clubs/pending", nil)
}

// Get returns one club, served from the store when cached.
func (a *ClubsAPI) Get(ctx context.Context, id string) (*models.Club, error) {
	if cached, ok := a.c.store.Get(KindClub, id); ok {
		club := cached.(models.Club)
		return &club, nil
	}
	var club models.Club
	if err := a.c.get(ctx, "/clubs/"+escape(id), nil, &club); err != nil {
		return nil, err
	}
	a.c.store.remember(KindClub, club.ID, club)
	return &club, nil
}

func (a *ClubsAPI) mutate(ctx context.Context, method, path, id string, body any) (*models.Club, error) {
	var club models.Club
	if err := a.c.send(ctx, method, path, body, &club); err != nil {
		return nil, err
	}
	if id == "" {
		id = club.ID
	}
	a.c.store.Invalidate(KindClub, id)
	return &club, nil
}

// Create registers a club pending approval.
func (a *ClubsAPI) Create(ctx context.Context, req models.CreateClubRequest) (*models.Club, error) {
	return a.mutate(ctx, http.MethodPost, "/clubs", "", req)
}

// Update edits a club.
func (a *ClubsAPI) Update(ctx context.Context, id string, req models.UpdateClubRequest) (*models.Club, error) {
	return a.mutate(ctx, http.MethodPut, "/clubs/"+escape(id), id, req)
}

// Delete removes a club.
func (a *ClubsAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/clubs/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindClub, id)
	return nil
}

// Approve approves a pending club.
func (a *ClubsAPI) Approve(ctx context.Context, id string) (*models.Club, error) {
	return a.mutate(ctx, http.MethodPost, "/clubs/"+escape(id)+"/approve", id, nil)
}

// Reject rejects a pending club.
func (a *ClubsAPI) Reject(ctx context.Context, id, reason string) (*models.Club, error) {
	return a.mutate(ctx, http.MethodPost, "/clubs/"+escape(id)+"/reject", id, models.RejectRequest{Reason: reason})
}

// Members lists a club's members.
func (a *ClubsAPI) Members(ctx context.Context, clubID string) ([]models.ClubMembership, error) {
	var members []models.ClubMembership
	if err := a.c.get(ctx, "/clubs/"+escape(clubID)+"/members", nil, &members); err != nil {
		return nil, err
	}
	return members, nil
}

// MyMemberships lists the caller's memberships.
func (a *ClubsAPI) MyMemberships(ctx context.Context) ([]models.ClubMembership, error) {
	var memberships []models.ClubMembership
	if err := a.c.get(ctx, "/users/me/memberships", nil, &memberships); err != nil {
		return nil, err
	}
	return memberships, nil
}

// Join adds the caller to a club.
func (a *ClubsAPI) Join(ctx context.Context, clubID string) (*models.ClubMembership, error) {
	var membership models.ClubMembership
	if err := a.c.send(ctx, http.MethodPost, "/clubs/"+escape(clubID)+"/members/join", nil, &membership); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindClub, clubID)
	return &membership, nil
}

// Leave removes the caller from a club.
func (a *ClubsAPI) Leave(ctx context.Context, clubID string) error {
	if err := a.c.send(ctx, http.MethodPost, "/clubs/"+escape(clubID)+"/members/leave", nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindClub, clubID)
	return nil
}

// UpdateMemberRole changes a member's role.
func (a *ClubsAPI) UpdateMemberRole(ctx context.Context, clubID, membershipID string, req models.UpdateMembershipRoleRequest) (*models.ClubMembership, error) {
	var membership models.ClubMembership
	path := "/clubs/" + escape(clubID) + "/members/" + escape(membershipID) + "/role"
	if err := a.c.send(ctx, http.MethodPut, path, req, &membership); err != nil {
		return nil, err
	}
	return &membership, nil
}

// RemoveMember removes a membership.
func (a *ClubsAPI) RemoveMember(ctx context.Context, clubID, membershipID string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/clubs/"+escape(clubID)+"/members/"+escape(membershipID), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindClub, clubID)
	return nil
}
