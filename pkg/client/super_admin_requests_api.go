package client

import (
	"context"
	"net/http"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// SuperAdminRequestsAPI wraps /super-admin-requests.
type SuperAdminRequestsAPI struct {
	c *Client
}

// SuperAdminRequests returns the super admin requests API.
func (c *Client) SuperAdminRequests() *SuperAdminRequestsAPI { return &SuperAdminRequestsAPI{c: c} }

func (a *SuperAdminRequestsAPI) list(ctx context.Context, path string) ([]models.SuperAdminRequest, error) {
	var requests []models.SuperAdminRequest
	if err := a.c.get(ctx, path, nil, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

// Submit applies for a super admin account. It needs no token.
func (a *SuperAdminRequestsAPI) Submit(ctx context.Context, req models.CreateSuperAdminRequest) (*models.SuperAdminRequest, error) {
	var out models.SuperAdminRequest
	if err := a.c.send(ctx, http.MethodPost, "/super-admin-requests", req, &out); err != nil {
		return nil, err
	}
	a.c.store.InvalidateKind(KindSuperAdminRequest)
	return &out, nil
}

// Pending lists open applications.
func (a *SuperAdminRequestsAPI) Pending(ctx context.Context) ([]models.SuperAdminRequest, error) {
	return a.list(ctx, "/super-admin-requests/pending")
}

// All lists every application.
func (a *SuperAdminRequestsAPI) All(ctx context.Context) ([]models.SuperAdminRequest, error) {
	return a.list(ctx, "/super-admin-requests/all")
}

// CountPending returns the number of open applications.
func (a *SuperAdminRequestsAPI) CountPending(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := a.c.get(ctx, "/super-admin-requests/count", nil, &out)
	return out.Count, err
}

// Approve grants an application.
func (a *SuperAdminRequestsAPI) Approve(ctx context.Context, id string) (*models.SuperAdminRequest, error) {
	var out models.SuperAdminRequest
	if err := a.c.send(ctx, http.MethodPost, "/super-admin-requests/"+escape(id)+"/approve", nil, &out); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindSuperAdminRequest, id)
	return &out, nil
}

// Reject declines an application. reason may be empty.
func (a *SuperAdminRequestsAPI) Reject(ctx context.Context, id, reason string) (*models.SuperAdminRequest, error) {
	var out models.SuperAdminRequest
	if err := a.c.send(ctx, http.MethodPost, "/super-admin-requests/"+escape(id)+"/reject", models.RejectRequest{Reason: reason}, &out); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindSuperAdminRequest, id)
	return &out, nil
}
