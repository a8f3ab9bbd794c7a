package client

import (
	"context"
	"strconv"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// UsersAPI wraps /users.
type UsersAPI struct {
	c *Client
}

// Users returns the users API.
func (c *Client) Users() *UsersAPI { return &UsersAPI{c: c} }

// List calls GET /users. role and active are optional.
func (a *UsersAPI) List(ctx context.Context, role models.UserRole, active *bool, search string, opts ListOptions) (Page[models.User], error) {
	query := opts.values()
	if role != "" {
		query.Set("role", string(role))
	}
	if active != nil {
		query.Set("active", strconv.FormatBool(*active))
	}
	if search != "" {
		query.Set("search", search)
	}
	var users []models.User
	pagination, err := a.c.getPage(ctx, "/users", query, &users)
	if err != nil {
		return Page[models.User]{}, err
	}
	return Page[models.User]{Items: users, Pagination: pagination}, nil
}

// ByRole lists users holding role.
func (a *UsersAPI) ByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	if err := a.c.get(ctx, "/users/by-role/"+escape(string(role)), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users.
func (a *UsersAPI) Count(ctx context.Context) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := a.c.get(ctx, "/users/count", nil, &out)
	return out.Count, err
}

// Analytics returns user totals by role.
func (a *UsersAPI) Analytics(ctx context.Context) (*models.UserAnalytics, error) {
	var out models.UserAnalytics
	if err := a.c.get(ctx, "/users/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one user.
func (a *UsersAPI) Get(ctx context.Context, id string) (*models.User, error) {
	if cached, ok := a.c.store.Get(KindUser, id); ok {
		user := cached.(models.User)
		return &user, nil
	}
	var user models.User
	if err := a.c.get(ctx, "/users/"+escape(id), nil, &user); err != nil {
		return nil, err
	}
	a.c.store.remember(KindUser, user.ID, user)
	return &user, nil
}
