package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// ProblemsAPI wraps /problems.
type ProblemsAPI struct {
	c *Client
}

// Problems returns the problems API.
func (c *Client) Problems() *ProblemsAPI { return &ProblemsAPI{c: c} }

func (a *ProblemsAPI) page(ctx context.Context, path string, query url.Values) (Page[models.Problem], error) {
	var problems []models.Problem
	pagination, err := a.c.getPage(ctx, path, query, &problems)
	if err != nil {
		return Page[models.Problem]{}, err
	}
	for _, p := range problems {
		a.c.store.remember(KindProblem, p.ID, p)
	}
	return Page[models.Problem]{Items: problems, Pagination: pagination}, nil
}

// List calls GET /problems.
func (a *ProblemsAPI) List(ctx context.Context, clubID, category, search string, opts ListOptions) (Page[models.Problem], error) {
	query := opts.values()
	if clubID != "" {
		query.Set("clubId", clubID)
	}
	if category != "" {
		query.Set("category", category)
	}
	if search != "" {
		query.Set("q", search)
	}
	return a.page(ctx, "/problems", query)
}

// Trending calls GET /problems/trending.
func (a *ProblemsAPI) Trending(ctx context.Context) ([]models.Problem, error) {
	var problems []models.Problem
	if err := a.c.get(ctx, "/problems/trending", nil, &problems); err != nil {
		return nil, err
	}
	return problems, nil
}

// Search calls GET /problems/search.
func (a *ProblemsAPI) Search(ctx context.Context, keyword string, opts ListOptions) (Page[models.Problem], error) {
	query := opts.values()
	query.Set("q", keyword)
	return a.page(ctx, "/problems/search", query)
}

// ByClub lists a club's problems.
func (a *ProblemsAPI) ByClub(ctx context.Context, clubID string, opts ListOptions) (Page[models.Problem], error) {
	return a.page(ctx, "/problems/club/"+escape(clubID), opts.values())
}

// ByCategory lists problems in a category.
func (a *ProblemsAPI) ByCategory(ctx context.Context, category string, opts ListOptions) (Page[models.Problem], error) {
	return a.page(ctx, "/problems/category/"+escape(category), opts.values())
}

// Get returns one problem.
func (a *ProblemsAPI) Get(ctx context.Context, id string) (*models.Problem, error) {
	var problem models.Problem
	if err := a.c.get(ctx, "/problems/"+escape(id), nil, &problem); err != nil {
		return nil, err
	}
	a.c.store.remember(KindProblem, problem.ID, problem)
	return &problem, nil
}

// Create posts a problem.
func (a *ProblemsAPI) Create(ctx context.Context, req models.ProblemRequest) (*models.Problem, error) {
	var problem models.Problem
	if err := a.c.send(ctx, http.MethodPost, "/problems", req, &problem); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindProblem, problem.ID)
	return &problem, nil
}

// Update edits a problem.
func (a *ProblemsAPI) Update(ctx context.Context, id string, req models.ProblemRequest) (*models.Problem, error) {
	var problem models.Problem
	if err := a.c.send(ctx, http.MethodPut, "/problems/"+escape(id), req, &problem); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindProblem, id)
	return &problem, nil
}

// Delete removes a problem.
func (a *ProblemsAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/problems/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindProblem, id)
	return nil
}
