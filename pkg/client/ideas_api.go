package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// IdeasAPI wraps /ideas.
type IdeasAPI struct {
	c *Client
}

// Ideas returns the ideas API.
func (c *Client) Ideas() *IdeasAPI { return &IdeasAPI{c: c} }

// IdeaQuery filters List.
type IdeaQuery struct {
	ListOptions
	EventID   string
	ProblemID string
	StudentID string
	Status    models.IdeaStatus
	Featured  *bool
	Search    string
}

func (a *IdeasAPI) page(ctx context.Context, path string, query url.Values) (Page[models.Idea], error) {
	var ideas []models.Idea
	pagination, err := a.c.getPage(ctx, path, query, &ideas)
	if err != nil {
		return Page[models.Idea]{}, err
	}
	for _, idea := range ideas {
		a.c.store.remember(KindIdea, idea.ID, idea)
	}
	return Page[models.Idea]{Items: ideas, Pagination: pagination}, nil
}

// List calls GET /ideas.
func (a *IdeasAPI) List(ctx context.Context, q IdeaQuery) (Page[models.Idea], error) {
	query := q.values()
	set := func(key, value string) {
		if value != "" {
			query.Set(key, value)
		}
	}
	set("eventId", q.EventID)
	set("problemId", q.ProblemID)
	set("studentId", q.StudentID)
	set("status", string(q.Status))
	set("q", q.Search)
	if q.Featured != nil {
		query.Set("featured", strconv.FormatBool(*q.Featured))
	}
	return a.page(ctx, "/ideas", query)
}

// Top returns the highest voted ideas.
func (a *IdeasAPI) Top(ctx context.Context) ([]models.Idea, error) {
	var ideas []models.Idea
	if err := a.c.get(ctx, "/ideas/top", nil, &ideas); err != nil {
		return nil, err
	}
	return ideas, nil
}

// Featured calls GET /ideas/featured.
func (a *IdeasAPI) Featured(ctx context.Context, opts ListOptions) (Page[models.Idea], error) {
	return a.page(ctx, "/ideas/featured", opts.values())
}

// Search calls GET /ideas/search.
func (a *IdeasAPI) Search(ctx context.Context, keyword string, opts ListOptions) (Page[models.Idea], error) {
	query := opts.values()
	query.Set("q", keyword)
	return a.page(ctx, "/ideas/search", query)
}

// ByProblem lists ideas answering a problem.
func (a *IdeasAPI) ByProblem(ctx context.Context, problemID string, opts ListOptions) (Page[models.Idea], error) {
	return a.page(ctx, "/ideas/problem/"+escape(problemID), opts.values())
}

// ByEvent lists ideas submitted to an event.
func (a *IdeasAPI) ByEvent(ctx context.Context, eventID string, opts ListOptions) (Page[models.Idea], error) {
	return a.page(ctx, "/ideas/event/"+escape(eventID), opts.values())
}

// ByUser lists a student's ideas.
func (a *IdeasAPI) ByUser(ctx context.Context, userID string, opts ListOptions) (Page[models.Idea], error) {
	return a.page(ctx, "/ideas/user/"+escape(userID), opts.values())
}

// ByStatus lists ideas in one review status.
func (a *IdeasAPI) ByStatus(ctx context.Context, status models.IdeaStatus, opts ListOptions) (Page[models.Idea], error) {
	return a.page(ctx, "/ideas/status/"+escape(string(status)), opts.values())
}

// Get returns one idea. It always hits the API because vote counts move often.
func (a *IdeasAPI) Get(ctx context.Context, id string) (*models.Idea, error) {
	var idea models.Idea
	if err := a.c.get(ctx, "/ideas/"+escape(id), nil, &idea); err != nil {
		return nil, err
	}
	a.c.store.remember(KindIdea, idea.ID, idea)
	return &idea, nil
}

// SubmissionStatus reports how many more ideas the caller may post to an event.
func (a *IdeasAPI) SubmissionStatus(ctx context.Context, eventID string) (*models.IdeaSubmissionStatus, error) {
	var out models.IdeaSubmissionStatus
	if err := a.c.get(ctx, "/ideas/event/"+escape(eventID)+"/submission-status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *IdeasAPI) mutate(ctx context.Context, method, path, id string, body any) (*models.Idea, error) {
	var idea models.Idea
	if err := a.c.send(ctx, method, path, body, &idea); err != nil {
		return nil, err
	}
	if id == "" {
		id = idea.ID
	}
	a.c.store.Invalidate(KindIdea, id)
	return &idea, nil
}

// Create submits an idea.
func (a *IdeasAPI) Create(ctx context.Context, req models.IdeaRequest) (*models.Idea, error) {
	return a.mutate(ctx, http.MethodPost, "/ideas", "", req)
}

// Update edits an idea.
func (a *IdeasAPI) Update(ctx context.Context, id string, req models.IdeaRequest) (*models.Idea, error) {
	return a.mutate(ctx, http.MethodPut, "/ideas/"+escape(id), id, req)
}

// ChangeStatus moves an idea through review.
func (a *IdeasAPI) ChangeStatus(ctx context.Context, id string, status models.IdeaStatus) (*models.Idea, error) {
	return a.mutate(ctx, http.MethodPut, "/ideas/"+escape(id)+"/status", id, models.IdeaStatusRequest{Status: status})
}

// Delete removes an idea.
func (a *IdeasAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/ideas/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindIdea, id)
	return nil
}
