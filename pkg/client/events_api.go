package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// EventsAPI wraps /events.
type EventsAPI struct {
	c *Client
}

// Events returns the events API.
func (c *Client) Events() *EventsAPI { return &EventsAPI{c: c} }

// EventQuery filters List.
type EventQuery struct {
	ListOptions
	Statuses []models.EventStatus
	ClubID   string
	Keyword  string
}

func (a *EventsAPI) remember(events ...models.Event) {
	for _, e := range events {
		a.c.store.remember(KindEvent, e.ID, e)
	}
}

func (a *EventsAPI) changed(id string) {
	a.c.store.Invalidate(KindEvent, id)
}

func (a *EventsAPI) list(ctx context.Context, path string, query url.Values) ([]models.Event, error) {
	var events []models.Event
	if err := a.c.get(ctx, path, query, &events); err != nil {
		return nil, err
	}
	a.remember(events...)
	return events, nil
}

func (a *EventsAPI) page(ctx context.Context, path string, query url.Values) (Page[models.Event], error) {
	var events []models.Event
	pagination, err := a.c.getPage(ctx, path, query, &events)
	if err != nil {
		return Page[models.Event]{}, err
	}
	a.remember(events...)
	return Page[models.Event]{Items: events, Pagination: pagination}, nil
}

// List calls GET /events.
func (a *EventsAPI) List(ctx context.Context, q EventQuery) (Page[models.Event], error) {
	query := q.values()
	if len(q.Statuses) > 0 {
		statuses := make([]string, len(q.Statuses))
		for i, s := range q.Statuses {
			statuses[i] = string(s)
		}
		query.Set("status", strings.Join(statuses, ","))
	}
	if q.ClubID != "" {
		query.Set("clubId", q.ClubID)
	}
	if q.Keyword != "" {
		query.Set("keyword", q.Keyword)
	}
	return a.page(ctx, "/events", query)
}

// Get returns one event, served from the store when cached.
func (a *EventsAPI) Get(ctx context.Context, id string) (*models.Event, error) {
	if cached, ok := a.c.store.Get(KindEvent, id); ok {
		event := cached.(models.Event)
		return &event, nil
	}
	var event models.Event
	if err := a.c.get(ctx, "/events/"+escape(id), nil, &event); err != nil {
		return nil, err
	}
	a.remember(event)
	return &event, nil
}

// Search calls GET /events/search.
func (a *EventsAPI) Search(ctx context.Context, keyword string, opts ListOptions) (Page[models.Event], error) {
	query := opts.values()
	query.Set("keyword", keyword)
	return a.page(ctx, "/events/search", query)
}

// ByClub calls GET /events/club/:clubId.
func (a *EventsAPI) ByClub(ctx context.Context, clubID string, opts ListOptions) (Page[models.Event], error) {
	return a.page(ctx, "/events/club/"+escape(clubID), opts.values())
}

// CountByClub calls GET /events/club/:clubId/count.
func (a *EventsAPI) CountByClub(ctx context.Context, clubID string) (int, error) {
	var out struct {
		Count int `json:"count"`
	}
	err := a.c.get(ctx, "/events/club/"+escape(clubID)+"/count", nil, &out)
	return out.Count, err
}

// ClubTopics lists a club's idea-collecting topics.
func (a *EventsAPI) ClubTopics(ctx context.Context, clubID string) ([]models.Event, error) {
	return a.list(ctx, "/events/club/"+escape(clubID)+"/topics", nil)
}

// Upcoming calls GET /events/upcoming.
func (a *EventsAPI) Upcoming(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/upcoming", nil)
}

// Ongoing calls GET /events/ongoing.
func (a *EventsAPI) Ongoing(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/ongoing", nil)
}

// Active lists events that still accept ideas.
func (a *EventsAPI) Active(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/active", nil)
}

// PendingApproval lists proposals awaiting review.
func (a *EventsAPI) PendingApproval(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/pending-approval", nil)
}

// Approved lists approved proposals.
func (a *EventsAPI) Approved(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/approved", nil)
}

// Rejected lists rejected proposals.
func (a *EventsAPI) Rejected(ctx context.Context) ([]models.Event, error) {
	return a.list(ctx, "/events/rejected", nil)
}

// RejectedByClub lists one club's rejected proposals.
func (a *EventsAPI) RejectedByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	return a.list(ctx, "/events/rejected/"+escape(clubID), nil)
}

func (a *EventsAPI) mutate(ctx context.Context, method, path, id string, body any) (*models.Event, error) {
	var event models.Event
	if err := a.c.send(ctx, method, path, body, &event); err != nil {
		return nil, err
	}
	if id == "" {
		id = event.ID
	}
	a.changed(id)
	return &event, nil
}

// Create makes a draft proposal.
func (a *EventsAPI) Create(ctx context.Context, req models.EventRequest) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events", "", req)
}

// Update replaces an event's editable fields.
func (a *EventsAPI) Update(ctx context.Context, id string, req models.EventRequest) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPut, "/events/"+escape(id), id, req)
}

// Delete removes an event.
func (a *EventsAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/events/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.changed(id)
	return nil
}

// SubmitForApproval sends a draft to the super admin queue.
func (a *EventsAPI) SubmitForApproval(ctx context.Context, req models.SubmitForApprovalRequest) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events/submit-for-approval", req.EventID, req)
}

// Resubmit sends a rejected proposal back for review.
func (a *EventsAPI) Resubmit(ctx context.Context, id string) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events/resubmit-rejected/"+escape(id), id, nil)
}

// Approve approves a pending proposal.
func (a *EventsAPI) Approve(ctx context.Context, id string) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events/approve/"+escape(id), id, nil)
}

// Reject rejects a pending proposal with reason.
func (a *EventsAPI) Reject(ctx context.Context, id, reason string) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events/reject/"+escape(id), id, models.RejectEventRequest{RejectionReason: reason})
}

// ApproveProposal turns a proposal into a published event.
func (a *EventsAPI) ApproveProposal(ctx context.Context, id string, req models.ApproveProposalRequest) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPost, "/events/"+escape(id)+"/approve-proposal", id, req)
}

// Publish publishes an approved event.
func (a *EventsAPI) Publish(ctx context.Context, id string) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPut, "/events/"+escape(id)+"/publish", id, nil)
}

// ChangeStatus moves a published event through its later stages.
func (a *EventsAPI) ChangeStatus(ctx context.Context, id string, status models.EventStatus) (*models.Event, error) {
	return a.mutate(ctx, http.MethodPut, "/events/"+escape(id)+"/status", id, models.EventStatusRequest{Status: status})
}

// SubmissionState reports whether the event still takes ideas.
func (a *EventsAPI) SubmissionState(ctx context.Context, id string) (*models.SubmissionStateResponse, error) {
	var out models.SubmissionStateResponse
	if err := a.c.get(ctx, "/events/"+escape(id)+"/submission-state", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
