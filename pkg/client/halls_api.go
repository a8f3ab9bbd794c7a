package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// HallsAPI wraps /halls.
type HallsAPI struct {
	c *Client
}

// Halls returns the halls API.
func (c *Client) Halls() *HallsAPI { return &HallsAPI{c: c} }

func availabilityValues(q models.HallAvailabilityQuery) url.Values {
	query := url.Values{}
	if q.Participants > 0 {
		query.Set("participants", strconv.Itoa(q.Participants))
	}
	if q.Start != nil {
		query.Set("startTime", q.Start.UTC().Format(time.RFC3339))
	}
	if q.End != nil {
		query.Set("endTime", q.End.UTC().Format(time.RFC3339))
	}
	if q.ExcludeEventID != "" {
		query.Set("excludeEventId", q.ExcludeEventID)
	}
	return query
}

// List returns active halls.
func (a *HallsAPI) List(ctx context.Context) ([]models.Hall, error) {
	var halls []models.Hall
	if err := a.c.get(ctx, "/halls", nil, &halls); err != nil {
		return nil, err
	}
	for _, h := range halls {
		a.c.store.remember(KindHall, h.ID, h)
	}
	return halls, nil
}

// Get returns one hall.
func (a *HallsAPI) Get(ctx context.Context, id string) (*models.Hall, error) {
	if cached, ok := a.c.store.Get(KindHall, id); ok {
		hall := cached.(models.Hall)
		return &hall, nil
	}
	var hall models.Hall
	if err := a.c.get(ctx, "/halls/"+escape(id), nil, &hall); err != nil {
		return nil, err
	}
	a.c.store.remember(KindHall, hall.ID, hall)
	return &hall, nil
}

// Available lists halls free for the requested window and size.
func (a *HallsAPI) Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error) {
	var halls []models.Hall
	if err := a.c.get(ctx, "/halls/available", availabilityValues(q), &halls); err != nil {
		return nil, err
	}
	return halls, nil
}

// BestFit returns the smallest free hall that seats everyone.
func (a *HallsAPI) BestFit(ctx context.Context, q models.HallAvailabilityQuery) (*models.Hall, error) {
	var hall models.Hall
	if err := a.c.get(ctx, "/halls/best-fit", availabilityValues(q), &hall); err != nil {
		return nil, err
	}
	return &hall, nil
}

// Create adds a hall.
func (a *HallsAPI) Create(ctx context.Context, req models.HallRequest) (*models.Hall, error) {
	var hall models.Hall
	if err := a.c.send(ctx, http.MethodPost, "/halls", req, &hall); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindHall, hall.ID)
	return &hall, nil
}

// Update replaces a hall.
func (a *HallsAPI) Update(ctx context.Context, id string, req models.HallRequest) (*models.Hall, error) {
	var hall models.Hall
	if err := a.c.send(ctx, http.MethodPut, "/halls/"+escape(id), req, &hall); err != nil {
		return nil, err
	}
	a.c.store.Invalidate(KindHall, id)
	return &hall, nil
}

// Delete deactivates a hall.
func (a *HallsAPI) Delete(ctx context.Context, id string) error {
	if err := a.c.send(ctx, http.MethodDelete, "/halls/"+escape(id), nil, nil); err != nil {
		return err
	}
	a.c.store.Invalidate(KindHall, id)
	return nil
}
