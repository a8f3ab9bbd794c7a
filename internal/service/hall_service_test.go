package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type mockHallRepo struct {
	halls     map[string]*models.Hall
	available []models.Hall
	queries   int
}

func (m *mockHallRepo) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	if h, ok := m.halls[id]; ok {
		copy := *h
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockHallRepo) ListActive(ctx context.Context) ([]models.Hall, error) {
	var out []models.Hall
	for _, h := range m.halls {
		out = append(out, *h)
	}
	return out, nil
}

func (m *mockHallRepo) Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error) {
	m.queries++
	return m.available, nil
}

func (m *mockHallRepo) Create(ctx context.Context, hall *models.Hall) error {
	hall.ID = "h-new"
	copy := *hall
	m.halls[hall.ID] = &copy
	return nil
}

func (m *mockHallRepo) Update(ctx context.Context, hall *models.Hall) error {
	copy := *hall
	m.halls[hall.ID] = &copy
	return nil
}

func (m *mockHallRepo) Deactivate(ctx context.Context, id string) error {
	m.halls[id].IsActive = false
	return nil
}

func (m *mockHallRepo) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	for id, h := range m.halls {
		if id != excludeID && strings.EqualFold(h.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func TestHallServiceAvailableSkipsInvalidQueries(t *testing.T) {
	repo := &mockHallRepo{halls: map[string]*models.Hall{}}
	svc := NewHallService(repo, nil, nil, nil)
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	for _, q := range []models.HallAvailabilityQuery{
		{Participants: 0, Start: &start, End: &end},
		{Participants: 10, Start: &start},
		{Participants: 10, Start: &end, End: &start},
	} {
		halls, err := svc.Available(context.Background(), q)
		require.NoError(t, err)
		assert.Empty(t, halls)
		assert.NotNil(t, halls)
	}
	assert.Zero(t, repo.queries)
}

func TestHallServiceBestFit(t *testing.T) {
	start := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	q := models.HallAvailabilityQuery{Participants: 40, Start: &start, End: &end}

	repo := &mockHallRepo{halls: map[string]*models.Hall{}}
	svc := NewHallService(repo, nil, nil, nil)
	_, err := svc.BestFit(context.Background(), q)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	repo.available = []models.Hall{{ID: "snug", SeatingCapacity: 50}, {ID: "huge", SeatingCapacity: 400}}
	hall, err := svc.BestFit(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, "snug", hall.ID)
}

func TestHallServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := &mockHallRepo{halls: map[string]*models.Hall{"h1": {ID: "h1", Name: "Aula"}}}
	svc := NewHallService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), models.HallRequest{Name: "aula", SeatingCapacity: 100})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	hall, err := svc.Create(context.Background(), models.HallRequest{Name: "Lab 2", SeatingCapacity: 30})
	require.NoError(t, err)
	assert.True(t, hall.IsActive)

	_, err = svc.Update(context.Background(), "h1", models.HallRequest{Name: "Aula", SeatingCapacity: 120})
	require.NoError(t, err)
}
