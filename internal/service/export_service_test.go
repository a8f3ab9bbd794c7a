package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type pagedEventStub struct {
	events  []models.Event
	filters []models.EventFilter
}

func (p *pagedEventStub) FindByID(_ context.Context, id string) (*models.Event, error) {
	for _, e := range p.events {
		if e.ID == id {
			copy := e
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

// List serves two rows per page so the exporter has to walk pages.
func (p *pagedEventStub) List(_ context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	p.filters = append(p.filters, filter)
	var matched []models.Event
	for _, e := range p.events {
		if len(filter.Statuses) == 0 || e.Status == filter.Statuses[0] {
			matched = append(matched, e)
		}
	}
	start := (filter.Page - 1) * 2
	if start >= len(matched) {
		return nil, len(matched), nil
	}
	end := start + 2
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], len(matched), nil
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestExportEventsReportCSV(t *testing.T) {
	created := time.Date(2024, 4, 1, 8, 0, 0, 0, time.UTC)
	events := &pagedEventStub{events: []models.Event{
		{ID: "1", Title: "Hackathon", Status: models.EventPendingApproval, ClubID: "c1", CreatedAt: created},
		{ID: "2", Title: "Bazaar", Status: models.EventPublished, ClubID: "c1", CreatedAt: created},
		{ID: "3", Title: "Workshop", Status: models.EventPendingApproval, ClubID: "c2", CreatedAt: created},
		{ID: "4", Title: "Seminar", Status: models.EventPendingApproval, ClubID: "c2", CreatedAt: created},
	}}
	svc := NewExportService(events, &mockIdeaRepo{}, newMockClubRepo(), nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) }

	doc, err := svc.EventsReport(context.Background(), claims("root", models.RoleSuperAdmin), models.EventPendingApproval, "csv")
	require.NoError(t, err)
	assert.Equal(t, "event-proposals-20240402.csv", doc.FileName)
	assert.Equal(t, "text/csv; charset=utf-8", doc.ContentType)

	rows := readCSV(t, doc.Data)
	require.Len(t, rows, 4)
	assert.Equal(t, "Title", rows[0][0])
	assert.Equal(t, []string{"Hackathon", "Workshop", "Seminar"}, []string{rows[1][0], rows[2][0], rows[3][0]})
	assert.Len(t, events.filters, 2)
}

func TestExportEventsReportRequiresSuperAdmin(t *testing.T) {
	svc := NewExportService(&pagedEventStub{}, &mockIdeaRepo{}, newMockClubRepo(), nil)
	_, err := svc.EventsReport(context.Background(), claims("u1", models.RoleClubAdmin), "", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.EventsReport(context.Background(), claims("root", models.RoleSuperAdmin), "", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportIdeaLeaderboard(t *testing.T) {
	eventID := "ev-1"
	events := &pagedEventStub{events: []models.Event{{ID: eventID, Title: "Spring Fest 2024", ClubID: "c1", OrganizerID: "org"}}}
	ideas := &mockIdeaRepo{ideas: map[string]*models.Idea{
		"a": {ID: "a", Title: "Food court", EventID: &eventID, Upvotes: 3, Downvotes: 1, VoteCount: 2, IsActive: true},
		"b": {ID: "b", Title: "Concert", EventID: &eventID, Upvotes: 9, Downvotes: 2, VoteCount: 7, IsActive: true},
		"c": {ID: "c", Title: "Art wall", EventID: &eventID, Upvotes: 6, Downvotes: 4, VoteCount: 2, IsActive: true},
	}}
	svc := NewExportService(events, ideas, newMockClubRepo(), nil)
	svc.now = func() time.Time { return time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC) }

	doc, err := svc.IdeaLeaderboard(context.Background(), claims("org", models.RoleClubAdmin), eventID, "")
	require.NoError(t, err)
	assert.Equal(t, "idea-leaderboard-spring-fest-2024-20240402.csv", doc.FileName)

	rows := readCSV(t, doc.Data)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"1", "Concert"}, rows[1][:2])
	assert.Equal(t, []string{"2", "Art wall"}, rows[2][:2])
	assert.Equal(t, []string{"3", "Food court"}, rows[3][:2])

	_, err = svc.IdeaLeaderboard(context.Background(), claims("stranger", models.RoleClubAdmin), eventID, "csv")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportIdeaLeaderboardPDF(t *testing.T) {
	eventID := "ev-1"
	events := &pagedEventStub{events: []models.Event{{ID: eventID, Title: "Expo", ClubID: "c1"}}}
	svc := NewExportService(events, &mockIdeaRepo{ideas: map[string]*models.Idea{}}, newMockClubRepo(), nil)

	doc, err := svc.IdeaLeaderboard(context.Background(), claims("root", models.RoleSuperAdmin), eventID, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Data, []byte("%PDF")))
}
