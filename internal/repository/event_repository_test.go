package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

func TestDecideEventApproves(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE events SET status = 'APPROVED'.*WHERE id = \$1 AND status = 'PENDING_APPROVAL'`).
		WithArgs("e1", "admin-1", at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Decide(context.Background(), "e1", models.EventApproved, nil, "admin-1", at)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideEventLostRace(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	reason := "venue unavailable"
	mock.ExpectExec(`UPDATE events SET status = 'REJECTED'`).
		WithArgs("e1", &reason, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Decide(context.Background(), "e1", models.EventRejected, &reason, "admin-1", time.Now())
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEventBumpsClubCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE clubs SET event_count = event_count \+ 1`).WithArgs("club-1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	event := &models.Event{Title: "Hack Night", ClubID: "club-1", OrganizerID: "u1", Status: models.EventDraft, Type: models.EventHackathon}
	require.NoError(t, repo.Create(context.Background(), event))
	assert.NotEmpty(t, event.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEventsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery(`FROM events WHERE is_active = TRUE AND club_id = \$1 AND status = ANY\(\$2::text\[\]\) ORDER BY created_at DESC LIMIT 20 OFFSET 0`).
		WithArgs("club-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "status"}).AddRow("e1", "Hack Night", "PUBLISHED"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM events WHERE is_active = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), models.EventFilter{
		ClubID:   "club-1",
		Statuses: []models.EventStatus{models.EventPublished, models.EventOngoing},
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventPublished, events[0].Status)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListClubTopicsKeepsDeadlineAtCutoff(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	cutoff := time.Date(2024, 5, 9, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM events WHERE club_id = \$1 AND status = 'PUBLISHED'.*idea_submission_deadline >= \$2`).
		WithArgs("club-1", cutoff).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("e1"))

	events, err := repo.ListClubTopics(context.Background(), "club-1", cutoff)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "e1", events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
