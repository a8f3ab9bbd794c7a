package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

const hallColumns = `id, name, seating_capacity, description, location, facilities, is_active, created_at, updated_at`

// hallFitSlack is how many spare seats still count as a snug fit.
const hallFitSlack = 20

// HallRepository persists halls and answers availability questions.
type HallRepository struct {
	db *sqlx.DB
}

func NewHallRepository(db *sqlx.DB) *HallRepository {
	return &HallRepository{db: db}
}

func (r *HallRepository) FindByID(ctx context.Context, id string) (*models.Hall, error) {
	var hall models.Hall
	if err := r.db.GetContext(ctx, &hall, `SELECT `+hallColumns+` FROM halls WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find hall: %w", err)
	}
	return &hall, nil
}

// ListActive returns active halls, smallest first.
func (r *HallRepository) ListActive(ctx context.Context) ([]models.Hall, error) {
	var halls []models.Hall
	if err := r.db.SelectContext(ctx, &halls, `SELECT `+hallColumns+` FROM halls WHERE is_active = TRUE ORDER BY seating_capacity ASC, name ASC`); err != nil {
		return nil, fmt.Errorf("list halls: %w", err)
	}
	return halls, nil
}

// Available returns active halls seating q.Participants that no live event holds during the window.
// Events without dates block their hall. Halls within hallFitSlack seats of the need sort first.
func (r *HallRepository) Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error) {
	const query = `SELECT ` + hallColumns + ` FROM halls h
WHERE h.is_active = TRUE
  AND h.seating_capacity >= $1
  AND NOT EXISTS (
    SELECT 1 FROM events e
    WHERE e.hall_id = h.id
      AND e.id <> $4
      AND e.status NOT IN ('CANCELLED', 'COMPLETED')
      AND (e.start_date IS NULL OR e.end_date IS NULL OR (e.start_date <= $3 AND e.end_date >= $2))
  )
ORDER BY CASE WHEN h.seating_capacity <= $1 + $5 THEN 0 ELSE 1 END, h.seating_capacity ASC`
	var halls []models.Hall
	if err := r.db.SelectContext(ctx, &halls, query, q.Participants, *q.Start, *q.End, q.ExcludeEventID, hallFitSlack); err != nil {
		return nil, fmt.Errorf("list available halls: %w", err)
	}
	return halls, nil
}

func (r *HallRepository) Create(ctx context.Context, hall *models.Hall) error {
	if hall.ID == "" {
		hall.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	hall.CreatedAt = now
	hall.UpdatedAt = now
	const query = `INSERT INTO halls (id, name, seating_capacity, description, location, facilities, is_active, created_at, updated_at)
VALUES (:id, :name, :seating_capacity, :description, :location, :facilities, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, hall); err != nil {
		return fmt.Errorf("create hall: %w", err)
	}
	return nil
}

func (r *HallRepository) Update(ctx context.Context, hall *models.Hall) error {
	hall.UpdatedAt = time.Now().UTC()
	const query = `UPDATE halls SET name = :name, seating_capacity = :seating_capacity, description = :description, location = :location, facilities = :facilities, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, hall); err != nil {
		return fmt.Errorf("update hall: %w", err)
	}
	return nil
}

func (r *HallRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE halls SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate hall: %w", err)
	}
	return nil
}

// NameTaken reports whether another hall uses name.
func (r *HallRepository) NameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM halls WHERE LOWER(name) = LOWER($1) AND id <> $2)`, name, excludeID); err != nil {
		return false, fmt.Errorf("check hall name: %w", err)
	}
	return exists, nil
}
