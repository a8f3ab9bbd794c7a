package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

// ErrAlreadyRegistered is returned when the user holds a live registration for the event.
var ErrAlreadyRegistered = errors.New("already registered")

// ErrSeatStatus is returned when UpdateStatus is asked for a status that moves a seat.
var ErrSeatStatus = errors.New("status change moves a seat")

const registrationSelect = `SELECT r.id, r.event_id, r.user_id, COALESCE(u.name, '') AS user_name, r.status, r.payment_status, r.notes, r.registration_date, r.updated_at
FROM event_registrations r LEFT JOIN users u ON u.id = r.user_id`

// RegistrationRepository manages event seats and the waitlist.
type RegistrationRepository struct {
	db *sqlx.DB
}

func NewRegistrationRepository(db *sqlx.DB) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

func (r *RegistrationRepository) FindByID(ctx context.Context, id string) (*models.EventRegistration, error) {
	var reg models.EventRegistration
	if err := r.db.GetContext(ctx, &reg, registrationSelect+` WHERE r.id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error) {
	var items []models.EventRegistration
	if err := r.db.SelectContext(ctx, &items, registrationSelect+` WHERE r.event_id = $1 ORDER BY r.registration_date ASC`, eventID); err != nil {
		return nil, fmt.Errorf("list event registrations: %w", err)
	}
	return items, nil
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error) {
	var items []models.EventRegistration
	if err := r.db.SelectContext(ctx, &items, registrationSelect+` WHERE r.user_id = $1 ORDER BY r.registration_date DESC`, userID); err != nil {
		return nil, fmt.Errorf("list user registrations: %w", err)
	}
	return items, nil
}

func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID string) (*models.RegistrationCount, error) {
	const query = `SELECT $1::text AS event_id,
  COUNT(*) FILTER (WHERE status = 'REGISTERED') AS registered,
  COUNT(*) FILTER (WHERE status = 'WAITLISTED') AS waitlisted,
  COUNT(*) FILTER (WHERE status = 'ATTENDED') AS attended
FROM event_registrations WHERE event_id = $1`
	var count models.RegistrationCount
	if err := r.db.GetContext(ctx, &count, query, eventID); err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	return &count, nil
}

// Register seats the user, or waitlists them when the event is full. A cancelled
// registration is reactivated in place. The event row is locked so capacity checks
// cannot interleave. A missing event yields sql.ErrNoRows.
func (r *RegistrationRepository) Register(ctx context.Context, reg *models.EventRegistration) error {
	return withTx(ctx, r.db, "register", func(tx *sqlx.Tx) error {
		var seats struct {
			Max     int `db:"max_participants"`
			Current int `db:"current_participants"`
		}
		if err := tx.GetContext(ctx, &seats, `SELECT max_participants, current_participants FROM events WHERE id = $1 AND is_active = TRUE FOR UPDATE`, reg.EventID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("lock event: %w", err)
		}

		var existing struct {
			ID     string                    `db:"id"`
			Status models.RegistrationStatus `db:"status"`
		}
		err := tx.GetContext(ctx, &existing, `SELECT id, status FROM event_registrations WHERE event_id = $1 AND user_id = $2`, reg.EventID, reg.UserID)
		if err != nil && err != sql.ErrNoRows {
			return fmt.Errorf("find registration: %w", err)
		}
		found := err == nil
		if found && existing.Status != models.RegistrationCancelled {
			return ErrAlreadyRegistered
		}

		reg.Status = models.RegistrationRegistered
		if seats.Max > 0 && seats.Current >= seats.Max {
			reg.Status = models.RegistrationWaitlisted
		}
		now := time.Now().UTC()
		reg.RegistrationDate = now
		reg.UpdatedAt = now

		if found {
			reg.ID = existing.ID
			const query = `UPDATE event_registrations SET status = :status, payment_status = :payment_status, notes = :notes, registration_date = :registration_date, updated_at = :updated_at WHERE id = :id`
			if _, err := tx.NamedExecContext(ctx, query, reg); err != nil {
				return fmt.Errorf("reactivate registration: %w", err)
			}
		} else {
			if reg.ID == "" {
				reg.ID = uuid.NewString()
			}
			const query = `INSERT INTO event_registrations (id, event_id, user_id, status, payment_status, notes, registration_date, updated_at)
VALUES (:id, :event_id, :user_id, :status, :payment_status, :notes, :registration_date, :updated_at)`
			if _, err := tx.NamedExecContext(ctx, query, reg); err != nil {
				return fmt.Errorf("insert registration: %w", err)
			}
		}

		if reg.Status == models.RegistrationRegistered {
			if _, err := tx.ExecContext(ctx, `UPDATE events SET current_participants = current_participants + 1 WHERE id = $1`, reg.EventID); err != nil {
				return fmt.Errorf("increment participants: %w", err)
			}
		}
		return nil
	})
}

// Cancel releases the user's registration. When a seat frees up the oldest waitlisted
// registration takes it and is returned; otherwise promoted is nil.
func (r *RegistrationRepository) Cancel(ctx context.Context, eventID, userID string) (promoted *models.EventRegistration, err error) {
	err = withTx(ctx, r.db, "cancel registration", func(tx *sqlx.Tx) error {
		var current struct {
			ID     string                    `db:"id"`
			Status models.RegistrationStatus `db:"status"`
		}
		if err := tx.GetContext(ctx, &current, `SELECT id, status FROM event_registrations WHERE event_id = $1 AND user_id = $2 AND status <> 'CANCELLED' FOR UPDATE`, eventID, userID); err != nil {
			if err == sql.ErrNoRows {
				return err
			}
			return fmt.Errorf("find registration: %w", err)
		}

		now := time.Now().UTC()
		if _, err := tx.ExecContext(ctx, `UPDATE event_registrations SET status = 'CANCELLED', updated_at = $2 WHERE id = $1`, current.ID, now); err != nil {
			return fmt.Errorf("cancel registration: %w", err)
		}
		if current.Status != models.RegistrationRegistered {
			return nil
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET current_participants = GREATEST(current_participants - 1, 0) WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("decrement participants: %w", err)
		}

		const promote = `UPDATE event_registrations SET status = 'REGISTERED', updated_at = $2
WHERE id = (SELECT id FROM event_registrations WHERE event_id = $1 AND status = 'WAITLISTED' ORDER BY registration_date ASC LIMIT 1 FOR UPDATE)
RETURNING id, event_id, user_id, status, payment_status, notes, registration_date, updated_at`
		var next models.EventRegistration
		if err := tx.GetContext(ctx, &next, promote, eventID, now); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return fmt.Errorf("promote waitlist: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE events SET current_participants = current_participants + 1 WHERE id = $1`, eventID); err != nil {
			return fmt.Errorf("increment participants: %w", err)
		}
		promoted = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return promoted, nil
}

// UpdateStatus records attendance or payment. Nil fields are left unchanged.
// Attendance is only recorded on registrations that hold a seat, so the
// participant counter never moves here.
func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status *models.RegistrationStatus, payment *models.PaymentStatus) error {
	if status != nil && !status.IsAttendance() {
		return ErrSeatStatus
	}
	const query = `UPDATE event_registrations SET status = COALESCE($2, status), payment_status = COALESCE($3, payment_status), updated_at = $4
WHERE id = $1 AND ($2::text IS NULL OR status IN ('REGISTERED', 'ATTENDED', 'NO_SHOW'))`
	res, err := r.db.ExecContext(ctx, query, id, status, payment, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update registration: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
