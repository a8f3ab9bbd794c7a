package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
)

const eventColumns = `id, title, description, type, status, club_id, organizer_id, hall_id, start_date, end_date, registration_deadline, idea_submission_deadline, accepts_ideas, location, max_participants, current_participants, registration_fee, tags, image_url, external_link, rejection_reason, approved_by, approved_at, is_active, created_at, updated_at`

// EventRepository persists events and enforces status changes with conditional updates.
type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return &event, nil
}

// List returns active events matching filter with the total count.
func (r *EventRepository) List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error) {
	var conds conditions
	conds.add("is_active = TRUE")
	if filter.ClubID != "" {
		conds.add("club_id = ?", filter.ClubID)
	}
	if len(filter.Statuses) > 0 {
		conds.add("status = ANY(?::text[])", statusArray(filter.Statuses))
	}
	if filter.Keyword != "" {
		pattern := likePattern(filter.Keyword)
		conds.add("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(tags) LIKE ?)", pattern, pattern, pattern)
	}

	order := orderBy(map[string]string{
		"createdAt": "created_at",
		"startDate": "start_date",
		"title":     "title",
		"deadline":  "idea_submission_deadline",
	}, filter.SortBy, filter.SortOrder, "createdAt")
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s FROM events%s ORDER BY %s LIMIT %d OFFSET %d", eventColumns, conds.where(), order, limit, offset)
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, conds.args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM events"+conds.where(), conds.args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// ListByStatus returns active events in status, newest first.
func (r *EventRepository) ListByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = $1 AND is_active = TRUE ORDER BY updated_at DESC`
	return r.selectEvents(ctx, "list events by status", query, status)
}

// ListRejectedByClub returns a club's rejected proposals.
func (r *EventRepository) ListRejectedByClub(ctx context.Context, clubID string) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE club_id = $1 AND status = 'REJECTED' AND is_active = TRUE ORDER BY updated_at DESC`
	return r.selectEvents(ctx, "list rejected events", query, clubID)
}

// ListUpcoming returns published events starting after now.
func (r *EventRepository) ListUpcoming(ctx context.Context, now time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = 'PUBLISHED' AND is_active = TRUE AND start_date > $1 ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list upcoming events", query, now)
}

// ListOngoing returns events whose window contains now.
func (r *EventRepository) ListOngoing(ctx context.Context, now time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active = TRUE AND status IN ('PUBLISHED', 'REGISTRATION_CLOSED', 'ONGOING') AND start_date <= $1 AND end_date >= $1 ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list ongoing events", query, now)
}

// ListClubTopics returns a club's published topics still inside the idea grace window.
func (r *EventRepository) ListClubTopics(ctx context.Context, clubID string, cutoff time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE club_id = $1 AND status = 'PUBLISHED' AND is_active = TRUE
AND (idea_submission_deadline IS NULL OR idea_submission_deadline >= $2) ORDER BY created_at DESC`
	return r.selectEvents(ctx, "list club topics", query, clubID, cutoff)
}

// ListActiveForStudents returns bookable published events: dated, located, sized and in the future.
func (r *EventRepository) ListActiveForStudents(ctx context.Context, now time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE status = 'PUBLISHED' AND is_active = TRUE
AND start_date IS NOT NULL AND end_date IS NOT NULL AND location IS NOT NULL AND location <> ''
AND max_participants > 0 AND start_date > $1 ORDER BY start_date ASC`
	return r.selectEvents(ctx, "list active events", query, now)
}

// ListCleanupCandidates returns idea-collecting events whose deadline is before cutoff and which
// were never taken forward.
func (r *EventRepository) ListCleanupCandidates(ctx context.Context, cutoff time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active = TRUE AND accepts_ideas = TRUE
AND idea_submission_deadline IS NOT NULL AND idea_submission_deadline < $1
AND status NOT IN ('PUBLISHED', 'APPROVED', 'COMPLETED', 'CANCELLED')`
	return r.selectEvents(ctx, "list cleanup events", query, cutoff)
}

func (r *EventRepository) selectEvents(ctx context.Context, op, query string, args ...interface{}) ([]models.Event, error) {
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return events, nil
}

func (r *EventRepository) CountByClub(ctx context.Context, clubID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events WHERE club_id = $1 AND is_active = TRUE`, clubID); err != nil {
		return 0, fmt.Errorf("count club events: %w", err)
	}
	return total, nil
}

// CountByStatus groups active events by status.
func (r *EventRepository) CountByStatus(ctx context.Context) ([]models.StatusCount, error) {
	var rows []models.StatusCount
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM events WHERE is_active = TRUE GROUP BY status`); err != nil {
		return nil, fmt.Errorf("count events by status: %w", err)
	}
	return rows, nil
}

// Create inserts the event and bumps the owning club's event count.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	return withTx(ctx, r.db, "create event", func(tx *sqlx.Tx) error {
		const query = `INSERT INTO events (` + eventColumns + `) VALUES (:id, :title, :description, :type, :status, :club_id, :organizer_id, :hall_id, :start_date, :end_date, :registration_deadline, :idea_submission_deadline, :accepts_ideas, :location, :max_participants, :current_participants, :registration_fee, :tags, :image_url, :external_link, :rejection_reason, :approved_by, :approved_at, :is_active, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
			return fmt.Errorf("create event: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE clubs SET event_count = event_count + 1 WHERE id = $1`, event.ClubID); err != nil {
			return fmt.Errorf("increment club event count: %w", err)
		}
		return nil
	})
}

// Update writes the editable fields; status and approval columns are untouched.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, type = :type, start_date = :start_date, end_date = :end_date,
registration_deadline = :registration_deadline, idea_submission_deadline = :idea_submission_deadline, accepts_ideas = :accepts_ideas,
location = :location, max_participants = :max_participants, registration_fee = :registration_fee, tags = :tags, image_url = :image_url,
external_link = :external_link, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	return nil
}

func (r *EventRepository) Deactivate(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE events SET is_active = FALSE, updated_at = $2 WHERE id = $1`, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate event: %w", err)
	}
	return nil
}

// SubmitForApproval moves a DRAFT or REJECTED event to PENDING_APPROVAL, clearing the old reason.
func (r *EventRepository) SubmitForApproval(ctx context.Context, id string, hallID *string) error {
	const query = `UPDATE events SET status = 'PENDING_APPROVAL', rejection_reason = NULL, hall_id = COALESCE($2, hall_id), updated_at = $3
WHERE id = $1 AND status IN ('DRAFT', 'REJECTED') AND is_active = TRUE`
	return r.execConditional(ctx, "submit event", query, id, hallID, time.Now().UTC())
}

// Decide records an approval decision on a PENDING_APPROVAL event. Losing a race yields sql.ErrNoRows.
func (r *EventRepository) Decide(ctx context.Context, id string, to models.EventStatus, reason *string, decidedBy string, at time.Time) error {
	var query string
	var args []interface{}
	if to == models.EventApproved {
		query = `UPDATE events SET status = 'APPROVED', approved_by = $2, approved_at = $3, rejection_reason = NULL, updated_at = $3 WHERE id = $1 AND status = 'PENDING_APPROVAL'`
		args = []interface{}{id, decidedBy, at}
	} else {
		query = `UPDATE events SET status = 'REJECTED', rejection_reason = $2, updated_at = $3 WHERE id = $1 AND status = 'PENDING_APPROVAL'`
		args = []interface{}{id, reason, at}
	}
	return r.execConditional(ctx, "decide event", query, args...)
}

// Transition moves an event from one status to another if it is still in from.
func (r *EventRepository) Transition(ctx context.Context, id string, from, to models.EventStatus) error {
	const query = `UPDATE events SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	return r.execConditional(ctx, "transition event", query, id, from, to, time.Now().UTC())
}

// ApproveProposal fills in the final details and publishes the event in one step.
func (r *EventRepository) ApproveProposal(ctx context.Context, event *models.Event, from models.EventStatus) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = $2, type = $3, start_date = $4, end_date = $5, location = $6, max_participants = $7,
registration_fee = $8, description = $9, status = 'PUBLISHED', approved_by = $10, approved_at = $11, updated_at = $11
WHERE id = $1 AND status = $12`
	return r.execConditional(ctx, "approve proposal", query,
		event.ID, event.Title, event.Type, event.StartDate, event.EndDate, event.Location, event.MaxParticipants,
		event.RegistrationFee, event.Description, event.ApprovedBy, event.UpdatedAt, from)
}

// Expire retires an event during cleanup.
func (r *EventRepository) Expire(ctx context.Context, id string) error {
	const query = `UPDATE events SET is_active = FALSE, status = 'COMPLETED', updated_at = $2 WHERE id = $1 AND is_active = TRUE`
	return r.execConditional(ctx, "expire event", query, id, time.Now().UTC())
}

func (r *EventRepository) execConditional(ctx context.Context, op, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func statusArray(statuses []models.EventStatus) interface{} {
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return pq.Array(values)
}
