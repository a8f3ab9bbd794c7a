package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type eventRepository interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, int, error)
	ListByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error)
	ListRejectedByClub(ctx context.Context, clubID string) ([]models.Event, error)
	ListUpcoming(ctx context.Context, now time.Time) ([]models.Event, error)
	ListOngoing(ctx context.Context, now time.Time) ([]models.Event, error)
	ListClubTopics(ctx context.Context, clubID string, cutoff time.Time) ([]models.Event, error)
	ListActiveForStudents(ctx context.Context, now time.Time) ([]models.Event, error)
	CountByClub(ctx context.Context, clubID string) (int, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Deactivate(ctx context.Context, id string) error
	SubmitForApproval(ctx context.Context, id string, hallID *string) error
	Decide(ctx context.Context, id string, to models.EventStatus, reason *string, decidedBy string, at time.Time) error
	Transition(ctx context.Context, id string, from, to models.EventStatus) error
	ApproveProposal(ctx context.Context, event *models.Event, from models.EventStatus) error
}

type clubReader interface {
	FindByID(ctx context.Context, id string) (*models.Club, error)
}

type hallReader interface {
	FindByID(ctx context.Context, id string) (*models.Hall, error)
}

// EventService runs the proposal lifecycle from draft to completion.
type EventService struct {
	repo      eventRepository
	clubs     clubReader
	halls     hallReader
	validator *validator.Validate
	notifier  Notifier
	bus       eventbus.Publisher
	cache     CacheInvalidator
	logger    *zap.Logger
	now       func() time.Time
}

func NewEventService(repo eventRepository, clubs clubReader, halls hallReader, validate *validator.Validate, notifier Notifier, bus eventbus.Publisher, cache CacheInvalidator, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{
		repo:      repo,
		clubs:     clubs,
		halls:     halls,
		validator: validate,
		notifier:  notifier,
		bus:       bus,
		cache:     cache,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *EventService) List(ctx context.Context, filter models.EventFilter) ([]models.Event, *models.Pagination, error) {
	events, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list events")
	}
	return events, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	event, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "event")
	}
	return event, nil
}

func (s *EventService) Search(ctx context.Context, keyword string, page, pageSize int) ([]models.Event, *models.Pagination, error) {
	return s.List(ctx, models.EventFilter{Keyword: strings.TrimSpace(keyword), Page: page, PageSize: pageSize})
}

func (s *EventService) ByClub(ctx context.Context, clubID string, page, pageSize int) ([]models.Event, *models.Pagination, error) {
	return s.List(ctx, models.EventFilter{ClubID: clubID, Page: page, PageSize: pageSize})
}

func (s *EventService) CountByClub(ctx context.Context, clubID string) (int, error) {
	total, err := s.repo.CountByClub(ctx, clubID)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count events")
	}
	return total, nil
}

func (s *EventService) Upcoming(ctx context.Context) ([]models.Event, error) {
	return s.listed(s.repo.ListUpcoming(ctx, s.now()))
}

func (s *EventService) Ongoing(ctx context.Context) ([]models.Event, error) {
	return s.listed(s.repo.ListOngoing(ctx, s.now()))
}

// ClubTopics lists a club's published topics whose idea deadline passed less than a day ago, or have none.
func (s *EventService) ClubTopics(ctx context.Context, clubID string) ([]models.Event, error) {
	return s.listed(s.repo.ListClubTopics(ctx, clubID, s.now().Add(-topicGracePeriod)))
}

// ActiveForStudents lists published events a student can still sign up for.
func (s *EventService) ActiveForStudents(ctx context.Context) ([]models.Event, error) {
	return s.listed(s.repo.ListActiveForStudents(ctx, s.now()))
}

func (s *EventService) ByStatus(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	return s.listed(s.repo.ListByStatus(ctx, status))
}

// RejectedByClub lists rejected proposals for the club's admin.
func (s *EventService) RejectedByClub(ctx context.Context, actor *models.JWTClaims, clubID string) ([]models.Event, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !isSuperAdmin(actor) && !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the club admin can view rejected proposals")
	}
	return s.listed(s.repo.ListRejectedByClub(ctx, clubID))
}

func (s *EventService) listed(events []models.Event, err error) ([]models.Event, error) {
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list events")
	}
	return events, nil
}

// Create stores a new DRAFT event for a club the actor administers.
func (s *EventService) Create(ctx context.Context, actor *models.JWTClaims, req models.EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid event payload")
	}
	if err := validateEventDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	club, err := s.clubs.FindByID(ctx, req.ClubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !isSuperAdmin(actor) && !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the club admin can create events")
	}

	event := &models.Event{
		Status:       models.EventDraft,
		ClubID:       club.ID,
		OrganizerID:  actorID(actor),
		AcceptsIdeas: true,
		IsActive:     true,
	}
	applyEventRequest(event, req)
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, appErrors.Internal(err, "failed to create event")
	}
	s.changed(ctx, event.ID, "created")
	return event, nil
}

func (s *EventService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid event payload")
	}
	if err := validateEventDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	event, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if event.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is "+string(event.Status))
	}
	applyEventRequest(event, req)
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, appErrors.Internal(err, "failed to update event")
	}
	s.changed(ctx, event.ID, "updated")
	return event, nil
}

// Delete soft deletes the event.
func (s *EventService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.editable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete event")
	}
	s.changed(ctx, id, "deleted")
	return nil
}

// SubmitForApproval queues a draft or rejected event for review, optionally reserving a hall.
func (s *EventService) SubmitForApproval(ctx context.Context, actor *models.JWTClaims, req models.SubmitForApprovalRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid submission payload")
	}
	event, err := s.editable(ctx, actor, req.EventID)
	if err != nil {
		return nil, err
	}
	if !canTransition(event.Status, models.EventPendingApproval, isSuperAdmin(actor)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only draft or rejected events can be submitted")
	}
	if req.HallID != nil && *req.HallID != "" {
		hall, err := s.halls.FindByID(ctx, *req.HallID)
		if err != nil {
			return nil, lookupError(err, "hall")
		}
		if !hall.IsActive {
			return nil, appErrors.Clone(appErrors.ErrValidation, "hall is not active")
		}
		if hall.SeatingCapacity < event.MaxParticipants {
			return nil, appErrors.Clone(appErrors.ErrValidation, "hall is too small for the expected participants")
		}
	} else {
		req.HallID = nil
	}

	if err := s.repo.SubmitForApproval(ctx, event.ID, req.HallID); err != nil {
		return nil, s.transitionError(err, "failed to submit event")
	}
	s.changed(ctx, event.ID, "submitted")
	return s.Get(ctx, event.ID)
}

// Resubmit sends a rejected proposal back to review.
func (s *EventService) Resubmit(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventRejected {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "only rejected events can be resubmitted")
	}
	return s.SubmitForApproval(ctx, actor, models.SubmitForApprovalRequest{EventID: id})
}

func (s *EventService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error) {
	return s.decide(ctx, actor, id, models.EventApproved, nil)
}

// Reject refuses a pending proposal. A reason is mandatory.
func (s *EventService) Reject(ctx context.Context, actor *models.JWTClaims, id string, req models.RejectEventRequest) (*models.Event, error) {
	if blank(req.RejectionReason) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	return s.decide(ctx, actor, id, models.EventRejected, stringPtr(strings.TrimSpace(req.RejectionReason)))
}

func (s *EventService) decide(ctx context.Context, actor *models.JWTClaims, id string, to models.EventStatus, reason *string) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if event.Status != models.EventPendingApproval {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is not pending approval")
	}
	if err := s.repo.Decide(ctx, id, to, reason, actorID(actor), s.now()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "event was already decided")
		}
		return nil, appErrors.Internal(err, "failed to record decision")
	}

	msg := models.NotificationMessage{
		UserID:            event.OrganizerID,
		Type:              models.NotificationEventAnnouncement,
		RelatedEntityID:   event.ID,
		RelatedEntityType: eventbus.KindEvent,
	}
	action := "approved"
	if to == models.EventApproved {
		msg.Title = "Event approved"
		msg.Message = event.Title + " has been approved."
	} else {
		action = "rejected"
		msg.Title = "Event rejected"
		msg.Message = event.Title + " was rejected: " + *reason
	}
	s.notifier.Notify(ctx, msg)
	s.changed(ctx, id, action)
	return s.Get(ctx, id)
}

// ApproveProposal fills in the final details of a pending or approved proposal and publishes it.
func (s *EventService) ApproveProposal(ctx context.Context, actor *models.JWTClaims, id string, req models.ApproveProposalRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid proposal payload")
	}
	if err := validateEventDates(req.StartDate, req.EndDate); err != nil {
		return nil, err
	}
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := event.Status
	if from != models.EventPendingApproval && from != models.EventApproved {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "event is not awaiting approval")
	}

	event.Title = strings.TrimSpace(req.Title)
	event.Type = req.Type
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	event.Location = stringPtr(strings.TrimSpace(req.Location))
	event.MaxParticipants = req.MaxParticipants
	event.RegistrationFee = req.RegistrationFee
	event.Description = req.Description
	event.ApprovedBy = stringPtr(actorID(actor))
	if err := s.repo.ApproveProposal(ctx, event, from); err != nil {
		return nil, s.transitionError(err, "failed to approve proposal")
	}

	s.notifier.Notify(ctx, models.NotificationMessage{
		UserID:            event.OrganizerID,
		Title:             "Event published",
		Message:           event.Title + " is now published.",
		Type:              models.NotificationEventAnnouncement,
		RelatedEntityID:   event.ID,
		RelatedEntityType: eventbus.KindEvent,
	})
	s.changed(ctx, id, "published")
	return s.Get(ctx, id)
}

// Publish makes an approved event public. Super admins may publish drafts directly.
func (s *EventService) Publish(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error) {
	return s.transition(ctx, actor, id, models.EventPublished, "published")
}

// ChangeStatus moves an event along the later part of its lifecycle.
func (s *EventService) ChangeStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.EventStatusRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}
	return s.transition(ctx, actor, id, req.Status, strings.ToLower(string(req.Status)))
}

func (s *EventService) transition(ctx context.Context, actor *models.JWTClaims, id string, to models.EventStatus, action string) (*models.Event, error) {
	event, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !canTransition(event.Status, to, isSuperAdmin(actor)) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "cannot move event from "+string(event.Status)+" to "+string(to))
	}
	if err := s.repo.Transition(ctx, id, event.Status, to); err != nil {
		return nil, s.transitionError(err, "failed to update event status")
	}
	s.changed(ctx, id, action)
	return s.Get(ctx, id)
}

// SubmissionState reports whether the event currently takes ideas.
func (s *EventService) SubmissionState(ctx context.Context, id string) (*models.SubmissionStateResponse, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.SubmissionStateResponse{
		EventID:  event.ID,
		State:    submissionState(event, s.now()),
		Deadline: event.IdeaSubmissionDeadline,
	}, nil
}

// editable loads the event and checks that actor is its organizer, its club admin or a super admin.
func (s *EventService) editable(ctx context.Context, actor *models.JWTClaims, id string) (*models.Event, error) {
	event, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if isSuperAdmin(actor) || event.OrganizerID == actorID(actor) {
		return event, nil
	}
	club, err := s.clubs.FindByID(ctx, event.ClubID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load club")
	}
	if club == nil || !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage this event")
	}
	return event, nil
}

func (s *EventService) transitionError(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConflict, "event status changed concurrently")
	}
	return appErrors.Internal(err, msg)
}

func (s *EventService) changed(ctx context.Context, id, action string) {
	publishChange(ctx, s.bus, s.logger, eventbus.KindEvent, id, action)
	invalidate(ctx, s.cache, s.logger, analyticsPattern)
}

func validateEventDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return appErrors.Clone(appErrors.ErrValidation, "end date must not be before start date")
	}
	return nil
}

func applyEventRequest(event *models.Event, req models.EventRequest) {
	event.Title = strings.TrimSpace(req.Title)
	event.Description = req.Description
	event.Type = req.Type
	if event.Type == "" {
		event.Type = models.EventOther
	}
	event.StartDate = req.StartDate
	event.EndDate = req.EndDate
	event.RegistrationDeadline = req.RegistrationDeadline
	event.IdeaSubmissionDeadline = req.IdeaSubmissionDeadline
	if req.AcceptsIdeas != nil {
		event.AcceptsIdeas = *req.AcceptsIdeas
	}
	event.Location = req.Location
	event.MaxParticipants = req.MaxParticipants
	event.RegistrationFee = req.RegistrationFee
	event.Tags = req.Tags
	event.ImageURL = req.ImageURL
	event.ExternalLink = req.ExternalLink
}
