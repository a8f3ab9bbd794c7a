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
	"github.com/noah-isme/event-idea-marketplace/internal/repository"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type registrationRepository interface {
	FindByID(ctx context.Context, id string) (*models.EventRegistration, error)
	ListByEvent(ctx context.Context, eventID string) ([]models.EventRegistration, error)
	ListByUser(ctx context.Context, userID string) ([]models.EventRegistration, error)
	CountByEvent(ctx context.Context, eventID string) (*models.RegistrationCount, error)
	Register(ctx context.Context, reg *models.EventRegistration) error
	Cancel(ctx context.Context, eventID, userID string) (*models.EventRegistration, error)
	UpdateStatus(ctx context.Context, id string, status *models.RegistrationStatus, payment *models.PaymentStatus) error
}

// RegistrationService handles event sign-ups and the waitlist.
type RegistrationService struct {
	repo      registrationRepository
	events    eventReader
	clubs     clubReader
	validator *validator.Validate
	notifier  Notifier
	bus       eventbus.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewRegistrationService(repo registrationRepository, events eventReader, clubs clubReader, validate *validator.Validate, notifier Notifier, bus eventbus.Publisher, logger *zap.Logger) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegistrationService{repo: repo, events: events, clubs: clubs, validator: validate, notifier: notifier, bus: bus, logger: logger, now: time.Now}
}

// Register signs the caller up. Full events put the caller on the waitlist.
func (s *RegistrationService) Register(ctx context.Context, actor *models.JWTClaims, req models.RegisterEventRequest) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration payload")
	}
	event, err := s.events.FindByID(ctx, req.EventID)
	if err != nil {
		return nil, lookupError(err, "event")
	}
	if !event.IsActive || event.Status != models.EventPublished {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "event is not open for registration")
	}
	if event.RegistrationDeadline != nil && s.now().After(*event.RegistrationDeadline) {
		return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "registration deadline has passed")
	}

	reg := &models.EventRegistration{
		EventID:       event.ID,
		UserID:        actorID(actor),
		PaymentStatus: models.PaymentNotRequired,
		Notes:         strings.TrimSpace(req.Notes),
	}
	if event.RegistrationFee > 0 {
		reg.PaymentStatus = models.PaymentPending
	}
	if err := s.repo.Register(ctx, reg); err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyRegistered):
			return nil, appErrors.Clone(appErrors.ErrConflict, "already registered for this event")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Internal(err, "failed to register")
	}

	s.logger.Info("event registration", zap.String("event_id", reg.EventID), zap.String("user_id", reg.UserID), zap.String("status", string(reg.Status)))
	publishChange(ctx, s.bus, s.logger, eventbus.KindRegistration, reg.ID, strings.ToLower(string(reg.Status)))
	return reg, nil
}

// Cancel releases the caller's seat and promotes the next waitlisted user.
func (s *RegistrationService) Cancel(ctx context.Context, actor *models.JWTClaims, eventID string) error {
	if blank(eventID) {
		return appErrors.Clone(appErrors.ErrValidation, "eventId is required")
	}
	promoted, err := s.repo.Cancel(ctx, eventID, actorID(actor))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		}
		return appErrors.Internal(err, "failed to cancel registration")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindRegistration, eventID, "cancelled")

	if promoted != nil {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            promoted.UserID,
			Title:             "You're in",
			Message:           "A seat opened up and your waitlisted registration is now confirmed",
			Type:              models.NotificationEventAnnouncement,
			RelatedEntityID:   eventID,
			RelatedEntityType: "event",
		})
		publishChange(ctx, s.bus, s.logger, eventbus.KindRegistration, promoted.ID, "promoted")
	}
	return nil
}

// ByEvent lists registrations for organizers, club admins and super admins.
func (s *RegistrationService) ByEvent(ctx context.Context, actor *models.JWTClaims, eventID string) ([]models.EventRegistration, error) {
	if _, err := s.manageable(ctx, actor, eventID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list registrations")
	}
	return nonNilRegistrations(items), nil
}

func (s *RegistrationService) ByUser(ctx context.Context, actor *models.JWTClaims, userID string) ([]models.EventRegistration, error) {
	if !isSuperAdmin(actor) && actorID(actor) != userID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another user's registrations")
	}
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list registrations")
	}
	return nonNilRegistrations(items), nil
}

func (s *RegistrationService) Count(ctx context.Context, eventID string) (*models.RegistrationCount, error) {
	count, err := s.repo.CountByEvent(ctx, eventID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count registrations")
	}
	return count, nil
}

// UpdateStatus records attendance or payment for one registration.
func (s *RegistrationService) UpdateStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.RegistrationStatusRequest) (*models.EventRegistration, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid registration status payload")
	}
	if req.Status == nil && req.PaymentStatus == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status or paymentStatus is required")
	}
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "registration")
	}
	if _, err := s.manageable(ctx, actor, reg.EventID); err != nil {
		return nil, err
	}
	if req.Status != nil && !reg.Status.HoldsSeat() {
		return nil, appErrors.Clone(appErrors.ErrConflict, "attendance can only be recorded for a confirmed registration")
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.PaymentStatus); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "registration not found")
		case errors.Is(err, repository.ErrSeatStatus):
			return nil, appErrors.Clone(appErrors.ErrValidation, "use register or cancel to change a seat")
		}
		return nil, appErrors.Internal(err, "failed to update registration")
	}
	if req.Status != nil {
		reg.Status = *req.Status
	}
	if req.PaymentStatus != nil {
		reg.PaymentStatus = *req.PaymentStatus
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindRegistration, id, "updated")
	return reg, nil
}

func (s *RegistrationService) manageable(ctx context.Context, actor *models.JWTClaims, eventID string) (*models.Event, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, lookupError(err, "event")
	}
	if isSuperAdmin(actor) || event.OrganizerID == actorID(actor) {
		return event, nil
	}
	club, err := s.clubs.FindByID(ctx, event.ClubID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Internal(err, "failed to load club")
	}
	if club == nil || !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage registrations for this event")
	}
	return event, nil
}

func nonNilRegistrations(items []models.EventRegistration) []models.EventRegistration {
	if items == nil {
		return []models.EventRegistration{}
	}
	return items
}
