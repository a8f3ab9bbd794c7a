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

const topIdeasLimit = 10

type ideaRepository interface {
	FindByID(ctx context.Context, id string) (*models.Idea, error)
	List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, int, error)
	Top(ctx context.Context, limit int) ([]models.Idea, error)
	CountActiveByAuthorAndEvent(ctx context.Context, userID, eventID string) (int, error)
	Create(ctx context.Context, idea *models.Idea) error
	Update(ctx context.Context, idea *models.Idea) error
	UpdateStatus(ctx context.Context, id string, status models.IdeaStatus) error
	Deactivate(ctx context.Context, id string) error
}

type eventReader interface {
	FindByID(ctx context.Context, id string) (*models.Event, error)
}

type problemReader interface {
	FindByID(ctx context.Context, id string) (*models.Problem, error)
}

// IdeaService accepts and moderates ideas posted against events and problems.
type IdeaService struct {
	repo         ideaRepository
	events       eventReader
	problems     problemReader
	clubs        clubReader
	validator    *validator.Validate
	notifier     Notifier
	achievements AchievementChecker
	bus          eventbus.Publisher
	logger       *zap.Logger
	now          func() time.Time
}

func NewIdeaService(repo ideaRepository, events eventReader, problems problemReader, clubs clubReader, validate *validator.Validate, notifier Notifier, achievements AchievementChecker, bus eventbus.Publisher, logger *zap.Logger) *IdeaService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IdeaService{
		repo:         repo,
		events:       events,
		problems:     problems,
		clubs:        clubs,
		validator:    validate,
		notifier:     notifier,
		achievements: achievements,
		bus:          bus,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func (s *IdeaService) List(ctx context.Context, filter models.IdeaFilter) ([]models.Idea, *models.Pagination, error) {
	ideas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list ideas")
	}
	return ideas, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Top returns the ten best ideas by net votes.
func (s *IdeaService) Top(ctx context.Context) ([]models.Idea, error) {
	ideas, err := s.repo.Top(ctx, topIdeasLimit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list top ideas")
	}
	return ideas, nil
}

func (s *IdeaService) Get(ctx context.Context, id string) (*models.Idea, error) {
	idea, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "idea")
	}
	if !idea.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
	}
	return idea, nil
}

// SubmissionStatus tells the actor how many more ideas they may post to the event.
func (s *IdeaService) SubmissionStatus(ctx context.Context, actor *models.JWTClaims, eventID string) (*models.IdeaSubmissionStatus, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, lookupError(err, "event")
	}
	count, err := s.repo.CountActiveByAuthorAndEvent(ctx, actorID(actor), eventID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to count ideas")
	}
	remaining := models.MaxIdeasPerEvent - count
	if remaining < 0 {
		remaining = 0
	}
	return &models.IdeaSubmissionStatus{
		EventID:        eventID,
		SubmittedCount: count,
		Remaining:      remaining,
		MaxAllowed:     models.MaxIdeasPerEvent,
		CanSubmit:      remaining > 0 && acceptingIdeas(event, s.now()),
	}, nil
}

// Create posts an idea to exactly one event or problem.
func (s *IdeaService) Create(ctx context.Context, actor *models.JWTClaims, req models.IdeaRequest) (*models.Idea, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid idea payload")
	}
	hasEvent := req.EventID != nil && *req.EventID != ""
	hasProblem := req.ProblemID != nil && *req.ProblemID != ""
	if hasEvent == hasProblem {
		return nil, appErrors.Clone(appErrors.ErrValidation, "exactly one of eventId or problemId is required")
	}

	idea := &models.Idea{
		Title:              strings.TrimSpace(req.Title),
		Description:        req.Description,
		ExpectedOutcome:    req.ExpectedOutcome,
		ImplementationPlan: req.ImplementationPlan,
		Resources:          req.Resources,
		EstimatedCost:      req.EstimatedCost,
		EstimatedDuration:  req.EstimatedDuration,
		Status:             models.IdeaSubmitted,
		StudentID:          actorID(actor),
		IsActive:           true,
	}

	var owner, ownerKind, topic string
	if hasEvent {
		event, err := s.events.FindByID(ctx, *req.EventID)
		if err != nil {
			return nil, lookupError(err, "event")
		}
		if !acceptingIdeas(event, s.now()) {
			return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "this event is no longer accepting ideas")
		}
		count, err := s.repo.CountActiveByAuthorAndEvent(ctx, idea.StudentID, event.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "failed to count ideas")
		}
		if count >= models.MaxIdeasPerEvent {
			return nil, appErrors.Clone(appErrors.ErrLimitReached, "you have already submitted the maximum number of ideas for this event")
		}
		idea.EventID = &event.ID
		owner, ownerKind, topic = event.OrganizerID, eventbus.KindEvent, event.Title
	} else {
		problem, err := s.problems.FindByID(ctx, *req.ProblemID)
		if err != nil {
			return nil, lookupError(err, "problem")
		}
		if problem.Status != models.ProblemOpen || problem.Expired(s.now()) {
			return nil, appErrors.Clone(appErrors.ErrDeadlinePassed, "this problem is no longer accepting ideas")
		}
		idea.ProblemID = &problem.ID
		owner, ownerKind, topic = problem.PostedBy, eventbus.KindProblem, problem.Title
	}

	if err := s.repo.Create(ctx, idea); err != nil {
		return nil, appErrors.Internal(err, "failed to create idea")
	}

	if owner != "" && owner != idea.StudentID {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            owner,
			Title:             "New idea submitted",
			Message:           idea.Title + " was submitted to " + topic + ".",
			Type:              models.NotificationNewIdea,
			RelatedEntityID:   idea.ID,
			RelatedEntityType: eventbus.KindIdea,
		})
	}
	s.logger.Debug("idea created", zap.String("idea_id", idea.ID), zap.String("parent_kind", ownerKind))
	checkAchievements(ctx, s.achievements, s.logger, idea.StudentID)
	publishChange(ctx, s.bus, s.logger, eventbus.KindIdea, idea.ID, "created")
	return idea, nil
}

func (s *IdeaService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.IdeaRequest) (*models.Idea, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid idea payload")
	}
	idea, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	idea.Title = strings.TrimSpace(req.Title)
	idea.Description = req.Description
	idea.ExpectedOutcome = req.ExpectedOutcome
	idea.ImplementationPlan = req.ImplementationPlan
	idea.Resources = req.Resources
	idea.EstimatedCost = req.EstimatedCost
	idea.EstimatedDuration = req.EstimatedDuration
	if err := s.repo.Update(ctx, idea); err != nil {
		return nil, appErrors.Internal(err, "failed to update idea")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindIdea, idea.ID, "updated")
	return idea, nil
}

// ChangeStatus moves an idea through review. Club admins may only review ideas for their own club.
func (s *IdeaService) ChangeStatus(ctx context.Context, actor *models.JWTClaims, id string, req models.IdeaStatusRequest) (*models.Idea, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid status payload")
	}
	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isSuperAdmin(actor) {
		if actor == nil || actor.Role != models.RoleClubAdmin {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "only club admins can review ideas")
		}
		clubID, err := s.owningClub(ctx, idea)
		if err != nil {
			return nil, err
		}
		club, err := s.clubs.FindByID(ctx, clubID)
		if err != nil {
			return nil, lookupError(err, "club")
		}
		if !club.AdministeredBy(actor.UserID) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "idea belongs to another club")
		}
	}

	if err := s.repo.UpdateStatus(ctx, idea.ID, req.Status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Internal(err, "failed to update idea status")
	}
	previous := idea.Status
	idea.Status = req.Status

	if previous != req.Status {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            idea.StudentID,
			Title:             "Idea status updated",
			Message:           idea.Title + " is now " + string(req.Status) + ".",
			Type:              models.NotificationIdeaStatusChanged,
			RelatedEntityID:   idea.ID,
			RelatedEntityType: eventbus.KindIdea,
		})
	}
	checkAchievements(ctx, s.achievements, s.logger, idea.StudentID)
	publishChange(ctx, s.bus, s.logger, eventbus.KindIdea, idea.ID, "status_changed")
	return idea, nil
}

// Delete soft deletes the idea.
func (s *IdeaService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	idea, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, idea.ID); err != nil {
		return appErrors.Internal(err, "failed to delete idea")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindIdea, idea.ID, "deleted")
	return nil
}

func (s *IdeaService) owned(ctx context.Context, actor *models.JWTClaims, id string) (*models.Idea, error) {
	idea, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if idea.StudentID != actorID(actor) && !isSuperAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can change this idea")
	}
	return idea, nil
}

func (s *IdeaService) owningClub(ctx context.Context, idea *models.Idea) (string, error) {
	if idea.EventID != nil {
		event, err := s.events.FindByID(ctx, *idea.EventID)
		if err != nil {
			return "", lookupError(err, "event")
		}
		return event.ClubID, nil
	}
	if idea.ProblemID != nil {
		problem, err := s.problems.FindByID(ctx, *idea.ProblemID)
		if err != nil {
			return "", lookupError(err, "problem")
		}
		return problem.ClubID, nil
	}
	return "", appErrors.Clone(appErrors.ErrNotFound, "idea has no owning club")
}
