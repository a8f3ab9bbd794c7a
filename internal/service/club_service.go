package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

const analyticsPattern = "analytics:*"

type clubRepository interface {
	FindByID(ctx context.Context, id string) (*models.Club, error)
	NameTaken(ctx context.Context, name, shortName, excludeID string) (bool, error)
	ListActive(ctx context.Context) ([]models.Club, error)
	Search(ctx context.Context, q string) ([]models.Club, error)
	ListByAdmin(ctx context.Context, userID string) ([]models.Club, error)
	ListByApproval(ctx context.Context, status models.ApprovalStatus) ([]models.Club, error)
	Create(ctx context.Context, club *models.Club) error
	Update(ctx context.Context, club *models.Club) error
	Deactivate(ctx context.Context, id string) error
	Decide(ctx context.Context, id string, status models.ApprovalStatus, reason *string) error
}

// ClubService manages clubs and their approval by super admins.
type ClubService struct {
	repo      clubRepository
	validator *validator.Validate
	notifier  Notifier
	bus       eventbus.Publisher
	cache     CacheInvalidator
	logger    *zap.Logger
}

func NewClubService(repo clubRepository, validate *validator.Validate, notifier Notifier, bus eventbus.Publisher, cache CacheInvalidator, logger *zap.Logger) *ClubService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClubService{repo: repo, validator: validate, notifier: notifier, bus: bus, cache: cache, logger: logger}
}

func (s *ClubService) List(ctx context.Context) ([]models.Club, error) {
	clubs, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list clubs")
	}
	return clubs, nil
}

func (s *ClubService) Get(ctx context.Context, id string) (*models.Club, error) {
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	return club, nil
}

func (s *ClubService) Search(ctx context.Context, q string) ([]models.Club, error) {
	if blank(q) {
		return s.List(ctx)
	}
	clubs, err := s.repo.Search(ctx, strings.TrimSpace(q))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to search clubs")
	}
	return clubs, nil
}

// Mine lists the clubs the actor administers, whatever their approval state.
func (s *ClubService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.Club, error) {
	clubs, err := s.repo.ListByAdmin(ctx, actorID(actor))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list clubs")
	}
	return clubs, nil
}

func (s *ClubService) Pending(ctx context.Context) ([]models.Club, error) {
	clubs, err := s.repo.ListByApproval(ctx, models.ApprovalPending)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list pending clubs")
	}
	return clubs, nil
}

// Create registers a club. Clubs created by a super admin skip the approval queue.
func (s *ClubService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateClubRequest) (*models.Club, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid club payload")
	}
	if err := s.ensureNameFree(ctx, req.Name, req.ShortName, ""); err != nil {
		return nil, err
	}

	club := &models.Club{
		Name:           strings.TrimSpace(req.Name),
		ShortName:      strings.TrimSpace(req.ShortName),
		Description:    req.Description,
		Category:       req.Category,
		ApprovalStatus: models.ApprovalPending,
	}
	if isSuperAdmin(actor) {
		club.ApprovalStatus = models.ApprovalApproved
		club.IsActive = true
	} else {
		club.AdminUserID = stringPtr(actorID(actor))
	}

	if err := s.repo.Create(ctx, club); err != nil {
		return nil, appErrors.Internal(err, "failed to create club")
	}
	s.changed(ctx, club.ID, "created")
	return club, nil
}

func (s *ClubService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateClubRequest) (*models.Club, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid club payload")
	}
	club, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		club.Name = strings.TrimSpace(*req.Name)
	}
	if req.ShortName != nil {
		club.ShortName = strings.TrimSpace(*req.ShortName)
	}
	if req.Description != nil {
		club.Description = *req.Description
	}
	if req.Category != nil {
		club.Category = *req.Category
	}
	if req.Name != nil || req.ShortName != nil {
		if err := s.ensureNameFree(ctx, club.Name, club.ShortName, club.ID); err != nil {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, club); err != nil {
		return nil, appErrors.Internal(err, "failed to update club")
	}
	s.changed(ctx, club.ID, "updated")
	return club, nil
}

// Delete soft deletes the club.
func (s *ClubService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.manageable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete club")
	}
	s.changed(ctx, id, "deleted")
	return nil
}

func (s *ClubService) Approve(ctx context.Context, id string) (*models.Club, error) {
	return s.decide(ctx, id, models.ApprovalApproved, nil)
}

// Reject requires a reason; it is shown to the club admin.
func (s *ClubService) Reject(ctx context.Context, id, reason string) (*models.Club, error) {
	if blank(reason) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "rejection reason is required")
	}
	return s.decide(ctx, id, models.ApprovalRejected, stringPtr(strings.TrimSpace(reason)))
}

func (s *ClubService) decide(ctx context.Context, id string, status models.ApprovalStatus, reason *string) (*models.Club, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, lookupError(err, "club")
	}
	if err := s.repo.Decide(ctx, id, status, reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "club is not pending approval")
		}
		return nil, appErrors.Internal(err, "failed to update club approval")
	}

	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "club")
	}

	action := "approved"
	title := "Club approved"
	message := club.Name + " has been approved."
	if status == models.ApprovalRejected {
		action = "rejected"
		title = "Club rejected"
		message = club.Name + " was rejected: " + *reason
	}
	if club.AdminUserID != nil {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            *club.AdminUserID,
			Title:             title,
			Message:           message,
			Type:              models.NotificationClubAnnouncement,
			RelatedEntityID:   club.ID,
			RelatedEntityType: eventbus.KindClub,
		})
	}
	s.changed(ctx, club.ID, action)
	return club, nil
}

// manageable loads the club and checks that actor may change it.
func (s *ClubService) manageable(ctx context.Context, actor *models.JWTClaims, id string) (*models.Club, error) {
	club, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !isSuperAdmin(actor) && !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the club admin can manage this club")
	}
	return club, nil
}

func (s *ClubService) ensureNameFree(ctx context.Context, name, shortName, excludeID string) error {
	taken, err := s.repo.NameTaken(ctx, strings.TrimSpace(name), strings.TrimSpace(shortName), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check club name")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "club name or short name already in use")
	}
	return nil
}

func (s *ClubService) changed(ctx context.Context, id, action string) {
	publishChange(ctx, s.bus, s.logger, eventbus.KindClub, id, action)
	invalidate(ctx, s.cache, s.logger, analyticsPattern)
}
