package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type superAdminRequestRepository interface {
	Create(ctx context.Context, req *models.SuperAdminRequest) error
	FindByID(ctx context.Context, id string) (*models.SuperAdminRequest, error)
	ListPending(ctx context.Context) ([]models.SuperAdminRequest, error)
	ListAll(ctx context.Context) ([]models.SuperAdminRequest, error)
	CountPending(ctx context.Context) (int, error)
	ExistsPendingByEmail(ctx context.Context, email string) (bool, error)
	Approve(ctx context.Context, id, approvedBy string, user *models.User) error
	Reject(ctx context.Context, id, rejectedBy string, reason *string) error
}

type userByEmailFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// SuperAdminRequestService handles applications for super admin access.
type SuperAdminRequestService struct {
	repo      superAdminRequestRepository
	users     userByEmailFinder
	validator *validator.Validate
	bus       eventbus.Publisher
	logger    *zap.Logger
}

func NewSuperAdminRequestService(repo superAdminRequestRepository, users userByEmailFinder, validate *validator.Validate, bus eventbus.Publisher, logger *zap.Logger) *SuperAdminRequestService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SuperAdminRequestService{repo: repo, users: users, validator: validate, bus: bus, logger: logger}
}

// Submit files a new application. The password is stored hashed until approval.
func (s *SuperAdminRequestService) Submit(ctx context.Context, req models.CreateSuperAdminRequest) (*models.SuperAdminRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid request payload")
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	pending, err := s.repo.ExistsPendingByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check pending requests")
	}
	if pending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a request for this email is already pending")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to hash password")
	}
	request := &models.SuperAdminRequest{Name: strings.TrimSpace(req.Name), Email: email, PasswordHash: string(hash)}
	if err := s.repo.Create(ctx, request); err != nil {
		return nil, appErrors.Internal(err, "failed to create request")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindSuperAdminRequest, request.ID, "created")
	return request, nil
}

func (s *SuperAdminRequestService) Pending(ctx context.Context) ([]models.SuperAdminRequest, error) {
	items, err := s.repo.ListPending(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	return items, nil
}

func (s *SuperAdminRequestService) All(ctx context.Context) ([]models.SuperAdminRequest, error) {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list requests")
	}
	return items, nil
}

func (s *SuperAdminRequestService) CountPending(ctx context.Context) (int, error) {
	total, err := s.repo.CountPending(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count requests")
	}
	return total, nil
}

// Approve creates the super admin account from the stored application.
func (s *SuperAdminRequestService) Approve(ctx context.Context, actor *models.JWTClaims, id string) (*models.SuperAdminRequest, error) {
	request, err := s.pending(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureEmailFree(ctx, request.Email); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         request.Name,
		Email:        request.Email,
		PasswordHash: request.PasswordHash,
		Role:         models.RoleSuperAdmin,
		IsActive:     true,
	}
	if err := s.repo.Approve(ctx, id, actorID(actor), user); err != nil {
		return nil, s.decisionError(err)
	}
	s.logger.Info("super admin request approved", zap.String("request_id", id), zap.String("user_id", user.ID))
	publishChange(ctx, s.bus, s.logger, eventbus.KindSuperAdminRequest, id, "approved")
	return s.reload(ctx, id)
}

// Reject closes the application; the reason is optional.
func (s *SuperAdminRequestService) Reject(ctx context.Context, actor *models.JWTClaims, id, reason string) (*models.SuperAdminRequest, error) {
	if _, err := s.pending(ctx, id); err != nil {
		return nil, err
	}
	var stored *string
	if !blank(reason) {
		stored = stringPtr(strings.TrimSpace(reason))
	}
	if err := s.repo.Reject(ctx, id, actorID(actor), stored); err != nil {
		return nil, s.decisionError(err)
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindSuperAdminRequest, id, "rejected")
	return s.reload(ctx, id)
}

func (s *SuperAdminRequestService) pending(ctx context.Context, id string) (*models.SuperAdminRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "request")
	}
	if request.Status != models.ApprovalPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, "request was already "+strings.ToLower(string(request.Status)))
	}
	return request, nil
}

func (s *SuperAdminRequestService) reload(ctx context.Context, id string) (*models.SuperAdminRequest, error) {
	request, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "request")
	}
	return request, nil
}

func (s *SuperAdminRequestService) ensureEmailFree(ctx context.Context, email string) error {
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Internal(err, "failed to check email")
	}
	return nil
}

func (s *SuperAdminRequestService) decisionError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrConflict, "request is no longer pending")
	}
	return appErrors.Internal(err, "failed to record decision")
}
