package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Count(ctx context.Context) (int, error)
	RoleCounts(ctx context.Context) ([]models.RoleCount, error)
}

// UserService exposes read-only user administration.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *UserService) ListByRole(ctx context.Context, role models.UserRole) ([]models.User, error) {
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown role")
	}
	users, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list users by role")
	}
	return users, nil
}

func (s *UserService) Count(ctx context.Context) (int, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return 0, appErrors.Internal(err, "failed to count users")
	}
	return total, nil
}

// Analytics folds the per role and active counts into a summary.
func (s *UserService) Analytics(ctx context.Context) (*models.UserAnalytics, error) {
	rows, err := s.repo.RoleCounts(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load user analytics")
	}
	out := &models.UserAnalytics{ByRole: map[models.UserRole]int{
		models.RoleStudent:    0,
		models.RoleClubAdmin:  0,
		models.RoleSuperAdmin: 0,
	}}
	for _, row := range rows {
		out.Total += row.Count
		out.ByRole[row.Role] += row.Count
		if row.Active {
			out.Active += row.Count
		} else {
			out.Inactive += row.Count
		}
	}
	return out, nil
}

// Get returns a user by ID. Only the user or a super admin may look.
func (s *UserService) Get(ctx context.Context, actor *models.JWTClaims, id string) (*models.User, error) {
	if actorID(actor) != id && !isSuperAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another user")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "user")
	}
	return user, nil
}
