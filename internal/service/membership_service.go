package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type membershipRepository interface {
	FindByID(ctx context.Context, id string) (*models.ClubMembership, error)
	FindByUserAndClub(ctx context.Context, userID, clubID string) (*models.ClubMembership, error)
	ListByClub(ctx context.Context, clubID string) ([]models.ClubMembership, error)
	ListByUser(ctx context.Context, userID string) ([]models.ClubMembership, error)
	Join(ctx context.Context, m *models.ClubMembership) error
	Leave(ctx context.Context, membershipID, clubID string) error
	UpdateRole(ctx context.Context, id string, role models.MembershipRole) error
}

type membershipClubReader interface {
	FindByID(ctx context.Context, id string) (*models.Club, error)
}

// MembershipService handles joining, leaving and moderating club rosters.
type MembershipService struct {
	repo      membershipRepository
	clubs     membershipClubReader
	validator *validator.Validate
	bus       eventbus.Publisher
	logger    *zap.Logger
}

func NewMembershipService(repo membershipRepository, clubs membershipClubReader, validate *validator.Validate, bus eventbus.Publisher, logger *zap.Logger) *MembershipService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MembershipService{repo: repo, clubs: clubs, validator: validate, bus: bus, logger: logger}
}

func (s *MembershipService) Members(ctx context.Context, clubID string) ([]models.ClubMembership, error) {
	if _, err := s.clubs.FindByID(ctx, clubID); err != nil {
		return nil, lookupError(err, "club")
	}
	items, err := s.repo.ListByClub(ctx, clubID)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list members")
	}
	return items, nil
}

func (s *MembershipService) Mine(ctx context.Context, actor *models.JWTClaims) ([]models.ClubMembership, error) {
	items, err := s.repo.ListByUser(ctx, actorID(actor))
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list memberships")
	}
	return items, nil
}

// Join adds the actor to an active club or reactivates a membership they left.
func (s *MembershipService) Join(ctx context.Context, actor *models.JWTClaims, clubID string) (*models.ClubMembership, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !club.IsActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "club is not active")
	}

	m := &models.ClubMembership{ClubID: clubID, UserID: actorID(actor), Role: models.MembershipMember}
	existing, err := s.repo.FindByUserAndClub(ctx, m.UserID, clubID)
	switch {
	case err == nil:
		switch existing.Status {
		case models.MembershipActive:
			return nil, appErrors.Clone(appErrors.ErrConflict, "already a member of this club")
		case models.MembershipBanned, models.MembershipSuspended:
			return nil, appErrors.Clone(appErrors.ErrForbidden, "membership is "+string(existing.Status))
		}
		m.ID = existing.ID
		m.Role = existing.Role
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Internal(err, "failed to load membership")
	}

	if err := s.repo.Join(ctx, m); err != nil {
		return nil, appErrors.Internal(err, "failed to join club")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindClub, clubID, "member_joined")
	return m, nil
}

func (s *MembershipService) Leave(ctx context.Context, actor *models.JWTClaims, clubID string) error {
	m, err := s.repo.FindByUserAndClub(ctx, actorID(actor), clubID)
	if err != nil {
		return lookupError(err, "membership")
	}
	if m.Role == models.MembershipOwner {
		return appErrors.Clone(appErrors.ErrPreconditionFailed, "the club owner cannot leave")
	}
	return s.leave(ctx, m)
}

func (s *MembershipService) UpdateRole(ctx context.Context, actor *models.JWTClaims, clubID, membershipID string, req models.UpdateMembershipRoleRequest) (*models.ClubMembership, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid role payload")
	}
	m, err := s.managed(ctx, actor, clubID, membershipID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateRole(ctx, m.ID, req.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "membership not found")
		}
		return nil, appErrors.Internal(err, "failed to update membership role")
	}
	m.Role = req.Role
	return m, nil
}

// Remove takes a member off the roster. Owners stay.
func (s *MembershipService) Remove(ctx context.Context, actor *models.JWTClaims, clubID, membershipID string) error {
	m, err := s.managed(ctx, actor, clubID, membershipID)
	if err != nil {
		return err
	}
	if m.Role == models.MembershipOwner {
		return appErrors.Clone(appErrors.ErrForbidden, "the club owner cannot be removed")
	}
	return s.leave(ctx, m)
}

func (s *MembershipService) leave(ctx context.Context, m *models.ClubMembership) error {
	if err := s.repo.Leave(ctx, m.ID, m.ClubID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "membership is not active")
		}
		return appErrors.Internal(err, "failed to leave club")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindClub, m.ClubID, "member_left")
	return nil
}

func (s *MembershipService) managed(ctx context.Context, actor *models.JWTClaims, clubID, membershipID string) (*models.ClubMembership, error) {
	club, err := s.clubs.FindByID(ctx, clubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !isSuperAdmin(actor) && !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the club admin can manage members")
	}
	m, err := s.repo.FindByID(ctx, membershipID)
	if err != nil {
		return nil, lookupError(err, "membership")
	}
	if m.ClubID != clubID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "membership not found")
	}
	return m, nil
}
