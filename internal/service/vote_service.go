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

type voteRepository interface {
	Cast(ctx context.Context, ideaID, userID string, voteType models.VoteType) (*models.VoteOutcome, error)
	Remove(ctx context.Context, ideaID, userID string) (*models.VoteStats, error)
	FindByUserAndIdea(ctx context.Context, ideaID, userID string) (*models.Vote, error)
	Stats(ctx context.Context, ideaID string) (*models.VoteStats, error)
}

type ideaReader interface {
	FindByID(ctx context.Context, id string) (*models.Idea, error)
}

// VoteService records up and down votes on ideas.
type VoteService struct {
	repo         voteRepository
	ideas        ideaReader
	validator    *validator.Validate
	notifier     Notifier
	achievements AchievementChecker
	bus          eventbus.Publisher
	logger       *zap.Logger
}

func NewVoteService(repo voteRepository, ideas ideaReader, validate *validator.Validate, notifier Notifier, achievements AchievementChecker, bus eventbus.Publisher, logger *zap.Logger) *VoteService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VoteService{repo: repo, ideas: ideas, validator: validate, notifier: notifier, achievements: achievements, bus: bus, logger: logger}
}

// Cast toggles the actor's vote. Repeating a vote removes it; the opposite type switches it.
func (s *VoteService) Cast(ctx context.Context, actor *models.JWTClaims, ideaID string, req models.CastVoteRequest) (*models.VoteOutcome, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid vote payload")
	}
	idea, err := s.activeIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	voter := actorID(actor)

	outcome, err := s.repo.Cast(ctx, ideaID, voter, req.VoteType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
		}
		return nil, appErrors.Internal(err, "failed to cast vote")
	}

	if outcome.Result == models.VoteAdded && idea.StudentID != voter {
		direction := "upvoted"
		if req.VoteType == models.VoteDown {
			direction = "downvoted"
		}
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            idea.StudentID,
			Title:             "New vote on your idea",
			Message:           "Someone " + direction + " " + idea.Title + ".",
			Type:              models.NotificationIdeaVoted,
			RelatedEntityID:   idea.ID,
			RelatedEntityType: eventbus.KindIdea,
		})
	}
	s.afterVote(ctx, idea, voter, strings.ToLower(string(outcome.Result)))
	return outcome, nil
}

func (s *VoteService) Stats(ctx context.Context, ideaID string) (*models.VoteStats, error) {
	stats, err := s.repo.Stats(ctx, ideaID)
	if err != nil {
		return nil, lookupError(err, "idea")
	}
	return stats, nil
}

func (s *VoteService) UserVote(ctx context.Context, ideaID, userID string) (*models.Vote, error) {
	vote, err := s.repo.FindByUserAndIdea(ctx, ideaID, userID)
	if err != nil {
		return nil, lookupError(err, "vote")
	}
	return vote, nil
}

// Remove deletes userID's vote. Only that user or a super admin may do so.
func (s *VoteService) Remove(ctx context.Context, actor *models.JWTClaims, ideaID, userID string) (*models.VoteStats, error) {
	if actorID(actor) != userID && !isSuperAdmin(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot remove another user's vote")
	}
	idea, err := s.activeIdea(ctx, ideaID)
	if err != nil {
		return nil, err
	}
	stats, err := s.repo.Remove(ctx, ideaID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "vote not found")
		}
		return nil, appErrors.Internal(err, "failed to remove vote")
	}
	s.afterVote(ctx, idea, userID, "removed")
	return stats, nil
}

func (s *VoteService) activeIdea(ctx context.Context, ideaID string) (*models.Idea, error) {
	idea, err := s.ideas.FindByID(ctx, ideaID)
	if err != nil {
		return nil, lookupError(err, "idea")
	}
	if !idea.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
	}
	return idea, nil
}

// afterVote re-checks voting badges for the voter and popularity badges for the author.
func (s *VoteService) afterVote(ctx context.Context, idea *models.Idea, voter, action string) {
	checkAchievements(ctx, s.achievements, s.logger, voter)
	if idea.StudentID != voter {
		checkAchievements(ctx, s.achievements, s.logger, idea.StudentID)
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindVote, idea.ID, action)
}
