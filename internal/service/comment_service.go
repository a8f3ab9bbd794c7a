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

type commentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByIdea(ctx context.Context, ideaID string) ([]models.Comment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Comment, error)
	ListReplies(ctx context.Context, parentID string) ([]models.Comment, error)
	Create(ctx context.Context, c *models.Comment) error
	UpdateContent(ctx context.Context, id, content string, at time.Time) error
	Delete(ctx context.Context, id, ideaID string) error
}

// CommentService manages threaded discussion on ideas.
type CommentService struct {
	repo         commentRepository
	ideas        ideaReader
	validator    *validator.Validate
	notifier     Notifier
	achievements AchievementChecker
	bus          eventbus.Publisher
	logger       *zap.Logger
}

func NewCommentService(repo commentRepository, ideas ideaReader, validate *validator.Validate, notifier Notifier, achievements AchievementChecker, bus eventbus.Publisher, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, ideas: ideas, validator: validate, notifier: notifier, achievements: achievements, bus: bus, logger: logger}
}

func (s *CommentService) ByIdea(ctx context.Context, ideaID string) ([]models.Comment, error) {
	return s.listed(s.repo.ListByIdea(ctx, ideaID))
}

func (s *CommentService) ByUser(ctx context.Context, userID string) ([]models.Comment, error) {
	return s.listed(s.repo.ListByUser(ctx, userID))
}

func (s *CommentService) Replies(ctx context.Context, parentID string) ([]models.Comment, error) {
	return s.listed(s.repo.ListReplies(ctx, parentID))
}

func (s *CommentService) listed(items []models.Comment, err error) ([]models.Comment, error) {
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list comments")
	}
	return items, nil
}

func (s *CommentService) Get(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "comment")
	}
	return c, nil
}

// Create posts a comment, or a reply when ParentCommentID is set. Replies must stay on the parent's idea.
func (s *CommentService) Create(ctx context.Context, actor *models.JWTClaims, req models.CreateCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid comment payload")
	}
	idea, err := s.ideas.FindByID(ctx, req.IdeaID)
	if err != nil {
		return nil, lookupError(err, "idea")
	}
	if !idea.IsActive {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "idea not found")
	}
	if req.ParentCommentID != nil && *req.ParentCommentID == "" {
		req.ParentCommentID = nil
	}
	if req.ParentCommentID != nil {
		parent, err := s.repo.FindByID(ctx, *req.ParentCommentID)
		if err != nil {
			return nil, lookupError(err, "parent comment")
		}
		if parent.IdeaID != idea.ID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment belongs to another idea")
		}
	}

	comment := &models.Comment{
		Content:         req.Content,
		IdeaID:          idea.ID,
		UserID:          actorID(actor),
		ParentCommentID: req.ParentCommentID,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Internal(err, "failed to create comment")
	}

	if idea.StudentID != comment.UserID {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            idea.StudentID,
			Title:             "New comment on your idea",
			Message:           "Someone commented on " + idea.Title + ".",
			Type:              models.NotificationIdeaCommented,
			RelatedEntityID:   idea.ID,
			RelatedEntityType: eventbus.KindIdea,
		})
	}
	checkAchievements(ctx, s.achievements, s.logger, comment.UserID)
	publishChange(ctx, s.bus, s.logger, eventbus.KindComment, comment.ID, "created")
	return comment, nil
}

// Update edits the text. Only the author may edit.
func (s *CommentService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.UpdateCommentRequest) (*models.Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid comment payload")
	}
	comment, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actorID(actor) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this comment")
	}

	at := time.Now().UTC()
	if err := s.repo.UpdateContent(ctx, id, req.Content, at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Internal(err, "failed to update comment")
	}
	comment.Content = req.Content
	comment.IsEdited = true
	comment.EditedAt = &at
	comment.UpdatedAt = at
	publishChange(ctx, s.bus, s.logger, eventbus.KindComment, id, "updated")
	return comment, nil
}

// Delete removes the comment and its replies. Authors and super admins only.
func (s *CommentService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	comment, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if comment.UserID != actorID(actor) && !isSuperAdmin(actor) {
		return appErrors.Clone(appErrors.ErrForbidden, "not allowed to delete this comment")
	}
	if err := s.repo.Delete(ctx, id, comment.IdeaID); err != nil {
		return appErrors.Internal(err, "failed to delete comment")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindComment, id, "deleted")
	return nil
}
