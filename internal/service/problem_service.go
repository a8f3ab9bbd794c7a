package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

const trendingProblemsLimit = 10

type problemRepository interface {
	FindByID(ctx context.Context, id string) (*models.Problem, error)
	List(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, int, error)
	Trending(ctx context.Context, now time.Time, limit int) ([]models.Problem, error)
	IncrementViews(ctx context.Context, id string) error
	Create(ctx context.Context, p *models.Problem) error
	Update(ctx context.Context, p *models.Problem) error
	Delete(ctx context.Context, id string) error
}

// ProblemService manages challenges posted by clubs.
type ProblemService struct {
	repo      problemRepository
	clubs     clubReader
	validator *validator.Validate
	notifier  Notifier
	bus       eventbus.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewProblemService(repo problemRepository, clubs clubReader, validate *validator.Validate, notifier Notifier, bus eventbus.Publisher, logger *zap.Logger) *ProblemService {
	if validate == nil {
		validate = validator.New()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProblemService{repo: repo, clubs: clubs, validator: validate, notifier: notifier, bus: bus, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// List returns problems that have not expired.
func (s *ProblemService) List(ctx context.Context, filter models.ProblemFilter) ([]models.Problem, *models.Pagination, error) {
	filter.Now = s.now()
	filter.Search = strings.TrimSpace(filter.Search)
	problems, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list problems")
	}
	return problems, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

func (s *ProblemService) Trending(ctx context.Context) ([]models.Problem, error) {
	problems, err := s.repo.Trending(ctx, s.now(), trendingProblemsLimit)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list trending problems")
	}
	return problems, nil
}

// Get returns the problem and counts the view.
func (s *ProblemService) Get(ctx context.Context, id string) (*models.Problem, error) {
	problem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "problem")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("increment problem views failed", zap.String("problem_id", id), zap.Error(err))
	} else {
		problem.ViewCount++
	}
	return problem, nil
}

func (s *ProblemService) Create(ctx context.Context, actor *models.JWTClaims, req models.ProblemRequest) (*models.Problem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid problem payload")
	}
	club, err := s.clubs.FindByID(ctx, req.ClubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !isSuperAdmin(actor) && !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the club admin can post problems")
	}
	if req.Deadline != nil && req.Deadline.Before(s.now()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "deadline must be in the future")
	}

	problem := &models.Problem{ClubID: club.ID, PostedBy: actorID(actor), Status: models.ProblemOpen}
	applyProblemRequest(problem, req)
	if err := s.repo.Create(ctx, problem); err != nil {
		return nil, appErrors.Internal(err, "failed to create problem")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindProblem, problem.ID, "created")
	return problem, nil
}

func (s *ProblemService) Update(ctx context.Context, actor *models.JWTClaims, id string, req models.ProblemRequest) (*models.Problem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid problem payload")
	}
	problem, err := s.manageable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	previous := problem.Status
	applyProblemRequest(problem, req)
	if err := s.repo.Update(ctx, problem); err != nil {
		return nil, appErrors.Internal(err, "failed to update problem")
	}
	if previous != problem.Status && problem.PostedBy != actorID(actor) {
		s.notifier.Notify(ctx, models.NotificationMessage{
			UserID:            problem.PostedBy,
			Title:             "Problem updated",
			Message:           problem.Title + " is now " + string(problem.Status) + ".",
			Type:              models.NotificationProblemUpdated,
			RelatedEntityID:   problem.ID,
			RelatedEntityType: eventbus.KindProblem,
		})
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindProblem, problem.ID, "updated")
	return problem, nil
}

// Delete closes the problem and retires its ideas.
func (s *ProblemService) Delete(ctx context.Context, actor *models.JWTClaims, id string) error {
	if _, err := s.manageable(ctx, actor, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete problem")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindProblem, id, "deleted")
	return nil
}

func (s *ProblemService) manageable(ctx context.Context, actor *models.JWTClaims, id string) (*models.Problem, error) {
	problem, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "problem")
	}
	if isSuperAdmin(actor) || problem.PostedBy == actorID(actor) {
		return problem, nil
	}
	club, err := s.clubs.FindByID(ctx, problem.ClubID)
	if err != nil {
		return nil, lookupError(err, "club")
	}
	if !club.AdministeredBy(actorID(actor)) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "not allowed to manage this problem")
	}
	return problem, nil
}

func applyProblemRequest(p *models.Problem, req models.ProblemRequest) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = req.Description
	p.Requirements = req.Requirements
	p.Category = strings.TrimSpace(req.Category)
	p.Deadline = req.Deadline
	p.BudgetRange = req.BudgetRange
	p.ExpectedParticipants = req.ExpectedParticipants
	if req.Status != nil {
		p.Status = *req.Status
	}
}
