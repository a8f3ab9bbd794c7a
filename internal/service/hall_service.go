package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/event-idea-marketplace/internal/models"
	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/eventbus"
)

type hallRepository interface {
	FindByID(ctx context.Context, id string) (*models.Hall, error)
	ListActive(ctx context.Context) ([]models.Hall, error)
	Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error)
	Create(ctx context.Context, hall *models.Hall) error
	Update(ctx context.Context, hall *models.Hall) error
	Deactivate(ctx context.Context, id string) error
	NameTaken(ctx context.Context, name, excludeID string) (bool, error)
}

// HallService manages venues and answers availability queries.
type HallService struct {
	repo      hallRepository
	validator *validator.Validate
	bus       eventbus.Publisher
	logger    *zap.Logger
}

func NewHallService(repo hallRepository, validate *validator.Validate, bus eventbus.Publisher, logger *zap.Logger) *HallService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HallService{repo: repo, validator: validate, bus: bus, logger: logger}
}

func (s *HallService) List(ctx context.Context) ([]models.Hall, error) {
	halls, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list halls")
	}
	return halls, nil
}

func (s *HallService) Get(ctx context.Context, id string) (*models.Hall, error) {
	hall, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupError(err, "hall")
	}
	return hall, nil
}

// Available lists halls free for the window. An unusable query matches nothing.
func (s *HallService) Available(ctx context.Context, q models.HallAvailabilityQuery) ([]models.Hall, error) {
	if !q.Valid() {
		return []models.Hall{}, nil
	}
	halls, err := s.repo.Available(ctx, q)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to check hall availability")
	}
	if halls == nil {
		halls = []models.Hall{}
	}
	return halls, nil
}

// BestFit returns the snuggest free hall.
func (s *HallService) BestFit(ctx context.Context, q models.HallAvailabilityQuery) (*models.Hall, error) {
	halls, err := s.Available(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(halls) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no hall available for the requested window")
	}
	return &halls[0], nil
}

func (s *HallService) Create(ctx context.Context, req models.HallRequest) (*models.Hall, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid hall payload")
	}
	if err := s.ensureNameFree(ctx, req.Name, ""); err != nil {
		return nil, err
	}
	hall := &models.Hall{IsActive: true}
	applyHallRequest(hall, req)
	if err := s.repo.Create(ctx, hall); err != nil {
		return nil, appErrors.Internal(err, "failed to create hall")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindHall, hall.ID, "created")
	return hall, nil
}

func (s *HallService) Update(ctx context.Context, id string, req models.HallRequest) (*models.Hall, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid hall payload")
	}
	hall, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNameFree(ctx, req.Name, id); err != nil {
		return nil, err
	}
	applyHallRequest(hall, req)
	if err := s.repo.Update(ctx, hall); err != nil {
		return nil, appErrors.Internal(err, "failed to update hall")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindHall, hall.ID, "updated")
	return hall, nil
}

// Delete deactivates the hall.
func (s *HallService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Internal(err, "failed to delete hall")
	}
	publishChange(ctx, s.bus, s.logger, eventbus.KindHall, id, "deleted")
	return nil
}

func (s *HallService) ensureNameFree(ctx context.Context, name, excludeID string) error {
	taken, err := s.repo.NameTaken(ctx, strings.TrimSpace(name), excludeID)
	if err != nil {
		return appErrors.Internal(err, "failed to check hall name")
	}
	if taken {
		return appErrors.Clone(appErrors.ErrConflict, "hall name already in use")
	}
	return nil
}

func applyHallRequest(hall *models.Hall, req models.HallRequest) {
	hall.Name = strings.TrimSpace(req.Name)
	hall.SeatingCapacity = req.SeatingCapacity
	hall.Description = req.Description
	hall.Location = req.Location
	hall.Facilities = req.Facilities
}
