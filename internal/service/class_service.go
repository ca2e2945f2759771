package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context) ([]models.Class, error)
	FindByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
}

type classSectionCleaner interface {
	ListByClass(ctx context.Context, classID string) ([]models.Section, error)
	DeleteByClass(ctx context.Context, q sqlx.ExtContext, classID string) error
}

type classScheduleCleaner interface {
	DeleteByClassSections(ctx context.Context, q sqlx.ExtContext, classID string) error
}

// CreateClassRequest carries the payload for creating a grade level.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// UpdateClassRequest carries the payload for renaming a grade level.
type UpdateClassRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// ClassService manages grade levels. Deleting a class cascades through its
// sections and their schedule entries in one transaction.
type ClassService struct {
	repo      classRepository
	sections  classSectionCleaner
	schedule  classScheduleCleaner
	tx        txRunner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs a ClassService.
func NewClassService(repo classRepository, sections classSectionCleaner, schedule classScheduleCleaner, tx txRunner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, sections: sections, schedule: schedule, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns all classes in creation order.
func (s *ClassService) List(ctx context.Context) ([]models.Class, error) {
	classes, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, nil
}

// Get fetches one class.
func (s *ClassService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// Sections lists the sections owned by a class.
func (s *ClassService) Sections(ctx context.Context, id string) ([]models.Section, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	sections, err := s.sections.ListByClass(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sections")
	}
	return sections, nil
}

// Create registers a grade level.
func (s *ClassService) Create(ctx context.Context, req CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{Name: req.Name}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create class")
	}
	return class, nil
}

// Update renames a grade level.
func (s *ClassService) Update(ctx context.Context, id string, req UpdateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	class.Name = req.Name
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update class")
	}
	return class, nil
}

// Delete removes a class, its sections, and all schedule entries those
// sections held, in one transaction.
func (s *ClassService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.schedule.DeleteByClassSections(ctx, q, id); err != nil {
			return err
		}
		if err := s.sections.DeleteByClass(ctx, q, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete class")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	s.logger.Info("class deleted", zap.String("class_id", id))
	return nil
}
