package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

type sectionRepository interface {
	List(ctx context.Context) ([]models.Section, error)
	ListWithClass(ctx context.Context) ([]models.SectionWithClass, error)
	FindByID(ctx context.Context, id string) (*models.Section, error)
	Create(ctx context.Context, section *models.Section) error
	Update(ctx context.Context, section *models.Section) error
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type sectionScheduleCleaner interface {
	DeleteBySection(ctx context.Context, q sqlx.ExtContext, sectionID string) error
}

// CreateSectionRequest carries the payload for adding a section to a class.
type CreateSectionRequest struct {
	ClassID       string `json:"class_id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	SectionLetter string `json:"section_letter" validate:"required"`
}

// UpdateSectionRequest carries the payload for renaming a section.
type UpdateSectionRequest struct {
	Name          string `json:"name" validate:"required"`
	SectionLetter string `json:"section_letter" validate:"required"`
}

// SectionService manages sections within classes. Deleting a section clears
// its timetable in the same transaction.
type SectionService struct {
	repo      sectionRepository
	classes   classFinder
	schedule  sectionScheduleCleaner
	tx        txRunner
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSectionService constructs a SectionService.
func NewSectionService(repo sectionRepository, classes classFinder, schedule sectionScheduleCleaner, tx txRunner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SectionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SectionService{repo: repo, classes: classes, schedule: schedule, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns all sections in creation order.
func (s *SectionService) List(ctx context.Context) ([]models.Section, error) {
	sections, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// ListWithClass returns all sections with their class names joined.
func (s *SectionService) ListWithClass(ctx context.Context) ([]models.SectionWithClass, error) {
	sections, err := s.repo.ListWithClass(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections with class")
	}
	return sections, nil
}

// Get fetches one section.
func (s *SectionService) Get(ctx context.Context, id string) (*models.Section, error) {
	section, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	return section, nil
}

// Create adds a section to an existing class. The section letter must be one
// of the recognized Arabic letters.
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if !models.ValidSectionLetter(req.SectionLetter) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section_letter must be one of %v", models.SectionLetters))
	}
	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	section := &models.Section{ClassID: req.ClassID, Name: req.Name, SectionLetter: req.SectionLetter}
	if err := s.repo.Create(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create section")
	}
	return section, nil
}

// Update changes a section's name and letter. The owning class is immutable.
func (s *SectionService) Update(ctx context.Context, id string, req UpdateSectionRequest) (*models.Section, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid section payload")
	}
	if !models.ValidSectionLetter(req.SectionLetter) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("section_letter must be one of %v", models.SectionLetters))
	}

	section, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	section.Name = req.Name
	section.SectionLetter = req.SectionLetter
	if err := s.repo.Update(ctx, section); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update section")
	}
	return section, nil
}

// Delete removes a section together with its schedule entries.
func (s *SectionService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.schedule.DeleteBySection(ctx, q, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete section")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	s.logger.Info("section deleted", zap.String("section_id", id))
	return nil
}
