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

type teacherRepository interface {
	List(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, q sqlx.ExtContext, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
}

type taskCatalog interface {
	List(ctx context.Context) ([]models.Task, error)
}

type completionWriter interface {
	Create(ctx context.Context, q sqlx.ExtContext, completion *models.TaskCompletion) error
	DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error
}

type teacherScheduleCleaner interface {
	DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error
}

// CreateTeacherRequest carries the payload for registering a teacher.
type CreateTeacherRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// UpdateTeacherRequest carries the payload for renaming a teacher.
type UpdateTeacherRequest struct {
	Name string `json:"name" validate:"required,min=2"`
}

// TeacherService manages the teacher roster. Creating a teacher seeds one
// incomplete completion cell per existing task; deleting one removes their
// schedule entries and completion cells in the same transaction.
type TeacherService struct {
	repo        teacherRepository
	tasks       taskCatalog
	completions completionWriter
	schedule    teacherScheduleCleaner
	tx          txRunner
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, tasks taskCatalog, completions completionWriter, schedule teacherScheduleCleaner, tx txRunner, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, tasks: tasks, completions: completions, schedule: schedule, tx: tx, cache: cache, validator: validate, logger: logger}
}

// List returns the roster in creation order.
func (s *TeacherService) List(ctx context.Context) ([]models.Teacher, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}

// Get fetches one teacher.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher and seeds a completion cell for every task.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks for seeding")
	}

	teacher := &models.Teacher{Name: req.Name}
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.repo.Create(ctx, q, teacher); err != nil {
			return err
		}
		for _, task := range tasks {
			cell := &models.TaskCompletion{TaskID: task.ID, TeacherID: teacher.ID}
			if err := s.completions.Create(ctx, q, cell); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID), zap.Int("seeded_tasks", len(tasks)))
	return teacher, nil
}

// Update renames a teacher.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	teacher.Name = req.Name
	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}
	return teacher, nil
}

// Delete removes a teacher with their schedule entries and completion cells,
// all in one transaction.
func (s *TeacherService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.schedule.DeleteByTeacher(ctx, q, id); err != nil {
			return err
		}
		if err := s.completions.DeleteByTeacher(ctx, q, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	s.logger.Info("teacher deleted", zap.String("teacher_id", id))
	return nil
}
