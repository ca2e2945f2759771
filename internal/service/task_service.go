package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context) ([]models.Task, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, q sqlx.ExtContext, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, q sqlx.ExtContext, id string) error
}

type completionRepository interface {
	ListAll(ctx context.Context) ([]models.TaskCompletion, error)
	ListByTask(ctx context.Context, taskID string) ([]models.TaskCompletion, error)
	FindByTaskAndTeacher(ctx context.Context, taskID, teacherID string) (*models.TaskCompletion, error)
	Create(ctx context.Context, q sqlx.ExtContext, completion *models.TaskCompletion) error
	Update(ctx context.Context, completion *models.TaskCompletion) error
	MarkAllForTask(ctx context.Context, taskID string) error
	ResetAllForTask(ctx context.Context, taskID string) error
	DeleteByTask(ctx context.Context, q sqlx.ExtContext, taskID string) error
}

// CreateTaskRequest carries the payload for defining a task.
type CreateTaskRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Description *string `json:"description"`
}

// UpdateTaskRequest carries the payload for editing a task.
type UpdateTaskRequest struct {
	Name        string  `json:"name" validate:"required,min=2"`
	Description *string `json:"description"`
}

// ToggleCompletionRequest sets one cell of the task×teacher matrix.
type ToggleCompletionRequest struct {
	TeacherID string  `json:"teacher_id" validate:"required"`
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes"`
}

// TaskService manages trackable tasks and their per-teacher completion
// matrix. Creating a task seeds one incomplete cell for every teacher.
type TaskService struct {
	repo        taskRepository
	completions completionRepository
	teachers    teacherLister
	tx          txRunner
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewTaskService constructs a TaskService.
func NewTaskService(repo taskRepository, completions completionRepository, teachers teacherLister, tx txRunner, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{repo: repo, completions: completions, teachers: teachers, tx: tx, validator: validate, logger: logger}
}

// List returns all tasks in creation order.
func (s *TaskService) List(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, nil
}

// Get fetches one task.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// GetWithStats returns a task with its completion cells and aggregates.
func (s *TaskService) GetWithStats(ctx context.Context, id string) (*models.TaskWithStats, error) {
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	completions, err := s.completions.ListByTask(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task completions")
	}

	stats := &models.TaskWithStats{Task: *task, Completions: completions, TotalTeachers: len(completions)}
	for _, cell := range completions {
		if cell.Completed {
			stats.CompletedCount++
		}
	}
	if stats.TotalTeachers > 0 {
		stats.CompletionPercentage = stats.CompletedCount * 100 / stats.TotalTeachers
	}
	return stats, nil
}

// ListWithStats returns every task with its aggregates.
func (s *TaskService) ListWithStats(ctx context.Context) ([]models.TaskWithStats, error) {
	tasks, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	all, err := s.completions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task completions")
	}

	byTask := make(map[string][]models.TaskCompletion, len(tasks))
	for _, cell := range all {
		byTask[cell.TaskID] = append(byTask[cell.TaskID], cell)
	}

	result := make([]models.TaskWithStats, 0, len(tasks))
	for _, task := range tasks {
		cells := byTask[task.ID]
		stats := models.TaskWithStats{Task: task, Completions: cells, TotalTeachers: len(cells)}
		for _, cell := range cells {
			if cell.Completed {
				stats.CompletedCount++
			}
		}
		if stats.TotalTeachers > 0 {
			stats.CompletionPercentage = stats.CompletedCount * 100 / stats.TotalTeachers
		}
		result = append(result, stats)
	}
	return result, nil
}

// TeacherGrid returns the per-teacher view: each teacher with their cells
// across every task.
func (s *TaskService) TeacherGrid(ctx context.Context) ([]models.TeacherCompletionRow, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	all, err := s.completions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list task completions")
	}

	byTeacher := make(map[string][]models.TaskCompletion, len(teachers))
	for _, cell := range all {
		byTeacher[cell.TeacherID] = append(byTeacher[cell.TeacherID], cell)
	}

	rows := make([]models.TeacherCompletionRow, 0, len(teachers))
	for _, teacher := range teachers {
		cells := byTeacher[teacher.ID]
		row := models.TeacherCompletionRow{Teacher: teacher, Completions: cells, TotalTasks: len(cells)}
		for _, cell := range cells {
			if cell.Completed {
				row.CompletedCount++
			}
		}
		if row.TotalTasks > 0 {
			row.CompletionPercentage = row.CompletedCount * 100 / row.TotalTasks
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Create defines a task and seeds an incomplete cell for every teacher.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers for seeding")
	}

	task := &models.Task{Name: req.Name, Description: req.Description}
	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.repo.Create(ctx, q, task); err != nil {
			return err
		}
		for _, teacher := range teachers {
			cell := &models.TaskCompletion{TaskID: task.ID, TeacherID: teacher.ID}
			if err := s.completions.Create(ctx, q, cell); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}

	s.logger.Info("task created", zap.String("task_id", task.ID), zap.Int("seeded_teachers", len(teachers)))
	return task, nil
}

// Update edits a task's name and description.
func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}
	task, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	task.Name = req.Name
	task.Description = req.Description
	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task and all its completion cells in one transaction.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.completions.DeleteByTask(ctx, q, id); err != nil {
			return err
		}
		return s.repo.Delete(ctx, q, id)
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}

	s.logger.Info("task deleted", zap.String("task_id", id))
	return nil
}

// ToggleCompletion sets one cell's state. A cell missing from the matrix is
// created on the fly so imports with sparse matrices stay usable.
func (s *TaskService) ToggleCompletion(ctx context.Context, taskID string, req ToggleCompletionRequest) (*models.TaskCompletion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid completion payload")
	}
	if _, err := s.Get(ctx, taskID); err != nil {
		return nil, err
	}

	cell, err := s.completions.FindByTaskAndTeacher(ctx, taskID, req.TeacherID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task completion")
		}
		cell = &models.TaskCompletion{TaskID: taskID, TeacherID: req.TeacherID}
		applyCompletionState(cell, req)
		if err := s.completions.Create(ctx, nil, cell); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task completion")
		}
		return cell, nil
	}

	applyCompletionState(cell, req)
	if err := s.completions.Update(ctx, cell); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task completion")
	}
	return cell, nil
}

// MarkAllComplete completes every cell of a task.
func (s *TaskService) MarkAllComplete(ctx context.Context, taskID string) error {
	if _, err := s.Get(ctx, taskID); err != nil {
		return err
	}
	if err := s.completions.MarkAllForTask(ctx, taskID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark task complete")
	}
	return nil
}

// ResetAll clears every cell of a task, including notes.
func (s *TaskService) ResetAll(ctx context.Context, taskID string) error {
	if _, err := s.Get(ctx, taskID); err != nil {
		return err
	}
	if err := s.completions.ResetAllForTask(ctx, taskID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset task completions")
	}
	return nil
}

func applyCompletionState(cell *models.TaskCompletion, req ToggleCompletionRequest) {
	cell.Completed = req.Completed
	cell.Notes = req.Notes
	if req.Completed {
		now := time.Now().UTC()
		cell.CompletedAt = &now
	} else {
		cell.CompletedAt = nil
		cell.Notes = nil
	}
}
