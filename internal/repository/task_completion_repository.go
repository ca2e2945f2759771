package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const completionColumns = "id, task_id, teacher_id, completed, completed_at, notes, created_at"

// TaskCompletionRepository manages the task×teacher completion matrix.
type TaskCompletionRepository struct {
	db *sqlx.DB
}

// NewTaskCompletionRepository constructs a TaskCompletionRepository.
func NewTaskCompletionRepository(db *sqlx.DB) *TaskCompletionRepository {
	return &TaskCompletionRepository{db: db}
}

// ListAll returns every completion record in creation order.
func (r *TaskCompletionRepository) ListAll(ctx context.Context) ([]models.TaskCompletion, error) {
	query := fmt.Sprintf("SELECT %s FROM task_completions ORDER BY created_at", completionColumns)
	var completions []models.TaskCompletion
	if err := r.db.SelectContext(ctx, &completions, query); err != nil {
		return nil, fmt.Errorf("list task completions: %w", err)
	}
	return completions, nil
}

// ListByTask returns completions for one task.
func (r *TaskCompletionRepository) ListByTask(ctx context.Context, taskID string) ([]models.TaskCompletion, error) {
	query := fmt.Sprintf("SELECT %s FROM task_completions WHERE task_id = $1 ORDER BY created_at", completionColumns)
	var completions []models.TaskCompletion
	if err := r.db.SelectContext(ctx, &completions, query, taskID); err != nil {
		return nil, fmt.Errorf("list task completions by task: %w", err)
	}
	return completions, nil
}

// ListByTeacher returns completions for one teacher.
func (r *TaskCompletionRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TaskCompletion, error) {
	query := fmt.Sprintf("SELECT %s FROM task_completions WHERE teacher_id = $1 ORDER BY created_at", completionColumns)
	var completions []models.TaskCompletion
	if err := r.db.SelectContext(ctx, &completions, query, teacherID); err != nil {
		return nil, fmt.Errorf("list task completions by teacher: %w", err)
	}
	return completions, nil
}

// FindByTaskAndTeacher fetches the single cell for a task/teacher pair.
func (r *TaskCompletionRepository) FindByTaskAndTeacher(ctx context.Context, taskID, teacherID string) (*models.TaskCompletion, error) {
	query := fmt.Sprintf("SELECT %s FROM task_completions WHERE task_id = $1 AND teacher_id = $2", completionColumns)
	var completion models.TaskCompletion
	if err := r.db.GetContext(ctx, &completion, query, taskID, teacherID); err != nil {
		return nil, err
	}
	return &completion, nil
}

// Create inserts a completion cell, joining q's transaction when provided.
func (r *TaskCompletionRepository) Create(ctx context.Context, q sqlx.ExtContext, completion *models.TaskCompletion) error {
	if q == nil {
		q = r.db
	}
	if completion.ID == "" {
		completion.ID = uuid.NewString()
	}
	if completion.CreatedAt.IsZero() {
		completion.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO task_completions (id, task_id, teacher_id, completed, completed_at, notes, created_at)
		VALUES (:id, :task_id, :teacher_id, :completed, :completed_at, :notes, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, completion); err != nil {
		return fmt.Errorf("create task completion: %w", err)
	}
	return nil
}

// Update rewrites a cell's completed flag, timestamp and notes.
func (r *TaskCompletionRepository) Update(ctx context.Context, completion *models.TaskCompletion) error {
	const query = `UPDATE task_completions SET completed = :completed, completed_at = :completed_at, notes = :notes WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, completion); err != nil {
		return fmt.Errorf("update task completion: %w", err)
	}
	return nil
}

// MarkAllForTask sets every incomplete cell of a task to completed.
func (r *TaskCompletionRepository) MarkAllForTask(ctx context.Context, taskID string) error {
	const query = `UPDATE task_completions SET completed = TRUE, completed_at = $2 WHERE task_id = $1 AND completed = FALSE`
	if _, err := r.db.ExecContext(ctx, query, taskID, time.Now().UTC()); err != nil {
		return fmt.Errorf("mark all task completions: %w", err)
	}
	return nil
}

// ResetAllForTask clears every completed cell of a task, including notes.
func (r *TaskCompletionRepository) ResetAllForTask(ctx context.Context, taskID string) error {
	const query = `UPDATE task_completions SET completed = FALSE, completed_at = NULL, notes = NULL WHERE task_id = $1 AND completed = TRUE`
	if _, err := r.db.ExecContext(ctx, query, taskID); err != nil {
		return fmt.Errorf("reset task completions: %w", err)
	}
	return nil
}

// DeleteByTask removes all cells of a task. Idempotent.
func (r *TaskCompletionRepository) DeleteByTask(ctx context.Context, q sqlx.ExtContext, taskID string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM task_completions WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("delete task completions by task: %w", err)
	}
	return nil
}

// DeleteByTeacher removes all cells referencing a teacher. Idempotent.
func (r *TaskCompletionRepository) DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM task_completions WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete task completions by teacher: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *TaskCompletionRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, completions []models.TaskCompletion) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM task_completions`); err != nil {
		return fmt.Errorf("clear task completions: %w", err)
	}
	const query = `INSERT INTO task_completions (id, task_id, teacher_id, completed, completed_at, notes, created_at)
		VALUES (:id, :task_id, :teacher_id, :completed, :completed_at, :notes, :created_at)`
	for i := range completions {
		completion := &completions[i]
		if completion.ID == "" {
			completion.ID = uuid.NewString()
		}
		if completion.CreatedAt.IsZero() {
			completion.CreatedAt = time.Now().UTC()
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, completion); err != nil {
			return fmt.Errorf("insert imported task completion: %w", err)
		}
	}
	return nil
}
