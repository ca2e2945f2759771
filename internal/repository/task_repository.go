package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const taskColumns = "id, name, description, created_at, updated_at"

// TaskRepository manages persistence for trackable tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs a TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// List returns all tasks in creation order.
func (r *TaskRepository) List(ctx context.Context) ([]models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks ORDER BY created_at", taskColumns)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// FindByID fetches a task by ID.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := fmt.Sprintf("SELECT %s FROM tasks WHERE id = $1", taskColumns)
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		return nil, err
	}
	return &task, nil
}

// Create inserts a new task record. Joins q's transaction when provided, so a
// task and its seeded completions commit together.
func (r *TaskRepository) Create(ctx context.Context, q sqlx.ExtContext, task *models.Task) error {
	if q == nil {
		q = r.db
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	const query = `INSERT INTO tasks (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update modifies an existing task record.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task row. Its completions are removed by the caller inside
// the same transaction.
func (r *TaskRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *TaskRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, tasks []models.Task) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	const query = `INSERT INTO tasks (id, name, description, created_at, updated_at)
		VALUES (:id, :name, :description, :created_at, :updated_at)`
	for i := range tasks {
		task := &tasks[i]
		if task.ID == "" {
			task.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if task.CreatedAt.IsZero() {
			task.CreatedAt = now
		}
		if task.UpdatedAt.IsZero() {
			task.UpdatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, task); err != nil {
			return fmt.Errorf("insert imported task: %w", err)
		}
	}
	return nil
}
