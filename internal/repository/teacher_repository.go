package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const teacherColumns = "id, name, created_at, updated_at"

// TeacherRepository manages persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns all teachers in roster (creation) order.
func (r *TeacherRepository) List(ctx context.Context) ([]models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers ORDER BY created_at", teacherColumns)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher by ID.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := fmt.Sprintf("SELECT %s FROM teachers WHERE id = $1", teacherColumns)
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// Create inserts a new teacher record. When q carries a transaction, the
// insert joins it (teacher creation also seeds task completions).
func (r *TeacherRepository) Create(ctx context.Context, q sqlx.ExtContext, teacher *models.Teacher) error {
	if q == nil {
		q = r.db
	}
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	const query = `INSERT INTO teachers (id, name, created_at, updated_at)
		VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, q, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies an existing teacher record.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	teacher.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teachers SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Delete removes a teacher row. Dependent rows are removed by the caller
// inside the same transaction.
func (r *TeacherRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM teachers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *TeacherRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, teachers []models.Teacher) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM teachers`); err != nil {
		return fmt.Errorf("clear teachers: %w", err)
	}
	const query = `INSERT INTO teachers (id, name, created_at, updated_at)
		VALUES (:id, :name, :created_at, :updated_at)`
	for i := range teachers {
		teacher := &teachers[i]
		if teacher.ID == "" {
			teacher.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if teacher.CreatedAt.IsZero() {
			teacher.CreatedAt = now
		}
		if teacher.UpdatedAt.IsZero() {
			teacher.UpdatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, teacher); err != nil {
			return fmt.Errorf("insert imported teacher: %w", err)
		}
	}
	return nil
}
