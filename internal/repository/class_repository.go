package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const classColumns = "id, name, created_at, updated_at"

// ClassRepository manages persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns all classes in creation order.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes ORDER BY created_at", classColumns)
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID fetches a class by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	query := fmt.Sprintf("SELECT %s FROM classes WHERE id = $1", classColumns)
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// Create inserts a new class record.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if class.CreatedAt.IsZero() {
		class.CreatedAt = now
	}
	class.UpdatedAt = now

	const query = `INSERT INTO classes (id, name, created_at, updated_at)
		VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class record.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	return nil
}

// Delete removes a class row. Sections and their entries are removed by the
// caller inside the same transaction.
func (r *ClassRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM classes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *ClassRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, classes []models.Class) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM classes`); err != nil {
		return fmt.Errorf("clear classes: %w", err)
	}
	const query = `INSERT INTO classes (id, name, created_at, updated_at)
		VALUES (:id, :name, :created_at, :updated_at)`
	for i := range classes {
		class := &classes[i]
		if class.ID == "" {
			class.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if class.CreatedAt.IsZero() {
			class.CreatedAt = now
		}
		if class.UpdatedAt.IsZero() {
			class.UpdatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, class); err != nil {
			return fmt.Errorf("insert imported class: %w", err)
		}
	}
	return nil
}
