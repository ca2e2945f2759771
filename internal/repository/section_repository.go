package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const sectionColumns = "id, class_id, name, section_letter, created_at, updated_at"

// SectionRepository manages persistence for sections.
type SectionRepository struct {
	db *sqlx.DB
}

// NewSectionRepository constructs a SectionRepository.
func NewSectionRepository(db *sqlx.DB) *SectionRepository {
	return &SectionRepository{db: db}
}

// List returns all sections in creation order.
func (r *SectionRepository) List(ctx context.Context) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections ORDER BY created_at", sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections: %w", err)
	}
	return sections, nil
}

// ListWithClass returns all sections joined with their class name.
func (r *SectionRepository) ListWithClass(ctx context.Context) ([]models.SectionWithClass, error) {
	const query = `SELECT s.id, s.class_id, s.name, s.section_letter, s.created_at, s.updated_at,
			c.name AS class_name
		FROM sections s
		JOIN classes c ON c.id = s.class_id
		ORDER BY s.created_at`
	var sections []models.SectionWithClass
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("list sections with class: %w", err)
	}
	return sections, nil
}

// ListByClass returns the sections owned by a class.
func (r *SectionRepository) ListByClass(ctx context.Context, classID string) ([]models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE class_id = $1 ORDER BY created_at", sectionColumns)
	var sections []models.Section
	if err := r.db.SelectContext(ctx, &sections, query, classID); err != nil {
		return nil, fmt.Errorf("list sections by class: %w", err)
	}
	return sections, nil
}

// FindByID fetches a section by ID.
func (r *SectionRepository) FindByID(ctx context.Context, id string) (*models.Section, error) {
	query := fmt.Sprintf("SELECT %s FROM sections WHERE id = $1", sectionColumns)
	var section models.Section
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		return nil, err
	}
	return &section, nil
}

// Create inserts a new section record.
func (r *SectionRepository) Create(ctx context.Context, section *models.Section) error {
	if section.ID == "" {
		section.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if section.CreatedAt.IsZero() {
		section.CreatedAt = now
	}
	section.UpdatedAt = now

	const query = `INSERT INTO sections (id, class_id, name, section_letter, created_at, updated_at)
		VALUES (:id, :class_id, :name, :section_letter, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("create section: %w", err)
	}
	return nil
}

// Update modifies a section's name and letter. The class back-reference is
// never changed after creation.
func (r *SectionRepository) Update(ctx context.Context, section *models.Section) error {
	section.UpdatedAt = time.Now().UTC()
	const query = `UPDATE sections SET name = :name, section_letter = :section_letter, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, section); err != nil {
		return fmt.Errorf("update section: %w", err)
	}
	return nil
}

// Delete removes a section row. Its schedule entries are removed by the caller
// inside the same transaction.
func (r *SectionRepository) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM sections WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete section: %w", err)
	}
	return nil
}

// DeleteByClass removes every section owned by a class.
func (r *SectionRepository) DeleteByClass(ctx context.Context, q sqlx.ExtContext, classID string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM sections WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("delete sections by class: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *SectionRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, sections []models.Section) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM sections`); err != nil {
		return fmt.Errorf("clear sections: %w", err)
	}
	const query = `INSERT INTO sections (id, class_id, name, section_letter, created_at, updated_at)
		VALUES (:id, :class_id, :name, :section_letter, :created_at, :updated_at)`
	for i := range sections {
		section := &sections[i]
		if section.ID == "" {
			section.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if section.CreatedAt.IsZero() {
			section.CreatedAt = now
		}
		if section.UpdatedAt.IsZero() {
			section.UpdatedAt = now
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, section); err != nil {
			return fmt.Errorf("insert imported section: %w", err)
		}
	}
	return nil
}
