package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/badil-app/substitute-api/internal/models"
)

const scheduleColumns = "id, section_id, period, day_of_week, teacher_id, created_at"

// ScheduleRepository is the authoritative store for timetable entries. Every
// read and write of the weekly schedule goes through it.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs a ScheduleRepository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// ListAll returns every schedule entry in creation order.
func (r *ScheduleRepository) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries ORDER BY created_at", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list schedule entries: %w", err)
	}
	return entries, nil
}

// ListDetailed returns all entries joined with teacher, section and class names,
// ordered for the weekly grid (day, period, then section creation order).
func (r *ScheduleRepository) ListDetailed(ctx context.Context) ([]models.ScheduleEntryDetail, error) {
	const query = `SELECT e.id, e.section_id, e.period, e.day_of_week, e.teacher_id, e.created_at,
			t.name AS teacher_name, s.name AS section_name, c.name AS class_name
		FROM schedule_entries e
		JOIN teachers t ON t.id = e.teacher_id
		JOIN sections s ON s.id = e.section_id
		JOIN classes c ON c.id = s.class_id
		ORDER BY e.day_of_week, e.period, s.created_at`
	var entries []models.ScheduleEntryDetail
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list detailed schedule entries: %w", err)
	}
	return entries, nil
}

// ListBySection returns a section's entries ordered by day then period.
func (r *ScheduleRepository) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE section_id = $1 ORDER BY day_of_week, period", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, sectionID); err != nil {
		return nil, fmt.Errorf("list schedule entries by section: %w", err)
	}
	return entries, nil
}

// ListByPeriod returns every entry system-wide at a given period and day,
// regardless of section. This is the basis of conflict detection and of the
// substitution finder's busy set.
func (r *ScheduleRepository) ListByPeriod(ctx context.Context, period, dayOfWeek int) ([]models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE period = $1 AND day_of_week = $2 ORDER BY created_at", scheduleColumns)
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, period, dayOfWeek); err != nil {
		return nil, fmt.Errorf("list schedule entries by period: %w", err)
	}
	return entries, nil
}

// FindByID loads one entry by its ID.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE id = $1", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindSlot loads the entry occupying a (section, period, day) triple.
// Returns sql.ErrNoRows when the slot is empty.
func (r *ScheduleRepository) FindSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (*models.ScheduleEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_entries WHERE section_id = $1 AND period = $2 AND day_of_week = $3", scheduleColumns)
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, sectionID, period, dayOfWeek); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Upsert assigns a teacher to a slot. An occupied triple has its teacher
// overwritten rather than a duplicate row inserted; the unique index on
// (section_id, period, day_of_week) makes this atomic.
func (r *ScheduleRepository) Upsert(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	const query = `INSERT INTO schedule_entries (id, section_id, period, day_of_week, teacher_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (section_id, period, day_of_week)
		DO UPDATE SET teacher_id = EXCLUDED.teacher_id
		RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, entry.ID, entry.SectionID, entry.Period, entry.DayOfWeek, entry.TeacherID, entry.CreatedAt)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("upsert schedule entry: %w", err)
	}
	return nil
}

// SetTeacher updates a specific entry's teacher without touching its slot key.
// Returns sql.ErrNoRows when the entry does not exist. A nil q runs outside
// any transaction; the swap path passes its transaction here.
func (r *ScheduleRepository) SetTeacher(ctx context.Context, q sqlx.ExtContext, entryID, teacherID string) error {
	if q == nil {
		q = r.db
	}
	const query = `UPDATE schedule_entries SET teacher_id = $2 WHERE id = $1`
	res, err := q.ExecContext(ctx, query, entryID, teacherID)
	if err != nil {
		return fmt.Errorf("set schedule entry teacher: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set schedule entry teacher rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// RemoveSlot deletes the entry at a (section, period, day) triple.
// Reports whether a matching entry existed.
func (r *ScheduleRepository) RemoveSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (bool, error) {
	const query = `DELETE FROM schedule_entries WHERE section_id = $1 AND period = $2 AND day_of_week = $3`
	res, err := r.db.ExecContext(ctx, query, sectionID, period, dayOfWeek)
	if err != nil {
		return false, fmt.Errorf("remove schedule slot: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove schedule slot rows: %w", err)
	}
	return affected > 0, nil
}

// DeleteBySection removes all entries for a section. Idempotent.
func (r *ScheduleRepository) DeleteBySection(ctx context.Context, q sqlx.ExtContext, sectionID string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM schedule_entries WHERE section_id = $1`, sectionID); err != nil {
		return fmt.Errorf("delete schedule entries by section: %w", err)
	}
	return nil
}

// DeleteByTeacher removes all entries referencing a teacher. Idempotent.
func (r *ScheduleRepository) DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM schedule_entries WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete schedule entries by teacher: %w", err)
	}
	return nil
}

// DeleteByClassSections removes entries for every section owned by a class.
func (r *ScheduleRepository) DeleteByClassSections(ctx context.Context, q sqlx.ExtContext, classID string) error {
	if q == nil {
		q = r.db
	}
	const query = `DELETE FROM schedule_entries WHERE section_id IN (SELECT id FROM sections WHERE class_id = $1)`
	if _, err := q.ExecContext(ctx, query, classID); err != nil {
		return fmt.Errorf("delete schedule entries by class: %w", err)
	}
	return nil
}

// ReplaceAll swaps the whole collection for the imported one.
func (r *ScheduleRepository) ReplaceAll(ctx context.Context, q sqlx.ExtContext, entries []models.ScheduleEntry) error {
	if q == nil {
		q = r.db
	}
	if _, err := q.ExecContext(ctx, `DELETE FROM schedule_entries`); err != nil {
		return fmt.Errorf("clear schedule entries: %w", err)
	}
	const query = `INSERT INTO schedule_entries (id, section_id, period, day_of_week, teacher_id, created_at)
		VALUES (:id, :section_id, :period, :day_of_week, :teacher_id, :created_at)`
	for i := range entries {
		entry := &entries[i]
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		if _, err := sqlx.NamedExecContext(ctx, q, query, entry); err != nil {
			return fmt.Errorf("insert imported schedule entry: %w", err)
		}
	}
	return nil
}
