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

// availabilityCachePattern matches every cached availability result. Any
// timetable write invalidates the lot.
const availabilityCachePattern = "availability:*"

type txRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx *sqlx.Tx) error) error
}

type scheduleRepository interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	ListDetailed(ctx context.Context) ([]models.ScheduleEntryDetail, error)
	ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error)
	ListByPeriod(ctx context.Context, period, dayOfWeek int) ([]models.ScheduleEntry, error)
	FindSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (*models.ScheduleEntry, error)
	Upsert(ctx context.Context, entry *models.ScheduleEntry) error
	SetTeacher(ctx context.Context, q sqlx.ExtContext, entryID, teacherID string) error
	RemoveSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (bool, error)
	DeleteBySection(ctx context.Context, q sqlx.ExtContext, sectionID string) error
	DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error
}

type sectionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

type teacherFinder interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

// AssignScheduleRequest describes a direct slot assignment.
type AssignScheduleRequest struct {
	SectionID string `json:"section_id" validate:"required"`
	Period    int    `json:"period" validate:"required"`
	DayOfWeek int    `json:"day_of_week" validate:"min=0"`
	TeacherID string `json:"teacher_id" validate:"required"`
}

// TimetableService is the authoritative mutation and query surface for the
// weekly schedule.
type TimetableService struct {
	repo      scheduleRepository
	sections  sectionFinder
	teachers  teacherFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTimetableService constructs a TimetableService.
func NewTimetableService(repo scheduleRepository, sections sectionFinder, teachers teacherFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{repo: repo, sections: sections, teachers: teachers, cache: cache, validator: validate, logger: logger}
}

// ListAll returns the full timetable.
func (s *TimetableService) ListAll(ctx context.Context) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule entries")
	}
	return entries, nil
}

// ListDetailed returns the timetable with teacher/section/class names joined.
func (s *TimetableService) ListDetailed(ctx context.Context) ([]models.ScheduleEntryDetail, error) {
	entries, err := s.repo.ListDetailed(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list detailed schedule")
	}
	return entries, nil
}

// ListBySection returns a section's weekly timetable.
func (s *TimetableService) ListBySection(ctx context.Context, sectionID string) ([]models.ScheduleEntry, error) {
	entries, err := s.repo.ListBySection(ctx, sectionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list section schedule")
	}
	return entries, nil
}

// ListByPeriod returns all assignments at a period+day, across all sections.
func (s *TimetableService) ListByPeriod(ctx context.Context, period, dayOfWeek int) ([]models.ScheduleEntry, error) {
	if err := validateSlotRange(period, dayOfWeek); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListByPeriod(ctx, period, dayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list period schedule")
	}
	return entries, nil
}

// FindSlot returns the entry at a slot, or NotFound when the slot is empty.
func (s *TimetableService) FindSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (*models.ScheduleEntry, error) {
	if err := validateSlotRange(period, dayOfWeek); err != nil {
		return nil, err
	}
	entry, err := s.repo.FindSlot(ctx, sectionID, period, dayOfWeek)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no teacher assigned to this slot")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot")
	}
	return entry, nil
}

// Assign writes a teacher into a slot with upsert semantics: an occupied
// (section, period, day) triple keeps its entry and only the teacher changes.
// Double-booking the teacher elsewhere at the same period+day is allowed here
// and reported back as warnings; only the swap path rejects it outright.
func (s *TimetableService) Assign(ctx context.Context, req AssignScheduleRequest) (*models.ScheduleEntry, []models.AssignmentWarning, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := validateSlotRange(req.Period, req.DayOfWeek); err != nil {
		return nil, nil, err
	}

	if _, err := s.sections.FindByID(ctx, req.SectionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "section not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}
	teacher, err := s.teachers.FindByID(ctx, req.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	warnings, err := s.overlapWarnings(ctx, req, teacher)
	if err != nil {
		return nil, nil, err
	}

	entry := &models.ScheduleEntry{
		SectionID: req.SectionID,
		Period:    req.Period,
		DayOfWeek: req.DayOfWeek,
		TeacherID: req.TeacherID,
	}
	if err := s.repo.Upsert(ctx, entry); err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign slot")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	return entry, warnings, nil
}

// SetTeacherForEntry rewrites a specific entry's teacher without touching its
// slot key. Used by the swap commit and by manual corrections.
func (s *TimetableService) SetTeacherForEntry(ctx context.Context, entryID, teacherID string) (*models.ScheduleEntry, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	if err := s.repo.SetTeacher(ctx, nil, entryID, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update entry teacher")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	return &models.ScheduleEntry{ID: entryID, TeacherID: teacherID}, nil
}

// RemoveSlot clears one slot. Reports whether an entry existed there.
func (s *TimetableService) RemoveSlot(ctx context.Context, sectionID string, period, dayOfWeek int) (bool, error) {
	if err := validateSlotRange(period, dayOfWeek); err != nil {
		return false, err
	}
	removed, err := s.repo.RemoveSlot(ctx, sectionID, period, dayOfWeek)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove slot")
	}
	if removed {
		s.cache.Invalidate(ctx, availabilityCachePattern)
	}
	return removed, nil
}

// RemoveAllForSection clears a section's timetable. Idempotent.
func (s *TimetableService) RemoveAllForSection(ctx context.Context, sectionID string) error {
	if err := s.repo.DeleteBySection(ctx, nil, sectionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear section schedule")
	}
	s.cache.Invalidate(ctx, availabilityCachePattern)
	return nil
}

// RemoveAllForTeacher clears a teacher's assignments. Idempotent.
func (s *TimetableService) RemoveAllForTeacher(ctx context.Context, teacherID string) error {
	if err := s.repo.DeleteByTeacher(ctx, nil, teacherID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear teacher schedule")
	}
	s.cache.Invalidate(ctx, availabilityCachePattern)
	return nil
}

func (s *TimetableService) overlapWarnings(ctx context.Context, req AssignScheduleRequest, teacher *models.Teacher) ([]models.AssignmentWarning, error) {
	entries, err := s.repo.ListByPeriod(ctx, req.Period, req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher overlap")
	}
	var warnings []models.AssignmentWarning
	for _, other := range entries {
		if other.TeacherID != req.TeacherID || other.SectionID == req.SectionID {
			continue
		}
		warnings = append(warnings, models.AssignmentWarning{
			Code: "TEACHER_OVERLAP",
			Message: fmt.Sprintf("المعلم %s لديه حصة أخرى في %s %s",
				teacher.Name, models.DayLabel(req.DayOfWeek), models.PeriodLabel(req.Period)),
			SectionID: other.SectionID,
			EntryID:   other.ID,
		})
	}
	return warnings, nil
}

func validateSlotRange(period, dayOfWeek int) error {
	if !models.ValidPeriod(period) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("period must be between 1 and %d", models.PeriodsPerDay))
	}
	if !models.ValidDayOfWeek(dayOfWeek) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("day_of_week must be between 0 and %d", models.DaysPerWeek-1))
	}
	return nil
}
