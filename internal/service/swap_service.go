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

// SwapRequest proposes exchanging the teachers of two occupied slots.
type SwapRequest struct {
	First  models.SlotRef `json:"first" validate:"required"`
	Second models.SlotRef `json:"second" validate:"required"`
}

// SwapResult reports both entries after a committed swap.
type SwapResult struct {
	First  *models.ScheduleEntry `json:"first"`
	Second *models.ScheduleEntry `json:"second"`
}

// SwapService implements the pairwise exchange protocol. Validation runs in a
// fixed order: missing assignment, cross-day, self-swap, then conflict checks
// for each teacher at the slot they would move into. Both writes commit in one
// transaction or neither does.
type SwapService struct {
	schedule  scheduleRepository
	teachers  teacherFinder
	tx        txRunner
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSwapService constructs a SwapService.
func NewSwapService(schedule scheduleRepository, teachers teacherFinder, tx txRunner, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *SwapService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SwapService{schedule: schedule, teachers: teachers, tx: tx, cache: cache, metrics: metrics, validator: validate, logger: logger}
}

// Swap validates and commits the exchange. Rule violations come back as a
// *models.SwapRejectedError; the handler maps those to a 409 with the reason
// code and conflict details.
func (s *SwapService) Swap(ctx context.Context, req SwapRequest) (*SwapResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid swap payload")
	}
	if err := validateSlotRange(req.First.Period, req.First.DayOfWeek); err != nil {
		return nil, err
	}
	if err := validateSlotRange(req.Second.Period, req.Second.DayOfWeek); err != nil {
		return nil, err
	}

	first, err := s.loadSlot(ctx, req.First)
	if err != nil {
		return nil, err
	}
	second, err := s.loadSlot(ctx, req.Second)
	if err != nil {
		return nil, err
	}

	if rejection := s.validateSwap(ctx, req, first, second); rejection != nil {
		s.recordSwap("rejected")
		s.logger.Info("swap rejected",
			zap.String("reason", rejection.Reason),
			zap.String("first_entry", first.ID),
			zap.String("second_entry", second.ID))
		return nil, rejection
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if err := s.schedule.SetTeacher(ctx, q, first.ID, second.TeacherID); err != nil {
			return err
		}
		return s.schedule.SetTeacher(ctx, q, second.ID, first.TeacherID)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit swap")
	}

	s.recordSwap("committed")
	s.cache.Invalidate(ctx, availabilityCachePattern)
	s.logger.Info("swap committed",
		zap.String("first_entry", first.ID),
		zap.String("second_entry", second.ID),
		zap.String("first_teacher", second.TeacherID),
		zap.String("second_teacher", first.TeacherID))

	firstAfter := *first
	firstAfter.TeacherID = second.TeacherID
	secondAfter := *second
	secondAfter.TeacherID = first.TeacherID
	return &SwapResult{First: &firstAfter, Second: &secondAfter}, nil
}

func (s *SwapService) loadSlot(ctx context.Context, ref models.SlotRef) (*models.ScheduleEntry, error) {
	entry, err := s.schedule.FindSlot(ctx, ref.SectionID, ref.Period, ref.DayOfWeek)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.recordSwap("rejected")
			return nil, &models.SwapRejectedError{
				Reason:  models.SwapReasonMissingAssignment,
				Message: "لا يمكن التبديل: لا يوجد معلم معين في هذه الحصة",
			}
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load swap slot")
	}
	return entry, nil
}

func (s *SwapService) validateSwap(ctx context.Context, req SwapRequest, first, second *models.ScheduleEntry) *models.SwapRejectedError {
	if req.First.DayOfWeek != req.Second.DayOfWeek {
		return &models.SwapRejectedError{
			Reason:  models.SwapReasonCrossDay,
			Message: "لا يمكن التبديل بين حصص في أيام مختلفة",
		}
	}
	if req.First == req.Second {
		return &models.SwapRejectedError{
			Reason:  models.SwapReasonSelfSwap,
			Message: "لا يمكن تبديل الحصة مع نفسها",
		}
	}

	// Each teacher moves into the other's slot. A conflict is any other entry
	// that keeps the moving teacher busy at the destination period+day; only the
	// destination's own entry is excluded, since that is the one being taken over.
	if rejection := s.conflictAt(ctx, first.TeacherID, req.Second, second.ID); rejection != nil {
		return rejection
	}
	return s.conflictAt(ctx, second.TeacherID, req.First, first.ID)
}

func (s *SwapService) conflictAt(ctx context.Context, teacherID string, dest models.SlotRef, destEntryID string) *models.SwapRejectedError {
	entries, err := s.schedule.ListByPeriod(ctx, dest.Period, dest.DayOfWeek)
	if err != nil {
		s.logger.Error("swap conflict check failed", zap.Error(err))
		return &models.SwapRejectedError{
			Reason:  models.SwapReasonTeacherConflict,
			Message: "تعذر التحقق من تعارض الجدول",
		}
	}
	for _, entry := range entries {
		if entry.ID == destEntryID {
			continue
		}
		if entry.TeacherID != teacherID {
			continue
		}
		name := teacherID
		if teacher, err := s.teachers.FindByID(ctx, teacherID); err == nil {
			name = teacher.Name
		}
		return models.NewSwapConflictError(teacherID, name, entry.SectionID, dest.Period, dest.DayOfWeek)
	}
	return nil
}

func (s *SwapService) recordSwap(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordSwap(outcome)
	}
}
