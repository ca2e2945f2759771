package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

type teacherLister interface {
	List(ctx context.Context) ([]models.Teacher, error)
}

type periodLister interface {
	ListByPeriod(ctx context.Context, period, dayOfWeek int) ([]models.ScheduleEntry, error)
}

// SubstitutionService answers "who is free to cover this slot". A teacher is
// available at a period+day when no schedule entry anywhere references them at
// that period+day.
type SubstitutionService struct {
	teachers teacherLister
	schedule periodLister
	cache    *CacheService
	logger   *zap.Logger
}

// NewSubstitutionService constructs a SubstitutionService.
func NewSubstitutionService(teachers teacherLister, schedule periodLister, cache *CacheService, logger *zap.Logger) *SubstitutionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{teachers: teachers, schedule: schedule, cache: cache, logger: logger}
}

// FindAvailableTeachers lists teachers free at the given period and day, in
// roster creation order. excludeTeacherID additionally drops one teacher from
// the result, typically the absentee being covered for.
func (s *SubstitutionService) FindAvailableTeachers(ctx context.Context, period, dayOfWeek int, excludeTeacherID string) ([]models.AvailableTeacher, error) {
	if err := validateSlotRange(period, dayOfWeek); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("availability:%d:%d:%s", period, dayOfWeek, excludeTeacherID)
	var cached []models.AvailableTeacher
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	entries, err := s.schedule.ListByPeriod(ctx, period, dayOfWeek)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list busy teachers")
	}

	busy := make(map[string]struct{}, len(entries))
	for _, entry := range entries {
		busy[entry.TeacherID] = struct{}{}
	}

	available := make([]models.AvailableTeacher, 0, len(teachers))
	for _, teacher := range teachers {
		if teacher.ID == excludeTeacherID {
			continue
		}
		if _, taken := busy[teacher.ID]; taken {
			continue
		}
		available = append(available, models.AvailableTeacher{ID: teacher.ID, Name: teacher.Name})
	}

	if err := s.cache.Set(ctx, cacheKey, available, 0); err != nil {
		s.logger.Debug("availability cache set failed", zap.String("key", cacheKey), zap.Error(err))
	}
	return available, nil
}
