package service

import (
	"context"
	"strconv"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
	"github.com/badil-app/substitute-api/pkg/export"
)

type teacherSnapshotStore interface {
	List(ctx context.Context) ([]models.Teacher, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, teachers []models.Teacher) error
}

type classSnapshotStore interface {
	List(ctx context.Context) ([]models.Class, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, classes []models.Class) error
}

type sectionSnapshotStore interface {
	List(ctx context.Context) ([]models.Section, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, sections []models.Section) error
}

type scheduleSnapshotStore interface {
	ListAll(ctx context.Context) ([]models.ScheduleEntry, error)
	ListDetailed(ctx context.Context) ([]models.ScheduleEntryDetail, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, entries []models.ScheduleEntry) error
}

type taskSnapshotStore interface {
	List(ctx context.Context) ([]models.Task, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, tasks []models.Task) error
}

type completionSnapshotStore interface {
	ListAll(ctx context.Context) ([]models.TaskCompletion, error)
	ReplaceAll(ctx context.Context, q sqlx.ExtContext, completions []models.TaskCompletion) error
}

// ExportService produces full-state snapshots, restores them, and renders the
// timetable as CSV or PDF.
type ExportService struct {
	teachers    teacherSnapshotStore
	classes     classSnapshotStore
	sections    sectionSnapshotStore
	schedule    scheduleSnapshotStore
	tasks       taskSnapshotStore
	completions completionSnapshotStore
	tx          txRunner
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	logger      *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(teachers teacherSnapshotStore, classes classSnapshotStore, sections sectionSnapshotStore, schedule scheduleSnapshotStore, tasks taskSnapshotStore, completions completionSnapshotStore, tx txRunner, cache *CacheService, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		teachers:    teachers,
		classes:     classes,
		sections:    sections,
		schedule:    schedule,
		tasks:       tasks,
		completions: completions,
		tx:          tx,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
	}
}

// Export captures the entire application state as one snapshot document.
func (s *ExportService) Export(ctx context.Context) (*models.Snapshot, error) {
	teachers, err := s.teachers.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export teachers")
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export classes")
	}
	sections, err := s.sections.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export sections")
	}
	schedule, err := s.schedule.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export schedule")
	}
	tasks, err := s.tasks.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export tasks")
	}
	completions, err := s.completions.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export task completions")
	}

	return &models.Snapshot{
		Teachers:        teachers,
		Classes:         classes,
		Sections:        sections,
		Schedule:        schedule,
		Tasks:           tasks,
		TaskCompletions: completions,
		ExportedAt:      time.Now().UTC(),
	}, nil
}

// Import restores collections from a snapshot. Only keys present in the
// request are replaced; absent keys leave the existing data untouched. All
// replacements commit in one transaction.
func (s *ExportService) Import(ctx context.Context, req models.ImportRequest) error {
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx *sqlx.Tx) error {
		var q sqlx.ExtContext
		if tx != nil {
			q = tx
		}
		if req.Teachers != nil {
			if err := s.teachers.ReplaceAll(ctx, q, *req.Teachers); err != nil {
				return err
			}
		}
		if req.Classes != nil {
			if err := s.classes.ReplaceAll(ctx, q, *req.Classes); err != nil {
				return err
			}
		}
		if req.Sections != nil {
			if err := s.sections.ReplaceAll(ctx, q, *req.Sections); err != nil {
				return err
			}
		}
		if req.Schedule != nil {
			if err := s.schedule.ReplaceAll(ctx, q, *req.Schedule); err != nil {
				return err
			}
		}
		if req.Tasks != nil {
			if err := s.tasks.ReplaceAll(ctx, q, *req.Tasks); err != nil {
				return err
			}
		}
		if req.TaskCompletions != nil {
			if err := s.completions.ReplaceAll(ctx, q, *req.TaskCompletions); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to import snapshot")
	}

	s.cache.Invalidate(ctx, availabilityCachePattern)
	s.logger.Info("snapshot imported",
		zap.Bool("teachers", req.Teachers != nil),
		zap.Bool("classes", req.Classes != nil),
		zap.Bool("sections", req.Sections != nil),
		zap.Bool("schedule", req.Schedule != nil),
		zap.Bool("tasks", req.Tasks != nil),
		zap.Bool("task_completions", req.TaskCompletions != nil))
	return nil
}

// RenderTimetableCSV renders the joined timetable as CSV bytes.
func (s *ExportService) RenderTimetableCSV(ctx context.Context) ([]byte, error) {
	dataset, err := s.timetableDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.csv.Render(*dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable csv")
	}
	return payload, nil
}

// RenderTimetablePDF renders the joined timetable as a PDF document.
func (s *ExportService) RenderTimetablePDF(ctx context.Context) ([]byte, error) {
	dataset, err := s.timetableDataset(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := s.pdf.Render(*dataset, "Weekly Timetable")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable pdf")
	}
	return payload, nil
}

func (s *ExportService) timetableDataset(ctx context.Context) (*export.Dataset, error) {
	entries, err := s.schedule.ListDetailed(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load detailed schedule")
	}

	headers := []string{"Day", "Period", "Class", "Section", "Teacher"}
	rows := make([]map[string]string, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, map[string]string{
			"Day":     strconv.Itoa(entry.DayOfWeek),
			"Period":  strconv.Itoa(entry.Period),
			"Class":   entry.ClassName,
			"Section": entry.SectionName,
			"Teacher": entry.TeacherName,
		})
	}
	return &export.Dataset{Headers: headers, Rows: rows}, nil
}
