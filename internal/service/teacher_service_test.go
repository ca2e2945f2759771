package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
)

type teacherRepoStub struct {
	teachers []models.Teacher
	nextID   int
}

func (s *teacherRepoStub) List(ctx context.Context) ([]models.Teacher, error) {
	out := make([]models.Teacher, len(s.teachers))
	copy(out, s.teachers)
	return out, nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	for _, teacher := range s.teachers {
		if teacher.ID == id {
			found := teacher
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *teacherRepoStub) Create(ctx context.Context, q sqlx.ExtContext, teacher *models.Teacher) error {
	s.nextID++
	if teacher.ID == "" {
		teacher.ID = "t-new"
	}
	s.teachers = append(s.teachers, *teacher)
	return nil
}

func (s *teacherRepoStub) Update(ctx context.Context, teacher *models.Teacher) error {
	for i := range s.teachers {
		if s.teachers[i].ID == teacher.ID {
			s.teachers[i] = *teacher
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *teacherRepoStub) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	for i, teacher := range s.teachers {
		if teacher.ID == id {
			s.teachers = append(s.teachers[:i], s.teachers[i+1:]...)
			return nil
		}
	}
	return nil
}

type taskCatalogStub struct {
	tasks []models.Task
}

func (s taskCatalogStub) List(ctx context.Context) ([]models.Task, error) {
	return s.tasks, nil
}

type completionWriterStub struct {
	created        []models.TaskCompletion
	deletedTeacher []string
}

func (s *completionWriterStub) Create(ctx context.Context, q sqlx.ExtContext, completion *models.TaskCompletion) error {
	s.created = append(s.created, *completion)
	return nil
}

func (s *completionWriterStub) DeleteByTeacher(ctx context.Context, q sqlx.ExtContext, teacherID string) error {
	s.deletedTeacher = append(s.deletedTeacher, teacherID)
	return nil
}

func newTeacherFixture() (*TeacherService, *teacherRepoStub, *completionWriterStub, *memScheduleRepo, *txRunnerStub) {
	repo := &teacherRepoStub{}
	tasks := taskCatalogStub{tasks: []models.Task{{ID: "task1", Name: "دفتر الحضور"}, {ID: "task2", Name: "الخطة الأسبوعية"}}}
	completions := &completionWriterStub{}
	schedule := &memScheduleRepo{}
	tx := &txRunnerStub{}
	svc := NewTeacherService(repo, tasks, completions, schedule, tx, nil, nil, nil)
	return svc, repo, completions, schedule, tx
}

func TestTeacherCreateSeedsCompletions(t *testing.T) {
	svc, repo, completions, _, tx := newTeacherFixture()

	teacher, err := svc.Create(context.Background(), CreateTeacherRequest{Name: "أحمد"})
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.Len(t, repo.teachers, 1)

	// one incomplete cell per existing task, in the same transaction
	require.Len(t, completions.created, 2)
	for _, cell := range completions.created {
		assert.Equal(t, teacher.ID, cell.TeacherID)
		assert.False(t, cell.Completed)
	}
	assert.Equal(t, 1, tx.calls)
}

func TestTeacherCreateRejectsShortName(t *testing.T) {
	svc, repo, _, _, _ := newTeacherFixture()

	_, err := svc.Create(context.Background(), CreateTeacherRequest{Name: "أ"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.teachers)
}

func TestTeacherDeleteCascades(t *testing.T) {
	svc, repo, completions, schedule, tx := newTeacherFixture()
	repo.teachers = []models.Teacher{{ID: "t1", Name: "أحمد"}, {ID: "t2", Name: "سارة"}}
	schedule.add("s1", 1, 0, "t1")
	schedule.add("s2", 2, 0, "t1")
	schedule.add("s1", 3, 0, "t2")

	require.NoError(t, svc.Delete(context.Background(), "t1"))

	assert.Len(t, repo.teachers, 1)
	assert.Equal(t, []string{"t1"}, completions.deletedTeacher)
	require.Len(t, schedule.entries, 1)
	assert.Equal(t, "t2", schedule.entries[0].TeacherID)
	assert.Equal(t, 1, tx.calls)
}

func TestTeacherDeleteUnknown(t *testing.T) {
	svc, _, _, _, tx := newTeacherFixture()

	err := svc.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, tx.calls)
}

func TestTeacherUpdateRenames(t *testing.T) {
	svc, repo, _, _, _ := newTeacherFixture()
	repo.teachers = []models.Teacher{{ID: "t1", Name: "أحمد"}}

	teacher, err := svc.Update(context.Background(), "t1", UpdateTeacherRequest{Name: "أحمد محمد"})
	require.NoError(t, err)
	assert.Equal(t, "أحمد محمد", teacher.Name)
	assert.Equal(t, "أحمد محمد", repo.teachers[0].Name)
}
