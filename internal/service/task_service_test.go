package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
)

type taskRepoStub struct {
	tasks []models.Task
}

func (s *taskRepoStub) List(ctx context.Context) ([]models.Task, error) {
	out := make([]models.Task, len(s.tasks))
	copy(out, s.tasks)
	return out, nil
}

func (s *taskRepoStub) FindByID(ctx context.Context, id string) (*models.Task, error) {
	for _, task := range s.tasks {
		if task.ID == id {
			found := task
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *taskRepoStub) Create(ctx context.Context, q sqlx.ExtContext, task *models.Task) error {
	if task.ID == "" {
		task.ID = "task-new"
	}
	s.tasks = append(s.tasks, *task)
	return nil
}

func (s *taskRepoStub) Update(ctx context.Context, task *models.Task) error {
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = *task
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *taskRepoStub) Delete(ctx context.Context, q sqlx.ExtContext, id string) error {
	for i, task := range s.tasks {
		if task.ID == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

type completionRepoStub struct {
	cells []models.TaskCompletion
}

func (s *completionRepoStub) ListAll(ctx context.Context) ([]models.TaskCompletion, error) {
	out := make([]models.TaskCompletion, len(s.cells))
	copy(out, s.cells)
	return out, nil
}

func (s *completionRepoStub) ListByTask(ctx context.Context, taskID string) ([]models.TaskCompletion, error) {
	var out []models.TaskCompletion
	for _, cell := range s.cells {
		if cell.TaskID == taskID {
			out = append(out, cell)
		}
	}
	return out, nil
}

func (s *completionRepoStub) FindByTaskAndTeacher(ctx context.Context, taskID, teacherID string) (*models.TaskCompletion, error) {
	for _, cell := range s.cells {
		if cell.TaskID == taskID && cell.TeacherID == teacherID {
			found := cell
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *completionRepoStub) Create(ctx context.Context, q sqlx.ExtContext, completion *models.TaskCompletion) error {
	if completion.ID == "" {
		completion.ID = "cell-new"
	}
	s.cells = append(s.cells, *completion)
	return nil
}

func (s *completionRepoStub) Update(ctx context.Context, completion *models.TaskCompletion) error {
	for i := range s.cells {
		if s.cells[i].ID == completion.ID {
			s.cells[i] = *completion
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *completionRepoStub) MarkAllForTask(ctx context.Context, taskID string) error {
	now := time.Now().UTC()
	for i := range s.cells {
		if s.cells[i].TaskID == taskID && !s.cells[i].Completed {
			s.cells[i].Completed = true
			s.cells[i].CompletedAt = &now
		}
	}
	return nil
}

func (s *completionRepoStub) ResetAllForTask(ctx context.Context, taskID string) error {
	for i := range s.cells {
		if s.cells[i].TaskID == taskID {
			s.cells[i].Completed = false
			s.cells[i].CompletedAt = nil
			s.cells[i].Notes = nil
		}
	}
	return nil
}

func (s *completionRepoStub) DeleteByTask(ctx context.Context, q sqlx.ExtContext, taskID string) error {
	kept := s.cells[:0]
	for _, cell := range s.cells {
		if cell.TaskID != taskID {
			kept = append(kept, cell)
		}
	}
	s.cells = kept
	return nil
}

func newTaskFixture() (*TaskService, *taskRepoStub, *completionRepoStub, *teacherStoreStub, *txRunnerStub) {
	repo := &taskRepoStub{}
	completions := &completionRepoStub{}
	teachers := &teacherStoreStub{}
	tx := &txRunnerStub{}
	svc := NewTaskService(repo, completions, teachers, tx, nil, nil)
	return svc, repo, completions, teachers, tx
}

func TestTaskCreateSeedsAllTeachers(t *testing.T) {
	svc, repo, completions, teachers, tx := newTaskFixture()
	teachers.add("t1", "أحمد")
	teachers.add("t2", "سارة")

	task, err := svc.Create(context.Background(), CreateTaskRequest{Name: "دفتر الحضور"})
	require.NoError(t, err)
	assert.Len(t, repo.tasks, 1)

	require.Len(t, completions.cells, 2)
	for _, cell := range completions.cells {
		assert.Equal(t, task.ID, cell.TaskID)
		assert.False(t, cell.Completed)
	}
	assert.Equal(t, 1, tx.calls)
}

func TestToggleCompletionSetsAndClearsTimestamp(t *testing.T) {
	svc, repo, completions, _, _ := newTaskFixture()
	repo.tasks = []models.Task{{ID: "task1", Name: "دفتر الحضور"}}
	completions.cells = []models.TaskCompletion{{ID: "c1", TaskID: "task1", TeacherID: "t1"}}

	notes := "تم"
	cell, err := svc.ToggleCompletion(context.Background(), "task1", ToggleCompletionRequest{
		TeacherID: "t1", Completed: true, Notes: &notes,
	})
	require.NoError(t, err)
	assert.True(t, cell.Completed)
	require.NotNil(t, cell.CompletedAt)
	require.NotNil(t, cell.Notes)
	assert.Equal(t, "تم", *cell.Notes)

	cell, err = svc.ToggleCompletion(context.Background(), "task1", ToggleCompletionRequest{
		TeacherID: "t1", Completed: false,
	})
	require.NoError(t, err)
	assert.False(t, cell.Completed)
	assert.Nil(t, cell.CompletedAt)
	assert.Nil(t, cell.Notes)
}

func TestToggleCompletionCreatesMissingCell(t *testing.T) {
	svc, repo, completions, _, _ := newTaskFixture()
	repo.tasks = []models.Task{{ID: "task1", Name: "دفتر الحضور"}}

	cell, err := svc.ToggleCompletion(context.Background(), "task1", ToggleCompletionRequest{
		TeacherID: "t9", Completed: true,
	})
	require.NoError(t, err)
	assert.True(t, cell.Completed)
	assert.Len(t, completions.cells, 1)
}

func TestTaskStats(t *testing.T) {
	svc, repo, completions, _, _ := newTaskFixture()
	repo.tasks = []models.Task{{ID: "task1", Name: "دفتر الحضور"}}
	now := time.Now().UTC()
	completions.cells = []models.TaskCompletion{
		{ID: "c1", TaskID: "task1", TeacherID: "t1", Completed: true, CompletedAt: &now},
		{ID: "c2", TaskID: "task1", TeacherID: "t2"},
		{ID: "c3", TaskID: "task1", TeacherID: "t3"},
	}

	stats, err := svc.GetWithStats(context.Background(), "task1")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedCount)
	assert.Equal(t, 3, stats.TotalTeachers)
	assert.Equal(t, 33, stats.CompletionPercentage)
}

func TestMarkAllAndResetAll(t *testing.T) {
	svc, repo, completions, _, _ := newTaskFixture()
	repo.tasks = []models.Task{{ID: "task1", Name: "دفتر الحضور"}}
	notes := "ملاحظة"
	completions.cells = []models.TaskCompletion{
		{ID: "c1", TaskID: "task1", TeacherID: "t1", Notes: &notes},
		{ID: "c2", TaskID: "task1", TeacherID: "t2"},
	}

	require.NoError(t, svc.MarkAllComplete(context.Background(), "task1"))
	for _, cell := range completions.cells {
		assert.True(t, cell.Completed)
	}

	require.NoError(t, svc.ResetAll(context.Background(), "task1"))
	for _, cell := range completions.cells {
		assert.False(t, cell.Completed)
		assert.Nil(t, cell.CompletedAt)
		assert.Nil(t, cell.Notes)
	}
}

func TestTaskDeleteRemovesCells(t *testing.T) {
	svc, repo, completions, _, tx := newTaskFixture()
	repo.tasks = []models.Task{{ID: "task1", Name: "دفتر الحضور"}}
	completions.cells = []models.TaskCompletion{
		{ID: "c1", TaskID: "task1", TeacherID: "t1"},
		{ID: "c2", TaskID: "other", TeacherID: "t1"},
	}

	require.NoError(t, svc.Delete(context.Background(), "task1"))
	assert.Empty(t, repo.tasks)
	require.Len(t, completions.cells, 1)
	assert.Equal(t, "other", completions.cells[0].TaskID)
	assert.Equal(t, 1, tx.calls)
}

func TestTeacherGridAggregates(t *testing.T) {
	svc, _, completions, teachers, _ := newTaskFixture()
	teachers.add("t1", "أحمد")
	teachers.add("t2", "سارة")
	now := time.Now().UTC()
	completions.cells = []models.TaskCompletion{
		{ID: "c1", TaskID: "task1", TeacherID: "t1", Completed: true, CompletedAt: &now},
		{ID: "c2", TaskID: "task2", TeacherID: "t1"},
		{ID: "c3", TaskID: "task1", TeacherID: "t2"},
	}

	rows, err := svc.TeacherGrid(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].CompletedCount)
	assert.Equal(t, 2, rows[0].TotalTasks)
	assert.Equal(t, 50, rows[0].CompletionPercentage)
	assert.Equal(t, 0, rows[1].CompletedCount)
}
