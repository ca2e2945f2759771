package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
)

func newScheduleRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func scheduleRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "section_id", "period", "day_of_week", "teacher_id", "created_at"})
}

func TestScheduleRepositoryListByPeriod(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := scheduleRows().
		AddRow("e1", "s1", 3, 1, "t1", time.Now()).
		AddRow("e2", "s2", 3, 1, "t2", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, section_id, period, day_of_week, teacher_id, created_at FROM schedule_entries WHERE period = $1 AND day_of_week = $2 ORDER BY created_at")).
		WithArgs(3, 1).
		WillReturnRows(rows)

	entries, err := repo.ListByPeriod(context.Background(), 3, 1)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, "t1", entries[0].TeacherID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryFindSlotEmpty(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, section_id, period, day_of_week, teacher_id, created_at FROM schedule_entries WHERE section_id = $1 AND period = $2 AND day_of_week = $3")).
		WithArgs("s1", 1, 0).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindSlot(context.Background(), "s1", 1, 0)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpsertKeepsEntryID(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	created := time.Now().Add(-time.Hour)
	mock.ExpectQuery("INSERT INTO schedule_entries").
		WithArgs(sqlmock.AnyArg(), "s1", 2, 1, "t2", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("existing-entry", created))

	entry := &models.ScheduleEntry{SectionID: "s1", Period: 2, DayOfWeek: 1, TeacherID: "t2"}
	require.NoError(t, repo.Upsert(context.Background(), entry))

	// the conflicting row's identity survives the overwrite
	assert.Equal(t, "existing-entry", entry.ID)
	assert.WithinDuration(t, created, entry.CreatedAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositorySetTeacherMissingEntry(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedule_entries SET teacher_id = $2 WHERE id = $1")).
		WithArgs("missing", "t9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetTeacher(context.Background(), nil, "missing", "t9")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryRemoveSlot(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE section_id = $1 AND period = $2 AND day_of_week = $3")).
		WithArgs("s1", 4, 2).
		WillReturnResult(sqlmock.NewResult(0, 1))

	removed, err := repo.RemoveSlot(context.Background(), "s1", 4, 2)
	require.NoError(t, err)
	assert.True(t, removed)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE section_id = $1 AND period = $2 AND day_of_week = $3")).
		WithArgs("s1", 4, 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	removed, err = repo.RemoveSlot(context.Background(), "s1", 4, 2)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryDeleteByClassSections(t *testing.T) {
	db, mock, cleanup := newScheduleRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM schedule_entries WHERE section_id IN (SELECT id FROM sections WHERE class_id = $1)")).
		WithArgs("c1").
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.DeleteByClassSections(context.Background(), nil, "c1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
