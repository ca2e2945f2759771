package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/badil-app/substitute-api/internal/models"
)

func newTeacherRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestTeacherRepositoryList(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "created_at", "updated_at"}).
		AddRow("t1", "أحمد", time.Now(), time.Now()).
		AddRow("t2", "سارة", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, created_at, updated_at FROM teachers ORDER BY created_at")).
		WillReturnRows(rows)

	teachers, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	assert.Equal(t, "أحمد", teachers[0].Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO teachers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	teacher := &models.Teacher{Name: "أحمد"}
	require.NoError(t, repo.Create(context.Background(), nil, teacher))
	assert.NotEmpty(t, teacher.ID)
	assert.False(t, teacher.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers WHERE id = $1")).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), nil, "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryReplaceAll(t *testing.T) {
	db, mock, cleanup := newTeacherRepoMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teachers")).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO teachers").
		WillReturnResult(sqlmock.NewResult(1, 1))

	teachers := []models.Teacher{{ID: "t1", Name: "أحمد"}}
	require.NoError(t, repo.ReplaceAll(context.Background(), nil, teachers))
	assert.NoError(t, mock.ExpectationsWereMet())
}
