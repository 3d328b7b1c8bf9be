package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

func TestListCadetsFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCadetRepository(db)

	now := time.Now()
	status := models.CadetStatusPending
	listRows := sqlmock.NewRows([]string{"id", "student_number", "first_name", "last_name", "middle_name", "campus", "course", "year_level", "section", "platoon", "company", "battalion", "status", "user_id", "created_at", "updated_at"}).
		AddRow("c1", "2024-00123", "Juan", "Dela Cruz", nil, "Main", "BSIT", 1, "A", "1st Platoon", "Alpha", "1st Battalion", string(status), nil, now, now)
	mock.ExpectQuery("SELECT (.+) FROM cadets WHERE 1=1 AND status = \\$1 ORDER BY last_name ASC").
		WithArgs(status).
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM cadets WHERE 1=1 AND status = $1")).
		WithArgs(status).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	cadets, total, err := repo.List(context.Background(), models.CadetFilter{Status: &status})
	require.NoError(t, err)
	assert.Len(t, cadets, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "2024-00123", cadets[0].StudentNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCadetStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCadetRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cadets SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("c1", models.CadetStatusApproved, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "c1", models.CadetStatusApproved)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExistsByStudentNumber(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCadetRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM cadets WHERE student_number = $1 LIMIT 1")).
		WithArgs("2024-00123").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByStudentNumber(context.Background(), "2024-00123", "")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveAllCommitsTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewCadetRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cadets SET status = $2, updated_at = $3 WHERE status = $1")).
		WithArgs(models.CadetStatusApproved, models.CadetStatusArchived, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 42))
	mock.ExpectCommit()

	affected, err := repo.ArchiveAll(context.Background(), models.CadetStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 42, affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
