package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

func TestAptitudeUpsertGeneratesID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAptitudeRepository(db)

	mock.ExpectExec("INSERT INTO aptitude_records").WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.AptitudeRecord{
		CadetID:       "c1",
		SemesterID:    "s1",
		Merits:        pq.Int64Array{10, 10, 10, 10, 10, 10, 10, 10, 10, 10},
		Demerits:      pq.Int64Array{0, 5, 0, 0, 0, 0, 0, 0, 0, 0},
		TotalMerits:   95,
		AptitudeScore: 29,
	}
	err := repo.Upsert(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAptitudeUpsertBulkUsesOneTransaction(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAptitudeRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO aptitude_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO aptitude_records").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	records := []*models.AptitudeRecord{
		{CadetID: "c1", SemesterID: "s1", Demerits: pq.Int64Array{0, 0}},
		{CadetID: "c2", SemesterID: "s1", Demerits: pq.Int64Array{3, 0}},
	}
	err := repo.UpsertBulk(context.Background(), records)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAptitudeRosterJoinsCadets(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAptitudeRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "cadet_id", "semester_id", "merits", "demerits", "total_merits", "aptitude_score", "created_at", "updated_at", "student_number", "cadet_name", "platoon", "company"}).
		AddRow("a1", "c1", "s1", "{10,10}", "{0,0}", 100, 30, now, now, "2024-00123", "Dela Cruz, Juan", "1st Platoon", "Alpha")
	mock.ExpectQuery("FROM aptitude_records a").
		WithArgs("s1", models.CadetStatusApproved, "1st Platoon").
		WillReturnRows(rows)

	roster, err := repo.Roster(context.Background(), "s1", "1st Platoon", "")
	require.NoError(t, err)
	require.Len(t, roster, 1)
	assert.Equal(t, "Dela Cruz, Juan", roster[0].CadetName)
	assert.Equal(t, 30, roster[0].AptitudeScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}
