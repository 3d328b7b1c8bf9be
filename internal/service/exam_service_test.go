package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type fakeExamRepo struct {
	records map[string]models.ExamRecord
}

func (f *fakeExamRepo) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.ExamRosterRow, error) {
	return nil, nil
}

func (f *fakeExamRepo) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error) {
	if r, ok := f.records[cadetID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeExamRepo) Upsert(ctx context.Context, record *models.ExamRecord) error {
	if f.records == nil {
		f.records = make(map[string]models.ExamRecord)
	}
	f.records[record.CadetID] = *record
	return nil
}

func (f *fakeExamRepo) UpsertBulk(ctx context.Context, records []*models.ExamRecord) error {
	for _, r := range records {
		if err := f.Upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func newExamService(repo *fakeExamRepo, grades *fakeRecomputer) *ExamService {
	cadets, semesters := scoreTestFixtures()
	return NewExamService(repo, cadets, semesters, grades, nil, nil, 100, validator.New(), zap.NewNop())
}

func floatPtr(v float64) *float64 { return &v }

func TestExamSaveSecondTermAveragesBothExams(t *testing.T) {
	repo := &fakeExamRepo{}
	grades := &fakeRecomputer{}
	svc := newExamService(repo, grades)

	record, err := svc.Save(context.Background(), "sem15", models.SaveExamRequest{
		CadetID:     "c1",
		MidtermExam: floatPtr(80),
		FinalExam:   floatPtr(90),
		MaxMidterm:  100,
		MaxFinal:    100,
	}, "faculty-1")
	require.NoError(t, err)

	assert.InDelta(t, 85.0, record.Average, 0.001)
	assert.Equal(t, 34, record.SubjectProficiency)
	assert.Contains(t, grades.recomputed, "c1")
}

func TestExamSaveFirstTermUsesFinalOnly(t *testing.T) {
	svc := newExamService(&fakeExamRepo{}, &fakeRecomputer{})

	record, err := svc.Save(context.Background(), "sem10", models.SaveExamRequest{
		CadetID:   "c1",
		FinalExam: floatPtr(80),
		MaxFinal:  100,
	}, "")
	require.NoError(t, err)

	assert.InDelta(t, 80.0, record.Average, 0.001)
	assert.Equal(t, 32, record.SubjectProficiency)
}

func TestExamSaveRejectsScoreAboveScale(t *testing.T) {
	repo := &fakeExamRepo{}
	svc := newExamService(repo, &fakeRecomputer{})

	_, err := svc.Save(context.Background(), "sem10", models.SaveExamRequest{
		CadetID:   "c1",
		FinalExam: floatPtr(120),
		MaxFinal:  100,
	}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestExamSaveDefaultsMissingMaxScale(t *testing.T) {
	svc := newExamService(&fakeExamRepo{}, &fakeRecomputer{})

	record, err := svc.Save(context.Background(), "sem10", models.SaveExamRequest{
		CadetID:   "c1",
		FinalExam: floatPtr(75),
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 100.0, record.MaxFinal)
	assert.InDelta(t, 75.0, record.Average, 0.001)
	assert.Equal(t, 30, record.SubjectProficiency)
}

func TestExamSaveCustomScaleNormalizes(t *testing.T) {
	svc := newExamService(&fakeExamRepo{}, &fakeRecomputer{})

	record, err := svc.Save(context.Background(), "sem10", models.SaveExamRequest{
		CadetID:   "c1",
		FinalExam: floatPtr(45),
		MaxFinal:  50,
	}, "")
	require.NoError(t, err)

	assert.InDelta(t, 90.0, record.Average, 0.001)
	assert.Equal(t, 36, record.SubjectProficiency)
}

func TestExamSaveBulkPartialSkipsUnapproved(t *testing.T) {
	repo := &fakeExamRepo{}
	svc := newExamService(repo, &fakeRecomputer{})

	result, err := svc.SaveBulk(context.Background(), "sem15", models.BulkSaveExamRequest{
		Mode: models.BulkModePartialOnError,
		Items: []models.SaveExamRequest{
			{CadetID: "c1", FinalExam: floatPtr(88)},
			{CadetID: "p1", FinalExam: floatPtr(70)},
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 1, result.FailureCount)
	_, saved := repo.records["c1"]
	assert.True(t, saved)
}
