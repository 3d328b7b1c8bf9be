package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

type fakeAptitudeStore struct {
	records map[string]models.AptitudeRecord
}

func (f *fakeAptitudeStore) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AptitudeRecord, error) {
	if r, ok := f.records[cadetID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAptitudeStore) Upsert(ctx context.Context, record *models.AptitudeRecord) error {
	if f.records == nil {
		f.records = make(map[string]models.AptitudeRecord)
	}
	f.records[record.CadetID] = *record
	return nil
}

type fakeExamStore struct {
	records map[string]models.ExamRecord
}

func (f *fakeExamStore) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error) {
	if r, ok := f.records[cadetID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeExamStore) Upsert(ctx context.Context, record *models.ExamRecord) error {
	if f.records == nil {
		f.records = make(map[string]models.ExamRecord)
	}
	f.records[record.CadetID] = *record
	return nil
}

type fakeGradeStore struct {
	summaries map[string]models.GradeSummary
	sheetRows []models.GradeSheetRow
}

func (f *fakeGradeStore) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.GradeSummary, error) {
	if s, ok := f.summaries[cadetID]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeGradeStore) ListForCadet(ctx context.Context, cadetID string) ([]models.GradeSummary, error) {
	var out []models.GradeSummary
	for _, s := range f.summaries {
		if s.CadetID == cadetID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeGradeStore) Sheet(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheetRow, error) {
	return f.sheetRows, nil
}

func (f *fakeGradeStore) Upsert(ctx context.Context, summary *models.GradeSummary) error {
	if f.summaries == nil {
		f.summaries = make(map[string]models.GradeSummary)
	}
	f.summaries[summary.CadetID] = *summary
	return nil
}

type fakeSemesterStore struct {
	semesters map[string]models.SemesterPeriod
	active    *models.SemesterPeriod
}

func (f *fakeSemesterStore) FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	if s, ok := f.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeSemesterStore) FindActive(ctx context.Context) (*models.SemesterPeriod, error) {
	if f.active == nil {
		return nil, sql.ErrNoRows
	}
	return f.active, nil
}

func newGradeFixtures() (*fakeAttendanceRepo, *fakeAptitudeStore, *fakeExamStore, *fakeGradeStore, *fakeSemesterStore) {
	sem := models.SemesterPeriod{ID: "sem15", TermNumber: 2, WeekCount: 15}
	semesters := &fakeSemesterStore{
		semesters: map[string]models.SemesterPeriod{"sem15": sem},
		active:    &sem,
	}
	return &fakeAttendanceRepo{}, &fakeAptitudeStore{}, &fakeExamStore{}, &fakeGradeStore{}, semesters
}

func TestRecomputeCombinesComponentScores(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	attendance.records = map[string]models.AttendanceRecord{"c1": {CadetID: "c1", AttendanceScore: 24}}
	aptitude.records = map[string]models.AptitudeRecord{"c1": {CadetID: "c1", AptitudeScore: 27}}
	exams.records = map[string]models.ExamRecord{"c1": {CadetID: "c1", SubjectProficiency: 32}}

	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	sem := semesters.semesters["sem15"]
	summary, err := svc.Recompute(context.Background(), "c1", &sem)
	require.NoError(t, err)

	assert.Equal(t, 83, summary.FinalGrade)
	assert.Equal(t, models.RemarkPassed, summary.Remarks)

	stored, ok := grades.summaries["c1"]
	require.True(t, ok)
	assert.Equal(t, 83, stored.FinalGrade)
}

func TestRecomputeMissingComponentsScoreZero(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	sem := semesters.semesters["sem15"]
	summary, err := svc.Recompute(context.Background(), "ghost", &sem)
	require.NoError(t, err)

	assert.Equal(t, 0, summary.FinalGrade)
	assert.Equal(t, models.RemarkFailed, summary.Remarks)
}

func TestRecomputeHonorsCustomPassingGrade(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	attendance.records = map[string]models.AttendanceRecord{"c1": {CadetID: "c1", AttendanceScore: 20}}
	aptitude.records = map[string]models.AptitudeRecord{"c1": {CadetID: "c1", AptitudeScore: 20}}
	exams.records = map[string]models.ExamRecord{"c1": {CadetID: "c1", SubjectProficiency: 20}}

	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{PassingGrade: 60}, zap.NewNop())

	sem := semesters.semesters["sem15"]
	summary, err := svc.Recompute(context.Background(), "c1", &sem)
	require.NoError(t, err)

	assert.Equal(t, 60, summary.FinalGrade)
	assert.Equal(t, models.RemarkPassed, summary.Remarks)
}

func TestEnsureDefaultRecordsSeedsActiveSemester(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	err := svc.EnsureDefaultRecords(context.Background(), "c1")
	require.NoError(t, err)

	att, ok := attendance.records["c1"]
	require.True(t, ok)
	assert.Len(t, []bool(att.Present), 15)
	assert.Equal(t, 0, att.AttendanceScore)

	apt, ok := aptitude.records["c1"]
	require.True(t, ok)
	assert.Equal(t, 30, apt.AptitudeScore)
	assert.Equal(t, 150, apt.TotalMerits)

	exam, ok := exams.records["c1"]
	require.True(t, ok)
	assert.Equal(t, 100.0, exam.MaxMidterm)
	assert.Equal(t, 0, exam.SubjectProficiency)

	summary, ok := grades.summaries["c1"]
	require.True(t, ok)
	assert.Equal(t, 30, summary.FinalGrade)
	assert.Equal(t, models.RemarkFailed, summary.Remarks)
}

func TestEnsureDefaultRecordsKeepsExistingScores(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	attendance.records = map[string]models.AttendanceRecord{"c1": {CadetID: "c1", AttendanceScore: 18, WeeksPresent: 9}}

	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	err := svc.EnsureDefaultRecords(context.Background(), "c1")
	require.NoError(t, err)

	assert.Equal(t, 18, attendance.records["c1"].AttendanceScore)
}

func TestEnsureDefaultRecordsNoActiveSemesterIsNoop(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	semesters.active = nil

	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	err := svc.EnsureDefaultRecords(context.Background(), "c1")
	require.NoError(t, err)
	assert.Empty(t, attendance.records)
	assert.Empty(t, grades.summaries)
}

func TestSheetReturnsRowsForKnownSemester(t *testing.T) {
	attendance, aptitude, exams, grades, semesters := newGradeFixtures()
	grades.sheetRows = []models.GradeSheetRow{
		{CadetID: "c1", StudentNumber: "2024-00123", FinalGrade: 83, Remarks: models.RemarkPassed},
	}
	svc := NewGradeService(attendance, aptitude, exams, grades, semesters, nil, GradePolicy{}, zap.NewNop())

	rows, err := svc.Sheet(context.Background(), models.GradeSheetFilter{SemesterID: "sem15"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 83, rows[0].FinalGrade)

	_, err = svc.Sheet(context.Background(), models.GradeSheetFilter{SemesterID: "missing"})
	require.Error(t, err)
}
