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

// Fakes shared by the score-entry service tests.

type fakeCadetLookup struct {
	cadets map[string]models.Cadet
}

func (f *fakeCadetLookup) FindByID(ctx context.Context, id string) (*models.Cadet, error) {
	if c, ok := f.cadets[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

type fakeSemesterLookup struct {
	semesters map[string]models.SemesterPeriod
}

func (f *fakeSemesterLookup) FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	if s, ok := f.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type fakeRecomputer struct {
	recomputed []string
	err        error
}

func (f *fakeRecomputer) Recompute(ctx context.Context, cadetID string, semester *models.SemesterPeriod) (*models.GradeSummary, error) {
	f.recomputed = append(f.recomputed, cadetID)
	if f.err != nil {
		return nil, f.err
	}
	return &models.GradeSummary{CadetID: cadetID, SemesterID: semester.ID}, nil
}

type fakeAuditSink struct {
	entries []models.AuditLog
}

func (f *fakeAuditSink) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.entries = append(f.entries, *log)
	return nil
}

type fakeAttendanceRepo struct {
	records   map[string]models.AttendanceRecord
	bulkCalls int
	upsertErr map[string]error
}

func (f *fakeAttendanceRepo) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AttendanceRosterRow, error) {
	return nil, nil
}

func (f *fakeAttendanceRepo) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AttendanceRecord, error) {
	if r, ok := f.records[cadetID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeAttendanceRepo) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	if err, ok := f.upsertErr[record.CadetID]; ok {
		return err
	}
	if f.records == nil {
		f.records = make(map[string]models.AttendanceRecord)
	}
	f.records[record.CadetID] = *record
	return nil
}

func (f *fakeAttendanceRepo) UpsertBulk(ctx context.Context, records []*models.AttendanceRecord) error {
	f.bulkCalls++
	for _, r := range records {
		if err := f.Upsert(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

func scoreTestFixtures() (*fakeCadetLookup, *fakeSemesterLookup) {
	cadets := &fakeCadetLookup{cadets: map[string]models.Cadet{
		"c1": {ID: "c1", Status: models.CadetStatusApproved},
		"c2": {ID: "c2", Status: models.CadetStatusApproved},
		"p1": {ID: "p1", Status: models.CadetStatusPending},
	}}
	semesters := &fakeSemesterLookup{semesters: map[string]models.SemesterPeriod{
		"sem10": {ID: "sem10", TermNumber: 1, WeekCount: 10},
		"sem15": {ID: "sem15", TermNumber: 2, WeekCount: 15},
	}}
	return cadets, semesters
}

func newAttendanceService(repo *fakeAttendanceRepo, grades *fakeRecomputer, audit *fakeAuditSink) *AttendanceService {
	cadets, semesters := scoreTestFixtures()
	var sink auditLogRepository
	if audit != nil {
		sink = audit
	}
	return NewAttendanceService(repo, cadets, semesters, grades, sink, nil, validator.New(), zap.NewNop())
}

func TestAttendanceSaveComputesScoreAndRecomputes(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	grades := &fakeRecomputer{}
	audit := &fakeAuditSink{}
	svc := newAttendanceService(repo, grades, audit)

	present := make([]bool, 15)
	for i := range present {
		present[i] = true
	}
	record, err := svc.Save(context.Background(), "sem15", models.SaveAttendanceRequest{CadetID: "c1", Present: present}, "faculty-1")
	require.NoError(t, err)

	assert.Equal(t, 15, record.WeeksPresent)
	assert.Equal(t, 30, record.AttendanceScore)
	assert.Contains(t, grades.recomputed, "c1")
	require.Len(t, audit.entries, 1)
	assert.Equal(t, models.AuditActionScoreSave, audit.entries[0].Action)
}

func TestAttendanceSavePadsShortWeeksAsAbsent(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newAttendanceService(repo, &fakeRecomputer{}, nil)

	record, err := svc.Save(context.Background(), "sem10", models.SaveAttendanceRequest{CadetID: "c1", Present: []bool{true, true, true, true, true}}, "")
	require.NoError(t, err)

	assert.Len(t, []bool(record.Present), 10)
	assert.Equal(t, 5, record.WeeksPresent)
	assert.Equal(t, 15, record.AttendanceScore)
}

func TestAttendanceSaveRejectsUnapprovedCadet(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newAttendanceService(repo, &fakeRecomputer{}, nil)

	_, err := svc.Save(context.Background(), "sem10", models.SaveAttendanceRequest{CadetID: "p1", Present: []bool{true}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrCadetNotApproved.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.records)
}

func TestAttendanceSaveUnknownSemester(t *testing.T) {
	svc := newAttendanceService(&fakeAttendanceRepo{}, &fakeRecomputer{}, nil)

	_, err := svc.Save(context.Background(), "missing", models.SaveAttendanceRequest{CadetID: "c1", Present: []bool{true}}, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAttendanceSaveBulkAtomicUsesSingleBatch(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	grades := &fakeRecomputer{}
	svc := newAttendanceService(repo, grades, nil)

	result, err := svc.SaveBulk(context.Background(), "sem10", models.BulkSaveAttendanceRequest{
		Items: []models.SaveAttendanceRequest{
			{CadetID: "c1", Present: []bool{true, true}},
			{CadetID: "c2", Present: []bool{true}},
		},
	}, "faculty-1")
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount)
	assert.Equal(t, 1, repo.bulkCalls)
	assert.ElementsMatch(t, []string{"c1", "c2"}, grades.recomputed)
}

func TestAttendanceSaveBulkAtomicAbortsOnBadRow(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newAttendanceService(repo, &fakeRecomputer{}, nil)

	_, err := svc.SaveBulk(context.Background(), "sem10", models.BulkSaveAttendanceRequest{
		Items: []models.SaveAttendanceRequest{
			{CadetID: "c1", Present: []bool{true}},
			{CadetID: "p1", Present: []bool{true}},
		},
	}, "")
	require.Error(t, err)
	assert.Empty(t, repo.records)
}

func TestAttendanceSaveBulkPartialCollectsFailures(t *testing.T) {
	repo := &fakeAttendanceRepo{}
	svc := newAttendanceService(repo, &fakeRecomputer{}, nil)

	result, err := svc.SaveBulk(context.Background(), "sem10", models.BulkSaveAttendanceRequest{
		Mode: models.BulkModePartialOnError,
		Items: []models.SaveAttendanceRequest{
			{CadetID: "c1", Present: []bool{true}},
			{CadetID: "p1", Present: []bool{true}},
			{CadetID: "ghost", Present: []bool{true}},
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, 1, result.SuccessCount)
	assert.Equal(t, 2, result.FailureCount)
	require.Len(t, result.Failures, 2)
	assert.Equal(t, "p1", result.Failures[0].CadetID)
	assert.Equal(t, "ghost", result.Failures[1].CadetID)
}
