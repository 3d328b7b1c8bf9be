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

type mockSemesterRepo struct {
	semesters map[string]models.SemesterPeriod
	byTerm    map[string]string
	activated string
}

func termKey(year string, term int) string {
	return year + "#" + string(rune('0'+term))
}

func (m *mockSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.SemesterPeriod, int, error) {
	out := make([]models.SemesterPeriod, 0, len(m.semesters))
	for _, s := range m.semesters {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	if s, ok := m.semesters[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) FindActive(ctx context.Context) (*models.SemesterPeriod, error) {
	for _, s := range m.semesters {
		if s.IsActive {
			return &s, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockSemesterRepo) ExistsByTerm(ctx context.Context, academicYear string, termNumber int, excludeID string) (bool, error) {
	if id, ok := m.byTerm[termKey(academicYear, termNumber)]; ok {
		if excludeID == "" || id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSemesterRepo) Create(ctx context.Context, semester *models.SemesterPeriod) error {
	if m.semesters == nil {
		m.semesters = make(map[string]models.SemesterPeriod)
	}
	if semester.ID == "" {
		semester.ID = "sem-generated"
	}
	m.semesters[semester.ID] = *semester
	return nil
}

func (m *mockSemesterRepo) Update(ctx context.Context, semester *models.SemesterPeriod) error {
	m.semesters[semester.ID] = *semester
	return nil
}

func (m *mockSemesterRepo) Activate(ctx context.Context, id string) error {
	if _, ok := m.semesters[id]; !ok {
		return sql.ErrNoRows
	}
	for key, s := range m.semesters {
		s.IsActive = key == id
		m.semesters[key] = s
	}
	m.activated = id
	return nil
}

func TestSemesterCreateDerivesWeekCount(t *testing.T) {
	repo := &mockSemesterRepo{byTerm: map[string]string{}}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	first, err := svc.Create(context.Background(), models.CreateSemesterRequest{
		Label: "AY 2025-2026 Term 1", AcademicYear: "2025-2026", TermNumber: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, 10, first.WeekCount)
	assert.False(t, first.IsActive)

	second, err := svc.Create(context.Background(), models.CreateSemesterRequest{
		Label: "AY 2025-2026 Term 2", AcademicYear: "2025-2026", TermNumber: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 15, second.WeekCount)
}

func TestSemesterCreateRejectsDuplicateTerm(t *testing.T) {
	repo := &mockSemesterRepo{byTerm: map[string]string{termKey("2025-2026", 1): "existing"}}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), models.CreateSemesterRequest{
		Label: "AY 2025-2026 Term 1", AcademicYear: "2025-2026", TermNumber: 1,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestSemesterActivateDeactivatesOthers(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.SemesterPeriod{
		"s1": {ID: "s1", IsActive: true},
		"s2": {ID: "s2", IsActive: false},
	}}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	activated, err := svc.Activate(context.Background(), "s2")
	require.NoError(t, err)

	assert.True(t, activated.IsActive)
	assert.False(t, repo.semesters["s1"].IsActive)
}

func TestSemesterActivateUnknownID(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.SemesterPeriod{}}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Activate(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSemesterActiveMapsMissingToAppError(t *testing.T) {
	repo := &mockSemesterRepo{semesters: map[string]models.SemesterPeriod{}}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	_, err := svc.Active(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNoActiveSemester.Code, appErrors.FromError(err).Code)
}

func TestSemesterUpdateKeepsWeekCount(t *testing.T) {
	repo := &mockSemesterRepo{
		semesters: map[string]models.SemesterPeriod{
			"s1": {ID: "s1", Label: "Old", AcademicYear: "2025-2026", TermNumber: 2, WeekCount: 15},
		},
		byTerm: map[string]string{},
	}
	svc := NewSemesterService(repo, nil, validator.New(), zap.NewNop())

	updated, err := svc.Update(context.Background(), "s1", models.UpdateSemesterRequest{
		Label: "Renamed", AcademicYear: "2026-2027",
	})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Label)
	assert.Equal(t, "2026-2027", updated.AcademicYear)
	assert.Equal(t, 15, updated.WeekCount)
	assert.Equal(t, 2, updated.TermNumber)
}
