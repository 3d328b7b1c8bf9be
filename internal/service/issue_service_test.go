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

type mockIssueRepo struct {
	issues map[string]models.Issue
}

func (m *mockIssueRepo) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	out := make([]models.Issue, 0, len(m.issues))
	for _, i := range m.issues {
		if filter.Status != nil && i.Status != *filter.Status {
			continue
		}
		out = append(out, i)
	}
	return out, len(out), nil
}

func (m *mockIssueRepo) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	if i, ok := m.issues[id]; ok {
		return &i, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockIssueRepo) Create(ctx context.Context, issue *models.Issue) error {
	if m.issues == nil {
		m.issues = make(map[string]models.Issue)
	}
	if issue.ID == "" {
		issue.ID = "issue-generated"
	}
	m.issues[issue.ID] = *issue
	return nil
}

func (m *mockIssueRepo) UpdateStatus(ctx context.Context, id string, status models.IssueStatus, adminResponse *string) error {
	issue := m.issues[id]
	issue.Status = status
	if adminResponse != nil {
		issue.AdminResponse = adminResponse
	}
	m.issues[id] = issue
	return nil
}

func TestReportIssueKeepsReporter(t *testing.T) {
	repo := &mockIssueRepo{}
	svc := NewIssueService(repo, validator.New(), zap.NewNop())

	issue, err := svc.Report(context.Background(), models.CreateIssueRequest{
		Type: "GRADE_DISPUTE", Description: "Attendance for week 3 is wrong",
	}, "user-1")
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusPending, issue.Status)
	require.NotNil(t, issue.ReporterID)
	assert.Equal(t, "user-1", *issue.ReporterID)
}

func TestReportAnonymousIssueDropsReporter(t *testing.T) {
	repo := &mockIssueRepo{}
	svc := NewIssueService(repo, validator.New(), zap.NewNop())

	issue, err := svc.Report(context.Background(), models.CreateIssueRequest{
		Type: "HARASSMENT", Description: "Incident during Saturday training", Anonymous: true,
	}, "user-1")
	require.NoError(t, err)

	assert.True(t, issue.Anonymous)
	assert.Nil(t, issue.ReporterID)
}

func TestUpdateIssueRecordsAdminResponse(t *testing.T) {
	repo := &mockIssueRepo{issues: map[string]models.Issue{
		"i1": {ID: "i1", Status: models.IssueStatusPending},
	}}
	svc := NewIssueService(repo, validator.New(), zap.NewNop())

	response := "Looking into the attendance logs"
	issue, err := svc.Update(context.Background(), "i1", models.UpdateIssueRequest{
		Status: models.IssueStatusInProgress, AdminResponse: &response,
	})
	require.NoError(t, err)

	assert.Equal(t, models.IssueStatusInProgress, issue.Status)
	require.NotNil(t, issue.AdminResponse)
	assert.Equal(t, response, *issue.AdminResponse)
}

func TestUpdateResolvedIssueIsTerminal(t *testing.T) {
	repo := &mockIssueRepo{issues: map[string]models.Issue{
		"i1": {ID: "i1", Status: models.IssueStatusResolved},
	}}
	svc := NewIssueService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "i1", models.UpdateIssueRequest{Status: models.IssueStatusPending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUpdateIssueRejectsUnknownStatus(t *testing.T) {
	repo := &mockIssueRepo{issues: map[string]models.Issue{
		"i1": {ID: "i1", Status: models.IssueStatusPending},
	}}
	svc := NewIssueService(repo, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "i1", models.UpdateIssueRequest{Status: "CLOSED"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
