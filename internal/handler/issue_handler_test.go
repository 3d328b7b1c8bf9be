package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/middleware"
	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

type issueRepoStub struct {
	issues map[string]models.Issue
}

func (s *issueRepoStub) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	out := make([]models.Issue, 0, len(s.issues))
	for _, i := range s.issues {
		out = append(out, i)
	}
	return out, len(out), nil
}

func (s *issueRepoStub) FindByID(ctx context.Context, id string) (*models.Issue, error) {
	if i, ok := s.issues[id]; ok {
		return &i, nil
	}
	return nil, sql.ErrNoRows
}

func (s *issueRepoStub) Create(ctx context.Context, issue *models.Issue) error {
	if s.issues == nil {
		s.issues = make(map[string]models.Issue)
	}
	if issue.ID == "" {
		issue.ID = "issue-1"
	}
	s.issues[issue.ID] = *issue
	return nil
}

func (s *issueRepoStub) UpdateStatus(ctx context.Context, id string, status models.IssueStatus, adminResponse *string) error {
	issue := s.issues[id]
	issue.Status = status
	if adminResponse != nil {
		issue.AdminResponse = adminResponse
	}
	s.issues[id] = issue
	return nil
}

func newIssueTestHandler(repo *issueRepoStub) *IssueHandler {
	svc := service.NewIssueService(repo, validator.New(), zap.NewNop())
	return NewIssueHandler(svc)
}

func TestIssueReportAttachesReporterFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &issueRepoStub{}
	handler := newIssueTestHandler(repo)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(models.CreateIssueRequest{Type: "GRADE_DISPUTE", Description: "week 3 attendance is wrong"})
	req, _ := http.NewRequest(http.MethodPost, "/issues", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleCadet})

	handler.Report(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	payload, _ := json.Marshal(envelope.Data)
	var issue models.Issue
	require.NoError(t, json.Unmarshal(payload, &issue))
	require.NotNil(t, issue.ReporterID)
	assert.Equal(t, "u1", *issue.ReporterID)
}

func TestIssueReportInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIssueTestHandler(&issueRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/issues", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Report(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueListRejectsUnknownStatusFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIssueTestHandler(&issueRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/issues?status=CLOSED", nil)
	c.Request = req

	handler.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestIssueGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newIssueTestHandler(&issueRepoStub{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/issues/missing", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
