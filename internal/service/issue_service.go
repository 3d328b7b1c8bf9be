package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type issueRepository interface {
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	FindByID(ctx context.Context, id string) (*models.Issue, error)
	Create(ctx context.Context, issue *models.Issue) error
	UpdateStatus(ctx context.Context, id string, status models.IssueStatus, adminResponse *string) error
}

// IssueService manages the reporting workflow for portal issues.
type IssueService struct {
	repo      issueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIssueService constructs an IssueService.
func NewIssueService(repo issueRepository, validate *validator.Validate, logger *zap.Logger) *IssueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IssueService{repo: repo, validator: validate, logger: logger}
}

// Report files a new issue. Anonymous reports drop the reporter link
// entirely so the admin view cannot trace them back.
func (s *IssueService) Report(ctx context.Context, req models.CreateIssueRequest, reporterID string) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}

	issue := &models.Issue{
		Type:        req.Type,
		Description: req.Description,
		Status:      models.IssueStatusPending,
		Anonymous:   req.Anonymous,
	}
	if !req.Anonymous && reporterID != "" {
		issue.ReporterID = &reporterID
	}

	if err := s.repo.Create(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create issue")
	}
	return issue, nil
}

// List returns issues matching the filter.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, *models.Pagination, error) {
	issues, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list issues")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return issues, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one issue by ID.
func (s *IssueService) Get(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load issue")
	}
	return issue, nil
}

// Update transitions an issue's status with an optional admin response.
// Resolved issues are terminal.
func (s *IssueService) Update(ctx context.Context, id string, req models.UpdateIssueRequest) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown issue status")
	}

	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if issue.Status == models.IssueStatusResolved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "resolved issues cannot be reopened")
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status, req.AdminResponse); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update issue")
	}

	return s.Get(ctx, id)
}
