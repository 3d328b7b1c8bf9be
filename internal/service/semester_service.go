package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.SemesterPeriod, int, error)
	FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error)
	FindActive(ctx context.Context) (*models.SemesterPeriod, error)
	ExistsByTerm(ctx context.Context, academicYear string, termNumber int, excludeID string) (bool, error)
	Create(ctx context.Context, semester *models.SemesterPeriod) error
	Update(ctx context.Context, semester *models.SemesterPeriod) error
	Activate(ctx context.Context, id string) error
}

// SemesterService manages semester periods and the single-active
// invariant.
type SemesterService struct {
	repo      semesterRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs a SemesterService.
func NewSemesterService(repo semesterRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SemesterService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns semesters matching the filter.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.SemesterPeriod, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return semesters, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one semester by ID.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Active returns the currently active semester or ErrNoActiveSemester.
func (s *SemesterService) Active(ctx context.Context) (*models.SemesterPeriod, error) {
	semester, err := s.repo.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNoActiveSemester, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}
	return semester, nil
}

// Create opens a new semester. The week count is derived from the term
// number: 10 instructional weeks for first terms, 15 for second terms.
func (s *SemesterService) Create(ctx context.Context, req models.CreateSemesterRequest) (*models.SemesterPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	exists, err := s.repo.ExistsByTerm(ctx, req.AcademicYear, req.TermNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("term %d of %s already exists", req.TermNumber, req.AcademicYear))
	}

	semester := &models.SemesterPeriod{
		Label:        req.Label,
		AcademicYear: req.AcademicYear,
		TermNumber:   req.TermNumber,
		WeekCount:    models.WeeksForTerm(req.TermNumber),
		IsActive:     false,
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Update renames a semester. Week count and term number never change
// after creation because existing records are sized to them.
func (s *SemesterService) Update(ctx context.Context, id string, req models.UpdateSemesterRequest) (*models.SemesterPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid semester payload")
	}

	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.AcademicYear != semester.AcademicYear {
		exists, err := s.repo.ExistsByTerm(ctx, req.AcademicYear, semester.TermNumber, semester.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("term %d of %s already exists", semester.TermNumber, req.AcademicYear))
		}
	}

	semester.Label = req.Label
	semester.AcademicYear = req.AcademicYear
	if err := s.repo.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return semester, nil
}

// Activate makes one semester active, deactivating any other, and drops
// cached rosters and grade sheets that were scoped to the previous term.
func (s *SemesterService) Activate(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	if err := s.repo.Activate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate semester")
	}

	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "roster:*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
		if err := s.cache.Invalidate(ctx, "sheet:*"); err != nil {
			s.logger.Warn("failed to invalidate grade sheet cache", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}
