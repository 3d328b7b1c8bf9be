package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type cadetRepository interface {
	List(ctx context.Context, filter models.CadetFilter) ([]models.Cadet, int, error)
	FindByID(ctx context.Context, id string) (*models.Cadet, error)
	ExistsByStudentNumber(ctx context.Context, studentNumber, excludeID string) (bool, error)
	Create(ctx context.Context, cadet *models.Cadet) error
	Update(ctx context.Context, cadet *models.Cadet) error
	UpdateStatus(ctx context.Context, id string, status models.CadetStatus) error
	ListIDsByStatus(ctx context.Context, status models.CadetStatus) ([]string, error)
	ArchiveAll(ctx context.Context, fromStatus models.CadetStatus) (int, error)
}

type cadetAccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	SetActive(ctx context.Context, id string, active bool) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// scoreBootstrapper seeds default score records when a cadet joins the
// active semester.
type scoreBootstrapper interface {
	EnsureDefaultRecords(ctx context.Context, cadetID string) error
}

// CadetService covers cadet registration, the approval workflow and
// profile management.
type CadetService struct {
	repo      cadetRepository
	accounts  cadetAccountRepository
	bootstrap scoreBootstrapper
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCadetService constructs a CadetService.
func NewCadetService(repo cadetRepository, accounts cadetAccountRepository, bootstrap scoreBootstrapper, validate *validator.Validate, logger *zap.Logger) *CadetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CadetService{repo: repo, accounts: accounts, bootstrap: bootstrap, validator: validate, logger: logger}
}

// Register creates a PENDING cadet profile together with its login
// account. The cadet stays invisible to rosters until approved.
func (s *CadetService) Register(ctx context.Context, req models.RegisterCadetRequest) (*models.Cadet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	exists, err := s.repo.ExistsByStudentNumber(ctx, req.StudentNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student number is already registered")
	}

	if _, err := s.accounts.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email is already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     fmt.Sprintf("%s %s", req.FirstName, req.LastName),
		Role:         models.RoleCadet,
		Active:       true,
	}
	if err := s.accounts.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create account")
	}

	cadet := &models.Cadet{
		StudentNumber: req.StudentNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		MiddleName:    req.MiddleName,
		Campus:        req.Campus,
		Course:        req.Course,
		YearLevel:     req.YearLevel,
		Section:       req.Section,
		Platoon:       req.Platoon,
		Company:       req.Company,
		Battalion:     req.Battalion,
		Status:        models.CadetStatusPending,
		UserID:        &user.ID,
	}
	if err := s.repo.Create(ctx, cadet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cadet")
	}

	return cadet, nil
}

// List returns cadets matching the filter with pagination metadata.
func (s *CadetService) List(ctx context.Context, filter models.CadetFilter) ([]models.Cadet, *models.Pagination, error) {
	cadets, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cadets")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return cadets, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one cadet by ID.
func (s *CadetService) Get(ctx context.Context, id string) (*models.Cadet, error) {
	cadet, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cadet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cadet")
	}
	return cadet, nil
}

// Update applies profile changes to a cadet.
func (s *CadetService) Update(ctx context.Context, id string, req models.UpdateCadetRequest) (*models.Cadet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cadet payload")
	}

	cadet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.StudentNumber != nil && *req.StudentNumber != cadet.StudentNumber {
		exists, err := s.repo.ExistsByStudentNumber(ctx, *req.StudentNumber, cadet.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check student number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "student number is already registered")
		}
		cadet.StudentNumber = *req.StudentNumber
	}
	if req.FirstName != nil {
		cadet.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		cadet.LastName = *req.LastName
	}
	if req.MiddleName != nil {
		cadet.MiddleName = req.MiddleName
	}
	if req.Campus != nil {
		cadet.Campus = *req.Campus
	}
	if req.Course != nil {
		cadet.Course = *req.Course
	}
	if req.YearLevel != nil {
		cadet.YearLevel = *req.YearLevel
	}
	if req.Section != nil {
		cadet.Section = *req.Section
	}
	if req.Platoon != nil {
		cadet.Platoon = *req.Platoon
	}
	if req.Company != nil {
		cadet.Company = *req.Company
	}
	if req.Battalion != nil {
		cadet.Battalion = *req.Battalion
	}

	if err := s.repo.Update(ctx, cadet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update cadet")
	}
	return cadet, nil
}

// Approve moves a PENDING cadet to APPROVED and seeds default score
// records for the active semester.
func (s *CadetService) Approve(ctx context.Context, id, actorID string) (*models.Cadet, error) {
	cadet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cadet.Status != models.CadetStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cadet is %s, only PENDING cadets can be approved", cadet.Status))
	}

	if err := s.repo.UpdateStatus(ctx, cadet.ID, models.CadetStatusApproved); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to approve cadet")
	}
	cadet.Status = models.CadetStatusApproved

	if s.bootstrap != nil {
		if err := s.bootstrap.EnsureDefaultRecords(ctx, cadet.ID); err != nil {
			s.logger.Warn("failed to seed score records for approved cadet", zap.String("cadet_id", cadet.ID), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionCadetApprove, cadet.ID)
	return cadet, nil
}

// Reject moves a PENDING cadet to REJECTED and disables its login.
func (s *CadetService) Reject(ctx context.Context, id, actorID string) (*models.Cadet, error) {
	cadet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cadet.Status != models.CadetStatusPending {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cadet is %s, only PENDING cadets can be rejected", cadet.Status))
	}

	if err := s.repo.UpdateStatus(ctx, cadet.ID, models.CadetStatusRejected); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reject cadet")
	}
	cadet.Status = models.CadetStatusRejected

	if cadet.UserID != nil {
		if err := s.accounts.SetActive(ctx, *cadet.UserID, false); err != nil {
			s.logger.Warn("failed to deactivate rejected cadet account", zap.String("user_id", *cadet.UserID), zap.Error(err))
		}
	}

	s.audit(ctx, actorID, models.AuditActionCadetReject, cadet.ID)
	return cadet, nil
}

// Archive moves an APPROVED cadet to ARCHIVED at end of term.
func (s *CadetService) Archive(ctx context.Context, id, actorID string) (*models.Cadet, error) {
	cadet, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cadet.Status != models.CadetStatusApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("cadet is %s, only APPROVED cadets can be archived", cadet.Status))
	}

	if err := s.repo.UpdateStatus(ctx, cadet.ID, models.CadetStatusArchived); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive cadet")
	}
	cadet.Status = models.CadetStatusArchived

	s.audit(ctx, actorID, models.AuditActionCadetArchive, cadet.ID)
	return cadet, nil
}

// ArchiveAll archives every APPROVED cadet. Atomic mode runs as one
// transaction; partialOnError archives what it can and reports the rest.
func (s *CadetService) ArchiveAll(ctx context.Context, req models.ArchiveAllRequest, actorID string) (*models.BulkSaveResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = models.BulkModeAtomic
	}

	if mode == models.BulkModeAtomic {
		affected, err := s.repo.ArchiveAll(ctx, models.CadetStatusApproved)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive cadets")
		}
		s.audit(ctx, actorID, models.AuditActionCadetArchive, "all")
		return &models.BulkSaveResult{SuccessCount: affected}, nil
	}

	ids, err := s.repo.ListIDsByStatus(ctx, models.CadetStatusApproved)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cadets")
	}

	result := &models.BulkSaveResult{}
	for _, id := range ids {
		if err := s.repo.UpdateStatus(ctx, id, models.CadetStatusArchived); err != nil {
			result.FailureCount++
			result.Failures = append(result.Failures, models.BulkCadetOutcome{CadetID: id, Reason: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	s.audit(ctx, actorID, models.AuditActionCadetArchive, "all")
	return result, nil
}

func (s *CadetService) audit(ctx context.Context, actorID, action, cadetID string) {
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "cadet",
		ResourceID: &cadetID,
		CreatedAt:  time.Now().UTC(),
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := s.accounts.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record cadet audit log", zap.String("action", action), zap.Error(err))
	}
}
