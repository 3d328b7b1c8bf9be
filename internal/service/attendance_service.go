package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/scoring"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

// Interfaces shared by the three score-entry services.
type (
	scoreCadetRepository interface {
		FindByID(ctx context.Context, id string) (*models.Cadet, error)
	}

	scoreSemesterRepository interface {
		FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error)
	}

	gradeRecomputer interface {
		Recompute(ctx context.Context, cadetID string, semester *models.SemesterPeriod) (*models.GradeSummary, error)
	}

	auditLogRepository interface {
		CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	}
)

type attendanceRepository interface {
	Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AttendanceRosterRow, error)
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
	UpsertBulk(ctx context.Context, records []*models.AttendanceRecord) error
}

// AttendanceService records weekly presence and derives the 30-point
// attendance contribution.
type AttendanceService struct {
	repo      attendanceRepository
	cadets    scoreCadetRepository
	semesters scoreSemesterRepository
	grades    gradeRecomputer
	audit     auditLogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, cadets scoreCadetRepository, semesters scoreSemesterRepository, grades gradeRecomputer, audit auditLogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AttendanceService{repo: repo, cadets: cadets, semesters: semesters, grades: grades, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Roster returns the attendance entry screen for a semester, cached per
// (semester, platoon, company).
func (s *AttendanceService) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AttendanceRosterRow, error) {
	if _, err := loadSemester(ctx, s.semesters, semesterID); err != nil {
		return nil, err
	}

	key := RosterKey("attendance", semesterID, platoon, company)
	var cached []models.AttendanceRosterRow
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.Roster(ctx, semesterID, platoon, company)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance roster")
	}

	if err := s.cache.Set(ctx, key, rows, 0); err != nil {
		s.logger.Warn("failed to cache attendance roster", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}

// Get returns one cadet's attendance record for a semester.
func (s *AttendanceService) Get(ctx context.Context, cadetID, semesterID string) (*models.AttendanceRecord, error) {
	record, err := s.repo.FindByCadetSemester(ctx, cadetID, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no attendance record for this cadet and semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}
	return record, nil
}

// Save writes one cadet's weekly presence and recomputes the final grade.
func (s *AttendanceService) Save(ctx context.Context, semesterID string, req models.SaveAttendanceRequest, actorID string) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	semester, err := loadSemester(ctx, s.semesters, semesterID)
	if err != nil {
		return nil, err
	}

	record, err := s.buildRecord(ctx, semester, req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance record")
	}

	if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
		s.logger.Error("grade recompute failed after attendance save", zap.String("cadet_id", record.CadetID), zap.Error(err))
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "attendance", record.CadetID)
	return record, nil
}

// SaveBulk writes presence for many cadets. Atomic mode aborts the whole
// batch on the first bad row; partialOnError keeps going and reports the
// rows it skipped.
func (s *AttendanceService) SaveBulk(ctx context.Context, semesterID string, req models.BulkSaveAttendanceRequest, actorID string) (*models.BulkSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk attendance payload")
	}

	semester, err := loadSemester(ctx, s.semesters, semesterID)
	if err != nil {
		return nil, err
	}

	mode := req.Mode
	if mode == "" {
		mode = models.BulkModeAtomic
	}

	result := &models.BulkSaveResult{}

	if mode == models.BulkModeAtomic {
		records := make([]*models.AttendanceRecord, 0, len(req.Items))
		for _, item := range req.Items {
			record, err := s.buildRecord(ctx, semester, item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if err := s.repo.UpsertBulk(ctx, records); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance records")
		}
		for _, record := range records {
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk attendance save", zap.String("cadet_id", record.CadetID), zap.Error(err))
			}
		}
		result.SuccessCount = len(records)
	} else {
		for _, item := range req.Items {
			record, err := s.buildRecord(ctx, semester, item)
			if err != nil {
				result.FailureCount++
				result.Failures = append(result.Failures, models.BulkCadetOutcome{CadetID: item.CadetID, Reason: appErrors.FromError(err).Message})
				continue
			}
			if err := s.repo.Upsert(ctx, record); err != nil {
				result.FailureCount++
				result.Failures = append(result.Failures, models.BulkCadetOutcome{CadetID: item.CadetID, Reason: "failed to save attendance record"})
				continue
			}
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk attendance save", zap.String("cadet_id", record.CadetID), zap.Error(err))
			}
			result.SuccessCount++
		}
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "attendance", "bulk")
	return result, nil
}

func (s *AttendanceService) buildRecord(ctx context.Context, semester *models.SemesterPeriod, req models.SaveAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := requireApprovedCadet(ctx, s.cadets, req.CadetID); err != nil {
		return nil, err
	}

	present := scoring.NormalizeWeeks(req.Present, semester.WeekCount, false)
	computed := scoring.ComputeAttendance(present, semester.WeekCount)

	return &models.AttendanceRecord{
		CadetID:         req.CadetID,
		SemesterID:      semester.ID,
		Present:         pq.BoolArray(present),
		WeeksPresent:    computed.WeeksPresent,
		AttendanceScore: computed.AttendanceScore,
	}, nil
}

// loadSemester resolves a semester or maps its absence to a 404.
func loadSemester(ctx context.Context, repo scoreSemesterRepository, id string) (*models.SemesterPeriod, error) {
	semester, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// requireApprovedCadet rejects score writes against cadets outside the
// APPROVED lifecycle state.
func requireApprovedCadet(ctx context.Context, repo scoreCadetRepository, cadetID string) error {
	cadet, err := repo.FindByID(ctx, cadetID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "cadet not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cadet")
	}
	if cadet.Status != models.CadetStatusApproved {
		return appErrors.Clone(appErrors.ErrCadetNotApproved, "")
	}
	return nil
}

func recordScoreAudit(ctx context.Context, audit auditLogRepository, logger *zap.Logger, actorID, resource, resourceID string) {
	if audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     models.AuditActionScoreSave,
		Resource:   resource,
		ResourceID: &resourceID,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if err := audit.CreateAuditLog(ctx, entry); err != nil && logger != nil {
		logger.Warn("failed to record score audit log", zap.String("resource", resource), zap.Error(err))
	}
}
