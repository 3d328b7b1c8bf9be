package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/scoring"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type examRepository interface {
	Roster(ctx context.Context, semesterID, platoon, company string) ([]models.ExamRosterRow, error)
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error)
	Upsert(ctx context.Context, record *models.ExamRecord) error
	UpsertBulk(ctx context.Context, records []*models.ExamRecord) error
}

// ExamService records raw exam scores and derives the exam average and
// 40-point subject proficiency contribution.
type ExamService struct {
	repo           examRepository
	cadets         scoreCadetRepository
	semesters      scoreSemesterRepository
	grades         gradeRecomputer
	audit          auditLogRepository
	cache          *CacheService
	defaultMaxExam float64
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewExamService constructs an ExamService.
func NewExamService(repo examRepository, cadets scoreCadetRepository, semesters scoreSemesterRepository, grades gradeRecomputer, audit auditLogRepository, cache *CacheService, defaultMaxExam float64, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if defaultMaxExam < 1 {
		defaultMaxExam = 100
	}
	return &ExamService{repo: repo, cadets: cadets, semesters: semesters, grades: grades, audit: audit, cache: cache, defaultMaxExam: defaultMaxExam, validator: validate, logger: logger}
}

// Roster returns the exam entry screen for a semester.
func (s *ExamService) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.ExamRosterRow, error) {
	if _, err := loadSemester(ctx, s.semesters, semesterID); err != nil {
		return nil, err
	}

	key := RosterKey("exam", semesterID, platoon, company)
	var cached []models.ExamRosterRow
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.Roster(ctx, semesterID, platoon, company)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam roster")
	}

	if err := s.cache.Set(ctx, key, rows, 0); err != nil {
		s.logger.Warn("failed to cache exam roster", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}

// Get returns one cadet's exam record for a semester.
func (s *ExamService) Get(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error) {
	record, err := s.repo.FindByCadetSemester(ctx, cadetID, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no exam record for this cadet and semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam record")
	}
	return record, nil
}

// Save writes one cadet's exam scores and recomputes the final grade.
func (s *ExamService) Save(ctx context.Context, semesterID string, req models.SaveExamRequest, actorID string) (*models.ExamRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
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
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save exam record")
	}

	if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
		s.logger.Error("grade recompute failed after exam save", zap.String("cadet_id", record.CadetID), zap.Error(err))
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "exam", record.CadetID)
	return record, nil
}

// SaveBulk writes exam scores for many cadets at once.
func (s *ExamService) SaveBulk(ctx context.Context, semesterID string, req models.BulkSaveExamRequest, actorID string) (*models.BulkSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk exam payload")
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
		records := make([]*models.ExamRecord, 0, len(req.Items))
		for _, item := range req.Items {
			record, err := s.buildRecord(ctx, semester, item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if err := s.repo.UpsertBulk(ctx, records); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save exam records")
		}
		for _, record := range records {
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk exam save", zap.String("cadet_id", record.CadetID), zap.Error(err))
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
				result.Failures = append(result.Failures, models.BulkCadetOutcome{CadetID: item.CadetID, Reason: "failed to save exam record"})
				continue
			}
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk exam save", zap.String("cadet_id", record.CadetID), zap.Error(err))
			}
			result.SuccessCount++
		}
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "exam", "bulk")
	return result, nil
}

func (s *ExamService) buildRecord(ctx context.Context, semester *models.SemesterPeriod, req models.SaveExamRequest) (*models.ExamRecord, error) {
	if err := requireApprovedCadet(ctx, s.cadets, req.CadetID); err != nil {
		return nil, err
	}

	maxMidterm := req.MaxMidterm
	if maxMidterm < 1 {
		maxMidterm = s.defaultMaxExam
	}
	maxFinal := req.MaxFinal
	if maxFinal < 1 {
		maxFinal = s.defaultMaxExam
	}

	if req.MidtermExam != nil && *req.MidtermExam > maxMidterm {
		return nil, appErrors.Clone(appErrors.ErrValidation, "midterm score exceeds its max scale")
	}
	if req.FinalExam != nil && *req.FinalExam > maxFinal {
		return nil, appErrors.Clone(appErrors.ErrValidation, "final score exceeds its max scale")
	}

	computed := scoring.ComputeExam(req.FinalExam, req.MidtermExam, maxFinal, maxMidterm, semester.WeekCount)

	return &models.ExamRecord{
		CadetID:            req.CadetID,
		SemesterID:         semester.ID,
		MidtermExam:        req.MidtermExam,
		FinalExam:          req.FinalExam,
		MaxMidterm:         maxMidterm,
		MaxFinal:           maxFinal,
		Average:            computed.Average,
		SubjectProficiency: computed.SubjectProficiency,
	}, nil
}
