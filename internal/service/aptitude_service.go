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

type aptitudeRepository interface {
	Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AptitudeRosterRow, error)
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AptitudeRecord, error)
	Upsert(ctx context.Context, record *models.AptitudeRecord) error
	UpsertBulk(ctx context.Context, records []*models.AptitudeRecord) error
}

// AptitudeService records weekly merits and demerits and derives the
// 30-point aptitude contribution.
type AptitudeService struct {
	repo      aptitudeRepository
	cadets    scoreCadetRepository
	semesters scoreSemesterRepository
	grades    gradeRecomputer
	audit     auditLogRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAptitudeService constructs an AptitudeService.
func NewAptitudeService(repo aptitudeRepository, cadets scoreCadetRepository, semesters scoreSemesterRepository, grades gradeRecomputer, audit auditLogRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AptitudeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AptitudeService{repo: repo, cadets: cadets, semesters: semesters, grades: grades, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Roster returns the aptitude entry screen for a semester.
func (s *AptitudeService) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AptitudeRosterRow, error) {
	if _, err := loadSemester(ctx, s.semesters, semesterID); err != nil {
		return nil, err
	}

	key := RosterKey("aptitude", semesterID, platoon, company)
	var cached []models.AptitudeRosterRow
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.repo.Roster(ctx, semesterID, platoon, company)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aptitude roster")
	}

	if err := s.cache.Set(ctx, key, rows, 0); err != nil {
		s.logger.Warn("failed to cache aptitude roster", zap.String("key", key), zap.Error(err))
	}
	return rows, nil
}

// Get returns one cadet's aptitude record for a semester.
func (s *AptitudeService) Get(ctx context.Context, cadetID, semesterID string) (*models.AptitudeRecord, error) {
	record, err := s.repo.FindByCadetSemester(ctx, cadetID, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no aptitude record for this cadet and semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aptitude record")
	}
	return record, nil
}

// Save writes one cadet's weekly merits and demerits and recomputes the
// final grade.
func (s *AptitudeService) Save(ctx context.Context, semesterID string, req models.SaveAptitudeRequest, actorID string) (*models.AptitudeRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid aptitude payload")
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
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save aptitude record")
	}

	if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
		s.logger.Error("grade recompute failed after aptitude save", zap.String("cadet_id", record.CadetID), zap.Error(err))
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "aptitude", record.CadetID)
	return record, nil
}

// SaveBulk writes aptitude values for many cadets at once.
func (s *AptitudeService) SaveBulk(ctx context.Context, semesterID string, req models.BulkSaveAptitudeRequest, actorID string) (*models.BulkSaveResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk aptitude payload")
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
		records := make([]*models.AptitudeRecord, 0, len(req.Items))
		for _, item := range req.Items {
			record, err := s.buildRecord(ctx, semester, item)
			if err != nil {
				return nil, err
			}
			records = append(records, record)
		}
		if err := s.repo.UpsertBulk(ctx, records); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save aptitude records")
		}
		for _, record := range records {
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk aptitude save", zap.String("cadet_id", record.CadetID), zap.Error(err))
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
				result.Failures = append(result.Failures, models.BulkCadetOutcome{CadetID: item.CadetID, Reason: "failed to save aptitude record"})
				continue
			}
			if _, err := s.grades.Recompute(ctx, record.CadetID, semester); err != nil {
				s.logger.Error("grade recompute failed after bulk aptitude save", zap.String("cadet_id", record.CadetID), zap.Error(err))
			}
			result.SuccessCount++
		}
	}

	s.cache.InvalidateSemester(ctx, semester.ID)
	recordScoreAudit(ctx, s.audit, s.logger, actorID, "aptitude", "bulk")
	return result, nil
}

func (s *AptitudeService) buildRecord(ctx context.Context, semester *models.SemesterPeriod, req models.SaveAptitudeRequest) (*models.AptitudeRecord, error) {
	if err := requireApprovedCadet(ctx, s.cadets, req.CadetID); err != nil {
		return nil, err
	}

	merits := scoring.NormalizeWeeks(req.Merits, semester.WeekCount, models.DefaultWeeklyMerit)
	demerits := scoring.NormalizeWeeks(req.Demerits, semester.WeekCount, 0)
	computed := scoring.ComputeAptitude(merits, demerits, semester.WeekCount)

	return &models.AptitudeRecord{
		CadetID:       req.CadetID,
		SemesterID:    semester.ID,
		Merits:        toInt64Array(merits),
		Demerits:      toInt64Array(demerits),
		TotalMerits:   computed.TotalMerits,
		AptitudeScore: computed.AptitudeScore,
	}, nil
}

func toInt64Array(values []int) pq.Int64Array {
	out := make(pq.Int64Array, len(values))
	for i, v := range values {
		out[i] = int64(v)
	}
	return out
}
