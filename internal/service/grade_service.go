package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/scoring"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type gradeAttendanceRepository interface {
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AttendanceRecord, error)
	Upsert(ctx context.Context, record *models.AttendanceRecord) error
}

type gradeAptitudeRepository interface {
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AptitudeRecord, error)
	Upsert(ctx context.Context, record *models.AptitudeRecord) error
}

type gradeExamRepository interface {
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error)
	Upsert(ctx context.Context, record *models.ExamRecord) error
}

type gradeSummaryRepository interface {
	FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.GradeSummary, error)
	ListForCadet(ctx context.Context, cadetID string) ([]models.GradeSummary, error)
	Sheet(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheetRow, error)
	Upsert(ctx context.Context, summary *models.GradeSummary) error
}

type gradeSemesterRepository interface {
	FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error)
	FindActive(ctx context.Context) (*models.SemesterPeriod, error)
}

// GradePolicy carries the institution's configurable grading knobs.
type GradePolicy struct {
	PassingGrade   int
	DefaultMaxExam float64
}

// GradeService derives final grades from the three component records and
// serves grade sheets. Summaries are never authored directly: every score
// write funnels through Recompute.
type GradeService struct {
	attendance gradeAttendanceRepository
	aptitude   gradeAptitudeRepository
	exams      gradeExamRepository
	grades     gradeSummaryRepository
	semesters  gradeSemesterRepository
	cache      *CacheService
	policy     GradePolicy
	logger     *zap.Logger
}

// NewGradeService constructs a GradeService.
func NewGradeService(attendance gradeAttendanceRepository, aptitude gradeAptitudeRepository, exams gradeExamRepository, grades gradeSummaryRepository, semesters gradeSemesterRepository, cache *CacheService, policy GradePolicy, logger *zap.Logger) *GradeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if policy.PassingGrade <= 0 {
		policy.PassingGrade = 75
	}
	if policy.DefaultMaxExam < 1 {
		policy.DefaultMaxExam = 100
	}
	return &GradeService{
		attendance: attendance,
		aptitude:   aptitude,
		exams:      exams,
		grades:     grades,
		semesters:  semesters,
		cache:      cache,
		policy:     policy,
		logger:     logger,
	}
}

// Recompute rebuilds one cadet's grade summary for a semester from the
// stored component records. Missing components contribute zero.
func (s *GradeService) Recompute(ctx context.Context, cadetID string, semester *models.SemesterPeriod) (*models.GradeSummary, error) {
	attendanceScore := 0
	if record, err := s.attendance.FindByCadetSemester(ctx, cadetID, semester.ID); err == nil {
		attendanceScore = record.AttendanceScore
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance record")
	}

	aptitudeScore := 0
	if record, err := s.aptitude.FindByCadetSemester(ctx, cadetID, semester.ID); err == nil {
		aptitudeScore = record.AptitudeScore
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load aptitude record")
	}

	proficiency := 0
	if record, err := s.exams.FindByCadetSemester(ctx, cadetID, semester.ID); err == nil {
		proficiency = record.SubjectProficiency
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam record")
	}

	final := scoring.ComputeFinalGrade(attendanceScore, aptitudeScore, proficiency, s.policy.PassingGrade)

	summary := &models.GradeSummary{
		CadetID:            cadetID,
		SemesterID:         semester.ID,
		AttendanceScore:    attendanceScore,
		AptitudeScore:      aptitudeScore,
		SubjectProficiency: proficiency,
		FinalGrade:         final.FinalGrade,
		Remarks:            models.GradeRemark(final.Remarks),
		ComputedAt:         time.Now().UTC(),
	}
	if err := s.grades.Upsert(ctx, summary); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store grade summary")
	}

	if s.cache.Enabled() {
		s.cache.InvalidateSemester(ctx, semester.ID)
	}

	return summary, nil
}

// Get returns one cadet's grade summary for a semester.
func (s *GradeService) Get(ctx context.Context, cadetID, semesterID string) (*models.GradeSummary, error) {
	summary, err := s.grades.FindByCadetSemester(ctx, cadetID, semesterID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no grade summary for this cadet and semester")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade summary")
	}
	return summary, nil
}

// History returns every grade summary a cadet has accumulated.
func (s *GradeService) History(ctx context.Context, cadetID string) ([]models.GradeSummary, error) {
	summaries, err := s.grades.ListForCadet(ctx, cadetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grade history")
	}
	return summaries, nil
}

// Sheet returns the grade sheet for a semester, served from cache when
// possible.
func (s *GradeService) Sheet(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheetRow, error) {
	if _, err := s.semesters.FindByID(ctx, filter.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	key := SheetKey(filter.SemesterID, filter.Platoon, filter.Company)
	var cached []models.GradeSheetRow
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached, nil
	}

	rows, err := s.grades.Sheet(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to build grade sheet")
	}

	if err := s.cache.Set(ctx, key, rows, 0); err != nil {
		s.logger.Warn("failed to cache grade sheet", zap.String("key", key), zap.Error(err))
	}

	return rows, nil
}

// EnsureDefaultRecords seeds zeroed score records for a newly approved
// cadet in the active semester: no attendance, full starting merits, no
// exam scores. Without an active semester this is a no-op.
func (s *GradeService) EnsureDefaultRecords(ctx context.Context, cadetID string) error {
	semester, err := s.semesters.FindActive(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Info("no active semester, skipping score record bootstrap", zap.String("cadet_id", cadetID))
			return nil
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active semester")
	}

	weekCount := semester.WeekCount

	if _, err := s.attendance.FindByCadetSemester(ctx, cadetID, semester.ID); errors.Is(err, sql.ErrNoRows) {
		record := &models.AttendanceRecord{
			CadetID:    cadetID,
			SemesterID: semester.ID,
			Present:    pq.BoolArray(make([]bool, weekCount)),
		}
		if err := s.attendance.Upsert(ctx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed attendance record")
		}
	} else if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check attendance record")
	}

	if _, err := s.aptitude.FindByCadetSemester(ctx, cadetID, semester.ID); errors.Is(err, sql.ErrNoRows) {
		merits := make(pq.Int64Array, weekCount)
		for i := range merits {
			merits[i] = models.DefaultWeeklyMerit
		}
		result := scoring.ComputeAptitude(nil, nil, weekCount)
		record := &models.AptitudeRecord{
			CadetID:       cadetID,
			SemesterID:    semester.ID,
			Merits:        merits,
			Demerits:      make(pq.Int64Array, weekCount),
			TotalMerits:   result.TotalMerits,
			AptitudeScore: result.AptitudeScore,
		}
		if err := s.aptitude.Upsert(ctx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed aptitude record")
		}
	} else if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check aptitude record")
	}

	if _, err := s.exams.FindByCadetSemester(ctx, cadetID, semester.ID); errors.Is(err, sql.ErrNoRows) {
		record := &models.ExamRecord{
			CadetID:    cadetID,
			SemesterID: semester.ID,
			MaxMidterm: s.policy.DefaultMaxExam,
			MaxFinal:   s.policy.DefaultMaxExam,
		}
		if err := s.exams.Upsert(ctx, record); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to seed exam record")
		}
	} else if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam record")
	}

	if _, err := s.Recompute(ctx, cadetID, semester); err != nil {
		return err
	}
	return nil
}
