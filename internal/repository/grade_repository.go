package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

// GradeRepository manages persistence for derived grade summaries.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// FindByCadetSemester returns the grade summary for one cadet in one
// semester.
func (r *GradeRepository) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.GradeSummary, error) {
	const query = `SELECT id, cadet_id, semester_id, attendance_score, aptitude_score, subject_proficiency, final_grade, remarks, computed_at FROM grade_summaries WHERE cadet_id = $1 AND semester_id = $2 LIMIT 1`
	var summary models.GradeSummary
	if err := r.db.GetContext(ctx, &summary, query, cadetID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find grade summary: %w", err)
	}
	return &summary, nil
}

// ListForCadet returns every grade summary a cadet has, newest semester
// first.
func (r *GradeRepository) ListForCadet(ctx context.Context, cadetID string) ([]models.GradeSummary, error) {
	const query = `SELECT g.id, g.cadet_id, g.semester_id, g.attendance_score, g.aptitude_score, g.subject_proficiency, g.final_grade, g.remarks, g.computed_at
        FROM grade_summaries g
        JOIN semester_periods s ON s.id = g.semester_id
        WHERE g.cadet_id = $1
        ORDER BY s.academic_year DESC, s.term_number DESC`
	var summaries []models.GradeSummary
	if err := r.db.SelectContext(ctx, &summaries, query, cadetID); err != nil {
		return nil, fmt.Errorf("list cadet grade summaries: %w", err)
	}
	return summaries, nil
}

// Sheet returns the grade sheet rows for a semester, optionally scoped to
// one platoon or company.
func (r *GradeRepository) Sheet(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheetRow, error) {
	base := `SELECT g.cadet_id, c.student_number, c.last_name || ', ' || c.first_name AS cadet_name, c.platoon,
        g.attendance_score, g.aptitude_score, g.subject_proficiency, g.final_grade, g.remarks
        FROM grade_summaries g
        JOIN cadets c ON c.id = g.cadet_id
        WHERE g.semester_id = $1 AND c.status = $2`
	args := []interface{}{filter.SemesterID, models.CadetStatusApproved}

	var conditions []string
	if filter.Platoon != "" {
		conditions = append(conditions, fmt.Sprintf("c.platoon = $%d", len(args)+1))
		args = append(args, filter.Platoon)
	}
	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("c.company = $%d", len(args)+1))
		args = append(args, filter.Company)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY c.platoon ASC, c.last_name ASC, c.first_name ASC"

	var rows []models.GradeSheetRow
	if err := r.db.SelectContext(ctx, &rows, base, args...); err != nil {
		return nil, fmt.Errorf("grade sheet: %w", err)
	}
	return rows, nil
}

// Upsert writes one derived grade summary, last write wins per (cadet,
// semester).
func (r *GradeRepository) Upsert(ctx context.Context, summary *models.GradeSummary) error {
	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	const query = `INSERT INTO grade_summaries (id, cadet_id, semester_id, attendance_score, aptitude_score, subject_proficiency, final_grade, remarks, computed_at)
        VALUES (:id, :cadet_id, :semester_id, :attendance_score, :aptitude_score, :subject_proficiency, :final_grade, :remarks, :computed_at)
        ON CONFLICT (cadet_id, semester_id) DO UPDATE SET attendance_score = EXCLUDED.attendance_score, aptitude_score = EXCLUDED.aptitude_score, subject_proficiency = EXCLUDED.subject_proficiency, final_grade = EXCLUDED.final_grade, remarks = EXCLUDED.remarks, computed_at = EXCLUDED.computed_at`
	if _, err := r.db.NamedExecContext(ctx, query, summary); err != nil {
		return fmt.Errorf("upsert grade summary: %w", err)
	}
	return nil
}

// DeleteBySemester removes every grade summary in a semester.
func (r *GradeRepository) DeleteBySemester(ctx context.Context, semesterID string) error {
	const query = `DELETE FROM grade_summaries WHERE semester_id = $1`
	if _, err := r.db.ExecContext(ctx, query, semesterID); err != nil {
		return fmt.Errorf("delete grade summaries: %w", err)
	}
	return nil
}
