package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

// ExamRepository manages persistence for exam score records.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// Roster returns exam rows joined with cadet metadata for every approved
// cadet in the semester.
func (r *ExamRepository) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.ExamRosterRow, error) {
	base := `SELECT e.id, e.cadet_id, e.semester_id, e.midterm_exam, e.final_exam, e.max_midterm, e.max_final, e.average, e.subject_proficiency, e.created_at, e.updated_at,
        c.student_number, c.last_name || ', ' || c.first_name AS cadet_name, c.platoon, c.company
        FROM exam_records e
        JOIN cadets c ON c.id = e.cadet_id
        WHERE e.semester_id = $1 AND c.status = $2`
	args := []interface{}{semesterID, models.CadetStatusApproved}

	var conditions []string
	if platoon != "" {
		conditions = append(conditions, fmt.Sprintf("c.platoon = $%d", len(args)+1))
		args = append(args, platoon)
	}
	if company != "" {
		conditions = append(conditions, fmt.Sprintf("c.company = $%d", len(args)+1))
		args = append(args, company)
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	base += " ORDER BY c.platoon ASC, c.last_name ASC, c.first_name ASC"

	var rows []models.ExamRosterRow
	if err := r.db.SelectContext(ctx, &rows, base, args...); err != nil {
		return nil, fmt.Errorf("exam roster: %w", err)
	}
	return rows, nil
}

// FindByCadetSemester returns the exam record for one cadet in one
// semester.
func (r *ExamRepository) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.ExamRecord, error) {
	const query = `SELECT id, cadet_id, semester_id, midterm_exam, final_exam, max_midterm, max_final, average, subject_proficiency, created_at, updated_at FROM exam_records WHERE cadet_id = $1 AND semester_id = $2 LIMIT 1`
	var record models.ExamRecord
	if err := r.db.GetContext(ctx, &record, query, cadetID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam record: %w", err)
	}
	return &record, nil
}

const examUpsert = `INSERT INTO exam_records (id, cadet_id, semester_id, midterm_exam, final_exam, max_midterm, max_final, average, subject_proficiency, created_at, updated_at)
    VALUES (:id, :cadet_id, :semester_id, :midterm_exam, :final_exam, :max_midterm, :max_final, :average, :subject_proficiency, :created_at, :updated_at)
    ON CONFLICT (cadet_id, semester_id) DO UPDATE SET midterm_exam = EXCLUDED.midterm_exam, final_exam = EXCLUDED.final_exam, max_midterm = EXCLUDED.max_midterm, max_final = EXCLUDED.max_final, average = EXCLUDED.average, subject_proficiency = EXCLUDED.subject_proficiency, updated_at = EXCLUDED.updated_at`

// Upsert writes one exam record, last write wins per (cadet, semester).
func (r *ExamRepository) Upsert(ctx context.Context, record *models.ExamRecord) error {
	prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if _, err := r.db.NamedExecContext(ctx, examUpsert, record); err != nil {
		return fmt.Errorf("upsert exam record: %w", err)
	}
	return nil
}

// UpsertBulk writes many exam records inside one transaction.
func (r *ExamRepository) UpsertBulk(ctx context.Context, records []*models.ExamRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin exam bulk upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range records {
		prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, examUpsert, record); err != nil {
			return fmt.Errorf("upsert exam record for cadet %s: %w", record.CadetID, err)
		}
	}
	return tx.Commit()
}

// DeleteBySemester removes every exam record in a semester.
func (r *ExamRepository) DeleteBySemester(ctx context.Context, semesterID string) error {
	const query = `DELETE FROM exam_records WHERE semester_id = $1`
	if _, err := r.db.ExecContext(ctx, query, semesterID); err != nil {
		return fmt.Errorf("delete exam records: %w", err)
	}
	return nil
}
