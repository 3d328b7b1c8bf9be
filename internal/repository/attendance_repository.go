package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

// AttendanceRepository manages persistence for weekly attendance records.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs an AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Roster returns attendance rows joined with cadet metadata for every
// approved cadet in the semester, ordered for the score-entry screen.
func (r *AttendanceRepository) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AttendanceRosterRow, error) {
	base := `SELECT a.id, a.cadet_id, a.semester_id, a.present, a.weeks_present, a.attendance_score, a.created_at, a.updated_at,
        c.student_number, c.last_name || ', ' || c.first_name AS cadet_name, c.platoon, c.company
        FROM attendance_records a
        JOIN cadets c ON c.id = a.cadet_id
        WHERE a.semester_id = $1 AND c.status = $2`
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

	var rows []models.AttendanceRosterRow
	if err := r.db.SelectContext(ctx, &rows, base, args...); err != nil {
		return nil, fmt.Errorf("attendance roster: %w", err)
	}
	return rows, nil
}

// FindByCadetSemester returns the attendance record for one cadet in one
// semester.
func (r *AttendanceRepository) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AttendanceRecord, error) {
	const query = `SELECT id, cadet_id, semester_id, present, weeks_present, attendance_score, created_at, updated_at FROM attendance_records WHERE cadet_id = $1 AND semester_id = $2 LIMIT 1`
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, cadetID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

const attendanceUpsert = `INSERT INTO attendance_records (id, cadet_id, semester_id, present, weeks_present, attendance_score, created_at, updated_at)
    VALUES (:id, :cadet_id, :semester_id, :present, :weeks_present, :attendance_score, :created_at, :updated_at)
    ON CONFLICT (cadet_id, semester_id) DO UPDATE SET present = EXCLUDED.present, weeks_present = EXCLUDED.weeks_present, attendance_score = EXCLUDED.attendance_score, updated_at = EXCLUDED.updated_at`

// Upsert writes one attendance record, last write wins per (cadet,
// semester).
func (r *AttendanceRepository) Upsert(ctx context.Context, record *models.AttendanceRecord) error {
	prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if _, err := r.db.NamedExecContext(ctx, attendanceUpsert, record); err != nil {
		return fmt.Errorf("upsert attendance record: %w", err)
	}
	return nil
}

// UpsertBulk writes many attendance records inside one transaction.
func (r *AttendanceRepository) UpsertBulk(ctx context.Context, records []*models.AttendanceRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attendance bulk upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range records {
		prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, attendanceUpsert, record); err != nil {
			return fmt.Errorf("upsert attendance record for cadet %s: %w", record.CadetID, err)
		}
	}
	return tx.Commit()
}

// DeleteBySemester removes every attendance record in a semester.
func (r *AttendanceRepository) DeleteBySemester(ctx context.Context, semesterID string) error {
	const query = `DELETE FROM attendance_records WHERE semester_id = $1`
	if _, err := r.db.ExecContext(ctx, query, semesterID); err != nil {
		return fmt.Errorf("delete attendance records: %w", err)
	}
	return nil
}

// prepareScoreRecord fills identity and timestamp fields shared by the
// score record upserts.
func prepareScoreRecord(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
