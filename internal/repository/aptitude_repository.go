package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

// AptitudeRepository manages persistence for weekly merit and demerit
// records.
type AptitudeRepository struct {
	db *sqlx.DB
}

// NewAptitudeRepository constructs an AptitudeRepository.
func NewAptitudeRepository(db *sqlx.DB) *AptitudeRepository {
	return &AptitudeRepository{db: db}
}

// Roster returns aptitude rows joined with cadet metadata for every
// approved cadet in the semester.
func (r *AptitudeRepository) Roster(ctx context.Context, semesterID, platoon, company string) ([]models.AptitudeRosterRow, error) {
	base := `SELECT a.id, a.cadet_id, a.semester_id, a.merits, a.demerits, a.total_merits, a.aptitude_score, a.created_at, a.updated_at,
        c.student_number, c.last_name || ', ' || c.first_name AS cadet_name, c.platoon, c.company
        FROM aptitude_records a
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

	var rows []models.AptitudeRosterRow
	if err := r.db.SelectContext(ctx, &rows, base, args...); err != nil {
		return nil, fmt.Errorf("aptitude roster: %w", err)
	}
	return rows, nil
}

// FindByCadetSemester returns the aptitude record for one cadet in one
// semester.
func (r *AptitudeRepository) FindByCadetSemester(ctx context.Context, cadetID, semesterID string) (*models.AptitudeRecord, error) {
	const query = `SELECT id, cadet_id, semester_id, merits, demerits, total_merits, aptitude_score, created_at, updated_at FROM aptitude_records WHERE cadet_id = $1 AND semester_id = $2 LIMIT 1`
	var record models.AptitudeRecord
	if err := r.db.GetContext(ctx, &record, query, cadetID, semesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find aptitude record: %w", err)
	}
	return &record, nil
}

const aptitudeUpsert = `INSERT INTO aptitude_records (id, cadet_id, semester_id, merits, demerits, total_merits, aptitude_score, created_at, updated_at)
    VALUES (:id, :cadet_id, :semester_id, :merits, :demerits, :total_merits, :aptitude_score, :created_at, :updated_at)
    ON CONFLICT (cadet_id, semester_id) DO UPDATE SET merits = EXCLUDED.merits, demerits = EXCLUDED.demerits, total_merits = EXCLUDED.total_merits, aptitude_score = EXCLUDED.aptitude_score, updated_at = EXCLUDED.updated_at`

// Upsert writes one aptitude record, last write wins per (cadet, semester).
func (r *AptitudeRepository) Upsert(ctx context.Context, record *models.AptitudeRecord) error {
	prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if _, err := r.db.NamedExecContext(ctx, aptitudeUpsert, record); err != nil {
		return fmt.Errorf("upsert aptitude record: %w", err)
	}
	return nil
}

// UpsertBulk writes many aptitude records inside one transaction.
func (r *AptitudeRepository) UpsertBulk(ctx context.Context, records []*models.AptitudeRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin aptitude bulk upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, record := range records {
		prepareScoreRecord(&record.ID, &record.CreatedAt, &record.UpdatedAt)
		if _, err := tx.NamedExecContext(ctx, aptitudeUpsert, record); err != nil {
			return fmt.Errorf("upsert aptitude record for cadet %s: %w", record.CadetID, err)
		}
	}
	return tx.Commit()
}

// DeleteBySemester removes every aptitude record in a semester.
func (r *AptitudeRepository) DeleteBySemester(ctx context.Context, semesterID string) error {
	const query = `DELETE FROM aptitude_records WHERE semester_id = $1`
	if _, err := r.db.ExecContext(ctx, query, semesterID); err != nil {
		return fmt.Errorf("delete aptitude records: %w", err)
	}
	return nil
}
