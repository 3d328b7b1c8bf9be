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

const semesterColumns = `id, label, academic_year, term_number, week_count, is_active, created_at, updated_at`

// SemesterRepository manages persistence for semester periods.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository constructs a SemesterRepository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters matching the filter, newest first.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.SemesterPeriod, int, error) {
	baseQuery := `FROM semester_periods WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY academic_year DESC, term_number DESC LIMIT %d OFFSET %d", semesterColumns, baseQuery, pageSize, offset)

	var semesters []models.SemesterPeriod
	if err := r.db.SelectContext(ctx, &semesters, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByID returns a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM semester_periods WHERE id = $1 LIMIT 1", semesterColumns)
	var semester models.SemesterPeriod
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find semester by id: %w", err)
	}
	return &semester, nil
}

// FindActive returns the single active semester, or sql.ErrNoRows when no
// semester is active.
func (r *SemesterRepository) FindActive(ctx context.Context) (*models.SemesterPeriod, error) {
	query := fmt.Sprintf("SELECT %s FROM semester_periods WHERE is_active = TRUE LIMIT 1", semesterColumns)
	var semester models.SemesterPeriod
	if err := r.db.GetContext(ctx, &semester, query); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find active semester: %w", err)
	}
	return &semester, nil
}

// ExistsByTerm checks whether a (academic year, term number) pair already
// has a semester, optionally excluding one ID.
func (r *SemesterRepository) ExistsByTerm(ctx context.Context, academicYear string, termNumber int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM semester_periods WHERE academic_year = $1 AND term_number = $2"
	args := []interface{}{academicYear, termNumber}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester term: %w", err)
	}
	return true, nil
}

// Create inserts a new semester period.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.SemesterPeriod) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now
	const query = `INSERT INTO semester_periods (id, label, academic_year, term_number, week_count, is_active, created_at, updated_at)
        VALUES (:id, :label, :academic_year, :term_number, :week_count, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update modifies a semester's label and academic year. Term number and
// week count are fixed at creation.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.SemesterPeriod) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semester_periods SET label = :label, academic_year = :academic_year, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

// Activate marks one semester active and deactivates every other inside a
// single transaction, keeping the at-most-one-active invariant.
func (r *SemesterRepository) Activate(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate semester: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE semester_periods SET is_active = FALSE, updated_at = $1 WHERE is_active = TRUE AND id <> $2`, now, id); err != nil {
		return fmt.Errorf("deactivate semesters: %w", err)
	}
	res, err := tx.ExecContext(ctx, `UPDATE semester_periods SET is_active = TRUE, updated_at = $1 WHERE id = $2`, now, id)
	if err != nil {
		return fmt.Errorf("activate semester: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("activate semester rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}
