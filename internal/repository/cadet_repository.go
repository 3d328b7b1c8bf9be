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

const cadetColumns = `id, student_number, first_name, last_name, middle_name, campus, course, year_level, section, platoon, company, battalion, status, user_id, created_at, updated_at`

// CadetRepository manages persistence for cadet records.
type CadetRepository struct {
	db *sqlx.DB
}

// NewCadetRepository constructs a CadetRepository.
func NewCadetRepository(db *sqlx.DB) *CadetRepository {
	return &CadetRepository{db: db}
}

// List returns cadets matching the provided filters with a total count.
func (r *CadetRepository) List(ctx context.Context, filter models.CadetFilter) ([]models.Cadet, int, error) {
	baseQuery := `FROM cadets WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Campus != "" {
		conditions = append(conditions, fmt.Sprintf("campus = $%d", len(args)+1))
		args = append(args, filter.Campus)
	}
	if filter.Platoon != "" {
		conditions = append(conditions, fmt.Sprintf("platoon = $%d", len(args)+1))
		args = append(args, filter.Platoon)
	}
	if filter.Company != "" {
		conditions = append(conditions, fmt.Sprintf("company = $%d", len(args)+1))
		args = append(args, filter.Company)
	}
	if filter.Battalion != "" {
		conditions = append(conditions, fmt.Sprintf("battalion = $%d", len(args)+1))
		args = append(args, filter.Battalion)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(first_name) LIKE $%d OR LOWER(last_name) LIKE $%d OR LOWER(student_number) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"last_name":      true,
		"student_number": true,
		"platoon":        true,
		"created_at":     true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "last_name"
	}
	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "ASC"
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

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", cadetColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var cadets []models.Cadet
	if err := r.db.SelectContext(ctx, &cadets, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list cadets: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count cadets: %w", err)
	}

	return cadets, total, nil
}

// FindByID returns a cadet by identifier.
func (r *CadetRepository) FindByID(ctx context.Context, id string) (*models.Cadet, error) {
	query := fmt.Sprintf("SELECT %s FROM cadets WHERE id = $1 LIMIT 1", cadetColumns)
	var cadet models.Cadet
	if err := r.db.GetContext(ctx, &cadet, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cadet by id: %w", err)
	}
	return &cadet, nil
}

// FindByUserID returns the cadet linked to a user account.
func (r *CadetRepository) FindByUserID(ctx context.Context, userID string) (*models.Cadet, error) {
	query := fmt.Sprintf("SELECT %s FROM cadets WHERE user_id = $1 LIMIT 1", cadetColumns)
	var cadet models.Cadet
	if err := r.db.GetContext(ctx, &cadet, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cadet by user id: %w", err)
	}
	return &cadet, nil
}

// ExistsByStudentNumber checks whether a student number is already
// registered, optionally excluding one cadet ID.
func (r *CadetRepository) ExistsByStudentNumber(ctx context.Context, studentNumber, excludeID string) (bool, error) {
	query := "SELECT 1 FROM cadets WHERE student_number = $1"
	args := []interface{}{studentNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check student number: %w", err)
	}
	return true, nil
}

// Create inserts a new cadet record.
func (r *CadetRepository) Create(ctx context.Context, cadet *models.Cadet) error {
	if cadet.ID == "" {
		cadet.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cadet.CreatedAt.IsZero() {
		cadet.CreatedAt = now
	}
	cadet.UpdatedAt = now
	const query = `INSERT INTO cadets (id, student_number, first_name, last_name, middle_name, campus, course, year_level, section, platoon, company, battalion, status, user_id, created_at, updated_at)
        VALUES (:id, :student_number, :first_name, :last_name, :middle_name, :campus, :course, :year_level, :section, :platoon, :company, :battalion, :status, :user_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cadet); err != nil {
		return fmt.Errorf("create cadet: %w", err)
	}
	return nil
}

// Update modifies an existing cadet's profile fields.
func (r *CadetRepository) Update(ctx context.Context, cadet *models.Cadet) error {
	cadet.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cadets SET student_number = :student_number, first_name = :first_name, last_name = :last_name, middle_name = :middle_name, campus = :campus, course = :course, year_level = :year_level, section = :section, platoon = :platoon, company = :company, battalion = :battalion, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cadet); err != nil {
		return fmt.Errorf("update cadet: %w", err)
	}
	return nil
}

// UpdateStatus transitions a cadet to the given lifecycle status.
func (r *CadetRepository) UpdateStatus(ctx context.Context, id string, status models.CadetStatus) error {
	const query = `UPDATE cadets SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update cadet status: %w", err)
	}
	return nil
}

// LinkUser attaches a user account to a cadet profile.
func (r *CadetRepository) LinkUser(ctx context.Context, cadetID, userID string) error {
	const query = `UPDATE cadets SET user_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, cadetID, userID, time.Now().UTC()); err != nil {
		return fmt.Errorf("link cadet user: %w", err)
	}
	return nil
}

// ListIDsByStatus returns the IDs of all cadets in the given status.
func (r *CadetRepository) ListIDsByStatus(ctx context.Context, status models.CadetStatus) ([]string, error) {
	const query = `SELECT id FROM cadets WHERE status = $1 ORDER BY last_name ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, status); err != nil {
		return nil, fmt.Errorf("list cadet ids by status: %w", err)
	}
	return ids, nil
}

// ArchiveAll moves every cadet in fromStatus to ARCHIVED inside a single
// transaction and returns the number of affected rows.
func (r *CadetRepository) ArchiveAll(ctx context.Context, fromStatus models.CadetStatus) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin archive all: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE cadets SET status = $2, updated_at = $3 WHERE status = $1`
	res, err := tx.ExecContext(ctx, query, fromStatus, models.CadetStatusArchived, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("archive all cadets: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archive all rows affected: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit archive all: %w", err)
	}
	return int(affected), nil
}
