package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/rotcph/rotc-portal-api/internal/models"
)

const documentColumns = `id, cadet_id, kind, file_name, storage_path, mime_type, size_bytes, uploaded_by, created_at`

// DocumentRepository manages metadata for uploaded cadet documents.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts metadata for an uploaded document.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.CadetDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO cadet_documents (id, cadet_id, kind, file_name, storage_path, mime_type, size_bytes, uploaded_by, created_at)
        VALUES (:id, :cadet_id, :kind, :file_name, :storage_path, :mime_type, :size_bytes, :uploaded_by, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create cadet document: %w", err)
	}
	return nil
}

// FindByID returns document metadata by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.CadetDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM cadet_documents WHERE id = $1 LIMIT 1", documentColumns)
	var doc models.CadetDocument
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find cadet document: %w", err)
	}
	return &doc, nil
}

// ListByCadet returns every document uploaded for a cadet, newest first.
func (r *DocumentRepository) ListByCadet(ctx context.Context, cadetID string) ([]models.CadetDocument, error) {
	query := fmt.Sprintf("SELECT %s FROM cadet_documents WHERE cadet_id = $1 ORDER BY created_at DESC", documentColumns)
	var docs []models.CadetDocument
	if err := r.db.SelectContext(ctx, &docs, query, cadetID); err != nil {
		return nil, fmt.Errorf("list cadet documents: %w", err)
	}
	return docs, nil
}

// Delete removes document metadata. The caller is responsible for removing
// the stored file.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM cadet_documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete cadet document: %w", err)
	}
	return nil
}
