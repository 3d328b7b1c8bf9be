package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.CadetDocument) error
	FindByID(ctx context.Context, id string) (*models.CadetDocument, error)
	ListByCadet(ctx context.Context, cadetID string) ([]models.CadetDocument, error)
	Delete(ctx context.Context, id string) error
}

type documentStorage interface {
	SaveStream(filename string, r io.Reader) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
}

// DocumentConfig bounds uploads.
type DocumentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentDownload pairs a signed token with its expiry.
type DocumentDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// DocumentService stores cadet registration documents (COR, credentials)
// on disk with signed, expiring download tokens.
type DocumentService struct {
	repo    documentRepository
	cadets  scoreCadetRepository
	storage documentStorage
	signer  *storage.SignedURLSigner
	cfg     DocumentConfig
	logger  *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo documentRepository, cadets scoreCadetRepository, store documentStorage, signer *storage.SignedURLSigner, cfg DocumentConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	return &DocumentService{repo: repo, cadets: cadets, storage: store, signer: signer, cfg: cfg, logger: logger}
}

// Upload validates and stores one document for a cadet.
func (s *DocumentService) Upload(ctx context.Context, cadetID string, kind models.DocumentKind, fileName, mimeType string, size int64, r io.Reader, uploadedBy string) (*models.CadetDocument, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown document kind")
	}
	if size <= 0 || size > s.cfg.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file size must be between 1 byte and %d bytes", s.cfg.MaxFileSizeBytes))
	}
	if !s.mimeAllowed(mimeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("mime type %s is not allowed", mimeType))
	}

	if _, err := s.cadets.FindByID(ctx, cadetID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cadet not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cadet")
	}

	relPath := filepath.Join("documents", cadetID, fmt.Sprintf("%s_%s%s", strings.ToLower(string(kind)), uuid.NewString(), filepath.Ext(fileName)))
	stored, err := s.storage.SaveStream(relPath, io.LimitReader(r, s.cfg.MaxFileSizeBytes))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	doc := &models.CadetDocument{
		CadetID:     cadetID,
		Kind:        kind,
		FileName:    fileName,
		StoragePath: stored,
		MIMEType:    mimeType,
		SizeBytes:   size,
		UploadedBy:  uploadedBy,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		if cleanupErr := s.storage.Delete(stored); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned document file", zap.String("path", stored), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	return doc, nil
}

// List returns every document uploaded for a cadet.
func (s *DocumentService) List(ctx context.Context, cadetID string) ([]models.CadetDocument, error) {
	docs, err := s.repo.ListByCadet(ctx, cadetID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Get returns document metadata by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*models.CadetDocument, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	return doc, nil
}

// DownloadToken issues a signed, expiring token for one document.
func (s *DocumentService) DownloadToken(ctx context.Context, id string) (*DocumentDownload, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	token, expiresAt, err := s.signer.Generate(doc.ID, doc.StoragePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
	}
	return &DocumentDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// Resolve validates a signed token and opens the underlying file.
func (s *DocumentService) Resolve(ctx context.Context, token string) (*models.CadetDocument, *os.File, error) {
	docID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	doc, err := s.Get(ctx, docID)
	if err != nil {
		return nil, nil, err
	}
	if doc.StoragePath != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "token does not match document")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, file, nil
}

// Delete removes a document's metadata and stored file.
func (s *DocumentService) Delete(ctx context.Context, id string) error {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.storage.Delete(doc.StoragePath); err != nil {
		s.logger.Warn("failed to remove stored document file", zap.String("path", doc.StoragePath), zap.Error(err))
	}
	return nil
}

func (s *DocumentService) mimeAllowed(mimeType string) bool {
	if len(s.cfg.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.cfg.AllowedMIMEs {
		if strings.EqualFold(allowed, mimeType) {
			return true
		}
	}
	return false
}
