package service

import (
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/storage"
)

type mockDocumentRepo struct {
	docs    map[string]models.CadetDocument
	deleted []string
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.CadetDocument) error {
	if m.docs == nil {
		m.docs = make(map[string]models.CadetDocument)
	}
	if doc.ID == "" {
		doc.ID = "doc-generated"
	}
	m.docs[doc.ID] = *doc
	return nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.CadetDocument, error) {
	if d, ok := m.docs[id]; ok {
		return &d, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockDocumentRepo) ListByCadet(ctx context.Context, cadetID string) ([]models.CadetDocument, error) {
	var out []models.CadetDocument
	for _, d := range m.docs {
		if d.CadetID == cadetID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.docs, id)
	return nil
}

func newDocumentFixture(t *testing.T) (*DocumentService, *mockDocumentRepo) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	repo := &mockDocumentRepo{}
	cadets := &fakeCadetLookup{cadets: map[string]models.Cadet{
		"c1": {ID: "c1", Status: models.CadetStatusApproved},
	}}
	svc := NewDocumentService(repo, cadets, store, storage.NewSignedURLSigner("doc-secret", time.Hour), DocumentConfig{
		MaxFileSizeBytes: 1024,
		AllowedMIMEs:     []string{"application/pdf", "image/jpeg"},
	}, zap.NewNop())
	return svc, repo
}

func TestDocumentUploadStoresFileAndMetadata(t *testing.T) {
	svc, repo := newDocumentFixture(t)

	body := "fake pdf body"
	doc, err := svc.Upload(context.Background(), "c1", models.DocumentKindCOR, "cor.pdf", "application/pdf", int64(len(body)), strings.NewReader(body), "u1")
	require.NoError(t, err)

	assert.Equal(t, models.DocumentKindCOR, doc.Kind)
	assert.Contains(t, repo.docs, doc.ID)
	assert.True(t, strings.HasSuffix(doc.StoragePath, ".pdf"))

	docs, err := svc.List(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestDocumentUploadRejectsDisallowedMIME(t *testing.T) {
	svc, repo := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), "c1", models.DocumentKindCOR, "cor.exe", "application/octet-stream", 10, strings.NewReader("0123456789"), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.docs)
}

func TestDocumentUploadRejectsOversizedFile(t *testing.T) {
	svc, _ := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), "c1", models.DocumentKindCOR, "cor.pdf", "application/pdf", 4096, strings.NewReader("x"), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentUploadRejectsUnknownCadet(t *testing.T) {
	svc, _ := newDocumentFixture(t)

	_, err := svc.Upload(context.Background(), "ghost", models.DocumentKindCredential, "id.jpg", "image/jpeg", 5, strings.NewReader("bytes"), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentDownloadRoundTrip(t *testing.T) {
	svc, _ := newDocumentFixture(t)

	body := "certificate of registration"
	doc, err := svc.Upload(context.Background(), "c1", models.DocumentKindCOR, "cor.pdf", "application/pdf", int64(len(body)), strings.NewReader(body), "u1")
	require.NoError(t, err)

	download, err := svc.DownloadToken(context.Background(), doc.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, download.Token)

	resolved, file, err := svc.Resolve(context.Background(), download.Token)
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, doc.ID, resolved.ID)
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, body, string(data))
}

func TestDocumentResolveRejectsForgedToken(t *testing.T) {
	svc, _ := newDocumentFixture(t)

	forger := storage.NewSignedURLSigner("wrong-secret", time.Hour)
	token, _, err := forger.Generate("doc-1", "documents/c1/cor.pdf")
	require.NoError(t, err)

	_, _, err = svc.Resolve(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestDocumentDeleteRemovesMetadataAndFile(t *testing.T) {
	svc, repo := newDocumentFixture(t)

	body := "bytes"
	doc, err := svc.Upload(context.Background(), "c1", models.DocumentKindCredential, "id.jpg", "image/jpeg", int64(len(body)), strings.NewReader(body), "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), doc.ID))
	assert.Contains(t, repo.deleted, doc.ID)

	_, err = svc.Get(context.Background(), doc.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
