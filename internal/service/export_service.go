package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/export"
	"github.com/rotcph/rotc-portal-api/pkg/jobs"
	"github.com/rotcph/rotc-portal-api/pkg/storage"
)

const exportJobType = "grade_sheet_export"

type exportJobRepository interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	ListByCreator(ctx context.Context, createdBy string, limit int) ([]models.ExportJob, error)
	UpdateProgress(ctx context.Context, id string, status models.ExportStatus, progress int) error
	MarkFinished(ctx context.Context, id string, resultURL string) error
	MarkFailed(ctx context.Context, id string, message string) error
}

type exportSheetRepository interface {
	Sheet(ctx context.Context, filter models.GradeSheetFilter) ([]models.GradeSheetRow, error)
}

type exportSemesterRepository interface {
	FindByID(ctx context.Context, id string) (*models.SemesterPeriod, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type exportMetrics interface {
	RecordExportJob(status models.ExportStatus)
}

// ExportDownload pairs a rendered grade sheet file with its metadata.
type ExportDownload struct {
	Job      *models.ExportJob
	File     *os.File
	FileName string
	MIMEType string
}

// ExportService runs grade-sheet exports on a background worker queue.
// Queueing returns immediately with a job ID; clients poll the job until
// it finishes and then fetch the file through a signed token.
type ExportService struct {
	repo      exportJobRepository
	sheets    exportSheetRepository
	semesters exportSemesterRepository
	storage   exportFileStorage
	signer    *storage.SignedURLSigner
	csv       csvRenderer
	pdf       pdfRenderer
	metrics   exportMetrics
	queue     *jobs.Queue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExportService constructs an ExportService and its worker queue. The
// queue is idle until Start is called.
func NewExportService(repo exportJobRepository, sheets exportSheetRepository, semesters exportSemesterRepository, store exportFileStorage, signer *storage.SignedURLSigner, csv csvRenderer, pdf pdfRenderer, metrics exportMetrics, queueCfg jobs.QueueConfig, validate *validator.Validate, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	s := &ExportService{
		repo:      repo,
		sheets:    sheets,
		semesters: semesters,
		storage:   store,
		signer:    signer,
		csv:       csv,
		pdf:       pdf,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
	queueCfg.Logger = logger
	s.queue = jobs.NewQueue("grade-sheet-exports", s.process, queueCfg)
	return s
}

// Start launches the background workers.
func (s *ExportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the queue and waits for in-flight exports.
func (s *ExportService) Stop() {
	s.queue.Stop()
}

// Queue creates an export job and hands it to the worker pool.
func (s *ExportService) Queue(ctx context.Context, req models.CreateExportRequest, createdBy string) (*models.ExportJob, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export request")
	}

	if _, err := s.semesters.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	job := &models.ExportJob{
		Params: models.ExportJobParams{
			SemesterID: req.SemesterID,
			Platoon:    req.Platoon,
			Company:    req.Company,
			Format:     req.Format,
		},
		Status:    models.ExportStatusQueued,
		CreatedBy: createdBy,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: exportJobType, Enqueued: time.Now().UTC()}); err != nil {
		if markErr := s.repo.MarkFailed(ctx, job.ID, "export queue is full"); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "export queue is full, try again later")
	}

	if s.metrics != nil {
		s.metrics.RecordExportJob(models.ExportStatusQueued)
	}
	return job, nil
}

// Status returns one export job by ID.
func (s *ExportService) Status(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

// List returns recent export jobs created by one user.
func (s *ExportService) List(ctx context.Context, createdBy string, limit int) ([]models.ExportJob, error) {
	items, err := s.repo.ListByCreator(ctx, createdBy, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list export jobs")
	}
	return items, nil
}

// Download validates a signed token and opens the rendered grade sheet.
func (s *ExportService) Download(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	job, err := s.Status(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrConflict, "export job has not finished")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	mime := "text/csv"
	if job.Params.Format == models.ExportFormatPDF {
		mime = "application/pdf"
	}
	return &ExportDownload{
		Job:      job,
		File:     file,
		FileName: filepath.Base(relPath),
		MIMEType: mime,
	}, nil
}

// process is the queue handler. A returned error triggers the queue's
// retry policy; the job row is only marked FAILED on the terminal error.
func (s *ExportService) process(ctx context.Context, job jobs.Job) error {
	record, err := s.repo.FindByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", job.ID, err)
	}

	if err := s.repo.UpdateProgress(ctx, record.ID, models.ExportStatusProcessing, 10); err != nil {
		s.logger.Warn("failed to mark export job processing", zap.String("job_id", record.ID), zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(models.ExportStatusProcessing)
	}

	resultURL, err := s.render(ctx, record)
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, record.ID, err.Error()); markErr != nil {
			s.logger.Error("failed to mark export job failed", zap.String("job_id", record.ID), zap.Error(markErr))
		}
		if s.metrics != nil {
			s.metrics.RecordExportJob(models.ExportStatusFailed)
		}
		return err
	}

	if err := s.repo.MarkFinished(ctx, record.ID, resultURL); err != nil {
		return fmt.Errorf("mark export job finished: %w", err)
	}
	if s.metrics != nil {
		s.metrics.RecordExportJob(models.ExportStatusFinished)
	}
	s.logger.Info("export job finished", zap.String("job_id", record.ID), zap.String("format", string(record.Params.Format)))
	return nil
}

func (s *ExportService) render(ctx context.Context, job *models.ExportJob) (string, error) {
	filter := models.GradeSheetFilter{SemesterID: job.Params.SemesterID}
	if job.Params.Platoon != nil {
		filter.Platoon = *job.Params.Platoon
	}
	if job.Params.Company != nil {
		filter.Company = *job.Params.Company
	}

	rows, err := s.sheets.Sheet(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("load grade sheet: %w", err)
	}

	if err := s.repo.UpdateProgress(ctx, job.ID, models.ExportStatusProcessing, 50); err != nil {
		s.logger.Warn("failed to update export progress", zap.String("job_id", job.ID), zap.Error(err))
	}

	dataset := buildGradeSheetDataset(rows)

	var payload []byte
	var ext string
	switch job.Params.Format {
	case models.ExportFormatPDF:
		semester, err := s.semesters.FindByID(ctx, job.Params.SemesterID)
		if err != nil {
			return "", fmt.Errorf("load semester for title: %w", err)
		}
		payload, err = s.pdf.Render(dataset, fmt.Sprintf("Grade Sheet - %s", semester.Label))
		if err != nil {
			return "", fmt.Errorf("render pdf: %w", err)
		}
		ext = "pdf"
	default:
		payload, err = s.csv.Render(dataset)
		if err != nil {
			return "", fmt.Errorf("render csv: %w", err)
		}
		ext = "csv"
	}

	relPath := filepath.Join("exports", fmt.Sprintf("grade_sheet_%s.%s", job.ID, ext))
	stored, err := s.storage.Save(relPath, payload)
	if err != nil {
		return "", fmt.Errorf("store export file: %w", err)
	}

	token, _, err := s.signer.Generate(job.ID, stored)
	if err != nil {
		return "", fmt.Errorf("sign export token: %w", err)
	}
	return token, nil
}

var gradeSheetHeaders = []string{"Student No", "Name", "Platoon", "Attendance (30)", "Aptitude (30)", "Subject Proficiency (40)", "Final Grade", "Remarks"}

func buildGradeSheetDataset(rows []models.GradeSheetRow) export.Dataset {
	dataset := export.Dataset{
		Headers: gradeSheetHeaders,
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Student No":               row.StudentNumber,
			"Name":                     row.CadetName,
			"Platoon":                  row.Platoon,
			"Attendance (30)":          strconv.Itoa(row.AttendanceScore),
			"Aptitude (30)":            strconv.Itoa(row.AptitudeScore),
			"Subject Proficiency (40)": strconv.Itoa(row.SubjectProficiency),
			"Final Grade":              strconv.Itoa(row.FinalGrade),
			"Remarks":                  string(row.Remarks),
		})
	}
	return dataset
}
