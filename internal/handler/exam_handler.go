package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// ExamHandler exposes exam score endpoints.
type ExamHandler struct {
	exams *service.ExamService
}

// NewExamHandler constructs ExamHandler.
func NewExamHandler(exams *service.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// Roster godoc
// @Summary Exam entry roster
// @Tags Exams
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param platoon query string false "Filter by platoon"
// @Param company query string false "Filter by company"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/exams [get]
func (h *ExamHandler) Roster(c *gin.Context) {
	rows, err := h.exams.Roster(c.Request.Context(), c.Param("semesterId"), c.Query("platoon"), c.Query("company"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get one cadet's exam record
// @Tags Exams
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/exams/{cadetId} [get]
func (h *ExamHandler) Get(c *gin.Context) {
	record, err := h.exams.Get(c.Request.Context(), c.Param("cadetId"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Save godoc
// @Summary Save one cadet's exam scores
// @Description Computes the exam average and the 40-point subject proficiency
// @Tags Exams
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.SaveExamRequest true "Exam payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/exams [put]
func (h *ExamHandler) Save(c *gin.Context) {
	var req models.SaveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.exams.Save(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SaveBulk godoc
// @Summary Save exam scores for many cadets
// @Tags Exams
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.BulkSaveExamRequest true "Bulk exam payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/exams/bulk [put]
func (h *ExamHandler) SaveBulk(c *gin.Context) {
	var req models.BulkSaveExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.exams.SaveBulk(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
