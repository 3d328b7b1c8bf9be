package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/middleware"
	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// GradeHandler exposes computed grade endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// Get godoc
// @Summary Get one cadet's grade summary
// @Tags Grades
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /semesters/{semesterId}/grades/{cadetId} [get]
func (h *GradeHandler) Get(c *gin.Context) {
	summary, err := h.grades.Get(c.Request.Context(), c.Param("cadetId"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// History godoc
// @Summary Grade history across semesters
// @Tags Grades
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Router /cadets/{cadetId}/grades [get]
func (h *GradeHandler) History(c *gin.Context) {
	summaries, err := h.grades.History(c.Request.Context(), c.Param("cadetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summaries, nil)
}

// Sheet godoc
// @Summary Grade sheet for a semester
// @Description Per-cadet component scores, final grades and remarks
// @Tags Grades
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param platoon query string false "Filter by platoon"
// @Param company query string false "Filter by company"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/grades [get]
func (h *GradeHandler) Sheet(c *gin.Context) {
	filter := models.GradeSheetFilter{
		SemesterID: c.Param("semesterId"),
		Platoon:    c.Query("platoon"),
		Company:    c.Query("company"),
	}
	rows, err := h.grades.Sheet(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil, middleware.ExtractMeta(c))
}
