package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// AptitudeHandler exposes merit/demerit endpoints.
type AptitudeHandler struct {
	aptitude *service.AptitudeService
}

// NewAptitudeHandler constructs AptitudeHandler.
func NewAptitudeHandler(aptitude *service.AptitudeService) *AptitudeHandler {
	return &AptitudeHandler{aptitude: aptitude}
}

// Roster godoc
// @Summary Aptitude entry roster
// @Tags Aptitude
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param platoon query string false "Filter by platoon"
// @Param company query string false "Filter by company"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/aptitude [get]
func (h *AptitudeHandler) Roster(c *gin.Context) {
	rows, err := h.aptitude.Roster(c.Request.Context(), c.Param("semesterId"), c.Query("platoon"), c.Query("company"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get one cadet's aptitude record
// @Tags Aptitude
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/aptitude/{cadetId} [get]
func (h *AptitudeHandler) Get(c *gin.Context) {
	record, err := h.aptitude.Get(c.Request.Context(), c.Param("cadetId"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Save godoc
// @Summary Save one cadet's weekly merits and demerits
// @Tags Aptitude
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.SaveAptitudeRequest true "Aptitude payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/aptitude [put]
func (h *AptitudeHandler) Save(c *gin.Context) {
	var req models.SaveAptitudeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.aptitude.Save(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SaveBulk godoc
// @Summary Save merits and demerits for many cadets
// @Tags Aptitude
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.BulkSaveAptitudeRequest true "Bulk aptitude payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/aptitude/bulk [put]
func (h *AptitudeHandler) SaveBulk(c *gin.Context) {
	var req models.BulkSaveAptitudeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.aptitude.SaveBulk(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
