package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// AttendanceHandler exposes weekly attendance endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Roster godoc
// @Summary Attendance entry roster
// @Description Approved cadets with their weekly presence for one semester
// @Tags Attendance
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param platoon query string false "Filter by platoon"
// @Param company query string false "Filter by company"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/attendance [get]
func (h *AttendanceHandler) Roster(c *gin.Context) {
	rows, err := h.attendance.Roster(c.Request.Context(), c.Param("semesterId"), c.Query("platoon"), c.Query("company"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// Get godoc
// @Summary Get one cadet's attendance record
// @Tags Attendance
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/attendance/{cadetId} [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	record, err := h.attendance.Get(c.Request.Context(), c.Param("cadetId"), c.Param("semesterId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Save godoc
// @Summary Save one cadet's weekly presence
// @Tags Attendance
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.SaveAttendanceRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/attendance [put]
func (h *AttendanceHandler) Save(c *gin.Context) {
	var req models.SaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Save(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// SaveBulk godoc
// @Summary Save weekly presence for many cadets
// @Tags Attendance
// @Accept json
// @Produce json
// @Param semesterId path string true "Semester ID"
// @Param payload body models.BulkSaveAttendanceRequest true "Bulk attendance payload"
// @Success 200 {object} response.Envelope
// @Router /semesters/{semesterId}/attendance/bulk [put]
func (h *AttendanceHandler) SaveBulk(c *gin.Context) {
	var req models.BulkSaveAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.attendance.SaveBulk(c.Request.Context(), c.Param("semesterId"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
