package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rotcph/rotc-portal-api/internal/models"
	"github.com/rotcph/rotc-portal-api/internal/service"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
	"github.com/rotcph/rotc-portal-api/pkg/response"
)

// CadetHandler exposes cadet registration and lifecycle endpoints.
type CadetHandler struct {
	cadets *service.CadetService
}

// NewCadetHandler constructs CadetHandler.
func NewCadetHandler(cadets *service.CadetService) *CadetHandler {
	return &CadetHandler{cadets: cadets}
}

// Register godoc
// @Summary Register a new cadet
// @Description Public enrollment; creates a PENDING cadet and its login account
// @Tags Cadets
// @Accept json
// @Produce json
// @Param payload body models.RegisterCadetRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cadets/register [post]
func (h *CadetHandler) Register(c *gin.Context) {
	var req models.RegisterCadetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cadet, err := h.cadets.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cadet)
}

// List godoc
// @Summary List cadets
// @Tags Cadets
// @Produce json
// @Param search query string false "Search by name or student number"
// @Param status query string false "Filter by registration status"
// @Param campus query string false "Filter by campus"
// @Param platoon query string false "Filter by platoon"
// @Param company query string false "Filter by company"
// @Param battalion query string false "Filter by battalion"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /cadets [get]
func (h *CadetHandler) List(c *gin.Context) {
	var filter models.CadetFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if status := c.Query("status"); status != "" {
		s := models.CadetStatus(status)
		if !s.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown cadet status"))
			return
		}
		filter.Status = &s
	}
	filter.Campus = c.Query("campus")
	filter.Platoon = c.Query("platoon")
	filter.Company = c.Query("company")
	filter.Battalion = c.Query("battalion")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	cadets, pagination, err := h.cadets.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadets, pagination)
}

// Get godoc
// @Summary Get cadet profile
// @Tags Cadets
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /cadets/{cadetId} [get]
func (h *CadetHandler) Get(c *gin.Context) {
	cadet, err := h.cadets.Get(c.Request.Context(), c.Param("cadetId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadet, nil)
}

// Update godoc
// @Summary Update cadet profile
// @Tags Cadets
// @Accept json
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Param payload body models.UpdateCadetRequest true "Cadet payload"
// @Success 200 {object} response.Envelope
// @Router /cadets/{cadetId} [put]
func (h *CadetHandler) Update(c *gin.Context) {
	var req models.UpdateCadetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	cadet, err := h.cadets.Update(c.Request.Context(), c.Param("cadetId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadet, nil)
}

// Approve godoc
// @Summary Approve a pending cadet
// @Tags Cadets
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cadets/{cadetId}/approve [patch]
func (h *CadetHandler) Approve(c *gin.Context) {
	cadet, err := h.cadets.Approve(c.Request.Context(), c.Param("cadetId"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadet, nil)
}

// Reject godoc
// @Summary Reject a pending cadet
// @Tags Cadets
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cadets/{cadetId}/reject [patch]
func (h *CadetHandler) Reject(c *gin.Context) {
	cadet, err := h.cadets.Reject(c.Request.Context(), c.Param("cadetId"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadet, nil)
}

// Archive godoc
// @Summary Archive an approved cadet
// @Tags Cadets
// @Produce json
// @Param cadetId path string true "Cadet ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /cadets/{cadetId}/archive [patch]
func (h *CadetHandler) Archive(c *gin.Context) {
	cadet, err := h.cadets.Archive(c.Request.Context(), c.Param("cadetId"), actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cadet, nil)
}

// ArchiveAll godoc
// @Summary Archive every approved cadet
// @Description End-of-term bulk archive; supports atomic and partialOnError modes
// @Tags Cadets
// @Accept json
// @Produce json
// @Param payload body models.ArchiveAllRequest false "Archive options"
// @Success 200 {object} response.Envelope
// @Router /cadets/archive-all [post]
func (h *CadetHandler) ArchiveAll(c *gin.Context) {
	var req models.ArchiveAllRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}
	result, err := h.cadets.ArchiveAll(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
