package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badil-app/substitute-api/internal/service"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
	"github.com/badil-app/substitute-api/pkg/response"
)

// SectionHandler wires the section service to HTTP routes.
type SectionHandler struct {
	sections  *service.SectionService
	timetable *service.TimetableService
}

// NewSectionHandler constructs a new SectionHandler.
func NewSectionHandler(sections *service.SectionService, timetable *service.TimetableService) *SectionHandler {
	return &SectionHandler{sections: sections, timetable: timetable}
}

// List godoc
// @Summary List sections
// @Tags Sections
// @Produce json
// @Param with_class query bool false "Join class names onto each section"
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *SectionHandler) List(c *gin.Context) {
	if c.Query("with_class") == "true" {
		sections, err := h.sections.ListWithClass(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, sections, nil)
		return
	}
	sections, err := h.sections.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// Get godoc
// @Summary Get section detail
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [get]
func (h *SectionHandler) Get(c *gin.Context) {
	section, err := h.sections.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Schedule godoc
// @Summary Get a section's weekly timetable
// @Tags Sections
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /sections/{id}/schedule [get]
func (h *SectionHandler) Schedule(c *gin.Context) {
	if _, err := h.sections.Get(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.timetable.ListBySection(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ClearSchedule godoc
// @Summary Remove all schedule entries of a section
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Router /sections/{id}/schedule [delete]
func (h *SectionHandler) ClearSchedule(c *gin.Context) {
	if _, err := h.sections.Get(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	if err := h.timetable.RemoveAllForSection(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Create godoc
// @Summary Create section under a class
// @Tags Sections
// @Accept json
// @Produce json
// @Param payload body service.CreateSectionRequest true "Section payload"
// @Success 201 {object} response.Envelope
// @Router /sections [post]
func (h *SectionHandler) Create(c *gin.Context) {
	var req service.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}
	section, err := h.sections.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, section)
}

// Update godoc
// @Summary Update section name and letter
// @Tags Sections
// @Accept json
// @Produce json
// @Param id path string true "Section ID"
// @Param payload body service.UpdateSectionRequest true "Section payload"
// @Success 200 {object} response.Envelope
// @Router /sections/{id} [put]
func (h *SectionHandler) Update(c *gin.Context) {
	var req service.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid section payload"))
		return
	}
	section, err := h.sections.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, section, nil)
}

// Delete godoc
// @Summary Delete section with its schedule entries
// @Tags Sections
// @Param id path string true "Section ID"
// @Success 204
// @Router /sections/{id} [delete]
func (h *SectionHandler) Delete(c *gin.Context) {
	if err := h.sections.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
