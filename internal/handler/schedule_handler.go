package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/badil-app/substitute-api/internal/models"
	"github.com/badil-app/substitute-api/internal/service"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
	"github.com/badil-app/substitute-api/pkg/response"
)

// ScheduleHandler wires timetable mutations and the swap protocol to HTTP.
type ScheduleHandler struct {
	timetable *service.TimetableService
	swaps     *service.SwapService
}

// NewScheduleHandler constructs a new ScheduleHandler.
func NewScheduleHandler(timetable *service.TimetableService, swaps *service.SwapService) *ScheduleHandler {
	return &ScheduleHandler{timetable: timetable, swaps: swaps}
}

// List godoc
// @Summary List schedule entries
// @Tags Schedule
// @Produce json
// @Param detailed query bool false "Join teacher, section and class names"
// @Success 200 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	if c.Query("detailed") == "true" {
		entries, err := h.timetable.ListDetailed(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, entries, nil)
		return
	}
	entries, err := h.timetable.ListAll(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ListByPeriod godoc
// @Summary List entries at one period and day across all sections
// @Tags Schedule
// @Produce json
// @Param period query int true "Period (1-8)"
// @Param day_of_week query int true "Day of week (0-4)"
// @Success 200 {object} response.Envelope
// @Router /schedule/period [get]
func (h *ScheduleHandler) ListByPeriod(c *gin.Context) {
	period, dayOfWeek, err := slotQueryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.timetable.ListByPeriod(c.Request.Context(), period, dayOfWeek)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Assign godoc
// @Summary Assign a teacher to a slot (upsert)
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.AssignScheduleRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /schedule [post]
func (h *ScheduleHandler) Assign(c *gin.Context) {
	var req service.AssignScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	entry, warnings, err := h.timetable.Assign(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	var meta map[string]interface{}
	if len(warnings) > 0 {
		meta = map[string]interface{}{"warnings": warnings}
	}
	response.JSON(c, http.StatusOK, entry, nil, meta)
}

// GetSlot godoc
// @Summary Get the entry occupying one slot
// @Tags Schedule
// @Produce json
// @Param section_id query string true "Section ID"
// @Param period query int true "Period (1-8)"
// @Param day_of_week query int true "Day of week (0-4)"
// @Success 200 {object} response.Envelope
// @Router /schedule/slot [get]
func (h *ScheduleHandler) GetSlot(c *gin.Context) {
	sectionID := c.Query("section_id")
	if sectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section_id is required"))
		return
	}
	period, dayOfWeek, err := slotQueryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entry, err := h.timetable.FindSlot(c.Request.Context(), sectionID, period, dayOfWeek)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// RemoveSlot godoc
// @Summary Clear one slot
// @Tags Schedule
// @Produce json
// @Param section_id query string true "Section ID"
// @Param period query int true "Period (1-8)"
// @Param day_of_week query int true "Day of week (0-4)"
// @Success 200 {object} response.Envelope
// @Router /schedule/slot [delete]
func (h *ScheduleHandler) RemoveSlot(c *gin.Context) {
	sectionID := c.Query("section_id")
	if sectionID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "section_id is required"))
		return
	}
	period, dayOfWeek, err := slotQueryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	removed, err := h.timetable.RemoveSlot(c.Request.Context(), sectionID, period, dayOfWeek)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"removed": removed}, nil)
}

// SetTeacher godoc
// @Summary Rewrite one entry's teacher
// @Tags Schedule
// @Accept json
// @Produce json
// @Param id path string true "Entry ID"
// @Param payload body object true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /schedule/entries/{id}/teacher [put]
func (h *ScheduleHandler) SetTeacher(c *gin.Context) {
	var req struct {
		TeacherID string `json:"teacher_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	entry, err := h.timetable.SetTeacherForEntry(c.Request.Context(), c.Param("id"), req.TeacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// Swap godoc
// @Summary Exchange teachers between two occupied slots
// @Tags Schedule
// @Accept json
// @Produce json
// @Param payload body service.SwapRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedule/swap [post]
func (h *ScheduleHandler) Swap(c *gin.Context) {
	var req service.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	result, err := h.swaps.Swap(c.Request.Context(), req)
	if err != nil {
		var rejected *models.SwapRejectedError
		if errors.As(err, &rejected) {
			meta := map[string]interface{}{"reason": rejected.Reason}
			if rejected.Conflict != nil {
				meta["conflict"] = rejected.Conflict
			}
			c.JSON(http.StatusConflict, response.Envelope{
				Error: appErrors.Clone(appErrors.ErrSwapRejected, rejected.Message),
				Meta:  meta,
			})
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

func slotQueryParams(c *gin.Context) (int, int, error) {
	period, err := strconv.Atoi(c.Query("period"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "period must be an integer")
	}
	dayOfWeek, err := strconv.Atoi(c.Query("day_of_week"))
	if err != nil {
		return 0, 0, appErrors.Clone(appErrors.ErrValidation, "day_of_week must be an integer")
	}
	return period, dayOfWeek, nil
}
