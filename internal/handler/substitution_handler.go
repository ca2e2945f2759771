package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badil-app/substitute-api/internal/service"
	"github.com/badil-app/substitute-api/pkg/response"
)

// SubstitutionHandler exposes the availability finder.
type SubstitutionHandler struct {
	substitutions *service.SubstitutionService
}

// NewSubstitutionHandler constructs a new SubstitutionHandler.
func NewSubstitutionHandler(substitutions *service.SubstitutionService) *SubstitutionHandler {
	return &SubstitutionHandler{substitutions: substitutions}
}

// Available godoc
// @Summary List teachers free at a period and day
// @Tags Substitutions
// @Produce json
// @Param period query int true "Period (1-8)"
// @Param day_of_week query int true "Day of week (0-4)"
// @Param exclude_teacher_id query string false "Teacher to leave out, typically the absentee"
// @Success 200 {object} response.Envelope
// @Router /substitutions/available [get]
func (h *SubstitutionHandler) Available(c *gin.Context) {
	period, dayOfWeek, err := slotQueryParams(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	teachers, err := h.substitutions.FindAvailableTeachers(c.Request.Context(), period, dayOfWeek, c.Query("exclude_teacher_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}
