package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/badil-app/substitute-api/internal/models"
	"github.com/badil-app/substitute-api/internal/service"
	appErrors "github.com/badil-app/substitute-api/pkg/errors"
	"github.com/badil-app/substitute-api/pkg/response"
)

// ExportHandler wires snapshot export/import and timetable rendering to HTTP.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs a new ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Export the full application state as one document
// @Tags Export
// @Produce json
// @Success 200 {object} models.Snapshot
// @Router /export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	snapshot, err := h.exports.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// Import godoc
// @Summary Restore collections from a snapshot; absent keys are untouched
// @Tags Export
// @Accept json
// @Success 204
// @Router /import [post]
func (h *ExportHandler) Import(c *gin.Context) {
	var req models.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid import payload"))
		return
	}
	if err := h.exports.Import(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TimetableCSV godoc
// @Summary Download the timetable as CSV
// @Tags Export
// @Produce text/csv
// @Success 200 {file} file
// @Router /export/timetable.csv [get]
func (h *ExportHandler) TimetableCSV(c *gin.Context) {
	payload, err := h.exports.RenderTimetableCSV(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.csv"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// TimetablePDF godoc
// @Summary Download the timetable as PDF
// @Tags Export
// @Produce application/pdf
// @Success 200 {file} file
// @Router /export/timetable.pdf [get]
func (h *ExportHandler) TimetablePDF(c *gin.Context) {
	payload, err := h.exports.RenderTimetablePDF(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="timetable.pdf"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}
