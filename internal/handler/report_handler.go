package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/presenza/attendance-api/internal/service"
	appErrors "github.com/presenza/attendance-api/pkg/errors"
	"github.com/presenza/attendance-api/pkg/response"
)

// ReportHandler handles class report endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// BuildClassReport godoc
// @Summary Build class attendance report
// @Description Aggregate a class's attendance history into a report with insights
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body object{classId=string} true "Class selector"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/class [post]
func (h *ReportHandler) BuildClassReport(c *gin.Context) {
	var payload struct {
		ClassID string `json:"classId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "classId is required"))
		return
	}

	report, err := h.service.BuildClassReport(c.Request.Context(), payload.ClassID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export class attendance report
// @Description Download per-student attendance statistics as CSV or PDF
// @Tags Reports
// @Produce octet-stream
// @Param id path string true "Class ID"
// @Param format query string false "Export format (csv or pdf)" default(csv)
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/class/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	format := service.ReportFormat(c.DefaultQuery("format", "csv"))

	result, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}

// Summarize godoc
// @Summary Generate narrative attendance summary
// @Description Relay the class attendance log to the text generation service
// @Tags Reports
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 500 {object} response.Envelope
// @Router /reports/class/{id}/summary [post]
func (h *ReportHandler) Summarize(c *gin.Context) {
	summary, err := h.service.Summarize(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"summary": summary}, nil)
}
