package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/service"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/response"
)

type reportService interface {
	PerformanceReport(ctx context.Context, format service.ReportFormat) (*service.Report, error)
	ArchivedReport(token string) (*service.Report, error)
}

// ReportHandler streams performance exports.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs the handler.
func NewReportHandler(service reportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Performance godoc
// @Summary Download the admin performance report
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} file
// @Router /reports/performance [get]
func (h *ReportHandler) Performance(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	format, err := service.ParseReportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	report, err := h.service.PerformanceReport(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	if report.ArchiveToken != "" {
		c.Header("X-Archive-Token", report.ArchiveToken)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}

// Archive godoc
// @Summary Re-download an archived report by signed token
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Router /reports/archive/{token} [get]
func (h *ReportHandler) Archive(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	report, err := h.service.ArchivedReport(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename))
	c.Data(http.StatusOK, report.ContentType, report.Data)
}
