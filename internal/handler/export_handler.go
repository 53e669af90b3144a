package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakda-dev/behavior-track-api/internal/service"
	"github.com/sakda-dev/behavior-track-api/pkg/response"
)

// ExportHandler serves behavior-log exports.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// BehaviorLogs godoc
// @Summary Export behavior logs
// @Tags Exports
// @Produce text/csv
// @Param format query string false "csv|pdf"
// @Param status query string false "all|pending|approved|rejected"
// @Param sortOrder query string false "asc|desc"
// @Success 200 {file} binary
// @Router /behavior-logs/export [get]
func (h *ExportHandler) BehaviorLogs(c *gin.Context) {
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	status := c.DefaultQuery("status", "all")
	sortOrder := c.DefaultQuery("sortOrder", "desc")

	result, err := h.exports.BehaviorLogs(c.Request.Context(), format, status, sortOrder)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
