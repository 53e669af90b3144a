package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sakda-dev/behavior-track-api/internal/service"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
	"github.com/sakda-dev/behavior-track-api/pkg/response"
)

// BehaviorLogHandler exposes the behavior log endpoints.
type BehaviorLogHandler struct {
	logs *service.BehaviorLogService
}

// NewBehaviorLogHandler constructs BehaviorLogHandler.
func NewBehaviorLogHandler(logs *service.BehaviorLogService) *BehaviorLogHandler {
	return &BehaviorLogHandler{logs: logs}
}

// Create godoc
// @Summary Record a behavior log
// @Tags BehaviorLogs
// @Accept json
// @Produce json
// @Param payload body service.CreateBehaviorLogRequest true "Log payload"
// @Success 201 {object} response.Envelope
// @Router /behavior-logs [post]
func (h *BehaviorLogHandler) Create(c *gin.Context) {
	var req service.CreateBehaviorLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	// The recorder is always the caller; the client cannot log on behalf of
	// another teacher.
	if claims := claimsFromContext(c); claims != nil {
		req.TeacherID = claims.TeacherID
	}
	detail, err := h.logs.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// List godoc
// @Summary List behavior logs
// @Tags BehaviorLogs
// @Produce json
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param status query string false "all|pending|approved|rejected"
// @Param sortOrder query string false "asc|desc"
// @Success 200 {object} response.Envelope
// @Router /behavior-logs [get]
func (h *BehaviorLogHandler) List(c *gin.Context) {
	var req service.BehaviorLogListRequest
	req.Status = c.DefaultQuery("status", "all")
	req.SortOrder = c.DefaultQuery("sortOrder", "desc")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		req.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		req.PageSize = size
	}

	details, pagination, err := h.logs.List(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, pagination)
}

// Transition godoc
// @Summary Bulk approve or reject behavior logs
// @Tags BehaviorLogs
// @Accept json
// @Produce json
// @Param payload body service.TransitionRequest true "Transition payload"
// @Success 200 {object} response.Envelope
// @Router /behavior-logs [patch]
func (h *BehaviorLogHandler) Transition(c *gin.Context) {
	var req service.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.logs.Transition(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ListByStudent godoc
// @Summary Behavior history for one student
// @Tags BehaviorLogs
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/behavior-logs [get]
func (h *BehaviorLogHandler) ListByStudent(c *gin.Context) {
	studentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	details, err := h.logs.ListByStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, nil)
}
