package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sakda-dev/behavior-track-api/internal/service"
	"github.com/sakda-dev/behavior-track-api/pkg/response"
)

// BehaviorTypeHandler exposes the behavior catalog.
type BehaviorTypeHandler struct {
	catalog *service.BehaviorTypeService
}

// NewBehaviorTypeHandler constructs BehaviorTypeHandler.
func NewBehaviorTypeHandler(catalog *service.BehaviorTypeService) *BehaviorTypeHandler {
	return &BehaviorTypeHandler{catalog: catalog}
}

// List godoc
// @Summary List behavior types
// @Tags BehaviorTypes
// @Produce json
// @Param category query string false "positive|negative"
// @Success 200 {object} response.Envelope
// @Router /behavior-types [get]
func (h *BehaviorTypeHandler) List(c *gin.Context) {
	types, err := h.catalog.List(c.Request.Context(), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
