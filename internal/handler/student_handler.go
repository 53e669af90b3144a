package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sakda-dev/behavior-track-api/internal/service"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
	"github.com/sakda-dev/behavior-track-api/pkg/response"
)

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// Get godoc
// @Summary Get student by id
// @Tags Students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return
	}
	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Search godoc
// @Summary Search students
// @Tags Students
// @Produce json
// @Param query query string true "Number or name fragment"
// @Success 200 {object} response.Envelope
// @Router /students/search [get]
func (h *StudentHandler) Search(c *gin.Context) {
	students, err := h.students.Search(c.Request.Context(), strings.TrimSpace(c.Query("query")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Create godoc
// @Summary Register a student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// ListClassrooms godoc
// @Summary List classrooms
// @Tags Classrooms
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classrooms [get]
func (h *StudentHandler) ListClassrooms(c *gin.Context) {
	classrooms, err := h.students.Classrooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classrooms, nil)
}

// ListByClassroom godoc
// @Summary List students of a classroom
// @Tags Classrooms
// @Produce json
// @Param id path int true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classrooms/{id}/students [get]
func (h *StudentHandler) ListByClassroom(c *gin.Context) {
	classroomID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid classroom id"))
		return
	}
	students, err := h.students.ListByClassroom(c.Request.Context(), classroomID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
