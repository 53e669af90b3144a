package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sakda-dev/behavior-track-api/internal/middleware"
	"github.com/sakda-dev/behavior-track-api/internal/models"
	"github.com/sakda-dev/behavior-track-api/internal/service"
)

type fakeLogRepo struct {
	nextID  int64
	logs    map[int64]*models.BehaviorLog
	cites   map[int64][]int64
	catalog map[int64]models.BehaviorType
}

func newFakeLogRepo() *fakeLogRepo {
	return &fakeLogRepo{
		nextID: 1,
		logs:   make(map[int64]*models.BehaviorLog),
		cites:  make(map[int64][]int64),
		catalog: map[int64]models.BehaviorType{
			10: {ID: 10, Name: "helped classmate", Category: models.BehaviorCategoryPositive, Score: 10},
			11: {ID: 11, Name: "late to class", Category: models.BehaviorCategoryNegative, Score: -5},
		},
	}
}

func (f *fakeLogRepo) Create(_ context.Context, log *models.BehaviorLog, behaviorTypeIDs []int64) error {
	log.ID = f.nextID
	f.nextID++
	log.Status = models.StatusPending
	stored := *log
	f.logs[log.ID] = &stored
	f.cites[log.ID] = append([]int64(nil), behaviorTypeIDs...)
	return nil
}

func (f *fakeLogRepo) FindDetailByID(_ context.Context, id int64) (*models.BehaviorLogDetail, error) {
	log, ok := f.logs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	detail := &models.BehaviorLogDetail{BehaviorLog: *log}
	for _, typeID := range f.cites[id] {
		detail.BehaviorTypes = append(detail.BehaviorTypes, f.catalog[typeID])
	}
	return detail, nil
}

func (f *fakeLogRepo) List(_ context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, int, error) {
	var details []models.BehaviorLogDetail
	for id := int64(1); id < f.nextID; id++ {
		log, ok := f.logs[id]
		if !ok {
			continue
		}
		if filter.Status != "" && filter.Status != "all" && string(log.Status) != filter.Status {
			continue
		}
		if filter.StudentID > 0 && log.StudentID != filter.StudentID {
			continue
		}
		details = append(details, models.BehaviorLogDetail{BehaviorLog: *log})
	}
	return details, len(details), nil
}

func (f *fakeLogRepo) ListAll(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, error) {
	details, _, err := f.List(ctx, filter)
	return details, err
}

func (f *fakeLogRepo) TransitionStatus(_ context.Context, ids []int64, status models.ApprovalStatus) ([]models.StatusTransition, error) {
	var flipped []models.StatusTransition
	for _, id := range ids {
		log, ok := f.logs[id]
		if !ok || log.Status != models.StatusPending {
			continue
		}
		log.Status = status
		flipped = append(flipped, models.StatusTransition{LogID: id, StudentID: log.StudentID})
	}
	return flipped, nil
}

func (f *fakeLogRepo) ScoreDeltas(_ context.Context, logIDs []int64) ([]models.StudentScoreDelta, error) {
	sums := make(map[int64]int)
	for _, id := range logIDs {
		log, ok := f.logs[id]
		if !ok {
			continue
		}
		for _, typeID := range f.cites[id] {
			sums[log.StudentID] += f.catalog[typeID].Score
		}
	}
	var deltas []models.StudentScoreDelta
	for studentID, delta := range sums {
		deltas = append(deltas, models.StudentScoreDelta{StudentID: studentID, Delta: delta})
	}
	return deltas, nil
}

type fakeScoreRepo struct {
	students map[int64]*models.StudentWithClassroom
}

func (f *fakeScoreRepo) FindByID(_ context.Context, id int64) (*models.StudentWithClassroom, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

func (f *fakeScoreRepo) IncrementBehaviorScore(_ context.Context, studentID int64, delta int) error {
	student, ok := f.students[studentID]
	if !ok {
		return sql.ErrNoRows
	}
	student.BehaviorScore += delta
	return nil
}

type fakeTeacherLookup struct{}

func (fakeTeacherLookup) FindByID(_ context.Context, id int64) (*models.Teacher, error) {
	if id != 9 {
		return nil, sql.ErrNoRows
	}
	return &models.Teacher{ID: 9, Name: "Kru Anan", Role: models.RoleTeacher, Active: true}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) CountByIDs(_ context.Context, ids []int64) (int, error) {
	count := 0
	for _, id := range ids {
		if id == 10 || id == 11 {
			count++
		}
	}
	return count, nil
}

func injectClaims(role models.TeacherRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.JWTClaims{TeacherID: 9, Name: "Kru Anan", Role: role})
		c.Next()
	}
}

func buildBehaviorLogRouter(role models.TeacherRole) (*gin.Engine, *fakeScoreRepo) {
	gin.SetMode(gin.TestMode)
	students := &fakeScoreRepo{students: map[int64]*models.StudentWithClassroom{
		1: {Student: models.Student{ID: 1, StudentNumber: "S001", ClassroomID: 1, BehaviorScore: 100}},
	}}
	svc := service.NewBehaviorLogService(newFakeLogRepo(), students, fakeTeacherLookup{}, fakeCatalog{}, nil, nil)
	h := NewBehaviorLogHandler(svc)

	router := gin.New()
	router.Use(injectClaims(role))
	router.GET("/behavior-logs", h.List)
	router.POST("/behavior-logs", h.Create)
	router.PATCH("/behavior-logs", middleware.RequireRoles(models.RoleAdmin), h.Transition)
	router.GET("/students/:id/behavior-logs", h.ListByStudent)
	return router, students
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestBehaviorLogHandlerCreateUsesCallerIdentity(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleTeacher)

	// teacher_id in the payload must be ignored in favor of the JWT identity.
	payload := `{"student_id":1,"behavior_type_ids":[10],"teacher_id":999}`
	req, _ := http.NewRequest(http.MethodPost, "/behavior-logs", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusCreated, resp.Code)

	var envelope struct {
		Data models.BehaviorLogDetail `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, int64(9), envelope.Data.TeacherID)
	require.Equal(t, models.StatusPending, envelope.Data.Status)
}

func TestBehaviorLogHandlerCreateInvalidPayload(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleTeacher)

	req, _ := http.NewRequest(http.MethodPost, "/behavior-logs", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBehaviorLogHandlerTransitionRequiresAdmin(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleTeacher)

	req, _ := http.NewRequest(http.MethodPatch, "/behavior-logs", bytes.NewBufferString(`{"ids":[1],"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestBehaviorLogHandlerTransitionFlow(t *testing.T) {
	router, students := buildBehaviorLogRouter(models.RoleAdmin)

	create := `{"student_id":1,"behavior_type_ids":[10,11]}`
	req, _ := http.NewRequest(http.MethodPost, "/behavior-logs", bytes.NewBufferString(create))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodPatch, "/behavior-logs", bytes.NewBufferString(`{"ids":[1,404],"status":"approved"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var envelope struct {
		Data service.TransitionResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &envelope))
	require.Equal(t, 1, envelope.Data.UpdatedCount)
	require.Equal(t, 105, students.students[1].BehaviorScore)
}

func TestBehaviorLogHandlerTransitionUnknownStatus(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleAdmin)

	req, _ := http.NewRequest(http.MethodPatch, "/behavior-logs", bytes.NewBufferString(`{"ids":[1],"status":"pending"}`))
	req.Header.Set("Content-Type", "application/json")

	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBehaviorLogHandlerListByStudentBadID(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleTeacher)

	req, _ := http.NewRequest(http.MethodGet, "/students/abc/behavior-logs", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestBehaviorLogHandlerListStatusFilter(t *testing.T) {
	router, _ := buildBehaviorLogRouter(models.RoleTeacher)

	create := `{"student_id":1,"behavior_type_ids":[10]}`
	req, _ := http.NewRequest(http.MethodPost, "/behavior-logs", bytes.NewBufferString(create))
	req.Header.Set("Content-Type", "application/json")
	require.Equal(t, http.StatusCreated, performRequest(router, req).Code)

	req, _ = http.NewRequest(http.MethodGet, "/behavior-logs?status=pending&page=1&limit=10", nil)
	resp := performRequest(router, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"total_count":1`)

	req, _ = http.NewRequest(http.MethodGet, "/behavior-logs?status=archived", nil)
	resp = performRequest(router, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}
