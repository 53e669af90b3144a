package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type behaviorLogRepository interface {
	Create(ctx context.Context, log *models.BehaviorLog, behaviorTypeIDs []int64) error
	FindDetailByID(ctx context.Context, id int64) (*models.BehaviorLogDetail, error)
	List(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, int, error)
	ListAll(ctx context.Context, filter models.BehaviorLogFilter) ([]models.BehaviorLogDetail, error)
	TransitionStatus(ctx context.Context, ids []int64, status models.ApprovalStatus) ([]models.StatusTransition, error)
	ScoreDeltas(ctx context.Context, logIDs []int64) ([]models.StudentScoreDelta, error)
}

type studentScoreRepository interface {
	FindByID(ctx context.Context, id int64) (*models.StudentWithClassroom, error)
	IncrementBehaviorScore(ctx context.Context, studentID int64, delta int) error
}

type teacherLookup interface {
	FindByID(ctx context.Context, id int64) (*models.Teacher, error)
}

type behaviorCatalog interface {
	CountByIDs(ctx context.Context, ids []int64) (int, error)
}

// BehaviorLogService owns the behavior log lifecycle: creation of pending
// logs and the approval workflow that feeds student scores.
type BehaviorLogService struct {
	logs      behaviorLogRepository
	students  studentScoreRepository
	teachers  teacherLookup
	catalog   behaviorCatalog
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBehaviorLogService constructs the service.
func NewBehaviorLogService(logs behaviorLogRepository, students studentScoreRepository, teachers teacherLookup, catalog behaviorCatalog, validate *validator.Validate, logger *zap.Logger) *BehaviorLogService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BehaviorLogService{logs: logs, students: students, teachers: teachers, catalog: catalog, validator: validate, logger: logger}
}

// CreateBehaviorLogRequest describes the create payload.
type CreateBehaviorLogRequest struct {
	StudentID       int64   `json:"student_id" validate:"required,gt=0"`
	BehaviorTypeIDs []int64 `json:"behavior_type_ids" validate:"required,min=1,dive,gt=0"`
	TeacherID       int64   `json:"teacher_id" validate:"required,gt=0"`
	Description     *string `json:"description"`
	ImageURL        *string `json:"image_url"`
}

// BehaviorLogListRequest describes list filters.
type BehaviorLogListRequest struct {
	Status    string `json:"status"`
	SortOrder string `json:"sort_order"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// TransitionRequest describes the bulk status update payload.
type TransitionRequest struct {
	IDs    []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
	Status string  `json:"status" validate:"required,oneof=approved rejected"`
}

// TransitionResult reports how many logs actually changed status.
type TransitionResult struct {
	UpdatedCount int `json:"updated_count"`
}

// Create persists a pending log with its cited behavior types and returns the
// resolved projection. It never touches the student's score; that happens
// only on approval.
func (s *BehaviorLogService) Create(ctx context.Context, req CreateBehaviorLogRequest) (*models.BehaviorLogDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch teacher")
	}

	typeIDs := dedupeIDs(req.BehaviorTypeIDs)
	count, err := s.catalog.CountByIDs(ctx, typeIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify behavior types")
	}
	if count != len(typeIDs) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "one or more behavior types do not exist")
	}

	log := &models.BehaviorLog{
		StudentID:   req.StudentID,
		TeacherID:   req.TeacherID,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.logs.Create(ctx, log, typeIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create behavior log")
	}

	detail, err := s.logs.FindDetailByID(ctx, log.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load created behavior log")
	}
	return detail, nil
}

// List returns a filtered, sorted page of logs plus the total over the same
// filter.
func (s *BehaviorLogService) List(ctx context.Context, req BehaviorLogListRequest) ([]models.BehaviorLogDetail, *models.Pagination, error) {
	status := req.Status
	if status == "" {
		status = "all"
	}
	switch status {
	case "all", string(models.StatusPending), string(models.StatusApproved), string(models.StatusRejected):
	default:
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "unknown status filter")
	}

	filter := models.BehaviorLogFilter{
		Status:    status,
		SortOrder: req.SortOrder,
		Page:      req.Page,
		PageSize:  req.PageSize,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	details, total, err := s.logs.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list behavior logs")
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	return details, pagination, nil
}

// ListByStudent returns a student's complete behavior history, newest first.
func (s *BehaviorLogService) ListByStudent(ctx context.Context, studentID int64) ([]models.BehaviorLogDetail, error) {
	if studentID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid student id")
	}
	details, err := s.logs.ListAll(ctx, models.BehaviorLogFilter{StudentID: studentID, SortOrder: "desc"})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student behavior logs")
	}
	return details, nil
}

// Transition bulk-updates log status. Unknown and already-terminal ids are
// skipped silently; the count reflects rows that actually flipped. On
// approval, each flipped log's score delta is applied to its student exactly
// once; increments that fail after the status write committed surface as an
// AggregationError naming the affected students.
func (s *BehaviorLogService) Transition(ctx context.Context, req TransitionRequest) (*TransitionResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}

	ids := dedupeIDs(req.IDs)
	status := models.ApprovalStatus(req.Status)

	flipped, err := s.logs.TransitionStatus(ctx, ids, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update behavior log status")
	}

	result := &TransitionResult{UpdatedCount: len(flipped)}
	if status != models.StatusApproved || len(flipped) == 0 {
		return result, nil
	}

	flippedIDs := make([]int64, len(flipped))
	studentIDs := make([]int64, 0, len(flipped))
	seen := make(map[int64]struct{}, len(flipped))
	for i, transition := range flipped {
		flippedIDs[i] = transition.LogID
		if _, ok := seen[transition.StudentID]; !ok {
			seen[transition.StudentID] = struct{}{}
			studentIDs = append(studentIDs, transition.StudentID)
		}
	}

	deltas, err := s.logs.ScoreDeltas(ctx, flippedIDs)
	if err != nil {
		// Statuses are committed at this point; every affected student is
		// still owed its delta.
		s.logger.Error("score delta computation failed after approval commit",
			zap.Int64s("student_ids", studentIDs), zap.Error(err))
		return nil, appErrors.NewAggregationError(studentIDs, result.UpdatedCount, err)
	}

	var failed []int64
	var lastErr error
	for _, delta := range deltas {
		if delta.Delta == 0 {
			continue
		}
		if err := s.students.IncrementBehaviorScore(ctx, delta.StudentID, delta.Delta); err != nil {
			failed = append(failed, delta.StudentID)
			lastErr = err
			s.logger.Error("behavior score increment failed",
				zap.Int64("student_id", delta.StudentID), zap.Int("delta", delta.Delta), zap.Error(err))
		}
	}
	if len(failed) > 0 {
		return nil, appErrors.NewAggregationError(failed, result.UpdatedCount, lastErr)
	}

	s.logger.Info("behavior logs approved",
		zap.Int("updated_count", result.UpdatedCount), zap.Int("students_scored", len(deltas)))
	return result, nil
}

func dedupeIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
