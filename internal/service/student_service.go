package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithClassroom, int, error)
	FindByID(ctx context.Context, id int64) (*models.StudentWithClassroom, error)
	Create(ctx context.Context, student *models.Student) error
}

type classroomRepository interface {
	List(ctx context.Context) ([]models.Classroom, error)
	FindByID(ctx context.Context, id int64) (*models.Classroom, error)
}

// StudentService exposes student reads and registration. Scores are never
// written here; the aggregation workflow owns behavior_score.
type StudentService struct {
	students   studentRepository
	classrooms classroomRepository
	baseline   int
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(students studentRepository, classrooms classroomRepository, baseline int, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if baseline <= 0 {
		baseline = 100
	}
	return &StudentService{students: students, classrooms: classrooms, baseline: baseline, validator: validate, logger: logger}
}

// CreateStudentRequest describes the registration payload.
type CreateStudentRequest struct {
	StudentNumber string  `json:"student_number" validate:"required"`
	FirstName     string  `json:"first_name" validate:"required"`
	LastName      string  `json:"last_name" validate:"required"`
	Nickname      *string `json:"nickname"`
	ClassroomID   int64   `json:"classroom_id" validate:"required,gt=0"`
}

// Get fetches one student with classroom context.
func (s *StudentService) Get(ctx context.Context, id int64) (*models.StudentWithClassroom, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch student")
	}
	return student, nil
}

// ListByClassroom returns every student of one classroom.
func (s *StudentService) ListByClassroom(ctx context.Context, classroomID int64) ([]models.StudentWithClassroom, error) {
	if classroomID <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid classroom id")
	}
	if _, err := s.classrooms.FindByID(ctx, classroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch classroom")
	}
	students, _, err := s.students.List(ctx, models.StudentFilter{ClassroomID: classroomID, Page: 1, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return students, nil
}

// Search finds students by number or name, case-insensitive substring match.
func (s *StudentService) Search(ctx context.Context, query string) ([]models.StudentWithClassroom, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search query is required")
	}
	students, _, err := s.students.List(ctx, models.StudentFilter{Search: query, Page: 1, PageSize: 50})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	return students, nil
}

// Create registers a student at the baseline behavior score.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if _, err := s.classrooms.FindByID(ctx, req.ClassroomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch classroom")
	}

	student := &models.Student{
		StudentNumber: req.StudentNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Nickname:      req.Nickname,
		ClassroomID:   req.ClassroomID,
		BehaviorScore: s.baseline,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Classrooms lists all classrooms for navigation.
func (s *StudentService) Classrooms(ctx context.Context) ([]models.Classroom, error) {
	classrooms, err := s.classrooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	return classrooms, nil
}
