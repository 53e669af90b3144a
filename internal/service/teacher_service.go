package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type teacherRosterRepository interface {
	List(ctx context.Context) ([]models.TeacherInfo, error)
}

// TeacherService serves the roster projection.
type TeacherService struct {
	repo   teacherRosterRepository
	logger *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRosterRepository, logger *zap.Logger) *TeacherService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, logger: logger}
}

// List returns all teachers as id/name/role.
func (s *TeacherService) List(ctx context.Context) ([]models.TeacherInfo, error) {
	teachers, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, nil
}
