package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

// ClassroomRepository reads classroom groupings.
type ClassroomRepository struct {
	db *sqlx.DB
}

// NewClassroomRepository constructs a ClassroomRepository.
func NewClassroomRepository(db *sqlx.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

// List returns all classrooms ordered by name.
func (r *ClassroomRepository) List(ctx context.Context) ([]models.Classroom, error) {
	var classrooms []models.Classroom
	if err := r.db.SelectContext(ctx, &classrooms, "SELECT id, name, department FROM classrooms ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	return classrooms, nil
}

// FindByID fetches one classroom.
func (r *ClassroomRepository) FindByID(ctx context.Context, id int64) (*models.Classroom, error) {
	var classroom models.Classroom
	if err := r.db.GetContext(ctx, &classroom, "SELECT id, name, department FROM classrooms WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &classroom, nil
}
