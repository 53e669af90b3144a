package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

const studentColumns = `s.id, s.student_number, s.first_name, s.last_name, s.nickname, s.classroom_id, s.behavior_score, s.created_at, s.updated_at,
        c.name AS classroom_name, c.department AS classroom_department`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentWithClassroom, int, error) {
	base := "FROM students s JOIN classrooms c ON c.id = s.classroom_id"
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filter.ClassroomID > 0 {
		conditions = append(conditions, fmt.Sprintf("s.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(s.student_number) LIKE $%d OR LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	whereClause := strings.Join(conditions, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY s.student_number ASC LIMIT %d OFFSET %d",
		studentColumns, base, whereClause, size, offset)
	var students []models.StudentWithClassroom
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student with classroom context by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentWithClassroom, error) {
	query := fmt.Sprintf("SELECT %s FROM students s JOIN classrooms c ON c.id = s.classroom_id WHERE s.id = $1", studentColumns)
	var student models.StudentWithClassroom
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// Create inserts a new student record scored at the given baseline.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now
	const query = `INSERT INTO students (student_number, first_name, last_name, nickname, classroom_id, behavior_score, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query,
		student.StudentNumber, student.FirstName, student.LastName, student.Nickname,
		student.ClassroomID, student.BehaviorScore, student.CreatedAt, student.UpdatedAt,
	).Scan(&student.ID); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// IncrementBehaviorScore applies a relative delta to the stored score. The
// increment happens inside the statement so concurrent approvals of
// different logs for the same student cannot lose updates.
func (r *StudentRepository) IncrementBehaviorScore(ctx context.Context, studentID int64, delta int) error {
	const query = `UPDATE students SET behavior_score = behavior_score + $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, studentID, delta, time.Now().UTC()); err != nil {
		return fmt.Errorf("increment behavior score: %w", err)
	}
	return nil
}
