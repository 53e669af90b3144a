package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/sakda-dev/behavior-track-api/internal/models"
)

// TeacherRepository manages persistence for teacher accounts and their
// refresh tokens.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns the roster projection of all teachers.
func (r *TeacherRepository) List(ctx context.Context) ([]models.TeacherInfo, error) {
	var teachers []models.TeacherInfo
	if err := r.db.SelectContext(ctx, &teachers, "SELECT id, name, role FROM teachers ORDER BY name ASC"); err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches one teacher account.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	var teacher models.Teacher
	const query = `SELECT id, name, email, password_hash, role, active, created_at, updated_at FROM teachers WHERE id = $1`
	if err := r.db.GetContext(ctx, &teacher, query, id); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// FindByEmail fetches a teacher account by login email.
func (r *TeacherRepository) FindByEmail(ctx context.Context, email string) (*models.Teacher, error) {
	var teacher models.Teacher
	const query = `SELECT id, name, email, password_hash, role, active, created_at, updated_at FROM teachers WHERE email = $1`
	if err := r.db.GetContext(ctx, &teacher, query, email); err != nil {
		return nil, err
	}
	return &teacher, nil
}

// CreateRefreshToken persists a new refresh token.
func (r *TeacherRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	const query = `INSERT INTO refresh_tokens (id, teacher_id, token, expires_at, created_at, revoked)
        VALUES (:id, :teacher_id, :token, :expires_at, :created_at, :revoked)`
	if _, err := r.db.NamedExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}
	return nil
}

// FindRefreshToken looks up a refresh token by its opaque value.
func (r *TeacherRepository) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var record models.RefreshToken
	const query = `SELECT id, teacher_id, token, expires_at, created_at, revoked, revoked_at FROM refresh_tokens WHERE token = $1`
	if err := r.db.GetContext(ctx, &record, query, token); err != nil {
		return nil, err
	}
	return &record, nil
}

// RevokeRefreshToken marks a refresh token as spent.
func (r *TeacherRepository) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	const query = `UPDATE refresh_tokens SET revoked = true, revoked_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, revokedAt); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}
