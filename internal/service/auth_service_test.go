package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/sakda-dev/behavior-track-api/internal/models"
	appErrors "github.com/sakda-dev/behavior-track-api/pkg/errors"
)

type mockAuthRepo struct {
	teachers map[string]*models.Teacher
	byID     map[int64]*models.Teacher
	tokens   map[string]*models.RefreshToken
	revoked  []string
}

func newMockAuthRepo(teachers ...*models.Teacher) *mockAuthRepo {
	repo := &mockAuthRepo{
		teachers: make(map[string]*models.Teacher),
		byID:     make(map[int64]*models.Teacher),
		tokens:   make(map[string]*models.RefreshToken),
	}
	for _, teacher := range teachers {
		repo.teachers[teacher.Email] = teacher
		repo.byID[teacher.ID] = teacher
	}
	return repo
}

func (m *mockAuthRepo) FindByEmail(_ context.Context, email string) (*models.Teacher, error) {
	teacher, ok := m.teachers[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func (m *mockAuthRepo) FindByID(_ context.Context, id int64) (*models.Teacher, error) {
	teacher, ok := m.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return teacher, nil
}

func (m *mockAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	record, ok := m.tokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return record, nil
}

func (m *mockAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, record := range m.tokens {
		if record.ID == id {
			record.Revoked = true
			record.RevokedAt = &revokedAt
		}
	}
	return nil
}

func authTestTeacher(t *testing.T, active bool) *models.Teacher {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.Teacher{
		ID:           9,
		Name:         "Kru Anan",
		Email:        "anan@school.ac.th",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       active,
	}
}

func newAuthFixture(t *testing.T, teacher *models.Teacher) (*AuthService, *mockAuthRepo) {
	repo := newMockAuthRepo(teacher)
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "behavior-track-api",
	})
	return svc, repo
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t, authTestTeacher(t, true))

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "anan@school.ac.th",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(9), resp.Teacher.ID)
	assert.Equal(t, models.RoleAdmin, resp.Teacher.Role)
	assert.Len(t, repo.tokens, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(9), claims.TeacherID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t, authTestTeacher(t, true))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "anan@school.ac.th",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t, authTestTeacher(t, true))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@school.ac.th",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	svc, _ := newAuthFixture(t, authTestTeacher(t, false))

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "anan@school.ac.th",
		Password: "secret123",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshRotatesToken(t *testing.T) {
	svc, repo := newAuthFixture(t, authTestTeacher(t, true))

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "anan@school.ac.th",
		Password: "secret123",
	})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, repo.revoked, 1)

	// The rotated-out token no longer works.
	_, err = svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshExpiredToken(t *testing.T) {
	svc, repo := newAuthFixture(t, authTestTeacher(t, true))
	repo.tokens["stale"] = &models.RefreshToken{
		ID:        "rt-1",
		TeacherID: 9,
		Token:     "stale",
		ExpiresAt: time.Now().UTC().Add(-time.Hour),
	}

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthFixture(t, authTestTeacher(t, true))

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
