package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rotcph/rotc-portal-api/internal/models"
	appErrors "github.com/rotcph/rotc-portal-api/pkg/errors"
)

type mockAuthRepo struct {
	usersByEmail  map[string]models.User
	usersByID     map[string]models.User
	refreshTokens map[string]models.RefreshToken
	revokedIDs    []string
	revokedUsers  []string
	auditLogs     []models.AuditLog
	lastPassword  string
}

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.usersByEmail[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.lastPassword = passwordHash
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedUsers = append(m.revokedUsers, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]models.RefreshToken)
	}
	m.refreshTokens[token.Token] = *token
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		return &t, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revokedIDs = append(m.revokedIDs, id)
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

type mockAuthCadetRepo struct {
	cadetsByUser map[string]models.Cadet
}

func (m *mockAuthCadetRepo) FindByUserID(ctx context.Context, userID string) (*models.Cadet, error) {
	if c, ok := m.cadetsByUser[userID]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "unit-test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "rotc-portal",
		Audience:           []string{"rotc-portal-api"},
	}
}

func seedAuthUser(t *testing.T, role models.UserRole, active bool) (*mockAuthRepo, models.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	user := models.User{
		ID:           "u1",
		Email:        "cadet@university.edu",
		PasswordHash: string(hash),
		FullName:     "Juan Dela Cruz",
		Role:         role,
		Active:       active,
	}
	repo := &mockAuthRepo{
		usersByEmail: map[string]models.User{user.Email: user},
		usersByID:    map[string]models.User{user.ID: user},
	}
	return repo, user
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "secret123"})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.Email, resp.User.Email)
	assert.Contains(t, repo.refreshTokens, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, models.RoleFaculty, claims.Role)
	assert.Empty(t, claims.CadetID)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, false)
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestCadetTokenCarriesProfileID(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleCadet, true)
	cadets := &mockAuthCadetRepo{cadetsByUser: map[string]models.Cadet{
		user.ID: {ID: "cadet-77", Status: models.CadetStatusApproved},
	}}
	svc := NewAuthService(repo, cadets, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: user.Email, Password: "secret123"})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "cadet-77", claims.CadetID)
}

func TestRefreshTokenRotates(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	repo.refreshTokens = map[string]models.RefreshToken{
		"old-token": {ID: "rt1", UserID: user.ID, Token: "old-token", ExpiresAt: time.Now().Add(time.Hour)},
	}
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	resp, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "old-token"})
	require.NoError(t, err)

	assert.NotEqual(t, "old-token", resp.RefreshToken)
	assert.Contains(t, repo.revokedIDs, "rt1")
	assert.Contains(t, repo.refreshTokens, resp.RefreshToken)
}

func TestRefreshTokenRejectsExpired(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	repo.refreshTokens = map[string]models.RefreshToken{
		"stale": {ID: "rt1", UserID: user.ID, Token: "stale", ExpiresAt: time.Now().Add(-time.Minute)},
	}
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "secret123",
		NewPassword: "brand-new-pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, repo.lastPassword)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.lastPassword), []byte("brand-new-pass")))
	assert.Contains(t, repo.revokedUsers, user.ID)
}

func TestChangePasswordRejectsWrongOldPassword(t *testing.T) {
	repo, user := seedAuthUser(t, models.RoleFaculty, true)
	svc := NewAuthService(repo, &mockAuthCadetRepo{}, validator.New(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), user.ID, models.ChangePasswordRequest{
		OldPassword: "nope",
		NewPassword: "brand-new-pass",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}
