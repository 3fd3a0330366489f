package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type fakeAuthRepo struct {
	user       *models.User
	userErr    error
	stored     *models.RefreshToken
	storedErr  error
	revoked    []string
	lastStamp  time.Time
	created    []*models.RefreshToken
	createFail error
}

func (f *fakeAuthRepo) FindByEmail(context.Context, string) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeAuthRepo) FindByID(context.Context, int64) (*models.User, error) {
	return f.user, f.userErr
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, _ int64, ts time.Time) error {
	f.lastStamp = ts
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	if f.createFail != nil {
		return f.createFail
	}
	f.created = append(f.created, token)
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(context.Context, string) (*models.RefreshToken, error) {
	return f.stored, f.storedErr
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, _ time.Time) error {
	f.revoked = append(f.revoked, id)
	return nil
}

func authUser(t *testing.T, blocked bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           1,
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		FullName:     "Admin",
		Role:         models.RoleSuperAdmin,
		Blocked:      blocked,
	}
}

func testAuthService(repo *fakeAuthRepo) *AuthService {
	return NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	repo := &fakeAuthRepo{user: authUser(t, false)}
	svc := testAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.False(t, repo.lastStamp.IsZero())
	require.Len(t, repo.created, 1)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, models.RoleSuperAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc := testAuthService(&fakeAuthRepo{user: authUser(t, false)})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmailHidesExistence(t *testing.T) {
	svc := testAuthService(&fakeAuthRepo{userErr: sql.ErrNoRows})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "ghost@example.com", Password: "whatever1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginBlockedAccount(t *testing.T) {
	svc := testAuthService(&fakeAuthRepo{user: authUser(t, true)})

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrBlockedAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeAuthRepo{
		user: authUser(t, false),
		stored: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    1,
			Token:     "old",
			ExpiresAt: now.Add(time.Hour),
			CreatedAt: now.Add(-time.Hour),
		},
	}
	svc := testAuthService(repo)

	resp, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.NoError(t, err)
	assert.NotEqual(t, "old", resp.RefreshToken)
	assert.Equal(t, []string{"tok-1"}, repo.revoked)
	require.Len(t, repo.created, 1)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	now := time.Now().UTC()
	repo := &fakeAuthRepo{
		user: authUser(t, false),
		stored: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    1,
			Token:     "old",
			ExpiresAt: now.Add(-time.Minute),
		},
	}
	svc := testAuthService(repo)

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.revoked)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	now := time.Now().UTC()
	revokedAt := now.Add(-time.Minute)
	repo := &fakeAuthRepo{
		user: authUser(t, false),
		stored: &models.RefreshToken{
			ID:        "tok-1",
			UserID:    1,
			Token:     "old",
			ExpiresAt: now.Add(time.Hour),
			RevokedAt: &revokedAt,
		},
	}
	svc := testAuthService(repo)

	_, err := svc.Refresh(context.Background(), models.RefreshTokenRequest{RefreshToken: "old"})
	require.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := testAuthService(&fakeAuthRepo{})

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	repo := &fakeAuthRepo{user: authUser(t, false)}
	issuer := testAuthService(repo)
	resp, err := issuer.Login(context.Background(), models.LoginRequest{Email: "admin@example.com", Password: "secret123"})
	require.NoError(t, err)

	verifier := NewAuthService(repo, nil, nil, AuthConfig{AccessTokenSecret: "different", AccessTokenExpiry: time.Minute})
	_, err = verifier.ValidateToken(resp.AccessToken)
	assert.Error(t, err)
}
