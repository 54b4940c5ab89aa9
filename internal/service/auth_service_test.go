package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/edukasys/sfa-records-api/internal/lifecycle"
	"github.com/edukasys/sfa-records-api/internal/models"
	appErrors "github.com/edukasys/sfa-records-api/pkg/errors"
)

type mockAdminRepo struct {
	admins     map[int64]models.Admin
	lastLogin  *time.Time
	passwords  map[int64]string
	profileErr error
}

func newMockAdminRepo(t *testing.T, password string) *mockAdminRepo {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &mockAdminRepo{
		admins: map[int64]models.Admin{
			1: {ID: 1, Username: "admin", Email: "admin@example.com", FullName: "Administrator", PasswordHash: string(hash)},
		},
		passwords: map[int64]string{},
	}
}

func (m *mockAdminRepo) FindByUsername(ctx context.Context, username string) (*models.Admin, error) {
	for _, a := range m.admins {
		if a.Username == username {
			clone := a
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) FindByID(ctx context.Context, id int64) (*models.Admin, error) {
	if a, ok := m.admins[id]; ok {
		clone := a
		return &clone, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAdminRepo) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	m.lastLogin = &ts
	return nil
}

func (m *mockAdminRepo) UpdateProfile(ctx context.Context, admin *models.Admin) error {
	if m.profileErr != nil {
		return m.profileErr
	}
	m.admins[admin.ID] = *admin
	return nil
}

func (m *mockAdminRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	m.passwords[id] = passwordHash
	if a, ok := m.admins[id]; ok {
		a.PasswordHash = passwordHash
		m.admins[id] = a
	}
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{JWTSecret: "test-secret", Expiration: time.Hour, Issuer: "sfa-records-api"}
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, nil, Deps{}, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin", res.Admin.Username)
	assert.NotNil(t, repo.lastLogin)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.AdminID)
	assert.Equal(t, "admin", claims.Username)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := newMockAdminRepo(t, "correct horse")
	svc := NewAuthService(repo, nil, Deps{}, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "battery staple"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	repo := newMockAdminRepo(t, "pw")
	svc := NewAuthService(repo, nil, Deps{}, testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "pw"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	// Indistinguishable from a wrong password.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestAuthServiceValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(newMockAdminRepo(t, "pw"), nil, Deps{}, testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
}

func TestAdminServiceChangePassword(t *testing.T) {
	repo := newMockAdminRepo(t, "old password")
	svc := NewAdminService(repo, Deps{})

	err := svc.ChangePassword(context.Background(), lifecycle.Actor{AdminID: 1}, ChangePasswordRequest{
		OldPassword: "old password",
		NewPassword: "brand new secret",
	})
	require.NoError(t, err)
	require.Contains(t, repo.passwords, int64(1))
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.passwords[1]), []byte("brand new secret")))
}

func TestAdminServiceChangePasswordWrongOld(t *testing.T) {
	repo := newMockAdminRepo(t, "old password")
	svc := NewAdminService(repo, Deps{})

	err := svc.ChangePassword(context.Background(), lifecycle.Actor{AdminID: 1}, ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "brand new secret",
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Contains(t, appErr.Fields, "old_password")
}

func TestAdminServiceUpdateProfile(t *testing.T) {
	repo := newMockAdminRepo(t, "pw")
	svc := NewAdminService(repo, Deps{})

	email := "new@example.com"
	admin, err := svc.UpdateProfile(context.Background(), lifecycle.Actor{AdminID: 1}, UpdateProfileRequest{Email: &email})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", admin.Email)
	assert.Equal(t, "admin", admin.Username)
}
