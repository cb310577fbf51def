package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plantops/maintenance-service/internal/auth"
	"github.com/plantops/maintenance-service/internal/config"
	"github.com/plantops/maintenance-service/internal/domain"
	apperrors "github.com/plantops/maintenance-service/pkg/util/errorutil"
)

func newAuthEnv(t *testing.T) (*AuthService, *fakePersonRepo) {
	t.Helper()
	people := newFakePersonRepo()
	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 15, BcryptCost: 4}}
	return NewAuthService(cfg, people), people
}

func seedAccount(t *testing.T, people *fakePersonRepo, id int64, email, password string, active bool) {
	t.Helper()
	hash, err := auth.HashPassword(password, 4)
	require.NoError(t, err)
	people.add(domain.Person{ID: id, Name: "tester", Email: email, PasswordHash: hash, IsActive: active})
}

func TestLoginSuccess(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "tech@plant.example", "s3cret", true)

	person, token, expiresAt, err := svc.Login(context.Background(), "tech@plant.example", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, int64(1), person.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.PersonID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "tech@plant.example", "s3cret", true)

	_, _, _, err := svc.Login(context.Background(), "tech@plant.example", "wrong")
	assertErrCode(t, err, apperrors.CodeUnauthorized)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthEnv(t)

	_, _, _, err := svc.Login(context.Background(), "nobody@plant.example", "s3cret")
	assertErrCode(t, err, apperrors.CodeUnauthorized)
}

func TestChangePassword(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "tech@plant.example", "old-secret", true)

	err := svc.ChangePassword(context.Background(), 1, "old-secret", "new-secret-9")
	require.NoError(t, err)

	_, _, _, err = svc.Login(context.Background(), "tech@plant.example", "old-secret")
	assertErrCode(t, err, apperrors.CodeUnauthorized)

	_, token, _, err := svc.Login(context.Background(), "tech@plant.example", "new-secret-9")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "tech@plant.example", "old-secret", true)

	err := svc.ChangePassword(context.Background(), 1, "guess", "new-secret-9")
	assertErrCode(t, err, apperrors.CodeUnauthorized)
}

func TestChangePasswordTooShort(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "tech@plant.example", "old-secret", true)

	err := svc.ChangePassword(context.Background(), 1, "old-secret", "short")
	assertErrCode(t, err, apperrors.CodeValidationFailed)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, people := newAuthEnv(t)
	seedAccount(t, people, 1, "gone@plant.example", "s3cret", false)

	_, _, _, err := svc.Login(context.Background(), "gone@plant.example", "s3cret")
	assertErrCode(t, err, apperrors.CodeUnauthorized)
}
