package services

import (
	"testing"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuthRepo implements repositories.AuthRepository with overridable
// function fields; unset methods panic.
type fakeAuthRepo struct {
	findUserByEmail          func(email string) (*models.User, error)
	createPasswordResetToken func(executor repositories.SQLExecutor, userID int64, token string, expiresAt time.Time) error
	findPasswordResetToken   func(token string) (*models.PasswordResetToken, error)
}

func (f *fakeAuthRepo) CreateUser(executor repositories.SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	panic("not implemented")
}

func (f *fakeAuthRepo) FindUserByUsername(username string) (*models.User, string, error) {
	panic("not implemented")
}

func (f *fakeAuthRepo) FindUserByID(userID int64) (*models.User, error) {
	panic("not implemented")
}

func (f *fakeAuthRepo) FindUserByEmail(email string) (*models.User, error) {
	return f.findUserByEmail(email)
}

func (f *fakeAuthRepo) UpdatePassword(executor repositories.SQLExecutor, userID int64, hashedPassword string) error {
	panic("not implemented")
}

func (f *fakeAuthRepo) RevokeRefreshToken(executor repositories.SQLExecutor, userID int64, token string) error {
	panic("not implemented")
}

func (f *fakeAuthRepo) IsRefreshTokenRevoked(token string) (bool, error) {
	panic("not implemented")
}

func (f *fakeAuthRepo) CreatePasswordResetToken(executor repositories.SQLExecutor, userID int64, token string, expiresAt time.Time) error {
	return f.createPasswordResetToken(executor, userID, token, expiresAt)
}

func (f *fakeAuthRepo) FindPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	return f.findPasswordResetToken(token)
}

func (f *fakeAuthRepo) MarkPasswordResetTokenUsed(executor repositories.SQLExecutor, tokenID int64) error {
	panic("not implemented")
}

func TestRequestPasswordResetUnknownEmail(t *testing.T) {
	repo := &fakeAuthRepo{
		findUserByEmail: func(email string) (*models.User, error) {
			return nil, repositories.ErrNotFound
		},
	}
	svc := NewAuthService(repo, nil, nil, nil, noopMailer{}, "http://localhost")

	err := svc.RequestPasswordReset(PasswordResetRequest{Email: "nobody@example.com"})
	assert.ErrorIs(t, err, ErrEmailNotFound)
}

func TestRequestPasswordResetStoresToken(t *testing.T) {
	var storedToken string
	repo := &fakeAuthRepo{
		findUserByEmail: func(email string) (*models.User, error) {
			return &models.User{ID: 3, Email: &email}, nil
		},
		createPasswordResetToken: func(executor repositories.SQLExecutor, userID int64, token string, expiresAt time.Time) error {
			assert.Equal(t, int64(3), userID)
			assert.True(t, expiresAt.After(time.Now()))
			storedToken = token
			return nil
		},
	}
	svc := NewAuthService(repo, nil, nil, nil, noopMailer{}, "http://localhost")

	err := svc.RequestPasswordReset(PasswordResetRequest{Email: "achieng@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, storedToken)
}

func TestConfirmPasswordResetExpiredToken(t *testing.T) {
	expired := time.Now().Add(-time.Hour)
	repo := &fakeAuthRepo{
		findPasswordResetToken: func(token string) (*models.PasswordResetToken, error) {
			return &models.PasswordResetToken{ID: 1, UserID: 3, Token: token, ExpiresAt: expired}, nil
		},
	}
	svc := NewAuthService(repo, nil, nil, nil, noopMailer{}, "http://localhost")

	err := svc.ConfirmPasswordReset(PasswordResetConfirm{Token: "t", NewPassword: "newpass123"})
	assert.ErrorIs(t, err, ErrResetTokenInvalid)
}
