package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Lusimba/kichaka/internal/models"
	"github.com/Lusimba/kichaka/internal/repositories"
	"github.com/Lusimba/kichaka/pkg/utils"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// --- Custom Service Errors ---
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameExists     = errors.New("username already exists")
	ErrEmailExists        = errors.New("email already exists")
	ErrTokenGeneration    = errors.New("failed to generate token")
	ErrTokenRevoked       = errors.New("refresh token has been revoked")
	ErrResetTokenInvalid  = errors.New("password reset token is invalid or expired")
	ErrEmailNotFound      = errors.New("no account with that email")
)

const passwordResetTTL = time.Hour

// --- Data Transfer Objects (DTOs) ---

// LoginRequest DTO
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RegisterUserRequest DTO
type RegisterUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	FullName string `json:"full_name" binding:"required"`
	Role     string `json:"role"` // proprietor, manager, supervisor; supervisor if empty
}

// RefreshRequest DTO
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// PasswordResetRequest DTO
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// PasswordResetConfirm DTO
type PasswordResetConfirm struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// AuthResponse DTO
type AuthResponse struct {
	User         *models.User `json:"user"`
	Role         string       `json:"role"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token,omitempty"`
}

// --- AuthService Interface ---
type AuthService interface {
	RegisterUser(req RegisterUserRequest) (*models.User, error)
	LoginUser(req LoginRequest) (*AuthResponse, error)
	RefreshTokens(req RefreshRequest) (*AuthResponse, error)
	Logout(userID int64, refreshToken string) error
	GetUserProfile(userID int64) (*models.User, error)
	RequestPasswordReset(req PasswordResetRequest) error
	ConfirmPasswordReset(req PasswordResetConfirm) error
}

// --- authService Implementation ---
type authService struct {
	authRepo  repositories.AuthRepository
	staffRepo repositories.StaffRepository
	db        *sql.DB // Used as SQLExecutor for single repo calls, or for managing transactions
	tokens    *utils.TokenManager
	mailer    Mailer
	// resetLinkBase is the frontend URL the reset token is appended to.
	resetLinkBase string
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(
	authRepo repositories.AuthRepository,
	staffRepo repositories.StaffRepository,
	db *sql.DB,
	tokens *utils.TokenManager,
	mailer Mailer,
	resetLinkBase string,
) AuthService {
	return &authService{
		authRepo:      authRepo,
		staffRepo:     staffRepo,
		db:            db,
		tokens:        tokens,
		mailer:        mailer,
		resetLinkBase: resetLinkBase,
	}
}

// RegisterUser creates a login account and its staff record in one
// transaction.
func (s *authService) RegisterUser(req RegisterUserRequest) (*models.User, error) {
	role := strings.ToLower(req.Role)
	if role == "" {
		role = models.StaffRoleSupervisor
	}
	switch role {
	case models.StaffRoleProprietor, models.StaffRoleManager, models.StaffRoleSupervisor:
	default:
		return nil, fmt.Errorf("%w: unknown role '%s'", ErrValidation, req.Role)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	user := models.User{
		Username: req.Username,
		Email:    &req.Email,
		FullName: &req.FullName,
	}
	createdUserID, err := s.authRepo.CreateUser(tx, &user, string(hashedPasswordBytes))
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if strings.Contains(err.Error(), "users_username_key") {
				return nil, ErrUsernameExists
			}
			if strings.Contains(err.Error(), "users_email_key") {
				return nil, ErrEmailExists
			}
			return nil, fmt.Errorf("%w: %s", ErrUsernameExists, "username or email already taken")
		}
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	staff := models.StaffMember{
		UserID: createdUserID,
		Role:   role,
		Status: models.StaffStatusActive,
	}
	if _, err := s.staffRepo.CreateStaffMember(tx, &staff); err != nil {
		return nil, fmt.Errorf("failed to create staff record: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit registration: %w", err)
	}

	registeredUser, fetchErr := s.authRepo.FindUserByID(createdUserID)
	if fetchErr != nil {
		user.ID = createdUserID
		user.PasswordHash = ""
		return &user, nil
	}
	return registeredUser, nil
}

// LoginUser verifies credentials and issues an access/refresh token pair.
func (s *authService) LoginUser(req LoginRequest) (*AuthResponse, error) {
	user, storedHashedPassword, err := s.authRepo.FindUserByUsername(req.Username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("login attempt failed: %w", err)
	}

	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(storedHashedPassword), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	role := s.resolveRole(user.ID)
	return s.issueTokens(user, role)
}

// RefreshTokens validates a refresh token, rotates it and returns a new
// pair. The old token is revoked so it cannot be replayed.
func (s *authService) RefreshTokens(req RefreshRequest) (*AuthResponse, error) {
	claims, err := s.tokens.ValidateToken(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, err)
	}

	revoked, err := s.authRepo.IsRefreshTokenRevoked(req.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.authRepo.FindUserByID(claims.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for refresh: %w", err)
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	// Rotation: the presented token is spent regardless of what follows.
	if err := s.authRepo.RevokeRefreshToken(s.db, user.ID, req.RefreshToken); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	role := s.resolveRole(user.ID)
	return s.issueTokens(user, role)
}

// Logout revokes the presented refresh token.
func (s *authService) Logout(userID int64, refreshToken string) error {
	if err := s.authRepo.RevokeRefreshToken(s.db, userID, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// GetUserProfile retrieves a user's profile by their ID.
func (s *authService) GetUserProfile(userID int64) (*models.User, error) {
	user, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}
	return user, nil
}

// RequestPasswordReset issues a reset token and mails the link.
func (s *authService) RequestPasswordReset(req PasswordResetRequest) error {
	user, err := s.authRepo.FindUserByEmail(req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEmailNotFound
		}
		return fmt.Errorf("failed to look up account for reset: %w", err)
	}

	token := uuid.NewString()
	expiresAt := time.Now().Add(passwordResetTTL)
	if err := s.authRepo.CreatePasswordResetToken(s.db, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/reset-password?token=%s", strings.TrimRight(s.resetLinkBase, "/"), token)
	go func() {
		if err := s.mailer.SendPasswordReset(req.Email, resetLink); err != nil {
			log.Error().Err(err).Str("email", req.Email).Msg("failed to send password reset mail")
		}
	}()
	return nil
}

// ConfirmPasswordReset consumes a reset token and replaces the password.
func (s *authService) ConfirmPasswordReset(req PasswordResetConfirm) error {
	prt, err := s.authRepo.FindPasswordResetToken(req.Token)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to look up reset token: %w", err)
	}
	if prt.UsedAt != nil || time.Now().After(prt.ExpiresAt) {
		return ErrResetTokenInvalid
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to start database transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.authRepo.MarkPasswordResetTokenUsed(tx, prt.ID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Lost the race with a concurrent confirm.
			return ErrResetTokenInvalid
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}
	if err := s.authRepo.UpdatePassword(tx, prt.UserID, string(hashedPasswordBytes)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit password reset: %w", err)
	}
	return nil
}

// resolveRole looks up the staff role for token claims. Accounts
// without a staff record get the least-privileged role.
func (s *authService) resolveRole(userID int64) string {
	staff, err := s.staffRepo.GetStaffMemberByUserID(userID)
	if err != nil {
		return models.StaffRoleSupervisor
	}
	return staff.Role
}

func (s *authService) issueTokens(user *models.User, role string) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Username, role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}
	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenGeneration, err)
	}

	user.PasswordHash = ""
	return &AuthResponse{
		User:         user,
		Role:         role,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
