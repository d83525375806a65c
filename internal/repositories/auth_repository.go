package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Lusimba/kichaka/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AuthRepository defines the interface for authentication-related database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	UpdatePassword(executor SQLExecutor, userID int64, hashedPassword string) error

	RevokeRefreshToken(executor SQLExecutor, userID int64, token string) error
	IsRefreshTokenRevoked(token string) (bool, error)

	CreatePasswordResetToken(executor SQLExecutor, userID int64, token string, expiresAt time.Time) error
	FindPasswordResetToken(token string) (*models.PasswordResetToken, error)
	MarkPasswordResetTokenUsed(executor SQLExecutor, tokenID int64) error
}

// authRepository implements the AuthRepository interface.
type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user into the database.
// It expects an SQLExecutor which can be a *sql.DB or *sql.Tx.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	currentTime := time.Now()
	isActive := true // New accounts start active

	var userID int64
	err := executor.QueryRow(
		query,
		user.Username,
		hashedPassword,
		user.Email,    // Can be nil
		user.FullName, // Can be nil
		isActive,
		currentTime,
		currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	query := `SELECT id, username, password_hash, email, full_name, is_active, created_at, updated_at
	          FROM users
	          WHERE username = $1`

	err := r.db.QueryRow(query, username).Scan(
		&user.ID, &user.Username, &hashedPassword, &user.Email, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: finding user by username %s: %v", ErrDatabaseError, username, err)
	}

	return user, hashedPassword, nil
}

// FindUserByID retrieves a user by their ID.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, full_name, is_active, created_at, updated_at
	          FROM users
	          WHERE id = $1`

	err := r.db.QueryRow(query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by ID %d: %v", ErrDatabaseError, userID, err)
	}

	return user, nil
}

// FindUserByEmail retrieves a user by their email address.
func (r *authRepository) FindUserByEmail(email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, username, email, full_name, is_active, created_at, updated_at
	          FROM users
	          WHERE email = $1`

	err := r.db.QueryRow(query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.FullName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding user by email: %v", ErrDatabaseError, err)
	}

	return user, nil
}

// UpdatePassword replaces a user's password hash.
func (r *authRepository) UpdatePassword(executor SQLExecutor, userID int64, hashedPassword string) error {
	query := `UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`
	result, err := executor.Exec(query, hashedPassword, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: updating password for user %d: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RevokeRefreshToken records a refresh token as no longer acceptable.
func (r *authRepository) RevokeRefreshToken(executor SQLExecutor, userID int64, token string) error {
	query := `INSERT INTO revoked_tokens (token, user_id, revoked_at)
	          VALUES ($1, $2, $3)
	          ON CONFLICT (token) DO NOTHING`
	_, err := executor.Exec(query, token, userID, time.Now())
	if err != nil {
		return fmt.Errorf("%w: revoking refresh token: %v", ErrDatabaseError, err)
	}
	return nil
}

// IsRefreshTokenRevoked reports whether a refresh token has been revoked.
func (r *authRepository) IsRefreshTokenRevoked(token string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE token = $1)`
	if err := r.db.QueryRow(query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking revoked token: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

// CreatePasswordResetToken stores a single-use reset token.
func (r *authRepository) CreatePasswordResetToken(executor SQLExecutor, userID int64, token string, expiresAt time.Time) error {
	query := `INSERT INTO password_reset_tokens (user_id, token, expires_at, created_at)
	          VALUES ($1, $2, $3, $4)`
	_, err := executor.Exec(query, userID, token, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("%w: creating password reset token: %v", ErrDatabaseError, err)
	}
	return nil
}

// FindPasswordResetToken retrieves a reset token by its value.
func (r *authRepository) FindPasswordResetToken(token string) (*models.PasswordResetToken, error) {
	prt := &models.PasswordResetToken{}
	query := `SELECT id, user_id, token, expires_at, used_at, created_at
	          FROM password_reset_tokens
	          WHERE token = $1`
	var usedAt sql.NullTime
	err := r.db.QueryRow(query, token).Scan(&prt.ID, &prt.UserID, &prt.Token, &prt.ExpiresAt, &usedAt, &prt.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: finding password reset token: %v", ErrDatabaseError, err)
	}
	if usedAt.Valid {
		prt.UsedAt = &usedAt.Time
	}
	return prt, nil
}

// MarkPasswordResetTokenUsed consumes a reset token.
func (r *authRepository) MarkPasswordResetTokenUsed(executor SQLExecutor, tokenID int64) error {
	query := `UPDATE password_reset_tokens SET used_at = $1 WHERE id = $2 AND used_at IS NULL`
	result, err := executor.Exec(query, time.Now(), tokenID)
	if err != nil {
		return fmt.Errorf("%w: marking password reset token used: %v", ErrDatabaseError, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
