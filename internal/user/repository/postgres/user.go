package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/crowrepuestos/storefront/internal/user/domain"
	"github.com/crowrepuestos/storefront/pkg/database"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

const userColumns = "id, email, password_hash, first_name, last_name, phone, role, is_active, created_at, updated_at"

// UserRepository stores accounts in Postgres.
type UserRepository struct {
	db database.DBTX
}

func NewUserRepository(db database.DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.Exec(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
		u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt,
	)
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("user", "email", u.Email)
	case err != nil:
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.getBy(ctx, "id", id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getBy(ctx, "email", email)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + column + ` = $1`

	var u domain.User
	err := r.db.QueryRow(ctx, query, value).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.Phone, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

// Update rewrites every mutable column and stamps updated_at.
func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	u.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE users
		SET email = $1, password_hash = $2, first_name = $3, last_name = $4, phone = $5,
		    role = $6, is_active = $7, updated_at = $8
		WHERE id = $9`

	ct, err := r.db.Exec(ctx, query,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
		u.Role, u.IsActive, u.UpdatedAt, u.ID,
	)
	switch {
	case isUniqueViolation(err):
		return apperrors.AlreadyExists("user", "email", u.Email)
	case err != nil:
		return fmt.Errorf("update user: %w", err)
	case ct.RowsAffected() == 0:
		return apperrors.NotFound("user", u.ID)
	}
	return nil
}

// RefreshTokenRepository stores refresh token digests in Postgres.
// Revocation is a soft delete via revoked_at, keeping the row around as
// evidence of rotation so reuse can be detected.
type RefreshTokenRepository struct {
	db database.DBTX
}

func NewRefreshTokenRepository(db database.DBTX) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, userID, tokenHash, expiresAt, time.Now().UTC()); err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, created_at, revoked_at
		FROM refresh_tokens
		WHERE token_hash = $1`

	var rt domain.RefreshToken
	err := r.db.QueryRow(ctx, query, tokenHash).Scan(
		&rt.ID, &rt.UserID, &rt.TokenHash, &rt.ExpiresAt, &rt.CreatedAt, &rt.RevokedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan refresh token: %w", err)
	}
	return &rt, nil
}

func (r *RefreshTokenRepository) Revoke(ctx context.Context, tokenHash string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE token_hash = $2 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, time.Now().UTC(), tokenHash); err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeByUserID(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = $1 WHERE user_id = $2 AND revoked_at IS NULL`

	if _, err := r.db.Exec(ctx, query, time.Now().UTC(), userID); err != nil {
		return fmt.Errorf("revoke refresh tokens by user: %w", err)
	}
	return nil
}

// isUniqueViolation reports a Postgres unique constraint error, SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
