package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crowrepuestos/storefront/internal/user/domain"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

func newUserTestFixture(t *testing.T) (*UserRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewUserRepository(mock)
	return repo, mock
}

func newTokenTestFixture(t *testing.T) (*RefreshTokenRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewRefreshTokenRepository(mock)
	return repo, mock
}

func userColumnNames() []string {
	return []string{
		"id", "email", "password_hash", "first_name", "last_name",
		"phone", "role", "is_active", "created_at", "updated_at",
	}
}

func sampleUser() *domain.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.User{
		ID:           "user-1",
		Email:        "carlos@example.com",
		PasswordHash: "$2a$12$hash",
		FirstName:    "Carlos",
		LastName:     "Mendoza",
		Phone:        "+57 310 555 0101",
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

func TestUserRepository_Create_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectExec("INSERT INTO users").
		WithArgs(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt).
		WillReturnError(errors.New(`duplicate key value violates unique constraint "users_email_key" (SQLSTATE 23505)`))

	err := repo.Create(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	rows := pgxmock.NewRows(userColumnNames()).
		AddRow(u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName,
			u.Phone, u.Role, u.IsActive, u.CreatedAt, u.UpdatedAt)
	mock.ExpectQuery("SELECT id, email, password_hash").
		WithArgs(u.Email).
		WillReturnRows(rows)

	got, err := repo.GetByEmail(context.Background(), u.Email)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.PasswordHash, got.PasswordHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, email, password_hash").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows(userColumnNames()))

	got, err := repo.GetByID(context.Background(), "missing")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_Success(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectExec("UPDATE users").
		WithArgs(u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
			u.Role, u.IsActive, pgxmock.AnyArg(), u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Update(context.Background(), u)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update_NotFound(t *testing.T) {
	repo, mock := newUserTestFixture(t)
	defer mock.Close()

	u := sampleUser()
	mock.ExpectExec("UPDATE users").
		WithArgs(u.Email, u.PasswordHash, u.FirstName, u.LastName, u.Phone,
			u.Role, u.IsActive, pgxmock.AnyArg(), u.ID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), u)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Refresh tokens
// ---------------------------------------------------------------------------

func TestRefreshTokenRepository_Create_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	expiresAt := time.Now().UTC().Add(7 * 24 * time.Hour)
	mock.ExpectExec("INSERT INTO refresh_tokens").
		WithArgs("user-1", "hash-abc", expiresAt, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), "user-1", "hash-abc", expiresAt)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByHash_Success(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	now := time.Now().UTC().Truncate(time.Microsecond)
	rows := pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at"}).
		AddRow("tok-1", "user-1", "hash-abc", now.Add(7*24*time.Hour), now, nil)
	mock.ExpectQuery("SELECT id, user_id, token_hash").
		WithArgs("hash-abc").
		WillReturnRows(rows)

	rt, err := repo.GetByHash(context.Background(), "hash-abc")
	require.NoError(t, err)
	assert.Equal(t, "user-1", rt.UserID)
	assert.Nil(t, rt.RevokedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByHash_NotFound(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, user_id, token_hash").
		WithArgs("missing-hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at", "revoked_at"}))

	rt, err := repo.GetByHash(context.Background(), "missing-hash")
	assert.Nil(t, rt)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Revoke(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(pgxmock.AnyArg(), "hash-abc").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.Revoke(context.Background(), "hash-abc")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_RevokeByUserID(t *testing.T) {
	repo, mock := newTokenTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("UPDATE refresh_tokens SET revoked_at").
		WithArgs(pgxmock.AnyArg(), "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	err := repo.RevokeByUserID(context.Background(), "user-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
