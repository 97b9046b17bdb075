package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/crowrepuestos/storefront/internal/user/auth"
	"github.com/crowrepuestos/storefront/internal/user/domain"
	"github.com/crowrepuestos/storefront/internal/user/event"
	"github.com/crowrepuestos/storefront/internal/user/repository"
	apperrors "github.com/crowrepuestos/storefront/pkg/errors"
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// UserService implements account and session logic: registration, login,
// refresh rotation, and profile management.
type UserService struct {
	users      repository.UserRepository
	sessions   repository.RefreshTokenRepository
	jwtManager *auth.JWTManager
	producer   *event.Producer
	logger     *slog.Logger
}

func NewUserService(
	users repository.UserRepository,
	sessions repository.RefreshTokenRepository,
	jwtManager *auth.JWTManager,
	producer *event.Producer,
	logger *slog.Logger,
) *UserService {
	return &UserService{
		users:      users,
		sessions:   sessions,
		jwtManager: jwtManager,
		producer:   producer,
		logger:     logger,
	}
}

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

func (in RegisterInput) validate() error {
	switch {
	case in.Email == "":
		return apperrors.InvalidInput("email is required")
	case in.FirstName == "":
		return apperrors.InvalidInput("first name is required")
	case in.LastName == "":
		return apperrors.InvalidInput("last name is required")
	}
	return checkPasswordStrength(in.Password)
}

// LoginInput holds the credentials for a login attempt.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput carries partial profile changes; nil fields stay as
// they are.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// Register creates an account and opens the first session.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*domain.User, *domain.TokenPair, error) {
	if err := input.validate(); err != nil {
		return nil, nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		PasswordHash: string(hash),
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Role:         domain.RoleCustomer,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("create user: %w", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "account created",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// Login checks the credentials and opens a session. Lookup and password
// failures collapse into the same message so the endpoint does not leak
// which emails exist.
func (s *UserService) Login(ctx context.Context, input LoginInput) (*domain.User, *domain.TokenPair, error) {
	if input.Email == "" {
		return nil, nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}
	if !user.IsActive {
		return nil, nil, apperrors.Unauthorized("account is deactivated")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		return nil, nil, apperrors.Unauthorized("invalid email or password")
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "login",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return user, tokens, nil
}

// RefreshToken rotates the pair: the presented refresh token is revoked
// and a fresh pair is issued. Presenting an already-rotated token is
// treated as theft and ends every session for that user.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	if refreshToken == "" {
		return nil, apperrors.InvalidInput("refresh token is required")
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired refresh token")
	}

	digest := tokenDigest(refreshToken)
	stored, err := s.sessions.GetByHash(ctx, digest)
	if err != nil {
		return nil, apperrors.Unauthorized("refresh token not found")
	}

	if stored.RevokedAt != nil {
		if err := s.sessions.RevokeByUserID(ctx, stored.UserID); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions after token reuse",
				slog.String("user_id", stored.UserID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.Unauthorized("refresh token has been revoked")
	}
	if time.Now().UTC().After(stored.ExpiresAt) {
		return nil, apperrors.Unauthorized("refresh token has expired")
	}

	if err := s.sessions.Revoke(ctx, digest); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke rotated refresh token",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user for token refresh: %w", err)
	}

	tokens, err := s.openSession(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("generate tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "session refreshed", slog.String("user_id", user.ID))
	return tokens, nil
}

// Logout revokes every refresh token for the user.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if userID == "" {
		return apperrors.InvalidInput("user id is required")
	}

	if err := s.sessions.RevokeByUserID(ctx, userID); err != nil {
		return fmt.Errorf("revoke refresh tokens: %w", err)
	}

	s.logger.InfoContext(ctx, "logout", slog.String("user_id", userID))
	return nil
}

// ChangePassword verifies the current password, stores the new hash, and
// ends every existing session.
func (s *UserService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := checkPasswordStrength(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	user.PasswordHash = string(hash)
	if err := s.users.Update(ctx, user); err != nil {
		return fmt.Errorf("update user password: %w", err)
	}

	if err := s.sessions.RevokeByUserID(ctx, user.ID); err != nil {
		s.logger.ErrorContext(ctx, "failed to revoke sessions after password change",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "password changed", slog.String("user_id", user.ID))
	return nil
}

// GetProfile returns the user by ID.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user profile: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of input to the profile.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for update: %w", err)
	}

	if input.FirstName != nil {
		if *input.FirstName == "" {
			return nil, apperrors.InvalidInput("first name must not be empty")
		}
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		if *input.LastName == "" {
			return nil, apperrors.InvalidInput("last name must not be empty")
		}
		user.LastName = *input.LastName
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	if err := s.producer.PublishUserUpdated(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user.updated event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "profile updated", slog.String("user_id", user.ID))
	return user, nil
}

// ValidateAccessToken checks an access token and returns the subject user
// ID and role. The HTTP auth middleware calls this per request.
func (s *UserService) ValidateAccessToken(token string) (string, string, error) {
	claims, err := s.jwtManager.ValidateAccessToken(token)
	if err != nil {
		return "", "", apperrors.Unauthorized("invalid or expired token")
	}
	return claims.UserID, claims.Role, nil
}

// openSession issues a token pair and stores the refresh token digest so
// the token can later be rotated or revoked.
func (s *UserService) openSession(ctx context.Context, user *domain.User) (*domain.TokenPair, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	claims, err := s.jwtManager.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("read refresh token expiry: %w", err)
	}

	if err := s.sessions.Create(ctx, user.ID, tokenDigest(refreshToken), claims.ExpiresAt.Time); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}

	return &domain.TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// tokenDigest is the SHA256 hex of the token; only digests are stored.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func checkPasswordStrength(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper || !lower || !digit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}
	return nil
}
