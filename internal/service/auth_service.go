package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/oumaimagaidi/TicketFlow/internal/auth"
	"github.com/oumaimagaidi/TicketFlow/internal/config"
	"github.com/oumaimagaidi/TicketFlow/internal/domain"
	"github.com/oumaimagaidi/TicketFlow/internal/repository"
	apperrors "github.com/oumaimagaidi/TicketFlow/pkg/util"
)

// credentialsMessage is returned for every login failure so a caller cannot
// probe which emails have accounts.
const credentialsMessage = "no active account found with the given credentials"

// TokenRevoker is the slice of the token blacklist the auth service
// depends on.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthService coordinates registration, login and token lifecycle.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	blacklist  TokenRevoker
	logger     *zap.Logger
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository, blacklist TokenRevoker, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes, cfg.Auth.RefreshTokenTTLHours),
		blacklist:  blacklist,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterInput describes the registration payload.
type RegisterInput struct {
	Email           string
	Username        string
	Password        string
	PasswordConfirm string
	Role            domain.Role
}

// Register creates a new identity. Role defaults to "user" when absent.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	fieldErrors := map[string]any{}
	if strings.TrimSpace(input.Email) == "" {
		fieldErrors["email"] = "email is required"
	}
	if strings.TrimSpace(input.Username) == "" {
		fieldErrors["username"] = "username is required"
	}
	if input.Password != input.PasswordConfirm {
		fieldErrors["password"] = "passwords don't match"
	} else if msg := auth.CheckPasswordStrength(input.Password); msg != "" {
		fieldErrors["password"] = msg
	}
	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !domain.ValidRole(role) {
		fieldErrors["role"] = "invalid role"
	}
	if len(fieldErrors) > 0 {
		return nil, apperrors.NewValidationError("invalid registration data", fieldErrors)
	}

	if _, err := s.users.GetByEmail(ctx, input.Email); err == nil {
		return nil, apperrors.NewValidationError("invalid registration data", map[string]any{
			"email": "email already registered",
		})
	} else if err != pgx.ErrNoRows {
		return nil, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Email:        strings.TrimSpace(input.Email),
		Username:     strings.TrimSpace(input.Username),
		PasswordHash: hash,
		Role:         role,
		Active:       true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// The pre-check above races with the unique index under concurrent
		// registration; the constraint violation gets the same client error.
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewValidationError("invalid registration data", map[string]any{
				"email": "email already registered",
			})
		}
		return nil, apperrors.MapError(err)
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return user, nil
}

// Login authenticates by email and issues an access/refresh token pair.
// Missing account, wrong password and inactive account are indistinguishable
// to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, auth.IssuedToken, auth.IssuedToken, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, auth.IssuedToken{}, auth.IssuedToken{}, apperrors.NewAuthenticationError(credentialsMessage)
		}
		return nil, auth.IssuedToken{}, auth.IssuedToken{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, auth.IssuedToken{}, auth.IssuedToken{}, apperrors.NewAuthenticationError(credentialsMessage)
	}
	if !user.Active {
		return nil, auth.IssuedToken{}, auth.IssuedToken{}, apperrors.NewAuthenticationError(credentialsMessage)
	}

	access, refresh, err := s.tokenMgr.IssuePair(user)
	if err != nil {
		return nil, auth.IssuedToken{}, auth.IssuedToken{}, apperrors.MapError(err)
	}
	return user, access, refresh, nil
}

// Refresh exchanges a valid, non-revoked refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (auth.IssuedToken, error) {
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return auth.IssuedToken{}, apperrors.NewUnauthorized("invalid refresh token")
	}
	revoked, err := s.blacklist.IsRevoked(ctx, claims.ID)
	if err != nil {
		return auth.IssuedToken{}, apperrors.MapError(err)
	}
	if revoked {
		return auth.IssuedToken{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if err == pgx.ErrNoRows {
			return auth.IssuedToken{}, apperrors.NewUnauthorized("invalid refresh token")
		}
		return auth.IssuedToken{}, apperrors.MapError(err)
	}
	if !user.Active {
		return auth.IssuedToken{}, apperrors.NewUnauthorized("invalid refresh token")
	}

	access, err := s.tokenMgr.IssueAccess(user)
	if err != nil {
		return auth.IssuedToken{}, apperrors.MapError(err)
	}
	return access, nil
}

// Logout revokes the presented refresh token. A missing or unparseable
// token is a client error, not a server fault.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if strings.TrimSpace(refreshToken) == "" {
		return apperrors.NewValidationError("refresh token required", nil)
	}
	claims, err := s.tokenMgr.ParseToken(refreshToken, auth.TokenKindRefresh)
	if err != nil {
		return apperrors.NewValidationError("invalid refresh token", nil)
	}
	if err := s.blacklist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperrors.MapError(err)
	}
	s.logger.Info("refresh token revoked", zap.String("user_id", claims.Subject))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
