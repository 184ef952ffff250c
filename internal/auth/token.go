package auth

import (
	"errors"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oumaimagaidi/TicketFlow/internal/domain"
)

// TokenKind distinguishes short-lived access tokens from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

// TokenManager issues and validates JWT token pairs.
type TokenManager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, accessTTLMinutes, refreshTTLHours int) *TokenManager {
	if accessTTLMinutes <= 0 {
		accessTTLMinutes = 60
	}
	if refreshTTLHours <= 0 {
		refreshTTLHours = 24 * 7
	}
	return &TokenManager{
		secret:     []byte(secret),
		accessTTL:  time.Duration(accessTTLMinutes) * time.Minute,
		refreshTTL: time.Duration(refreshTTLHours) * time.Hour,
	}
}

// Claims describes the JWT payload. Role, email and username ride along so
// downstream consumers can authorize statelessly.
type Claims struct {
	Kind     TokenKind   `json:"kind"`
	Role     domain.Role `json:"role"`
	Email    string      `json:"email"`
	Username string      `json:"username"`
	jwt.RegisteredClaims
}

// IssuedToken bundles a signed token with its metadata.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// IssuePair signs an access and a refresh token for the user.
func (tm *TokenManager) IssuePair(user *domain.User) (access, refresh IssuedToken, err error) {
	access, err = tm.issue(user, TokenKindAccess, tm.accessTTL)
	if err != nil {
		return IssuedToken{}, IssuedToken{}, err
	}
	refresh, err = tm.issue(user, TokenKindRefresh, tm.refreshTTL)
	if err != nil {
		return IssuedToken{}, IssuedToken{}, err
	}
	return access, refresh, nil
}

// IssueAccess signs a fresh access token for the user.
func (tm *TokenManager) IssueAccess(user *domain.User) (IssuedToken, error) {
	return tm.issue(user, TokenKindAccess, tm.accessTTL)
}

func (tm *TokenManager) issue(user *domain.User, kind TokenKind, ttl time.Duration) (IssuedToken, error) {
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := &Claims{
		Kind:     kind,
		Role:     user.Role,
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: signed, ID: claims.ID, ExpiresAt: expiresAt}, nil
}

// ParseToken validates a token of the expected kind and returns its claims.
func (tm *TokenManager) ParseToken(tokenStr string, kind TokenKind) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Kind != kind {
		return nil, errors.New("unexpected token kind")
	}
	return claims, nil
}
