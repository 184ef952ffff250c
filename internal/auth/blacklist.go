package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "ticketflow:token:blacklist:"

// TokenBlacklist records revoked refresh tokens until their natural expiry.
type TokenBlacklist struct {
	client *redis.Client
}

// NewTokenBlacklist builds a Redis-backed blacklist.
func NewTokenBlacklist(client *redis.Client) *TokenBlacklist {
	return &TokenBlacklist{client: client}
}

// Revoke marks a token ID as unusable. The entry expires when the token
// itself would have, so the set never grows unbounded.
func (b *TokenBlacklist) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	return b.client.Set(ctx, blacklistKeyPrefix+tokenID, "revoked", ttl).Err()
}

// IsRevoked reports whether a token ID has been blacklisted.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := b.client.Exists(ctx, blacklistKeyPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
