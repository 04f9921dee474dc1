package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "auth:revoked:"

// Revocations remembers signed-out token IDs until the tokens would have expired.
type Revocations struct {
	client *redis.Client
}

// NewRevocations creates a Redis-backed revocation list.
func NewRevocations(client *redis.Client) *Revocations {
	return &Revocations{client: client}
}

// Revoke marks tokenID unusable until expiresAt.
func (r *Revocations) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 || tokenID == "" {
		return nil
	}
	return r.client.Set(ctx, revokedPrefix+tokenID, 1, ttl).Err()
}

// IsRevoked reports whether tokenID was signed out.
func (r *Revocations) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := r.client.Exists(ctx, revokedPrefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
