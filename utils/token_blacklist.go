package utils

import (
	"context"
	"sync"
	"time"
)

// Logout revokes a bearer token before its natural expiry. Revocations live
// in Redis keyed until the token would have expired anyway; the in-memory
// map covers single-instance deployments without Redis.

const revokedTokenPrefix = "jwt:blacklist:"

var (
	revoked   = map[string]time.Time{}
	revokedMu sync.RWMutex
)

// BlacklistToken marks a token revoked until expiresAt.
func BlacklistToken(token string, expiresAt time.Time) {
	if rc := GetRedis(); rc != nil {
		ttl := time.Until(expiresAt)
		if ttl <= 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, revokedTokenPrefix+token, "1", ttl).Err()
		return
	}
	revokedMu.Lock()
	revoked[token] = expiresAt
	revokedMu.Unlock()
}

// IsTokenBlacklisted reports whether a token was revoked. A Redis error
// fails open rather than locking every signed-in user out.
func IsTokenBlacklisted(token string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := rc.Exists(ctx, revokedTokenPrefix+token).Result()
		return err == nil && n > 0
	}

	revokedMu.RLock()
	expiresAt, ok := revoked[token]
	revokedMu.RUnlock()
	if !ok {
		return false
	}
	if time.Now().After(expiresAt) {
		revokedMu.Lock()
		delete(revoked, token)
		revokedMu.Unlock()
		return false
	}
	return true
}
