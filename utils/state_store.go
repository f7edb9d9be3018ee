package utils

import (
	"context"
	"sync"
	"time"
)

// OAuth state tokens guard the authorize/callback round trip against CSRF.
// Redis backs them when available so any instance can consume a state issued
// by another; the in-memory map is a single-instance fallback.

const oauthStatePrefix = "oauth:state:"

var (
	memStates   = map[string]time.Time{}
	memStatesMu sync.Mutex
)

// SaveState records a state token for one authorize round trip.
func SaveState(state string, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = rc.Set(ctx, oauthStatePrefix+state, "1", ttl).Err()
		return
	}
	memStatesMu.Lock()
	memStates[state] = time.Now().Add(ttl)
	memStatesMu.Unlock()
}

// ConsumeState validates a state token and removes it so it cannot be
// replayed.
func ConsumeState(state string) bool {
	if rc := GetRedis(); rc != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		key := oauthStatePrefix + state
		if v, err := rc.GetDel(ctx, key).Result(); err == nil {
			return v != ""
		}
		// Older servers without GETDEL: atomic get+del in Lua.
		script := `local v=redis.call('GET', KEYS[1]); if v then redis.call('DEL', KEYS[1]); end; return v`
		if res, err := rc.Eval(ctx, script, []string{key}).Result(); err == nil {
			return res != nil
		}
		return false
	}

	memStatesMu.Lock()
	expiresAt, ok := memStates[state]
	if ok {
		delete(memStates, state)
	}
	memStatesMu.Unlock()
	return ok && time.Now().Before(expiresAt)
}
