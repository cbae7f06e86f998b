package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// DefaultTTL is how long each verification key lives after its last write.
const DefaultTTL = 24 * time.Hour

// Store is a string key/value store with per-key expiry.
type Store interface {
	// Get returns found=false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// VerificationCache is a typed view over Store for the email verification
// state of each user. The three keys of a user expire independently.
type VerificationCache struct {
	store Store
	ttl   time.Duration
}

// NewVerificationCache creates a cache whose writes expire after ttl.
// A non-positive ttl selects DefaultTTL.
func NewVerificationCache(store Store, ttl time.Duration) *VerificationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &VerificationCache{store: store, ttl: ttl}
}

func isVerifiedKey(id string) string  { return "verification:" + id + ":isVerified" }
func requestedAtKey(id string) string { return "verification:" + id + ":requestedAt" }
func codeKey(id string) string        { return "verification:" + id + ":code" }

// IsVerified returns the cached verification flag. Values other than
// "true" and "false" count as absent.
func (c *VerificationCache) IsVerified(ctx context.Context, id string) (verified, found bool, err error) {
	v, found, err := c.store.Get(ctx, isVerifiedKey(id))
	if err != nil || !found {
		return false, false, err
	}
	switch v {
	case "true":
		return true, true, nil
	case "false":
		return false, true, nil
	default:
		return false, false, nil
	}
}

// SetVerified caches the verification flag.
func (c *VerificationCache) SetVerified(ctx context.Context, id string, verified bool) error {
	if err := c.store.Set(ctx, isVerifiedKey(id), strconv.FormatBool(verified), c.ttl); err != nil {
		return fmt.Errorf("cache set verified: %w", err)
	}
	return nil
}

// RequestedAt returns when a code was last issued for id. Unparseable
// values count as absent.
func (c *VerificationCache) RequestedAt(ctx context.Context, id string) (time.Time, bool, error) {
	v, found, err := c.store.Get(ctx, requestedAtKey(id))
	if err != nil || !found {
		return time.Time{}, false, err
	}
	ms, perr := strconv.ParseInt(v, 10, 64)
	if perr != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(ms), true, nil
}

// SetRequestedAt records t with millisecond precision.
func (c *VerificationCache) SetRequestedAt(ctx context.Context, id string, t time.Time) error {
	if err := c.store.Set(ctx, requestedAtKey(id), strconv.FormatInt(t.UnixMilli(), 10), c.ttl); err != nil {
		return fmt.Errorf("cache set requested at: %w", err)
	}
	return nil
}

// Code returns the outstanding verification code for id.
func (c *VerificationCache) Code(ctx context.Context, id string) (string, bool, error) {
	v, found, err := c.store.Get(ctx, codeKey(id))
	if err != nil || !found {
		return "", false, err
	}
	return v, true, nil
}

// SetCode stores code as the outstanding code for id.
func (c *VerificationCache) SetCode(ctx context.Context, id, code string) error {
	if err := c.store.Set(ctx, codeKey(id), code, c.ttl); err != nil {
		return fmt.Errorf("cache set code: %w", err)
	}
	return nil
}

// DeleteCode removes the outstanding code for id.
func (c *VerificationCache) DeleteCode(ctx context.Context, id string) error {
	if err := c.store.Del(ctx, codeKey(id)); err != nil {
		return fmt.Errorf("cache delete code: %w", err)
	}
	return nil
}
