package auth

import (
	"context"
	"errors"
	"fmt"

	"DevHabit/internal/cache"
	"DevHabit/internal/logger"

	"golang.org/x/sync/singleflight"
)

var ErrNoIdentity = errors.New("request has no authenticated identity")

// UserLookup resolves an identity id to the internal user id.
type UserLookup interface {
	UserIDByIdentity(ctx context.Context, identityID string) (string, error)
}

// UserContext maps the token subject to a user id through a sliding cache.
// Concurrent misses for the same identity share one lookup.
type UserContext struct {
	lookup UserLookup
	local  *cache.Sliding[string]
	remote *cache.RedisTier
	group  singleflight.Group
}

// NewUserContext builds the resolver; remote may be nil.
func NewUserContext(lookup UserLookup, local *cache.Sliding[string], remote *cache.RedisTier) *UserContext {
	return &UserContext{lookup: lookup, local: local, remote: remote}
}

// UserID returns the user id of the authenticated caller.
func (u *UserContext) UserID(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.Subject() == "" {
		return "", ErrNoIdentity
	}
	return u.Resolve(ctx, claims.Subject())
}

func (u *UserContext) Resolve(ctx context.Context, identityID string) (string, error) {
	if id, ok := u.local.Get(identityID); ok {
		return id, nil
	}
	v, err, _ := u.group.Do(identityID, func() (any, error) {
		if u.remote != nil {
			id, ok, err := u.remote.Get(ctx, identityID)
			if err != nil {
				logger.Warn("user_cache_redis_get_failed", map[string]any{"error": err})
			} else if ok {
				u.local.Set(identityID, id)
				return id, nil
			}
		}

		id, err := u.lookup.UserIDByIdentity(ctx, identityID)
		if err != nil {
			return "", fmt.Errorf("resolve user for identity: %w", err)
		}
		u.local.Set(identityID, id)
		if u.remote != nil {
			if err := u.remote.Set(ctx, identityID, id); err != nil {
				logger.Warn("user_cache_redis_set_failed", map[string]any{"error": err})
			}
		}
		return id, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}
