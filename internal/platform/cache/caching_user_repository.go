// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"user_admin/internal/feature/users/domain/entity"
	"user_admin/internal/feature/users/usecase"
)

// CachingUserRepository decorates a UserRepository with Redis caching.
// Only profile reads (FindByID, List) are cached. Credential lookups and
// uniqueness checks always hit the store.
type CachingUserRepository struct {
	inner     usecase.UserRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.UserRepository = (*CachingUserRepository)(nil)

// NewCachingUserRepository decorates a UserRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "users".
// A nil rdb disables caching.
func NewCachingUserRepository(rdb *redis.Client, ttl time.Duration, inner usecase.UserRepository, namespace string) *CachingUserRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "users"
	}
	return &CachingUserRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// Create persists the user and invalidates cached reads.
func (c *CachingUserRepository) Create(ctx context.Context, user *entity.User) error {
	if err := c.inner.Create(ctx, user); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

// FindByID retrieves a user, checking cache first then falling back to the database.
func (c *CachingUserRepository) FindByID(ctx context.Context, id uint) (*entity.User, error) {
	if c.rdb == nil {
		return c.inner.FindByID(ctx, id)
	}

	key := c.userKey(id)
	var cached entity.User
	if c.get(ctx, key, &cached) {
		return &cached, nil
	}

	user, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, user)
	return user, nil
}

// FindByEmailWithAuth is never cached; it carries the password hash.
func (c *CachingUserRepository) FindByEmailWithAuth(ctx context.Context, email string) (*entity.User, error) {
	return c.inner.FindByEmailWithAuth(ctx, email)
}

// List retrieves all users, checking cache first then falling back to the database.
func (c *CachingUserRepository) List(ctx context.Context) ([]entity.User, error) {
	if c.rdb == nil {
		return c.inner.List(ctx)
	}

	key := c.listKey()
	var cached []entity.User
	if c.get(ctx, key, &cached) && cached != nil {
		return cached, nil
	}

	users, err := c.inner.List(ctx)
	if err != nil {
		return nil, err
	}
	c.set(ctx, key, users)
	return users, nil
}

// Update applies the changes and invalidates cached reads.
func (c *CachingUserRepository) Update(ctx context.Context, id uint, changes usecase.UserChanges) (*entity.User, error) {
	user, err := c.inner.Update(ctx, id, changes)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, id)
	return user, nil
}

// Delete removes the user and invalidates cached reads.
func (c *CachingUserRepository) Delete(ctx context.Context, id uint) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx, id)
	return nil
}

// EmailExists is never cached; the store is the source of truth for uniqueness.
func (c *CachingUserRepository) EmailExists(ctx context.Context, email string, excludeUserID *uint) (bool, error) {
	return c.inner.EmailExists(ctx, email, excludeUserID)
}

// UpdateLastLogin only touches UserAuth, which is not cached.
func (c *CachingUserRepository) UpdateLastLogin(ctx context.Context, id uint, at time.Time) error {
	return c.inner.UpdateLastLogin(ctx, id, at)
}

// get decodes a cached value. Corrupted entries are deleted and reported as a miss.
func (c *CachingUserRepository) get(ctx context.Context, key string, dst any) bool {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil || len(b) == 0 {
		return false
	}
	if err := json.Unmarshal(b, dst); err != nil {
		_ = c.rdb.Del(ctx, key).Err()
		return false
	}
	return true
}

// set stores a value (best effort).
func (c *CachingUserRepository) set(ctx context.Context, key string, v any) {
	if b, err := json.Marshal(v); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
}

// invalidate drops every cached read in the namespace.
// SCANが失敗した場合は、変更したユーザーと一覧のキーだけを直接削除します。
func (c *CachingUserRepository) invalidate(ctx context.Context, ids ...uint) {
	if c.rdb == nil {
		return
	}
	err := c.deleteByPattern(ctx, c.namespace+":*")
	if err == nil {
		return
	}
	slog.Warn("cache invalidation by pattern failed", "namespace", c.namespace, "error", err)

	keys := []string{c.listKey()}
	for _, id := range ids {
		keys = append(keys, c.userKey(id))
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Error("cache invalidation failed", "keys", keys, "error", err)
	}
}

func (c *CachingUserRepository) userKey(id uint) string {
	return fmt.Sprintf("%s:id:%d", c.namespace, id)
}

func (c *CachingUserRepository) listKey() string {
	return c.namespace + ":list"
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingUserRepository) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}
