package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 本地表超过该数量时顺带清理过期项
const localGuardPruneThreshold = 1024

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// InFlightGuard 提交互斥。有 Redis 时基于 SET NX 跨副本生效，
// 否则退化为进程内按 key 互斥。
type InFlightGuard struct {
	client *redis.Client
	tokens sync.Map

	mu    sync.Mutex
	local map[string]time.Time
	now   func() time.Time
}

// NewInFlightGuard 创建互斥器；client 为空时只在本进程内生效
func NewInFlightGuard(client *redis.Client) *InFlightGuard {
	return &InFlightGuard{
		client: client,
		local:  make(map[string]time.Time),
		now:    time.Now,
	}
}

// Distributed 是否跨副本生效
func (g *InFlightGuard) Distributed() bool {
	return g != nil && g.client != nil
}

// Acquire 尝试占用 key，已被占用时返回 false
func (g *InFlightGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if g == nil {
		return true, nil
	}
	if g.client == nil {
		return g.acquireLocal(key, ttl), nil
	}
	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, buildKey(key), token, ttl).Result()
	if err != nil {
		return false, err
	}
	if ok {
		g.tokens.Store(key, token)
	}
	return ok, nil
}

// Release 释放本进程持有的 key，不会删除其他副本的占用
func (g *InFlightGuard) Release(ctx context.Context, key string) error {
	if g == nil {
		return nil
	}
	if g.client == nil {
		g.mu.Lock()
		delete(g.local, key)
		g.mu.Unlock()
		return nil
	}
	token, ok := g.tokens.LoadAndDelete(key)
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, g.client, []string{buildKey(key)}, token).Err()
}

// ttl <= 0 时占用只能由 Release 解除
func (g *InFlightGuard) acquireLocal(key string, ttl time.Duration) bool {
	now := g.now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiresAt, held := g.local[key]; held && (expiresAt.IsZero() || now.Before(expiresAt)) {
		return false
	}
	if len(g.local) >= localGuardPruneThreshold {
		for k, expiresAt := range g.local {
			if !expiresAt.IsZero() && !now.Before(expiresAt) {
				delete(g.local, k)
			}
		}
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = now.Add(ttl)
	}
	g.local[key] = expiresAt
	return true
}
