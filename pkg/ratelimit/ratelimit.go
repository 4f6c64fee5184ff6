// Package ratelimit 按key（用户ID或客户端IP）独立限流的令牌桶
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedRateLimiter 每个key一个rate.Limiter
// 超过idleTTL未访问的key会被后台清理，避免key无限增长
type KeyedRateLimiter struct {
	mu       sync.RWMutex
	limiters map[string]*entry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time

	done     chan struct{}
	stopOnce sync.Once
}

// New 创建限流器
// rps: 每秒令牌数; burst: 桶容量
func New(rps float64, burst int) *KeyedRateLimiter {
	return NewWithIdleTTL(rps, burst, 10*time.Minute)
}

// NewWithIdleTTL 指定空闲key的清理时间
func NewWithIdleTTL(rps float64, burst int, idleTTL time.Duration) *KeyedRateLimiter {
	krl := &KeyedRateLimiter{
		limiters: make(map[string]*entry),
		limit:    rate.Limit(rps),
		burst:    burst,
		idleTTL:  idleTTL,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	if idleTTL > 0 {
		go krl.cleanupLoop(idleTTL / 2)
	}
	return krl
}

// Allow 非阻塞判断是否放行（入站请求使用）
func (krl *KeyedRateLimiter) Allow(key string) bool {
	return krl.getLimiter(key).Allow()
}

// Wait 阻塞直到放行或ctx取消
func (krl *KeyedRateLimiter) Wait(ctx context.Context, key string) error {
	return krl.getLimiter(key).Wait(ctx)
}

// Len 当前跟踪的key数量
func (krl *KeyedRateLimiter) Len() int {
	krl.mu.RLock()
	defer krl.mu.RUnlock()
	return len(krl.limiters)
}

func (krl *KeyedRateLimiter) getLimiter(key string) *rate.Limiter {
	now := krl.now()

	// 快路径：lastSeen只在写锁下更新，一秒内重复访问不需要写锁
	krl.mu.RLock()
	e, ok := krl.limiters[key]
	fresh := ok && now.Sub(e.lastSeen) < time.Second
	krl.mu.RUnlock()
	if fresh {
		return e.limiter
	}

	krl.mu.Lock()
	defer krl.mu.Unlock()

	if e, ok = krl.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}

	e = &entry{limiter: rate.NewLimiter(krl.limit, krl.burst), lastSeen: now}
	krl.limiters[key] = e
	return e.limiter
}

// evictIdle 清理超过idleTTL未访问的key
func (krl *KeyedRateLimiter) evictIdle() int {
	now := krl.now()

	krl.mu.Lock()
	defer krl.mu.Unlock()

	removed := 0
	for k, e := range krl.limiters {
		if now.Sub(e.lastSeen) > krl.idleTTL {
			delete(krl.limiters, k)
			removed++
		}
	}
	return removed
}

func (krl *KeyedRateLimiter) cleanupLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-krl.done:
			return
		case <-ticker.C:
			krl.evictIdle()
		}
	}
}

// Stop 停止后台清理
func (krl *KeyedRateLimiter) Stop() {
	krl.stopOnce.Do(func() {
		close(krl.done)
	})
}
