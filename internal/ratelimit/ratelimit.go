package ratelimit

import (
	"sync"
	"time"
)

const (
	DefaultMaxTokens  = 10
	DefaultRefillRate = 10 // токенов в секунду
)

type Config struct {
	MaxTokens  float64
	RefillRate float64 // tokens/sec
}

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// Registry - token bucket на ключ (провайдер, юзер - кому что надо).
// Бакеты создаются лениво полными и не удаляются: это чистый учёт, живёт весь процесс.
// Refill считается лениво от прошедшего времени, фоновых таймеров нет.
type Registry struct {
	mu         sync.Mutex
	buckets    map[string]*bucket
	maxTokens  float64
	refillRate float64

	now func() time.Time
}

func New(cfg Config) *Registry {
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	refill := cfg.RefillRate
	if refill <= 0 {
		refill = DefaultRefillRate
	}

	return &Registry{
		buckets:    make(map[string]*bucket),
		maxTokens:  maxTokens,
		refillRate: refill,
		now:        time.Now,
	}
}

// Allow - tryConsume: refill, потом списать токен если есть хотя бы один.
// Весь read-modify-write под одним локом.
func (r *Registry) Allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.refill(key)
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// Tokens - сколько токенов доступно сейчас (после refill), без списания.
func (r *Registry) Tokens(key string) float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.refill(key).tokens
}

// RetryAfter - через сколько появится следующий токен.
func (r *Registry) RetryAfter(key string) time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	b := r.refill(key)
	if b.tokens >= 1 {
		return 0
	}
	missing := 1 - b.tokens
	return time.Duration(missing / r.refillRate * float64(time.Second))
}

// Reset забывает все бакеты. Нужен в основном тестам.
func (r *Registry) Reset() {
	r.mu.Lock()
	r.buckets = make(map[string]*bucket)
	r.mu.Unlock()
}

// refill вызывается под r.mu
func (r *Registry) refill(key string) *bucket {
	now := r.now()

	b, ok := r.buckets[key]
	if !ok {
		b = &bucket{tokens: r.maxTokens, lastRefill: now}
		r.buckets[key] = b
		return b
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed > 0 {
		b.tokens += elapsed * r.refillRate
		if b.tokens > r.maxTokens {
			b.tokens = r.maxTokens
		}
	}
	b.lastRefill = now
	return b
}
