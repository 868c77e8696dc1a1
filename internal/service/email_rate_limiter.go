package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// EmailRateLimiter limita cuantos reportes se envian por destinatario dentro de una ventana.
type EmailRateLimiter interface {
	Allow(ctx context.Context, recipient string) bool
}

const redisEmailAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisEmailRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisEmailRateLimiter(client *redis.Client, window time.Duration, max int) EmailRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Hour
	}
	if max <= 0 {
		max = 1
	}
	return &redisEmailRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "report:email:rl:",
	}
}

// Allow falla abierto: si Redis no responde, el envio sigue.
func (l *redisEmailRateLimiter) Allow(ctx context.Context, recipient string) bool {
	if l == nil || l.client == nil {
		return true
	}
	key := normalizeRecipient(recipient)
	if key == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, redisEmailAllowScript, []string{l.prefix + key}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}

// memoryEmailRateLimiter es la variante de un solo proceso, ventana fija por destinatario.
type memoryEmailRateLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	max     int
	now     func() time.Time
	entries map[string]*windowCount
}

type windowCount struct {
	start time.Time
	count int
}

func NewMemoryEmailRateLimiter(window time.Duration, max int) EmailRateLimiter {
	if window <= 0 {
		window = time.Hour
	}
	if max <= 0 {
		max = 1
	}
	return &memoryEmailRateLimiter{window: window, max: max, now: time.Now, entries: make(map[string]*windowCount)}
}

func (l *memoryEmailRateLimiter) Allow(_ context.Context, recipient string) bool {
	key := normalizeRecipient(recipient)
	if key == "" {
		return false
	}
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.start) >= l.window {
		l.entries[key] = &windowCount{start: now, count: 1}
		return true
	}
	e.count++
	return e.count <= l.max
}

func normalizeRecipient(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
