// Package ratelimit bounds request rates per user and action.
package ratelimit

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Config sets a fixed-window limit. Requests <= 0 disables limiting.
type Config struct {
	Requests int           `koanf:"requests" json:"requests"`
	Window   time.Duration `koanf:"window" json:"window"`
	MaxKeys  int           `koanf:"max_keys" json:"max_keys"`
}

func DefaultConfig() Config {
	return Config{Requests: 120, Window: time.Minute, MaxKeys: 10_000}
}

type window struct {
	start time.Time
	count int
}

// Limiter counts requests per key in fixed windows. Idle keys expire after
// one window and the key set is capped at MaxKeys, evicting the least
// recently used key first.
type Limiter struct {
	mu   sync.Mutex
	cfg  Config
	keys *expirable.LRU[string, *window]
	now  func() time.Time
}

// New returns nil when cfg disables limiting; a nil *Limiter allows all.
func New(cfg Config) *Limiter {
	if cfg.Requests <= 0 {
		return nil
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = DefaultConfig().MaxKeys
	}
	return &Limiter{
		cfg:  cfg,
		keys: expirable.NewLRU[string, *window](cfg.MaxKeys, nil, cfg.Window),
		now:  time.Now,
	}
}

// Allow records one request for user+action. When the window is full it
// returns false and the time until the window resets.
func (l *Limiter) Allow(user, action string) (bool, time.Duration) {
	if l == nil {
		return true, 0
	}
	key := user + "\x00" + action
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.keys.Get(key)
	if !ok || now.Sub(w.start) >= l.cfg.Window {
		w = &window{start: now}
	}
	if w.count >= l.cfg.Requests {
		return false, w.start.Add(l.cfg.Window).Sub(now)
	}
	w.count++
	l.keys.Add(key, w)
	return true, 0
}

// Len reports how many keys are currently tracked.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	return l.keys.Len()
}
