package ratelimit

import (
	"math"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	appErrors "github.com/noah-isme/event-idea-marketplace/pkg/errors"
	"github.com/noah-isme/event-idea-marketplace/pkg/response"
)

// Config describes the token bucket handed to each client.
type Config struct {
	RPS   float64
	Burst int
	// IdleTTL evicts limiters for clients that stopped calling.
	IdleTTL time.Duration
	// Exempt lists client IPs that bypass limiting.
	Exempt []string
}

// Limiter keeps one token bucket per client IP.
type Limiter struct {
	cfg      Config
	limiters *cache.Cache
	exempt   map[string]struct{}
}

// New builds a Limiter with sane defaults for zero values.
func New(cfg Config) *Limiter {
	if cfg.RPS <= 0 {
		cfg.RPS = 10
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(math.Ceil(cfg.RPS))
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	exempt := make(map[string]struct{}, len(cfg.Exempt))
	for _, ip := range cfg.Exempt {
		exempt[ip] = struct{}{}
	}
	return &Limiter{
		cfg:      cfg,
		limiters: cache.New(cfg.IdleTTL, cfg.IdleTTL*2),
		exempt:   exempt,
	}
}

// Allow consumes a token for key and reports whether the request may proceed.
func (l *Limiter) Allow(key string) bool {
	if _, ok := l.exempt[key]; ok {
		return true
	}
	return l.limiter(key).Allow()
}

func (l *Limiter) limiter(key string) *rate.Limiter {
	if v, found := l.limiters.Get(key); found {
		lim := v.(*rate.Limiter)
		// refresh the idle expiry
		l.limiters.Set(key, lim, cache.DefaultExpiration)
		return lim
	}
	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
	if err := l.limiters.Add(key, lim, cache.DefaultExpiration); err != nil {
		// lost the race to another request from the same client
		if v, found := l.limiters.Get(key); found {
			return v.(*rate.Limiter)
		}
	}
	return lim
}

// Middleware rejects requests over budget with 429 in the standard envelope.
func (l *Limiter) Middleware() gin.HandlerFunc {
	retryAfter := strconv.Itoa(int(math.Max(1, math.Ceil(1/l.cfg.RPS))))
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			c.Header("Retry-After", retryAfter)
			response.Abort(c, appErrors.ErrTooManyRequests)
			return
		}
		c.Next()
	}
}
