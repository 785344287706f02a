package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/pitchlab-hq/pitch_api/model"
	"github.com/pitchlab-hq/pitch_api/shared"
)

// RequestCounter is the slice of the Redis service the limiter needs.
type RequestCounter interface {
	Increment(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, expiration time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Limiter enforces fixed-window request budgets per endpoint class, keyed by
// the authenticated user when present and the client IP otherwise. Counters
// live in Redis so the budget holds across instances.
type Limiter struct {
	counter RequestCounter
	configs map[string]*model.RateLimitConfig
}

func NewLimiter(counter RequestCounter) *Limiter {
	return &Limiter{
		counter: counter,
		configs: map[string]*model.RateLimitConfig{
			// Activity submissions award XP; a tight budget keeps scripted
			// grinding from flooding the progress tables.
			"activity": {
				EndpointType: "activity",
				MaxRequests:  60,
				WindowSize:   time.Minute,
				BlockTime:    time.Minute * 10,
				Description:  "Activity submission rate limit",
			},

			"api_general": {
				EndpointType: "api_general",
				MaxRequests:  1000,
				WindowSize:   time.Hour,
				BlockTime:    time.Hour,
				Description:  "General API rate limit",
			},
		},
	}
}

// Limit returns a handler enforcing the named endpoint class. Unknown classes
// and Redis failures let the request through; the limiter protects capacity,
// it is not an auth boundary.
func (l *Limiter) Limit(endpointType string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		config, exists := l.configs[endpointType]
		if !exists {
			return c.Next()
		}

		identifier := clientIdentifier(c)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		blockKey := fmt.Sprintf("ratelimit:block:%s:%s", endpointType, identifier)
		if ttl, err := l.counter.TTL(ctx, blockKey); err == nil && ttl > 0 {
			c.Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests, "Rate limit exceeded", nil)
		}

		windowKey := fmt.Sprintf("ratelimit:%s:%s", endpointType, identifier)
		count, err := l.counter.Increment(ctx, windowKey)
		if err != nil {
			log.WithError(err).WithField("endpoint_type", endpointType).Warn("Rate limit check failed")
			return c.Next()
		}
		if count == 1 {
			if err := l.counter.Expire(ctx, windowKey, config.WindowSize); err != nil {
				log.WithError(err).Warn("Failed to expire rate limit window")
			}
		}

		if count > int64(config.MaxRequests) {
			if _, err := l.counter.Increment(ctx, blockKey); err == nil {
				_ = l.counter.Expire(ctx, blockKey, config.BlockTime)
			}
			c.Set("Retry-After", strconv.Itoa(int(config.BlockTime.Seconds())))
			return shared.ResponseJSON(c, fiber.StatusTooManyRequests, "Rate limit exceeded", nil)
		}

		remaining := config.MaxRequests - int(count)
		if remaining < 0 {
			remaining = 0
		}
		c.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))

		return c.Next()
	}
}

func clientIdentifier(c *fiber.Ctx) string {
	if userID, ok := c.Locals(shared.UserID).(string); ok && userID != "" {
		return userID
	}
	return c.IP()
}
