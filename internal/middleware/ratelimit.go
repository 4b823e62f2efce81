package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"socialconnect/internal/models"
	"socialconnect/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// Policy is a fixed-window budget for one user-facing action.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
	// FailClosed rejects the request with 503 when Redis errors instead of
	// letting it through uncounted.
	FailClosed bool
}

// Budgets for the rate-limited routes. Credential endpoints fail closed so a
// Redis outage cannot be used to brute-force logins.
var (
	SignupPolicy  = Policy{Name: "signup", Limit: 3, Window: 10 * time.Minute, FailClosed: true}
	LoginPolicy   = Policy{Name: "login", Limit: 10, Window: 5 * time.Minute, FailClosed: true}
	PostPolicy    = Policy{Name: "create_post", Limit: 10, Window: 5 * time.Minute}
	CommentPolicy = Policy{Name: "create_comment", Limit: 30, Window: time.Minute}
	StoryPolicy   = Policy{Name: "upload_story", Limit: 20, Window: time.Hour}
	FollowPolicy  = Policy{Name: "follow", Limit: 60, Window: time.Minute}
	SearchPolicy  = Policy{Name: "search", Limit: 30, Window: time.Minute}
)

func rateLimitingDisabled() bool {
	switch os.Getenv("APP_ENV") {
	case "", "test", "development":
		return true
	}
	return false
}

func rateLimitKey(policy, subject string) string {
	return fmt.Sprintf("rl:%s:%s", policy, subject)
}

// CheckRateLimit counts one request by subject against p and reports whether
// it is within budget. A nil client means limiting is not configured.
func CheckRateLimit(ctx context.Context, rdb *redis.Client, p Policy, subject string) (bool, error) {
	if rateLimitingDisabled() || rdb == nil {
		return true, nil
	}

	key := rateLimitKey(p.Name, subject)
	cnt, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if cnt == 1 {
		if err := rdb.Expire(ctx, key, p.Window).Err(); err != nil {
			return false, err
		}
	}
	return cnt <= int64(p.Limit), nil
}

// rateLimitSubject keys authenticated requests by identity so a user's budget
// follows them across addresses. Anonymous requests fall back to the IP.
func rateLimitSubject(c *fiber.Ctx) string {
	if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
		return fmt.Sprintf("user:%d", uid)
	}
	return "ip:" + c.IP()
}

// RateLimit enforces p on the route it wraps.
func RateLimit(rdb *redis.Client, p Policy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		allowed, err := CheckRateLimit(ctx, rdb, p, rateLimitSubject(c))
		if err != nil {
			observability.RedisErrorRate.WithLabelValues("rate_limit").Inc()
			if p.FailClosed {
				observability.RateLimitDecisions.WithLabelValues(p.Name, "unavailable").Inc()
				Logger.WarnContext(ctx, "Rate limit store unavailable, rejecting request",
					slog.String("policy", p.Name),
					slog.String("error", err.Error()),
				)
				return models.RespondWithError(c, fiber.StatusServiceUnavailable, models.NewStoreFailure(err))
			}
			Logger.WarnContext(ctx, "Rate limit store unavailable, allowing request",
				slog.String("policy", p.Name),
				slog.String("error", err.Error()),
			)
			return c.Next()
		}

		if !allowed {
			observability.RateLimitDecisions.WithLabelValues(p.Name, "rejected").Inc()
			return models.Respond(c, models.NewRateLimitedError("Too many requests, try again later"))
		}
		observability.RateLimitDecisions.WithLabelValues(p.Name, "allowed").Inc()
		return c.Next()
	}
}
