package pipeline

import (
	"context"
	"net/http"
	"time"

	"github.com/forgeline-io/forge/pkg/forge"
)

// Rate-limit guard thresholds. Empirical values carried over from observed
// API behavior; the exhausted check must stay unconditional so an empty
// quota is never hammered.
const (
	// approachingRatio is the remaining/limit fraction at or below which
	// the guard applies a blocking cooldown.
	approachingRatio = 0.20

	// cooldown is the fixed backpressure pause when the quota is low.
	cooldown = 10 * time.Second

	// exhaustedFloor is the remaining-request count at or below which the
	// guard fails the call outright.
	exhaustedFloor = 1
)

// RateLimitGuard inspects the rate-limit state of each physical response,
// blocking when capacity is low and failing fast when it is exhausted. It is
// a deliberate backpressure valve, not a token-bucket scheduler: the
// guarantee is strictly "this call waits".
type RateLimitGuard struct {
	logger forge.Logger
	sleep  forge.SleepFunc
}

// NewRateLimitGuard creates a guard reporting into the given logger and
// pausing through the given sleep function.
func NewRateLimitGuard(logger forge.Logger, sleep forge.SleepFunc) *RateLimitGuard {
	return &RateLimitGuard{logger: logger, sleep: sleep}
}

// Check runs both quota checks against a response's headers. It returns a
// KindRateLimited error when the quota is exhausted — always fatal,
// regardless of the connection's Strict setting. Responses without
// rate-limit headers pass through untouched.
func (g *RateLimitGuard) Check(ctx context.Context, method, requestURL string, headers http.Header) error {
	info := forge.ParseRateLimit(headers)

	if info.Remaining != nil && *info.Remaining <= exhaustedFloor {
		g.logger.Error("rate limit exhausted", map[string]interface{}{
			"event":     "rate_limit_exhausted",
			"method":    method,
			"url":       requestURL,
			"remaining": *info.Remaining,
		})

		return &forge.Error{
			Kind:    forge.KindRateLimited,
			Method:  method,
			URL:     requestURL,
			Message: "rate limit exhausted",
		}
	}

	if info.Remaining != nil && info.Limit != nil && *info.Limit > 0 {
		ratio := float64(*info.Remaining) / float64(*info.Limit)
		if ratio <= approachingRatio {
			g.logger.Warn("rate limit approaching, backing off", map[string]interface{}{
				"event":     "rate_limit_approaching",
				"method":    method,
				"url":       requestURL,
				"remaining": *info.Remaining,
				"limit":     *info.Limit,
				"cooldown":  cooldown.String(),
			})

			if err := g.sleep(ctx, cooldown); err != nil {
				return &forge.Error{
					Kind:    forge.KindTransport,
					Method:  method,
					URL:     requestURL,
					Message: "canceled during rate-limit cooldown",
					Err:     err,
				}
			}
		}
	}

	return nil
}
