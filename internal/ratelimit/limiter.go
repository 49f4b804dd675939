// Package ratelimit guards the WebSocket upgrade path. Backed by Redis when
// the secret store connection is available, by local memory otherwise.
package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"

	"github.com/wombocombo/game-server/internal/logging"
	"github.com/wombocombo/game-server/internal/metrics"
)

// Limiter enforces the per-IP connection rate on the upgrade endpoint.
// A nil *Limiter allows everything (tests, dev mode).
type Limiter struct {
	wsIP  *limiter.Limiter
	store limiter.Store
}

// New builds a limiter from a ulule formatted rate such as "100-M".
// redisClient may be nil; the limiter then falls back to a memory store.
func New(wsIPRate string, redisClient *redis.Client) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(wsIPRate)
	if err != nil {
		return nil, fmt.Errorf("invalid WS IP rate: %w", err)
	}

	var store limiter.Store
	if redisClient != nil {
		store, err = sredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix: "limiter:game:",
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis store: %w", err)
		}
		logging.Info(context.Background(), "rate limiter using redis store")
	} else {
		store = memory.NewStore()
		logging.Warn(context.Background(), "rate limiter using memory store")
	}

	return &Limiter{
		wsIP:  limiter.New(store, rate),
		store: store,
	}, nil
}

// CheckWebSocket reports whether an upgrade request may proceed. On a limit
// hit it writes the 429 response itself. Store failures fail open.
func (l *Limiter) CheckWebSocket(c *gin.Context) bool {
	if l == nil {
		return true
	}

	ctx := c.Request.Context()
	ip := c.ClientIP()

	lctx, err := l.wsIP.Get(ctx, ip)
	if err != nil {
		logging.Error(ctx, "rate limiter store failed", zap.Error(err))
		return true
	}

	if lctx.Reached {
		metrics.AdmissionRejects.WithLabelValues("rate_limited").Inc()
		c.Header("X-RateLimit-Retry-After", strconv.FormatInt(lctx.Reset, 10))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many connections from this IP"})
		return false
	}

	return true
}
