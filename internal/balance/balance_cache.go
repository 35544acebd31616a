package balance

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	SummaryCacheKey = "balances:summary"
	summaryCacheTTL = 10 * time.Minute
)

// InvalidateSummary drops the cached balance summary. Call it after any
// committed ledger mutation.
func InvalidateSummary(ctx context.Context, rdb *redis.Client, logger *zap.Logger) {
	if rdb == nil {
		return
	}
	if err := rdb.Del(ctx, SummaryCacheKey).Err(); err != nil {
		logger.Error("failed to invalidate balance summary cache",
			zap.String("key", SummaryCacheKey),
			zap.Error(err),
		)
	}
}
