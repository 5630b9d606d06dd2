package timeblocks

import (
	"context"
	"fmt"
	"time"
)

// ListCacheInterface caches list query results keyed by their date range
type ListCacheInterface interface {
	Add(ctx context.Context, key string, blocks []TimeBlock) error
	Get(ctx context.Context, key string) ([]TimeBlock, error)
	Invalidate(ctx context.Context) error
}

// ListCacheKey builds the cache key for a date-range list query
func ListCacheKey(startDate *time.Time, endDate *time.Time) string {
	start := "-"
	end := "-"
	if startDate != nil {
		start = startDate.Format("2006-01-02")
	}
	if endDate != nil {
		end = endDate.Format("2006-01-02")
	}

	return fmt.Sprintf("timeblocks:%s:%s", start, end)
}
