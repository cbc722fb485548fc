package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/simnova/sharethrift/internal/api/metrics"
	"github.com/simnova/sharethrift/internal/core/domain"
	"github.com/simnova/sharethrift/internal/core/ports"
)

const dedupTTL = 24 * time.Hour

// DedupChecker provides idempotency checks for domain events backed by Redis.
// Key format: dedup:<event_name>:<aggregate_id>:<occurred_at_unix_nano>
type DedupChecker struct {
	client redis.Cmdable
}

var _ ports.DedupStore = (*DedupChecker)(nil)

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client redis.Cmdable) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this exact event has already been processed.
func (d *DedupChecker) IsDuplicate(ctx context.Context, ev domain.Event) (bool, error) {
	n, err := d.client.Exists(ctx, key(ev)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	if n > 0 {
		metrics.EventsDedupTotal.WithLabelValues("hit").Inc()
		return true, nil
	}
	metrics.EventsDedupTotal.WithLabelValues("miss").Inc()
	return false, nil
}

// Mark records that this event has been processed (expires after dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, ev domain.Event) error {
	if err := d.client.Set(ctx, key(ev), "1", dedupTTL).Err(); err != nil {
		return fmt.Errorf("dedup mark: %w", err)
	}
	return nil
}

func key(ev domain.Event) string {
	return fmt.Sprintf("dedup:%s:%s:%d", ev.Name, ev.AggregateID, ev.OccurredAt.UnixNano())
}
