package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/biofetch/internal/core/domain"
	"github.com/vietddude/biofetch/internal/fetch/metrics"
)

// DefaultTTL bounds how long a failure queue survives without new entries.
const DefaultTTL = 7 * 24 * time.Hour

// FailureQueue records the ids of failed batches per backend.
type FailureQueue struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFailureQueue creates a queue. A zero ttl means DefaultTTL.
func NewFailureQueue(client *Client, ttl time.Duration) *FailureQueue {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &FailureQueue{rdb: client.rdb, ttl: ttl}
}

// Key helpers
func idsKey(backend string) string {
	return fmt.Sprintf("failed_ids:%s", backend)
}

func batchesKey(backend string) string {
	return fmt.Sprintf("failed_batches:%s", backend)
}

// Record adds every failed batch of a run to the backend queue.
func (q *FailureQueue) Record(ctx context.Context, backend string, failed []domain.FailedBatch) error {
	if len(failed) == 0 {
		return nil
	}

	var ids []any
	details := make([]any, 0, len(failed))
	for _, fb := range failed {
		for _, id := range fb.IDs {
			ids = append(ids, id)
		}
		data, err := json.Marshal(fb)
		if err != nil {
			return fmt.Errorf("failed to marshal failed batch: %w", err)
		}
		details = append(details, data)
	}

	pipe := q.rdb.TxPipeline()
	if len(ids) > 0 {
		pipe.SAdd(ctx, idsKey(backend), ids...)
		pipe.Expire(ctx, idsKey(backend), q.ttl)
	}
	pipe.RPush(ctx, batchesKey(backend), details...)
	pipe.Expire(ctx, batchesKey(backend), q.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record failed ids: %w", err)
	}

	metrics.FailedIDsQueued.WithLabelValues(backend).Add(float64(len(ids)))
	return nil
}

// Pending returns how many distinct ids wait in the backend queue.
func (q *FailureQueue) Pending(ctx context.Context, backend string) (int64, error) {
	n, err := q.rdb.SCard(ctx, idsKey(backend)).Result()
	if err != nil {
		return 0, fmt.Errorf("scard failed: %w", err)
	}
	return n, nil
}

// Peek returns the queued ids, sorted, without removing them.
func (q *FailureQueue) Peek(ctx context.Context, backend string) ([]string, error) {
	ids, err := q.rdb.SMembers(ctx, idsKey(backend)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers failed: %w", err)
	}
	sort.Strings(ids)
	return ids, nil
}

// Batches returns the recorded failure details, oldest first.
func (q *FailureQueue) Batches(ctx context.Context, backend string) ([]domain.FailedBatch, error) {
	raw, err := q.rdb.LRange(ctx, batchesKey(backend), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange failed: %w", err)
	}

	batches := make([]domain.FailedBatch, 0, len(raw))
	for _, item := range raw {
		var fb domain.FailedBatch
		if err := json.Unmarshal([]byte(item), &fb); err != nil {
			continue
		}
		batches = append(batches, fb)
	}
	return batches, nil
}

// Resolve removes ids that were fetched successfully. Once no ids remain the
// failure details go too.
func (q *FailureQueue) Resolve(ctx context.Context, backend string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	members := make([]any, len(ids))
	for i, id := range ids {
		members[i] = id
	}

	var remaining *redis.IntCmd
	_, err := q.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, idsKey(backend), members...)
		remaining = pipe.SCard(ctx, idsKey(backend))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to resolve failed ids: %w", err)
	}

	if remaining.Val() == 0 {
		if err := q.rdb.Del(ctx, batchesKey(backend)).Err(); err != nil {
			return fmt.Errorf("failed to drop failed batches: %w", err)
		}
	}
	return nil
}

// Clear drops the backend queue.
func (q *FailureQueue) Clear(ctx context.Context, backend string) error {
	return q.rdb.Del(ctx, idsKey(backend), batchesKey(backend)).Err()
}
