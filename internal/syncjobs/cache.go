package syncjobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	watchedKey = "sync:watched"
	watchedTTL = time.Hour
)

// RedisSnapshots keeps the last polled state of every watched task in a hash so
// any API instance can answer GET /admin/sync/active.
type RedisSnapshots struct {
	client *redis.Client
}

// NewRedisSnapshots creates a snapshot store on client.
func NewRedisSnapshots(client *redis.Client) *RedisSnapshots {
	return &RedisSnapshots{client: client}
}

// Put stores v and refreshes the hash expiry.
func (s *RedisSnapshots) Put(ctx context.Context, v TaskView) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, watchedKey, strconv.FormatInt(v.ID, 10), b)
	pipe.Expire(ctx, watchedKey, watchedTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store task snapshot: %w", err)
	}
	return nil
}

// List returns all snapshots, newest task first.
func (s *RedisSnapshots) List(ctx context.Context) ([]TaskView, error) {
	raw, err := s.client.HGetAll(ctx, watchedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list task snapshots: %w", err)
	}
	out := make([]TaskView, 0, len(raw))
	for _, v := range raw {
		var tv TaskView
		if err := json.Unmarshal([]byte(v), &tv); err != nil {
			continue
		}
		out = append(out, tv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
