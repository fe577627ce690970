package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounterStore はRedisを使用した固定ウィンドウカウンタ実装。
// 複数プロセスでカウンタを共有するデプロイ向け。
type RedisCounterStore struct {
	client *redis.Client
	prefix string
}

// NewRedisCounterStore はRedisCounterStoreを生成する。
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{
		client: client,
		prefix: "ratelimit:",
	}
}

// Incr はCounterStoreを実装する。
// INCRの結果が1（ウィンドウ内初回）のときのみ有効期限を設定することで、
// ウィンドウの起点を最初のリクエスト時刻に固定する。
func (s *RedisCounterStore) Incr(ctx context.Context, key string, window time.Duration) (int, error) {
	k := s.prefix + key

	count, err := s.client.Incr(ctx, k).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to incr counter: %w", err)
	}

	if count == 1 {
		if err := s.client.Expire(ctx, k, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set counter expiry: %w", err)
		}
	}

	return int(count), nil
}
