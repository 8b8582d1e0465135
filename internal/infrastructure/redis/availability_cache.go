package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// AvailabilityCache は開催枠の残り枠数キャッシュを管理する
// 一覧表示での空き状況読み取りをDBから逃がすためのもので、
// 予約可否の判定には使わない（判定は常にDBの条件付きUPDATE）
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheインスタンスを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// GetRemaining は開催枠の残り枠数をキャッシュから取得する
func (c *AvailabilityCache) GetRemaining(ctx context.Context, sessionID string) (int, error) {
	key := c.remainingKey(sessionID)
	val, err := c.client.Get(ctx, key).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrCacheMiss
		}
		return 0, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	return val, nil
}

// SetRemaining は開催枠の残り枠数をキャッシュに保存する
func (c *AvailabilityCache) SetRemaining(ctx context.Context, sessionID string, remaining int, ttl time.Duration) error {
	key := c.remainingKey(sessionID)
	err := c.client.Set(ctx, key, remaining, ttl).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate は開催枠のキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, sessionID string) error {
	key := c.remainingKey(sessionID)
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func (c *AvailabilityCache) remainingKey(sessionID string) string {
	return fmt.Sprintf("sessions:remaining:%s", sessionID)
}
