package cache

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"log"
	"time"
)

// DefaultNarrativeTTL 生成済みナラティブの保持期間
const DefaultNarrativeTTL = 15 * time.Minute

// Store JSON値を読み書きできるキーバリューストア（*RedisClient が実装）
type Store interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// NarrativeCache プロンプト単位で生成済みナラティブをキャッシュする
type NarrativeCache struct {
	store Store
	ttl   time.Duration
}

// NewNarrativeCache 新しいナラティブキャッシュを作成
func NewNarrativeCache(store Store, ttl time.Duration) *NarrativeCache {
	if ttl <= 0 {
		ttl = DefaultNarrativeTTL
	}
	return &NarrativeCache{store: store, ttl: ttl}
}

// GetNarrative キャッシュ済みのナラティブを取得
func (c *NarrativeCache) GetNarrative(ctx context.Context, topic, prompt string) (string, bool) {
	if c == nil || c.store == nil {
		return "", false
	}

	var text string
	if err := c.store.Get(ctx, NarrativeKey(topic, prompt), &text); err != nil {
		if !errors.Is(err, ErrMiss) {
			log.Printf("⚠️ [cache] narrative lookup failed: %v", err)
		}
		return "", false
	}
	return text, text != ""
}

// SetNarrative ナラティブを保存
func (c *NarrativeCache) SetNarrative(ctx context.Context, topic, prompt, text string) error {
	if c == nil || c.store == nil {
		return fmt.Errorf("narrative cache not available")
	}
	return c.store.Set(ctx, NarrativeKey(topic, prompt), text, c.ttl)
}

// NarrativeKey トピックとプロンプトのハッシュからキーを作る
func NarrativeKey(topic, prompt string) string {
	hash := md5.Sum([]byte(prompt))
	return fmt.Sprintf("bi:narrative:%s:%x", topic, hash[:8])
}
