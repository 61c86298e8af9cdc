package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore テスト用のインメモリ Store
type memoryStore struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	failGet error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryStore) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.data[key] = b
	m.ttls[key] = expiration
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string, dest interface{}) error {
	if m.failGet != nil {
		return m.failGet
	}
	b, ok := m.data[key]
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(b, dest)
}

func TestNarrativeCache_RoundTrip(t *testing.T) {
	store := newMemoryStore()
	c := NewNarrativeCache(store, time.Minute)
	ctx := context.Background()

	_, ok := c.GetNarrative(ctx, "demand", "prompt")
	assert.False(t, ok)

	require.NoError(t, c.SetNarrative(ctx, "demand", "prompt", "Demand is rising."))

	text, ok := c.GetNarrative(ctx, "demand", "prompt")
	assert.True(t, ok)
	assert.Equal(t, "Demand is rising.", text)
	assert.Equal(t, time.Minute, store.ttls[NarrativeKey("demand", "prompt")])

	// 別トピック・別プロンプトはヒットしない
	_, ok = c.GetNarrative(ctx, "pricing", "prompt")
	assert.False(t, ok)
	_, ok = c.GetNarrative(ctx, "demand", "other prompt")
	assert.False(t, ok)
}

func TestNarrativeCache_DefaultTTL(t *testing.T) {
	store := newMemoryStore()
	c := NewNarrativeCache(store, 0)
	require.NoError(t, c.SetNarrative(context.Background(), "fraud", "p", "text"))
	assert.Equal(t, DefaultNarrativeTTL, store.ttls[NarrativeKey("fraud", "p")])
}

func TestNarrativeCache_StoreErrorIsMiss(t *testing.T) {
	store := newMemoryStore()
	store.failGet = errors.New("connection refused")
	c := NewNarrativeCache(store, time.Minute)

	_, ok := c.GetNarrative(context.Background(), "demand", "prompt")
	assert.False(t, ok)
}

func TestNarrativeCache_NilSafe(t *testing.T) {
	var c *NarrativeCache
	_, ok := c.GetNarrative(context.Background(), "demand", "prompt")
	assert.False(t, ok)
	assert.Error(t, c.SetNarrative(context.Background(), "demand", "prompt", "text"))

	var r *RedisClient
	assert.Error(t, r.Set(context.Background(), "k", "v", time.Second))
	assert.NoError(t, r.Close())
}

func TestNarrativeKey(t *testing.T) {
	key := NarrativeKey("overview", "summarize")
	assert.Regexp(t, `^bi:narrative:overview:[0-9a-f]{16}$`, key)
	assert.Equal(t, key, NarrativeKey("overview", "summarize"))
	assert.NotEqual(t, key, NarrativeKey("overview", "summarize again"))
}
