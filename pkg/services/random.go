package services

import (
	"math/rand"
	"sync"
	"time"
)

// RandomSource モデルが使用する乱数源。
// テストでは固定列を返す実装に差し替えて計算式を検証する。
type RandomSource interface {
	// Uniform は [lo, hi) の一様乱数を返す
	Uniform(lo, hi float64) float64
	// Int は [lo, hi] の整数を一様に返す
	Int(lo, hi int) int
	// Bool は 50/50 の真偽値を返す
	Bool() bool
}

// lockedRandom 複数のリクエストから同時に使える *rand.Rand のラッパー
type lockedRandom struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRandomSource シード付きの乱数源を作成（seed=0 の場合は現在時刻を使用）
func NewRandomSource(seed int64) RandomSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &lockedRandom{rnd: rand.New(rand.NewSource(seed))}
}

func (l *lockedRandom) Uniform(lo, hi float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.rnd.Float64()*(hi-lo)
}

func (l *lockedRandom) Int(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return lo + l.rnd.Intn(hi-lo+1)
}

func (l *lockedRandom) Bool() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rnd.Intn(2) == 0
}

// pick スライスから一様に1要素を選ぶ
func pick(rng RandomSource, options []string) string {
	if len(options) == 0 {
		return ""
	}
	return options[rng.Int(0, len(options)-1)]
}
