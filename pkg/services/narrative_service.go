package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bi-decision-engine/pkg/models"
)

// DefaultNarrativeTimeout ナラティブ生成1回あたりの待ち時間の上限
const DefaultNarrativeTimeout = 3 * time.Second

// narrativeAttempts 初回 + 最大1回の再試行
const narrativeAttempts = 2

// NarrativeTopic ナラティブの対象領域（代替文の選択に使う）
type NarrativeTopic string

const (
	TopicOverview  NarrativeTopic = "overview"
	TopicDemand    NarrativeTopic = "demand"
	TopicPricing   NarrativeTopic = "pricing"
	TopicCustomer  NarrativeTopic = "customer"
	TopicFraud     NarrativeTopic = "fraud"
	TopicInventory NarrativeTopic = "inventory"
)

// Narrative の取得元
const (
	NarrativeSourceGenerated = "generated"
	NarrativeSourceCached    = "cached"
	NarrativeSourceFallback  = "fallback"
)

// NarrativeGenerator 外部の文章生成サービス（Azure OpenAI など）
type NarrativeGenerator interface {
	GenerateNarrative(ctx context.Context, prompt string) (string, error)
}

// NarrativeCache 生成済みナラティブのキャッシュ
type NarrativeCache interface {
	GetNarrative(ctx context.Context, topic, prompt string) (string, bool)
	SetNarrative(ctx context.Context, topic, prompt, text string) error
}

// NarrativeObserver ナラティブ取得結果の記録先（モニタリング用）
type NarrativeObserver interface {
	ObserveNarrative(topic, source string)
}

// NarrativeResult ナラティブ生成の結果。Err が nil でなければ Text は使わない。
type NarrativeResult struct {
	Topic  NarrativeTopic
	Text   string
	Cached bool
	Err    error
}

// Narrative 結果をレスポンス用に変換する。失敗時は固定の代替文になる。
func (r NarrativeResult) Narrative() models.Narrative {
	if r.Err != nil || strings.TrimSpace(r.Text) == "" {
		return models.Narrative{Text: fallbackNarrative(r.Topic), Source: NarrativeSourceFallback}
	}
	if r.Cached {
		return models.Narrative{Text: r.Text, Source: NarrativeSourceCached}
	}
	return models.Narrative{Text: r.Text, Source: NarrativeSourceGenerated}
}

// fallbackNarrative 外部サービスが使えない場合の固定文
func fallbackNarrative(topic NarrativeTopic) string {
	switch topic {
	case TopicDemand:
		return "Demand projections combine category seasonality with a bounded trend estimate. Review products with rising forecasts first when planning replenishment."
	case TopicPricing:
		return "Price recommendations balance simulated competitor prices against category price sensitivity. Apply increases gradually and monitor conversion after each change."
	case TopicCustomer:
		return "Customer segments are ranked by spend and purchase frequency. Prioritise retention outreach for high-value customers showing reduced activity."
	case TopicFraud:
		return "Alerts are ranked by risk score within each severity band. Resolve high-severity alerts before releasing affected orders."
	case TopicInventory:
		return "Stock targets add a 20% buffer over forecast demand. Address high-urgency items first to avoid stockouts."
	default:
		return "This summary combines demand, pricing, customer and fraud signals. Focus on high-impact insights first and validate them against recent sales."
	}
}

// NarrativeService ナラティブ生成を時間制限・再試行・代替文で包むサービス
type NarrativeService struct {
	generator NarrativeGenerator
	cache     NarrativeCache
	observer  NarrativeObserver
	timeout   time.Duration
}

// NewNarrativeService 新しいナラティブサービスを作成。generator が nil の場合は常に代替文を返す。
func NewNarrativeService(generator NarrativeGenerator, cache NarrativeCache, timeout time.Duration) *NarrativeService {
	if timeout <= 0 {
		timeout = DefaultNarrativeTimeout
	}
	return &NarrativeService{
		generator: generator,
		cache:     cache,
		timeout:   timeout,
	}
}

// SetObserver 結果の記録先を設定
func (s *NarrativeService) SetObserver(observer NarrativeObserver) {
	s.observer = observer
}

// Start ナラティブ生成を別のゴルーチンで開始し、結果を受け取るチャネルを返す
func (s *NarrativeService) Start(ctx context.Context, topic NarrativeTopic, prompt string) <-chan NarrativeResult {
	ch := make(chan NarrativeResult, 1)
	go func() {
		ch <- s.Generate(ctx, topic, prompt)
	}()
	return ch
}

// Await Start の結果を待つ。待ち時間は timeout が上限で、生成側がコンテキストを無視しても超えない。
// 期限切れや呼び出し元のキャンセル時は生成を待たずに代替文を返す。
func (s *NarrativeService) Await(ctx context.Context, topic NarrativeTopic, pending <-chan NarrativeResult) models.Narrative {
	timeout := DefaultNarrativeTimeout
	if s != nil {
		timeout = s.timeout
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var result NarrativeResult
	select {
	case result = <-pending:
	case <-ctx.Done():
		result = NarrativeResult{Topic: topic, Err: fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, ctx.Err())}
	case <-timer.C:
		log.Printf("⚠️ [narrative] no result within %s (topic=%s); using fallback", timeout, topic)
		result = NarrativeResult{Topic: topic, Err: fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, context.DeadlineExceeded)}
	}
	narrative := result.Narrative()
	if s != nil && s.observer != nil {
		s.observer.ObserveNarrative(string(topic), narrative.Source)
	}
	return narrative
}

// Generate ナラティブを同期的に生成する。エラーは NarrativeResult.Err に格納され、panic もしない。
func (s *NarrativeService) Generate(ctx context.Context, topic NarrativeTopic, prompt string) (result NarrativeResult) {
	result.Topic = topic
	if s == nil || s.generator == nil {
		result.Err = ErrCollaboratorUnavailable
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("⚠️ [narrative] generator panicked (topic=%s): %v", topic, r)
			result = NarrativeResult{Topic: topic, Err: fmt.Errorf("%w: panic: %v", ErrCollaboratorUnavailable, r)}
		}
	}()

	if s.cache != nil {
		if text, ok := s.cache.GetNarrative(ctx, string(topic), prompt); ok {
			result.Text = text
			result.Cached = true
			return result
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var lastErr error
	for attempt := 1; attempt <= narrativeAttempts; attempt++ {
		text, err := s.generator.GenerateNarrative(ctx, prompt)
		// 期限後に届いた結果は使わない
		if err == nil && ctx.Err() != nil {
			err = ctx.Err()
		}
		if err == nil && strings.TrimSpace(text) != "" {
			result.Text = strings.TrimSpace(text)
			if s.cache != nil {
				if cacheErr := s.cache.SetNarrative(ctx, string(topic), prompt, result.Text); cacheErr != nil {
					log.Printf("⚠️ [narrative] failed to cache narrative: %v", cacheErr)
				}
			}
			return result
		}
		if err == nil {
			err = errors.New("empty narrative")
		}
		lastErr = err
		log.Printf("⚠️ [narrative] attempt %d/%d failed (topic=%s): %v", attempt, narrativeAttempts, topic, err)

		// タイムアウト・キャンセル後は再試行しない
		if ctx.Err() != nil {
			break
		}
	}

	result.Err = fmt.Errorf("%w: %v", ErrCollaboratorUnavailable, lastErr)
	return result
}
