package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// 金額はJSON上で数値として出力する（"79.99" ではなく 79.99）
	decimal.MarshalJSONWithoutQuotes = true
}

// CatalogItem 追跡対象の商品（起動時に静的設定から読み込まれる参照データ）
type CatalogItem struct {
	Name         string          `json:"name"`
	Category     string          `json:"category"`
	BaseDemand   int             `json:"base_demand"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// DemandForecast 商品ごとの需要予測結果
type DemandForecast struct {
	Product         string   `json:"product"`
	Category        string   `json:"category"`
	CurrentDemand   int      `json:"current_demand"`
	PredictedDemand int      `json:"predicted_demand"`
	Confidence      int      `json:"confidence"` // 75-95
	Seasonality     string   `json:"seasonality"`
	Factors         []string `json:"factors"` // 1-3件
}

// MarketPosition 競合価格に対する自社価格のポジション
type MarketPosition string

const (
	MarketPositionUnderpriced MarketPosition = "underpriced"
	MarketPositionCompetitive MarketPosition = "competitive"
	MarketPositionPremium     MarketPosition = "premium"
)

// CompetitorAnalysis 競合価格シミュレーションの結果
type CompetitorAnalysis struct {
	AvgCompetitorPrice decimal.Decimal `json:"avg_competitor_price"`
	MarketPosition     MarketPosition  `json:"market_position"`
	DemandElasticity   float64         `json:"demand_elasticity"`
}

// PricingRecommendation 価格調整の推奨
type PricingRecommendation struct {
	Product             string             `json:"product"`
	CurrentPrice        decimal.Decimal    `json:"current_price"`
	RecommendedPrice    decimal.Decimal    `json:"recommended_price"`
	ExpectedIncreasePct float64            `json:"expected_increase_pct"`
	Reasoning           string             `json:"reasoning"`
	CompetitorAnalysis  CompetitorAnalysis `json:"competitor_analysis"`
}

// CustomerRecord 顧客ベース集計の入力となる顧客1件分の実績
type CustomerRecord struct {
	ID              string          `json:"id" binding:"required"`
	TotalSpend      decimal.Decimal `json:"total_spend"`
	OrderCount      int             `json:"order_count" binding:"gte=0"`
	FirstPurchaseAt time.Time       `json:"first_purchase_at"`
	LastPurchaseAt  time.Time       `json:"last_purchase_at"`
}

// CustomerSegment 顧客セグメント（VIP / Regular / Occasional）
type CustomerSegment struct {
	Name             string          `json:"name"`
	Count            int             `json:"count"`
	AverageSpend     decimal.Decimal `json:"average_spend"`
	RetentionRatePct float64         `json:"retention_rate_pct"`
	Characteristics  []string        `json:"characteristics"`
}

// CustomerAnalytics 顧客ベースの集計結果
// Illustrative が true の場合は入力なしで返されるデモ用スナップショットであり、実データではない。
type CustomerAnalytics struct {
	TotalCustomers       int               `json:"total_customers"`
	ActiveCustomers      int               `json:"active_customers"`
	NewCustomers         int               `json:"new_customers"`
	ChurnRatePct         float64           `json:"churn_rate_pct"`
	AverageLifetimeValue decimal.Decimal   `json:"average_lifetime_value"`
	Segments             []CustomerSegment `json:"segments"`
	BehaviorInsights     []string          `json:"behavior_insights"`
	RiskFactors          []string          `json:"risk_factors"`
	Illustrative         bool              `json:"illustrative"`
}

// Channel 顧客への推奨連絡チャネル
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

// CustomerPrediction 顧客単位の行動予測
type CustomerPrediction struct {
	CustomerID              string    `json:"customer_id"`
	ChurnProbability        float64   `json:"churn_probability"`         // 0-0.3
	NextPurchaseProbability float64   `json:"next_purchase_probability"` // 0.2-1.0
	RecommendedProducts     []string  `json:"recommended_products"`
	OptimalContactTime      time.Time `json:"optimal_contact_time"` // now+7日以内
	PreferredChannel        Channel   `json:"preferred_channel"`
}

// Severity 不正アラートの重大度
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// FraudAlert リスクスコア付きの不正検知アラート
type FraudAlert struct {
	ID                   string          `json:"id"`
	Severity             Severity        `json:"severity"`
	Type                 string          `json:"type"`
	Description          string          `json:"description"`
	RiskScore            int             `json:"risk_score"`
	AffectedTransactions int             `json:"affected_transactions"`
	TotalValue           decimal.Decimal `json:"total_value"`
	Recommendation       string          `json:"recommendation"`
	Timestamp            time.Time       `json:"timestamp"`
	PaymentMethod        string          `json:"payment_method"`
}

// InsightType インサイトの種別
type InsightType string

const (
	InsightTypeDemand    InsightType = "demand"
	InsightTypePricing   InsightType = "pricing"
	InsightTypeFraud     InsightType = "fraud"
	InsightTypeCustomer  InsightType = "customer"
	InsightTypeInventory InsightType = "inventory"
)

// Impact インサイトの影響度
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

// Insight 全モデル共通の正規化された出力エンベロープ
// リクエストごとに生成され、生成後に変更されることはない。
type Insight struct {
	ID             string      `json:"id"`
	Type           InsightType `json:"type"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Confidence     int         `json:"confidence"` // 0-100
	Impact         Impact      `json:"impact"`
	Recommendation string      `json:"recommendation"`
	Data           interface{} `json:"data,omitempty"`
}

// Narrative ナラティブ生成の結果（生成できなかった場合は固定の代替文）
type Narrative struct {
	Text   string `json:"text"`
	Source string `json:"source"` // generated / cached / fallback
}

// InventoryItem 在庫最適化の入力
type InventoryItem struct {
	ProductID    string              `json:"product_id" binding:"required"`
	Name         string              `json:"name"`
	CurrentStock int                 `json:"current_stock" binding:"gte=0"`
	UnitCost     decimal.NullDecimal `json:"unit_cost"`
}

// InventoryConstraints 在庫最適化の制約条件
type InventoryConstraints struct {
	MaxBudget decimal.NullDecimal `json:"max_budget"`
}

// InventoryOptimization 商品ごとの在庫最適化結果
type InventoryOptimization struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name,omitempty"`
	CurrentStock   int             `json:"current_stock"`
	DemandForecast int             `json:"demand_forecast"`
	OptimalStock   int             `json:"optimal_stock"`
	Action         string          `json:"action"`  // increase / decrease / maintain
	Urgency        string          `json:"urgency"` // high / medium
	UnitCost       decimal.Decimal `json:"unit_cost"`
	CostImpact     decimal.Decimal `json:"cost_impact"`
}
