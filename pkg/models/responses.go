package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InsightsSummary GetInsights のサマリー
type InsightsSummary struct {
	TotalInsights     int     `json:"total_insights"`
	HighImpactCount   int     `json:"high_impact_count"`
	AverageConfidence float64 `json:"average_confidence"`
}

// InsightsResponse 横断インサイト一覧
type InsightsResponse struct {
	Timeframe   string          `json:"timeframe"`
	Insights    []Insight       `json:"insights"`
	Summary     InsightsSummary `json:"summary"`
	Narrative   Narrative       `json:"narrative"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// DemandForecastSummary 需要予測のサマリー
type DemandForecastSummary struct {
	AvgConfidence   float64 `json:"avg_confidence"`
	IncreasingCount int     `json:"increasing_count"`
	DecreasingCount int     `json:"decreasing_count"`
}

// DemandForecastResponse 需要予測レスポンス
type DemandForecastResponse struct {
	Timeframe   string                `json:"timeframe"`
	Forecasts   []DemandForecast      `json:"forecasts"`
	Summary     DemandForecastSummary `json:"summary"`
	Insight     Insight               `json:"insight"`
	Narrative   Narrative             `json:"narrative"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// PricingSummary 価格推奨のサマリー
type PricingSummary struct {
	PriceIncreases    int     `json:"price_increases"`
	PriceDecreases    int     `json:"price_decreases"`
	AvgPriceChangePct float64 `json:"avg_price_change_pct"`
}

// PricingResponse 価格推奨レスポンス
type PricingResponse struct {
	Recommendations []PricingRecommendation `json:"recommendations"`
	Summary         PricingSummary          `json:"summary"`
	Insight         Insight                 `json:"insight"`
	Narrative       Narrative               `json:"narrative"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// PredictiveDeltas 顧客分析に添える固定の予測差分（デモ用の値）
type PredictiveDeltas struct {
	NextMonthChurnPct      float64 `json:"next_month_churn_pct"`
	ExpectedNewCustomers   int     `json:"expected_new_customers"`
	LifetimeValueGrowthPct float64 `json:"lifetime_value_growth_pct"`
	AtRiskCustomers        int     `json:"at_risk_customers"`
}

// CustomerAnalyticsResponse 顧客分析レスポンス
type CustomerAnalyticsResponse struct {
	Analytics   CustomerAnalytics `json:"analytics"`
	Predictions PredictiveDeltas  `json:"predictions"`
	Insight     Insight           `json:"insight"`
	Narrative   Narrative         `json:"narrative"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// FraudSummary 不正アラートのサマリー
type FraudSummary struct {
	TotalAlerts      int             `json:"total_alerts"`
	HighRiskCount    int             `json:"high_risk_count"`
	TotalValueAtRisk decimal.Decimal `json:"total_value_at_risk"`
	AvgRiskScore     float64         `json:"avg_risk_score"`
}

// FraudAlertsResponse 不正アラートレスポンス
type FraudAlertsResponse struct {
	Alerts      []FraudAlert `json:"alerts"`
	Summary     FraudSummary `json:"summary"`
	Insight     Insight      `json:"insight"`
	Narrative   Narrative    `json:"narrative"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// CustomerRecommendations 顧客予測に基づく対応方針
type CustomerRecommendations struct {
	Intervention string   `json:"intervention"` // high_priority / standard
	Actions      []string `json:"actions"`
}

// CustomerPredictionResponse 顧客予測レスポンス
type CustomerPredictionResponse struct {
	Prediction      CustomerPrediction      `json:"prediction"`
	Recommendations CustomerRecommendations `json:"recommendations"`
	Narrative       Narrative               `json:"narrative"`
	GeneratedAt     time.Time               `json:"generated_at"`
}

// InventorySummary 在庫最適化のサマリー
type InventorySummary struct {
	TotalProducts    int             `json:"total_products"`
	IncreaseCount    int             `json:"increase_count"`
	HighUrgencyCount int             `json:"high_urgency_count"`
	TotalCostImpact  decimal.Decimal `json:"total_cost_impact"`
	WithinBudget     *bool           `json:"within_budget,omitempty"`
}

// InventoryOptimizationRequest POST inventory-optimization のリクエストボディ
type InventoryOptimizationRequest struct {
	Products    []InventoryItem      `json:"products" binding:"required,dive"`
	Constraints InventoryConstraints `json:"constraints"`
}

// InventoryOptimizationResponse 在庫最適化レスポンス
type InventoryOptimizationResponse struct {
	Optimizations []InventoryOptimization `json:"optimizations"`
	Summary       InventorySummary        `json:"summary"`
	Insight       Insight                 `json:"insight"`
	Narrative     Narrative               `json:"narrative"`
	GeneratedAt   time.Time               `json:"generated_at"`
}

// CustomerAnalyticsRequest POST customer-analytics のリクエストボディ
type CustomerAnalyticsRequest struct {
	Customers []CustomerRecord `json:"customers" binding:"required,dive"`
}

// CategorySetting カテゴリごとの弾力性と当月の季節係数
type CategorySetting struct {
	Category          string  `json:"category"`
	Elasticity        float64 `json:"elasticity"`
	CurrentMultiplier float64 `json:"current_multiplier"`
	PriceSensitive    bool    `json:"price_sensitive"`
}

// SettingsResponse GET settings のレスポンス
type SettingsResponse struct {
	Categories             []CategorySetting `json:"categories"`
	TrackedProducts        []CatalogItem     `json:"tracked_products"`
	RecommendedProducts    []string          `json:"recommended_products"`
	DefaultUnitCost        decimal.Decimal   `json:"default_unit_cost"`
	DefaultFraudAlertCount int               `json:"default_fraud_alert_count"`
	MaxFraudAlertCount     int               `json:"max_fraud_alert_count"`
	NarrativeEnabled       bool              `json:"narrative_enabled"`
	Notes                  []string          `json:"notes"`
}
