package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"bi-decision-engine/pkg/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultTimeframe timeframe 未指定時の既定値
const DefaultTimeframe = "30d"

// timeframe はラベルとしてのみ扱う（例: 7d, 12w, 3m, 1y）
var timeframePattern = regexp.MustCompile(`^[1-9][0-9]{0,2}[dwmy]$`)

// NormalizeTimeframe timeframe を検証して正規化する。空文字は既定値。
func NormalizeTimeframe(timeframe string) (string, error) {
	timeframe = strings.ToLower(strings.TrimSpace(timeframe))
	if timeframe == "" {
		return DefaultTimeframe, nil
	}
	if !timeframePattern.MatchString(timeframe) {
		return "", inputShapeError("timeframe %q must look like 30d, 12w, 3m or 1y", timeframe)
	}
	return timeframe, nil
}

// InsightServiceOptions インサイトサービスの静的設定
type InsightServiceOptions struct {
	Items               []models.CatalogItem
	RecommendedProducts []string
	DefaultUnitCost     decimal.Decimal
	FraudAlertCount     int
	// Now テストで時刻を固定するためのフック（nil の場合は time.Now）
	Now func() time.Time
}

// InsightService 各モデルを束ね、Insight 形式に正規化して返すファサード
// 状態を持たないため、複数のリクエストから同時に呼び出せる。
type InsightService struct {
	items               []models.CatalogItem
	recommendedProducts []string
	defaultUnitCost     decimal.Decimal
	fraudAlertCount     int
	now                 func() time.Time

	demand    *DemandForecastService
	pricing   *PricingService
	customers *CustomerAnalyticsService
	fraud     *FraudService
	inventory *InventoryOptimizer
	narrative *NarrativeService
}

// NewInsightService 新しいインサイトサービスを作成。narrative は nil でもよい（常に代替文）。
func NewInsightService(rng RandomSource, narrative *NarrativeService, opts InsightServiceOptions) *InsightService {
	if rng == nil {
		rng = NewRandomSource(0)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.FraudAlertCount <= 0 || opts.FraudAlertCount > MaxFraudAlertCount {
		opts.FraudAlertCount = DefaultFraudAlertCount
	}
	if opts.DefaultUnitCost.Sign() <= 0 {
		opts.DefaultUnitCost = DefaultUnitCost
	}
	if len(opts.RecommendedProducts) == 0 {
		opts.RecommendedProducts = DefaultRecommendedProducts
	}

	return &InsightService{
		items:               opts.Items,
		recommendedProducts: opts.RecommendedProducts,
		defaultUnitCost:     opts.DefaultUnitCost,
		fraudAlertCount:     opts.FraudAlertCount,
		now:                 opts.Now,
		demand:              NewDemandForecastService(rng),
		pricing:             NewPricingService(rng),
		customers:           NewCustomerAnalyticsService(rng, opts.RecommendedProducts),
		fraud:               NewFraudService(rng),
		inventory:           NewInventoryOptimizer(rng, opts.DefaultUnitCost),
		narrative:           narrative,
	}
}

// GetInsights 横断インサイト（固定の代表例）とサマリーを返す
func (s *InsightService) GetInsights(ctx context.Context, timeframe string) (models.InsightsResponse, error) {
	timeframe, err := NormalizeTimeframe(timeframe)
	if err != nil {
		return models.InsightsResponse{}, err
	}
	now := s.now()
	pending := s.narrative.Start(ctx, TopicOverview, fmt.Sprintf(
		"Write a two-sentence executive summary of business signals for the last %s across demand, pricing, customers, fraud and inventory for %d tracked products.",
		timeframe, len(s.items)))

	insights := curatedInsights(now.Month())

	return models.InsightsResponse{
		Timeframe:   timeframe,
		Insights:    insights,
		Summary:     SummarizeInsights(insights),
		Narrative:   s.narrative.Await(ctx, TopicOverview, pending),
		GeneratedAt: now,
	}, nil
}

// SummarizeInsights インサイト一覧のサマリーを計算
func SummarizeInsights(insights []models.Insight) models.InsightsSummary {
	summary := models.InsightsSummary{TotalInsights: len(insights)}
	if len(insights) == 0 {
		return summary
	}
	total := 0
	for _, in := range insights {
		total += in.Confidence
		if in.Impact == models.ImpactHigh {
			summary.HighImpactCount++
		}
	}
	summary.AverageConfidence = round(float64(total)/float64(len(insights)), 1)
	return summary
}

// curatedInsights 代表的な横断インサイト（値は説明用。需要のみ当月の季節係数を反映）
func curatedInsights(month time.Month) []models.Insight {
	electronics := ProfileFor(CategoryElectronics).SeasonalMultiplier(month)
	garden := ProfileFor(CategoryHomeGarden).SeasonalMultiplier(month)

	return []models.Insight{
		{
			ID:             uuid.New().String(),
			Type:           models.InsightTypeDemand,
			Title:          "Electronics demand follows the holiday cycle",
			Description:    fmt.Sprintf("The Electronics seasonal multiplier for %s is %.1fx, peaking at 1.4x from November to January.", month, electronics),
			Confidence:     87,
			Impact:         models.ImpactHigh,
			Recommendation: "Build Electronics stock ahead of November and schedule launches before the peak.",
		},
		{
			ID:             uuid.New().String(),
			Type:           models.InsightTypePricing,
			Title:          "Clothing is the most price-sensitive category",
			Description:    "Clothing & Accessories has an elasticity of -1.5, so price adjustments there are halved.",
			Confidence:     78,
			Impact:         models.ImpactMedium,
			Recommendation: "Prefer bundles and promotions over list-price increases for clothing.",
		},
		{
			ID:             uuid.New().String(),
			Type:           models.InsightTypeCustomer,
			Title:          "VIP customers concentrate revenue",
			Description:    "A small VIP segment accounts for a disproportionate share of spend and retains at the highest rate.",
			Confidence:     92,
			Impact:         models.ImpactHigh,
			Recommendation: "Protect VIP retention with early access and personal outreach.",
		},
		{
			ID:             uuid.New().String(),
			Type:           models.InsightTypeFraud,
			Title:          "Velocity checks catch most card testing",
			Description:    "Bursts of small charges on a single card are the most common precursor of high-value fraud.",
			Confidence:     74,
			Impact:         models.ImpactMedium,
			Recommendation: "Rate-limit authorizations per card and review medium-severity alerts daily.",
		},
		{
			ID:             uuid.New().String(),
			Type:           models.InsightTypeInventory,
			Title:          "Garden stock should track the growing season",
			Description:    fmt.Sprintf("Home & Garden demand runs at %.1fx this month against a 1.2x spring/summer peak.", garden),
			Confidence:     81,
			Impact:         models.ImpactLow,
			Recommendation: "Replenish garden lines in February and draw stock down after September.",
		},
	}
}

// GetDemandForecast 追跡商品の需要予測とサマリーを返す
func (s *InsightService) GetDemandForecast(ctx context.Context, timeframe string) (models.DemandForecastResponse, error) {
	timeframe, err := NormalizeTimeframe(timeframe)
	if err != nil {
		return models.DemandForecastResponse{}, err
	}
	now := s.now()
	pending := s.narrative.Start(ctx, TopicDemand, fmt.Sprintf(
		"In two sentences, explain the %s demand outlook in %s for these products: %s.",
		timeframe, now.Month(), describeItems(s.items)))

	forecasts := s.demand.Forecast(s.items, now)
	summary := SummarizeForecasts(forecasts)

	return models.DemandForecastResponse{
		Timeframe:   timeframe,
		Forecasts:   forecasts,
		Summary:     summary,
		Insight:     demandInsight(summary, len(forecasts)),
		Narrative:   s.narrative.Await(ctx, TopicDemand, pending),
		GeneratedAt: now,
	}, nil
}

func demandInsight(summary models.DemandForecastSummary, total int) models.Insight {
	impact := models.ImpactMedium
	if total > 0 && summary.IncreasingCount*2 > total {
		impact = models.ImpactHigh
	}
	return models.Insight{
		ID:             uuid.New().String(),
		Type:           models.InsightTypeDemand,
		Title:          fmt.Sprintf("%d of %d products show rising demand", summary.IncreasingCount, total),
		Description:    fmt.Sprintf("Forecasts combine seasonal multipliers with a bounded trend; average confidence is %.1f%%.", summary.AvgConfidence),
		Confidence:     int(math.Round(summary.AvgConfidence)),
		Impact:         impact,
		Recommendation: "Prioritise replenishment for products with rising forecasts.",
		Data:           summary,
	}
}

// GetPricingRecommendations 追跡商品の価格推奨とサマリーを返す
func (s *InsightService) GetPricingRecommendations(ctx context.Context) (models.PricingResponse, error) {
	now := s.now()
	pending := s.narrative.Start(ctx, TopicPricing, fmt.Sprintf(
		"In two sentences, give pricing guidance for these products considering competitor prices and category price sensitivity: %s.",
		describeItems(s.items)))

	recommendations := s.pricing.Recommend(s.items)
	summary := SummarizePricing(recommendations)

	return models.PricingResponse{
		Recommendations: recommendations,
		Summary:         summary,
		Insight:         pricingInsight(summary),
		Narrative:       s.narrative.Await(ctx, TopicPricing, pending),
		GeneratedAt:     now,
	}, nil
}

func pricingInsight(summary models.PricingSummary) models.Insight {
	impact := models.ImpactLow
	switch change := math.Abs(summary.AvgPriceChangePct); {
	case change >= 3:
		impact = models.ImpactHigh
	case change >= 1:
		impact = models.ImpactMedium
	}
	return models.Insight{
		ID:             uuid.New().String(),
		Type:           models.InsightTypePricing,
		Title:          fmt.Sprintf("%d price increases and %d decreases recommended", summary.PriceIncreases, summary.PriceDecreases),
		Description:    fmt.Sprintf("Average recommended change is %.2f%% after elasticity damping.", summary.AvgPriceChangePct),
		Confidence:     75,
		Impact:         impact,
		Recommendation: "Roll out price changes gradually and monitor conversion per product.",
		Data:           summary,
	}
}

// illustrativeDeltas 顧客分析に添える固定の予測差分（実データではない）
var illustrativeDeltas = models.PredictiveDeltas{
	NextMonthChurnPct:      7.2,
	ExpectedNewCustomers:   180,
	LifetimeValueGrowthPct: 12.5,
	AtRiskCustomers:        142,
}

// GetCustomerAnalytics 顧客ベースを集計する。base が空ならデモ用スナップショット。
func (s *InsightService) GetCustomerAnalytics(ctx context.Context, base []models.CustomerRecord) (models.CustomerAnalyticsResponse, error) {
	for i, c := range base {
		if strings.TrimSpace(c.ID) == "" {
			return models.CustomerAnalyticsResponse{}, inputShapeError("customers[%d].id is required", i)
		}
		if c.OrderCount < 0 || c.TotalSpend.Sign() < 0 {
			return models.CustomerAnalyticsResponse{}, inputShapeError("customers[%d] has negative spend or order count", i)
		}
	}

	now := s.now()
	pending := s.narrative.Start(ctx, TopicCustomer, fmt.Sprintf(
		"In two sentences, suggest retention priorities for a customer base of %d customers segmented into VIP, Regular and Occasional.",
		len(base)))

	analytics := s.customers.Summarize(base, now)

	return models.CustomerAnalyticsResponse{
		Analytics:   analytics,
		Predictions: illustrativeDeltas,
		Insight:     customerInsight(analytics),
		Narrative:   s.narrative.Await(ctx, TopicCustomer, pending),
		GeneratedAt: now,
	}, nil
}

func customerInsight(a models.CustomerAnalytics) models.Insight {
	impact := models.ImpactLow
	switch {
	case a.ChurnRatePct > 25:
		impact = models.ImpactHigh
	case a.ChurnRatePct > 10 || len(a.RiskFactors) > 0:
		impact = models.ImpactMedium
	}
	description := fmt.Sprintf("%d of %d customers are active; churn rate is %.1f%%.", a.ActiveCustomers, a.TotalCustomers, a.ChurnRatePct)
	if a.Illustrative {
		description += " Figures are an illustrative snapshot, not live data."
	}
	return models.Insight{
		ID:             uuid.New().String(),
		Type:           models.InsightTypeCustomer,
		Title:          fmt.Sprintf("Average lifetime value is $%s", a.AverageLifetimeValue.StringFixed(2)),
		Description:    description,
		Confidence:     85,
		Impact:         impact,
		Recommendation: "Target lapsed Regular customers with win-back offers before they become Occasional.",
		Data:           map[string]interface{}{"churn_rate_pct": a.ChurnRatePct, "risk_factors": a.RiskFactors},
	}
}

// GetFraudAlerts n件の不正アラートを生成。n=0 は設定の既定件数、範囲外は入力エラー。
func (s *InsightService) GetFraudAlerts(ctx context.Context, n int) (models.FraudAlertsResponse, error) {
	if n < 0 || n > MaxFraudAlertCount {
		return models.FraudAlertsResponse{}, inputShapeError("count must be between 1 and %d", MaxFraudAlertCount)
	}
	if n == 0 {
		n = s.fraudAlertCount
	}

	now := s.now()
	pending := s.narrative.Start(ctx, TopicFraud, fmt.Sprintf(
		"In two sentences, advise an operations team on triaging %d new fraud alerts ranked by severity.", n))

	alerts := s.fraud.GenerateAlerts(n, now)
	summary := SummarizeFraud(alerts)

	return models.FraudAlertsResponse{
		Alerts:      alerts,
		Summary:     summary,
		Insight:     fraudInsight(summary),
		Narrative:   s.narrative.Await(ctx, TopicFraud, pending),
		GeneratedAt: now,
	}, nil
}

func fraudInsight(summary models.FraudSummary) models.Insight {
	impact := models.ImpactLow
	switch {
	case summary.HighRiskCount > 0:
		impact = models.ImpactHigh
	case summary.AvgRiskScore >= 50:
		impact = models.ImpactMedium
	}
	return models.Insight{
		ID:             uuid.New().String(),
		Type:           models.InsightTypeFraud,
		Title:          fmt.Sprintf("%d high-risk alerts out of %d", summary.HighRiskCount, summary.TotalAlerts),
		Description:    fmt.Sprintf("$%s is at risk; average risk score is %.1f.", summary.TotalValueAtRisk.StringFixed(2), summary.AvgRiskScore),
		Confidence:     int(math.Round(summary.AvgRiskScore)),
		Impact:         impact,
		Recommendation: "Resolve high-severity alerts before releasing affected orders.",
		Data:           summary,
	}
}

// GetCustomerPrediction 顧客1件の行動予測と対応方針を返す
func (s *InsightService) GetCustomerPrediction(ctx context.Context, customerID string) (models.CustomerPredictionResponse, error) {
	if strings.TrimSpace(customerID) == "" {
		return models.CustomerPredictionResponse{}, inputShapeError("customer id is required")
	}
	now := s.now()
	pending := s.narrative.Start(ctx, TopicCustomer, fmt.Sprintf(
		"In two sentences, suggest how to engage customer %s to encourage their next purchase.", customerID))

	prediction, err := s.customers.Predict(customerID, now)
	if err != nil {
		return models.CustomerPredictionResponse{}, err
	}

	return models.CustomerPredictionResponse{
		Prediction:      prediction,
		Recommendations: recommendationsFor(prediction),
		Narrative:       s.narrative.Await(ctx, TopicCustomer, pending),
		GeneratedAt:     now,
	}, nil
}

func recommendationsFor(p models.CustomerPrediction) models.CustomerRecommendations {
	intervention := InterventionFor(p.ChurnProbability)
	actions := []string{
		fmt.Sprintf("Contact via %s at %s", p.PreferredChannel, p.OptimalContactTime.Format(time.RFC3339)),
	}
	if intervention == "high_priority" {
		actions = append(actions, "Offer a personalised retention incentive")
	}
	if p.NextPurchaseProbability >= 0.6 && len(p.RecommendedProducts) > 0 {
		actions = append(actions, fmt.Sprintf("Feature %s in the next message", p.RecommendedProducts[0]))
	}
	return models.CustomerRecommendations{Intervention: intervention, Actions: actions}
}

// OptimizeInventory 在庫の適正量を計算する。空の入力は空の結果を返す。
func (s *InsightService) OptimizeInventory(ctx context.Context, items []models.InventoryItem, constraints models.InventoryConstraints) (models.InventoryOptimizationResponse, error) {
	if constraints.MaxBudget.Valid && constraints.MaxBudget.Decimal.Sign() < 0 {
		return models.InventoryOptimizationResponse{}, inputShapeError("constraints.max_budget must not be negative")
	}
	if err := ValidateInventoryItems(items); err != nil {
		return models.InventoryOptimizationResponse{}, err
	}

	now := s.now()
	pending := s.narrative.Start(ctx, TopicInventory, fmt.Sprintf(
		"In two sentences, advise on replenishment priorities for %d products given a 20%% safety buffer over forecast demand.", len(items)))

	optimizations, err := s.inventory.Optimize(items)
	if err != nil {
		return models.InventoryOptimizationResponse{}, err
	}
	summary := SummarizeInventory(optimizations, constraints)

	return models.InventoryOptimizationResponse{
		Optimizations: optimizations,
		Summary:       summary,
		Insight:       inventoryInsight(summary),
		Narrative:     s.narrative.Await(ctx, TopicInventory, pending),
		GeneratedAt:   now,
	}, nil
}

func inventoryInsight(summary models.InventorySummary) models.Insight {
	impact := models.ImpactLow
	switch {
	case summary.HighUrgencyCount > 0:
		impact = models.ImpactHigh
	case summary.IncreaseCount > 0:
		impact = models.ImpactMedium
	}
	description := fmt.Sprintf("Total cost impact is $%s across %d products.", summary.TotalCostImpact.StringFixed(2), summary.TotalProducts)
	if summary.WithinBudget != nil && !*summary.WithinBudget {
		description += " Planned increases exceed the budget."
	}
	return models.Insight{
		ID:             uuid.New().String(),
		Type:           models.InsightTypeInventory,
		Title:          fmt.Sprintf("%d products need restocking, %d urgently", summary.IncreaseCount, summary.HighUrgencyCount),
		Description:    description,
		Confidence:     80,
		Impact:         impact,
		Recommendation: "Address high-urgency items first to avoid stockouts.",
		Data:           summary,
	}
}

// Settings カテゴリ設定と既定値を返す
func (s *InsightService) Settings() models.SettingsResponse {
	month := s.now().Month()
	categories := make([]models.CategorySetting, 0, len(KnownCategories))
	for _, c := range KnownCategories {
		profile := ProfileFor(c)
		categories = append(categories, models.CategorySetting{
			Category:          c.String(),
			Elasticity:        profile.Elasticity,
			CurrentMultiplier: profile.SeasonalMultiplier(month),
			PriceSensitive:    profile.IsElastic(),
		})
	}

	items := make([]models.CatalogItem, len(s.items))
	copy(items, s.items)

	return models.SettingsResponse{
		Categories:             categories,
		TrackedProducts:        items,
		RecommendedProducts:    s.recommendedProducts,
		DefaultUnitCost:        s.defaultUnitCost,
		DefaultFraudAlertCount: s.fraudAlertCount,
		MaxFraudAlertCount:     MaxFraudAlertCount,
		NarrativeEnabled:       s.narrative != nil && s.narrative.generator != nil,
		Notes: []string{
			"Forecasts, prices, predictions and alerts are bounded-random; values differ per call unless RANDOM_SEED is set.",
			"Customer analytics without an uploaded base is an illustrative snapshot, not live data.",
			"Narratives are advisory text and never change numeric fields.",
			"Default unit cost precedence: DEFAULT_UNIT_COST when set, then the catalog's default_unit_cost, then 25.",
		},
	}
}

func describeItems(items []models.CatalogItem) string {
	if len(items) == 0 {
		return "no tracked products"
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, fmt.Sprintf("%s (%s)", item.Name, item.Category))
	}
	return strings.Join(parts, ", ")
}
