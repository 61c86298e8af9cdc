package services

import (
	"math"
	"time"

	"bi-decision-engine/pkg/models"
)

// DemandForecastService 需要予測サービス
type DemandForecastService struct {
	rng RandomSource
}

// NewDemandForecastService 新しい需要予測サービスを作成
func NewDemandForecastService(rng RandomSource) *DemandForecastService {
	return &DemandForecastService{rng: rng}
}

// seasonalNarrative 需要の方向ごとの季節性ラベルと影響要因
type seasonalNarrative struct {
	seasonality string
	factors     []string
}

// demandNarratives (カテゴリ, 増加か) → 季節性ラベルと要因
var demandNarratives = map[Category]map[bool]seasonalNarrative{
	CategoryElectronics: {
		true:  {"Holiday peak", []string{"Holiday shopping season", "New product launches", "Gift purchasing"}},
		false: {"Post-holiday normalization", []string{"Seasonal slowdown", "Market saturation"}},
	},
	CategoryHealthBeauty: {
		true:  {"New Year wellness surge", []string{"New Year health goals", "Self-care trend"}},
		false: {"Steady baseline", []string{"Stable consumer routines"}},
	},
	CategoryHomeGarden: {
		true:  {"Spring/summer peak", []string{"Gardening season", "Outdoor living projects", "Warm weather"}},
		false: {"Off-season", []string{"Cold weather", "Reduced outdoor activity"}},
	},
	CategoryClothingAccessories: {
		true:  {"Holiday & winter fashion", []string{"Holiday gifting", "Winter wardrobe refresh"}},
		false: {"Between-season lull", []string{"Seasonal transition", "Inventory clearance"}},
	},
}

var genericDemandNarrative = map[bool]seasonalNarrative{
	true:  {"Moderate growth", []string{"Market trends", "Consumer behavior", "Economic conditions"}},
	false: {"Stable", []string{"Market trends", "Consumer behavior", "Economic conditions"}},
}

// Forecast 追跡商品ごとに直近の需要を予測
// predicted = round(baseDemand × 季節係数(カテゴリ, 月) × トレンド係数[0.8, 1.2])
func (dfs *DemandForecastService) Forecast(items []models.CatalogItem, now time.Time) []models.DemandForecast {
	forecasts := make([]models.DemandForecast, 0, len(items))
	for _, item := range items {
		forecasts = append(forecasts, dfs.forecastItem(item, now.Month()))
	}
	return forecasts
}

func (dfs *DemandForecastService) forecastItem(item models.CatalogItem, month time.Month) models.DemandForecast {
	category := ParseCategory(item.Category)
	multiplier := ProfileFor(category).SeasonalMultiplier(month)

	trendFactor := dfs.rng.Uniform(0.8, 1.2)
	confidence := dfs.rng.Int(75, 95)

	baseDemand := item.BaseDemand
	if baseDemand < 0 {
		baseDemand = 0
	}
	predicted := int(math.Round(float64(baseDemand) * multiplier * trendFactor))

	narrative := describeDemand(category, predicted > baseDemand)

	factors := make([]string, len(narrative.factors))
	copy(factors, narrative.factors)

	return models.DemandForecast{
		Product:         item.Name,
		Category:        item.Category,
		CurrentDemand:   baseDemand,
		PredictedDemand: predicted,
		Confidence:      confidence,
		Seasonality:     narrative.seasonality,
		Factors:         factors,
	}
}

func describeDemand(category Category, increasing bool) seasonalNarrative {
	if byDirection, ok := demandNarratives[category]; ok {
		return byDirection[increasing]
	}
	return genericDemandNarrative[increasing]
}

// SummarizeForecasts 需要予測のサマリーを計算
func SummarizeForecasts(forecasts []models.DemandForecast) models.DemandForecastSummary {
	var summary models.DemandForecastSummary
	if len(forecasts) == 0 {
		return summary
	}

	total := 0
	for _, f := range forecasts {
		total += f.Confidence
		if f.PredictedDemand > f.CurrentDemand {
			summary.IncreasingCount++
		} else {
			summary.DecreasingCount++
		}
	}
	summary.AvgConfidence = round(float64(total)/float64(len(forecasts)), 1)
	return summary
}

// round 小数点以下 places 桁で四捨五入
func round(value float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(value*scale) / scale
}
