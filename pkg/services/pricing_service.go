package services

import (
	"fmt"
	"strings"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
)

var (
	underpricedThreshold = decimal.NewFromFloat(0.95)
	overpricedThreshold  = decimal.NewFromFloat(1.05)
	underpricedRaise     = decimal.NewFromFloat(0.05)
	overpricedCut        = decimal.NewFromFloat(0.03)
	trendStep            = decimal.NewFromFloat(0.02)
	elasticDamping       = decimal.NewFromFloat(0.5)
	underpricedRatio     = decimal.NewFromFloat(0.9)
	premiumRatio         = decimal.NewFromFloat(1.1)
	hundred              = decimal.NewFromInt(100)
)

// PricingService 競合価格シミュレーションとカテゴリ弾力性に基づく価格推奨サービス
type PricingService struct {
	rng RandomSource
}

// NewPricingService 新しい価格推奨サービスを作成
func NewPricingService(rng RandomSource) *PricingService {
	return &PricingService{rng: rng}
}

// Recommend 商品ごとの価格調整を推奨
func (ps *PricingService) Recommend(items []models.CatalogItem) []models.PricingRecommendation {
	recommendations := make([]models.PricingRecommendation, 0, len(items))
	for _, item := range items {
		recommendations = append(recommendations, ps.recommendItem(item))
	}
	return recommendations
}

func (ps *PricingService) recommendItem(item models.CatalogItem) models.PricingRecommendation {
	profile := ProfileFor(ParseCategory(item.Category))
	price := item.CurrentPrice

	// 価格0（または不正な負値）は割り算をせずに中立値を返す
	if price.Sign() <= 0 {
		return models.PricingRecommendation{
			Product:             item.Name,
			CurrentPrice:        decimal.Zero,
			RecommendedPrice:    decimal.Zero,
			ExpectedIncreasePct: 0,
			Reasoning:           "No current price on record; keep the listing unchanged until a price is set",
			CompetitorAnalysis: models.CompetitorAnalysis{
				AvgCompetitorPrice: decimal.Zero,
				MarketPosition:     models.MarketPositionCompetitive,
				DemandElasticity:   profile.Elasticity,
			},
		}
	}

	// 1. 競合価格のシミュレーション（現在価格の -10% 〜 +20%）
	competitorPrice := price.Mul(decimal.NewFromFloat(1 + ps.rng.Uniform(-0.10, 0.20)))

	// 2. 需要トレンドと競争強度（後者は説明文にのみ使用）
	demandIncreasing := ps.rng.Bool()
	highIntensity := ps.rng.Bool()

	// 3. 調整額を計算
	adjustment := decimal.Zero
	belowCompetitors := price.LessThan(competitorPrice.Mul(underpricedThreshold))
	aboveCompetitors := price.GreaterThan(competitorPrice.Mul(overpricedThreshold))
	if belowCompetitors {
		adjustment = adjustment.Add(price.Mul(underpricedRaise))
	}
	if aboveCompetitors {
		adjustment = adjustment.Sub(price.Mul(overpricedCut))
	}
	if demandIncreasing {
		adjustment = adjustment.Add(price.Mul(trendStep))
	} else {
		adjustment = adjustment.Sub(price.Mul(trendStep))
	}
	if profile.IsElastic() {
		adjustment = adjustment.Mul(elasticDamping)
	}

	// 4. 推奨価格と期待変化率
	recommended := price.Add(adjustment).Round(2)
	increasePct := recommended.Sub(price).Div(price).Mul(hundred).InexactFloat64()

	// 5. マーケットポジション
	position := models.MarketPositionCompetitive
	if competitorPrice.Sign() > 0 {
		ratio := price.Div(competitorPrice)
		if ratio.LessThan(underpricedRatio) {
			position = models.MarketPositionUnderpriced
		} else if ratio.GreaterThan(premiumRatio) {
			position = models.MarketPositionPremium
		}
	}

	avgCompetitorPrice := competitorPrice.Round(2)

	return models.PricingRecommendation{
		Product:             item.Name,
		CurrentPrice:        price,
		RecommendedPrice:    recommended,
		ExpectedIncreasePct: round(increasePct, 2),
		Reasoning: buildPricingReasoning(pricingCauses{
			demandIncreasing: demandIncreasing,
			highIntensity:    highIntensity,
			elastic:          profile.IsElastic(),
			belowCompetitors: belowCompetitors,
			aboveCompetitors: aboveCompetitors,
			competitorPrice:  avgCompetitorPrice,
		}),
		CompetitorAnalysis: models.CompetitorAnalysis{
			AvgCompetitorPrice: avgCompetitorPrice,
			MarketPosition:     position,
			DemandElasticity:   profile.Elasticity,
		},
	}
}

type pricingCauses struct {
	demandIncreasing bool
	highIntensity    bool
	elastic          bool
	belowCompetitors bool
	aboveCompetitors bool
	competitorPrice  decimal.Decimal
}

// buildPricingReasoning 該当する要因フレーズを連結（トレンドは常に含まれるため空にならない）
func buildPricingReasoning(c pricingCauses) string {
	phrases := make([]string, 0, 4)

	if c.demandIncreasing {
		phrases = append(phrases, "Demand is trending upward")
	} else {
		phrases = append(phrases, "Demand is softening")
	}

	if c.elastic {
		phrases = append(phrases, "high price sensitivity in this category halves the adjustment")
	}

	switch {
	case c.belowCompetitors:
		phrases = append(phrases, fmt.Sprintf("priced well below competitors (avg $%s)", c.competitorPrice.StringFixed(2)))
	case c.aboveCompetitors:
		phrases = append(phrases, fmt.Sprintf("priced above competitors (avg $%s)", c.competitorPrice.StringFixed(2)))
	default:
		phrases = append(phrases, fmt.Sprintf("priced in line with competitors (avg $%s)", c.competitorPrice.StringFixed(2)))
	}

	if c.highIntensity {
		phrases = append(phrases, "competitive intensity is high")
	}

	return strings.Join(phrases, "; ")
}

// SummarizePricing 価格推奨のサマリーを計算
func SummarizePricing(recommendations []models.PricingRecommendation) models.PricingSummary {
	var summary models.PricingSummary
	if len(recommendations) == 0 {
		return summary
	}

	total := 0.0
	for _, r := range recommendations {
		switch {
		case r.RecommendedPrice.GreaterThan(r.CurrentPrice):
			summary.PriceIncreases++
		case r.RecommendedPrice.LessThan(r.CurrentPrice):
			summary.PriceDecreases++
		}
		total += r.ExpectedIncreasePct
	}
	summary.AvgPriceChangePct = round(total/float64(len(recommendations)), 2)
	return summary
}
