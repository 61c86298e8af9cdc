package services

import (
	"testing"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecommend_UnderpricedHeadphones(t *testing.T) {
	// 競合価格 = 79.99 * 1.2、需要増・競争激化
	rng := &fixedRandom{uniforms: []float64{1.0}, bools: []bool{true, true}}
	svc := NewPricingService(rng)

	recs := svc.Recommend([]models.CatalogItem{item("Wireless Bluetooth Headphones", "Electronics", 150, "79.99")})

	require.Len(t, recs, 1)
	r := recs[0]
	assert.Equal(t, "85.59", r.RecommendedPrice.StringFixed(2))
	assert.True(t, r.RecommendedPrice.GreaterThan(r.CurrentPrice))
	assert.InDelta(t, 7.0, r.ExpectedIncreasePct, 0.01)
	assert.Equal(t, models.MarketPositionUnderpriced, r.CompetitorAnalysis.MarketPosition)
	assert.Equal(t, "95.99", r.CompetitorAnalysis.AvgCompetitorPrice.StringFixed(2))
	assert.Equal(t, -0.8, r.CompetitorAnalysis.DemandElasticity)
	assert.Contains(t, r.Reasoning, "Demand is trending upward")
	assert.Contains(t, r.Reasoning, "priced well below competitors (avg $95.99)")
	assert.Contains(t, r.Reasoning, "competitive intensity is high")
	assert.NotContains(t, r.Reasoning, "price sensitivity")
}

func TestRecommend_ElasticPremiumClothing(t *testing.T) {
	// 競合価格 = 90、需要減、弾力的カテゴリで調整額は半分
	rng := &fixedRandom{uniforms: []float64{0}, bools: []bool{false, false}}
	svc := NewPricingService(rng)

	r := svc.Recommend([]models.CatalogItem{item("Scarf", "Clothing & Accessories", 120, "100")})[0]

	assert.Equal(t, "97.50", r.RecommendedPrice.StringFixed(2))
	assert.Equal(t, -2.5, r.ExpectedIncreasePct)
	assert.Equal(t, models.MarketPositionPremium, r.CompetitorAnalysis.MarketPosition)
	assert.Contains(t, r.Reasoning, "Demand is softening")
	assert.Contains(t, r.Reasoning, "halves the adjustment")
	assert.Contains(t, r.Reasoning, "priced above competitors (avg $90.00)")
}

func TestRecommend_CompetitivePosition(t *testing.T) {
	rng := &fixedRandom{uniforms: []float64{0.5}, bools: []bool{true}}
	svc := NewPricingService(rng)

	r := svc.Recommend([]models.CatalogItem{item("Planter", "Home & Garden", 60, "50")})[0]

	assert.Equal(t, "51.00", r.RecommendedPrice.StringFixed(2))
	assert.Equal(t, 2.0, r.ExpectedIncreasePct)
	assert.Equal(t, models.MarketPositionCompetitive, r.CompetitorAnalysis.MarketPosition)
	assert.Contains(t, r.Reasoning, "priced in line with competitors")
}

func TestRecommend_ZeroPrice(t *testing.T) {
	rng := &fixedRandom{uniforms: []float64{0.7}, bools: []bool{true, true}}
	svc := NewPricingService(rng)

	r := svc.Recommend([]models.CatalogItem{item("Freebie", "Electronics", 10, "0")})[0]

	assert.True(t, r.RecommendedPrice.IsZero())
	assert.Equal(t, 0.0, r.ExpectedIncreasePct)
	assert.Equal(t, models.MarketPositionCompetitive, r.CompetitorAnalysis.MarketPosition)
	assert.NotEmpty(t, r.Reasoning)
	assert.Len(t, rng.uniforms, 1, "no draws for a zero price")
}

func TestRecommend_SeededIsDeterministic(t *testing.T) {
	items := []models.CatalogItem{
		item("A", "Electronics", 150, "79.99"),
		item("B", "Health & Beauty", 85, "34.99"),
		item("C", "Clothing & Accessories", 120, "24.99"),
	}

	first := NewPricingService(NewRandomSource(42)).Recommend(items)
	second := NewPricingService(NewRandomSource(42)).Recommend(items)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].RecommendedPrice.Equal(second[i].RecommendedPrice))
		assert.Equal(t, first[i].Reasoning, second[i].Reasoning)
		assert.Equal(t, first[i].CompetitorAnalysis.MarketPosition, second[i].CompetitorAnalysis.MarketPosition)
	}
}

func TestRecommend_StaysInBounds(t *testing.T) {
	svc := NewPricingService(NewRandomSource(3))
	items := []models.CatalogItem{item("A", "Electronics", 1, "79.99"), item("B", "Clothing & Accessories", 1, "24.99")}

	for i := 0; i < 200; i++ {
		for _, r := range svc.Recommend(items) {
			assert.True(t, r.RecommendedPrice.Equal(r.RecommendedPrice.Round(2)))
			assert.NotEmpty(t, r.Reasoning)
			ratio := r.CurrentPrice.Div(r.CompetitorAnalysis.AvgCompetitorPrice).InexactFloat64()
			assert.GreaterOrEqual(t, ratio, 0.83)
			assert.LessOrEqual(t, ratio, 1.12)
		}
	}
}

func TestSummarizePricing(t *testing.T) {
	summary := SummarizePricing([]models.PricingRecommendation{
		{CurrentPrice: decimal.NewFromInt(10), RecommendedPrice: decimal.NewFromInt(11), ExpectedIncreasePct: 10},
		{CurrentPrice: decimal.NewFromInt(10), RecommendedPrice: decimal.NewFromInt(9), ExpectedIncreasePct: -10},
		{CurrentPrice: decimal.NewFromInt(10), RecommendedPrice: decimal.NewFromInt(11), ExpectedIncreasePct: 6},
	})

	assert.Equal(t, 2, summary.PriceIncreases)
	assert.Equal(t, 1, summary.PriceDecreases)
	assert.Equal(t, 2.0, summary.AvgPriceChangePct)
}
