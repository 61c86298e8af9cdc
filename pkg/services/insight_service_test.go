package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var facadeNow = time.Date(2025, time.November, 3, 8, 0, 0, 0, time.UTC)

func testCatalog() []models.CatalogItem {
	return []models.CatalogItem{
		item("Wireless Bluetooth Headphones", "Electronics", 150, "79.99"),
		item("Organic Face Serum", "Health & Beauty", 85, "34.99"),
		item("Smart Fitness Tracker", "Electronics", 95, "129.99"),
		item("Cotton T-Shirt", "Clothing & Accessories", 120, "24.99"),
		item("Garden Planter Set", "Home & Garden", 60, "49.99"),
	}
}

func newTestInsightService(narrative *NarrativeService) *InsightService {
	return NewInsightService(NewRandomSource(7), narrative, InsightServiceOptions{
		Items: testCatalog(),
		Now:   func() time.Time { return facadeNow },
	})
}

func TestNormalizeTimeframe(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"", DefaultTimeframe, false},
		{"7d", "7d", false},
		{" 12W ", "12w", false},
		{"1y", "1y", false},
		{"0d", "", true},
		{"30", "", true},
		{"1000d", "", true},
		{"thirty days", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTimeframe(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInputShape)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetInsights(t *testing.T) {
	svc := newTestInsightService(nil)

	resp, err := svc.GetInsights(context.Background(), "")

	require.NoError(t, err)
	assert.Equal(t, DefaultTimeframe, resp.Timeframe)
	require.Len(t, resp.Insights, 5)
	assert.Equal(t, 5, resp.Summary.TotalInsights)
	assert.Equal(t, 2, resp.Summary.HighImpactCount)
	assert.Equal(t, 82.4, resp.Summary.AverageConfidence)
	assert.Equal(t, facadeNow, resp.GeneratedAt)
	assert.Equal(t, NarrativeSourceFallback, resp.Narrative.Source)
	assert.Equal(t, fallbackNarrative(TopicOverview), resp.Narrative.Text)
	assert.Contains(t, resp.Insights[0].Description, "1.4x")

	types := map[models.InsightType]bool{}
	for _, in := range resp.Insights {
		assert.NotEmpty(t, in.ID)
		assert.GreaterOrEqual(t, in.Confidence, 0)
		assert.LessOrEqual(t, in.Confidence, 100)
		types[in.Type] = true
	}
	assert.Len(t, types, 5)
}

func TestGetInsights_InvalidTimeframe(t *testing.T) {
	svc := newTestInsightService(nil)

	_, err := svc.GetInsights(context.Background(), "forever")

	assert.ErrorIs(t, err, ErrInputShape)
}

func TestGetDemandForecast(t *testing.T) {
	svc := newTestInsightService(nil)

	resp, err := svc.GetDemandForecast(context.Background(), "7d")

	require.NoError(t, err)
	assert.Equal(t, "7d", resp.Timeframe)
	require.Len(t, resp.Forecasts, 5)
	assert.Equal(t, 5, resp.Summary.IncreasingCount+resp.Summary.DecreasingCount)
	assert.Equal(t, models.InsightTypeDemand, resp.Insight.Type)
	assert.Equal(t, fallbackNarrative(TopicDemand), resp.Narrative.Text)
}

func TestGetPricingRecommendations(t *testing.T) {
	svc := newTestInsightService(nil)

	resp, err := svc.GetPricingRecommendations(context.Background())

	require.NoError(t, err)
	require.Len(t, resp.Recommendations, 5)
	for _, r := range resp.Recommendations {
		assert.NotEmpty(t, r.Reasoning)
	}
	assert.Equal(t, models.InsightTypePricing, resp.Insight.Type)
}

func TestGetCustomerAnalytics(t *testing.T) {
	svc := newTestInsightService(nil)

	demo, err := svc.GetCustomerAnalytics(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, demo.Analytics.Illustrative)
	assert.Equal(t, illustrativeDeltas, demo.Predictions)
	assert.Contains(t, demo.Insight.Description, "illustrative")

	base := []models.CustomerRecord{
		{ID: "c1", TotalSpend: decimal.NewFromInt(1200), OrderCount: 14, LastPurchaseAt: facadeNow.Add(-48 * time.Hour)},
	}
	live, err := svc.GetCustomerAnalytics(context.Background(), base)
	require.NoError(t, err)
	assert.False(t, live.Analytics.Illustrative)
	assert.Equal(t, 1, live.Analytics.TotalCustomers)
}

func TestGetCustomerAnalytics_InvalidRecords(t *testing.T) {
	svc := newTestInsightService(nil)

	_, err := svc.GetCustomerAnalytics(context.Background(), []models.CustomerRecord{{ID: ""}})
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = svc.GetCustomerAnalytics(context.Background(), []models.CustomerRecord{{ID: "x", TotalSpend: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestGetFraudAlerts(t *testing.T) {
	svc := NewInsightService(NewRandomSource(3), nil, InsightServiceOptions{
		Items:           testCatalog(),
		FraudAlertCount: 5,
		Now:             func() time.Time { return facadeNow },
	})

	resp, err := svc.GetFraudAlerts(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, resp.Alerts, 5)
	assert.Equal(t, 5, resp.Summary.TotalAlerts)

	resp, err = svc.GetFraudAlerts(context.Background(), MaxFraudAlertCount)
	require.NoError(t, err)
	assert.Len(t, resp.Alerts, MaxFraudAlertCount)

	_, err = svc.GetFraudAlerts(context.Background(), MaxFraudAlertCount+1)
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = svc.GetFraudAlerts(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestGetFraudAlerts_SlowGeneratorDoesNotDelayResponse(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	gen := &stubGenerator{fn: func(context.Context, int32) (string, error) {
		select {
		case <-release:
		case <-time.After(2 * time.Second):
		}
		return "too late", nil
	}}
	svc := newTestInsightService(NewNarrativeService(gen, nil, 50*time.Millisecond))

	start := time.Now()
	resp, err := svc.GetFraudAlerts(context.Background(), 3)

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Len(t, resp.Alerts, 3)
	assert.Equal(t, NarrativeSourceFallback, resp.Narrative.Source)
}

func TestGetCustomerPrediction(t *testing.T) {
	svc := newTestInsightService(nil)

	resp, err := svc.GetCustomerPrediction(context.Background(), "cust-1")

	require.NoError(t, err)
	assert.Equal(t, "cust-1", resp.Prediction.CustomerID)
	assert.Equal(t, InterventionFor(resp.Prediction.ChurnProbability), resp.Recommendations.Intervention)
	assert.NotEmpty(t, resp.Recommendations.Actions)
	assert.Equal(t, DefaultRecommendedProducts, resp.Prediction.RecommendedProducts)

	_, err = svc.GetCustomerPrediction(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestRecommendationsFor(t *testing.T) {
	contact := time.Date(2025, time.January, 2, 15, 0, 0, 0, time.UTC)

	recs := recommendationsFor(models.CustomerPrediction{
		ChurnProbability:        0.25,
		NextPurchaseProbability: 0.8,
		RecommendedProducts:     []string{"Serum"},
		OptimalContactTime:      contact,
		PreferredChannel:        models.ChannelEmail,
	})

	assert.Equal(t, "high_priority", recs.Intervention)
	assert.Equal(t, []string{
		"Contact via email at 2025-01-02T15:00:00Z",
		"Offer a personalised retention incentive",
		"Feature Serum in the next message",
	}, recs.Actions)

	standard := recommendationsFor(models.CustomerPrediction{ChurnProbability: 0.1, NextPurchaseProbability: 0.3})
	assert.Equal(t, "standard", standard.Intervention)
	assert.Len(t, standard.Actions, 1)
}

func TestOptimizeInventory(t *testing.T) {
	svc := newTestInsightService(nil)

	resp, err := svc.OptimizeInventory(context.Background(), []models.InventoryItem{
		{ProductID: "SKU-1", CurrentStock: 0},
		{ProductID: "SKU-2", CurrentStock: 1000},
	}, models.InventoryConstraints{MaxBudget: decimal.NewNullDecimal(decimal.NewFromInt(1_000_000))})

	require.NoError(t, err)
	require.Len(t, resp.Optimizations, 2)
	assert.Equal(t, InventoryActionIncrease, resp.Optimizations[0].Action)
	assert.Equal(t, InventoryActionDecrease, resp.Optimizations[1].Action)
	require.NotNil(t, resp.Summary.WithinBudget)
	assert.True(t, *resp.Summary.WithinBudget)
	assert.Equal(t, models.ImpactHigh, resp.Insight.Impact)

	empty, err := svc.OptimizeInventory(context.Background(), nil, models.InventoryConstraints{})
	require.NoError(t, err)
	assert.Empty(t, empty.Optimizations)
	assert.Equal(t, 0, empty.Summary.TotalProducts)

	_, err = svc.OptimizeInventory(context.Background(), nil, models.InventoryConstraints{MaxBudget: decimal.NewNullDecimal(decimal.NewFromInt(-5))})
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestOptimizeInventory_InvalidItemsSkipNarrative(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, int32) (string, error) {
		return "unused", nil
	}}
	svc := newTestInsightService(NewNarrativeService(gen, nil, time.Second))

	cases := map[string][]models.InventoryItem{
		"missing product id": {{ProductID: "SKU-1", CurrentStock: 3}, {ProductID: " ", CurrentStock: 1}},
		"negative stock":     {{ProductID: "SKU-1", CurrentStock: -1}},
	}
	for name, items := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.OptimizeInventory(context.Background(), items, models.InventoryConstraints{})
			assert.ErrorIs(t, err, ErrInputShape)
		})
	}
	assert.Equal(t, 0, gen.Calls())
}

func TestValidateInventoryItems(t *testing.T) {
	assert.NoError(t, ValidateInventoryItems(nil))
	assert.NoError(t, ValidateInventoryItems([]models.InventoryItem{{ProductID: "SKU-1"}}))

	err := ValidateInventoryItems([]models.InventoryItem{{ProductID: "SKU-1"}, {ProductID: ""}})
	require.ErrorIs(t, err, ErrInputShape)
	assert.Contains(t, err.Error(), "products[1].product_id")
}

func TestInsightService_NarrativeFailuresNeverFailRequests(t *testing.T) {
	generators := map[string]NarrativeGenerator{
		"error": &stubGenerator{fn: func(context.Context, int32) (string, error) {
			return "", errors.New("unavailable")
		}},
		"panic": &stubGenerator{fn: func(context.Context, int32) (string, error) {
			panic("generator exploded")
		}},
		"slow": &stubGenerator{fn: func(ctx context.Context, _ int32) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		}},
	}

	for name, gen := range generators {
		t.Run(name, func(t *testing.T) {
			svc := newTestInsightService(NewNarrativeService(gen, nil, 20*time.Millisecond))
			ctx := context.Background()

			insights, err := svc.GetInsights(ctx, "30d")
			require.NoError(t, err)
			assert.Equal(t, NarrativeSourceFallback, insights.Narrative.Source)

			pricing, err := svc.GetPricingRecommendations(ctx)
			require.NoError(t, err)
			assert.Equal(t, fallbackNarrative(TopicPricing), pricing.Narrative.Text)

			fraud, err := svc.GetFraudAlerts(ctx, 2)
			require.NoError(t, err)
			assert.Len(t, fraud.Alerts, 2)
		})
	}
}

func TestInsightService_GeneratedNarrative(t *testing.T) {
	gen := &stubGenerator{fn: func(context.Context, int32) (string, error) {
		return "Generated summary.", nil
	}}
	svc := newTestInsightService(NewNarrativeService(gen, nil, time.Second))

	resp, err := svc.GetDemandForecast(context.Background(), "30d")

	require.NoError(t, err)
	assert.Equal(t, "Generated summary.", resp.Narrative.Text)
	assert.Equal(t, NarrativeSourceGenerated, resp.Narrative.Source)
}

func TestInsightService_SeededCallsAreReproducible(t *testing.T) {
	first, err := newTestInsightService(nil).GetPricingRecommendations(context.Background())
	require.NoError(t, err)
	second, err := newTestInsightService(nil).GetPricingRecommendations(context.Background())
	require.NoError(t, err)

	for i := range first.Recommendations {
		assert.True(t, first.Recommendations[i].RecommendedPrice.Equal(second.Recommendations[i].RecommendedPrice))
	}
}

func TestSettings(t *testing.T) {
	svc := newTestInsightService(nil)

	settings := svc.Settings()

	require.Len(t, settings.Categories, len(KnownCategories))
	assert.Equal(t, "Electronics", settings.Categories[0].Category)
	assert.Equal(t, 1.4, settings.Categories[0].CurrentMultiplier)
	assert.False(t, settings.Categories[0].PriceSensitive)
	assert.True(t, settings.Categories[3].PriceSensitive)
	assert.Len(t, settings.TrackedProducts, 5)
	assert.Equal(t, "25", settings.DefaultUnitCost.String())
	assert.Equal(t, DefaultFraudAlertCount, settings.DefaultFraudAlertCount)
	assert.Equal(t, MaxFraudAlertCount, settings.MaxFraudAlertCount)
	assert.False(t, settings.NarrativeEnabled)
	assert.NotEmpty(t, settings.Notes)
}
