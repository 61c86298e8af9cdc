package main

import (
	"fmt"
	"math/rand"
	"time"

	"bi-decision-engine/pkg/models"

	"github.com/jaswdr/faker"
	"github.com/shopspring/decimal"
)

// syntheticProfile セグメントごとの注文数・購入額・最終購入からの日数の範囲
type syntheticProfile struct {
	ratio            float64
	minOrders        int
	maxOrders        int
	minSpend         int
	maxSpend         int
	maxDaysSinceLast int
}

var syntheticProfiles = []syntheticProfile{
	// VIP
	{ratio: 0.10, minOrders: 12, maxOrders: 40, minSpend: 1000, maxSpend: 4000, maxDaysSinceLast: 45},
	// Regular
	{ratio: 0.40, minOrders: 4, maxOrders: 11, minSpend: 250, maxSpend: 999, maxDaysSinceLast: 120},
	// Occasional
	{ratio: 0.50, minOrders: 1, maxOrders: 3, minSpend: 10, maxSpend: 249, maxDaysSinceLast: 365},
}

// GenerateCustomers n人分の架空の顧客ベースを生成する（seed=0 の場合は毎回異なる）
func GenerateCustomers(n int, seed int64, now time.Time) []models.CustomerRecord {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	fake := faker.NewWithSeed(rand.NewSource(seed))

	customers := make([]models.CustomerRecord, 0, n)
	for i := 0; i < n; i++ {
		profile := pickProfile(float64(fake.IntBetween(0, 99)) / 100)

		last := now.AddDate(0, 0, -fake.IntBetween(0, profile.maxDaysSinceLast))
		first := fake.Time().TimeBetween(now.AddDate(-2, 0, 0), last)

		customers = append(customers, models.CustomerRecord{
			ID:              fmt.Sprintf("cust-%05d", i+1),
			TotalSpend:      decimal.NewFromFloat(fake.Float64(2, profile.minSpend, profile.maxSpend)).Round(2),
			OrderCount:      fake.IntBetween(profile.minOrders, profile.maxOrders),
			FirstPurchaseAt: first,
			LastPurchaseAt:  last,
		})
	}
	return customers
}

func pickProfile(r float64) syntheticProfile {
	cumulative := 0.0
	for _, p := range syntheticProfiles {
		cumulative += p.ratio
		if r < cumulative {
			return p
		}
	}
	return syntheticProfiles[len(syntheticProfiles)-1]
}
