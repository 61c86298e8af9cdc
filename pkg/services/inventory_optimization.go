package services

import (
	"math"
	"strings"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
)

// DefaultUnitCost 単価未指定時の既定値（デモ用のヒューリスティック）
var DefaultUnitCost = decimal.NewFromInt(25)

const (
	inventoryDemandMin = 50
	inventoryDemandMax = 250 // 上限は含まない
	safetyStockFactor  = 1.2
	highUrgencyFactor  = 1.5
)

// 在庫アクション
const (
	InventoryActionIncrease = "increase"
	InventoryActionDecrease = "decrease"
	InventoryActionMaintain = "maintain"
)

// 在庫の緊急度
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
)

// InventoryOptimizer 需要予測にバッファを上乗せして適正在庫を求めるサービス
type InventoryOptimizer struct {
	rng             RandomSource
	defaultUnitCost decimal.Decimal
}

// NewInventoryOptimizer 新しい在庫最適化サービスを作成
func NewInventoryOptimizer(rng RandomSource, defaultUnitCost decimal.Decimal) *InventoryOptimizer {
	if defaultUnitCost.Sign() <= 0 {
		defaultUnitCost = DefaultUnitCost
	}
	return &InventoryOptimizer{rng: rng, defaultUnitCost: defaultUnitCost}
}

// ValidateInventoryItems 在庫行の必須項目と値の範囲を検証
func ValidateInventoryItems(items []models.InventoryItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.ProductID) == "" {
			return inputShapeError("products[%d].product_id is required", i)
		}
		if item.CurrentStock < 0 {
			return inputShapeError("products[%d].current_stock must not be negative", i)
		}
	}
	return nil
}

// Optimize 商品ごとの適正在庫を計算する。空の入力には空の結果を返す。
func (o *InventoryOptimizer) Optimize(items []models.InventoryItem) ([]models.InventoryOptimization, error) {
	if err := ValidateInventoryItems(items); err != nil {
		return nil, err
	}
	results := make([]models.InventoryOptimization, 0, len(items))
	for _, item := range items {
		results = append(results, o.optimizeItem(item))
	}
	return results, nil
}

func (o *InventoryOptimizer) optimizeItem(item models.InventoryItem) models.InventoryOptimization {
	demand := o.rng.Int(inventoryDemandMin, inventoryDemandMax-1)
	optimal := int(math.Round(float64(demand) * safetyStockFactor))

	action := InventoryActionMaintain
	switch {
	case optimal > item.CurrentStock:
		action = InventoryActionIncrease
	case optimal < item.CurrentStock:
		action = InventoryActionDecrease
	}

	urgency := UrgencyMedium
	if float64(optimal) > highUrgencyFactor*float64(item.CurrentStock) {
		urgency = UrgencyHigh
	}

	unitCost := o.defaultUnitCost
	if item.UnitCost.Valid && item.UnitCost.Decimal.Sign() > 0 {
		unitCost = item.UnitCost.Decimal
	}

	gap := optimal - item.CurrentStock
	if gap < 0 {
		gap = -gap
	}

	return models.InventoryOptimization{
		ProductID:      item.ProductID,
		Name:           item.Name,
		CurrentStock:   item.CurrentStock,
		DemandForecast: demand,
		OptimalStock:   optimal,
		Action:         action,
		Urgency:        urgency,
		UnitCost:       unitCost,
		CostImpact:     unitCost.Mul(decimal.NewFromInt(int64(gap))).Round(2),
	}
}

// SummarizeInventory 在庫最適化のサマリーを計算。予算が指定されていれば増分コストと比較する。
func SummarizeInventory(optimizations []models.InventoryOptimization, constraints models.InventoryConstraints) models.InventorySummary {
	summary := models.InventorySummary{
		TotalProducts:   len(optimizations),
		TotalCostImpact: decimal.Zero,
	}

	increaseCost := decimal.Zero
	for _, o := range optimizations {
		if o.Action == InventoryActionIncrease {
			summary.IncreaseCount++
			increaseCost = increaseCost.Add(o.CostImpact)
		}
		if o.Urgency == UrgencyHigh {
			summary.HighUrgencyCount++
		}
		summary.TotalCostImpact = summary.TotalCostImpact.Add(o.CostImpact)
	}

	if constraints.MaxBudget.Valid {
		within := increaseCost.LessThanOrEqual(constraints.MaxBudget.Decimal)
		summary.WithinBudget = &within
	}
	return summary
}
