package services

import (
	"strings"
	"time"
)

// Category 商品カテゴリ。未登録のカテゴリは CategoryUnknown として既定プロファイルを使う。
type Category int

const (
	CategoryUnknown Category = iota
	CategoryElectronics
	CategoryHealthBeauty
	CategoryHomeGarden
	CategoryClothingAccessories
)

// KnownCategories ルール表に登録済みのカテゴリ
var KnownCategories = []Category{
	CategoryElectronics,
	CategoryHealthBeauty,
	CategoryHomeGarden,
	CategoryClothingAccessories,
}

func (c Category) String() string {
	switch c {
	case CategoryElectronics:
		return "Electronics"
	case CategoryHealthBeauty:
		return "Health & Beauty"
	case CategoryHomeGarden:
		return "Home & Garden"
	case CategoryClothingAccessories:
		return "Clothing & Accessories"
	default:
		return "Unknown"
	}
}

// ParseCategory 表示名からカテゴリを判定（大文字小文字・前後空白は無視）
func ParseCategory(name string) Category {
	name = strings.TrimSpace(name)
	for _, c := range KnownCategories {
		if strings.EqualFold(c.String(), name) {
			return c
		}
	}
	return CategoryUnknown
}

// CategoryProfile カテゴリごとの弾力性と季節ルール
type CategoryProfile struct {
	Category   Category
	Elasticity float64
	seasonal   func(time.Month) float64
}

// SeasonalMultiplier 指定月の季節係数
func (p CategoryProfile) SeasonalMultiplier(month time.Month) float64 {
	if p.seasonal == nil {
		return 1.0
	}
	return p.seasonal(month)
}

// IsElastic 価格調整を減衰させるべき弾力的なカテゴリか
func (p CategoryProfile) IsElastic() bool {
	return -p.Elasticity > 1.2
}

func holidayPeak(peak, base float64) func(time.Month) float64 {
	return func(m time.Month) float64 {
		switch m {
		case time.November, time.December, time.January:
			return peak
		}
		return base
	}
}

// ProfileFor カテゴリのプロファイルを返す（CategoryUnknown は弾力性 -1.0・係数 1.0）
func ProfileFor(c Category) CategoryProfile {
	switch c {
	case CategoryElectronics:
		return CategoryProfile{Category: c, Elasticity: -0.8, seasonal: holidayPeak(1.4, 1.1)}
	case CategoryHealthBeauty:
		return CategoryProfile{Category: c, Elasticity: -0.9, seasonal: func(m time.Month) float64 {
			if m == time.January {
				return 1.3
			}
			return 0.9
		}}
	case CategoryHomeGarden:
		return CategoryProfile{Category: c, Elasticity: -1.2, seasonal: func(m time.Month) float64 {
			if m >= time.March && m <= time.September {
				return 1.2
			}
			return 0.8
		}}
	case CategoryClothingAccessories:
		return CategoryProfile{Category: c, Elasticity: -1.5, seasonal: holidayPeak(1.3, 1.0)}
	default:
		return CategoryProfile{Category: CategoryUnknown, Elasticity: -1.0}
	}
}

// SeasonalMultiplier カテゴリ名と月から季節係数を求める
func SeasonalMultiplier(category string, month time.Month) float64 {
	return ProfileFor(ParseCategory(category)).SeasonalMultiplier(month)
}

// Elasticity カテゴリ名から価格弾力性を求める
func Elasticity(category string) float64 {
	return ProfileFor(ParseCategory(category)).Elasticity
}
