package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// catalogFile は catalog.yaml の構造を定義
type catalogFile struct {
	Items []struct {
		Name         string `yaml:"name"`
		Category     string `yaml:"category"`
		BaseDemand   int    `yaml:"base_demand"`
		CurrentPrice string `yaml:"current_price"`
	} `yaml:"items"`
	RecommendedProducts []string `yaml:"recommended_products"`
	DefaultUnitCost     string   `yaml:"default_unit_cost"`
}

// Catalog 起動時に読み込む静的な商品カタログ
type Catalog struct {
	Items               []models.CatalogItem
	RecommendedProducts []string
	// DefaultUnitCost 指定がなければゼロ値。DEFAULT_UNIT_COST が未設定の場合に使われる。
	DefaultUnitCost decimal.Decimal
}

// LoadCatalog path のYAMLを読み込む。path が空なら埋め込みのカタログを使う。
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("カタログファイルの読み込みに失敗: %w", err)
		}
	}
	return ParseCatalog(data)
}

// ParseCatalog YAMLをパースして検証する
func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}
	if len(file.Items) == 0 {
		return nil, fmt.Errorf("catalog must contain at least one item")
	}

	catalog := &Catalog{
		Items:               make([]models.CatalogItem, 0, len(file.Items)),
		RecommendedProducts: file.RecommendedProducts,
	}

	for i, item := range file.Items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return nil, fmt.Errorf("items[%d]: name is required", i)
		}
		if item.BaseDemand <= 0 {
			return nil, fmt.Errorf("items[%d] %q: base_demand must be positive", i, name)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(item.CurrentPrice))
		if err != nil || price.Sign() <= 0 {
			return nil, fmt.Errorf("items[%d] %q: current_price must be a positive number", i, name)
		}
		catalog.Items = append(catalog.Items, models.CatalogItem{
			Name:         name,
			Category:     strings.TrimSpace(item.Category),
			BaseDemand:   item.BaseDemand,
			CurrentPrice: price,
		})
	}

	if raw := strings.TrimSpace(file.DefaultUnitCost); raw != "" {
		cost, err := decimal.NewFromString(raw)
		if err != nil || cost.Sign() <= 0 {
			return nil, fmt.Errorf("default_unit_cost must be a positive number")
		}
		catalog.DefaultUnitCost = cost
	}

	return catalog, nil
}
