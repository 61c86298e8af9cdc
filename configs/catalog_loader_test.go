package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCatalog_Embedded(t *testing.T) {
	catalog, err := LoadCatalog("")
	require.NoError(t, err)

	require.Len(t, catalog.Items, 5)
	headphones := catalog.Items[0]
	assert.Equal(t, "Wireless Bluetooth Headphones", headphones.Name)
	assert.Equal(t, "Electronics", headphones.Category)
	assert.Equal(t, 150, headphones.BaseDemand)
	assert.True(t, headphones.CurrentPrice.Equal(decimal.RequireFromString("79.99")))

	assert.Equal(t, []string{"Wireless Bluetooth Headphones", "Smart Fitness Tracker", "Organic Face Serum"}, catalog.RecommendedProducts)
	assert.True(t, catalog.DefaultUnitCost.Equal(decimal.NewFromInt(25)))
}

func TestLoadCatalog_FromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	data := []byte(`
items:
  - name: Desk Lamp
    category: home & garden
    base_demand: 40
    current_price: "19.50"
`)
	require.NoError(t, os.WriteFile(path, data, 0o600))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Items, 1)
	assert.True(t, catalog.Items[0].CurrentPrice.Equal(decimal.RequireFromString("19.5")))
	assert.True(t, catalog.DefaultUnitCost.IsZero())
	assert.Empty(t, catalog.RecommendedProducts)
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestParseCatalog_Invalid(t *testing.T) {
	tests := map[string]string{
		"empty":          `items: []`,
		"no name":        "items:\n  - category: Electronics\n    base_demand: 1\n    current_price: \"1\"",
		"zero demand":    "items:\n  - name: A\n    base_demand: 0\n    current_price: \"1\"",
		"zero price":     "items:\n  - name: A\n    base_demand: 1\n    current_price: \"0\"",
		"bad price":      "items:\n  - name: A\n    base_demand: 1\n    current_price: cheap",
		"bad unit cost":  "items:\n  - name: A\n    base_demand: 1\n    current_price: \"1\"\ndefault_unit_cost: \"-5\"",
		"not yaml shape": `items: "nope"`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}
