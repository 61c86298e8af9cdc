package services

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseInventoryFile_CSV(t *testing.T) {
	data := "product_id,name,current_stock,unit_cost\n" +
		"SKU-1,Headphones,40,31.50\n" +
		",Blank row,10,\n" +
		"SKU-2,Tracker,15,\n"

	items, err := ParseInventoryFile("stock.csv", strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "SKU-1", items[0].ProductID)
	assert.Equal(t, "Headphones", items[0].Name)
	assert.Equal(t, 40, items[0].CurrentStock)
	require.True(t, items[0].UnitCost.Valid)
	assert.Equal(t, "31.50", items[0].UnitCost.Decimal.StringFixed(2))
	assert.False(t, items[1].UnitCost.Valid)
}

func TestParseInventoryFile_JapaneseHeaders(t *testing.T) {
	data := "商品コード,商品名,在庫数\nA-100,フェイスセラム,12\n"

	items, err := ParseInventoryFile("在庫.CSV", strings.NewReader(data))

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "A-100", items[0].ProductID)
	assert.Equal(t, "フェイスセラム", items[0].Name)
	assert.Equal(t, 12, items[0].CurrentStock)
}

func TestParseInventoryFile_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		data     string
	}{
		{"missing stock column", "a.csv", "product_id,name\nSKU-1,x\n"},
		{"bad stock value", "a.csv", "product_id,current_stock\nSKU-1,many\n"},
		{"negative stock", "a.csv", "product_id,current_stock\nSKU-1,-3\n"},
		{"bad cost", "a.csv", "product_id,current_stock,unit_cost\nSKU-1,3,cheap\n"},
		{"unsupported extension", "a.txt", "product_id,current_stock\nSKU-1,3\n"},
		{"empty file", "a.csv", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseInventoryFile(tt.filename, strings.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrInputShape)
		})
	}
}

func TestParseInventoryFile_XLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"SKU", "Product", "Stock", "Cost"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"X-1", "Planter", 7, "12.25"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"X-2", "Trowel", 30}))

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	items, err := ParseInventoryFile("inventory.xlsx", bytes.NewReader(buf.Bytes()))

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "X-1", items[0].ProductID)
	assert.Equal(t, 7, items[0].CurrentStock)
	assert.Equal(t, "12.25", items[0].UnitCost.Decimal.StringFixed(2))
	assert.Equal(t, "Trowel", items[1].Name)
	assert.False(t, items[1].UnitCost.Valid)
}
