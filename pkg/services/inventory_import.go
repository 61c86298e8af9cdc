package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strconv"
	"strings"

	"bi-decision-engine/pkg/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// ParseInventoryFile アップロードされた .xlsx / .csv から在庫行を読み込む
// 必須列: 商品ID・在庫数。商品名・単価は任意。
func ParseInventoryFile(filename string, r io.Reader) ([]models.InventoryItem, error) {
	rows, err := readRows(filename, r)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 { // ヘッダー + 1行以上
		return nil, inputShapeError("file must contain a header row and at least one data row")
	}

	header := rows[0]
	idCol := findIndex(header, "product_id", "product_code", "sku", "商品ID", "商品コード", "製品ID")
	stockCol := findIndex(header, "current_stock", "stock", "quantity", "在庫数", "在庫")
	nameCol := findIndex(header, "name", "product_name", "product", "商品名", "製品名")
	costCol := findIndex(header, "unit_cost", "cost", "単価", "原価")

	var missing []string
	if idCol == -1 {
		missing = append(missing, "product_id")
	}
	if stockCol == -1 {
		missing = append(missing, "current_stock")
	}
	if len(missing) > 0 {
		log.Printf("❌ [在庫インポート] 必要な列が見つかりません: %v (header=%v)", missing, header)
		return nil, inputShapeError("missing required columns: %s", strings.Join(missing, ", "))
	}

	items := make([]models.InventoryItem, 0, len(rows)-1)
	for i, row := range rows[1:] {
		line := i + 2
		productID := cell(row, idCol)
		if productID == "" {
			continue // 空行
		}

		stock, err := strconv.Atoi(cell(row, stockCol))
		if err != nil || stock < 0 {
			return nil, inputShapeError("row %d: current_stock must be a non-negative integer", line)
		}

		item := models.InventoryItem{
			ProductID:    productID,
			Name:         cell(row, nameCol),
			CurrentStock: stock,
		}
		if raw := cell(row, costCol); raw != "" {
			cost, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, inputShapeError("row %d: unit_cost %q is not a number", line, raw)
			}
			item.UnitCost = decimal.NewNullDecimal(cost)
		}
		items = append(items, item)
	}

	log.Printf("📦 [在庫インポート] %s から %d 件を読み込みました", filename, len(items))
	return items, nil
}

func readRows(filename string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open xlsx: %v", ErrInputShape, err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read sheet rows: %v", ErrInputShape, err)
		}
		return rows, nil
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to parse csv: %v", ErrInputShape, err)
		}
		return rows, nil
	default:
		return nil, inputShapeError("unsupported file type %q; upload .xlsx or .csv", filepath.Ext(filename))
	}
}

// findIndex 候補名のいずれかに一致する列のインデックス（大文字小文字は無視）
func findIndex(header []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, item := range header {
			if strings.EqualFold(strings.TrimSpace(item), candidate) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
