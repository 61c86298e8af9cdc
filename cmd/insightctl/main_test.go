package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_API_KEY", "REDIS_HOST", "CATALOG_PATH", "RANDOM_SEED", "FRAUD_ALERT_COUNT"} {
		t.Setenv(key, "")
	}
}

func execute(t *testing.T, args ...string) (map[string]interface{}, error) {
	t.Helper()
	isolateEnv(t)

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		return nil, err
	}
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &body), out.String())
	return body, nil
}

func TestFraudCommand(t *testing.T) {
	body, err := execute(t, "fraud", "--count", "4", "--seed", "11", "--no-narrative")
	require.NoError(t, err)

	alerts := body["alerts"].([]interface{})
	assert.Len(t, alerts, 4)
	assert.Equal(t, "fallback", body["narrative"].(map[string]interface{})["source"])
}

func TestFraudCommand_CountOutOfRange(t *testing.T) {
	_, err := execute(t, "fraud", "--count", "51", "--no-narrative")
	assert.Error(t, err)
}

func TestForecastCommand(t *testing.T) {
	body, err := execute(t, "forecast", "--timeframe", "12w", "--seed", "5", "--no-narrative")
	require.NoError(t, err)

	assert.Equal(t, "12w", body["timeframe"])
	assert.Len(t, body["forecasts"].([]interface{}), 5)
}

func TestForecastCommand_BadTimeframe(t *testing.T) {
	_, err := execute(t, "forecast", "--timeframe", "next quarter", "--no-narrative")
	assert.Error(t, err)
}

func TestPredictCommand(t *testing.T) {
	body, err := execute(t, "predict", "cust-1", "--seed", "9", "--no-narrative")
	require.NoError(t, err)

	prediction := body["prediction"].(map[string]interface{})
	assert.Equal(t, "cust-1", prediction["customer_id"])

	_, err = execute(t, "predict")
	assert.Error(t, err, "customer id argument is required")
}

func TestCustomersCommand(t *testing.T) {
	body, err := execute(t, "customers", "--no-narrative")
	require.NoError(t, err)
	assert.Equal(t, true, body["analytics"].(map[string]interface{})["illustrative"])

	body, err = execute(t, "customers", "--synthetic", "40", "--seed", "3", "--no-narrative")
	require.NoError(t, err)
	analytics := body["analytics"].(map[string]interface{})
	assert.EqualValues(t, 40, analytics["total_customers"])
	assert.Equal(t, false, analytics["illustrative"])
}

func TestInventoryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stock.csv")
	require.NoError(t, os.WriteFile(path, []byte("product_id,name,current_stock,unit_cost\nSKU-1,Lamp,10,4.50\nSKU-2,Rug,500,\n"), 0o600))

	body, err := execute(t, "inventory", "--file", path, "--max-budget", "100000", "--seed", "2", "--no-narrative")
	require.NoError(t, err)

	assert.Len(t, body["optimizations"].([]interface{}), 2)
	assert.Equal(t, true, body["summary"].(map[string]interface{})["within_budget"])
}

func TestGenerateCustomers(t *testing.T) {
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	customers := GenerateCustomers(200, 42, now)
	require.Len(t, customers, 200)

	for _, c := range customers {
		assert.NotEmpty(t, c.ID)
		assert.GreaterOrEqual(t, c.OrderCount, 1)
		assert.True(t, c.TotalSpend.IsPositive())
		assert.False(t, c.LastPurchaseAt.After(now))
		assert.False(t, c.FirstPurchaseAt.After(c.LastPurchaseAt))
	}

	again := GenerateCustomers(200, 42, now)
	assert.Equal(t, customers[17].TotalSpend.String(), again[17].TotalSpend.String(), "same seed gives the same base")
	assert.Equal(t, customers[17].OrderCount, again[17].OrderCount)
}

func TestPickProfile(t *testing.T) {
	assert.Equal(t, 12, pickProfile(0.05).minOrders)
	assert.Equal(t, 4, pickProfile(0.10).minOrders)
	assert.Equal(t, 4, pickProfile(0.49).minOrders)
	assert.Equal(t, 1, pickProfile(0.50).minOrders)
	assert.Equal(t, 1, pickProfile(0.99).minOrders)
}
