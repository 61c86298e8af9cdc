package handlers

import (
	"net/http"
	"strings"

	"bi-decision-engine/pkg/models"
	"bi-decision-engine/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// InsightHandler BI インサイトAPIのハンドラ
type InsightHandler struct {
	service *services.InsightService
}

// NewInsightHandler 新しいインサイトハンドラを作成
func NewInsightHandler(service *services.InsightService) *InsightHandler {
	return &InsightHandler{service: service}
}

// GetInsights 横断インサイト一覧を取得
func (h *InsightHandler) GetInsights(c *gin.Context) {
	resp, err := h.service.GetInsights(c.Request.Context(), c.Query("timeframe"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"timeframe":    resp.Timeframe,
		"insights":     resp.Insights,
		"summary":      resp.Summary,
		"narrative":    resp.Narrative,
		"generated_at": resp.GeneratedAt,
	})
}

// GetDemandForecast 追跡商品の需要予測を取得
func (h *InsightHandler) GetDemandForecast(c *gin.Context) {
	resp, err := h.service.GetDemandForecast(c.Request.Context(), c.Query("timeframe"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"timeframe":    resp.Timeframe,
		"forecasts":    resp.Forecasts,
		"summary":      resp.Summary,
		"insight":      resp.Insight,
		"narrative":    resp.Narrative,
		"generated_at": resp.GeneratedAt,
	})
}

// GetPricingRecommendations 価格推奨を取得
func (h *InsightHandler) GetPricingRecommendations(c *gin.Context) {
	resp, err := h.service.GetPricingRecommendations(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"recommendations": resp.Recommendations,
		"summary":         resp.Summary,
		"insight":         resp.Insight,
		"narrative":       resp.Narrative,
		"generated_at":    resp.GeneratedAt,
	})
}

// GetCustomerAnalytics 顧客分析（入力なしのためデモ用スナップショット）
func (h *InsightHandler) GetCustomerAnalytics(c *gin.Context) {
	h.customerAnalytics(c, nil)
}

// AnalyzeCustomers リクエストボディの顧客ベースを集計
func (h *InsightHandler) AnalyzeCustomers(c *gin.Context) {
	var req models.CustomerAnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.customerAnalytics(c, req.Customers)
}

func (h *InsightHandler) customerAnalytics(c *gin.Context, base []models.CustomerRecord) {
	resp, err := h.service.GetCustomerAnalytics(c.Request.Context(), base)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"analytics":    resp.Analytics,
		"predictions":  resp.Predictions,
		"insight":      resp.Insight,
		"narrative":    resp.Narrative,
		"generated_at": resp.GeneratedAt,
	})
}

// GetFraudAlerts 不正アラートを取得（?count= で件数指定）
func (h *InsightHandler) GetFraudAlerts(c *gin.Context) {
	count, err := parseCount(c.Query("count"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.service.GetFraudAlerts(c.Request.Context(), count)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"alerts":       resp.Alerts,
		"summary":      resp.Summary,
		"insight":      resp.Insight,
		"narrative":    resp.Narrative,
		"generated_at": resp.GeneratedAt,
	})
}

// GetCustomerPrediction 顧客1件の行動予測を取得
func (h *InsightHandler) GetCustomerPrediction(c *gin.Context) {
	resp, err := h.service.GetCustomerPrediction(c.Request.Context(), c.Param("customerId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"prediction":      resp.Prediction,
		"recommendations": resp.Recommendations,
		"narrative":       resp.Narrative,
		"generated_at":    resp.GeneratedAt,
	})
}

// OptimizeInventory JSONで渡された在庫の適正量を計算
func (h *InsightHandler) OptimizeInventory(c *gin.Context) {
	var req models.InventoryOptimizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}
	h.optimizeInventory(c, req.Products, req.Constraints)
}

// UploadInventory .xlsx / .csv の在庫ファイルから適正量を計算
func (h *InsightHandler) UploadInventory(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 10<<20) // 10MB limit

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "file is required (multipart field \"file\")"})
		return
	}

	var constraints models.InventoryConstraints
	if raw := strings.TrimSpace(c.PostForm("max_budget")); raw != "" {
		budget, err := decimal.NewFromString(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "max_budget must be a number"})
			return
		}
		constraints.MaxBudget = decimal.NewNullDecimal(budget)
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	items, err := services.ParseInventoryFile(fileHeader.Filename, file)
	if err != nil {
		respondError(c, err)
		return
	}
	h.optimizeInventory(c, items, constraints)
}

func (h *InsightHandler) optimizeInventory(c *gin.Context, items []models.InventoryItem, constraints models.InventoryConstraints) {
	resp, err := h.service.OptimizeInventory(c.Request.Context(), items, constraints)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"optimizations": resp.Optimizations,
		"summary":       resp.Summary,
		"insight":       resp.Insight,
		"narrative":     resp.Narrative,
		"generated_at":  resp.GeneratedAt,
	})
}

// GetSettings カテゴリ設定と既定値を取得
func (h *InsightHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.service.Settings(),
	})
}
