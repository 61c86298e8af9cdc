package handlers

import (
	"log"
	"net/http"

	"bi-decision-engine/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterOptions ルーター構築に必要な依存関係
type RouterOptions struct {
	APIKey     string
	Insights   *services.InsightService
	Monitoring *services.MonitoringService
	Admin      *AdminHandler
}

// NewRouter ミドルウェアを登録したGinエンジンを作成し、ルートを登録します。
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger())
	r.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Printf("🔥 [recovery] %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
	}))
	if opts.Monitoring != nil {
		r.Use(opts.Monitoring.LoggingMiddleware())
	}

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-API-KEY")
	r.Use(cors.New(corsConfig))

	RegisterRoutes(r, opts)
	return r
}

// APIKeyMiddleware X-API-KEY ヘッダーを検証します（キー未設定の場合は素通し）。
func APIKeyMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		if c.GetHeader("X-API-KEY") != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RegisterRoutes すべてのルートを登録します。
func RegisterRoutes(r *gin.Engine, opts RouterOptions) {
	admin := opts.Admin
	if admin == nil {
		admin = NewAdminHandler("", "")
	}
	insightHandler := NewInsightHandler(opts.Insights)

	// ヘルスチェックエンドポイント
	r.GET("/health", admin.HealthCheck)

	v1 := r.Group("/api/v1")
	v1.Use(APIKeyMiddleware(opts.APIKey))
	{
		// 管理者向けAPI
		adminGroup := v1.Group("/admin")
		{
			adminGroup.GET("/health-status", admin.GetHealthStatus)
			adminGroup.POST("/maintenance/start", admin.StartMaintenance)
			adminGroup.POST("/maintenance/stop", admin.StopMaintenance)
		}

		// モニタリングAPI
		if opts.Monitoring != nil {
			monitoringHandler := NewMonitoringHandler(opts.Monitoring)
			v1.GET("/monitoring/logs", monitoringHandler.GetLogs)
		}

		// BI インサイトAPI
		bi := v1.Group("/bi")
		bi.Use(admin.MaintenanceMiddleware())
		{
			bi.GET("/insights", insightHandler.GetInsights)
			bi.GET("/demand-forecast", insightHandler.GetDemandForecast)
			bi.GET("/pricing-recommendations", insightHandler.GetPricingRecommendations)
			bi.GET("/customer-analytics", insightHandler.GetCustomerAnalytics)
			bi.POST("/customer-analytics", insightHandler.AnalyzeCustomers)
			bi.GET("/fraud-alerts", insightHandler.GetFraudAlerts)
			bi.GET("/customer-prediction/:customerId", insightHandler.GetCustomerPrediction)
			bi.POST("/inventory-optimization", insightHandler.OptimizeInventory)
			bi.POST("/inventory-optimization/upload", insightHandler.UploadInventory)
			bi.GET("/settings", insightHandler.GetSettings)
		}
	}
}
