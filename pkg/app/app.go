package app

import (
	"fmt"
	"log"

	config "bi-decision-engine/configs"
	"bi-decision-engine/pkg/azure"
	"bi-decision-engine/pkg/cache"
	"bi-decision-engine/pkg/handlers"
	"bi-decision-engine/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// App サーバー・サーバーレス関数・CLIで共有する組み立て済みの依存関係
type App struct {
	Config     *config.Config
	Catalog    *config.Catalog
	Insights   *services.InsightService
	Monitoring *services.MonitoringService
	Admin      *handlers.AdminHandler

	redis *cache.RedisClient
}

// New 設定からサービスを組み立てる。外部サービス（Azure OpenAI・Redis）は任意。
func New(cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	log.Printf("📦 [app] catalog loaded: %d tracked products", len(catalog.Items))

	a := &App{
		Config:     cfg,
		Catalog:    catalog,
		Monitoring: services.NewMonitoringService(cfg.Location()),
		Admin:      handlers.NewAdminHandler(cfg.AdminUsername, cfg.AdminPassword),
	}

	narrative := a.newNarrativeService()
	narrative.SetObserver(a.Monitoring)

	unitCost := resolveUnitCost(cfg, catalog)

	if cfg.RandomSeed != 0 {
		log.Printf("🎲 [app] random source seeded with %d", cfg.RandomSeed)
	}

	a.Insights = services.NewInsightService(services.NewRandomSource(cfg.RandomSeed), narrative, services.InsightServiceOptions{
		Items:               catalog.Items,
		RecommendedProducts: catalog.RecommendedProducts,
		DefaultUnitCost:     unitCost,
		FraudAlertCount:     cfg.FraudAlertCount,
	})
	return a, nil
}

func (a *App) newNarrativeService() *services.NarrativeService {
	cfg := a.Config
	if !cfg.NarrativeConfigured() {
		log.Printf("ℹ️ [app] narrative generator disabled; fallback narratives will be used")
		return services.NewNarrativeService(nil, nil, cfg.NarrativeTimeout)
	}

	client := azure.NewOpenAIClient(
		cfg.AzureOpenAIEndpoint,
		cfg.AzureOpenAIAPIKey,
		cfg.AzureOpenAIAPIVersion,
		cfg.AzureOpenAIDeploymentName,
		cfg.NarrativeTimeout*2,
	)

	var narrativeCache services.NarrativeCache
	if cfg.RedisConfigured() {
		// 接続できない場合 NewRedisClient は nil を返す
		if redisClient := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); redisClient != nil {
			a.redis = redisClient
			narrativeCache = cache.NewNarrativeCache(redisClient, cfg.NarrativeCacheTTL)
		} else {
			log.Printf("⚠️ [app] Redis unavailable; narrative caching disabled")
		}
	}

	log.Printf("✅ [app] narrative generator: Azure OpenAI deployment %s", cfg.AzureOpenAIDeploymentName)
	return services.NewNarrativeService(client, narrativeCache, cfg.NarrativeTimeout)
}

// resolveUnitCost 既定単価の優先順位: DEFAULT_UNIT_COST（明示指定時）> カタログ > 組み込みの既定値
func resolveUnitCost(cfg *config.Config, catalog *config.Catalog) decimal.Decimal {
	if cfg.DefaultUnitCostSet {
		return cfg.DefaultUnitCost
	}
	if catalog.DefaultUnitCost.Sign() > 0 {
		return catalog.DefaultUnitCost
	}
	return cfg.DefaultUnitCost
}

// Router HTTPルーターを作成
func (a *App) Router() *gin.Engine {
	return handlers.NewRouter(handlers.RouterOptions{
		APIKey:     a.Config.APIKey,
		Insights:   a.Insights,
		Monitoring: a.Monitoring,
		Admin:      a.Admin,
	})
}

// Close 外部接続を閉じる
func (a *App) Close() error {
	return a.redis.Close()
}
