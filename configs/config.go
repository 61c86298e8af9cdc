package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// maxFraudAlertCount 1リクエストで生成できるアラート件数の上限
const maxFraudAlertCount = 50

// Config holds the application configuration
type Config struct {
	Port          string
	Environment   string
	APIKey        string
	AdminUsername string
	AdminPassword string

	AzureOpenAIEndpoint       string
	AzureOpenAIAPIKey         string
	AzureOpenAIAPIVersion     string
	AzureOpenAIDeploymentName string

	// ナラティブ生成（外部サービス）
	NarrativeEnabled  bool
	NarrativeTimeout  time.Duration
	NarrativeCacheTTL time.Duration

	RedisHost     string
	RedisPort     string
	RedisPassword string

	// CatalogPath 空の場合は埋め込みの catalog.yaml を使う
	CatalogPath     string
	RandomSeed      int64
	FraudAlertCount int
	DefaultUnitCost decimal.Decimal
	// DefaultUnitCostSet DEFAULT_UNIT_COST が明示的に設定されたか（カタログの値より優先）
	DefaultUnitCostSet bool

	MonitoringTimezone string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:          getEnv("PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		APIKey:        getEnv("API_KEY", ""),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),

		AzureOpenAIEndpoint:       getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIKey:         getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureOpenAIAPIVersion:     getEnv("AZURE_OPENAI_API_VERSION", "2024-02-01"),
		AzureOpenAIDeploymentName: getEnv("AZURE_OPENAI_DEPLOYMENT_NAME", "gpt-4o-mini"),

		NarrativeEnabled:  getEnvBool("NARRATIVE_ENABLED", true),
		NarrativeTimeout:  getEnvDuration("NARRATIVE_TIMEOUT", 3*time.Second),
		NarrativeCacheTTL: getEnvDuration("NARRATIVE_CACHE_TTL", 15*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		CatalogPath:     getEnv("CATALOG_PATH", ""),
		RandomSeed:      int64(getEnvInt("RANDOM_SEED", 0)),
		FraudAlertCount: getEnvInt("FRAUD_ALERT_COUNT", 3),
		DefaultUnitCost: getEnvDecimal("DEFAULT_UNIT_COST", decimal.NewFromInt(25)),

		DefaultUnitCostSet: os.Getenv("DEFAULT_UNIT_COST") != "",

		MonitoringTimezone: getEnv("MONITORING_TIMEZONE", "Asia/Tokyo"),
	}
}

// Validate 設定値の範囲をチェック
func (c *Config) Validate() error {
	var problems []string

	if port, err := strconv.Atoi(c.Port); err != nil || port <= 0 || port > 65535 {
		problems = append(problems, fmt.Sprintf("PORT must be a valid port number, got %q", c.Port))
	}
	if c.FraudAlertCount < 1 || c.FraudAlertCount > maxFraudAlertCount {
		problems = append(problems, fmt.Sprintf("FRAUD_ALERT_COUNT must be between 1 and %d, got %d", maxFraudAlertCount, c.FraudAlertCount))
	}
	if c.NarrativeTimeout <= 0 {
		problems = append(problems, "NARRATIVE_TIMEOUT must be positive")
	}
	if c.NarrativeCacheTTL < 0 {
		problems = append(problems, "NARRATIVE_CACHE_TTL must not be negative")
	}
	if c.DefaultUnitCost.Sign() <= 0 {
		problems = append(problems, "DEFAULT_UNIT_COST must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// NarrativeConfigured Azure OpenAI によるナラティブ生成が使えるか
func (c *Config) NarrativeConfigured() bool {
	return c.NarrativeEnabled && c.AzureOpenAIEndpoint != "" && c.AzureOpenAIAPIKey != ""
}

// RedisConfigured ナラティブキャッシュ用のRedisが設定されているか
func (c *Config) RedisConfigured() bool {
	return c.RedisHost != ""
}

// Location モニタリングの時間バケットに使うタイムゾーン（読み込めない場合はUTC）
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.MonitoringTimezone)
	if err != nil {
		log.Printf("⚠️ [config] unknown MONITORING_TIMEZONE %q, using UTC", c.MonitoringTimezone)
		return time.UTC
	}
	return loc
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️ [config] %s=%q is not an integer, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		log.Printf("⚠️ [config] %s=%q is not a boolean, using %t", key, value, defaultValue)
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️ [config] %s=%q is not a duration, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		log.Printf("⚠️ [config] %s=%q is not a number, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}
