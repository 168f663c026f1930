package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ingredient-extractor/internal/pkg/common"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config 應用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Extraction ExtractionConfig `mapstructure:"extraction"`
	Batch      BatchConfig      `mapstructure:"batch"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	LogLevel   string           `mapstructure:"log_level"`
	LogFile    string           `mapstructure:"log_file"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	APIKey            string        `mapstructure:"api_key"`
	BaseURL           string        `mapstructure:"base_url"`
	Model             string        `mapstructure:"model"`
	FallbackModel     string        `mapstructure:"fallback_model"`
	MaxTokens         int           `mapstructure:"max_tokens"`
	Temperature       float64       `mapstructure:"temperature"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	Referer           string        `mapstructure:"referer"`
	Title             string        `mapstructure:"title"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Type            string        `mapstructure:"type"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// ExtractionConfig 食材擷取管線設定
type ExtractionConfig struct {
	MinConfidence           float64 `mapstructure:"min_confidence"`
	LowConfidenceThreshold  float64 `mapstructure:"low_confidence_threshold"`
	FallbackConfidenceScale float64 `mapstructure:"fallback_confidence_scale"`
	EmergencyConfidence     float64 `mapstructure:"emergency_confidence"`
	SmartMaxTokens          int     `mapstructure:"smart_max_tokens"`
	ExtractionMaxTokens     int     `mapstructure:"extraction_max_tokens"`
	ValidationMaxTokens     int     `mapstructure:"validation_max_tokens"`
	Temperature             float64 `mapstructure:"temperature"`
	ValidationReview        bool    `mapstructure:"validation_review"`
}

// BatchConfig 批次擷取設定
type BatchConfig struct {
	Workers int           `mapstructure:"workers"`
	Delay   time.Duration `mapstructure:"delay"`
}

// MetricsConfig Prometheus 指標設定
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// flagKeys CLI 旗標與設定鍵的對應
var flagKeys = map[string]string{
	"log-level":      "log_level",
	"log-file":       "log_file",
	"min-confidence": "extraction.min_confidence",
	"workers":        "batch.workers",
	"metrics-addr":   "metrics.addr",
	"model":          "openrouter.model",
}

// LoadConfig 載入設定；flags 可為 nil
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	// 加載 .env 文件（不存在時忽略）
	if err := godotenv.Load(); err != nil {
		common.LogDebug(".env file not loaded", zap.Error(err))
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindings := map[string]string{
		"openrouter.enabled":        "OPENROUTER_ENABLED",
		"openrouter.api_key":        "OPENROUTER_API_KEY",
		"openrouter.model":          "OPENROUTER_MODEL",
		"openrouter.fallback_model": "OPENROUTER_FALLBACK_MODEL",
		"openrouter.base_url":       "OPENROUTER_BASE_URL",
		"openrouter.max_tokens":     "MODEL_MAX_TOKENS",
		"cache.enabled":             "CACHE_ENABLED",
		"cache.type":                "CACHE_TYPE",
		"cache.redis_addr":          "REDIS_ADDR",
		"cache.redis_password":      "REDIS_PASSWORD",
		"log_level":                 "LOG_LEVEL",
		"log_file":                  "LOG_FILE",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind env %s: %w", env, err)
		}
	}

	// 綁定 CLI 旗標
	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 沒有 API key 時自動關閉 OpenRouter
	if config.OpenRouter.Enabled && config.OpenRouter.APIKey == "" {
		config.OpenRouter.Enabled = false
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// MaskedAPIKey 返回遮罩後的 API Key，供日誌使用
func (c *Config) MaskedAPIKey() string {
	return maskAPIKey(c.OpenRouter.APIKey)
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.name", "ingredient-extractor")
	v.SetDefault("app.version", "1.0.0")

	// OpenRouter 設定
	v.SetDefault("openrouter.enabled", true)
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "openai/gpt-4o-mini")
	v.SetDefault("openrouter.fallback_model", "")
	v.SetDefault("openrouter.max_tokens", 2000)
	v.SetDefault("openrouter.temperature", 0.1)
	v.SetDefault("openrouter.timeout", "60s")
	v.SetDefault("openrouter.max_retries", 2)
	v.SetDefault("openrouter.requests_per_second", 2.0)
	v.SetDefault("openrouter.burst", 4)
	v.SetDefault("openrouter.referer", "https://ingredient-extractor.local")
	v.SetDefault("openrouter.title", "Ingredient Extractor")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 擷取管線設定
	v.SetDefault("extraction.min_confidence", 0.3)
	v.SetDefault("extraction.low_confidence_threshold", 0.5)
	v.SetDefault("extraction.fallback_confidence_scale", 0.8)
	v.SetDefault("extraction.emergency_confidence", 0.2)
	v.SetDefault("extraction.smart_max_tokens", 2000)
	v.SetDefault("extraction.extraction_max_tokens", 3000)
	v.SetDefault("extraction.validation_max_tokens", 1000)
	v.SetDefault("extraction.temperature", 0.1)
	v.SetDefault("extraction.validation_review", true)

	// 批次設定
	v.SetDefault("batch.workers", 3)
	v.SetDefault("batch.delay", "500ms")

	v.SetDefault("metrics.addr", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
}

// Default 返回只含預設值的設定（測試與離線模式使用）
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// 預設值皆為合法型別，不會失敗
	_ = v.Unmarshal(&config)
	return &config
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.OpenRouter.Enabled {
		if config.OpenRouter.Model == "" {
			return common.NewValidationError("openrouter model is required")
		}
		if config.OpenRouter.BaseURL == "" {
			return common.NewValidationError("openrouter base url is required")
		}
		if config.OpenRouter.Timeout <= 0 {
			return common.NewValidationError("invalid openrouter timeout")
		}
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Type {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return common.NewValidationError("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return common.NewValidationError("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return common.NewValidationError("redis address is required")
			}
		default:
			return common.NewValidationError(fmt.Sprintf("unsupported cache type %q", config.Cache.Type))
		}
		if config.Cache.TTL <= 0 {
			return common.NewValidationError("invalid cache ttl")
		}
	}

	// 驗證信心值設定
	ex := config.Extraction
	for name, val := range map[string]float64{
		"min_confidence":            ex.MinConfidence,
		"low_confidence_threshold":  ex.LowConfidenceThreshold,
		"fallback_confidence_scale": ex.FallbackConfidenceScale,
		"emergency_confidence":      ex.EmergencyConfidence,
	} {
		if val < 0 || val > 1 {
			return common.NewValidationError(fmt.Sprintf("extraction.%s must be within [0,1]", name))
		}
	}

	// 驗證批次設定
	if config.Batch.Workers <= 0 {
		return common.NewValidationError("invalid batch workers")
	}
	if config.Batch.Delay < 0 {
		return common.NewValidationError("invalid batch delay")
	}

	return nil
}
