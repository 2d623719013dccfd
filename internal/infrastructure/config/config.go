package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App          AppConfig          `mapstructure:"app"`
	Server       ServerConfig       `mapstructure:"server"`
	Backend      BackendConfig      `mapstructure:"backend"`
	Session      SessionConfig      `mapstructure:"session"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	DedupWindow  time.Duration      `mapstructure:"dedup_window"`
	LogLevel     string             `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// BackendConfig 遠端食譜後端配置
type BackendConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	ChatPath     string        `mapstructure:"chat_path"`
	GeneratePath string        `mapstructure:"generate_path"`
	LoginPath    string        `mapstructure:"login_path"`
	RegisterPath string        `mapstructure:"register_path"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// SessionConfig 會話配置
type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`            // 登入有效期
	CheckInterval time.Duration `mapstructure:"check_interval"` // 過期檢查間隔
	OutboxTTL     time.Duration `mapstructure:"outbox_ttl"`     // 待辦交棒槽存活時間
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ConversationConfig 對話狀態配置
type ConversationConfig struct {
	TTL              time.Duration `mapstructure:"ttl"`              // 閒置對話存活時間
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"` // 清理間隔
	MaxConversations int           `mapstructure:"max_conversations"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件
	if err := godotenv.Load(); err != nil {
		return nil, err
	}

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("backend.base_url", "BACKEND_BASE_URL")
	viper.BindEnv("backend.timeout", "BACKEND_TIMEOUT")
	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("session.ttl", "SESSION_TTL")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "backend_base_url:", viper.GetString("backend.base_url"), "redis_enabled:", viper.GetBool("redis.enabled"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-chat-gateway")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// 後端設定
	viper.SetDefault("backend.base_url", "http://localhost:8000")
	viper.SetDefault("backend.chat_path", "/ingredient_recipe_assistant")
	viper.SetDefault("backend.generate_path", "/generate_recipes")
	viper.SetDefault("backend.login_path", "/login")
	viper.SetDefault("backend.register_path", "/register")
	viper.SetDefault("backend.timeout", "60s")

	// 會話設定：登入 30 分鐘過期，每 60 秒檢查一次
	viper.SetDefault("session.ttl", "30m")
	viper.SetDefault("session.check_interval", "60s")
	viper.SetDefault("session.outbox_ttl", "24h")

	// Redis 設定
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// 對話設定
	viper.SetDefault("conversation.ttl", "30m")
	viper.SetDefault("conversation.cleanup_interval", "5m")
	viper.SetDefault("conversation.max_conversations", 1000)

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 去重時間窗
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證後端設定
	if config.Backend.BaseURL == "" {
		return fmt.Errorf("backend base url is required")
	}
	if config.Backend.Timeout <= 0 {
		return fmt.Errorf("invalid backend timeout")
	}

	// 驗證會話設定
	if config.Session.TTL <= 0 {
		return fmt.Errorf("invalid session ttl")
	}
	if config.Session.CheckInterval <= 0 {
		return fmt.Errorf("invalid session check interval")
	}

	// 驗證對話設定
	if config.Conversation.TTL <= 0 {
		return fmt.Errorf("invalid conversation ttl")
	}
	if config.Conversation.CleanupInterval <= 0 {
		return fmt.Errorf("invalid conversation cleanup interval")
	}
	if config.Conversation.MaxConversations <= 0 {
		return fmt.Errorf("invalid conversation max size")
	}

	return nil
}
