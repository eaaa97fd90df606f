package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	AI       AIConfig
	Quota    QuotaConfig
}

// AppConfig 应用配置
type AppConfig struct {
	Name        string
	Environment string
	Version     string
	Debug       bool
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string
	Port         int
	Mode         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret          string
	AccessTokenTTL  int // 小时
	RefreshTokenTTL int // 小时
}

// AIConfig AI配置
type AIConfig struct {
	Provider  string
	MaxTokens int
	OpenAI    OpenAIConfig
	DeepSeek  DeepSeekConfig
	DashScope DashScopeConfig
}

// OpenAIConfig OpenAI配置
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// DeepSeekConfig DeepSeek配置
type DeepSeekConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// DashScopeConfig 阿里云百炼（OpenAI 兼容模式）配置
type DashScopeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout int
}

// QuotaConfig 各订阅档位的每周期会话配额（0 表示不限）
type QuotaConfig struct {
	Free     int
	Standard int
	Pro      int
	// StreamRateLimit 每用户每分钟允许的流式请求数
	StreamRateLimit int
}

var globalConfig *Config

// Load 加载配置
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// 环境变量
	v.SetEnvPrefix("SOLVE_API")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// Get 获取全局配置
func Get() *Config {
	if globalConfig == nil {
		panic("config not loaded")
	}
	return globalConfig
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// GetAddr 获取服务器地址
func (c *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// App
	v.SetDefault("app.name", "solve-api")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.debug", true)

	// Server
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.readTimeout", 30)
	v.SetDefault("server.writeTimeout", 30)

	// Database
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.dbname", "solve_api")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)
	v.SetDefault("database.maxLifetime", 300)

	// Redis
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// JWT
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.accessTokenTTL", 24)
	v.SetDefault("jwt.refreshTokenTTL", 168)

	// AI
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.maxTokens", 1024)
	v.SetDefault("ai.openai.baseUrl", "https://api.openai.com/v1")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("ai.openai.timeout", 60)
	v.SetDefault("ai.deepseek.baseUrl", "https://api.deepseek.com/v1")
	v.SetDefault("ai.deepseek.model", "deepseek-chat")
	v.SetDefault("ai.deepseek.timeout", 60)
	v.SetDefault("ai.dashscope.baseUrl", "https://dashscope.aliyuncs.com/compatible-mode/v1")
	v.SetDefault("ai.dashscope.model", "qwen-plus")
	v.SetDefault("ai.dashscope.timeout", 60)

	// Quota
	v.SetDefault("quota.free", 10)
	v.SetDefault("quota.standard", 100)
	v.SetDefault("quota.pro", 0)
	v.SetDefault("quota.streamRateLimit", 20)
}
