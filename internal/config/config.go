package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/checkout-widget/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Queue     QueueConfig     `mapstructure:"queue"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Webhook   WebhookConfig   `mapstructure:"webhook"`
	Widget    WidgetConfig    `mapstructure:"widget"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host                     string `mapstructure:"host"`
	Port                     string `mapstructure:"port"`
	Mode                     string `mapstructure:"mode"` // debug / release
	ReadHeaderTimeoutSeconds int    `mapstructure:"read_header_timeout_seconds"`
	IdleTimeoutSeconds       int    `mapstructure:"idle_timeout_seconds"`
}

// Addr 监听地址
func (c ServerConfig) Addr() string {
	return c.Host + ":" + c.Port
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		Level:      c.Level,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// RedisConfig Redis 配置（限流与跨实例提交互斥）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置（提交结果事件）
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// RateLimitConfig 提交接口限流
type RateLimitConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	WindowSeconds int  `mapstructure:"window_seconds"`
	MaxRequests   int  `mapstructure:"max_requests"`
}

// 未配置时 webhook 请求的超时
const defaultWebhookTimeout = 15 * time.Second

// WebhookConfig webhook 调用配置
type WebhookConfig struct {
	TimeoutSeconds      int `mapstructure:"timeout_seconds"`
	InFlightTTLSeconds  int `mapstructure:"inflight_ttl_seconds"`
	MaxResponseBodySize int `mapstructure:"max_response_body_size"`
	// AllowedHosts 为空时不限制主机名，支持 *.example.com 通配
	AllowedHosts []string `mapstructure:"allowed_hosts"`
	// AllowPrivateNetworks 允许连接回环、内网与链路本地地址
	AllowPrivateNetworks bool `mapstructure:"allow_private_networks"`
}

// Timeout 转换为 time.Duration，未配置时使用默认值
func (c WebhookConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultWebhookTimeout
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// InFlightTTL 跨实例互斥键的过期时间
func (c WebhookConfig) InFlightTTL() time.Duration {
	if c.InFlightTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.InFlightTTLSeconds) * time.Second
}

// WidgetConfig 组件托管配置
type WidgetConfig struct {
	PublicBaseURL  string `mapstructure:"public_base_url"`  // 生成嵌入代码时使用
	MaxConfigBytes int    `mapstructure:"max_config_bytes"` // 配置片段最大长度
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("../")
	viper.AddConfigPath("./etc")

	SetDefaults(viper.GetViper())

	// 环境变量支持，例如 server.port -> SERVER_PORT
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

// SetDefaults 写入默认值
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_header_timeout_seconds", 10)
	v.SetDefault("server.idle_timeout_seconds", 120)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "widget.log")
	v.SetDefault("log.level", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "cw")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 5)
	v.SetDefault("queue.queues", map[string]int{
		"default": 10,
	})
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allowed_methods", []string{"GET", "POST", "OPTIONS"})
	v.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept",
		"X-Requested-With",
		"X-Request-ID",
	})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.window_seconds", 60)
	v.SetDefault("rate_limit.max_requests", 20)
	v.SetDefault("webhook.timeout_seconds", 15)
	v.SetDefault("webhook.allowed_hosts", []string{})
	v.SetDefault("webhook.allow_private_networks", false)
	v.SetDefault("webhook.inflight_ttl_seconds", 120)
	v.SetDefault("webhook.max_response_body_size", 1<<20)
	v.SetDefault("widget.public_base_url", "http://localhost:8080")
	v.SetDefault("widget.max_config_bytes", 16384)
}
