package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Pollinations PollinationsConfig `mapstructure:"pollinations"`
	DeepSeek     DeepSeekConfig     `mapstructure:"deepseek"`
	Task         TaskConfig         `mapstructure:"task"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

// PollinationsConfig Pollinations API 配置
type PollinationsConfig struct {
	ImageAPIBase string `mapstructure:"image_api_base"`
	TextAPIBase  string `mapstructure:"text_api_base"`
	Timeout      int    `mapstructure:"timeout"` // 秒
}

// DeepSeekConfig DeepSeek 提示词优化 API 配置
type DeepSeekConfig struct {
	APIURL  string `mapstructure:"api_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	Timeout int    `mapstructure:"timeout"` // 秒
}

// TaskConfig 任务引擎配置
type TaskConfig struct {
	Mode        string `mapstructure:"mode"`         // inline 或 queued
	Store       string `mapstructure:"store"`        // memory、redis 或 sqlite
	RedisAddr   string `mapstructure:"redis_addr"`   // store=redis 或 mode=queued 时使用
	SQLitePath  string `mapstructure:"sqlite_path"`  // store=sqlite 时使用
	WorkerCount int    `mapstructure:"worker_count"` // mode=queued 时的工作协程数
	Retention   int    `mapstructure:"retention"`    // 终态任务保留小时数
}

// APITimeout Pollinations API 超时时间
func (c PollinationsConfig) APITimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// APITimeout DeepSeek API 超时时间
func (c DeepSeekConfig) APITimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// RetentionWindow 终态任务的保留时长
func (c TaskConfig) RetentionWindow() time.Duration {
	return time.Duration(c.Retention) * time.Hour
}

func Load() *Config {
	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "5000")
	viper.SetDefault("server.cors_origins", []string{"http://localhost:8000", "http://127.0.0.1:8000"})

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	// Pollinations API 默认配置
	viper.SetDefault("pollinations.image_api_base", "https://pollinations.ai/p/")
	viper.SetDefault("pollinations.text_api_base", "https://text.pollinations.ai/")
	viper.SetDefault("pollinations.timeout", 60)

	// DeepSeek API 默认配置
	viper.SetDefault("deepseek.api_url", "https://api.siliconflow.cn/v1/chat/completions")
	viper.SetDefault("deepseek.api_key", "")
	viper.SetDefault("deepseek.model", "deepseek-ai/DeepSeek-V2.5")
	viper.SetDefault("deepseek.timeout", 30)

	// 任务引擎默认配置
	viper.SetDefault("task.mode", "inline")
	viper.SetDefault("task.store", "memory")
	viper.SetDefault("task.redis_addr", "localhost:6379")
	viper.SetDefault("task.sqlite_path", "data/text2image-audio.db")
	viper.SetDefault("task.worker_count", 5)
	viper.SetDefault("task.retention", 24)
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.Pollinations.ImageAPIBase == "" || config.Pollinations.TextAPIBase == "" {
		return fmt.Errorf("Pollinations API 基地址未设置")
	}
	if config.Pollinations.Timeout <= 0 {
		return fmt.Errorf("Pollinations API 超时时间必须大于 0")
	}
	switch config.Task.Mode {
	case "inline", "queued":
	default:
		return fmt.Errorf("不支持的任务执行模式: %s", config.Task.Mode)
	}
	switch config.Task.Store {
	case "memory", "redis", "sqlite":
	default:
		return fmt.Errorf("不支持的任务存储后端: %s", config.Task.Store)
	}
	if config.Task.Mode == "queued" && strings.TrimSpace(config.Task.RedisAddr) == "" {
		return fmt.Errorf("队列模式需要配置 Redis 地址")
	}
	return nil
}
