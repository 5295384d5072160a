package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config 项目配置结构体
type Config struct {
	LLM          LLMConfig         `yaml:"llm"`
	Assembly     AssemblyConfig    `yaml:"assembly"`
	Keywords     []string          `yaml:"keywords"`
	LookbackDays int               `yaml:"lookback_days"`
	Content      ContentConfig     `yaml:"content"`
	Log          LogConfig         `yaml:"log"`
	Concurrency  ConcurrencyConfig `yaml:"concurrency"`
	DB           DBConfig          `yaml:"db"`
	Digest       DigestConfig      `yaml:"digest"`
	Server       ServerConfig      `yaml:"server"`
}

// LLMConfig 分析服务配置。Provider 为 openai 或 gemini
type LLMConfig struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// AssemblyConfig 国会开放 API 配置
type AssemblyConfig struct {
	APIKey        string `yaml:"api_key"`
	BaseURL       string `yaml:"base_url"`
	ListService   string `yaml:"list_service"`
	DetailService string `yaml:"detail_service"`
	Age           string `yaml:"age"` // 国会届次
	PageSize      int    `yaml:"page_size"`
	Timeout       int    `yaml:"timeout"` // 秒
}

// ContentConfig 正文抓取配置
type ContentConfig struct {
	Timeout             int  `yaml:"timeout"` // 秒
	ReadabilityFallback bool `yaml:"readability_fallback"`
}

// LogConfig 日志相关配置
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConcurrencyConfig 并发控制配置
type ConcurrencyConfig struct {
	QPS     int `yaml:"qps"`
	RPM     int `yaml:"rpm"`
	Workers int `yaml:"workers"`
}

// DBConfig 数据库相关配置
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// DigestConfig 摘要输出配置
type DigestConfig struct {
	Output        string `yaml:"output"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Addr    string `yaml:"addr"`
	Timeout string `yaml:"timeout"`
}

// 默认值
const (
	DefaultAssemblyBaseURL = "https://open.assembly.go.kr/portal/openapi"
	DefaultListService     = "nzmimeepazxkubdpn"
	DefaultDetailService   = "BILLINFODETAIL"
	DefaultAge             = "22"
	DefaultLookbackDays    = 6
	DefaultSubjectPrefix   = "[국회 의안 알림]"
)

// DefaultKeywords 默认检索关键词
var DefaultKeywords = []string{"상법", "공정거래"}

// LoadConfig 从指定路径加载配置，并用 .env 和环境变量覆盖密钥
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	// .env 不存在时忽略
	_ = godotenv.Load()
	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	return &cfg, nil
}

// ApplyEnv 环境变量优先于配置文件
func (c *Config) ApplyEnv() {
	switch c.LLM.Provider {
	case "gemini":
		if v := os.Getenv("GEMINI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	default:
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.LLM.APIKey = v
		}
	}
	if v := os.Getenv("ASSEMBLY_API_KEY"); v != "" {
		c.Assembly.APIKey = v
	}
}

// ApplyDefaults 为未配置的字段填充默认值
func (c *Config) ApplyDefaults() {
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.LLM.Model == "" {
		if c.LLM.Provider == "gemini" {
			c.LLM.Model = "gemini-2.5-flash"
		} else {
			c.LLM.Model = "gpt-4o"
		}
	}
	if c.Assembly.BaseURL == "" {
		c.Assembly.BaseURL = DefaultAssemblyBaseURL
	}
	if c.Assembly.ListService == "" {
		c.Assembly.ListService = DefaultListService
	}
	if c.Assembly.DetailService == "" {
		c.Assembly.DetailService = DefaultDetailService
	}
	if c.Assembly.Age == "" {
		c.Assembly.Age = DefaultAge
	}
	if c.Assembly.PageSize <= 0 {
		c.Assembly.PageSize = 100
	}
	if c.Assembly.Timeout <= 0 {
		c.Assembly.Timeout = 30
	}
	if len(c.Keywords) == 0 {
		c.Keywords = append([]string(nil), DefaultKeywords...)
	}
	if c.LookbackDays <= 0 {
		c.LookbackDays = DefaultLookbackDays
	}
	if c.Content.Timeout <= 0 {
		c.Content.Timeout = 30
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Concurrency.RPM <= 0 {
		c.Concurrency.RPM = 60
	}
	if c.Concurrency.QPS <= 0 {
		c.Concurrency.QPS = 1
	}
	if c.Concurrency.Workers <= 0 {
		c.Concurrency.Workers = 1
	}
	if c.Digest.Output == "" {
		c.Digest.Output = "index.html"
	}
	if c.Digest.SubjectPrefix == "" {
		c.Digest.SubjectPrefix = DefaultSubjectPrefix
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "0.0.0.0:8000"
	}
	if c.Server.Timeout == "" {
		// 单个议案分析包含网页抓取和模型调用
		c.Server.Timeout = "120s"
	}
}

// Seconds 将秒数转换为 time.Duration
func Seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
