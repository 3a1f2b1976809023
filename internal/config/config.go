package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 任务名称，用于 task_models 和 model_qpm_limits 查找
const (
	TaskParse   = "parse"
	TaskAnalyze = "analyze"
	TaskSuggest = "suggest"
	TaskGap     = "gap"
	TaskRoadmap = "roadmap"
)

// Config 应用程序配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	LLM       LLMConfig       `yaml:"llm"`
	Document  DocumentConfig  `yaml:"document"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Index     IndexConfig     `yaml:"index"`
	Parser    ParserConfig    `yaml:"parser"`
	Roadmap   RoadmapConfig   `yaml:"roadmap"`
	Search    SearchConfig    `yaml:"search"`
	Redis     RedisConfig     `yaml:"redis"`
	Logger    LoggerConfig    `yaml:"logger"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`

	// 模型QPM限制，键为模型名称
	ModelQPMLimits map[string]int `yaml:"model_qpm_limits"`
}

// ServerConfig 定义服务器配置
type ServerConfig struct {
	Address        string `yaml:"address"`         // 例如 ":8080" or "0.0.0.0:8080"
	RequestTimeout string `yaml:"request_timeout"` // 单次分析请求的总超时，例如 "180s"
	MaxUploadMB    int    `yaml:"max_upload_mb"`   // 上传文件大小上限(MB)
}

// DocumentConfig 文档解析配置
type DocumentConfig struct {
	PDFBackend     string `yaml:"pdf_backend"`     // eino | tika
	TikaServerURL  string `yaml:"tika_server_url"` // 例如 http://localhost:9998
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// LLMConfig 聊天模型配置
type LLMConfig struct {
	Provider    string            `yaml:"provider"` // openai | gemini | mock
	APIKey      string            `yaml:"api_key"`
	BaseURL     string            `yaml:"base_url"` // OpenAI 兼容端点，默认 OpenRouter
	Model       string            `yaml:"model"`
	TaskModels  map[string]string `yaml:"task_models"` // 任务专用模型
	Temperature float32           `yaml:"temperature"`
	MaxTokens   int               `yaml:"max_tokens"`
	Timeout     string            `yaml:"timeout"` // 单次模型调用超时

	// 传输层限流与重试
	QPM              int `yaml:"qpm"`
	MaxRetries       int `yaml:"max_retries"`
	RetryWaitSeconds int `yaml:"retry_wait_seconds"`
}

// EmbeddingConfig 向量化配置
type EmbeddingConfig struct {
	Provider   string `yaml:"provider"` // openai | gemini | local
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BaseURL    string `yaml:"base_url"`
	APIKey     string `yaml:"api_key,omitempty"` // 为空时复用 llm.api_key
}

// IndexConfig 每请求语义索引的分块与检索参数
type IndexConfig struct {
	ChunkSize    int `yaml:"chunk_size"`    // 每块最大字符数(rune)
	ChunkOverlap int `yaml:"chunk_overlap"` // 相邻块重叠字符数
	TopK         int `yaml:"top_k"`         // 检索返回的块数
}

// ParserConfig 简历解析器的重试预算
type ParserConfig struct {
	Retries   int `yaml:"retries"`    // 解码失败后的额外尝试次数
	BackoffMS int `yaml:"backoff_ms"` // 重试间隔(毫秒)
}

// RoadmapConfig 学习路线生成配置
type RoadmapConfig struct {
	MaxGaps           int    `yaml:"max_gaps"`
	ResultsPerGap     int    `yaml:"results_per_gap"`
	SearchConcurrency int    `yaml:"search_concurrency"`
	LinkPolicy        string `yaml:"link_policy"` // strip | flag | off
}

// SearchConfig 网页搜索配置
type SearchConfig struct {
	Provider        string `yaml:"provider"` // tavily | google | duckduckgo | auto
	TavilyAPIKey    string `yaml:"tavily_api_key"`
	TavilyURL       string `yaml:"tavily_url"`
	GoogleAPIKey    string `yaml:"google_api_key"`
	GoogleCX        string `yaml:"google_cx"` // Programmable Search Engine ID
	DuckDuckGoURL   string `yaml:"duckduckgo_url"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
	CacheTTLMinutes int    `yaml:"cache_ttl_minutes"` // 启用 Redis 时缓存搜索结果，0 表示不缓存
}

// RedisConfig holds configuration for Redis
// 用于跨副本共享的模型QPM窗口和搜索结果缓存，Address 为空时不启用
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// 连接池设置
	PoolSize     int `yaml:"pool_size"`
	MinIdleConns int `yaml:"min_idle_conns"`
	// 超时设置
	DialTimeoutSeconds  int `yaml:"dial_timeout_seconds"`
	ReadTimeoutSeconds  int `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int `yaml:"write_timeout_seconds"`
	MaxRetries          int `yaml:"max_retries"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	Format       string `yaml:"format"`        // json, pretty
	TimeFormat   string `yaml:"time_format"`   // 时间格式
	ReportCaller bool   `yaml:"report_caller"` // 是否报告调用位置
}

// TracingConfig OpenTelemetry 配置
type TracingConfig struct {
	ServiceName  string  `yaml:"service_name"`
	OTLPEndpoint string  `yaml:"otlp_endpoint"` // 为空时只使用本地 TracerProvider，不导出
	Insecure     bool    `yaml:"insecure"`
	SampleRatio  float64 `yaml:"sample_ratio"`
}

// MetricsConfig Prometheus 指标配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoadConfig 从文件加载配置。
// configPath 为空时按默认位置查找；找不到文件时返回默认配置。
// 加载顺序：默认值 → YAML → .env → 环境变量。
func LoadConfig(configPath string) (*Config, error) {
	// .env 不存在不算错误
	_ = godotenv.Load()

	config := createDefaultConfig()

	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			return nil, fmt.Errorf("配置文件不存在: %s", configPath)
		}
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("解析配置文件失败: %w", err)
		}
	}

	applyEnvOverrides(config)
	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// findConfigFile 在常见位置查找配置文件，找不到时返回空字符串
func findConfigFile() string {
	searchPaths := []string{
		"config.yaml",
		"../config.yaml",
		"../../config.yaml",
		filepath.Join("internal", "config", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".resume-analyzer", "config.yaml"),
	}

	if execPath, err := os.Executable(); err == nil {
		execDir := filepath.Dir(execPath)
		searchPaths = append(searchPaths, filepath.Join(execDir, "config.yaml"))
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// applyEnvOverrides 从环境变量覆盖配置（如果存在）
func applyEnvOverrides(config *Config) {
	if v := firstEnv("LLM_API_KEY", "OPENROUTER_API_KEY"); v != "" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		config.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		config.LLM.Model = v
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" && config.LLM.Provider == "gemini" {
		config.LLM.APIKey = v
	}
	if v := os.Getenv("EMBEDDING_API_KEY"); v != "" {
		config.Embedding.APIKey = v
	}
	if v := os.Getenv("TAVILY_API_KEY"); v != "" {
		config.Search.TavilyAPIKey = v
	}
	if v := os.Getenv("GOOGLE_SEARCH_API_KEY"); v != "" {
		config.Search.GoogleAPIKey = v
	}
	if v := os.Getenv("GOOGLE_SEARCH_CX"); v != "" {
		config.Search.GoogleCX = v
	}
	if v := os.Getenv("SERVER_ADDRESS"); v != "" {
		config.Server.Address = v
	}
	if v := os.Getenv("REDIS_ADDRESS"); v != "" {
		config.Redis.Address = v
	}
	if v := os.Getenv("TIKA_SERVER_URL"); v != "" {
		config.Document.TikaServerURL = v
	}
	if v := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		config.Tracing.OTLPEndpoint = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// applyDefaults 补齐 YAML 中被显式置零的关键字段
func applyDefaults(config *Config) {
	def := createDefaultConfig()
	if config.Server.Address == "" {
		config.Server.Address = def.Server.Address
	}
	if config.Server.MaxUploadMB <= 0 {
		config.Server.MaxUploadMB = def.Server.MaxUploadMB
	}
	if config.LLM.Provider == "" {
		config.LLM.Provider = def.LLM.Provider
	}
	if config.LLM.Provider == "openai" && config.LLM.BaseURL == "" {
		config.LLM.BaseURL = def.LLM.BaseURL
	}
	if config.Document.PDFBackend == "" {
		config.Document.PDFBackend = def.Document.PDFBackend
	}
	if config.Document.TimeoutSeconds <= 0 {
		config.Document.TimeoutSeconds = def.Document.TimeoutSeconds
	}
	if config.Embedding.Provider == "" {
		config.Embedding.Provider = def.Embedding.Provider
	}
	if config.Embedding.APIKey == "" && config.Embedding.Provider == config.LLM.Provider {
		config.Embedding.APIKey = config.LLM.APIKey
	}
	if config.Embedding.BaseURL == "" {
		config.Embedding.BaseURL = def.Embedding.BaseURL
	}
	if config.Index.ChunkSize <= 0 {
		config.Index.ChunkSize = def.Index.ChunkSize
	}
	if config.Index.ChunkOverlap < 0 || config.Index.ChunkOverlap >= config.Index.ChunkSize {
		config.Index.ChunkOverlap = 0
	}
	if config.Index.TopK <= 0 {
		config.Index.TopK = def.Index.TopK
	}
	if config.Parser.Retries < 0 {
		config.Parser.Retries = 0
	}
	if config.Roadmap.MaxGaps <= 0 {
		config.Roadmap.MaxGaps = def.Roadmap.MaxGaps
	}
	if config.Roadmap.ResultsPerGap <= 0 {
		config.Roadmap.ResultsPerGap = def.Roadmap.ResultsPerGap
	}
	if config.Roadmap.SearchConcurrency <= 0 {
		config.Roadmap.SearchConcurrency = def.Roadmap.SearchConcurrency
	}
	if config.Roadmap.LinkPolicy == "" {
		config.Roadmap.LinkPolicy = def.Roadmap.LinkPolicy
	}
	if config.Search.Provider == "" {
		config.Search.Provider = def.Search.Provider
	}
	if config.Metrics.Path == "" {
		config.Metrics.Path = def.Metrics.Path
	}
	if config.Tracing.ServiceName == "" {
		config.Tracing.ServiceName = def.Tracing.ServiceName
	}
}

// Validate 检查枚举型字段
func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case "openai", "gemini", "mock":
	default:
		return fmt.Errorf("不支持的 llm.provider: %q (可选 openai, gemini, mock)", c.LLM.Provider)
	}
	switch c.Document.PDFBackend {
	case "eino":
	case "tika":
		if c.Document.TikaServerURL == "" {
			return fmt.Errorf("document.pdf_backend 为 tika 时必须提供 tika_server_url")
		}
	default:
		return fmt.Errorf("不支持的 document.pdf_backend: %q (可选 eino, tika)", c.Document.PDFBackend)
	}
	switch c.Embedding.Provider {
	case "openai", "gemini", "local":
	default:
		return fmt.Errorf("不支持的 embedding.provider: %q (可选 openai, gemini, local)", c.Embedding.Provider)
	}
	switch c.Search.Provider {
	case "tavily", "google", "duckduckgo", "auto":
	default:
		return fmt.Errorf("不支持的 search.provider: %q (可选 tavily, google, duckduckgo, auto)", c.Search.Provider)
	}
	switch c.Roadmap.LinkPolicy {
	case "strip", "flag", "off":
	default:
		return fmt.Errorf("不支持的 roadmap.link_policy: %q (可选 strip, flag, off)", c.Roadmap.LinkPolicy)
	}
	if c.Search.Provider == "tavily" && c.Search.TavilyAPIKey == "" {
		return fmt.Errorf("search.provider 为 tavily 时必须提供 tavily_api_key")
	}
	if c.Search.Provider == "google" && (c.Search.GoogleAPIKey == "" || c.Search.GoogleCX == "") {
		return fmt.Errorf("search.provider 为 google 时必须提供 google_api_key 和 google_cx")
	}
	return nil
}

// createDefaultConfig 创建默认配置
func createDefaultConfig() *Config {
	config := &Config{}

	config.Server.Address = ":8080"
	config.Server.RequestTimeout = "180s"
	config.Server.MaxUploadMB = 10

	// 默认走 OpenRouter；解析/分析用小模型，建议与路线用大模型
	config.LLM.Provider = "openai"
	config.LLM.BaseURL = "https://openrouter.ai/api/v1"
	config.LLM.Model = "mistralai/mistral-7b-instruct"
	config.LLM.TaskModels = map[string]string{
		TaskSuggest: "google/gemma-3-27b-it:free",
		TaskGap:     "mistralai/mistral-7b-instruct",
		TaskRoadmap: "deepseek/deepseek-r1-distill-llama-70b:free",
	}
	config.LLM.Temperature = 0.2
	config.LLM.MaxTokens = 4096
	config.LLM.Timeout = "90s"
	config.LLM.QPM = 20
	config.LLM.MaxRetries = 2
	config.LLM.RetryWaitSeconds = 2

	config.Document.PDFBackend = "eino"
	config.Document.TimeoutSeconds = 30

	config.Embedding.Provider = "openai"
	config.Embedding.Model = "text-embedding-3-small"
	config.Embedding.Dimensions = 0
	config.Embedding.BaseURL = "https://api.openai.com/v1"

	config.Index.ChunkSize = 800
	config.Index.ChunkOverlap = 100
	config.Index.TopK = 4

	config.Parser.Retries = 1
	config.Parser.BackoffMS = 500

	config.Roadmap.MaxGaps = 3
	config.Roadmap.ResultsPerGap = 5
	config.Roadmap.SearchConcurrency = 3
	config.Roadmap.LinkPolicy = "strip"

	config.Search.Provider = "auto"
	config.Search.TavilyURL = "https://api.tavily.com/search"
	config.Search.DuckDuckGoURL = "https://html.duckduckgo.com/html/"
	config.Search.TimeoutSeconds = 15
	config.Search.CacheTTLMinutes = 60

	config.Redis.PoolSize = 10
	config.Redis.MinIdleConns = 2
	config.Redis.DialTimeoutSeconds = 5
	config.Redis.ReadTimeoutSeconds = 3
	config.Redis.WriteTimeoutSeconds = 3
	config.Redis.MaxRetries = 3

	config.Logger.Level = "info"
	config.Logger.Format = "pretty"
	config.Logger.TimeFormat = "2006-01-02 15:04:05"
	config.Logger.ReportCaller = false

	config.Tracing.ServiceName = "resume-analyzer"
	config.Tracing.Insecure = true
	config.Tracing.SampleRatio = 1.0

	config.Metrics.Enabled = true
	config.Metrics.Path = "/metrics"

	config.ModelQPMLimits = map[string]int{
		"mistralai/mistral-7b-instruct":               20,
		"google/gemma-3-27b-it:free":                  20,
		"deepseek/deepseek-r1-distill-llama-70b:free": 20,
		"gemini-1.5-flash":                            15,
	}

	return config
}

// DefaultConfig 返回一份默认配置的副本
func DefaultConfig() *Config {
	config := createDefaultConfig()
	applyDefaults(config)
	return config
}

// CreateSampleConfig 创建一个示例配置文件
func CreateSampleConfig(filePath string) error {
	if _, err := os.Stat(filePath); err == nil {
		return fmt.Errorf("文件 '%s' 已存在，不会覆盖", filePath)
	}

	data, err := yaml.Marshal(createDefaultConfig())
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("写入示例配置文件 '%s' 失败: %w", filePath, err)
	}
	return nil
}

// GetModelForTask 根据任务名称获取合适的模型
// 如果任务专用模型存在则返回专用模型，否则返回默认模型
func (c *Config) GetModelForTask(taskName string) string {
	if c.LLM.TaskModels != nil {
		if model, ok := c.LLM.TaskModels[taskName]; ok && model != "" {
			return model
		}
	}
	return c.LLM.Model
}

// QPMForModel 返回模型的QPM上限，未配置时返回 llm.qpm
func (c *Config) QPMForModel(model string) int {
	if qpm, ok := c.ModelQPMLimits[model]; ok && qpm > 0 {
		return qpm
	}
	return c.LLM.QPM
}

// GetDuration utility to parse duration strings from config
func GetDuration(durationStr string, defaultDuration time.Duration) time.Duration {
	if durationStr == "" {
		return defaultDuration
	}
	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return defaultDuration
	}
	return d
}
