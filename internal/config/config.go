package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Data   DataConfig
	Share  ShareConfig
	Debate DebateConfig
	Client ClientConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	data, err := loadDataConfig()
	if err != nil {
		return nil, err
	}

	debate, err := loadDebateConfig()
	if err != nil {
		return nil, err
	}

	client, err := loadClientConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: server,
		AI:     ai,
		Data:   data,
		Share:  ShareConfig{BaseURL: strings.TrimRight(getEnvOrDefault("SHARE_BASE_URL", "http://localhost:5173/share"), "/")},
		Debate: debate,
		Client: client,
	}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr string
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port}, nil
}

// 支持的大模型提供方。
const (
	ProviderArk    = "ark"
	ProviderOpenAI = "openai"
)

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider          string
	APIKey            string
	AccessKey         string
	SecretKey         string
	Model             string
	BaseURL           string
	Region            string
	Temperature       *float64
	TopP              *float64
	MaxTokens         *int
	StreamResponse    bool
	ClassifierEnabled bool
}

// Enabled 表示是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	if c.Model == "" {
		return false
	}
	if c.Provider == ProviderOpenAI {
		return c.APIKey != ""
	}
	return c.APIKey != "" || (c.AccessKey != "" && c.SecretKey != "")
}

// NewChatModel 使用配置创建一个模型实例。
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("AI 凭证或模型配置缺失，至少提供 API Key + Model（ark 也可使用 AK/SK 组合）")
	}

	var temperature *float32
	if c.Temperature != nil {
		val := float32(*c.Temperature)
		temperature = &val
	}

	var topP *float32
	if c.TopP != nil {
		val := float32(*c.TopP)
		topP = &val
	}

	var maxTokens *int
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		maxTokens = &val
	}

	switch c.Provider {
	case ProviderOpenAI:
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     c.BaseURL,
			APIKey:      c.APIKey,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.BaseURL,
			Region:      c.Region,
			APIKey:      c.APIKey,
			AccessKey:   c.AccessKey,
			SecretKey:   c.SecretKey,
			Model:       c.Model,
			MaxTokens:   maxTokens,
			Temperature: temperature,
			TopP:        topP,
		})
	default:
		return nil, fmt.Errorf("unsupported AI_PROVIDER %q", c.Provider)
	}
}

func loadAIConfig() (AIConfig, error) {
	provider := strings.ToLower(getEnvOrDefault("AI_PROVIDER", ProviderArk))
	if provider != ProviderArk && provider != ProviderOpenAI {
		return AIConfig{}, fmt.Errorf("invalid AI_PROVIDER value: %q", provider)
	}

	temperature, err := parseOptionalFloatEnv("AI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	topP, err := parseOptionalFloatEnv("AI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("AI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	stream, err := parseBoolEnv("AI_STREAM", true)
	if err != nil {
		return AIConfig{}, err
	}

	classifier, err := parseBoolEnv("AI_CLASSIFIER_ENABLED", false)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		Provider:          provider,
		Model:             strings.TrimSpace(os.Getenv("AI_MODEL")),
		Temperature:       temperature,
		TopP:              topP,
		MaxTokens:         maxTokens,
		StreamResponse:    stream,
		ClassifierEnabled: classifier,
	}

	// ark 沿用 ARK_* 变量，openai 兼容接口使用 OPENAI_*。
	if provider == ProviderOpenAI {
		cfg.APIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
		cfg.BaseURL = getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
		return cfg, nil
	}

	cfg.APIKey = strings.TrimSpace(os.Getenv("ARK_API_KEY"))
	cfg.AccessKey = strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY"))
	cfg.SecretKey = strings.TrimSpace(os.Getenv("ARK_SECRET_KEY"))
	cfg.BaseURL = getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3")
	cfg.Region = getEnvOrDefault("ARK_REGION", "cn-beijing")
	return cfg, nil
}

// DataConfig 描述交易数据来源。
type DataConfig struct {
	Dir           string
	DefaultUserID string
}

func loadDataConfig() (DataConfig, error) {
	userID := getEnvOrDefault("DEFAULT_USER_ID", "1")
	if _, err := strconv.Atoi(userID); err != nil {
		return DataConfig{}, fmt.Errorf("invalid DEFAULT_USER_ID value %q: %w", userID, err)
	}
	return DataConfig{
		Dir:           getEnvOrDefault("DATA_DIR", "data"),
		DefaultUserID: userID,
	}, nil
}

// ShareConfig 描述分享链接的生成方式。
type ShareConfig struct {
	BaseURL string
}

// DebateConfig 描述辩论每一轮发言的限制。
type DebateConfig struct {
	TurnTimeout time.Duration
}

func loadDebateConfig() (DebateConfig, error) {
	timeout, err := parseDurationEnv("DEBATE_TURN_TIMEOUT", 20*time.Second)
	if err != nil {
		return DebateConfig{}, err
	}
	return DebateConfig{TurnTimeout: timeout}, nil
}

// ClientConfig 描述终端客户端访问后端的方式。
type ClientConfig struct {
	BackendURL    string
	Timeout       time.Duration
	StoryInterval time.Duration
}

func loadClientConfig() (ClientConfig, error) {
	timeout, err := parseDurationEnv("BACKEND_TIMEOUT", 30*time.Second)
	if err != nil {
		return ClientConfig{}, err
	}

	interval, err := parseDurationEnv("STORY_INTERVAL", 5*time.Second)
	if err != nil {
		return ClientConfig{}, err
	}

	return ClientConfig{
		BackendURL:    strings.TrimRight(getEnvOrDefault("BACKEND_URL", "http://localhost:8080/api"), "/"),
		Timeout:       timeout,
		StoryInterval: interval,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

// parseDurationEnv 同时接受 "20s" 这类时长和纯数字秒数。
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	if seconds, err := strconv.Atoi(raw); err == nil {
		if seconds <= 0 {
			return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	if val <= 0 {
		return 0, fmt.Errorf("invalid %s value %q: must be positive", key, raw)
	}
	return val, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
