package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderHuggingFace = "huggingface"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
)

const (
	// ModeRAG answers questions from the documents through the language model.
	ModeRAG = "rag"
	// ModeDemo renders a placeholder answer without retrieval or generation.
	ModeDemo = "demo"
)

type Config struct {
	Mode     string `yaml:"mode"`
	HTTPAddr string `yaml:"httpAddr"`
	DocsDir  string `yaml:"docsDir"`
	TopN     int    `yaml:"topN"`

	LLM LLMConfig `yaml:"llm"`
	Log LogConfig `yaml:"log"`

	HFToken       string `yaml:"-"`
	HFBaseURL     string `yaml:"hfBaseURL"`
	OllamaHost    string `yaml:"ollamaHost"`
	OpenAIAPIKey  string `yaml:"-"`
	OpenAIBaseURL string `yaml:"openaiBaseURL"`
}

type LLMConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	MaxNewTokens int           `yaml:"maxNewTokens"`
	Temperature  float64       `yaml:"temperature"`
	Timeout      time.Duration `yaml:"timeout"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration used before any file or
// environment overrides are applied.
func Default() Config {
	return Config{
		Mode:     ModeRAG,
		HTTPAddr: ":8501",
		DocsDir:  "data",
		TopN:     2,
		LLM: LLMConfig{
			Provider:     ProviderHuggingFace,
			Model:        "HuggingFaceH4/zephyr-7b-beta",
			MaxNewTokens: 256,
			Temperature:  0.4,
			Timeout:      2 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		HFBaseURL:  "https://router.huggingface.co/hf-inference",
		OllamaHost: "http://localhost:11434",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// TUTOR_CONFIG, a .env file in the working directory and the process
// environment, in increasing order of precedence.
func Load() (Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("TUTOR_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.Mode = strings.ToLower(getEnv("TUTOR_MODE", cfg.Mode))
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.DocsDir = getEnv("DOCS_DIR", cfg.DocsDir)
	cfg.TopN = getEnvInt("TUTOR_TOP_N", cfg.TopN)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.MaxNewTokens = getEnvInt("LLM_MAX_NEW_TOKENS", cfg.LLM.MaxNewTokens)
	cfg.LLM.Temperature = getEnvFloat("LLM_TEMPERATURE", cfg.LLM.Temperature)
	cfg.LLM.Timeout = getEnvDuration("LLM_TIMEOUT", cfg.LLM.Timeout)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.File = getEnv("LOG_FILE", cfg.Log.File)
	cfg.Log.JSON = getEnvBool("LOG_JSON", cfg.Log.JSON)

	cfg.HFToken = getEnv("HF_TOKEN", cfg.HFToken)
	cfg.HFBaseURL = getEnv("HF_BASE_URL", cfg.HFBaseURL)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OpenAIAPIKey = getEnv("OPENAI_API_KEY", cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", cfg.OpenAIBaseURL)
}

func (c Config) Validate() error {
	switch c.Mode {
	case ModeRAG, ModeDemo:
	default:
		return fmt.Errorf("unknown mode %q (want %s or %s)", c.Mode, ModeRAG, ModeDemo)
	}
	if c.TopN <= 0 {
		return fmt.Errorf("top-n must be positive, got %d", c.TopN)
	}
	if c.LLM.MaxNewTokens <= 0 {
		return fmt.Errorf("max new tokens must be positive, got %d", c.LLM.MaxNewTokens)
	}
	if c.LLM.Timeout < 0 {
		return fmt.Errorf("llm timeout must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, err := strconv.Atoi(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value, err := strconv.ParseFloat(getEnv(key, ""), 64); err == nil {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}
