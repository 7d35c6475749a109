// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	ListenAddr string
	LogLevel   string

	// Upstream endpoints
	RPCURL          string // Solana JSON-RPC endpoint (Helius or any mainnet node)
	JupiterPriceURL string // Jupiter price API base URL

	// Storage (optional; in-memory stores when unset)
	PostgresDSN   string
	ClickhouseDSN string

	// Model artifacts (optional; heuristic scoring / raw features when unset)
	ModelPath  string
	ScalerPath string

	// Performance settings
	CacheTTL       time.Duration
	RequestTimeout time.Duration
	HistoryLimit   int // signatures fetched per wallet

	// Risk thresholds
	HighRiskThreshold   float64
	MediumRiskThreshold float64

	// Explanation settings
	UseLLM        bool
	LLMProvider   string // "openai" or "llama"
	OpenAIAPIKey  string
	OpenAIModel   string
	LlamaEndpoint string
}

// Defaults for optional settings.
const (
	DefaultListenAddr      = ":8080"
	DefaultLogLevel        = "info"
	DefaultJupiterPriceURL = "https://price.jup.ag/v4"
	DefaultCacheTTL        = 60 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
	DefaultHistoryLimit    = 100
	DefaultHighThreshold   = 75.0
	DefaultMediumThreshold = 50.0
	DefaultLLMProvider     = "openai"
	DefaultOpenAIModel     = "gpt-4-turbo"
)

// Load reads configuration from environment variables. A .env file is loaded
// first when present (local development).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:          getEnv("LISTEN_ADDR", DefaultListenAddr),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		RPCURL:              rpcURL(),
		JupiterPriceURL:     getEnv("JUPITER_PRICE_URL", DefaultJupiterPriceURL),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
		ClickhouseDSN:       os.Getenv("CLICKHOUSE_DSN"),
		ModelPath:           os.Getenv("MODEL_PATH"),
		ScalerPath:          os.Getenv("SCALER_PATH"),
		CacheTTL:            getEnvDuration("CACHE_EXPIRY", DefaultCacheTTL),
		RequestTimeout:      getEnvDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		HistoryLimit:        getEnvInt("HISTORY_LIMIT", DefaultHistoryLimit),
		HighRiskThreshold:   getEnvFloat("HIGH_RISK_THRESHOLD", DefaultHighThreshold),
		MediumRiskThreshold: getEnvFloat("MEDIUM_RISK_THRESHOLD", DefaultMediumThreshold),
		UseLLM:              getEnvBool("USE_LLM", false),
		LLMProvider:         getEnv("LLM_PROVIDER", DefaultLLMProvider),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:         getEnv("OPENAI_MODEL", DefaultOpenAIModel),
		LlamaEndpoint:       os.Getenv("LLAMA_ENDPOINT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rpcURL resolves the Solana endpoint. RPC_URL wins when set; otherwise a
// Helius URL is assembled from HELIUS_API_KEY.
func rpcURL() string {
	if url := os.Getenv("RPC_URL"); url != "" {
		return url
	}
	if key := os.Getenv("HELIUS_API_KEY"); key != "" {
		return "https://mainnet.helius-rpc.com/?api-key=" + key
	}
	return ""
}

// Validate checks that required settings are present and thresholds are sane.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC_URL or HELIUS_API_KEY is required")
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_EXPIRY must be positive, got %s", c.CacheTTL)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.HighRiskThreshold < 0 || c.HighRiskThreshold > 100 {
		return fmt.Errorf("HIGH_RISK_THRESHOLD must be in [0,100], got %g", c.HighRiskThreshold)
	}
	if c.MediumRiskThreshold < 0 || c.MediumRiskThreshold > 100 {
		return fmt.Errorf("MEDIUM_RISK_THRESHOLD must be in [0,100], got %g", c.MediumRiskThreshold)
	}
	if c.MediumRiskThreshold >= c.HighRiskThreshold {
		return fmt.Errorf("MEDIUM_RISK_THRESHOLD (%g) must be below HIGH_RISK_THRESHOLD (%g)",
			c.MediumRiskThreshold, c.HighRiskThreshold)
	}
	if c.UseLLM && c.LLMProvider != "openai" && c.LLMProvider != "llama" {
		return fmt.Errorf("LLM_PROVIDER must be \"openai\" or \"llama\", got %q", c.LLMProvider)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvDuration reads a duration. Bare integers are treated as seconds so
// .env files can say CACHE_EXPIRY=60 as well as CACHE_EXPIRY=60s.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
