package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("ListenAddr = %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.CacheTTL != DefaultCacheTTL {
		t.Errorf("CacheTTL = %s, want %s", cfg.CacheTTL, DefaultCacheTTL)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %s, want %s", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.HighRiskThreshold != DefaultHighThreshold {
		t.Errorf("HighRiskThreshold = %g, want %g", cfg.HighRiskThreshold, DefaultHighThreshold)
	}
	if cfg.MediumRiskThreshold != DefaultMediumThreshold {
		t.Errorf("MediumRiskThreshold = %g, want %g", cfg.MediumRiskThreshold, DefaultMediumThreshold)
	}
	if cfg.UseLLM {
		t.Error("UseLLM should default to false")
	}
}

func TestLoadRequiresRPC(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("HELIUS_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error without RPC_URL or HELIUS_API_KEY")
	}
}

func TestLoadHeliusURL(t *testing.T) {
	t.Setenv("RPC_URL", "")
	t.Setenv("HELIUS_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	want := "https://mainnet.helius-rpc.com/?api-key=test-key"
	if cfg.RPCURL != want {
		t.Errorf("RPCURL = %q, want %q", cfg.RPCURL, want)
	}
}

func TestLoadDurationSeconds(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("CACHE_EXPIRY", "120")
	t.Setenv("REQUEST_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Errorf("CacheTTL = %s, want 2m", cfg.CacheTTL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("RequestTimeout = %s, want 5s", cfg.RequestTimeout)
	}
}

func TestValidateThresholdOrdering(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("HIGH_RISK_THRESHOLD", "40")
	t.Setenv("MEDIUM_RISK_THRESHOLD", "60")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when medium threshold >= high threshold")
	}
}

func TestValidateThresholdRange(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("HIGH_RISK_THRESHOLD", "150")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for threshold above 100")
	}
}

func TestValidateLLMProvider(t *testing.T) {
	t.Setenv("RPC_URL", "http://localhost:8899")
	t.Setenv("USE_LLM", "true")
	t.Setenv("LLM_PROVIDER", "claude")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown LLM provider")
	}
}
