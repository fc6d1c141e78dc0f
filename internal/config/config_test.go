package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	yaml := []byte(`
server:
  port: 8001
  host: localhost
registry:
  url: http://localhost:8000
oracle:
  provider: ollama
  base_url: http://localhost:11434
  model: test-model
executor:
  max_retries: 5
  base_delay: 500ms
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 8001 {
		t.Errorf("Expected port 8001, got %d", cfg.Server.Port)
	}
	if cfg.Oracle.Provider != "ollama" {
		t.Errorf("Expected provider ollama, got %s", cfg.Oracle.Provider)
	}
	if cfg.Executor.GetBaseDelay() != 500*time.Millisecond {
		t.Errorf("Expected base_delay 500ms, got %v", cfg.Executor.GetBaseDelay())
	}
	if cfg.Planner.Attempts != 4 {
		t.Errorf("Expected default attempts 4, got %d", cfg.Planner.Attempts)
	}
}

func TestAPIKeyEnvOverride(t *testing.T) {
	yaml := []byte(`
server:
  port: 8001
oracle:
  provider: openai-compatible
  base_url: http://localhost:9999/v1
  api_key: from-file
  model: test-model
`)
	f, _ := os.CreateTemp("", "config-*.yaml")
	f.Write(yaml)
	f.Close()
	defer os.Remove(f.Name())

	t.Setenv("ORACLE_API_KEY", "from-env")
	cfg, err := Load(f.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Oracle.APIKey != "from-env" {
		t.Errorf("Expected env override, got %s", cfg.Oracle.APIKey)
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Server:   ServerConfig{Port: 8000, Host: "localhost"},
		Registry: RegistryConfig{URL: "http://localhost:8000"},
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed: %v", err)
	}
}

func TestValidateInvalidPort(t *testing.T) {
	cfg := &Config{Server: ServerConfig{Port: -1}}
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation error for invalid port")
	}
}

func TestValidateOracleMissingKey(t *testing.T) {
	cfg := &Config{
		Oracle: OracleConfig{Provider: "openai-compatible", BaseURL: "http://x", Model: "m"},
	}
	if err := cfg.ValidateOracle(); err == nil {
		t.Error("Expected validation error for missing api_key")
	}
}

func TestValidateOracleOllamaNoKey(t *testing.T) {
	cfg := &Config{
		Oracle: OracleConfig{Provider: "ollama", BaseURL: "http://localhost:11434", Model: "m"},
	}
	if err := cfg.ValidateOracle(); err != nil {
		t.Errorf("Ollama should not require api_key: %v", err)
	}
}
