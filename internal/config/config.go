package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for Maestro services. Every service
// binary reads the same file and picks out its own section.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Registry    RegistryConfig    `yaml:"registry"`
	Oracle      OracleConfig      `yaml:"oracle"`
	Planner     PlannerConfig     `yaml:"planner"`
	Executor    ExecutorConfig    `yaml:"executor"`
	Observatory ObservatoryConfig `yaml:"observatory"`
	Redis       RedisConfig       `yaml:"redis,omitempty"`
	Agents      AgentsConfig      `yaml:"agents,omitempty"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig defines HTTP server settings for the binary being run.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// RegistryConfig defines registry connection and liveness settings.
type RegistryConfig struct {
	URL      string         `yaml:"url"`
	Timeout  string         `yaml:"timeout"`
	Liveness LivenessConfig `yaml:"liveness,omitempty"`
}

// GetTimeout returns the registry client timeout as a time.Duration.
func (c *RegistryConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 10 * time.Second
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// LivenessConfig defines endpoint probing for registered agents.
// Probing only marks status; cards are never expired.
type LivenessConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule,omitempty"` // cron spec, default every minute
}

// OracleConfig defines the reasoning backend used by the planner.
type OracleConfig struct {
	Provider string `yaml:"provider"` // "openai-compatible" or "ollama"
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key,omitempty"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// GetTimeout returns the oracle call timeout as a time.Duration.
func (o *OracleConfig) GetTimeout() time.Duration {
	if o.Timeout == "" {
		return 60 * time.Second
	}
	d, err := time.ParseDuration(o.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// PlannerConfig defines plan generation settings.
type PlannerConfig struct {
	Attempts int `yaml:"attempts,omitempty"` // oracle attempts per goal, default 4
}

// ExecutorConfig defines workflow execution settings.
type ExecutorConfig struct {
	MaxRetries  int    `yaml:"max_retries"`
	BaseDelay   string `yaml:"base_delay"`
	StepTimeout string `yaml:"step_timeout"`
}

// GetBaseDelay returns the retry base delay as a time.Duration.
func (e *ExecutorConfig) GetBaseDelay() time.Duration {
	if e.BaseDelay == "" {
		return time.Second
	}
	d, err := time.ParseDuration(e.BaseDelay)
	if err != nil {
		return time.Second
	}
	return d
}

// GetStepTimeout returns the per-call timeout as a time.Duration.
func (e *ExecutorConfig) GetStepTimeout() time.Duration {
	if e.StepTimeout == "" {
		return 30 * time.Second
	}
	d, err := time.ParseDuration(e.StepTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ObservatoryConfig defines the event sink used by planner and executor
// and the collector's own retention limits.
type ObservatoryConfig struct {
	URL       string `yaml:"url"`
	MaxTraces int    `yaml:"max_traces,omitempty"`
	MaxEvents int    `yaml:"max_events,omitempty"`
}

// RedisConfig defines the optional Redis Streams event transport.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

// AgentsConfig defines where the bundled demo agents listen. Each
// agent takes one port starting at BasePort.
type AgentsConfig struct {
	Host     string `yaml:"host"`
	BasePort int    `yaml:"base_port"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads and parses the configuration file, then applies
// environment overrides (ORACLE_API_KEY takes precedence over the file
// so keys can stay out of checked-in configs).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if key := os.Getenv("ORACLE_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Planner.Attempts == 0 {
		c.Planner.Attempts = 4
	}
	if c.Executor.MaxRetries == 0 {
		c.Executor.MaxRetries = 3
	}
	if c.Observatory.MaxTraces == 0 {
		c.Observatory.MaxTraces = 100
	}
	if c.Observatory.MaxEvents == 0 {
		c.Observatory.MaxEvents = 500
	}
	if c.Agents.Host == "" {
		c.Agents.Host = "localhost"
	}
	if c.Agents.BasePort == 0 {
		c.Agents.BasePort = 8101
	}
}

// Validate checks the configuration for errors that would prevent a
// service from starting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	return nil
}

// ValidateOracle checks oracle settings; only the planner calls this,
// the other services do not need reasoning credentials.
func (c *Config) ValidateOracle() error {
	switch c.Oracle.Provider {
	case "ollama":
		if c.Oracle.BaseURL == "" {
			return fmt.Errorf("oracle base_url is required for ollama")
		}
	case "openai-compatible", "openai", "openrouter", "vllm":
		if c.Oracle.BaseURL == "" {
			return fmt.Errorf("oracle base_url is required")
		}
		if c.Oracle.APIKey == "" {
			return fmt.Errorf("oracle api_key is required (set ORACLE_API_KEY)")
		}
	case "":
		return fmt.Errorf("oracle provider is required")
	default:
		return fmt.Errorf("unsupported oracle provider: %s", c.Oracle.Provider)
	}
	if c.Oracle.Model == "" {
		return fmt.Errorf("oracle model is required")
	}
	return nil
}
