package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Providers Providers `yaml:"providers"`
	Analysis  Analysis  `yaml:"analysis"`
	Scrape    Scrape    `yaml:"scrape"`
	Discovery Discovery `yaml:"discovery"`
	Output    Output    `yaml:"output"`
	Server    Server    `yaml:"server"`
	Logging   Logging   `yaml:"logging"`
}

type Providers struct {
	OpenAI     Provider `yaml:"openai"`
	Anthropic  Provider `yaml:"anthropic"`
	Google     Provider `yaml:"google"`
	Perplexity Provider `yaml:"perplexity"`
	Ollama     Provider `yaml:"ollama"`
}

// Provider configures one AI backend. Keys are read from APIKeyEnv, never from YAML.
type Provider struct {
	Enabled   bool   `yaml:"enabled"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// APIKey resolves the provider key from the environment.
func (p Provider) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

type Analysis struct {
	MaxConcurrency  int           `yaml:"max_concurrency"`
	ProviderTimeout time.Duration `yaml:"provider_timeout"`
	RunTimeout      time.Duration `yaml:"run_timeout"`
	MaxPrompts      int           `yaml:"max_prompts"`
	MaxCompetitors  int           `yaml:"max_competitors"`
	MaxTokens       int           `yaml:"max_tokens"`
	EventBuffer     int           `yaml:"event_buffer"`
}

type Scrape struct {
	Timeout     time.Duration `yaml:"timeout"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`
	UserAgent   string        `yaml:"user_agent"`
}

type Discovery struct {
	NewsAPIKeyEnv        string `yaml:"newsapi_key_env"`
	FeedURLTemplate      string `yaml:"feed_url_template"`
	UseProviderKnowledge bool   `yaml:"use_provider_knowledge"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// WriteTimeout bounds each event written to a streaming client.
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// ConfigDir returns the XDG config directory for brandmonitor.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "brandmonitor")
}

// DataDir returns the XDG data directory for brandmonitor.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "brandmonitor")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/brandmonitor/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'brandmonitor init' to create a default config",
		xdgConfig,
	)
}

// Load reads .env files (if any) and parses a config YAML file.
func Load(path string) (*Config, error) {
	// Missing .env files are fine; keys may come from the real environment.
	_ = godotenv.Load(filepath.Join(filepath.Dir(path), ".env"), ".env")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Providers: Providers{
			OpenAI:     Provider{Enabled: true, Model: "gpt-4o-mini", APIKeyEnv: "OPENAI_API_KEY"},
			Anthropic:  Provider{Enabled: true, Model: "claude-3-5-haiku-latest", APIKeyEnv: "ANTHROPIC_API_KEY"},
			Google:     Provider{Enabled: true, Model: "gemini-1.5-flash", APIKeyEnv: "GOOGLE_GENERATIVE_AI_API_KEY"},
			Perplexity: Provider{Enabled: true, Model: "sonar", APIKeyEnv: "PERPLEXITY_API_KEY"},
			Ollama:     Provider{Enabled: false, Model: "qwen2.5:7b", BaseURL: "http://localhost:11434"},
		},
		Analysis: Analysis{
			MaxConcurrency:  4,
			ProviderTimeout: 60 * time.Second,
			RunTimeout:      5 * time.Minute,
			MaxPrompts:      10,
			MaxCompetitors:  8,
			MaxTokens:       800,
			EventBuffer:     64,
		},
		Scrape: Scrape{
			Timeout:     15 * time.Second,
			CacheMaxAge: 7 * 24 * time.Hour,
			UserAgent:   "brandmonitor/1.0 (+company profile)",
		},
		Discovery: Discovery{
			NewsAPIKeyEnv:        "NEWSAPI_KEY",
			UseProviderKnowledge: true,
		},
		Server:  Server{Host: "127.0.0.1", Port: 8000, WriteTimeout: 10 * time.Second},
		Logging: Logging{Level: "info", Format: "text", Output: "stderr"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	a := c.Analysis
	if a.MaxConcurrency < 1 {
		return fmt.Errorf("analysis.max_concurrency must be at least 1, got %d", a.MaxConcurrency)
	}
	if a.ProviderTimeout <= 0 {
		return fmt.Errorf("analysis.provider_timeout must be positive")
	}
	if a.RunTimeout < a.ProviderTimeout {
		return fmt.Errorf("analysis.run_timeout (%s) is shorter than provider_timeout (%s)", a.RunTimeout, a.ProviderTimeout)
	}
	if a.EventBuffer < 1 {
		return fmt.Errorf("analysis.event_buffer must be at least 1")
	}
	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.write_timeout must be positive")
	}
	return nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DatabasePath returns the SQLite file used for results and the scrape cache.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.GetDataDir(), "brandmonitor.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
