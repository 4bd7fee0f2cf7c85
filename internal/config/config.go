package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

type Config struct {
	DefaultLLM string                `toml:"default_llm"`
	LLMs       map[string]*LLMConfig `toml:"llm"`
	Server     ServerConfig          `toml:"server"`
	Agent      AgentConfig           `toml:"agent"`
	Window     WindowConfig          `toml:"window"`
	Trace      TraceConfig           `toml:"trace"`

	// TimeOverrideHour pins the hour used for availability checks, for
	// deterministic testing. The FAKE_NOW_HOUR env var takes precedence.
	TimeOverrideHour *int `toml:"time_override_hour"`
}

type LLMConfig struct {
	Model   string `toml:"model"`
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type AgentConfig struct {
	ServerURL string `toml:"server_url"`
	MaxTurns  int    `toml:"max_turns"`

	// Timeouts in seconds; zero means the built-in defaults.
	ModelTimeoutSec int `toml:"model_timeout_sec"`
	ToolTimeoutSec  int `toml:"tool_timeout_sec"`
}

type WindowConfig struct {
	StartHour int `toml:"start_hour"`
	EndHour   int `toml:"end_hour"`
}

type TraceConfig struct {
	Endpoint string `toml:"endpoint"`
	URLPath  string `toml:"url_path"`
	APIKey   string `toml:"api_key"`
}

func Load() (*Config, error) {
	cfg := &Config{
		DefaultLLM: "openai",
		LLMs: map[string]*LLMConfig{
			"openai": {
				Model: "gpt-4.1-mini",
			},
		},
		Server: ServerConfig{
			Addr: ":8000",
		},
		Agent: AgentConfig{
			ServerURL: "http://localhost:8000/mcp",
			MaxTurns:  8,
		},
		Window: WindowConfig{
			StartHour: 10,
			EndHour:   22,
		},
	}

	path := configPath()
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// LLM returns the active model configuration, with the API key falling back
// to the OPENAI_API_KEY environment variable.
func (c *Config) LLM() *LLMConfig {
	lc, ok := c.LLMs[c.DefaultLLM]
	if !ok || lc == nil {
		lc = &LLMConfig{}
	}
	if lc.APIKey == "" {
		lc.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return lc
}

func configPath() string {
	dir, _ := os.UserConfigDir()
	return filepath.Join(dir, "prodma", "config.toml")
}
