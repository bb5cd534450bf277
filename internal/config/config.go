// Package config loads the service configuration from YAML with environment
// variable expansion.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration.
type Config struct {
	// Listen is the HTTP listen address for the action API.
	Listen string `yaml:"listen"`

	Model      ModelConfig      `yaml:"model"`
	Automation AutomationConfig `yaml:"automation"`
	Screenshot ScreenshotConfig `yaml:"screenshot"`
	Agent      AgentConfig      `yaml:"agent"`
	Cascade    CascadeConfig    `yaml:"cascade"`

	// Seeds optionally overrides the built-in selector seed table per
	// feature. Unknown feature names are rejected at startup.
	Seeds map[string][]string `yaml:"seeds"`
}

// ModelConfig selects the completion service model and credentials.
type ModelConfig struct {
	Name   string `yaml:"name"`    // model identifier sent to the completion service
	APIKey string `yaml:"api_key"` // usually ${OPENAI_API_KEY}
}

// AutomationConfig points at the browser-automation tool server.
type AutomationConfig struct {
	Endpoint string `yaml:"endpoint"`
}

// ScreenshotConfig points at the screenshot cache service.
type ScreenshotConfig struct {
	BaseURL string `yaml:"base_url"`
}

// AgentConfig bounds the tool-calling loop.
type AgentConfig struct {
	MaxIterations int `yaml:"max_iterations"` // completion round trips per request (default: 6)
}

// CascadeConfig tunes the extraction cascade's local timeouts.
type CascadeConfig struct {
	SettleMs     int `yaml:"settle_ms"`      // post-navigation settle (default: 2000)
	PollBudgetMs int `yaml:"poll_budget_ms"` // root detection budget (default: 12000)
	PollEveryMs  int `yaml:"poll_every_ms"`  // root detection interval (default: 200)
}

// Settle returns the settle delay as a duration.
func (c CascadeConfig) Settle() time.Duration { return time.Duration(c.SettleMs) * time.Millisecond }

// PollBudget returns the root-detection budget as a duration.
func (c CascadeConfig) PollBudget() time.Duration {
	return time.Duration(c.PollBudgetMs) * time.Millisecond
}

// PollEvery returns the root-detection interval as a duration.
func (c CascadeConfig) PollEvery() time.Duration {
	return time.Duration(c.PollEveryMs) * time.Millisecond
}

// LoadBytes parses YAML configuration after expanding ${VAR} references from
// the environment.
func LoadBytes(data []byte) (*Config, error) {
	var c Config
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()
	return &c, nil
}

// Load reads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return LoadBytes(data)
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8700"
	}
	if c.Model.Name == "" {
		c.Model.Name = "gpt-4.1"
	}
	if c.Automation.Endpoint == "" {
		c.Automation.Endpoint = "http://localhost:8931/mcp"
	}
	if c.Screenshot.BaseURL == "" {
		c.Screenshot.BaseURL = "http://localhost:8932"
	}
	if c.Agent.MaxIterations <= 0 {
		c.Agent.MaxIterations = 6
	}
	if c.Cascade.SettleMs <= 0 {
		c.Cascade.SettleMs = 2000
	}
	if c.Cascade.PollBudgetMs <= 0 {
		c.Cascade.PollBudgetMs = 12000
	}
	if c.Cascade.PollEveryMs <= 0 {
		c.Cascade.PollEveryMs = 200
	}
}
