// Package config loads the YAML configuration recognized by the core,
// with a per-section WithDefaults() pattern.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	DataDir   string          `yaml:"data_dir"`
	AI        AIConfig        `yaml:"ai"`
	Memory    MemoryConfig    `yaml:"memory"`
	Heartbeat HeartbeatConfig `yaml:"heartbeat"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	MCP       MCPConfig       `yaml:"mcp"`
}

// AIConfig configures the Brain's provider roster and token budget.
type AIConfig struct {
	Primary  string         `yaml:"primary"`
	Anthropic *ProviderConfig `yaml:"anthropic"`
	OpenAI    *ProviderConfig `yaml:"openai"`
	Gemini    *ProviderConfig `yaml:"gemini"`
	Ollama    *ProviderConfig `yaml:"ollama"`
	Budget    BudgetConfig    `yaml:"budget"`
}

// ProviderConfig configures one provider variant.
type ProviderConfig struct {
	APIKey    string `yaml:"api_key"`
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	BaseURL   string `yaml:"base_url"`
}

// BudgetConfig configures the daily token budget.
type BudgetConfig struct {
	DailyTokens   int `yaml:"daily_tokens"`
	PerRequestMax int `yaml:"per_request_max"`
}

func (b *BudgetConfig) WithDefaults() BudgetConfig {
	if b.DailyTokens <= 0 {
		b.DailyTokens = 10000
	}
	if b.PerRequestMax <= 0 {
		b.PerRequestMax = 500
	}
	return *b
}

// MemoryConfig configures the memory store and prompt augmentation.
type MemoryConfig struct {
	Enabled       bool                `yaml:"enabled"`
	PromptContext PromptContextConfig `yaml:"prompt_context"`
	Capture       CaptureConfig       `yaml:"capture"`
}

type PromptContextConfig struct {
	Enabled  bool `yaml:"enabled"`
	MaxItems int  `yaml:"max_items"`
	MaxChars int  `yaml:"max_chars"`
}

type CaptureConfig struct {
	RuleBased    bool `yaml:"rule_based"`
	LLMEnabled   bool `yaml:"llm_enabled"`
	MaxNewPerTurn int `yaml:"max_new_per_turn"`
}

// HeartbeatConfig configures the tick loop and its behaviors.
type HeartbeatConfig struct {
	Enabled                    bool `yaml:"enabled"`
	TickIntervalSeconds        int  `yaml:"tick_interval"`
	EnableMoodBehaviors        bool `yaml:"enable_mood_behaviors"`
	EnableTimeBehaviors        bool `yaml:"enable_time_behaviors"`
	EnableSocialBehaviors      bool `yaml:"enable_social_behaviors"`
	EnableMaintenanceBehaviors bool `yaml:"enable_maintenance_behaviors"`
	EnableBatteryBehaviors     bool `yaml:"enable_battery_behaviors"`
	ThoughtIntervalMinMinutes  int  `yaml:"thought_interval_min_minutes"`
	ThoughtIntervalMaxMinutes  int  `yaml:"thought_interval_max_minutes"`
	ThoughtSurfaceProbability  float64 `yaml:"thought_surface_probability"`
	QuietHoursStart            int  `yaml:"quiet_hours_start"`
	QuietHoursEnd              int  `yaml:"quiet_hours_end"`
	BatteryLowThreshold        int  `yaml:"battery_low_threshold"`
	BatteryCriticalThreshold   int  `yaml:"battery_critical_threshold"`
	BatteryFullThreshold       int  `yaml:"battery_full_threshold"`
}

func (h *HeartbeatConfig) WithDefaults() HeartbeatConfig {
	if h.TickIntervalSeconds <= 0 {
		h.TickIntervalSeconds = 60
	}
	if h.ThoughtIntervalMinMinutes <= 0 {
		h.ThoughtIntervalMinMinutes = 15
	}
	if h.ThoughtIntervalMaxMinutes <= 0 {
		h.ThoughtIntervalMaxMinutes = 30
	}
	if h.ThoughtSurfaceProbability == 0 {
		h.ThoughtSurfaceProbability = 0.35
	}
	if h.QuietHoursEnd == 0 && h.QuietHoursStart == 0 {
		h.QuietHoursStart = 23
		h.QuietHoursEnd = 7
	}
	if h.BatteryLowThreshold == 0 {
		h.BatteryLowThreshold = 20
	}
	if h.BatteryCriticalThreshold == 0 {
		h.BatteryCriticalThreshold = 10
	}
	if h.BatteryFullThreshold == 0 {
		h.BatteryFullThreshold = 95
	}
	return *h
}

func (h HeartbeatConfig) TickInterval() time.Duration {
	return time.Duration(h.TickIntervalSeconds) * time.Second
}

// SchedulerConfig configures the scheduled task manager.
type SchedulerConfig struct {
	Enabled bool             `yaml:"enabled"`
	Tasks   []ScheduledEntry `yaml:"tasks"`
}

// ScheduledEntry is one configured cron-style job.
type ScheduledEntry struct {
	Name     string `yaml:"name"`
	Schedule string `yaml:"schedule"`
	Action   string `yaml:"action"`
	Enabled  bool   `yaml:"enabled"`
}

// MCPConfig configures the MCP client manager.
type MCPConfig struct {
	Enabled bool                       `yaml:"enabled"`
	MaxTools int                       `yaml:"max_tools"`
	Servers  map[string]MCPServerEntry `yaml:"servers"`
}

// MCPServerEntry mirrors domain.MCPServerConfig in yaml-friendly form.
type MCPServerEntry struct {
	Command   string            `yaml:"command"`
	Args      []string          `yaml:"args"`
	Env       map[string]string `yaml:"env"`
	URL       string            `yaml:"url"`
	Headers   map[string]string `yaml:"headers"`
	Transport string            `yaml:"transport"`
}

func (m *MCPConfig) WithDefaults() MCPConfig {
	if m.MaxTools <= 0 {
		m.MaxTools = 20
	}
	return *m
}

// Load reads and parses the YAML config at path, applying defaults to every
// section. A missing file is not an error; Load returns zero-value-plus-
// defaults, the same tolerance persisted state falls back to when a file is
// missing or corrupt.
func Load(path string) (*Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.AI.Budget = cfg.AI.Budget.WithDefaults()
	cfg.Heartbeat = cfg.Heartbeat.WithDefaults()
	cfg.MCP = cfg.MCP.WithDefaults()
	if cfg.Memory.PromptContext.MaxItems <= 0 {
		cfg.Memory.PromptContext.MaxItems = 6
	}
	if cfg.Memory.PromptContext.MaxChars <= 0 {
		cfg.Memory.PromptContext.MaxChars = 600
	}
	if cfg.Memory.Capture.MaxNewPerTurn <= 0 {
		cfg.Memory.Capture.MaxNewPerTurn = 5
	}
	if cfg.DataDir == "" {
		home, _ := os.UserHomeDir()
		cfg.DataDir = home + "/.inkling"
	}
	return &cfg, nil
}
