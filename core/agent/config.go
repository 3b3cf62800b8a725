package agent

import (
	"fmt"
	"os"
	"time"

	"github.com/pchaganti/px-zuckerman-sub001/core/attention"
	"github.com/pchaganti/px-zuckerman-sub001/core/conversations"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"gopkg.in/yaml.v3"
)

type AttentionConfig struct {
	Enabled            *bool         `yaml:"enabled"`
	ContinuationWindow time.Duration `yaml:"continuation_window"`
}

// Config is the file form of an agent. Model and endpoint settings are
// consumed by the caller building the reasoner; the rest maps onto
// Options.
type Config struct {
	Name               string          `yaml:"name"`
	Model              string          `yaml:"model"`
	APIURL             string          `yaml:"api_url"`
	APIKey             string          `yaml:"api_key"`
	Timeout            string          `yaml:"timeout"`
	MaxIterations      int             `yaml:"max_iterations"`
	HistoryWindow      int             `yaml:"history_window"`
	Evaluators         []string        `yaml:"evaluators"`
	Attention          AttentionConfig `yaml:"attention"`
	TreeStore          string          `yaml:"tree_store"`
	ConversationExpiry time.Duration   `yaml:"conversation_expiry"`
	SeedMemories       string          `yaml:"seed_memories"`
	FallbackResponse   string          `yaml:"fallback_response"`
	SystemPrompt       string          `yaml:"system_prompt"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return ParseConfig(data)
}

func ParseConfig(data []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return c, nil
}

// Options translates the config into agent options. Zero values keep the
// agent defaults.
func (c Config) Options() ([]Option, error) {
	opts := []Option{}

	if c.Name != "" {
		opts = append(opts, WithName(c.Name))
	}
	if c.MaxIterations != 0 {
		opts = append(opts, WithMaxIterations(c.MaxIterations))
	}
	if c.HistoryWindow > 0 {
		opts = append(opts, WithHistoryWindow(c.HistoryWindow))
	}
	if len(c.Evaluators) > 0 {
		opts = append(opts, WithEvaluatorNames(c.Evaluators...))
	}
	if c.Attention.Enabled != nil && !*c.Attention.Enabled {
		opts = append(opts, DisableAttention)
	}
	if c.Attention.ContinuationWindow > 0 {
		opts = append(opts, WithAttentionOptions(attention.WithContinuationWindow(c.Attention.ContinuationWindow)))
	}
	if c.TreeStore != "" {
		store, err := planning.NewJSONStore(c.TreeStore)
		if err != nil {
			return nil, fmt.Errorf("opening tree store: %w", err)
		}
		opts = append(opts, WithTreeStore(store))
	}
	if c.ConversationExpiry > 0 {
		opts = append(opts, WithConversationLog(conversations.NewTracker(c.ConversationExpiry)))
	}
	if c.SeedMemories != "" {
		opts = append(opts, WithSeedMemories(c.SeedMemories))
	}
	if c.FallbackResponse != "" {
		opts = append(opts, WithFallbackResponse(c.FallbackResponse))
	}
	if c.SystemPrompt != "" {
		opts = append(opts, WithSystemPrompt(c.SystemPrompt))
	}

	return opts, nil
}
