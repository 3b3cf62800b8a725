package agent

import (
	"github.com/pchaganti/px-zuckerman-sub001/core/attention"
	"github.com/pchaganti/px-zuckerman-sub001/core/evaluators"
	"github.com/pchaganti/px-zuckerman-sub001/core/planning"
	"github.com/pchaganti/px-zuckerman-sub001/core/tactical"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

const (
	DefaultMaxIterations    = 20
	DefaultFallbackResponse = "I'm sorry, I couldn't come up with a response this time."
	defaultHistoryWindow    = 20
	defaultAgentID          = "agent"
)

type Option func(*options) error

type options struct {
	name             string
	systemPrompt     string
	maxIterations    int
	historyWindow    int
	fallbackResponse string
	seedMemories     string

	evaluators     []evaluators.Evaluator
	evaluatorNames []string

	attention         *attention.Controller
	disableAttention  bool
	attentionSettings []attention.Option

	conversations types.ConversationLog
	tools         types.ToolExecutor
	treeStore     planning.TreeStore
	decomposer    tactical.StepDecomposer
	observer      Observer

	responseTemperature float32
	responseMaxTokens   int
}

func defaultOptions() *options {
	return &options{
		name:                defaultAgentID,
		maxIterations:       DefaultMaxIterations,
		historyWindow:       defaultHistoryWindow,
		fallbackResponse:    DefaultFallbackResponse,
		responseTemperature: 0.7,
		responseMaxTokens:   1000,
	}
}

func newOptions(opts ...Option) (*options, error) {
	options := defaultOptions()
	for _, o := range opts {
		if err := o(options); err != nil {
			return nil, err
		}
	}
	return options, nil
}

// WithName sets the agent id used for focus tracking and telemetry.
func WithName(name string) Option {
	return func(o *options) error {
		o.name = name
		return nil
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *options) error {
		o.systemPrompt = prompt
		return nil
	}
}

// WithMaxIterations bounds the number of loop iterations of one run.
func WithMaxIterations(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return ErrInvalidIterations
		}
		o.maxIterations = n
		return nil
	}
}

// WithHistoryWindow bounds how many transcript entries the first iteration
// of a run sees.
func WithHistoryWindow(n int) Option {
	return func(o *options) error {
		o.historyWindow = n
		return nil
	}
}

func WithFallbackResponse(text string) Option {
	return func(o *options) error {
		o.fallbackResponse = text
		return nil
	}
}

// WithSeedMemories sets the default prior-memories text of every run.
func WithSeedMemories(text string) Option {
	return func(o *options) error {
		o.seedMemories = text
		return nil
	}
}

// WithEvaluators replaces the advisory roles.
func WithEvaluators(e ...evaluators.Evaluator) Option {
	return func(o *options) error {
		o.evaluators = e
		return nil
	}
}

// WithEvaluatorNames selects the built-in roles by name.
func WithEvaluatorNames(names ...string) Option {
	return func(o *options) error {
		o.evaluatorNames = names
		return nil
	}
}

func WithAttention(c *attention.Controller) Option {
	return func(o *options) error {
		o.attention = c
		return nil
	}
}

// WithAttentionOptions tunes the controller the agent builds when none is
// given.
func WithAttentionOptions(opts ...attention.Option) Option {
	return func(o *options) error {
		o.attentionSettings = append(o.attentionSettings, opts...)
		return nil
	}
}

var DisableAttention = func(o *options) error {
	o.disableAttention = true
	return nil
}

func WithConversationLog(log types.ConversationLog) Option {
	return func(o *options) error {
		o.conversations = log
		return nil
	}
}

func WithToolExecutor(tools types.ToolExecutor) Option {
	return func(o *options) error {
		o.tools = tools
		return nil
	}
}

func WithTreeStore(store planning.TreeStore) Option {
	return func(o *options) error {
		o.treeStore = store
		return nil
	}
}

func WithStepDecomposer(d tactical.StepDecomposer) Option {
	return func(o *options) error {
		o.decomposer = d
		return nil
	}
}

func WithObserver(obs Observer) Option {
	return func(o *options) error {
		o.observer = obs
		return nil
	}
}

func WithResponseSampling(temperature float32, maxTokens int) Option {
	return func(o *options) error {
		o.responseTemperature = temperature
		o.responseMaxTokens = maxTokens
		return nil
	}
}
