// Package attention tracks what an agent is focused on and how urgent the
// incoming traffic is, and turns that into filtering and allocation policy
// for memory retrieval.
package attention

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

const (
	DefaultTopic = "general"

	defaultContinuationWindow = time.Hour
	defaultTemperature        = 0.2
	defaultMaxTokens          = 300
)

type Controller struct {
	reasoner llm.Reasoner
	enabled  bool

	now                func() time.Time
	continuationWindow time.Duration
	temperature        float32
	maxTokens          int

	mu    sync.Mutex
	focus map[string]*types.FocusState
}

type Option func(*Controller)

// WithClock overrides the time source used for focus bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// WithContinuationWindow sets how long a focus survives without a new
// message on the same topic.
func WithContinuationWindow(d time.Duration) Option {
	return func(c *Controller) {
		c.continuationWindow = d
	}
}

func WithEnabled(enabled bool) Option {
	return func(c *Controller) {
		c.enabled = enabled
	}
}

func WithSampling(temperature float32, maxTokens int) Option {
	return func(c *Controller) {
		c.temperature = temperature
		c.maxTokens = maxTokens
	}
}

func NewController(reasoner llm.Reasoner, opts ...Option) *Controller {
	c := &Controller{
		reasoner:           reasoner,
		enabled:            true,
		now:                time.Now,
		continuationWindow: defaultContinuationWindow,
		temperature:        defaultTemperature,
		maxTokens:          defaultMaxTokens,
		focus:              map[string]*types.FocusState{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Controller) Enabled() bool {
	return c.enabled
}

// ProcessMessage classifies a message and updates the agent's focus. It
// returns nil only when the controller is disabled; every failing sub-step
// degrades to its default instead of aborting.
func (c *Controller) ProcessMessage(ctx context.Context, message, agentID, conversationID string) *types.AttentionState {
	if !c.enabled {
		return nil
	}

	previous := c.Focus(agentID)

	alerting := c.classifyUrgency(ctx, message)
	orienting := c.analyzeOrienting(ctx, message, previous)
	if previous != nil {
		orienting.PreviousTopic = previous.CurrentTopic
	}

	focus := c.updateFocus(agentID, conversationID, orienting, alerting)

	xlog.Debug("attention processed",
		"agent", agentID,
		"urgency", alerting.Urgency,
		"topic", orienting.Topic,
		"task", orienting.Task,
		"turns", focus.TurnCount,
	)

	return &types.AttentionState{
		AgentID:   agentID,
		Orienting: orienting,
		Alerting:  alerting,
		Focus:     focus,
		Timestamp: c.now(),
	}
}

const urgencyPrompt = `You classify how urgent an incoming message is for an assistant.
Answer with a JSON object: {"urgency": "low" | "medium" | "high" | "critical", "reasoning": "<one sentence>"}.
critical: safety, outages, imminent deadlines. high: blocking problems. medium: ordinary requests. low: small talk.`

func (c *Controller) classifyUrgency(ctx context.Context, message string) types.Alerting {
	fallback := types.Alerting{Urgency: types.UrgencyMedium}
	if c.reasoner == nil {
		return fallback
	}

	var result types.Alerting
	if err := llm.GenerateJSONWithGuidance(ctx, c.reasoner, urgencyPrompt, message, c.temperature, c.maxTokens, &result); err != nil {
		xlog.Warn("urgency classification failed, using default", "error", err)
		return fallback
	}

	result.Urgency = types.Urgency(strings.ToLower(strings.TrimSpace(string(result.Urgency))))
	if !result.Urgency.Valid() {
		xlog.Warn("urgency classification returned unknown level, using default", "urgency", result.Urgency)
		return fallback
	}
	return result
}

const orientingPrompt = `You track what a conversation is about.
Answer with a JSON object: {"topic": "<short phrase>", "task": "<active task or empty>", "focusLevel": "narrow" | "broad", "isContinuation": true | false}.
isContinuation is true when the message continues the previous focus.`

func (c *Controller) analyzeOrienting(ctx context.Context, message string, previous *types.FocusState) types.Orienting {
	fallback := types.Orienting{Topic: DefaultTopic, FocusLevel: types.FocusBroad}
	if c.reasoner == nil {
		return fallback
	}

	input := message
	if previous != nil {
		input = fmt.Sprintf("Previous focus: topic=%q task=%q\n\nMessage:\n%s", previous.CurrentTopic, previous.CurrentTask, message)
	}

	var result types.Orienting
	if err := llm.GenerateJSONWithGuidance(ctx, c.reasoner, orientingPrompt, input, c.temperature, c.maxTokens, &result); err != nil {
		xlog.Warn("orienting analysis failed, using default", "error", err)
		return fallback
	}

	result.Topic = strings.TrimSpace(result.Topic)
	result.Task = strings.TrimSpace(result.Task)
	if result.Topic == "" {
		result.Topic = DefaultTopic
	}
	result.FocusLevel = types.FocusLevel(strings.ToLower(string(result.FocusLevel)))
	if !result.FocusLevel.Valid() {
		result.FocusLevel = types.FocusBroad
	}
	return result
}

// updateFocus records the new focus and returns a copy of it. The turn
// count only survives when topic and task are unchanged and the previous
// update is within the continuation window.
func (c *Controller) updateFocus(agentID, conversationID string, o types.Orienting, a types.Alerting) *types.FocusState {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	previous := c.focus[agentID]

	turns := 1
	if previous != nil &&
		previous.CurrentTopic == o.Topic &&
		previous.CurrentTask == o.Task &&
		now.Sub(previous.LastUpdated) <= c.continuationWindow {
		turns = previous.TurnCount + 1
	}

	focus := &types.FocusState{
		AgentID:            agentID,
		CurrentTopic:       o.Topic,
		CurrentTask:        o.Task,
		Urgency:            a.Urgency,
		FocusLevel:         o.FocusLevel,
		LastUpdated:        now,
		TurnCount:          turns,
		LastConversationID: conversationID,
	}
	c.focus[agentID] = focus

	out := *focus
	return &out
}

// Focus returns a copy of the agent's current focus, or nil.
func (c *Controller) Focus(agentID string) *types.FocusState {
	c.mu.Lock()
	defer c.mu.Unlock()

	f, ok := c.focus[agentID]
	if !ok {
		return nil
	}
	out := *f
	return &out
}

func (c *Controller) ClearFocus(agentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.focus, agentID)
}

func (c *Controller) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.focus = map[string]*types.FocusState{}
}

// ShouldShiftAttention reports whether current moves away from previous.
func ShouldShiftAttention(current, previous *types.AttentionState) bool {
	if previous == nil || current == nil {
		return true
	}
	if !current.Orienting.IsContinuation {
		return true
	}
	return current.Orienting.Topic != previous.Orienting.Topic
}
