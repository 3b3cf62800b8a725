package tactical

import (
	"context"
	"fmt"
	"strings"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

// StepDecomposer turns a task into an ordered step list. It never returns
// an empty list.
type StepDecomposer interface {
	Decompose(ctx context.Context, text string, urgency types.Urgency) []TaskStep
}

type Decomposer struct {
	reasoner    llm.Reasoner
	temperature float32
	maxTokens   int
}

func NewDecomposer(r llm.Reasoner) *Decomposer {
	return &Decomposer{
		reasoner:    r,
		temperature: 0.2,
		maxTokens:   800,
	}
}

const decomposePrompt = `You break a task into small, concrete, ordered steps an assistant can execute one at a time.
Mark a step with requiresConfirmation when it is destructive, costly or irreversible, and say why.
The task urgency is %s: for high or critical urgency prefer fewer, more direct steps.
Answer only with a JSON object:
{"steps": [{"title": "<imperative>", "description": "<optional>", "requiresConfirmation": false, "confirmationReason": ""}]}`

type decomposition struct {
	Steps []TaskStep `json:"steps"`
}

func (d *Decomposer) Decompose(ctx context.Context, text string, urgency types.Urgency) []TaskStep {
	fallback := []TaskStep{{Title: text}}
	if d.reasoner == nil {
		return fallback
	}
	if !urgency.Valid() {
		urgency = types.UrgencyMedium
	}

	var result decomposition
	if err := llm.GenerateJSONWithGuidance(ctx, d.reasoner, fmt.Sprintf(decomposePrompt, urgency), text, d.temperature, d.maxTokens, &result); err != nil {
		xlog.Warn("step decomposition failed, using a single step", "error", err)
		return fallback
	}

	steps := []TaskStep{}
	for _, s := range result.Steps {
		s.Title = strings.TrimSpace(s.Title)
		if s.Title == "" {
			continue
		}
		// Completion state is never authored by the decomposer.
		s.Completed = false
		s.Result = ""
		s.Error = ""
		steps = append(steps, s)
	}
	if len(steps) == 0 {
		xlog.Warn("step decomposition returned no steps, using a single step")
		return fallback
	}
	return steps
}
