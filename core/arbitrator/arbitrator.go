// Package arbitrator merges the proposals of one iteration and the state
// snapshot into a single decision.
package arbitrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/action"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

const (
	defaultTemperature = 0.2
	defaultMaxTokens   = 1500
)

type Arbitrator struct {
	reasoner    llm.Reasoner
	tools       types.Tools
	temperature float32
	maxTokens   int
	prompt      *template.Template
}

type Option func(*Arbitrator)

// WithTools lets the call_tool schema name the tools that actually exist.
func WithTools(tools types.Tools) Option {
	return func(a *Arbitrator) {
		a.tools = tools
	}
}

func WithSampling(temperature float32, maxTokens int) Option {
	return func(a *Arbitrator) {
		a.temperature = temperature
		a.maxTokens = maxTokens
	}
}

func New(reasoner llm.Reasoner, opts ...Option) *Arbitrator {
	a := &Arbitrator{
		reasoner:    reasoner,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
		prompt:      template.Must(template.New("arbitrate").Funcs(sprig.FuncMap()).Parse(arbitratePrompt)),
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Arbitrate returns nil when there is nothing to arbitrate or when no usable
// decision comes back; the caller stops on nil.
func (a *Arbitrator) Arbitrate(ctx context.Context, proposals []types.Proposal, snapshot string) *types.Decision {
	if len(proposals) == 0 {
		xlog.Debug("no proposals to arbitrate")
		return nil
	}
	if a.reasoner == nil {
		return nil
	}

	guidance, err := a.render(proposals)
	if err != nil {
		xlog.Warn("arbitration prompt failed", "error", err)
		return nil
	}

	var d types.Decision
	if err := llm.GenerateJSONWithGuidance(ctx, a.reasoner, guidance, snapshot, a.temperature, a.maxTokens, &d); err != nil {
		xlog.Warn("arbitration failed, no decision", "error", err)
		return nil
	}

	d.Actions = d.Actions.Normalize()

	xlog.Debug("decision", "actions", d.Actions, "reasoning", d.Reasoning)
	return &d
}

type promptProposal struct {
	types.Proposal
	PayloadJSON string
}

func (a *Arbitrator) render(proposals []types.Proposal) (string, error) {
	sorted := append([]types.Proposal{}, proposals...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		if sorted[i].Confidence != sorted[j].Confidence {
			return sorted[i].Confidence > sorted[j].Confidence
		}
		return sorted[i].Module < sorted[j].Module
	})

	items := make([]promptProposal, 0, len(sorted))
	for _, p := range sorted {
		items = append(items, promptProposal{Proposal: p, PayloadJSON: p.Payload.String()})
	}

	actions := []actionSchema{}
	for _, def := range action.Definitions(a.tools) {
		schema, err := json.Marshal(def.Schema())
		if err != nil {
			return "", fmt.Errorf("marshalling %s schema: %w", def.Name, err)
		}
		actions = append(actions, actionSchema{Name: def.Name.String(), Description: def.Description, Schema: string(schema)})
	}

	var b strings.Builder
	err := a.prompt.Execute(&b, struct {
		Proposals []promptProposal
		Actions   []actionSchema
	}{items, actions})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

type actionSchema struct {
	Name        string
	Description string
	Schema      string
}

const arbitratePrompt = `You are the arbitrator of an assistant. Several modules reviewed the current state and made proposals.
Combine them into one decision for this turn.

Proposals (highest priority first):
{{- range .Proposals }}
- {{ .Module }} (confidence {{ printf "%.2f" .Confidence }}, priority {{ .Priority }}): {{ .PayloadJSON }}{{ if .Reasoning }}
  reasoning: {{ .Reasoning | trim }}{{ end }}
{{- end }}

Available actions and their payloads:
{{- range .Actions }}
- {{ .Name }}: {{ .Description }}
  payload schema: {{ .Schema }}
{{- end }}

Answer only with a JSON object:
{"action": "<action>" or ["<action>", ...], "payload": {...} or [{...}, ...], "stateUpdates": {"goals": [...], "memories": [...]}, "reasoning": "<why>"}
Actions in a list run in order within this turn, each paired with the payload at the same index.
Only include "goals" or "memories" in stateUpdates when the whole list should be replaced.`
