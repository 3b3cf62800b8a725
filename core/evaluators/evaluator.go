// Package evaluators holds the advisory roles consulted on every loop
// iteration. Each role is an independent judgment call that either
// contributes a proposal or stays silent.
package evaluators

import (
	"context"
	"fmt"
	"math"

	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

const (
	defaultTemperature = 0.3
	defaultMaxTokens   = 800

	maxPriority = 10
)

// Evaluator is one advisory role. Evaluate never fails: a role that cannot
// or will not contribute returns nil.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, userMessage, snapshot string) *types.Proposal
}

// judgment is the structured answer every role asks the reasoner for.
type judgment struct {
	Confidence float64            `json:"confidence"`
	Priority   float64            `json:"priority"`
	Payload    types.ActionParams `json:"payload"`
	Reasoning  string             `json:"reasoning"`
}

// gate inspects a decoded payload and may rewrite it. Returning false
// withdraws the proposal.
type gate func(types.ActionParams) (types.ActionParams, bool)

type role struct {
	name        string
	guidance    string
	reasoner    llm.Reasoner
	gate        gate
	temperature float32
	maxTokens   int
}

func newRole(r llm.Reasoner, name, guidance string, g gate) *role {
	return &role{
		name:        name,
		guidance:    guidance,
		reasoner:    r,
		gate:        g,
		temperature: defaultTemperature,
		maxTokens:   defaultMaxTokens,
	}
}

func (r *role) Name() string {
	return r.name
}

func (r *role) Evaluate(ctx context.Context, userMessage, snapshot string) *types.Proposal {
	if r.reasoner == nil {
		return nil
	}

	input := fmt.Sprintf("User message:\n%s\n\nCurrent state:\n%s", userMessage, snapshot)

	var j judgment
	if err := llm.GenerateJSONWithGuidance(ctx, r.reasoner, r.guidance+answerFormat, input, r.temperature, r.maxTokens, &j); err != nil {
		xlog.Warn("evaluator failed, no proposal", "module", r.name, "error", err)
		return nil
	}

	p := r.proposal(j)
	if p == nil {
		xlog.Debug("evaluator abstained", "module", r.name, "confidence", j.Confidence)
		return nil
	}
	return p
}

// proposal applies the opt-out rule, the role gate and the value clamps.
func (r *role) proposal(j judgment) *types.Proposal {
	confidence := clamp(j.Confidence, 0, 1)
	if confidence < types.MinProposalConfidence || len(j.Payload) == 0 {
		return nil
	}

	payload := j.Payload
	if r.gate != nil {
		var ok bool
		if payload, ok = r.gate(payload); !ok {
			return nil
		}
	}

	return &types.Proposal{
		Module:     r.name,
		Confidence: confidence,
		Priority:   int(math.Round(clamp(j.Priority, 0, maxPriority))),
		Payload:    payload,
		Reasoning:  j.Reasoning,
	}
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

const answerFormat = `

Answer only with a JSON object:
{"confidence": <0.0-1.0>, "priority": <0-10>, "payload": {<role specific fields>}, "reasoning": "<short explanation>"}
If you have nothing useful to contribute, answer with confidence 0 and an empty payload.`
