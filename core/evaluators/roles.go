package evaluators

import (
	"fmt"
	"strings"

	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/llm"
)

const (
	Interaction = "interaction"
	Memory      = "memory"
	Planning    = "planning"
	Attention   = "attention"
	Reflection  = "reflection"
	Creativity  = "creativity"
	Criticism   = "criticism"
)

// Names lists every role in the order Defaults builds them.
var Names = []string{Interaction, Memory, Planning, Attention, Reflection, Creativity, Criticism}

const interactionGuidance = `You are the interaction module of an assistant.
Judge how the assistant should talk to the user right now: whether a direct reply is due, its tone, and what it must contain.
Payload fields: "shouldRespond" (bool), "responseOutline" (string), "tone" (string).`

const memoryGuidance = `You are the memory module of an assistant.
Judge which facts from the conversation are worth keeping and which stored memories are relevant or stale.
Payload fields: "memoriesToAdd" (array of strings), "memoriesToRemove" (array of ids), "relevantMemories" (array of strings).`

const planningGuidance = `You are the planning module of an assistant.
Judge whether the request needs multi-step work. If it does, propose a goal and ordered tasks.
Payload fields: "needsDecomposition" (bool), "goal" (string), "tasks" (array of {"title", "description", "urgency", "priority"}).`

const attentionGuidance = `You are the attention module of an assistant.
Judge what deserves focus right now and what can be ignored, taking urgency into account.
Payload fields: "focus" (string), "ignore" (array of strings), "urgency" ("low"|"medium"|"high"|"critical").`

const reflectionGuidance = `You are the reflection module of an assistant.
Judge how the work so far went: what succeeded, what did not, and what the assistant learned.
Payload fields: "assessment" (string), "lessons" (array of strings), "goalProgress" (string).`

const creativityGuidance = `You are the creativity module of an assistant.
Only contribute when the current approach has failed. Identify the failures and propose alternative solutions.
Payload fields: "failuresIdentified" (array of strings), "proposedSolutions" (array of strings, at most 3).`

const criticismGuidance = `You are the criticism module of an assistant.
Judge the assistant's latest behaviour and pending plan for mistakes, risks and unmet requirements.
Payload fields: "issues" (array of strings), "severity" ("low"|"medium"|"high"), "suggestion" (string).`

func NewInteraction(r llm.Reasoner) Evaluator {
	return newRole(r, Interaction, interactionGuidance, nil)
}

func NewMemory(r llm.Reasoner) Evaluator {
	return newRole(r, Memory, memoryGuidance, nil)
}

func NewPlanning(r llm.Reasoner) Evaluator {
	return newRole(r, Planning, planningGuidance, nil)
}

func NewAttention(r llm.Reasoner) Evaluator {
	return newRole(r, Attention, attentionGuidance, nil)
}

func NewReflection(r llm.Reasoner) Evaluator {
	return newRole(r, Reflection, reflectionGuidance, nil)
}

// NewCreativity only proposes when it can name at least one failure and
// one solution.
func NewCreativity(r llm.Reasoner) Evaluator {
	return newRole(r, Creativity, creativityGuidance, creativityGate)
}

func NewCriticism(r llm.Reasoner) Evaluator {
	return newRole(r, Criticism, criticismGuidance, nil)
}

var constructors = map[string]func(llm.Reasoner) Evaluator{
	Interaction: NewInteraction,
	Memory:      NewMemory,
	Planning:    NewPlanning,
	Attention:   NewAttention,
	Reflection:  NewReflection,
	Creativity:  NewCreativity,
	Criticism:   NewCriticism,
}

// Defaults builds every role.
func Defaults(r llm.Reasoner) []Evaluator {
	evaluators, _ := ByName(r, Names...)
	return evaluators
}

// ByName builds the named roles, in the given order. Duplicates are built
// once.
func ByName(r llm.Reasoner, names ...string) ([]Evaluator, error) {
	seen := map[string]bool{}
	evaluators := []Evaluator{}
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if seen[n] {
			continue
		}
		build, ok := constructors[n]
		if !ok {
			return nil, fmt.Errorf("unknown evaluator %q", n)
		}
		seen[n] = true
		evaluators = append(evaluators, build(r))
	}
	return evaluators, nil
}

const maxProposedSolutions = 3

func creativityGate(payload types.ActionParams) (types.ActionParams, bool) {
	failures := nonEmptyStrings(payload["failuresIdentified"])
	solutions := nonEmptyStrings(payload["proposedSolutions"])
	if len(failures) == 0 || len(solutions) == 0 {
		return nil, false
	}
	if len(solutions) > maxProposedSolutions {
		solutions = solutions[:maxProposedSolutions]
	}

	out := types.ActionParams{}
	for k, v := range payload {
		out[k] = v
	}
	out["failuresIdentified"] = failures
	out["proposedSolutions"] = solutions
	return out, true
}

// nonEmptyStrings reads a JSON array of strings, dropping blanks and
// anything that is not a string.
func nonEmptyStrings(v interface{}) []string {
	items, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := []string{}
	for _, item := range items {
		s, ok := item.(string)
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
