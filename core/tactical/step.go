// Package tactical executes one leaf task at a time, step by step, and
// decides whether a failed task deserves a fallback.
package tactical

import (
	"encoding/json"
	"fmt"
)

// StepsKey is the task metadata entry holding the step list.
const StepsKey = "steps"

type TaskStep struct {
	ID                   string `json:"id"`
	Title                string `json:"title"`
	Description          string `json:"description,omitempty"`
	Order                int    `json:"order"`
	Completed            bool   `json:"completed"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
	ConfirmationReason   string `json:"confirmationReason,omitempty"`
	Result               string `json:"result,omitempty"`
	Error                string `json:"error,omitempty"`
}

// stepsFromMetadata decodes the persisted step list. Steps come back as
// generic JSON after a snapshot reload, so the value is re-encoded.
func stepsFromMetadata(metadata map[string]interface{}) ([]TaskStep, error) {
	raw, ok := metadata[StepsKey]
	if !ok || raw == nil {
		return nil, nil
	}
	if steps, ok := raw.([]TaskStep); ok {
		return append([]TaskStep{}, steps...), nil
	}

	b, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var steps []TaskStep
	if err := json.Unmarshal(b, &steps); err != nil {
		return nil, fmt.Errorf("decoding task steps: %w", err)
	}
	return steps, nil
}

// numberSteps assigns ids and orders following list position.
func numberSteps(taskID string, steps []TaskStep) []TaskStep {
	out := make([]TaskStep, len(steps))
	for i, s := range steps {
		s.Order = i
		if s.ID == "" {
			s.ID = fmt.Sprintf("%s-step-%d", taskID, i+1)
		}
		out[i] = s
	}
	return out
}

func completedCount(steps []TaskStep) int {
	n := 0
	for _, s := range steps {
		if s.Completed {
			n++
		}
	}
	return n
}
