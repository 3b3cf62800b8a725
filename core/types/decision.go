package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type ActionKind string

const (
	ActionRespond     ActionKind = "respond"
	ActionDecompose   ActionKind = "decompose"
	ActionCallTool    ActionKind = "call_tool"
	ActionTermination ActionKind = "termination"
)

var knownActions = map[ActionKind]struct{}{
	ActionRespond:     {},
	ActionDecompose:   {},
	ActionCallTool:    {},
	ActionTermination: {},
}

func (a ActionKind) Valid() bool {
	_, ok := knownActions[a]
	return ok
}

func (a ActionKind) String() string {
	return string(a)
}

// ActionList decodes either a single action string or an ordered array of
// actions. The actions of one list execute sequentially within one turn.
type ActionList []ActionKind

func (l *ActionList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '"' {
		var single ActionKind
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = ActionList{single}
		return nil
	}
	var many []ActionKind
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("action must be a string or an array of strings: %w", err)
	}
	*l = many
	return nil
}

// Normalize drops unknown actions, defaulting to respond when nothing is
// left.
func (l ActionList) Normalize() ActionList {
	out := ActionList{}
	for _, a := range l {
		if a.Valid() {
			out = append(out, a)
		}
	}
	if len(out) == 0 {
		return ActionList{ActionRespond}
	}
	return out
}

// PayloadList decodes either a single payload object or an array of them.
type PayloadList []ActionParams

func (l *PayloadList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '{' {
		single := ActionParams{}
		if err := json.Unmarshal(data, &single); err != nil {
			return err
		}
		*l = PayloadList{single}
		return nil
	}
	var many []ActionParams
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("payload must be an object or an array of objects: %w", err)
	}
	*l = many
	return nil
}

// Decision is the arbitrated outcome of one loop iteration.
type Decision struct {
	Actions      ActionList   `json:"action"`
	Payloads     PayloadList  `json:"payload"`
	StateUpdates StateUpdates `json:"stateUpdates"`
	Reasoning    string       `json:"reasoning"`
}

// PayloadFor pairs the i-th action with its payload. When the payload list
// is shorter than the action list, the first payload is reused; with no
// payload at all an empty one is returned.
func (d Decision) PayloadFor(i int) ActionParams {
	if i >= 0 && i < len(d.Payloads) && d.Payloads[i] != nil {
		return d.Payloads[i]
	}
	if len(d.Payloads) > 0 && d.Payloads[0] != nil {
		return d.Payloads[0]
	}
	return ActionParams{}
}
