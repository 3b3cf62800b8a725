package types

import "time"

type Urgency string

const (
	UrgencyLow      Urgency = "low"
	UrgencyMedium   Urgency = "medium"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh, UrgencyCritical:
		return true
	}
	return false
}

type FocusLevel string

const (
	FocusNarrow FocusLevel = "narrow"
	FocusBroad  FocusLevel = "broad"
)

func (f FocusLevel) Valid() bool {
	return f == FocusNarrow || f == FocusBroad
}

type Orienting struct {
	Topic          string     `json:"topic"`
	Task           string     `json:"task,omitempty"`
	FocusLevel     FocusLevel `json:"focusLevel"`
	IsContinuation bool       `json:"isContinuation"`
	PreviousTopic  string     `json:"previousTopic,omitempty"`
}

type Alerting struct {
	Urgency   Urgency `json:"urgency"`
	Reasoning string  `json:"reasoning,omitempty"`
}

// FocusState is what the attention subsystem currently attends to for one
// agent.
type FocusState struct {
	AgentID            string     `json:"agentId"`
	CurrentTopic       string     `json:"currentTopic"`
	CurrentTask        string     `json:"currentTask,omitempty"`
	Urgency            Urgency    `json:"urgency"`
	FocusLevel         FocusLevel `json:"focusLevel"`
	LastUpdated        time.Time  `json:"lastUpdated"`
	TurnCount          int        `json:"turnCount"`
	LastConversationID string     `json:"lastConversationId,omitempty"`
}

type AttentionState struct {
	AgentID   string      `json:"agentId"`
	Orienting Orienting   `json:"orienting"`
	Alerting  Alerting    `json:"alerting"`
	Focus     *FocusState `json:"focus"`
	Timestamp time.Time   `json:"timestamp"`
}

type FilterCriteria struct {
	Topic        string  `json:"topic,omitempty"`
	Task         string  `json:"task,omitempty"`
	MinRelevance float64 `json:"minRelevance"`
}

// Allocation is how much memory context a turn is allowed to pull in.
type Allocation struct {
	Limit       int      `json:"limit"`
	MemoryTypes []string `json:"memoryTypes"`
}
