package types

import (
	"github.com/google/uuid"
)

// RunRequest asks the agent to process one incoming message.
type RunRequest struct {
	RunID          string
	AgentID        string
	ConversationID string
	Message        string
	// SeedMemories is the prior-memories text working memory starts from.
	SeedMemories string
	Metadata     map[string]interface{}
}

type RunOption func(*RunRequest)

func WithRunID(id string) RunOption {
	return func(r *RunRequest) {
		r.RunID = id
	}
}

func WithAgentID(id string) RunOption {
	return func(r *RunRequest) {
		r.AgentID = id
	}
}

func WithConversationID(id string) RunOption {
	return func(r *RunRequest) {
		r.ConversationID = id
	}
}

func WithSeedMemories(text string) RunOption {
	return func(r *RunRequest) {
		r.SeedMemories = text
	}
}

func WithMetadata(metadata map[string]interface{}) RunOption {
	return func(r *RunRequest) {
		r.Metadata = metadata
	}
}

// NewRunRequest builds a request with a fresh run id.
func NewRunRequest(message string, opts ...RunOption) RunRequest {
	r := RunRequest{
		RunID:   uuid.New().String(),
		Message: message,
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

type StopReason string

const (
	StopResponded     StopReason = "responded"
	StopTerminated    StopReason = "terminated"
	StopNoDecision    StopReason = "no_decision"
	StopIterationCap  StopReason = "iteration_cap"
	StopContextClosed StopReason = "context_closed"
)

// RunResult is what a run hands back. Response is never empty: without an
// assistant message it carries the fallback text.
type RunResult struct {
	RunID      string        `json:"runId"`
	Response   string        `json:"response"`
	Fallback   bool          `json:"fallback"`
	Iterations int           `json:"iterations"`
	StopReason StopReason    `json:"stopReason"`
	Memory     WorkingMemory `json:"memory"`
}
