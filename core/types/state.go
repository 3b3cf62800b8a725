package types

import (
	"bytes"
	"encoding/json"
	"time"
)

// WorkingMemory is the run-scoped store the agent carries across loop
// iterations. Both lists are always non-nil.
type WorkingMemory struct {
	Goals    []Goal       `json:"goals"`
	Memories []MemoryItem `json:"memories"`
}

type Goal struct {
	ID          string `json:"id,omitempty"`
	Description string `json:"description"`
	Status      string `json:"status,omitempty"`
	Priority    int    `json:"priority,omitempty"`
}

type MemoryItem struct {
	ID        string    `json:"id,omitempty"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// StateUpdates is a partial WorkingMemory. A nil slice means the key was
// not present and the stored list is left untouched; a non-nil slice
// (empty included) replaces the stored list wholesale.
type StateUpdates struct {
	Goals    []Goal       `json:"goals"`
	Memories []MemoryItem `json:"memories"`
}

func (s StateUpdates) IsEmpty() bool {
	return s.Goals == nil && s.Memories == nil
}

// Copy returns a deep copy, so callers can hand out snapshots without
// sharing backing arrays.
func (w WorkingMemory) Copy() WorkingMemory {
	goals := make([]Goal, len(w.Goals))
	copy(goals, w.Goals)
	memories := make([]MemoryItem, len(w.Memories))
	copy(memories, w.Memories)
	return WorkingMemory{Goals: goals, Memories: memories}
}

// UnmarshalJSON also accepts a bare string as the goal description.
func (g *Goal) UnmarshalJSON(data []byte) error {
	if data = bytes.TrimSpace(data); len(data) > 0 && data[0] == '"' {
		*g = Goal{}
		return json.Unmarshal(data, &g.Description)
	}
	type plain Goal
	return json.Unmarshal(data, (*plain)(g))
}

// UnmarshalJSON also accepts a bare string as the memory content.
func (m *MemoryItem) UnmarshalJSON(data []byte) error {
	if data = bytes.TrimSpace(data); len(data) > 0 && data[0] == '"' {
		*m = MemoryItem{}
		return json.Unmarshal(data, &m.Content)
	}
	type plain MemoryItem
	return json.Unmarshal(data, (*plain)(m))
}
