// Package memory owns the run-scoped working memory: the goals and
// standing memories carried from one loop iteration to the next.
package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/xstrings"
)

// Manager has exactly one writer, the control loop, and is only mutated
// between iterations, so it carries no lock.
type Manager struct {
	state types.WorkingMemory
}

func NewManager() *Manager {
	return &Manager{
		state: types.WorkingMemory{
			Goals:    []types.Goal{},
			Memories: []types.MemoryItem{},
		},
	}
}

// Initialize resets the store: no goals, and one memory per non-empty line
// of the seed text.
func (m *Manager) Initialize(seedText string) types.WorkingMemory {
	memories := []types.MemoryItem{}
	now := time.Now()
	for _, line := range xstrings.SplitLines(seedText) {
		memories = append(memories, types.MemoryItem{
			ID:        uuid.New().String(),
			Content:   line,
			Type:      "seed",
			CreatedAt: now,
		})
	}

	m.state = types.WorkingMemory{
		Goals:    []types.Goal{},
		Memories: memories,
	}
	xlog.Debug("working memory initialized", "memories", len(memories))
	return m.State()
}

// Update replaces every list present in the partial state. Lists that are
// absent stay as they are; lists are never merged element-wise.
func (m *Manager) Update(updates types.StateUpdates) {
	if updates.Goals != nil {
		goals := make([]types.Goal, len(updates.Goals))
		copy(goals, updates.Goals)
		m.state.Goals = goals
	}
	if updates.Memories != nil {
		memories := make([]types.MemoryItem, len(updates.Memories))
		copy(memories, updates.Memories)
		m.state.Memories = memories
	}
}

// State returns a copy of the store; mutating it does not affect the
// manager.
func (m *Manager) State() types.WorkingMemory {
	return m.state.Copy()
}
