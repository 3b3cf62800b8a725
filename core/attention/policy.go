package attention

import (
	"math"

	"github.com/pchaganti/px-zuckerman-sub001/core/types"
	"github.com/pchaganti/px-zuckerman-sub001/pkg/xstrings"
)

const (
	MemorySemantic    = "semantic"
	MemoryEpisodic    = "episodic"
	MemoryProcedural  = "procedural"
	MemoryProspective = "prospective"
	MemoryEmotional   = "emotional"
	MemoryWorking     = "working"
)

var memoryTypesByPriority = []string{
	MemorySemantic,
	MemoryEpisodic,
	MemoryProcedural,
	MemoryProspective,
	MemoryEmotional,
}

type allocationBase struct {
	limit int
	types int
}

var allocationTable = map[types.Urgency]allocationBase{
	types.UrgencyCritical: {limit: 20, types: 5},
	types.UrgencyHigh:     {limit: 12, types: 3},
	types.UrgencyMedium:   {limit: 8, types: 2},
	types.UrgencyLow:      {limit: 4, types: 1},
}

var minRelevance = map[types.Urgency]float64{
	types.UrgencyLow:      0.3,
	types.UrgencyMedium:   0.4,
	types.UrgencyHigh:     0.5,
	types.UrgencyCritical: 0.6,
}

const defaultMinRelevance = 0.3

// FilterCriteria returns the retrieval filter for the agent's current
// focus.
func (c *Controller) FilterCriteria(agentID string) types.FilterCriteria {
	focus := c.Focus(agentID)
	if focus == nil {
		return types.FilterCriteria{MinRelevance: defaultMinRelevance}
	}

	rel, ok := minRelevance[focus.Urgency]
	if !ok {
		rel = minRelevance[types.UrgencyMedium]
	}
	return types.FilterCriteria{
		Topic:        focus.CurrentTopic,
		Task:         focus.CurrentTask,
		MinRelevance: rel,
	}
}

// Allocate decides how much memory context the next turn may use. Without
// a focus the medium row applies.
func (c *Controller) Allocate(agentID string) types.Allocation {
	focus := c.Focus(agentID)

	urgency := types.UrgencyMedium
	if focus != nil && focus.Urgency.Valid() {
		urgency = focus.Urgency
	}
	return allocationFor(urgency, focus)
}

func allocationFor(urgency types.Urgency, focus *types.FocusState) types.Allocation {
	base := allocationTable[urgency]

	limit := base.limit
	memTypes := append([]string{}, memoryTypesByPriority[:base.types]...)

	if focus != nil {
		sustained := math.Min(float64(focus.TurnCount)/10, 1)
		limit = int(math.Ceil(float64(base.limit) * (1 + sustained*0.2)))
		if focus.CurrentTask != "" {
			memTypes = append(memTypes, MemoryWorking)
		}
	}

	return types.Allocation{
		Limit:       limit,
		MemoryTypes: xstrings.UniqueSlice(memTypes),
	}
}
