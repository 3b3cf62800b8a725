package types

import (
	"time"

	"github.com/mudler/xlog"
)

// Progress is one telemetry step of an observable.
type Progress struct {
	Error     string         `json:"error,omitempty"`
	Result    string         `json:"result,omitempty"`
	Decision  *Decision      `json:"decision,omitempty"`
	Proposals []Proposal     `json:"proposals,omitempty"`
	Memory    *WorkingMemory `json:"memory,omitempty"`
	Time      time.Time      `json:"time"`
}

type Completion struct {
	Error  string         `json:"error,omitempty"`
	Result string         `json:"result,omitempty"`
	Memory *WorkingMemory `json:"memory,omitempty"`
}

// Observable is a debug/telemetry record of one unit of work (a run, an
// iteration, an action). Publishing one is fire-and-forget.
type Observable struct {
	ID       int32  `json:"id"`
	ParentID int32  `json:"parent_id,omitempty"`
	Agent    string `json:"agent"`
	RunID    string `json:"run_id,omitempty"`
	Name     string `json:"name"`
	Icon     string `json:"icon"`

	Progress   []Progress  `json:"progress,omitempty"`
	Completion *Completion `json:"completion,omitempty"`
}

func (o *Observable) AddProgress(p Progress) {
	if o.Progress == nil {
		o.Progress = make([]Progress, 0)
	}
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	o.Progress = append(o.Progress, p)
}

func (o *Observable) MakeLastProgressCompletion() {
	if len(o.Progress) == 0 {
		xlog.Error("Observable completed without any progress", "id", o.ID, "name", o.Name)
		return
	}
	p := o.Progress[len(o.Progress)-1]
	o.Progress = o.Progress[:len(o.Progress)-1]
	o.Completion = &Completion{
		Error:  p.Error,
		Result: p.Result,
		Memory: p.Memory,
	}
}
