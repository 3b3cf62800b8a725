package planning

import (
	"time"

	"github.com/pchaganti/px-zuckerman-sub001/core/types"
)

type Kind string

const (
	KindGoal Kind = "goal"
	KindTask Kind = "task"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
	StatusBlocked   Status = "blocked"
)

var (
	goalStatuses = map[Status]bool{
		StatusPending:   true,
		StatusActive:    true,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	}
	taskStatuses = map[Status]bool{
		StatusPending:   true,
		StatusActive:    true,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
		StatusBlocked:   true,
	}
)

// Node is one entry of the plan. Exactly one of Goal and Task is set,
// matching Kind. Parent and children are ids into the owning tree.
type Node struct {
	ID          string                 `json:"id"`
	Kind        Kind                   `json:"kind"`
	Title       string                 `json:"title"`
	Description string                 `json:"description,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
	ParentID    string                 `json:"parentId,omitempty"`
	Children    []string               `json:"children"`
	Order       int                    `json:"order"`
	Progress    int                    `json:"progress"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`

	Goal *GoalDetails `json:"goal,omitempty"`
	Task *TaskDetails `json:"task,omitempty"`
}

type GoalDetails struct {
	Status Status `json:"goalStatus"`
}

type TaskDetails struct {
	Status   Status        `json:"taskStatus"`
	Urgency  types.Urgency `json:"urgency"`
	Priority int           `json:"priority"`
	Result   string        `json:"result,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func NewGoal(id, title string) *Node {
	return &Node{
		ID:    id,
		Kind:  KindGoal,
		Title: title,
		Goal:  &GoalDetails{Status: StatusPending},
	}
}

func NewTask(id, title string) *Node {
	return &Node{
		ID:    id,
		Kind:  KindTask,
		Title: title,
		Task:  &TaskDetails{Status: StatusPending, Urgency: types.UrgencyMedium},
	}
}

func (n *Node) IsGoal() bool {
	return n.Kind == KindGoal
}

func (n *Node) IsTask() bool {
	return n.Kind == KindTask
}

// Status returns the kind-specific status.
func (n *Node) Status() Status {
	switch n.Kind {
	case KindGoal:
		if n.Goal != nil {
			return n.Goal.Status
		}
	case KindTask:
		if n.Task != nil {
			return n.Task.Status
		}
	}
	return ""
}

func (n *Node) valid() bool {
	switch n.Kind {
	case KindGoal:
		return n.Goal != nil && n.Task == nil && goalStatuses[n.Goal.Status]
	case KindTask:
		return n.Task != nil && n.Goal == nil && taskStatuses[n.Task.Status]
	}
	return false
}

// Clone copies the node. Metadata values are shared; they are replaced
// wholesale, never edited in place.
func (n *Node) Clone() *Node {
	c := *n
	c.Children = append([]string{}, n.Children...)
	if n.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	if n.Goal != nil {
		g := *n.Goal
		c.Goal = &g
	}
	if n.Task != nil {
		t := *n.Task
		c.Task = &t
	}
	return &c
}
