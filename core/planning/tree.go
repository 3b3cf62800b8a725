// Package planning owns the hierarchical goal/task plan of a conversation:
// an arena of nodes linked by id, bottom-up progress propagation and the
// derived execution path.
package planning

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/mudler/xlog"
)

var (
	ErrNodeNotFound     = errors.New("node not found")
	ErrNodeExists       = errors.New("node already exists")
	ErrRootExists       = errors.New("tree already has a root")
	ErrInvalidNode      = errors.New("invalid node")
	ErrInvalidStatus    = errors.New("invalid status for node kind")
	ErrDerivedProgress  = errors.New("goal progress is derived from its children")
	ErrInvalidSnapshot  = errors.New("invalid tree snapshot")
	ErrCyclicReferences = errors.New("cyclic parent references")
)

// Tree is not safe for concurrent use.
type Tree struct {
	nodes         map[string]*Node
	root          string
	executionPath []string
	activeNodeID  string
	now           func() time.Time
}

type Option func(*Tree)

func WithClock(now func() time.Time) Option {
	return func(t *Tree) {
		t.now = now
	}
}

func NewTree(opts ...Option) *Tree {
	t := &Tree{
		nodes:         map[string]*Node{},
		executionPath: []string{},
		now:           time.Now,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// AddNode stores a copy of node. Without a parent the node becomes the
// root. A missing id is generated; the stored id is returned.
func (t *Tree) AddNode(node *Node, parentID string) (string, error) {
	if node == nil || !node.valid() {
		return "", ErrInvalidNode
	}

	n := node.Clone()
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if _, exists := t.nodes[n.ID]; exists {
		return "", fmt.Errorf("%w: %s", ErrNodeExists, n.ID)
	}

	now := t.now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	n.UpdatedAt = now
	n.Children = []string{}

	if parentID == "" {
		if t.root != "" {
			return "", ErrRootExists
		}
		n.ParentID = ""
		t.nodes[n.ID] = n
		t.root = n.ID
	} else {
		parent, ok := t.nodes[parentID]
		if !ok {
			return "", fmt.Errorf("%w: parent %s", ErrNodeNotFound, parentID)
		}
		n.ParentID = parentID
		t.nodes[n.ID] = n
		parent.Children = append(parent.Children, n.ID)
		t.sortChildren(parent)
		parent.UpdatedAt = now
	}

	t.recomputeExecutionPath()
	return n.ID, nil
}

// ClearChildren removes the children of a node together with their
// subtrees. With preserveCompleted, completed goals and completed or
// active tasks are kept.
func (t *Tree) ClearChildren(nodeID string, preserveCompleted bool) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	kept := []string{}
	for _, childID := range node.Children {
		child, ok := t.nodes[childID]
		if !ok {
			continue
		}
		if preserveCompleted && retained(child) {
			kept = append(kept, childID)
			continue
		}
		t.removeSubtree(childID)
	}

	node.Children = kept
	node.UpdatedAt = t.now()
	t.recomputeExecutionPath()
	return nil
}

func retained(n *Node) bool {
	switch n.Kind {
	case KindGoal:
		return n.Status() == StatusCompleted
	case KindTask:
		s := n.Status()
		return s == StatusCompleted || s == StatusActive
	}
	return false
}

func (t *Tree) removeSubtree(id string) {
	stack := []string{id}
	seen := map[string]bool{}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[cur] {
			continue
		}
		seen[cur] = true

		n, ok := t.nodes[cur]
		if !ok {
			continue
		}
		stack = append(stack, n.Children...)
		delete(t.nodes, cur)
		if t.activeNodeID == cur {
			t.activeNodeID = ""
		}
	}
}

// UpdateNodeStatus sets the kind-specific status. Completing a node
// recomputes the progress of its ancestors.
func (t *Tree) UpdateNodeStatus(nodeID string, status Status) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	switch node.Kind {
	case KindGoal:
		if !goalStatuses[status] {
			return fmt.Errorf("%w: goal %s", ErrInvalidStatus, status)
		}
		node.Goal.Status = status
	case KindTask:
		if !taskStatuses[status] {
			return fmt.Errorf("%w: task %s", ErrInvalidStatus, status)
		}
		node.Task.Status = status
	}
	node.UpdatedAt = t.now()

	if status == StatusCompleted && node.ParentID != "" {
		return t.UpdateParentProgress(node.ParentID)
	}
	return nil
}

// UpdateParentProgress recomputes the progress of a goal from its
// children and walks up to the root. A goal reaching 100 is marked
// completed.
func (t *Tree) UpdateParentProgress(parentID string) error {
	if _, ok := t.nodes[parentID]; !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, parentID)
	}

	visited := map[string]bool{}
	for id := parentID; id != ""; {
		if visited[id] {
			xlog.Warn("cyclic parent reference, progress propagation stopped", "node", id)
			return ErrCyclicReferences
		}
		visited[id] = true

		node, ok := t.nodes[id]
		if !ok {
			xlog.Warn("dangling parent reference, progress propagation stopped", "node", id)
			return nil
		}

		if node.IsGoal() {
			t.recomputeGoalProgress(node)
		}
		id = node.ParentID
	}
	return nil
}

func (t *Tree) recomputeGoalProgress(goal *Node) {
	completed := goal.Status() == StatusCompleted

	progress := 0
	if len(goal.Children) == 0 {
		if completed {
			progress = 100
		}
	} else {
		sum, count := 0, 0
		for _, childID := range goal.Children {
			child, ok := t.nodes[childID]
			if !ok {
				continue
			}
			sum += contribution(child)
			count++
		}
		if count > 0 {
			progress = int(math.Round(float64(sum) / float64(count)))
		} else if completed {
			progress = 100
		}
	}

	goal.Progress = progress
	goal.UpdatedAt = t.now()

	if progress == 100 && !completed {
		xlog.Debug("goal auto-completed", "goal", goal.ID)
		goal.Goal.Status = StatusCompleted
	}
}

// contribution is what a child adds to its parent's mean: a completed node
// counts as done whatever its own progress field says.
func contribution(n *Node) int {
	if n.Status() == StatusCompleted {
		return 100
	}
	return n.Progress
}

// UpdateNodeProgress sets a task's progress, clamped to [0,100], and
// propagates it to the ancestors.
func (t *Tree) UpdateNodeProgress(nodeID string, progress int) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if node.IsGoal() {
		return fmt.Errorf("%w: %s", ErrDerivedProgress, nodeID)
	}

	node.Progress = min(max(progress, 0), 100)
	node.UpdatedAt = t.now()

	if node.ParentID != "" {
		return t.UpdateParentProgress(node.ParentID)
	}
	return nil
}

// SetMetadata replaces one metadata entry of a node.
func (t *Tree) SetMetadata(nodeID, key string, value interface{}) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if node.Metadata == nil {
		node.Metadata = map[string]interface{}{}
	}
	node.Metadata[key] = value
	node.UpdatedAt = t.now()
	return nil
}

// SetTaskOutcome records the result or error of a task.
func (t *Tree) SetTaskOutcome(nodeID, result, errText string) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}
	if !node.IsTask() {
		return fmt.Errorf("%w: %s is not a task", ErrInvalidNode, nodeID)
	}
	node.Task.Result = result
	node.Task.Error = errText
	node.UpdatedAt = t.now()
	return nil
}

// Ancestors returns the chain from the node's parent up to the root.
// Malformed chains are cut at the first cycle or dangling reference.
func (t *Tree) Ancestors(nodeID string) ([]*Node, error) {
	node, ok := t.nodes[nodeID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	ancestors := []*Node{}
	visited := map[string]bool{nodeID: true}
	for id := node.ParentID; id != ""; {
		if visited[id] {
			xlog.Warn("cyclic parent reference", "node", nodeID, "at", id)
			break
		}
		visited[id] = true

		parent, ok := t.nodes[id]
		if !ok {
			xlog.Warn("dangling parent reference", "node", nodeID, "parent", id)
			break
		}
		ancestors = append(ancestors, parent.Clone())
		id = parent.ParentID
	}
	return ancestors, nil
}

// ExecutionPath returns the ids of the leaf tasks in execution order.
func (t *Tree) ExecutionPath() []string {
	return append([]string{}, t.executionPath...)
}

// NextReadyTask returns the first pending task of the execution path.
func (t *Tree) NextReadyTask() *Node {
	for _, id := range t.executionPath {
		if n, ok := t.nodes[id]; ok && n.Status() == StatusPending {
			return n.Clone()
		}
	}
	return nil
}

func (t *Tree) SetActiveNode(nodeID string) error {
	if nodeID != "" {
		if _, ok := t.nodes[nodeID]; !ok {
			return fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
		}
	}
	t.activeNodeID = nodeID
	return nil
}

func (t *Tree) ActiveNodeID() string {
	return t.activeNodeID
}

// Node returns a copy of the node.
func (t *Tree) Node(nodeID string) (*Node, bool) {
	n, ok := t.nodes[nodeID]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

func (t *Tree) Root() *Node {
	if t.root == "" {
		return nil
	}
	return t.nodes[t.root].Clone()
}

func (t *Tree) Len() int {
	return len(t.nodes)
}

func (t *Tree) sortChildren(parent *Node) {
	sort.SliceStable(parent.Children, func(i, j int) bool {
		return t.order(parent.Children[i]) < t.order(parent.Children[j])
	})
}

func (t *Tree) order(id string) int {
	if n, ok := t.nodes[id]; ok {
		return n.Order
	}
	return math.MaxInt
}

// recomputeExecutionPath collects the childless tasks depth-first from the
// root, then orders them by their order field.
func (t *Tree) recomputeExecutionPath() {
	path := []string{}
	if t.root != "" {
		visited := map[string]bool{}
		var walk func(id string)
		walk = func(id string) {
			if visited[id] {
				return
			}
			visited[id] = true

			n, ok := t.nodes[id]
			if !ok {
				return
			}
			if n.IsTask() && len(n.Children) == 0 {
				path = append(path, id)
			}
			for _, c := range n.Children {
				walk(c)
			}
		}
		walk(t.root)
	}

	sort.SliceStable(path, func(i, j int) bool {
		return t.nodes[path[i]].Order < t.nodes[path[j]].Order
	})
	t.executionPath = path
}
