package planning

import (
	"fmt"
)

// Snapshot is the persisted form of a tree. Nodes is authoritative; the
// other fields are derived and recomputed on load.
type Snapshot struct {
	Root          string           `json:"root"`
	Nodes         map[string]*Node `json:"nodes"`
	ExecutionPath []string         `json:"executionPath"`
	ActiveNodeID  string           `json:"activeNodeId,omitempty"`
}

func (t *Tree) Snapshot() Snapshot {
	nodes := make(map[string]*Node, len(t.nodes))
	for id, n := range t.nodes {
		nodes[id] = n.Clone()
	}
	return Snapshot{
		Root:          t.root,
		Nodes:         nodes,
		ExecutionPath: t.ExecutionPath(),
		ActiveNodeID:  t.activeNodeID,
	}
}

// InitializeTree replaces the tree with the content of s. The root is the
// single node without a parent; children lists are rebuilt from parent
// references.
func (t *Tree) InitializeTree(s Snapshot) error {
	nodes := make(map[string]*Node, len(s.Nodes))
	root := ""
	for id, n := range s.Nodes {
		if n == nil || !n.valid() {
			return fmt.Errorf("%w: node %s", ErrInvalidSnapshot, id)
		}
		c := n.Clone()
		c.ID = id
		c.Children = []string{}
		nodes[id] = c
		if c.ParentID == "" {
			if root != "" {
				return fmt.Errorf("%w: more than one root (%s, %s)", ErrInvalidSnapshot, root, id)
			}
			root = id
		}
	}
	if len(nodes) > 0 && root == "" {
		return fmt.Errorf("%w: no root", ErrInvalidSnapshot)
	}

	// Keep the persisted child order, then append children only known
	// through their parent reference.
	linked := map[string]bool{}
	for id, n := range s.Nodes {
		for _, childID := range n.Children {
			child, ok := nodes[childID]
			if !ok || child.ParentID != id || linked[childID] {
				continue
			}
			nodes[id].Children = append(nodes[id].Children, childID)
			linked[childID] = true
		}
	}
	for id, n := range nodes {
		if n.ParentID == "" || linked[id] {
			continue
		}
		parent, ok := nodes[n.ParentID]
		if !ok {
			return fmt.Errorf("%w: node %s has unknown parent %s", ErrInvalidSnapshot, id, n.ParentID)
		}
		parent.Children = append(parent.Children, id)
	}

	t.nodes = nodes
	t.root = root
	for _, n := range t.nodes {
		t.sortChildren(n)
	}

	t.activeNodeID = ""
	if _, ok := nodes[s.ActiveNodeID]; ok {
		t.activeNodeID = s.ActiveNodeID
	}
	t.recomputeExecutionPath()
	return nil
}
