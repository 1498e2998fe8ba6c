package data

import (
	"strconv"
	"strings"

	"aetherflow/local-app/src/pkg/model"
)

// Node returns a copy of the node with the given id.
func (s *NodeStore) Node(id string) (model.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	node, ok := s.byID[id]
	if !ok {
		return model.Node{}, false
	}
	return node.Clone(), true
}

// Nodes returns copies of all nodes in creation order.
func (s *NodeStore) Nodes() []model.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.Clone())
	}
	return out
}

// Len returns the number of nodes.
func (s *NodeStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.nodes)
}

// Children returns the direct children of a node in creation order. An empty
// id returns the roots.
func (s *NodeStore) Children(id string) []model.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Node
	for _, n := range s.nodes {
		if n.ParentID == id {
			out = append(out, n.Clone())
		}
	}
	return out
}

func (s *NodeStore) descendantIDsLocked(id string) []string {
	children := make(map[string][]string)
	for _, n := range s.nodes {
		if n.ParentID != "" {
			children[n.ParentID] = append(children[n.ParentID], n.ID)
		}
	}

	var out []string
	seen := map[string]bool{id: true}
	queue := []string{id}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, child := range children[current] {
			if seen[child] {
				continue
			}
			seen[child] = true
			out = append(out, child)
			queue = append(queue, child)
		}
	}
	return out
}

// ResolveIndex maps a logical address such as "0" (the root) or "1.2" (the
// second child of the root's first child) to a node id.
func (s *NodeStore) ResolveIndex(index string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	root := s.rootLocked()
	if root == nil {
		return "", false
	}
	index = strings.TrimSpace(index)
	if index == "0" || index == "" {
		return root.ID, true
	}

	current := root.ID
	for _, part := range strings.Split(index, ".") {
		pos, err := strconv.Atoi(part)
		if err != nil || pos < 1 {
			return "", false
		}
		children := s.childIDsLocked(current)
		if pos > len(children) {
			return "", false
		}
		current = children[pos-1]
	}
	return current, true
}

// IndexOf returns the logical address of a node, the inverse of ResolveIndex.
func (s *NodeStore) IndexOf(id string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.byID[id]
	if !ok {
		return "", false
	}
	if node.ParentID == "" {
		if root := s.rootLocked(); root != nil && root.ID == id {
			return "0", true
		}
		return "", false
	}

	var parts []string
	for node.ParentID != "" {
		siblings := s.childIDsLocked(node.ParentID)
		pos := 0
		for i, sid := range siblings {
			if sid == node.ID {
				pos = i + 1
				break
			}
		}
		parts = append([]string{strconv.Itoa(pos)}, parts...)
		parent, ok := s.byID[node.ParentID]
		if !ok {
			return "", false
		}
		node = parent
	}
	return strings.Join(parts, "."), true
}

func (s *NodeStore) rootLocked() *model.Node {
	for _, n := range s.nodes {
		if n.ParentID == "" {
			return n
		}
	}
	return nil
}

func (s *NodeStore) childIDsLocked(id string) []string {
	var out []string
	for _, n := range s.nodes {
		if n.ParentID == id {
			out = append(out, n.ID)
		}
	}
	return out
}
