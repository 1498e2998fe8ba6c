package board

import (
	"aetherflow/local-app/src/pkg/model"
)

// Entry is one node of an outline with its depth below the root.
type Entry struct {
	Depth int
	Node  model.Node
}

// Outline walks the tree depth first from each root, children in creation order.
func Outline(nodes []model.Node) []Entry {
	children := make(map[string][]model.Node)
	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}
	var roots []model.Node
	for _, n := range nodes {
		if n.ParentID == "" || !present[n.ParentID] {
			roots = append(roots, n)
			continue
		}
		children[n.ParentID] = append(children[n.ParentID], n)
	}

	var out []Entry
	var walk func(n model.Node, depth int)
	walk = func(n model.Node, depth int) {
		out = append(out, Entry{Depth: depth, Node: n})
		for _, c := range children[n.ID] {
			walk(c, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return out
}

// Notes returns the note nodes in outline order.
func Notes(nodes []model.Node) []Entry {
	var out []Entry
	for _, e := range Outline(nodes) {
		if e.Node.Type == model.NodeTypeNote {
			out = append(out, e)
		}
	}
	return out
}
