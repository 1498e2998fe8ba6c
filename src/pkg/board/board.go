// Package board derives the task board and notes outline views from the node tree.
package board

import (
	"aetherflow/local-app/src/pkg/model"
)

// Column is one status lane of the board.
type Column struct {
	Status model.TaskStatus
	Title  string
	Nodes  []model.Node
}

// Board holds the To Do, In Progress and Done lanes in that order.
type Board struct {
	Columns []Column
}

// Len returns the number of tasks on the board.
func (b Board) Len() int {
	n := 0
	for _, c := range b.Columns {
		n += len(c.Nodes)
	}
	return n
}

// Column returns the lane for status.
func (b Board) Column(status model.TaskStatus) (Column, bool) {
	for _, c := range b.Columns {
		if c.Status == status {
			return c, true
		}
	}
	return Column{}, false
}

var lanes = []struct {
	status model.TaskStatus
	title  string
}{
	{model.TaskTodo, "To Do"},
	{model.TaskInProgress, "In Progress"},
	{model.TaskDone, "Done"},
}

// IsTask reports whether a node belongs on the board: it has type task or
// carries a task.
func IsTask(n model.Node) bool {
	return n.Type == model.NodeTypeTask || n.Task != nil
}

// StatusOf returns the lane of a task node. A node without a task is todo.
func StatusOf(n model.Node) model.TaskStatus {
	if n.Task == nil || n.Task.Status == "" {
		return model.TaskTodo
	}
	return n.Task.Status
}

// Build groups the task nodes into lanes, keeping their order.
func Build(nodes []model.Node) Board {
	b := Board{Columns: make([]Column, len(lanes))}
	index := make(map[model.TaskStatus]int, len(lanes))
	for i, lane := range lanes {
		b.Columns[i] = Column{Status: lane.status, Title: lane.title}
		index[lane.status] = i
	}

	for _, n := range nodes {
		if !IsTask(n) {
			continue
		}
		i, ok := index[StatusOf(n)]
		if !ok {
			i = index[model.TaskTodo]
		}
		b.Columns[i].Nodes = append(b.Columns[i].Nodes, n)
	}
	return b
}
