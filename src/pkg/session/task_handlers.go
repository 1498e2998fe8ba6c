package session

import (
	"context"
	"fmt"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// handleTaskUpdate changes the fields of an existing task
func handleTaskUpdate(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling task update command", log.Fields{"args": cmd.Args})

	ca := parseArgs(cmd.Args)
	if len(ca.positional) != 1 || len(ca.fields) == 0 {
		return nil, fmt.Errorf("task update command requires a node and at least one field: %s", Usage("task", "update"))
	}
	node, err := resolveNode(s, ca.positional[0], ca.useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	if node.Task == nil {
		return nil, fmt.Errorf("node is not a task: %s", node.Title)
	}

	overrides, err := taskOverrides(ca.fields)
	if err != nil {
		return nil, err
	}
	if !s.Store.TaskifyNode(node.ID, overrides) {
		return nil, fmt.Errorf("failed to update task: %w", ErrNodeNotFound)
	}
	updated, _ := s.Store.Node(node.ID)

	s.logger.Info(ctx, "Task updated successfully", log.Fields{"nodeID": node.ID})
	return updated, nil
}

// handleTaskBoard groups the map's tasks by status
func handleTaskBoard(s *Session, cmd model.Command) (interface{}, error) {
	if _, err := s.MapGet(); err != nil {
		return nil, err
	}
	return board.Build(s.Store.Nodes()), nil
}
