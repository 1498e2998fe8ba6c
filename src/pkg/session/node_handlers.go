package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// handleNodeAdd handles the node add command
func handleNodeAdd(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node add command", log.Fields{"args": cmd.Args})

	if _, err := s.MapGet(); err != nil {
		return nil, err
	}

	ca := parseArgs(cmd.Args)
	if len(ca.positional) < 2 {
		return nil, fmt.Errorf("node add command requires at least 2 arguments: %s", Usage("node", "add"))
	}

	parent, err := resolveNode(s, ca.positional[0], ca.useID)
	if err != nil {
		s.logger.Error(ctx, "Failed to get parent node", log.Fields{"error": err, "parentIdentifier": ca.positional[0]})
		return nil, fmt.Errorf("failed to get parent node: %w", err)
	}

	nodeType := model.NodeTypeIdea
	if v, ok := ca.fields["type"]; ok {
		t, known := model.ParseNodeType(strings.ToLower(v))
		if !known {
			return nil, fmt.Errorf("invalid node type: %s", v)
		}
		nodeType = t
	}

	title := strings.Join(ca.positional[1:], " ")
	node, err := s.Orchestrator.AddChild(parent.ID, nodeType, title, ca.fields["description"])
	if err != nil {
		s.logger.Error(ctx, "Failed to add node", log.Fields{"error": err})
		return nil, fmt.Errorf("failed to add node: %w", err)
	}

	s.logger.Info(ctx, "Node added successfully", log.Fields{"nodeID": node.ID})
	return node, nil
}

// handleNodeUpdate handles the node update command
func handleNodeUpdate(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node update command", log.Fields{"args": cmd.Args})

	ca := parseArgs(cmd.Args)
	if len(ca.positional) != 1 || len(ca.fields) == 0 {
		return nil, fmt.Errorf("node update command requires a node and at least one field: %s", Usage("node", "update"))
	}

	node, err := resolveNode(s, ca.positional[0], ca.useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	var info model.NodeInfo
	var filter model.NodeFilter
	if v, ok := ca.fields["title"]; ok {
		if strings.TrimSpace(v) == "" {
			return nil, ErrEmptyTitle
		}
		info.Title, filter.Title = strings.TrimSpace(v), true
	}
	if v, ok := ca.fields["description"]; ok {
		info.Description, filter.Description = strings.TrimSpace(v), true
	}
	if v, ok := ca.fields["type"]; ok {
		t, known := model.ParseNodeType(strings.ToLower(v))
		if !known {
			return nil, fmt.Errorf("invalid node type: %s", v)
		}
		info.Type, filter.Type = t, true
	}
	color, setColor := ca.fields["color"]
	if !filter.Title && !filter.Description && !filter.Type && !setColor {
		return nil, fmt.Errorf("node update accepts title, description, type and color fields")
	}

	if filter.Title || filter.Description || filter.Type {
		if !s.Store.UpdateNode(node.ID, info, filter) {
			return nil, fmt.Errorf("failed to update node: %w", ErrNodeNotFound)
		}
	}
	if setColor && !s.Store.SetColor(node.ID, color) {
		return nil, fmt.Errorf("failed to update node: %w", ErrNodeNotFound)
	}
	updated, _ := s.Store.Node(node.ID)

	s.logger.Info(ctx, "Node updated successfully", log.Fields{"nodeID": node.ID})
	return updated, nil
}

// handleNodeDelete handles the node delete command
func handleNodeDelete(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node delete command", log.Fields{"args": cmd.Args})

	args, useID := stripIDFlag(cmd.Args)
	if len(args) != 1 {
		return nil, fmt.Errorf("node delete command requires 1 or 2 arguments: %s", Usage("node", "delete"))
	}
	node, err := resolveNode(s, args[0], useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	removed := s.Store.DeleteNode(node.ID)
	s.logger.Info(ctx, "Node deleted successfully", log.Fields{"nodeID": node.ID, "removed": len(removed)})
	return removed, nil
}

// handleNodeExpand asks the AI client for children of a node
func handleNodeExpand(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node expand command", log.Fields{"args": cmd.Args})

	args, useID := stripIDFlag(cmd.Args)
	if len(args) != 1 {
		return nil, fmt.Errorf("node expand command requires 1 or 2 arguments: %s", Usage("node", "expand"))
	}
	node, err := resolveNode(s, args[0], useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	return s.Orchestrator.ExpandNode(ctx, node.ID)
}

// handleNodeTaskify attaches a task to a node
func handleNodeTaskify(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node taskify command", log.Fields{"args": cmd.Args})

	ca := parseArgs(cmd.Args)
	if len(ca.positional) != 1 {
		return nil, fmt.Errorf("node taskify command requires a node: %s", Usage("node", "taskify"))
	}
	node, err := resolveNode(s, ca.positional[0], ca.useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	overrides, err := taskOverrides(ca.fields)
	if err != nil {
		return nil, err
	}
	if !s.Store.TaskifyNode(node.ID, overrides) {
		return nil, fmt.Errorf("failed to taskify node: %w", ErrNodeNotFound)
	}
	updated, _ := s.Store.Node(node.ID)

	s.logger.Info(ctx, "Node taskified successfully", log.Fields{"nodeID": node.ID})
	return updated, nil
}

// handleNodeChat sends a message to the AI about a node
func handleNodeChat(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node chat command", log.Fields{"args": cmd.Args})

	args, useID := stripIDFlag(cmd.Args)
	if len(args) < 2 {
		return nil, fmt.Errorf("node chat command requires at least 2 arguments: %s", Usage("node", "chat"))
	}
	node, err := resolveNode(s, args[0], useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}

	s.Store.OpenChat(node.ID)
	reply, err := s.Orchestrator.Chat(ctx, node.ID, strings.Join(args[1:], " "))
	if err != nil && reply.ID == "" {
		return nil, err
	}
	// A failed reply is still recorded in the transcript and shown to the user.
	return reply, nil
}

// handleNodeSelect selects a node, or clears the selection without arguments
func handleNodeSelect(s *Session, cmd model.Command) (interface{}, error) {
	args, useID := stripIDFlag(cmd.Args)
	if len(args) == 0 {
		s.Store.ClearSelection()
		return nil, nil
	}
	node, err := resolveNode(s, args[0], useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	s.Store.SetSelectedNode(node.ID)
	return node, nil
}

// handleNodeFind handles the node find command
func handleNodeFind(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node find command", log.Fields{"args": cmd.Args})

	args, _ := stripIDFlag(cmd.Args)
	if len(args) != 1 {
		return nil, fmt.Errorf("node find command requires 1 or 2 arguments: %s", Usage("node", "find"))
	}
	query := strings.ToLower(args[0])

	var results []FindResult
	for _, n := range s.Store.Nodes() {
		if strings.Contains(strings.ToLower(n.Title), query) || strings.Contains(strings.ToLower(n.Description), query) {
			index, _ := s.Store.IndexOf(n.ID)
			results = append(results, FindResult{Index: index, Node: n})
		}
	}

	s.logger.Info(ctx, "Nodes found", log.Fields{"count": len(results)})
	return results, nil
}

// handleNodeMove places a node at explicit map coordinates
func handleNodeMove(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling node move command", log.Fields{"args": cmd.Args})

	args, useID := stripIDFlag(cmd.Args)
	if len(args) != 3 {
		return nil, fmt.Errorf("node move command requires 3 or 4 arguments: %s", Usage("node", "move"))
	}
	node, err := resolveNode(s, args[0], useID)
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	x, errX := strconv.ParseFloat(args[1], 64)
	y, errY := strconv.ParseFloat(args[2], 64)
	if errX != nil || errY != nil {
		return nil, fmt.Errorf("invalid coordinates: %s %s", args[1], args[2])
	}

	if !s.Store.MoveNode(node.ID, geometry.Point{X: x, Y: y}) {
		return nil, fmt.Errorf("failed to move node: %w", ErrNodeNotFound)
	}
	moved, _ := s.Store.Node(node.ID)
	return moved, nil
}
