package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/export"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/storage"
)

// handleMapNew handles the map new command
func handleMapNew(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	seed := strings.Join(cmd.Args, " ")
	s.logger.Info(ctx, "Handling map new command", log.Fields{"seed": seed})

	m, _, err := s.Orchestrator.NewMap(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create map: %w", err)
	}
	return m, nil
}

// handleMapShow lists the tree below the root, or below the given node
func handleMapShow(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling map show command", log.Fields{"args": cmd.Args})

	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}

	args, showID := stripIDFlag(cmd.Args)
	start := "0"
	if len(args) > 0 {
		start = args[0]
	}
	node, err := resolveNode(s, start, false)
	if err != nil {
		return nil, err
	}

	startIndex, _ := s.Store.IndexOf(node.ID)
	view := &TreeView{Map: m, ShowID: showID}
	var walk func(n model.Node, index string, depth int)
	walk = func(n model.Node, index string, depth int) {
		view.Entries = append(view.Entries, TreeEntry{Index: index, Depth: depth, Node: n})
		for i, child := range s.Store.Children(n.ID) {
			walk(child, childIndex(index, i+1), depth+1)
		}
	}
	walk(node, startIndex, 0)

	s.logger.Debug(ctx, "Map view generated", log.Fields{"nodeID": node.ID, "entries": len(view.Entries)})
	return view, nil
}

func childIndex(parent string, pos int) string {
	if parent == "0" || parent == "" {
		return fmt.Sprintf("%d", pos)
	}
	return fmt.Sprintf("%s.%d", parent, pos)
}

// handleMapInfo summarises the current map
func handleMapInfo(s *Session, cmd model.Command) (interface{}, error) {
	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}
	nodes := s.Store.Nodes()
	info := &MapInfo{
		Map:         m,
		Nodes:       len(nodes),
		Notes:       len(board.Notes(nodes)),
		Tasks:       board.Build(nodes).Len(),
		ViewMode:    s.Store.ViewMode(),
		Zoom:        s.Store.Zoom(),
		Pan:         s.Store.PanOffset(),
		Selected:    s.Store.SelectedNode(),
		AIAvailable: s.Orchestrator.AIAvailable(),
	}
	return info, nil
}

// handleMapRename changes the title and slug of the current map
func handleMapRename(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}
	title := strings.TrimSpace(strings.Join(cmd.Args, " "))
	if title == "" {
		return nil, ErrEmptyTitle
	}

	m.Title = title
	if m.Slug != "" {
		m.Slug = data.GenerateSlug(title)
	}
	m.Updated = time.Now().UTC()
	s.Store.SetCurrentMap(m)

	s.logger.Info(ctx, "Map renamed", log.Fields{"mapID": m.ID, "title": title})
	return m, nil
}

// handleMapShare reports or sets the visibility of the current map
func handleMapShare(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}
	if len(cmd.Args) == 0 {
		return m, nil
	}

	switch strings.ToLower(cmd.Args[0]) {
	case "public":
		m.IsPublic = true
		if m.Slug == "" {
			m.Slug = data.GenerateSlug(m.Title)
		}
	case "private":
		m.IsPublic = false
	default:
		return nil, fmt.Errorf("invalid visibility: %s. Must be 'public' or 'private'", cmd.Args[0])
	}
	m.Updated = time.Now().UTC()
	s.Store.SetCurrentMap(m)

	s.logger.Info(ctx, "Map visibility updated", log.Fields{"mapID": m.ID, "isPublic": m.IsPublic})
	return m, nil
}

// handleMapSave writes the session's state to the persistence slot
func handleMapSave(s *Session, cmd model.Command) (interface{}, error) {
	if s.slot == nil {
		return nil, errors.New("no storage configured")
	}
	if err := s.Save(context.Background()); err != nil {
		return nil, err
	}
	return s.Store.CurrentMap(), nil
}

// handleMapLoad restores the session's state from the persistence slot
func handleMapLoad(s *Session, cmd model.Command) (interface{}, error) {
	if s.slot == nil {
		return nil, errors.New("no storage configured")
	}
	if !s.Load(context.Background()) {
		return nil, errors.New("no saved map found")
	}
	return s.Store.CurrentMap(), nil
}

// handleMapReset clears the session's state
func handleMapReset(s *Session, cmd model.Command) (interface{}, error) {
	s.Store.Reset()
	return nil, nil
}

// handleMapExport writes the current map to a file
func handleMapExport(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling map export command", log.Fields{"args": cmd.Args})

	m, err := s.MapGet()
	if err != nil {
		return nil, err
	}

	filename := cmd.Args[0]
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if len(cmd.Args) == 2 {
		format = strings.ToLower(cmd.Args[1])
	}

	state := s.Store.Snapshot()
	switch format {
	case "md", "markdown":
		if err := os.WriteFile(filename, []byte(export.Markdown(state)), 0644); err != nil {
			return nil, fmt.Errorf("failed to export map: %w", err)
		}
	case "svg":
		file, err := os.Create(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to export map: %w", err)
		}
		defer file.Close()
		if err := export.SVG(file, state); err != nil {
			return nil, fmt.Errorf("failed to export map: %w", err)
		}
	case "png":
		if err := export.PNG(filename, state); err != nil {
			return nil, fmt.Errorf("failed to export map: %w", err)
		}
	default:
		f, err := documentFormat(filename, format)
		if err != nil {
			return nil, err
		}
		doc := &model.MapDocument{Map: *m, Nodes: state.Nodes}
		if err := storage.FileExport(doc, filename, f); err != nil {
			s.logger.Error(ctx, "Failed to export map", log.Fields{"error": err, "filename": filename})
			return nil, fmt.Errorf("failed to export map: %w", err)
		}
	}

	s.logger.Info(ctx, "Map exported successfully", log.Fields{"filename": filename, "format": format, "mapID": m.ID})
	return filename, nil
}

// handleMapImport replaces the session's map with one read from a file
func handleMapImport(s *Session, cmd model.Command) (interface{}, error) {
	ctx := context.Background()
	s.logger.Info(ctx, "Handling map import command", log.Fields{"args": cmd.Args})

	filename := cmd.Args[0]
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if len(cmd.Args) == 2 {
		format = strings.ToLower(cmd.Args[1])
	}
	f, err := documentFormat(filename, format)
	if err != nil {
		return nil, err
	}

	doc, err := storage.FileImport(filename, f)
	if err != nil {
		s.logger.Error(ctx, "Failed to import map", log.Fields{"error": err, "filename": filename})
		return nil, fmt.Errorf("failed to import map: %w", err)
	}

	m := doc.Map
	s.Store.Restore(model.MapState{CurrentMap: &m, Nodes: doc.Nodes, ViewMode: model.ViewMap, ZoomLevel: 1})

	s.logger.Info(ctx, "Map imported successfully", log.Fields{"mapID": m.ID, "nodes": len(doc.Nodes)})
	return s.Store.CurrentMap(), nil
}

func documentFormat(filename, format string) (storage.Format, error) {
	switch format {
	case "json":
		return storage.FormatJSON, nil
	case "xml":
		return storage.FormatXML, nil
	case "yaml", "yml":
		return storage.FormatYAML, nil
	case "":
		return storage.FormatFromPath(filename), nil
	default:
		return "", fmt.Errorf("invalid format: %s. Must be 'json', 'xml' or 'yaml'", format)
	}
}
