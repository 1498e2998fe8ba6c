package session

import (
	"fmt"
	"strconv"
	"strings"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/model"
)

// ZoomStep is the zoom change of view zoom in and view zoom out.
const ZoomStep = 0.1

func viewState(s *Session) *ViewState {
	min, max := s.Store.ZoomBounds()
	return &ViewState{
		Mode:    s.Store.ViewMode(),
		Zoom:    s.Store.Zoom(),
		MinZoom: min,
		MaxZoom: max,
		Pan:     s.Store.PanOffset(),
	}
}

// handleViewMode reports or switches the view mode. The notes view also
// returns the outline of note nodes and the board view the task board.
func handleViewMode(s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) == 1 {
		mode, ok := model.ParseViewMode(strings.ToLower(cmd.Args[0]))
		if !ok {
			return nil, fmt.Errorf("invalid view mode: %s", cmd.Args[0])
		}
		s.Store.SetViewMode(mode)
	}

	switch s.Store.ViewMode() {
	case model.ViewBoard:
		return board.Build(s.Store.Nodes()), nil
	case model.ViewNotes:
		return &NotesView{Entries: board.Notes(s.Store.Nodes())}, nil
	default:
		return viewState(s), nil
	}
}

// handleViewZoom reports or sets the zoom level
func handleViewZoom(s *Session, cmd model.Command) (interface{}, error) {
	if len(cmd.Args) == 1 {
		switch arg := strings.ToLower(cmd.Args[0]); arg {
		case "in", "+":
			s.Store.SetZoom(s.Store.Zoom() + ZoomStep)
		case "out", "-":
			s.Store.SetZoom(s.Store.Zoom() - ZoomStep)
		default:
			level, err := strconv.ParseFloat(arg, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid zoom level: %s", cmd.Args[0])
			}
			s.Store.SetZoom(level)
		}
	}
	return viewState(s), nil
}

// handleViewPan reports or sets the pan offset
func handleViewPan(s *Session, cmd model.Command) (interface{}, error) {
	switch len(cmd.Args) {
	case 0:
	case 2:
		x, errX := strconv.ParseFloat(cmd.Args[0], 64)
		y, errY := strconv.ParseFloat(cmd.Args[1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("invalid pan offset: %s %s", cmd.Args[0], cmd.Args[1])
		}
		s.Store.SetPanOffset(geometry.Point{X: x, Y: y})
	default:
		return nil, fmt.Errorf("view pan command requires 0 or 2 arguments: [x y]")
	}
	return viewState(s), nil
}

// handleViewReset restores the default zoom and pan
func handleViewReset(s *Session, cmd model.Command) (interface{}, error) {
	s.Store.SetZoom(1)
	s.Store.SetPanOffset(geometry.Point{})
	return viewState(s), nil
}
