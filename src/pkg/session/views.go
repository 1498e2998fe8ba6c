package session

import (
	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/model"
)

// TreeEntry is one line of a map tree listing.
type TreeEntry struct {
	Index string
	Depth int
	Node  model.Node
}

// TreeView is the result of map show.
type TreeView struct {
	Map     *model.Map
	Entries []TreeEntry
	ShowID  bool
}

// MapInfo is the result of map info.
type MapInfo struct {
	Map         *model.Map
	Nodes       int
	Tasks       int
	Notes       int
	ViewMode    model.ViewMode
	Zoom        float64
	Pan         geometry.Point
	Selected    string
	AIAvailable bool
}

// NotesView is the result of switching to the notes view.
type NotesView struct {
	Entries []board.Entry
}

// ViewState reports the viewport after a view command.
type ViewState struct {
	Mode    model.ViewMode
	Zoom    float64
	MinZoom float64
	MaxZoom float64
	Pan     geometry.Point
}

// FindResult is one match of node find.
type FindResult struct {
	Index string
	Node  model.Node
}

// SystemStatus is the result of system status.
type SystemStatus struct {
	SessionID   string
	MapTitle    string
	Nodes       int
	AIAvailable bool
}
