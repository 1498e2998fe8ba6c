package model

import (
	"encoding/xml"
	"time"

	"aetherflow/local-app/src/pkg/geometry"
)

// ViewMode is the presentation currently selected for the open map.
type ViewMode string

const (
	ViewMap      ViewMode = "map"
	ViewBoard    ViewMode = "board"
	ViewNotes    ViewMode = "notes"
	ViewSnapshot ViewMode = "snapshot"
)

// ParseViewMode returns the ViewMode named by s and whether it is known.
func ParseViewMode(s string) (ViewMode, bool) {
	switch ViewMode(s) {
	case ViewMap, ViewBoard, ViewNotes, ViewSnapshot:
		return ViewMode(s), true
	default:
		return "", false
	}
}

// Map is the top-level container of nodes.
type Map struct {
	ID          string    `json:"id" xml:"id,attr" yaml:"id"`
	OwnerID     string    `json:"user_id,omitempty" xml:"owner,attr,omitempty" yaml:"owner_id,omitempty"`
	Title       string    `json:"title" xml:"title" yaml:"title"`
	Description string    `json:"description,omitempty" xml:"description,omitempty" yaml:"description,omitempty"`
	IsPublic    bool      `json:"is_public" xml:"public,attr" yaml:"is_public"`
	Slug        string    `json:"slug,omitempty" xml:"slug,attr,omitempty" yaml:"slug,omitempty"`
	Created     time.Time `json:"created_at" xml:"created,attr" yaml:"created_at"`
	Updated     time.Time `json:"updated_at" xml:"updated,attr" yaml:"updated_at"`
}

// MapState is everything the persistence slot holds for the open map.
type MapState struct {
	CurrentMap *Map           `json:"currentMap"`
	Nodes      []Node         `json:"nodes"`
	ViewMode   ViewMode       `json:"viewMode"`
	ZoomLevel  float64        `json:"zoomLevel"`
	PanOffset  geometry.Point `json:"panOffset"`
}

// MapDocument is the file import/export representation of a map.
type MapDocument struct {
	XMLName xml.Name `json:"-" xml:"mindmap" yaml:"-"`
	Map     Map      `json:"map" xml:"map" yaml:"map"`
	Nodes   []Node   `json:"nodes" xml:"nodes>node" yaml:"nodes"`
}

// Snapshot is a named, stored copy of a map state.
type Snapshot struct {
	ID      string    `json:"id"`
	MapID   string    `json:"map_id"`
	Title   string    `json:"title"`
	Data    string    `json:"data"`
	Created time.Time `json:"created_at"`
}
