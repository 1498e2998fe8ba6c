// Package export renders a map as a markdown outline, an SVG or a PNG.
package export

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/model"
)

const (
	margin = 40.0
	header = 64.0
)

var (
	colorBackdrop = color.RGBA{0x0f, 0x17, 0x2a, 0xff}
	colorHeaderBG = color.RGBA{0x1e, 0x29, 0x3b, 0xff}
	colorEdge     = color.RGBA{0x64, 0x74, 0x8b, 0xff}
	colorStroke   = color.RGBA{0xe2, 0xe8, 0xf0, 0xff}
	colorText     = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorSubtle   = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	colorDefault  = color.RGBA{0x8b, 0x5c, 0xf6, 0xff}
)

type layoutNode struct {
	ID     string
	Parent string
	Title  string
	Detail string
	Fill   color.RGBA
	X, Y   float64
	W, H   float64
}

type layoutResult struct {
	Title  string
	Width  int
	Height int
	Nodes  []layoutNode
	Edges  [][2]string
}

// layout converts map coordinates into image coordinates. Node positions are
// treated as the centre of each footprint.
func layout(state model.MapState) layoutResult {
	res := layoutResult{Title: "Untitled map"}
	if state.CurrentMap != nil && state.CurrentMap.Title != "" {
		res.Title = state.CurrentMap.Title
	}
	if len(state.Nodes) == 0 {
		res.Width, res.Height = 480, int(header+2*margin)
		return res
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	sizes := make([]geometry.Size, len(state.Nodes))
	for i, n := range state.Nodes {
		sz := geometry.FootprintSize(n.Title, n.Description)
		sizes[i] = sz
		minX = math.Min(minX, n.Position.X-sz.Width/2)
		minY = math.Min(minY, n.Position.Y-sz.Height/2)
		maxX = math.Max(maxX, n.Position.X+sz.Width/2)
		maxY = math.Max(maxY, n.Position.Y+sz.Height/2)
	}

	present := make(map[string]bool, len(state.Nodes))
	for _, n := range state.Nodes {
		present[n.ID] = true
	}
	for i, n := range state.Nodes {
		sz := sizes[i]
		res.Nodes = append(res.Nodes, layoutNode{
			ID:     n.ID,
			Parent: n.ParentID,
			Title:  truncate(n.Title, 40),
			Detail: detail(n),
			Fill:   parseHex(n.Metadata.Color),
			X:      n.Position.X - sz.Width/2 - minX + margin,
			Y:      n.Position.Y - sz.Height/2 - minY + margin + header,
			W:      sz.Width,
			H:      sz.Height,
		})
		if n.ParentID != "" && present[n.ParentID] {
			res.Edges = append(res.Edges, [2]string{n.ParentID, n.ID})
		}
	}
	res.Width = int(math.Ceil(maxX - minX + 2*margin))
	res.Height = int(math.Ceil(maxY - minY + 2*margin + header))
	return res
}

func detail(n model.Node) string {
	parts := []string{string(n.Type)}
	if n.Task != nil {
		parts = append(parts, string(n.Task.Status), string(n.Task.Priority))
	}
	if n.Metadata.AIGenerated {
		parts = append(parts, "ai")
	}
	return strings.Join(parts, " · ")
}

// parseHex reads #rgb or #rrggbb, falling back to the root colour.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return colorDefault
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return colorDefault
	}
	return color.RGBA{uint8(v >> 16), uint8(v >> 8), uint8(v), 0xff}
}

func css(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
