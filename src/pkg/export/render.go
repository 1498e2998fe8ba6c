package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sbinet/gg"
	"github.com/ajstarks/svgo"
	"golang.org/x/image/font/basicfont"

	"aetherflow/local-app/src/pkg/model"
)

// SaveImage renders the map to path as SVG or PNG, chosen by extension.
func SaveImage(path string, state model.MapState) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".svg":
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create file: %w", err)
		}
		defer file.Close()
		return SVG(file, state)
	case ".png":
		return PNG(path, state)
	default:
		return fmt.Errorf("unsupported image format: %s", filepath.Ext(path))
	}
}

// SVG writes an SVG rendering of the map to w.
func SVG(w io.Writer, state model.MapState) error {
	l := layout(state)

	canvas := svg.New(w)
	canvas.Start(l.Width, l.Height)
	canvas.Rect(0, 0, l.Width, l.Height, fmt.Sprintf("fill:%s", css(colorBackdrop)))
	canvas.Roundrect(16, 16, l.Width-32, int(header-24), 10, 10, fmt.Sprintf("fill:%s", css(colorHeaderBG)))
	canvas.Text(32, 42, l.Title, fmt.Sprintf("fill:%s;font-size:16px;font-family:monospace;font-weight:bold", css(colorText)))

	byID := make(map[string]layoutNode, len(l.Nodes))
	for _, n := range l.Nodes {
		byID[n.ID] = n
	}
	for _, e := range l.Edges {
		from, to := byID[e[0]], byID[e[1]]
		canvas.Line(int(from.X+from.W/2), int(from.Y+from.H/2), int(to.X+to.W/2), int(to.Y+to.H/2),
			fmt.Sprintf("stroke:%s;stroke-width:2", css(colorEdge)))
	}

	for _, n := range l.Nodes {
		x, y := int(n.X), int(n.Y)
		canvas.Roundrect(x, y, int(n.W), int(n.H), 12, 12,
			fmt.Sprintf("fill:%s;stroke:%s;stroke-width:1.2", css(n.Fill), css(colorStroke)))
		canvas.Text(x+12, y+24, n.Title, fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace;font-weight:bold", css(colorSubtle)))
		canvas.Text(x+12, y+44, n.Detail, fmt.Sprintf("fill:%s;font-size:11px;font-family:monospace", css(colorSubtle)))
	}

	canvas.End()
	return nil
}

// PNG writes a PNG rendering of the map to path.
func PNG(path string, state model.MapState) error {
	l := layout(state)

	dc := gg.NewContext(l.Width, l.Height)
	dc.SetColor(colorBackdrop)
	dc.Clear()

	dc.SetColor(colorHeaderBG)
	dc.DrawRoundedRectangle(16, 16, float64(l.Width)-32, header-24, 10)
	dc.Fill()

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(colorText)
	dc.DrawStringAnchored(l.Title, 32, 36, 0, 0.5)

	byID := make(map[string]layoutNode, len(l.Nodes))
	for _, n := range l.Nodes {
		byID[n.ID] = n
	}
	dc.SetColor(colorEdge)
	dc.SetLineWidth(2)
	for _, e := range l.Edges {
		from, to := byID[e[0]], byID[e[1]]
		dc.DrawLine(from.X+from.W/2, from.Y+from.H/2, to.X+to.W/2, to.Y+to.H/2)
		dc.Stroke()
	}

	for _, n := range l.Nodes {
		drawNode(dc, n)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return dc.SavePNG(path)
}

func drawNode(dc *gg.Context, n layoutNode) {
	dc.SetColor(n.Fill)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 12)
	dc.Fill()
	dc.SetColor(colorStroke)
	dc.SetLineWidth(1.2)
	dc.DrawRoundedRectangle(n.X, n.Y, n.W, n.H, 12)
	dc.Stroke()

	dc.SetColor(colorSubtle)
	dc.DrawStringAnchored(n.Title, n.X+12, n.Y+20, 0, 0.5)
	dc.DrawStringAnchored(n.Detail, n.X+12, n.Y+38, 0, 0.5)
}
