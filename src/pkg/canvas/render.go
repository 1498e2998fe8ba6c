package canvas

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/model"
)

const maxBoxWidth = 36

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8B5CF6"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B"))
	userStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6"))
	aiStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	chatBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#8B5CF6")).Padding(0, 1)
)

const defaultColour = "#8B5CF6"

// box is a node's rectangle in terminal cells.
type box struct {
	node          model.Node
	x, y          int
	width, height int
}

func (b box) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.width && y >= b.y && y < b.y+b.height
}

func (b box) center() (int, int) {
	return b.x + b.width/2, b.y + b.height/2
}

// boxes lays out every node in screen cells. Later nodes are drawn on top.
func (m *Model) boxes() []box {
	t := m.controller.Transform()
	nodes := m.session.Store.Nodes()
	out := make([]box, 0, len(nodes))
	for _, n := range nodes {
		label := boxLabel(n)
		width := runewidth.StringWidth(label) + 4
		if width > maxBoxWidth {
			width = maxBoxWidth
		}
		p := t.MapToScreen(n.Position)
		cx := int(math.Floor(p.X / cellWidth))
		cy := int(math.Floor(p.Y / cellHeight))
		out = append(out, box{node: n, x: cx - width/2, y: cy - 1, width: width, height: 3})
	}
	return out
}

// nodeAt returns the id of the topmost node drawn at a cell.
func (m *Model) nodeAt(x, y int) string {
	boxes := m.boxes()
	for i := len(boxes) - 1; i >= 0; i-- {
		if boxes[i].contains(x, y) {
			return boxes[i].node.ID
		}
	}
	return ""
}

func boxLabel(n model.Node) string {
	switch {
	case board.IsTask(n) && board.StatusOf(n) == model.TaskDone:
		return "✓ " + n.Title
	case board.IsTask(n):
		return "☐ " + n.Title
	case n.Type == model.NodeTypeNote:
		return "¶ " + n.Title
	}
	return n.Title
}

type cell struct {
	r      rune
	colour string
	bold   bool
}

// grid is the drawing surface of the canvas area.
type grid struct {
	width, height, top int
	cells              [][]cell
}

func newGrid(width, height, top int) *grid {
	g := &grid{width: width, height: height, top: top, cells: make([][]cell, height)}
	for i := range g.cells {
		row := make([]cell, width)
		for j := range row {
			row[j] = cell{r: ' '}
		}
		g.cells[i] = row
	}
	return g
}

func (g *grid) set(x, y int, r rune, colour string, bold bool) {
	y -= g.top
	if x < 0 || y < 0 || x >= g.width || y >= g.height {
		return
	}
	g.cells[y][x] = cell{r: r, colour: colour, bold: bold}
}

func (g *grid) text(x, y int, s string, colour string, bold bool) {
	for _, r := range s {
		g.set(x, y, r, colour, bold)
		x += runewidth.RuneWidth(r)
	}
}

// line draws a dotted connector between two cells.
func (g *grid) line(x0, y0, x1, y1 int) {
	steps := max(abs(x1-x0), abs(y1-y0))
	for i := 0; i <= steps; i++ {
		f := 0.0
		if steps > 0 {
			f = float64(i) / float64(steps)
		}
		x := x0 + int(math.Round(f*float64(x1-x0)))
		y := y0 + int(math.Round(f*float64(y1-y0)))
		g.set(x, y, '·', "241", false)
	}
}

func (g *grid) frame(b box, colour string, selected bool) {
	h, v, tl, tr, bl, br := '─', '│', '╭', '╮', '╰', '╯'
	if selected {
		h, v, tl, tr, bl, br = '━', '┃', '┏', '┓', '┗', '┛'
	}
	for x := b.x; x < b.x+b.width; x++ {
		g.set(x, b.y, h, colour, selected)
		g.set(x, b.y+b.height-1, h, colour, selected)
		for y := b.y + 1; y < b.y+b.height-1; y++ {
			g.set(x, y, ' ', "", false)
		}
	}
	for y := b.y; y < b.y+b.height; y++ {
		g.set(b.x, y, v, colour, selected)
		g.set(b.x+b.width-1, y, v, colour, selected)
	}
	g.set(b.x, b.y, tl, colour, selected)
	g.set(b.x+b.width-1, b.y, tr, colour, selected)
	g.set(b.x, b.y+b.height-1, bl, colour, selected)
	g.set(b.x+b.width-1, b.y+b.height-1, br, colour, selected)
}

func (g *grid) render() string {
	styles := map[string]lipgloss.Style{}
	style := func(c cell) lipgloss.Style {
		key := fmt.Sprintf("%s:%t", c.colour, c.bold)
		s, ok := styles[key]
		if !ok {
			s = lipgloss.NewStyle().Bold(c.bold)
			if c.colour != "" {
				s = s.Foreground(lipgloss.Color(c.colour))
			}
			styles[key] = s
		}
		return s
	}

	lines := make([]string, len(g.cells))
	for i, row := range g.cells {
		var b strings.Builder
		var run strings.Builder
		current := row[0]
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if current.colour == "" && !current.bold {
				b.WriteString(run.String())
			} else {
				b.WriteString(style(current).Render(run.String()))
			}
			run.Reset()
		}
		for _, c := range row {
			if c.colour != current.colour || c.bold != current.bold {
				flush()
				current = c
			}
			run.WriteRune(c.r)
		}
		flush()
		lines[i] = b.String()
	}
	return strings.Join(lines, "\n")
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	sections := []string{m.header(), m.canvas()}
	if m.chatOpen {
		sections = append(sections, m.chatPanel())
	}
	sections = append(sections, m.footer()...)
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) header() string {
	title := "AetherFlow"
	if mp := m.session.Store.CurrentMap(); mp != nil {
		title = "AetherFlow · " + mp.Title
	}
	return headerStyle.Render(runewidth.Truncate(title, m.width, "…"))
}

func (m *Model) canvas() string {
	store := m.session.Store
	rows := m.canvasRows()
	g := newGrid(m.width, rows, headerRows)

	boxes := m.boxes()
	byID := make(map[string]box, len(boxes))
	for _, b := range boxes {
		byID[b.node.ID] = b
	}
	for _, b := range boxes {
		parent, ok := byID[b.node.ParentID]
		if !ok {
			continue
		}
		px, py := parent.center()
		cx, cy := b.center()
		g.line(px, py, cx, cy)
	}

	selected := store.SelectedNode()
	for _, b := range boxes {
		colour := b.node.Metadata.Color
		if colour == "" {
			colour = defaultColour
		}
		isSelected := b.node.ID == selected
		g.frame(b, colour, isSelected)
		label := runewidth.Truncate(boxLabel(b.node), b.width-4, "…")
		g.text(b.x+2, b.y+1, label, "", isSelected)
		if m.session.Orchestrator.InFlight(b.node.ID) {
			g.text(b.x+b.width-2, b.y, "…", colour, true)
		}
	}
	return g.render()
}

func (m *Model) chatPanel() string {
	store := m.session.Store
	node, ok := store.Node(store.ChatNode())
	if !ok {
		return ""
	}

	inner := m.width - 4
	if inner < 10 {
		inner = 10
	}
	var lines []string
	for _, msg := range node.Metadata.ChatHistory {
		who := userStyle.Render("You: ")
		if msg.Role == model.RoleAssistant {
			who = aiStyle.Render("AI: ")
		}
		content := strings.ReplaceAll(msg.Content, "\n", " ")
		lines = append(lines, who+runewidth.Truncate(content, inner-5, "…"))
	}
	visible := chatRows - 4
	if len(lines) > visible {
		lines = lines[len(lines)-visible:]
	}
	for len(lines) < visible {
		lines = append([]string{""}, lines...)
	}
	lines = append(lines, "> "+m.chatInput+"█")

	body := subtleStyle.Render("Chat · "+node.Title) + "\n" + strings.Join(lines, "\n")
	return chatBoxStyle.Width(inner).Render(body)
}

func (m *Model) footer() []string {
	store := m.session.Store
	pan := store.PanOffset()
	info := fmt.Sprintf("zoom %.0f%% · pan (%.0f, %.0f) · %s", store.Zoom()*100, pan.X, pan.Y, m.controller.State())
	if id := store.SelectedNode(); id != "" {
		if n, ok := store.Node(id); ok {
			info += " · " + n.Title
		}
	}
	if m.status != "" {
		info += " · " + m.status
	}

	keys := "tab select · e expand · t task · d delete · c chat · +/- zoom · 0 reset · arrows pan · q quit"
	if m.chatOpen {
		keys = "enter send · esc close chat · ctrl+c quit"
	}
	return []string{
		statusStyle.Render(runewidth.Truncate(info, m.width, "…")),
		subtleStyle.Render(runewidth.Truncate(keys, m.width, "…")),
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
