// Package canvas renders the open map in the terminal and drives the viewport
// controller with mouse and keyboard input.
package canvas

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/session"
	"aetherflow/local-app/src/pkg/viewport"
)

// A terminal cell stands for this many map units at zoom 1.
const (
	cellWidth  = 10.0
	cellHeight = 24.0
)

const (
	headerRows = 1
	footerRows = 2
	chatRows   = 10
)

type expandDoneMsg struct {
	nodeID string
	nodes  []model.Node
	err    error
}

type chatDoneMsg struct {
	nodeID string
	reply  model.ChatMessage
	err    error
}

type flushMsg time.Time

// Model is the bubbletea model of the canvas.
type Model struct {
	session    *session.Session
	controller *viewport.Controller
	throttle   time.Duration
	logger     *log.Logger

	width  int
	height int

	chatOpen  bool
	chatInput string
	status    string
	quitting  bool
}

// New creates a canvas over the session's store.
func New(s *session.Session, cfg viewport.Config, logger *log.Logger) *Model {
	return &Model{
		session:    s,
		controller: viewport.NewController(s.Store, cfg, logger),
		throttle:   cfg.Throttle,
		logger:     logger,
	}
}

// Run starts the canvas in the alternate screen and blocks until it quits.
func Run(ctx context.Context, s *session.Session, cfg viewport.Config, logger *log.Logger) error {
	if s.Store.CurrentMap() == nil {
		return session.ErrNoMap
	}
	p := tea.NewProgram(New(s, cfg, logger),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run canvas: %w", err)
	}
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.mount()
		return m, nil

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		if m.chatOpen {
			return m, m.handleChatKey(msg)
		}
		return m, m.handleKey(msg)

	case flushMsg:
		m.controller.Flush(time.Time(msg))
		return m, nil

	case expandDoneMsg:
		switch {
		case errors.Is(msg.err, session.ErrRequestInFlight):
			m.status = "Expansion already running"
		case msg.err != nil:
			m.status = "Expansion failed: " + msg.err.Error()
		case msg.nodes == nil:
			m.status = "Node was removed before expansion finished"
		default:
			m.status = fmt.Sprintf("Added %d ideas", len(msg.nodes))
		}
		return m, nil

	case chatDoneMsg:
		if msg.err != nil {
			m.logger.Warn(context.Background(), "Chat reply failed", log.Fields{"nodeID": msg.nodeID, "error": msg.err})
			m.status = "Chat failed"
		} else {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

// mount places the map origin at the middle of the canvas area.
func (m *Model) mount() {
	rows := m.canvasRows()
	m.controller.Mount(geometry.Point{
		X: float64(m.width) / 2 * cellWidth,
		Y: (float64(headerRows) + float64(rows)/2) * cellHeight,
	})
}

func (m *Model) canvasRows() int {
	rows := m.height - headerRows - footerRows
	if m.chatOpen {
		rows -= chatRows
	}
	if rows < 1 {
		rows = 1
	}
	return rows
}

// screenPoint is the centre of a terminal cell in screen units.
func screenPoint(x, y int) geometry.Point {
	return geometry.Point{X: (float64(x) + 0.5) * cellWidth, Y: (float64(y) + 0.5) * cellHeight}
}

func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	pos := screenPoint(msg.X, msg.Y)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelDown:
		delta := -1.0
		if msg.Button == tea.MouseButtonWheelDown {
			delta = 1
		}
		return m.wheel(delta)
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft || !m.onCanvas(msg.Y) {
			return nil
		}
		m.controller.PointerDown(viewport.PointerEvent{Pos: pos, NodeID: m.nodeAt(msg.X, msg.Y)})
	case tea.MouseActionMotion:
		if !m.onCanvas(msg.Y) {
			m.controller.PointerLeave()
			return nil
		}
		m.controller.PointerMove(viewport.PointerEvent{Pos: pos})
	case tea.MouseActionRelease:
		m.controller.PointerUp(viewport.PointerEvent{Pos: pos})
	}
	return nil
}

func (m *Model) onCanvas(y int) bool {
	return y >= headerRows && y < headerRows+m.canvasRows()
}

// wheel steps the zoom and schedules a flush for a coalesced level.
func (m *Model) wheel(delta float64) tea.Cmd {
	_, applied := m.controller.Wheel(viewport.WheelEvent{DeltaY: delta, At: time.Now()})
	if applied {
		return nil
	}
	return tea.Tick(m.throttle, func(t time.Time) tea.Msg { return flushMsg(t) })
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	store := m.session.Store
	selected := store.SelectedNode()

	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return tea.Quit
	case "+", "=":
		return m.wheel(-1)
	case "-", "_":
		return m.wheel(1)
	case "0":
		m.controller.ResetView()
	case "tab":
		m.cycleSelection(1)
	case "shift+tab":
		m.cycleSelection(-1)
	case "up", "down", "left", "right":
		m.pan(msg.String())
	case "esc":
		store.ClearSelection()
	case "e":
		if selected == "" {
			m.status = "Select a node to expand"
			return nil
		}
		m.status = "Expanding..."
		return m.expand(selected)
	case "t":
		if selected == "" {
			m.status = "Select a node to turn into a task"
			return nil
		}
		if store.TaskifyNode(selected, nil) {
			m.status = "Node is now a task"
		}
	case "d":
		if selected == "" {
			m.status = "Select a node to delete"
			return nil
		}
		removed := store.DeleteNode(selected)
		m.status = fmt.Sprintf("Deleted %d node(s)", len(removed))
	case "c":
		if selected == "" {
			m.status = "Select a node to chat about"
			return nil
		}
		if store.OpenChat(selected) {
			m.chatOpen = true
			m.chatInput = ""
			m.mount()
		}
	}
	return nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.quitting = true
		return tea.Quit
	case tea.KeyEsc:
		m.closeChat()
	case tea.KeyEnter:
		text := strings.TrimSpace(m.chatInput)
		nodeID := m.session.Store.ChatNode()
		if text == "" || nodeID == "" {
			return nil
		}
		m.chatInput = ""
		m.status = "Thinking..."
		return m.chat(nodeID, text)
	case tea.KeyBackspace:
		if r := []rune(m.chatInput); len(r) > 0 {
			m.chatInput = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.chatInput += " "
	case tea.KeyRunes:
		m.chatInput += string(msg.Runes)
	}
	return nil
}

func (m *Model) closeChat() {
	m.session.Store.CloseChat()
	m.chatOpen = false
	m.mount()
}

func (m *Model) expand(nodeID string) tea.Cmd {
	orchestrator := m.session.Orchestrator
	return func() tea.Msg {
		nodes, err := orchestrator.ExpandNode(context.Background(), nodeID)
		return expandDoneMsg{nodeID: nodeID, nodes: nodes, err: err}
	}
}

func (m *Model) chat(nodeID, text string) tea.Cmd {
	orchestrator := m.session.Orchestrator
	return func() tea.Msg {
		reply, err := orchestrator.Chat(context.Background(), nodeID, text)
		return chatDoneMsg{nodeID: nodeID, reply: reply, err: err}
	}
}

// cycleSelection moves the selection through the nodes in creation order.
func (m *Model) cycleSelection(step int) {
	nodes := m.session.Store.Nodes()
	if len(nodes) == 0 {
		return
	}
	current := m.session.Store.SelectedNode()
	next := 0
	for i, n := range nodes {
		if n.ID == current {
			next = (i + step + len(nodes)) % len(nodes)
			break
		}
	}
	m.session.Store.SetSelectedNode(nodes[next].ID)
}

func (m *Model) pan(direction string) {
	offset := m.session.Store.PanOffset()
	switch direction {
	case "up":
		offset.Y += 2 * cellHeight
	case "down":
		offset.Y -= 2 * cellHeight
	case "left":
		offset.X += 4 * cellWidth
	case "right":
		offset.X -= 4 * cellWidth
	}
	m.session.Store.SetPanOffset(offset)
}
