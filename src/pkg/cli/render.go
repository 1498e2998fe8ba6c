package cli

import (
	"fmt"
	"strings"
	"time"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/session"
)

const chatWidth = 80

// render prints a command result according to its type
func (c *CLI) render(result interface{}) {
	w := c.writer
	switch r := result.(type) {
	case *model.Map:
		c.renderMap(r)
	case model.Node:
		fmt.Fprintln(w, nodeLine(r, true))
	case []model.Node:
		if len(r) == 0 {
			fmt.Fprintln(w, Subtle.Sprint("No nodes were added."))
			return
		}
		fmt.Fprintf(w, "Added %d node(s):\n", len(r))
		for _, n := range r {
			fmt.Fprintf(w, "  %s\n", nodeLine(n, false))
		}
	case []string:
		fmt.Fprintf(w, "Deleted %d node(s).\n", len(r))
	case string:
		fmt.Fprintf(w, "Exported to %s\n", Info.Sprint(r))
	case *session.TreeView:
		c.renderTree(r)
	case *session.MapInfo:
		c.renderMapInfo(r)
	case board.Board:
		c.renderBoard(r)
	case *session.NotesView:
		c.renderNotes(r)
	case *session.ViewState:
		fmt.Fprintf(w, "View: %s  Zoom: %.0f%% %s  Pan: (%.0f, %.0f)\n", Info.Sprint(r.Mode), r.Zoom*100,
			Subtle.Sprintf("[%.0f%%-%.0f%%]", r.MinZoom*100, r.MaxZoom*100), r.Pan.X, r.Pan.Y)
	case []session.FindResult:
		if len(r) == 0 {
			fmt.Fprintln(w, Subtle.Sprint("No matching nodes."))
			return
		}
		rows := make([][]string, 0, len(r))
		for _, fr := range r {
			rows = append(rows, []string{fr.Index, fr.Node.Title, string(fr.Node.Type), fr.Node.ID})
		}
		Table(w, []string{"INDEX", "TITLE", "TYPE", "ID"}, rows)
	case model.ChatMessage:
		c.renderChat(r)
	case *model.Snapshot:
		fmt.Fprintf(w, "Snapshot %s %s\n", Brand.Sprint(r.Title), Subtle.Sprintf("(%s)", r.ID))
	case []model.Snapshot:
		if len(r) == 0 {
			fmt.Fprintln(w, Subtle.Sprint("No snapshots."))
			return
		}
		rows := make([][]string, 0, len(r))
		for _, s := range r {
			rows = append(rows, []string{s.ID, s.Title, s.Created.Local().Format(time.DateTime)})
		}
		Table(w, []string{"ID", "TITLE", "CREATED"}, rows)
	case *session.SystemStatus:
		mapTitle := r.MapTitle
		if mapTitle == "" {
			mapTitle = Subtle.Sprint("(none)")
		}
		fmt.Fprintf(w, "Session: %s\n", r.SessionID)
		fmt.Fprintf(w, "Map:     %s\n", mapTitle)
		fmt.Fprintf(w, "Nodes:   %d\n", r.Nodes)
		fmt.Fprintf(w, "AI:      %s\n", StatusIcon(r.AIAvailable))
	default:
		fmt.Fprintf(w, "%v\n", r)
	}
}

func (c *CLI) renderMap(m *model.Map) {
	fmt.Fprintf(c.writer, "Map %s %s\n", Brand.Sprint(m.Title), visibility(m))
}

func visibility(m *model.Map) string {
	if m.IsPublic {
		return Good.Sprintf("[public /%s]", m.Slug)
	}
	return Subtle.Sprint("[private]")
}

func (c *CLI) renderMapInfo(info *session.MapInfo) {
	w := c.writer
	fmt.Fprintf(w, "Title:       %s\n", Brand.Sprint(info.Map.Title))
	if info.Map.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", info.Map.Description)
	}
	fmt.Fprintf(w, "ID:          %s\n", info.Map.ID)
	fmt.Fprintf(w, "Visibility:  %s\n", visibility(info.Map))
	fmt.Fprintf(w, "Nodes:       %d (%d tasks, %d notes)\n", info.Nodes, info.Tasks, info.Notes)
	fmt.Fprintf(w, "View:        %s, zoom %.0f%%, pan (%.0f, %.0f)\n", info.ViewMode, info.Zoom*100, info.Pan.X, info.Pan.Y)
	if info.Selected != "" {
		fmt.Fprintf(w, "Selected:    %s\n", info.Selected)
	}
	fmt.Fprintf(w, "AI:          %s\n", StatusIcon(info.AIAvailable))
	fmt.Fprintf(w, "Updated:     %s\n", info.Map.Updated.Local().Format(time.DateTime))
}

// renderTree draws the entries with box characters. Entries arrive in
// depth-first order.
func (c *CLI) renderTree(view *session.TreeView) {
	if len(view.Entries) == 0 {
		fmt.Fprintln(c.writer, Subtle.Sprint("The map is empty."))
		return
	}

	base := view.Entries[0].Depth
	var lastAt []bool
	for i, e := range view.Entries {
		depth := e.Depth - base
		label := fmt.Sprintf("%s %s", Subtle.Sprint(e.Index), nodeLine(e.Node, view.ShowID))
		if depth == 0 {
			fmt.Fprintln(c.writer, label)
			lastAt = lastAt[:0]
			continue
		}

		last := isLastSibling(view.Entries, i)
		for len(lastAt) < depth {
			lastAt = append(lastAt, false)
		}
		lastAt = lastAt[:depth]
		lastAt[depth-1] = last

		var prefix strings.Builder
		for level := 0; level < depth-1; level++ {
			if lastAt[level] {
				prefix.WriteString("    ")
			} else {
				prefix.WriteString("│   ")
			}
		}
		if last {
			prefix.WriteString("└── ")
		} else {
			prefix.WriteString("├── ")
		}
		fmt.Fprintln(c.writer, Subtle.Sprint(prefix.String())+label)
	}
}

func isLastSibling(entries []session.TreeEntry, i int) bool {
	depth := entries[i].Depth
	for _, e := range entries[i+1:] {
		if e.Depth < depth {
			return true
		}
		if e.Depth == depth {
			return false
		}
	}
	return true
}

func (c *CLI) renderBoard(b board.Board) {
	w := c.writer
	if b.Len() == 0 {
		fmt.Fprintln(w, Subtle.Sprint("No tasks yet. Use 'node taskify <node>' to add one."))
		return
	}
	for _, col := range b.Columns {
		fmt.Fprintf(w, "%s %s\n", Brand.Sprint(col.Title), Subtle.Sprintf("(%d)", len(col.Nodes)))
		for _, n := range col.Nodes {
			fmt.Fprintf(w, "  • %s%s\n", n.Title, taskDetail(n))
		}
		fmt.Fprintln(w)
	}
}

func taskDetail(n model.Node) string {
	if n.Task == nil {
		return ""
	}
	parts := []string{priorityColor(n.Task.Priority)}
	if len(n.Task.Tags) > 0 {
		parts = append(parts, "#"+strings.Join(n.Task.Tags, " #"))
	}
	if n.Task.Deadline != nil {
		parts = append(parts, "due "+n.Task.Deadline.Local().Format(time.DateOnly))
	}
	return Subtle.Sprint("  ") + strings.Join(parts, Subtle.Sprint(" · "))
}

func priorityColor(p model.TaskPriority) string {
	switch p {
	case model.PriorityHigh:
		return Bad.Sprint(p)
	case model.PriorityMedium:
		return Warn.Sprint(p)
	default:
		return Subtle.Sprint(p)
	}
}

func (c *CLI) renderNotes(notes *session.NotesView) {
	if len(notes.Entries) == 0 {
		fmt.Fprintln(c.writer, Subtle.Sprint("No notes."))
		return
	}
	for _, e := range notes.Entries {
		indent := strings.Repeat("  ", e.Depth)
		fmt.Fprintf(c.writer, "%s%s\n", indent, Brand.Sprint(e.Node.Title))
		if e.Node.Description != "" {
			fmt.Fprintf(c.writer, "%s  %s\n", indent, e.Node.Description)
		}
	}
}

func (c *CLI) renderChat(msg model.ChatMessage) {
	if msg.Content == session.ChatErrorReply {
		fmt.Fprintln(c.writer, Warn.Sprint(msg.Content))
		return
	}
	fmt.Fprintln(c.writer, Info.Sprint("AI:"))
	fmt.Fprintln(c.writer, renderMarkdown(msg.Content, chatWidth))
}

// nodeLine formats a node as a single line
func nodeLine(n model.Node, showID bool) string {
	var b strings.Builder
	switch n.Type {
	case model.NodeTypeTask:
		if board.StatusOf(n) == model.TaskDone {
			b.WriteString(Good.Sprint("[x] "))
		} else {
			b.WriteString("[ ] ")
		}
	case model.NodeTypeNote:
		b.WriteString(Subtle.Sprint("¶ "))
	}
	b.WriteString(n.Title)
	if n.Task != nil && n.Type == model.NodeTypeTask {
		b.WriteString(Subtle.Sprintf(" (%s)", n.Task.Status))
	}
	if n.Metadata.AIGenerated {
		b.WriteString(Info.Sprint(" ✦"))
	}
	if n.Description != "" {
		b.WriteString(Subtle.Sprint(": " + n.Description))
	}
	if showID {
		b.WriteString(Subtle.Sprintf(" [%s]", n.ID))
	}
	return b.String()
}
