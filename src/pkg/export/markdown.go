package export

import (
	"fmt"
	"strings"

	"aetherflow/local-app/src/pkg/board"
	"aetherflow/local-app/src/pkg/model"
)

// Markdown renders the map as a nested bullet outline. Task nodes become
// checkboxes, checked when done.
func Markdown(state model.MapState) string {
	var sb strings.Builder

	title := "Untitled map"
	if state.CurrentMap != nil && state.CurrentMap.Title != "" {
		title = state.CurrentMap.Title
	}
	fmt.Fprintf(&sb, "# %s\n", title)
	if state.CurrentMap != nil && state.CurrentMap.Description != "" {
		fmt.Fprintf(&sb, "\n%s\n", state.CurrentMap.Description)
	}
	sb.WriteString("\n")

	for _, e := range board.Outline(state.Nodes) {
		n := e.Node
		indent := strings.Repeat("  ", e.Depth)
		marker := "- "
		if board.IsTask(n) {
			if board.StatusOf(n) == model.TaskDone {
				marker = "- [x] "
			} else {
				marker = "- [ ] "
			}
		}
		fmt.Fprintf(&sb, "%s%s**%s**", indent, marker, n.Title)
		if n.Description != "" {
			fmt.Fprintf(&sb, ": %s", n.Description)
		}
		if n.Task != nil && len(n.Task.Tags) > 0 {
			fmt.Fprintf(&sb, " `%s`", strings.Join(n.Task.Tags, "` `"))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
