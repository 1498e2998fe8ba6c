package cli

import (
	"fmt"
)

// printHelp prints the help message based on the provided arguments
func (c *CLI) printHelp(args []string) {
	switch len(args) {
	case 0:
		c.showGeneralHelp()
	case 1:
		c.showScopeHelp(args[0])
	case 2:
		c.showOperationHelp(args[0], args[1])
	default:
		fmt.Fprintln(c.writer, "Invalid help command. Use 'help [scope] [operation]'")
	}
}

// showGeneralHelp displays an overview of all available commands grouped by scope
func (c *CLI) showGeneralHelp() {
	fmt.Fprintln(c.writer, "Command syntax: <scope> <operation> [arguments] [options]")
	fmt.Fprintln(c.writer, "Nodes are addressed by index (0 is the root, 1.2 the second child of the first child) or by id with --id.")
	fmt.Fprintln(c.writer, "\nAvailable commands:")
	currentScope := ""
	for _, cmd := range commandHelps {
		if cmd.Scope != currentScope {
			fmt.Fprintf(c.writer, "\n%s:\n", Brand.Sprint(cmd.Scope))
			currentScope = cmd.Scope
		}
		fmt.Fprintf(c.writer, "  %-15s %s\n", cmd.Operation, cmd.ShortDesc)
	}
}

// showScopeHelp displays help information for all commands within a specific scope
func (c *CLI) showScopeHelp(scope string) {
	found := false
	for _, cmd := range commandHelps {
		if cmd.Scope == scope {
			if !found {
				fmt.Fprintf(c.writer, "Commands for %s:\n\n", Brand.Sprint(scope))
				found = true
			}
			fmt.Fprintf(c.writer, "%-15s %s\n", cmd.Operation, cmd.ShortDesc)
		}
	}
	if !found {
		fmt.Fprintf(c.writer, "No help found for %s\n", scope)
	}
}

// showOperationHelp displays detailed help information for a specific operation within a scope
func (c *CLI) showOperationHelp(scope, operation string) {
	for _, cmd := range commandHelps {
		if cmd.Scope == scope && cmd.Operation == operation {
			fmt.Fprintf(c.writer, "Command: %s\n", Brand.Sprintf("%s %s", scope, operation))
			fmt.Fprintf(c.writer, "Description: %s\n", cmd.LongDesc)
			fmt.Fprintf(c.writer, "Syntax: %s\n", cmd.Syntax)
			if len(cmd.Arguments) > 0 {
				fmt.Fprintln(c.writer, "Arguments:")
				for _, arg := range cmd.Arguments {
					fmt.Fprintf(c.writer, "  %s\n", arg)
				}
			}
			if len(cmd.Options) > 0 {
				fmt.Fprintln(c.writer, "Options:")
				for _, opt := range cmd.Options {
					fmt.Fprintf(c.writer, "  %s\n", opt)
				}
			}
			if len(cmd.Examples) > 0 {
				fmt.Fprintln(c.writer, "Examples:")
				for _, ex := range cmd.Examples {
					fmt.Fprintf(c.writer, "  %s\n", Subtle.Sprint(ex))
				}
			}
			return
		}
	}
	fmt.Fprintf(c.writer, "No help found for %s %s\n", scope, operation)
}

// CommandHelp represents the structure of help information for a specific command.
type CommandHelp struct {
	Scope     string
	Operation string
	ShortDesc string
	LongDesc  string
	Syntax    string
	Arguments []string
	Options   []string
	Examples  []string
}

const idOption = "--id: Treat node arguments as node ids instead of indexes"

// commandHelps is a slice of CommandHelp structs containing help information for all commands.
var commandHelps = []CommandHelp{
	{
		Scope:     "map",
		Operation: "new",
		ShortDesc: "Start a new map from a seed idea",
		LongDesc:  "Discards the open map and creates a new one whose root node carries the seed idea.",
		Syntax:    "map new <seed idea>",
		Arguments: []string{"seed idea: The topic of the map, may span several words"},
		Examples:  []string{"map new Learn jazz guitar", `map new "Plan a trip to Japan"`},
	},
	{
		Scope:     "map",
		Operation: "show",
		ShortDesc: "Show the map as a tree",
		LongDesc:  "Prints the node tree with the index of every node. With a node argument only that branch is shown.",
		Syntax:    "map show [node] [--id]",
		Arguments: []string{"node: (Optional) The branch to show"},
		Options:   []string{"--id: Show node ids, or treat the node argument as an id"},
		Examples:  []string{"map show", "map show 1.2", "map show --id"},
	},
	{
		Scope:     "map",
		Operation: "info",
		ShortDesc: "Show map details",
		LongDesc:  "Prints the map title, visibility, node counts and the current view settings.",
		Syntax:    "map info",
		Examples:  []string{"map info"},
	},
	{
		Scope:     "map",
		Operation: "rename",
		ShortDesc: "Rename the map",
		LongDesc:  "Changes the map title. A public map gets a new slug.",
		Syntax:    "map rename <title>",
		Arguments: []string{"title: The new title"},
		Examples:  []string{"map rename Jazz guitar roadmap"},
	},
	{
		Scope:     "map",
		Operation: "share",
		ShortDesc: "Make the map public or private",
		LongDesc:  "Toggles the visibility of the map, or sets it explicitly. Public maps get a slug derived from the title.",
		Syntax:    "map share [public|private]",
		Examples:  []string{"map share", "map share private"},
	},
	{
		Scope:     "map",
		Operation: "save",
		ShortDesc: "Save the map now",
		LongDesc:  "Writes the open map to the configured storage. The map is also saved periodically and on exit.",
		Syntax:    "map save",
		Examples:  []string{"map save"},
	},
	{
		Scope:     "map",
		Operation: "load",
		ShortDesc: "Reload the saved map",
		LongDesc:  "Replaces the open map with the last saved state.",
		Syntax:    "map load",
		Examples:  []string{"map load"},
	},
	{
		Scope:     "map",
		Operation: "reset",
		ShortDesc: "Close the map",
		LongDesc:  "Clears the open map, the selection and the view settings.",
		Syntax:    "map reset",
		Examples:  []string{"map reset"},
	},
	{
		Scope:     "map",
		Operation: "export",
		ShortDesc: "Export the map to a file",
		LongDesc:  "Writes the map as a document (json, xml, yaml), a markdown outline (md) or an image (svg, png). The format defaults to the file extension.",
		Syntax:    "map export <filename> [json|xml|yaml|md|svg|png]",
		Arguments: []string{"filename: The file to write", "format: (Optional) The output format"},
		Examples:  []string{"map export guitar.json", "map export guitar.png", "map export notes.txt md"},
	},
	{
		Scope:     "map",
		Operation: "import",
		ShortDesc: "Import a map from a file",
		LongDesc:  "Replaces the open map with a map document previously exported as json, xml or yaml.",
		Syntax:    "map import <filename> [json|xml|yaml]",
		Arguments: []string{"filename: The file to read", "format: (Optional) The document format"},
		Examples:  []string{"map import guitar.yaml"},
	},
	{
		Scope:     "node",
		Operation: "add",
		ShortDesc: "Add a child node",
		LongDesc:  "Adds a node below the given parent and places it next to its siblings.",
		Syntax:    "node add <parent> <title> [type:<idea|task|note>] [description:<text>] [--id]",
		Arguments: []string{"parent: The parent node", "title: The title of the new node"},
		Options:   []string{"type: The node type, idea by default", "description: The node description", idOption},
		Examples:  []string{"node add 0 Scales", `node add 1 "Practice daily" type:task`},
	},
	{
		Scope:     "node",
		Operation: "update",
		ShortDesc: "Update a node",
		LongDesc:  "Changes the title, description, type or color of a node.",
		Syntax:    "node update <node> [title:<text>] [description:<text>] [type:<type>] [color:<hex>] [--id]",
		Arguments: []string{"node: The node to update"},
		Options:   []string{"title, description, type, color: The fields to change", idOption},
		Examples:  []string{`node update 1 "title:Major scales"`, "node update 1.1 color:#10B981"},
	},
	{
		Scope:     "node",
		Operation: "delete",
		ShortDesc: "Delete a node and its subtree",
		LongDesc:  "Removes the node together with every node below it.",
		Syntax:    "node delete <node> [--id]",
		Arguments: []string{"node: The node to delete"},
		Options:   []string{idOption},
		Examples:  []string{"node delete 2"},
	},
	{
		Scope:     "node",
		Operation: "expand",
		ShortDesc: "Ask the AI for sub-ideas",
		LongDesc:  "Generates child ideas for the node. Without an AI backend a fixed set of placeholder children is added.",
		Syntax:    "node expand <node> [--id]",
		Arguments: []string{"node: The node to expand"},
		Options:   []string{idOption},
		Examples:  []string{"node expand 0", "node expand 1.2"},
	},
	{
		Scope:     "node",
		Operation: "taskify",
		ShortDesc: "Turn a node into a task",
		LongDesc:  "Attaches a task to the node so it appears on the board. A node that already has a task keeps it.",
		Syntax:    "node taskify <node> [status:<status>] [priority:<priority>] [tags:<a,b>] [deadline:<date>] [--id]",
		Arguments: []string{"node: The node to taskify"},
		Options:   []string{"status: todo, in_progress or done", "priority: low, medium or high", "tags: Comma separated tags", "deadline: A date such as 2025-06-01", idOption},
		Examples:  []string{"node taskify 1", "node taskify 1.1 priority:high tags:practice,daily"},
	},
	{
		Scope:     "node",
		Operation: "chat",
		ShortDesc: "Chat with the AI about a node",
		LongDesc:  "Sends a message in the node's conversation and prints the reply.",
		Syntax:    "node chat <node> <message> [--id]",
		Arguments: []string{"node: The node to talk about", "message: Your message, may span several words"},
		Options:   []string{idOption},
		Examples:  []string{"node chat 1 How long should I practice each day?"},
	},
	{
		Scope:     "node",
		Operation: "select",
		ShortDesc: "Select a node",
		LongDesc:  "Marks the node as selected. Without arguments the selection is cleared.",
		Syntax:    "node select [node] [--id]",
		Options:   []string{idOption},
		Examples:  []string{"node select 1.2", "node select"},
	},
	{
		Scope:     "node",
		Operation: "find",
		ShortDesc: "Find nodes by text",
		LongDesc:  "Lists the nodes whose title or description contains the query, ignoring case.",
		Syntax:    "node find <query> [--id]",
		Options:   []string{"--id: Show node ids"},
		Examples:  []string{"node find scale"},
	},
	{
		Scope:     "node",
		Operation: "move",
		ShortDesc: "Move a node on the canvas",
		LongDesc:  "Sets the canvas position of a node in world coordinates.",
		Syntax:    "node move <node> <x> <y> [--id]",
		Options:   []string{idOption},
		Examples:  []string{"node move 1 300 -120"},
	},
	{
		Scope:     "task",
		Operation: "update",
		ShortDesc: "Update a task",
		LongDesc:  "Changes the status, priority, tags or deadline of a task node.",
		Syntax:    "task update <node> [status:<status>] [priority:<priority>] [tags:<a,b>] [deadline:<date>] [--id]",
		Arguments: []string{"node: The task node"},
		Options:   []string{"status: todo, in_progress or done", "priority: low, medium or high", "tags: Comma separated tags", "deadline: A date such as 2025-06-01", idOption},
		Examples:  []string{"task update 1 status:in_progress", "task update 1.1 status:done"},
	},
	{
		Scope:     "task",
		Operation: "board",
		ShortDesc: "Show the task board",
		LongDesc:  "Prints the tasks of the map grouped into To Do, In Progress and Done.",
		Syntax:    "task board [--id]",
		Options:   []string{"--id: Show node ids"},
		Examples:  []string{"task board"},
	},
	{
		Scope:     "view",
		Operation: "mode",
		ShortDesc: "Switch the view",
		LongDesc:  "Switches between the map, board, notes and snapshot views, or prints the current one.",
		Syntax:    "view mode [map|board|notes|snapshot]",
		Examples:  []string{"view mode board", "view mode"},
	},
	{
		Scope:     "view",
		Operation: "zoom",
		ShortDesc: "Zoom the canvas",
		LongDesc:  "Sets the zoom level, or steps it in or out. The level is clamped to the configured bounds.",
		Syntax:    "view zoom [level|in|out]",
		Examples:  []string{"view zoom in", "view zoom 1.5"},
	},
	{
		Scope:     "view",
		Operation: "pan",
		ShortDesc: "Pan the canvas",
		LongDesc:  "Sets the pan offset of the canvas, or prints it.",
		Syntax:    "view pan [x y]",
		Examples:  []string{"view pan 120 -40"},
	},
	{
		Scope:     "view",
		Operation: "reset",
		ShortDesc: "Reset zoom and pan",
		LongDesc:  "Restores zoom level 1 and a zero pan offset.",
		Syntax:    "view reset",
		Examples:  []string{"view reset"},
	},
	{
		Scope:     "snapshot",
		Operation: "add",
		ShortDesc: "Take a snapshot of the map",
		LongDesc:  "Stores a copy of the current map under a title.",
		Syntax:    "snapshot add [title]",
		Examples:  []string{"snapshot add Before restructuring"},
	},
	{
		Scope:     "snapshot",
		Operation: "list",
		ShortDesc: "List snapshots",
		LongDesc:  "Lists the snapshots of the open map, newest first.",
		Syntax:    "snapshot list",
		Examples:  []string{"snapshot list"},
	},
	{
		Scope:     "snapshot",
		Operation: "restore",
		ShortDesc: "Restore a snapshot",
		LongDesc:  "Replaces the open map with the stored copy.",
		Syntax:    "snapshot restore <snapshot id>",
		Examples:  []string{"snapshot restore 5f0c"},
	},
	{
		Scope:     "snapshot",
		Operation: "delete",
		ShortDesc: "Delete a snapshot",
		LongDesc:  "Removes a stored snapshot.",
		Syntax:    "snapshot delete <snapshot id>",
		Examples:  []string{"snapshot delete 5f0c"},
	},
	{
		Scope:     "system",
		Operation: "status",
		ShortDesc: "Show session status",
		LongDesc:  "Prints the session id, the open map and whether an AI backend is configured.",
		Syntax:    "system status",
		Examples:  []string{"system status"},
	},
	{
		Scope:     "system",
		Operation: "exit",
		ShortDesc: "Exit the application",
		LongDesc:  "Saves the map and exits. 'exit' and 'quit' on their own work too.",
		Syntax:    "system exit",
		Examples:  []string{"system exit", "exit"},
	},
}
