package session

import (
	"context"
	"errors"
	"fmt"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

const unbounded = -1

// argSpec bounds the number of arguments an operation accepts.
type argSpec struct {
	min, max int
	usage    string
}

var commandSpecs = map[string]map[string]argSpec{
	"map": {
		"new":    {1, unbounded, "<seed idea>"},
		"show":   {0, 2, "[index] [--id]"},
		"info":   {0, 0, ""},
		"rename": {1, unbounded, "<title>"},
		"share":  {0, 1, "[public|private]"},
		"save":   {0, 0, ""},
		"load":   {0, 0, ""},
		"reset":  {0, 0, ""},
		"export": {1, 2, "<filename> [json|xml|yaml|md|svg|png]"},
		"import": {1, 2, "<filename> [json|xml|yaml]"},
	},
	"node": {
		"add":     {2, unbounded, "<parent> <title> [type:<idea|task|note>] [description:<text>] [--id]"},
		"update":  {2, unbounded, "<node> [title:<text>] [description:<text>] [type:<type>] [color:<hex>] [--id]"},
		"delete":  {1, 2, "<node> [--id]"},
		"expand":  {1, 2, "<node> [--id]"},
		"taskify": {1, unbounded, "<node> [status:<status>] [priority:<priority>] [tags:<a,b>] [deadline:<date>] [--id]"},
		"chat":    {2, unbounded, "<node> <message> [--id]"},
		"select":  {0, 2, "[node] [--id]"},
		"find":    {1, 2, "<query> [--id]"},
		"move":    {3, 4, "<node> <x> <y> [--id]"},
	},
	"task": {
		"update": {2, unbounded, "<node> [status:<status>] [priority:<priority>] [tags:<a,b>] [deadline:<date>] [--id]"},
		"board":  {0, 1, "[--id]"},
	},
	"view": {
		"mode":  {0, 1, "[map|board|notes|snapshot]"},
		"zoom":  {0, 1, "[level|in|out]"},
		"pan":   {0, 2, "[x y]"},
		"reset": {0, 0, ""},
	},
	"snapshot": {
		"add":     {0, unbounded, "[title]"},
		"list":    {0, 0, ""},
		"restore": {1, 1, "<snapshot id>"},
		"delete":  {1, 1, "<snapshot id>"},
	},
	"system": {
		"exit":   {0, 0, ""},
		"quit":   {0, 0, ""},
		"status": {0, 0, ""},
	},
}

// SessionCommand wraps the model.Command and adds session-specific functionality
type SessionCommand struct {
	model.Command
	logger *log.Logger
}

// NewSessionCommand creates a new SessionCommand from a model.Command
func NewSessionCommand(cmd model.Command, logger *log.Logger) SessionCommand {
	return SessionCommand{Command: cmd, logger: logger}
}

// Validate checks if the command is valid
func (c *SessionCommand) Validate() error {
	ctx := context.Background()
	c.logger.Debug(ctx, "Validating command", log.Fields{"scope": c.Scope, "operation": c.Operation})

	if c.Scope == "" {
		c.logger.Error(ctx, "Command scope is empty", nil)
		return errors.New("command scope is required")
	}
	if c.Operation == "" {
		c.logger.Error(ctx, "Command operation is empty", nil)
		return errors.New("command operation is required")
	}

	ops, ok := commandSpecs[c.Scope]
	if !ok {
		c.logger.Error(ctx, "Invalid command scope", log.Fields{"scope": c.Scope})
		return fmt.Errorf("invalid command scope: %s", c.Scope)
	}
	spec, ok := ops[c.Operation]
	if !ok {
		c.logger.Error(ctx, "Invalid command operation", log.Fields{"scope": c.Scope, "operation": c.Operation})
		return fmt.Errorf("invalid %s operation: %s", c.Scope, c.Operation)
	}

	n := len(c.Args)
	if n < spec.min || (spec.max != unbounded && n > spec.max) {
		c.logger.Error(ctx, "Invalid number of arguments", log.Fields{"scope": c.Scope, "operation": c.Operation, "argCount": n})
		return c.usageError(spec)
	}
	return nil
}

func (c *SessionCommand) usageError(spec argSpec) error {
	switch {
	case spec.max == 0:
		return fmt.Errorf("%s %s command does not accept any arguments", c.Scope, c.Operation)
	case spec.min == spec.max:
		return fmt.Errorf("%s %s command requires %d argument(s): %s", c.Scope, c.Operation, spec.min, spec.usage)
	case spec.max == unbounded:
		return fmt.Errorf("%s %s command requires at least %d argument(s): %s", c.Scope, c.Operation, spec.min, spec.usage)
	default:
		return fmt.Errorf("%s %s command accepts %d to %d arguments: %s", c.Scope, c.Operation, spec.min, spec.max, spec.usage)
	}
}

// Usage returns the argument synopsis of a command, or "" if it is unknown.
func Usage(scope, operation string) string {
	spec, ok := commandSpecs[scope][operation]
	if !ok {
		return ""
	}
	return spec.usage
}
