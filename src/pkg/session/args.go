package session

import (
	"fmt"
	"strings"
	"time"

	"aetherflow/local-app/src/pkg/model"
)

var fieldLabels = map[string]string{
	"title":       "title",
	"description": "description",
	"desc":        "description",
	"type":        "type",
	"color":       "color",
	"status":      "status",
	"priority":    "priority",
	"tags":        "tags",
	"deadline":    "deadline",
}

// commandArgs splits raw arguments into positional values, labelled fields
// and the --id flag. Only known labels are treated as fields so free text
// containing a colon stays positional.
type commandArgs struct {
	positional []string
	fields     map[string]string
	useID      bool
}

func parseArgs(args []string) commandArgs {
	ca := commandArgs{fields: make(map[string]string)}
	for _, arg := range args {
		if arg == "--id" {
			ca.useID = true
			continue
		}
		if label, value, ok := strings.Cut(arg, ":"); ok {
			if name, known := fieldLabels[strings.ToLower(label)]; known {
				ca.fields[name] = value
				continue
			}
		}
		ca.positional = append(ca.positional, arg)
	}
	return ca
}

// stripIDFlag removes --id from args and reports whether it was present.
func stripIDFlag(args []string) ([]string, bool) {
	out := make([]string, 0, len(args))
	useID := false
	for _, arg := range args {
		if arg == "--id" {
			useID = true
			continue
		}
		out = append(out, arg)
	}
	return out, useID
}

// resolveNode maps an index such as "1.2", or a node id when useID is set,
// to a node of the session's store.
func resolveNode(s *Session, identifier string, useID bool) (model.Node, error) {
	id := identifier
	if !useID {
		resolved, ok := s.Store.ResolveIndex(identifier)
		if !ok {
			return model.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, identifier)
		}
		id = resolved
	}
	node, ok := s.Store.Node(id)
	if !ok {
		return model.Node{}, fmt.Errorf("%w: %s", ErrNodeNotFound, identifier)
	}
	return node, nil
}

// taskOverrides converts labelled fields into task overrides.
func taskOverrides(fields map[string]string) (*model.TaskOverrides, error) {
	o := &model.TaskOverrides{}
	if v, ok := fields["status"]; ok {
		status, known := model.ParseTaskStatus(strings.ToLower(v))
		if !known {
			return nil, fmt.Errorf("invalid task status: %s", v)
		}
		o.Status = &status
	}
	if v, ok := fields["priority"]; ok {
		priority, known := model.ParseTaskPriority(strings.ToLower(v))
		if !known {
			return nil, fmt.Errorf("invalid task priority: %s", v)
		}
		o.Priority = &priority
	}
	if v, ok := fields["tags"]; ok {
		o.Tags = []string{}
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				o.Tags = append(o.Tags, tag)
			}
		}
	}
	if v, ok := fields["deadline"]; ok {
		deadline, err := parseDeadline(v)
		if err != nil {
			return nil, err
		}
		o.Deadline = &deadline
	}
	return o, nil
}

func parseDeadline(v string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid deadline: %s", v)
}
