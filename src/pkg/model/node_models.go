package model

import (
	"time"

	"aetherflow/local-app/src/pkg/geometry"
)

// Display bounds for node and map text, in runes.
const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 300
)

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// NodeType classifies a node.
type NodeType string

const (
	NodeTypeIdea NodeType = "idea"
	NodeTypeTask NodeType = "task"
	NodeTypeNote NodeType = "note"
)

// ParseNodeType returns the NodeType named by s and whether it is known.
func ParseNodeType(s string) (NodeType, bool) {
	switch NodeType(s) {
	case NodeTypeIdea, NodeTypeTask, NodeTypeNote:
		return NodeType(s), true
	default:
		return "", false
	}
}

// SizeClass is the display size hint of a node.
type SizeClass string

const (
	SizeSmall  SizeClass = "small"
	SizeMedium SizeClass = "medium"
	SizeLarge  SizeClass = "large"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one immutable turn in a node's conversation.
type ChatMessage struct {
	ID        string    `json:"id" xml:"id,attr" yaml:"id"`
	Role      ChatRole  `json:"role" xml:"role,attr" yaml:"role"`
	Content   string    `json:"content" xml:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" xml:"timestamp,attr" yaml:"timestamp"`
}

// NodeMetadata holds display hints, lifecycle flags and the chat transcript.
type NodeMetadata struct {
	Color       string        `json:"color,omitempty" xml:"color,attr,omitempty" yaml:"color,omitempty"`
	Size        SizeClass     `json:"size,omitempty" xml:"size,attr,omitempty" yaml:"size,omitempty"`
	Icon        string        `json:"icon,omitempty" xml:"icon,attr,omitempty" yaml:"icon,omitempty"`
	Expanded    bool          `json:"expanded" xml:"expanded,attr" yaml:"expanded"`
	AIGenerated bool          `json:"aiGenerated" xml:"ai_generated,attr" yaml:"ai_generated"`
	Category    string        `json:"category,omitempty" xml:"category,attr,omitempty" yaml:"category,omitempty"`
	ChatHistory []ChatMessage `json:"chatHistory,omitempty" xml:"chat>message,omitempty" yaml:"chat_history,omitempty"`
}

// Clone returns a copy that shares no slices with m.
func (m NodeMetadata) Clone() NodeMetadata {
	if m.ChatHistory != nil {
		m.ChatHistory = append([]ChatMessage(nil), m.ChatHistory...)
	}
	return m
}

// TaskStatus is the board column of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// ParseTaskStatus returns the TaskStatus named by s and whether it is known.
func ParseTaskStatus(s string) (TaskStatus, bool) {
	switch TaskStatus(s) {
	case TaskTodo, TaskInProgress, TaskDone:
		return TaskStatus(s), true
	default:
		return "", false
	}
}

// TaskPriority ranks tasks.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// ParseTaskPriority returns the TaskPriority named by s and whether it is known.
func ParseTaskPriority(s string) (TaskPriority, bool) {
	switch TaskPriority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return TaskPriority(s), true
	default:
		return "", false
	}
}

// Task is attached to a node once it has been taskified.
type Task struct {
	ID       string       `json:"id" xml:"id,attr" yaml:"id"`
	NodeID   string       `json:"node_id" xml:"node_id,attr" yaml:"node_id"`
	Status   TaskStatus   `json:"status" xml:"status,attr" yaml:"status"`
	Priority TaskPriority `json:"priority" xml:"priority,attr" yaml:"priority"`
	Tags     []string     `json:"tags" xml:"tags>tag,omitempty" yaml:"tags"`
	Deadline *time.Time   `json:"deadline" xml:"deadline,attr,omitempty" yaml:"deadline"`
	Created  time.Time    `json:"created_at" xml:"created,attr" yaml:"created_at"`
	Updated  time.Time    `json:"updated_at" xml:"updated,attr" yaml:"updated_at"`
}

// Clone returns a deep copy of t.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	c.Tags = append([]string{}, t.Tags...)
	if t.Deadline != nil {
		d := *t.Deadline
		c.Deadline = &d
	}
	return &c
}

// TaskOverrides replaces the taskify defaults for the fields that are set.
type TaskOverrides struct {
	Status   *TaskStatus
	Priority *TaskPriority
	Tags     []string
	Deadline *time.Time
}

// Node represents a single element of a map.
type Node struct {
	ID          string         `json:"id" xml:"id,attr" yaml:"id"`
	MapID       string         `json:"map_id" xml:"map_id,attr" yaml:"map_id"`
	ParentID    string         `json:"parent_id,omitempty" xml:"parent_id,attr,omitempty" yaml:"parent_id,omitempty"`
	Type        NodeType       `json:"type" xml:"type,attr" yaml:"type"`
	Title       string         `json:"title" xml:"title" yaml:"title"`
	Description string         `json:"description,omitempty" xml:"description,omitempty" yaml:"description,omitempty"`
	Position    geometry.Point `json:"position" xml:"position" yaml:"position"`
	Metadata    NodeMetadata   `json:"metadata" xml:"metadata" yaml:"metadata"`
	Task        *Task          `json:"task,omitempty" xml:"task,omitempty" yaml:"task,omitempty"`
	Created     time.Time      `json:"created_at" xml:"created,attr" yaml:"created_at"`
	Updated     time.Time      `json:"updated_at" xml:"updated,attr" yaml:"updated_at"`
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == ""
}

// Clone returns a deep copy of n.
func (n Node) Clone() Node {
	n.Metadata = n.Metadata.Clone()
	n.Task = n.Task.Clone()
	return n
}

// NodeInfo contains the caller-supplied fields of a node, used both as a
// creation draft and as the source of a partial update.
type NodeInfo struct {
	MapID       string
	ParentID    string
	Type        NodeType
	Title       string
	Description string
	Position    geometry.Point
	Metadata    NodeMetadata
	Task        *Task
}

// NodeFilter marks which NodeInfo fields an update applies.
type NodeFilter struct {
	Type        bool
	Title       bool
	Description bool
	Position    bool
	Metadata    bool
	Task        bool
}
