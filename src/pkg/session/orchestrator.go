package session

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"aetherflow/local-app/src/pkg/ai"
	"aetherflow/local-app/src/pkg/data"
	"aetherflow/local-app/src/pkg/geometry"
	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

const (
	RootColor       = "#8B5CF6"
	RootDescription = "Root idea for this mind map"
	ChatErrorReply  = "Sorry, I encountered an error. Please try again."
)

// Palette holds the colours assigned to new child nodes.
var Palette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4", "#FFEAA7",
	"#DDA0DD", "#98D8C8", "#F7DC6F", "#BB8FCE", "#85C1E9",
}

var (
	ErrNoMap           = errors.New("no map open")
	ErrNodeNotFound    = errors.New("node not found")
	ErrRequestInFlight = errors.New("request already in progress for this node")
	ErrEmptyTitle      = errors.New("title is required")
	ErrEmptyMessage    = errors.New("message is required")
)

type operation string

const (
	opExpand operation = "expand"
	opChat   operation = "chat"
)

type flightKey struct {
	op     operation
	nodeID string
}

// Orchestrator runs AI requests against a node store. The store is read
// before the call and mutated only after it completes, and at most one
// request per operation and node is in flight at a time.
type Orchestrator struct {
	store  *data.NodeStore
	client *ai.Client
	logger *log.Logger

	mu       sync.Mutex
	inFlight map[flightKey]struct{}

	color func() string
	newID func() string
	now   func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithColorPicker replaces the random palette colour picker.
func WithColorPicker(pick func() string) OrchestratorOption {
	return func(o *Orchestrator) { o.color = pick }
}

// WithMapIDGenerator replaces the uuid generator used for new maps.
func WithMapIDGenerator(newID func() string) OrchestratorOption {
	return func(o *Orchestrator) { o.newID = newID }
}

// WithOrchestratorClock replaces the time source used for map timestamps.
func WithOrchestratorClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an Orchestrator. A nil client behaves as a client
// without a backend.
func NewOrchestrator(store *data.NodeStore, client *ai.Client, logger *log.Logger, opts ...OrchestratorOption) *Orchestrator {
	if client == nil {
		client = ai.NewClient(nil, ai.WithLogger(logger))
	}
	o := &Orchestrator{
		store:    store,
		client:   client,
		logger:   logger,
		inFlight: make(map[flightKey]struct{}),
		color:    randomColor,
		newID:    uuid.NewString,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func randomColor() string {
	return Palette[rand.Intn(len(Palette))]
}

// Store returns the node store the orchestrator mutates.
func (o *Orchestrator) Store() *data.NodeStore {
	return o.store
}

// AIAvailable reports whether the AI client has a backend.
func (o *Orchestrator) AIAvailable() bool {
	return o.client.Available()
}

// InFlight reports whether an expansion or chat request is pending for a node.
func (o *Orchestrator) InFlight(nodeID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, expanding := o.inFlight[flightKey{opExpand, nodeID}]
	_, chatting := o.inFlight[flightKey{opChat, nodeID}]
	return expanding || chatting
}

func (o *Orchestrator) acquire(op operation, nodeID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := flightKey{op, nodeID}
	if _, busy := o.inFlight[key]; busy {
		return false
	}
	o.inFlight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(op operation, nodeID string) {
	o.mu.Lock()
	delete(o.inFlight, flightKey{op, nodeID})
	o.mu.Unlock()
}

// NewMap resets the store and starts a map whose root node is the seed idea.
func (o *Orchestrator) NewMap(seed string) (*model.Map, model.Node, error) {
	ctx := context.Background()
	seed = model.Truncate(strings.TrimSpace(seed), model.MaxTitleLength)
	if seed == "" {
		return nil, model.Node{}, ErrEmptyTitle
	}

	o.store.Reset()

	now := o.now().UTC()
	m := &model.Map{
		ID:          o.newID(),
		Title:       seed,
		Description: fmt.Sprintf("Mind map started with: %s", seed),
		Slug:        data.GenerateSlug(seed),
		Created:     now,
		Updated:     now,
	}
	o.store.SetCurrentMap(m)

	root := o.store.AddNode(model.NodeInfo{
		MapID:       m.ID,
		Type:        model.NodeTypeIdea,
		Title:       seed,
		Description: RootDescription,
		Position:    geometry.Point{},
		Metadata: model.NodeMetadata{
			Color: RootColor,
			Size:  model.SizeLarge,
		},
	})

	o.logger.Info(ctx, "Map created", log.Fields{"mapID": m.ID, "rootID": root.ID})
	return m, root, nil
}

// ExpandNode asks the AI client for children of a node and adds them. When
// the node is deleted while the request is pending the result is dropped and
// nil is returned.
func (o *Orchestrator) ExpandNode(ctx context.Context, nodeID string) ([]model.Node, error) {
	node, ok := o.store.Node(nodeID)
	if !ok {
		return nil, ErrNodeNotFound
	}
	if !o.acquire(opExpand, nodeID) {
		o.logger.Warn(ctx, "Expansion already in progress", log.Fields{"nodeID": nodeID})
		return nil, ErrRequestInFlight
	}
	defer o.release(opExpand, nodeID)

	suggestions, err := o.client.Expand(ctx, node.Title, node.Description)
	if err != nil {
		o.logger.Error(ctx, "Failed to expand node", log.Fields{"nodeID": nodeID, "error": err})
		return nil, fmt.Errorf("failed to expand node: %w", err)
	}

	drafts := make([]model.NodeInfo, 0, len(suggestions))
	for _, s := range suggestions {
		drafts = append(drafts, model.NodeInfo{
			Type:        s.Type,
			Title:       s.Title,
			Description: s.Description,
			Metadata: model.NodeMetadata{
				Color:       o.color(),
				Size:        model.SizeMedium,
				AIGenerated: true,
				Category:    s.Category,
			},
		})
	}

	children := o.store.ExpandNode(nodeID, drafts)
	o.logger.Info(ctx, "Expansion applied", log.Fields{"nodeID": nodeID, "children": len(children)})
	return children, nil
}

// AddChild creates a node under parentID without involving the AI client.
func (o *Orchestrator) AddChild(parentID string, nodeType model.NodeType, title, description string) (model.Node, error) {
	ctx := context.Background()
	title = strings.TrimSpace(title)
	if title == "" {
		return model.Node{}, ErrEmptyTitle
	}
	parent, ok := o.store.Node(parentID)
	if !ok {
		return model.Node{}, ErrNodeNotFound
	}
	if _, known := model.ParseNodeType(string(nodeType)); !known {
		nodeType = model.NodeTypeIdea
	}

	siblings := len(o.store.Children(parentID))
	mapID := parent.MapID
	if m := o.store.CurrentMap(); m != nil && mapID == "" {
		mapID = m.ID
	}

	node := o.store.AddNode(model.NodeInfo{
		MapID:       mapID,
		ParentID:    parent.ID,
		Type:        nodeType,
		Title:       title,
		Description: strings.TrimSpace(description),
		Position:    geometry.ManualChild(parent.Position, siblings),
		Metadata: model.NodeMetadata{
			Color: o.color(),
			Size:  model.SizeMedium,
		},
	})

	o.logger.Info(ctx, "Child node added", log.Fields{"parentID": parentID, "nodeID": node.ID})
	return node, nil
}

// Chat appends the user's message to a node's transcript, asks the AI client
// for a reply and appends it. A failed reply is recorded as an apology and
// the error is returned alongside it.
func (o *Orchestrator) Chat(ctx context.Context, nodeID, message string) (model.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}
	node, ok := o.store.Node(nodeID)
	if !ok {
		return model.ChatMessage{}, ErrNodeNotFound
	}
	if !o.acquire(opChat, nodeID) {
		return model.ChatMessage{}, ErrRequestInFlight
	}
	defer o.release(opChat, nodeID)

	userMsg, ok := o.store.AddChatMessage(nodeID, model.ChatMessage{Role: model.RoleUser, Content: message})
	if !ok {
		return model.ChatMessage{}, ErrNodeNotFound
	}

	history := make([]ai.Turn, 0, len(node.Metadata.ChatHistory)+1)
	for _, m := range node.Metadata.ChatHistory {
		history = append(history, ai.Turn{Role: string(m.Role), Content: m.Content})
	}
	history = append(history, ai.Turn{Role: string(userMsg.Role), Content: userMsg.Content})

	reply, chatErr := o.client.Chat(ctx, node.Title, history, message)
	if chatErr != nil {
		o.logger.Error(ctx, "Failed to get chat reply", log.Fields{"nodeID": nodeID, "error": chatErr})
		reply = ChatErrorReply
		chatErr = fmt.Errorf("failed to chat with node: %w", chatErr)
	}

	assistant, ok := o.store.AddChatMessage(nodeID, model.ChatMessage{Role: model.RoleAssistant, Content: reply})
	if !ok {
		o.logger.Warn(ctx, "Chat target deleted before reply arrived", log.Fields{"nodeID": nodeID})
		if chatErr != nil {
			return model.ChatMessage{}, chatErr
		}
		return model.ChatMessage{}, ErrNodeNotFound
	}
	return assistant, chatErr
}
