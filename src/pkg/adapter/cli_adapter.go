package adapter

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

// CLIAdapterType names the CLI adapter factory.
const CLIAdapterType = "cli"

// CLIAdapter turns input lines into commands for its sessions
type CLIAdapter struct {
	sessions       map[string]bool
	sessionMutex   sync.RWMutex
	adapterManager *AdapterManager
	logger         *log.Logger
}

// NewCLIAdapter creates a new instance of CLIAdapter
func NewCLIAdapter(am *AdapterManager, logger *log.Logger) (*CLIAdapter, error) {
	logger.Info(context.Background(), "Creating new CLI adapter", nil)
	return &CLIAdapter{
		sessions:       make(map[string]bool),
		adapterManager: am,
		logger:         logger,
	}, nil
}

// AdapterStart implements AdapterInstance
func (a *CLIAdapter) AdapterStart() error {
	a.logger.Info(context.Background(), "CLI adapter started", nil)
	return nil
}

// AdapterStop forgets every session of the adapter
func (a *CLIAdapter) AdapterStop() error {
	a.sessionMutex.Lock()
	a.sessions = make(map[string]bool)
	a.sessionMutex.Unlock()
	a.logger.Info(context.Background(), "CLI adapter stopped", nil)
	return nil
}

// GetType implements AdapterInstance
func (a *CLIAdapter) GetType() string {
	return CLIAdapterType
}

// SessionAdd adds a new cli session
func (a *CLIAdapter) SessionAdd() (string, error) {
	sessionID, err := a.adapterManager.SessionAdd(a)
	if err != nil {
		return "", err
	}
	a.sessionMutex.Lock()
	a.sessions[sessionID] = true
	a.sessionMutex.Unlock()

	a.logger.Info(context.Background(), "New CLI session added", log.Fields{"sessionID": sessionID})
	return sessionID, nil
}

// SessionDelete deletes a cli session
func (a *CLIAdapter) SessionDelete(sessionID string) {
	a.sessionMutex.Lock()
	delete(a.sessions, sessionID)
	a.sessionMutex.Unlock()
	a.adapterManager.SessionDelete(sessionID)
	a.logger.Info(context.Background(), "CLI session removed", log.Fields{"sessionID": sessionID})
}

// ProcessInput converts the input string into a command and runs it
func (a *CLIAdapter) ProcessInput(sessionID string, input string) (interface{}, error) {
	cmd, err := ParseCommand(input)
	if err != nil {
		return nil, err
	}
	a.logger.Debug(context.Background(), "Command parsed", log.Fields{"command": cmd})
	return a.adapterManager.CommandRun(sessionID, cmd)
}

// ParseCommand splits a line into scope, operation and arguments. Double or
// single quotes group words into one argument.
func ParseCommand(input string) (model.Command, error) {
	args, err := splitArgs(input)
	if err != nil {
		return model.Command{}, err
	}
	if len(args) == 0 {
		return model.Command{}, errors.New("empty command")
	}

	cmd := model.Command{Scope: strings.ToLower(args[0]), Args: []string{}}
	if len(args) > 1 {
		cmd.Operation = strings.ToLower(args[1])
		cmd.Args = args[2:]
	}
	return cmd, nil
}

func splitArgs(input string) ([]string, error) {
	var args []string
	var current strings.Builder
	var quote rune
	inArg := false

	for _, r := range input {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				current.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, current.String())
				current.Reset()
				inArg = false
			}
		default:
			current.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated quote in: %s", input)
	}
	if inArg {
		args = append(args, current.String())
	}
	return args, nil
}

// PromptGet gets the current prompt of the session
func (a *CLIAdapter) PromptGet(sessionID string) string {
	s, exists := a.adapterManager.SessionGet(sessionID)
	if !exists {
		return "> "
	}
	m := s.Store.CurrentMap()
	if m == nil {
		return "> "
	}
	if selected := s.Store.SelectedNode(); selected != "" {
		if index, ok := s.Store.IndexOf(selected); ok {
			return fmt.Sprintf("%s [%s] > ", m.Title, index)
		}
	}
	return fmt.Sprintf("%s > ", m.Title)
}
