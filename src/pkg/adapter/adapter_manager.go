// Package adapter connects front ends such as the CLI to the session manager.
package adapter

import (
	"context"
	"fmt"
	"sync"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
	"aetherflow/local-app/src/pkg/session"
)

// AdapterInstance represents an instance of an adapter
type AdapterInstance interface {
	// AdapterStart prepares the adapter for input
	AdapterStart() error

	// AdapterStop terminates the adapter instance
	AdapterStop() error

	// GetType returns the type of the adapter
	GetType() string
}

// AdapterFactory creates new instances of adapters
type AdapterFactory func(am *AdapterManager) (AdapterInstance, error)

// AdapterManager manages all adapter instances and their sessions
type AdapterManager struct {
	mu             sync.RWMutex
	factories      map[string]AdapterFactory
	instances      map[string]AdapterInstance // by session id
	sessionManager *session.SessionManager
	logger         *log.Logger
}

// NewAdapterManager creates a new AdapterManager with the CLI factory registered
func NewAdapterManager(sm *session.SessionManager, logger *log.Logger) (*AdapterManager, error) {
	am := &AdapterManager{
		factories:      make(map[string]AdapterFactory),
		instances:      make(map[string]AdapterInstance),
		sessionManager: sm,
		logger:         logger,
	}
	am.FactoryRegister(CLIAdapterType, func(am *AdapterManager) (AdapterInstance, error) {
		return NewCLIAdapter(am, am.logger)
	})
	return am, nil
}

// FactoryRegister makes an adapter type available to AdapterAdd
func (am *AdapterManager) FactoryRegister(adapterType string, factory AdapterFactory) {
	am.mu.Lock()
	am.factories[adapterType] = factory
	am.mu.Unlock()
}

// AdapterAdd creates a new adapter instance of the given type
func (am *AdapterManager) AdapterAdd(adapterType string) (AdapterInstance, error) {
	am.mu.RLock()
	factory, ok := am.factories[adapterType]
	am.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown adapter type: %s", adapterType)
	}

	instance, err := factory(am)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s adapter: %w", adapterType, err)
	}
	am.logger.Info(context.Background(), "Adapter created", log.Fields{"type": adapterType})
	return instance, nil
}

// SessionAdd creates a session owned by instance
func (am *AdapterManager) SessionAdd(instance AdapterInstance) (string, error) {
	sessionID, err := am.sessionManager.SessionAdd()
	if err != nil {
		return "", fmt.Errorf("failed to add session: %w", err)
	}
	am.mu.Lock()
	am.instances[sessionID] = instance
	am.mu.Unlock()
	return sessionID, nil
}

// SessionGet returns a session by id
func (am *AdapterManager) SessionGet(sessionID string) (*session.Session, bool) {
	return am.sessionManager.SessionGet(sessionID)
}

// SessionDelete removes a session and forgets its owner
func (am *AdapterManager) SessionDelete(sessionID string) {
	am.mu.Lock()
	delete(am.instances, sessionID)
	am.mu.Unlock()
	am.sessionManager.SessionDelete(sessionID)
}

// CommandRun runs a command within a session
func (am *AdapterManager) CommandRun(sessionID string, cmd model.Command) (interface{}, error) {
	am.mu.RLock()
	_, ok := am.instances[sessionID]
	am.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no adapter instance found for session: %s", sessionID)
	}
	return am.sessionManager.SessionRun(sessionID, cmd)
}

// Shutdown stops every adapter instance and removes its sessions
func (am *AdapterManager) Shutdown() {
	am.mu.Lock()
	instances := am.instances
	am.instances = make(map[string]AdapterInstance)
	am.mu.Unlock()

	stopped := make(map[AdapterInstance]bool)
	for sessionID, instance := range instances {
		if !stopped[instance] {
			if err := instance.AdapterStop(); err != nil {
				am.logger.Error(context.Background(), "Failed to stop adapter", log.Fields{"type": instance.GetType(), "error": err})
			}
			stopped[instance] = true
		}
		am.sessionManager.SessionDelete(sessionID)
	}
}
