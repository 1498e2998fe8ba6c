package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"aetherflow/local-app/src/pkg/log"
	"aetherflow/local-app/src/pkg/model"
)

const sessionIDLength = 32

// ErrManagerClosed is returned by SessionRun after Shutdown.
var ErrManagerClosed = errors.New("session manager is shut down")

// SessionManager manages multiple concurrent sessions and runs their commands
// one at a time.
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	deps     Deps

	commandQueue     chan commandExecution
	done             chan struct{}
	wg               sync.WaitGroup
	shutdownOnce     sync.Once
	autosaveInterval time.Duration
	logger           *log.Logger
}

// commandExecution represents a command to be executed in a session, its result and error
type commandExecution struct {
	session *Session
	command model.Command
	result  chan interface{}
	err     chan error
}

// NewSessionManager starts the command executor and, when autosave is
// positive, a routine that saves every session on that interval.
func NewSessionManager(deps Deps, autosave time.Duration, logger *log.Logger) *SessionManager {
	ctx := context.Background()
	logger.Info(ctx, "Creating new SessionManager", log.Fields{"autosave": autosave.String()})

	sm := &SessionManager{
		sessions:         make(map[string]*Session),
		deps:             deps,
		commandQueue:     make(chan commandExecution),
		done:             make(chan struct{}),
		autosaveInterval: autosave,
		logger:           logger,
	}

	sm.wg.Add(1)
	go sm.commandExecutor()
	if autosave > 0 {
		sm.wg.Add(1)
		go sm.autosaveRoutine()
	}

	logger.Info(ctx, "SessionManager created successfully", nil)
	return sm
}

// SessionAdd creates a new session, restores the saved map into it and
// returns its ID
func (sm *SessionManager) SessionAdd() (string, error) {
	ctx := context.Background()
	sm.logger.Info(ctx, "Adding new session", nil)

	sessionID, err := generateSessionID()
	if err != nil {
		sm.logger.Error(ctx, "Failed to generate session ID", log.Fields{"error": err})
		return "", fmt.Errorf("failed to generate session ID: %w", err)
	}

	s := NewSession(sessionID, sm.deps, sm.logger)
	s.Load(ctx)

	sm.mu.Lock()
	sm.sessions[sessionID] = s
	sm.mu.Unlock()

	sm.logger.Info(ctx, "New session added", log.Fields{"sessionID": sessionID})
	return sessionID, nil
}

// SessionGet retrieves a session by its ID
func (sm *SessionManager) SessionGet(sessionID string) (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	s, exists := sm.sessions[sessionID]
	if !exists {
		sm.logger.Warn(context.Background(), "Session not found", log.Fields{"sessionID": sessionID})
	}
	return s, exists
}

// SessionDelete saves and removes a session
func (sm *SessionManager) SessionDelete(sessionID string) {
	ctx := context.Background()
	sm.logger.Info(ctx, "Deleting session", log.Fields{"sessionID": sessionID})

	sm.mu.Lock()
	s, exists := sm.sessions[sessionID]
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()

	if !exists {
		sm.logger.Warn(ctx, "Attempted to delete non-existent session", log.Fields{"sessionID": sessionID})
		return
	}
	if err := s.Save(ctx); err != nil {
		sm.logger.Error(ctx, "Failed to save session on delete", log.Fields{"sessionID": sessionID, "error": err})
	}
}

// SessionRun executes a command for a specific session
func (sm *SessionManager) SessionRun(sessionID string, cmd model.Command) (interface{}, error) {
	ctx := context.Background()

	s, exists := sm.SessionGet(sessionID)
	if !exists {
		return nil, errors.New("session not found")
	}

	sm.logger.Command(ctx, "Command received", log.Fields{
		"sessionID": sessionID,
		"scope":     cmd.Scope,
		"operation": cmd.Operation,
		"args":      cmd.Args,
	})

	exec := commandExecution{
		session: s,
		command: cmd,
		result:  make(chan interface{}, 1),
		err:     make(chan error, 1),
	}
	select {
	case sm.commandQueue <- exec:
	case <-sm.done:
		return nil, ErrManagerClosed
	}

	select {
	case res := <-exec.result:
		return res, nil
	case e := <-exec.err:
		return nil, e
	}
}

// commandExecutor processes commands from the queue
func (sm *SessionManager) commandExecutor() {
	defer sm.wg.Done()
	ctx := context.Background()
	sm.logger.Debug(ctx, "Starting command executor", nil)

	for {
		select {
		case cmd := <-sm.commandQueue:
			result, err := cmd.session.CommandRun(cmd.command)
			if err != nil {
				cmd.err <- err
			} else {
				cmd.result <- result
			}
		case <-sm.done:
			sm.logger.Debug(ctx, "Stopping command executor", nil)
			return
		}
	}
}

func (sm *SessionManager) autosaveRoutine() {
	defer sm.wg.Done()
	ctx := context.Background()
	ticker := time.NewTicker(sm.autosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := sm.SaveDirty(ctx); err != nil {
				sm.logger.Error(ctx, "Autosave failed", log.Fields{"error": err})
			}
		case <-sm.done:
			return
		}
	}
}

// SaveAll saves every session concurrently and returns the first error.
func (sm *SessionManager) SaveAll(ctx context.Context) error {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			if err := s.Save(gctx); err != nil {
				return fmt.Errorf("failed to save session %s: %w", s.ID, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// SaveDirty saves the sessions whose store changed since their last save.
func (sm *SessionManager) SaveDirty(ctx context.Context) error {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, s := range sessions {
		g.Go(func() error {
			saved, err := s.SaveIfDirty(gctx)
			if err != nil {
				return fmt.Errorf("failed to save session %s: %w", s.ID, err)
			}
			if saved {
				sm.logger.Debug(gctx, "Session autosaved", log.Fields{"sessionID": s.ID})
			}
			return nil
		})
	}
	return g.Wait()
}

// Shutdown stops the background routines and saves every session. It is
// safe to call more than once.
func (sm *SessionManager) Shutdown(ctx context.Context) error {
	var err error
	sm.shutdownOnce.Do(func() {
		sm.logger.Info(ctx, "Shutting down SessionManager", nil)
		close(sm.done)
		sm.wg.Wait()
		err = sm.SaveAll(ctx)
	})
	return err
}

// generateSessionID creates a cryptographically secure random session ID
func generateSessionID() (string, error) {
	b := make([]byte, sessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
