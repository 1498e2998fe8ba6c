package session

import (
	"aetherflow/local-app/src/pkg/model"
)

// handleSystemExit asks the caller to end the session
func handleSystemExit(s *Session, cmd model.Command) (interface{}, error) {
	return nil, ErrExit
}

// handleSystemStatus reports the session's state
func handleSystemStatus(s *Session, cmd model.Command) (interface{}, error) {
	status := &SystemStatus{
		SessionID:   s.ID,
		Nodes:       s.Store.Len(),
		AIAvailable: s.Orchestrator.AIAvailable(),
	}
	if m := s.Store.CurrentMap(); m != nil {
		status.MapTitle = m.Title
	}
	return status, nil
}
