package scheduler

import (
	"maps"

	"go.trai.ch/kiln/internal/core/domain"
)

// GetTaskStateMap returns a copy of the internal task state map.
// This is exported for testing purposes only.
func (s *Scheduler) GetTaskStateMap() map[domain.TaskIdentity]domain.TaskState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.taskStates)
}
