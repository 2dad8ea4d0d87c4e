/*
Execution cancellation (core/cancel.go).

Tracks running agent executions so clients can stop long-running turns.
Each execution registers its context cancel function under a unique ID;
the stop endpoint resolves the ID and cancels the context, which unwinds
the agent run and any in-flight backend calls.
*/
package core

import (
	"context"
	"sync"
)

// CancelManager is a thread-safe registry of active executions and their
// cancel functions.
type CancelManager struct {
	executions map[string]context.CancelFunc
	mutex      sync.RWMutex
}

// NewCancelManager creates an empty cancel manager.
func NewCancelManager() *CancelManager {
	return &CancelManager{
		executions: make(map[string]context.CancelFunc),
	}
}

// AddExecution registers an execution. The cancel function must release
// everything the execution holds; callers pair this with a deferred
// RemoveExecution.
func (cm *CancelManager) AddExecution(executionID string, cancel context.CancelFunc) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	cm.executions[executionID] = cancel
}

// RemoveExecution drops a completed or cancelled execution from tracking.
func (cm *CancelManager) RemoveExecution(executionID string) {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()
	delete(cm.executions, executionID)
}

// CancelExecution cancels a running execution by ID, reporting whether it
// was found.
func (cm *CancelManager) CancelExecution(executionID string) bool {
	cm.mutex.RLock()
	cancel, exists := cm.executions[executionID]
	cm.mutex.RUnlock()

	if !exists {
		return false
	}
	cancel()
	cm.RemoveExecution(executionID)
	return true
}

// ActiveExecutions lists the IDs of all currently running executions.
func (cm *CancelManager) ActiveExecutions() []string {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	executions := make([]string, 0, len(cm.executions))
	for id := range cm.executions {
		executions = append(executions, id)
	}
	return executions
}
