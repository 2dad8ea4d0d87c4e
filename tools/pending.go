package tools

import (
	"context"
	"fmt"
	"time"

	"deskagent/core"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

var pendingLogger = logrus.WithField("tool", "list_pending_actions")

type ListPendingActionsTool struct {
	coordinator *core.Coordinator
	session     string
}

func NewListPendingActionsTool(coordinator *core.Coordinator, session string) *ListPendingActionsTool {
	pendingLogger.Debug("Initializing list_pending_actions tool")
	return &ListPendingActionsTool{coordinator: coordinator, session: session}
}

func (t *ListPendingActionsTool) Description() string {
	return "List all staged actions awaiting confirmation in the current session. Input: none required, any text is ignored."
}

func (t *ListPendingActionsTool) Name() string {
	return "list_pending_actions"
}

func (t *ListPendingActionsTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := pendingLogger.WithField("session", t.session)
	toolLogger.Info("Pending actions tool called")
	startTime := time.Now()

	actions, err := t.coordinator.ListPending(ctx, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Pending action lookup failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"pendingCount":  len(actions),
		"executionTime": time.Since(startTime),
	}).Info("Pending actions listed")

	return core.FormatPendingActions(actions), nil
}

var _ tools.Tool = (*ListPendingActionsTool)(nil)
