package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"deskagent/core"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

var cancelLogger = logrus.WithField("tool", "cancel_action")

type CancelActionTool struct {
	coordinator *core.Coordinator
	session     string
}

func NewCancelActionTool(coordinator *core.Coordinator, session string) *CancelActionTool {
	cancelLogger.Debug("Initializing cancel_action tool")
	return &CancelActionTool{coordinator: coordinator, session: session}
}

func (t *CancelActionTool) Description() string {
	return "Cancel a staged action without executing it. Input: the action ID to cancel."
}

func (t *CancelActionTool) Name() string {
	return "cancel_action"
}

func (t *CancelActionTool) Call(ctx context.Context, input string) (string, error) {
	actionID := strings.TrimSpace(input)
	toolLogger := cancelLogger.WithFields(logrus.Fields{
		"actionId": actionID,
		"session":  t.session,
	})
	toolLogger.Info("Cancel action tool called")
	startTime := time.Now()

	if actionID == "" {
		return "**Error:** An action ID is required. Use list_pending_actions to find it.", nil
	}

	result, err := t.coordinator.Cancel(ctx, actionID, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Action cancellation failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"status":        result.Status,
		"executionTime": time.Since(startTime),
	}).Info("Action cancellation completed")

	return core.FormatCancelResult(result), nil
}

var _ tools.Tool = (*CancelActionTool)(nil)
