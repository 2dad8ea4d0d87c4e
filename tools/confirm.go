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

var confirmLogger = logrus.WithField("tool", "confirm_action")

type ConfirmActionTool struct {
	coordinator *core.Coordinator
	session     string
}

func NewConfirmActionTool(coordinator *core.Coordinator, session string) *ConfirmActionTool {
	confirmLogger.Debug("Initializing confirm_action tool")
	return &ConfirmActionTool{coordinator: coordinator, session: session}
}

func (t *ConfirmActionTool) Description() string {
	return "Confirm a staged action to execute it (e.g. actually create the staged incident). Input: the action ID to confirm."
}

func (t *ConfirmActionTool) Name() string {
	return "confirm_action"
}

func (t *ConfirmActionTool) Call(ctx context.Context, input string) (string, error) {
	actionID := strings.TrimSpace(input)
	toolLogger := confirmLogger.WithFields(logrus.Fields{
		"actionId": actionID,
		"session":  t.session,
	})
	toolLogger.Info("Confirm action tool called")
	startTime := time.Now()

	if actionID == "" {
		return "**Error:** An action ID is required. Use list_pending_actions to find it.", nil
	}

	result, err := t.coordinator.Confirm(ctx, actionID, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Action confirmation failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"status":        result.Status,
		"recordId":      result.RecordID,
		"executionTime": time.Since(startTime),
	}).Info("Action confirmation completed")

	return core.FormatConfirmResult(result), nil
}

var _ tools.Tool = (*ConfirmActionTool)(nil)
