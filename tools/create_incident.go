package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"deskagent/core"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

var createIncidentLogger = logrus.WithField("tool", "create_incident")

type CreateIncidentTool struct {
	coordinator *core.Coordinator
	session     string
}

func NewCreateIncidentTool(coordinator *core.Coordinator, session string) *CreateIncidentTool {
	createIncidentLogger.Debug("Initializing create_incident tool")
	return &CreateIncidentTool{coordinator: coordinator, session: session}
}

func (t *CreateIncidentTool) Description() string {
	return `Create a new incident. The incident is staged for user confirmation before being created. Impact levels: 1=Extensive, 2=Significant, 3=Moderate, 4=Minor. Urgency levels: 1=Critical, 2=High, 3=Medium, 4=Low. Input: JSON object {"summary": "...", "description": "...", "impact": 3, "urgency": 3, "category": "...", "assignedGroup": "..."} — summary and description required, the rest optional.`
}

func (t *CreateIncidentTool) Name() string {
	return "create_incident"
}

// createInput is the JSON the model supplies.
type createInput struct {
	Summary       string `json:"summary"`
	Description   string `json:"description"`
	Impact        int    `json:"impact"`
	Urgency       int    `json:"urgency"`
	Category      string `json:"category"`
	AssignedGroup string `json:"assignedGroup"`
}

func (t *CreateIncidentTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := createIncidentLogger.WithField("session", t.session)
	toolLogger.Info("Incident creation tool called")
	startTime := time.Now()

	var req createInput
	if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &req); err != nil {
		toolLogger.WithError(err).Warn("Invalid creation input")
		return `**Error:** Invalid input. Provide a JSON object like {"summary": "...", "description": "..."}.`, nil
	}
	if strings.TrimSpace(req.Summary) == "" {
		return "**Error:** A summary is required to create an incident.", nil
	}

	result, err := t.coordinator.StageIncident(ctx, core.IncidentRequest{
		Summary:       req.Summary,
		Description:   req.Description,
		Impact:        req.Impact,
		Urgency:       req.Urgency,
		Category:      req.Category,
		AssignedGroup: req.AssignedGroup,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Incident staging failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"status":        result.Status,
		"actionId":      result.Action.ActionID,
		"executionTime": time.Since(startTime),
	}).Info("Incident staging completed")

	return core.FormatStageResult(result), nil
}

var _ tools.Tool = (*CreateIncidentTool)(nil)
