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

var updateIncidentLogger = logrus.WithField("tool", "update_incident")

type UpdateIncidentTool struct {
	coordinator *core.Coordinator
	session     string
}

func NewUpdateIncidentTool(coordinator *core.Coordinator, session string) *UpdateIncidentTool {
	updateIncidentLogger.Debug("Initializing update_incident tool")
	return &UpdateIncidentTool{coordinator: coordinator, session: session}
}

func (t *UpdateIncidentTool) Description() string {
	return `Update an existing incident: change its status, add work log notes, or provide a resolution. Status values: New, Assigned, In Progress, Pending, Resolved, Closed. Input: JSON object {"incidentId": "INC000000001", "status": "...", "workLogNotes": "...", "resolution": "..."} — incidentId plus at least one other field.`
}

func (t *UpdateIncidentTool) Name() string {
	return "update_incident"
}

type updateInput struct {
	IncidentID   string `json:"incidentId"`
	Status       string `json:"status"`
	WorkLogNotes string `json:"workLogNotes"`
	Resolution   string `json:"resolution"`
}

func (t *UpdateIncidentTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := updateIncidentLogger.WithField("session", t.session)
	toolLogger.Info("Incident update tool called")
	startTime := time.Now()

	var req updateInput
	if err := json.Unmarshal([]byte(strings.TrimSpace(input)), &req); err != nil {
		toolLogger.WithError(err).Warn("Invalid update input")
		return `**Error:** Invalid input. Provide a JSON object like {"incidentId": "INC000000001", "status": "Resolved"}.`, nil
	}
	if strings.TrimSpace(req.IncidentID) == "" {
		return "**Error:** An incident number is required.", nil
	}
	if req.Status == "" && req.WorkLogNotes == "" && req.Resolution == "" {
		return "**Error:** No updates specified. Please provide status, workLogNotes, or resolution.", nil
	}

	result, err := t.coordinator.StageUpdate(ctx, req.IncidentID, core.UpdateRequest{
		Status:       req.Status,
		WorkLogNotes: req.WorkLogNotes,
		Resolution:   req.Resolution,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Incident update staging failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"status":        result.Status,
		"incident":      req.IncidentID,
		"executionTime": time.Since(startTime),
	}).Info("Incident update staging completed")

	return core.FormatUpdateResult(strings.ToUpper(strings.TrimSpace(req.IncidentID)), result), nil
}

var _ tools.Tool = (*UpdateIncidentTool)(nil)
