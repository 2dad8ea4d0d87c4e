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

var getIncidentLogger = logrus.WithField("tool", "get_incident")

type GetIncidentTool struct {
	client  *core.Client
	session string
}

func NewGetIncidentTool(client *core.Client, session string) *GetIncidentTool {
	getIncidentLogger.Debug("Initializing get_incident tool")
	return &GetIncidentTool{client: client, session: session}
}

func (t *GetIncidentTool) Description() string {
	return "Get full details of a specific incident including description, status, work logs, and resolution. Input: the incident number (e.g. INC000000001)."
}

func (t *GetIncidentTool) Name() string {
	return "get_incident"
}

func (t *GetIncidentTool) Call(ctx context.Context, input string) (string, error) {
	incidentID := strings.ToUpper(strings.TrimSpace(input))
	toolLogger := getIncidentLogger.WithField("incident", incidentID)
	toolLogger.Info("Incident detail tool called")
	startTime := time.Now()

	if incidentID == "" {
		return "**Error:** An incident number is required.", nil
	}

	detail, err := t.client.GetIncident(ctx, incidentID, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Incident fetch failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	if !detail.IsFound() {
		toolLogger.Info("Incident not found")
		return fmt.Sprintf("**Incident %s not found.**", incidentID), nil
	}

	toolLogger.WithField("executionTime", time.Since(startTime)).Info("Incident detail fetched")
	return core.FormatIncidentDetail(detail), nil
}

var _ tools.Tool = (*GetIncidentTool)(nil)
