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

var workOrdersLogger = logrus.WithField("tool", "search_workorders")

const workOrdersMinScore = 0.3

type SearchWorkOrdersTool struct {
	client  *core.Client
	config  *core.Config
	session string
}

func NewSearchWorkOrdersTool(client *core.Client, config *core.Config, session string) *SearchWorkOrdersTool {
	workOrdersLogger.Debug("Initializing search_workorders tool")
	return &SearchWorkOrdersTool{client: client, config: config, session: session}
}

func (t *SearchWorkOrdersTool) Description() string {
	return "Search for work orders. Work orders represent scheduled tasks, maintenance activities, or service requests. Input: a search query for work orders."
}

func (t *SearchWorkOrdersTool) Name() string {
	return "search_workorders"
}

func (t *SearchWorkOrdersTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := workOrdersLogger.WithField("input", input)
	toolLogger.Info("Work order search tool called")
	startTime := time.Now()

	query := strings.TrimSpace(input)
	if query == "" {
		return "**Error:** A search query is required.", nil
	}

	results, err := t.client.SearchWorkOrders(ctx, core.SearchQuery{
		Query:    query,
		Limit:    t.config.MaxResults,
		MinScore: workOrdersMinScore,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Work order search failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"resultCount":   len(results),
		"executionTime": time.Since(startTime),
	}).Info("Work order search completed")

	if len(results) == 0 {
		return fmt.Sprintf("No work orders found matching '%s'.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d work order(s):**\n\n", len(results))
	for _, item := range results {
		fmt.Fprintf(&b, "### %s (%d%% match)\n", item.ID, item.ScorePercent)
		fmt.Fprintf(&b, "**Summary:** %s\n", item.Title)
		fmt.Fprintf(&b, "**Status:** %s\n", statusOrUnknown(item.Status))
		if item.Snippet != "" {
			fmt.Fprintf(&b, "**Preview:** %s\n", core.TruncateSnippet(item.Snippet, core.SnippetBudgetIncident))
		}
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

var _ tools.Tool = (*SearchWorkOrdersTool)(nil)
