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

var searchIncidentsLogger = logrus.WithField("tool", "search_incidents")

// searchIncidentsMinScore casts a wide net for explicit searches; the
// pre-creation duplicate check uses a stricter threshold of its own.
const searchIncidentsMinScore = 0.3

type SearchIncidentsTool struct {
	client  *core.Client
	config  *core.Config
	session string
}

func NewSearchIncidentsTool(client *core.Client, config *core.Config, session string) *SearchIncidentsTool {
	searchIncidentsLogger.Debug("Initializing search_incidents tool")
	return &SearchIncidentsTool{client: client, config: config, session: session}
}

func (t *SearchIncidentsTool) Description() string {
	return "Search for similar incidents using semantic search. Use this to find related incidents before creating new ones, or to look up incidents matching a description. Input: a description of the issue to search for."
}

func (t *SearchIncidentsTool) Name() string {
	return "search_incidents"
}

func (t *SearchIncidentsTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := searchIncidentsLogger.WithField("input", input)
	toolLogger.Info("Incident search tool called")
	startTime := time.Now()

	query := strings.TrimSpace(input)
	if query == "" {
		return "**Error:** A search query is required.", nil
	}

	results, hasDuplicates, err := t.client.SearchIncidents(ctx, core.SearchQuery{
		Query:    query,
		Limit:    t.config.MaxResults,
		MinScore: searchIncidentsMinScore,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Incident search failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"resultCount":   len(results),
		"executionTime": time.Since(startTime),
	}).Info("Incident search completed")

	if len(results) == 0 {
		return "No similar incidents found.", nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d similar incident(s):**\n\n", len(results))
	for _, item := range results {
		fmt.Fprintf(&b, "### %s (%d%% match)\n", item.ID, item.ScorePercent)
		fmt.Fprintf(&b, "**Summary:** %s\n", item.Title)
		fmt.Fprintf(&b, "**Status:** %s\n", statusOrUnknown(item.Status))
		if item.Snippet != "" {
			fmt.Fprintf(&b, "**Preview:** %s\n", core.TruncateSnippet(item.Snippet, core.SnippetBudgetIncident))
		}
		b.WriteString("\n")
	}

	if hasDuplicates {
		b.WriteString("> **Warning:** Highly similar incidents found. Review these before creating a new incident.")
	}

	return strings.TrimRight(b.String(), "\n"), nil
}

func statusOrUnknown(status string) string {
	if status == "" {
		return "Unknown"
	}
	return status
}

var _ tools.Tool = (*SearchIncidentsTool)(nil)
