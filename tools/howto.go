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

var howToLogger = logrus.WithField("tool", "find_how_to")

const (
	howToMinScore = 0.35
	howToLimit    = 3
)

type FindHowToTool struct {
	client  *core.Client
	session string
}

func NewFindHowToTool(client *core.Client, session string) *FindHowToTool {
	howToLogger.Debug("Initializing find_how_to tool")
	return &FindHowToTool{client: client, session: session}
}

func (t *FindHowToTool) Description() string {
	return "Find how-to guides and step-by-step instructions for common IT tasks. Input: a description of what the user wants to learn how to do."
}

func (t *FindHowToTool) Name() string {
	return "find_how_to"
}

func (t *FindHowToTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := howToLogger.WithField("input", input)
	toolLogger.Info("How-to search tool called")
	startTime := time.Now()

	task := strings.TrimSpace(input)
	if task == "" {
		return "**Error:** A task description is required.", nil
	}

	// Steering terms bias the semantic search toward procedural articles.
	enhancedQuery := fmt.Sprintf("how to %s steps guide procedure", task)

	results, err := t.client.SearchKnowledge(ctx, core.SearchQuery{
		Query:    enhancedQuery,
		Limit:    howToLimit,
		MinScore: howToMinScore,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("How-to search failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"resultCount":   len(results),
		"executionTime": time.Since(startTime),
	}).Info("How-to search completed")

	if len(results) == 0 {
		return fmt.Sprintf("No how-to guides found for '%s'.", task), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**How-To Guides for: %s**\n\n", task)
	for _, item := range results {
		fmt.Fprintf(&b, "### %s\n", item.Title)
		fmt.Fprintf(&b, "**Article:** %s (%d%% relevant)\n", item.ID, item.ScorePercent)
		if item.Snippet != "" {
			fmt.Fprintf(&b, "\n%s\n", core.TruncateSnippet(item.Snippet, core.SnippetBudgetHowTo))
		}
		b.WriteString("\n")
	}
	b.WriteString("> Use `get_article('<article_id>')` to view the complete guide.")

	return b.String(), nil
}

var _ tools.Tool = (*FindHowToTool)(nil)
