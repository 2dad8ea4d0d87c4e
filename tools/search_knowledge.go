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

var searchKnowledgeLogger = logrus.WithField("tool", "search_knowledge")

const searchKnowledgeMinScore = 0.3

type SearchKnowledgeTool struct {
	client  *core.Client
	config  *core.Config
	session string
}

func NewSearchKnowledgeTool(client *core.Client, config *core.Config, session string) *SearchKnowledgeTool {
	searchKnowledgeLogger.Debug("Initializing search_knowledge tool")
	return &SearchKnowledgeTool{client: client, config: config, session: session}
}

func (t *SearchKnowledgeTool) Description() string {
	return "Search the IT knowledge base for solutions, how-to guides, and troubleshooting articles. Input: a search query, optionally followed by ' | <category>' to filter by category."
}

func (t *SearchKnowledgeTool) Name() string {
	return "search_knowledge"
}

func (t *SearchKnowledgeTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := searchKnowledgeLogger.WithField("input", input)
	toolLogger.Info("Knowledge search tool called")
	startTime := time.Now()

	query := strings.TrimSpace(input)
	category := ""
	if idx := strings.Index(query, "|"); idx >= 0 {
		category = strings.TrimSpace(query[idx+1:])
		query = strings.TrimSpace(query[:idx])
	}
	if query == "" {
		return "**Error:** A search query is required.", nil
	}

	results, err := t.client.SearchKnowledge(ctx, core.SearchQuery{
		Query:    query,
		Limit:    t.config.MaxResults,
		MinScore: searchKnowledgeMinScore,
		Category: category,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Knowledge search failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	toolLogger.WithFields(logrus.Fields{
		"resultCount":   len(results),
		"executionTime": time.Since(startTime),
	}).Info("Knowledge search completed")

	if len(results) == 0 {
		return fmt.Sprintf("No knowledge articles found matching '%s'.", query), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Found %d knowledge article(s):**\n\n", len(results))
	for _, item := range results {
		fmt.Fprintf(&b, "### %s (%d%% match)\n", item.ID, item.ScorePercent)
		fmt.Fprintf(&b, "**Title:** %s\n", item.Title)
		if cat := item.Metadata["category"]; cat != "" {
			fmt.Fprintf(&b, "**Category:** %s\n", cat)
		}
		if item.Status != "" {
			fmt.Fprintf(&b, "**Status:** %s\n", item.Status)
		}
		if item.Snippet != "" {
			fmt.Fprintf(&b, "\n%s\n", core.TruncateSnippet(item.Snippet, core.SnippetBudgetKnowledge))
		}
		b.WriteString("\n")
	}
	b.WriteString("> Use `get_article('<article_id>')` to view full article content.")

	return b.String(), nil
}

var _ tools.Tool = (*SearchKnowledgeTool)(nil)
