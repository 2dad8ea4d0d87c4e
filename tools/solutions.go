package tools

import (
	"context"
	"strings"
	"time"

	"deskagent/core"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/tools"
)

var solutionsLogger = logrus.WithField("tool", "find_solutions")

// Solutions demand a higher bar than plain searches: both sources are
// queried at 0.4 and only the top few hits of each are shown.
const (
	solutionsMinScore  = 0.4
	solutionsPerSource = 3
)

type FindSolutionsTool struct {
	client  *core.Client
	config  *core.Config
	session string
}

func NewFindSolutionsTool(client *core.Client, config *core.Config, session string) *FindSolutionsTool {
	solutionsLogger.Debug("Initializing find_solutions tool")
	return &FindSolutionsTool{client: client, config: config, session: session}
}

func (t *FindSolutionsTool) Description() string {
	return "Search for solutions to a specific IT problem. Searches both knowledge articles and resolved incidents to find potential fixes. Input: a description of the problem to solve."
}

func (t *FindSolutionsTool) Name() string {
	return "find_solutions"
}

func (t *FindSolutionsTool) Call(ctx context.Context, input string) (string, error) {
	toolLogger := solutionsLogger.WithField("input", input)
	toolLogger.Info("Solution search tool called")
	startTime := time.Now()

	problem := strings.TrimSpace(input)
	if problem == "" {
		return "**Error:** A problem description is required.", nil
	}

	// Both searches are best-effort; a failing source contributes nothing.
	articles, err := t.client.SearchKnowledge(ctx, core.SearchQuery{
		Query:    problem,
		Limit:    t.config.MaxResults,
		MinScore: solutionsMinScore,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Debug("Knowledge side of solution search failed")
		articles = nil
	}

	incidents, _, err := t.client.SearchIncidents(ctx, core.SearchQuery{
		Query:    "resolution " + problem,
		Limit:    t.config.MaxResults,
		MinScore: solutionsMinScore,
	}, t.session)
	if err != nil {
		toolLogger.WithError(err).Debug("Incident side of solution search failed")
		incidents = nil
	}

	resolved := make([]core.SearchResult, 0, len(incidents))
	for _, inc := range incidents {
		switch inc.Metadata["status"] {
		case "Resolved", "Closed":
			resolved = append(resolved, inc)
		}
	}

	toolLogger.WithFields(logrus.Fields{
		"articleCount":  len(articles),
		"resolvedCount": len(resolved),
		"executionTime": time.Since(startTime),
	}).Info("Solution search completed")

	var b strings.Builder
	b.WriteString("# Potential Solutions\n\n")

	if len(articles) > 0 {
		b.WriteString("## From Knowledge Base\n")
		b.WriteString(core.FormatResultList(capResults(articles, solutionsPerSource)))
		b.WriteString("\n\n")
	}
	if len(resolved) > 0 {
		b.WriteString("## From Resolved Incidents\n")
		b.WriteString(core.FormatResultList(capResults(resolved, solutionsPerSource)))
		b.WriteString("\n\n")
	}

	if len(articles) == 0 && len(resolved) == 0 {
		b.WriteString("No solutions found matching your problem description.\n\n")
		b.WriteString("**Suggestions:**\n")
		b.WriteString("- Try rephrasing your problem description\n")
		b.WriteString("- Use more specific technical terms\n")
		b.WriteString("- Search for individual symptoms separately")
	} else {
		b.WriteString("> Use `get_article('<id>')` or `get_incident('<id>')` to view full content.")
	}

	return b.String(), nil
}

func capResults(results []core.SearchResult, limit int) []core.SearchResult {
	if len(results) > limit {
		return results[:limit]
	}
	return results
}

var _ tools.Tool = (*FindSolutionsTool)(nil)
