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

var getArticleLogger = logrus.WithField("tool", "get_article")

type GetArticleTool struct {
	client  *core.Client
	session string
}

func NewGetArticleTool(client *core.Client, session string) *GetArticleTool {
	getArticleLogger.Debug("Initializing get_article tool")
	return &GetArticleTool{client: client, session: session}
}

func (t *GetArticleTool) Description() string {
	return "Get the full content of a specific knowledge article including all sections, resolution steps, and related information. Input: the knowledge article ID (e.g. KB000000001)."
}

func (t *GetArticleTool) Name() string {
	return "get_article"
}

func (t *GetArticleTool) Call(ctx context.Context, input string) (string, error) {
	articleID := strings.TrimSpace(input)
	toolLogger := getArticleLogger.WithField("article", articleID)
	toolLogger.Info("Article detail tool called")
	startTime := time.Now()

	if articleID == "" {
		return "**Error:** An article ID is required.", nil
	}

	detail, err := t.client.GetArticle(ctx, articleID, t.session)
	if err != nil {
		toolLogger.WithError(err).Error("Article fetch failed")
		return fmt.Sprintf("**Error:** %s", err), nil
	}

	if !detail.IsFound() {
		toolLogger.Info("Article not found")
		return fmt.Sprintf("**Knowledge article %s not found.**", articleID), nil
	}

	toolLogger.WithField("executionTime", time.Since(startTime)).Info("Article detail fetched")
	return core.FormatArticleDetail(detail), nil
}

var _ tools.Tool = (*GetArticleTool)(nil)
