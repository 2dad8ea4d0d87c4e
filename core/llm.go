/*
LLM integration (core/llm.go).

Provider construction and response post-processing for the agent's
language model. NewChatModel builds the configured provider (ollama or
gemini) and wraps it in the cleaning wrapper, which strips thinking tags
and repairs responses that do not follow the agent's Thought/Action
format. Local models in particular tend to leak <think> blocks that break
the action parser.
*/
package core

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
)

// NewChatModel builds the configured LLM provider wrapped with response
// cleaning.
func NewChatModel(ctx context.Context, config *Config, logger *logrus.Logger) (llms.Model, error) {
	var (
		model llms.Model
		err   error
	)

	switch config.LLMProvider {
	case "gemini":
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("gemini API key is required when using the gemini provider; set GEMINI_API_KEY")
		}
		logger.WithFields(logrus.Fields{
			"provider": "gemini",
			"model":    config.GeminiModel,
		}).Info("Initializing Gemini LLM")

		model, err = googleai.New(
			ctx,
			googleai.WithAPIKey(config.GeminiAPIKey),
			googleai.WithDefaultModel(config.GeminiModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Gemini LLM: %w", err)
		}

	default:
		logger.WithFields(logrus.Fields{
			"provider": "ollama",
			"endpoint": config.OllamaEndpoint,
			"model":    config.OllamaModel,
		}).Info("Initializing Ollama LLM")

		model, err = ollama.New(
			ollama.WithServerURL(config.OllamaEndpoint),
			ollama.WithModel(config.OllamaModel),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Ollama LLM: %w", err)
		}
	}

	return NewCleaningLLMWrapper(model, config, logger), nil
}

// CleaningLLMWrapper preprocesses LLM responses before the agent parser
// sees them. It implements llms.Model and delegates generation to the
// wrapped provider.
type CleaningLLMWrapper struct {
	wrappedLLM llms.Model
	config     *Config
	logger     *logrus.Logger
}

// NewCleaningLLMWrapper wraps a model with response cleaning.
func NewCleaningLLMWrapper(llm llms.Model, config *Config, logger *logrus.Logger) *CleaningLLMWrapper {
	return &CleaningLLMWrapper{
		wrappedLLM: llm,
		config:     config,
		logger:     logger,
	}
}

func (w *CleaningLLMWrapper) truncateForLog(text string) string {
	if len(text) <= w.config.LogTruncateLength {
		return text
	}
	return text[:w.config.LogTruncateLength] + "..."
}

var (
	thinkTagPattern     = regexp.MustCompile(`(?i)(?s)<think>.*?</think>`)
	openThinkPattern    = regexp.MustCompile(`(?i)<think>.*`)
	reasoningTagPattern = regexp.MustCompile(`(?i)(?s)<reasoning>.*?</reasoning>`)
	multiNewlinePattern = regexp.MustCompile(`\n\s*\n\s*\n+`)
	emptyActionInput    = regexp.MustCompile(`(?m)^Action Input:\s*$`)
)

// cleanAgentResponse strips thinking tags, normalizes whitespace, repairs
// empty Action Input lines and wraps direct answers in Final Answer format
// so the action parser accepts them.
func (w *CleaningLLMWrapper) cleanAgentResponse(response string) string {
	cleaned := thinkTagPattern.ReplaceAllString(response, "")
	cleaned = openThinkPattern.ReplaceAllString(cleaned, "")
	cleaned = reasoningTagPattern.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = multiNewlinePattern.ReplaceAllString(cleaned, "\n\n")

	// The framework requires Action Input to carry a value.
	if emptyActionInput.MatchString(cleaned) {
		w.logger.Debug("Detected empty Action Input field, adding empty string value")
		cleaned = emptyActionInput.ReplaceAllString(cleaned, "Action Input: ")
	}

	hasAgentFormat := strings.Contains(cleaned, "Thought:") ||
		strings.Contains(cleaned, "Action:") ||
		strings.Contains(cleaned, "Final Answer:") ||
		strings.Contains(cleaned, "Observation:")

	if !hasAgentFormat && cleaned != "" {
		if len(cleaned) > 50 && !strings.Contains(strings.ToLower(cleaned), "i don't") {
			w.logger.WithFields(logrus.Fields{
				"originalLength": len(response),
				"cleanedLength":  len(cleaned),
			}).Info("Wrapping direct response in Final Answer format")
			cleaned = fmt.Sprintf("Thought: I can provide a direct answer to this question.\nFinal Answer: %s", cleaned)
		}
	}

	if cleaned == "" {
		return "I understand your request but need to process it differently. Could you please rephrase your question?"
	}

	return cleaned
}

// GenerateContent implements llms.Model, cleaning every generated choice.
func (w *CleaningLLMWrapper) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	response, err := w.wrappedLLM.GenerateContent(ctx, messages, options...)
	if err != nil {
		return response, err
	}

	if response != nil {
		for i := range response.Choices {
			original := response.Choices[i].Content
			cleaned := w.cleanAgentResponse(original)
			response.Choices[i].Content = cleaned

			if len(original) != len(cleaned) {
				w.logger.WithFields(logrus.Fields{
					"originalLength":  len(original),
					"cleanedLength":   len(cleaned),
					"originalPreview": w.truncateForLog(original),
				}).Debug("Cleaned LLM response content")
			}
		}
	}

	return response, nil
}

// Call implements llms.Model for simple string-based calls.
func (w *CleaningLLMWrapper) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	response, err := w.wrappedLLM.Call(ctx, prompt, options...)
	if err != nil {
		return response, err
	}
	return w.cleanAgentResponse(response), nil
}

// CleanAgentResponse exposes the cleaning logic for post-processing
// responses obtained outside the wrapper, such as parse-error recovery.
func (w *CleaningLLMWrapper) CleanAgentResponse(response string) string {
	return w.cleanAgentResponse(response)
}
