package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

// ExecutionLogHandler logs every agent callback with iteration and step
// counters for tracing a run through the structured logs.
type ExecutionLogHandler struct {
	requestLogger *logrus.Entry
	iteration     int
	step          int
	config        *Config
}

func NewExecutionLogHandler(requestLogger *logrus.Entry, config *Config) *ExecutionLogHandler {
	return &ExecutionLogHandler{
		requestLogger: requestLogger,
		config:        config,
	}
}

func (h *ExecutionLogHandler) truncateForLog(text string) string {
	if len(text) <= h.config.LogTruncateLength {
		return text
	}
	return text[:h.config.LogTruncateLength] + "..."
}

func (h *ExecutionLogHandler) fields() logrus.Fields {
	return logrus.Fields{
		"iteration": h.iteration,
		"step":      h.step,
	}
}

func (h *ExecutionLogHandler) HandleText(ctx context.Context, text string) {
	h.requestLogger.WithFields(h.fields()).WithField("text", h.truncateForLog(text)).Debug("Agent processing text")
}

func (h *ExecutionLogHandler) HandleLLMStart(ctx context.Context, prompts []string) {
	h.iteration++
	h.step = 0
	preview := ""
	if len(prompts) > 0 {
		preview = h.truncateForLog(prompts[0])
	}
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"promptCount": len(prompts),
		"firstPrompt": preview,
	}).Info("Agent iteration started - LLM call beginning")
}

func (h *ExecutionLogHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.requestLogger.WithFields(h.fields()).WithField("messageCount", len(ms)).Info("LLM content generation started")
}

func (h *ExecutionLogHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	response := ""
	if res != nil && len(res.Choices) > 0 {
		response = h.truncateForLog(res.Choices[0].Content)
	}
	h.requestLogger.WithFields(h.fields()).WithField("response", response).Info("LLM content generation completed")
}

func (h *ExecutionLogHandler) HandleLLMError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("LLM call failed")
}

func (h *ExecutionLogHandler) HandleChainStart(ctx context.Context, inputs map[string]any) {
	h.requestLogger.WithFields(h.fields()).WithField("inputs", inputs).Info("Agent chain execution started")
}

func (h *ExecutionLogHandler) HandleChainEnd(ctx context.Context, outputs map[string]any) {
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"outputs":         outputs,
		"totalIterations": h.iteration,
	}).Info("Agent chain execution completed")
}

func (h *ExecutionLogHandler) HandleChainError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("Agent chain execution failed")
}

func (h *ExecutionLogHandler) HandleToolStart(ctx context.Context, input string) {
	h.requestLogger.WithFields(h.fields()).WithField("input", input).Info("Tool execution started")
}

func (h *ExecutionLogHandler) HandleToolEnd(ctx context.Context, output string) {
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"output":       h.truncateForLog(output),
		"outputLength": len(output),
	}).Info("Tool execution completed")
}

func (h *ExecutionLogHandler) HandleToolError(ctx context.Context, err error) {
	h.requestLogger.WithFields(h.fields()).WithError(err).Error("Tool execution failed")
}

func (h *ExecutionLogHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"action":    action.Tool,
		"input":     action.ToolInput,
		"reasoning": action.Log,
	}).Info("Agent decided on action")
}

func (h *ExecutionLogHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {
	finalResponse := ""
	if output, ok := finish.ReturnValues["output"].(string); ok {
		finalResponse = h.truncateForLog(output)
	}
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"finalResponse":   finalResponse,
		"totalIterations": h.iteration,
	}).Info("Agent finished successfully")
}

func (h *ExecutionLogHandler) HandleRetrieverStart(ctx context.Context, query string) {
	h.requestLogger.WithFields(h.fields()).WithField("query", query).Debug("Retriever started")
}

func (h *ExecutionLogHandler) HandleRetrieverEnd(ctx context.Context, query string, documents []schema.Document) {
	h.requestLogger.WithFields(h.fields()).WithFields(logrus.Fields{
		"query":         query,
		"documentCount": len(documents),
	}).Debug("Retriever completed")
}

func (h *ExecutionLogHandler) HandleStreamingFunc(ctx context.Context, chunk []byte) {
	h.requestLogger.WithFields(h.fields()).WithField("chunkSize", len(chunk)).Debug("Streaming chunk received")
}

// StreamingCallbackHandler extends ExecutionLogHandler to forward agent
// progress to a streaming client. Tool selections are always streamed as
// "tool" events; the finer-grained lifecycle events only go out in debug
// mode.
type StreamingCallbackHandler struct {
	*ExecutionLogHandler
	streamFunc func(msg StreamMessage)
	debug      bool
}

func NewStreamingCallbackHandler(requestLogger *logrus.Entry, config *Config, debug bool, streamFunc func(msg StreamMessage)) *StreamingCallbackHandler {
	return &StreamingCallbackHandler{
		ExecutionLogHandler: NewExecutionLogHandler(requestLogger, config),
		streamFunc:          streamFunc,
		debug:               debug,
	}
}

func (h *StreamingCallbackHandler) emitDebug(content, step string, details map[string]interface{}) {
	if h.streamFunc == nil || !h.debug {
		return
	}
	h.streamFunc(StreamMessage{
		Type:      "debug",
		Content:   content,
		Debug:     true,
		Iteration: h.iteration,
		Step:      fmt.Sprintf("%s_%d", step, h.step),
		Details:   details,
	})
}

func (h *StreamingCallbackHandler) HandleLLMStart(ctx context.Context, prompts []string) {
	h.ExecutionLogHandler.HandleLLMStart(ctx, prompts)
	h.step++
	h.emitDebug("LLM call started", "llm_start", map[string]interface{}{
		"promptCount": len(prompts),
	})
}

func (h *StreamingCallbackHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	h.ExecutionLogHandler.HandleLLMGenerateContentEnd(ctx, res)
	h.step++
	content := ""
	if res != nil && len(res.Choices) > 0 {
		content = res.Choices[0].Content
	}
	h.emitDebug("LLM response generated", "llm_response", map[string]interface{}{
		"responseLength":  len(content),
		"responsePreview": h.truncateForLog(content),
	})
}

func (h *StreamingCallbackHandler) HandleChainStart(ctx context.Context, inputs map[string]any) {
	h.ExecutionLogHandler.HandleChainStart(ctx, inputs)
	h.step++
	h.emitDebug("Agent chain execution started", "chain_start", nil)
}

func (h *StreamingCallbackHandler) HandleChainEnd(ctx context.Context, outputs map[string]any) {
	h.ExecutionLogHandler.HandleChainEnd(ctx, outputs)
	h.step++
	h.emitDebug("Agent chain execution completed", "chain_end", map[string]interface{}{
		"totalIterations": h.iteration,
	})
}

func (h *StreamingCallbackHandler) HandleToolStart(ctx context.Context, input string) {
	h.ExecutionLogHandler.HandleToolStart(ctx, input)
	h.step++
	h.emitDebug("Tool execution started", "tool_start", map[string]interface{}{
		"toolInput": input,
	})
}

func (h *StreamingCallbackHandler) HandleToolEnd(ctx context.Context, output string) {
	h.ExecutionLogHandler.HandleToolEnd(ctx, output)
	h.step++
	h.emitDebug("Tool execution completed", "tool_end", map[string]interface{}{
		"toolOutput":   h.truncateForLog(output),
		"outputLength": len(output),
	})
}

func (h *StreamingCallbackHandler) HandleAgentAction(ctx context.Context, action schema.AgentAction) {
	h.ExecutionLogHandler.HandleAgentAction(ctx, action)
	h.step++
	if h.streamFunc != nil {
		h.streamFunc(StreamMessage{
			Type:      "tool",
			Content:   fmt.Sprintf("Using %s", action.Tool),
			Tool:      action.Tool,
			Iteration: h.iteration,
		})
	}
	h.emitDebug(fmt.Sprintf("Agent chose to use tool: %s", action.Tool), "agent_action", map[string]interface{}{
		"tool":      action.Tool,
		"toolInput": action.ToolInput,
		"reasoning": action.Log,
	})
}

func (h *StreamingCallbackHandler) HandleAgentFinish(ctx context.Context, finish schema.AgentFinish) {
	h.ExecutionLogHandler.HandleAgentFinish(ctx, finish)
	h.step++
	h.emitDebug("Agent finished successfully", "agent_finish", map[string]interface{}{
		"totalIterations": h.iteration,
	})
}
