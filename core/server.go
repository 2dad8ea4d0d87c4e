package core

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/agents"
	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/tools"
)

// ToolFactory builds the agent tool set bound to one backend session.
// The tools package provides the production implementation; the
// indirection keeps core free of an import cycle.
type ToolFactory func(client *Client, coordinator *Coordinator, config *Config, session string) []tools.Tool

// Server hosts the orchestration pipeline and the agent executor behind
// the HTTP API.
type Server struct {
	pipeline      *Pipeline
	client        *Client
	coordinator   *Coordinator
	llm           llms.Model
	toolFactory   ToolFactory
	memoryStore   *MemoryStore
	cancelManager *CancelManager
	config        *Config
	logger        *logrus.Logger
}

// NewServer creates a server with all dependencies initialized.
func NewServer(config *Config, logger *logrus.Logger, toolFactory ToolFactory) (*Server, error) {
	logger.Info("Starting server initialization")

	client := NewClient(config, logger)
	logger.WithField("apiURL", config.APIURL).Info("Backend client initialized")

	memoryStore := NewMemoryStore(config.SessionMaxAge, config.CleanupInterval, logger)
	logger.WithField("sessionMaxAge", config.SessionMaxAge).Info("Memory store initialized")

	llm, err := NewChatModel(context.Background(), config, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize LLM")
		return nil, err
	}

	return &Server{
		pipeline:      NewPipeline(client, config, logger),
		client:        client,
		coordinator:   NewCoordinator(client, config, logger),
		llm:           llm,
		toolFactory:   toolFactory,
		memoryStore:   memoryStore,
		cancelManager: NewCancelManager(),
		config:        config,
		logger:        logger,
	}, nil
}

// buildExecutor constructs an agent executor whose tools are bound to the
// given backend session. Executors are per-request: tool state is the
// session identity, nothing else.
func (s *Server) buildExecutor(session string, handler callbacks.Handler) (*agents.Executor, error) {
	toolsList := s.toolFactory(s.client, s.coordinator, s.config, session)
	prompt := CreateAgentPrompt(toolsList)

	executor, err := agents.Initialize(
		s.llm,
		toolsList,
		agents.ZeroShotReactDescription,
		agents.WithPrompt(prompt),
		agents.WithMaxIterations(s.config.MaxIterations),
		agents.WithReturnIntermediateSteps(),
		agents.WithCallbacksHandler(handler),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize agent executor: %w", err)
	}
	return executor, nil
}

func (s *Server) handleChat(c echo.Context) error {
	requestID := c.Request().Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = "req_" + uuid.NewString()
	}

	requestLogger := s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"endpoint":  "/chat",
		"method":    "POST",
		"clientIP":  c.RealIP(),
	})

	requestLogger.Info("Received chat request")

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse request body")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Message is required"})
	}

	session := s.memoryStore.GetOrCreateSession(req.SessionID, Identity{UserID: req.UserID, Email: req.Email})
	session.AddMessage(RoleUser, req.Message)

	requestLogger.WithFields(logrus.Fields{
		"sessionID":     session.ID,
		"messageLength": len(req.Message),
	}).Debug("Chat request details")

	ctx, cancel := context.WithTimeout(context.Background(), s.config.AgentTimeout)
	defer cancel()

	startTime := time.Now()

	// Orchestration pass: classify, enrich, resolve staged actions. The
	// enriched conversation is written back so injected context persists.
	processed := s.pipeline.ProcessTurn(ctx, session.Snapshot(), session.Identity, NopNotifier{})
	session.Replace(processed)

	result, err := s.runAgent(ctx, session, req.Message, requestLogger, nil, false)
	executionTime := time.Since(startTime)

	if err != nil {
		requestLogger.WithError(err).WithFields(logrus.Fields{
			"sessionID":     session.ID,
			"executionTime": executionTime,
		}).Error("Agent execution failed")

		return c.JSON(http.StatusOK, ChatResponse{
			Response:  s.getErrorMessage(err),
			SessionID: session.ID,
		})
	}

	session.AddMessage(RoleAssistant, result)

	requestLogger.WithFields(logrus.Fields{
		"sessionID":      session.ID,
		"executionTime":  executionTime,
		"responseLength": len(result),
	}).Info("Agent execution completed")

	return c.JSON(http.StatusOK, ChatResponse{
		Response:  result,
		SessionID: session.ID,
	})
}

func (s *Server) handleStreamChat(c echo.Context) error {
	requestID := c.Request().Header.Get("X-Request-ID")
	if requestID == "" {
		requestID = "stream_req_" + uuid.NewString()
	}

	requestLogger := s.logger.WithFields(logrus.Fields{
		"requestId": requestID,
		"endpoint":  "/chat/stream",
		"method":    "POST",
		"clientIP":  c.RealIP(),
	})

	requestLogger.Info("Received streaming chat request")

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse streaming request body")
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Message) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Message is required"})
	}

	session := s.memoryStore.GetOrCreateSession(req.SessionID, Identity{UserID: req.UserID, Email: req.Email})
	session.AddMessage(RoleUser, req.Message)

	c.Response().Header().Set("Content-Type", "text/event-stream")
	c.Response().Header().Set("Cache-Control", "no-cache")
	c.Response().Header().Set("Connection", "keep-alive")
	c.Response().Header().Set("Access-Control-Allow-Origin", "*")

	s.sendStreamMessage(c, StreamMessage{Type: "session", Content: session.ID})

	executionID := "exec_" + uuid.NewString()
	s.sendStreamMessage(c, StreamMessage{Type: "execution_started", Content: executionID})

	ctx, cancel := context.WithTimeout(context.Background(), s.config.AgentTimeout)
	defer func() {
		s.cancelManager.RemoveExecution(executionID)
		cancel()
	}()
	s.cancelManager.AddExecution(executionID, cancel)

	startTime := time.Now()

	requestLogger.WithFields(logrus.Fields{
		"sessionID":   session.ID,
		"executionID": executionID,
	}).Info("Starting streaming execution")

	s.sendStreamMessage(c, StreamMessage{Type: "thinking", Content: "Processing your request..."})

	// Pipeline progress reaches the client as status events.
	notifier := NotifierFunc(func(status string) {
		s.sendStreamMessage(c, StreamMessage{Type: "status", Content: status})
	})
	processed := s.pipeline.ProcessTurn(ctx, session.Snapshot(), session.Identity, notifier)
	session.Replace(processed)

	streamFunc := func(msg StreamMessage) { s.sendStreamMessage(c, msg) }
	result, err := s.runAgent(ctx, session, req.Message, requestLogger, streamFunc, req.Debug)
	executionTime := time.Since(startTime)

	if err != nil {
		requestLogger.WithError(err).WithFields(logrus.Fields{
			"sessionID":     session.ID,
			"executionID":   executionID,
			"executionTime": executionTime,
		}).Error("Streaming agent execution failed")

		if ctx.Err() == context.Canceled {
			s.sendStreamMessage(c, StreamMessage{
				Type:    "stopped",
				Content: "Agent execution was stopped",
			})
			return nil
		}

		s.sendStreamMessage(c, StreamMessage{
			Type:    "error",
			Content: s.getErrorMessage(err),
		})
		return nil
	}

	session.AddMessage(RoleAssistant, result)

	requestLogger.WithFields(logrus.Fields{
		"sessionID":      session.ID,
		"executionID":    executionID,
		"executionTime":  executionTime,
		"responseLength": len(result),
	}).Info("Streaming execution completed")

	s.sendStreamMessage(c, StreamMessage{
		Type:     "response",
		Content:  result,
		Complete: true,
	})

	return nil
}

// runAgent executes one agent turn over the session's conversation. When
// streamFunc is non-nil agent progress is forwarded to the client; debug
// additionally streams the internal lifecycle events.
func (s *Server) runAgent(ctx context.Context, session *ChatSession, message string, requestLogger *logrus.Entry, streamFunc func(StreamMessage), debug bool) (result string, err error) {
	sessionKey := SessionIdentity(session.Identity.UserID, session.Identity.Email)

	var handler callbacks.Handler
	if streamFunc != nil {
		handler = NewStreamingCallbackHandler(requestLogger.WithField("component", "agent"), s.config, debug, streamFunc)
	} else {
		handler = NewExecutionLogHandler(requestLogger.WithField("component", "agent"), s.config)
	}

	executor, err := s.buildExecutor(sessionKey, handler)
	if err != nil {
		return "", err
	}

	input := message
	if history := session.ConversationContext(s.config.ContextLimit); history != "" {
		input = history + "Human: " + message
	}

	defer func() {
		if r := recover(); r != nil {
			requestLogger.WithField("panic", r).Error("Panic occurred during agent execution")
			err = fmt.Errorf("execution failed due to internal error: %v", r)
		}
	}()

	result, err = chains.Run(ctx, executor, input)
	if err != nil {
		if recovered, ok := s.recoverFromParseError(err, requestLogger); ok {
			return recovered, nil
		}
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("request timed out after %s", s.config.AgentTimeout)
		}
		return "", err
	}
	return result, nil
}

var finalAnswerPattern = regexp.MustCompile(`(?s)Final Answer:\s*(.*)`)

// recoverFromParseError salvages a usable reply when the agent's output
// failed the framework's action parser but still carries a Final Answer.
func (s *Server) recoverFromParseError(err error, requestLogger *logrus.Entry) (string, bool) {
	const marker = "unable to parse agent output: "
	if !strings.Contains(err.Error(), marker) {
		return "", false
	}

	parts := strings.SplitN(err.Error(), marker, 2)
	if len(parts) < 2 {
		return "", false
	}

	cleaner := NewCleaningLLMWrapper(nil, s.config, s.logger)
	cleaned := cleaner.CleanAgentResponse(parts[1])
	if !strings.Contains(cleaned, "Final Answer:") {
		return "", false
	}

	requestLogger.Info("Recovered response from parse error")
	if m := finalAnswerPattern.FindStringSubmatch(cleaned); len(m) > 1 {
		return strings.TrimSpace(m[1]), true
	}
	return cleaned, true
}

func (s *Server) sendStreamMessage(c echo.Context, msg StreamMessage) {
	data, _ := json.Marshal(msg)
	fmt.Fprintf(c.Response(), "data: %s\n\n", string(data))
	c.Response().Flush()
}

func (s *Server) getErrorMessage(err error) string {
	errorMsg := "I encountered an error processing your request. "
	switch {
	case strings.Contains(err.Error(), "unable to parse"):
		errorMsg += "The agent had trouble interpreting the tool output. Please try rephrasing your request."
	case strings.Contains(err.Error(), "max iterations"):
		errorMsg += "The request required too many steps to complete. Please try breaking it down into simpler requests."
	case strings.Contains(err.Error(), "context"):
		errorMsg += "The request timed out. Please try a simpler request."
	default:
		errorMsg += "Please try again or contact support if the issue persists."
	}
	return errorMsg
}

func (s *Server) handleStatus(c echo.Context) error {
	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint": "/status",
		"method":   "GET",
		"clientIP": c.RealIP(),
	})

	requestLogger.Debug("Health check requested")

	memoryStats := s.memoryStore.SessionStats()
	activeExecutions := s.cancelManager.ActiveExecutions()

	response := map[string]interface{}{
		"status":           "healthy",
		"backendURL":       s.config.APIURL,
		"llmProvider":      s.config.LLMProvider,
		"memory":           memoryStats,
		"activeExecutions": activeExecutions,
		"executionCount":   len(activeExecutions),
	}

	return c.JSON(http.StatusOK, response)
}

// handleGetSession returns information about a specific chat session.
func (s *Server) handleGetSession(c echo.Context) error {
	sessionID := c.Param("sessionId")

	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint":  "/sessions/:sessionId",
		"method":    "GET",
		"sessionID": sessionID,
		"clientIP":  c.RealIP(),
	})

	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session ID required"})
	}

	session, exists := s.memoryStore.GetSession(sessionID)
	if !exists {
		requestLogger.Warn("Session not found")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}

	messages := session.Snapshot()
	sessionInfo := map[string]interface{}{
		"id":           session.ID,
		"created":      session.Created,
		"updated":      session.Updated,
		"messageCount": len(messages),
		"messages":     messages,
	}

	requestLogger.WithField("messageCount", len(messages)).Info("Session information retrieved")

	return c.JSON(http.StatusOK, sessionInfo)
}

// handleClearSession clears the history of a specific chat session.
func (s *Server) handleClearSession(c echo.Context) error {
	sessionID := c.Param("sessionId")

	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint":  "/sessions/:sessionId/clear",
		"method":    "POST",
		"sessionID": sessionID,
		"clientIP":  c.RealIP(),
	})

	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session ID required"})
	}

	session, exists := s.memoryStore.GetSession(sessionID)
	if !exists {
		requestLogger.Warn("Session not found for clearing")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}

	messageCount := session.ClearMessages()
	requestLogger.WithField("clearedMessages", messageCount).Info("Session cleared")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":         "Session cleared successfully",
		"sessionId":       sessionID,
		"clearedMessages": messageCount,
	})
}

// handleDeleteSession deletes a specific chat session.
func (s *Server) handleDeleteSession(c echo.Context) error {
	sessionID := c.Param("sessionId")

	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint":  "/sessions/:sessionId",
		"method":    "DELETE",
		"sessionID": sessionID,
		"clientIP":  c.RealIP(),
	})

	if sessionID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Session ID required"})
	}

	if !s.memoryStore.DeleteSession(sessionID) {
		requestLogger.Warn("Session not found for deletion")
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}

	requestLogger.Info("Session deleted")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":   "Session deleted successfully",
		"sessionId": sessionID,
	})
}

// handleListSessions returns a list of all active sessions.
func (s *Server) handleListSessions(c echo.Context) error {
	sessions := s.memoryStore.GetAllSessions()

	s.logger.WithFields(logrus.Fields{
		"endpoint":     "/sessions",
		"sessionCount": len(sessions),
	}).Debug("Sessions listed")

	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": sessions,
	})
}

func (s *Server) handleStopExecution(c echo.Context) error {
	requestLogger := s.logger.WithFields(logrus.Fields{
		"endpoint": "/stop",
		"method":   "POST",
		"clientIP": c.RealIP(),
	})

	var req StopRequest
	if err := c.Bind(&req); err != nil {
		requestLogger.WithError(err).Error("Failed to parse stop request body")
		return c.JSON(http.StatusBadRequest, StopResponse{
			Success: false,
			Message: "Invalid request format",
		})
	}

	if req.ExecutionID == "" {
		return c.JSON(http.StatusBadRequest, StopResponse{
			Success: false,
			Message: "Execution ID is required",
		})
	}

	stopped := s.cancelManager.CancelExecution(req.ExecutionID)
	if stopped {
		requestLogger.WithField("executionID", req.ExecutionID).Info("Execution stopped")
		return c.JSON(http.StatusOK, StopResponse{
			Success: true,
			Message: "Execution stopped successfully",
			Stopped: true,
		})
	}

	requestLogger.WithField("executionID", req.ExecutionID).Warn("Execution not found or already completed")
	return c.JSON(http.StatusNotFound, StopResponse{
		Success: false,
		Message: "Execution not found or already completed",
	})
}

// RegisterRoutes registers all HTTP routes for the server.
func (s *Server) RegisterRoutes(e *echo.Echo) {
	s.logger.Info("Registering routes")

	e.POST("/chat", s.handleChat)
	e.POST("/chat/stream", s.handleStreamChat)
	e.GET("/status", s.handleStatus)

	e.GET("/sessions", s.handleListSessions)
	e.GET("/sessions/:sessionId", s.handleGetSession)
	e.POST("/sessions/:sessionId/clear", s.handleClearSession)
	e.DELETE("/sessions/:sessionId", s.handleDeleteSession)
	e.POST("/stop", s.handleStopExecution)

	s.logger.Info("Routes registered successfully")
}
