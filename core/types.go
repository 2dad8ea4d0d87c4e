/*
Package core contains the fundamental data types used throughout the
Deskagent application.

This file defines the conversation model shared by the pipeline and the chat
API, the search and staged-action shapes returned by the ITSM backend, and
the request/response contracts of the HTTP server. These types are the only
vocabulary the orchestration layer and the tool layer share.

Key type categories:
- Conversation types (Message, role constants)
- Chat API types (ChatRequest, ChatResponse)
- Real-time streaming types (StreamMessage)
- Backend result types (SearchResult, StagedAction)
- Execution control types (StopRequest, StopResponse)
*/
package core

// Conversation roles. The pipeline only ever appends RoleSystem entries;
// RoleUser and RoleAssistant messages are owned by the chat session.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is a single role-tagged entry in a conversation. The pipeline
// treats conversations as append-only: prior entries are never edited or
// removed, so injected context remains auditable after the fact.
type Message struct {
	Role    string `json:"role"`    // Message sender: "user", "assistant" or "system"
	Content string `json:"content"` // The message text content
}

// Identity carries what is known about the end user on one turn. Both
// fields may be empty, in which case staged actions are correlated under
// the shared anonymous session.
type Identity struct {
	UserID string `json:"userId,omitempty"` // Stable opaque user identifier, preferred
	Email  string `json:"email,omitempty"`  // Fallback identifier when no user ID exists
}

// ChatRequest represents an incoming chat request from a client.
type ChatRequest struct {
	Message   string `json:"message"`             // The user's message to the agent
	SessionID string `json:"sessionId,omitempty"` // Optional session ID for conversation continuity
	UserID    string `json:"userId,omitempty"`    // Optional stable user identifier for action correlation
	Email     string `json:"email,omitempty"`     // Optional email, used when no user ID is provided
	Debug     bool   `json:"debug,omitempty"`     // Enable streaming of internal agent steps
}

// ChatResponse is the final response returned by the chat API.
type ChatResponse struct {
	Response  string `json:"response"`  // The agent's reply
	SessionID string `json:"sessionId"` // Session ID for maintaining conversation context
}

// StreamMessage is a real-time event sent to streaming clients. It carries
// pipeline progress notifications, agent debug steps and the final response.
type StreamMessage struct {
	Type      string                 `json:"type"`                // "status", "thinking", "tool", "response", "error", "debug", "session", "execution_started", "stopped"
	Content   string                 `json:"content"`             // Main message content
	Tool      string                 `json:"tool,omitempty"`      // Tool name when Type is "tool"
	Complete  bool                   `json:"complete"`            // Whether this message completes the turn
	Debug     bool                   `json:"debug,omitempty"`     // Whether this is a debug-mode message
	Iteration int                    `json:"iteration,omitempty"` // Agent iteration number
	Step      string                 `json:"step,omitempty"`      // Step identifier within the agent run
	Details   map[string]interface{} `json:"details,omitempty"`   // Additional structured data
}

// StopRequest asks the server to cancel a running agent execution.
type StopRequest struct {
	ExecutionID string `json:"executionId"` // Identifier of the execution to stop
}

// StopResponse reports the outcome of a stop request.
type StopResponse struct {
	Success bool   `json:"success"` // Whether the request was processed
	Message string `json:"message"` // Human-readable result description
	Stopped bool   `json:"stopped"` // Whether an execution was actually cancelled
}

// SearchResult is one hit from the backend's incident, work-order or
// knowledge search. The core only consumes and formats these; they are
// produced and owned by the backend.
type SearchResult struct {
	ID           string            `json:"id"`                 // Record identifier (INC…, KB…, WO…)
	Title        string            `json:"title"`              // Record summary line
	ScorePercent int               `json:"scorePercent"`       // Relevance match, 0-100
	Status       string            `json:"status,omitempty"`   // Record status, when the backend includes it
	Snippet      string            `json:"snippet,omitempty"`  // Free-text preview, may contain newlines
	Metadata     map[string]string `json:"metadata,omitempty"` // Additional backend-provided attributes
}

// Staged-action statuses as reported by the backend's action store. These
// are expected lifecycle states, not errors, and each is rendered
// distinctly for the user.
const (
	ActionStaged           = "STAGED"
	ActionDuplicateWarning = "DUPLICATE_WARNING"
	ActionRateLimited      = "RATE_LIMITED"
	ActionCreated          = "CREATED"
	ActionUpdated          = "UPDATED"
	ActionExecuted         = "EXECUTED"
	ActionExpired          = "EXPIRED"
	ActionCancelled        = "CANCELLED"
	ActionNotFound         = "NOT_FOUND"
)

// StagedAction is a proposed mutation recorded by the backend pending user
// confirmation. The coordinator never caches these past the current turn;
// every lookup re-queries the backend.
type StagedAction struct {
	ActionID   string `json:"actionId"`            // Backend-assigned opaque identifier
	ActionType string `json:"actionType"`          // "CREATE_INCIDENT", "UPDATE_INCIDENT", …
	Status     string `json:"status"`              // One of the Action* constants
	Preview    string `json:"preview,omitempty"`   // Human-readable description of the pending mutation
	ExpiresAt  string `json:"expiresAt,omitempty"` // When the staged action lapses
	SessionID  string `json:"sessionId,omitempty"` // Owning session correlation key
}
