/*
Orchestrator pipeline (core/pipeline.go).

ProcessTurn is the entry point invoked once per inbound message. It
classifies the latest user utterance, dispatches to enrichment or the
staged-action coordinator, and returns the conversation with at most one
appended system message. Progress is reported through an injected
Notifier; notifications are advisory and never affect the result.

The pipeline has no fatal failure path. Enrichment errors degrade to a
pass-through turn; coordinator errors on confirm, cancel or listing are
surfaced to the user inside the appended status text.
*/
package core

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Markers prefixing every injected system message, so downstream consumers
// (and the model) can tell agent-injected context from user content.
const (
	ContextMarker = "[IT Support Agent Context]"
	HelpMarker    = "[IT Support Agent Help]"
)

// Notifier receives progress notifications during a turn. Implementations
// must be safe to call from the pipeline goroutine; delivery is
// fire-and-forget.
type Notifier interface {
	Notify(status string)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(status string)

func (f NotifierFunc) Notify(status string) { f(status) }

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(string) {}

const helpText = `**IT Support Agent Capabilities:**

**Incident Management:**
- ` + "`create incident for <description>`" + ` - Create a new incident
- ` + "`search incidents about <topic>`" + ` - Find similar incidents
- ` + "`show incident INC000001`" + ` - Get incident details
- ` + "`update incident INC000001`" + ` - Update an incident

**Knowledge Base:**
- ` + "`how to <task>`" + ` - Find how-to guides
- ` + "`search knowledge for <topic>`" + ` - Search KB articles
- ` + "`solution for <problem>`" + ` - Find solutions

**Workflow:**
- ` + "`confirm`" + ` - Confirm a staged action
- ` + "`cancel`" + ` - Cancel a staged action
- ` + "`list pending actions`" + ` - Show staged actions

**Tips:**
- I'll automatically search for duplicates before creating incidents
- I'll suggest relevant KB articles for your issues
- All write operations require your confirmation`

// Pipeline composes the classifier, enricher and coordinator into the
// per-turn orchestration flow.
type Pipeline struct {
	enricher    *Enricher
	coordinator *Coordinator
	logger      *logrus.Entry
}

// NewPipeline wires a pipeline over the shared backend client.
func NewPipeline(client *Client, config *Config, logger *logrus.Logger) *Pipeline {
	return &Pipeline{
		enricher:    NewEnricher(client, config, logger),
		coordinator: NewCoordinator(client, config, logger),
		logger:      logger.WithField("component", "pipeline"),
	}
}

// ProcessTurn runs one orchestration turn over the conversation. The
// returned slice is the input conversation plus at most one appended
// system message; an empty conversation or one whose last user message is
// missing comes back unchanged.
func (p *Pipeline) ProcessTurn(ctx context.Context, conversation []Message, identity Identity, notifier Notifier) []Message {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if len(conversation) == 0 {
		return conversation
	}

	utterance := latestUserMessage(conversation)
	if utterance == "" {
		return conversation
	}

	c := Classify(utterance)
	sessionID := SessionIdentity(identity.UserID, identity.Email)

	p.logger.WithFields(logrus.Fields{
		"intent":  c.Intent,
		"param":   c.Param,
		"session": sessionID,
	}).Debug("Turn classified")

	switch c.Intent {
	case IntentConfirmAction:
		return p.appendContext(conversation, p.resolveAction(ctx, c.Param, sessionID, notifier, true))
	case IntentCancelAction:
		return p.appendContext(conversation, p.resolveAction(ctx, c.Param, sessionID, notifier, false))
	case IntentListPending:
		return p.appendContext(conversation, p.listPending(ctx, sessionID, notifier))
	case IntentHelp:
		return append(conversation, Message{
			Role:    RoleSystem,
			Content: HelpMarker + "\n\n" + helpText,
		})
	case IntentCreateIncident, IntentSearchIncidents, IntentSearchKnowledge, IntentGetIncident:
		return p.enrichTurn(ctx, conversation, c, utterance, sessionID, notifier)
	default:
		return conversation
	}
}

func latestUserMessage(conversation []Message) string {
	for i := len(conversation) - 1; i >= 0; i-- {
		if conversation[i].Role == RoleUser {
			return conversation[i].Content
		}
	}
	return ""
}

func (p *Pipeline) appendContext(conversation []Message, content string) []Message {
	if content == "" {
		return conversation
	}
	return append(conversation, Message{
		Role:    RoleSystem,
		Content: ContextMarker + "\n\n" + content,
	})
}

func (p *Pipeline) enrichTurn(ctx context.Context, conversation []Message, c Classification, utterance, sessionID string, notifier Notifier) []Message {
	switch c.Intent {
	case IntentCreateIncident:
		notifier.Notify("Searching for similar incidents...")
	case IntentSearchIncidents:
		notifier.Notify("Searching incidents...")
	case IntentSearchKnowledge:
		notifier.Notify("Searching knowledge base...")
	case IntentGetIncident:
		notifier.Notify(fmt.Sprintf("Fetching %s...", c.Param))
	}

	param := c.Param
	if c.Intent == IntentGetIncident && param == "" {
		param = ExtractIncidentID(utterance)
	}

	payload := p.enricher.Enrich(ctx, c.Intent, utterance, param, sessionID)
	if payload.IsEmpty() {
		return conversation
	}

	if c.Intent == IntentCreateIncident {
		notifier.Notify("Found related records")
	}
	return p.appendContext(conversation, payload.Render())
}

// resolveAction handles confirm and cancel turns. With an explicit action
// ID it resolves that action directly. Without one it consults the
// session's pending list: a single pending action is resolved
// automatically, multiple are listed for disambiguation, and none yields
// the empty-state text.
func (p *Pipeline) resolveAction(ctx context.Context, actionID, sessionID string, notifier Notifier, confirm bool) string {
	if confirm {
		notifier.Notify("Processing confirmation...")
	} else {
		notifier.Notify("Processing cancellation...")
	}

	if actionID == "" {
		pending, err := p.coordinator.ListPending(ctx, sessionID)
		if err != nil {
			p.logger.WithError(err).Warn("Pending action lookup failed")
			return fmt.Sprintf("**Error:** %s", err)
		}
		switch len(pending) {
		case 0:
			return "No pending actions in this session."
		case 1:
			actionID = pending[0].ActionID
		default:
			return FormatPendingActions(pending)
		}
	}

	var (
		result *ConfirmResult
		err    error
	)
	if confirm {
		result, err = p.coordinator.Confirm(ctx, actionID, sessionID)
	} else {
		result, err = p.coordinator.Cancel(ctx, actionID, sessionID)
	}
	if err != nil {
		p.logger.WithError(err).WithField("actionId", actionID).Warn("Action resolution failed")
		return fmt.Sprintf("**Error:** %s", err)
	}

	if confirm {
		return FormatConfirmResult(result)
	}
	return FormatCancelResult(result)
}

func (p *Pipeline) listPending(ctx context.Context, sessionID string, notifier Notifier) string {
	notifier.Notify("Fetching pending actions...")

	pending, err := p.coordinator.ListPending(ctx, sessionID)
	if err != nil {
		p.logger.WithError(err).Warn("Pending action lookup failed")
		return fmt.Sprintf("**Error:** %s", err)
	}
	return FormatPendingActions(pending)
}
