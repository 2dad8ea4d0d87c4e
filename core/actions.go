/*
Staged-action coordinator (core/actions.go).

Client-side half of the stage/confirm/cancel protocol. Write requests are
never executed directly: the coordinator stages them with the backend,
interprets the status the backend returns, and later resolves them through
confirm or cancel. The coordinator itself is stateless; every piece of
action state lives in the backend's action store, so concurrent sessions
and process restarts need no local bookkeeping.
*/
package core

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// SessionIdentity derives the stable session key sent to the backend for
// action correlation. The user ID wins over the email; with neither, all
// traffic shares the anonymous session.
func SessionIdentity(userID, email string) string {
	switch {
	case userID != "":
		return "agent-" + userID
	case email != "":
		return "agent-" + email
	default:
		return "agent-anonymous"
	}
}

// IncidentRequest is the input to StageIncident. Impact and urgency may be
// zero; the coordinator applies the configured defaults and clamps the
// values into the valid 1-4 range.
type IncidentRequest struct {
	Summary       string
	Description   string
	Impact        int
	Urgency       int
	Category      string
	AssignedGroup string
}

// UpdateRequest is the input to StageUpdate. At least one field must be
// set.
type UpdateRequest struct {
	Status       string
	WorkLogNotes string
	Resolution   string
}

// StageResult is the interpreted outcome of a staging call. Status is one
// of the Action* constants; Similar is populated for DUPLICATE_WARNING and
// IncidentNumber for CREATED (direct execution with confirmation off).
type StageResult struct {
	Status         string
	Action         StagedAction
	Similar        []SearchResult
	IncidentNumber string
	Message        string
}

// ConfirmResult is the interpreted outcome of a confirm or cancel call.
type ConfirmResult struct {
	Status     string
	RecordID   string
	RecordType string
	Message    string
}

// stageResponse is the wire shape shared by the staging endpoints.
type stageResponse struct {
	Status           string         `json:"status"`
	ActionID         string         `json:"actionId"`
	ActionType       string         `json:"actionType"`
	Preview          string         `json:"preview"`
	ExpiresAt        string         `json:"expiresAt"`
	SimilarIncidents []SearchResult `json:"similarIncidents"`
	IncidentNumber   string         `json:"incidentNumber"`
	Message          string         `json:"message"`
}

// Coordinator stages writes and resolves them. Safe for concurrent use.
type Coordinator struct {
	client *Client
	config *Config
	logger *logrus.Entry
}

// NewCoordinator builds a coordinator over the shared backend client.
func NewCoordinator(client *Client, config *Config, logger *logrus.Logger) *Coordinator {
	return &Coordinator{
		client: client,
		config: config,
		logger: logger.WithField("component", "coordinator"),
	}
}

// StageIncident submits an incident-creation request. With confirmation
// required (the default) the backend stages the action and the result
// carries STAGED or DUPLICATE_WARNING; with confirmation off the backend
// may execute directly and answer CREATED.
func (co *Coordinator) StageIncident(ctx context.Context, req IncidentRequest, sessionID string) (*StageResult, error) {
	if strings.TrimSpace(req.Summary) == "" {
		return nil, fmt.Errorf("incident summary is required")
	}

	body := map[string]any{
		"summary":             req.Summary,
		"description":         req.Description,
		"impact":              clampLevel(req.Impact, co.config.DefaultImpact),
		"urgency":             clampLevel(req.Urgency, co.config.DefaultUrgency),
		"sessionId":           sessionID,
		"requireConfirmation": co.config.RequireConfirmation,
	}
	if req.Category != "" {
		body["category"] = req.Category
	}
	if req.AssignedGroup != "" {
		body["assignedGroup"] = req.AssignedGroup
	}

	var resp stageResponse
	if err := co.client.Post(ctx, "/incidents", body, sessionID, &resp); err != nil {
		return nil, err
	}

	co.logger.WithFields(logrus.Fields{
		"status":   resp.Status,
		"actionId": resp.ActionID,
		"session":  sessionID,
	}).Info("Incident staging processed")

	return co.interpretStage(&resp), nil
}

// StageUpdate submits an incident update. The backend answers STAGED when
// confirmation is required, UPDATED on direct execution, or NOT_FOUND.
func (co *Coordinator) StageUpdate(ctx context.Context, incidentID string, req UpdateRequest, sessionID string) (*StageResult, error) {
	id := strings.ToUpper(strings.TrimSpace(incidentID))
	if id == "" {
		return nil, fmt.Errorf("incident ID is required")
	}
	if req.Status == "" && req.WorkLogNotes == "" && req.Resolution == "" {
		return nil, fmt.Errorf("no updates specified: provide status, work log notes, or resolution")
	}

	body := map[string]any{
		"requireConfirmation": co.config.RequireConfirmation,
	}
	if req.Status != "" {
		body["status"] = req.Status
	}
	if req.WorkLogNotes != "" {
		body["workLogNotes"] = req.WorkLogNotes
	}
	if req.Resolution != "" {
		body["resolution"] = req.Resolution
	}

	var resp stageResponse
	if err := co.client.Put(ctx, "/incidents/"+id, body, sessionID, &resp); err != nil {
		return nil, err
	}

	co.logger.WithFields(logrus.Fields{
		"status":   resp.Status,
		"incident": id,
		"session":  sessionID,
	}).Info("Incident update processed")

	return co.interpretStage(&resp), nil
}

func (co *Coordinator) interpretStage(resp *stageResponse) *StageResult {
	return &StageResult{
		Status: resp.Status,
		Action: StagedAction{
			ActionID:   resp.ActionID,
			ActionType: resp.ActionType,
			Status:     resp.Status,
			Preview:    resp.Preview,
			ExpiresAt:  resp.ExpiresAt,
		},
		Similar:        resp.SimilarIncidents,
		IncidentNumber: resp.IncidentNumber,
		Message:        resp.Message,
	}
}

// ListPending returns the session's staged actions. An empty list is a
// normal answer, not an error.
func (co *Coordinator) ListPending(ctx context.Context, sessionID string) ([]StagedAction, error) {
	query := url.Values{"sessionId": {sessionID}}
	var actions []StagedAction
	if err := co.client.Get(ctx, "/actions/pending", query, sessionID, &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

// resolveResponse is the wire shape of the confirm and cancel endpoints.
type resolveResponse struct {
	Status     string `json:"status"`
	RecordID   string `json:"recordId"`
	RecordType string `json:"recordType"`
	Message    string `json:"message"`
}

// Confirm executes a staged action. A second confirm of the same action
// yields NOT_FOUND from the backend; that is an expected outcome, not an
// error.
func (co *Coordinator) Confirm(ctx context.Context, actionID, sessionID string) (*ConfirmResult, error) {
	return co.resolve(ctx, "/actions/confirm", actionID, sessionID)
}

// Cancel discards a staged action without executing it.
func (co *Coordinator) Cancel(ctx context.Context, actionID, sessionID string) (*ConfirmResult, error) {
	return co.resolve(ctx, "/actions/cancel", actionID, sessionID)
}

func (co *Coordinator) resolve(ctx context.Context, path, actionID, sessionID string) (*ConfirmResult, error) {
	if strings.TrimSpace(actionID) == "" {
		return nil, fmt.Errorf("action ID is required")
	}

	query := url.Values{
		"actionId":  {actionID},
		"sessionId": {sessionID},
	}
	raw, err := co.client.Call(ctx, http.MethodPost, path, nil, query, sessionID)
	if err != nil {
		return nil, err
	}

	var resp resolveResponse
	if err := co.client.decode("POST "+path, raw, &resp); err != nil {
		return nil, err
	}

	co.logger.WithFields(logrus.Fields{
		"status":   resp.Status,
		"actionId": actionID,
		"session":  sessionID,
	}).Info("Action resolution processed")

	return &ConfirmResult{
		Status:     resp.Status,
		RecordID:   resp.RecordID,
		RecordType: resp.RecordType,
		Message:    resp.Message,
	}, nil
}

// clampLevel applies the default for zero values and clamps into the 1-4
// impact/urgency range.
func clampLevel(level, fallback int) int {
	if level == 0 {
		level = fallback
	}
	if level < 1 {
		return 1
	}
	if level > 4 {
		return 4
	}
	return level
}
