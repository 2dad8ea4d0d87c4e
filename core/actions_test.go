package core

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionIdentity(t *testing.T) {
	assert.Equal(t, "agent-u1", SessionIdentity("u1", "u1@example.com"))
	assert.Equal(t, "agent-u1@example.com", SessionIdentity("", "u1@example.com"))
	assert.Equal(t, "agent-anonymous", SessionIdentity("", ""))
}

func TestClampLevel(t *testing.T) {
	assert.Equal(t, 3, clampLevel(0, 3), "zero takes the default")
	assert.Equal(t, 2, clampLevel(2, 3))
	assert.Equal(t, 1, clampLevel(-5, 3))
	assert.Equal(t, 4, clampLevel(9, 3))
}

func newTestCoordinator(t *testing.T, handler http.HandlerFunc) *Coordinator {
	t.Helper()
	client, config := newTestBackend(t, handler)
	return NewCoordinator(client, config, testLogger())
}

func TestStageIncident(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tool-server/incidents", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Printer broken", body["summary"])
		assert.Equal(t, float64(3), body["impact"], "default applied for zero impact")
		assert.Equal(t, float64(2), body["urgency"])
		assert.Equal(t, "agent-u1", body["sessionId"])
		assert.Equal(t, true, body["requireConfirmation"])
		_, hasCategory := body["category"]
		assert.False(t, hasCategory, "empty category must be omitted")

		json.NewEncoder(w).Encode(map[string]any{
			"status":    "STAGED",
			"actionId":  "act_1",
			"preview":   "Summary: Printer broken",
			"expiresAt": "2025-01-10T12:00:00Z",
		})
	})

	res, err := co.StageIncident(context.Background(), IncidentRequest{
		Summary: "Printer broken",
		Urgency: 2,
	}, "agent-u1")
	require.NoError(t, err)
	assert.Equal(t, ActionStaged, res.Status)
	assert.Equal(t, "act_1", res.Action.ActionID)
	assert.Equal(t, "Summary: Printer broken", res.Action.Preview)
}

func TestStageIncidentRequiresSummary(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	_, err := co.StageIncident(context.Background(), IncidentRequest{Summary: "   "}, "s")
	require.Error(t, err)
}

func TestStageIncidentDuplicateWarning(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "DUPLICATE_WARNING",
			"actionId": "act_2",
			"similarIncidents": []map[string]any{
				{"id": "INC9", "title": "same printer", "scorePercent": 92},
			},
		})
	})

	res, err := co.StageIncident(context.Background(), IncidentRequest{Summary: "printer"}, "s")
	require.NoError(t, err)
	assert.Equal(t, ActionDuplicateWarning, res.Status)
	require.Len(t, res.Similar, 1)
	assert.Equal(t, "INC9", res.Similar[0].ID)
	assert.Equal(t, 92, res.Similar[0].ScorePercent)
}

func TestStageUpdate(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/tool-server/incidents/INC000012345", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Resolved", body["status"])
		_, hasResolution := body["resolution"]
		assert.False(t, hasResolution)

		json.NewEncoder(w).Encode(map[string]any{"status": "STAGED", "actionId": "act_3"})
	})

	res, err := co.StageUpdate(context.Background(), "inc000012345", UpdateRequest{Status: "Resolved"}, "s")
	require.NoError(t, err)
	assert.Equal(t, ActionStaged, res.Status)
}

func TestStageUpdateRequiresFields(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	_, err := co.StageUpdate(context.Background(), "INC1", UpdateRequest{}, "s")
	require.Error(t, err)

	_, err = co.StageUpdate(context.Background(), "", UpdateRequest{Status: "Resolved"}, "s")
	require.Error(t, err)
}

func TestListPending(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tool-server/actions/pending", r.URL.Path)
		assert.Equal(t, "agent-u1", r.URL.Query().Get("sessionId"))
		json.NewEncoder(w).Encode([]map[string]any{
			{"actionId": "act_1", "actionType": "CREATE_INCIDENT", "status": "STAGED"},
		})
	})

	actions, err := co.ListPending(context.Background(), "agent-u1")
	require.NoError(t, err)
	require.Len(t, actions, 1)
	assert.Equal(t, "act_1", actions[0].ActionID)
}

func TestConfirmAndCancel(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "act_1", r.URL.Query().Get("actionId"))
		assert.Equal(t, "agent-u1", r.URL.Query().Get("sessionId"))

		switch r.URL.Path {
		case "/tool-server/actions/confirm":
			json.NewEncoder(w).Encode(map[string]any{
				"status": "EXECUTED", "recordId": "INC7", "recordType": "Incident",
			})
		case "/tool-server/actions/cancel":
			json.NewEncoder(w).Encode(map[string]any{"status": "CANCELLED"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	confirmed, err := co.Confirm(context.Background(), "act_1", "agent-u1")
	require.NoError(t, err)
	assert.Equal(t, ActionExecuted, confirmed.Status)
	assert.Equal(t, "INC7", confirmed.RecordID)

	cancelled, err := co.Cancel(context.Background(), "act_1", "agent-u1")
	require.NoError(t, err)
	assert.Equal(t, ActionCancelled, cancelled.Status)
}

func TestConfirmRequiresActionID(t *testing.T) {
	co := newTestCoordinator(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	_, err := co.Confirm(context.Background(), "", "s")
	require.Error(t, err)
}
