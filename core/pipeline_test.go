package core

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T, handler http.HandlerFunc) *Pipeline {
	t.Helper()
	client, config := newTestBackend(t, handler)
	return NewPipeline(client, config, testLogger())
}

// captureNotifier records notifications; the pipeline may emit them from
// its own goroutine.
type captureNotifier struct {
	mu       sync.Mutex
	statuses []string
}

func (n *captureNotifier) Notify(status string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, status)
}

func (n *captureNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.statuses...)
}

func conversation(utterance string) []Message {
	return []Message{{Role: RoleUser, Content: utterance}}
}

func TestProcessTurnGeneralPassThrough(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	in := conversation("hello there")
	out := p.ProcessTurn(context.Background(), in, Identity{}, nil)
	assert.Equal(t, in, out)
}

func TestProcessTurnEmptyConversation(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	assert.Empty(t, p.ProcessTurn(context.Background(), nil, Identity{}, nil))

	systemOnly := []Message{{Role: RoleSystem, Content: "setup"}}
	assert.Equal(t, systemOnly, p.ProcessTurn(context.Background(), systemOnly, Identity{}, nil))
}

func TestProcessTurnHelp(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected")
	})

	out := p.ProcessTurn(context.Background(), conversation("help"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Equal(t, RoleSystem, out[1].Role)
	assert.Contains(t, out[1].Content, HelpMarker)
	assert.Contains(t, out[1].Content, "IT Support Agent Capabilities")
}

func TestProcessTurnCreateInjectsContext(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tool-server/incidents/search":
			searchHits(w, SearchResult{ID: "INC9", ScorePercent: 88, Title: "printer jam"})
		case "/tool-server/knowledge/search":
			searchHits(w)
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	notifier := &captureNotifier{}
	out := p.ProcessTurn(context.Background(), conversation("create a ticket for printer jam"),
		Identity{UserID: "u1"}, notifier)

	require.Len(t, out, 2)
	assert.Equal(t, RoleSystem, out[1].Role)
	assert.Contains(t, out[1].Content, ContextMarker)
	assert.Contains(t, out[1].Content, "- INC9 (88%): printer jam")

	statuses := notifier.all()
	assert.Contains(t, statuses, "Searching for similar incidents...")
	assert.Contains(t, statuses, "Found related records")
}

func TestProcessTurnCreateNoHitsPassesThrough(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		searchHits(w)
	})

	in := conversation("create a ticket for something novel")
	out := p.ProcessTurn(context.Background(), in, Identity{}, nil)
	assert.Equal(t, in, out)
}

func TestProcessTurnGetIncidentByBareID(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tool-server/incidents/INC000042", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"incidentNumber": "INC000042",
			"summary":        "stuck build",
			"status":         "Assigned",
		})
	})

	out := p.ProcessTurn(context.Background(), conversation("any update on inc000042 today?"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "**Incident INC000042 Details:**")
}

func TestProcessTurnConfirmSinglePending(t *testing.T) {
	var confirmedID string
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tool-server/actions/pending":
			json.NewEncoder(w).Encode([]map[string]any{
				{"actionId": "act_1", "actionType": "CREATE_INCIDENT", "status": "STAGED"},
			})
		case "/tool-server/actions/confirm":
			confirmedID = r.URL.Query().Get("actionId")
			json.NewEncoder(w).Encode(map[string]any{
				"status": "EXECUTED", "recordId": "INC7", "recordType": "Incident",
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	out := p.ProcessTurn(context.Background(), conversation("confirm"), Identity{UserID: "u1"}, nil)
	require.Len(t, out, 2)
	assert.Equal(t, "act_1", confirmedID, "single pending action resolved automatically")
	assert.Contains(t, out[1].Content, "**Success!** Incident **INC7** has been created.")
}

func TestProcessTurnConfirmWithExplicitID(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tool-server/actions/confirm", r.URL.Path, "explicit ID skips the pending lookup")
		assert.Equal(t, "act_9", r.URL.Query().Get("actionId"))
		json.NewEncoder(w).Encode(map[string]any{"status": "EXECUTED", "recordId": "INC8"})
	})

	out := p.ProcessTurn(context.Background(), conversation("confirm act_9"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "INC8")
}

func TestProcessTurnConfirmNoPending(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tool-server/actions/pending", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{})
	})

	out := p.ProcessTurn(context.Background(), conversation("yes"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "No pending actions in this session.")
}

func TestProcessTurnConfirmMultiplePendingListsThem(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tool-server/actions/pending", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"actionId": "act_1", "actionType": "CREATE_INCIDENT", "status": "STAGED"},
			{"actionId": "act_2", "actionType": "UPDATE_INCIDENT", "status": "STAGED"},
		})
	})

	out := p.ProcessTurn(context.Background(), conversation("confirm"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "# Pending Actions")
	assert.Contains(t, out[1].Content, "act_1")
	assert.Contains(t, out[1].Content, "act_2")
}

func TestProcessTurnCancel(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/tool-server/actions/pending":
			json.NewEncoder(w).Encode([]map[string]any{
				{"actionId": "act_1", "actionType": "CREATE_INCIDENT", "status": "STAGED"},
			})
		case "/tool-server/actions/cancel":
			json.NewEncoder(w).Encode(map[string]any{"status": "CANCELLED"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	out := p.ProcessTurn(context.Background(), conversation("cancel incident creation"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "**Action Cancelled:**")
}

func TestProcessTurnResolutionErrorSurfaced(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	out := p.ProcessTurn(context.Background(), conversation("list pending actions"), Identity{}, nil)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, "**Error:**")
}

func TestProcessTurnListPending(t *testing.T) {
	p := newTestPipeline(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tool-server/actions/pending", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"actionId": "act_1", "actionType": "CREATE_INCIDENT", "status": "STAGED"},
		})
	})

	notifier := &captureNotifier{}
	out := p.ProcessTurn(context.Background(), conversation("list pending actions"), Identity{UserID: "u1"}, notifier)
	require.Len(t, out, 2)
	assert.Contains(t, out[1].Content, ContextMarker)
	assert.Contains(t, out[1].Content, "act_1")
	assert.Contains(t, notifier.all(), "Fetching pending actions...")
}
