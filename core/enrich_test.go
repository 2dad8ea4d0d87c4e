package core

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEnricher(t *testing.T, handler http.HandlerFunc) (*Enricher, *Config) {
	t.Helper()
	client, config := newTestBackend(t, handler)
	return NewEnricher(client, config, testLogger()), config
}

func searchHits(w http.ResponseWriter, hits ...SearchResult) {
	json.NewEncoder(w).Encode(map[string]any{"results": hits})
}

func TestEnrichForCreation(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		switch r.URL.Path {
		case "/tool-server/incidents/search":
			assert.Equal(t, 0.5, req["minScore"])
			assert.Equal(t, float64(3), req["limit"])
			searchHits(w, SearchResult{ID: "INC9", ScorePercent: 88, Title: "printer jam"})
		case "/tool-server/knowledge/search":
			assert.Equal(t, 0.4, req["minScore"])
			searchHits(w, SearchResult{ID: "KBA1", ScorePercent: 70, Title: "clearing paper jams"})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	})

	payload := enricher.Enrich(context.Background(), IntentCreateIncident, "create a ticket for printer jam", "", "s")
	require.False(t, payload.IsEmpty())

	rendered := payload.Render()
	assert.Contains(t, rendered, "**Similar Incidents Found (1):**")
	assert.Contains(t, rendered, "- INC9 (88%): printer jam")
	assert.Contains(t, rendered, "**Relevant Knowledge Articles (1):**")
	assert.Contains(t, rendered, "- KBA1 (70%): clearing paper jams")
	assert.Contains(t, rendered, "> Review these before creating a new incident.")
}

func TestEnrichForCreationAutoSearchOff(t *testing.T) {
	enricher, config := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no backend call expected with auto search disabled")
	})
	config.AutoSearch = false

	payload := enricher.Enrich(context.Background(), IntentCreateIncident, "new ticket", "", "s")
	assert.True(t, payload.IsEmpty())
}

func TestEnrichForCreationKBSuggestionsOff(t *testing.T) {
	enricher, config := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tool-server/incidents/search", r.URL.Path)
		searchHits(w, SearchResult{ID: "INC9", ScorePercent: 88, Title: "printer jam"})
	})
	config.KBSuggestions = false

	payload := enricher.Enrich(context.Background(), IntentCreateIncident, "new ticket", "", "s")
	rendered := payload.Render()
	assert.Contains(t, rendered, "**Similar Incidents Found (1):**")
	assert.NotContains(t, rendered, "Knowledge Articles")
}

// A failing backend never fails the turn; enrichment just comes back empty.
func TestEnrichDegradesOnBackendError(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	for _, intent := range []Intent{IntentCreateIncident, IntentSearchIncidents, IntentSearchKnowledge} {
		payload := enricher.Enrich(context.Background(), intent, "anything", "", "s")
		assert.True(t, payload.IsEmpty(), "intent %s", intent)
	}
}

func TestEnrichIncidentSearch(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.3, req["minScore"])
		assert.Equal(t, float64(5), req["limit"])
		searchHits(w,
			SearchResult{ID: "INC1", ScorePercent: 75, Title: "vpn drops"},
			SearchResult{ID: "INC2", ScorePercent: 60, Title: "vpn slow"},
		)
	})

	payload := enricher.Enrich(context.Background(), IntentSearchIncidents, "search incidents about vpn", "", "s")
	rendered := payload.Render()
	assert.Contains(t, rendered, "**Matching Incidents (2):**")
	assert.Contains(t, rendered, "- INC2 (60%): vpn slow")
}

func TestEnrichKnowledgeEmptyResults(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		searchHits(w)
	})

	payload := enricher.Enrich(context.Background(), IntentSearchKnowledge, "how to fly", "", "s")
	assert.True(t, payload.IsEmpty())
}

func TestEnrichIncidentDetails(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tool-server/incidents/INC000012345", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"incidentNumber": "INC000012345",
			"summary":        "Email down",
			"status":         "In Progress",
			"priorityLabel":  "High",
			"assignedGroup":  "Service Desk",
		})
	})

	payload := enricher.Enrich(context.Background(), IntentGetIncident, "get incident INC000012345", "INC000012345", "s")
	rendered := payload.Render()
	assert.Contains(t, rendered, "**Incident INC000012345 Details:**")
	assert.Contains(t, rendered, "- Summary: Email down")
	assert.Contains(t, rendered, "- Assigned: Service Desk")
}

func TestEnrichIncidentNotFound(t *testing.T) {
	enricher, _ := newTestEnricher(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"found": false})
	})

	payload := enricher.Enrich(context.Background(), IntentGetIncident, "get incident INC999", "INC999", "s")
	assert.True(t, payload.IsEmpty())
}
