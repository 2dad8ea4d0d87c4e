/*
Enrichment engine (core/enrich.go).

For intents that benefit from context, the engine issues read-only backend
calls and assembles a structured payload of named sections. It never
mutates conversation state itself; the orchestrator decides how the
payload becomes a message. Enrichment is strictly best-effort: any backend
failure degrades the affected section to absent and the turn continues.
*/
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Relevance thresholds per call site. Pre-creation duplicate checks demand
// high similarity; explicit searches cast a wider net.
const (
	similarIncidentMinScore  = 0.5
	kbSuggestionMinScore     = 0.4
	incidentSearchMinScore   = 0.3
	knowledgeSearchMinScore  = 0.4
	knowledgeSuggestionLimit = 3
)

// Payload is the enrichment result: a list of named sections in render
// order. Absent sections are simply not present; an empty payload means
// the turn gets no context injection.
type Payload struct {
	Sections []Section
}

// Section is one titled block of enrichment context.
type Section struct {
	Title string
	Body  string
}

// IsEmpty reports whether the payload carries any content.
func (p *Payload) IsEmpty() bool { return len(p.Sections) == 0 }

// Render joins the sections into the context text injected into the
// conversation.
func (p *Payload) Render() string {
	parts := make([]string, 0, len(p.Sections))
	for _, s := range p.Sections {
		if s.Title != "" {
			parts = append(parts, s.Title+"\n"+s.Body)
		} else {
			parts = append(parts, s.Body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Enricher issues the read-only lookups behind context injection.
type Enricher struct {
	client *Client
	config *Config
	logger *logrus.Entry
}

// NewEnricher builds an enricher over the shared backend client.
func NewEnricher(client *Client, config *Config, logger *logrus.Logger) *Enricher {
	return &Enricher{
		client: client,
		config: config,
		logger: logger.WithField("component", "enricher"),
	}
}

// Enrich produces the context payload for one classified turn. param is
// the classifier's extracted parameter (incident number for GetIncident).
// Failures are logged and degrade to absent sections; Enrich never
// returns an error.
func (e *Enricher) Enrich(ctx context.Context, intent Intent, utterance, param, sessionID string) *Payload {
	switch intent {
	case IntentCreateIncident:
		return e.enrichForCreation(ctx, utterance, sessionID)
	case IntentSearchIncidents:
		return e.enrichIncidentSearch(ctx, utterance, sessionID)
	case IntentSearchKnowledge:
		return e.enrichKnowledge(ctx, utterance, sessionID)
	case IntentGetIncident:
		return e.enrichIncident(ctx, param, sessionID)
	default:
		return &Payload{}
	}
}

// enrichForCreation runs the pre-creation duplicate check and, when
// enabled, the knowledge suggestion search. The two searches run
// concurrently and are both awaited before assembling the payload.
func (e *Enricher) enrichForCreation(ctx context.Context, utterance, sessionID string) *Payload {
	payload := &Payload{}
	if !e.config.AutoSearch {
		return payload
	}

	var (
		wg       sync.WaitGroup
		similar  []SearchResult
		articles []SearchResult
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		results, _, err := e.client.SearchIncidents(ctx, SearchQuery{
			Query:    utterance,
			Limit:    e.config.MaxSimilarIncidents,
			MinScore: similarIncidentMinScore,
		}, sessionID)
		if err != nil {
			e.logger.WithError(err).Debug("Similar incident search failed")
			return
		}
		similar = results
	}()

	if e.config.KBSuggestions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := e.client.SearchKnowledge(ctx, SearchQuery{
				Query:    utterance,
				Limit:    knowledgeSuggestionLimit,
				MinScore: kbSuggestionMinScore,
			}, sessionID)
			if err != nil {
				e.logger.WithError(err).Debug("Knowledge suggestion search failed")
				return
			}
			articles = results
		}()
	}

	wg.Wait()

	if len(similar) > 0 {
		payload.Sections = append(payload.Sections, Section{
			Title: fmt.Sprintf("**Similar Incidents Found (%d):**", len(similar)),
			Body:  FormatResultList(similar),
		})
	}
	if len(articles) > 0 {
		payload.Sections = append(payload.Sections, Section{
			Title: fmt.Sprintf("**Relevant Knowledge Articles (%d):**", len(articles)),
			Body:  FormatResultList(articles),
		})
	}
	if !payload.IsEmpty() {
		payload.Sections = append(payload.Sections, Section{
			Body: "> Review these before creating a new incident.",
		})
	}
	return payload
}

func (e *Enricher) enrichIncidentSearch(ctx context.Context, utterance, sessionID string) *Payload {
	payload := &Payload{}
	results, _, err := e.client.SearchIncidents(ctx, SearchQuery{
		Query:    utterance,
		Limit:    e.config.MaxResults,
		MinScore: incidentSearchMinScore,
	}, sessionID)
	if err != nil {
		e.logger.WithError(err).Debug("Incident search failed")
		return payload
	}
	if len(results) == 0 {
		return payload
	}
	payload.Sections = append(payload.Sections, Section{
		Title: fmt.Sprintf("**Matching Incidents (%d):**", len(results)),
		Body:  FormatResultList(results),
	})
	return payload
}

func (e *Enricher) enrichKnowledge(ctx context.Context, utterance, sessionID string) *Payload {
	payload := &Payload{}
	articles, err := e.client.SearchKnowledge(ctx, SearchQuery{
		Query:    utterance,
		Limit:    knowledgeSuggestionLimit,
		MinScore: knowledgeSearchMinScore,
	}, sessionID)
	if err != nil {
		e.logger.WithError(err).Debug("Knowledge search failed")
		return payload
	}
	if len(articles) == 0 {
		return payload
	}
	payload.Sections = append(payload.Sections, Section{
		Title: fmt.Sprintf("**Relevant Knowledge Articles (%d):**", len(articles)),
		Body:  FormatResultList(articles),
	})
	return payload
}

// enrichIncident fetches a compact summary of one incident. The full
// detail view stays in the tool layer; context injection only needs the
// headline fields.
func (e *Enricher) enrichIncident(ctx context.Context, incidentID, sessionID string) *Payload {
	payload := &Payload{}
	if incidentID == "" {
		return payload
	}

	detail, err := e.client.GetIncident(ctx, incidentID, sessionID)
	if err != nil {
		e.logger.WithError(err).WithField("incident", incidentID).Debug("Incident fetch failed")
		return payload
	}
	if !detail.IsFound() {
		return payload
	}

	var b strings.Builder
	fmt.Fprintf(&b, "- Summary: %s\n", orDefault(detail.Summary, "N/A"))
	fmt.Fprintf(&b, "- Status: %s\n", orDefault(detail.Status, "N/A"))
	fmt.Fprintf(&b, "- Priority: %s\n", orDefault(detail.PriorityLabel, "N/A"))
	fmt.Fprintf(&b, "- Assigned: %s", orDefault(detail.AssignedGroup, "N/A"))

	payload.Sections = append(payload.Sections, Section{
		Title: fmt.Sprintf("**Incident %s Details:**", incidentID),
		Body:  b.String(),
	})
	return payload
}
