/*
Typed read operations over the backend client (core/records.go).

The raw Client speaks JSON; this file gives the enrichment engine and the
tool layer typed access to the read-only surface: semantic searches over
incidents, knowledge and work orders, and detail lookups by record ID.
*/
package core

import (
	"context"
	"fmt"
	"strings"
)

// searchRequest is the common body of the backend's semantic search
// endpoints.
type searchRequest struct {
	Query    string            `json:"query"`
	Limit    int               `json:"limit"`
	MinScore float64           `json:"minScore"`
	Filters  map[string]string `json:"filters,omitempty"`
}

// searchResponse wraps the hits plus the backend's duplicate heuristic.
type searchResponse struct {
	Results                []SearchResult `json:"results"`
	HasPotentialDuplicates bool           `json:"hasPotentialDuplicates"`
}

// SearchQuery carries the parameters of one semantic search call. MinScore
// is a call-site decision; each caller passes its own threshold.
type SearchQuery struct {
	Query    string
	Limit    int
	MinScore float64
	Category string // Knowledge search only; empty means no filter
}

// SearchIncidents runs a semantic search over incidents. The second return
// reports whether the backend flagged the hits as potential duplicates.
func (c *Client) SearchIncidents(ctx context.Context, q SearchQuery, sessionID string) ([]SearchResult, bool, error) {
	var resp searchResponse
	err := c.Post(ctx, "/incidents/search", searchRequest{
		Query:    q.Query,
		Limit:    q.Limit,
		MinScore: q.MinScore,
	}, sessionID, &resp)
	if err != nil {
		return nil, false, err
	}
	return resp.Results, resp.HasPotentialDuplicates, nil
}

// SearchKnowledge runs a semantic search over knowledge articles, with an
// optional category filter.
func (c *Client) SearchKnowledge(ctx context.Context, q SearchQuery, sessionID string) ([]SearchResult, error) {
	req := searchRequest{
		Query:    q.Query,
		Limit:    q.Limit,
		MinScore: q.MinScore,
	}
	if q.Category != "" {
		req.Filters = map[string]string{"category": q.Category}
	}
	var resp searchResponse
	if err := c.Post(ctx, "/knowledge/search", req, sessionID, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// SearchWorkOrders runs a semantic search over work orders.
func (c *Client) SearchWorkOrders(ctx context.Context, q SearchQuery, sessionID string) ([]SearchResult, error) {
	var resp searchResponse
	err := c.Post(ctx, "/workorders/search", searchRequest{
		Query:    q.Query,
		Limit:    q.Limit,
		MinScore: q.MinScore,
	}, sessionID, &resp)
	if err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// WorkLog is one work-log entry attached to an incident.
type WorkLog struct {
	Type       string `json:"type"`
	SubmitDate string `json:"submitDate"`
	Submitter  string `json:"submitter"`
	Notes      string `json:"notes"`
}

// IncidentDetail is the full incident record returned by the detail
// endpoint. The backend answers 200 with found=false for unknown IDs
// rather than 404; a missing found field means the record exists.
type IncidentDetail struct {
	Found          *bool     `json:"found,omitempty"`
	IncidentNumber string    `json:"incidentNumber"`
	Summary        string    `json:"summary"`
	Status         string    `json:"status"`
	ImpactLabel    string    `json:"impactLabel"`
	UrgencyLabel   string    `json:"urgencyLabel"`
	PriorityLabel  string    `json:"priorityLabel"`
	AssignedGroup  string    `json:"assignedGroup"`
	AssignedTo     string    `json:"assignedTo"`
	Submitter      string    `json:"submitter"`
	Description    string    `json:"description"`
	Resolution     string    `json:"resolution"`
	WorkLogs       []WorkLog `json:"workLogs"`
}

// IsFound reports whether the record exists. Absence of the found field
// counts as found.
func (d *IncidentDetail) IsFound() bool { return d.Found == nil || *d.Found }

// GetIncident fetches one incident by its number.
func (c *Client) GetIncident(ctx context.Context, incidentID, sessionID string) (*IncidentDetail, error) {
	id := strings.ToUpper(strings.TrimSpace(incidentID))
	if id == "" {
		return nil, fmt.Errorf("incident ID is required")
	}
	var detail IncidentDetail
	if err := c.Get(ctx, "/incidents/"+id, nil, sessionID, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Attachment describes one file attached to a knowledge article.
type Attachment struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// ArticleDetail is the full knowledge article returned by the detail
// endpoint.
type ArticleDetail struct {
	Found           *bool        `json:"found,omitempty"`
	ArticleID       string       `json:"articleId"`
	Title           string       `json:"title"`
	ArticleType     string       `json:"articleType"`
	CategoryPath    string       `json:"categoryPath"`
	Status          string       `json:"status"`
	Author          string       `json:"author"`
	ViewCount       int          `json:"viewCount"`
	PublishedDate   string       `json:"publishedDate"`
	Keywords        []string     `json:"keywords"`
	Summary         string       `json:"summary"`
	Content         string       `json:"content"`
	Attachments     []Attachment `json:"attachments"`
	RelatedArticles []string     `json:"relatedArticles"`
}

// IsFound reports whether the article exists. Absence of the found field
// counts as found.
func (d *ArticleDetail) IsFound() bool { return d.Found == nil || *d.Found }

// GetArticle fetches one knowledge article by its ID.
func (c *Client) GetArticle(ctx context.Context, articleID, sessionID string) (*ArticleDetail, error) {
	id := strings.TrimSpace(articleID)
	if id == "" {
		return nil, fmt.Errorf("article ID is required")
	}
	var detail ArticleDetail
	if err := c.Get(ctx, "/knowledge/"+id, nil, sessionID, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}
