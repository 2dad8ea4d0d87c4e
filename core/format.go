/*
Result formatting (core/format.go).

Shared rendering for everything the agent shows the user or injects into
the model context: search result lines, snippet truncation, incident and
article detail views, pending-action listings and staged-action outcomes.
Keeping the formatting in one place guarantees the enrichment engine and
the tool layer produce identical shapes for the same backend data.
*/
package core

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Snippet budgets by call site. Incident previews stay short; how-to and
// knowledge snippets get more room because the model quotes from them.
const (
	SnippetBudgetIncident  = 200
	SnippetBudgetHowTo     = 250
	SnippetBudgetKnowledge = 300
)

// FormatResultLine renders one search hit as `<id> (<pct>%): <title>`.
// This is the canonical line format; ParseResultLine inverts it.
func FormatResultLine(r SearchResult) string {
	return fmt.Sprintf("%s (%d%%): %s", r.ID, r.ScorePercent, r.Title)
}

// FormatResultList renders hits as a markdown bullet list of result lines.
func FormatResultList(results []SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, "- "+FormatResultLine(r))
	}
	return strings.Join(lines, "\n")
}

var resultLinePattern = regexp.MustCompile(`^(?:- )?(\S+) \((\d+)%\): (.*)$`)

// ParseResultLine recovers id, percent and title from a formatted result
// line, with or without the leading list bullet. The second return is
// false when the line does not match the format.
func ParseResultLine(line string) (SearchResult, bool) {
	m := resultLinePattern.FindStringSubmatch(line)
	if m == nil {
		return SearchResult{}, false
	}
	pct, err := strconv.Atoi(m[2])
	if err != nil {
		return SearchResult{}, false
	}
	return SearchResult{ID: m[1], ScorePercent: pct, Title: m[3]}, true
}

var snippetWhitespace = regexp.MustCompile(`\s*\n\s*`)

// TruncateSnippet collapses embedded newlines to single spaces and trims
// the text to the budget (in runes) with a "..." marker. The operation is
// idempotent: re-truncating already-truncated output returns it unchanged.
func TruncateSnippet(s string, budget int) string {
	clean := strings.TrimSpace(snippetWhitespace.ReplaceAllString(s, " "))
	runes := []rune(clean)
	if strings.HasSuffix(clean, "...") && len(runes) <= budget+3 {
		return clean
	}
	if len(runes) <= budget {
		return clean
	}
	return string(runes[:budget]) + "..."
}

// FormatIncidentDetail renders a full incident record: header, status and
// classification, assignment, description, resolution and the most recent
// work logs. Unknown fields render as N/A so the shape stays stable.
func FormatIncidentDetail(inc *IncidentDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Incident: %s\n\n", orDefault(inc.IncidentNumber, "N/A"))
	fmt.Fprintf(&b, "**Summary:** %s\n", orDefault(inc.Summary, "N/A"))
	fmt.Fprintf(&b, "**Status:** %s\n\n", orDefault(inc.Status, "N/A"))

	b.WriteString("## Classification\n")
	fmt.Fprintf(&b, "- **Impact:** %s\n", orDefault(inc.ImpactLabel, "N/A"))
	fmt.Fprintf(&b, "- **Urgency:** %s\n", orDefault(inc.UrgencyLabel, "N/A"))
	fmt.Fprintf(&b, "- **Priority:** %s\n\n", orDefault(inc.PriorityLabel, "N/A"))

	b.WriteString("## Assignment\n")
	fmt.Fprintf(&b, "- **Assigned Group:** %s\n", orDefault(inc.AssignedGroup, "N/A"))
	fmt.Fprintf(&b, "- **Assigned To:** %s\n", orDefault(inc.AssignedTo, "N/A"))
	fmt.Fprintf(&b, "- **Submitter:** %s\n", orDefault(inc.Submitter, "N/A"))

	if inc.Description != "" {
		fmt.Fprintf(&b, "\n## Description\n%s\n", inc.Description)
	}
	if inc.Resolution != "" {
		fmt.Fprintf(&b, "\n## Resolution\n%s\n", inc.Resolution)
	}

	if len(inc.WorkLogs) > 0 {
		b.WriteString("\n## Recent Work Logs\n")
		logs := inc.WorkLogs
		if len(logs) > 5 {
			logs = logs[:5]
		}
		for _, wl := range logs {
			fmt.Fprintf(&b, "### %s - %s\n", orDefault(wl.Type, "Log"), wl.SubmitDate)
			fmt.Fprintf(&b, "**By:** %s\n", orDefault(wl.Submitter, "Unknown"))
			if wl.Notes != "" {
				notes := []rune(wl.Notes)
				if len(notes) > 500 {
					notes = notes[:500]
				}
				b.WriteString(string(notes) + "\n")
			}
			b.WriteString("\n")
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatArticleDetail renders a full knowledge article: metadata block,
// keywords, summary, body, attachments and related articles.
func FormatArticleDetail(art *ArticleDetail) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", orDefault(art.Title, art.ArticleID))

	b.WriteString("## Article Information\n")
	fmt.Fprintf(&b, "- **Article ID:** %s\n", orDefault(art.ArticleID, "N/A"))
	if art.ArticleType != "" {
		fmt.Fprintf(&b, "- **Type:** %s\n", art.ArticleType)
	}
	if art.CategoryPath != "" {
		fmt.Fprintf(&b, "- **Category:** %s\n", art.CategoryPath)
	}
	if art.Status != "" {
		fmt.Fprintf(&b, "- **Status:** %s\n", art.Status)
	}
	if art.Author != "" {
		fmt.Fprintf(&b, "- **Author:** %s\n", art.Author)
	}
	if art.ViewCount > 0 {
		fmt.Fprintf(&b, "- **Views:** %d\n", art.ViewCount)
	}
	if art.PublishedDate != "" {
		fmt.Fprintf(&b, "- **Published:** %s\n", art.PublishedDate)
	}

	if len(art.Keywords) > 0 {
		fmt.Fprintf(&b, "\n**Keywords:** %s\n", strings.Join(art.Keywords, ", "))
	}
	if art.Summary != "" {
		fmt.Fprintf(&b, "\n## Summary\n%s\n", art.Summary)
	}
	if art.Content != "" {
		fmt.Fprintf(&b, "\n## Content\n%s\n", art.Content)
	}

	if len(art.Attachments) > 0 {
		b.WriteString("\n## Attachments\n")
		for _, att := range art.Attachments {
			fmt.Fprintf(&b, "- %s (%.1f KB)\n", orDefault(att.Name, "Unknown"), float64(att.SizeBytes)/1024)
		}
	}

	if len(art.RelatedArticles) > 0 {
		b.WriteString("\n## Related Articles\n")
		for _, id := range art.RelatedArticles {
			fmt.Fprintf(&b, "- %s\n", id)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}

// FormatPendingActions renders the session's staged actions with the
// confirm/cancel usage hint, or a fixed empty-state line.
func FormatPendingActions(actions []StagedAction) string {
	if len(actions) == 0 {
		return "No pending actions in this session."
	}

	var b strings.Builder
	b.WriteString("# Pending Actions\n\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "### %s\n", orDefault(a.ActionType, "Action"))
		fmt.Fprintf(&b, "**ID:** `%s`\n", orDefault(a.ActionID, "N/A"))
		fmt.Fprintf(&b, "**Status:** %s\n", orDefault(a.Status, "N/A"))
		fmt.Fprintf(&b, "**Expires:** %s\n\n", orDefault(a.ExpiresAt, "N/A"))
	}
	b.WriteString("> To confirm: `confirm <action_id>`\n")
	b.WriteString("> To cancel: `cancel <action_id>`")
	return b.String()
}

// FormatStageResult renders the outcome of a staging call: the staged
// preview with the confirmation hint, the duplicate warning with similar
// records, the rate-limit notice, or the direct-execution success line.
func FormatStageResult(res *StageResult) string {
	switch res.Status {
	case ActionStaged:
		var b strings.Builder
		b.WriteString("# Incident Staged for Confirmation\n\n")
		if res.Action.Preview != "" {
			b.WriteString(res.Action.Preview + "\n\n")
		}
		fmt.Fprintf(&b, "**Action ID:** `%s`\n", orDefault(res.Action.ActionID, "N/A"))
		fmt.Fprintf(&b, "**Expires:** %s\n\n", orDefault(res.Action.ExpiresAt, "N/A"))
		b.WriteString("> To confirm: say **'confirm'** or use the confirm action\n")
		b.WriteString("> To cancel: say **'cancel'**")
		return b.String()

	case ActionDuplicateWarning:
		var b strings.Builder
		b.WriteString("# Potential Duplicates Found\n\n")
		b.WriteString("> **Warning:** Similar incidents exist. Review before confirming.\n\n")
		for _, item := range res.Similar {
			fmt.Fprintf(&b, "- **%s**: %s (%d%% match)\n", item.ID, item.Title, item.ScorePercent)
		}
		if res.Action.Preview != "" {
			b.WriteString("\n" + res.Action.Preview + "\n")
		}
		fmt.Fprintf(&b, "\n**Action ID:** `%s`\n\n", orDefault(res.Action.ActionID, "N/A"))
		b.WriteString("> To create anyway: confirm the action\n")
		b.WriteString("> To cancel: say **'cancel'**")
		return b.String()

	case ActionRateLimited:
		msg := res.Message
		if msg == "" {
			msg = "Please wait before creating more incidents."
		}
		return fmt.Sprintf("**Rate Limit Exceeded:** %s", msg)

	case ActionCreated:
		return fmt.Sprintf("**Success!** Incident **%s** has been created.", res.IncidentNumber)

	default:
		msg := res.Message
		if msg == "" {
			msg = "Unknown error occurred"
		}
		return fmt.Sprintf("**Error:** %s", msg)
	}
}

// FormatUpdateResult renders the outcome of an update staging call.
func FormatUpdateResult(incidentID string, res *StageResult) string {
	switch res.Status {
	case ActionStaged:
		var b strings.Builder
		fmt.Fprintf(&b, "# Update Staged for %s\n\n", incidentID)
		fmt.Fprintf(&b, "**Changes:** %s\n\n", orDefault(res.Action.Preview, "N/A"))
		fmt.Fprintf(&b, "**Action ID:** `%s`\n\n", orDefault(res.Action.ActionID, "N/A"))
		b.WriteString("> To confirm: say **'confirm'**")
		return b.String()

	case ActionUpdated:
		return fmt.Sprintf("**Success!** Incident **%s** has been updated.", incidentID)

	case ActionNotFound:
		return fmt.Sprintf("**Error:** Incident %s not found.", incidentID)

	default:
		return fmt.Sprintf("**%s:** %s", res.Status, orDefault(res.Message, "Update processed"))
	}
}

// FormatConfirmResult renders the outcome of confirming a staged action.
func FormatConfirmResult(res *ConfirmResult) string {
	switch res.Status {
	case ActionExecuted:
		recordType := orDefault(res.RecordType, "Record")
		return fmt.Sprintf("**Success!** %s **%s** has been created.", recordType, orDefault(res.RecordID, "N/A"))
	case ActionExpired:
		return "**Action Expired:** This action has expired. Please create a new request."
	case ActionNotFound:
		return "**Not Found:** This action was not found or has already been processed."
	default:
		return fmt.Sprintf("**%s:** %s", res.Status, orDefault(res.Message, "Action processed"))
	}
}

// FormatCancelResult renders the outcome of cancelling a staged action.
func FormatCancelResult(res *ConfirmResult) string {
	if res.Status == ActionCancelled {
		return "**Action Cancelled:** The action has been cancelled successfully."
	}
	return fmt.Sprintf("**%s:** %s", orDefault(res.Status, "Unknown"), orDefault(res.Message, "Action processed"))
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
