package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatResultLineRoundTrip(t *testing.T) {
	in := SearchResult{ID: "INC000012345", ScorePercent: 87, Title: "VPN drops every hour"}

	line := FormatResultLine(in)
	assert.Equal(t, "INC000012345 (87%): VPN drops every hour", line)

	out, ok := ParseResultLine(line)
	require.True(t, ok)
	assert.Equal(t, in.ID, out.ID)
	assert.Equal(t, in.ScorePercent, out.ScorePercent)
	assert.Equal(t, in.Title, out.Title)
}

func TestFormatResultLineRoundTripBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		result SearchResult
	}{
		{"zero percent", SearchResult{ID: "INC1", ScorePercent: 0, Title: "barely related"}},
		{"full match", SearchResult{ID: "KBA00042", ScorePercent: 100, Title: "exact duplicate"}},
		{"punctuated title", SearchResult{ID: "WO000001", ScorePercent: 42, Title: "title: with (punct)! 100% weird, stuff..."}},
		{"empty title", SearchResult{ID: "INC2", ScorePercent: 55, Title: ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, ok := ParseResultLine(FormatResultLine(tt.result))
			require.True(t, ok)
			assert.Equal(t, tt.result.ID, out.ID)
			assert.Equal(t, tt.result.ScorePercent, out.ScorePercent)
			assert.Equal(t, tt.result.Title, out.Title)

			bulleted, ok := ParseResultLine("- " + FormatResultLine(tt.result))
			require.True(t, ok)
			assert.Equal(t, tt.result.Title, bulleted.Title)
		})
	}
}

func TestParseResultLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		id   string
		pct  int
	}{
		{"bulleted", "- KBA00042 (64%): Reset your password", true, "KBA00042", 64},
		{"plain", "INC1 (100%): title", true, "INC1", 100},
		{"no percent", "INC1: title", false, "", 0},
		{"empty", "", false, "", 0},
		{"prose", "just some text", false, "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := ParseResultLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.id, r.ID)
				assert.Equal(t, tt.pct, r.ScorePercent)
			}
		})
	}
}

func TestFormatResultList(t *testing.T) {
	list := FormatResultList([]SearchResult{
		{ID: "INC1", ScorePercent: 90, Title: "first"},
		{ID: "INC2", ScorePercent: 80, Title: "second"},
	})
	assert.Equal(t, "- INC1 (90%): first\n- INC2 (80%): second", list)
	assert.Equal(t, "", FormatResultList(nil))
}

func TestTruncateSnippet(t *testing.T) {
	t.Run("short text unchanged", func(t *testing.T) {
		assert.Equal(t, "short", TruncateSnippet("short", 200))
	})

	t.Run("newlines collapsed", func(t *testing.T) {
		assert.Equal(t, "line one line two", TruncateSnippet("line one\n   line two", 200))
	})

	t.Run("long text truncated at budget", func(t *testing.T) {
		long := strings.Repeat("a", 300)
		got := TruncateSnippet(long, 200)
		assert.Equal(t, 203, len([]rune(got)))
		assert.True(t, strings.HasSuffix(got, "..."))
	})

	t.Run("idempotent", func(t *testing.T) {
		long := strings.Repeat("b", 300)
		once := TruncateSnippet(long, 200)
		twice := TruncateSnippet(once, 200)
		assert.Equal(t, once, twice)
	})

	t.Run("multibyte safe", func(t *testing.T) {
		long := strings.Repeat("é", 250)
		got := TruncateSnippet(long, 200)
		assert.Equal(t, strings.Repeat("é", 200)+"...", got)
	})
}

func TestFormatIncidentDetail(t *testing.T) {
	detail := &IncidentDetail{
		IncidentNumber: "INC000012345",
		Summary:        "Email down",
		Status:         "In Progress",
		PriorityLabel:  "High",
		AssignedGroup:  "Service Desk",
		Description:    "Mail server unreachable",
		WorkLogs: []WorkLog{
			{Type: "Status Update", SubmitDate: "2025-01-10", Submitter: "tech1", Notes: "Looking into it"},
		},
	}

	out := FormatIncidentDetail(detail)
	assert.Contains(t, out, "# Incident: INC000012345")
	assert.Contains(t, out, "**Summary:** Email down")
	assert.Contains(t, out, "**Status:** In Progress")
	assert.Contains(t, out, "- **Priority:** High")
	assert.Contains(t, out, "## Description\nMail server unreachable")
	assert.Contains(t, out, "## Recent Work Logs")
	assert.Contains(t, out, "Looking into it")
	// Empty fields render as N/A instead of disappearing.
	assert.Contains(t, out, "- **Impact:** N/A")
	assert.NotContains(t, out, "## Resolution")
}

func TestFormatIncidentDetailCapsWorkLogs(t *testing.T) {
	detail := &IncidentDetail{IncidentNumber: "INC1"}
	for i := 0; i < 8; i++ {
		detail.WorkLogs = append(detail.WorkLogs, WorkLog{Type: "Note", SubmitDate: "2025-01-01", Submitter: "x", Notes: "n"})
	}
	out := FormatIncidentDetail(detail)
	assert.Equal(t, 5, strings.Count(out, "### Note - "))
}

func TestFormatArticleDetail(t *testing.T) {
	art := &ArticleDetail{
		ArticleID: "KBA00042",
		Title:     "Reset your password",
		Status:    "Published",
		Keywords:  []string{"password", "reset"},
		Summary:   "How to reset a forgotten password",
		Content:   "Step 1 ...",
		Attachments: []Attachment{
			{Name: "guide.pdf", SizeBytes: 2048},
		},
		RelatedArticles: []string{"KBA00043"},
	}

	out := FormatArticleDetail(art)
	assert.Contains(t, out, "# Reset your password")
	assert.Contains(t, out, "- **Article ID:** KBA00042")
	assert.Contains(t, out, "**Keywords:** password, reset")
	assert.Contains(t, out, "- guide.pdf (2.0 KB)")
	assert.Contains(t, out, "- KBA00043")
}

func TestFormatPendingActions(t *testing.T) {
	assert.Equal(t, "No pending actions in this session.", FormatPendingActions(nil))

	out := FormatPendingActions([]StagedAction{
		{ActionID: "act_1", ActionType: "CREATE_INCIDENT", Status: ActionStaged, ExpiresAt: "2025-01-10T12:00:00Z"},
	})
	assert.Contains(t, out, "# Pending Actions")
	assert.Contains(t, out, "**ID:** `act_1`")
	assert.Contains(t, out, "confirm <action_id>")
}

func TestFormatStageResult(t *testing.T) {
	t.Run("staged", func(t *testing.T) {
		out := FormatStageResult(&StageResult{
			Status: ActionStaged,
			Action: StagedAction{ActionID: "act_1", Preview: "Summary: printer broken", ExpiresAt: "soon"},
		})
		assert.Contains(t, out, "# Incident Staged for Confirmation")
		assert.Contains(t, out, "Summary: printer broken")
		assert.Contains(t, out, "**Action ID:** `act_1`")
	})

	t.Run("duplicate warning", func(t *testing.T) {
		out := FormatStageResult(&StageResult{
			Status:  ActionDuplicateWarning,
			Action:  StagedAction{ActionID: "act_2"},
			Similar: []SearchResult{{ID: "INC9", ScorePercent: 91, Title: "same printer"}},
		})
		assert.Contains(t, out, "# Potential Duplicates Found")
		assert.Contains(t, out, "**INC9**: same printer (91% match)")
	})

	t.Run("rate limited", func(t *testing.T) {
		out := FormatStageResult(&StageResult{Status: ActionRateLimited})
		assert.Contains(t, out, "**Rate Limit Exceeded:**")
	})

	t.Run("created directly", func(t *testing.T) {
		out := FormatStageResult(&StageResult{Status: ActionCreated, IncidentNumber: "INC7"})
		assert.Equal(t, "**Success!** Incident **INC7** has been created.", out)
	})

	t.Run("unknown status", func(t *testing.T) {
		out := FormatStageResult(&StageResult{Status: "WEIRD", Message: "backend said no"})
		assert.Equal(t, "**Error:** backend said no", out)
	})
}

func TestFormatConfirmResult(t *testing.T) {
	assert.Equal(t,
		"**Success!** Incident **INC7** has been created.",
		FormatConfirmResult(&ConfirmResult{Status: ActionExecuted, RecordID: "INC7", RecordType: "Incident"}))

	assert.Contains(t,
		FormatConfirmResult(&ConfirmResult{Status: ActionExpired}),
		"**Action Expired:**")

	assert.Contains(t,
		FormatConfirmResult(&ConfirmResult{Status: ActionNotFound}),
		"**Not Found:**")
}

func TestFormatCancelResult(t *testing.T) {
	assert.Equal(t,
		"**Action Cancelled:** The action has been cancelled successfully.",
		FormatCancelResult(&ConfirmResult{Status: ActionCancelled}))

	assert.Contains(t,
		FormatCancelResult(&ConfirmResult{Status: ActionNotFound, Message: "gone"}),
		"gone")
}
