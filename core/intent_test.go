package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		intent    Intent
		param     string
	}{
		{"create ticket", "create a ticket for my printer", IntentCreateIncident, ""},
		{"open incident", "please open an incident", IntentCreateIncident, ""},
		{"report problem", "I want to report a problem with my laptop", IntentCreateIncident, ""},
		{"ticket for prefix", "ticket for broken monitor", IntentCreateIncident, ""},
		{"arabic create", "أنشئ بلاغ عن مشكلة في الطابعة", IntentCreateIncident, ""},

		{"search incidents", "search for similar incidents about VPN", IntentSearchIncidents, ""},
		{"any similar", "are there similar tickets about outlook?", IntentSearchIncidents, ""},
		{"show incidents", "show me incidents about email", IntentSearchIncidents, ""},

		{"get with verb", "get incident INC000012345", IntentGetIncident, "INC000012345"},
		{"get details", "details for INC000099", IntentGetIncident, "INC000099"},
		{"bare id", "INC000012345 status?", IntentGetIncident, "INC000012345"},
		{"lowercase id", "what is inc000042 about", IntentGetIncident, "INC000042"},

		{"how to", "how to reset my password", IntentSearchKnowledge, ""},
		{"search kb", "search the knowledge base for VPN setup", IntentSearchKnowledge, ""},
		{"fix keyword", "is there a fix for the blue screen?", IntentSearchKnowledge, ""},

		{"bare confirm", "confirm", IntentConfirmAction, ""},
		{"confirm with id", "confirm abc-123", IntentConfirmAction, "abc-123"},
		{"yes", "yes please", IntentConfirmAction, ""},
		{"go ahead", "go ahead", IntentConfirmAction, ""},

		{"bare cancel", "cancel", IntentCancelAction, ""},
		{"cancel with id", "cancel act_42", IntentCancelAction, "act_42"},
		{"cancel sentence", "cancel incident creation", IntentCancelAction, ""},
		{"nevermind", "nevermind, forget it", IntentCancelAction, ""},

		{"list pending", "list pending actions", IntentListPending, ""},
		{"show staged", "show my staged requests", IntentListPending, ""},

		{"bare help", "help", IntentHelp, ""},
		{"question marks", "???", IntentHelp, ""},
		{"capabilities", "what are your capabilities", IntentHelp, ""},

		{"greeting", "hello", IntentGeneral, ""},
		{"small talk", "thanks, that worked", IntentGeneral, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Classify(tt.utterance)
			assert.Equal(t, tt.intent, c.Intent)
			assert.Equal(t, tt.param, c.Param)
		})
	}
}

// Confirmation of a pending action must win over anything that could
// stage new work, so a reply like "no, cancel that ticket" resolves the
// staged action instead of opening another.
func TestClassifyActionPriority(t *testing.T) {
	assert.Equal(t, IntentCancelAction, Classify("no, cancel that ticket").Intent)
	assert.Equal(t, IntentConfirmAction, Classify("ok create it").Intent)
	assert.Equal(t, IntentListPending, Classify("show pending actions for my ticket").Intent)
}

func TestExtractIncidentID(t *testing.T) {
	assert.Equal(t, "INC000012345", ExtractIncidentID("see inc000012345 for details"))
	assert.Equal(t, "INC42", ExtractIncidentID("INC42"))
	assert.Equal(t, "", ExtractIncidentID("no identifier here"))
}
