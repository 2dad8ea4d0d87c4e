/*
Intent classification (core/intent.go).

A small, deterministic regex classifier maps each user utterance to one
intent plus an optional extracted parameter. The table is statically
ordered: action-resolution intents (confirm, cancel, pending list) are
checked before anything that could stage new work, so a reply like
"cancel incident creation" resolves the pending action instead of opening
another one. First match wins; no LLM is involved at this stage.
*/
package core

import (
	"regexp"
	"strings"
)

// Intent is the discrete category assigned to one utterance.
type Intent string

const (
	IntentConfirmAction   Intent = "confirm_action"
	IntentCancelAction    Intent = "cancel_action"
	IntentListPending     Intent = "list_pending"
	IntentCreateIncident  Intent = "create_incident"
	IntentSearchIncidents Intent = "search_incidents"
	IntentGetIncident     Intent = "get_incident"
	IntentSearchKnowledge Intent = "search_knowledge"
	IntentHelp            Intent = "help"
	IntentGeneral         Intent = "general"
)

func (i Intent) String() string { return string(i) }

// Classification is the classifier's result: the matched intent and, for
// patterns that capture one, an extracted parameter (action ID, incident
// number).
type Classification struct {
	Intent Intent
	Param  string
}

// intentPattern is one compiled rule. When capture is set, the first
// capture group becomes the classification parameter.
type intentPattern struct {
	re      *regexp.Regexp
	capture bool
}

// intentRule groups the patterns recognized for one intent.
type intentRule struct {
	intent   Intent
	patterns []intentPattern
}

func pat(expr string) intentPattern { return intentPattern{re: regexp.MustCompile(expr)} }

func capturing(expr string) intentPattern {
	return intentPattern{re: regexp.MustCompile(expr), capture: true}
}

// intentTable is evaluated top to bottom, patterns in order within each
// rule. Within confirm and cancel, the ID-carrying form is tried first so
// "confirm abc123" yields the ID while a bare "confirm" still matches.
var intentTable = []intentRule{
	{IntentConfirmAction, []intentPattern{
		capturing(`(?i)^\s*confirm\s+([A-Za-z0-9_-]+)\s*$`),
		pat(`(?i)^\s*(confirm|yes|proceed|approve|ok|go\s+ahead)\b`),
	}},
	{IntentCancelAction, []intentPattern{
		capturing(`(?i)^\s*cancel\s+([A-Za-z0-9_-]+)\s*$`),
		pat(`(?i)^\s*(cancel|no|stop|abort|decline|nevermind)\b`),
	}},
	{IntentListPending, []intentPattern{
		pat(`(?i)(list|show|what\s+are)\s+(my\s+)?(pending|staged)\s+(actions?|requests?)`),
	}},
	{IntentCreateIncident, []intentPattern{
		pat(`(?i)(create|open|submit|log|raise|file|new)\s+(a\s+)?(incident|ticket|issue|request)`),
		pat(`(?i)(i\s+need|i\s+want|can\s+you|please)\s+(a\s+)?(new\s+)?(incident|ticket)`),
		pat(`(?i)^(incident|ticket)\s+for\s+`),
		pat(`(?i)(report|log)\s+(a\s+)?(problem|issue)`),
		pat(`(?i)(أنشئ|افتح|سجل|ارفع)\s+(بلاغ|تذكرة|حادثة)`),
	}},
	{IntentSearchIncidents, []intentPattern{
		pat(`(?i)(search|find|look\s+for|check)\s+(for\s+)?(similar\s+)?(incidents?|tickets?|issues?)`),
		pat(`(?i)(any|are\s+there)\s+(similar\s+)?(incidents?|tickets?|issues?)`),
		pat(`(?i)show\s+(me\s+)?(incidents?|tickets?)`),
	}},
	{IntentGetIncident, []intentPattern{
		capturing(`(?i)(?:get|show|what\s+is|details?\s+(?:for|of|about))\s+(?:incident|ticket)?\s*(INC\d+)`),
		capturing(`(?i)(INC\d+)`),
	}},
	{IntentSearchKnowledge, []intentPattern{
		pat(`(?i)(how\s+to|how\s+do\s+i|steps?\s+(to|for)|guide\s+(to|for)|procedure\s+(to|for))`),
		pat(`(?i)(search|find|look\s+in)\s+(the\s+)?(knowledge\s+base|kb|documentation)`),
		pat(`(?i)\b(solution|fix|resolve|troubleshoot)\b`),
	}},
	{IntentHelp, []intentPattern{
		pat(`(?i)^\s*(help|what\s+can\s+you\s+do|\?+)\s*$`),
		pat(`(?i)\b(capabilities|features|functions)\b`),
	}},
}

// Classify assigns an intent to the utterance. The fallback when nothing
// matches is IntentGeneral with no parameter; the orchestrator passes
// those turns through untouched. Extracted incident numbers are
// normalized to upper case.
func Classify(utterance string) Classification {
	for _, rule := range intentTable {
		for _, p := range rule.patterns {
			m := p.re.FindStringSubmatch(utterance)
			if m == nil {
				continue
			}
			c := Classification{Intent: rule.intent}
			if p.capture && len(m) > 1 {
				c.Param = m[1]
				if rule.intent == IntentGetIncident {
					c.Param = strings.ToUpper(c.Param)
				}
			}
			return c
		}
	}
	return Classification{Intent: IntentGeneral}
}

var incidentIDPattern = regexp.MustCompile(`(?i)(INC\d+)`)

// ExtractIncidentID pulls the first incident number out of free text,
// upper-cased, or returns empty when none is present.
func ExtractIncidentID(message string) string {
	m := incidentIDPattern.FindStringSubmatch(message)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}
