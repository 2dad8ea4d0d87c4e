package tools

import (
	"deskagent/core"

	"github.com/tmc/langchaingo/tools"
)

// All builds the complete tool set for one agent execution, bound to the
// given backend session. Read tools take the client directly; write and
// confirmation tools go through the action coordinator.
func All(client *core.Client, coordinator *core.Coordinator, config *core.Config, session string) []tools.Tool {
	return []tools.Tool{
		NewSearchIncidentsTool(client, config, session),
		NewGetIncidentTool(client, session),
		NewCreateIncidentTool(coordinator, session),
		NewUpdateIncidentTool(coordinator, session),
		NewSearchKnowledgeTool(client, config, session),
		NewGetArticleTool(client, session),
		NewFindSolutionsTool(client, config, session),
		NewFindHowToTool(client, session),
		NewSearchWorkOrdersTool(client, config, session),
		NewListPendingActionsTool(coordinator, session),
		NewConfirmActionTool(coordinator, session),
		NewCancelActionTool(coordinator, session),
	}
}
