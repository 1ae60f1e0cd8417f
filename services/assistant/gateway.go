package assistant

import (
	"context"
	"log"

	"calassist/models"
)

// Gateway is the boundary to a remote chat completion service. Complete is a
// single shot: it sends the system prompt, the turn history, and the action
// catalog, and returns the provider's reply as an assistant turn that
// carries plain content, requested tool calls, or both. All failures are
// surfaced as *GatewayError; retry policy belongs to the caller.
type Gateway interface {
	Complete(ctx context.Context, system string, turns []models.Turn, tools []ActionTool) (*models.Turn, error)
}

func logGatewayRequest(provider string, turns []models.Turn, tools []ActionTool) {
	log.Printf("[INFO] ========== %s Request ==========", provider)
	log.Printf("[INFO] Turns (%d total):", len(turns))
	for i, turn := range turns {
		log.Printf("[INFO]   [%d] Role: %s", i, turn.Role)
	}
	if len(tools) > 0 {
		log.Printf("[INFO] Available Tools (%d total):", len(tools))
		for i, tool := range tools {
			log.Printf("[INFO]   [%d] Name: %s", i, tool.Name())
		}
	} else {
		log.Printf("[INFO] No tools provided")
	}
	log.Printf("[INFO] ==========================================")
}

func logGatewayReply(provider string, reply *models.Turn) {
	log.Printf("[INFO] ========== %s Response ==========", provider)
	if reply.Content != "" {
		log.Printf("[INFO] Content: %s", reply.Content)
	}
	if len(reply.ToolCalls) > 0 {
		for i, call := range reply.ToolCalls {
			log.Printf("[INFO]   [%d] Tool Call: ID=%s, Name=%s, Arguments=%s", i, call.ID, call.Name, call.Arguments)
		}
	} else {
		log.Printf("[INFO] No tool calls made")
	}
	log.Printf("[INFO] ===========================================")
}
