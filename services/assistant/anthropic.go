package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"calassist/models"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicGateway talks to the Anthropic messages API.
type AnthropicGateway struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewAnthropicGateway(apiKey string) *AnthropicGateway {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicGateway{
		client: &client,
		model:  anthropic.ModelClaude4Sonnet20250514,
	}
}

func (g *AnthropicGateway) Complete(ctx context.Context, system string, turns []models.Turn, tools []ActionTool) (*models.Turn, error) {
	logGatewayRequest("Anthropic", turns, tools)

	response, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     g.model,
		MaxTokens: 4096,
		System:    []anthropic.TextBlockParam{{Text: system}},
		Messages:  g.convertTurns(turns),
		Tools:     g.toolSpecs(tools),
	})
	if err != nil {
		return nil, &GatewayError{Cause: err}
	}

	reply := &models.Turn{Role: models.RoleAssistant}
	for _, block := range response.Content {
		switch block := block.AsAny().(type) {
		case anthropic.TextBlock:
			reply.Content += block.Text
		case anthropic.ToolUseBlock:
			arguments, err := json.Marshal(block.Input)
			if err != nil {
				return nil, &GatewayError{Cause: fmt.Errorf("failed to decode tool input: %w", err)}
			}
			reply.ToolCalls = append(reply.ToolCalls, models.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: arguments,
			})
		}
	}

	logGatewayReply("Anthropic", reply)
	return reply, nil
}

func (g *AnthropicGateway) convertTurns(turns []models.Turn) []anthropic.MessageParam {
	// The messages API requires the first message to be user-role, so
	// leading assistant turns (the session greeting) are dropped.
	for len(turns) > 0 && turns[0].Role != models.RoleUser {
		turns = turns[1:]
	}

	var messages []anthropic.MessageParam

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(turn.Content)))
		case models.RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if turn.Content != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfText: &anthropic.TextBlockParam{Text: turn.Content},
				})
			}
			for _, call := range turn.ToolCalls {
				var input map[string]any
				if err := json.Unmarshal(call.Arguments, &input); err != nil {
					log.Printf("[ERROR] Failed to decode arguments for resent tool call %s: %v", call.Name, err)
				}
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: input,
					},
				})
			}
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		case models.RoleTool:
			messages = append(messages, anthropic.NewUserMessage(anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: turn.ToolCallID,
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: turn.Content}},
					},
				},
			}))
		}
	}

	return messages
}

func (g *AnthropicGateway) toolSpecs(tools []ActionTool) []anthropic.ToolUnionParam {
	var specs []anthropic.ToolUnionParam
	for _, tool := range tools {
		specs = append(specs, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name(),
				Description: anthropic.String(tool.Description()),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: tool.InputSchema().Properties,
				},
			},
		})
	}
	return specs
}
