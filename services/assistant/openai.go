package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"calassist/models"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// OpenAIGateway talks to the OpenAI chat completions API.
type OpenAIGateway struct {
	llm llms.Model
}

func NewOpenAIGateway(apiKey, model string) (*OpenAIGateway, error) {
	if model == "" {
		model = "gpt-4o-mini"
	}

	llm, err := openai.New(
		openai.WithModel(model),
		openai.WithToken(apiKey),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	return &OpenAIGateway{llm: llm}, nil
}

func (g *OpenAIGateway) Complete(ctx context.Context, system string, turns []models.Turn, tools []ActionTool) (*models.Turn, error) {
	history := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, system),
	}

	for _, turn := range turns {
		switch turn.Role {
		case models.RoleUser:
			history = append(history, llms.TextParts(llms.ChatMessageTypeHuman, turn.Content))
		case models.RoleAssistant:
			message := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if turn.Content != "" {
				message.Parts = append(message.Parts, llms.TextContent{Text: turn.Content})
			}
			for _, call := range turn.ToolCalls {
				message.Parts = append(message.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: string(call.Arguments),
					},
				})
			}
			history = append(history, message)
		case models.RoleTool:
			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: turn.ToolCallID,
						Name:       turn.ToolName,
						Content:    turn.Content,
					},
				},
			})
		}
	}

	logGatewayRequest("OpenAI", turns, tools)

	options := []llms.CallOption{}
	if len(tools) > 0 {
		options = append(options, llms.WithTools(toOpenAITools(tools)))
	}

	response, err := g.llm.GenerateContent(ctx, history, options...)
	if err != nil {
		return nil, &GatewayError{Cause: err}
	}

	if len(response.Choices) == 0 {
		return nil, &GatewayError{Cause: fmt.Errorf("empty response from provider")}
	}

	choice := response.Choices[0]
	reply := &models.Turn{
		Role:    models.RoleAssistant,
		Content: choice.Content,
	}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, models.ToolCall{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: json.RawMessage(call.FunctionCall.Arguments),
		})
	}

	logGatewayReply("OpenAI", reply)
	return reply, nil
}

func toOpenAITools(tools []ActionTool) []llms.Tool {
	var specs []llms.Tool
	for _, tool := range tools {
		specs = append(specs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name(),
				Description: tool.Description(),
				Parameters:  schemaParameters(tool.InputSchema()),
			},
		})
	}
	return specs
}
