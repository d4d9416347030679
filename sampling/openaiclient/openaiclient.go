// Package openaiclient adapts github.com/openai/openai-go to
// sampling.Client, an alternative backend for sample_step selectable by
// configuration (spec §4.12). It is grounded on
// features/model/openai/client.go's ChatClient seam and request/response
// translation, carried over to openai-go's typed Chat Completions params
// (the teacher file targets github.com/sashabaranov/go-openai; this
// adapter targets the official SDK the rest of this module's dependency
// stack already pulls in).
package openaiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"goa.design/mcpcore/sampling"
)

// ChatClient captures the subset of the OpenAI SDK used by the adapter.
type ChatClient interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Options configures the adapter.
type Options struct {
	Client       ChatClient
	DefaultModel string
	MaxTokens    int
	Temperature  float64
}

// Client implements sampling.Client via the OpenAI Chat Completions API.
type Client struct {
	chat   ChatClient
	model  string
	maxTok int
	temp   float64
}

var _ sampling.Client = (*Client)(nil)

// New builds a Client from the given Chat Completions client and options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openaiclient: client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("openaiclient: default model is required")
	}
	return &Client{chat: opts.Client, model: opts.DefaultModel, maxTok: opts.MaxTokens, temp: opts.Temperature}, nil
}

// NewFromAPIKey constructs a Client using the default openai-go HTTP
// client, authenticated with apiKey.
func NewFromAPIKey(apiKey, defaultModel string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openaiclient: api key is required")
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey))
	return New(Options{Client: &cli.Chat.Completions, DefaultModel: defaultModel})
}

// Complete renders one chat completion using the configured client.
func (c *Client) Complete(ctx context.Context, req sampling.Request) (*sampling.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("openaiclient: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	messages, err := encodeMessages(req.Messages)
	if err != nil {
		return nil, err
	}
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(modelID),
		Messages: messages,
	}
	if maxTokens := req.MaxTokens; maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	} else if c.maxTok > 0 {
		params.MaxTokens = openai.Int(int64(c.maxTok))
	}
	if temp := req.Temperature; temp > 0 {
		params.Temperature = openai.Float(temp)
	} else if c.temp > 0 {
		params.Temperature = openai.Float(c.temp)
	}
	if len(req.Tools) > 0 {
		params.Tools = encodeTools(req.Tools)
	}
	if req.ToolChoice != nil {
		params.ToolChoice = encodeToolChoice(*req.ToolChoice)
	}

	resp, err := c.chat.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openaiclient: chat completion: %w", err)
	}
	return translateResponse(resp), nil
}

func encodeMessages(msgs []*sampling.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		var text string
		var toolCalls []openai.ChatCompletionMessageToolCallParam
		for _, part := range m.Parts {
			switch v := part.(type) {
			case sampling.TextPart:
				text += v.Text
			case sampling.ToolUsePart:
				args, err := json.Marshal(v.Input)
				if err != nil {
					return nil, fmt.Errorf("openaiclient: encode tool_use arguments: %w", err)
				}
				toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: v.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      v.Name,
						Arguments: string(args),
					},
				})
			case sampling.ToolResultPart:
				out = append(out, openai.ToolMessage(toolResultText(v), v.ToolUseID))
			}
		}
		switch m.Role {
		case sampling.RoleUser:
			if text != "" {
				out = append(out, openai.UserMessage(text))
			}
		case sampling.RoleAssistant:
			if len(toolCalls) > 0 {
				msg := openai.ChatCompletionAssistantMessageParam{ToolCalls: toolCalls}
				if text != "" {
					msg.Content.OfString = openai.String(text)
				}
				out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &msg})
			} else if text != "" {
				out = append(out, openai.AssistantMessage(text))
			}
		default:
			return nil, fmt.Errorf("openaiclient: unsupported message role %q", m.Role)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("openaiclient: at least one message is required")
	}
	return out, nil
}

func toolResultText(v sampling.ToolResultPart) string {
	switch c := v.Content.(type) {
	case nil:
		return ""
	case string:
		return c
	default:
		if data, err := json.Marshal(c); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", c)
	}
}

func encodeTools(defs []*sampling.ToolDefinition) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(defs))
	for _, def := range defs {
		if def == nil {
			continue
		}
		out = append(out, openai.ChatCompletionToolParam{
			Function: openai.FunctionDefinitionParam{
				Name:        def.Name,
				Description: openai.String(def.Description),
				Parameters:  openai.FunctionParameters(def.InputSchema),
			},
		})
	}
	return out
}

func encodeToolChoice(choice sampling.ToolChoice) openai.ChatCompletionToolChoiceOptionUnionParam {
	switch choice.Mode {
	case sampling.ToolChoiceNone:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("none")}
	case sampling.ToolChoiceAny:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("required")}
	case sampling.ToolChoiceTool:
		return openai.ChatCompletionToolChoiceOptionUnionParam{
			OfChatCompletionNamedToolChoice: &openai.ChatCompletionNamedToolChoiceParam{
				Function: openai.ChatCompletionNamedToolChoiceFunctionParam{Name: choice.Name},
			},
		}
	default:
		return openai.ChatCompletionToolChoiceOptionUnionParam{OfAuto: openai.String("auto")}
	}
}

func translateResponse(resp *openai.ChatCompletion) *sampling.Response {
	out := &sampling.Response{}
	if len(resp.Choices) == 0 {
		return out
	}
	choice := resp.Choices[0]
	if choice.Message.Content != "" {
		out.Content = append(out.Content, sampling.Message{
			Role:  sampling.RoleAssistant,
			Parts: []sampling.Part{sampling.TextPart{Text: choice.Message.Content}},
		})
	}
	for _, call := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, sampling.ToolCall{
			ID:      call.ID,
			Name:    call.Function.Name,
			Payload: parseArguments(call.Function.Arguments),
		})
	}
	out.Usage = sampling.TokenUsage{
		InputTokens:  int(resp.Usage.PromptTokens),
		OutputTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:  int(resp.Usage.TotalTokens),
	}
	out.StopReason = string(choice.FinishReason)
	return out
}

func parseArguments(raw string) map[string]any {
	m, err := sampling.MarshalArguments(raw)
	if err != nil {
		return map[string]any{"raw": raw}
	}
	return m
}
