// Package bedrockclient adapts the AWS Bedrock Converse API to
// sampling.Client, the third backend selectable for sample_step (spec
// §4.12). It is grounded on features/model/bedrock/client.go's
// RuntimeClient seam, tool name sanitization, and document-encoded tool
// schema/input translation, narrowed from goa-ai's full
// thinking/caching/ledger-rehydration request pipeline down to sampling's
// plain text/tool_use/tool_result turns.
package bedrockclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/document"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"goa.design/mcpcore/sampling"
)

// RuntimeClient captures the subset of the Bedrock runtime client used by
// the adapter, matched by *bedrockruntime.Client.
type RuntimeClient interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Options configures the adapter.
type Options struct {
	Runtime      RuntimeClient
	DefaultModel string
	MaxTokens    int
	Temperature  float32
}

// Client implements sampling.Client on top of AWS Bedrock Converse.
type Client struct {
	runtime RuntimeClient
	model   string
	maxTok  int
	temp    float32
}

var _ sampling.Client = (*Client)(nil)

// New builds a Client from a Bedrock runtime client and options.
func New(opts Options) (*Client, error) {
	if opts.Runtime == nil {
		return nil, errors.New("bedrockclient: runtime client is required")
	}
	if opts.DefaultModel == "" {
		return nil, errors.New("bedrockclient: default model is required")
	}
	return &Client{runtime: opts.Runtime, model: opts.DefaultModel, maxTok: opts.MaxTokens, temp: opts.Temperature}, nil
}

// Complete issues one Converse request and translates the response.
func (c *Client) Complete(ctx context.Context, req sampling.Request) (*sampling.Response, error) {
	if len(req.Messages) == 0 {
		return nil, errors.New("bedrockclient: messages are required")
	}
	modelID := req.Model
	if modelID == "" {
		modelID = c.model
	}
	canonToSan, sanToCanon := toolNameMaps(req.Tools)
	messages, err := encodeMessages(req.Messages, canonToSan)
	if err != nil {
		return nil, err
	}
	toolConfig, err := buildToolConfiguration(req.Tools, req.ToolChoice, canonToSan)
	if err != nil {
		return nil, err
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:    aws.String(modelID),
		Messages:   messages,
		ToolConfig: toolConfig,
	}
	if cfg := c.inferenceConfig(req); cfg != nil {
		input.InferenceConfig = cfg
	}

	out, err := c.runtime.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrockclient: converse: %w", err)
	}
	return translateResponse(out, sanToCanon)
}

func (c *Client) inferenceConfig(req sampling.Request) *brtypes.InferenceConfiguration {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTok
	}
	temp := float32(req.Temperature)
	if temp <= 0 {
		temp = c.temp
	}
	if maxTokens <= 0 && temp <= 0 {
		return nil
	}
	cfg := &brtypes.InferenceConfiguration{}
	if maxTokens > 0 {
		cfg.MaxTokens = aws.Int32(int32(maxTokens))
	}
	if temp > 0 {
		cfg.Temperature = aws.Float32(temp)
	}
	return cfg
}

func toolNameMaps(defs []*sampling.ToolDefinition) (canonToSan, sanToCanon map[string]string) {
	canonToSan = make(map[string]string, len(defs))
	sanToCanon = make(map[string]string, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			continue
		}
		sanitized := sanitizeToolName(def.Name)
		canonToSan[def.Name] = sanitized
		sanToCanon[sanitized] = def.Name
	}
	return canonToSan, sanToCanon
}

// sanitizeToolName replaces any rune Bedrock tool names disallow with '_',
// mirroring features/model/bedrock/client.go's constraint.
func sanitizeToolName(in string) string {
	out := make([]rune, 0, len(in))
	for _, r := range in {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

func encodeMessages(msgs []*sampling.Message, canonToSan map[string]string) ([]brtypes.Message, error) {
	out := make([]brtypes.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		blocks := make([]brtypes.ContentBlock, 0, len(m.Parts))
		for _, part := range m.Parts {
			switch v := part.(type) {
			case sampling.TextPart:
				if v.Text != "" {
					blocks = append(blocks, &brtypes.ContentBlockMemberText{Value: v.Text})
				}
			case sampling.ToolUsePart:
				sanitized, ok := canonToSan[v.Name]
				if !ok {
					return nil, fmt.Errorf("bedrockclient: tool_use references unknown tool %q", v.Name)
				}
				out2 := brtypes.ToolUseBlock{Name: aws.String(sanitized), ToolUseId: aws.String(v.ID), Input: toDocument(v.Input)}
				blocks = append(blocks, &brtypes.ContentBlockMemberToolUse{Value: out2})
			case sampling.ToolResultPart:
				blocks = append(blocks, encodeToolResult(v))
			}
		}
		if len(blocks) == 0 {
			continue
		}
		var role brtypes.ConversationRole
		switch m.Role {
		case sampling.RoleUser:
			role = brtypes.ConversationRoleUser
		case sampling.RoleAssistant:
			role = brtypes.ConversationRoleAssistant
		default:
			return nil, fmt.Errorf("bedrockclient: unsupported message role %q", m.Role)
		}
		out = append(out, brtypes.Message{Role: role, Content: blocks})
	}
	if len(out) == 0 {
		return nil, errors.New("bedrockclient: at least one message is required")
	}
	return out, nil
}

func encodeToolResult(v sampling.ToolResultPart) brtypes.ContentBlock {
	tr := brtypes.ToolResultBlock{ToolUseId: aws.String(v.ToolUseID)}
	if v.IsError {
		tr.Status = brtypes.ToolResultStatusError
	}
	switch s := v.Content.(type) {
	case string:
		tr.Content = []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberText{Value: s}}
	default:
		tr.Content = []brtypes.ToolResultContentBlock{&brtypes.ToolResultContentBlockMemberJson{Value: toDocument(v.Content)}}
	}
	return &brtypes.ContentBlockMemberToolResult{Value: tr}
}

func buildToolConfiguration(defs []*sampling.ToolDefinition, choice *sampling.ToolChoice, canonToSan map[string]string) (*brtypes.ToolConfiguration, error) {
	if len(defs) == 0 {
		return nil, nil
	}
	toolList := make([]brtypes.Tool, 0, len(defs))
	for _, def := range defs {
		if def == nil || def.Name == "" {
			continue
		}
		spec := brtypes.ToolSpecification{
			Name:        aws.String(canonToSan[def.Name]),
			Description: aws.String(def.Description),
			InputSchema: &brtypes.ToolInputSchemaMemberJson{Value: toDocument(def.InputSchema)},
		}
		toolList = append(toolList, &brtypes.ToolMemberToolSpec{Value: spec})
	}
	cfg := &brtypes.ToolConfiguration{Tools: toolList}
	if choice == nil {
		return cfg, nil
	}
	switch choice.Mode {
	case sampling.ToolChoiceAny:
		cfg.ToolChoice = &brtypes.ToolChoiceMemberAny{Value: brtypes.AnyToolChoice{}}
	case sampling.ToolChoiceTool:
		sanitized, ok := canonToSan[choice.Name]
		if !ok {
			return nil, fmt.Errorf("bedrockclient: tool choice names unknown tool %q", choice.Name)
		}
		cfg.ToolChoice = &brtypes.ToolChoiceMemberTool{Value: brtypes.SpecificToolChoice{Name: aws.String(sanitized)}}
	}
	return cfg, nil
}

func translateResponse(out *bedrockruntime.ConverseOutput, sanToCanon map[string]string) (*sampling.Response, error) {
	resp := &sampling.Response{}
	msg, ok := out.Output.(*brtypes.ConverseOutputMemberMessage)
	if !ok {
		return resp, nil
	}
	for _, block := range msg.Value.Content {
		switch v := block.(type) {
		case *brtypes.ContentBlockMemberText:
			if v.Value == "" {
				continue
			}
			resp.Content = append(resp.Content, sampling.Message{
				Role:  sampling.RoleAssistant,
				Parts: []sampling.Part{sampling.TextPart{Text: v.Value}},
			})
		case *brtypes.ContentBlockMemberToolUse:
			name := ""
			if v.Value.Name != nil {
				raw := *v.Value.Name
				canonical, ok := sanToCanon[raw]
				if !ok {
					canonical = raw
				}
				name = canonical
			}
			var id string
			if v.Value.ToolUseId != nil {
				id = *v.Value.ToolUseId
			}
			resp.ToolCalls = append(resp.ToolCalls, sampling.ToolCall{
				ID:      id,
				Name:    name,
				Payload: decodeDocument(v.Value.Input),
			})
		}
	}
	if usage := out.Usage; usage != nil {
		resp.Usage = sampling.TokenUsage{
			InputTokens:  int(ptrValue(usage.InputTokens)),
			OutputTokens: int(ptrValue(usage.OutputTokens)),
			TotalTokens:  int(ptrValue(usage.TotalTokens)),
		}
	}
	resp.StopReason = string(out.StopReason)
	return resp, nil
}

func toDocument(v any) document.Interface {
	return document.NewLazyDocument(v)
}

func decodeDocument(doc document.Interface) map[string]any {
	if doc == nil {
		return nil
	}
	raw, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func ptrValue(p *int32) int32 {
	if p == nil {
		return 0
	}
	return *p
}
