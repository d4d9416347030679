// Package sampling implements the sampling sub-pipeline (spec §4.12, C12):
// a single LLM request (sample_step) with optional local tool execution,
// and a looped driver (sample) that feeds tool results back to the model
// until it produces a final answer or calls a synthesized final_response
// tool for typed structured output. It is grounded on the request/
// response shape of runtime/agent/model.Client and the tool-call loop in
// runtime/agent/engine/engine.go, generalized from a whole agent run down
// to a single ad hoc sampling call a tool handler can make mid-request.
package sampling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/schema"
)

type (
	// Role identifies the speaker for a Message.
	Role string

	// Part is one content block within a Message.
	Part interface{ isPart() }

	// TextPart is plain assistant or user text.
	TextPart struct{ Text string }

	// ToolUsePart records a tool invocation the model requested.
	ToolUsePart struct {
		ID    string
		Name  string
		Input map[string]any
	}

	// ToolResultPart carries a tool's result back to the model.
	ToolResultPart struct {
		ToolUseID string
		Content   any
		IsError   bool
	}

	// Message is one turn in a sampling conversation.
	Message struct {
		Role  Role
		Parts []Part
	}

	// ToolDefinition describes one tool the model may call.
	ToolDefinition struct {
		Name        string
		Description string
		InputSchema map[string]any
	}

	// ToolChoiceMode controls how a client steers the model's tool use.
	ToolChoiceMode string

	// ToolChoice configures tool-use behavior for a single request. Nil
	// leaves the decision to the provider's default.
	ToolChoice struct {
		Mode ToolChoiceMode
		// Name identifies the tool to force when Mode is
		// ToolChoiceTool.
		Name string
	}

	// TokenUsage reports token consumption for one request.
	TokenUsage struct {
		InputTokens  int
		OutputTokens int
		TotalTokens  int
	}

	// ToolCall is a single tool invocation the model requested in a
	// Response.
	ToolCall struct {
		ID      string
		Name    string
		Payload map[string]any
	}

	// Request is one non-streaming LLM call.
	Request struct {
		Model       string
		Messages    []*Message
		Tools       []*ToolDefinition
		ToolChoice  *ToolChoice
		MaxTokens   int
		Temperature float64
	}

	// Response is the result of a Request.
	Response struct {
		Content    []Message
		ToolCalls  []ToolCall
		Usage      TokenUsage
		StopReason string
	}

	// Client is the model capability sample_step issues requests
	// through (spec §4.12 "the client capability"). anthropicclient,
	// openaiclient, and bedrockclient each implement it against a real
	// provider SDK.
	Client interface {
		Complete(ctx context.Context, req Request) (*Response, error)
	}

	// LocalTool is a tool sample_step can execute inline between model
	// turns. Execute is nil for a tool that is only ever declared to the
	// model and handled by the caller after the step returns (the
	// mechanism Sample uses for its synthesized final_response tool).
	LocalTool struct {
		Definition ToolDefinition
		Execute    func(ctx context.Context, args map[string]any) (any, error)
	}
)

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	ToolChoiceAuto ToolChoiceMode = "auto"
	ToolChoiceNone ToolChoiceMode = "none"
	ToolChoiceAny  ToolChoiceMode = "any"
	ToolChoiceTool ToolChoiceMode = "tool"
)

func (TextPart) isPart()       {}
func (ToolUsePart) isPart()    {}
func (ToolResultPart) isPart() {}

// StepOptions configures a single sample_step call.
type StepOptions struct {
	Messages []*Message
	Tools    []LocalTool
	// ToolChoice forces how the model uses Tools; nil lets the provider
	// decide.
	ToolChoice  *ToolChoice
	Model       string
	MaxTokens   int
	Temperature float64
	// ExecuteTools controls whether tool calls the model returns run
	// locally before the step returns. Defaults to true whenever Tools is
	// non-empty (spec §4.12 "execute_tools defaults to true").
	ExecuteTools *bool
}

// Step is sample_step's result: the raw Response alongside the updated
// history (the input messages plus the assistant turn and any tool
// results produced by local execution) and convenience accessors mirroring
// the Python source's SampleStep.
type Step struct {
	Response  *Response
	History   []*Message
	IsToolUse bool
	ToolCalls []ToolCall
	Text      string
}

// SampleStep performs exactly one LLM request and, when tools were
// offered and execution isn't disabled, runs each requested tool locally
// and appends its result to the returned history (spec §4.12).
//
// A tool call naming a LocalTool with a nil Execute is left unresolved in
// the returned ToolCalls/History for the caller to handle (the seam
// Sample uses for its synthesized final_response tool); a tool call
// naming anything else unknown becomes an isError tool_result fed back
// to the model on the next step, exactly like a handler that raised.
func SampleStep(ctx context.Context, client Client, opts StepOptions) (*Step, error) {
	if client == nil {
		return nil, errors.New("sampling: client is required")
	}
	if len(opts.Messages) == 0 {
		return nil, errors.New("sampling: messages are required")
	}

	defs := make([]*ToolDefinition, 0, len(opts.Tools))
	byName := make(map[string]LocalTool, len(opts.Tools))
	for _, t := range opts.Tools {
		def := t.Definition
		defs = append(defs, &def)
		byName[t.Definition.Name] = t
	}

	executeTools := len(opts.Tools) > 0
	if opts.ExecuteTools != nil {
		executeTools = *opts.ExecuteTools
	}

	req := Request{
		Model:       opts.Model,
		Messages:    opts.Messages,
		Tools:       defs,
		ToolChoice:  opts.ToolChoice,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	resp, err := client.Complete(ctx, req)
	if err != nil {
		return nil, errs.Wrap(errs.KindTool, "", err)
	}

	history := append(append([]*Message{}, opts.Messages...), responseToMessages(resp)...)

	var text string
	for _, m := range resp.Content {
		for _, p := range m.Parts {
			if tp, ok := p.(TextPart); ok {
				text += tp.Text
			}
		}
	}

	var unresolved []ToolCall
	var results []Part
	if executeTools {
		for _, call := range resp.ToolCalls {
			tool, known := byName[call.Name]
			switch {
			case !known:
				results = append(results, ToolResultPart{
					ToolUseID: call.ID,
					Content:   fmt.Sprintf("unknown tool %q", call.Name),
					IsError:   true,
				})
			case tool.Execute == nil:
				unresolved = append(unresolved, call)
			default:
				results = append(results, runLocalTool(ctx, tool, call))
			}
		}
	} else {
		unresolved = resp.ToolCalls
	}

	if len(results) > 0 {
		history = append(history, &Message{Role: RoleUser, Parts: results})
	}

	return &Step{
		Response:  resp,
		History:   history,
		IsToolUse: len(resp.ToolCalls) > 0,
		ToolCalls: unresolved,
		Text:      text,
	}, nil
}

// runLocalTool invokes a matched LocalTool and converts a returned error
// into an isError tool_result rather than propagating it, so one
// misbehaving tool doesn't abort the whole sampling loop (spec §4.12
// "tool exceptions are converted to tool_result messages with
// isError=true").
func runLocalTool(ctx context.Context, tool LocalTool, call ToolCall) Part {
	out, err := tool.Execute(ctx, call.Payload)
	if err != nil {
		return ToolResultPart{ToolUseID: call.ID, Content: err.Error(), IsError: true}
	}
	return ToolResultPart{ToolUseID: call.ID, Content: out}
}

func responseToMessages(resp *Response) []*Message {
	msgs := make([]*Message, 0, len(resp.Content)+1)
	for i := range resp.Content {
		msgs = append(msgs, &resp.Content[i])
	}
	if len(resp.ToolCalls) > 0 {
		parts := make([]Part, 0, len(resp.ToolCalls))
		for _, c := range resp.ToolCalls {
			parts = append(parts, ToolUsePart{ID: c.ID, Name: c.Name, Input: c.Payload})
		}
		msgs = append(msgs, &Message{Role: RoleAssistant, Parts: parts})
	}
	return msgs
}

// finalResponseTool is the name of the tool Sample synthesizes to collect
// a typed structured result (spec §4.12).
const finalResponseTool = "final_response"

// Options configures a looped Sample call.
type Options struct {
	Messages []*Message
	Tools    []LocalTool
	// ResultType, when set, is a JSON Schema describing the value Sample
	// must return; a non-object schema is wrapped in {value: <inner>}
	// the same way the synthesized tool's parameters are (spec §4.12).
	ResultType  map[string]any
	Model       string
	MaxTokens   int
	Temperature float64
	// MaxIterations caps sample_step calls; zero uses the default safety
	// cap of 100 (spec §5 "Sampling loop safety cap").
	MaxIterations int
}

const defaultMaxIterations = 100

// Result is Sample's outcome.
type Result struct {
	Text       string
	Structured any
	History    []*Message
	Steps      int
}

// Sample loops SampleStep until the model stops calling tools, or until it
// calls the synthesized final_response tool with a payload that validates
// against ResultType, up to a hard iteration cap (spec §4.12, §5). A
// loop that never converges raises an error rather than returning the
// last partial state.
func Sample(ctx context.Context, client Client, opts Options) (*Result, error) {
	if len(opts.Messages) == 0 {
		return nil, errors.New("sampling: messages are required")
	}
	maxIter := opts.MaxIterations
	if maxIter <= 0 {
		maxIter = defaultMaxIterations
	}

	tools := opts.Tools
	var compiled *schema.Compiled
	var wrapped bool
	var toolChoice *ToolChoice
	if opts.ResultType != nil {
		paramsSchema, isWrapped := wrapResultType(opts.ResultType)
		wrapped = isWrapped
		c, err := schema.Compile(paramsSchema, "final_response.json")
		if err != nil {
			return nil, fmt.Errorf("sampling: compile result_type: %w", err)
		}
		compiled = c
		tools = append(append([]LocalTool{}, tools...), LocalTool{
			Definition: ToolDefinition{
				Name:        finalResponseTool,
				Description: "Call this with the final answer once you have it.",
				InputSchema: paramsSchema,
			},
		})
		toolChoice = &ToolChoice{Mode: ToolChoiceAny}
	}

	messages := opts.Messages
	for i := 0; i < maxIter; i++ {
		step, err := SampleStep(ctx, client, StepOptions{
			Messages:    messages,
			Tools:       tools,
			ToolChoice:  toolChoice,
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: opts.Temperature,
		})
		if err != nil {
			return nil, err
		}
		messages = step.History

		if opts.ResultType != nil {
			if call, ok := finalCall(step.ToolCalls); ok {
				value, verr := extractResult(compiled, call.Payload, wrapped)
				if verr == nil {
					return &Result{Structured: value, History: messages, Steps: i + 1, Text: step.Text}, nil
				}
				messages = append(messages, &Message{Role: RoleUser, Parts: []Part{
					ToolResultPart{ToolUseID: call.ID, Content: verr.Error(), IsError: true},
				}})
				continue
			}
		}

		if !step.IsToolUse {
			return &Result{Text: step.Text, History: messages, Steps: i + 1}, nil
		}
	}
	return nil, fmt.Errorf("sampling: exceeded safety cap of %d iterations without converging", maxIter)
}

func finalCall(calls []ToolCall) (ToolCall, bool) {
	for _, c := range calls {
		if c.Name == finalResponseTool {
			return c, true
		}
	}
	return ToolCall{}, false
}

func extractResult(compiled *schema.Compiled, payload map[string]any, wrapped bool) (any, error) {
	var instance any = payload
	if err := compiled.Validate(instance); err != nil {
		return nil, err
	}
	if wrapped {
		return payload["value"], nil
	}
	return payload, nil
}

// wrapResultType mirrors schema.WrapResult's object-wrapping rule, but
// under the key "value" (spec §4.12) rather than WrapResult's "result",
// since here the wrapped value is a tool call *argument*, not a return
// value.
func wrapResultType(resultType map[string]any) (paramsSchema map[string]any, wrapped bool) {
	if t, _ := resultType["type"].(string); t == "object" {
		return resultType, false
	}
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"value": resultType},
		"required":   []string{"value"},
	}, true
}

// MarshalArguments decodes a raw JSON tool-call argument payload into the
// map[string]any shape ToolCall.Payload and LocalTool.Execute expect. It
// is exported for client adapters, which receive arguments as raw JSON
// text from their respective SDKs.
func MarshalArguments(raw string) (map[string]any, error) {
	if raw == "" {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("sampling: decode tool arguments: %w", err)
	}
	return m, nil
}
