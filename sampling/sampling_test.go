package sampling

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedClient replays a fixed sequence of responses, one per Complete
// call, so tests can drive Sample/SampleStep through a scripted
// conversation without a real provider.
type scriptedClient struct {
	responses []*Response
	calls     int
	lastReq   Request
}

func (c *scriptedClient) Complete(ctx context.Context, req Request) (*Response, error) {
	if c.calls >= len(c.responses) {
		return nil, errors.New("scriptedClient: no more responses")
	}
	c.lastReq = req
	resp := c.responses[c.calls]
	c.calls++
	return resp, nil
}

func textResponse(text string) *Response {
	return &Response{Content: []Message{{Role: RoleAssistant, Parts: []Part{TextPart{Text: text}}}}}
}

func toolCallResponse(id, name string, payload map[string]any) *Response {
	return &Response{ToolCalls: []ToolCall{{ID: id, Name: name, Payload: payload}}}
}

func TestSampleStepReturnsTextWhenModelDoesNotCallTools(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{textResponse("hello there")}}

	step, err := SampleStep(context.Background(), client, StepOptions{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "hi"}}}},
	})
	require.NoError(t, err)
	assert.False(t, step.IsToolUse)
	assert.Equal(t, "hello there", step.Text)
	assert.Len(t, step.History, 2)
}

func TestSampleStepExecutesMatchingLocalToolAndAppendsResult(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{toolCallResponse("call-1", "search", map[string]any{"q": "go"})}}

	var gotArgs map[string]any
	tool := LocalTool{
		Definition: ToolDefinition{Name: "search", Description: "search the web"},
		Execute: func(ctx context.Context, args map[string]any) (any, error) {
			gotArgs = args
			return "result text", nil
		},
	}

	step, err := SampleStep(context.Background(), client, StepOptions{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "search for go"}}}},
		Tools:    []LocalTool{tool},
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"q": "go"}, gotArgs)
	assert.True(t, step.IsToolUse)
	assert.Empty(t, step.ToolCalls, "the resolved call should not be left unresolved")

	last := step.History[len(step.History)-1]
	require.Len(t, last.Parts, 1)
	result, ok := last.Parts[0].(ToolResultPart)
	require.True(t, ok)
	assert.Equal(t, "call-1", result.ToolUseID)
	assert.Equal(t, "result text", result.Content)
	assert.False(t, result.IsError)
}

func TestSampleStepConvertsUnknownToolCallToErrorResult(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{toolCallResponse("call-1", "mystery", nil)}}

	step, err := SampleStep(context.Background(), client, StepOptions{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		Tools:    []LocalTool{{Definition: ToolDefinition{Name: "search"}, Execute: func(context.Context, map[string]any) (any, error) { return nil, nil }}},
	})
	require.NoError(t, err)

	last := step.History[len(step.History)-1]
	result := last.Parts[0].(ToolResultPart)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "mystery")
}

func TestSampleStepConvertsToolExecutionErrorToErrorResult(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{toolCallResponse("call-1", "search", nil)}}

	step, err := SampleStep(context.Background(), client, StepOptions{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		Tools: []LocalTool{{
			Definition: ToolDefinition{Name: "search"},
			Execute:    func(context.Context, map[string]any) (any, error) { return nil, errors.New("boom") },
		}},
	})
	require.NoError(t, err)

	last := step.History[len(step.History)-1]
	result := last.Parts[0].(ToolResultPart)
	assert.True(t, result.IsError)
	assert.Equal(t, "boom", result.Content)
}

func TestSampleStepLeavesDeclarationOnlyToolUnresolved(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{toolCallResponse("call-1", "final_response", map[string]any{"value": "42"})}}

	step, err := SampleStep(context.Background(), client, StepOptions{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		Tools:    []LocalTool{{Definition: ToolDefinition{Name: "final_response"}}},
	})
	require.NoError(t, err)
	require.Len(t, step.ToolCalls, 1)
	assert.Equal(t, "final_response", step.ToolCalls[0].Name)
}

func TestSampleReturnsTextWhenNoResultTypeRequested(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{textResponse("done")}}

	result, err := Sample(context.Background(), client, Options{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "done", result.Text)
	assert.Equal(t, 1, result.Steps)
}

func TestSampleValidatesAndUnwrapsPrimitiveResultType(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{
		toolCallResponse("call-1", finalResponseTool, map[string]any{"value": "answer"}),
	}}

	result, err := Sample(context.Background(), client, Options{
		Messages:   []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		ResultType: map[string]any{"type": "string"},
	})
	require.NoError(t, err)
	assert.Equal(t, "answer", result.Structured)
	assert.Equal(t, 1, result.Steps)

	// The model saw a tool_choice forcing it toward the synthesized tool.
	assert.NotNil(t, client.lastReq.ToolChoice)
	assert.Equal(t, ToolChoiceAny, client.lastReq.ToolChoice.Mode)
}

func TestSampleRetriesOnValidationFailureThenSucceeds(t *testing.T) {
	t.Parallel()
	client := &scriptedClient{responses: []*Response{
		toolCallResponse("call-1", finalResponseTool, map[string]any{"value": 123}),
		toolCallResponse("call-2", finalResponseTool, map[string]any{"value": "42"}),
	}}

	result, err := Sample(context.Background(), client, Options{
		Messages:   []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		ResultType: map[string]any{"type": "string"},
	})
	require.NoError(t, err)
	assert.Equal(t, "42", result.Structured)
	assert.Equal(t, 2, result.Steps)
	assert.Equal(t, 2, client.calls)
}

func TestSampleExceedingSafetyCapReturnsErrorNotPartialState(t *testing.T) {
	t.Parallel()
	responses := make([]*Response, 3)
	for i := range responses {
		responses[i] = toolCallResponse("call", "loop", map[string]any{})
	}
	client := &scriptedClient{responses: responses}

	result, err := Sample(context.Background(), client, Options{
		Messages: []*Message{{Role: RoleUser, Parts: []Part{TextPart{Text: "go"}}}},
		Tools:    []LocalTool{{Definition: ToolDefinition{Name: "loop"}, Execute: func(context.Context, map[string]any) (any, error) { return "again", nil }}},
		MaxIterations: 3,
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "safety cap")
}
