package anthropicclient

import (
	"context"
	"encoding/json"
	"testing"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/mcpcore/sampling"
)

type stubMessagesClient struct {
	lastParams sdk.MessageNewParams
	resp       *sdk.Message
	err        error
}

func (s *stubMessagesClient) New(_ context.Context, body sdk.MessageNewParams, _ ...option.RequestOption) (*sdk.Message, error) {
	s.lastParams = body
	return s.resp, s.err
}

func TestCompleteTranslatesTextResponse(t *testing.T) {
	t.Parallel()
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content:    []sdk.ContentBlockUnion{{Type: "text", Text: "world"}},
		StopReason: sdk.StopReasonEndTurn,
		Usage:      sdk.Usage{InputTokens: 10, OutputTokens: 5},
	}}
	cl, err := New(stub, Options{DefaultModel: "claude", MaxTokens: 256})
	require.NoError(t, err)

	resp, err := cl.Complete(context.Background(), sampling.Request{
		Messages: []*sampling.Message{{Role: sampling.RoleUser, Parts: []sampling.Part{sampling.TextPart{Text: "hello"}}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Content, 1)
	assert.Equal(t, "world", resp.Content[0].Parts[0].(sampling.TextPart).Text)
	assert.Equal(t, string(sdk.StopReasonEndTurn), resp.StopReason)
	assert.Equal(t, 15, resp.Usage.TotalTokens)
	assert.Equal(t, int64(256), stub.lastParams.MaxTokens)
}

func TestCompleteTranslatesToolUseResponse(t *testing.T) {
	t.Parallel()
	stub := &stubMessagesClient{resp: &sdk.Message{
		Content: []sdk.ContentBlockUnion{{
			Type:  "tool_use",
			Name:  "search",
			ID:    "tool-1",
			Input: json.RawMessage(`{"q":"go"}`),
		}},
		StopReason: sdk.StopReasonToolUse,
	}}
	cl, err := New(stub, Options{DefaultModel: "claude", MaxTokens: 256})
	require.NoError(t, err)

	resp, err := cl.Complete(context.Background(), sampling.Request{
		Messages: []*sampling.Message{{Role: sampling.RoleUser, Parts: []sampling.Part{sampling.TextPart{Text: "go search"}}}},
		Tools:    []*sampling.ToolDefinition{{Name: "search", Description: "search the web", InputSchema: map[string]any{"type": "object"}}},
	})
	require.NoError(t, err)
	require.Len(t, resp.ToolCalls, 1)
	assert.Equal(t, "search", resp.ToolCalls[0].Name)
	assert.Equal(t, "tool-1", resp.ToolCalls[0].ID)
	assert.Equal(t, map[string]any{"q": "go"}, resp.ToolCalls[0].Payload)
}

func TestNewRequiresDefaultModel(t *testing.T) {
	t.Parallel()
	_, err := New(&stubMessagesClient{}, Options{})
	assert.Error(t, err)
}
