package server

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/config"
	"goa.design/mcpcore/dispatch"
	"goa.design/mcpcore/schema"
	"goa.design/mcpcore/session"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.New(config.WithName("demo"))
	s, err := New(WithConfig(cfg))
	require.NoError(t, err)
	return s
}

func TestNewRequiresConfig(t *testing.T) {
	t.Parallel()
	_, err := New()
	assert.Error(t, err)
}

func TestToolRegistersAndDispatches(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	err := s.Tool(ctx, ToolSpec{
		Name: "greet",
		Params: []schema.Param{
			{Name: "who", Kind: schema.ParamString, Required: true},
		},
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return "hello " + args["who"].(string), nil
		},
	})
	require.NoError(t, err)

	result, created, err := s.Dispatcher.CallTool(ctx, dispatch.CallToolRequest{
		Name:      "greet",
		Arguments: map[string]any{"who": "world"},
	})
	require.NoError(t, err)
	assert.Nil(t, created)
	require.Len(t, result.Content, 1)
	assert.Equal(t, "hello world", result.Content[0].Text)
}

func TestToolRequiresCallable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	err := s.Tool(context.Background(), ToolSpec{Name: "broken"})
	assert.Error(t, err)
}

func TestToolWrapsNonObjectResultType(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	err := s.Tool(context.Background(), ToolSpec{
		Name:       "count",
		ResultType: map[string]any{"type": "integer"},
		Fn:         func(context.Context, map[string]any) (any, error) { return 3, nil },
	})
	require.NoError(t, err)

	tool, err := s.Chain().GetTool(context.Background(), "count", nil)
	require.NoError(t, err)
	assert.Equal(t, true, tool.OutputSchema[schema.WrapResultKey])
}

func TestResourceRegistersStaticContent(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	err := s.Resource(ctx, ResourceSpec{
		Name:    "readme",
		URI:     "file:///readme.md",
		Content: "hello",
	})
	require.NoError(t, err)

	content, err := s.Dispatcher.ReadResource(ctx, "file:///readme.md", "", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", content.Text)
}

func TestResourceRequiresContentOrCallable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	err := s.Resource(context.Background(), ResourceSpec{Name: "empty", URI: "file:///x"})
	assert.Error(t, err)
}

func TestResourceTemplateRequiresCallable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	err := s.ResourceTemplate(context.Background(), ResourceTemplateSpec{Name: "t", URITemplate: "users://{id}"})
	assert.Error(t, err)
}

func TestPromptRegistersAndRenders(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	err := s.Prompt(ctx, PromptSpec{
		Name: "welcome",
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return "welcome!", nil
		},
	})
	require.NoError(t, err)

	messages, err := s.Dispatcher.GetPrompt(ctx, dispatch.GetPromptRequest{Name: "welcome"})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "welcome!", messages[0].Content)
}

func TestPromptRequiresCallable(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	err := s.Prompt(context.Background(), PromptSpec{Name: "empty"})
	assert.Error(t, err)
}

func TestEnterLifespansEntersAndReleasesWithoutError(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	release, err := s.EnterLifespans(context.Background())
	require.NoError(t, err)
	require.NoError(t, release(context.Background()))
}

func TestSessionsDefaultsToMemStore(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	assert.NotNil(t, s.Sessions())
}

func TestSessionVisibilityRulesAreWiredThroughTheDispatcher(t *testing.T) {
	t.Parallel()
	s := newTestServer(t)
	ctx := context.Background()

	err := s.Tool(ctx, ToolSpec{
		Name: "greet",
		Params: []schema.Param{
			{Name: "who", Kind: schema.ParamString, Required: true},
		},
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return "hello " + args["who"].(string), nil
		},
	})
	require.NoError(t, err)

	require.NoError(t, session.SetVisibilityRules(ctx, s.Sessions(), "sess-1", []session.Rule{
		{Kind: component.KindTool, Name: "greet", Enabled: false},
	}))

	_, _, err = s.Dispatcher.CallTool(ctx, dispatch.CallToolRequest{
		Name:      "greet",
		Arguments: map[string]any{"who": "world"},
		SessionID: "sess-1",
	})
	assert.Error(t, err, "a session with a disabling visibility rule must not be able to call the tool")

	result, _, err := s.Dispatcher.CallTool(ctx, dispatch.CallToolRequest{
		Name:      "greet",
		Arguments: map[string]any{"who": "world"},
		SessionID: "sess-2",
	})
	require.NoError(t, err, "a session with no visibility rules is unaffected")
	assert.Equal(t, "hello world", result.Content[0].Text)
}
