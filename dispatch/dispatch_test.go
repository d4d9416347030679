package dispatch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/middleware"
	"goa.design/mcpcore/provider"
	"goa.design/mcpcore/transform"
)

func newDispatcher(t *testing.T, mask bool) (*Dispatcher, *provider.LocalProvider) {
	t.Helper()
	local := provider.NewLocalProvider(provider.PolicyError, nil)
	chain := provider.NewChain(local)
	return New(chain, middleware.NewChain(), exec.NewEngine(nil), mask), local
}

func TestCallToolReturnsNotFoundForUnknownTool(t *testing.T) {
	t.Parallel()
	d, _ := newDispatcher(t, false)

	_, _, err := d.CallTool(context.Background(), CallToolRequest{Name: "missing"})
	require.Error(t, err)
	assert.True(t, errs.KindNotFound == err.(*errs.CoreError).Kind)
}

func TestCallToolInvokesMatchedTool(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{
		Base: component.Base{Name: "echo", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return args["msg"], nil
		},
	}))

	result, created, err := d.CallTool(context.Background(), CallToolRequest{Name: "echo", Arguments: map[string]any{"msg": "hi"}})
	require.NoError(t, err)
	assert.Nil(t, created)
	require.NotNil(t, result)
	assert.Equal(t, "hi", result.Content[0].Text)
}

func TestCallToolMasksToolErrorWhenConfigured(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, true)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{
		Base: component.Base{Name: "boom", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errs.New(errs.KindTool, "leaked internal detail")
		},
	}))

	_, _, err := d.CallTool(context.Background(), CallToolRequest{Name: "boom"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "leaked internal detail")
}

func TestCallToolDoesNotMaskValidationErrors(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, true)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{
		Base: component.Base{Name: "strict", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return nil, errs.Raise(errs.KindValidation, "bad argument: count")
		},
	}))

	_, _, err := d.CallTool(context.Background(), CallToolRequest{Name: "strict"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad argument: count")
}

func TestReadResourcePrefersConcreteOverTemplate(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddResourceTemplate(context.Background(), &component.ResourceTemplate{
		Base:        component.Base{Name: "tmpl", Enabled: true},
		URITemplate: "files://{name}",
		Fn: func(ctx context.Context, params map[string]string) (any, error) {
			return "from template", nil
		},
	}))
	require.NoError(t, local.AddResource(context.Background(), &component.Resource{
		Base:    component.Base{Name: "concrete", Enabled: true},
		URI:     "files://a.txt",
		Content: "from concrete",
	}))

	content, err := d.ReadResource(context.Background(), "files://a.txt", "", "")
	require.NoError(t, err)
	assert.Equal(t, "from concrete", content.Text)
}

func TestReadResourceFallsBackToTemplate(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddResourceTemplate(context.Background(), &component.ResourceTemplate{
		Base:        component.Base{Name: "tmpl", Enabled: true},
		URITemplate: "files://{name}",
		Fn: func(ctx context.Context, params map[string]string) (any, error) {
			return "hello " + params["name"], nil
		},
	}))

	content, err := d.ReadResource(context.Background(), "files://b.txt", "", "")
	require.NoError(t, err)
	assert.Equal(t, "hello b.txt", content.Text)
}

func TestListToolsFiltersDisabledAndAppliesSessionTransforms(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{Base: component.Base{Name: "a", Enabled: true}}))
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{Base: component.Base{Name: "b", Enabled: true}}))

	d.SessionTransforms = func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform {
		return []transform.Transform{
			transform.EnabledMark{Enabled: false, Match: func(it transform.Item) bool {
				return true
			}},
		}
	}

	tools, err := d.ListTools(context.Background(), "sess-1", "")
	require.NoError(t, err)
	assert.Empty(t, tools, "session transform disabling everything should leave no tools visible")

	registered, err := local.GetTool(context.Background(), "a", nil)
	require.NoError(t, err)
	require.NotNil(t, registered)
	assert.True(t, registered.Enabled, "session transform must not mutate the registered tool")
}

func TestListToolsWithNoSessionTransformsReturnsAllEnabled(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{Base: component.Base{Name: "a", Enabled: true}}))
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{Base: component.Base{Name: "b", Enabled: false}}))

	tools, err := d.ListTools(context.Background(), "", "")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "a", tools[0].Name)
}

func TestCallToolHonorsSessionVisibilityAndDoesNotMutateRegistry(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddTool(context.Background(), &component.Tool{
		Base: component.Base{Name: "echo", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return args["msg"], nil
		},
	}))

	d.SessionTransforms = func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform {
		if sessionID != "sess-hidden" || kind != component.KindTool {
			return nil
		}
		return []transform.Transform{
			transform.EnabledMark{Enabled: false, Match: func(it transform.Item) bool { return it.Name() == "echo" }},
		}
	}

	_, _, err := d.CallTool(context.Background(), CallToolRequest{Name: "echo", SessionID: "sess-hidden", Arguments: map[string]any{"msg": "hi"}})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, err.(*errs.CoreError).Kind)

	result, _, err := d.CallTool(context.Background(), CallToolRequest{Name: "echo", SessionID: "sess-visible", Arguments: map[string]any{"msg": "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "hi", result.Content[0].Text)

	registered, err := local.GetTool(context.Background(), "echo", nil)
	require.NoError(t, err)
	assert.True(t, registered.Enabled, "a session-hidden call must not mutate the registered tool")
}

func TestReadResourceHonorsSessionVisibility(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddResource(context.Background(), &component.Resource{
		Base:    component.Base{Name: "readme", Enabled: true},
		URI:     "files://readme.md",
		Content: "hello",
	}))
	require.NoError(t, local.AddResourceTemplate(context.Background(), &component.ResourceTemplate{
		Base:        component.Base{Name: "tmpl", Enabled: true},
		URITemplate: "files://{name}",
		Fn: func(ctx context.Context, params map[string]string) (any, error) {
			return "from template: " + params["name"], nil
		},
	}))

	d.SessionTransforms = func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform {
		if sessionID != "sess-hidden" || kind != component.KindResource {
			return nil
		}
		return []transform.Transform{
			transform.EnabledMark{Enabled: false, Match: func(it transform.Item) bool { return true }},
		}
	}

	content, err := d.ReadResource(context.Background(), "files://readme.md", "sess-hidden", "")
	require.NoError(t, err, "a session-hidden concrete resource falls through to the matching template")
	assert.Equal(t, "from template: readme.md", content.Text)

	content, err = d.ReadResource(context.Background(), "files://readme.md", "", "")
	require.NoError(t, err)
	assert.Equal(t, "hello", content.Text)

	registered, err := local.GetResource(context.Background(), "files://readme.md")
	require.NoError(t, err)
	assert.True(t, registered.Enabled, "a session-hidden read must not mutate the registered resource")
}

func TestGetPromptHonorsSessionVisibility(t *testing.T) {
	t.Parallel()
	d, local := newDispatcher(t, false)
	require.NoError(t, local.AddPrompt(context.Background(), &component.Prompt{
		Base: component.Base{Name: "welcome", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return "hi", nil
		},
	}))

	d.SessionTransforms = func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform {
		if sessionID != "sess-hidden" {
			return nil
		}
		return []transform.Transform{
			transform.EnabledMark{Enabled: false, Match: func(it transform.Item) bool { return true }},
		}
	}

	_, err := d.GetPrompt(context.Background(), GetPromptRequest{Name: "welcome", SessionID: "sess-hidden"})
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, err.(*errs.CoreError).Kind)

	messages, err := d.GetPrompt(context.Background(), GetPromptRequest{Name: "welcome"})
	require.NoError(t, err)
	require.Len(t, messages, 1)

	registered, err := local.GetPrompt(context.Background(), "welcome", nil)
	require.NoError(t, err)
	assert.True(t, registered.Enabled, "a session-hidden get must not mutate the registered prompt")
}
