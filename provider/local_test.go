package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/mcpcore/component"
)

func TestLocalProviderGetToolDefaultsToHighestVersion(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)

	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "search", Enabled: true, Version: "1.0.0"}}))
	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "search", Enabled: true, Version: "2.0.0"}}))

	got, err := p.GetTool(ctx, "search", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "2.0.0", got.Version)
}

func TestLocalProviderRejectsVersionMixing(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)

	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "search", Enabled: true, Version: "1.0.0"}}))
	err := p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "search", Enabled: true, Version: ""}})
	assert.Error(t, err)
}

func TestLocalProviderDuplicatePolicyError(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)

	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "a", Enabled: true}}))
	err := p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "a", Enabled: true}})
	assert.Error(t, err)
}

func TestLocalProviderDuplicatePolicyReplace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyReplace, nil)

	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "a", Enabled: true, Description: "first"}}))
	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "a", Enabled: true, Description: "second"}}))

	got, err := p.GetTool(ctx, "a", nil)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Description)
}

func TestLocalProviderDisabledToolIsNotFound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)
	require.NoError(t, p.AddTool(ctx, &component.Tool{Base: component.Base{Name: "a", Enabled: false}}))

	got, err := p.GetTool(ctx, "a", nil)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestLocalProviderResourceTemplateFirstMatchWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)

	require.NoError(t, p.AddResourceTemplate(ctx, &component.ResourceTemplate{
		Base: component.Base{Name: "wildcard", Enabled: true}, URITemplate: "files://{path*}",
	}))
	require.NoError(t, p.AddResourceTemplate(ctx, &component.ResourceTemplate{
		Base: component.Base{Name: "specific", Enabled: true}, URITemplate: "files://a/b.txt",
	}))

	got, err := p.GetResourceTemplate(ctx, "files://a/b.txt")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wildcard", got.Name, "broad wildcard registered first shadows the later specific template")
}

func TestLocalProviderGetComponentByKey(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	p := NewLocalProvider(PolicyError, nil)
	tool := &component.Tool{Base: component.Base{Name: "a", Enabled: true}}
	require.NoError(t, p.AddTool(ctx, tool))

	got, err := p.GetComponent(ctx, tool.Key())
	require.NoError(t, err)
	assert.Same(t, tool, got)
}
