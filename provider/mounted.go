package provider

import (
	"context"

	"goa.design/mcpcore/component"
)

// Dispatcher is the minimal surface a mounted child server exposes to its
// parent: the listing/lookup half only. A component resolved through a
// MountedProvider is invoked by the parent's dispatcher and engine, which
// call the child component's callable directly; the child's own
// dispatcher and middleware are not involved in that call. The child's
// lifespan runs for the parent's lifetime via MountedProvider.Lifespan.
type Dispatcher interface {
	Provider
}

// MountedProvider wraps a child server (a FastMCP-style mounted server or
// any object presenting the Provider shape) so it participates in the
// parent's provider chain like any local component source.
type MountedProvider struct {
	child Dispatcher
}

var _ Provider = (*MountedProvider)(nil)

// NewMountedProvider wraps child for inclusion in a parent's chain.
func NewMountedProvider(child Dispatcher) *MountedProvider {
	return &MountedProvider{child: child}
}

func (m *MountedProvider) ListTools(ctx context.Context) ([]*component.Tool, error) {
	return m.child.ListTools(ctx)
}

func (m *MountedProvider) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	return m.child.GetTool(ctx, name, vs)
}

func (m *MountedProvider) ListResources(ctx context.Context) ([]*component.Resource, error) {
	return m.child.ListResources(ctx)
}

func (m *MountedProvider) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	return m.child.GetResource(ctx, uri)
}

func (m *MountedProvider) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	return m.child.ListResourceTemplates(ctx)
}

func (m *MountedProvider) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	return m.child.GetResourceTemplate(ctx, uri)
}

func (m *MountedProvider) ListPrompts(ctx context.Context) ([]*component.Prompt, error) {
	return m.child.ListPrompts(ctx)
}

func (m *MountedProvider) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	return m.child.GetPrompt(ctx, name, vs)
}

func (m *MountedProvider) GetComponent(ctx context.Context, key component.Key) (any, error) {
	return m.child.GetComponent(ctx, key)
}

func (m *MountedProvider) ListTasks(ctx context.Context) ([]any, error) {
	return m.child.ListTasks(ctx)
}

// Lifespan enters the child's lifespan so it runs for the duration of the
// parent server's lifetime (spec §4.4).
func (m *MountedProvider) Lifespan(ctx context.Context) (func(context.Context) error, error) {
	return m.child.Lifespan(ctx)
}
