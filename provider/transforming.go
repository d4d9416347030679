package provider

import (
	"context"
	"fmt"
	"strings"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
)

// TransformingProvider wraps another provider, applying a namespace prefix
// to names and resource URIs and/or a tool_renames map (spec §4.4). Tool
// renames bypass namespace prefixing entirely.
type TransformingProvider struct {
	inner       Provider
	namespace   string
	toolRenames map[string]string // original name -> new name
}

var _ Provider = (*TransformingProvider)(nil)

// NewTransformingProvider wraps inner with a namespace prefix and/or an
// explicit rename map. toolRenames values must be unique target names; New
// returns an error otherwise (spec §4.4).
func NewTransformingProvider(inner Provider, namespace string, toolRenames map[string]string) (*TransformingProvider, error) {
	seen := map[string]struct{}{}
	for _, to := range toolRenames {
		if _, dup := seen[to]; dup {
			return nil, errs.New(errs.KindValidation, fmt.Sprintf("tool_renames target %q is not unique", to))
		}
		seen[to] = struct{}{}
	}
	return &TransformingProvider{inner: inner, namespace: namespace, toolRenames: toolRenames}, nil
}

func (t *TransformingProvider) externalToolName(original string) string {
	if renamed, ok := t.toolRenames[original]; ok {
		return renamed
	}
	if t.namespace == "" {
		return original
	}
	return t.namespace + "_" + original
}

func (t *TransformingProvider) originalToolName(external string) string {
	for orig, renamed := range t.toolRenames {
		if renamed == external {
			return orig
		}
	}
	if t.namespace == "" {
		return external
	}
	prefix := t.namespace + "_"
	if strings.HasPrefix(external, prefix) {
		return strings.TrimPrefix(external, prefix)
	}
	return external
}

func (t *TransformingProvider) externalURI(original string) string {
	if t.namespace == "" {
		return original
	}
	scheme, rest, ok := strings.Cut(original, "://")
	if !ok {
		return original
	}
	return scheme + "://" + t.namespace + "/" + rest
}

func (t *TransformingProvider) originalURI(external string) string {
	if t.namespace == "" {
		return external
	}
	scheme, rest, ok := strings.Cut(external, "://")
	if !ok {
		return external
	}
	prefix := t.namespace + "/"
	if strings.HasPrefix(rest, prefix) {
		return scheme + "://" + strings.TrimPrefix(rest, prefix)
	}
	return external
}

func (t *TransformingProvider) ListTools(ctx context.Context) ([]*component.Tool, error) {
	tools, err := t.inner.ListTools(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*component.Tool, len(tools))
	for i, tool := range tools {
		cp := *tool
		cp.Name = t.externalToolName(tool.Name)
		out[i] = &cp
	}
	return out, nil
}

func (t *TransformingProvider) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	tool, err := t.inner.GetTool(ctx, t.originalToolName(name), vs)
	if err != nil || tool == nil {
		return nil, err
	}
	cp := *tool
	cp.Name = t.externalToolName(tool.Name)
	return &cp, nil
}

func (t *TransformingProvider) ListResources(ctx context.Context) ([]*component.Resource, error) {
	resources, err := t.inner.ListResources(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*component.Resource, len(resources))
	for i, r := range resources {
		cp := *r
		cp.URI = t.externalURI(r.URI)
		out[i] = &cp
	}
	return out, nil
}

func (t *TransformingProvider) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	r, err := t.inner.GetResource(ctx, t.originalURI(uri))
	if err != nil || r == nil {
		return nil, err
	}
	cp := *r
	cp.URI = t.externalURI(r.URI)
	return &cp, nil
}

func (t *TransformingProvider) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	templates, err := t.inner.ListResourceTemplates(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*component.ResourceTemplate, len(templates))
	for i, tmpl := range templates {
		cp := *tmpl
		cp.URITemplate = t.externalURI(tmpl.URITemplate)
		out[i] = &cp
	}
	return out, nil
}

func (t *TransformingProvider) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	tmpl, err := t.inner.GetResourceTemplate(ctx, t.originalURI(uri))
	if err != nil || tmpl == nil {
		return nil, err
	}
	cp := *tmpl
	cp.URITemplate = t.externalURI(tmpl.URITemplate)
	return &cp, nil
}

func (t *TransformingProvider) ListPrompts(ctx context.Context) ([]*component.Prompt, error) {
	prompts, err := t.inner.ListPrompts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*component.Prompt, len(prompts))
	for i, p := range prompts {
		cp := *p
		cp.Name = t.externalToolName(p.Name)
		out[i] = &cp
	}
	return out, nil
}

func (t *TransformingProvider) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	p, err := t.inner.GetPrompt(ctx, t.originalToolName(name), vs)
	if err != nil || p == nil {
		return nil, err
	}
	cp := *p
	cp.Name = t.externalToolName(p.Name)
	return &cp, nil
}

// GetComponent forwards to inner unchanged: a Key carries the original
// (pre-transform) identity, which callers resolve before externalizing
// names, so no translation is needed here.
func (t *TransformingProvider) GetComponent(ctx context.Context, key component.Key) (any, error) {
	return t.inner.GetComponent(ctx, key)
}

func (t *TransformingProvider) ListTasks(ctx context.Context) ([]any, error) {
	return t.inner.ListTasks(ctx)
}

func (t *TransformingProvider) Lifespan(ctx context.Context) (func(context.Context) error, error) {
	return t.inner.Lifespan(ctx)
}
