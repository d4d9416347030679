// Package provider implements the component registry and provider chain of
// spec §4.2/§4.4 (C4, C5): the LocalProvider that owns directly-registered
// components, and the Mounted/Transforming/OpenAPI/Proxy providers that
// compose over it, plus the chain-level precedence rules the dispatcher
// relies on.
package provider

import (
	"context"

	"goa.design/mcpcore/component"
)

// Provider is the uniform interface every component source implements,
// whether it holds components directly (LocalProvider) or forwards to
// another source (Mounted/Transforming/OpenAPI/Proxy). The dispatcher never
// distinguishes between these — it only calls Provider methods (spec §4.4).
type Provider interface {
	ListTools(ctx context.Context) ([]*component.Tool, error)
	GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error)

	ListResources(ctx context.Context) ([]*component.Resource, error)
	GetResource(ctx context.Context, uri string) (*component.Resource, error)

	ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error)
	GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error)

	ListPrompts(ctx context.Context) ([]*component.Prompt, error)
	GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error)

	// GetComponent resolves an arbitrary key regardless of kind, used by
	// task.ChainResolver to resolve a task's target key back to a
	// component.
	GetComponent(ctx context.Context, key component.Key) (any, error)

	// ListTasks returns in-flight tasks this provider knows about. Optional;
	// providers with no task awareness return nil, nil.
	ListTasks(ctx context.Context) ([]any, error)

	// Lifespan acquires provider-scoped resources at server start. The
	// returned release function is called in reverse order at shutdown.
	// Providers with nothing to acquire return a no-op release.
	Lifespan(ctx context.Context) (release func(context.Context) error, err error)
}

// Chain composes providers with first-hit-wins precedence: for get_*
// queries, providers are consulted in registration (slice) order and the
// first non-nil result wins; for list_*, results accumulate keyed by
// (kind, identifier) with first-in-wins on duplicates (spec §4.4
// "Precedence").
type Chain struct {
	providers []Provider
}

// NewChain builds a provider chain. LocalProvider is conventionally first,
// per spec §4.2 ("always present, always first"), but Chain itself does not
// enforce that — callers construct the slice in the order they want
// precedence to follow.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Providers returns the chain's providers in registration order.
func (c *Chain) Providers() []Provider { return c.providers }

// GetTool returns the first non-nil tool match across providers in order.
func (c *Chain) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	for _, p := range c.providers {
		t, err := p.GetTool(ctx, name, vs)
		if err != nil {
			return nil, err
		}
		if t != nil {
			return t, nil
		}
	}
	return nil, nil
}

// GetResource returns the first non-nil resource match across providers in
// order.
func (c *Chain) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	for _, p := range c.providers {
		r, err := p.GetResource(ctx, uri)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}

// GetResourceTemplate returns the first non-nil template match across
// providers in order.
func (c *Chain) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	for _, p := range c.providers {
		rt, err := p.GetResourceTemplate(ctx, uri)
		if err != nil {
			return nil, err
		}
		if rt != nil {
			return rt, nil
		}
	}
	return nil, nil
}

// GetPrompt returns the first non-nil prompt match across providers in
// order.
func (c *Chain) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	for _, p := range c.providers {
		pr, err := p.GetPrompt(ctx, name, vs)
		if err != nil {
			return nil, err
		}
		if pr != nil {
			return pr, nil
		}
	}
	return nil, nil
}

// GetComponent returns the first non-nil match for key across providers in
// order.
func (c *Chain) GetComponent(ctx context.Context, key component.Key) (any, error) {
	for _, p := range c.providers {
		v, err := p.GetComponent(ctx, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			return v, nil
		}
	}
	return nil, nil
}

// ListTools accumulates tools across providers keyed by Key, first-in-wins
// on duplicates.
func (c *Chain) ListTools(ctx context.Context) ([]*component.Tool, error) {
	seen := map[component.Key]struct{}{}
	var out []*component.Tool
	for _, p := range c.providers {
		tools, err := p.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			k := t.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	return out, nil
}

// ListResources accumulates resources across providers keyed by URI,
// first-in-wins on duplicates.
func (c *Chain) ListResources(ctx context.Context) ([]*component.Resource, error) {
	seen := map[string]struct{}{}
	var out []*component.Resource
	for _, p := range c.providers {
		resources, err := p.ListResources(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range resources {
			if _, dup := seen[r.URI]; dup {
				continue
			}
			seen[r.URI] = struct{}{}
			out = append(out, r)
		}
	}
	return out, nil
}

// ListResourceTemplates accumulates templates across providers keyed by
// Key, first-in-wins on duplicates.
func (c *Chain) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	seen := map[component.Key]struct{}{}
	var out []*component.ResourceTemplate
	for _, p := range c.providers {
		templates, err := p.ListResourceTemplates(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range templates {
			k := t.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	return out, nil
}

// ListPrompts accumulates prompts across providers keyed by Key,
// first-in-wins on duplicates.
func (c *Chain) ListPrompts(ctx context.Context) ([]*component.Prompt, error) {
	seen := map[component.Key]struct{}{}
	var out []*component.Prompt
	for _, p := range c.providers {
		prompts, err := p.ListPrompts(ctx)
		if err != nil {
			return nil, err
		}
		for _, pr := range prompts {
			k := pr.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, pr)
		}
	}
	return out, nil
}

// EnterLifespans enters every provider's Lifespan in chain order, returning
// a single release function that releases them in reverse order (spec
// §4.4). If a provider's Lifespan fails, already-entered providers are
// released before the error is returned.
func (c *Chain) EnterLifespans(ctx context.Context) (release func(context.Context) error, err error) {
	var releases []func(context.Context) error
	for _, p := range c.providers {
		rel, err := p.Lifespan(ctx)
		if err != nil {
			releaseAll(ctx, releases)
			return nil, err
		}
		releases = append(releases, rel)
	}
	return func(ctx context.Context) error {
		return releaseAll(ctx, releases)
	}, nil
}

func releaseAll(ctx context.Context, releases []func(context.Context) error) error {
	var firstErr error
	for i := len(releases) - 1; i >= 0; i-- {
		if err := releases[i](ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
