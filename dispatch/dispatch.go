// Package dispatch implements the per-request dispatcher (spec §4.8, C8):
// it builds the per-request middleware chain around a provider-chain
// traversal, applies call_tool/read_resource/list_* precedence rules,
// and translates internal failures into the client-visible error
// taxonomy. It mirrors the request-handling shape of
// runtime/registry/manager.go's Manager (a fixed pipeline wrapping a set
// of federated sources, consulted in order, with consistent error
// mapping at the boundary) generalized from registry federation to the
// core's four component kinds.
package dispatch

import (
	"context"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/middleware"
	"goa.design/mcpcore/provider"
	"goa.design/mcpcore/transform"
	"goa.design/mcpcore/uritemplate"
)

// SessionTransforms resolves the per-session visibility rules (spec §4.6
// "session rules override global tag/version filters") to fold into a
// list_*, call_tool, read_resource, or get_prompt request, keyed by
// session id and scoped to the component kind being resolved. A server
// with no session-scoped overrides passes nil.
type SessionTransforms func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform

// Dispatcher ties a provider chain, a middleware chain, and the
// execution engine together into the single entry point transports call
// per incoming request.
type Dispatcher struct {
	Chain             *provider.Chain
	Middlewares       *middleware.Chain
	Exec              *exec.Engine
	MaskErrorDetails  bool
	SessionTransforms SessionTransforms
}

// New constructs a Dispatcher. middlewares may be an empty chain (built
// via middleware.NewChain()); engine must be non-nil.
func New(chain *provider.Chain, middlewares *middleware.Chain, engine *exec.Engine, maskErrorDetails bool) *Dispatcher {
	return &Dispatcher{
		Chain:            chain,
		Middlewares:      middlewares,
		Exec:             engine,
		MaskErrorDetails: maskErrorDetails,
	}
}

// CallToolRequest describes an incoming call_tool request (spec §4.8
// step 3).
type CallToolRequest struct {
	Name      string
	Arguments map[string]any
	Version   *component.VersionSpec
	SessionID string
	Source    string
	TaskMeta  *exec.TaskMeta
}

// CallTool resolves Name across the provider chain (first non-nil, non-
// disabled match wins) and invokes it through the execution engine.
// Exactly one of the two results is non-nil on success.
func (d *Dispatcher) CallTool(ctx context.Context, req CallToolRequest) (*exec.ToolResult, *exec.TaskCreated, error) {
	rc := &middleware.RequestContext{
		Kind:       middleware.RequestCallTool,
		Identifier: req.Name,
		Arguments:  req.Arguments,
		Source:     req.Source,
		SessionID:  req.SessionID,
	}

	final := func(ctx context.Context, rc *middleware.RequestContext) (any, error) {
		tool, err := d.Chain.GetTool(ctx, req.Name, req.Version)
		if err != nil {
			return nil, d.translate(err)
		}
		tool, ok := sessionFilterOne(ctx, d.SessionTransforms, req.SessionID, component.KindTool, tool)
		if !ok {
			return nil, errs.New(errs.KindNotFound, "unknown tool: "+req.Name)
		}
		result, created, err := d.Exec.InvokeTool(ctx, tool, req.Arguments, nil, req.TaskMeta)
		if err != nil {
			return nil, d.translate(err)
		}
		if created != nil {
			return created, nil
		}
		return result, nil
	}

	out, err := d.Middlewares.Build(final)(ctx, rc)
	if err != nil {
		return nil, nil, err
	}
	switch v := out.(type) {
	case *exec.ToolResult:
		return v, nil, nil
	case *exec.TaskCreated:
		return nil, v, nil
	default:
		return nil, nil, errs.New(errs.KindProtocol, "dispatcher produced an unexpected call_tool result")
	}
}

// ReadResource resolves uri against concrete resources first, then
// resource templates via pattern match (spec §4.8 step 4 / spec §4.5
// "concrete-before-template").
func (d *Dispatcher) ReadResource(ctx context.Context, uri, sessionID, source string) (*exec.ResourceContent, error) {
	rc := &middleware.RequestContext{
		Kind:       middleware.RequestReadResource,
		Identifier: uri,
		SessionID:  sessionID,
		Source:     source,
	}

	final := func(ctx context.Context, rc *middleware.RequestContext) (any, error) {
		res, err := d.Chain.GetResource(ctx, uri)
		if err != nil {
			return nil, d.translate(err)
		}
		if res, ok := sessionFilterOne(ctx, d.SessionTransforms, sessionID, component.KindResource, res); ok {
			content, err := exec.ReadResource(ctx, res)
			if err != nil {
				return nil, d.translate(err)
			}
			return content, nil
		}

		tmpl, err := d.Chain.GetResourceTemplate(ctx, uri)
		if err != nil {
			return nil, d.translate(err)
		}
		tmpl, ok := sessionFilterOne(ctx, d.SessionTransforms, sessionID, component.KindResourceTemplate, tmpl)
		if !ok {
			return nil, errs.New(errs.KindNotFound, "unknown resource: "+uri)
		}
		pattern, err := uritemplate.Compile(tmpl.URITemplate)
		if err != nil {
			return nil, errs.Wrap(errs.KindProtocol, "", err)
		}
		params, ok := pattern.Match(uri)
		if !ok {
			return nil, errs.New(errs.KindNotFound, "unknown resource: "+uri)
		}
		content, err := exec.ReadResourceTemplate(ctx, tmpl, uri, params)
		if err != nil {
			return nil, d.translate(err)
		}
		return content, nil
	}

	out, err := d.Middlewares.Build(final)(ctx, rc)
	if err != nil {
		return nil, err
	}
	return out.(*exec.ResourceContent), nil
}

// GetPromptRequest describes an incoming get_prompt request.
type GetPromptRequest struct {
	Name      string
	Arguments map[string]any
	Version   *component.VersionSpec
	SessionID string
	Source    string
}

// GetPrompt resolves Name across the provider chain and renders it.
func (d *Dispatcher) GetPrompt(ctx context.Context, req GetPromptRequest) ([]component.PromptMessage, error) {
	rc := &middleware.RequestContext{
		Kind:       middleware.RequestGetPrompt,
		Identifier: req.Name,
		Arguments:  req.Arguments,
		Source:     req.Source,
		SessionID:  req.SessionID,
	}

	final := func(ctx context.Context, rc *middleware.RequestContext) (any, error) {
		prompt, err := d.Chain.GetPrompt(ctx, req.Name, req.Version)
		if err != nil {
			return nil, d.translate(err)
		}
		prompt, ok := sessionFilterOne(ctx, d.SessionTransforms, req.SessionID, component.KindPrompt, prompt)
		if !ok {
			return nil, errs.New(errs.KindNotFound, "unknown prompt: "+req.Name)
		}
		messages, err := exec.RenderPrompt(ctx, prompt, req.Arguments)
		if err != nil {
			return nil, d.translate(err)
		}
		return messages, nil
	}

	out, err := d.Middlewares.Build(final)(ctx, rc)
	if err != nil {
		return nil, err
	}
	return out.([]component.PromptMessage), nil
}

// ListTools accumulates tools across the provider chain, applies the
// session's visibility transforms (if any), and drops disabled results
// (spec §4.8 step 5).
func (d *Dispatcher) ListTools(ctx context.Context, sessionID, source string) ([]*component.Tool, error) {
	out, err := d.list(ctx, middleware.RequestListTools, sessionID, source, func(ctx context.Context) (any, error) {
		return d.Chain.ListTools(ctx)
	})
	if err != nil {
		return nil, err
	}
	tools := sessionFilterList(ctx, d.SessionTransforms, sessionID, component.KindTool, out.([]*component.Tool))
	return filterEnabled(tools), nil
}

// ListResources accumulates resources across the provider chain.
func (d *Dispatcher) ListResources(ctx context.Context, sessionID, source string) ([]*component.Resource, error) {
	out, err := d.list(ctx, middleware.RequestListResources, sessionID, source, func(ctx context.Context) (any, error) {
		return d.Chain.ListResources(ctx)
	})
	if err != nil {
		return nil, err
	}
	resources := sessionFilterList(ctx, d.SessionTransforms, sessionID, component.KindResource, out.([]*component.Resource))
	return filterEnabled(resources), nil
}

// ListResourceTemplates accumulates resource templates across the
// provider chain.
func (d *Dispatcher) ListResourceTemplates(ctx context.Context, sessionID, source string) ([]*component.ResourceTemplate, error) {
	out, err := d.list(ctx, middleware.RequestListResourceTemplates, sessionID, source, func(ctx context.Context) (any, error) {
		return d.Chain.ListResourceTemplates(ctx)
	})
	if err != nil {
		return nil, err
	}
	templates := sessionFilterList(ctx, d.SessionTransforms, sessionID, component.KindResourceTemplate, out.([]*component.ResourceTemplate))
	return filterEnabled(templates), nil
}

// ListPrompts accumulates prompts across the provider chain.
func (d *Dispatcher) ListPrompts(ctx context.Context, sessionID, source string) ([]*component.Prompt, error) {
	out, err := d.list(ctx, middleware.RequestListPrompts, sessionID, source, func(ctx context.Context) (any, error) {
		return d.Chain.ListPrompts(ctx)
	})
	if err != nil {
		return nil, err
	}
	prompts := sessionFilterList(ctx, d.SessionTransforms, sessionID, component.KindPrompt, out.([]*component.Prompt))
	return filterEnabled(prompts), nil
}

func (d *Dispatcher) list(ctx context.Context, kind middleware.RequestKind, sessionID, source string, fetch func(context.Context) (any, error)) (any, error) {
	rc := &middleware.RequestContext{Kind: kind, SessionID: sessionID, Source: source}
	final := func(ctx context.Context, rc *middleware.RequestContext) (any, error) {
		v, err := fetch(ctx)
		if err != nil {
			return nil, d.translate(err)
		}
		return v, nil
	}
	return d.Middlewares.Build(final)(ctx, rc)
}

// cloneable is a component that can produce a detached shallow copy of
// itself, letting sessionFilterOne/sessionFilterList fold session-scoped
// transforms without mutating the provider's registered original.
type cloneable[T any] interface {
	transform.BaseAccessor
	Clone() T
}

// sessionFilterOne resolves a single matched component (the get/call
// paths) against the session's visibility transforms, scoped to kind. A
// nil component passes through unchanged (ok=false), matching the
// disabled-as-absent fallthrough the provider chain already uses for
// global Enabled=false. A component the session has hidden is reported
// as not found (ok=false) without mutating the original; components that
// remain visible are returned as a clone so callers never observe the
// registered pointer's Enabled field moving under them.
func sessionFilterOne[T cloneable[T]](ctx context.Context, st SessionTransforms, sessionID string, kind component.Kind, c T) (T, bool) {
	var zero T
	if any(c) == any(zero) {
		return zero, false
	}
	if st == nil {
		return c, true
	}
	transforms := st(ctx, sessionID, kind)
	if len(transforms) == 0 {
		return c, true
	}
	clone := c.Clone()
	transform.Chain(transform.ToItems([]T{clone}), transforms...)
	_, _, _, enabled := clone.TransformFields()
	if !*enabled {
		return zero, false
	}
	return clone, true
}

// sessionFilterList folds the dispatcher's session-scoped transforms over
// a list of components, which implement transform.BaseAccessor via their
// embedded component.Base. Each component is cloned before a transform is
// applied, so a session-scoped EnabledMark flips Enabled only on the
// per-request copy returned here, never on the provider's registered
// original. A nil SessionTransforms hook, or one that returns no
// transforms for this session, returns components unchanged.
func sessionFilterList[T cloneable[T]](ctx context.Context, st SessionTransforms, sessionID string, kind component.Kind, components []T) []T {
	if st == nil {
		return components
	}
	transforms := st(ctx, sessionID, kind)
	if len(transforms) == 0 {
		return components
	}
	clones := make([]T, len(components))
	for i, c := range components {
		clones[i] = c.Clone()
	}
	transform.Chain(transform.ToItems(clones), transforms...)
	return clones
}

func filterEnabled[T transform.BaseAccessor](components []T) []T {
	out := make([]T, 0, len(components))
	for _, c := range components {
		_, _, _, enabled := c.TransformFields()
		if *enabled {
			out = append(out, c)
		}
	}
	return out
}

// translate maps an internal error onto the client-visible taxonomy
// (spec §4.8 step 6): an error that is not a CoreError is wrapped as
// KindProtocol. When MaskErrorDetails is set, KindTool/KindResource/
// KindPrompt errors go through errs.Redact (which leaves user-raised
// errors intact); every other kind, KindValidation and KindNotFound
// included, passes through unmasked.
func (d *Dispatcher) translate(err error) error {
	ce, ok := err.(*errs.CoreError)
	if !ok {
		return errs.Wrap(errs.KindProtocol, "", err)
	}
	if !d.MaskErrorDetails {
		return ce
	}
	switch ce.Kind {
	case errs.KindTool, errs.KindResource, errs.KindPrompt:
		return errs.Redact(ce)
	default:
		return ce
	}
}
