package provider

import (
	"context"

	"golang.org/x/sync/singleflight"

	"goa.design/mcpcore/component"
)

// RemoteSession is a connected session against a remote MCP server, the
// shape a ProxyProvider forwards list/get operations through.
type RemoteSession interface {
	Provider
	// Connected reports whether the underlying transport connection is
	// still alive. A ProxyProvider creates a fresh session per request
	// when Connected is false rather than reuse a dead one.
	Connected() bool
	Close(ctx context.Context) error
}

// SessionFactory creates a new RemoteSession against the proxied server.
type SessionFactory func(ctx context.Context) (RemoteSession, error)

// ProxyProvider represents a remote MCP server through a session factory
// (spec §4.4): it reuses a connected session across requests when possible,
// and falls back to creating a fresh one per request otherwise. Concurrent
// callers racing to (re)connect share a single in-flight connect via
// singleflight rather than each opening their own transport connection.
type ProxyProvider struct {
	factory SessionFactory
	group   singleflight.Group

	current RemoteSession
}

var _ Provider = (*ProxyProvider)(nil)

// NewProxyProvider constructs a ProxyProvider around factory. No session is
// created until the first operation.
func NewProxyProvider(factory SessionFactory) *ProxyProvider {
	return &ProxyProvider{factory: factory}
}

// session returns a connected RemoteSession, reusing p.current when it
// reports itself connected and otherwise establishing a new one. Concurrent
// callers collapse into a single factory invocation via singleflight,
// keyed on a constant key since there is only ever one logical connection
// slot per ProxyProvider.
func (p *ProxyProvider) session(ctx context.Context) (RemoteSession, error) {
	if p.current != nil && p.current.Connected() {
		return p.current, nil
	}
	v, err, _ := p.group.Do("connect", func() (any, error) {
		if p.current != nil && p.current.Connected() {
			return p.current, nil
		}
		s, err := p.factory(ctx)
		if err != nil {
			return nil, err
		}
		p.current = s
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(RemoteSession), nil
}

func (p *ProxyProvider) ListTools(ctx context.Context) ([]*component.Tool, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListTools(ctx)
}

func (p *ProxyProvider) GetTool(ctx context.Context, name string, vs *component.VersionSpec) (*component.Tool, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetTool(ctx, name, vs)
}

func (p *ProxyProvider) ListResources(ctx context.Context) ([]*component.Resource, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListResources(ctx)
}

func (p *ProxyProvider) GetResource(ctx context.Context, uri string) (*component.Resource, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetResource(ctx, uri)
}

func (p *ProxyProvider) ListResourceTemplates(ctx context.Context) ([]*component.ResourceTemplate, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListResourceTemplates(ctx)
}

func (p *ProxyProvider) GetResourceTemplate(ctx context.Context, uri string) (*component.ResourceTemplate, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetResourceTemplate(ctx, uri)
}

func (p *ProxyProvider) ListPrompts(ctx context.Context) ([]*component.Prompt, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListPrompts(ctx)
}

func (p *ProxyProvider) GetPrompt(ctx context.Context, name string, vs *component.VersionSpec) (*component.Prompt, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetPrompt(ctx, name, vs)
}

func (p *ProxyProvider) GetComponent(ctx context.Context, key component.Key) (any, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.GetComponent(ctx, key)
}

func (p *ProxyProvider) ListTasks(ctx context.Context) ([]any, error) {
	s, err := p.session(ctx)
	if err != nil {
		return nil, err
	}
	return s.ListTasks(ctx)
}

// Lifespan closes the current remote session, if any, on shutdown. No
// session is required to exist at acquisition time since ProxyProvider
// connects lazily.
func (p *ProxyProvider) Lifespan(ctx context.Context) (func(context.Context) error, error) {
	return func(ctx context.Context) error {
		if p.current == nil {
			return nil
		}
		return p.current.Close(ctx)
	}, nil
}
