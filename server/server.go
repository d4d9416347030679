// Package server assembles a configured MCP server from its components:
// a provider chain rooted at a local registry, a middleware chain, an
// execution engine, and a request dispatcher. Registration happens through
// an explicit builder (Server.Tool/Resource/ResourceTemplate/Prompt) that
// takes a callable plus a metadata descriptor, rather than through stacked
// decorators.
package server

import (
	"context"
	"fmt"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/config"
	"goa.design/mcpcore/dispatch"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/middleware"
	"goa.design/mcpcore/provider"
	"goa.design/mcpcore/schema"
	"goa.design/mcpcore/session"
	"goa.design/mcpcore/telemetry"
	"goa.design/mcpcore/transform"
)

// Server owns the provider chain, middleware chain, execution engine, and
// dispatcher wired together for one MCP server instance.
type Server struct {
	cfg *config.ServerConfig
	log telemetry.Logger

	local      *provider.LocalProvider
	chain      *provider.Chain
	middleware *middleware.Chain
	engine     *exec.Engine
	sessions   session.StateStore

	Dispatcher *dispatch.Dispatcher
}

// Option configures a Server under construction.
type Option func(*options)

type options struct {
	cfg         *config.ServerConfig
	log         telemetry.Logger
	runner      exec.TaskRunner
	sessions    session.StateStore
	extra       []provider.Provider
	middlewares []middleware.Middleware
}

// WithConfig sets the server's environment configuration. Required.
func WithConfig(cfg *config.ServerConfig) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithLogger sets the logger the local provider uses.
func WithLogger(log telemetry.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithTaskRunner sets the backend the execution engine submits background
// tool invocations to. Required when any registered tool's TaskConfig.Mode
// is TaskModeOptional or TaskModeRequired.
func WithTaskRunner(runner exec.TaskRunner) Option {
	return func(o *options) { o.runner = runner }
}

// WithSessionStore sets the state store backing per-session visibility
// rules and transport-level state. Defaults to an in-memory store.
func WithSessionStore(store session.StateStore) Option {
	return func(o *options) { o.sessions = store }
}

// WithProviders appends additional providers (mounted, transforming, proxy,
// OpenAPI) to the chain after the server's own local registry.
func WithProviders(providers ...provider.Provider) Option {
	return func(o *options) { o.extra = append(o.extra, providers...) }
}

// WithMiddleware appends middleware to the dispatcher's chain, innermost
// wrapping happening in call order (the first middleware given is the
// outermost).
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(o *options) { o.middlewares = append(o.middlewares, mws...) }
}

// New builds a Server from the given options. A nil config is rejected; a
// nil task runner is accepted; registration never checks it, and a tool
// call that has to run in the background then fails at invocation time.
func New(opts ...Option) (*Server, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.cfg == nil {
		return nil, fmt.Errorf("server: config is required")
	}
	log := o.log
	if log == nil {
		log = telemetry.NewNoopLogger()
	}
	sessions := o.sessions
	if sessions == nil {
		sessions = session.NewMemStore()
	}

	local := provider.NewLocalProvider(o.cfg.DuplicatePolicy, log)
	chain := provider.NewChain(append([]provider.Provider{local}, o.extra...)...)
	mws := middleware.NewChain(o.middlewares...)
	engine := exec.NewEngine(o.runner)

	s := &Server{
		cfg:        o.cfg,
		log:        log,
		local:      local,
		chain:      chain,
		middleware: mws,
		engine:     engine,
		sessions:   sessions,
	}
	s.Dispatcher = dispatch.New(chain, mws, engine, o.cfg.MaskErrorDetails)
	s.Dispatcher.SessionTransforms = func(ctx context.Context, sessionID string, kind component.Kind) []transform.Transform {
		if sessionID == "" {
			return nil
		}
		transforms, err := session.Transforms(ctx, sessions, sessionID, kind)
		if err != nil {
			return nil
		}
		return transforms
	}
	return s, nil
}

// Sessions returns the server's session state store, used to resolve
// per-session visibility rules (session package).
func (s *Server) Sessions() session.StateStore { return s.sessions }

// Chain returns the server's provider chain. *provider.Chain has no
// Lifespan or ListTasks method, so it does not satisfy provider.Provider and
// cannot be handed to provider.NewMountedProvider as it is.
func (s *Server) Chain() *provider.Chain { return s.chain }

// ToolSpec describes a tool registration: a callable plus the metadata the
// schema engine and execution engine need, the builder-API replacement for
// stacked decorator registration.
type ToolSpec struct {
	Name        string
	Title       string
	Description string
	Tags        []string
	Version     string
	Enabled     *bool // nil means enabled

	Params      []schema.Param
	ExcludeArgs []string
	ResultType  map[string]any // nil means no declared output schema
	Annotations component.Annotations
	TaskConfig  component.TaskConfig
	Serializer  func(any) (string, error)

	Fn component.Callable
}

// Tool derives InputSchema/OutputSchema from spec and registers the
// resulting component.Tool on the server's local provider.
func (s *Server) Tool(ctx context.Context, spec ToolSpec) error {
	if spec.Fn == nil {
		return fmt.Errorf("server: tool %q has no callable", spec.Name)
	}
	t := &component.Tool{
		Base: component.Base{
			Name:        spec.Name,
			Title:       spec.Title,
			Description: spec.Description,
			Tags:        component.TagSet(spec.Tags...),
			Enabled:     spec.Enabled == nil || *spec.Enabled,
			Version:     spec.Version,
		},
		InputSchema: schema.DeriveInputSchema(spec.Params, spec.ExcludeArgs),
		Annotations: spec.Annotations,
		ExcludeArgs: spec.ExcludeArgs,
		Serializer:  spec.Serializer,
		TaskConfig:  spec.TaskConfig,
		Fn:          spec.Fn,
	}
	if spec.ResultType != nil {
		t.OutputSchema = schema.WrapResult(spec.ResultType)
	}
	return s.local.AddTool(ctx, t)
}

// ResourceSpec describes a static resource registration.
type ResourceSpec struct {
	Name        string
	Title       string
	Description string
	Tags        []string
	Version     string
	Enabled     *bool

	URI      string
	MimeType string
	Content  any
	Fn       component.ResourceCallable
}

// Resource registers a component.Resource on the server's local provider.
func (s *Server) Resource(ctx context.Context, spec ResourceSpec) error {
	if spec.Content == nil && spec.Fn == nil {
		return fmt.Errorf("server: resource %q has neither content nor a callable", spec.Name)
	}
	r := &component.Resource{
		Base: component.Base{
			Name:        spec.Name,
			Title:       spec.Title,
			Description: spec.Description,
			Tags:        component.TagSet(spec.Tags...),
			Enabled:     spec.Enabled == nil || *spec.Enabled,
			Version:     spec.Version,
		},
		URI:      spec.URI,
		MimeType: spec.MimeType,
		Content:  spec.Content,
		Fn:       spec.Fn,
	}
	return s.local.AddResource(ctx, r)
}

// ResourceTemplateSpec describes a parametric resource registration.
type ResourceTemplateSpec struct {
	Name        string
	Title       string
	Description string
	Tags        []string
	Version     string
	Enabled     *bool

	URITemplate string
	ParamNames  []string
	MimeType    string
	Fn          component.TemplateCallable
}

// ResourceTemplate registers a component.ResourceTemplate on the server's
// local provider.
func (s *Server) ResourceTemplate(ctx context.Context, spec ResourceTemplateSpec) error {
	if spec.Fn == nil {
		return fmt.Errorf("server: resource template %q has no callable", spec.Name)
	}
	t := &component.ResourceTemplate{
		Base: component.Base{
			Name:        spec.Name,
			Title:       spec.Title,
			Description: spec.Description,
			Tags:        component.TagSet(spec.Tags...),
			Enabled:     spec.Enabled == nil || *spec.Enabled,
			Version:     spec.Version,
		},
		URITemplate: spec.URITemplate,
		ParamNames:  spec.ParamNames,
		MimeType:    spec.MimeType,
		Fn:          spec.Fn,
	}
	return s.local.AddResourceTemplate(ctx, t)
}

// PromptSpec describes a prompt registration.
type PromptSpec struct {
	Name        string
	Title       string
	Description string
	Tags        []string
	Version     string
	Enabled     *bool

	Arguments []component.PromptArgument
	Fn        component.PromptCallable
}

// Prompt registers a component.Prompt on the server's local provider.
func (s *Server) Prompt(ctx context.Context, spec PromptSpec) error {
	if spec.Fn == nil {
		return fmt.Errorf("server: prompt %q has no callable", spec.Name)
	}
	p := &component.Prompt{
		Base: component.Base{
			Name:        spec.Name,
			Title:       spec.Title,
			Description: spec.Description,
			Tags:        component.TagSet(spec.Tags...),
			Enabled:     spec.Enabled == nil || *spec.Enabled,
			Version:     spec.Version,
		},
		Arguments: spec.Arguments,
		Fn:        spec.Fn,
	}
	return s.local.AddPrompt(ctx, p)
}

// EnterLifespans runs every provider's lifespan hook in registration order
// and returns a release function that runs their releases in reverse order.
func (s *Server) EnterLifespans(ctx context.Context) (func(context.Context) error, error) {
	return s.chain.EnterLifespans(ctx)
}
