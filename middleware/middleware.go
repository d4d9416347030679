// Package middleware implements the onion-style request chain (spec §4.7):
// a fixed list of Middleware values, each wrapping the next-innermost
// continuation, built once per request by folding from the innermost
// continuation (the provider traversal) outward. It follows the
// decorator-wrapping shape of features/model/middleware.AdaptiveRateLimiter
// — func(Next) Next — generalized from wrapping a single model.Client
// method pair to wrapping an arbitrary per-request continuation.
package middleware

import "context"

// RequestKind identifies which dispatcher operation a request chain is
// running for (spec §4.8).
type RequestKind string

const (
	RequestCallTool              RequestKind = "call_tool"
	RequestReadResource          RequestKind = "read_resource"
	RequestGetPrompt             RequestKind = "get_prompt"
	RequestListTools             RequestKind = "list_tools"
	RequestListResources         RequestKind = "list_resources"
	RequestListResourceTemplates RequestKind = "list_resource_templates"
	RequestListPrompts           RequestKind = "list_prompts"
)

// RequestContext carries the parameters of a single dispatched request
// through the chain: which operation, what it targets, where it came
// from, and which session it belongs to (spec §4.8 step 1 — "build a
// MiddlewareContext").
type RequestContext struct {
	Kind RequestKind
	// Identifier is the tool name, resource URI, or prompt name being
	// invoked; empty for list_* requests.
	Identifier string
	// Arguments holds call_tool/get_prompt arguments, or resource template
	// path parameters for read_resource.
	Arguments map[string]any
	// Source names the transport this request arrived on (e.g. "stdio",
	// "http", "sse"), for middlewares that branch on origin.
	Source string
	// SessionID identifies the calling session, for middlewares that
	// consult or mutate session-scoped state.
	SessionID string
}

// Next is the continuation a Middleware wraps: call it to proceed deeper
// into the chain, or short-circuit by returning without calling it.
type Next func(ctx context.Context, rc *RequestContext) (any, error)

// Middleware wraps a Next continuation with additional behavior, the
// moral equivalent of AdaptiveRateLimiter.Middleware's func(model.Client)
// model.Client but over a generic per-request continuation rather than a
// fixed client interface.
type Middleware func(next Next) Next

// Chain is an ordered list of Middleware, applied outermost-first: the
// first Middleware registered sees the request first and the response
// last.
type Chain struct {
	middlewares []Middleware
}

// NewChain builds a Chain from middlewares in registration order.
func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: append([]Middleware(nil), middlewares...)}
}

// Build folds the chain around final, once per request (spec §9: "the
// chain should be built once per request by folding ... not recomputed
// on every call"). Folding proceeds from the innermost continuation
// (final) outward so the first-registered middleware ends up outermost.
func (c *Chain) Build(final Next) Next {
	next := final
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		next = c.middlewares[i](next)
	}
	return next
}
