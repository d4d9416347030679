// Package mcpcontext carries the per-request state the source threads
// through dynamic/task-local variables (spec §9, "Task-local request
// state"). Rather than a dynamic variable, this is an explicit value
// attached to context.Context: every user callback receives a *Context
// through dependency injection, and nesting falls out of Go's normal
// context propagation — a callback invoked inside another callback's call
// stack sees its own derived Context if one was attached, or the parent's
// otherwise.
package mcpcontext

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

type ctxKey struct{}

type (
	// Notifier is the optional transport capability behind
	// Context.ReportProgress and Context.Log: a transport wires a Notifier
	// so these calls reach the client, or leaves it nil so they're no-ops.
	Notifier interface {
		Progress(ctx context.Context, current, total float64, message string) error
		Log(ctx context.Context, level, logger, message string, data any) error
	}

	// Elicitor is the optional transport capability behind Context.Elicit:
	// requesting structured input from the user mid-call.
	Elicitor interface {
		Elicit(ctx context.Context, schema map[string]any, message string) (map[string]any, error)
	}

	// StreamCloser is the optional transport capability behind
	// Context.RequestStreamClose (spec §9, Open Question 3: a no-op when
	// the transport doesn't support it).
	StreamCloser interface {
		CloseStream(ctx context.Context) error
	}

	// Context is the per-request handle passed to tool/resource/prompt
	// callables via dependency injection (spec §4.9 step 2). It is
	// immutable; WithTaskID and WithWorker derive a child from it.
	Context struct {
		RequestID string
		SessionID string
		// TaskID is set when this request runs as a background task
		// worker invocation rather than a live client request.
		TaskID string

		// Server, Queue, and Worker back the CurrentServer/CurrentQueue/
		// CurrentWorker injected parameters (spec §4.9 step 2). They are
		// opaque to this package — the exec engine's callers populate them
		// with their concrete server/queue/worker handles; a callable
		// type-asserts to whatever concrete type its package expects.
		Server any
		Queue  any
		Worker any

		notifier Notifier
		elicitor Elicitor
		closer   StreamCloser
	}
)

// New constructs a root Context for an incoming request with a freshly
// generated RequestID.
func New(sessionID string, notifier Notifier, elicitor Elicitor, closer StreamCloser) *Context {
	return &Context{
		RequestID: uuid.NewString(),
		SessionID: sessionID,
		notifier:  notifier,
		elicitor:  elicitor,
		closer:    closer,
	}
}

// WithContext attaches c to ctx, returning a new context.Context that
// Get retrieves c from.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

// Get retrieves the Context attached via WithContext. It returns nil if
// no Context was attached — callers invoked outside a dispatched request
// (e.g. server startup code) see this and should treat it as "no request
// scope available" rather than panic.
func Get(ctx context.Context) *Context {
	c, _ := ctx.Value(ctxKey{}).(*Context)
	return c
}

// WithTaskID derives a child Context for a background task worker
// invocation, preserving SessionID and transport capabilities but
// attaching a task id (spec §4.11 worker dependency injection).
func (c *Context) WithTaskID(taskID string) *Context {
	cp := *c
	cp.TaskID = taskID
	return &cp
}

// WithWorker derives a child Context carrying the worker/queue handles a
// task invocation injects for CurrentQueue/CurrentWorker.
func (c *Context) WithWorker(queue, worker any) *Context {
	cp := *c
	cp.Queue = queue
	cp.Worker = worker
	return &cp
}

// ReportProgress sends a progress notification through the active
// transport's Notifier, a no-op when none is wired (spec §C, supplemented
// feature from original_source/).
func (c *Context) ReportProgress(ctx context.Context, current, total float64, message string) error {
	if c.notifier == nil {
		return nil
	}
	return c.notifier.Progress(ctx, current, total, message)
}

// Log sends a log notification through the active transport's Notifier, a
// no-op when none is wired.
func (c *Context) Log(ctx context.Context, level, logger, message string, data any) error {
	if c.notifier == nil {
		return nil
	}
	return c.notifier.Log(ctx, level, logger, message, data)
}

// Elicit requests structured input from the user mid-call. It returns an
// error if no Elicitor is wired for the active transport — unlike
// ReportProgress/Log, a silently-skipped elicitation would leave the
// caller proceeding on data it never received.
func (c *Context) Elicit(ctx context.Context, schema map[string]any, message string) (map[string]any, error) {
	if c.elicitor == nil {
		return nil, fmt.Errorf("mcpcontext: active transport does not support elicitation")
	}
	return c.elicitor.Elicit(ctx, schema, message)
}

// RequestStreamClose asks the active transport to close the underlying
// stream for this request (e.g. an SSE response). It is a no-op when the
// transport does not support it (spec §9, Open Question 3).
func (c *Context) RequestStreamClose(ctx context.Context) error {
	if c.closer == nil {
		return nil
	}
	return c.closer.CloseStream(ctx)
}
