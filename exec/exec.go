// Package exec implements the execution engine (spec §4.9, C9): applying
// a tool's input schema, resolving dependency-injected parameters,
// invoking the callable under the tool's task-mode policy, and
// normalizing whatever it returns into the protocol's content-block
// shape. It is grounded on the invocation path of
// runtime/agent/engine/engine.go (Engine.Invoke's validate-then-call-
// then-normalize shape) generalized from a single agent-run invocation to
// an arbitrary tool/resource/prompt callable.
package exec

import (
	"context"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/errs"
	"goa.design/mcpcore/schema"
)

// TaskMeta describes the task-related metadata a request carried, set
// when the caller asked for background execution (spec §4.9 step 3).
type TaskMeta struct {
	// Requested is true when the request explicitly asked to run this
	// call as a background task.
	Requested bool
	// TTL overrides the tool's TaskConfig.TTL for this invocation; zero
	// means "use the tool's default".
	TTL int64
	// ID is an optional caller-supplied task id (spec §4.11); empty means
	// the queue assigns one.
	ID string
}

// TaskRunner hands a tool invocation off to the task subsystem (C11) for
// background execution. Engine only depends on this narrow interface so
// exec never imports the task package.
type TaskRunner interface {
	Submit(ctx context.Context, tool *component.Tool, args map[string]any, meta TaskMeta) (taskID string, err error)
}

// Engine is the execution engine. Runner may be nil; invocations that
// would require background execution then fail with a protocol error
// instead of silently running synchronously.
type Engine struct {
	Runner TaskRunner
}

// NewEngine constructs an Engine backed by the given task runner.
func NewEngine(runner TaskRunner) *Engine {
	return &Engine{Runner: runner}
}

// InvokeTool runs tool's callable against args (already decoded JSON,
// validated by compiled if non-nil) following spec §4.9: drop excluded
// args, invoke under the tool's TaskConfig.Mode with ctx passed through
// unchanged (the callable reads injected per-request values from it via
// mcpcontext.Get), and normalize the return value. Exactly one of the two return values is
// non-nil on success: a *component.Tool running synchronously returns a
// *ToolResult; one handed to the task subsystem returns a *TaskCreated.
func (e *Engine) InvokeTool(ctx context.Context, tool *component.Tool, args map[string]any, compiled *schema.Compiled, meta *TaskMeta) (*ToolResult, *TaskCreated, error) {
	prepared := dropExcluded(args, tool.ExcludeArgs)

	if compiled != nil {
		if err := compiled.Validate(prepared); err != nil {
			return nil, nil, errs.Wrap(errs.KindValidation, "", err)
		}
	}

	requested := meta != nil && meta.Requested

	switch tool.TaskConfig.Mode {
	case component.TaskModeRequired:
		if !requested {
			return nil, nil, errs.New(errs.KindTool, "tool "+tool.Name+" requires background execution")
		}
		created, err := e.submitTask(ctx, tool, prepared, *meta)
		return nil, created, err

	case component.TaskModeForbidden:
		result, err := e.runSync(ctx, tool, prepared)
		if err != nil {
			return nil, nil, err
		}
		if requested {
			// Graceful degradation (spec §4.9 step 3): a client asking for
			// background execution on a tool that forbids it still gets a
			// task handle, just one that is already done.
			return nil, &TaskCreated{TaskID: syntheticTaskID(), State: TaskCompleted, Result: result}, nil
		}
		return result, nil, nil

	default: // TaskModeOptional, or unset
		if requested {
			created, err := e.submitTask(ctx, tool, prepared, derefMeta(meta))
			return nil, created, err
		}
		result, err := e.runSync(ctx, tool, prepared)
		return result, nil, err
	}
}

func derefMeta(meta *TaskMeta) TaskMeta {
	if meta == nil {
		return TaskMeta{}
	}
	return *meta
}

func (e *Engine) runSync(ctx context.Context, tool *component.Tool, args map[string]any) (*ToolResult, error) {
	raw, err := tool.Fn(ctx, args)
	if err != nil {
		return nil, wrapToolError(err)
	}
	return Normalize(raw, tool.OutputSchema, tool.Serializer)
}

// RunCallable invokes tool's callable and normalizes its return value,
// without any task-mode branching. A task worker calls this directly
// (spec §4.11 "re-runs the execution engine for the tool's function body
// only") since middleware and task-mode dispatch already ran on the
// submission side.
func (e *Engine) RunCallable(ctx context.Context, tool *component.Tool, args map[string]any) (*ToolResult, error) {
	return e.runSync(ctx, tool, args)
}

func (e *Engine) submitTask(ctx context.Context, tool *component.Tool, args map[string]any, meta TaskMeta) (*TaskCreated, error) {
	if e.Runner == nil {
		return nil, errs.New(errs.KindProtocol, "task queue not configured")
	}
	taskID, err := e.Runner.Submit(ctx, tool, args, meta)
	if err != nil {
		return nil, errs.Wrap(errs.KindTask, "", err)
	}
	return &TaskCreated{TaskID: taskID, State: TaskPending}, nil
}

func wrapToolError(err error) error {
	if ce, ok := err.(*errs.CoreError); ok && ce.UserRaised {
		return ce
	}
	return errs.Wrap(errs.KindTool, "", err)
}

func dropExcluded(args map[string]any, excludeArgs []string) map[string]any {
	if len(excludeArgs) == 0 {
		return args
	}
	excluded := make(map[string]struct{}, len(excludeArgs))
	for _, n := range excludeArgs {
		excluded[n] = struct{}{}
	}
	out := make(map[string]any, len(args))
	for k, v := range args {
		if _, skip := excluded[k]; skip {
			continue
		}
		out[k] = v
	}
	return out
}
