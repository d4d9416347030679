package component

import "context"

type (
	// TaskMode controls whether a Tool's callable may, must, or must never
	// run as a background task.
	TaskMode string

	// TaskConfig describes a tool's relationship to the task subsystem (C11).
	TaskConfig struct {
		Mode TaskMode
		TTL  int64 // seconds; 0 means the queue's default.
	}

	// Annotations carries client-facing hints about a tool's side effects.
	// None of these are enforced by the core; they are advisory metadata a
	// client may use to decide whether to prompt for confirmation.
	Annotations struct {
		ReadOnly    bool
		Idempotent  bool
		Destructive bool
	}

	// Callable is the function signature every Tool invokes. args has
	// already been validated against InputSchema when the engine was given
	// a compiled schema. There is no separate dependency argument:
	// per-request values (session, CurrentServer, CurrentQueue, and so on)
	// are read from ctx via mcpcontext.Get.
	Callable func(ctx context.Context, args map[string]any) (any, error)

	// Tool is a component that can be invoked with arguments and produces a
	// result.
	Tool struct {
		Base
		// InputSchema is always object-typed (spec invariant).
		InputSchema map[string]any
		// OutputSchema is optional; when the underlying return type is a
		// primitive/sequence/mapping it is wrapped per
		// x-fastmcp-wrap-result (see schema.WrapResult).
		OutputSchema map[string]any
		Annotations  Annotations
		// ExcludeArgs lists parameter names dropped from InputSchema and
		// satisfied by dependency injection instead of client input.
		ExcludeArgs []string
		// Serializer renders a non-content return value to its textual
		// content block form. Nil uses the default JSON serialization.
		Serializer func(any) (string, error)
		TaskConfig TaskConfig
		Fn         Callable
	}
)

const (
	TaskModeOptional  TaskMode = "optional"
	TaskModeRequired  TaskMode = "required"
	TaskModeForbidden TaskMode = "forbidden"
)

// Key returns the tool's canonical registry key.
func (t *Tool) Key() Key { return t.Base.Key(KindTool) }

// Clone returns a shallow copy of t, decoupling its Base.Enabled field
// from the registered original so a caller can fold per-request
// transforms (session visibility) without mutating shared state.
func (t *Tool) Clone() *Tool {
	c := *t
	return &c
}
