// Package task implements the task subsystem (spec §4.11, C11): handing a
// tool invocation off to an external durable queue, resolving it back to a
// component on the worker side, and serving the tasks.get/tasks.result/
// tasks.list/tasks.cancel protocol handlers directly from the queue's own
// state rather than a core-side cache. It is grounded on
// runtime/agent/engine/engine.go's Engine abstraction (workflow registration
// + StartWorkflow/WorkflowHandle), generalized from one workflow-per-agent
// to one queue entry per tool invocation: a task is the workflow, and the
// tool's callable is the single activity the workflow runs.
package task

import (
	"context"
	"errors"
	"time"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/exec"
)

// State is a task's lifecycle stage (spec §4.11).
type State string

const (
	StatePending   State = "pending"
	StateWorking   State = "working"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
	StateFailed    State = "failed"
)

// ErrNotFound is returned by Queue.Get/Cancel when a task id is unknown to
// the queue, either because it never existed or because it has been
// reaped after its TTL.
var ErrNotFound = errors.New("task: not found")

// Task is a queue entry: a deferred invocation of a single component,
// identified by its registry key, plus whatever the worker recorded once
// it ran (spec §4.11 "submits (component_key, arguments)").
type Task struct {
	ID        string
	Kind      component.Kind
	TargetKey component.Key
	Arguments map[string]any
	State     State
	CreatedAt time.Time
	TTL       time.Duration
	Result    any
	ResultErr string
	SessionID string
}

// ComponentResolver resolves a registry key back to the concrete
// component a worker re-invokes (spec §4.11 "the worker resolves
// component_key back to a component in the current server"). ChainResolver
// wraps the active server's provider chain behind this narrow interface so
// the task package never imports provider or dispatch.
type ComponentResolver interface {
	ResolveTool(ctx context.Context, key component.Key) (*component.Tool, error)
}

// Queue is the external durable queue abstraction every backend
// (memqueue, temporalqueue, nexusqueue) implements. It embeds
// exec.TaskRunner so a Queue can be handed directly to exec.NewEngine as
// the submission path (spec §4.11 "submits (component_key, arguments) to
// an external durable queue"); Get/List/Cancel then serve the
// tasks.get/tasks.list/tasks.cancel protocol handlers directly from queue
// state, so the core itself never caches a Task.
type Queue interface {
	exec.TaskRunner
	Get(ctx context.Context, id string) (Task, error)
	List(ctx context.Context, sessionID string) ([]Task, error)
	Cancel(ctx context.Context, id string) error
}

// NewKey builds the registry key a submitted task stores for later
// resolution, mirroring component.Tool.Key().
func NewKey(name, version string) component.Key {
	return component.NewKey(component.KindTool, name, version)
}
