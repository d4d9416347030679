// Package temporalqueue is a Temporal-backed task.Queue, grounded on
// runtime/agent/engine/temporal/engine.go: a task maps onto a single
// Temporal workflow execution, and the tool invocation it defers maps onto
// that workflow's one activity, the same workflow-is-the-unit-of-durable-
// execution, activity-is-the-side-effecting-step split the teacher's
// adapter uses for whole agent runs. Unlike the teacher's Engine, this
// adapter only ever registers one workflow ("mcpcore.Task") and one
// activity ("mcpcore.InvokeTool") since the task subsystem has a single,
// uniform shape (component key + arguments in, ToolResult or error out)
// rather the teacher's many-workflows-per-agent registry.
package temporalqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/mcpcontext"
	"goa.design/mcpcore/task"
)

const (
	workflowName = "mcpcore.Task"
	activityName = "mcpcore.InvokeTool"
)

// Options configures the Temporal adapter.
type Options struct {
	// Client is a pre-configured Temporal client. If nil, ClientOptions is
	// used to lazily construct one.
	Client client.Client
	// ClientOptions constructs a client when Client is nil.
	ClientOptions *client.Options
	// TaskQueue is the Temporal task queue workers poll. Required.
	TaskQueue string
	// Resolver resolves a task's target key back to the tool a worker
	// re-invokes (spec §4.11).
	Resolver task.ComponentResolver
	// Runner supplies RunCallable, the execution-engine entry point the
	// activity calls into.
	Runner *exec.Engine
}

// taskInput is the workflow/activity payload. It is JSON-serializable via
// Temporal's default data converter, same requirement as
// engine.WorkflowStartRequest.Input in the teacher's adapter.
type taskInput struct {
	TargetKey string
	Arguments map[string]any
	SessionID string
}

type taskOutput struct {
	Result *exec.ToolResult
}

// Queue is a Temporal-backed task.Queue.
type Queue struct {
	client      client.Client
	closeClient bool
	taskQueue   string
	worker      worker.Worker
	resolver    task.ComponentResolver
	runner      *exec.Engine
}

var _ task.Queue = (*Queue)(nil)

// New constructs and starts a Temporal-backed queue: it registers the
// task workflow and invoke activity, then starts a worker on TaskQueue in
// the background. Close stops the worker and, if this Queue created the
// client itself, closes it too.
func New(opts Options) (*Queue, error) {
	if opts.TaskQueue == "" {
		return nil, errors.New("temporalqueue: TaskQueue is required")
	}
	if opts.Runner == nil || opts.Resolver == nil {
		return nil, errors.New("temporalqueue: Runner and Resolver are required")
	}

	cli := opts.Client
	closeClient := false
	if cli == nil {
		if opts.ClientOptions == nil {
			return nil, errors.New("temporalqueue: ClientOptions is required when Client is nil")
		}
		clientOpts := *opts.ClientOptions
		tracer, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{})
		if err != nil {
			return nil, fmt.Errorf("temporalqueue: configure tracing: %w", err)
		}
		clientOpts.Interceptors = append(clientOpts.Interceptors, tracer)
		cli, err = client.NewLazyClient(clientOpts)
		if err != nil {
			return nil, fmt.Errorf("temporalqueue: create client: %w", err)
		}
		closeClient = true
	}

	q := &Queue{
		client:      cli,
		closeClient: closeClient,
		taskQueue:   opts.TaskQueue,
		resolver:    opts.Resolver,
		runner:      opts.Runner,
	}

	w := worker.New(cli, opts.TaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(q.taskWorkflow, workflow.RegisterOptions{Name: workflowName})
	w.RegisterActivityWithOptions(q.invokeActivity, activity.RegisterOptions{Name: activityName})
	if err := w.Start(); err != nil {
		if closeClient {
			cli.Close()
		}
		return nil, fmt.Errorf("temporalqueue: start worker: %w", err)
	}
	q.worker = w

	return q, nil
}

// Close stops the worker and, for a client this Queue created, closes it.
func (q *Queue) Close() {
	if q.worker != nil {
		q.worker.Stop()
	}
	if q.closeClient {
		q.client.Close()
	}
}

// taskWorkflow is the Temporal workflow function registered as
// workflowName: it runs exactly one activity, invokeActivity, and returns
// its result (spec §4.11 "re-runs the execution engine for the tool's
// function body only" — there is nothing else for the workflow to
// orchestrate).
func (q *Queue) taskWorkflow(ctx workflow.Context, in taskInput) (taskOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 0,
	})
	var out taskOutput
	err := workflow.ExecuteActivity(ctx, activityName, in).Get(ctx, &out)
	return out, err
}

// invokeActivity is the Temporal activity registered as activityName: it
// resolves the target tool and re-runs its callable outside the workflow's
// deterministic sandbox, where side effects are allowed.
func (q *Queue) invokeActivity(ctx context.Context, in taskInput) (taskOutput, error) {
	key := component.Key(in.TargetKey)
	tool, err := q.resolver.ResolveTool(ctx, key)
	if err != nil {
		return taskOutput{}, err
	}
	if tool == nil {
		return taskOutput{}, fmt.Errorf("temporalqueue: unknown tool for key %q", in.TargetKey)
	}

	info := activity.GetInfo(ctx)
	taskCtx := mcpcontext.New(in.SessionID, nil, nil, nil).WithTaskID(info.WorkflowExecution.ID).WithWorker(q, nil)
	ctx = mcpcontext.WithContext(ctx, taskCtx)

	result, err := q.runner.RunCallable(ctx, tool, in.Arguments)
	if err != nil {
		return taskOutput{}, err
	}
	return taskOutput{Result: result}, nil
}

// Submit starts a new workflow execution for tool's invocation and
// returns its workflow id as the task id (spec §4.11 "the queue assigns
// the id"). meta.ID, when set, becomes the workflow id so callers can
// supply their own (spec §4.11 "optional caller-supplied id").
func (q *Queue) Submit(ctx context.Context, tool *component.Tool, args map[string]any, meta exec.TaskMeta) (string, error) {
	id := meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	var sessionID string
	if c := mcpcontext.Get(ctx); c != nil {
		sessionID = c.SessionID
	}

	opts := client.StartWorkflowOptions{
		ID:        id,
		TaskQueue: q.taskQueue,
	}
	in := taskInput{TargetKey: string(tool.Key()), Arguments: args, SessionID: sessionID}
	run, err := q.client.ExecuteWorkflow(ctx, opts, workflowName, in)
	if err != nil {
		return "", fmt.Errorf("temporalqueue: start workflow: %w", err)
	}
	return run.GetID(), nil
}

// Get reports a task's current state by describing its workflow
// execution, then, only for a completed run, fetching its result (a
// completed run's Get never blocks).
func (q *Queue) Get(ctx context.Context, id string) (task.Task, error) {
	desc, err := q.client.DescribeWorkflowExecution(ctx, id, "")
	if err != nil {
		return task.Task{}, task.ErrNotFound
	}
	status := desc.GetWorkflowExecutionInfo().GetStatus()

	t := task.Task{ID: id, Kind: component.KindTool}
	switch status {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING:
		t.State = task.StateWorking
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		var out taskOutput
		if err := q.client.GetWorkflow(ctx, id, "").Get(ctx, &out); err != nil {
			t.State = task.StateFailed
			t.ResultErr = err.Error()
			break
		}
		t.State = task.StateCompleted
		t.Result = out.Result
	case enumspb.WORKFLOW_EXECUTION_STATUS_CANCELED:
		t.State = task.StateCancelled
	default: // failed, terminated, timed out
		t.State = task.StateFailed
		var out taskOutput
		if err := q.client.GetWorkflow(ctx, id, "").Get(ctx, &out); err != nil {
			t.ResultErr = err.Error()
		}
	}
	return t, nil
}

// List is not implemented: listing tasks by session requires a visibility
// store (a search-attribute index or equivalent) this adapter does not
// provision. Callers needing tasks/list against a Temporal-backed queue
// must pair it with task/mongostore, which records submissions durably
// and independently of workflow state.
func (q *Queue) List(ctx context.Context, sessionID string) ([]task.Task, error) {
	return nil, errors.New("temporalqueue: List requires a task/mongostore-backed index")
}

// Cancel requests cancellation of the task's workflow execution.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	if err := q.client.CancelWorkflow(ctx, id, ""); err != nil {
		return fmt.Errorf("temporalqueue: cancel: %w", err)
	}
	return nil
}
