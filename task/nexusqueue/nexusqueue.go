// Package nexusqueue hands a task off to a remote MCP server's own task
// machinery via the Nexus RPC protocol, for the ProxyProvider path (spec
// §4.4, §4.11): a tool mounted through a ProxyProvider belongs to the
// remote server, so backgrounding it means starting a Nexus operation on
// that server rather than running a local workflow. It is grounded on
// provider.ProxyProvider's session-reuse/reconnect shape, generalized from
// "forward a list/get call over the existing session" to "start, poll, and
// cancel an async operation over a Nexus client", using
// github.com/nexus-rpc/sdk-go's HTTP client exactly as Temporal itself uses
// it to start durable async operations across process boundaries.
package nexusqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/nexus-rpc/sdk-go/nexus"

	"goa.design/mcpcore/component"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/mcpcontext"
	"goa.design/mcpcore/task"
)

// invokeToolOperation is the Nexus operation name every mounted remote
// server exposes for background tool invocation. Arguments are a
// taskInput; the result is a taskResult once the operation completes.
const invokeToolOperation = "mcpcore.invoke_tool"

type taskInput struct {
	TargetKey string         `json:"target_key"`
	Arguments map[string]any `json:"arguments"`
	SessionID string         `json:"session_id"`
}

type taskResult struct {
	Result    *exec.ToolResult `json:"result,omitempty"`
	ResultErr string           `json:"result_error,omitempty"`
}

// Queue forwards task submission, polling, and cancellation to a single
// remote server over Nexus.
type Queue struct {
	client *nexus.HTTPClient
	// handles tracks the operation token Nexus assigns per task id, since
	// Get/Cancel address a started operation by token rather than by the
	// caller-visible task id.
	handles map[string]nexus.OperationHandle[taskResult]
}

// Options configures the remote endpoint.
type Options struct {
	// BaseURL is the remote server's Nexus endpoint.
	BaseURL string
	// Service scopes the operation namespace on the remote server (the
	// mounted server's logical name, per spec §4.4 mounted providers).
	Service string
}

// New constructs a Queue against a single remote server.
func New(opts Options) (*Queue, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("nexusqueue: BaseURL is required")
	}
	cli, err := nexus.NewHTTPClient(nexus.HTTPClientOptions{
		BaseURL: opts.BaseURL,
		Service: opts.Service,
	})
	if err != nil {
		return nil, fmt.Errorf("nexusqueue: create client: %w", err)
	}
	return &Queue{client: cli, handles: make(map[string]nexus.OperationHandle[taskResult])}, nil
}

var _ task.Queue = (*Queue)(nil)

// Submit starts the remote invoke-tool operation and returns its Nexus
// operation token as the task id.
func (q *Queue) Submit(ctx context.Context, tool *component.Tool, args map[string]any, meta exec.TaskMeta) (string, error) {
	var sessionID string
	if c := mcpcontext.Get(ctx); c != nil {
		sessionID = c.SessionID
	}
	in := taskInput{TargetKey: string(tool.Key()), Arguments: args, SessionID: sessionID}

	result, err := nexus.StartOperation(ctx, q.client, nexus.NewOperationReference[taskInput, taskResult](invokeToolOperation), in, nexus.StartOperationOptions{
		RequestID: meta.ID,
	})
	if err != nil {
		return "", fmt.Errorf("nexusqueue: start operation: %w", err)
	}
	if result.Successful != nil {
		// The remote server finished synchronously; nothing to poll.
		return meta.ID, nil
	}
	handle := result.Pending
	q.handles[handle.ID] = handle
	return handle.ID, nil
}

// Get polls the remote operation's state. A still-pending operation
// reports StateWorking; a completed one fetches its result on every call
// (nothing is cached).
func (q *Queue) Get(ctx context.Context, id string) (task.Task, error) {
	handle, ok := q.handles[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	info, err := handle.GetInfo(ctx, nexus.GetOperationInfoOptions{})
	if err != nil {
		return task.Task{}, fmt.Errorf("nexusqueue: get operation info: %w", err)
	}

	t := task.Task{ID: id, Kind: component.KindTool}
	switch info.State {
	case nexus.OperationStateRunning:
		t.State = task.StateWorking
	case nexus.OperationStateSucceeded:
		res, err := handle.GetResult(ctx, nexus.GetOperationResultOptions{})
		if err != nil {
			t.State = task.StateFailed
			t.ResultErr = err.Error()
			break
		}
		t.State = task.StateCompleted
		t.Result = res.Result
		t.ResultErr = res.ResultErr
	case nexus.OperationStateCanceled:
		t.State = task.StateCancelled
	default:
		t.State = task.StateFailed
	}
	return t, nil
}

// List is not implemented: the remote server owns its own task listing
// and this adapter has no local index of submitted operations beyond
// their handles. Pair with task/mongostore for a durable, queryable index
// when tasks/list must reflect remotely-hosted tasks.
func (q *Queue) List(ctx context.Context, sessionID string) ([]task.Task, error) {
	return nil, errors.New("nexusqueue: List requires a task/mongostore-backed index")
}

// Cancel requests cancellation of the remote operation.
func (q *Queue) Cancel(ctx context.Context, id string) error {
	handle, ok := q.handles[id]
	if !ok {
		return task.ErrNotFound
	}
	return handle.Cancel(ctx, nexus.CancelOperationOptions{})
}
