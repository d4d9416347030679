package memqueue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"goa.design/mcpcore/component"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/task"
)

type fakeResolver struct{ tool *component.Tool }

func (r *fakeResolver) ResolveTool(ctx context.Context, key component.Key) (*component.Tool, error) {
	return r.tool, nil
}

func echoTool() *component.Tool {
	return &component.Tool{
		Base: component.Base{Name: "echo", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			return args["msg"], nil
		},
	}
}

func blockingTool(unblock <-chan struct{}) *component.Tool {
	return &component.Tool{
		Base: component.Base{Name: "blocked", Enabled: true},
		Fn: func(ctx context.Context, args map[string]any) (any, error) {
			select {
			case <-unblock:
			case <-ctx.Done():
			}
			return "done", nil
		},
	}
}

func TestSubmitRunsTaskToCompletion(t *testing.T) {
	t.Parallel()
	tool := echoTool()
	q := New(&fakeResolver{tool: tool}, exec.NewEngine(nil))

	id, err := q.Submit(context.Background(), tool, map[string]any{"msg": "hi"}, exec.TaskMeta{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := q.Get(context.Background(), id)
		return err == nil && got.State == task.StateCompleted
	}, time.Second, time.Millisecond)

	got, err := q.Get(context.Background(), id)
	require.NoError(t, err)
	result := got.Result.(*exec.ToolResult)
	assert.Equal(t, "hi", result.Content[0].Text)
}

func TestSubmitHonorsCallerSuppliedID(t *testing.T) {
	t.Parallel()
	tool := echoTool()
	q := New(&fakeResolver{tool: tool}, exec.NewEngine(nil))

	id, err := q.Submit(context.Background(), tool, nil, exec.TaskMeta{ID: "caller-chosen"})
	require.NoError(t, err)
	assert.Equal(t, "caller-chosen", id)
}

func TestGetUnknownIDReturnsErrNotFound(t *testing.T) {
	t.Parallel()
	q := New(&fakeResolver{}, exec.NewEngine(nil))
	_, err := q.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestCancelTransitionsRunningTaskToCancelled(t *testing.T) {
	t.Parallel()
	unblock := make(chan struct{})
	defer close(unblock)
	tool := blockingTool(unblock)
	q := New(&fakeResolver{tool: tool}, exec.NewEngine(nil))

	id, err := q.Submit(context.Background(), tool, nil, exec.TaskMeta{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		got, err := q.Get(context.Background(), id)
		return err == nil && got.State == task.StateWorking
	}, time.Second, time.Millisecond)

	require.NoError(t, q.Cancel(context.Background(), id))

	require.Eventually(t, func() bool {
		got, err := q.Get(context.Background(), id)
		return err == nil && got.State == task.StateCancelled
	}, time.Second, time.Millisecond)
}

func TestListFiltersBySession(t *testing.T) {
	t.Parallel()
	tool := echoTool()
	q := New(&fakeResolver{tool: tool}, exec.NewEngine(nil))

	_, err := q.Submit(context.Background(), tool, nil, exec.TaskMeta{ID: "t1"})
	require.NoError(t, err)

	all, err := q.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 1)

	none, err := q.List(context.Background(), "some-other-session")
	require.NoError(t, err)
	assert.Empty(t, none)
}
