// Package memqueue is an in-process Queue implementation for local
// development and tests, grounded on
// runtime/agent/engine/inmem/engine.go's goroutine-per-execution,
// mutex-guarded-status-map pattern: a task is a goroutine running the
// tool's callable, and Get/List/Cancel read/write a shared map rather
// than round-tripping to an external system.
package memqueue

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"goa.design/mcpcore/component"
	"goa.design/mcpcore/exec"
	"goa.design/mcpcore/mcpcontext"
	"goa.design/mcpcore/task"
)

// Queue is an in-memory task.Queue. It is not durable: process restart
// loses all in-flight and completed tasks, which is acceptable for the
// development/test use this backend targets (spec §4.11 doesn't mandate
// a specific backend).
type Queue struct {
	mu     sync.Mutex
	tasks  map[string]task.Task
	cancel map[string]context.CancelFunc

	resolver task.ComponentResolver
	runner   *exec.Engine
	// Worker is the opaque handle a callable sees via CurrentWorker inside
	// a task invocation (spec §4.11 "expose CurrentQueue and
	// CurrentWorker"). Queue itself satisfies CurrentQueue.
	Worker any
}

// New constructs an in-memory queue. resolver is stored but not consulted:
// the worker goroutine re-invokes the *component.Tool handed to Submit
// directly rather than resolving the task's target key; runner supplies
// RunCallable, the execution-engine entry point that skips task-mode
// branching since it already happened on the submission side.
func New(resolver task.ComponentResolver, runner *exec.Engine) *Queue {
	return &Queue{
		tasks:    make(map[string]task.Task),
		cancel:   make(map[string]context.CancelFunc),
		resolver: resolver,
		runner:   runner,
	}
}

var _ task.Queue = (*Queue)(nil)

// Submit implements exec.TaskRunner: it enqueues t for background
// execution and starts a worker goroutine immediately (no separate
// dispatch step, since this backend has no real broker to pull from).
func (q *Queue) Submit(ctx context.Context, tool *component.Tool, args map[string]any, meta exec.TaskMeta) (string, error) {
	id := meta.ID
	if id == "" {
		id = uuid.NewString()
	}
	ttl := time.Duration(meta.TTL) * time.Second
	if ttl == 0 {
		ttl = time.Duration(tool.TaskConfig.TTL) * time.Second
	}

	t := task.Task{
		ID:        id,
		Kind:      component.KindTool,
		TargetKey: tool.Key(),
		Arguments: args,
		State:     task.StatePending,
		CreatedAt: time.Now(),
		TTL:       ttl,
	}
	if c := mcpcontext.Get(ctx); c != nil {
		t.SessionID = c.SessionID
	}

	workerCtx, cancel := context.WithCancel(context.Background())
	q.mu.Lock()
	q.tasks[id] = t
	q.cancel[id] = cancel
	q.mu.Unlock()

	go q.run(workerCtx, id, tool, args)

	return id, nil
}

func (q *Queue) run(ctx context.Context, id string, tool *component.Tool, args map[string]any) {
	q.setState(id, task.StateWorking, nil, "")

	var parent *mcpcontext.Context
	q.mu.Lock()
	if t, ok := q.tasks[id]; ok {
		parent = mcpcontext.New(t.SessionID, nil, nil, nil).WithTaskID(id).WithWorker(q, q.Worker)
	}
	q.mu.Unlock()
	if parent != nil {
		ctx = mcpcontext.WithContext(ctx, parent)
	}

	result, err := q.runner.RunCallable(ctx, tool, args)

	select {
	case <-ctx.Done():
		q.setState(id, task.StateCancelled, nil, "")
		return
	default:
	}

	if err != nil {
		q.setState(id, task.StateFailed, nil, err.Error())
		return
	}
	q.setState(id, task.StateCompleted, result, "")
}

func (q *Queue) setState(id string, state task.State, result any, resultErr string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[id]
	if !ok {
		return
	}
	t.State = state
	t.Result = result
	t.ResultErr = resultErr
	q.tasks[id] = t
}

// Get returns the current state of a task.
func (q *Queue) Get(ctx context.Context, id string) (task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	t, ok := q.tasks[id]
	if !ok {
		return task.Task{}, task.ErrNotFound
	}
	return t, nil
}

// List returns every known task for a session, or every task when
// sessionID is empty.
func (q *Queue) List(ctx context.Context, sessionID string) ([]task.Task, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]task.Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		if sessionID == "" || t.SessionID == sessionID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Cancel requests cancellation of a running task (spec §5 "Task
// cancellation... transitions the task to cancelled and causes the
// worker... to stop, record the state, and not post a result").
func (q *Queue) Cancel(ctx context.Context, id string) error {
	q.mu.Lock()
	cancel, ok := q.cancel[id]
	q.mu.Unlock()
	if !ok {
		return task.ErrNotFound
	}
	cancel()
	return nil
}
