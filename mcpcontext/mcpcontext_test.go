package mcpcontext

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	progress []float64
	logged   []string
}

func (r *recordingNotifier) Progress(ctx context.Context, current, total float64, message string) error {
	r.progress = append(r.progress, current)
	return nil
}

func (r *recordingNotifier) Log(ctx context.Context, level, logger, message string, data any) error {
	r.logged = append(r.logged, message)
	return nil
}

func TestGetReturnsNilWhenNotAttached(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Get(context.Background()))
}

func TestWithContextRoundTrips(t *testing.T) {
	t.Parallel()
	c := New("sess-1", nil, nil, nil)
	ctx := WithContext(context.Background(), c)
	assert.Same(t, c, Get(ctx))
}

func TestReportProgressNoOpWithoutNotifier(t *testing.T) {
	t.Parallel()
	c := New("sess-1", nil, nil, nil)
	assert.NoError(t, c.ReportProgress(context.Background(), 1, 2, "working"))
}

func TestReportProgressForwardsToNotifier(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	c := New("sess-1", n, nil, nil)
	require.NoError(t, c.ReportProgress(context.Background(), 1, 2, "working"))
	assert.Equal(t, []float64{1}, n.progress)
}

func TestElicitErrorsWithoutElicitor(t *testing.T) {
	t.Parallel()
	c := New("sess-1", nil, nil, nil)
	_, err := c.Elicit(context.Background(), map[string]any{}, "confirm?")
	assert.Error(t, err)
}

func TestWithTaskIDPreservesSessionAndCapabilities(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{}
	c := New("sess-1", n, nil, nil)
	child := c.WithTaskID("task-42")

	assert.Equal(t, "sess-1", child.SessionID)
	assert.Equal(t, "task-42", child.TaskID)
	assert.Empty(t, c.TaskID, "deriving a child must not mutate the parent")

	require.NoError(t, child.ReportProgress(context.Background(), 1, 1, "done"))
	assert.Len(t, n.progress, 1)
}

func TestWithWorkerAttachesQueueAndWorkerHandles(t *testing.T) {
	t.Parallel()
	c := New("sess-1", nil, nil, nil)
	child := c.WithWorker("queue-handle", "worker-handle")

	assert.Equal(t, "queue-handle", child.Queue)
	assert.Equal(t, "worker-handle", child.Worker)
	assert.Nil(t, c.Queue, "deriving a child must not mutate the parent")
}

func TestRequestStreamCloseNoOpWithoutCloser(t *testing.T) {
	t.Parallel()
	c := New("sess-1", nil, nil, nil)
	assert.NoError(t, c.RequestStreamClose(context.Background()))
}
