package provider

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemoteSession struct {
	fakeLifespanProvider
	connected atomic.Bool
	closed    atomic.Bool
}

func (f *fakeRemoteSession) Connected() bool { return f.connected.Load() }
func (f *fakeRemoteSession) Close(ctx context.Context) error {
	f.closed.Store(true)
	return nil
}

func TestProxyProviderReusesConnectedSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var connectCount atomic.Int32
	factory := func(ctx context.Context) (RemoteSession, error) {
		connectCount.Add(1)
		s := &fakeRemoteSession{fakeLifespanProvider: fakeLifespanProvider{enter: func() {}, release: func() {}}}
		s.connected.Store(true)
		return s, nil
	}
	p := NewProxyProvider(factory)

	_, err := p.ListTools(ctx)
	require.NoError(t, err)
	_, err = p.ListTools(ctx)
	require.NoError(t, err)

	assert.Equal(t, int32(1), connectCount.Load())
}

func TestProxyProviderReconnectsWhenDisconnected(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var connectCount atomic.Int32
	factory := func(ctx context.Context) (RemoteSession, error) {
		connectCount.Add(1)
		s := &fakeRemoteSession{fakeLifespanProvider: fakeLifespanProvider{enter: func() {}, release: func() {}}}
		s.connected.Store(false) // always reports disconnected for this test
		return s, nil
	}
	p := NewProxyProvider(factory)

	_, _ = p.ListTools(ctx)
	_, _ = p.ListTools(ctx)

	assert.Equal(t, int32(2), connectCount.Load())
}

var _ Provider = (*fakeRemoteSession)(nil)
