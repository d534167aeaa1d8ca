package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/core/mocks"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var errBrokerDown = errors.New("broker down")

type staticConns struct{ conn core.Connection }

func (s staticConns) Conn(context.Context) (core.Connection, error) {
	if s.conn == nil {
		return nil, &domain.Error{Kind: domain.KindConnectionLost, Op: "connect", Err: errBrokerDown}
	}
	return s.conn, nil
}

type countingConnector struct {
	conn     core.Connection
	connects atomic.Int32
	local    domain.UserIdentity
	sctx     domain.SessionContext
}

func (c *countingConnector) Connect(_ context.Context, local domain.UserIdentity, sctx domain.SessionContext) (core.Connection, error) {
	c.connects.Add(1)
	c.local, c.sctx = local, sctx
	return c.conn, nil
}

func TestDirectoryMostRecentWins(t *testing.T) {
	dir := NewDirectory()
	dir.Observe(domain.Peer{Identity: "bob", Endpoint: "ep-1"})
	dir.Observe(domain.Peer{Identity: "bob", Endpoint: "ep-2"})

	ep, ok := dir.Lookup("bob")
	require.True(t, ok)
	require.Equal(t, domain.EndpointID("ep-2"), ep)

	dir.Forget("ep-2")
	ep, ok = dir.Lookup("bob")
	require.True(t, ok)
	require.Equal(t, domain.EndpointID("ep-1"), ep)

	// a gone endpoint is never revived by a late announcement
	dir.Observe(domain.Peer{Identity: "bob", Endpoint: "ep-2"})
	ep, _ = dir.Lookup("bob")
	require.Equal(t, domain.EndpointID("ep-1"), ep)

	dir.Forget("ep-1")
	_, ok = dir.Lookup("bob")
	require.False(t, ok)
}

func TestResolveFromDirectorySkipsNetwork(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)

	r := NewDefault(staticConns{conn}, Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})
	r.Observe(domain.Peer{Identity: "bob", Endpoint: "ep-bob"})

	ep, err := r.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, domain.EndpointID("ep-bob"), ep)
}

func TestResolveDerivedProbe(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)
	derived := domain.DeriveEndpoint("bob", "lobby")

	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Probe(gomock.Any(), derived).Return(true, nil)

	r := NewDefault(staticConns{conn}, Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})
	ep, err := r.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, derived, ep)
}

func TestResolveFallsBackToDiscovery(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)

	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(false, errors.New("probe refused"))
	conn.EXPECT().Discover(gomock.Any(), domain.UserIdentity("bob")).
		Return([]domain.EndpointID{"ep-new", "ep-old"}, nil)

	r := NewDefault(staticConns{conn}, Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})
	ep, err := r.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, domain.EndpointID("ep-new"), ep)

	// discovery results land in the directory
	cached, ok := r.Directory().Lookup("bob")
	require.True(t, ok)
	require.Equal(t, domain.EndpointID("ep-new"), cached)
}

func TestResolveNotFoundIsResolutionFailed(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)

	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Probe(gomock.Any(), gomock.Any()).Return(false, nil)
	conn.EXPECT().Discover(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	r := NewDefault(staticConns{conn}, Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})
	_, err := r.Resolve(context.Background(), "bob")
	require.ErrorIs(t, err, domain.ErrResolutionFailed)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestResolveConnectFailureIsConnectionLost(t *testing.T) {
	r := NewDefault(staticConns{}, Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})
	_, err := r.Resolve(context.Background(), "bob")
	require.Equal(t, domain.KindConnectionLost, domain.KindOf(err))
	require.ErrorIs(t, err, errBrokerDown)
}

func TestResolveConnectsOnDemand(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)
	derived := domain.DeriveEndpoint("bob", "lobby")
	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Probe(gomock.Any(), derived).Return(true, nil)

	connector := &countingConnector{conn: conn}
	r := NewDefault(ConnectAs(connector, "alice", "lobby"), Options{Context: "lobby", ProbeTimeout: time.Second, DiscoveryTimeout: time.Second})

	// nothing seen yet, so the derived id is checked over a fresh connection
	ep, err := r.Resolve(context.Background(), "bob")
	require.NoError(t, err)
	require.Equal(t, derived, ep)
	require.Equal(t, int32(1), connector.connects.Load())
	require.Equal(t, domain.UserIdentity("alice"), connector.local)
	require.Equal(t, domain.SessionContext("lobby"), connector.sctx)
}

func TestDiscoveryCoalescesPerIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)

	release := make(chan struct{})
	var calls atomic.Int32
	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Discover(gomock.Any(), domain.UserIdentity("bob")).
		DoAndReturn(func(context.Context, domain.UserIdentity) ([]domain.EndpointID, error) {
			calls.Add(1)
			<-release
			return []domain.EndpointID{"ep-bob"}, nil
		}).Times(1)

	s := &DiscoveryStrategy{Dir: NewDirectory(), Conns: staticConns{conn}, Timeout: time.Second}

	var wg sync.WaitGroup
	results := make(chan domain.EndpointID, 4)
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ep, err := s.Resolve(context.Background(), "bob")
			if err == nil {
				results <- ep
			}
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	// let the other callers join the in-flight request
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	n := 0
	for ep := range results {
		require.Equal(t, domain.EndpointID("ep-bob"), ep)
		n++
	}
	require.Equal(t, 4, n)
}

func TestDiscoveryOutlivesCanceledCaller(t *testing.T) {
	ctrl := gomock.NewController(t)
	conn := mocks.NewMockConnection(ctrl)

	release := make(chan struct{})
	var calls atomic.Int32
	conn.EXPECT().Endpoint().Return(domain.EndpointID("ep-me")).AnyTimes()
	conn.EXPECT().Discover(gomock.Any(), domain.UserIdentity("bob")).
		DoAndReturn(func(ctx context.Context, _ domain.UserIdentity) ([]domain.EndpointID, error) {
			calls.Add(1)
			<-release
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			return []domain.EndpointID{"ep-bob"}, nil
		}).Times(1)

	s := &DiscoveryStrategy{Dir: NewDirectory(), Conns: staticConns{conn}, Timeout: time.Second}

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := s.Resolve(firstCtx, "bob")
		firstErr <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	type result struct {
		ep  domain.EndpointID
		err error
	}
	second := make(chan result, 1)
	go func() {
		ep, err := s.Resolve(context.Background(), "bob")
		second <- result{ep, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelFirst()
	require.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	select {
	case res := <-second:
		require.NoError(t, res.err)
		require.Equal(t, domain.EndpointID("ep-bob"), res.ep)
	case <-time.After(time.Second):
		t.Fatal("joined lookup never returned")
	}
}
