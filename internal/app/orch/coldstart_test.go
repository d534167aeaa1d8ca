package orch

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dkeye/peercall/internal/app/resolver"
	"github.com/dkeye/peercall/internal/app/transport"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/core/mocks"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// A fresh controller has seen no presence yet; the first call must still
// reach a peer online at its derived endpoint.
func TestStartCall_ColdStartReachesDerivedEndpoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	sig := mocks.NewMockSignaling(ctrl)
	conn := mocks.NewMockConnection(ctrl)

	const room = domain.SessionContext("room-1")
	self := domain.DeriveEndpoint(alice, room)
	target := domain.Peer{Identity: bob, Endpoint: domain.DeriveEndpoint(bob, room)}
	call := newFakeCall("out-1")
	connEvents := make(chan core.ConnEvent)

	conn.EXPECT().Endpoint().Return(self).AnyTimes()
	conn.EXPECT().Events().Return((<-chan core.ConnEvent)(connEvents)).AnyTimes()
	conn.EXPECT().Close().Return(nil).AnyTimes()
	conn.EXPECT().Probe(gomock.Any(), target.Endpoint).Return(true, nil)
	conn.EXPECT().PlaceCall(gomock.Any(), target, gomock.Any()).Return(call, nil)
	sig.EXPECT().Dial(gomock.Any(), core.DialRequest{Endpoint: self, Identity: alice, Context: room}).
		Return(conn, nil).Times(1)

	clk := clock.NewMock()
	binding := transport.New(sig, transport.Config{}, clk, nil)
	c := New(Config{Local: alice, Context: room}, Deps{
		Resolver: resolver.NewDefault(resolver.ConnectAs(binding, alice, room), resolver.Options{
			Context:          room,
			ProbeTimeout:     time.Second,
			DiscoveryTimeout: time.Second,
		}),
		Binding:  binding,
		Media:    newFakeMedia(),
		Sampler:  &fakeSampler{},
		Recorder: &fakeRecorder{},
		Clock:    clk,
	})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = c.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	ok, err := c.StartCall(context.Background(), bob)
	require.NoError(t, err)
	require.True(t, ok)

	snap := c.Snapshot()
	require.Equal(t, domain.StateDialing, snap.State)
	require.Equal(t, target.Endpoint, snap.RemoteEndpoint)
	require.Equal(t, transport.StateConnected, binding.State())
}
