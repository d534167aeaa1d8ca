package wsclient

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/dkeye/peercall/internal/adapters/http"
	"github.com/dkeye/peercall/internal/adapters/rtc"
	"github.com/dkeye/peercall/internal/adapters/signal"
	"github.com/dkeye/peercall/internal/broker"
	"github.com/dkeye/peercall/internal/config"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/require"
)

const waitFor = 5 * time.Second

type harness struct {
	t      *testing.T
	broker *broker.Broker
	client *Client
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := broker.New(broker.SimplePolicy{MaxStrikes: 3}, nil)
	ctl := signal.NewSignalWSController(b, nil, 64<<10, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := httpadapter.SetupRouter(ctx, &config.BrokerConfig{Mode: "test", Secret: "test-secret"}, ctl, b, nil)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	api, err := rtc.NewAPI(nil)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/signal"
	return &harness{t: t, broker: b, client: New(url, api, webrtc.Configuration{})}
}

func (h *harness) dial(identity domain.UserIdentity, endpoint domain.EndpointID) *Conn {
	h.t.Helper()
	conn, err := h.tryDial(identity, endpoint)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { _ = conn.Close() })
	return conn.(*Conn)
}

func (h *harness) tryDial(identity domain.UserIdentity, endpoint domain.EndpointID) (core.Connection, error) {
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	return h.client.Dial(ctx, core.DialRequest{Endpoint: endpoint, Identity: identity, Context: "standup"})
}

func waitConn(t *testing.T, c core.Connection, kind core.ConnEventKind) core.ConnEvent {
	t.Helper()
	timeout := time.After(waitFor)
	for {
		select {
		case ev, ok := <-c.Events():
			require.True(t, ok, "events closed while waiting for %s", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", kind)
		}
	}
}

func waitCall(t *testing.T, call core.CallHandle, kind core.CallEventKind) core.CallEvent {
	t.Helper()
	timeout := time.After(waitFor)
	for {
		select {
		case ev, ok := <-call.Events():
			require.True(t, ok, "call events closed while waiting for %d", kind)
			if ev.Kind == kind {
				return ev
			}
		case <-timeout:
			t.Fatalf("no call event %d", kind)
		}
	}
}

func (h *harness) ring(caller, callee *Conn) (core.CallHandle, core.IncomingCall) {
	h.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	call, err := caller.PlaceCall(ctx, domain.Peer{Identity: "bob", Endpoint: callee.Endpoint()}, nil)
	require.NoError(h.t, err)
	ev := waitConn(h.t, callee, core.ConnIncoming)
	require.Equal(h.t, caller.Endpoint(), ev.Peer.Endpoint)
	require.Equal(h.t, call.ID(), ev.Invite.ID())
	return call, ev.Invite
}

func TestDial_WelcomeListsPeersAndAnnounces(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	bob := h.dial("bob", "ep-bob")

	ev := waitConn(t, bob, core.ConnAnnounce)
	require.Equal(t, domain.Peer{Identity: "alice", Endpoint: "ep-alice"}, ev.Peer)
	ev = waitConn(t, alice, core.ConnAnnounce)
	require.Equal(t, domain.Peer{Identity: "bob", Endpoint: "ep-bob"}, ev.Peer)
}

func TestDial_EndpointInUse(t *testing.T) {
	h := newHarness(t)
	h.dial("alice", "ep-alice")

	_, err := h.tryDial("alice", "ep-alice")
	require.ErrorIs(t, err, core.ErrEndpointInUse)
}

func TestDial_BrokerAssignsEndpointWhenEmpty(t *testing.T) {
	h := newHarness(t)
	conn := h.dial("alice", "")
	require.NotEmpty(t, conn.Endpoint())
}

func TestDiscoverAndProbe(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	h.dial("bob", "ep-bob")
	ctx := context.Background()

	eps, err := alice.Discover(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, []domain.EndpointID{"ep-bob"}, eps)

	eps, err = alice.Discover(ctx, "carol")
	require.NoError(t, err)
	require.Empty(t, eps)

	online, err := alice.Probe(ctx, "ep-bob")
	require.NoError(t, err)
	require.True(t, online)

	online, err = alice.Probe(ctx, "ep-gone")
	require.NoError(t, err)
	require.False(t, online)
}

func TestCall_AnsweredThenHungUp(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	bob := h.dial("bob", "ep-bob")
	call, inv := h.ring(alice, bob)

	answered, err := inv.Answer(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, alice.Endpoint(), answered.Remote().Endpoint)

	require.NoError(t, call.Close())
	waitCall(t, answered, core.CallClosed)
}

func TestCall_RejectedReportsError(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	bob := h.dial("bob", "ep-bob")
	call, inv := h.ring(alice, bob)

	require.NoError(t, inv.Reject())
	ev := waitCall(t, call, core.CallError)
	require.ErrorIs(t, ev.Err, ErrRejected)
	waitCall(t, call, core.CallClosed)
}

func TestInvite_WithdrawnWhenCallerHangsUp(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	bob := h.dial("bob", "ep-bob")
	call, inv := h.ring(alice, bob)

	require.NoError(t, call.Close())
	select {
	case <-inv.Done():
	case <-time.After(waitFor):
		t.Fatal("invite not withdrawn")
	}
	_, err := inv.Answer(context.Background(), nil)
	require.ErrorIs(t, err, core.ErrCallClosed)
}

func TestCall_UnknownTargetFails(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")

	call, err := alice.PlaceCall(context.Background(), domain.Peer{Identity: "bob", Endpoint: "ep-nobody"}, nil)
	require.NoError(t, err)
	ev := waitCall(t, call, core.CallError)
	require.ErrorContains(t, ev.Err, "unknown_peer")
}

func TestLeave_EndsCallsWithThatPeer(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")
	bob := h.dial("bob", "ep-bob")
	call, inv := h.ring(alice, bob)
	_, err := inv.Answer(context.Background(), nil)
	require.NoError(t, err)

	require.NoError(t, bob.Close())
	ev := waitConn(t, alice, core.ConnLeave)
	require.Equal(t, domain.EndpointID("ep-bob"), ev.Peer.Endpoint)
	cev := waitCall(t, call, core.CallError)
	require.ErrorIs(t, cev.Err, ErrPeerLeft)
}

func TestClose_EndsEventsWithoutError(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")

	require.NoError(t, alice.Close())
	var kinds []core.ConnEventKind
	for ev := range alice.Events() {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []core.ConnEventKind{core.ConnClosed}, kinds)

	_, err := alice.Discover(context.Background(), "bob")
	require.ErrorIs(t, err, core.ErrConnectionClosed)
}

func TestDrop_ReportsErrorThenClosed(t *testing.T) {
	h := newHarness(t)
	alice := h.dial("alice", "ep-alice")

	require.True(t, h.broker.Registry.Cancel("ep-alice"))
	var kinds []core.ConnEventKind
	for ev := range alice.Events() {
		kinds = append(kinds, ev.Kind)
	}
	require.Equal(t, []core.ConnEventKind{core.ConnError, core.ConnClosed}, kinds)
}
