package orch

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/dkeye/peercall/internal/app/diag"
	"github.com/dkeye/peercall/internal/app/media"
	"github.com/dkeye/peercall/internal/app/record"
	"github.com/dkeye/peercall/internal/app/transport"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/pion/rtp"
	"github.com/pion/webrtc/v4"
)

type fakeTrack struct {
	id      string
	kind    core.TrackKind
	enabled atomic.Bool
}

func newFakeTrack(id string, kind core.TrackKind) *fakeTrack {
	t := &fakeTrack{id: id, kind: kind}
	t.enabled.Store(true)
	return t
}

func (t *fakeTrack) ID() string                   { return t.id }
func (t *fakeTrack) Kind() core.TrackKind         { return t.kind }
func (t *fakeTrack) MimeType() string             { return webrtc.MimeTypeOpus }
func (t *fakeTrack) Settings() core.TrackSettings { return core.TrackSettings{Width: 640, Height: 480, FrameRate: 30} }
func (t *fakeTrack) SetEnabled(enabled bool)      { t.enabled.Store(enabled) }
func (t *fakeTrack) Enabled() bool                { return t.enabled.Load() }
func (t *fakeTrack) RTC() webrtc.TrackLocal       { return nil }
func (t *fakeTrack) Close() error                 { return nil }
func (t *fakeTrack) Subscribe() (<-chan *rtp.Packet, func()) {
	ch := make(chan *rtp.Packet)
	var once sync.Once
	return ch, func() { once.Do(func() { close(ch) }) }
}

type fakeResolver struct {
	mu        sync.Mutex
	ep        domain.EndpointID
	err       error
	calls     int
	observed  []domain.Peer
	forgotten []domain.EndpointID
}

func (r *fakeResolver) Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.ep, r.err
}

func (r *fakeResolver) Observe(p domain.Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observed = append(r.observed, p)
}

func (r *fakeResolver) Forget(ep domain.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.forgotten = append(r.forgotten, ep)
}

func (r *fakeResolver) snapshot() (int, []domain.Peer, []domain.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, append([]domain.Peer(nil), r.observed...), append([]domain.EndpointID(nil), r.forgotten...)
}

type fakeCall struct {
	id        string
	remote    domain.Peer
	events    chan core.CallEvent
	closed    atomic.Bool
	keyframes atomic.Int32

	mu       sync.Mutex
	replaced []core.LocalTrack
}

func newFakeCall(id string) *fakeCall {
	return &fakeCall{id: id, events: make(chan core.CallEvent, 8)}
}

func (c *fakeCall) ID() string                    { return c.id }
func (c *fakeCall) Remote() domain.Peer           { return c.remote }
func (c *fakeCall) Events() <-chan core.CallEvent { return c.events }
func (c *fakeCall) RequestKeyframe() error {
	c.keyframes.Add(1)
	return nil
}
func (c *fakeCall) Close() error {
	c.closed.Store(true)
	return nil
}
func (c *fakeCall) ReplaceTrack(_ core.TrackKind, t core.LocalTrack) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.replaced = append(c.replaced, t)
	return nil
}

func (c *fakeCall) lastReplaced() core.LocalTrack {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.replaced) == 0 {
		return nil
	}
	return c.replaced[len(c.replaced)-1]
}

type fakeConn struct {
	call *fakeCall
	err  error

	mu     sync.Mutex
	placed []domain.Peer
}

func (c *fakeConn) Endpoint() domain.EndpointID   { return "ep-alice" }
func (c *fakeConn) Events() <-chan core.ConnEvent { return nil }
func (c *fakeConn) Close() error                  { return nil }
func (c *fakeConn) Discover(context.Context, domain.UserIdentity) ([]domain.EndpointID, error) {
	return nil, nil
}
func (c *fakeConn) Probe(context.Context, domain.EndpointID) (bool, error) { return false, nil }
func (c *fakeConn) PlaceCall(_ context.Context, target domain.Peer, _ core.LocalStream) (core.CallHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.placed = append(c.placed, target)
	if c.err != nil {
		return nil, c.err
	}
	c.call.remote = target
	return c.call, nil
}

func (c *fakeConn) placedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.placed)
}

type fakeBinding struct {
	events      chan transport.Event
	conn        *fakeConn
	err         error
	connects    atomic.Int32
	disconnects atomic.Int32
}

func (b *fakeBinding) Connect(context.Context, domain.UserIdentity, domain.SessionContext) (core.Connection, error) {
	b.connects.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return b.conn, nil
}
func (b *fakeBinding) Disconnect()                    { b.disconnects.Add(1) }
func (b *fakeBinding) Events() <-chan transport.Event { return b.events }

type fakeInvite struct {
	from      domain.Peer
	call      *fakeCall
	answerErr error
	done      chan struct{}
	rejected  atomic.Bool
	answered  atomic.Bool
}

func newFakeInvite(from domain.Peer) *fakeInvite {
	return &fakeInvite{from: from, call: newFakeCall("in-1"), done: make(chan struct{})}
}

func (i *fakeInvite) ID() string            { return "invite-1" }
func (i *fakeInvite) From() domain.Peer     { return i.from }
func (i *fakeInvite) Done() <-chan struct{} { return i.done }
func (i *fakeInvite) Reject() error {
	i.rejected.Store(true)
	return nil
}
func (i *fakeInvite) Answer(context.Context, core.LocalStream) (core.CallHandle, error) {
	if i.answerErr != nil {
		return nil, i.answerErr
	}
	i.answered.Store(true)
	return i.call, nil
}

type fakeMedia struct {
	mu         sync.Mutex
	handle     *media.Handle
	camera     *fakeTrack
	screen     *fakeTrack
	err        error
	releaseErr error
	acquires   int
	releases   int
	muteCalls  int
	muted      bool
	videoOff   bool
	sharing    bool
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{camera: newFakeTrack("cam", core.TrackVideo), screen: newFakeTrack("screen", core.TrackVideo)}
}

func (m *fakeMedia) Acquire(context.Context) (*media.Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acquires++
	if m.err != nil {
		return nil, &domain.Error{Kind: domain.KindMediaUnavailable, Op: "acquire", Err: m.err}
	}
	if m.handle == nil {
		m.handle = media.NewHandle(newFakeTrack("mic", core.TrackAudio), m.camera)
	}
	return m.handle, nil
}

func (m *fakeMedia) Handle() *media.Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle
}

func (m *fakeMedia) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases++
	m.handle = nil
	m.sharing = false
	return m.releaseErr
}

func (m *fakeMedia) SetMuted(muted bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.muteCalls++
	m.muted = muted
}

func (m *fakeMedia) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

func (m *fakeMedia) SetVideoEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.videoOff = !enabled
}

func (m *fakeMedia) VideoEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.videoOff
}

func (m *fakeMedia) StartScreenShare(context.Context) (core.LocalTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sharing = true
	return m.screen, nil
}

func (m *fakeMedia) StopScreenShare() (core.LocalTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.sharing {
		return nil, errors.New("not sharing")
	}
	m.sharing = false
	return m.camera, nil
}

func (m *fakeMedia) ScreenSharing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sharing
}

func (m *fakeMedia) counts() (acquires, releases, muteCalls int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.acquires, m.releases, m.muteCalls
}

type fakeSampler struct {
	started     atomic.Int32
	stopped     atomic.Int32
	panicOnStop atomic.Bool
}

func (s *fakeSampler) Start(func() core.LocalTrack) { s.started.Add(1) }
func (s *fakeSampler) Stop() {
	s.stopped.Add(1)
	if s.panicOnStop.Load() {
		panic("sampler wedged")
	}
}
func (s *fakeSampler) Latest() (diag.Snapshot, bool) { return diag.Snapshot{}, false }

type fakeRecorder struct {
	mu           sync.Mutex
	active       bool
	tracks       int
	forceStopped int
}

func (r *fakeRecorder) Start(local []core.LocalTrack, remote []core.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return record.ErrAlreadyRecording
	}
	r.active = true
	r.tracks = len(local) + len(remote)
	return nil
}

func (r *fakeRecorder) AddTrack(core.Track) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tracks++
	return nil
}

func (r *fakeRecorder) Stop() (*record.Artifact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil, record.ErrNotRecording
	}
	r.active = false
	return &record.Artifact{Chunks: r.tracks}, nil
}

func (r *fakeRecorder) ForceStop() *record.Artifact {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return nil
	}
	r.active = false
	r.forceStopped++
	return &record.Artifact{}
}

func (r *fakeRecorder) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

func (r *fakeRecorder) forced() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.forceStopped
}
