package orch

import (
	"context"

	"github.com/dkeye/peercall/internal/app/diag"
	"github.com/dkeye/peercall/internal/app/media"
	"github.com/dkeye/peercall/internal/app/record"
	"github.com/dkeye/peercall/internal/app/transport"
	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
)

type Resolver interface {
	Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error)
	Observe(peer domain.Peer)
	Forget(endpoint domain.EndpointID)
}

type Binding interface {
	Connect(ctx context.Context, local domain.UserIdentity, sctx domain.SessionContext) (core.Connection, error)
	Disconnect()
	Events() <-chan transport.Event
}

type Media interface {
	Acquire(ctx context.Context) (*media.Handle, error)
	Handle() *media.Handle
	Release() error
	SetMuted(muted bool)
	Muted() bool
	SetVideoEnabled(enabled bool)
	VideoEnabled() bool
	StartScreenShare(ctx context.Context) (core.LocalTrack, error)
	StopScreenShare() (core.LocalTrack, error)
	ScreenSharing() bool
}

type Sampler interface {
	Start(source func() core.LocalTrack)
	Stop()
	Latest() (diag.Snapshot, bool)
}

type Recorder interface {
	Start(local []core.LocalTrack, remote []core.Track) error
	AddTrack(track core.Track) error
	Stop() (*record.Artifact, error)
	ForceStop() *record.Artifact
	Active() bool
}
