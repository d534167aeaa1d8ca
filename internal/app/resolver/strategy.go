package resolver

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"golang.org/x/sync/singleflight"
)

// Strategy yields a live endpoint for an identity or ErrNotFound.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error)
}

// ConnSource hands out a signaling connection, connecting if there is none.
type ConnSource interface {
	Conn(ctx context.Context) (core.Connection, error)
}

// Connector is the binding side of a ConnSource.
type Connector interface {
	Connect(ctx context.Context, local domain.UserIdentity, sctx domain.SessionContext) (core.Connection, error)
}

type boundConns struct {
	c     Connector
	local domain.UserIdentity
	sctx  domain.SessionContext
}

func (b boundConns) Conn(ctx context.Context) (core.Connection, error) {
	return b.c.Connect(ctx, b.local, b.sctx)
}

// ConnectAs returns a ConnSource that connects through c as local in sctx.
// Calls made while a connect is in flight join it.
func ConnectAs(c Connector, local domain.UserIdentity, sctx domain.SessionContext) ConnSource {
	return boundConns{c: c, local: local, sctx: sctx}
}

// DirectoryStrategy answers from presence announcements already seen.
type DirectoryStrategy struct {
	Dir *Directory
}

func (DirectoryStrategy) Name() string { return "directory" }

func (s DirectoryStrategy) Resolve(_ context.Context, identity domain.UserIdentity) (domain.EndpointID, error) {
	if ep, ok := s.Dir.Lookup(identity); ok {
		return ep, nil
	}
	return "", ErrNotFound
}

// DerivedStrategy computes the rendezvous id of identity inside Context and
// confirms it with a bounded probe.
type DerivedStrategy struct {
	Context      domain.SessionContext
	Conns        ConnSource
	ProbeTimeout time.Duration
}

func (DerivedStrategy) Name() string { return "derived" }

func (s DerivedStrategy) Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error) {
	conn, err := s.Conns.Conn(ctx)
	if err != nil {
		return "", err
	}
	ep := domain.DeriveEndpoint(identity, s.Context)
	if ep == conn.Endpoint() {
		return "", ErrNotFound
	}
	pctx, cancel := context.WithTimeout(ctx, s.ProbeTimeout)
	defer cancel()
	alive, err := conn.Probe(pctx, ep)
	if err != nil {
		return "", fmt.Errorf("probe %s: %w", ep, err)
	}
	if !alive {
		return "", ErrNotFound
	}
	return ep, nil
}

// DiscoveryStrategy asks the broker for identity. Concurrent lookups of the
// same identity share one request, bounded by Timeout rather than by any one
// caller's context.
type DiscoveryStrategy struct {
	Dir     *Directory
	Conns   ConnSource
	Timeout time.Duration

	group singleflight.Group
}

func (*DiscoveryStrategy) Name() string { return "discovery" }

func (s *DiscoveryStrategy) Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error) {
	ch := s.group.DoChan(string(identity), func() (any, error) {
		dctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
		defer cancel()
		conn, err := s.Conns.Conn(dctx)
		if err != nil {
			return domain.EndpointID(""), err
		}
		eps, err := conn.Discover(dctx, identity)
		if err != nil {
			return domain.EndpointID(""), fmt.Errorf("discover %s: %w", identity, err)
		}
		// oldest first so the freshest endpoint ends up most recent
		for _, ep := range slices.Backward(eps) {
			s.Dir.Observe(domain.Peer{Identity: identity, Endpoint: ep})
		}
		for _, ep := range eps {
			if ep != conn.Endpoint() && !s.Dir.Gone(ep) {
				return ep, nil
			}
		}
		return domain.EndpointID(""), ErrNotFound
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(domain.EndpointID), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
