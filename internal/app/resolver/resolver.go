// Package resolver turns a logical user identity into a live endpoint id by
// trying an ordered chain of strategies.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrNotFound = errors.New("no live endpoint")

type Resolver struct {
	dir        *Directory
	strategies []Strategy
}

func New(dir *Directory, strategies ...Strategy) *Resolver {
	return &Resolver{dir: dir, strategies: strategies}
}

type Options struct {
	Context          domain.SessionContext
	ProbeTimeout     time.Duration
	DiscoveryTimeout time.Duration
}

// NewDefault wires directory, derived id and discovery in that order. The
// network strategies connect through conns on demand.
func NewDefault(conns ConnSource, opts Options) *Resolver {
	dir := NewDirectory()
	return New(dir,
		DirectoryStrategy{Dir: dir},
		DerivedStrategy{Context: opts.Context, Conns: conns, ProbeTimeout: opts.ProbeTimeout},
		&DiscoveryStrategy{Dir: dir, Conns: conns, Timeout: opts.DiscoveryTimeout},
	)
}

func (r *Resolver) Directory() *Directory { return r.dir }

// Observe records a live-connection event for either party.
func (r *Resolver) Observe(peer domain.Peer) { r.dir.Observe(peer) }

// Forget records that endpoint disconnected.
func (r *Resolver) Forget(endpoint domain.EndpointID) { r.dir.Forget(endpoint) }

// Resolve returns the first live candidate. Every miss is reported as
// ResolutionFailed wrapping ErrNotFound, whatever the strategies saw. A
// signaling connection that cannot be established is returned as is.
func (r *Resolver) Resolve(ctx context.Context, identity domain.UserIdentity) (domain.EndpointID, error) {
	for _, s := range r.strategies {
		if err := ctx.Err(); err != nil {
			return "", &domain.Error{Kind: domain.KindResolutionFailed, Op: "resolve", Err: err}
		}
		ep, err := s.Resolve(ctx, identity)
		if err == nil {
			log.Info().Str("module", "resolver").Str("strategy", s.Name()).Str("identity", identity.String()).Str("endpoint", ep.String()).Msg("resolved")
			return ep, nil
		}
		if domain.KindOf(err) == domain.KindConnectionLost {
			return "", err
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("module", "resolver").Str("strategy", s.Name()).Str("identity", identity.String()).Msg("strategy failed")
		}
	}
	return "", &domain.Error{
		Kind: domain.KindResolutionFailed,
		Op:   "resolve",
		Err:  fmt.Errorf("%w for %q", ErrNotFound, identity),
	}
}
