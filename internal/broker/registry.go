package broker

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/dkeye/peercall/internal/core"
	"github.com/dkeye/peercall/internal/domain"
	"github.com/rs/zerolog/log"
)

type entry struct {
	Peer    domain.Peer
	Context domain.SessionContext
	Conn    core.SignalConnection
	Cancel  context.CancelFunc
	seq     uint64
	strikes int
}

// Member is a read-only view of a registered endpoint.
type Member struct {
	Peer    domain.Peer
	Context domain.SessionContext
	Conn    core.SignalConnection
}

// Registry holds every live endpoint. An endpoint id has at most one
// connection.
type Registry struct {
	mu        sync.RWMutex
	endpoints map[domain.EndpointID]*entry
	contexts  *Contexts
	seq       uint64
}

func NewRegistry() *Registry {
	return &Registry{
		endpoints: make(map[domain.EndpointID]*entry),
		contexts:  NewContexts(),
	}
}

func (r *Registry) Contexts() *Contexts { return r.contexts }

// Bind registers peer in sctx. It fails with core.ErrEndpointInUse if the
// endpoint id already has a connection.
func (r *Registry) Bind(peer domain.Peer, sctx domain.SessionContext, conn core.SignalConnection, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[peer.Endpoint]; ok {
		return core.ErrEndpointInUse
	}
	r.seq++
	r.endpoints[peer.Endpoint] = &entry{Peer: peer, Context: sctx, Conn: conn, Cancel: cancel, seq: r.seq}
	r.contexts.Join(sctx, peer.Endpoint)
	log.Info().Str("module", "broker.registry").Str("endpoint", peer.Endpoint.String()).
		Str("identity", peer.Identity.String()).Str("context", sctx.String()).Msg("bound endpoint")
	return nil
}

// Unbind removes ep if it is still held by conn.
func (r *Registry) Unbind(ep domain.EndpointID, conn core.SignalConnection) (Member, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.endpoints[ep]
	if !ok || e.Conn != conn {
		return Member{}, false
	}
	delete(r.endpoints, ep)
	r.contexts.Leave(e.Context, ep)
	log.Info().Str("module", "broker.registry").Str("endpoint", ep.String()).Msg("unbound endpoint")
	return e.member(), true
}

func (r *Registry) Get(ep domain.EndpointID) (Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[ep]
	if !ok {
		return Member{}, false
	}
	return e.member(), true
}

// MembersOf lists the endpoints of sctx, most recently bound first.
func (r *Registry) MembersOf(sctx domain.SessionContext) []Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var entries []*entry
	for _, ep := range r.contexts.Members(sctx) {
		if e, ok := r.endpoints[ep]; ok {
			entries = append(entries, e)
		}
	}
	slices.SortFunc(entries, func(a, b *entry) int { return cmp.Compare(b.seq, a.seq) })
	out := make([]Member, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.member())
	}
	return out
}

// Find returns the endpoints of identity in sctx, most recent first.
func (r *Registry) Find(sctx domain.SessionContext, identity domain.UserIdentity) []domain.EndpointID {
	var out []domain.EndpointID
	for _, m := range r.MembersOf(sctx) {
		if m.Peer.Identity == identity {
			out = append(out, m.Peer.Endpoint)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.endpoints)
}

// Strike records a dropped frame for ep and returns the running count.
func (r *Registry) Strike(ep domain.EndpointID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.endpoints[ep]
	if !ok {
		return 0
	}
	e.strikes++
	return e.strikes
}

func (r *Registry) ClearStrikes(ep domain.EndpointID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.endpoints[ep]; ok {
		e.strikes = 0
	}
}

// Cancel stops the connection serving ep.
func (r *Registry) Cancel(ep domain.EndpointID) bool {
	r.mu.RLock()
	e, ok := r.endpoints[ep]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "broker.registry").Str("endpoint", ep.String()).Msg("canceled endpoint")
	return true
}

func (e *entry) member() Member {
	return Member{Peer: e.Peer, Context: e.Context, Conn: e.Conn}
}
