package broker

import (
	"slices"
	"sync"

	"github.com/dkeye/peercall/internal/domain"
)

type ContextInfo struct {
	Name    domain.SessionContext `json:"name"`
	Members int                   `json:"members"`
}

// Contexts indexes live endpoints by session context. A context exists while
// it has at least one member.
type Contexts struct {
	mu      sync.RWMutex
	members map[domain.SessionContext]map[domain.EndpointID]struct{}
}

func NewContexts() *Contexts {
	return &Contexts{members: make(map[domain.SessionContext]map[domain.EndpointID]struct{})}
}

func (c *Contexts) Join(sctx domain.SessionContext, ep domain.EndpointID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[sctx]
	if !ok {
		m = make(map[domain.EndpointID]struct{})
		c.members[sctx] = m
	}
	m[ep] = struct{}{}
}

func (c *Contexts) Leave(sctx domain.SessionContext, ep domain.EndpointID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.members[sctx]
	if !ok {
		return
	}
	delete(m, ep)
	if len(m) == 0 {
		delete(c.members, sctx)
	}
}

func (c *Contexts) Members(sctx domain.SessionContext) []domain.EndpointID {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.EndpointID, 0, len(c.members[sctx]))
	for ep := range c.members[sctx] {
		out = append(out, ep)
	}
	return out
}

func (c *Contexts) List() []ContextInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ContextInfo, 0, len(c.members))
	for name, m := range c.members {
		out = append(out, ContextInfo{Name: name, Members: len(m)})
	}
	slices.SortFunc(out, func(a, b ContextInfo) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}
