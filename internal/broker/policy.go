package broker

import "github.com/dkeye/peercall/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropFrame
	KickMember
)

// Policy decides what happens to an endpoint whose send queue is full.
// strikes counts consecutive dropped frames including this one.
type Policy interface {
	OnBackPressure(peer domain.Peer, strikes int) BackpressureAction
}

// SimplePolicy drops frames until MaxStrikes is reached, then kicks.
type SimplePolicy struct {
	MaxStrikes int
}

func (p SimplePolicy) OnBackPressure(_ domain.Peer, strikes int) BackpressureAction {
	if strikes >= p.MaxStrikes {
		return KickMember
	}
	return DropFrame
}
