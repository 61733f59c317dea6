package dynamo

import "sync"

// StatePool hands out zeroed vectors of a fixed size. Every Get returns a
// vector owned by the caller until the same pointer is Put back.
type StatePool struct {
	pool sync.Pool
	size int
}

func NewStatePool(stateSize int) *StatePool {
	return &StatePool{
		size: stateSize,
		pool: sync.Pool{
			New: func() interface{} {
				s := make(State, stateSize)
				return &s
			},
		},
	}
}

func (p *StatePool) Size() int { return p.size }

func (p *StatePool) Get() *State {
	return p.pool.Get().(*State)
}

func (p *StatePool) Put(s *State) {
	if s == nil || len(*s) != p.size {
		return
	}
	clear(*s)
	p.pool.Put(s)
}
