package engine

import (
	"sync"

	"gonum.org/v1/gonum/spatial/r3"
)

// shard is one worker's scratch space for a force pass.
type shard struct {
	force  []r3.Vec
	torque []r3.Vec

	near []int
	live []int

	pairContacts  int
	plateContacts int
}

type shardPool struct {
	pool sync.Pool
	size int
}

func newShardPool(n int) *shardPool {
	return &shardPool{
		size: n,
		pool: sync.Pool{
			New: func() interface{} {
				return &shard{
					force:  make([]r3.Vec, n),
					torque: make([]r3.Vec, n),
				}
			},
		},
	}
}

func (p *shardPool) Get() *shard {
	return p.pool.Get().(*shard)
}

// Put clears s and returns it to the pool.
func (p *shardPool) Put(s *shard) {
	if len(s.force) != p.size {
		return
	}
	for i := range s.force {
		s.force[i] = r3.Vec{}
		s.torque[i] = r3.Vec{}
	}
	s.pairContacts = 0
	s.plateContacts = 0
	p.pool.Put(s)
}
