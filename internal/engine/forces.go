package engine

import (
	"github.com/san-kum/demsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// accumulate runs the contact pass over all owners and adds the results
// to each particle's accumulators. Owners are split into contiguous
// shards; a shard writes only its own owners' tracker entries and keeps
// forces in its own buffers, which are merged in shard order.
func (e *Engine) accumulate() {
	n := len(e.particles)
	e.pairContacts, e.plateContacts = 0, 0
	if n == 0 {
		return
	}

	shards := make([]*shard, dynamo.ShardCount(n, e.cfg.Workers, minShard))
	for i := range shards {
		shards[i] = e.pool.Get()
	}

	dynamo.Shards(n, e.cfg.Workers, minShard, func(w, start, end int) {
		buf := shards[w]
		for i := start; i < end; i++ {
			e.pairsFor(i, buf)
			e.plateFor(i, buf)
		}
	})

	for _, buf := range shards {
		for i, p := range e.particles {
			p.AddForce(buf.force[i])
			p.AddTorque(buf.torque[i])
		}
		e.pairContacts += buf.pairContacts
		e.plateContacts += buf.plateContacts
		e.pool.Put(buf)
	}
}

func (e *Engine) pairsFor(i int, buf *shard) {
	p := e.particles[i]
	buf.live = buf.live[:0]

	if e.grid.Assigned(i) {
		for _, j := range e.grid.Partners(i) {
			q := e.particles[j]
			prev, seeded := e.pairs.Spring(p.ID, q.ID)
			c, ok := e.model.Pair(p, q, prev, seeded)
			if !ok {
				continue
			}
			e.pairs.Store(p.ID, q.ID, c.Spring)
			buf.live = append(buf.live, q.ID)

			buf.force[i] = r3.Add(buf.force[i], c.Force)
			buf.torque[i] = r3.Add(buf.torque[i], c.Torque)
			buf.force[j] = r3.Sub(buf.force[j], c.Force)
			buf.torque[j] = r3.Sub(buf.torque[j], c.Torque)
			buf.pairContacts++
		}
	}

	e.pairs.Retain(p.ID, buf.live)
}

func (e *Engine) plateFor(i int, buf *shard) {
	p := e.particles[i]
	buf.live = buf.live[:0]

	if e.static != nil && e.grid.Assigned(i) {
		z, vz := e.plate.Z(), e.plate.Vz()
		at := p.Position()
		buf.near = e.static.Near(at.X, at.Y, buf.near[:0])
		for _, k := range buf.near {
			b := e.base[k]
			prev, seeded := e.supports.Spring(p.ID, b.ID)
			c, ok := e.model.Plate(p, b, z, vz, prev, seeded)
			if !ok {
				continue
			}
			e.supports.Store(p.ID, b.ID, c.Spring)
			buf.live = append(buf.live, b.ID)

			buf.force[i] = r3.Add(buf.force[i], c.Force)
			buf.torque[i] = r3.Add(buf.torque[i], c.Torque)
			buf.plateContacts++
		}
	}

	e.supports.Retain(p.ID, buf.live)
}
