package metrics

import (
	"github.com/san-kum/demsim/internal/engine"
)

// Contacts is the time-averaged coordination number: particle-particle
// contacts per particle, counting each contact for both partners.
type Contacts struct {
	name    string
	sum     float64
	samples int
}

func NewContacts() *Contacts {
	return &Contacts{name: "contacts"}
}

func (c *Contacts) Name() string {
	return c.name
}

func (c *Contacts) Observe(e *engine.Engine) {
	n := len(e.Particles())
	if n == 0 {
		return
	}
	pairs, _ := e.Contacts()
	c.sum += 2 * float64(pairs) / float64(n)
	c.samples++
}

func (c *Contacts) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *Contacts) Reset() {
	c.sum = 0
	c.samples = 0
}
