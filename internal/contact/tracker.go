package contact

import (
	"sort"

	"github.com/san-kum/demsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r3"
)

// Tracker holds tangential springs per owner and partner id. Owners must
// be registered before the first force pass; after that the outer map is
// only read, so different owners may be updated from different goroutines.
type Tracker struct {
	name    string
	springs map[int]map[int]r3.Vec
}

func NewTracker(name string) *Tracker {
	return &Tracker{name: name, springs: make(map[int]map[int]r3.Vec)}
}

func (t *Tracker) Name() string { return t.name }

func (t *Tracker) Register(owner int) {
	if _, ok := t.springs[owner]; !ok {
		t.springs[owner] = make(map[int]r3.Vec)
	}
}

func (t *Tracker) owner(id int) map[int]r3.Vec {
	m, ok := t.springs[id]
	if !ok {
		dynamo.Invariantf("%s tracker: owner %d not registered", t.name, id)
	}
	return m
}

func (t *Tracker) Spring(owner, partner int) (r3.Vec, bool) {
	s, ok := t.owner(owner)[partner]
	return s, ok
}

func (t *Tracker) Store(owner, partner int, s r3.Vec) {
	t.owner(owner)[partner] = s
}

// Retain drops every spring of owner whose partner is not in live.
func (t *Tracker) Retain(owner int, live []int) {
	m := t.owner(owner)
	if len(m) == 0 {
		return
	}
	for partner := range m {
		if !contains(live, partner) {
			delete(m, partner)
		}
	}
}

func (t *Tracker) Len(owner int) int {
	return len(t.owner(owner))
}

// Total returns the number of live springs across all owners.
func (t *Tracker) Total() int {
	n := 0
	for _, m := range t.springs {
		n += len(m)
	}
	return n
}

// Partners lists the partner ids of owner in ascending order.
func (t *Tracker) Partners(owner int) []int {
	m := t.owner(owner)
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func contains(ids []int, id int) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
