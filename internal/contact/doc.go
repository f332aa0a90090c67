// Package contact implements the grain contact law and the per-contact
// tangential spring memory.
//
// [Model] is a pure function of two participants: it reports whether they
// overlap and, if so, the force and torque acting on the first one plus
// the updated tangential spring. It never mutates a particle or a
// tracker; the caller applies the result.
//
// [Tracker] stores one spring per (owner, partner) pair, keyed by stable
// particle ids. The protocol each step is:
//
//	for each owner:
//	    for each candidate partner:
//	        prev, ok := tracker.Spring(owner, partner)
//	        c, hit := model.Pair(a, b, prev, ok)
//	        if hit { tracker.Store(owner, partner, c.Spring); live = append(live, partner) }
//	    tracker.Retain(owner, live)
//
// Retain runs once per owner after all of that owner's candidates, so a
// spring is never purged before its own pair has been tested and a pair
// that separates for even one step starts again from zero elongation.
package contact
