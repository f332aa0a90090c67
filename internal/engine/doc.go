// Package engine advances a granular bed on a vibrating plate.
//
// Each Step rebuilds the neighbor grid when any particle has changed cell,
// moves the plate to the current time, predicts every particle, gathers
// pair and plate contact forces, corrects, and wraps positions back into
// the periodic box. Observers run after the step is complete.
package engine
