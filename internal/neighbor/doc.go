// Package neighbor implements the cell lists that bound contact candidate
// search: a rebuildable grid over mobile particles and a static grid over
// the plate.
//
// Both grids partition the periodic x-y box into equal cells whose edge is
// at least √2 times the smallest radius of the indexed population, so a
// packing without overlaps puts at most one particle in a cell. Cells
// still hold a list of residents, so drift or irregular seeding never
// drops a particle from candidate generation.
package neighbor
