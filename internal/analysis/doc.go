// Package analysis characterises the response of a vibrated bed from its
// sampled observables.
//
//   - [PowerSpectrum] and [DominantFrequency]: spectral content of a
//     series such as the mean bed height
//   - [Subharmonic]: ratio between the response and the drive frequency
//   - [BifurcationDiagram]: stroboscopic bed heights over a plate
//     parameter sweep
//   - [NewPhasePortrait] and [NewSection]: height against vertical rate,
//     continuously or once per plate cycle
//   - [Divergence]: growth rate of the separation between two beds that
//     differ by one nudged grain
//
// A bed locked to the drive has Subharmonic close to 1; period doubling
// shows up as a peak at half the drive frequency:
//
//	s, _ := analysis.PowerSpectrum(heights, dt)
//	if analysis.Subharmonic(s, 1/period) < 0.75 {
//	    // period doubled
//	}
package analysis
