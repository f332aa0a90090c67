// Package viz draws a running bed in the terminal with Bubble Tea.
//
//   - [Model]: live view of one engine with runtime plate tuning
//   - [App]: preset picker that opens a [Model]
//   - [Canvas]: braille pixel canvas, 2×4 dots per cell
//   - [SideView] and [PerspectiveView]: snapshot renderers
//
// # Key Bindings
//
//	Space   - Pause/Resume
//	↑/↓ k/j - Amplitude ×1.1 / ÷1.1
//	←/→ h/l - Period ×1.1 / ÷1.1
//	+/-     - Steps per frame ×2 / ÷2
//	V       - Side view / perspective view
//	X Y Z   - Rotate the perspective camera
//	T       - Cycle color themes
//	G       - Toggle GIF recording
//	?       - Help overlay
//	Q       - Quit
package viz
