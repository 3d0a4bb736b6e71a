// Package viz renders a live layout in the terminal.
//
//   - [Canvas]: Braille-based pixel canvas
//   - [Terminal]: a draw.Substrate that records drawables and rasterises
//     them onto a Canvas
//   - [Model]: the Bubble Tea live view, fed by a [Session]
//   - [Menu]: a preset picker shown before the live view
//
// # Key Bindings
//
//	Space - Pause/Resume the frame clock
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
