// Package viz provides the live terminal view of a simulation run.
//
// A [Stream] observes the simulator and forwards copies of each sample to a
// Bubble Tea [Model], which draws the readout history, the radial profile of
// one cytosolic species and the membrane state. The stream blocks until the
// view asks for the next message, so pausing the view pauses the run.
//
// # Key Bindings
//
//	Space     - Pause/Resume
//	Tab/Right - Next cytosolic species
//	Left      - Previous species
//	?         - Show help line
//	Q         - Quit (cancels the run)
package viz
