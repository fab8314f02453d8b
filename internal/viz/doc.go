// Package viz is the live terminal view of a thruster run, built on Bubble
// Tea.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	+ / - - Raise or lower the thrust command by 50 N
//	?     - Show help
//	q     - Quit
//
// Thrust changes are published on the thruster's command topic, the same
// way any other client would send them.
package viz
