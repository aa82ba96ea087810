// Package simulation holds the sampling-and-estimation loop at the heart of
// the simulator.
//
// State carries the run/pause flag and the two estimate histories; it is the
// single mutable object a session owns, and every observable snapshot keeps
// the histories the same length. Loop performs one iteration per Tick: pick
// a sample size, draw without replacement, compute both variance estimates,
// append the pair. Run drives Tick from a ticker so an interactive session
// produces estimates continuously while running; headless callers (the batch
// command, tests) call Tick directly and never need a timer.
//
// Pausing is cooperative: the running flag is checked at the top of each
// tick, so at most one in-flight iteration completes after a pause request.
package simulation
