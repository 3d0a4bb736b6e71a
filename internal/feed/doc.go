// Package feed injects graph elements into a running simulation a few at a
// time.
//
// A Feed pulls up to BatchSize elements from its Source every Interval and
// dispatches each one to the drawer that owns its kind. All additions of one
// interval happen inside a single batch on the simulation context, so the
// layout solver is restarted once per batch rather than once per element.
//
// # Lifecycle
//
//	Idle --Start--> Running --(source exhausted | Stop)--> Stopped
//
// Stopped is terminal. There is no pause.
//
// # Thread Safety
//
// A Feed is driven by its clock and is not safe for concurrent use. With a
// clock.Loop every interval runs on the loop goroutine, alongside the frame
// callback.
package feed
