// Package clock provides the repeating-callback primitive that drives the
// simulation frame loop and the feed.
//
//   - [Loop]: a cooperative scheduler; every callback runs on the goroutine
//     that called Run, one at a time, to completion
//   - [Manual]: a deterministic clock advanced by hand, for tests
//
// Both satisfy [Clock]. Code that needs to touch loop-owned state from
// another goroutine posts a function with [Loop.Do].
package clock
