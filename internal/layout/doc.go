// Package layout implements the force-directed solver behind the live view.
//
// Each [Solver.Step] advances every free node with one velocity-Verlet step:
//
//	x' = x + v·dt + ½·a(x)·dt²
//	v' = (v + ½·(a(x) + a(x'))·dt) · (1 − velocityDecay)
//
// where a is the alpha-scaled sum of a pairwise many-body repulsion and a
// spring along every link. Pinned nodes are held at their pin.
//
// With the default alpha target of 1 the solver never cools, so nodes added
// late still move visibly. [Solver.Restart] resets alpha to 1 whenever the
// topology changes.
package layout
