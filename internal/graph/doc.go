// Package graph provides the entity model shared by the layout loop.
//
// The package defines the values that the simulation, the drawers and the
// feed all operate on:
//
//   - [Node]: a graph vertex whose position is owned by the layout solver
//   - [Link]: an edge holding references to its two endpoint nodes
//   - [Group]: a named set of member nodes
//   - [Element]: one item emitted by a feed
//   - [Graph]: the owner of the live node, link and group collections
//
// # Sharing
//
// A single *Graph is handed to every drawer and to the feed. Appending to it
// is immediately visible to all holders; nobody keeps a copy.
//
// # Thread Safety
//
// Graph is NOT thread-safe. All access must happen on the cooperative loop
// that drives the simulation (see package clock).
package graph
