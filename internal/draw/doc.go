// Package draw turns the live graph into drawables on a rendering
// substrate.
//
// There is one drawer per entity kind: [NodeDrawer], [LinkDrawer] and
// [GroupDrawer]. Each one keeps a set of drawables bound to the entities of
// the shared graph and brings that set in line with the collection on every
// Restart using an enter/update/exit join:
//
//   - exit: drawables whose entity left the collection are removed
//   - enter: entities without a drawable get one, styled by kind
//   - update: drawables of entities still present stay bound untouched
//
// On every Tick the drawers move their drawables to the current node
// positions. Ticks only read the graph.
//
// Links and groups that name unknown nodes are skipped and reported through
// the host; the rest of the graph keeps rendering.
package draw
