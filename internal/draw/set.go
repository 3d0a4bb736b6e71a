package draw

import (
	"fmt"

	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/sim"
)

// Set is the three drawers of one view, registered on a context in the
// order nodes, links, groups.
type Set struct {
	Nodes  *NodeDrawer
	Links  *LinkDrawer
	Groups *GroupDrawer

	ctx *sim.Context
}

func Attach(ctx *sim.Context, sub Substrate) *Set {
	s := &Set{
		Nodes: NewNodeDrawer(ctx, sub),
		Links: NewLinkDrawer(ctx, sub),
		ctx:   ctx,
	}
	s.Groups = NewGroupDrawer(ctx, sub, s.Nodes)

	ctx.Add(s.Nodes)
	ctx.Add(s.Links)
	ctx.Add(s.Groups)
	return s
}

// AddNode adds n through the node drawer. Links and groups that were
// skipped for naming a missing node are reconciled again, so one waiting
// on n is drawn as soon as n arrives.
func (s *Set) AddNode(n *graph.Node) {
	s.ctx.Batch(func() {
		s.Nodes.AddNode(n)
		if s.Links.Dangling() > 0 {
			s.Links.Restart()
		}
		if s.Groups.Dangling() > 0 {
			s.Groups.Restart()
		}
	})
}

// RemoveNode deletes a node with the links naming it and its group
// memberships, then reconciles all three drawers.
func (s *Set) RemoveNode(id string) error {
	if !s.ctx.Graph().DeleteNode(id) {
		return fmt.Errorf("draw: node %s: %w", id, graph.ErrUnknownNode)
	}
	s.ctx.Batch(func() {
		s.Nodes.Restart()
		s.Links.Restart()
		s.Groups.Restart()
	})
	return nil
}

// Restyle re-derives the style of every drawable in the set.
func (s *Set) Restyle() {
	s.Nodes.Restyle()
	s.Links.Restyle()
	s.Groups.Restyle()
}
