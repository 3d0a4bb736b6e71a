package draw

import "github.com/san-kum/livegraph/internal/graph"

// Locator gives the screen position of a node.
type Locator interface {
	Locate(n *graph.Node) Point
}

// GroupDrawer draws a padded convex hull around the members of each
// consistent group.
type GroupDrawer struct {
	host   Host
	sub    Substrate
	loc    Locator
	groups *join[*graph.Group]
	buf    []Point

	dangling int
}

func NewGroupDrawer(host Host, sub Substrate, loc Locator) *GroupDrawer {
	return &GroupDrawer{
		host:   host,
		sub:    sub,
		loc:    loc,
		groups: newJoin(sub, graph.KindGroup, func(g *graph.Group) string { return g.ID }),
	}
}

func (d *GroupDrawer) Start() { d.Restart() }

func (d *GroupDrawer) Tick() {
	d.groups.each(func(gr *graph.Group, h Handle) {
		d.buf = d.buf[:0]
		for _, n := range gr.Nodes {
			d.buf = append(d.buf, d.loc.Locate(n))
		}
		d.sub.Place(h, Pad(Hull(d.buf), GroupPadding)...)
	})
}

func (d *GroupDrawer) Restart() {
	g := d.host.Graph()
	live := make([]*graph.Group, 0, len(g.Groups))
	d.dangling = 0
	for _, gr := range g.Groups {
		if err := g.ResolveGroup(gr); err != nil {
			d.host.Warn(err, "group", gr.ID)
			d.dangling++
			continue
		}
		live = append(live, gr)
	}

	for _, gr := range d.groups.reconcile(live) {
		h, _ := d.groups.handle(gr)
		d.sub.Style(h, groupStyle(gr))
	}
	d.host.Restart()
}

func (d *GroupDrawer) AddGroup(gr *graph.Group) {
	d.host.Graph().AddGroup(gr)
	d.Restart()
}

func (d *GroupDrawer) Restyle() {
	d.groups.each(func(gr *graph.Group, h Handle) {
		d.sub.Style(h, groupStyle(gr))
	})
}

// Dangling is the number of groups skipped by the last reconciliation.
func (d *GroupDrawer) Dangling() int { return d.dangling }

// Groups returns the groups that currently have a drawable.
func (d *GroupDrawer) Groups() []*graph.Group { return d.groups.keys() }
