package draw

import "github.com/san-kum/livegraph/internal/graph"

// LinkDrawer draws one line per consistent link. It also feeds the link set
// to the solver's spring force.
type LinkDrawer struct {
	host  Host
	sub   Substrate
	links *join[*graph.Link]

	dangling int
}

func NewLinkDrawer(host Host, sub Substrate) *LinkDrawer {
	return &LinkDrawer{
		host:  host,
		sub:   sub,
		links: newJoin(sub, graph.KindLink, (*graph.Link).String),
	}
}

func (d *LinkDrawer) Start() { d.Restart() }

// Tick moves both ends of every line to its endpoint nodes. Nodes that
// have not been positioned yet sit at the origin.
func (d *LinkDrawer) Tick() {
	d.links.each(func(l *graph.Link, h Handle) {
		d.sub.Place(h, d.endpoint(l.From), d.endpoint(l.To))
	})
}

func (d *LinkDrawer) endpoint(n *graph.Node) Point {
	var x, y float64
	if n != nil {
		x, y = n.X, n.Y
	}
	px, py := d.host.Project(x, y)
	return Point{px, py}
}

// Restart resolves every link, skipping and reporting dangling ones,
// reconciles the drawables, hands the consistent set to the solver and
// restarts it.
func (d *LinkDrawer) Restart() {
	g := d.host.Graph()
	live := make([]*graph.Link, 0, len(g.Links))
	d.dangling = 0
	for _, l := range g.Links {
		if err := g.ResolveLink(l); err != nil {
			d.host.Warn(err, "link", l.String())
			d.dangling++
			continue
		}
		live = append(live, l)
	}

	for _, l := range d.links.reconcile(live) {
		h, _ := d.links.handle(l)
		d.sub.Style(h, linkStyle(l))
	}

	d.host.Solver().SetLinks(live)
	d.host.Restart()
}

func (d *LinkDrawer) AddLink(l *graph.Link) {
	d.host.Graph().AddLink(l)
	d.Restart()
}

// Restyle re-derives the style of every bound link, e.g. after a link's
// Active flag changed.
func (d *LinkDrawer) Restyle() {
	d.links.each(func(l *graph.Link, h Handle) {
		d.sub.Style(h, linkStyle(l))
	})
}

// Dangling is the number of links skipped by the last reconciliation.
func (d *LinkDrawer) Dangling() int { return d.dangling }

// Links returns the links that currently have a drawable.
func (d *LinkDrawer) Links() []*graph.Link { return d.links.keys() }
