package draw

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/livegraph/internal/graph"
)

// ErrInvalidPosition is returned by Drag for a NaN or infinite position.
var ErrInvalidPosition = errors.New("draw: position must be finite")

// NodeDrawer draws one circle per live node and owns pinning: a node may be
// free or pinned, and a pinned node reports its fixed position to the
// solver until it is unpinned.
type NodeDrawer struct {
	host  Host
	sub   Substrate
	nodes *join[*graph.Node]
}

func NewNodeDrawer(host Host, sub Substrate) *NodeDrawer {
	return &NodeDrawer{
		host:  host,
		sub:   sub,
		nodes: newJoin(sub, graph.KindNode, func(n *graph.Node) string { return n.ID }),
	}
}

func (d *NodeDrawer) Start() { d.Restart() }

func (d *NodeDrawer) Tick() {
	d.nodes.each(func(n *graph.Node, h Handle) {
		d.sub.Place(h, d.Locate(n))
	})
}

// Restart reconciles the drawables against the node collection and nudges
// the solver.
func (d *NodeDrawer) Restart() {
	d.reconcile()
	d.host.Restart()
}

func (d *NodeDrawer) reconcile() {
	for _, n := range d.nodes.reconcile(d.host.Graph().Nodes) {
		h, _ := d.nodes.handle(n)
		d.sub.Style(h, nodeStyle(n))
	}
}

// AddNode appends n to the shared graph and restarts. A node whose id is
// already live is reported and dropped.
func (d *NodeDrawer) AddNode(n *graph.Node) {
	if err := d.host.Graph().AddNode(n); err != nil {
		d.host.Warn(err, "node", n.ID)
		return
	}
	d.Restart()
}

// Restyle re-derives the style of every bound node.
func (d *NodeDrawer) Restyle() {
	d.nodes.each(func(n *graph.Node, h Handle) {
		d.sub.Style(h, nodeStyle(n))
	})
}

// Nodes returns the nodes that currently have a drawable.
func (d *NodeDrawer) Nodes() []*graph.Node { return d.nodes.keys() }

// Locate returns the screen position of n. Pinned nodes are reported at
// their pin so dragging feels immediate.
func (d *NodeDrawer) Locate(n *graph.Node) Point {
	if n == nil {
		x, y := d.host.Project(0, 0)
		return Point{x, y}
	}
	if n.Pinned() {
		x, y := d.host.Project(*n.Fx, *n.Fy)
		return Point{x, y}
	}
	x, y := d.host.Project(n.X, n.Y)
	return Point{x, y}
}

// Pin holds the node at the position its drawable was last rendered.
func (d *NodeDrawer) Pin(id string) error {
	n, h, err := d.lookup(id)
	if err != nil {
		return err
	}
	p, ok := d.sub.Position(h)
	if !ok {
		p = d.Locate(n)
	}
	x, y := d.host.Unproject(p.X, p.Y)
	n.Pin(x, y)
	d.host.Restart()
	return nil
}

// Drag moves a node's pin to the given screen position, pinning it first
// if needed.
func (d *NodeDrawer) Drag(id string, x, y float64) error {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
		return fmt.Errorf("%w: (%g, %g)", ErrInvalidPosition, x, y)
	}
	n, _, err := d.lookup(id)
	if err != nil {
		return err
	}
	wx, wy := d.host.Unproject(x, y)
	n.Pin(wx, wy)
	d.host.Restart()
	return nil
}

func (d *NodeDrawer) Unpin(id string) error {
	n, _, err := d.lookup(id)
	if err != nil {
		return err
	}
	n.Unpin()
	d.host.Restart()
	return nil
}

func (d *NodeDrawer) lookup(id string) (*graph.Node, Handle, error) {
	n, ok := d.host.Graph().Node(id)
	if !ok {
		return nil, "", fmt.Errorf("draw: node %s: %w", id, graph.ErrUnknownNode)
	}
	h, ok := d.nodes.handle(n)
	if !ok {
		return nil, "", fmt.Errorf("draw: node %s is not drawn", id)
	}
	return n, h, nil
}
