package graph

import (
	"fmt"
	"iter"
)

// Node is a graph vertex. X, Y, VX and VY are written by the layout solver
// only; everyone else reads them.
type Node struct {
	ID string `json:"id" yaml:"id"`

	X  float64 `json:"-" yaml:"-"`
	Y  float64 `json:"-" yaml:"-"`
	VX float64 `json:"-" yaml:"-"`
	VY float64 `json:"-" yaml:"-"`

	// Fx and Fy hold a pin. A pinned node is held at (Fx, Fy) by the solver.
	Fx *float64 `json:"-" yaml:"-"`
	Fy *float64 `json:"-" yaml:"-"`
}

func NewNode(id string) *Node {
	return &Node{ID: id}
}

// Pinned reports whether the node is held at a fixed position.
func (n *Node) Pinned() bool {
	return n.Fx != nil && n.Fy != nil
}

func (n *Node) Pin(x, y float64) {
	n.Fx = &x
	n.Fy = &y
}

func (n *Node) Unpin() {
	n.Fx = nil
	n.Fy = nil
}

// Link is an edge between two nodes named by id. From and To are the
// resolved endpoint references and are only valid after ResolveLink.
type Link struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
	Active bool   `json:"active,omitempty" yaml:"active,omitempty"`

	From *Node `json:"-" yaml:"-"`
	To   *Node `json:"-" yaml:"-"`

	// Distance is the spring rest length, drawn once by the solver.
	Distance float64 `json:"-" yaml:"-"`
}

func NewLink(source, target string, active bool) *Link {
	return &Link{Source: source, Target: target, Active: active}
}

func (l *Link) String() string {
	return fmt.Sprintf("%s->%s", l.Source, l.Target)
}

// Resolved reports whether both endpoint references are set.
func (l *Link) Resolved() bool {
	return l.From != nil && l.To != nil
}

type Group struct {
	ID      string   `json:"id" yaml:"id"`
	Members []string `json:"members" yaml:"members"`

	Nodes []*Node `json:"-" yaml:"-"`
}

func NewGroup(id string, members ...string) *Group {
	return &Group{ID: id, Members: members}
}

type Kind int

const (
	KindNode Kind = iota
	KindLink
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindLink:
		return "link"
	case KindGroup:
		return "group"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "node":
		return KindNode, nil
	case "link":
		return KindLink, nil
	case "group":
		return KindGroup, nil
	}
	return 0, fmt.Errorf("graph: unknown element kind %q", s)
}

// Element is one item of a feed. Exactly one of Node, Link or Group is set,
// matching Kind.
type Element struct {
	Kind  Kind
	Node  *Node
	Link  *Link
	Group *Group
}

func NodeElement(n *Node) Element   { return Element{Kind: KindNode, Node: n} }
func LinkElement(l *Link) Element   { return Element{Kind: KindLink, Link: l} }
func GroupElement(g *Group) Element { return Element{Kind: KindGroup, Group: g} }

func (e Element) String() string {
	switch e.Kind {
	case KindNode:
		if e.Node != nil {
			return "node " + e.Node.ID
		}
	case KindLink:
		if e.Link != nil {
			return "link " + e.Link.String()
		}
	case KindGroup:
		if e.Group != nil {
			return "group " + e.Group.ID
		}
	}
	return e.Kind.String() + " <nil>"
}

// Snapshot is what an environment hands to the core: the initial graph plus
// a lazy, finite sequence of elements to feed in later.
type Snapshot struct {
	Nodes  []*Node
	Links  []*Link
	Groups []*Group
	Feed   iter.Seq[Element]
}
