package graph

// Graph owns the live collections. Drawers and the feed hold the same
// *Graph, so an append through one is seen by all.
type Graph struct {
	Nodes  []*Node
	Links  []*Link
	Groups []*Group

	index map[string]*Node
}

// New builds a Graph from the initial collections of a snapshot. Nodes with
// an id already seen are dropped and returned as errors; links and groups are
// kept as-is and checked when a drawer reconciles them.
func New(s Snapshot) (*Graph, []error) {
	g := &Graph{
		Nodes:  make([]*Node, 0, len(s.Nodes)),
		Links:  make([]*Link, 0, len(s.Links)),
		Groups: make([]*Group, 0, len(s.Groups)),
		index:  make(map[string]*Node, len(s.Nodes)),
	}
	var errs []error
	for _, n := range s.Nodes {
		if err := g.AddNode(n); err != nil {
			errs = append(errs, err)
		}
	}
	g.Links = append(g.Links, s.Links...)
	g.Groups = append(g.Groups, s.Groups...)
	return g, errs
}

func (g *Graph) AddNode(n *Node) error {
	if g.index == nil {
		g.index = make(map[string]*Node)
	}
	if _, ok := g.index[n.ID]; ok {
		return &ConsistencyError{Entity: "node", ID: n.ID, Err: ErrDuplicateNode}
	}
	g.index[n.ID] = n
	g.Nodes = append(g.Nodes, n)
	return nil
}

func (g *Graph) AddLink(l *Link) {
	g.Links = append(g.Links, l)
}

func (g *Graph) AddGroup(gr *Group) {
	g.Groups = append(g.Groups, gr)
}

// Node returns the live node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.index[id]
	return n, ok
}

// RemoveNode drops a node from the collection. Links and groups naming it
// become inconsistent and are exited by their drawers on the next pass.
func (g *Graph) RemoveNode(id string) bool {
	n, ok := g.index[id]
	if !ok {
		return false
	}
	delete(g.index, id)
	for i, m := range g.Nodes {
		if m == n {
			g.Nodes = append(g.Nodes[:i], g.Nodes[i+1:]...)
			break
		}
	}
	return true
}

// DeleteNode removes a node together with every link naming it and its
// membership in groups. Groups left without members are removed too.
func (g *Graph) DeleteNode(id string) bool {
	if !g.RemoveNode(id) {
		return false
	}
	links := g.Links[:0]
	for _, l := range g.Links {
		if l.Source != id && l.Target != id {
			links = append(links, l)
		}
	}
	clear(g.Links[len(links):])
	g.Links = links

	groups := g.Groups[:0]
	for _, gr := range g.Groups {
		members := gr.Members[:0]
		for _, m := range gr.Members {
			if m != id {
				members = append(members, m)
			}
		}
		gr.Members = members
		if len(members) > 0 {
			groups = append(groups, gr)
		}
	}
	clear(g.Groups[len(groups):])
	g.Groups = groups
	return true
}

// ResolveLink points l.From and l.To at the live endpoint nodes. On failure
// both references are cleared.
func (g *Graph) ResolveLink(l *Link) error {
	from, okFrom := g.index[l.Source]
	to, okTo := g.index[l.Target]
	if !okFrom || !okTo {
		l.From, l.To = nil, nil
		var missing []string
		if !okFrom {
			missing = append(missing, l.Source)
		}
		if !okTo && l.Target != l.Source {
			missing = append(missing, l.Target)
		}
		return &ConsistencyError{Entity: "link", ID: l.String(), Missing: missing, Err: ErrUnknownNode}
	}
	l.From, l.To = from, to
	return nil
}

// ResolveGroup fills gr.Nodes from gr.Members. A group with any unknown
// member is inconsistent as a whole and ends up with no nodes.
func (g *Graph) ResolveGroup(gr *Group) error {
	nodes := make([]*Node, 0, len(gr.Members))
	var missing []string
	for _, id := range gr.Members {
		n, ok := g.index[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		nodes = append(nodes, n)
	}
	if len(missing) > 0 {
		gr.Nodes = nil
		return &ConsistencyError{Entity: "group", ID: gr.ID, Missing: missing, Err: ErrUnknownNode}
	}
	gr.Nodes = nodes
	return nil
}

type Counts struct {
	Nodes, Links, Groups int
}

func (g *Graph) Counts() Counts {
	return Counts{Nodes: len(g.Nodes), Links: len(g.Links), Groups: len(g.Groups)}
}
