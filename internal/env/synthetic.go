package env

import (
	"fmt"
	"math/rand/v2"

	"github.com/san-kum/livegraph/internal/graph"
)

// Synthetic generates a small peer-to-peer swarm: an initial set of peers
// with a few transfers between them, and a feed in which new peers join,
// open transfers to existing peers and now and then form a group.
// The same seed always yields the same snapshot.
func Synthetic(seed uint64, nodes, feed int) graph.Snapshot {
	rng := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	var s graph.Snapshot

	peer := func(i int) string { return fmt.Sprintf("peer-%03d", i) }
	for i := 0; i < nodes; i++ {
		s.Nodes = append(s.Nodes, graph.NewNode(peer(i)))
	}
	for i := 1; i < nodes; i++ {
		s.Links = append(s.Links, graph.NewLink(peer(rng.IntN(i)), peer(i), rng.IntN(3) == 0))
	}
	if nodes >= 3 {
		s.Groups = append(s.Groups, graph.NewGroup("swarm-000", peer(0), peer(1), peer(2)))
	}

	elems := make([]graph.Element, 0, feed)
	live := nodes
	groups := len(s.Groups)
	for len(elems) < feed {
		switch r := rng.IntN(10); {
		case r < 4 || live < 2:
			elems = append(elems, graph.NodeElement(graph.NewNode(peer(live))))
			live++
		case r < 9:
			a, b := rng.IntN(live), rng.IntN(live)
			if a == b {
				b = (b + 1) % live
			}
			elems = append(elems, graph.LinkElement(graph.NewLink(peer(a), peer(b), rng.IntN(2) == 0)))
		default:
			size := 2 + rng.IntN(min(live, 4)-1)
			members := make([]string, 0, size)
			for _, i := range rng.Perm(live)[:size] {
				members = append(members, peer(i))
			}
			elems = append(elems, graph.GroupElement(graph.NewGroup(fmt.Sprintf("swarm-%03d", groups), members...)))
			groups++
		}
	}
	s.Feed = sequence(elems)
	return s
}
