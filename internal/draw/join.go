package draw

import "github.com/san-kum/livegraph/internal/graph"

// join keeps drawables bound to entities keyed by identity.
type join[K comparable] struct {
	sub   Substrate
	kind  graph.Kind
	id    func(K) string
	bound map[K]Handle
	order []K
}

func newJoin[K comparable](sub Substrate, kind graph.Kind, id func(K) string) *join[K] {
	return &join[K]{
		sub:   sub,
		kind:  kind,
		id:    id,
		bound: make(map[K]Handle),
	}
}

// reconcile removes drawables whose key is not in keys, binds one for every
// key lacking a drawable, and returns the keys that entered.
func (j *join[K]) reconcile(keys []K) []K {
	present := make(map[K]struct{}, len(keys))
	for _, k := range keys {
		present[k] = struct{}{}
	}

	kept := j.order[:0]
	for _, k := range j.order {
		if _, ok := present[k]; ok {
			kept = append(kept, k)
			continue
		}
		j.sub.Remove(j.bound[k])
		delete(j.bound, k)
	}
	j.order = kept

	var entered []K
	for _, k := range keys {
		if _, ok := j.bound[k]; ok {
			continue
		}
		j.bound[k] = j.sub.Bind(j.kind, j.id(k))
		j.order = append(j.order, k)
		entered = append(entered, k)
	}
	return entered
}

func (j *join[K]) handle(k K) (Handle, bool) {
	h, ok := j.bound[k]
	return h, ok
}

// each visits bound entities in binding order.
func (j *join[K]) each(fn func(K, Handle)) {
	for _, k := range j.order {
		fn(k, j.bound[k])
	}
}

func (j *join[K]) keys() []K {
	out := make([]K, len(j.order))
	copy(out, j.order)
	return out
}
