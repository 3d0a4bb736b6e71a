package feed

import (
	"iter"

	"github.com/san-kum/livegraph/internal/graph"
)

// Source yields feed elements in order. Next reports false once the source
// is exhausted; it is not called again after that.
type Source interface {
	Next() (graph.Element, bool)
}

// Errer is implemented by sources that can end because of a failure rather
// than by running out of elements.
type Errer interface {
	Err() error
}

type seqSource struct {
	next func() (graph.Element, bool)
	stop func()
	done bool
}

// FromSeq adapts a lazy sequence into a Source.
func FromSeq(seq iter.Seq[graph.Element]) Source {
	if seq == nil {
		return FromSlice(nil)
	}
	next, stop := iter.Pull(seq)
	return &seqSource{next: next, stop: stop}
}

func (s *seqSource) Next() (graph.Element, bool) {
	if s.done {
		return graph.Element{}, false
	}
	e, ok := s.next()
	if !ok {
		s.Close()
	}
	return e, ok
}

// Close releases the underlying iterator.
func (s *seqSource) Close() {
	if s.done {
		return
	}
	s.done = true
	s.stop()
}

type sliceSource struct {
	elems []graph.Element
	i     int
}

func FromSlice(elems []graph.Element) Source {
	return &sliceSource{elems: elems}
}

func (s *sliceSource) Next() (graph.Element, bool) {
	if s.i >= len(s.elems) {
		return graph.Element{}, false
	}
	e := s.elems[s.i]
	s.i++
	return e, true
}
