package env

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/san-kum/livegraph/internal/graph"
)

var (
	ErrUnknownFormat  = errors.New("env: unknown snapshot format")
	ErrInvalidElement = errors.New("env: invalid element")
)

// element is the wire form of one feed entry.
type element struct {
	Kind    string   `json:"kind" yaml:"kind"`
	ID      string   `json:"id,omitempty" yaml:"id,omitempty"`
	Source  string   `json:"source,omitempty" yaml:"source,omitempty"`
	Target  string   `json:"target,omitempty" yaml:"target,omitempty"`
	Active  bool     `json:"active,omitempty" yaml:"active,omitempty"`
	Members []string `json:"members,omitempty" yaml:"members,omitempty"`
}

func (e element) decode() (graph.Element, error) {
	kind, err := graph.ParseKind(e.Kind)
	if err != nil {
		return graph.Element{}, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	switch kind {
	case graph.KindNode:
		if e.ID == "" {
			return graph.Element{}, fmt.Errorf("%w: node without id", ErrInvalidElement)
		}
		return graph.NodeElement(graph.NewNode(e.ID)), nil
	case graph.KindLink:
		if e.Source == "" || e.Target == "" {
			return graph.Element{}, fmt.Errorf("%w: link needs source and target", ErrInvalidElement)
		}
		return graph.LinkElement(graph.NewLink(e.Source, e.Target, e.Active)), nil
	default:
		if e.ID == "" {
			return graph.Element{}, fmt.Errorf("%w: group without id", ErrInvalidElement)
		}
		return graph.GroupElement(graph.NewGroup(e.ID, e.Members...)), nil
	}
}

func encodeElement(e graph.Element) (element, error) {
	switch {
	case e.Kind == graph.KindNode && e.Node != nil:
		return element{Kind: e.Kind.String(), ID: e.Node.ID}, nil
	case e.Kind == graph.KindLink && e.Link != nil:
		return element{Kind: e.Kind.String(), Source: e.Link.Source, Target: e.Link.Target, Active: e.Link.Active}, nil
	case e.Kind == graph.KindGroup && e.Group != nil:
		return element{Kind: e.Kind.String(), ID: e.Group.ID, Members: slices.Clone(e.Group.Members)}, nil
	}
	return element{}, fmt.Errorf("%w: %s", ErrInvalidElement, e)
}

// DecodeElement parses one JSON-encoded feed entry.
func DecodeElement(data []byte) (graph.Element, error) {
	var e element
	if err := json.Unmarshal(data, &e); err != nil {
		return graph.Element{}, fmt.Errorf("%w: %v", ErrInvalidElement, err)
	}
	return e.decode()
}

// EncodeElement is the inverse of DecodeElement.
func EncodeElement(e graph.Element) ([]byte, error) {
	w, err := encodeElement(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// sequence turns a decoded feed into the lazy form a Snapshot carries.
func sequence(elems []graph.Element) func(yield func(graph.Element) bool) {
	return func(yield func(graph.Element) bool) {
		for _, e := range elems {
			if !yield(e) {
				return
			}
		}
	}
}

// Collect drains a snapshot's feed.
func Collect(s graph.Snapshot) []graph.Element {
	if s.Feed == nil {
		return nil
	}
	var out []graph.Element
	for e := range s.Feed {
		out = append(out, e)
	}
	return out
}
