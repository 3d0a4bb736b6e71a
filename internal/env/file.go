package env

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/livegraph/internal/graph"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	YAML Format = iota
	JSON
)

// FormatOf picks a format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".json":
		return JSON, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
}

type document struct {
	Nodes  []*graph.Node  `json:"nodes" yaml:"nodes"`
	Links  []*graph.Link  `json:"links" yaml:"links"`
	Groups []*graph.Group `json:"groups" yaml:"groups"`
	Feed   []element      `json:"feed,omitempty" yaml:"feed,omitempty"`
}

func LoadFile(path string) (graph.Snapshot, error) {
	if _, err := FormatOf(path); err != nil {
		return graph.Snapshot{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("env: %w", err)
	}
	defer f.Close()

	s, err := Decode(f)
	if err != nil {
		return graph.Snapshot{}, fmt.Errorf("env: %s: %w", path, err)
	}
	return s, nil
}

// Decode reads a YAML or JSON snapshot. JSON is read by the YAML decoder.
func Decode(r io.Reader) (graph.Snapshot, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return graph.Snapshot{}, err
	}

	elems := make([]graph.Element, 0, len(doc.Feed))
	for i, w := range doc.Feed {
		e, err := w.decode()
		if err != nil {
			return graph.Snapshot{}, fmt.Errorf("feed entry %d: %w", i, err)
		}
		elems = append(elems, e)
	}
	for i, n := range doc.Nodes {
		if n == nil || n.ID == "" {
			return graph.Snapshot{}, fmt.Errorf("node %d: %w: missing id", i, ErrInvalidElement)
		}
	}

	return graph.Snapshot{
		Nodes:  doc.Nodes,
		Links:  doc.Links,
		Groups: doc.Groups,
		Feed:   sequence(elems),
	}, nil
}

// SaveFile writes the structure of g, without layout state, in the format
// implied by the path's extension.
func SaveFile(path string, g *graph.Graph) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, format, FromGraph(g)); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	return nil
}

// FromGraph captures the current collections of g as a snapshot with an
// empty feed.
func FromGraph(g *graph.Graph) graph.Snapshot {
	return graph.Snapshot{Nodes: g.Nodes, Links: g.Links, Groups: g.Groups}
}

// Encode writes s, draining its feed.
func Encode(w io.Writer, format Format, s graph.Snapshot) error {
	doc := document{Nodes: s.Nodes, Links: s.Links, Groups: s.Groups}
	for _, e := range Collect(s) {
		we, err := encodeElement(e)
		if err != nil {
			return err
		}
		doc.Feed = append(doc.Feed, we)
	}
	if doc.Nodes == nil {
		doc.Nodes = []*graph.Node{}
	}
	if doc.Links == nil {
		doc.Links = []*graph.Link{}
	}
	if doc.Groups == nil {
		doc.Groups = []*graph.Group{}
	}

	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	}
	return fmt.Errorf("%w: %d", ErrUnknownFormat, format)
}
