package export

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/san-kum/livegraph/internal/clock"
	"github.com/san-kum/livegraph/internal/draw"
	"github.com/san-kum/livegraph/internal/graph"
	"github.com/san-kum/livegraph/internal/sim"
)

func TestWriteToProducesWellFormedSVG(t *testing.T) {
	g, _ := graph.New(graph.Snapshot{
		Nodes:  []*graph.Node{graph.NewNode("a"), graph.NewNode("b"), graph.NewNode("c&d")},
		Links:  []*graph.Link{graph.NewLink("a", "b", true), graph.NewLink("b", "c&d", false)},
		Groups: []*graph.Group{graph.NewGroup("g", "a", "b", "c&d")},
	})
	clk := clock.NewManual()
	ctx, err := sim.New(g, clk, sim.DefaultConfig(), sim.WithLogger(log.New(io.Discard)))
	if err != nil {
		t.Fatal(err)
	}
	svg := NewSVG(ctx.Viewport().Width, ctx.Viewport().Height)
	draw.Attach(ctx, svg)
	ctx.Start()
	clk.Advance(10 * sim.DefaultConfig().Frame)

	var buf bytes.Buffer
	n, err := svg.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("reported %d bytes, wrote %d", n, buf.Len())
	}

	dec := xml.NewDecoder(bytes.NewReader(buf.Bytes()))
	counts := map[string]int{}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("malformed svg: %v\n%s", err, buf.String())
		}
		if se, ok := tok.(xml.StartElement); ok {
			counts[se.Name.Local]++
		}
	}
	if counts["circle"] != 3 || counts["line"] != 2 || counts["path"] != 1 {
		t.Errorf("unexpected element counts %v", counts)
	}

	out := buf.String()
	if !strings.Contains(out, `stroke-opacity="0.30"`) || !strings.Contains(out, `stroke-opacity="1.00"`) {
		t.Error("link opacity does not follow the active flag")
	}
	if strings.Index(out, `class="groups"`) > strings.Index(out, `class="nodes"`) {
		t.Error("groups must be drawn beneath nodes")
	}
}

func TestUnplacedDrawablesAreSkipped(t *testing.T) {
	svg := NewSVG(100, 100)
	h := svg.Bind(graph.KindNode, "a")
	var buf bytes.Buffer
	svg.WriteTo(&buf)
	if strings.Contains(buf.String(), "<circle") {
		t.Error("unplaced node written")
	}

	svg.Place(h, draw.Point{X: 1, Y: 2})
	if p, ok := svg.Position(h); !ok || p.X != 1 || p.Y != 2 {
		t.Errorf("position %v %v", p, ok)
	}
	svg.Remove(h)
	if svg.Len() != 0 {
		t.Error("remove left the element")
	}
}
